package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"StatBoardApi/internal/assert"
	"StatBoardApi/internal/boardhub"
	"StatBoardApi/internal/catalog"
	"StatBoardApi/internal/dataset"
	"StatBoardApi/internal/jsonlog"
	"StatBoardApi/internal/selection"
	"StatBoardApi/internal/store"
)

type stubFetcher struct {
	seasons  map[catalog.Mode][]dataset.PlayerRow
	ranges   []dataset.PlayerRow
	rangeErr error
}

func (f *stubFetcher) MirrorSnapshot(_ context.Context, mode catalog.Mode,
	_ int) (dataset.Snapshot, error) {
	return dataset.Snapshot{Players: f.seasons[mode]}, nil
}

func (f *stubFetcher) BundledSnapshot(mode catalog.Mode, _ int) (dataset.Snapshot, error) {
	return dataset.Snapshot{Players: f.seasons[mode]}, nil
}

func (f *stubFetcher) QuerySnapshot(_ context.Context, mode catalog.Mode,
	_ int) (dataset.Snapshot, error) {
	return dataset.Snapshot{Players: f.seasons[mode]}, nil
}

func (f *stubFetcher) FetchRange(_ context.Context,
	_ dataset.RangeParams) ([]dataset.PlayerRow, error) {
	return f.ranges, f.rangeErr
}

func (f *stubFetcher) FetchStatcastLeaderboard(_ context.Context, _ catalog.Mode, _ int,
	_ string) ([]dataset.PlayerRow, error) {
	return f.ranges, f.rangeErr
}

func testRegistry() *catalog.Registry {
	return catalog.NewRegistry(map[catalog.Mode][]catalog.StatDefinition{
		catalog.ModeHitters: {
			{Key: "hr", Label: "Home Runs", Format: catalog.FormatInteger,
				Default: true, Available: true, RangeSupported: true},
			{Key: "avg", Label: "Batting Average", Format: catalog.FormatRate,
				Available: true, RangeSupported: true},
			{Key: "barrelpct", Label: "Barrel Rate", Format: catalog.FormatPercent,
				RangeSupported: true},
		},
		catalog.ModePitchers: {
			{Key: "era", Label: "Earned Run Average", Format: catalog.FormatFloat,
				Default: true, Available: true, LowerIsBetter: true},
		},
	})
}

func hitterRow(id int64, name string, hr float64) dataset.PlayerRow {
	return dataset.PlayerRow{
		"player_id": float64(id),
		"name":      name,
		"team":      "NYY",
		"g":         float64(140),
		"pa":        float64(600),
		"hr":        hr,
		"avg":       0.285,
	}
}

func newTestApplication(t *testing.T, fetcher dataset.Fetcher) *application {
	t.Helper()

	logger := jsonlog.New(io.Discard, jsonlog.LevelError)

	var cfg config
	cfg.version = "test"
	cfg.env = "testing"
	cfg.season.currentYear = 2025

	app := &application{
		logger:    logger,
		config:    cfg,
		registry:  testRegistry(),
		cache:     dataset.NewCache(fetcher, 2025, logger),
		selection: selection.NewManager(2025, store.NewMemStore(), selection.SyncScheduler{}, nil),
		hubs: map[catalog.Mode]*boardhub.Hub{
			catalog.ModeHitters:  boardhub.New(catalog.ModeHitters),
			catalog.ModePitchers: boardhub.New(catalog.ModePitchers),
		},
	}

	return app
}

func get(t *testing.T, handler http.Handler, path string) (int, envelope) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var body envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("unmarshaling response body: %s", err)
		}
	}

	return rec.Code, body
}

func send(t *testing.T, handler http.Handler, method, path string, payload any) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&buf).Encode(payload); err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var body envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("unmarshaling response body: %s", err)
		}
	}

	return rec.Code, body
}

func TestHealthCheck(t *testing.T) {
	app := newTestApplication(t, &stubFetcher{})

	code, body := get(t, app.routes(), "/v1/healthcheck")

	assert.Equal(t, code, http.StatusOK)
	assert.Equal(t, body["status"].(string), "available")
}

func TestSearchPlayers(t *testing.T) {
	fetcher := &stubFetcher{seasons: map[catalog.Mode][]dataset.PlayerRow{
		catalog.ModeHitters: {
			hitterRow(1, "Shohei Ohtani", 52),
			hitterRow(2, "Aaron Judge", 58),
		},
	}}
	app := newTestApplication(t, fetcher)

	code, body := get(t, app.routes(), "/v1/players/search?mode=hitters&q=ohtani")

	assert.Equal(t, code, http.StatusOK)
	players := body["players"].([]any)
	assert.Equal(t, len(players), 1)
	first := players[0].(map[string]any)
	assert.Equal(t, first["name"].(string), "Shohei Ohtani")
}

func TestSearchPlayersRejectsUnknownMode(t *testing.T) {
	app := newTestApplication(t, &stubFetcher{})

	code, _ := get(t, app.routes(), "/v1/players/search?mode=catchers&q=x")

	assert.Equal(t, code, http.StatusUnprocessableEntity)
}

func TestGetLeaderboard(t *testing.T) {
	fetcher := &stubFetcher{seasons: map[catalog.Mode][]dataset.PlayerRow{
		catalog.ModeHitters: {
			hitterRow(1, "Shohei Ohtani", 52),
			hitterRow(2, "Aaron Judge", 58),
			hitterRow(3, "Bobby Witt Jr.", 32),
		},
	}}
	app := newTestApplication(t, fetcher)

	code, body := get(t, app.routes(), "/v1/leaderboard?mode=hitters&stat=hr")

	assert.Equal(t, code, http.StatusOK)
	entries := body["leaderboard"].([]any)
	assert.Equal(t, len(entries), 3)
	first := entries[0].(map[string]any)
	assert.Equal(t, first["name"].(string), "Aaron Judge")
	assert.Equal(t, first["rank"].(float64), float64(1))
	assert.Equal(t, first["formatted"].(string), "58")
}

func TestGetLeaderboardUnknownStat(t *testing.T) {
	fetcher := &stubFetcher{seasons: map[catalog.Mode][]dataset.PlayerRow{
		catalog.ModeHitters: {hitterRow(1, "Shohei Ohtani", 52)},
	}}
	app := newTestApplication(t, fetcher)

	code, _ := get(t, app.routes(), "/v1/leaderboard?mode=hitters&stat=nope")

	assert.Equal(t, code, http.StatusUnprocessableEntity)
}

func TestGetLeaderboardEmptyDataset(t *testing.T) {
	app := newTestApplication(t, &stubFetcher{})

	code, body := get(t, app.routes(), "/v1/leaderboard?mode=hitters&stat=hr")

	assert.Equal(t, code, http.StatusOK)
	assert.Equal(t, len(body["leaderboard"].([]any)), 0)
	meta := body["metadata"].(map[string]any)
	assert.Equal(t, meta["reason"].(string), "no_data")
}

func TestGetLeaderboardRangeFetchFailure(t *testing.T) {
	fetcher := &stubFetcher{
		seasons: map[catalog.Mode][]dataset.PlayerRow{
			catalog.ModeHitters: {hitterRow(1, "Shohei Ohtani", 52)},
		},
		rangeErr: &dataset.RangeFetchError{URL: "http://query/range", StatusCode: 500},
	}
	app := newTestApplication(t, fetcher)

	code, _ := get(t, app.routes(),
		"/v1/leaderboard?mode=hitters&stat=hr&start=2025-04-01&end=2025-05-01")

	assert.Equal(t, code, http.StatusBadGateway)
}

func TestComparePlayersValidation(t *testing.T) {
	app := newTestApplication(t, &stubFetcher{})

	tests := []struct {
		name string
		path string
		want int
	}{
		{
			name: "too few ids",
			path: "/v1/players/compare?mode=hitters&player_ids=1",
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "too many ids",
			path: "/v1/players/compare?mode=hitters&player_ids=1,2,3,4,5,6",
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "duplicate ids",
			path: "/v1/players/compare?mode=hitters&player_ids=1,1",
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "unknown key",
			path: "/v1/players/compare?mode=hitters&player_ids=1,2&keys=nope",
			want: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := get(t, app.routes(), tt.path)
			assert.Equal(t, code, tt.want)
		})
	}
}

func TestComparePlayers(t *testing.T) {
	fetcher := &stubFetcher{seasons: map[catalog.Mode][]dataset.PlayerRow{
		catalog.ModeHitters: {
			hitterRow(1, "Shohei Ohtani", 52),
			hitterRow(2, "Aaron Judge", 58),
		},
	}}
	app := newTestApplication(t, fetcher)

	code, body := get(t, app.routes(), "/v1/players/compare?mode=hitters&player_ids=1,2")

	assert.Equal(t, code, http.StatusOK)
	assert.Equal(t, len(body["players"].([]any)), 2)
}

func TestStateSaveAndCascade(t *testing.T) {
	app := newTestApplication(t, &stubFetcher{})
	handler := app.routes()

	code, body := send(t, handler, http.MethodPost, "/v1/state/players", map[string]any{
		"mode":   "hitters",
		"player": map[string]any{"id": 1, "name": "Shohei Ohtani", "team": "LAD"},
	})
	assert.Equal(t, code, http.StatusOK)
	assert.Equal(t, body["applied"].(bool), true)

	code, body = send(t, handler, http.MethodPut, "/v1/state/players/1/compare?mode=hitters", nil)
	assert.Equal(t, code, http.StatusOK)
	assert.Equal(t, body["applied"].(bool), true)

	code, body = send(t, handler, http.MethodPut, "/v1/state/players/active", map[string]any{
		"mode":      "hitters",
		"player_id": 1,
	})
	assert.Equal(t, code, http.StatusOK)
	assert.Equal(t, body["applied"].(bool), true)

	code, body = send(t, handler, http.MethodDelete, "/v1/state/players/1?mode=hitters", nil)
	assert.Equal(t, code, http.StatusOK)
	assert.Equal(t, body["applied"].(bool), true)

	state := app.selection.State()
	hitters := state.Modes[catalog.ModeHitters]
	assert.Equal(t, len(hitters.SavedPlayers), 0)
	assert.Equal(t, len(hitters.CompareIDs), 0)
	assert.Equal(t, hitters.ActivePlayerID, int64(0))
}

func TestToggleStatKeyRejectsUnknownKey(t *testing.T) {
	app := newTestApplication(t, &stubFetcher{})

	code, _ := send(t, app.routes(), http.MethodPut, "/v1/state/stat-keys", map[string]any{
		"mode": "hitters",
		"key":  "nope",
	})

	assert.Equal(t, code, http.StatusUnprocessableEntity)
}
