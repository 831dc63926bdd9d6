package main

import (
	"errors"
	"net/http"
	"slices"

	"StatBoardApi/internal/boardhub"
	"StatBoardApi/internal/catalog"
	"StatBoardApi/internal/dataset"
	"StatBoardApi/internal/leaderboard"
	"StatBoardApi/internal/validator"
	"github.com/gorilla/websocket"
)

func (app *application) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	v := validator.New()
	qs := r.URL.Query()

	mode := app.readMode(qs, v)
	year := app.readYear(qs, v)
	statKey := app.readString(qs, "stat", "")
	start := app.readDate(qs, "start", "", v)
	end := app.readDate(qs, "end", "", v)
	statcast := app.readBool(qs, "statcast", false, v)

	v.Check(statKey != "", "stat", "must be provided")
	v.Check((start == "") == (end == ""), "start",
		"start and end must be provided together")

	var role leaderboard.Role
	if mode == catalog.ModePitchers {
		s := app.readString(qs, "role", string(leaderboard.RoleStarters))
		parsed, err := leaderboard.ParseRole(s)
		if err != nil {
			v.AddError("role", `must be either "starters" or "relievers"`)
		}
		role = parsed
	}

	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	rows, err := app.boardRows(r, mode, year, statKey, start, end, statcast)
	if err != nil {
		var fetchErr *dataset.RangeFetchError
		switch {
		case errors.As(err, &fetchErr):
			app.upstreamErrorResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	entries, err := leaderboard.Rank(app.registry, mode, statKey, rows, role)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrUnknownStat):
			v.AddError("stat", "is not in the catalog for this mode")
			app.failedValidationResponse(w, r, v.Errors)
		case errors.Is(err, leaderboard.ErrNoData):
			app.emptyBoardResponse(w, r, mode, statKey, year, role, "no_data")
		case errors.Is(err, leaderboard.ErrNoQualified):
			app.emptyBoardResponse(w, r, mode, statKey, year, role, "no_qualified_players")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	app.broadcastBoard(mode, statKey, year, role, entries)

	err = app.writeJSON(w, http.StatusOK, envelope{
		"leaderboard": entries,
		"metadata": envelope{
			"mode": mode,
			"stat": statKey,
			"year": year,
			"role": role,
		},
	}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// boardRows resolves the row population for one board request. Range mode
// merges the event-level rows over the season snapshot; a statcast-only stat
// outside range mode is served from the population-wide statcast leaderboard.
func (app *application) boardRows(r *http.Request, mode catalog.Mode, year int,
	statKey, start, end string, statcast bool) ([]dataset.PlayerRow, error) {
	if start != "" {
		snap := app.cache.Season(r.Context(), mode, year)

		ids := make([]int64, 0, len(snap.Players))
		for _, row := range snap.Players {
			if id, ok := row.PlayerID(); ok {
				ids = append(ids, id)
			}
		}

		rangeRows, err := app.cache.Range(r.Context(), dataset.RangeParams{
			Mode:      mode,
			Year:      year,
			Start:     start,
			End:       end,
			Statcast:  statcast || app.registry.RangeOnly(mode)[statKey],
			PlayerIDs: ids,
		})
		if err != nil {
			return nil, err
		}

		// A bare season snapshot must not hide players the range source knows.
		for _, row := range rangeRows {
			if id, ok := row.PlayerID(); ok && !slices.Contains(ids, id) {
				ids = append(ids, id)
			}
		}

		return dataset.MergeWhole(ids, dataset.RowsByID(rangeRows),
			dataset.RowsByID(snap.Players)), nil
	}

	if app.registry.RangeOnly(mode)[statKey] {
		return app.cache.StatcastBoard(r.Context(), mode, year, statKey)
	}

	snap := app.cache.Season(r.Context(), mode, year)
	return snap.Players, nil
}

func (app *application) emptyBoardResponse(w http.ResponseWriter, r *http.Request,
	mode catalog.Mode, statKey string, year int, role leaderboard.Role, reason string) {
	err := app.writeJSON(w, http.StatusOK, envelope{
		"leaderboard": []leaderboard.Entry{},
		"metadata": envelope{
			"mode":   mode,
			"stat":   statKey,
			"year":   year,
			"role":   role,
			"reason": reason,
		},
	}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// broadcastBoard hands a recomputed board to the mode's hub without blocking
// the request; a saturated hub drops the refresh rather than stalling.
func (app *application) broadcastBoard(mode catalog.Mode, statKey string, year int,
	role leaderboard.Role, entries []leaderboard.Entry) {
	hub, ok := app.hubs[mode]
	if !ok {
		return
	}

	select {
	case hub.Refreshes <- boardhub.Refresh{
		Mode:    mode,
		StatKey: statKey,
		Year:    year,
		Role:    role,
		Entries: entries,
	}:
	default:
	}
}

func (app *application) WatchLeaderboard(w http.ResponseWriter, r *http.Request) {
	v := validator.New()
	mode := app.readMode(r.URL.Query(), v)
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	hub, ok := app.hubs[mode]
	if !ok {
		app.notFoundResponse(w, r)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(app.config.cors.trustedOrigins) == 0 {
				return true
			}
			return slices.Contains(app.config.cors.trustedOrigins, origin)
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		app.logError(r, err)
		return
	}

	hub.JoinWatcher(conn)
}
