package main

import (
	"errors"
	"net/http"

	"StatBoardApi/internal/catalog"
	"StatBoardApi/internal/dataset"
	"StatBoardApi/internal/validator"
)

const (
	compareMinPlayers = 2
	compareMaxPlayers = 5
)

func (app *application) ComparePlayers(w http.ResponseWriter, r *http.Request) {
	v := validator.New()
	qs := r.URL.Query()

	mode := app.readMode(qs, v)
	year := app.readYear(qs, v)
	ids := app.readCSInt(qs, "player_ids", nil, v)
	keys := app.readCSV(qs, "keys", nil)
	start := app.readDate(qs, "start", "", v)
	end := app.readDate(qs, "end", "", v)
	statcast := app.readBool(qs, "statcast", false, v)

	v.Check(len(ids) >= compareMinPlayers, "player_ids",
		"must contain at least 2 players")
	v.Check(len(ids) <= compareMaxPlayers, "player_ids",
		"must not contain more than 5 players")
	v.Check(validator.Unique(ids), "player_ids", "must not contain duplicate ids")
	v.Check((start == "") == (end == ""), "start",
		"start and end must be provided together")

	if keys == nil {
		keys = app.registry.Defaults(mode)
	}
	for _, key := range keys {
		if _, err := app.registry.Lookup(mode, key); err != nil {
			v.AddError("keys", `"`+key+`" is not in the catalog for this mode`)
		}
	}

	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	rows, err := app.mergedRows(r, mode, year, ids, keys, start, end, statcast)
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

	err = app.writeJSON(w, http.StatusOK, envelope{
		"players": rows,
		"metadata": envelope{
			"mode": mode,
			"year": year,
			"keys": keys,
		},
	}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) GetPlayer(w http.ResponseWriter, r *http.Request) {
	v := validator.New()
	qs := r.URL.Query()

	mode := app.readMode(qs, v)
	year := app.readYear(qs, v)
	id := int64(app.readInt(qs, "player_id", 0, v))
	keys := app.readCSV(qs, "keys", nil)
	start := app.readDate(qs, "start", "", v)
	end := app.readDate(qs, "end", "", v)
	statcast := app.readBool(qs, "statcast", false, v)

	v.Check(id > 0, "player_id", "must be provided and positive")
	v.Check((start == "") == (end == ""), "start",
		"start and end must be provided together")

	if keys == nil {
		keys = app.registry.Defaults(mode)
	}

	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	rows, err := app.mergedRows(r, mode, year, []int64{id}, keys, start, end, statcast)
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

	if len(rows) == 0 {
		app.notFoundResponse(w, r)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{
		"player": rows[0],
		"metadata": envelope{
			"mode": mode,
			"year": year,
			"keys": keys,
		},
	}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// mergedRows resolves the merged stat rows for a set of players. In explicit
// range mode the range rows win whole-row; otherwise, when any selected key
// exists only in the event-level source, a fixed full-season window is fetched
// and only those keys are overlaid on the season rows.
func (app *application) mergedRows(r *http.Request, mode catalog.Mode, year int,
	ids []int64, keys []string, start, end string,
	statcast bool) ([]dataset.PlayerRow, error) {
	snap := app.cache.Season(r.Context(), mode, year)
	seasonByID := dataset.RowsByID(snap.Players)

	if start != "" {
		rangeRows, err := app.cache.Range(r.Context(), dataset.RangeParams{
			Mode:      mode,
			Year:      year,
			Start:     start,
			End:       end,
			Statcast:  statcast || dataset.NeedsRangeSource(keys, app.registry.RangeOnly(mode)),
			PlayerIDs: ids,
		})
		if err != nil {
			return nil, err
		}
		return dataset.MergeWhole(ids, dataset.RowsByID(rangeRows), seasonByID), nil
	}

	if dataset.NeedsRangeSource(keys, app.registry.RangeOnly(mode)) {
		winStart, winEnd := dataset.FullSeasonWindow(year)
		rangeRows, err := app.cache.Range(r.Context(), dataset.RangeParams{
			Mode:      mode,
			Year:      year,
			Start:     winStart,
			End:       winEnd,
			Statcast:  true,
			PlayerIDs: ids,
		})
		if err != nil {
			return nil, err
		}
		return dataset.MergeForKeys(ids, dataset.RowsByID(rangeRows), seasonByID, keys), nil
	}

	rows := make([]dataset.PlayerRow, 0, len(ids))
	for _, id := range ids {
		if row, ok := seasonByID[id]; ok {
			rows = append(rows, row.Clone())
		}
	}
	return rows, nil
}
