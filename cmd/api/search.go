package main

import (
	"net/http"

	"StatBoardApi/internal/catalog"
	"StatBoardApi/internal/dataset"
	"StatBoardApi/internal/fuzzy"
	"StatBoardApi/internal/validator"
)

const (
	playerSearchLimit = 50
	statSearchLimit   = 25
)

func (app *application) SearchPlayers(w http.ResponseWriter, r *http.Request) {
	v := validator.New()
	qs := r.URL.Query()

	mode := app.readMode(qs, v)
	year := app.readYear(qs, v)
	query := app.readString(qs, "q", "")

	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	snap := app.cache.Season(r.Context(), mode, year)

	matches := fuzzy.Search(snap.Players, func(row dataset.PlayerRow) string {
		return row.Name()
	}, query, playerSearchLimit)

	type result struct {
		PlayerID int64  `json:"player_id"`
		Name     string `json:"name"`
		Team     string `json:"team"`
		Score    int    `json:"score"`
	}

	results := make([]result, len(matches))
	for i, m := range matches {
		id, _ := m.Item.PlayerID()
		results[i] = result{
			PlayerID: id,
			Name:     m.Item.Name(),
			Team:     m.Item.Team(),
			Score:    m.Score,
		}
	}

	err := app.writeJSON(w, http.StatusOK, envelope{
		"players": results,
		"metadata": envelope{
			"mode":       mode,
			"year":       year,
			"total_rows": len(snap.Players),
		},
	}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) SearchStats(w http.ResponseWriter, r *http.Request) {
	v := validator.New()
	qs := r.URL.Query()

	mode := app.readMode(qs, v)
	query := app.readString(qs, "q", "")

	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	matches := fuzzy.Search(app.registry.All(mode), func(def catalog.StatDefinition) string {
		return def.Label
	}, query, statSearchLimit)

	stats := make([]catalog.StatDefinition, len(matches))
	for i, m := range matches {
		stats[i] = m.Item
	}

	err := app.writeJSON(w, http.StatusOK, envelope{
		"stats":    stats,
		"metadata": envelope{"mode": mode},
	}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) ListStats(w http.ResponseWriter, r *http.Request) {
	v := validator.New()
	qs := r.URL.Query()

	mode := app.readMode(qs, v)
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err := app.writeJSON(w, http.StatusOK, envelope{
		"stats": app.registry.All(mode),
		"metadata": envelope{
			"mode":     mode,
			"defaults": app.registry.Defaults(mode),
		},
	}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
