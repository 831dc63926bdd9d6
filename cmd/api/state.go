package main

import (
	"errors"
	"net/http"
	"strconv"

	"StatBoardApi/internal/catalog"
	"StatBoardApi/internal/leaderboard"
	"StatBoardApi/internal/selection"
	"StatBoardApi/internal/validator"
	"github.com/go-chi/chi/v5"
)

func (app *application) GetState(w http.ResponseWriter, r *http.Request) {
	err := app.writeJSON(w, http.StatusOK, envelope{
		"state": app.selection.State(),
	}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) stateResponse(w http.ResponseWriter, r *http.Request, applied bool) {
	err := app.writeJSON(w, http.StatusOK, envelope{
		"applied": applied,
		"state":   app.selection.State(),
	}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) readIDParam(r *http.Request, v *validator.Validator) int64 {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		v.AddError("id", "must be a positive integer")
		return 0
	}
	return id
}

func (app *application) readBodyMode(s string, v *validator.Validator) catalog.Mode {
	mode, err := catalog.ParseMode(s)
	if err != nil {
		v.AddError("mode", `must be either "hitters" or "pitchers"`)
		return catalog.ModeHitters
	}
	return mode
}

func (app *application) SavePlayer(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Mode   string              `json:"mode"`
		Player selection.PlayerRef `json:"player"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	mode := app.readBodyMode(input.Mode, v)
	v.Check(input.Player.ID > 0, "player.id", "must be a positive integer")
	v.Check(input.Player.Name != "", "player.name", "must be provided")
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	applied := app.selection.AddSaved(mode, input.Player)
	app.stateResponse(w, r, applied)
}

func (app *application) RemovePlayer(w http.ResponseWriter, r *http.Request) {
	v := validator.New()
	mode := app.readMode(r.URL.Query(), v)
	id := app.readIDParam(r, v)
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	applied := app.selection.RemoveSaved(mode, id)
	app.stateResponse(w, r, applied)
}

func (app *application) ToggleCompare(w http.ResponseWriter, r *http.Request) {
	v := validator.New()
	mode := app.readMode(r.URL.Query(), v)
	id := app.readIDParam(r, v)
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	applied := app.selection.ToggleCompare(mode, id)
	app.stateResponse(w, r, applied)
}

func (app *application) SetActivePlayer(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Mode     string `json:"mode"`
		PlayerID int64  `json:"player_id"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	mode := app.readBodyMode(input.Mode, v)
	v.Check(input.PlayerID >= 0, "player_id", "must be zero or a positive integer")
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	applied := app.selection.SetActive(mode, input.PlayerID)
	app.stateResponse(w, r, applied)
}

func (app *application) ToggleStatKey(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Mode string `json:"mode"`
		Key  string `json:"key"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	mode := app.readBodyMode(input.Mode, v)
	if _, err := app.registry.Lookup(mode, input.Key); err != nil {
		switch {
		case errors.Is(err, catalog.ErrUnknownStat):
			v.AddError("key", "is not in the catalog for this mode")
		default:
			v.AddError("key", "could not be resolved")
		}
	}
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	applied := app.selection.ToggleStatKey(mode, input.Key)
	app.stateResponse(w, r, applied)
}

func (app *application) SetBoard(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Mode        string `json:"mode"`
		StatKey     string `json:"stat_key"`
		PitcherRole string `json:"pitcher_role"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	mode := app.readBodyMode(input.Mode, v)

	if input.StatKey != "" {
		if _, err := app.registry.Lookup(mode, input.StatKey); err != nil {
			v.AddError("stat_key", "is not in the catalog for this mode")
		}
	}

	var role leaderboard.Role
	if input.PitcherRole != "" {
		if mode != catalog.ModePitchers {
			v.AddError("pitcher_role", "is only valid for the pitchers mode")
		} else if parsed, err := leaderboard.ParseRole(input.PitcherRole); err != nil {
			v.AddError("pitcher_role", `must be either "starters" or "relievers"`)
		} else {
			role = parsed
		}
	}

	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	if input.StatKey != "" {
		app.selection.SetBoardStat(mode, input.StatKey)
	}
	if role != "" {
		app.selection.SetBoardRole(mode, role)
	}
	app.stateResponse(w, r, true)
}

func (app *application) SetView(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Year  *int                   `json:"year"`
		Mode  *string                `json:"mode"`
		Range *selection.RangeParams `json:"range_params"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()

	var mode catalog.Mode
	if input.Mode != nil {
		mode = app.readBodyMode(*input.Mode, v)
	}
	if input.Year != nil {
		v.Check(*input.Year >= 1800 && *input.Year <= 2100, "year",
			"must be between 1800 and 2100")
	}
	if input.Range != nil && input.Range.Enabled {
		v.Check(input.Range.Start != "" && input.Range.End != "", "range_params",
			"start and end must be provided when range mode is enabled")
	}

	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	if input.Year != nil {
		app.selection.SetYear(*input.Year)
	}
	if input.Mode != nil {
		app.selection.SetMode(mode)
	}
	if input.Range != nil {
		app.selection.SetRange(*input.Range)
	}
	app.stateResponse(w, r, true)
}

func (app *application) ClearState(w http.ResponseWriter, r *http.Request) {
	v := validator.New()
	mode := app.readMode(r.URL.Query(), v)
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	app.selection.ClearAll(mode)
	app.stateResponse(w, r, true)
}
