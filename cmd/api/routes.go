package main

import (
	"expvar"
	"github.com/go-chi/chi/v5"
	"net/http"
)

func (app *application) routes() http.Handler {
	router := chi.NewRouter()

	// Router
	router.NotFound(app.notFoundResponse)
	router.MethodNotAllowed(app.methodNotAllowedRequest)

	// Middleware
	router.Use(app.metrics)
	router.Use(app.recoverPanic)
	router.Use(app.enableCORS)
	router.Use(app.rateLimit)

	// Healthcheck
	router.Get("/v1/healthcheck", app.HealthCheck)
	router.Method(http.MethodGet, "/v1/metrics", expvar.Handler())

	// Catalog Endpoints
	router.Get("/v1/stats", app.ListStats)
	router.Get("/v1/stats/search", app.SearchStats)

	// Player Endpoints
	router.Get("/v1/players/search", app.SearchPlayers)
	router.Get("/v1/players/compare", app.ComparePlayers)
	router.Get("/v1/player", app.GetPlayer)

	// Leaderboard Endpoints
	router.Get("/v1/leaderboard", app.GetLeaderboard)
	router.Get("/v1/leaderboard/watch", app.WatchLeaderboard)

	// Selection State Endpoints
	router.Route("/v1/state", func(router chi.Router) {
		router.Get("/", app.GetState)
		router.Post("/players", app.SavePlayer)
		router.Delete("/players/{id}", app.RemovePlayer)
		router.Put("/players/{id}/compare", app.ToggleCompare)
		router.Put("/players/active", app.SetActivePlayer)
		router.Put("/stat-keys", app.ToggleStatKey)
		router.Put("/board", app.SetBoard)
		router.Put("/view", app.SetView)
		router.Delete("/", app.ClearState)
	})

	return router
}
