/*
 * @module api/routes
 * @description API route configuration: middleware stack and endpoint wiring
 * @architecture RESTful API architecture
 * @documentReference dev_docs/api.md
 * @stateFlow stateless HTTP request handling
 * @rules controllers receive their services through the Dependencies struct, never through globals
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/cors, github.com/go-chi/render
 * @refs api/controllers
 */

package api

import (
	"pennylane-sync-service/api/controllers"
	"pennylane-sync-service/service/batch"
	"pennylane-sync-service/service/config"
	"pennylane-sync-service/service/events"
	"pennylane-sync-service/service/history"
	"pennylane-sync-service/service/store"
	"pennylane-sync-service/service/syncer"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

// Dependencies carries the constructed services into the route wiring.
type Dependencies struct {
	Store      *store.Store
	Config     *config.ConfigService
	Syncers    *syncer.Syncers
	Batch      *batch.Driver
	History    *history.HistoryService
	Dispatcher *events.Dispatcher
	Credential controllers.CredentialValidator
}

// InitRoute wires middleware and all endpoints onto the router.
func InitRoute(r *chi.Mux, deps *Dependencies) {
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Actor", "X-Webhook-Secret"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	healthController := controllers.NewHealthController()
	r.Get("/health", healthController.Health)
	r.Get("/ready", healthController.Ready)

	syncController := controllers.NewSyncController(deps.Syncers, deps.Batch, deps.Store)
	r.Route("/sync", func(r chi.Router) {
		r.Post("/batch", syncController.RunBatchStep)
		r.Post("/guest-customer", syncController.SyncGuestCustomer)
		r.Get("/state/guest-customer", syncController.GetGuestSyncState)
		r.Get("/state/{kind}/{id}", syncController.GetSyncState)
		r.Get("/statistics/{kind}", syncController.GetStatistics)
		r.Put("/exclusion/{kind}/{id}", syncController.SetExclusion)
		r.Post("/{kind}/{id}", syncController.SyncEntity)
	})

	historyController := controllers.NewHistoryController(deps.History, deps.Config)
	r.Route("/history", func(r chi.Router) {
		r.Get("/", historyController.List)
		r.Post("/purge", historyController.Purge)
	})

	settingsController := controllers.NewSettingsController(deps.Config, deps.Credential)
	r.Route("/settings", func(r chi.Router) {
		r.Get("/", settingsController.GetSettings)
		r.Put("/", settingsController.UpdateSettings)
		r.Post("/test-connection", settingsController.TestConnection)
		r.Post("/webhook-secret", settingsController.SetWebhookSecret)
	})

	webhookController := controllers.NewWebhookController(deps.Config, deps.Dispatcher)
	r.Post("/webhook/change", webhookController.HandleChangeEvent)
}
