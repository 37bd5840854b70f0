/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the back-office frontend

ROUTE GROUPS:
  /api/contracts/*          Contract CRUD, payments, settlement workflow
  /api/partners/*           Partner and price-list management
  /api/events/*             Calendar events
  /api/settlement-rounds/*  Settlement round management

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Contract routes
		r.Route("/contracts", func(r chi.Router) {
			r.Get("/", h.ListContracts)
			r.Post("/", h.CreateContract)
			r.Get("/{id}", h.GetContract)
			r.Put("/{id}", h.UpdateContract)
			r.Delete("/{id}", h.DeleteContract)

			r.Post("/{id}/payments", h.AddPayment)
			r.Post("/{id}/deductions/{deductionID}/settle", h.SettleDeduction)
			r.Post("/{id}/deductions/{deductionID}/cancel", h.CancelDeduction)

			r.Put("/{id}/prerequisites", h.UpdatePrerequisites)
			r.Post("/{id}/settlement/request", h.RequestSettlement)
			r.Post("/{id}/settlement/complete", h.CompleteSettlement)
		})

		// Bulk settlement routes
		r.Route("/settlements", func(r chi.Router) {
			r.Post("/request", h.BulkRequestSettlement)
			r.Post("/complete", h.BulkCompleteSettlement)
		})

		// Partner routes
		r.Route("/partners", func(r chi.Router) {
			r.Get("/", h.ListPartners)
			r.Post("/", h.CreatePartner)
			r.Get("/{id}", h.GetPartner)
			r.Put("/{id}", h.UpdatePartner)
			r.Delete("/{id}", h.DeletePartner)
			r.Get("/{id}/tiers", h.FindTier)
		})

		// Calendar event routes
		r.Route("/events", func(r chi.Router) {
			r.Get("/", h.ListEvents)
			r.Post("/", h.CreateEvent)
			r.Put("/{id}", h.UpdateEvent)
			r.Delete("/{id}", h.DeleteEvent)
		})

		// Settlement round routes
		r.Route("/settlement-rounds", func(r chi.Router) {
			r.Get("/", h.ListSettlementRounds)
			r.Post("/", h.CreateSettlementRound)
			r.Delete("/{id}", h.DeleteSettlementRound)
		})
	})

	return r
}
