// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/salondesk/internal/auth"
	"github.com/tomtom215/salondesk/internal/middleware"
)

// NewRouter wires every route onto a chi router.
func NewRouter(h *Handler) http.Handler {
	mw := NewChiMiddleware(h.cfg.Security)
	requireToken := auth.RequireToken(h.jwt)

	r := chi.NewRouter()

	// Global middleware, in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS())
	r.Use(middleware.AccessLog)

	r.Get("/", h.Root)

	r.Route("/api", func(r chi.Router) {
		r.Use(APISecurityHeaders)
		r.Use(middleware.PrometheusMetrics)

		r.With(mw.RateLimitHealth()).Get("/health", h.Health)

		// Gateway callbacks authenticate with an HMAC signature, not a token.
		r.With(mw.RateLimitWebhook()).Post("/webhooks/messages", h.InboundMessageWebhook)

		r.Get("/ws", h.WebSocket)

		// Reads
		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimit())

			r.Get("/records", h.ListClients)
			r.Get("/clients", h.ListClients)
			r.Get("/appointments", h.ListAppointments)
			r.Get("/availability", h.Availability)
			r.Get("/services", h.ListServices)
			r.Get("/services-with-duration", h.ServicesWithDuration)
			r.Get("/therapists-by-service/{serviceName}", h.TherapistsByService)
			r.Get("/employee-availability", h.ListEmployees)
			r.Get("/employees/{id}", h.GetEmployee)
			r.Get("/conversations", h.ListConversations)

			r.With(mw.RateLimitAnalytics()).Get("/analytics", h.Analytics)
		})

		// Writes
		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimitWrite())
			r.Use(requireToken)

			r.Post("/records", h.CreateClient)
			r.Put("/records/{id}", h.UpdateClient)
			r.Delete("/records/{id}", h.DeleteClient)
			r.Post("/clients", h.CreateClient)
			r.Put("/clients/{id}", h.UpdateClient)
			r.Post("/appointments", h.CreateAppointment)
			r.Post("/employees", h.CreateEmployee)
			r.Put("/employees/{id}", h.UpdateEmployee)
			r.Delete("/employees/{id}", h.DeleteEmployee)
			r.Post("/conversations/{phone}/read", h.MarkConversationRead)
			r.Post("/send-message", h.SendMessage)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	return r
}
