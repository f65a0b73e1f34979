package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/agendei/agendei/internal/middleware"
	"github.com/agendei/agendei/internal/port/cache"
)

// RouteDeps carries the collaborators the routes need besides the handlers.
type RouteDeps struct {
	Tokens         middleware.TokenResolver
	Accounts       middleware.AccountLookup
	Limiter        *middleware.RateLimiter // storefront only; nil disables
	Idempotency    cache.Cache             // nil disables replay
	IdempotencyTTL time.Duration
	WebSocket      http.HandlerFunc // nil disables /ws
}

// MountRoutes registers all API routes on the given chi router.
//
// Public storefront routes resolve their tenant from the {slug} path
// segment. Every other /api/v1 route requires a bearer token and acts for
// the token's tenant only.
func MountRoutes(r chi.Router, h *Handlers, deps RouteDeps) {
	r.Get("/health", h.Health)

	if deps.WebSocket != nil {
		r.Get("/ws", deps.WebSocket)
	}

	idem := func(next http.Handler) http.Handler { return next }
	if deps.Idempotency != nil {
		idem = middleware.Idempotency(deps.Idempotency, deps.IdempotencyTTL)
	}

	r.Route("/api/v1/public/{"+middleware.SlugParam+"}", func(r chi.Router) {
		if deps.Limiter != nil {
			r.Use(deps.Limiter.Handler)
		}
		r.Use(middleware.Storefront(h.Storefront))

		r.Get("/", h.GetStorefrontPage)
		r.Get("/availability", h.GetAvailability)
		r.Get("/reviews", h.ListPublicReviews)
		r.With(idem).Post("/appointments", h.BookGuest)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(deps.Tokens, deps.Accounts))

		r.Get("/me", h.Me)

		// Catalog (read)
		r.Get("/services", h.ListServices)
		r.Get("/services/{id}", h.GetService)
		r.Get("/professionals", h.ListProfessionals)
		r.Get("/professionals/{id}", h.GetProfessional)

		// Appointments (clients see their own)
		r.With(idem).Post("/appointments", h.CreateAppointment)
		r.Get("/appointments", h.ListAppointments)
		r.Get("/appointments/{id}", h.GetAppointment)
		r.Post("/appointments/{id}/cancel", h.CancelAppointment)
		r.Post("/appointments/{id}/proof", h.SubmitPaymentProof)

		// Reviews
		r.With(idem).Post("/reviews", h.CreateReview)
		r.Get("/reviews", h.ListReviews)

		// Staff console
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireStaff)

			r.Post("/services", h.CreateService)
			r.Put("/services/{id}", h.UpdateService)
			r.Delete("/services/{id}", h.DeleteService)

			r.Post("/professionals", h.CreateProfessional)
			r.Put("/professionals/{id}", h.UpdateProfessional)
			r.Delete("/professionals/{id}", h.DeleteProfessional)

			r.Post("/appointments/{id}/approve", h.ApprovePayment)
			r.Post("/appointments/{id}/reject", h.RejectPayment)
			r.Post("/appointments/{id}/complete", h.CompleteAppointment)

			r.Get("/storefront", h.GetStorefrontConfig)
			r.Put("/storefront", h.UpdateStorefrontConfig)
			r.Get("/storefront/portfolio", h.ListPortfolio)
			r.Get("/storefront/slots", h.ListSlots)

			r.Get("/notifications", h.ListNotifications)
			r.Post("/notifications/{id}/read", h.MarkNotificationRead)

			r.Get("/users/{id}", h.GetUser)
		})

		// Admin only
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)

			r.Delete("/appointments/{id}", h.DeleteAppointment)
			r.Get("/users", h.ListUsers)
			r.Post("/users", h.CreateUser)
		})
	})
}
