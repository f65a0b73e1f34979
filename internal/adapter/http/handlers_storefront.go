package http

import (
	"context"
	"net/http"

	"github.com/agendei/agendei/internal/domain/review"
	"github.com/agendei/agendei/internal/domain/storefront"
	"github.com/agendei/agendei/internal/middleware"
	"github.com/agendei/agendei/internal/port/database"
)

const storefrontNotFound = "storefront not found"

// --- Public storefront ---

// GetStorefrontPage renders the public page of the resolved tenant.
func (h *Handlers) GetStorefrontPage(w http.ResponseWriter, r *http.Request) {
	t := middleware.TenantFromContext(r.Context())
	scope, ok := h.scoped(r)
	if t == nil || !ok {
		writeError(w, http.StatusNotFound, storefrontNotFound)
		return
	}
	page, err := h.Storefront.PageOf(r.Context(), scope, t)
	if err != nil {
		writeDomainError(w, r, err, storefrontNotFound)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

type availabilityResponse struct {
	ProfessionalID string   `json:"professional_id"`
	Date           string   `json:"date"`
	Times          []string `json:"times"`
}

// GetAvailability lists the open start times of one professional on one date.
func (h *Handlers) GetAvailability(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scoped(r)
	if !ok {
		writeError(w, http.StatusNotFound, storefrontNotFound)
		return
	}
	q := r.URL.Query()
	resp := availabilityResponse{ProfessionalID: q.Get("professional_id"), Date: q.Get("date")}
	times, err := h.Storefront.Availability(r.Context(), scope, resp.ProfessionalID, resp.Date)
	if err != nil {
		writeDomainError(w, r, err, "professional not found")
		return
	}
	if times == nil {
		times = []string{}
	}
	resp.Times = times
	writeJSON(w, http.StatusOK, resp)
}

type publicReviews struct {
	Summary review.Summary  `json:"summary"`
	Reviews []review.Review `json:"reviews"`
}

// ListPublicReviews returns the storefront's reviews with their summary.
func (h *Handlers) ListPublicReviews(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scoped(r)
	if !ok {
		writeError(w, http.StatusNotFound, storefrontNotFound)
		return
	}
	reviews, err := h.Reviews.List(r.Context(), scope, r.URL.Query().Get("professional_id"))
	if err != nil {
		writeDomainError(w, r, err, "professional not found")
		return
	}
	if reviews == nil {
		reviews = []review.Review{}
	}
	writeJSON(w, http.StatusOK, publicReviews{Summary: review.Summarize(reviews), Reviews: reviews})
}

// --- Storefront administration ---

// GetStorefrontConfig returns the tenant's configuration, or its defaults.
func (h *Handlers) GetStorefrontConfig(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scoped(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	cfg, err := h.Storefront.GetConfig(r.Context(), scope)
	if err != nil {
		writeDomainError(w, r, err, storefrontNotFound)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// UpdateStorefrontConfig applies a partial configuration update atomically.
func (h *Handlers) UpdateStorefrontConfig(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scoped(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	req, ok := readJSON[storefront.UpdateRequest](w, r)
	if !ok {
		return
	}
	cfg, err := h.Storefront.UpdateConfig(r.Context(), scope, req)
	if err != nil {
		writeDomainError(w, r, err, storefrontNotFound)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// ListPortfolio returns the tenant's portfolio images.
func (h *Handlers) ListPortfolio(w http.ResponseWriter, r *http.Request) {
	handleList(h.scoped, func(ctx context.Context, scope database.Scoped, _ *http.Request) ([]storefront.PortfolioImage, error) {
		return h.Storefront.Portfolio(ctx, scope)
	})(w, r)
}

// ListSlots returns the tenant's weekly availability slots.
func (h *Handlers) ListSlots(w http.ResponseWriter, r *http.Request) {
	handleList(h.scoped, func(ctx context.Context, scope database.Scoped, _ *http.Request) ([]storefront.AvailabilitySlot, error) {
		return h.Storefront.Slots(ctx, scope)
	})(w, r)
}
