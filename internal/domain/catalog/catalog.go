// Package catalog defines what a tenant sells (services) and who performs it (professionals).
package catalog

import (
	"strings"
	"time"

	"github.com/agendei/agendei/internal/domain"
)

// Service is a bookable offering of a tenant.
type Service struct {
	ID              string    `json:"id"`
	TenantID        string    `json:"tenant_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	DurationMinutes int       `json:"duration_minutes"`
	PriceCents      int64     `json:"price_cents"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Professional is a person who performs services for a tenant.
type Professional struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio,omitempty"`
	PhotoURL  string    `json:"photo_url,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateServiceRequest is the input for adding a service. TenantID is accepted
// on the wire but always replaced by the caller's bound tenant.
type CreateServiceRequest struct {
	TenantID        string `json:"tenant_id,omitempty"`
	Name            string `json:"name" validate:"required,max=120"`
	Description     string `json:"description" validate:"max=2000"`
	DurationMinutes int    `json:"duration_minutes" validate:"gte=5,lte=1440"`
	PriceCents      int64  `json:"price_cents" validate:"gte=0"`
}

// Validate checks the request fields.
func (r *CreateServiceRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	return domain.ValidateStruct(r)
}

// UpdateServiceRequest carries independently optional service changes.
type UpdateServiceRequest struct {
	Name            *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Description     *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	DurationMinutes *int    `json:"duration_minutes,omitempty" validate:"omitempty,gte=5,lte=1440"`
	PriceCents      *int64  `json:"price_cents,omitempty" validate:"omitempty,gte=0"`
	Active          *bool   `json:"active,omitempty"`
}

// Validate checks the present fields.
func (r *UpdateServiceRequest) Validate() error {
	return domain.ValidateStruct(r)
}

// Apply copies the present fields onto s.
func (r *UpdateServiceRequest) Apply(s *Service) {
	if r.Name != nil {
		s.Name = strings.TrimSpace(*r.Name)
	}
	if r.Description != nil {
		s.Description = *r.Description
	}
	if r.DurationMinutes != nil {
		s.DurationMinutes = *r.DurationMinutes
	}
	if r.PriceCents != nil {
		s.PriceCents = *r.PriceCents
	}
	if r.Active != nil {
		s.Active = *r.Active
	}
}

// CreateProfessionalRequest is the input for adding a professional.
type CreateProfessionalRequest struct {
	TenantID string `json:"tenant_id,omitempty"`
	Name     string `json:"name" validate:"required,max=120"`
	Bio      string `json:"bio" validate:"max=2000"`
	PhotoURL string `json:"photo_url" validate:"omitempty,http_url"`
}

// Validate checks the request fields.
func (r *CreateProfessionalRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	return domain.ValidateStruct(r)
}

// UpdateProfessionalRequest carries independently optional professional changes.
type UpdateProfessionalRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Bio      *string `json:"bio,omitempty" validate:"omitempty,max=2000"`
	PhotoURL *string `json:"photo_url,omitempty" validate:"omitempty,http_url"`
	Active   *bool   `json:"active,omitempty"`
}

// Validate checks the present fields.
func (r *UpdateProfessionalRequest) Validate() error {
	return domain.ValidateStruct(r)
}

// Apply copies the present fields onto p.
func (r *UpdateProfessionalRequest) Apply(p *Professional) {
	if r.Name != nil {
		p.Name = strings.TrimSpace(*r.Name)
	}
	if r.Bio != nil {
		p.Bio = *r.Bio
	}
	if r.PhotoURL != nil {
		p.PhotoURL = *r.PhotoURL
	}
	if r.Active != nil {
		p.Active = *r.Active
	}
}
