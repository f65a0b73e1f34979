// Package tenant defines the establishment that owns an isolated partition of data.
package tenant

import (
	"regexp"
	"time"

	"github.com/agendei/agendei/internal/domain"
)

// Tenant is an independently operating establishment.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"` // immutable after creation
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var slugRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}[a-z0-9]$`)

// CreateRequest holds the fields required to register a new tenant.
type CreateRequest struct {
	Name string `json:"name" validate:"required,max=120"`
	Slug string `json:"slug" validate:"required"`
}

// Validate checks the name and the URL-safety of the slug.
func (r *CreateRequest) Validate() error {
	if err := domain.ValidateStruct(r); err != nil {
		return err
	}
	if !ValidSlug(r.Slug) {
		return domain.Validation("invalid slug %q: must be 3-64 lowercase alphanumeric characters or hyphens", r.Slug)
	}
	return nil
}

// ValidSlug reports whether s is usable as a storefront slug.
func ValidSlug(s string) bool {
	return slugRegex.MatchString(s)
}
