// Package user defines the client and staff identities of a tenant.
package user

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agendei/agendei/internal/domain/principal"
)

// GuestPasswordHash is stored for guest identities. It is not a bcrypt hash,
// so bcrypt.CompareHashAndPassword rejects every password against it.
const GuestPasswordHash = "!guest-no-login"

// DefaultGuestDomain is the mail domain of synthesized guest addresses. The
// .invalid TLD is reserved and can never belong to a real mailbox.
const DefaultGuestDomain = "guest.agendei.invalid"

// User is a person known to a tenant: staff, registered client or guest.
type User struct {
	ID           string         `json:"id"`
	TenantID     string         `json:"tenant_id"`
	Email        string         `json:"email"`
	Name         string         `json:"name"`
	Phone        string         `json:"phone,omitempty"`
	PasswordHash string         `json:"-"` // never serialized
	Role         principal.Role `json:"role"`
	Guest        bool           `json:"guest"`
	Enabled      bool           `json:"enabled"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// NewGuest builds the identity auto-provisioned for an anonymous booker.
// The address embeds a fresh UUID so two guests never share one.
func NewGuest(name, phone, guestDomain string) *User {
	if guestDomain == "" {
		guestDomain = DefaultGuestDomain
	}
	id := uuid.NewString()
	return &User{
		ID:           id,
		Email:        "guest-" + id + "@" + guestDomain,
		Name:         strings.TrimSpace(name),
		Phone:        strings.TrimSpace(phone),
		PasswordHash: GuestPasswordHash,
		Role:         principal.RoleUser,
		Guest:        true,
		Enabled:      true,
	}
}

// IsGuestAddress reports whether email was synthesized by NewGuest for guestDomain.
func IsGuestAddress(email, guestDomain string) bool {
	if guestDomain == "" {
		guestDomain = DefaultGuestDomain
	}
	return strings.HasPrefix(email, "guest-") && strings.HasSuffix(email, "@"+guestDomain)
}

// CreateRequest is the input for registering a staff or client account.
type CreateRequest struct {
	Email    string         `json:"email"`
	Name     string         `json:"name"`
	Password string         `json:"password"` //nolint:gosec // request field, not a hardcoded secret
	Role     principal.Role `json:"role"`
}

// Validate checks that the CreateRequest has all required fields.
func (r *CreateRequest) Validate(guestDomain string) error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return errors.New("invalid email format")
	}
	if IsGuestAddress(r.Email, guestDomain) {
		return errors.New("email is reserved")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	if len(r.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if !principal.ValidRoles[r.Role] {
		return errors.New("invalid role: must be ADMIN, USER or SERVICE_AGENT")
	}
	return nil
}
