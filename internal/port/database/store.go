// Package database defines the tenant-scoped persistence port.
//
// Request code never sees a tenant predicate: it obtains a Scoped handle for
// the caller's tenant and every operation issued through it is constrained to
// that tenant's partition. There is no method on this port that reaches
// another tenant's rows.
package database

import (
	"context"
	"time"

	"github.com/agendei/agendei/internal/domain/appointment"
	"github.com/agendei/agendei/internal/domain/catalog"
	"github.com/agendei/agendei/internal/domain/notification"
	"github.com/agendei/agendei/internal/domain/review"
	"github.com/agendei/agendei/internal/domain/storefront"
	"github.com/agendei/agendei/internal/domain/tenant"
	"github.com/agendei/agendei/internal/domain/user"
)

// Scoper hands out handles bound to a single tenant.
type Scoper interface {
	// ForTenant performs no I/O and never fails.
	ForTenant(tenantID string) Scoped
}

// TenantDirectory resolves public tenant identities. Tenants are not
// tenant-owned records, so this lookup is not scoped.
type TenantDirectory interface {
	GetTenant(ctx context.Context, id string) (*tenant.Tenant, error)
	GetTenantBySlug(ctx context.Context, slug string) (*tenant.Tenant, error)
}

// PaymentPatch carries the columns written alongside a payment transition.
// Nil fields are left untouched.
type PaymentPatch struct {
	ProofRef        *string
	RejectionReason *string
}

// Scoped is a data-access capability bound to exactly one tenant. Reads of
// another tenant's rows report domain.ErrNotFound, creates are stamped with
// the bound tenant and updates or deletes that match no row of the bound
// tenant report domain.ErrNotFound.
type Scoped interface {
	TenantID() string

	// InTx runs fn against a handle bound to the same tenant inside one
	// transaction. The transaction commits only if fn returns nil.
	InTx(ctx context.Context, fn func(Scoped) error) error

	// Tenant returns the bound tenant's own row.
	Tenant(ctx context.Context) (*tenant.Tenant, error)

	// Services
	GetService(ctx context.Context, id string) (*catalog.Service, error)
	ListServices(ctx context.Context, conds ...Cond) ([]catalog.Service, error)
	CreateService(ctx context.Context, s *catalog.Service) error
	UpdateService(ctx context.Context, s *catalog.Service) error
	DeleteService(ctx context.Context, id string) error

	// Professionals
	GetProfessional(ctx context.Context, id string) (*catalog.Professional, error)
	ListProfessionals(ctx context.Context, conds ...Cond) ([]catalog.Professional, error)
	CreateProfessional(ctx context.Context, p *catalog.Professional) error
	UpdateProfessional(ctx context.Context, p *catalog.Professional) error
	DeleteProfessional(ctx context.Context, id string) error

	// Users
	GetUser(ctx context.Context, id string) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	ListUsers(ctx context.Context, conds ...Cond) ([]user.User, error)
	CreateUser(ctx context.Context, u *user.User) error

	// Appointments. Get and List embed the Service and Professional.
	GetAppointment(ctx context.Context, id string) (*appointment.Appointment, error)
	ListAppointments(ctx context.Context, f appointment.Filter) ([]appointment.Appointment, error)
	FindActiveAppointment(ctx context.Context, professionalID string, startsAt time.Time) (*appointment.Appointment, error)
	ListActiveStarts(ctx context.Context, professionalID string, from, to time.Time) ([]time.Time, error)
	CreateAppointment(ctx context.Context, a *appointment.Appointment) error
	TransitionStatus(ctx context.Context, id string, from, to appointment.Status) error
	TransitionPayment(ctx context.Context, id string, from []appointment.PaymentStatus, to appointment.PaymentStatus, patch PaymentPatch) error
	DeleteAppointment(ctx context.Context, id string) error

	// Reviews
	CreateReview(ctx context.Context, r *review.Review) error
	ListReviews(ctx context.Context, conds ...Cond) ([]review.Review, error)

	// Notifications
	CreateNotification(ctx context.Context, n *notification.Notification) error
	ListNotifications(ctx context.Context, unreadOnly bool, limit int) ([]notification.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error

	// Storefront. GetConfig reports domain.ErrNotFound until a config is saved.
	GetConfig(ctx context.Context) (*storefront.Config, error)
	SaveConfig(ctx context.Context, c *storefront.Config) error
	ListPortfolioImages(ctx context.Context) ([]storefront.PortfolioImage, error)
	ReplacePortfolioImages(ctx context.Context, images []storefront.PortfolioImage) error
	ListAvailabilitySlots(ctx context.Context) ([]storefront.AvailabilitySlot, error)
	ReplaceAvailabilitySlots(ctx context.Context, slots []storefront.AvailabilitySlot) error
}
