package http

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/agendei/agendei/internal/domain"
	"github.com/agendei/agendei/internal/domain/appointment"
	"github.com/agendei/agendei/internal/domain/catalog"
	"github.com/agendei/agendei/internal/domain/notification"
	"github.com/agendei/agendei/internal/domain/review"
	"github.com/agendei/agendei/internal/domain/storefront"
	"github.com/agendei/agendei/internal/domain/tenant"
	"github.com/agendei/agendei/internal/domain/user"
	"github.com/agendei/agendei/internal/port/database"
)

// fakeStore is an in-memory Scoper and TenantDirectory holding only what
// the handler tests touch. Methods a test does not need fall through to the
// nil embedded interface and panic.
type fakeStore struct {
	mu            sync.Mutex
	seq           int
	tenants       map[string]*tenant.Tenant
	services      map[string]*catalog.Service
	professionals map[string]*catalog.Professional
	users         map[string]*user.User
	appointments  map[string]*appointment.Appointment
	notifications []notification.Notification
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tenants:       make(map[string]*tenant.Tenant),
		services:      make(map[string]*catalog.Service),
		professionals: make(map[string]*catalog.Professional),
		users:         make(map[string]*user.User),
		appointments:  make(map[string]*appointment.Appointment),
	}
}

func (s *fakeStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *fakeStore) addTenant(id, slug string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[id] = &tenant.Tenant{ID: id, Name: "Salon " + id, Slug: slug, Enabled: true}
}

func (s *fakeStore) appointment(id string) appointment.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.appointments[id]
}

func (s *fakeStore) appointmentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.appointments)
}

func (s *fakeStore) ForTenant(tenantID string) database.Scoped {
	return &fakeScoped{store: s, tenantID: tenantID}
}

func (s *fakeStore) GetTenant(_ context.Context, id string) (*tenant.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[id]
	if !ok || !t.Enabled {
		return nil, fmt.Errorf("tenant: %w", domain.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (s *fakeStore) GetTenantBySlug(_ context.Context, slug string) (*tenant.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tenants {
		if t.Slug == slug && t.Enabled {
			cp := *t
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("tenant: %w", domain.ErrNotFound)
}

type fakeScoped struct {
	database.Scoped
	store    *fakeStore
	tenantID string
}

func notFound(what string) error { return fmt.Errorf("%s: %w", what, domain.ErrNotFound) }

func (f *fakeScoped) TenantID() string { return f.tenantID }

func (f *fakeScoped) InTx(_ context.Context, fn func(database.Scoped) error) error {
	return fn(f)
}

func (f *fakeScoped) Tenant(ctx context.Context) (*tenant.Tenant, error) {
	return f.store.GetTenant(ctx, f.tenantID)
}

func (f *fakeScoped) GetService(_ context.Context, id string) (*catalog.Service, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	v, ok := f.store.services[id]
	if !ok || v.TenantID != f.tenantID {
		return nil, notFound("service")
	}
	cp := *v
	return &cp, nil
}

func activeFilter(conds []database.Cond) (want, filtered bool) {
	for _, c := range conds {
		if c.Field == "active" {
			b, _ := c.Value.(bool)
			return b, true
		}
	}
	return false, false
}

func (f *fakeScoped) ListServices(_ context.Context, conds ...database.Cond) ([]catalog.Service, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	want, filtered := activeFilter(conds)
	var out []catalog.Service
	for _, v := range f.store.services {
		if v.TenantID == f.tenantID && (!filtered || v.Active == want) {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeScoped) CreateService(_ context.Context, v *catalog.Service) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	v.ID = f.store.nextID("svc")
	v.TenantID = f.tenantID
	cp := *v
	f.store.services[v.ID] = &cp
	return nil
}

func (f *fakeScoped) GetProfessional(_ context.Context, id string) (*catalog.Professional, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	v, ok := f.store.professionals[id]
	if !ok || v.TenantID != f.tenantID {
		return nil, notFound("professional")
	}
	cp := *v
	return &cp, nil
}

func (f *fakeScoped) ListProfessionals(_ context.Context, conds ...database.Cond) ([]catalog.Professional, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	want, filtered := activeFilter(conds)
	var out []catalog.Professional
	for _, v := range f.store.professionals {
		if v.TenantID == f.tenantID && (!filtered || v.Active == want) {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (f *fakeScoped) CreateProfessional(_ context.Context, v *catalog.Professional) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	v.ID = f.store.nextID("pro")
	v.TenantID = f.tenantID
	cp := *v
	f.store.professionals[v.ID] = &cp
	return nil
}

func (f *fakeScoped) GetUser(_ context.Context, id string) (*user.User, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	v, ok := f.store.users[id]
	if !ok || v.TenantID != f.tenantID {
		return nil, notFound("user")
	}
	cp := *v
	return &cp, nil
}

func (f *fakeScoped) CreateUser(_ context.Context, v *user.User) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if v.ID == "" {
		v.ID = f.store.nextID("usr")
	}
	v.TenantID = f.tenantID
	cp := *v
	f.store.users[v.ID] = &cp
	return nil
}

func (f *fakeScoped) GetAppointment(_ context.Context, id string) (*appointment.Appointment, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	v, ok := f.store.appointments[id]
	if !ok || v.TenantID != f.tenantID {
		return nil, notFound("appointment")
	}
	cp := *v
	return &cp, nil
}

func (f *fakeScoped) ListAppointments(_ context.Context, flt appointment.Filter) ([]appointment.Appointment, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	var out []appointment.Appointment
	for _, v := range f.store.appointments {
		switch {
		case v.TenantID != f.tenantID:
		case flt.ClientID != "" && v.ClientID != flt.ClientID:
		case flt.Status != "" && v.Status != flt.Status:
		case flt.PaymentStatus != "" && v.PaymentStatus != flt.PaymentStatus:
		default:
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (f *fakeScoped) FindActiveAppointment(_ context.Context, professionalID string, startsAt time.Time) (*appointment.Appointment, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, v := range f.store.appointments {
		if v.TenantID == f.tenantID && v.ProfessionalID == professionalID && v.StartsAt.Equal(startsAt) && v.Active() {
			cp := *v
			return &cp, nil
		}
	}
	return nil, notFound("appointment")
}

func (f *fakeScoped) CreateAppointment(_ context.Context, a *appointment.Appointment) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, v := range f.store.appointments {
		if v.TenantID == f.tenantID && v.ProfessionalID == a.ProfessionalID && v.StartsAt.Equal(a.StartsAt) && v.Active() {
			return domain.Conflict("slot already taken")
		}
	}
	a.ID = f.store.nextID("apt")
	a.TenantID = f.tenantID
	cp := *a
	f.store.appointments[a.ID] = &cp
	return nil
}

func (f *fakeScoped) TransitionStatus(_ context.Context, id string, from, to appointment.Status) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	v, ok := f.store.appointments[id]
	if !ok || v.TenantID != f.tenantID || v.Status != from {
		return notFound("appointment")
	}
	v.Status = to
	return nil
}

func (f *fakeScoped) TransitionPayment(_ context.Context, id string, from []appointment.PaymentStatus, to appointment.PaymentStatus, patch database.PaymentPatch) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	v, ok := f.store.appointments[id]
	if !ok || v.TenantID != f.tenantID {
		return notFound("appointment")
	}
	for _, src := range from {
		if v.PaymentStatus == src {
			v.PaymentStatus = to
			if patch.ProofRef != nil {
				v.PaymentProofRef = *patch.ProofRef
			}
			if patch.RejectionReason != nil {
				v.RejectionReason = *patch.RejectionReason
			}
			return nil
		}
	}
	return notFound("appointment")
}

func (f *fakeScoped) CreateNotification(_ context.Context, n *notification.Notification) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	n.ID = f.store.nextID("ntf")
	n.TenantID = f.tenantID
	f.store.notifications = append(f.store.notifications, *n)
	return nil
}

func (f *fakeScoped) GetConfig(context.Context) (*storefront.Config, error) {
	return nil, notFound("config")
}

func (f *fakeScoped) ListPortfolioImages(context.Context) ([]storefront.PortfolioImage, error) {
	return nil, nil
}

func (f *fakeScoped) ListReviews(context.Context, ...database.Cond) ([]review.Review, error) {
	return nil, nil
}
