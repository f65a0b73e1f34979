package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

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

// memDB is an in-memory store shared by every tenant. Each memScoped view
// applies the same rules as the postgres proxy: reads and writes are
// confined to the bound tenant, creates are stamped, and at most one active
// appointment exists per professional and start time.
type memDB struct {
	mu            sync.Mutex
	tenants       map[string]*tenant.Tenant
	services      map[string]catalog.Service
	professionals map[string]catalog.Professional
	users         map[string]user.User
	appointments  map[string]appointment.Appointment
	reviews       map[string]review.Review
	notifications map[string]notification.Notification
	configs       map[string]storefront.Config
	images        map[string][]storefront.PortfolioImage
	slots         map[string][]storefront.AvailabilitySlot

	// fail makes the named method return the error.
	fail map[string]error
	// skipPrecheck hides active appointments from FindActiveAppointment,
	// widening the race window between the pre-check and the insert.
	skipPrecheck bool
}

func newMemDB() *memDB {
	return &memDB{
		tenants:       make(map[string]*tenant.Tenant),
		services:      make(map[string]catalog.Service),
		professionals: make(map[string]catalog.Professional),
		users:         make(map[string]user.User),
		appointments:  make(map[string]appointment.Appointment),
		reviews:       make(map[string]review.Review),
		notifications: make(map[string]notification.Notification),
		configs:       make(map[string]storefront.Config),
		images:        make(map[string][]storefront.PortfolioImage),
		slots:         make(map[string][]storefront.AvailabilitySlot),
		fail:          make(map[string]error),
	}
}

func (db *memDB) addTenant(name, slug string) *tenant.Tenant {
	db.mu.Lock()
	defer db.mu.Unlock()
	t := &tenant.Tenant{ID: uuid.NewString(), Name: name, Slug: slug, Enabled: true}
	db.tenants[t.ID] = t
	return t
}

func (db *memDB) ForTenant(tenantID string) database.Scoped {
	return &memScoped{db: db, tenantID: tenantID}
}

func (db *memDB) GetTenant(_ context.Context, id string) (*tenant.Tenant, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	t, ok := db.tenants[id]
	if !ok || !t.Enabled {
		return nil, fmt.Errorf("tenant: %w", domain.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (db *memDB) GetTenantBySlug(_ context.Context, slug string) (*tenant.Tenant, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, t := range db.tenants {
		if t.Slug == slug && t.Enabled {
			cp := *t
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("tenant: %w", domain.ErrNotFound)
}

func (db *memDB) appointmentCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.appointments)
}

type memScoped struct {
	db       *memDB
	tenantID string
	// undo is non-nil inside InTx and collects compensating actions.
	undo *[]func()
}

var _ database.Scoped = (*memScoped)(nil)

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
}

// lock acquires the store and reports an injected failure for op.
func (s *memScoped) lock(op string) error {
	s.db.mu.Lock()
	if err := s.db.fail[op]; err != nil {
		s.db.mu.Unlock()
		return err
	}
	return nil
}

func (s *memScoped) onRollback(fn func()) {
	if s.undo != nil {
		*s.undo = append(*s.undo, fn)
	}
}

func (s *memScoped) TenantID() string { return s.tenantID }

func (s *memScoped) InTx(_ context.Context, fn func(database.Scoped) error) error {
	if s.undo != nil {
		return fn(s)
	}
	var undo []func()
	tx := &memScoped{db: s.db, tenantID: s.tenantID, undo: &undo}
	if err := fn(tx); err != nil {
		s.db.mu.Lock()
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
		s.db.mu.Unlock()
		return err
	}
	return nil
}

func (s *memScoped) Tenant(_ context.Context) (*tenant.Tenant, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.tenants[s.tenantID]
	if !ok {
		return nil, notFound("tenant")
	}
	cp := *t
	return &cp, nil
}

// matchConds applies equality conditions on the named attributes. Unknown
// fields are rejected and a tenant condition is ignored.
func matchConds(conds []database.Cond, fields map[string]any) (bool, error) {
	for _, c := range conds {
		if c.Field == "tenant_id" {
			continue
		}
		v, ok := fields[c.Field]
		if !ok {
			return false, domain.Validation("unknown filter %q", c.Field)
		}
		if c.Op != "" && c.Op != database.OpEq {
			return false, domain.Validation("unsupported operator %q", c.Op)
		}
		if v != c.Value {
			return false, nil
		}
	}
	return true, nil
}

// Services

func (s *memScoped) GetService(_ context.Context, id string) (*catalog.Service, error) {
	if err := s.lock("GetService"); err != nil {
		return nil, err
	}
	defer s.db.mu.Unlock()
	v, ok := s.db.services[id]
	if !ok || v.TenantID != s.tenantID {
		return nil, notFound("service " + id)
	}
	return &v, nil
}

func (s *memScoped) ListServices(_ context.Context, conds ...database.Cond) ([]catalog.Service, error) {
	if err := s.lock("ListServices"); err != nil {
		return nil, err
	}
	defer s.db.mu.Unlock()
	out := []catalog.Service{}
	for _, v := range s.db.services {
		if v.TenantID != s.tenantID {
			continue
		}
		ok, err := matchConds(conds, map[string]any{"id": v.ID, "name": v.Name, "active": v.Active})
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memScoped) CreateService(_ context.Context, v *catalog.Service) error {
	if err := s.lock("CreateService"); err != nil {
		return err
	}
	defer s.db.mu.Unlock()
	v.ID = uuid.NewString()
	v.TenantID = s.tenantID
	v.CreatedAt, v.UpdatedAt = time.Now(), time.Now()
	s.db.services[v.ID] = *v
	id := v.ID
	s.onRollback(func() { delete(s.db.services, id) })
	return nil
}

func (s *memScoped) UpdateService(_ context.Context, v *catalog.Service) error {
	if err := s.lock("UpdateService"); err != nil {
		return err
	}
	defer s.db.mu.Unlock()
	cur, ok := s.db.services[v.ID]
	if !ok || cur.TenantID != s.tenantID {
		return notFound("update services")
	}
	next := *v
	next.TenantID = cur.TenantID
	next.UpdatedAt = time.Now()
	s.db.services[v.ID] = next
	s.onRollback(func() { s.db.services[cur.ID] = cur })
	return nil
}

func (s *memScoped) DeleteService(_ context.Context, id string) error {
	if err := s.lock("DeleteService"); err != nil {
		return err
	}
	defer s.db.mu.Unlock()
	cur, ok := s.db.services[id]
	if !ok || cur.TenantID != s.tenantID {
		return notFound("delete services")
	}
	for _, a := range s.db.appointments {
		if a.ServiceID == id {
			return domain.Conflict("record is still referenced")
		}
	}
	delete(s.db.services, id)
	s.onRollback(func() { s.db.services[id] = cur })
	return nil
}

// Professionals

func (s *memScoped) GetProfessional(_ context.Context, id string) (*catalog.Professional, error) {
	if err := s.lock("GetProfessional"); err != nil {
		return nil, err
	}
	defer s.db.mu.Unlock()
	v, ok := s.db.professionals[id]
	if !ok || v.TenantID != s.tenantID {
		return nil, notFound("professional " + id)
	}
	return &v, nil
}

func (s *memScoped) ListProfessionals(_ context.Context, conds ...database.Cond) ([]catalog.Professional, error) {
	if err := s.lock("ListProfessionals"); err != nil {
		return nil, err
	}
	defer s.db.mu.Unlock()
	out := []catalog.Professional{}
	for _, v := range s.db.professionals {
		if v.TenantID != s.tenantID {
			continue
		}
		ok, err := matchConds(conds, map[string]any{"id": v.ID, "name": v.Name, "active": v.Active})
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memScoped) CreateProfessional(_ context.Context, v *catalog.Professional) error {
	if err := s.lock("CreateProfessional"); err != nil {
		return err
	}
	defer s.db.mu.Unlock()
	v.ID = uuid.NewString()
	v.TenantID = s.tenantID
	v.CreatedAt, v.UpdatedAt = time.Now(), time.Now()
	s.db.professionals[v.ID] = *v
	id := v.ID
	s.onRollback(func() { delete(s.db.professionals, id) })
	return nil
}

func (s *memScoped) UpdateProfessional(_ context.Context, v *catalog.Professional) error {
	if err := s.lock("UpdateProfessional"); err != nil {
		return err
	}
	defer s.db.mu.Unlock()
	cur, ok := s.db.professionals[v.ID]
	if !ok || cur.TenantID != s.tenantID {
		return notFound("update professionals")
	}
	next := *v
	next.TenantID = cur.TenantID
	next.UpdatedAt = time.Now()
	s.db.professionals[v.ID] = next
	s.onRollback(func() { s.db.professionals[cur.ID] = cur })
	return nil
}

func (s *memScoped) DeleteProfessional(_ context.Context, id string) error {
	if err := s.lock("DeleteProfessional"); err != nil {
		return err
	}
	defer s.db.mu.Unlock()
	cur, ok := s.db.professionals[id]
	if !ok || cur.TenantID != s.tenantID {
		return notFound("delete professionals")
	}
	for _, a := range s.db.appointments {
		if a.ProfessionalID == id {
			return domain.Conflict("record is still referenced")
		}
	}
	delete(s.db.professionals, id)
	s.onRollback(func() { s.db.professionals[id] = cur })
	return nil
}

// Users

func (s *memScoped) GetUser(_ context.Context, id string) (*user.User, error) {
	if err := s.lock("GetUser"); err != nil {
		return nil, err
	}
	defer s.db.mu.Unlock()
	v, ok := s.db.users[id]
	if !ok || v.TenantID != s.tenantID {
		return nil, notFound("user " + id)
	}
	return &v, nil
}

func (s *memScoped) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	if err := s.lock("GetUserByEmail"); err != nil {
		return nil, err
	}
	defer s.db.mu.Unlock()
	for _, v := range s.db.users {
		if v.TenantID == s.tenantID && v.Email == strings.ToLower(email) {
			return &v, nil
		}
	}
	return nil, notFound("user")
}

func (s *memScoped) ListUsers(_ context.Context, conds ...database.Cond) ([]user.User, error) {
	if err := s.lock("ListUsers"); err != nil {
		return nil, err
	}
	defer s.db.mu.Unlock()
	out := []user.User{}
	for _, v := range s.db.users {
		if v.TenantID != s.tenantID {
			continue
		}
		ok, err := matchConds(conds, map[string]any{"id": v.ID, "email": v.Email, "role": string(v.Role), "guest": v.Guest})
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *memScoped) CreateUser(_ context.Context, u *user.User) error {
	if err := s.lock("CreateUser"); err != nil {
		return err
	}
	defer s.db.mu.Unlock()
	u.Email = strings.ToLower(u.Email)
	for _, v := range s.db.users {
		if v.TenantID == s.tenantID && v.Email == u.Email {
			return domain.Conflict("duplicate users_tenant_email_key")
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.TenantID = s.tenantID
	u.CreatedAt, u.UpdatedAt = time.Now(), time.Now()
	s.db.users[u.ID] = *u
	id := u.ID
	s.onRollback(func() { delete(s.db.users, id) })
	return nil
}

// Appointments

// embed attaches the service and professional; must be called with mu held.
func (s *memScoped) embed(a appointment.Appointment) appointment.Appointment {
	sv := s.db.services[a.ServiceID]
	pr := s.db.professionals[a.ProfessionalID]
	a.Service = &sv
	a.Professional = &pr
	return a
}

func (s *memScoped) GetAppointment(_ context.Context, id string) (*appointment.Appointment, error) {
	if err := s.lock("GetAppointment"); err != nil {
		return nil, err
	}
	defer s.db.mu.Unlock()
	v, ok := s.db.appointments[id]
	if !ok || v.TenantID != s.tenantID {
		return nil, notFound("appointment " + id)
	}
	v = s.embed(v)
	return &v, nil
}

func (s *memScoped) ListAppointments(_ context.Context, f appointment.Filter) ([]appointment.Appointment, error) {
	if err := s.lock("ListAppointments"); err != nil {
		return nil, err
	}
	defer s.db.mu.Unlock()
	out := []appointment.Appointment{}
	for _, a := range s.db.appointments {
		switch {
		case a.TenantID != s.tenantID,
			f.Status != "" && a.Status != f.Status,
			f.PaymentStatus != "" && a.PaymentStatus != f.PaymentStatus,
			f.ProfessionalID != "" && a.ProfessionalID != f.ProfessionalID,
			f.ClientID != "" && a.ClientID != f.ClientID,
			!f.From.IsZero() && a.StartsAt.Before(f.From),
			!f.To.IsZero() && !a.StartsAt.Before(f.To):
			continue
		}
		out = append(out, s.embed(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []appointment.Appointment{}, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// activeAt must be called with mu held.
func (s *memScoped) activeAt(professionalID string, startsAt time.Time) (appointment.Appointment, bool) {
	for _, a := range s.db.appointments {
		if a.TenantID == s.tenantID && a.ProfessionalID == professionalID && a.StartsAt.Equal(startsAt) && a.Active() {
			return a, true
		}
	}
	return appointment.Appointment{}, false
}

func (s *memScoped) FindActiveAppointment(_ context.Context, professionalID string, startsAt time.Time) (*appointment.Appointment, error) {
	if err := s.lock("FindActiveAppointment"); err != nil {
		return nil, err
	}
	defer s.db.mu.Unlock()
	if s.db.skipPrecheck {
		return nil, notFound("appointment")
	}
	a, ok := s.activeAt(professionalID, startsAt)
	if !ok {
		return nil, notFound("appointment")
	}
	a = s.embed(a)
	return &a, nil
}

func (s *memScoped) ListActiveStarts(_ context.Context, professionalID string, from, to time.Time) ([]time.Time, error) {
	if err := s.lock("ListActiveStarts"); err != nil {
		return nil, err
	}
	defer s.db.mu.Unlock()
	var out []time.Time
	for _, a := range s.db.appointments {
		if a.TenantID == s.tenantID && a.ProfessionalID == professionalID && a.Active() &&
			!a.StartsAt.Before(from) && a.StartsAt.Before(to) {
			out = append(out, a.StartsAt)
		}
	}
	return out, nil
}

func (s *memScoped) CreateAppointment(_ context.Context, a *appointment.Appointment) error {
	if err := s.lock("CreateAppointment"); err != nil {
		return err
	}
	defer s.db.mu.Unlock()
	sv, ok := s.db.services[a.ServiceID]
	if !ok || sv.TenantID != s.tenantID {
		return notFound("insert appointments: referenced record")
	}
	pr, ok := s.db.professionals[a.ProfessionalID]
	if !ok || pr.TenantID != s.tenantID {
		return notFound("insert appointments: referenced record")
	}
	cl, ok := s.db.users[a.ClientID]
	if !ok || cl.TenantID != s.tenantID {
		return notFound("insert appointments: referenced record")
	}
	if a.Active() {
		if _, taken := s.activeAt(a.ProfessionalID, a.StartsAt); taken {
			return fmt.Errorf("insert appointments: %w", domain.Conflict("slot already taken"))
		}
	}
	a.ID = uuid.NewString()
	a.TenantID = s.tenantID
	a.CreatedAt, a.UpdatedAt = time.Now(), time.Now()
	s.db.appointments[a.ID] = *a
	id := a.ID
	s.onRollback(func() { delete(s.db.appointments, id) })
	return nil
}

func (s *memScoped) TransitionStatus(_ context.Context, id string, from, to appointment.Status) error {
	if !from.CanTransition(to) {
		return domain.Validation("cannot move appointment from %s to %s", from, to)
	}
	if err := s.lock("TransitionStatus"); err != nil {
		return err
	}
	defer s.db.mu.Unlock()
	cur, ok := s.db.appointments[id]
	if !ok || cur.TenantID != s.tenantID || cur.Status != from {
		return notFound("update appointments")
	}
	next := cur
	next.Status = to
	next.UpdatedAt = time.Now()
	s.db.appointments[id] = next
	s.onRollback(func() { s.db.appointments[id] = cur })
	return nil
}

func (s *memScoped) TransitionPayment(_ context.Context, id string, from []appointment.PaymentStatus, to appointment.PaymentStatus, patch database.PaymentPatch) error {
	if len(from) == 0 {
		return domain.Validation("no source state")
	}
	for _, f := range from {
		if !f.CanTransition(to) {
			return domain.Validation("cannot move payment from %s to %s", f, to)
		}
	}
	if err := s.lock("TransitionPayment"); err != nil {
		return err
	}
	defer s.db.mu.Unlock()
	cur, ok := s.db.appointments[id]
	if !ok || cur.TenantID != s.tenantID {
		return notFound("update appointments")
	}
	matched := false
	for _, f := range from {
		if cur.PaymentStatus == f {
			matched = true
		}
	}
	if !matched {
		return notFound("update appointments")
	}
	next := cur
	next.PaymentStatus = to
	if patch.ProofRef != nil {
		next.PaymentProofRef = *patch.ProofRef
	}
	if patch.RejectionReason != nil {
		next.RejectionReason = *patch.RejectionReason
	}
	next.UpdatedAt = time.Now()
	s.db.appointments[id] = next
	s.onRollback(func() { s.db.appointments[id] = cur })
	return nil
}

func (s *memScoped) DeleteAppointment(_ context.Context, id string) error {
	if err := s.lock("DeleteAppointment"); err != nil {
		return err
	}
	defer s.db.mu.Unlock()
	cur, ok := s.db.appointments[id]
	if !ok || cur.TenantID != s.tenantID {
		return notFound("delete appointments")
	}
	delete(s.db.appointments, id)
	s.onRollback(func() { s.db.appointments[id] = cur })
	return nil
}

// Reviews

func (s *memScoped) CreateReview(_ context.Context, r *review.Review) error {
	if err := s.lock("CreateReview"); err != nil {
		return err
	}
	defer s.db.mu.Unlock()
	for _, v := range s.db.reviews {
		if v.TenantID == s.tenantID && v.AppointmentID == r.AppointmentID {
			return domain.Conflict("duplicate reviews_tenant_id_appointment_id_key")
		}
	}
	r.ID = uuid.NewString()
	r.TenantID = s.tenantID
	r.CreatedAt = time.Now()
	s.db.reviews[r.ID] = *r
	id := r.ID
	s.onRollback(func() { delete(s.db.reviews, id) })
	return nil
}

func (s *memScoped) ListReviews(_ context.Context, conds ...database.Cond) ([]review.Review, error) {
	if err := s.lock("ListReviews"); err != nil {
		return nil, err
	}
	defer s.db.mu.Unlock()
	out := []review.Review{}
	for _, v := range s.db.reviews {
		if v.TenantID != s.tenantID {
			continue
		}
		ok, err := matchConds(conds, map[string]any{
			"id": v.ID, "appointment_id": v.AppointmentID, "professional_id": v.ProfessionalID, "rating": v.Rating,
		})
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// Notifications

func (s *memScoped) CreateNotification(_ context.Context, n *notification.Notification) error {
	if err := s.lock("CreateNotification"); err != nil {
		return err
	}
	defer s.db.mu.Unlock()
	n.ID = uuid.NewString()
	n.TenantID = s.tenantID
	n.CreatedAt = time.Now()
	s.db.notifications[n.ID] = *n
	id := n.ID
	s.onRollback(func() { delete(s.db.notifications, id) })
	return nil
}

func (s *memScoped) ListNotifications(_ context.Context, unreadOnly bool, limit int) ([]notification.Notification, error) {
	if err := s.lock("ListNotifications"); err != nil {
		return nil, err
	}
	defer s.db.mu.Unlock()
	out := []notification.Notification{}
	for _, n := range s.db.notifications {
		if n.TenantID != s.tenantID || (unreadOnly && n.Read()) {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memScoped) MarkNotificationRead(_ context.Context, id string) error {
	if err := s.lock("MarkNotificationRead"); err != nil {
		return err
	}
	defer s.db.mu.Unlock()
	n, ok := s.db.notifications[id]
	if !ok || n.TenantID != s.tenantID {
		return notFound("mark notification read")
	}
	if n.ReadAt == nil {
		now := time.Now()
		n.ReadAt = &now
		s.db.notifications[id] = n
	}
	return nil
}

// Storefront

func (s *memScoped) GetConfig(_ context.Context) (*storefront.Config, error) {
	if err := s.lock("GetConfig"); err != nil {
		return nil, err
	}
	defer s.db.mu.Unlock()
	c, ok := s.db.configs[s.tenantID]
	if !ok {
		return nil, notFound("storefront config")
	}
	return &c, nil
}

func (s *memScoped) SaveConfig(_ context.Context, c *storefront.Config) error {
	if err := s.lock("SaveConfig"); err != nil {
		return err
	}
	defer s.db.mu.Unlock()
	prev, existed := s.db.configs[s.tenantID]
	c.TenantID = s.tenantID
	c.UpdatedAt = time.Now()
	s.db.configs[s.tenantID] = *c
	tid := s.tenantID
	s.onRollback(func() {
		if existed {
			s.db.configs[tid] = prev
		} else {
			delete(s.db.configs, tid)
		}
	})
	return nil
}

func (s *memScoped) ListPortfolioImages(_ context.Context) ([]storefront.PortfolioImage, error) {
	if err := s.lock("ListPortfolioImages"); err != nil {
		return nil, err
	}
	defer s.db.mu.Unlock()
	return append([]storefront.PortfolioImage{}, s.db.images[s.tenantID]...), nil
}

func (s *memScoped) ReplacePortfolioImages(_ context.Context, images []storefront.PortfolioImage) error {
	if err := s.lock("ReplacePortfolioImages"); err != nil {
		return err
	}
	defer s.db.mu.Unlock()
	prev := s.db.images[s.tenantID]
	next := make([]storefront.PortfolioImage, len(images))
	for i, img := range images {
		img.ID = uuid.NewString()
		img.TenantID = s.tenantID
		next[i] = img
	}
	s.db.images[s.tenantID] = next
	tid := s.tenantID
	s.onRollback(func() { s.db.images[tid] = prev })
	return nil
}

func (s *memScoped) ListAvailabilitySlots(_ context.Context) ([]storefront.AvailabilitySlot, error) {
	if err := s.lock("ListAvailabilitySlots"); err != nil {
		return nil, err
	}
	defer s.db.mu.Unlock()
	return append([]storefront.AvailabilitySlot{}, s.db.slots[s.tenantID]...), nil
}

func (s *memScoped) ReplaceAvailabilitySlots(_ context.Context, slots []storefront.AvailabilitySlot) error {
	if err := s.lock("ReplaceAvailabilitySlots"); err != nil {
		return err
	}
	defer s.db.mu.Unlock()
	prev := s.db.slots[s.tenantID]
	next := make([]storefront.AvailabilitySlot, len(slots))
	for i, sl := range slots {
		sl.ID = uuid.NewString()
		sl.TenantID = s.tenantID
		next[i] = sl
	}
	s.db.slots[s.tenantID] = next
	tid := s.tenantID
	s.onRollback(func() { s.db.slots[tid] = prev })
	return nil
}
