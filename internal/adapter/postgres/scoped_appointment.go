package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/agendei/agendei/internal/domain"
	"github.com/agendei/agendei/internal/domain/appointment"
	"github.com/agendei/agendei/internal/domain/catalog"
	"github.com/agendei/agendei/internal/port/database"
)

// The joins repeat the tenant column so an embedded record can only come
// from the appointment's own tenant, on top of the composite foreign keys.
var appointmentRel = relation[appointment.Appointment]{
	name: "appointment",
	from: `appointments a
		JOIN services sv ON sv.id = a.service_id AND sv.tenant_id = a.tenant_id
		JOIN professionals pr ON pr.id = a.professional_id AND pr.tenant_id = a.tenant_id`,
	alias: "a",
	columns: `a.id, a.tenant_id, a.service_id, a.professional_id, a.client_id, a.client_name, a.client_phone,
		a.starts_at, a.ends_at, a.status, a.payment_status, a.payment_proof_ref, a.rejection_reason, a.notes,
		a.created_at, a.updated_at, ` + serviceColumns + `, ` + professionalColumns,
	fields: map[string]string{
		"id":              "a.id",
		"status":          "a.status",
		"payment_status":  "a.payment_status",
		"professional_id": "a.professional_id",
		"service_id":      "a.service_id",
		"client_id":       "a.client_id",
		"starts_at":       "a.starts_at",
	},
	order: "a.starts_at ASC, a.created_at ASC",
	scan:  scanAppointment,
}

func scanAppointment(row scannable) (appointment.Appointment, error) {
	var (
		a        appointment.Appointment
		sv       catalog.Service
		pr       catalog.Professional
		proofRef *string
		reason   *string
	)
	err := row.Scan(
		&a.ID, &a.TenantID, &a.ServiceID, &a.ProfessionalID, &a.ClientID, &a.ClientName, &a.ClientPhone,
		&a.StartsAt, &a.EndsAt, &a.Status, &a.PaymentStatus, &proofRef, &reason, &a.Notes,
		&a.CreatedAt, &a.UpdatedAt,
		&sv.ID, &sv.TenantID, &sv.Name, &sv.Description, &sv.DurationMinutes, &sv.PriceCents, &sv.Active, &sv.CreatedAt, &sv.UpdatedAt,
		&pr.ID, &pr.TenantID, &pr.Name, &pr.Bio, &pr.PhotoURL, &pr.Active, &pr.CreatedAt, &pr.UpdatedAt,
	)
	if err != nil {
		return a, err
	}
	if proofRef != nil {
		a.PaymentProofRef = *proofRef
	}
	if reason != nil {
		a.RejectionReason = *reason
	}
	a.Service = &sv
	a.Professional = &pr
	return a, nil
}

func (s *Scoped) GetAppointment(ctx context.Context, id string) (*appointment.Appointment, error) {
	v, err := findByID(ctx, s, appointmentRel, id)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// filterConds translates a listing filter into scoped conditions.
func filterConds(f appointment.Filter) []database.Cond {
	var conds []database.Cond
	if f.Status != "" {
		conds = append(conds, database.Eq("status", string(f.Status)))
	}
	if f.PaymentStatus != "" {
		conds = append(conds, database.Eq("payment_status", string(f.PaymentStatus)))
	}
	if f.ProfessionalID != "" {
		conds = append(conds, database.Eq("professional_id", f.ProfessionalID))
	}
	if f.ClientID != "" {
		conds = append(conds, database.Eq("client_id", f.ClientID))
	}
	if !f.From.IsZero() {
		conds = append(conds, database.Cond{Field: "starts_at", Op: database.OpGte, Value: f.From})
	}
	if !f.To.IsZero() {
		conds = append(conds, database.Cond{Field: "starts_at", Op: database.OpLt, Value: f.To})
	}
	return conds
}

func (s *Scoped) ListAppointments(ctx context.Context, f appointment.Filter) ([]appointment.Appointment, error) {
	return findMany(ctx, s, appointmentRel, page{limit: f.Limit, offset: f.Offset}, filterConds(f)...)
}

func (s *Scoped) FindActiveAppointment(ctx context.Context, professionalID string, startsAt time.Time) (*appointment.Appointment, error) {
	v, err := findOne(ctx, s, appointmentRel,
		database.Eq("professional_id", professionalID),
		database.Eq("starts_at", startsAt),
		database.Cond{Field: "status", Op: database.OpNe, Value: string(appointment.StatusCancelled)},
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Scoped) ListActiveStarts(ctx context.Context, professionalID string, from, to time.Time) ([]time.Time, error) {
	rows, err := s.q.Query(ctx,
		`SELECT starts_at FROM appointments
		 WHERE tenant_id = $1 AND professional_id = $2 AND status <> $3 AND starts_at >= $4 AND starts_at < $5
		 ORDER BY starts_at`,
		s.tenantID, professionalID, string(appointment.StatusCancelled), from, to)
	if err != nil {
		return nil, classify("list active starts", err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, classify("scan active start", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list active starts", err)
	}
	return out, nil
}

// CreateAppointment inserts a booking. A concurrent booking of the same
// professional and start time fails on appointments_active_slot_uq and is
// reported as domain.ErrConflict.
func (s *Scoped) CreateAppointment(ctx context.Context, a *appointment.Appointment) error {
	return insert(ctx, s, "appointments", []assignment{
		set("service_id", a.ServiceID),
		set("professional_id", a.ProfessionalID),
		set("client_id", a.ClientID),
		set("client_name", a.ClientName),
		set("client_phone", a.ClientPhone),
		set("starts_at", a.StartsAt),
		set("ends_at", a.EndsAt),
		set("status", string(a.Status)),
		set("payment_status", string(a.PaymentStatus)),
		set("payment_proof_ref", nullIfEmpty(a.PaymentProofRef)),
		set("notes", a.Notes),
	}, "id, tenant_id, created_at, updated_at", &a.ID, &a.TenantID, &a.CreatedAt, &a.UpdatedAt)
}

// TransitionStatus is a compare-and-set on the status column.
func (s *Scoped) TransitionStatus(ctx context.Context, id string, from, to appointment.Status) error {
	if !from.CanTransition(to) {
		return domain.Validation("cannot move appointment from %s to %s", from, to)
	}
	return update(ctx, s, "appointments", id,
		[]assignment{set("status", string(to))},
		database.Eq("status", string(from)))
}

// TransitionPayment is a compare-and-set on the payment_status column, so two
// concurrent approvals cannot both succeed.
func (s *Scoped) TransitionPayment(ctx context.Context, id string, from []appointment.PaymentStatus, to appointment.PaymentStatus, patch database.PaymentPatch) error {
	sources := make([]string, 0, len(from))
	for _, f := range from {
		if !f.CanTransition(to) {
			return domain.Validation("cannot move payment from %s to %s", f, to)
		}
		sources = append(sources, string(f))
	}
	if len(sources) == 0 {
		return fmt.Errorf("transition payment: no source state: %w", domain.ErrValidation)
	}

	values := []assignment{set("payment_status", string(to))}
	if patch.ProofRef != nil {
		values = append(values, set("payment_proof_ref", nullIfEmpty(*patch.ProofRef)))
	}
	if patch.RejectionReason != nil {
		values = append(values, set("rejection_reason", nullIfEmpty(*patch.RejectionReason)))
	}
	return update(ctx, s, "appointments", id, values, database.Cond{Field: "payment_status", Op: database.OpEq, Value: sources})
}

func (s *Scoped) DeleteAppointment(ctx context.Context, id string) error {
	return remove(ctx, s, "appointments", id)
}
