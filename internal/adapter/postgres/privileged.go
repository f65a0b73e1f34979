package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agendei/agendei/internal/domain/tenant"
	"github.com/agendei/agendei/internal/domain/user"
	"github.com/agendei/agendei/internal/port/database"
)

// Privileged is an unscoped handle for operator tooling: seeding tenants,
// creating administrators and verifying cross-tenant integrity. It is
// constructed only by the admin command and never handed to HTTP code.
type Privileged struct {
	pool *pgxpool.Pool
}

var _ database.TenantAdmin = (*Privileged)(nil)

// NewPrivileged creates an unscoped handle.
func NewPrivileged(pool *pgxpool.Pool) *Privileged {
	return &Privileged{pool: pool}
}

// CreateTenant registers a new establishment.
func (p *Privileged) CreateTenant(ctx context.Context, req tenant.CreateRequest) (*tenant.Tenant, error) {
	t, err := scanTenant(p.pool.QueryRow(ctx,
		`INSERT INTO tenants (name, slug) VALUES ($1, $2)
		 RETURNING id, name, slug, enabled, created_at, updated_at`,
		req.Name, req.Slug))
	if err != nil {
		return nil, classify("create tenant", err)
	}
	return t, nil
}

// ListTenants returns every tenant, enabled or not.
func (p *Privileged) ListTenants(ctx context.Context) ([]tenant.Tenant, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, slug, enabled, created_at, updated_at FROM tenants ORDER BY created_at`)
	if err != nil {
		return nil, classify("list tenants", err)
	}
	defer rows.Close()

	var out []tenant.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, classify("scan tenant", err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list tenants", err)
	}
	return out, nil
}

// TenantBySlug looks a tenant up regardless of its enabled flag.
func (p *Privileged) TenantBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	t, err := scanTenant(p.pool.QueryRow(ctx,
		`SELECT id, name, slug, enabled, created_at, updated_at FROM tenants WHERE slug = $1`, slug))
	if err != nil {
		return nil, classify("get tenant by slug", err)
	}
	return t, nil
}

// SetTenantEnabled toggles a tenant. A disabled tenant's storefront and
// tokens stop resolving.
func (p *Privileged) SetTenantEnabled(ctx context.Context, id string, enabled bool) error {
	tag, err := p.pool.Exec(ctx, `UPDATE tenants SET enabled = $2, updated_at = now() WHERE id = $1`, id, enabled)
	return expectOne("set tenant enabled", tag, err)
}

// CreateUser inserts a user into an explicit tenant.
func (p *Privileged) CreateUser(ctx context.Context, tenantID string, u *user.User) error {
	return NewStore(p.pool).Scope(tenantID).CreateUser(ctx, u)
}

// IsolationCheck is the result of one cross-tenant integrity probe.
type IsolationCheck struct {
	Name       string
	Violations int64
}

// isolationProbes count rows whose referenced record lives in another
// tenant. The composite foreign keys make every count zero on a healthy
// database; the probes guard against constraints dropped by hand.
var isolationProbes = []struct {
	name string
	sql  string
}{
	{"appointment.service", `SELECT count(*) FROM appointments a JOIN services s ON s.id = a.service_id WHERE s.tenant_id <> a.tenant_id`},
	{"appointment.professional", `SELECT count(*) FROM appointments a JOIN professionals p ON p.id = a.professional_id WHERE p.tenant_id <> a.tenant_id`},
	{"appointment.client", `SELECT count(*) FROM appointments a JOIN users u ON u.id = a.client_id WHERE u.tenant_id <> a.tenant_id`},
	{"review.appointment", `SELECT count(*) FROM reviews r JOIN appointments a ON a.id = r.appointment_id WHERE a.tenant_id <> r.tenant_id`},
	{"notification.appointment", `SELECT count(*) FROM notifications n JOIN appointments a ON a.id = n.appointment_id WHERE a.tenant_id <> n.tenant_id`},
	{"appointment.double_booking", `SELECT count(*) FROM (SELECT 1 FROM appointments WHERE status <> 'CANCELLED' GROUP BY tenant_id, professional_id, starts_at HAVING count(*) > 1) d`},
}

// VerifyIsolation runs every probe and returns their counts.
func (p *Privileged) VerifyIsolation(ctx context.Context) ([]IsolationCheck, error) {
	out := make([]IsolationCheck, 0, len(isolationProbes))
	for _, probe := range isolationProbes {
		var n int64
		if err := p.pool.QueryRow(ctx, probe.sql).Scan(&n); err != nil {
			return nil, classify("verify "+probe.name, err)
		}
		out = append(out, IsolationCheck{Name: probe.name, Violations: n})
	}
	return out, nil
}

// FormatIsolation renders checks one per line.
func FormatIsolation(checks []IsolationCheck) string {
	var b strings.Builder
	for _, c := range checks {
		status := "ok"
		if c.Violations > 0 {
			status = "VIOLATED"
		}
		fmt.Fprintf(&b, "%-28s %-8s %d\n", c.Name, status, c.Violations)
	}
	return b.String()
}
