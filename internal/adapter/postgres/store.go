package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agendei/agendei/internal/domain/tenant"
	"github.com/agendei/agendei/internal/port/database"
)

// Store hands out tenant-scoped handles over one connection pool. It is the
// only database value request-serving code receives.
type Store struct {
	pool *pgxpool.Pool
}

var (
	_ database.Scoper          = (*Store)(nil)
	_ database.TenantDirectory = (*Store)(nil)
)

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// ForTenant binds a handle to tenantID. It performs no I/O.
func (s *Store) ForTenant(tenantID string) database.Scoped {
	return s.Scope(tenantID)
}

// Scope is ForTenant returning the concrete type.
func (s *Store) Scope(tenantID string) *Scoped {
	return &Scoped{pool: s.pool, q: s.pool, tenantID: tenantID}
}

// Ping checks connectivity for health probes.
func (s *Store) Ping(ctx context.Context) error {
	return classify("ping", s.pool.Ping(ctx))
}

func scanTenant(row scannable) (*tenant.Tenant, error) {
	var t tenant.Tenant
	if err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Enabled, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTenant returns an enabled tenant by id.
func (s *Store) GetTenant(ctx context.Context, id string) (*tenant.Tenant, error) {
	t, err := scanTenant(s.pool.QueryRow(ctx,
		`SELECT id, name, slug, enabled, created_at, updated_at FROM tenants WHERE id = $1 AND enabled`, id))
	if err != nil {
		return nil, classify("get tenant", err)
	}
	return t, nil
}

// GetTenantBySlug returns an enabled tenant by its storefront slug.
func (s *Store) GetTenantBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	t, err := scanTenant(s.pool.QueryRow(ctx,
		`SELECT id, name, slug, enabled, created_at, updated_at FROM tenants WHERE slug = $1 AND enabled`, slug))
	if err != nil {
		return nil, classify("get tenant by slug", err)
	}
	return t, nil
}
