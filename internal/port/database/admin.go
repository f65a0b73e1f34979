package database

import (
	"context"

	"github.com/agendei/agendei/internal/domain/tenant"
	"github.com/agendei/agendei/internal/domain/user"
)

// TenantAdmin is the unscoped registry used by operator tooling only. It is
// implemented by the privileged handle and is never wired into request
// handling.
type TenantAdmin interface {
	CreateTenant(ctx context.Context, req tenant.CreateRequest) (*tenant.Tenant, error)
	ListTenants(ctx context.Context) ([]tenant.Tenant, error)
	SetTenantEnabled(ctx context.Context, id string, enabled bool) error
	CreateUser(ctx context.Context, tenantID string, u *user.User) error
}
