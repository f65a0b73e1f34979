package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/agendei/agendei/internal/domain"
	"github.com/agendei/agendei/internal/domain/tenant"
	"github.com/agendei/agendei/internal/domain/user"
	"github.com/agendei/agendei/internal/port/database"
)

// TenantService manages tenant lifecycle for operator tooling.
type TenantService struct {
	admin       database.TenantAdmin
	guestDomain string
}

// NewTenantService creates a new TenantService.
func NewTenantService(admin database.TenantAdmin, guestDomain string) *TenantService {
	return &TenantService{admin: admin, guestDomain: guestDomain}
}

// Create validates and registers a new tenant.
func (s *TenantService) Create(ctx context.Context, req tenant.CreateRequest) (*tenant.Tenant, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Slug = strings.ToLower(strings.TrimSpace(req.Slug))
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.admin.CreateTenant(ctx, req)
}

// List returns all tenants.
func (s *TenantService) List(ctx context.Context) ([]tenant.Tenant, error) {
	return s.admin.ListTenants(ctx)
}

// SetEnabled enables or disables a tenant.
func (s *TenantService) SetEnabled(ctx context.Context, id string, enabled bool) error {
	return s.admin.SetTenantEnabled(ctx, id, enabled)
}

// CreateUser registers a password-bearing account in tenantID.
func (s *TenantService) CreateUser(ctx context.Context, tenantID string, req user.CreateRequest) (*user.User, error) {
	u, err := newAccount(req, s.guestDomain)
	if err != nil {
		return nil, err
	}
	if err := s.admin.CreateUser(ctx, tenantID, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// newAccount validates req and hashes its password.
func newAccount(req user.CreateRequest, guestDomain string) (*user.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if err := req.Validate(guestDomain); err != nil {
		return nil, domain.Validation("%v", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &user.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Role:         req.Role,
		Enabled:      true,
	}, nil
}
