package service

import (
	"context"
	"fmt"

	"github.com/agendei/agendei/internal/domain/user"
	"github.com/agendei/agendei/internal/port/database"
)

// UserService manages the staff and client accounts of a tenant.
type UserService struct {
	guestDomain string
}

// NewUserService creates a UserService.
func NewUserService(guestDomain string) *UserService {
	return &UserService{guestDomain: guestDomain}
}

// Create registers an account in the handle's tenant.
func (s *UserService) Create(ctx context.Context, h database.Scoped, req user.CreateRequest) (*user.User, error) {
	u, err := newAccount(req, s.guestDomain)
	if err != nil {
		return nil, err
	}
	if err := h.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// List returns the tenant's accounts, guests included only when asked.
func (s *UserService) List(ctx context.Context, h database.Scoped, includeGuests bool) ([]user.User, error) {
	if includeGuests {
		return h.ListUsers(ctx)
	}
	return h.ListUsers(ctx, database.Eq("guest", false))
}

// Get returns one account.
func (s *UserService) Get(ctx context.Context, h database.Scoped, id string) (*user.User, error) {
	return h.GetUser(ctx, id)
}
