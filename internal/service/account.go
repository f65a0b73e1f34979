package service

import (
	"context"
	"fmt"

	"github.com/agendei/agendei/internal/domain"
	"github.com/agendei/agendei/internal/domain/principal"
	"github.com/agendei/agendei/internal/port/database"
)

// AccountChecker confirms that a verified token still names a live account.
// Tokens outlive the rows they were issued for, so disabling a tenant or a
// user revokes its tokens here.
type AccountChecker struct {
	tenants database.TenantDirectory
	scoper  database.Scoper
}

// NewAccountChecker creates an AccountChecker.
func NewAccountChecker(tenants database.TenantDirectory, scoper database.Scoper) *AccountChecker {
	return &AccountChecker{tenants: tenants, scoper: scoper}
}

// CheckAccount returns domain.ErrNotFound when p's tenant or p's user is
// missing or disabled.
func (c *AccountChecker) CheckAccount(ctx context.Context, p principal.Principal) error {
	if _, err := c.tenants.GetTenant(ctx, p.TenantID); err != nil {
		return err
	}
	u, err := c.scoper.ForTenant(p.TenantID).GetUser(ctx, p.Subject)
	if err != nil {
		return err
	}
	if !u.Enabled {
		return fmt.Errorf("user disabled: %w", domain.ErrNotFound)
	}
	return nil
}
