// Package principal defines the authenticated caller attached to every core operation.
package principal

import "errors"

// Role represents the authorization level of a caller.
type Role string

const (
	RoleAdmin        Role = "ADMIN"
	RoleUser         Role = "USER"
	RoleServiceAgent Role = "SERVICE_AGENT"
)

// ValidRoles is the set of all valid roles.
var ValidRoles = map[Role]bool{
	RoleAdmin:        true,
	RoleUser:         true,
	RoleServiceAgent: true,
}

// Principal is the verified identity of an in-flight operation. It is built once
// per request by the authentication layer and only consumed by the core.
type Principal struct {
	TenantID string `json:"tenant_id"`
	Role     Role   `json:"role"`
	Subject  string `json:"sub"`
}

// Validate checks that the principal carries a tenant, a known role and a subject.
func (p Principal) Validate() error {
	if p.TenantID == "" {
		return errors.New("principal has no tenant")
	}
	if !ValidRoles[p.Role] {
		return errors.New("principal has an unknown role")
	}
	if p.Subject == "" {
		return errors.New("principal has no subject")
	}
	return nil
}

// IsStaff reports whether the principal may operate the admin console.
func (p Principal) IsStaff() bool {
	return p.Role == RoleAdmin || p.Role == RoleServiceAgent
}
