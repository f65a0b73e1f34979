package postgres

import (
	"context"
	"strings"

	"github.com/agendei/agendei/internal/domain/user"
	"github.com/agendei/agendei/internal/port/database"
)

const userColumns = `u.id, u.tenant_id, u.email, u.name, u.phone, u.password_hash, u.role, u.guest, u.enabled, u.created_at, u.updated_at`

var userRel = relation[user.User]{
	name:    "user",
	from:    "users u",
	alias:   "u",
	columns: userColumns,
	fields: map[string]string{
		"id":    "u.id",
		"email": "u.email",
		"role":  "u.role",
		"guest": "u.guest",
	},
	order: "u.created_at ASC",
	scan:  scanUser,
}

func scanUser(row scannable) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.Name, &u.Phone, &u.PasswordHash, &u.Role, &u.Guest, &u.Enabled, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (s *Scoped) GetUser(ctx context.Context, id string) (*user.User, error) {
	v, err := findByID(ctx, s, userRel, id)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Scoped) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	v, err := findOne(ctx, s, userRel, database.Eq("email", strings.ToLower(email)))
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Scoped) ListUsers(ctx context.Context, conds ...database.Cond) ([]user.User, error) {
	return findMany(ctx, s, userRel, page{}, conds...)
}

// CreateUser keeps a caller-generated id (guest identities carry one) and
// lets the database generate it otherwise.
func (s *Scoped) CreateUser(ctx context.Context, u *user.User) error {
	values := []assignment{
		set("email", strings.ToLower(u.Email)),
		set("name", u.Name),
		set("phone", u.Phone),
		set("password_hash", u.PasswordHash),
		set("role", string(u.Role)),
		set("guest", u.Guest),
		set("enabled", u.Enabled),
	}
	if u.ID != "" {
		values = append([]assignment{set("id", u.ID)}, values...)
	}
	return insert(ctx, s, "users", values,
		"id, tenant_id, created_at, updated_at", &u.ID, &u.TenantID, &u.CreatedAt, &u.UpdatedAt)
}
