package postgres

import (
	"context"

	"github.com/agendei/agendei/internal/domain/catalog"
	"github.com/agendei/agendei/internal/port/database"
)

const serviceColumns = `sv.id, sv.tenant_id, sv.name, sv.description, sv.duration_minutes, sv.price_cents, sv.active, sv.created_at, sv.updated_at`

var serviceRel = relation[catalog.Service]{
	name:    "service",
	from:    "services sv",
	alias:   "sv",
	columns: serviceColumns,
	fields: map[string]string{
		"id":     "sv.id",
		"name":   "sv.name",
		"active": "sv.active",
	},
	order: "sv.name ASC, sv.created_at ASC",
	scan:  scanService,
}

func scanService(row scannable) (catalog.Service, error) {
	var s catalog.Service
	err := row.Scan(&s.ID, &s.TenantID, &s.Name, &s.Description, &s.DurationMinutes, &s.PriceCents, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (s *Scoped) GetService(ctx context.Context, id string) (*catalog.Service, error) {
	v, err := findByID(ctx, s, serviceRel, id)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Scoped) ListServices(ctx context.Context, conds ...database.Cond) ([]catalog.Service, error) {
	return findMany(ctx, s, serviceRel, page{}, conds...)
}

func (s *Scoped) CreateService(ctx context.Context, v *catalog.Service) error {
	return insert(ctx, s, "services", []assignment{
		set("name", v.Name),
		set("description", v.Description),
		set("duration_minutes", v.DurationMinutes),
		set("price_cents", v.PriceCents),
		set("active", v.Active),
	}, "id, tenant_id, created_at, updated_at", &v.ID, &v.TenantID, &v.CreatedAt, &v.UpdatedAt)
}

func (s *Scoped) UpdateService(ctx context.Context, v *catalog.Service) error {
	return update(ctx, s, "services", v.ID, []assignment{
		set("name", v.Name),
		set("description", v.Description),
		set("duration_minutes", v.DurationMinutes),
		set("price_cents", v.PriceCents),
		set("active", v.Active),
	})
}

func (s *Scoped) DeleteService(ctx context.Context, id string) error {
	return remove(ctx, s, "services", id)
}

const professionalColumns = `pr.id, pr.tenant_id, pr.name, pr.bio, pr.photo_url, pr.active, pr.created_at, pr.updated_at`

var professionalRel = relation[catalog.Professional]{
	name:    "professional",
	from:    "professionals pr",
	alias:   "pr",
	columns: professionalColumns,
	fields: map[string]string{
		"id":     "pr.id",
		"name":   "pr.name",
		"active": "pr.active",
	},
	order: "pr.name ASC, pr.created_at ASC",
	scan:  scanProfessional,
}

func scanProfessional(row scannable) (catalog.Professional, error) {
	var p catalog.Professional
	err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.Bio, &p.PhotoURL, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *Scoped) GetProfessional(ctx context.Context, id string) (*catalog.Professional, error) {
	v, err := findByID(ctx, s, professionalRel, id)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Scoped) ListProfessionals(ctx context.Context, conds ...database.Cond) ([]catalog.Professional, error) {
	return findMany(ctx, s, professionalRel, page{}, conds...)
}

func (s *Scoped) CreateProfessional(ctx context.Context, v *catalog.Professional) error {
	return insert(ctx, s, "professionals", []assignment{
		set("name", v.Name),
		set("bio", v.Bio),
		set("photo_url", v.PhotoURL),
		set("active", v.Active),
	}, "id, tenant_id, created_at, updated_at", &v.ID, &v.TenantID, &v.CreatedAt, &v.UpdatedAt)
}

func (s *Scoped) UpdateProfessional(ctx context.Context, v *catalog.Professional) error {
	return update(ctx, s, "professionals", v.ID, []assignment{
		set("name", v.Name),
		set("bio", v.Bio),
		set("photo_url", v.PhotoURL),
		set("active", v.Active),
	})
}

func (s *Scoped) DeleteProfessional(ctx context.Context, id string) error {
	return remove(ctx, s, "professionals", id)
}
