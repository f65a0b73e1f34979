package service

import (
	"context"

	"github.com/agendei/agendei/internal/domain/catalog"
	"github.com/agendei/agendei/internal/port/database"
)

// CatalogService manages the services and professionals of a tenant.
type CatalogService struct{}

// NewCatalogService creates a CatalogService.
func NewCatalogService() *CatalogService {
	return &CatalogService{}
}

func activeConds(activeOnly bool) []database.Cond {
	if !activeOnly {
		return nil
	}
	return []database.Cond{database.Eq("active", true)}
}

// ListServices returns the tenant's services, optionally only active ones.
func (s *CatalogService) ListServices(ctx context.Context, h database.Scoped, activeOnly bool) ([]catalog.Service, error) {
	return h.ListServices(ctx, activeConds(activeOnly)...)
}

// GetService returns one service.
func (s *CatalogService) GetService(ctx context.Context, h database.Scoped, id string) (*catalog.Service, error) {
	return h.GetService(ctx, id)
}

// CreateService validates and stores a new active service. A tenant id in
// the request is ignored; the handle decides ownership.
func (s *CatalogService) CreateService(ctx context.Context, h database.Scoped, req catalog.CreateServiceRequest) (*catalog.Service, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	svc := &catalog.Service{
		Name:            req.Name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		PriceCents:      req.PriceCents,
		Active:          true,
	}
	if err := h.CreateService(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

// UpdateService applies the fields present in req.
func (s *CatalogService) UpdateService(ctx context.Context, h database.Scoped, id string, req catalog.UpdateServiceRequest) (*catalog.Service, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out *catalog.Service
	err := h.InTx(ctx, func(tx database.Scoped) error {
		svc, err := tx.GetService(ctx, id)
		if err != nil {
			return err
		}
		req.Apply(svc)
		if err := tx.UpdateService(ctx, svc); err != nil {
			return err
		}
		out, err = tx.GetService(ctx, id)
		return err
	})
	return out, err
}

// DeleteService removes a service. A service still referenced by an
// appointment is a conflict; deactivate it instead.
func (s *CatalogService) DeleteService(ctx context.Context, h database.Scoped, id string) error {
	return h.DeleteService(ctx, id)
}

// ListProfessionals returns the tenant's professionals, optionally only active ones.
func (s *CatalogService) ListProfessionals(ctx context.Context, h database.Scoped, activeOnly bool) ([]catalog.Professional, error) {
	return h.ListProfessionals(ctx, activeConds(activeOnly)...)
}

// GetProfessional returns one professional.
func (s *CatalogService) GetProfessional(ctx context.Context, h database.Scoped, id string) (*catalog.Professional, error) {
	return h.GetProfessional(ctx, id)
}

// CreateProfessional validates and stores a new active professional.
func (s *CatalogService) CreateProfessional(ctx context.Context, h database.Scoped, req catalog.CreateProfessionalRequest) (*catalog.Professional, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p := &catalog.Professional{
		Name:     req.Name,
		Bio:      req.Bio,
		PhotoURL: req.PhotoURL,
		Active:   true,
	}
	if err := h.CreateProfessional(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProfessional applies the fields present in req.
func (s *CatalogService) UpdateProfessional(ctx context.Context, h database.Scoped, id string, req catalog.UpdateProfessionalRequest) (*catalog.Professional, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out *catalog.Professional
	err := h.InTx(ctx, func(tx database.Scoped) error {
		p, err := tx.GetProfessional(ctx, id)
		if err != nil {
			return err
		}
		req.Apply(p)
		if err := tx.UpdateProfessional(ctx, p); err != nil {
			return err
		}
		out, err = tx.GetProfessional(ctx, id)
		return err
	})
	return out, err
}

// DeleteProfessional removes a professional. One still referenced by an
// appointment is a conflict.
func (s *CatalogService) DeleteProfessional(ctx context.Context, h database.Scoped, id string) error {
	return h.DeleteProfessional(ctx, id)
}
