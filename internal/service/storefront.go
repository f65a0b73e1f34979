package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	cfotel "github.com/agendei/agendei/internal/adapter/otel"
	"github.com/agendei/agendei/internal/domain"
	"github.com/agendei/agendei/internal/domain/appointment"
	"github.com/agendei/agendei/internal/domain/catalog"
	"github.com/agendei/agendei/internal/domain/review"
	"github.com/agendei/agendei/internal/domain/storefront"
	"github.com/agendei/agendei/internal/domain/tenant"
	"github.com/agendei/agendei/internal/port/cache"
	"github.com/agendei/agendei/internal/port/database"
	"github.com/agendei/agendei/internal/resilience"
)

const slugCachePrefix = "slug:"

// StorefrontService manages a tenant's public configuration and serves the
// anonymous storefront. Slug resolution is the only unscoped read; every
// other read goes through the resolved tenant's handle.
type StorefrontService struct {
	scoper    database.Scoper
	directory database.TenantDirectory
	cache     cache.Cache
	cacheTTL  time.Duration
	defaultTZ string
	pages     *resilience.Bulkhead
}

// NewStorefrontService creates a StorefrontService. c may be nil.
func NewStorefrontService(scoper database.Scoper, directory database.TenantDirectory, c cache.Cache, cacheTTL time.Duration, defaultTZ string) *StorefrontService {
	return &StorefrontService{
		scoper:    scoper,
		directory: directory,
		cache:     c,
		cacheTTL:  cacheTTL,
		defaultTZ: defaultTZ,
	}
}

// SetPageBulkhead caps concurrent page assemblies. Each assembly holds
// several pool connections at once.
func (s *StorefrontService) SetPageBulkhead(b *resilience.Bulkhead) {
	s.pages = b
}

// Resolve maps a public slug to its enabled tenant. Unknown and disabled
// slugs are domain.ErrNotFound.
func (s *StorefrontService) Resolve(ctx context.Context, slug string) (*tenant.Tenant, error) {
	if !tenant.ValidSlug(slug) {
		return nil, fmt.Errorf("storefront %q: %w", slug, domain.ErrNotFound)
	}

	key := slugCachePrefix + slug
	if s.cache != nil {
		if t, ok := cache.GetJSON[tenant.Tenant](ctx, s.cache, key); ok {
			return t, nil
		}
	}

	t, err := s.directory.GetTenantBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, key, t, s.cacheTTL); err != nil {
			slog.WarnContext(ctx, "slug cache set failed", "error", err)
		}
	}
	return t, nil
}

// Handle resolves slug and returns a handle bound to its tenant.
func (s *StorefrontService) Handle(ctx context.Context, slug string) (database.Scoped, *tenant.Tenant, error) {
	t, err := s.Resolve(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	return s.scoper.ForTenant(t.ID), t, nil
}

// Forget drops the cached resolution of slug.
func (s *StorefrontService) Forget(ctx context.Context, slug string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, slugCachePrefix+slug); err != nil {
		slog.WarnContext(ctx, "slug cache delete failed", "error", err)
	}
}

// GetConfig returns the saved configuration or the defaults derived from
// the tenant.
func (s *StorefrontService) GetConfig(ctx context.Context, h database.Scoped) (*storefront.Config, error) {
	cfg, err := h.GetConfig(ctx)
	if !errors.Is(err, domain.ErrNotFound) {
		return cfg, err
	}
	t, err := h.Tenant(ctx)
	if err != nil {
		return nil, err
	}
	d := storefront.Defaults(t.ID, t.Name, s.defaultTZ)
	return &d, nil
}

// UpdateConfig applies every field present in req in one transaction:
// either the config, the portfolio and the availability slots all change
// or none does.
func (s *StorefrontService) UpdateConfig(ctx context.Context, h database.Scoped, req storefront.UpdateRequest) (*storefront.Config, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out *storefront.Config
	err := h.InTx(ctx, func(tx database.Scoped) error {
		cfg, err := s.GetConfig(ctx, tx)
		if err != nil {
			return err
		}
		req.Apply(cfg)
		if err := tx.SaveConfig(ctx, cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		if req.PortfolioImages != nil {
			if err := tx.ReplacePortfolioImages(ctx, req.Images()); err != nil {
				return fmt.Errorf("replace portfolio: %w", err)
			}
		}
		if req.AvailabilitySlots != nil {
			slots, err := storefront.ParseSlots(*req.AvailabilitySlots)
			if err != nil {
				return err
			}
			if err := tx.ReplaceAvailabilitySlots(ctx, slots); err != nil {
				return fmt.Errorf("replace slots: %w", err)
			}
		}
		out, err = tx.GetConfig(ctx)
		return err
	})
	return out, err
}

// Portfolio returns the tenant's images in display order.
func (s *StorefrontService) Portfolio(ctx context.Context, h database.Scoped) ([]storefront.PortfolioImage, error) {
	return h.ListPortfolioImages(ctx)
}

// Slots returns the tenant's weekly availability.
func (s *StorefrontService) Slots(ctx context.Context, h database.Scoped) ([]storefront.AvailabilitySlot, error) {
	return h.ListAvailabilitySlots(ctx)
}

// Page assembles the public storefront of slug. Inactive services and
// professionals are left out.
func (s *StorefrontService) Page(ctx context.Context, slug string) (*storefront.Page, error) {
	h, t, err := s.Handle(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.PageOf(ctx, h, t)
}

// PageOf assembles the public storefront of an already resolved tenant.
func (s *StorefrontService) PageOf(ctx context.Context, h database.Scoped, t *tenant.Tenant) (*storefront.Page, error) {
	ctx, span := cfotel.StartStorefrontSpan(ctx, t.Slug)
	defer span.End()

	page := &storefront.Page{Tenant: *t}
	if err := s.pages.Run(ctx, func() error { return s.assemble(ctx, h, page) }); err != nil {
		return nil, err
	}
	if page.Services == nil {
		page.Services = []catalog.Service{}
	}
	if page.Professionals == nil {
		page.Professionals = []catalog.Professional{}
	}
	if page.Portfolio == nil {
		page.Portfolio = []storefront.PortfolioImage{}
	}
	return page, nil
}

func (s *StorefrontService) assemble(ctx context.Context, h database.Scoped, page *storefront.Page) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cfg, err := s.GetConfig(gctx, h)
		if err != nil {
			return err
		}
		page.Config = *cfg
		return nil
	})
	g.Go(func() error {
		var err error
		page.Services, err = h.ListServices(gctx, database.Eq("active", true))
		return err
	})
	g.Go(func() error {
		var err error
		page.Professionals, err = h.ListProfessionals(gctx, database.Eq("active", true))
		return err
	})
	g.Go(func() error {
		var err error
		page.Portfolio, err = h.ListPortfolioImages(gctx)
		return err
	})
	g.Go(func() error {
		reviews, err := h.ListReviews(gctx)
		if err != nil {
			return err
		}
		page.Reviews = review.Summarize(reviews)
		return nil
	})
	return g.Wait()
}

// Availability returns the open start times of professionalID on date
// (YYYY-MM-DD in the tenant's time zone).
func (s *StorefrontService) Availability(ctx context.Context, h database.Scoped, professionalID, date string) ([]string, error) {
	if professionalID == "" || date == "" {
		return nil, domain.Validation("professional_id and date are required")
	}
	if _, err := h.GetProfessional(ctx, professionalID); err != nil {
		return nil, err
	}
	cfg, err := s.GetConfig(ctx, h)
	if err != nil {
		return nil, err
	}
	loc := cfg.Location()
	day, err := time.ParseInLocation(appointment.DateLayout, date, loc)
	if err != nil {
		return nil, domain.Validation("date must match %s", appointment.DateLayout)
	}

	slots, err := h.ListAvailabilitySlots(ctx)
	if err != nil {
		return nil, err
	}
	taken, err := h.ListActiveStarts(ctx, professionalID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	times := storefront.AvailableTimes(slots, day, taken, loc)
	if times == nil {
		times = []string{}
	}
	return times, nil
}
