package postgres

import (
	"context"
	"time"

	"github.com/agendei/agendei/internal/domain/storefront"
	"github.com/agendei/agendei/internal/domain/tenant"
)

var configRel = relation[storefront.Config]{
	name:    "storefront config",
	from:    "storefront_configs c",
	alias:   "c",
	columns: `c.tenant_id, c.display_name, c.theme_color, c.logo_url, c.payment_key, c.require_payment_proof, c.timezone, c.updated_at`,
	scan: func(row scannable) (storefront.Config, error) {
		var c storefront.Config
		err := row.Scan(&c.TenantID, &c.DisplayName, &c.ThemeColor, &c.LogoURL, &c.PaymentKey, &c.RequirePaymentProof, &c.Timezone, &c.UpdatedAt)
		return c, err
	},
}

func (s *Scoped) GetConfig(ctx context.Context) (*storefront.Config, error) {
	c, err := findOne(ctx, s, configRel)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// SaveConfig upserts the single configuration row of the bound tenant.
func (s *Scoped) SaveConfig(ctx context.Context, c *storefront.Config) error {
	err := s.q.QueryRow(ctx,
		`INSERT INTO storefront_configs (tenant_id, display_name, theme_color, logo_url, payment_key, require_payment_proof, timezone)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (tenant_id) DO UPDATE SET
		   display_name = EXCLUDED.display_name,
		   theme_color = EXCLUDED.theme_color,
		   logo_url = EXCLUDED.logo_url,
		   payment_key = EXCLUDED.payment_key,
		   require_payment_proof = EXCLUDED.require_payment_proof,
		   timezone = EXCLUDED.timezone,
		   updated_at = now()
		 RETURNING tenant_id, updated_at`,
		s.tenantID, c.DisplayName, c.ThemeColor, c.LogoURL, c.PaymentKey, c.RequirePaymentProof, c.Timezone,
	).Scan(&c.TenantID, &c.UpdatedAt)
	return classify("save storefront config", err)
}

var portfolioRel = relation[storefront.PortfolioImage]{
	name:    "portfolio image",
	from:    "portfolio_images pi",
	alias:   "pi",
	columns: `pi.id, pi.tenant_id, pi.url, pi.caption, pi.position`,
	order:   "pi.position ASC",
	scan: func(row scannable) (storefront.PortfolioImage, error) {
		var p storefront.PortfolioImage
		err := row.Scan(&p.ID, &p.TenantID, &p.URL, &p.Caption, &p.Position)
		return p, err
	},
}

func (s *Scoped) ListPortfolioImages(ctx context.Context) ([]storefront.PortfolioImage, error) {
	return findMany(ctx, s, portfolioRel, page{})
}

func (s *Scoped) ReplacePortfolioImages(ctx context.Context, images []storefront.PortfolioImage) error {
	rows := make([][]assignment, 0, len(images))
	for i, img := range images {
		rows = append(rows, []assignment{
			set("url", img.URL),
			set("caption", img.Caption),
			set("position", i),
		})
	}
	return replaceAll(ctx, s, "portfolio_images", rows)
}

var slotRel = relation[storefront.AvailabilitySlot]{
	name:    "availability slot",
	from:    "availability_slots sl",
	alias:   "sl",
	columns: `sl.id, sl.tenant_id, sl.weekday, sl.slot_time`,
	order:   "sl.weekday ASC, sl.slot_time ASC",
	scan: func(row scannable) (storefront.AvailabilitySlot, error) {
		var (
			sl  storefront.AvailabilitySlot
			day int16
		)
		err := row.Scan(&sl.ID, &sl.TenantID, &day, &sl.Time)
		sl.Weekday = time.Weekday(day)
		return sl, err
	},
}

func (s *Scoped) ListAvailabilitySlots(ctx context.Context) ([]storefront.AvailabilitySlot, error) {
	return findMany(ctx, s, slotRel, page{})
}

func (s *Scoped) ReplaceAvailabilitySlots(ctx context.Context, slots []storefront.AvailabilitySlot) error {
	rows := make([][]assignment, 0, len(slots))
	for _, sl := range slots {
		rows = append(rows, []assignment{
			set("weekday", int16(sl.Weekday)),
			set("slot_time", sl.Time),
		})
	}
	return replaceAll(ctx, s, "availability_slots", rows)
}

// Tenant reads the bound tenant's own row. A disabled tenant reads as absent.
func (s *Scoped) Tenant(ctx context.Context) (*tenant.Tenant, error) {
	var t tenant.Tenant
	err := s.q.QueryRow(ctx,
		`SELECT id, name, slug, enabled, created_at, updated_at FROM tenants WHERE id = $1 AND enabled`,
		s.tenantID,
	).Scan(&t.ID, &t.Name, &t.Slug, &t.Enabled, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, classify("get tenant", err)
	}
	return &t, nil
}
