// Package storefront defines the public-facing configuration of a tenant.
package storefront

import (
	"sort"
	"strings"
	"time"

	"github.com/agendei/agendei/internal/domain"
	"github.com/agendei/agendei/internal/domain/catalog"
	"github.com/agendei/agendei/internal/domain/review"
	"github.com/agendei/agendei/internal/domain/tenant"
)

// DefaultThemeColor is used until a tenant picks its own.
const DefaultThemeColor = "#111827"

// Config is the single storefront configuration row of a tenant.
type Config struct {
	TenantID            string    `json:"tenant_id"`
	DisplayName         string    `json:"display_name"`
	ThemeColor          string    `json:"theme_color"`
	LogoURL             string    `json:"logo_url,omitempty"`
	PaymentKey          string    `json:"payment_key,omitempty"`
	RequirePaymentProof bool      `json:"require_payment_proof"`
	Timezone            string    `json:"timezone"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Defaults returns the configuration of a tenant that never saved one.
func Defaults(tenantID, displayName, timezone string) Config {
	if timezone == "" {
		timezone = "UTC"
	}
	return Config{
		TenantID:    tenantID,
		DisplayName: displayName,
		ThemeColor:  DefaultThemeColor,
		Timezone:    timezone,
	}
}

// Location loads the configured time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	if c == nil || c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// PortfolioImage is one picture of the tenant's work.
type PortfolioImage struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	URL      string `json:"url"`
	Caption  string `json:"caption,omitempty"`
	Position int    `json:"position"`
}

// AvailabilitySlot is a recurring weekly start time offered for booking.
type AvailabilitySlot struct {
	ID       string       `json:"id"`
	TenantID string       `json:"tenant_id"`
	Weekday  time.Weekday `json:"weekday"`
	Time     string       `json:"time"` // HH:MM
}

// ImageInput is one portfolio entry of an UpdateRequest.
type ImageInput struct {
	URL     string `json:"url" validate:"required,http_url"`
	Caption string `json:"caption" validate:"max=200"`
}

// SlotInput is one availability entry of an UpdateRequest.
type SlotInput struct {
	Weekday string `json:"weekday" validate:"required"` // "mon" or "monday"
	Time    string `json:"time" validate:"required"`    // HH:MM
}

// UpdateRequest enumerates every recognized configuration field. Each field is
// independently optional; a nil list leaves that list untouched, an empty one clears it.
type UpdateRequest struct {
	DisplayName         *string       `json:"display_name,omitempty" validate:"omitempty,min=1,max=120"`
	ThemeColor          *string       `json:"theme_color,omitempty" validate:"omitempty,hexcolor"`
	LogoURL             *string       `json:"logo_url,omitempty" validate:"omitempty,http_url"`
	PaymentKey          *string       `json:"payment_key,omitempty" validate:"omitempty,max=140"`
	RequirePaymentProof *bool         `json:"require_payment_proof,omitempty"`
	Timezone            *string       `json:"timezone,omitempty"`
	PortfolioImages     *[]ImageInput `json:"portfolio_images,omitempty" validate:"omitempty,max=50,dive"`
	AvailabilitySlots   *[]SlotInput  `json:"availability_slots,omitempty" validate:"omitempty,max=500,dive"`
}

// Validate checks every present field.
func (r *UpdateRequest) Validate() error {
	if err := domain.ValidateStruct(r); err != nil {
		return err
	}
	if r.Timezone != nil {
		if _, err := time.LoadLocation(*r.Timezone); err != nil || *r.Timezone == "" {
			return domain.Validation("unknown timezone %q", *r.Timezone)
		}
	}
	if r.AvailabilitySlots != nil {
		if _, err := ParseSlots(*r.AvailabilitySlots); err != nil {
			return err
		}
	}
	return nil
}

// Apply copies the scalar fields present in r onto c.
func (r *UpdateRequest) Apply(c *Config) {
	if r.DisplayName != nil {
		c.DisplayName = strings.TrimSpace(*r.DisplayName)
	}
	if r.ThemeColor != nil {
		c.ThemeColor = strings.ToLower(*r.ThemeColor)
	}
	if r.LogoURL != nil {
		c.LogoURL = *r.LogoURL
	}
	if r.PaymentKey != nil {
		c.PaymentKey = *r.PaymentKey
	}
	if r.RequirePaymentProof != nil {
		c.RequirePaymentProof = *r.RequirePaymentProof
	}
	if r.Timezone != nil {
		c.Timezone = *r.Timezone
	}
}

// Images converts the portfolio inputs into ordered images.
func (r *UpdateRequest) Images() []PortfolioImage {
	if r.PortfolioImages == nil {
		return nil
	}
	out := make([]PortfolioImage, 0, len(*r.PortfolioImages))
	for i, in := range *r.PortfolioImages {
		out = append(out, PortfolioImage{URL: in.URL, Caption: in.Caption, Position: i})
	}
	return out
}

// ParseSlots converts slot inputs, rejecting malformed and duplicate entries.
func ParseSlots(in []SlotInput) ([]AvailabilitySlot, error) {
	out := make([]AvailabilitySlot, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		day, err := parseWeekday(s.Weekday)
		if err != nil {
			return nil, domain.Validation("%v", err)
		}
		h, m, err := parseHHMM(s.Time)
		if err != nil {
			return nil, domain.Validation("%v", err)
		}
		clock := formatHHMM(h, m)
		key := day.String() + clock
		if seen[key] {
			return nil, domain.Validation("duplicate slot %s %s", day, clock)
		}
		seen[key] = true
		out = append(out, AvailabilitySlot{Weekday: day, Time: clock})
	}
	return out, nil
}

// AvailableTimes returns the configured start times on date (interpreted in loc)
// that are not already taken, in ascending order.
func AvailableTimes(slots []AvailabilitySlot, date time.Time, taken []time.Time, loc *time.Location) []string {
	if loc == nil {
		loc = time.UTC
	}
	busy := make(map[string]bool, len(taken))
	for _, t := range taken {
		busy[t.In(loc).Format("2006-01-02 15:04")] = true
	}
	day := date.Format("2006-01-02")
	var out []string
	for _, s := range slots {
		if s.Weekday != date.Weekday() {
			continue
		}
		if !busy[day+" "+s.Time] {
			out = append(out, s.Time)
		}
	}
	sort.Strings(out)
	return out
}

// Page is the public storefront of a tenant as served to anonymous visitors.
type Page struct {
	Tenant        tenant.Tenant          `json:"tenant"`
	Config        Config                 `json:"config"`
	Services      []catalog.Service      `json:"services"`
	Professionals []catalog.Professional `json:"professionals"`
	Portfolio     []PortfolioImage       `json:"portfolio"`
	Reviews       review.Summary         `json:"reviews"`
}
