package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/agendei/agendei/internal/domain"
	"github.com/agendei/agendei/internal/domain/catalog"
	"github.com/agendei/agendei/internal/domain/review"
	"github.com/agendei/agendei/internal/domain/storefront"
	"github.com/agendei/agendei/internal/domain/tenant"
	"github.com/agendei/agendei/internal/resilience"
)

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{data: make(map[string][]byte)} }

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *mapCache) Add(_ context.Context, key string, value []byte, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[key]; ok {
		return false, nil
	}
	c.data[key] = value
	return true, nil
}

// countingDirectory records slug lookups that reach the store.
type countingDirectory struct {
	*memDB
	mu      sync.Mutex
	lookups int
}

func (d *countingDirectory) GetTenantBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	d.mu.Lock()
	d.lookups++
	d.mu.Unlock()
	return d.memDB.GetTenantBySlug(ctx, slug)
}

func newTestStorefront(db *memDB) (*StorefrontService, *countingDirectory) {
	dir := &countingDirectory{memDB: db}
	return NewStorefrontService(db, dir, newMapCache(), time.Minute, "UTC"), dir
}

func strPtr(s string) *string { return &s }

func TestStorefront_ResolveCachesSlug(t *testing.T) {
	db := newMemDB()
	s := newSalon(t, db, "salon-a")
	ctx := context.Background()
	svc, dir := newTestStorefront(db)

	for range 3 {
		tn, err := svc.Resolve(ctx, "salon-a")
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if tn.ID != s.h.TenantID() {
			t.Fatalf("resolved %s, want %s", tn.ID, s.h.TenantID())
		}
	}
	if dir.lookups != 1 {
		t.Fatalf("directory lookups = %d, want 1", dir.lookups)
	}

	svc.Forget(ctx, "salon-a")
	if _, err := svc.Resolve(ctx, "salon-a"); err != nil {
		t.Fatalf("resolve after forget: %v", err)
	}
	if dir.lookups != 2 {
		t.Fatalf("directory lookups = %d, want 2", dir.lookups)
	}
}

func TestStorefront_ResolveRejectsUnknownAndInvalid(t *testing.T) {
	db := newMemDB()
	newSalon(t, db, "salon-a")
	disabled := db.addTenant("Closed", "closed")
	disabled.Enabled = false
	svc, dir := newTestStorefront(db)

	for _, slug := range []string{"nope", "closed", "Bad Slug", "../etc", ""} {
		if _, err := svc.Resolve(context.Background(), slug); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("%q: expected ErrNotFound, got %v", slug, err)
		}
	}
	if dir.lookups != 2 {
		t.Fatalf("invalid slugs must not reach the store, lookups = %d", dir.lookups)
	}
}

func TestStorefront_GetConfigDefaults(t *testing.T) {
	db := newMemDB()
	s := newSalon(t, db, "salon-a")
	svc, _ := newTestStorefront(db)

	cfg, err := svc.GetConfig(context.Background(), s.h)
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	if cfg.DisplayName != "Salon salon-a" || cfg.ThemeColor != storefront.DefaultThemeColor || cfg.Timezone != "UTC" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestStorefront_UpdateConfigAppliesAll(t *testing.T) {
	db := newMemDB()
	s := newSalon(t, db, "salon-a")
	ctx := context.Background()
	svc, _ := newTestStorefront(db)

	images := []storefront.ImageInput{{URL: "https://img.example.com/1.jpg"}, {URL: "https://img.example.com/2.jpg", Caption: "fade"}}
	slots := []storefront.SlotInput{{Weekday: "sat", Time: "9:00"}, {Weekday: "saturday", Time: "14:00"}}
	cfg, err := svc.UpdateConfig(ctx, s.h, storefront.UpdateRequest{
		DisplayName:       strPtr("Salon A"),
		ThemeColor:        strPtr("#FF00AA"),
		PortfolioImages:   &images,
		AvailabilitySlots: &slots,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if cfg.DisplayName != "Salon A" || cfg.ThemeColor != "#ff00aa" {
		t.Fatalf("config not applied: %+v", cfg)
	}

	gotImages, _ := svc.Portfolio(ctx, s.h)
	if len(gotImages) != 2 || gotImages[1].Position != 1 || gotImages[1].Caption != "fade" {
		t.Fatalf("portfolio: %+v", gotImages)
	}
	gotSlots, _ := svc.Slots(ctx, s.h)
	if len(gotSlots) != 2 || gotSlots[0].Time != "09:00" || gotSlots[0].Weekday != time.Saturday {
		t.Fatalf("slots: %+v", gotSlots)
	}

	// a request without images or slots leaves them untouched
	if _, err := svc.UpdateConfig(ctx, s.h, storefront.UpdateRequest{PaymentKey: strPtr("pix-key")}); err != nil {
		t.Fatalf("second update: %v", err)
	}
	if gotImages, _ := svc.Portfolio(ctx, s.h); len(gotImages) != 2 {
		t.Fatalf("portfolio replaced by partial update: %+v", gotImages)
	}
}

func TestStorefront_UpdateConfigIsAtomic(t *testing.T) {
	db := newMemDB()
	s := newSalon(t, db, "salon-a")
	ctx := context.Background()
	svc, _ := newTestStorefront(db)

	images := []storefront.ImageInput{{URL: "https://img.example.com/1.jpg"}}
	if _, err := svc.UpdateConfig(ctx, s.h, storefront.UpdateRequest{DisplayName: strPtr("Before"), PortfolioImages: &images}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	boom := errors.New("disk full")
	db.fail["ReplaceAvailabilitySlots"] = boom
	slots := []storefront.SlotInput{{Weekday: "mon", Time: "09:00"}}
	none := []storefront.ImageInput{}
	_, err := svc.UpdateConfig(ctx, s.h, storefront.UpdateRequest{
		DisplayName:       strPtr("After"),
		PortfolioImages:   &none,
		AvailabilitySlots: &slots,
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected injected failure, got %v", err)
	}
	delete(db.fail, "ReplaceAvailabilitySlots")

	cfg, err := svc.GetConfig(ctx, s.h)
	if err != nil || cfg.DisplayName != "Before" {
		t.Fatalf("config must be rolled back: %+v %v", cfg, err)
	}
	if gotImages, _ := svc.Portfolio(ctx, s.h); len(gotImages) != 1 {
		t.Fatalf("portfolio must be rolled back: %+v", gotImages)
	}
}

func TestStorefront_UpdateConfigValidation(t *testing.T) {
	db := newMemDB()
	s := newSalon(t, db, "salon-a")
	svc, _ := newTestStorefront(db)

	bad := []storefront.SlotInput{{Weekday: "funday", Time: "09:00"}}
	for name, req := range map[string]storefront.UpdateRequest{
		"theme":    {ThemeColor: strPtr("red")},
		"timezone": {Timezone: strPtr("Mars/Olympus")},
		"slot":     {AvailabilitySlots: &bad},
	} {
		if _, err := svc.UpdateConfig(context.Background(), s.h, req); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("%s: expected ErrValidation, got %v", name, err)
		}
	}
}

func TestStorefront_Page(t *testing.T) {
	db := newMemDB()
	s := newSalon(t, db, "salon-a")
	other := newSalon(t, db, "salon-b")
	ctx := context.Background()
	svc, _ := newTestStorefront(db)

	hidden := &catalog.Professional{Name: "Retired"}
	if err := s.h.CreateProfessional(ctx, hidden); err != nil {
		t.Fatalf("create professional: %v", err)
	}
	a := bookOne(t, s, "10:00", "")
	if _, err := NewAppointmentService(nil).Complete(ctx, s.h, a.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := NewReviewService(nil).Create(ctx, s.h, "", review.CreateRequest{AppointmentID: a.ID, Rating: 4}); err != nil {
		t.Fatalf("review: %v", err)
	}

	page, err := svc.Page(ctx, "salon-a")
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if page.Tenant.ID != s.h.TenantID() || page.Config.DisplayName != "Salon salon-a" {
		t.Fatalf("header: %+v %+v", page.Tenant, page.Config)
	}
	if len(page.Services) != 1 || len(page.Professionals) != 1 || page.Professionals[0].ID != s.pro.ID {
		t.Fatalf("catalog: %+v %+v", page.Services, page.Professionals)
	}
	if page.Portfolio == nil || len(page.Portfolio) != 0 {
		t.Fatalf("portfolio must be an empty list: %#v", page.Portfolio)
	}
	if page.Reviews.Count != 1 || page.Reviews.Average != 4 {
		t.Fatalf("reviews: %+v", page.Reviews)
	}

	otherPage, err := svc.Page(ctx, "salon-b")
	if err != nil {
		t.Fatalf("page b: %v", err)
	}
	if otherPage.Reviews.Count != 0 || otherPage.Professionals[0].ID != other.pro.ID {
		t.Fatalf("salon-b page leaked salon-a data: %+v", otherPage)
	}
}

func TestStorefront_Availability(t *testing.T) {
	db := newMemDB()
	s := newSalon(t, db, "salon-a")
	ctx := context.Background()
	svc, _ := newTestStorefront(db)

	slots := []storefront.SlotInput{
		{Weekday: "sat", Time: "09:00"},
		{Weekday: "sat", Time: "10:00"},
		{Weekday: "sun", Time: "09:00"},
	}
	if _, err := svc.UpdateConfig(ctx, s.h, storefront.UpdateRequest{AvailabilitySlots: &slots}); err != nil {
		t.Fatalf("update: %v", err)
	}
	// 2025-03-01 is a Saturday
	booked := bookOne(t, s, "09:00", "")

	times, err := svc.Availability(ctx, s.h, s.pro.ID, "2025-03-01")
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if len(times) != 1 || times[0] != "10:00" {
		t.Fatalf("times = %v, want [10:00]", times)
	}

	if _, err := NewAppointmentService(nil).Cancel(ctx, s.h, booked.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	times, _ = svc.Availability(ctx, s.h, s.pro.ID, "2025-03-01")
	if len(times) != 2 {
		t.Fatalf("cancelled slot must reopen, got %v", times)
	}

	times, err = svc.Availability(ctx, s.h, s.pro.ID, "2025-03-03")
	if err != nil || times == nil || len(times) != 0 {
		t.Fatalf("monday must be an empty list: %#v %v", times, err)
	}

	if _, err := svc.Availability(ctx, s.h, s.pro.ID, "March 1"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("bad date: expected ErrValidation, got %v", err)
	}
	if _, err := svc.Availability(ctx, s.h, "missing", "2025-03-01"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown professional: expected ErrNotFound, got %v", err)
	}
}

func TestStorefront_PageWaitsForBulkheadSlot(t *testing.T) {
	db := newMemDB()
	newSalon(t, db, "salon-a")
	svc, _ := newTestStorefront(db)
	b := resilience.NewBulkhead(1)
	svc.SetPageBulkhead(b)

	release := make(chan struct{})
	held := make(chan struct{})
	go func() {
		_ = b.Run(context.Background(), func() error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := svc.Page(ctx, "salon-a"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected the page to wait for a slot, got %v", err)
	}

	close(release)
	if _, err := svc.Page(context.Background(), "salon-a"); err != nil {
		t.Fatalf("page after release: %v", err)
	}
}
