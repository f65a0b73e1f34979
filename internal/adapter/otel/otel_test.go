package otel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/agendei/agendei/internal/config"
)

func TestSetup_DisabledIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.OTEL{Enabled: false})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestMetrics_RecordedOnProvider(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetricsWith(mp)
	if err != nil {
		t.Fatalf("NewMetricsWith: %v", err)
	}

	ctx := context.Background()
	m.BookingsCreated.Add(ctx, 1)
	m.BookingsCreated.Add(ctx, 1)
	m.BookingConflicts.Add(ctx, 1)
	m.PaymentTransitions.Add(ctx, 1, metric.WithAttributes(attribute.String("to", "PAID")))
	m.RecordBreakerTransition("nats-publish", "open")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			sum, ok := md.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				sums[md.Name] += dp.Value
			}
		}
	}

	if sums["agendei.bookings.created"] != 2 {
		t.Errorf("bookings.created = %d, want 2", sums["agendei.bookings.created"])
	}
	if sums["agendei.bookings.conflicts"] != 1 {
		t.Errorf("bookings.conflicts = %d, want 1", sums["agendei.bookings.conflicts"])
	}
	if sums["agendei.payments.transitions"] != 1 {
		t.Errorf("payments.transitions = %d, want 1", sums["agendei.payments.transitions"])
	}
	if sums["agendei.breaker.transitions"] != 1 {
		t.Errorf("breaker.transitions = %d, want 1", sums["agendei.breaker.transitions"])
	}
}

func TestStartBookingSpan_NoopProvider(t *testing.T) {
	ctx, span := StartBookingSpan(context.Background(), "t1", "p1")
	defer span.End()
	if ctx == nil {
		t.Fatal("expected context")
	}
}

func TestMetrics_ObserveReadsCallback(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetricsWith(mp)
	if err != nil {
		t.Fatalf("NewMetricsWith: %v", err)
	}
	ratio := 0.25
	if err := m.Observe("agendei.cache.hit_ratio", "L1 hit ratio", func() float64 { return ratio }); err != nil {
		t.Fatalf("Observe: %v", err)
	}
	ratio = 0.75

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if md.Name != "agendei.cache.hit_ratio" {
				continue
			}
			g, ok := md.Data.(metricdata.Gauge[float64])
			if !ok || len(g.DataPoints) != 1 || g.DataPoints[0].Value != 0.75 {
				t.Fatalf("gauge = %+v", md.Data)
			}
			return
		}
	}
	t.Fatal("gauge not collected")
}

func TestSpanName(t *testing.T) {
	tests := []struct {
		method, path, want string
	}{
		{"GET", "/api/v1/appointments", "GET /api/v1/appointments"},
		{"POST", "/api/v1/public/salon-a/appointments", "POST /api/v1/public/{slug}"},
		{"GET", "/api/v1/public/", "GET /api/v1/public/"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(tt.method, tt.path, http.NoBody)
		if got := SpanName("", r); got != tt.want {
			t.Errorf("SpanName(%s %s) = %q, want %q", tt.method, tt.path, got, tt.want)
		}
	}
}
