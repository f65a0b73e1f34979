package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "agendei"

// Metrics holds all agendei metric instruments.
type Metrics struct {
	BookingsCreated    metric.Int64Counter
	BookingConflicts   metric.Int64Counter
	PaymentTransitions metric.Int64Counter
	StatusTransitions  metric.Int64Counter
	ReviewsCreated     metric.Int64Counter
	BookingDuration    metric.Float64Histogram
	BreakerTransitions metric.Int64Counter

	meter metric.Meter
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	return NewMetricsWith(otel.GetMeterProvider())
}

// NewMetricsWith creates all metric instruments on mp.
func NewMetricsWith(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)
	m := &Metrics{meter: meter}
	var err error

	m.BookingsCreated, err = meter.Int64Counter("agendei.bookings.created",
		metric.WithDescription("Number of appointments booked"))
	if err != nil {
		return nil, err
	}

	m.BookingConflicts, err = meter.Int64Counter("agendei.bookings.conflicts",
		metric.WithDescription("Number of bookings rejected because the slot was taken"))
	if err != nil {
		return nil, err
	}

	m.PaymentTransitions, err = meter.Int64Counter("agendei.payments.transitions",
		metric.WithDescription("Number of applied payment status transitions"))
	if err != nil {
		return nil, err
	}

	m.StatusTransitions, err = meter.Int64Counter("agendei.appointments.transitions",
		metric.WithDescription("Number of applied appointment status transitions"))
	if err != nil {
		return nil, err
	}

	m.ReviewsCreated, err = meter.Int64Counter("agendei.reviews.created",
		metric.WithDescription("Number of reviews created"))
	if err != nil {
		return nil, err
	}

	m.BookingDuration, err = meter.Float64Histogram("agendei.booking.duration_seconds",
		metric.WithDescription("Booking transaction duration in seconds"))
	if err != nil {
		return nil, err
	}

	m.BreakerTransitions, err = meter.Int64Counter("agendei.breaker.transitions",
		metric.WithDescription("Number of circuit breaker state changes"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// Observe registers a gauge whose value is read from fn at each collection.
// It serves values owned by other components, such as cache hit ratios or
// dropped log records.
func (m *Metrics) Observe(name, description string, fn func() float64) error {
	_, err := m.meter.Float64ObservableGauge(name,
		metric.WithDescription(description),
		metric.WithFloat64Callback(func(_ context.Context, o metric.Float64Observer) error {
			o.Observe(fn())
			return nil
		}))
	return err
}

// RecordBreakerTransition counts a circuit breaker moving to state to.
func (m *Metrics) RecordBreakerTransition(breaker, to string) {
	m.BreakerTransitions.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("breaker", breaker), attribute.String("to", to)))
}
