package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "agendei"

// StartBookingSpan starts a span for a booking attempt.
func StartBookingSpan(ctx context.Context, tenantID, professionalID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "booking",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.String("professional.id", professionalID),
		),
	)
}

// StartTransitionSpan starts a span for an appointment or payment transition.
func StartTransitionSpan(ctx context.Context, appointmentID, kind, to string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "transition",
		trace.WithAttributes(
			attribute.String("appointment.id", appointmentID),
			attribute.String("transition.kind", kind),
			attribute.String("transition.to", to),
		),
	)
}

// StartStorefrontSpan starts a span for a public storefront read.
func StartStorefrontSpan(ctx context.Context, slug string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "storefront",
		trace.WithAttributes(attribute.String("storefront.slug", slug)),
	)
}
