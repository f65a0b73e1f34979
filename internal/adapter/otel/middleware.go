package otel

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// probe paths, not traced
var untraced = map[string]bool{"/health": true, "/ready": true}

// HTTPMiddleware traces every request except health probes.
func HTTPMiddleware(serviceName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, serviceName,
			otelhttp.WithFilter(func(r *http.Request) bool { return !untraced[r.URL.Path] }),
			otelhttp.WithSpanNameFormatter(SpanName),
		)
	}
}

// SpanName formats the server span name for r. Public storefront paths are
// collapsed so a span name never carries a tenant slug.
func SpanName(_ string, r *http.Request) string {
	p := r.URL.Path
	const public = "/api/v1/public/"
	if len(p) > len(public) && p[:len(public)] == public {
		p = public + "{slug}"
	}
	return r.Method + " " + p
}
