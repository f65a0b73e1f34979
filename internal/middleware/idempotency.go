package middleware

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/agendei/agendei/internal/port/cache"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"
	maxIdempotencyKey    = 255
	maxIdempotencyBody   = 1 << 20

	// pendingTTL bounds how long a crashed request blocks its key.
	pendingTTL = 2 * time.Minute
)

// replayedHeaders are the response headers a replay restores.
var replayedHeaders = []string{"Content-Type", "Location"}

// storedResponse is a response kept for replay, bound to the request body
// that produced it. A pending entry reserves the key while the first request
// runs.
type storedResponse struct {
	Fingerprint uint64            `json:"fingerprint"`
	Pending     bool              `json:"pending,omitempty"`
	Status      int               `json:"status"`
	Headers     map[string]string `json:"headers,omitempty"`
	Body        []byte            `json:"body"`
}

// Idempotency replays the stored response of a mutating request whose
// Idempotency-Key was already answered within ttl. Reusing a key with a
// different body is rejected with 422, and a retry arriving while the first
// request still runs gets 409. Keys are partitioned by caller, so it runs
// after Auth or Storefront. Server errors release the key and stay retryable.
func Idempotency(c cache.Cache, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientKey := r.Header.Get(headerIdempotencyKey)
			if clientKey == "" || !mutating(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			if len(clientKey) > maxIdempotencyKey {
				http.Error(w, "Idempotency-Key too long", http.StatusBadRequest)
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotencyBody+1))
			if err != nil {
				http.Error(w, "unreadable body", http.StatusBadRequest)
				return
			}
			if len(body) > maxIdempotencyBody {
				r.Body = readCloser{io.MultiReader(bytes.NewReader(body), r.Body), r.Body}
				next.ServeHTTP(w, r)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			ctx := r.Context()
			fp := xxhash.Sum64(body)
			key := idempotencyKey(r, clientKey)

			reserved, err := cache.AddJSON(ctx, c, key, storedResponse{Fingerprint: fp, Pending: true}, min(ttl, pendingTTL))
			if err != nil {
				slog.WarnContext(ctx, "idempotency: reserve key", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !reserved {
				prev, ok := cache.GetJSON[storedResponse](ctx, c, key)
				replay(w, prev, ok, fp)
				return
			}

			rec := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			ctx = context.WithoutCancel(ctx)
			if rec.statusCode >= http.StatusInternalServerError || rec.body.Len() > maxIdempotencyBody {
				if err := c.Delete(ctx, key); err != nil {
					slog.WarnContext(ctx, "idempotency: release key", "error", err)
				}
				return
			}
			resp := storedResponse{Fingerprint: fp, Status: rec.statusCode, Body: rec.body.Bytes()}
			for _, h := range replayedHeaders {
				if v := w.Header().Get(h); v != "" {
					if resp.Headers == nil {
						resp.Headers = map[string]string{}
					}
					resp.Headers[h] = v
				}
			}
			if err := cache.SetJSON(ctx, c, key, resp, ttl); err != nil {
				slog.WarnContext(ctx, "idempotency: store response", "error", err)
			}
		})
	}
}

// replay answers a request whose key is already taken. A key released
// between the reservation attempt and the read counts as in progress.
func replay(w http.ResponseWriter, prev *storedResponse, ok bool, fp uint64) {
	switch {
	case ok && prev.Fingerprint != fp:
		http.Error(w, "Idempotency-Key reused with a different request", http.StatusUnprocessableEntity)
	case !ok || prev.Pending:
		w.Header().Set("Retry-After", "1")
		http.Error(w, "a request with this Idempotency-Key is in progress", http.StatusConflict)
	default:
		for k, v := range prev.Headers {
			w.Header().Set(k, v)
		}
		w.Header().Set(headerReplayed, "true")
		w.WriteHeader(prev.Status)
		_, _ = w.Write(prev.Body)
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// idempotencyKey scopes the client key to the caller and the route. The
// client part is hashed so arbitrary keys map onto safe cache keys.
func idempotencyKey(r *http.Request, clientKey string) string {
	route := strconv.FormatUint(xxhash.Sum64String(r.Method+" "+r.URL.Path+" "+clientKey), 36)
	return "idem:" + callerScope(r) + ":" + route
}

// callerScope names the tenant and, when authenticated, the subject a
// request acts for.
func callerScope(r *http.Request) string {
	if p, ok := PrincipalFromContext(r.Context()); ok {
		return p.TenantID + ":" + p.Subject
	}
	if t := TenantFromContext(r.Context()); t != nil {
		return t.ID
	}
	return "anon"
}

type readCloser struct {
	io.Reader
	io.Closer
}

// responseRecorder passes the response through while keeping a copy.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
