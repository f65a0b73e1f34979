// Package ws implements the WebSocket adapter for the realtime admin feed.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/agendei/agendei/internal/domain"
	"github.com/agendei/agendei/internal/domain/principal"
	"github.com/agendei/agendei/internal/port/broadcast"
)

const writeTimeout = 5 * time.Second

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Authenticator resolves a bearer token to a verified principal.
type Authenticator interface {
	Resolve(token string) (principal.Principal, error)
}

// AccountChecker confirms that the tenant and the user a principal names
// still exist and are enabled.
type AccountChecker interface {
	CheckAccount(ctx context.Context, p principal.Principal) error
}

// conn wraps a single WebSocket connection bound to one tenant.
type conn struct {
	ws       *websocket.Conn
	cancel   context.CancelFunc
	tenantID string
}

// Hub manages active admin connections and delivers each tenant's events
// to that tenant's connections only.
type Hub struct {
	mu       sync.RWMutex
	conns    map[*conn]struct{}
	origins  []string
	auth     Authenticator
	accounts AccountChecker
}

var _ broadcast.Broadcaster = (*Hub)(nil)

// NewHub creates a hub. origins is the comma separated list of accepted
// Origin values, as given to the CORS middleware; empty accepts same-origin
// requests only.
func NewHub(origins string, auth Authenticator) *Hub {
	var patterns []string
	for _, o := range strings.Split(origins, ",") {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		patterns = append(patterns, strings.TrimPrefix(strings.TrimPrefix(o, "https://"), "http://"))
	}
	return &Hub{
		conns:   make(map[*conn]struct{}),
		origins: patterns,
		auth:    auth,
	}
}

// WithAccounts makes HandleWS refuse tokens whose tenant or user has been
// disabled or removed.
func (h *Hub) WithAccounts(a AccountChecker) *Hub {
	h.accounts = a
	return h
}

// HandleWS authenticates the caller and upgrades the connection. The token
// is read from the Authorization header or, for browsers, the token query
// parameter. Only staff principals may subscribe.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		token = bearer
	}
	if token == "" || h.auth == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	p, err := h.auth.Resolve(token)
	if err != nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	if h.accounts != nil {
		if err := h.accounts.CheckAccount(r.Context(), p); err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				slog.ErrorContext(r.Context(), "websocket account lookup failed", "kind", domain.Kind(err))
				http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
				return
			}
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
	}
	if !p.IsStaff() {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	c := &conn{ws: ws, cancel: cancel, tenantID: p.TenantID}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	slog.Info("websocket connected", "remote", r.RemoteAddr)

	defer func() {
		h.remove(c)
		_ = ws.Close(websocket.StatusNormalClosure, "")
	}()
	// Read loop detects disconnects and consumes pings.
	for {
		if _, _, err := ws.Read(ctx); err != nil {
			return
		}
	}
}

// Send delivers msg to every connection of tenantID.
func (h *Hub) Send(ctx context.Context, tenantID string, msg Message) {
	if tenantID == "" {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("websocket marshal failed", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.conns {
		if c.tenantID != tenantID {
			continue
		}
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := c.ws.Write(wctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			slog.Debug("websocket write failed", "error", err)
			go h.remove(c)
		}
	}
}

// ConnectionCount returns the number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c]; ok {
		c.cancel()
		delete(h.conns, c)
		slog.Info("websocket disconnected")
	}
}
