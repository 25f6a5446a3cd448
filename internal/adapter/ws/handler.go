// Package ws implements the WebSocket adapter that pushes domain events to
// the live feed of the tenant that owns them.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/Strob0t/DealerForge/internal/domain"
	"github.com/Strob0t/DealerForge/internal/domain/auth"
	"github.com/Strob0t/DealerForge/internal/domain/event"
	"github.com/Strob0t/DealerForge/internal/middleware"
	"github.com/Strob0t/DealerForge/internal/port/broadcast"
)

const writeTimeout = 5 * time.Second

var (
	_ broadcast.Broadcaster  = (*Hub)(nil)
	_ broadcast.Disconnector = (*Hub)(nil)
)

// conn wraps a single WebSocket connection bound to one tenant. The binding
// comes from the verified request identity at upgrade time and never changes.
type conn struct {
	ws       *websocket.Conn
	cancel   context.CancelFunc
	tenantID string
	userID   string
}

// Hub manages all active WebSocket connections, grouped by tenant.
type Hub struct {
	mu      sync.RWMutex
	tenants map[string]map[*conn]struct{}
	origins []string
}

// NewHub creates a hub. originPatterns restricts the Origin header accepted
// at upgrade; an empty list only allows same-origin requests.
func NewHub(originPatterns []string) *Hub {
	return &Hub{
		tenants: make(map[string]map[*conn]struct{}),
		origins: originPatterns,
	}
}

// HandleWS upgrades an authenticated request to a WebSocket bound to the
// caller's tenant. It must run behind the auth middleware; callers without
// a tenant are rejected before the upgrade.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	rc := auth.FromContext(r.Context())
	if rc == nil {
		middleware.WriteError(w, domain.ErrUnauthenticated)
		return
	}
	if rc.TenantID == "" {
		middleware.WriteError(w, domain.ErrForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		slog.WarnContext(r.Context(), "websocket accept failed", "error", err)
		return
	}

	// The feed is server-to-client; CloseRead consumes control frames and
	// cancels ctx once the peer goes away.
	ctx, cancel := context.WithCancel(ws.CloseRead(context.WithoutCancel(r.Context())))
	c := &conn{ws: ws, cancel: cancel, tenantID: rc.TenantID, userID: rc.UserID}
	h.add(c)
	defer h.remove(c)

	hello, err := encodeHello(c.tenantID, c.userID)
	if err == nil {
		err = h.write(ctx, c, hello)
	}
	if err != nil {
		slog.DebugContext(ctx, "websocket hello failed", "error", err)
		return
	}

	slog.InfoContext(r.Context(), "websocket connected", "tenant_id", c.tenantID, "user_id", c.userID, "remote", r.RemoteAddr)
	<-ctx.Done()
}

// Broadcast sends ev to every connection of ev.TenantID and no other.
func (h *Hub) Broadcast(ctx context.Context, ev event.Event) {
	if ev.TenantID == "" {
		slog.WarnContext(ctx, "dropping event without tenant", "type", ev.Type)
		return
	}
	data, err := encodeEvent(ev)
	if err != nil {
		slog.ErrorContext(ctx, "websocket marshal failed", "type", ev.Type, "error", err)
		return
	}

	for _, c := range h.snapshot(ev.TenantID) {
		if err := h.write(ctx, c, data); err != nil {
			slog.DebugContext(ctx, "websocket write failed", "tenant_id", c.tenantID, "error", err)
			_ = c.ws.Close(websocket.StatusGoingAway, "write failed")
			h.remove(c)
		}
	}
}

// DisconnectTenant closes every connection of tenantID with a policy
// violation status. It is called when the tenant is blocked.
func (h *Hub) DisconnectTenant(tenantID string) {
	conns := h.snapshot(tenantID)
	for _, c := range conns {
		h.remove(c)
		go closeConn(c, websocket.StatusPolicyViolation, "tenant suspended")
	}
	if len(conns) > 0 {
		slog.Info("websocket tenant disconnected", "tenant_id", tenantID, "connections", len(conns))
	}
}

// Close disconnects every client. It is called on shutdown.
func (h *Hub) Close() {
	h.mu.RLock()
	tenants := make([]string, 0, len(h.tenants))
	for tid := range h.tenants {
		tenants = append(tenants, tid)
	}
	h.mu.RUnlock()

	for _, tid := range tenants {
		for _, c := range h.snapshot(tid) {
			h.remove(c)
			go closeConn(c, websocket.StatusGoingAway, "server shutting down")
		}
	}
}

// ConnectionCount returns the number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.tenants {
		n += len(set)
	}
	return n
}

// TenantConnectionCount returns the number of active connections of one tenant.
func (h *Hub) TenantConnectionCount(tenantID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.tenants[tenantID])
}

// closeConn runs the close handshake, which can take up to a few seconds
// against an unresponsive peer.
func closeConn(c *conn, code websocket.StatusCode, reason string) {
	if err := c.ws.Close(code, reason); err != nil {
		slog.Debug("websocket close", "tenant_id", c.tenantID, "error", err)
	}
}

func (h *Hub) write(ctx context.Context, c *conn, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.ws.Write(ctx, websocket.MessageText, data)
}

func (h *Hub) snapshot(tenantID string) []*conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	set := h.tenants[tenantID]
	out := make([]*conn, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

func (h *Hub) add(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.tenants[c.tenantID]
	if !ok {
		set = make(map[*conn]struct{})
		h.tenants[c.tenantID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.tenants[c.tenantID]
	if _, ok := set[c]; !ok {
		return
	}
	c.cancel()
	delete(set, c)
	if len(set) == 0 {
		delete(h.tenants, c.tenantID)
	}
	slog.Debug("websocket disconnected", "tenant_id", c.tenantID, "user_id", c.userID)
}
