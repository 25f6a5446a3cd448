package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	cfotel "github.com/Strob0t/DealerForge/internal/adapter/otel"
	"github.com/Strob0t/DealerForge/internal/domain"
	"github.com/Strob0t/DealerForge/internal/domain/auth"
	"github.com/Strob0t/DealerForge/internal/domain/tenant"
	"github.com/Strob0t/DealerForge/internal/domain/user"
	"github.com/Strob0t/DealerForge/internal/port/cache"
)

const bearerPrefix = "Bearer "

// TenantStatusReader reads the current status of a tenant.
type TenantStatusReader interface {
	GetTenantStatus(ctx context.Context, id string) (tenant.Status, error)
}

// AccessGate turns an Authorization header into a verified RequestContext.
// The tenant status is checked on every call, so blocking a tenant denies
// tokens that were issued before the block.
type AccessGate struct {
	tokens      *TokenService
	store       TenantStatusReader
	legacyAdmin bool

	cache   cache.TenantStatusCache // nil: always read the store
	flights singleflight.Group
	metrics *cfotel.Metrics
}

// NewAccessGate creates an AccessGate.
func NewAccessGate(tokens *TokenService, store TenantStatusReader, legacyAdmin bool) *AccessGate {
	return &AccessGate{tokens: tokens, store: store, legacyAdmin: legacyAdmin}
}

// SetStatusCache enables read-through caching of tenant statuses.
func (g *AccessGate) SetStatusCache(c cache.TenantStatusCache) { g.cache = c }

// SetMetrics enables gate metrics.
func (g *AccessGate) SetMetrics(m *cfotel.Metrics) { g.metrics = m }

// Authenticate verifies header ("Bearer <token>") and the caller's tenant.
//
// Errors: domain.ErrUnauthenticated (no usable header), domain.ErrInvalidToken
// (signature or expiry), domain.ErrTenantSuspended (tenant blocked or gone),
// anything else is a storage failure and the request must be denied.
func (g *AccessGate) Authenticate(ctx context.Context, header string) (*auth.RequestContext, error) {
	ctx, span := cfotel.StartGateSpan(ctx)
	rc, err := g.authenticate(ctx, header)
	cfotel.EndSpan(span, err)
	g.metrics.RecordGate(ctx, gateOutcome(err))
	return rc, err
}

func (g *AccessGate) authenticate(ctx context.Context, header string) (*auth.RequestContext, error) {
	raw, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, domain.ErrUnauthenticated
	}
	return g.AuthenticateToken(ctx, strings.TrimSpace(raw))
}

// AuthenticateToken is Authenticate for a bare token, as passed by
// websocket clients in the query string.
func (g *AccessGate) AuthenticateToken(ctx context.Context, raw string) (*auth.RequestContext, error) {
	if raw == "" {
		return nil, domain.ErrUnauthenticated
	}
	claims, err := g.tokens.Verify(raw)
	if err != nil {
		return nil, err
	}

	if claims.TenantID != "" {
		status, err := g.TenantStatus(ctx, claims.TenantID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("tenant %s missing: %w", claims.TenantID, domain.ErrTenantSuspended)
		case err != nil:
			slog.ErrorContext(ctx, "tenant status lookup failed", "tenant_id", claims.TenantID, "error", err)
			return nil, fmt.Errorf("tenant status: %w", err)
		case status != tenant.StatusActive:
			return nil, fmt.Errorf("tenant %s %s: %w", claims.TenantID, status, domain.ErrTenantSuspended)
		}
	}

	return &auth.RequestContext{
		UserID:    claims.Subject,
		TenantID:  claims.TenantID,
		Username:  claims.Username,
		Role:      claims.Role,
		Privilege: user.ResolvePrivilege(claims.Role, claims.TenantID, claims.Username, g.legacyAdmin),
	}, nil
}

// TenantStatus returns the current status of a tenant, through the cache
// when one is configured.
func (g *AccessGate) TenantStatus(ctx context.Context, tenantID string) (tenant.Status, error) {
	if g.cache == nil {
		g.metrics.RecordStatusLookup(ctx, "store")
		return g.store.GetTenantStatus(ctx, tenantID)
	}

	status, ok, ticket := g.cache.Lookup(tenantID)
	if ok {
		g.metrics.RecordStatusLookup(ctx, "cache")
		return status, nil
	}

	// Concurrent misses share one store read, but only with callers that
	// saw the same invalidation ticket.
	key := tenantID + "/" + strconv.FormatUint(ticket, 10)
	v, err, _ := g.flights.Do(key, func() (any, error) {
		g.metrics.RecordStatusLookup(ctx, "store")
		st, err := g.store.GetTenantStatus(context.WithoutCancel(ctx), tenantID)
		if err != nil {
			return tenant.Status(""), err
		}
		g.cache.Fill(tenantID, st, ticket)
		return st, nil
	})
	if err != nil {
		return "", err
	}
	return v.(tenant.Status), nil
}

// InvalidateTenant drops any cached status of tenantID.
func (g *AccessGate) InvalidateTenant(tenantID string) {
	if g.cache != nil {
		g.cache.Invalidate(tenantID)
	}
}

func gateOutcome(err error) string {
	switch {
	case err == nil:
		return "allow"
	case errors.Is(err, domain.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, domain.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, domain.ErrTenantSuspended):
		return "suspended"
	default:
		return "error"
	}
}
