// Package auth holds the verified request identity produced by the access gate.
package auth

import (
	"context"

	"github.com/Strob0t/DealerForge/internal/domain/user"
)

// RequestContext is the verified identity of one request. It is derived
// from a verified token plus a live tenant status check, and it is the only
// source of the tenant id for tenant-scoped operations.
type RequestContext struct {
	UserID    string         `json:"user_id"`
	TenantID  string         `json:"tenant_id,omitempty"`
	Username  string         `json:"username"`
	Role      user.Role      `json:"role"`
	Privilege user.Privilege `json:"privilege"`
}

// IsSuperAdmin reports whether the caller may use the control plane.
func (rc *RequestContext) IsSuperAdmin() bool {
	return rc != nil && rc.Privilege == user.PrivilegeSuperAdmin
}

type ctxKey struct{}

// WithRequestContext stores rc in ctx.
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, rc)
}

// FromContext returns the RequestContext stored in ctx, or nil.
func FromContext(ctx context.Context) *RequestContext {
	rc, _ := ctx.Value(ctxKey{}).(*RequestContext)
	return rc
}

// TenantID returns the tenant id of the caller in ctx, or "" when the
// request is unauthenticated or tenant-less.
func TenantID(ctx context.Context) string {
	if rc := FromContext(ctx); rc != nil {
		return rc.TenantID
	}
	return ""
}
