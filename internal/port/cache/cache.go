// Package cache defines the cache ports: the tenant status cache used by the
// access gate and a byte cache for replayable responses.
package cache

import (
	"context"
	"time"

	"github.com/Strob0t/DealerForge/internal/domain/tenant"
)

// TenantStatusCache holds recently read tenant statuses.
//
// Lookup returns a ticket alongside the result. Fill stores a status only if
// no invalidation happened since that ticket was issued, so a status read
// from the store before a concurrent change can never overwrite the
// invalidation of that change.
type TenantStatusCache interface {
	Lookup(tenantID string) (status tenant.Status, ok bool, ticket uint64)
	Fill(tenantID string, status tenant.Status, ticket uint64)
	Invalidate(tenantID string)
}

// Cache is a key/value byte cache with per-entry expiry.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
