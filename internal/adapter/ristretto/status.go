package ristretto

import (
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/Strob0t/DealerForge/internal/domain/tenant"
	"github.com/Strob0t/DealerForge/internal/port/cache"
)

var _ cache.TenantStatusCache = (*StatusCache)(nil)

type statusEntry struct {
	status tenant.Status
	gen    uint64
}

// StatusCache caches tenant statuses for a bounded time.
//
// Each tenant has a generation counter that Invalidate bumps. Entries carry
// the generation they were read under and are ignored once it is stale, so
// a Fill racing with an Invalidate can never resurrect the old status, even
// though ristretto applies writes asynchronously.
type StatusCache struct {
	c   *ristretto.Cache[string, statusEntry]
	ttl time.Duration

	mu  sync.Mutex
	gen map[string]uint64
}

// NewStatusCache creates a StatusCache whose entries expire after ttl.
func NewStatusCache(ttl time.Duration, maxTenants int64) (*StatusCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, statusEntry]{
		NumCounters: maxTenants * 10,
		MaxCost:     maxTenants,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &StatusCache{c: c, ttl: ttl, gen: make(map[string]uint64)}, nil
}

func (s *StatusCache) generation(tenantID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen[tenantID]
}

// Lookup returns the cached status and the ticket to pass to Fill on a miss.
func (s *StatusCache) Lookup(tenantID string) (tenant.Status, bool, uint64) {
	gen := s.generation(tenantID)
	e, ok := s.c.Get(tenantID)
	if !ok || e.gen != gen {
		return "", false, gen
	}
	return e.status, true, gen
}

// Fill caches status unless tenantID was invalidated after ticket was issued.
func (s *StatusCache) Fill(tenantID string, status tenant.Status, ticket uint64) {
	if s.generation(tenantID) != ticket {
		return
	}
	s.c.SetWithTTL(tenantID, statusEntry{status: status, gen: ticket}, 1, s.ttl)
}

// Invalidate drops the cached status of tenantID.
func (s *StatusCache) Invalidate(tenantID string) {
	s.mu.Lock()
	s.gen[tenantID]++
	s.mu.Unlock()
	s.c.Del(tenantID)
}

// Wait blocks until pending writes are applied.
func (s *StatusCache) Wait() { s.c.Wait() }

// Close releases the cache.
func (s *StatusCache) Close() { s.c.Close() }
