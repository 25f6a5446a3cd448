package ristretto

import (
	"context"
	"testing"
	"time"

	"github.com/Strob0t/DealerForge/internal/domain/tenant"
)

func TestCacheSetGetDelete(t *testing.T) {
	c, err := New(1 << 20)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	c.Wait()
	val, ok, err := c.Get(ctx, "k")
	if err != nil || !ok || string(val) != "v" {
		t.Fatalf("Get = %q, %v, %v", val, ok, err)
	}

	_ = c.Delete(ctx, "k")
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatal("expected miss after Delete")
	}
	if _, ok, _ := c.Get(ctx, "never-set"); ok {
		t.Fatal("expected miss for unknown key")
	}
}

func newStatusCache(t *testing.T) *StatusCache {
	t.Helper()
	s, err := NewStatusCache(time.Minute, 1000)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestStatusCacheFillLookup(t *testing.T) {
	s := newStatusCache(t)

	_, ok, ticket := s.Lookup("t1")
	if ok {
		t.Fatal("expected miss on empty cache")
	}
	s.Fill("t1", tenant.StatusActive, ticket)
	s.Wait()

	st, ok, _ := s.Lookup("t1")
	if !ok || st != tenant.StatusActive {
		t.Fatalf("Lookup = %s, %v", st, ok)
	}
}

func TestStatusCacheInvalidate(t *testing.T) {
	s := newStatusCache(t)
	_, _, ticket := s.Lookup("t1")
	s.Fill("t1", tenant.StatusActive, ticket)
	s.Wait()

	s.Invalidate("t1")
	if _, ok, _ := s.Lookup("t1"); ok {
		t.Fatal("expected miss after Invalidate")
	}
}

func TestStatusCacheStaleTicketIgnored(t *testing.T) {
	s := newStatusCache(t)
	_, _, ticket := s.Lookup("t1")

	// The tenant is blocked between the store read and the fill.
	s.Invalidate("t1")
	s.Fill("t1", tenant.StatusActive, ticket)
	s.Wait()

	if st, ok, _ := s.Lookup("t1"); ok {
		t.Fatalf("stale fill must not be visible, got %s", st)
	}

	_, _, fresh := s.Lookup("t1")
	s.Fill("t1", tenant.StatusBlocked, fresh)
	s.Wait()
	if st, ok, _ := s.Lookup("t1"); !ok || st != tenant.StatusBlocked {
		t.Fatalf("fresh fill: got %s, %v", st, ok)
	}
}

func TestStatusCacheTenantsIndependent(t *testing.T) {
	s := newStatusCache(t)
	_, _, t1 := s.Lookup("t1")
	_, _, t2 := s.Lookup("t2")
	s.Fill("t1", tenant.StatusActive, t1)
	s.Fill("t2", tenant.StatusBlocked, t2)
	s.Wait()

	s.Invalidate("t1")
	if st, ok, _ := s.Lookup("t2"); !ok || st != tenant.StatusBlocked {
		t.Fatalf("invalidating t1 affected t2: %s, %v", st, ok)
	}
}
