package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolLimitsConcurrency(t *testing.T) {
	const limit = 3
	pool := NewPool(limit)

	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pool.Run(context.Background(), func() error {
				cur := running.Add(1)
				for {
					old := peak.Load()
					if cur <= old || peak.CompareAndSwap(old, cur) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				running.Add(-1)
				return nil
			})
			if err != nil {
				t.Errorf("Run: %v", err)
			}
		}()
	}
	wg.Wait()

	if p := peak.Load(); p > limit {
		t.Fatalf("peak concurrency %d, want <= %d", p, limit)
	}
}

func TestPoolWaitHonorsContext(t *testing.T) {
	pool := NewPool(1)

	occupied := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = pool.Run(context.Background(), func() error {
			close(occupied)
			<-release
			return nil
		})
	}()
	<-occupied
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := pool.Run(ctx, func() error {
		t.Error("fn ran without a free slot")
		return nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestPoolReturnsJobError(t *testing.T) {
	boom := errors.New("boom")
	if err := NewPool(0).Run(context.Background(), func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected job error, got %v", err)
	}
}

func TestNilPoolRunsDirectly(t *testing.T) {
	var pool *Pool
	ran := false
	if err := pool.Run(context.Background(), func() error { ran = true; return nil }); err != nil || !ran {
		t.Fatalf("ran=%v err=%v", ran, err)
	}
}
