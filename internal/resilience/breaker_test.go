package resilience

import (
	"errors"
	"testing"
	"time"
)

var errDown = errors.New("nats: no responders")

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestBreaker(threshold int) (*Breaker, *fakeClock) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	b := NewBreaker("test", threshold, time.Second)
	b.now = clk.now
	return b, clk
}

func fail() error { return errDown }
func ok() error   { return nil }

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b, _ := newTestBreaker(3)
	for range 3 {
		if err := b.Do(fail); !errors.Is(err, errDown) {
			t.Fatalf("expected call error, got %v", err)
		}
	}
	if !b.IsOpen() {
		t.Fatal("expected open breaker")
	}
	called := false
	if err := b.Do(func() error { called = true; return nil }); !errors.Is(err, ErrOpen) {
		t.Fatalf("expected ErrOpen, got %v", err)
	}
	if called {
		t.Fatal("fn ran while open")
	}
}

func TestBreakerSuccessResetsCount(t *testing.T) {
	b, _ := newTestBreaker(3)
	_ = b.Do(fail)
	_ = b.Do(fail)
	_ = b.Do(ok)
	_ = b.Do(fail)
	_ = b.Do(fail)
	if b.IsOpen() {
		t.Fatal("breaker opened without consecutive failures")
	}
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	tests := []struct {
		name     string
		probe    func() error
		wantOpen bool
	}{
		{"probe succeeds", ok, false},
		{"probe fails", fail, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, clk := newTestBreaker(1)
			_ = b.Do(fail)
			clk.t = clk.t.Add(2 * time.Second)

			_ = b.Do(tt.probe)
			if b.IsOpen() != tt.wantOpen {
				t.Fatalf("open = %v, want %v", b.IsOpen(), tt.wantOpen)
			}
		})
	}
}

func TestBreakerSingleProbe(t *testing.T) {
	b, clk := newTestBreaker(1)
	_ = b.Do(fail)
	clk.t = clk.t.Add(2 * time.Second)

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = b.Do(func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	if err := b.Do(ok); !errors.Is(err, ErrOpen) {
		t.Fatalf("second call during probe: expected ErrOpen, got %v", err)
	}
	close(release)
}
