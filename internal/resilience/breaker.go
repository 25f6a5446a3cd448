package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrOpen is returned while the breaker rejects calls.
var ErrOpen = errors.New("circuit breaker is open")

type state int

const (
	closed state = iota
	open
	halfOpen
)

func (s state) String() string {
	switch s {
	case open:
		return "open"
	case halfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// Breaker stops calling a failing dependency after threshold consecutive
// failures. After cooldown one probe call is let through; its outcome closes
// or re-opens the breaker.
type Breaker struct {
	name      string
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	mu       sync.Mutex
	state    state
	failures int
	openedAt time.Time
	probing  bool
}

// NewBreaker creates a closed breaker. name appears in transition logs.
func NewBreaker(name string, threshold int, cooldown time.Duration) *Breaker {
	if threshold < 1 {
		threshold = 1
	}
	return &Breaker{name: name, threshold: threshold, cooldown: cooldown, now: time.Now}
}

// Do runs fn unless the breaker is open, in which case it returns ErrOpen
// without calling fn.
func (b *Breaker) Do(fn func() error) error {
	if !b.acquire() {
		return ErrOpen
	}
	err := fn()
	b.record(err)
	return err
}

// IsOpen reports whether calls are currently rejected.
func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == open && b.now().Sub(b.openedAt) < b.cooldown
}

func (b *Breaker) acquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case open:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return false
		}
		b.transition(halfOpen)
		b.probing = true
		return true
	case halfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	default:
		return true
	}
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false
	if err == nil {
		b.failures = 0
		if b.state != closed {
			b.transition(closed)
		}
		return
	}
	b.failures++
	if b.state == halfOpen || b.failures >= b.threshold {
		b.openedAt = b.now()
		if b.state != open {
			b.transition(open)
		}
	}
}

// transition must be called with b.mu held.
func (b *Breaker) transition(to state) {
	slog.Warn("circuit breaker state change", "breaker", b.name, "from", b.state.String(), "to", to.String(), "failures", b.failures)
	b.state = to
}
