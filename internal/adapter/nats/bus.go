package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Strob0t/DealerForge/internal/domain/event"
	"github.com/Strob0t/DealerForge/internal/domain/tenant"
	"github.com/Strob0t/DealerForge/internal/port/broadcast"
	"github.com/Strob0t/DealerForge/internal/port/messagequeue"
	"github.com/Strob0t/DealerForge/internal/resilience"
)

// eventFilter matches events.<tenant>.<entity>.<action> but not the
// dead-letter subjects below it.
const eventFilter = messagequeue.SubjectEvents + ".*.*.*"

// Publishes stop for publishCooldown after publishFailures consecutive
// failures and fall back to this instance.
const (
	publishFailures = 5
	publishCooldown = 10 * time.Second
)

var _ broadcast.Broadcaster = (*Bus)(nil)

// Bus fans domain events and tenant status changes out to every instance
// sharing the queue. Events received from the queue are handed to the local
// broadcaster; status changes are handed to the status handler.
type Bus struct {
	queue   messagequeue.Queue
	local   broadcast.Broadcaster
	breaker *resilience.Breaker

	mu       sync.RWMutex
	onStatus func(context.Context, tenant.StatusChange)
}

// NewBus creates a bus that relays received events to local.
func NewBus(queue messagequeue.Queue, local broadcast.Broadcaster) *Bus {
	return &Bus{
		queue:   queue,
		local:   local,
		breaker: resilience.NewBreaker("nats-publish", publishFailures, publishCooldown),
	}
}

func (b *Bus) publish(ctx context.Context, subject string, data []byte) error {
	return b.breaker.Do(func() error {
		return b.queue.Publish(ctx, subject, data)
	})
}

// Broadcast publishes ev for every instance. When the queue is unavailable
// the event is still delivered to this instance's connections.
func (b *Bus) Broadcast(ctx context.Context, ev event.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.ErrorContext(ctx, "marshal event", "type", ev.Type, "error", err)
		return
	}
	if err := b.publish(ctx, messagequeue.EventSubject(ev.TenantID, string(ev.Type)), data); err != nil {
		slog.WarnContext(ctx, "event publish failed, delivering locally", "type", ev.Type, "tenant_id", ev.TenantID, "error", err)
		b.local.Broadcast(ctx, ev)
	}
}

// PublishStatus announces a tenant status change to every instance. It has
// the shape of a tenant status listener. When the queue is unavailable the
// change is still applied on this instance.
func (b *Bus) PublishStatus(ctx context.Context, change tenant.StatusChange) {
	data, err := json.Marshal(change)
	if err != nil {
		slog.ErrorContext(ctx, "marshal status change", "tenant_id", change.TenantID, "error", err)
		return
	}
	if err := b.publish(ctx, messagequeue.SubjectTenantStatus, data); err != nil {
		slog.WarnContext(ctx, "status change publish failed, applying locally", "tenant_id", change.TenantID, "error", err)
		b.mu.RLock()
		onStatus := b.onStatus
		b.mu.RUnlock()
		if onStatus != nil {
			onStatus(ctx, change)
		}
	}
}

// Start subscribes to events and status changes. onStatus runs for every
// status change, including the ones this instance published. The returned
// function cancels both subscriptions.
func (b *Bus) Start(ctx context.Context, onStatus func(context.Context, tenant.StatusChange)) (func(), error) {
	b.mu.Lock()
	b.onStatus = onStatus
	b.mu.Unlock()

	stopEvents, err := b.queue.Subscribe(ctx, eventFilter, func(ctx context.Context, _ string, data []byte) error {
		var ev event.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			return fmt.Errorf("decode event: %w", err)
		}
		b.local.Broadcast(ctx, ev)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe events: %w", err)
	}

	stopStatus, err := b.queue.Subscribe(ctx, messagequeue.SubjectTenantStatus, func(ctx context.Context, _ string, data []byte) error {
		var change tenant.StatusChange
		if err := json.Unmarshal(data, &change); err != nil {
			return fmt.Errorf("decode status change: %w", err)
		}
		slog.InfoContext(ctx, "tenant status changed", "tenant_id", change.TenantID, "status", change.Status)
		onStatus(ctx, change)
		return nil
	})
	if err != nil {
		stopEvents()
		return nil, fmt.Errorf("subscribe tenant status: %w", err)
	}

	return func() {
		stopEvents()
		stopStatus()
	}, nil
}
