package nats

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/Strob0t/DealerForge/internal/domain/event"
	"github.com/Strob0t/DealerForge/internal/domain/tenant"
	"github.com/Strob0t/DealerForge/internal/logger"
	"github.com/Strob0t/DealerForge/internal/port/messagequeue"
)

// testConnect connects to NATS or skips the test if NATS_URL is not set.
func testConnect(t *testing.T) *Queue {
	t.Helper()

	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("requires NATS_URL")
	}

	q, err := Connect(context.Background(), url, "DEALERFORGE_TEST")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() {
		if err := q.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return q
}

// uniqueTenant returns a tenant id derived from the test name so parallel
// runs do not see each other's messages.
func uniqueTenant(t *testing.T) string {
	t.Helper()
	return "t-" + strings.NewReplacer("/", "-", ".", "-", " ", "-").Replace(t.Name())
}

// rawConsumer subscribes to subject without validation, bypassing
// Queue.Subscribe.
func rawConsumer(t *testing.T, q *Queue, subject string) <-chan []byte {
	t.Helper()
	ctx := context.Background()
	consumer, err := q.js.CreateOrUpdateConsumer(ctx, q.stream, jetstream.ConsumerConfig{
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
	})
	if err != nil {
		t.Fatalf("create consumer: %v", err)
	}
	out := make(chan []byte, 8)
	sub, err := consumer.Consume(func(msg jetstream.Msg) {
		out <- msg.Data()
		_ = msg.Ack()
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	t.Cleanup(sub.Stop)
	return out
}

func TestQueue_PublishSubscribe(t *testing.T) {
	q := testConnect(t)
	tid := uniqueTenant(t)
	subject := messagequeue.EventSubject(tid, string(event.TypeVehicleCreated))
	want := event.New(event.TypeVehicleCreated, tid, "v1", map[string]string{"model": "Civic"})
	data, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var (
		mu       sync.Mutex
		received *event.Event
		done     = make(chan struct{})
		once     sync.Once
	)

	stop, err := q.Subscribe(context.Background(), subject, func(_ context.Context, _ string, d []byte) error {
		var got event.Event
		if err := json.Unmarshal(d, &got); err != nil {
			return err
		}
		mu.Lock()
		received = &got
		mu.Unlock()
		once.Do(func() { close(done) })
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer stop()

	if err := q.Publish(context.Background(), subject, data); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}

	mu.Lock()
	defer mu.Unlock()
	if received == nil || received.EntityID != "v1" {
		t.Errorf("received %+v, want entity v1", received)
	}
}

func TestQueue_RequestIDPropagation(t *testing.T) {
	q := testConnect(t)
	tid := uniqueTenant(t)
	subject := messagequeue.EventSubject(tid, string(event.TypeSaleCreated))

	const wantReqID = "req-abc-123"
	data, _ := json.Marshal(event.New(event.TypeSaleCreated, tid, "s1", nil))

	got := make(chan string, 1)
	stop, err := q.Subscribe(context.Background(), subject, func(ctx context.Context, _ string, _ []byte) error {
		select {
		case got <- logger.RequestID(ctx):
		default:
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer stop()

	ctx := logger.WithRequestID(context.Background(), wantReqID)
	if err := q.Publish(ctx, subject, data); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case reqID := <-got:
		if reqID != wantReqID {
			t.Errorf("request ID = %q, want %q", reqID, wantReqID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestQueue_DLQ_CrossTenantEvent(t *testing.T) {
	q := testConnect(t)
	ctx := context.Background()
	tid := uniqueTenant(t)
	subject := messagequeue.EventSubject(tid, string(event.TypeVehicleDeleted))

	called := make(chan struct{}, 1)
	stop, err := q.Subscribe(ctx, subject, func(context.Context, string, []byte) error {
		called <- struct{}{}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer stop()
	dlq := rawConsumer(t, q, subject+dlqSuffix)

	// An event for another tenant published on this tenant's subject.
	data, _ := json.Marshal(event.New(event.TypeVehicleDeleted, "someone-else", "v1", nil))
	if err := q.Publish(ctx, subject, data); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case got := <-dlq:
		if string(got) != string(data) {
			t.Errorf("DLQ data = %s, want %s", got, data)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for DLQ message")
	}
	select {
	case <-called:
		t.Error("handler must not see an event for another tenant")
	default:
	}
}

func TestQueue_DLQ_RetryExhaustion(t *testing.T) {
	q := testConnect(t)
	ctx := context.Background()
	tid := uniqueTenant(t)
	subject := messagequeue.EventSubject(tid, string(event.TypeSaleCancelled))
	dlq := rawConsumer(t, q, subject+dlqSuffix)

	stop, err := q.Subscribe(ctx, subject, func(context.Context, string, []byte) error {
		return errAlwaysFail
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer stop()

	// Publish with Retry-Count already at the limit so the first failure
	// dead-letters the message.
	data, _ := json.Marshal(event.New(event.TypeSaleCancelled, tid, "s1", nil))
	msg := &nats.Msg{Subject: subject, Data: data, Header: nats.Header{}}
	msg.Header.Set(headerRetryCount, "2")
	if _, err := q.js.PublishMsg(ctx, msg); err != nil {
		t.Fatalf("PublishMsg: %v", err)
	}

	select {
	case got := <-dlq:
		if string(got) != string(data) {
			t.Errorf("DLQ data = %s, want %s", got, data)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for DLQ message after retry exhaustion")
	}
}

func TestBus_RelaysEventsAndStatus(t *testing.T) {
	q := testConnect(t)
	ctx := context.Background()
	tid := uniqueTenant(t)

	local := &recordingBroadcaster{got: make(chan event.Event, 4)}
	bus := NewBus(q, local)
	statuses := make(chan tenant.StatusChange, 4)
	stop, err := bus.Start(ctx, func(_ context.Context, c tenant.StatusChange) {
		if c.TenantID == tid {
			statuses <- c
		}
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer stop()

	bus.Broadcast(ctx, event.New(event.TypeVehicleUpdated, tid, "v9", nil))
	bus.PublishStatus(ctx, tenant.StatusChange{TenantID: tid, Status: tenant.StatusBlocked})

	events, changes := local.got, statuses
	deadline := time.After(10 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.TenantID != tid {
				continue
			}
			if ev.EntityID != "v9" {
				t.Errorf("relayed entity = %q, want v9", ev.EntityID)
			}
			events = nil
		case c := <-changes:
			if c.Status != tenant.StatusBlocked {
				t.Errorf("status = %q, want blocked", c.Status)
			}
			changes = nil
		case <-deadline:
			t.Fatal("timed out waiting for relayed messages")
		}
		if events == nil && changes == nil {
			return
		}
	}
}

func TestQueue_IsConnected(t *testing.T) {
	q := testConnect(t)

	if !q.IsConnected() {
		t.Error("IsConnected() = false after Connect, want true")
	}
}

func TestRetryCount(t *testing.T) {
	tests := []struct {
		value string
		want  int
	}{
		{"", 0},
		{"2", 2},
		{"-1", 0},
		{"many", 0},
	}
	for _, tt := range tests {
		h := nats.Header{}
		if tt.value != "" {
			h.Set(headerRetryCount, tt.value)
		}
		if got := retryCount(h); got != tt.want {
			t.Errorf("retryCount(%q) = %d, want %d", tt.value, got, tt.want)
		}
	}
}

type recordingBroadcaster struct {
	got chan event.Event
}

func (r *recordingBroadcaster) Broadcast(_ context.Context, ev event.Event) {
	select {
	case r.got <- ev:
	default:
	}
}

// errAlwaysFail is a sentinel error used by handlers that should always fail.
var errAlwaysFail = errSentinel("handler always fails")

type errSentinel string

func (e errSentinel) Error() string { return string(e) }
