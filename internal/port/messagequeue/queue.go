// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Handler processes a message received from the queue.
// The context carries request-scoped values such as the request ID.
type Handler func(ctx context.Context, subject string, data []byte) error

// Queue is the port interface for publishing and subscribing to messages.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages on the given subject
	// (wildcards allowed). The returned function cancels the subscription.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// Drain gracefully drains all subscriptions before closing.
	Drain() error

	// IsConnected reports whether the queue is currently connected.
	IsConnected() bool
}

// Subjects used by DealerForge instances to talk to each other.
const (
	// SubjectTenantStatus carries tenant.StatusChange messages.
	SubjectTenantStatus = "tenants.status"

	// SubjectEvents prefixes domain events: events.{tenant}.{type}.
	SubjectEvents = "events"
)

// EventSubject returns the subject for one tenant's event of the given type.
func EventSubject(tenantID, eventType string) string {
	return SubjectEvents + "." + tenantID + "." + eventType
}
