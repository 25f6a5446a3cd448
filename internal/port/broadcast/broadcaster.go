// Package broadcast defines the port for pushing domain events to live
// tenant feeds.
package broadcast

import (
	"context"

	"github.com/Strob0t/DealerForge/internal/domain/event"
)

// Broadcaster delivers an event to the feed connections of its tenant.
type Broadcaster interface {
	Broadcast(ctx context.Context, ev event.Event)
}

// Disconnector closes every live connection of a tenant.
type Disconnector interface {
	DisconnectTenant(tenantID string)
}
