// Package service implements the use cases of the dealership backend on top
// of the database port. Tenant-owned operations read the tenant id from the
// verified request context only.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Strob0t/DealerForge/internal/domain"
	"github.com/Strob0t/DealerForge/internal/domain/event"
	"github.com/Strob0t/DealerForge/internal/port/broadcast"
)

// invalid turns a request validation error into a client-facing
// domain.ErrValidation.
func invalid(err error) error {
	if errors.Is(err, domain.ErrValidation) {
		return err
	}
	return domain.Invalid("%s", err.Error())
}

// publisher fans tenant events out to live feeds. The zero value drops them.
type publisher struct {
	bc broadcast.Broadcaster
}

func (p publisher) publish(ctx context.Context, typ event.Type, tenantID, entityID string, payload any) {
	if p.bc == nil || tenantID == "" {
		return
	}
	p.bc.Broadcast(ctx, event.New(typ, tenantID, entityID, payload))
	slog.DebugContext(ctx, "event published", "type", typ, "entity_id", entityID)
}
