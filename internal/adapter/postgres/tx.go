package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	cfotel "github.com/Strob0t/DealerForge/internal/adapter/otel"
	"github.com/Strob0t/DealerForge/internal/domain"
	"github.com/Strob0t/DealerForge/internal/domain/auth"
	"github.com/Strob0t/DealerForge/internal/port/database"
)

// Operation names passed to runTx.
const (
	opTenantProvision = "tenant.provision"
	opTenantStatus    = "tenant.status"
	opTenantUpdate    = "tenant.update"
	opClientDelete    = "client.delete"
	opVehicleCreate   = "vehicle.create"
	opVehicleUpdate   = "vehicle.update"
	opVehicleDelete   = "vehicle.delete"
	opSaleCreate      = "sale.create"
	opSaleCancel      = "sale.cancel"
)

var _ database.Store = (*Store)(nil)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool    *pgxpool.Pool
	metrics *cfotel.Metrics
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// SetMetrics enables transaction metrics.
func (s *Store) SetMetrics(m *cfotel.Metrics) { s.metrics = m }

// runTx runs fn in one transaction on one pooled connection. Any error from
// fn, or a panic, rolls the transaction back; nothing fn wrote survives.
// Every run is logged, traced and counted under op.
func (s *Store) runTx(ctx context.Context, op string, fn func(pgx.Tx) error) (err error) {
	tenantID := auth.TenantID(ctx)
	ctx, span := cfotel.StartTxSpan(ctx, op, tenantID)
	start := time.Now()

	defer func() {
		d := time.Since(start)
		outcome := txOutcome(err)
		s.metrics.RecordTx(ctx, op, outcome, d)
		cfotel.EndSpan(span, err)

		switch outcome {
		case "ok":
			slog.DebugContext(ctx, "tx committed", "op", op, "tenant_id", tenantID, "duration", d)
		case "error":
			slog.ErrorContext(ctx, "tx failed", "op", op, "tenant_id", tenantID, "duration", d, "error", err)
		default:
			slog.InfoContext(ctx, "tx rejected", "op", op, "tenant_id", tenantID, "outcome", outcome, "error", err)
		}
	}()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin %s: %w", op, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit %s: %w", op, err)
	}
	return nil
}

func txOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}
