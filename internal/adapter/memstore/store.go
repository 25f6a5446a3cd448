// Package memstore implements the database port in process memory.
//
// Each write transaction runs against a private copy of the current state
// and replaces the state only when every step succeeded, so a failure at any
// step leaves nothing behind. Transactions are serialized by one mutex.
// Steps can be made to fail on demand with FailAt, which is how tests
// exercise rollback paths.
package memstore

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/DealerForge/internal/domain"
	"github.com/Strob0t/DealerForge/internal/domain/auth"
	"github.com/Strob0t/DealerForge/internal/domain/client"
	"github.com/Strob0t/DealerForge/internal/domain/document"
	"github.com/Strob0t/DealerForge/internal/domain/entry"
	"github.com/Strob0t/DealerForge/internal/domain/option"
	"github.com/Strob0t/DealerForge/internal/domain/sale"
	"github.com/Strob0t/DealerForge/internal/domain/settings"
	"github.com/Strob0t/DealerForge/internal/domain/tenant"
	"github.com/Strob0t/DealerForge/internal/domain/user"
	"github.com/Strob0t/DealerForge/internal/domain/vehicle"
	"github.com/Strob0t/DealerForge/internal/port/database"
)

// Step names accepted by FailAt.
const (
	StepTenantInsert       = "tenant.insert"
	StepTenantInsertAdmin  = "tenant.insert_admin"
	StepTenantUpdate       = "tenant.update"
	StepTenantUpdateAdmin  = "tenant.update_admin"
	StepVehicleInsert      = "vehicle.insert"
	StepVehicleUpdate      = "vehicle.update"
	StepVehicleLinkOptions = "vehicle.link_options"
	StepVehicleUnlinkAll   = "vehicle.unlink_options"
	StepVehicleDependents  = "vehicle.delete_dependents"
	StepVehicleDelete      = "vehicle.delete"
	StepSaleInsert         = "sale.insert"
	StepSaleMarkSold       = "sale.mark_sold"
	StepSaleDelete         = "sale.delete"
	StepSaleRestoreStock   = "sale.restore_stock"
	StepOptionDelete       = "option.delete"
)

var _ database.Store = (*Store)(nil)

// Store is an in-memory database.Store.
type Store struct {
	mu     sync.Mutex
	state  *state
	faults map[string]error
}

// New returns an empty Store.
func New() *Store {
	return &Store{state: newState(), faults: make(map[string]error)}
}

// FailAt makes the named step return err in every following transaction
// until ClearFaults is called.
func (s *Store) FailAt(step string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[step] = err
}

// ClearFaults removes all injected failures.
func (s *Store) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.faults)
}

// tx runs fn against a copy of the state and commits it on success.
func (s *Store) tx(fn func(t *txn) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &txn{st: s.state.clone(), faults: s.faults, now: time.Now().UTC()}
	if err := fn(t); err != nil {
		return err
	}
	s.state = t.st
	return nil
}

// read runs fn against the committed state.
func (s *Store) read(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

type txn struct {
	st     *state
	faults map[string]error
	now    time.Time
}

func (t *txn) step(name string) error {
	if err, ok := t.faults[name]; ok {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

type state struct {
	tenants   map[string]tenant.Tenant
	users     map[string]user.User
	clients   map[string]client.Client
	options   map[string]option.Option
	vehicles  map[string]vehicle.Vehicle
	links     map[string][]string // vehicle id -> option ids
	sales     map[string]sale.Sale
	entries   map[string]entry.Entry
	documents map[string]document.Document
	settings  map[string]settings.Dealership // keyed by tenant id
}

func newState() *state {
	return &state{
		tenants:   map[string]tenant.Tenant{},
		users:     map[string]user.User{},
		clients:   map[string]client.Client{},
		options:   map[string]option.Option{},
		vehicles:  map[string]vehicle.Vehicle{},
		links:     map[string][]string{},
		sales:     map[string]sale.Sale{},
		entries:   map[string]entry.Entry{},
		documents: map[string]document.Document{},
		settings:  map[string]settings.Dealership{},
	}
}

func (st *state) clone() *state {
	c := &state{
		tenants:   maps.Clone(st.tenants),
		users:     maps.Clone(st.users),
		clients:   maps.Clone(st.clients),
		options:   maps.Clone(st.options),
		vehicles:  maps.Clone(st.vehicles),
		links:     make(map[string][]string, len(st.links)),
		sales:     maps.Clone(st.sales),
		entries:   maps.Clone(st.entries),
		documents: maps.Clone(st.documents),
		settings:  maps.Clone(st.settings),
	}
	for k, v := range st.links {
		c.links[k] = slices.Clone(v)
	}
	return c
}

// scope returns the caller's tenant id or fails closed.
func scope(ctx context.Context) (string, error) {
	tid := auth.TenantID(ctx)
	if tid == "" {
		return "", fmt.Errorf("tenant scope missing: %w", domain.ErrForbidden)
	}
	return tid, nil
}

func newID() string {
	return uuid.NewString()
}

// sortNewestFirst orders by creation time descending, then id.
func sortNewestFirst[T any](items []T, created func(*T) time.Time, id func(*T) string) {
	slices.SortFunc(items, func(a, b T) int {
		if c := created(&b).Compare(created(&a)); c != 0 {
			return c
		}
		return cmp.Compare(id(&a), id(&b))
	})
}

func sortByName(items []option.Option) {
	slices.SortFunc(items, func(a, b option.Option) int {
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
}

func slicesDelete(ids []string, id string) []string {
	return slices.DeleteFunc(ids, func(x string) bool { return x == id })
}
