package memstore

import (
	"context"
	"fmt"
	"time"

	"github.com/Strob0t/DealerForge/internal/domain"
	"github.com/Strob0t/DealerForge/internal/domain/document"
	"github.com/Strob0t/DealerForge/internal/domain/entry"
	"github.com/Strob0t/DealerForge/internal/domain/settings"
)

// --- Entries ---

func (s *Store) ListEntries(ctx context.Context, f entry.ListFilter) ([]entry.Entry, error) {
	tid, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	var out []entry.Entry
	err = s.read(func(st *state) error {
		for _, e := range st.entries {
			switch {
			case e.TenantID != tid:
			case f.VehicleID != "" && e.VehicleID != f.VehicleID:
			case f.Kind != "" && e.Kind != f.Kind:
			case f.From != "" && e.Date < f.From:
			case f.To != "" && e.Date > f.To:
			default:
				out = append(out, e)
			}
		}
		return nil
	})
	sortNewestFirst(out, func(e *entry.Entry) time.Time { return e.CreatedAt }, func(e *entry.Entry) string { return e.ID })
	return out, err
}

func (s *Store) GetEntry(ctx context.Context, id string) (*entry.Entry, error) {
	tid, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	var out entry.Entry
	err = s.read(func(st *state) error {
		e, ok := st.entries[id]
		if !ok || e.TenantID != tid {
			return fmt.Errorf("get entry %s: %w", id, domain.ErrNotFound)
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) CreateEntry(ctx context.Context, in entry.Input) (*entry.Entry, error) {
	tid, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	var out entry.Entry
	err = s.tx(func(tx *txn) error {
		if err := tx.st.checkEntryVehicle(tid, in.VehicleID); err != nil {
			return err
		}
		e := entry.Entry{
			ID:          newID(),
			TenantID:    tid,
			VehicleID:   in.VehicleID,
			Description: in.Description,
			Amount:      in.Amount,
			Kind:        in.Kind,
			Date:        in.Date,
			CreatedAt:   tx.now,
		}
		tx.st.entries[e.ID] = e
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) UpdateEntry(ctx context.Context, id string, in entry.Input) (*entry.Entry, error) {
	tid, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	var out entry.Entry
	err = s.tx(func(tx *txn) error {
		e, ok := tx.st.entries[id]
		if !ok || e.TenantID != tid {
			return fmt.Errorf("update entry %s: %w", id, domain.ErrNotFound)
		}
		if err := tx.st.checkEntryVehicle(tid, in.VehicleID); err != nil {
			return err
		}
		e.VehicleID = in.VehicleID
		e.Description = in.Description
		e.Amount = in.Amount
		e.Kind = in.Kind
		e.Date = in.Date
		tx.st.entries[id] = e
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	tid, err := scope(ctx)
	if err != nil {
		return err
	}
	return s.tx(func(tx *txn) error {
		e, ok := tx.st.entries[id]
		if !ok || e.TenantID != tid {
			return fmt.Errorf("delete entry %s: %w", id, domain.ErrNotFound)
		}
		delete(tx.st.entries, id)
		return nil
	})
}

func (st *state) checkEntryVehicle(tenantID, vehicleID string) error {
	if vehicleID == "" {
		return nil
	}
	if v, ok := st.vehicles[vehicleID]; !ok || v.TenantID != tenantID {
		return domain.Invalid("vehicle_id does not reference a vehicle of this dealership")
	}
	return nil
}

// --- Documents ---

func (s *Store) ListDocuments(ctx context.Context, vehicleID string) ([]document.Document, error) {
	tid, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	var out []document.Document
	err = s.read(func(st *state) error {
		if v, ok := st.vehicles[vehicleID]; !ok || v.TenantID != tid {
			return fmt.Errorf("vehicle %s: %w", vehicleID, domain.ErrNotFound)
		}
		for _, d := range st.documents {
			if d.TenantID == tid && d.VehicleID == vehicleID {
				d.Payload = ""
				out = append(out, d)
			}
		}
		return nil
	})
	sortNewestFirst(out, func(d *document.Document) time.Time { return d.CreatedAt }, func(d *document.Document) string { return d.ID })
	return out, err
}

func (s *Store) GetDocument(ctx context.Context, id string) (*document.Document, error) {
	tid, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	var out document.Document
	err = s.read(func(st *state) error {
		d, ok := st.documents[id]
		if !ok || d.TenantID != tid {
			return fmt.Errorf("get document %s: %w", id, domain.ErrNotFound)
		}
		out = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) CreateDocument(ctx context.Context, req document.CreateRequest) (*document.Document, error) {
	tid, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	var out document.Document
	err = s.tx(func(tx *txn) error {
		if v, ok := tx.st.vehicles[req.VehicleID]; !ok || v.TenantID != tid {
			return fmt.Errorf("vehicle %s: %w", req.VehicleID, domain.ErrNotFound)
		}
		d := document.Document{
			ID:        newID(),
			TenantID:  tid,
			VehicleID: req.VehicleID,
			Title:     req.Title,
			Kind:      req.Kind,
			Payload:   req.Payload,
			CreatedAt: tx.now,
		}
		tx.st.documents[d.ID] = d
		out = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	tid, err := scope(ctx)
	if err != nil {
		return err
	}
	return s.tx(func(tx *txn) error {
		d, ok := tx.st.documents[id]
		if !ok || d.TenantID != tid {
			return fmt.Errorf("delete document %s: %w", id, domain.ErrNotFound)
		}
		delete(tx.st.documents, id)
		return nil
	})
}

// --- Settings ---

func (s *Store) GetSettings(ctx context.Context) (*settings.Dealership, error) {
	tid, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	out := settings.Dealership{TenantID: tid}
	err = s.read(func(st *state) error {
		if d, ok := st.settings[tid]; ok {
			out = d
		}
		return nil
	})
	return &out, err
}

func (s *Store) UpsertSettings(ctx context.Context, req settings.UpdateRequest) (*settings.Dealership, error) {
	tid, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	var out settings.Dealership
	err = s.tx(func(tx *txn) error {
		d := settings.Dealership{
			TenantID:    tid,
			DisplayName: req.DisplayName,
			TaxID:       req.TaxID,
			Phone:       req.Phone,
			Email:       req.Email,
			Address:     req.Address,
			City:        req.City,
			State:       req.State,
			UpdatedAt:   tx.now,
		}
		tx.st.settings[tid] = d
		out = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
