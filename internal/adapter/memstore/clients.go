package memstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Strob0t/DealerForge/internal/domain"
	"github.com/Strob0t/DealerForge/internal/domain/client"
	"github.com/Strob0t/DealerForge/internal/domain/option"
)

// --- Clients ---

func (s *Store) ListClients(ctx context.Context, f client.ListFilter) ([]client.Client, error) {
	tid, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))
	var out []client.Client
	err = s.read(func(st *state) error {
		for _, c := range st.clients {
			if c.TenantID != tid {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(c.Name), search) && !strings.Contains(c.Document, search) {
				continue
			}
			out = append(out, c)
		}
		return nil
	})
	sortNewestFirst(out, func(c *client.Client) time.Time { return c.CreatedAt }, func(c *client.Client) string { return c.ID })
	return out, err
}

func (s *Store) GetClient(ctx context.Context, id string) (*client.Client, error) {
	tid, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	var out client.Client
	err = s.read(func(st *state) error {
		c, ok := st.clients[id]
		if !ok || c.TenantID != tid {
			return fmt.Errorf("get client %s: %w", id, domain.ErrNotFound)
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) CreateClient(ctx context.Context, in client.Input) (*client.Client, error) {
	tid, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	var out client.Client
	err = s.tx(func(tx *txn) error {
		c := clientFromInput(in)
		c.ID = newID()
		c.TenantID = tid
		c.CreatedAt = tx.now
		c.UpdatedAt = tx.now
		tx.st.clients[c.ID] = c
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) UpdateClient(ctx context.Context, id string, in client.Input) (*client.Client, error) {
	tid, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	var out client.Client
	err = s.tx(func(tx *txn) error {
		old, ok := tx.st.clients[id]
		if !ok || old.TenantID != tid {
			return fmt.Errorf("update client %s: %w", id, domain.ErrNotFound)
		}
		c := clientFromInput(in)
		c.ID = id
		c.TenantID = tid
		c.CreatedAt = old.CreatedAt
		c.UpdatedAt = tx.now
		tx.st.clients[id] = c
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) DeleteClient(ctx context.Context, id string) error {
	tid, err := scope(ctx)
	if err != nil {
		return err
	}
	return s.tx(func(tx *txn) error {
		c, ok := tx.st.clients[id]
		if !ok || c.TenantID != tid {
			return fmt.Errorf("delete client %s: %w", id, domain.ErrNotFound)
		}
		for _, sl := range tx.st.sales {
			if sl.ClientID == id {
				return domain.Conflict("client has sales and cannot be deleted")
			}
		}
		delete(tx.st.clients, id)
		return nil
	})
}

func clientFromInput(in client.Input) client.Client {
	return client.Client{
		Name:       in.Name,
		Kind:       in.Kind,
		Document:   in.Document,
		RG:         in.RG,
		BirthDate:  in.BirthDate,
		Email:      in.Email,
		Phone:      in.Phone,
		PostalCode: in.PostalCode,
		Street:     in.Street,
		Number:     in.Number,
		District:   in.District,
		City:       in.City,
		State:      in.State,
	}
}

// --- Options ---

func (s *Store) ListOptions(ctx context.Context) ([]option.Option, error) {
	tid, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	var out []option.Option
	err = s.read(func(st *state) error {
		for _, o := range st.options {
			if o.TenantID == tid {
				out = append(out, o)
			}
		}
		return nil
	})
	sortByName(out)
	return out, err
}

func (s *Store) CreateOption(ctx context.Context, in option.Input) (*option.Option, error) {
	tid, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	var out option.Option
	err = s.tx(func(tx *txn) error {
		if tx.st.optionNameTaken(tid, in.Name, "") {
			return domain.Conflict("option %q already exists", in.Name)
		}
		o := option.Option{ID: newID(), TenantID: tid, Name: in.Name, CreatedAt: tx.now}
		tx.st.options[o.ID] = o
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) RenameOption(ctx context.Context, id string, in option.Input) (*option.Option, error) {
	tid, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	var out option.Option
	err = s.tx(func(tx *txn) error {
		o, ok := tx.st.options[id]
		if !ok || o.TenantID != tid {
			return fmt.Errorf("rename option %s: %w", id, domain.ErrNotFound)
		}
		if tx.st.optionNameTaken(tid, in.Name, id) {
			return domain.Conflict("option %q already exists", in.Name)
		}
		o.Name = in.Name
		tx.st.options[id] = o
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) DeleteOption(ctx context.Context, id string) error {
	tid, err := scope(ctx)
	if err != nil {
		return err
	}
	return s.tx(func(tx *txn) error {
		o, ok := tx.st.options[id]
		if !ok || o.TenantID != tid {
			return fmt.Errorf("delete option %s: %w", id, domain.ErrNotFound)
		}
		for vid, ids := range tx.st.links {
			tx.st.links[vid] = slicesDelete(ids, id)
		}
		if err := tx.step(StepOptionDelete); err != nil {
			return err
		}
		delete(tx.st.options, id)
		return nil
	})
}

func (st *state) optionNameTaken(tenantID, name, exceptID string) bool {
	for _, o := range st.options {
		if o.TenantID == tenantID && o.ID != exceptID && strings.EqualFold(o.Name, name) {
			return true
		}
	}
	return false
}
