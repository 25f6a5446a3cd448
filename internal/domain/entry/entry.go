// Package entry defines expense and revenue entries, optionally booked
// against a vehicle.
package entry

import (
	"errors"
	"strings"
	"time"

	"github.com/Strob0t/DealerForge/internal/domain"
)

// Kind separates money going out from money coming in.
type Kind string

const (
	KindExpense Kind = "expense"
	KindRevenue Kind = "revenue"
)

// Entry is one bookkeeping line.
type Entry struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	VehicleID   string    `json:"vehicle_id,omitempty"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Kind        Kind      `json:"kind"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
}

// Input carries the writable entry fields.
type Input struct {
	VehicleID   string  `json:"vehicle_id,omitempty"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Kind        Kind    `json:"kind"`
	Date        string  `json:"date"`
}

// Validate checks the input and defaults the date to today.
func (in *Input) Validate() error {
	in.Description = strings.TrimSpace(in.Description)
	in.VehicleID = strings.TrimSpace(in.VehicleID)
	if in.Kind == "" {
		in.Kind = KindExpense
	}
	if in.Date == "" {
		in.Date = time.Now().UTC().Format(time.DateOnly)
	}

	if in.Description == "" {
		return errors.New("description is required")
	}
	if in.Amount <= 0 {
		return errors.New("amount must be positive")
	}
	if in.Kind != KindExpense && in.Kind != KindRevenue {
		return errors.New("kind must be expense or revenue")
	}
	return domain.ValidateDate("date", in.Date)
}

// ListFilter narrows an entry listing. From and To are inclusive dates.
type ListFilter struct {
	VehicleID string
	Kind      Kind
	From      string
	To        string
}

// Validate checks the date bounds.
func (f *ListFilter) Validate() error {
	if err := domain.ValidateDate("from", f.From); err != nil {
		return err
	}
	return domain.ValidateDate("to", f.To)
}

// Totals sums expense and revenue amounts.
func Totals(entries []Entry) (expenses, revenue float64) {
	for i := range entries {
		switch entries[i].Kind {
		case KindExpense:
			expenses += entries[i].Amount
		case KindRevenue:
			revenue += entries[i].Amount
		}
	}
	return expenses, revenue
}
