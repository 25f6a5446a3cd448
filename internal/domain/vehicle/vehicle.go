// Package vehicle defines stock vehicles and their status lifecycle.
package vehicle

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Strob0t/DealerForge/internal/domain"
)

// Status is the stock state of a vehicle.
type Status string

const (
	StatusInStock  Status = "in_stock"
	StatusReserved Status = "reserved"
	StatusSold     Status = "sold"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusInStock, StatusReserved, StatusSold:
		return true
	}
	return false
}

const (
	minYear      = 1900
	maxYearAhead = 1
)

// Vehicle is one unit in a dealership's stock.
type Vehicle struct {
	ID               string    `json:"id"`
	TenantID         string    `json:"tenant_id"`
	Model            string    `json:"model"`
	Plate            string    `json:"plate"`
	Year             int       `json:"year"`
	Color            string    `json:"color"`
	Fuel             string    `json:"fuel"`
	SalePrice        float64   `json:"sale_price"`
	CostPrice        float64   `json:"cost_price"`
	EntryDate        string    `json:"entry_date"`
	Operation        string    `json:"operation"`
	PreviousOwner    string    `json:"previous_owner"`
	Seller           string    `json:"seller"`
	Renavam          string    `json:"renavam"`
	Chassis          string    `json:"chassis"`
	Notes            string    `json:"notes"`
	Status           Status    `json:"status"`
	TradeInVehicleID string    `json:"trade_in_vehicle_id,omitempty"`
	OptionIDs        []string  `json:"option_ids"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Input carries the writable vehicle fields. On update the option list
// replaces the existing attachments entirely.
type Input struct {
	Model            string   `json:"model"`
	Plate            string   `json:"plate"`
	Year             int      `json:"year"`
	Color            string   `json:"color"`
	Fuel             string   `json:"fuel"`
	SalePrice        float64  `json:"sale_price"`
	CostPrice        float64  `json:"cost_price"`
	EntryDate        string   `json:"entry_date"`
	Operation        string   `json:"operation"`
	PreviousOwner    string   `json:"previous_owner"`
	Seller           string   `json:"seller"`
	Renavam          string   `json:"renavam"`
	Chassis          string   `json:"chassis"`
	Notes            string   `json:"notes"`
	Status           Status   `json:"status,omitempty"`
	TradeInVehicleID string   `json:"trade_in_vehicle_id,omitempty"`
	OptionIDs        []string `json:"option_ids"`
}

// Validate normalizes the input and checks field rules. Whether a status
// change is allowed depends on the stored vehicle and is checked by the store.
func (in *Input) Validate() error {
	in.Model = strings.TrimSpace(in.Model)
	in.Plate = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(in.Plate), "-", ""))
	in.Chassis = strings.ToUpper(strings.TrimSpace(in.Chassis))

	if in.Model == "" {
		return errors.New("model is required")
	}
	if in.Year != 0 && (in.Year < minYear || in.Year > time.Now().Year()+maxYearAhead) {
		return fmt.Errorf("year %d is out of range", in.Year)
	}
	if in.SalePrice < 0 || in.CostPrice < 0 {
		return errors.New("prices must not be negative")
	}
	if in.Status != "" && !in.Status.Valid() {
		return errors.New("status must be in_stock, reserved or sold")
	}
	if err := domain.ValidateDate("entry_date", in.EntryDate); err != nil {
		return err
	}
	in.OptionIDs = dedupe(in.OptionIDs)
	return nil
}

// ListFilter narrows a vehicle listing. Zero values mean "any".
type ListFilter struct {
	Status  Status
	Search  string // matches model or plate
	YearMin int
	YearMax int
}

// Summary is the financial picture of one vehicle.
type Summary struct {
	VehicleID string  `json:"vehicle_id"`
	CostPrice float64 `json:"cost_price"`
	SalePrice float64 `json:"sale_price"`
	Expenses  float64 `json:"expenses"`
	Revenue   float64 `json:"revenue"`
	Margin    float64 `json:"margin"`
}

// NewSummary computes the margin: sale price plus extra revenue, minus the
// acquisition cost and the expenses booked against the vehicle.
func NewSummary(v *Vehicle, expenses, revenue float64) Summary {
	return Summary{
		VehicleID: v.ID,
		CostPrice: v.CostPrice,
		SalePrice: v.SalePrice,
		Expenses:  expenses,
		Revenue:   revenue,
		Margin:    v.SalePrice + revenue - v.CostPrice - expenses,
	}
}

// dedupe trims, lower-cases and de-duplicates uuids, keeping first-seen order.
func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.ToLower(strings.TrimSpace(id))
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// CheckTransition validates a status change requested by a vehicle update.
// An empty requested status keeps the current one. Only sales may move a
// vehicle into or out of sold.
func CheckTransition(current, requested Status) (Status, error) {
	if requested == "" || requested == current {
		return current, nil
	}
	if requested == StatusSold {
		return "", errors.New("status sold is set by recording a sale")
	}
	if current == StatusSold {
		return "", errors.New("vehicle is sold; cancel the sale to return it to stock")
	}
	return requested, nil
}
