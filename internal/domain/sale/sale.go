// Package sale defines vehicle sales. Creating a sale moves the vehicle to
// sold; cancelling it moves the vehicle back to in_stock.
package sale

import (
	"errors"
	"strings"
	"time"

	"github.com/Strob0t/DealerForge/internal/domain"
)

// OperationKind describes how the vehicle changed hands.
type OperationKind string

const (
	OperationSale        OperationKind = "sale"
	OperationConsignment OperationKind = "consignment"
	OperationTradeIn     OperationKind = "trade_in"
)

// Sale records the sale of one vehicle to one client.
type Sale struct {
	ID               string        `json:"id"`
	TenantID         string        `json:"tenant_id"`
	ClientID         string        `json:"client_id"`
	VehicleID        string        `json:"vehicle_id"`
	SaleValue        float64       `json:"sale_value"`
	DownPayment      float64       `json:"down_payment"`
	Financed         float64       `json:"financed"`
	PaymentMethod    string        `json:"payment_method"`
	Seller           string        `json:"seller"`
	OperationKind    OperationKind `json:"operation_kind"`
	TradeInVehicleID string        `json:"trade_in_vehicle_id,omitempty"`
	SoldAt           string        `json:"sold_at"`
	CreatedAt        time.Time     `json:"created_at"`
}

// CreateRequest is the input for recording a sale.
type CreateRequest struct {
	ClientID         string        `json:"client_id"`
	VehicleID        string        `json:"vehicle_id"`
	SaleValue        float64       `json:"sale_value"`
	DownPayment      float64       `json:"down_payment"`
	PaymentMethod    string        `json:"payment_method"`
	Seller           string        `json:"seller"`
	OperationKind    OperationKind `json:"operation_kind"`
	TradeInVehicleID string        `json:"trade_in_vehicle_id,omitempty"`
	SoldAt           string        `json:"sold_at"`
}

// Validate checks the request and fills defaults (operation kind, sale date).
func (r *CreateRequest) Validate() error {
	r.ClientID = strings.TrimSpace(r.ClientID)
	r.VehicleID = strings.TrimSpace(r.VehicleID)
	r.TradeInVehicleID = strings.TrimSpace(r.TradeInVehicleID)
	if r.OperationKind == "" {
		r.OperationKind = OperationSale
	}
	if r.SoldAt == "" {
		r.SoldAt = time.Now().UTC().Format(time.DateOnly)
	}

	if r.VehicleID == "" {
		return errors.New("vehicle_id is required")
	}
	if r.ClientID == "" {
		return errors.New("client_id is required")
	}
	if r.SaleValue <= 0 {
		return errors.New("sale_value must be positive")
	}
	if r.DownPayment < 0 || r.DownPayment > r.SaleValue {
		return errors.New("down_payment must be between 0 and sale_value")
	}
	switch r.OperationKind {
	case OperationSale, OperationConsignment:
	case OperationTradeIn:
		if r.TradeInVehicleID == "" {
			return errors.New("trade_in_vehicle_id is required for a trade-in")
		}
	default:
		return errors.New("operation_kind must be sale, consignment or trade_in")
	}
	if r.TradeInVehicleID != "" && r.TradeInVehicleID == r.VehicleID {
		return errors.New("a vehicle cannot be traded in for itself")
	}
	return domain.ValidateDate("sold_at", r.SoldAt)
}

// Financed is the part of the sale value not covered by the down payment.
func (r *CreateRequest) Financed() float64 {
	return r.SaleValue - r.DownPayment
}

// ListFilter narrows a sale listing.
type ListFilter struct {
	VehicleID string
	ClientID  string
}
