// Package client defines dealership customers (individuals and companies).
package client

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/Strob0t/DealerForge/internal/domain"
)

// Kind distinguishes individual customers from companies.
type Kind string

const (
	KindIndividual Kind = "individual"
	KindCompany    Kind = "company"
)

// Client is a customer record owned by one tenant.
type Client struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	Name       string    `json:"name"`
	Kind       Kind      `json:"kind"`
	Document   string    `json:"document"` // CPF or CNPJ, digits only
	RG         string    `json:"rg"`
	BirthDate  string    `json:"birth_date"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	PostalCode string    `json:"postal_code"`
	Street     string    `json:"street"`
	Number     string    `json:"number"`
	District   string    `json:"district"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Input carries the writable client fields for create and full update.
type Input struct {
	Name       string `json:"name"`
	Kind       Kind   `json:"kind"`
	Document   string `json:"document"`
	RG         string `json:"rg"`
	BirthDate  string `json:"birth_date"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	PostalCode string `json:"postal_code"`
	Street     string `json:"street"`
	Number     string `json:"number"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
}

// Validate normalizes the input and checks required fields.
func (in *Input) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Document = digitsOnly(in.Document)
	in.State = strings.ToUpper(strings.TrimSpace(in.State))
	in.Email = strings.TrimSpace(in.Email)
	if in.Kind == "" {
		in.Kind = KindIndividual
	}

	if in.Name == "" {
		return errors.New("name is required")
	}
	switch in.Kind {
	case KindIndividual:
		if in.Document != "" && len(in.Document) != 11 {
			return errors.New("document must have 11 digits for an individual")
		}
	case KindCompany:
		if in.Document != "" && len(in.Document) != 14 {
			return errors.New("document must have 14 digits for a company")
		}
	default:
		return errors.New("kind must be individual or company")
	}
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			return errors.New("invalid email format")
		}
	}
	if in.State != "" && len(in.State) != 2 {
		return errors.New("state must be a two-letter code")
	}
	return domain.ValidateDate("birth_date", in.BirthDate)
}

// ListFilter narrows a client listing.
type ListFilter struct {
	Search string // matches name or document
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
