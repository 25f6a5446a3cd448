package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestInvalidWrapsValidation(t *testing.T) {
	err := fmt.Errorf("create vehicle: %w", Invalid("year %d is out of range", 1800))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	msg, ok := PublicMessage(err)
	if !ok || msg != "year 1800 is out of range" {
		t.Fatalf("PublicMessage() = %q, %v", msg, ok)
	}
}

func TestConflictWrapsConflict(t *testing.T) {
	err := Conflict("username already exists")
	if !errors.Is(err, ErrConflict) {
		t.Fatal("expected ErrConflict")
	}
	if errors.Is(err, ErrValidation) {
		t.Fatal("conflict must not match ErrValidation")
	}
}

func TestPublicMessageAbsent(t *testing.T) {
	if _, ok := PublicMessage(fmt.Errorf("x: %w", ErrNotFound)); ok {
		t.Fatal("plain sentinel should carry no public message")
	}
}

func TestValidateDate(t *testing.T) {
	if err := ValidateDate("entry_date", ""); err != nil {
		t.Fatalf("empty date should be accepted: %v", err)
	}
	if err := ValidateDate("entry_date", "2024-02-29"); err != nil {
		t.Fatalf("valid date rejected: %v", err)
	}
	if err := ValidateDate("entry_date", "29/02/2024"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
