package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationErrors_DistinctKindsSharedMessage(t *testing.T) {
	if errors.Is(ErrUnauthorized, ErrInvalidAccounts) {
		t.Fatal("unauthorized and invalid accounts must be distinct kinds")
	}

	if ErrUnauthorized.Error() != ErrInvalidAccounts.Error() {
		t.Fatalf("expected identical messages, got %q and %q", ErrUnauthorized, ErrInvalidAccounts)
	}
}

func TestValidationErrors_UniqueCodes(t *testing.T) {
	all := []*ValidationError{
		ErrNoAccounts, ErrNoUsers, ErrInvalidAccounts, ErrUnauthorized, ErrSameAccount,
		ErrInvalidAmount, ErrInsufficientFunds, ErrPayeeNotFound, ErrPayeeHasNoAccounts,
		ErrPayeeHasNoCheckingAccount, ErrSelfPayment, ErrSourceNotChecking,
	}

	seen := make(map[string]bool)
	for _, e := range all {
		if e.Code == "" || e.Message == "" {
			t.Fatalf("validation error missing code or message: %+v", e)
		}
		if seen[e.Code] {
			t.Fatalf("duplicate code %s", e.Code)
		}
		seen[e.Code] = true
	}
}

func TestAsValidationError(t *testing.T) {
	wrapped := fmt.Errorf("transfer: %w", ErrInsufficientFunds)

	ve, ok := AsValidationError(wrapped)
	if !ok || ve != ErrInsufficientFunds {
		t.Fatalf("expected to unwrap ErrInsufficientFunds, got %v", ve)
	}

	if IsValidationError(ErrAccountNotFound) {
		t.Fatal("lookup errors are not validation errors")
	}
}
