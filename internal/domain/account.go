package domain

import "time"

// Account is a balance-holding record owned by a user.
type Account struct {
	ID            string
	Type          AccountType
	Creator       string
	HolderID      *string
	Balance       int64
	Bank          Bank
	RoutingNumber *int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HeldBy reports whether userID holds the account. Orphaned accounts are held by nobody.
func (a *Account) HeldBy(userID string) bool {
	return a.HolderID != nil && userID != "" && *a.HolderID == userID
}

// CanReceive reports whether amount can be added without passing MaxBalance.
func (a *Account) CanReceive(amount int64) bool {
	return amount <= MaxBalance-a.Balance
}

// Deposit adds amount to the balance. The balance is left untouched on error.
func (a *Account) Deposit(amount int64) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}

	if !a.CanReceive(amount) {
		return ErrBalanceLimit
	}

	a.Balance += amount
	return nil
}

// Withdraw subtracts amount from the balance. The balance is left untouched on error.
func (a *Account) Withdraw(amount int64) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}

	if amount > a.Balance {
		return ErrInsufficientFunds
	}

	a.Balance -= amount
	return nil
}

// Clone returns a deep copy so callers can hand out snapshots.
func (a *Account) Clone() *Account {
	cp := *a
	if a.HolderID != nil {
		holder := *a.HolderID
		cp.HolderID = &holder
	}
	if a.RoutingNumber != nil {
		rn := *a.RoutingNumber
		cp.RoutingNumber = &rn
	}
	return &cp
}

// FirstChecking returns the first checking account in listing order.
func FirstChecking(accounts []*Account) (*Account, bool) {
	for _, a := range accounts {
		if a.Type == AccountTypeChecking {
			return a, true
		}
	}
	return nil, false
}

// FindAccount returns the account with id from accounts.
func FindAccount(accounts []*Account, id string) (*Account, bool) {
	for _, a := range accounts {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}
