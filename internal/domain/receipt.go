package domain

import "time"

// InternalTransferReceipt records a completed transfer between two accounts of
// the same holder. References are weak: they become nil when the referenced
// user or account is deleted.
type InternalTransferReceipt struct {
	ID            string
	UserID        *string
	FromAccountID *string
	ToAccountID   *string
	Amount        int64
	CreatedAt     time.Time
}

// ExternalTransferReceipt records a completed payment between two users.
type ExternalTransferReceipt struct {
	ID            string
	PayerID       *string
	PayeeID       *string
	FromAccountID *string
	ToAccountID   *string
	Amount        int64
	Comment       string
	CreatedAt     time.Time
}

// Ref returns a weak reference to id.
func Ref(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

// Deref returns the referenced id or "" for an orphaned reference.
func Deref(ref *string) string {
	if ref == nil {
		return ""
	}
	return *ref
}
