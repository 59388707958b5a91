package memory

import (
	"context"
	"sort"
	"time"

	"github.com/ucubank/bankaccounts/internal/domain"
	"github.com/ucubank/bankaccounts/internal/usecase"
)

// ReceiptRepository implements usecase.ReceiptRepository.
type ReceiptRepository struct {
	store *Store
}

// NewReceiptRepository creates a new ReceiptRepository.
func NewReceiptRepository(store *Store) *ReceiptRepository {
	return &ReceiptRepository{store: store}
}

// CreateInternal stages an internal transfer receipt in tx.
func (r *ReceiptRepository) CreateInternal(_ context.Context, tx usecase.Transaction, receipt *domain.InternalTransferReceipt) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return ErrTxDone
	}

	t.internal = append(t.internal, cloneInternal(receipt))

	return nil
}

// CreateExternal stages an external transfer receipt in tx.
func (r *ReceiptRepository) CreateExternal(_ context.Context, tx usecase.Transaction, receipt *domain.ExternalTransferReceipt) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return ErrTxDone
	}

	t.external = append(t.external, cloneExternal(receipt))

	return nil
}

// ListInternalByUser lists the user's internal receipts, newest first.
func (r *ReceiptRepository) ListInternalByUser(_ context.Context, userID string, limit, offset int) ([]*domain.InternalTransferReceipt, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	receipts := make([]*domain.InternalTransferReceipt, 0)
	for _, rc := range s.internal {
		if userID != "" && domain.Deref(rc.UserID) == userID {
			receipts = append(receipts, cloneInternal(rc))
		}
	}

	sort.SliceStable(receipts, func(i, j int) bool {
		return newerFirst(receipts[i].CreatedAt, receipts[j].CreatedAt, receipts[i].ID, receipts[j].ID)
	})

	return page(receipts, limit, offset), nil
}

// ListExternalByUser lists receipts where the user is payer or payee, newest first.
func (r *ReceiptRepository) ListExternalByUser(_ context.Context, userID string, limit, offset int) ([]*domain.ExternalTransferReceipt, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	receipts := make([]*domain.ExternalTransferReceipt, 0)
	for _, rc := range s.external {
		if userID == "" {
			continue
		}
		if domain.Deref(rc.PayerID) == userID || domain.Deref(rc.PayeeID) == userID {
			receipts = append(receipts, cloneExternal(rc))
		}
	}

	sort.SliceStable(receipts, func(i, j int) bool {
		return newerFirst(receipts[i].CreatedAt, receipts[j].CreatedAt, receipts[i].ID, receipts[j].ID)
	})

	return page(receipts, limit, offset), nil
}

func newerFirst(a, b time.Time, aID, bID string) bool {
	if a.Equal(b) {
		return aID > bID
	}
	return a.After(b)
}

func cloneInternal(r *domain.InternalTransferReceipt) *domain.InternalTransferReceipt {
	cp := *r
	cp.UserID = copyRef(r.UserID)
	cp.FromAccountID = copyRef(r.FromAccountID)
	cp.ToAccountID = copyRef(r.ToAccountID)
	return &cp
}

func cloneExternal(r *domain.ExternalTransferReceipt) *domain.ExternalTransferReceipt {
	cp := *r
	cp.PayerID = copyRef(r.PayerID)
	cp.PayeeID = copyRef(r.PayeeID)
	cp.FromAccountID = copyRef(r.FromAccountID)
	cp.ToAccountID = copyRef(r.ToAccountID)
	return &cp
}

func copyRef(ref *string) *string {
	if ref == nil {
		return nil
	}
	v := *ref
	return &v
}
