package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ucubank/bankaccounts/internal/domain"
	"github.com/ucubank/bankaccounts/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

// Create creates a new account.
func (r *AccountRepository) Create(_ context.Context, account *domain.Account) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.ID]; ok {
		return fmt.Errorf("memory: duplicate account id %s", account.ID)
	}
	if account.HolderID != nil {
		if _, ok := s.users[*account.HolderID]; !ok {
			return domain.ErrUserNotFound
		}
	}

	s.accounts[account.ID] = account.Clone()

	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(_ context.Context, id string) (*domain.Account, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	return acc.Clone(), nil
}

// ListByHolder returns the holder's accounts ordered by creation time, then id.
func (r *AccountRepository) ListByHolder(_ context.Context, holderID string) ([]*domain.Account, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]*domain.Account, 0)
	for _, acc := range s.accounts {
		if acc.HeldBy(holderID) {
			accounts = append(accounts, acc.Clone())
		}
	}

	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].ID < accounts[j].ID
		}
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})

	return accounts, nil
}

// GetByIDsForUpdate locks the accounts in ascending id order and returns
// their committed state.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return nil, ErrTxDone
	}

	if err := t.lock(ctx, ids); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]*domain.Account, 0, len(ids))
	for _, id := range t.order {
		acc, ok := s.accounts[id]
		if !ok || !contains(ids, id) {
			continue
		}

		cp := acc.Clone()
		if staged, ok := t.balances[id]; ok {
			cp.Balance = staged.balance
			cp.UpdatedAt = staged.updatedAt
		}
		accounts = append(accounts, cp)
	}

	return accounts, nil
}

// UpdateBalance stages a balance write for an account locked by tx.
func (r *AccountRepository) UpdateBalance(_ context.Context, tx usecase.Transaction, id string, balance int64, updatedAt time.Time) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return ErrTxDone
	}
	if _, ok := t.held[id]; !ok {
		return ErrNotLocked
	}
	if balance < 0 {
		return fmt.Errorf("memory: negative balance for account %s", id)
	}

	t.balances[id] = stagedBalance{balance: balance, updatedAt: updatedAt}

	return nil
}

// UpdateType changes the account type.
func (r *AccountRepository) UpdateType(_ context.Context, id string, accountType domain.AccountType, updatedAt time.Time) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}

	acc.Type = accountType
	acc.UpdatedAt = updatedAt

	return nil
}

// Delete removes the account and clears receipt references to it. It waits
// for any transaction holding the account's lock.
func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	s := r.store

	release, err := s.lockAccounts(ctx, []string{id})
	if err != nil {
		return err
	}
	defer release()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return domain.ErrAccountNotFound
	}

	delete(s.accounts, id)

	for _, rc := range s.internal {
		rc.FromAccountID = clearRef(rc.FromAccountID, id)
		rc.ToAccountID = clearRef(rc.ToAccountID, id)
	}
	for _, rc := range s.external {
		rc.FromAccountID = clearRef(rc.FromAccountID, id)
		rc.ToAccountID = clearRef(rc.ToAccountID, id)
	}

	return nil
}

func clearRef(ref *string, id string) *string {
	if ref != nil && *ref == id {
		return nil
	}
	return ref
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
