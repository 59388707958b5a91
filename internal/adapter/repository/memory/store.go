// Package memory provides an in-process implementation of the storage ports.
// Account rows are locked with per-account semaphores taken in ascending id
// order; writes made inside a transaction are staged and applied on commit.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ucubank/bankaccounts/internal/domain"
	"github.com/ucubank/bankaccounts/internal/usecase"
)

var (
	// ErrTxDone is returned when a finished transaction is used again.
	ErrTxDone = errors.New("memory: transaction already committed or rolled back")
	// ErrNotLocked is returned when a staged write targets an account the transaction did not lock.
	ErrNotLocked = errors.New("memory: account not locked by transaction")
	// ErrForeignTx is returned when a transaction from another backend is passed in.
	ErrForeignTx = errors.New("memory: transaction was not started by this store")
	// ErrAccountGone is returned by Commit when a locked account no longer exists.
	ErrAccountGone = errors.New("memory: locked account no longer exists")
)

// Store holds all rows in memory.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
	users    map[string]*domain.User
	internal []*domain.InternalTransferReceipt
	external []*domain.ExternalTransferReceipt

	locksMu sync.Mutex
	locks   map[string]chan struct{}
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[string]*domain.Account),
		users:    make(map[string]*domain.User),
		locks:    make(map[string]chan struct{}),
	}
}

// Ping reports the store as always reachable.
func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) accountLock(id string) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	l, ok := s.locks[id]
	if !ok {
		l = make(chan struct{}, 1)
		s.locks[id] = l
	}

	return l
}

// lockAccounts takes the semaphores of ids in ascending order, the order every
// transaction uses. Deletes go through it so they wait for in-flight transfers.
func (s *Store) lockAccounts(ctx context.Context, ids []string) (func(), error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	held := make([]chan struct{}, 0, len(sorted))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
	}

	for i, id := range sorted {
		if i > 0 && sorted[i-1] == id {
			continue
		}

		l := s.accountLock(id)
		select {
		case l <- struct{}{}:
			held = append(held, l)
		case <-ctx.Done():
			release()
			return nil, ctx.Err()
		}
	}

	return release, nil
}

// clearDanglingRefs nulls receipt references to rows deleted while the
// transaction was open, the way ON DELETE SET NULL would. Callers hold s.mu.
func (s *Store) clearDanglingRefs(internal []*domain.InternalTransferReceipt, external []*domain.ExternalTransferReceipt) {
	user := func(ref *string) *string {
		if ref != nil {
			if _, ok := s.users[*ref]; !ok {
				return nil
			}
		}
		return ref
	}
	account := func(ref *string) *string {
		if ref != nil {
			if _, ok := s.accounts[*ref]; !ok {
				return nil
			}
		}
		return ref
	}

	for _, rc := range internal {
		rc.UserID = user(rc.UserID)
		rc.FromAccountID = account(rc.FromAccountID)
		rc.ToAccountID = account(rc.ToAccountID)
	}
	for _, rc := range external {
		rc.PayerID = user(rc.PayerID)
		rc.PayeeID = user(rc.PayeeID)
		rc.FromAccountID = account(rc.FromAccountID)
		rc.ToAccountID = account(rc.ToAccountID)
	}
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Tx{
		store:    m.store,
		held:     make(map[string]chan struct{}),
		balances: make(map[string]stagedBalance),
	}, nil
}

type stagedBalance struct {
	balance   int64
	updatedAt time.Time
}

// Tx is a transaction over a Store.
type Tx struct {
	store *Store

	mu       sync.Mutex
	held     map[string]chan struct{}
	order    []string
	balances map[string]stagedBalance
	internal []*domain.InternalTransferReceipt
	external []*domain.ExternalTransferReceipt
	done     bool
}

// lock acquires the account semaphores in ascending id order. Waiting honors
// ctx cancellation so a stuck transfer gives up instead of hanging.
func (t *Tx) lock(ctx context.Context, ids []string) error {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	for _, id := range sorted {
		if _, ok := t.held[id]; ok {
			continue
		}

		l := t.store.accountLock(id)
		select {
		case l <- struct{}{}:
			t.held[id] = l
			t.order = append(t.order, id)
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

func (t *Tx) release() {
	for i := len(t.order) - 1; i >= 0; i-- {
		<-t.held[t.order[i]]
	}
	t.held = nil
	t.order = nil
}

// Commit applies staged writes atomically and releases the account locks.
func (t *Tx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return ErrTxDone
	}
	t.done = true
	defer t.release()

	if err := ctx.Err(); err != nil {
		return err
	}

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range t.balances {
		if _, ok := s.accounts[id]; !ok {
			return fmt.Errorf("%w: %s", ErrAccountGone, id)
		}
	}
	for id, staged := range t.balances {
		acc := s.accounts[id]
		acc.Balance = staged.balance
		acc.UpdatedAt = staged.updatedAt
	}

	s.clearDanglingRefs(t.internal, t.external)
	s.internal = append(s.internal, t.internal...)
	s.external = append(s.external, t.external...)

	return nil
}

// Rollback discards staged writes and releases the account locks.
// Rolling back a finished transaction is a no-op.
func (t *Tx) Rollback(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return nil
	}
	t.done = true
	t.release()

	return nil
}

func asTx(tx usecase.Transaction) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok {
		return nil, ErrForeignTx
	}
	return t, nil
}
