package usecase

import (
	"context"
	"time"

	"github.com/ucubank/bankaccounts/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	// ListByHolder returns the accounts held by a user ordered by creation time, then id.
	ListByHolder(ctx context.Context, holderID string) ([]*domain.Account, error)
	// GetByIDsForUpdate locks the given accounts in ascending id order for the
	// lifetime of tx. Unknown ids are skipped.
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance int64, updatedAt time.Time) error
	UpdateType(ctx context.Context, id string, accountType domain.AccountType, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// UserRepository defines data access for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]*domain.User, error)
	Count(ctx context.Context) (int64, error)
	// Delete removes the user. Accounts and receipts that referenced the
	// user survive with the reference cleared.
	Delete(ctx context.Context, id string) error
}

// ReceiptRepository defines data access for transfer receipts.
type ReceiptRepository interface {
	CreateInternal(ctx context.Context, tx Transaction, receipt *domain.InternalTransferReceipt) error
	CreateExternal(ctx context.Context, tx Transaction, receipt *domain.ExternalTransferReceipt) error
	ListInternalByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.InternalTransferReceipt, error)
	// ListExternalByUser returns receipts where the user is payer or payee.
	ListExternalByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.ExternalTransferReceipt, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs an operation that failed with a transient storage error.
type Retrier interface {
	Retry(ctx context.Context, op func() error) error
}

// AccountLocker serializes work on accounts across service instances.
// The returned release func must be called once the work is finished.
type AccountLocker interface {
	LockAccounts(ctx context.Context, ids []string) (release func(context.Context) error, err error)
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claimed key so the request can be retried.
	Release(ctx context.Context, key string) error
}
