package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ucubank/bankaccounts/internal/domain"
	"github.com/ucubank/bankaccounts/internal/usecase"
)

const accountColumns = `id, account_type, creator, holder_id, balance, bank, routing_number, created_at, updated_at`

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	db DBTX
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		account.ID,
		account.Type.String(),
		account.Creator,
		account.HolderID,
		account.Balance,
		account.Bank.String(),
		account.RoutingNumber,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if pgErrCode(err) == pgErrForeignKeyViolation {
		return domain.ErrUserNotFound
	}

	return err
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	return account, nil
}

// ListByHolder returns the holder's accounts ordered by creation time, then id.
func (r *AccountRepository) ListByHolder(ctx context.Context, holderID string) ([]*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE holder_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, holderID)
	if err != nil {
		return nil, err
	}

	return collectAccounts(rows)
}

// GetByIDsForUpdate locks the accounts with SELECT ... FOR UPDATE in id order.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	if len(ids) == 0 {
		return []*domain.Account{}, nil
	}

	ptx, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`

	rows, err := ptx.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}

	return collectAccounts(rows)
}

// UpdateBalance writes a new balance inside tx.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance int64, updatedAt time.Time) error {
	ptx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := ptx.Exec(ctx,
		`UPDATE accounts SET balance = $2, updated_at = $3 WHERE id = $1`,
		id, balance, updatedAt,
	)
	if pgErrCode(err) == pgErrCheckViolation {
		return fmt.Errorf("%w: balance check rejected update of %s", domain.ErrInsufficientFunds, id)
	}
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// UpdateType changes the account type.
func (r *AccountRepository) UpdateType(ctx context.Context, id string, accountType domain.AccountType, updatedAt time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE accounts SET account_type = $2, updated_at = $3 WHERE id = $1`,
		id, accountType.String(), updatedAt,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// Delete removes the account. Receipt references are cleared by ON DELETE SET NULL.
func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account     domain.Account
		accountType string
		bank        string
	)

	err := row.Scan(
		&account.ID,
		&accountType,
		&account.Creator,
		&account.HolderID,
		&account.Balance,
		&bank,
		&account.RoutingNumber,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if account.Type, err = domain.ParseAccountType(accountType); err != nil {
		return nil, fmt.Errorf("account %s: %w", account.ID, err)
	}
	if account.Bank, err = domain.ParseBank(bank); err != nil {
		return nil, fmt.Errorf("account %s: %w", account.ID, err)
	}

	return &account, nil
}

func collectAccounts(rows pgx.Rows) ([]*domain.Account, error) {
	defer rows.Close()

	accounts := make([]*domain.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}
