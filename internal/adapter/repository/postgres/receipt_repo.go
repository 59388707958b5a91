package postgres

import (
	"context"

	"github.com/ucubank/bankaccounts/internal/domain"
	"github.com/ucubank/bankaccounts/internal/usecase"
)

// ReceiptRepository implements usecase.ReceiptRepository.
type ReceiptRepository struct {
	db DBTX
}

// NewReceiptRepository creates a new ReceiptRepository.
func NewReceiptRepository(db DBTX) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

// CreateInternal inserts an internal transfer receipt inside tx.
func (r *ReceiptRepository) CreateInternal(ctx context.Context, tx usecase.Transaction, receipt *domain.InternalTransferReceipt) error {
	ptx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO internal_transfer_receipts (id, user_id, from_account_id, to_account_id, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = ptx.Exec(ctx, query,
		receipt.ID,
		receipt.UserID,
		receipt.FromAccountID,
		receipt.ToAccountID,
		receipt.Amount,
		receipt.CreatedAt,
	)

	return err
}

// CreateExternal inserts an external transfer receipt inside tx.
func (r *ReceiptRepository) CreateExternal(ctx context.Context, tx usecase.Transaction, receipt *domain.ExternalTransferReceipt) error {
	ptx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO external_transfer_receipts
			(id, payer_id, payee_id, from_account_id, to_account_id, amount, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = ptx.Exec(ctx, query,
		receipt.ID,
		receipt.PayerID,
		receipt.PayeeID,
		receipt.FromAccountID,
		receipt.ToAccountID,
		receipt.Amount,
		receipt.Comment,
		receipt.CreatedAt,
	)

	return err
}

// ListInternalByUser lists the user's internal receipts, newest first.
func (r *ReceiptRepository) ListInternalByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.InternalTransferReceipt, error) {
	query := `
		SELECT id, user_id, from_account_id, to_account_id, amount, created_at
		FROM internal_transfer_receipts
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	receipts := make([]*domain.InternalTransferReceipt, 0)
	for rows.Next() {
		var rc domain.InternalTransferReceipt
		if err := rows.Scan(&rc.ID, &rc.UserID, &rc.FromAccountID, &rc.ToAccountID, &rc.Amount, &rc.CreatedAt); err != nil {
			return nil, err
		}
		receipts = append(receipts, &rc)
	}

	return receipts, rows.Err()
}

// ListExternalByUser lists receipts where the user is payer or payee, newest first.
func (r *ReceiptRepository) ListExternalByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.ExternalTransferReceipt, error) {
	query := `
		SELECT id, payer_id, payee_id, from_account_id, to_account_id, amount, comment, created_at
		FROM external_transfer_receipts
		WHERE payer_id = $1 OR payee_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	receipts := make([]*domain.ExternalTransferReceipt, 0)
	for rows.Next() {
		var rc domain.ExternalTransferReceipt
		err := rows.Scan(
			&rc.ID,
			&rc.PayerID,
			&rc.PayeeID,
			&rc.FromAccountID,
			&rc.ToAccountID,
			&rc.Amount,
			&rc.Comment,
			&rc.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, &rc)
	}

	return receipts, rows.Err()
}
