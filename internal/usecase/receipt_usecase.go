package usecase

import (
	"context"

	"github.com/ucubank/bankaccounts/internal/domain"
)

// ReceiptUseCase exposes the transfer history of a user.
type ReceiptUseCase struct {
	receiptRepo ReceiptRepository
}

// NewReceiptUseCase creates a new ReceiptUseCase.
func NewReceiptUseCase(receiptRepo ReceiptRepository) *ReceiptUseCase {
	return &ReceiptUseCase{receiptRepo: receiptRepo}
}

// ListReceiptsInput represents input for listing receipts.
type ListReceiptsInput struct {
	ActorID string
	Limit   int
	Offset  int
}

// ListInternalReceipts lists the actor's transfers between their own accounts, newest first.
func (uc *ReceiptUseCase) ListInternalReceipts(ctx context.Context, input ListReceiptsInput) ([]*domain.InternalTransferReceipt, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.receiptRepo.ListInternalByUser(ctx, input.ActorID, limit, offset)
}

// ListExternalReceipts lists payments the actor sent or received, newest first.
func (uc *ReceiptUseCase) ListExternalReceipts(ctx context.Context, input ListReceiptsInput) ([]*domain.ExternalTransferReceipt, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.receiptRepo.ListExternalByUser(ctx, input.ActorID, limit, offset)
}
