package handler

import (
	"context"
	"net/http"

	"github.com/ucubank/bankaccounts/internal/adapter/http/dto"
	"github.com/ucubank/bankaccounts/internal/domain"
	"github.com/ucubank/bankaccounts/internal/usecase"
)

// ReceiptService is the receipt use case as seen by the HTTP layer.
type ReceiptService interface {
	ListInternalReceipts(ctx context.Context, input usecase.ListReceiptsInput) ([]*domain.InternalTransferReceipt, error)
	ListExternalReceipts(ctx context.Context, input usecase.ListReceiptsInput) ([]*domain.ExternalTransferReceipt, error)
}

// ReceiptHandler handles receipt-related HTTP requests.
type ReceiptHandler struct {
	receiptUC ReceiptService
}

// NewReceiptHandler creates a new ReceiptHandler.
func NewReceiptHandler(receiptUC ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptUC: receiptUC}
}

// ListInternal lists the current user's internal transfer receipts.
func (h *ReceiptHandler) ListInternal(w http.ResponseWriter, r *http.Request) {
	input, ok := receiptsInput(w, r)
	if !ok {
		return
	}

	receipts, err := h.receiptUC.ListInternalReceipts(r.Context(), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := dto.ListInternalReceiptsResponse{
		Receipts: make([]*dto.InternalReceiptResponse, len(receipts)),
		Limit:    input.Limit,
		Offset:   input.Offset,
	}
	for i, rc := range receipts {
		resp.Receipts[i] = dto.InternalReceiptFromDomain(rc)
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListExternal lists payments the current user sent or received.
func (h *ReceiptHandler) ListExternal(w http.ResponseWriter, r *http.Request) {
	input, ok := receiptsInput(w, r)
	if !ok {
		return
	}

	receipts, err := h.receiptUC.ListExternalReceipts(r.Context(), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := dto.ListExternalReceiptsResponse{
		Receipts: make([]*dto.ExternalReceiptResponse, len(receipts)),
		Limit:    input.Limit,
		Offset:   input.Offset,
	}
	for i, rc := range receipts {
		resp.Receipts[i] = dto.ExternalReceiptFromDomain(rc)
	}

	writeJSON(w, http.StatusOK, resp)
}

func receiptsInput(w http.ResponseWriter, r *http.Request) (usecase.ListReceiptsInput, bool) {
	userID, ok := currentUser(w, r)
	if !ok {
		return usecase.ListReceiptsInput{}, false
	}

	limit, offset := domain.ValidatePagination(parseIntQuery(r, "limit", 0), parseIntQuery(r, "offset", 0))

	return usecase.ListReceiptsInput{ActorID: userID, Limit: limit, Offset: offset}, true
}
