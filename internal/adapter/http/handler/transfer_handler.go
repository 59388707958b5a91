package handler

import (
	"context"
	"net/http"

	"github.com/ucubank/bankaccounts/internal/adapter/http/dto"
	"github.com/ucubank/bankaccounts/internal/usecase"
)

// TransferService is the transfer use case as seen by the HTTP layer.
type TransferService interface {
	CreateInternalTransfer(ctx context.Context, input usecase.CreateInternalTransferInput) (*usecase.InternalTransferResult, error)
	CreateExternalTransfer(ctx context.Context, input usecase.CreateExternalTransferInput) (*usecase.ExternalTransferResult, error)
}

// TransferHandler handles transfer-related HTTP requests.
type TransferHandler struct {
	transferUC TransferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferUC TransferService) *TransferHandler {
	return &TransferHandler{transferUC: transferUC}
}

// Internal moves funds between two of the current user's accounts. A rejected
// transfer answers 422 with the reason and the unchanged account list.
func (h *TransferHandler) Internal(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dto.InternalTransferRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput(userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	result, err := h.transferUC.CreateInternalTransfer(r.Context(), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, transferStatus(result.OK), dto.InternalTransferFromResult(result))
}

// External pays another user from one of the current user's checking accounts.
func (h *TransferHandler) External(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dto.ExternalTransferRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput(userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	result, err := h.transferUC.CreateExternalTransfer(r.Context(), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, transferStatus(result.OK), dto.ExternalTransferFromResult(result))
}

func transferStatus(ok bool) int {
	if ok {
		return http.StatusCreated
	}
	return http.StatusUnprocessableEntity
}
