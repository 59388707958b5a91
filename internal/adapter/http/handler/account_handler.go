package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ucubank/bankaccounts/internal/adapter/http/dto"
	"github.com/ucubank/bankaccounts/internal/domain"
	"github.com/ucubank/bankaccounts/internal/usecase"
)

// AccountService is the account use case as seen by the HTTP layer.
type AccountService interface {
	CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	ListAccounts(ctx context.Context, actorID string) ([]*domain.Account, error)
	GetAccount(ctx context.Context, actorID, id string) (*domain.Account, error)
	UpdateAccountType(ctx context.Context, actorID, id string, accountType domain.AccountType) (*domain.Account, error)
	DeleteAccount(ctx context.Context, actorID, id string) error
	Deposit(ctx context.Context, input usecase.LedgerInput) (*domain.Account, error)
	Withdraw(ctx context.Context, input usecase.LedgerInput) (*domain.Account, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// Create creates an account held by the current user.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dto.CreateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput(userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	account, err := h.accountUC.CreateAccount(r.Context(), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// List lists the current user's accounts.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	accounts, err := h.accountUC.ListAccounts(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		Accounts: dto.AccountsFromDomain(accounts),
		Total:    int64(len(accounts)),
	})
}

// Get returns one of the current user's accounts.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Update changes the account type.
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dto.UpdateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	accountType, err := req.Type()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	account, err := h.accountUC.UpdateAccountType(r.Context(), userID, chi.URLParam(r, "id"), accountType)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Delete removes one of the current user's accounts.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.accountUC.DeleteAccount(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Deposit adds funds to an account.
func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.ledger(w, r, h.accountUC.Deposit)
}

// Withdraw removes funds from an account.
func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.ledger(w, r, h.accountUC.Withdraw)
}

func (h *AccountHandler) ledger(
	w http.ResponseWriter,
	r *http.Request,
	apply func(context.Context, usecase.LedgerInput) (*domain.Account, error),
) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dto.AmountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput(userID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	account, err := apply(r.Context(), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}
