package dto

import (
	"time"

	"github.com/ucubank/bankaccounts/internal/domain"
	"github.com/ucubank/bankaccounts/internal/usecase"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// UserFromDomain converts domain user to response.
func UserFromDomain(u *domain.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// ListUsersResponse represents a page of users.
type ListUsersResponse struct {
	Users  []*UserResponse `json:"users"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID            string    `json:"id"`
	AccountType   string    `json:"account_type"`
	Creator       string    `json:"creator"`
	HolderID      *string   `json:"holder_id"`
	Balance       int64     `json:"balance"`
	Bank          string    `json:"bank"`
	RoutingNumber *int64    `json:"routing_number"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:            a.ID,
		AccountType:   a.Type.String(),
		Creator:       a.Creator,
		HolderID:      a.HolderID,
		Balance:       a.Balance,
		Bank:          a.Bank.String(),
		RoutingNumber: a.RoutingNumber,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse represents the caller's accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// InternalReceiptResponse represents an internal transfer receipt.
type InternalReceiptResponse struct {
	ID            string    `json:"id"`
	UserID        *string   `json:"user_id"`
	FromAccountID *string   `json:"from_account_id"`
	ToAccountID   *string   `json:"to_account_id"`
	Amount        int64     `json:"amount"`
	CreatedAt     time.Time `json:"created_at"`
}

// InternalReceiptFromDomain converts a domain receipt to response.
func InternalReceiptFromDomain(r *domain.InternalTransferReceipt) *InternalReceiptResponse {
	if r == nil {
		return nil
	}
	return &InternalReceiptResponse{
		ID:            r.ID,
		UserID:        r.UserID,
		FromAccountID: r.FromAccountID,
		ToAccountID:   r.ToAccountID,
		Amount:        r.Amount,
		CreatedAt:     r.CreatedAt,
	}
}

// ExternalReceiptResponse represents an external transfer receipt.
type ExternalReceiptResponse struct {
	ID            string    `json:"id"`
	PayerID       *string   `json:"payer_id"`
	PayeeID       *string   `json:"payee_id"`
	FromAccountID *string   `json:"from_account_id"`
	ToAccountID   *string   `json:"to_account_id"`
	Amount        int64     `json:"amount"`
	Comment       string    `json:"comment"`
	CreatedAt     time.Time `json:"created_at"`
}

// ExternalReceiptFromDomain converts a domain receipt to response.
func ExternalReceiptFromDomain(r *domain.ExternalTransferReceipt) *ExternalReceiptResponse {
	if r == nil {
		return nil
	}
	return &ExternalReceiptResponse{
		ID:            r.ID,
		PayerID:       r.PayerID,
		PayeeID:       r.PayeeID,
		FromAccountID: r.FromAccountID,
		ToAccountID:   r.ToAccountID,
		Amount:        r.Amount,
		Comment:       r.Comment,
		CreatedAt:     r.CreatedAt,
	}
}

// ListInternalReceiptsResponse represents a page of internal receipts.
type ListInternalReceiptsResponse struct {
	Receipts []*InternalReceiptResponse `json:"receipts"`
	Limit    int                        `json:"limit"`
	Offset   int                        `json:"offset"`
}

// ListExternalReceiptsResponse represents a page of external receipts.
type ListExternalReceiptsResponse struct {
	Receipts []*ExternalReceiptResponse `json:"receipts"`
	Limit    int                        `json:"limit"`
	Offset   int                        `json:"offset"`
}

// InternalTransferResponse is returned for both accepted and rejected internal transfers.
type InternalTransferResponse struct {
	OK       bool                     `json:"ok"`
	Error    string                   `json:"error,omitempty"`
	Message  string                   `json:"message"`
	Receipt  *InternalReceiptResponse `json:"receipt,omitempty"`
	Accounts []*AccountResponse       `json:"accounts"`
}

// InternalTransferFromResult converts a use case result to response.
func InternalTransferFromResult(r *usecase.InternalTransferResult) *InternalTransferResponse {
	resp := &InternalTransferResponse{
		OK:       r.OK,
		Message:  r.Message,
		Receipt:  InternalReceiptFromDomain(r.Receipt),
		Accounts: AccountsFromDomain(r.Accounts),
	}
	if r.Reason != nil {
		resp.Error = r.Reason.Code
	}
	return resp
}

// ExternalTransferResponse is returned for both accepted and rejected payments.
type ExternalTransferResponse struct {
	OK      bool                     `json:"ok"`
	Error   string                   `json:"error,omitempty"`
	Message string                   `json:"message"`
	Receipt *ExternalReceiptResponse `json:"receipt,omitempty"`
}

// ExternalTransferFromResult converts a use case result to response.
func ExternalTransferFromResult(r *usecase.ExternalTransferResult) *ExternalTransferResponse {
	resp := &ExternalTransferResponse{
		OK:      r.OK,
		Message: r.Message,
		Receipt: ExternalReceiptFromDomain(r.Receipt),
	}
	if r.Reason != nil {
		resp.Error = r.Reason.Code
	}
	return resp
}
