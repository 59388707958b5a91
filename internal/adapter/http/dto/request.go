package dto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ucubank/bankaccounts/internal/domain"
	"github.com/ucubank/bankaccounts/internal/usecase"
)

var (
	// ErrFractionalAmount is returned for amounts that are not whole minor units.
	ErrFractionalAmount = errors.New("amount must be a whole number of minor units")
	// ErrAmountOutOfRange is returned for amounts that do not fit in 64 bits.
	ErrAmountOutOfRange = errors.New("amount is out of range")
	// ErrCommentTooLong is returned for payment comments over domain.MaxCommentLength.
	ErrCommentTooLong = fmt.Errorf("comment must be at most %d characters", domain.MaxCommentLength)
)

// CreateUserRequest represents a request to mirror a user from the identity provider.
type CreateUserRequest struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateUserRequest) ToUseCaseInput() usecase.CreateUserInput {
	return usecase.CreateUserInput{
		ID:       r.ID,
		Username: r.Username,
		Email:    r.Email,
	}
}

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	AccountType    string          `json:"account_type"`
	Creator        string          `json:"creator,omitempty"`
	Bank           string          `json:"bank,omitempty"`
	RoutingNumber  *int64          `json:"routing_number,omitempty"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

// ToUseCaseInput converts to use case input. An empty bank selects the default.
func (r *CreateAccountRequest) ToUseCaseInput(actorID string) (usecase.CreateAccountInput, error) {
	accountType, err := domain.ParseAccountType(r.AccountType)
	if err != nil {
		return usecase.CreateAccountInput{}, err
	}

	var bank domain.Bank
	if strings.TrimSpace(r.Bank) != "" {
		if bank, err = domain.ParseBank(r.Bank); err != nil {
			return usecase.CreateAccountInput{}, err
		}
	}

	balance, err := MinorUnits(r.OpeningBalance)
	if err != nil {
		return usecase.CreateAccountInput{}, err
	}

	return usecase.CreateAccountInput{
		ActorID:        actorID,
		Type:           accountType,
		Creator:        r.Creator,
		Bank:           bank,
		RoutingNumber:  r.RoutingNumber,
		OpeningBalance: balance,
	}, nil
}

// UpdateAccountRequest represents the editable fields of an account.
type UpdateAccountRequest struct {
	AccountType string `json:"account_type"`
}

// Type parses the requested account type.
func (r *UpdateAccountRequest) Type() (domain.AccountType, error) {
	return domain.ParseAccountType(r.AccountType)
}

// AmountRequest is the body of deposit and withdraw calls.
type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// ToUseCaseInput converts to use case input.
func (r *AmountRequest) ToUseCaseInput(actorID, accountID string) (usecase.LedgerInput, error) {
	amount, err := MinorUnits(r.Amount)
	if err != nil {
		return usecase.LedgerInput{}, err
	}

	return usecase.LedgerInput{
		ActorID:   actorID,
		AccountID: accountID,
		Amount:    amount,
	}, nil
}

// InternalTransferRequest represents a move between two of the caller's accounts.
type InternalTransferRequest struct {
	FromAccountID string          `json:"from_account_id"`
	ToAccountID   string          `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
}

// ToUseCaseInput converts to use case input. Non-positive amounts pass through
// so the transfer reports them as a rejection.
func (r *InternalTransferRequest) ToUseCaseInput(actorID string) (usecase.CreateInternalTransferInput, error) {
	amount, err := MinorUnits(r.Amount)
	if err != nil {
		return usecase.CreateInternalTransferInput{}, err
	}

	return usecase.CreateInternalTransferInput{
		ActorID:       actorID,
		FromAccountID: r.FromAccountID,
		ToAccountID:   r.ToAccountID,
		Amount:        amount,
	}, nil
}

// ExternalTransferRequest represents a payment to another user.
type ExternalTransferRequest struct {
	FromAccountID string          `json:"from_account_id"`
	PayeeID       string          `json:"payee_id"`
	Amount        decimal.Decimal `json:"amount"`
	Comment       string          `json:"comment,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *ExternalTransferRequest) ToUseCaseInput(payerID string) (usecase.CreateExternalTransferInput, error) {
	amount, err := MinorUnits(r.Amount)
	if err != nil {
		return usecase.CreateExternalTransferInput{}, err
	}

	if len([]rune(r.Comment)) > domain.MaxCommentLength {
		return usecase.CreateExternalTransferInput{}, ErrCommentTooLong
	}

	return usecase.CreateExternalTransferInput{
		PayerID:       payerID,
		FromAccountID: r.FromAccountID,
		PayeeID:       r.PayeeID,
		Amount:        amount,
		Comment:       r.Comment,
	}, nil
}

// MinorUnits converts a decoded amount to an integer number of minor units.
func MinorUnits(d decimal.Decimal) (int64, error) {
	if !d.IsInteger() {
		return 0, ErrFractionalAmount
	}
	if !d.BigInt().IsInt64() {
		return 0, ErrAmountOutOfRange
	}
	return d.IntPart(), nil
}
