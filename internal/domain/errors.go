package domain

import "errors"

// ValidationError is a caller-visible transfer or ledger rejection.
// Every instance is detected before any mutation.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}

// invalidAccountsMessage is shared by ErrInvalidAccounts and ErrUnauthorized so
// that probing for other users' account ids reveals nothing.
const invalidAccountsMessage = "Invalid accounts were selected."

var (
	ErrNoAccounts                = newValidationError("no_accounts", "You don't have any accounts.")
	ErrNoUsers                   = newValidationError("no_users", "There are no users to pay.")
	ErrInvalidAccounts           = newValidationError("invalid_accounts", invalidAccountsMessage)
	ErrUnauthorized              = newValidationError("unauthorized", invalidAccountsMessage)
	ErrSameAccount               = newValidationError("same_account", "You cannot transfer to the same account.")
	ErrInvalidAmount             = newValidationError("invalid_amount", "Amount must be a positive whole number.")
	ErrInsufficientFunds         = newValidationError("insufficient_funds", "Insufficient funds for this transfer.")
	ErrBalanceLimit              = newValidationError("balance_limit_exceeded", "The receiving account cannot hold this amount.")
	ErrPayeeNotFound             = newValidationError("payee_not_found", "The selected payee does not exist.")
	ErrPayeeHasNoAccounts        = newValidationError("payee_has_no_accounts", "The payee has no accounts.")
	ErrPayeeHasNoCheckingAccount = newValidationError("payee_has_no_checking_account", "The payee has no checking account.")
	ErrSelfPayment               = newValidationError("self_payment", "You cannot pay yourself.")
	ErrSourceNotChecking         = newValidationError("source_not_checking", "Payments can only be sent from a checking account.")
)

var (
	// Lookup errors
	ErrAccountNotFound = errors.New("account not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrReceiptNotFound = errors.New("receipt not found")

	// Input errors
	ErrInvalidAccountType   = errors.New("invalid account type")
	ErrInvalidBank          = errors.New("invalid bank")
	ErrInvalidRoutingNumber = errors.New("invalid routing number")
	ErrInvalidCreator       = errors.New("invalid creator")
	ErrInvalidUsername      = errors.New("invalid username")
	ErrInvalidEmail         = errors.New("invalid email format")
	ErrUserExists           = errors.New("user already exists")
)

// AsValidationError returns the ValidationError wrapped in err, if any.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// IsValidationError reports whether err is a caller-visible rejection.
func IsValidationError(err error) bool {
	_, ok := AsValidationError(err)
	return ok
}
