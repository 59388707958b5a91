package domain

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation constants
const (
	MaxCreatorLength  = 200
	MaxUsernameLength = 150
	MaxTransferAmount = int64(1_000_000_000)
	MaxBalance        = int64(math.MaxInt64)
	MaxCommentLength  = 1000

	minRoutingNumber = 100_000_000
	maxRoutingNumber = 999_999_999
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9@.+_-]+$`)
)

// ValidateAmount validates a deposit, withdrawal or transfer amount.
func ValidateAmount(amount int64) error {
	if amount <= 0 || amount > MaxTransferAmount {
		return ErrInvalidAmount
	}
	return nil
}

// ValidateOpeningBalance validates the balance an account is opened with.
// Zero is allowed; the upper bound matches a single transfer.
func ValidateOpeningBalance(balance int64) error {
	if balance < 0 || balance > MaxTransferAmount {
		return ErrInvalidAmount
	}
	return nil
}

// ValidateCreator validates the free-text creator label.
func ValidateCreator(creator string) error {
	creator = strings.TrimSpace(creator)

	if creator == "" {
		return fmt.Errorf("%w: creator cannot be empty", ErrInvalidCreator)
	}

	if utf8.RuneCountInString(creator) > MaxCreatorLength {
		return fmt.Errorf("%w: creator exceeds %d characters", ErrInvalidCreator, MaxCreatorLength)
	}

	return nil
}

// ValidateRoutingNumber validates an optional nine-digit routing number.
func ValidateRoutingNumber(rn *int64) error {
	if rn == nil {
		return nil
	}

	if *rn < minRoutingNumber || *rn > maxRoutingNumber {
		return fmt.Errorf("%w: must be 9 digits", ErrInvalidRoutingNumber)
	}

	return nil
}

// ValidateUsername validates a username as issued by the identity provider.
func ValidateUsername(username string) error {
	if username == "" || len(username) > MaxUsernameLength {
		return fmt.Errorf("%w: must be 1 to %d characters", ErrInvalidUsername, MaxUsernameLength)
	}

	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("%w: only letters, digits and @/./+/-/_ are allowed", ErrInvalidUsername)
	}

	return nil
}

// ValidateEmail validates email format
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 100
	const DefaultPageSize = 20

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
