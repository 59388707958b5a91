package domain

import (
	"fmt"
	"strings"
)

// AccountType is the closed set of account kinds.
type AccountType uint8

const (
	AccountTypeChecking AccountType = iota + 1
	AccountTypeSavings
)

var accountTypeNames = map[AccountType]string{
	AccountTypeChecking: "Checking",
	AccountTypeSavings:  "Savings",
}

// ParseAccountType converts a display name into an AccountType.
func ParseAccountType(s string) (AccountType, error) {
	s = strings.TrimSpace(s)
	for t, name := range accountTypeNames {
		if strings.EqualFold(name, s) {
			return t, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidAccountType, s)
}

// String returns the display name.
func (t AccountType) String() string {
	if name, ok := accountTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("AccountType(%d)", uint8(t))
}

// IsValid reports whether t is one of the declared account types.
func (t AccountType) IsValid() bool {
	_, ok := accountTypeNames[t]
	return ok
}

// MarshalText implements encoding.TextMarshaler.
func (t AccountType) MarshalText() ([]byte, error) {
	if !t.IsValid() {
		return nil, ErrInvalidAccountType
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *AccountType) UnmarshalText(text []byte) error {
	parsed, err := ParseAccountType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Bank is the closed set of institutions an account can belong to.
type Bank uint8

const (
	BankUCU Bank = iota + 1
	BankChase
	BankWellsFargo
	BankOfAmerica
)

// DefaultBank is used when an account is created without a bank.
const DefaultBank = BankUCU

var bankNames = map[Bank]string{
	BankUCU:        "UCU",
	BankChase:      "Chase",
	BankWellsFargo: "Wells Fargo",
	BankOfAmerica:  "Bank of America",
}

// ParseBank converts a display name into a Bank.
func ParseBank(s string) (Bank, error) {
	s = strings.TrimSpace(s)
	for b, name := range bankNames {
		if strings.EqualFold(name, s) {
			return b, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidBank, s)
}

// String returns the display name.
func (b Bank) String() string {
	if name, ok := bankNames[b]; ok {
		return name
	}
	return fmt.Sprintf("Bank(%d)", uint8(b))
}

// IsValid reports whether b is one of the declared banks.
func (b Bank) IsValid() bool {
	_, ok := bankNames[b]
	return ok
}

// MarshalText implements encoding.TextMarshaler.
func (b Bank) MarshalText() ([]byte, error) {
	if !b.IsValid() {
		return nil, ErrInvalidBank
	}
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Bank) UnmarshalText(text []byte) error {
	parsed, err := ParseBank(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
