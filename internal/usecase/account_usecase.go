package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ucubank/bankaccounts/internal/domain"
	"github.com/ucubank/bankaccounts/internal/infrastructure/metrics"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	userRepo    UserRepository
	idGen       IDGenerator
	retrier     Retrier
	metrics     *metrics.Metrics
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	userRepo UserRepository,
	idGen IDGenerator,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		userRepo:    userRepo,
		idGen:       idGen,
	}
}

// WithRetrier re-runs a deposit or withdrawal that failed with a transient storage error.
func (uc *AccountUseCase) WithRetrier(r Retrier) *AccountUseCase {
	uc.retrier = r
	return uc
}

// WithMetrics records account creation and ledger operations.
func (uc *AccountUseCase) WithMetrics(m *metrics.Metrics) *AccountUseCase {
	uc.metrics = m
	return uc
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	ActorID        string
	Type           domain.AccountType
	Creator        string
	Bank           domain.Bank
	RoutingNumber  *int64
	OpeningBalance int64
}

// CreateAccount opens an account held by the actor.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if !input.Type.IsValid() {
		return nil, domain.ErrInvalidAccountType
	}

	bank := input.Bank
	if bank == 0 {
		bank = domain.DefaultBank
	}
	if !bank.IsValid() {
		return nil, domain.ErrInvalidBank
	}

	if err := domain.ValidateRoutingNumber(input.RoutingNumber); err != nil {
		return nil, err
	}

	if err := domain.ValidateOpeningBalance(input.OpeningBalance); err != nil {
		return nil, err
	}

	holder, err := uc.userRepo.GetByID(ctx, input.ActorID)
	if err != nil {
		return nil, err
	}

	creator := strings.TrimSpace(input.Creator)
	if creator == "" {
		creator = holder.Username
	}
	if err := domain.ValidateCreator(creator); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	account := &domain.Account{
		ID:            uc.idGen.Generate(),
		Type:          input.Type,
		Creator:       creator,
		HolderID:      domain.Ref(holder.ID),
		Balance:       input.OpeningBalance,
		Bank:          bank,
		RoutingNumber: input.RoutingNumber,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}
	uc.metrics.AccountCreated()

	return account, nil
}

// ListAccounts lists the accounts held by the actor, oldest first.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, actorID string) ([]*domain.Account, error) {
	return uc.accountRepo.ListByHolder(ctx, actorID)
}

// GetAccount retrieves an account the actor holds.
func (uc *AccountUseCase) GetAccount(ctx context.Context, actorID, id string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !account.HeldBy(actorID) {
		return nil, domain.ErrUnauthorized
	}

	return account, nil
}

// UpdateAccountType changes the type of an account the actor holds.
// Other fields are immutable after creation.
func (uc *AccountUseCase) UpdateAccountType(ctx context.Context, actorID, id string, accountType domain.AccountType) (*domain.Account, error) {
	if !accountType.IsValid() {
		return nil, domain.ErrInvalidAccountType
	}

	account, err := uc.GetAccount(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := uc.accountRepo.UpdateType(ctx, id, accountType, now); err != nil {
		return nil, err
	}

	account.Type = accountType
	account.UpdatedAt = now

	return account, nil
}

// DeleteAccount closes an account the actor holds. Receipts that referenced
// the account keep their history with the reference cleared.
func (uc *AccountUseCase) DeleteAccount(ctx context.Context, actorID, id string) error {
	if _, err := uc.GetAccount(ctx, actorID, id); err != nil {
		return err
	}

	return uc.accountRepo.Delete(ctx, id)
}

// LedgerInput represents a deposit or withdrawal on a single account.
type LedgerInput struct {
	ActorID   string
	AccountID string
	Amount    int64
}

// Deposit credits an account the actor holds.
func (uc *AccountUseCase) Deposit(ctx context.Context, input LedgerInput) (*domain.Account, error) {
	return uc.applyLedger(ctx, "deposit", input, (*domain.Account).Deposit)
}

// Withdraw debits an account the actor holds. The balance never goes negative.
func (uc *AccountUseCase) Withdraw(ctx context.Context, input LedgerInput) (*domain.Account, error) {
	return uc.applyLedger(ctx, "withdraw", input, (*domain.Account).Withdraw)
}

func (uc *AccountUseCase) applyLedger(
	ctx context.Context,
	operation string,
	input LedgerInput,
	apply func(*domain.Account, int64) error,
) (account *domain.Account, err error) {
	defer func() {
		outcome := metrics.OutcomeOK
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			outcome = metrics.OutcomeRejected
		case err != nil:
			outcome = metrics.OutcomeError
		}
		uc.metrics.ObserveLedger(operation, outcome)
	}()

	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	if uc.retrier == nil {
		return uc.ledgerOnce(ctx, input, apply)
	}

	err = uc.retrier.Retry(ctx, func() error {
		var err error
		account, err = uc.ledgerOnce(ctx, input, apply)
		return err
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

func (uc *AccountUseCase) ledgerOnce(
	ctx context.Context,
	input LedgerInput,
	apply func(*domain.Account, int64) error,
) (*domain.Account, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	locked, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, []string{input.AccountID})
	if err != nil {
		return nil, err
	}

	account, ok := domain.FindAccount(locked, input.AccountID)
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	if !account.HeldBy(input.ActorID) {
		return nil, domain.ErrUnauthorized
	}

	if err := apply(account, input.Amount); err != nil {
		return nil, err
	}

	account.UpdatedAt = time.Now().UTC()
	if err := uc.accountRepo.UpdateBalance(ctx, tx, account.ID, account.Balance, account.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return account, nil
}
