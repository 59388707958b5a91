package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ucubank/bankaccounts/internal/domain"
	"github.com/ucubank/bankaccounts/internal/infrastructure/metrics"
)

// TransferUseCase handles transfer business logic.
type TransferUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	userRepo    UserRepository
	receiptRepo ReceiptRepository
	idGen       IDGenerator
	retrier     Retrier
	locker      AccountLocker
	metrics     *metrics.Metrics
	timeout     time.Duration
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	userRepo UserRepository,
	receiptRepo ReceiptRepository,
	idGen IDGenerator,
) *TransferUseCase {
	return &TransferUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		userRepo:    userRepo,
		receiptRepo: receiptRepo,
		idGen:       idGen,
		timeout:     DefaultTransactionTimeout,
	}
}

// WithRetrier re-runs a transfer transaction that failed with a transient storage error.
func (uc *TransferUseCase) WithRetrier(r Retrier) *TransferUseCase {
	uc.retrier = r
	return uc
}

// WithAccountLocker takes cross-instance account locks before each transaction.
func (uc *TransferUseCase) WithAccountLocker(l AccountLocker) *TransferUseCase {
	uc.locker = l
	return uc
}

// WithMetrics records transfer outcomes.
func (uc *TransferUseCase) WithMetrics(m *metrics.Metrics) *TransferUseCase {
	uc.metrics = m
	return uc
}

// WithTimeout bounds a single transfer including lock waits.
func (uc *TransferUseCase) WithTimeout(d time.Duration) *TransferUseCase {
	if d > 0 {
		uc.timeout = d
	}
	return uc
}

// CreateInternalTransferInput represents a move between two accounts of the actor.
type CreateInternalTransferInput struct {
	ActorID       string
	FromAccountID string
	ToAccountID   string
	Amount        int64
}

// InternalTransferResult is the outcome of an internal transfer. Accounts is the
// actor's account list after the attempt; on rejection it is unchanged.
type InternalTransferResult struct {
	OK       bool
	Reason   *domain.ValidationError
	Message  string
	Accounts []*domain.Account
	Receipt  *domain.InternalTransferReceipt
}

// CreateExternalTransferInput represents a payment from the payer to another user.
type CreateExternalTransferInput struct {
	PayerID       string
	FromAccountID string
	PayeeID       string
	Amount        int64
	Comment       string
}

// ExternalTransferResult is the outcome of a payment.
type ExternalTransferResult struct {
	OK      bool
	Reason  *domain.ValidationError
	Message string
	Receipt *domain.ExternalTransferReceipt
}

// CreateInternalTransfer moves funds between two accounts held by the actor.
// Rejections are reported in the result; the returned error is reserved for
// storage failures, in which case nothing was changed.
func (uc *TransferUseCase) CreateInternalTransfer(ctx context.Context, input CreateInternalTransferInput) (result *InternalTransferResult, err error) {
	start := time.Now()
	defer func() {
		if result != nil {
			uc.observe(metrics.KindInternal, start, input.Amount, result.Reason, nil)
		} else {
			uc.observe(metrics.KindInternal, start, input.Amount, nil, err)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	release, err := uc.lock(ctx, input.FromAccountID, input.ToAccountID)
	if err != nil {
		return nil, err
	}
	defer release()

	err = uc.retry(ctx, func() error {
		var err error
		result, err = uc.createInternalTransfer(ctx, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (uc *TransferUseCase) createInternalTransfer(ctx context.Context, input CreateInternalTransferInput) (*InternalTransferResult, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// 1. Resolve the actor's accounts
	owned, err := uc.accountRepo.ListByHolder(ctx, input.ActorID)
	if err != nil {
		return nil, err
	}

	rejectWith := func(reason *domain.ValidationError) (*InternalTransferResult, error) {
		return &InternalTransferResult{
			Reason:   reason,
			Message:  reason.Message,
			Accounts: owned,
		}, nil
	}

	if len(owned) == 0 {
		return rejectWith(domain.ErrNoAccounts)
	}

	// 2. Lock both endpoints in ascending id order
	locked, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, sortedUniqueIDs(input.FromAccountID, input.ToAccountID))
	if err != nil {
		return nil, err
	}

	from, fromOK := domain.FindAccount(locked, input.FromAccountID)
	to, toOK := domain.FindAccount(locked, input.ToAccountID)
	if !fromOK || !toOK {
		return rejectWith(domain.ErrInvalidAccounts)
	}

	// 3. Validate on the locked rows
	if !from.HeldBy(input.ActorID) || !to.HeldBy(input.ActorID) {
		return rejectWith(domain.ErrUnauthorized)
	}

	if from.ID == to.ID {
		return rejectWith(domain.ErrSameAccount)
	}

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return rejectWith(domain.ErrInvalidAmount)
	}

	if input.Amount > from.Balance {
		return rejectWith(domain.ErrInsufficientFunds)
	}

	if !to.CanReceive(input.Amount) {
		return rejectWith(domain.ErrBalanceLimit)
	}

	// 4. Apply withdraw then deposit
	now := time.Now().UTC()
	if err := uc.move(ctx, tx, from, to, input.Amount, now); err != nil {
		return nil, err
	}

	// 5. Record the receipt in the same transaction
	receipt := &domain.InternalTransferReceipt{
		ID:            uc.idGen.Generate(),
		UserID:        domain.Ref(input.ActorID),
		FromAccountID: domain.Ref(from.ID),
		ToAccountID:   domain.Ref(to.ID),
		Amount:        input.Amount,
		CreatedAt:     now,
	}

	if err := uc.receiptRepo.CreateInternal(ctx, tx, receipt); err != nil {
		return nil, fmt.Errorf("create internal receipt: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &InternalTransferResult{
		OK: true,
		Message: fmt.Sprintf("Transferred %d from %s account %s to %s account %s.",
			input.Amount, from.Type, from.ID, to.Type, to.ID),
		Accounts: replaceAccounts(owned, from, to),
		Receipt:  receipt,
	}, nil
}

// CreateExternalTransfer pays the payee's first checking account from one of
// the payer's checking accounts.
func (uc *TransferUseCase) CreateExternalTransfer(ctx context.Context, input CreateExternalTransferInput) (result *ExternalTransferResult, err error) {
	start := time.Now()
	defer func() {
		if result != nil {
			uc.observe(metrics.KindExternal, start, input.Amount, result.Reason, nil)
		} else {
			uc.observe(metrics.KindExternal, start, input.Amount, nil, err)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	err = uc.retry(ctx, func() error {
		var err error
		result, err = uc.createExternalTransfer(ctx, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (uc *TransferUseCase) createExternalTransfer(ctx context.Context, input CreateExternalTransferInput) (*ExternalTransferResult, error) {
	// 1. Resolve the payer's accounts and the universe of payees
	payerAccounts, err := uc.accountRepo.ListByHolder(ctx, input.PayerID)
	if err != nil {
		return nil, err
	}
	if len(payerAccounts) == 0 {
		return rejectExternal(domain.ErrNoAccounts)
	}

	users, err := uc.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	if users == 0 {
		return rejectExternal(domain.ErrNoUsers)
	}

	if _, ok := domain.FindAccount(payerAccounts, input.FromAccountID); !ok {
		return rejectExternal(domain.ErrInvalidAccounts)
	}

	payee, err := uc.userRepo.GetByID(ctx, input.PayeeID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return rejectExternal(domain.ErrPayeeNotFound)
	}
	if err != nil {
		return nil, err
	}

	// 2. Resolve the destination, the payee's first checking account. It is
	// resolved again if it changed before its row lock was taken.
	for attempt := 1; ; attempt++ {
		payeeAccounts, err := uc.accountRepo.ListByHolder(ctx, payee.ID)
		if err != nil {
			return nil, err
		}
		if len(payeeAccounts) == 0 {
			return rejectExternal(domain.ErrPayeeHasNoAccounts)
		}

		dest, ok := domain.FirstChecking(payeeAccounts)
		if !ok {
			return rejectExternal(domain.ErrPayeeHasNoCheckingAccount)
		}

		result, stale, err := uc.payExternal(ctx, input, payee, dest.ID)
		if err != nil || !stale {
			return result, err
		}
		if attempt == destinationAttempts {
			return rejectExternal(domain.ErrPayeeHasNoCheckingAccount)
		}
	}
}

// payExternal runs the payment into destID. The bool reports that destID was
// no longer the payee's checking account once locked; nothing was written then.
func (uc *TransferUseCase) payExternal(ctx context.Context, input CreateExternalTransferInput, payee *domain.User, destID string) (*ExternalTransferResult, bool, error) {
	release, err := uc.lock(ctx, input.FromAccountID, destID)
	if err != nil {
		return nil, false, err
	}
	defer release()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx)

	reject := func(reason *domain.ValidationError) (*ExternalTransferResult, bool, error) {
		r, _ := rejectExternal(reason)
		return r, false, nil
	}

	// 3. Lock both endpoints and re-check what was resolved outside the lock
	locked, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, sortedUniqueIDs(input.FromAccountID, destID))
	if err != nil {
		return nil, false, err
	}

	from, ok := domain.FindAccount(locked, input.FromAccountID)
	if !ok || !from.HeldBy(input.PayerID) {
		return reject(domain.ErrInvalidAccounts)
	}

	to, ok := domain.FindAccount(locked, destID)
	if !ok || !to.HeldBy(payee.ID) || to.Type != domain.AccountTypeChecking {
		return nil, true, nil
	}

	// 4. Validate the payment
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return reject(domain.ErrInvalidAmount)
	}

	if input.Amount > from.Balance {
		return reject(domain.ErrInsufficientFunds)
	}

	if input.PayerID == payee.ID {
		return reject(domain.ErrSelfPayment)
	}

	if from.Type != domain.AccountTypeChecking {
		return reject(domain.ErrSourceNotChecking)
	}

	if !to.CanReceive(input.Amount) {
		return reject(domain.ErrBalanceLimit)
	}

	// 5. Apply and record
	now := time.Now().UTC()
	if err := uc.move(ctx, tx, from, to, input.Amount, now); err != nil {
		return nil, false, err
	}

	receipt := &domain.ExternalTransferReceipt{
		ID:            uc.idGen.Generate(),
		PayerID:       domain.Ref(input.PayerID),
		PayeeID:       domain.Ref(payee.ID),
		FromAccountID: domain.Ref(from.ID),
		ToAccountID:   domain.Ref(to.ID),
		Amount:        input.Amount,
		Comment:       input.Comment,
		CreatedAt:     now,
	}

	if err := uc.receiptRepo.CreateExternal(ctx, tx, receipt); err != nil {
		return nil, false, fmt.Errorf("create external receipt: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}

	return &ExternalTransferResult{
		OK:      true,
		Message: fmt.Sprintf("Paid %d to %s.", input.Amount, payee.Username),
		Receipt: receipt,
	}, false, nil
}

func rejectExternal(reason *domain.ValidationError) (*ExternalTransferResult, error) {
	return &ExternalTransferResult{Reason: reason, Message: reason.Message}, nil
}

// move withdraws from one locked account and deposits into the other.
func (uc *TransferUseCase) move(ctx context.Context, tx Transaction, from, to *domain.Account, amount int64, now time.Time) error {
	if err := from.Withdraw(amount); err != nil {
		return err
	}
	if err := to.Deposit(amount); err != nil {
		return err
	}

	from.UpdatedAt = now
	to.UpdatedAt = now

	if err := uc.accountRepo.UpdateBalance(ctx, tx, from.ID, from.Balance, now); err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if err := uc.accountRepo.UpdateBalance(ctx, tx, to.ID, to.Balance, now); err != nil {
		return fmt.Errorf("update balance: %w", err)
	}

	return nil
}

func (uc *TransferUseCase) retry(ctx context.Context, op func() error) error {
	if uc.retrier == nil {
		return op()
	}
	return uc.retrier.Retry(ctx, op)
}

// lock takes the distributed account locks when a locker is configured.
func (uc *TransferUseCase) lock(ctx context.Context, ids ...string) (func(), error) {
	if uc.locker == nil {
		return func() {}, nil
	}

	release, err := uc.locker.LockAccounts(ctx, sortedUniqueIDs(ids...))
	if err != nil {
		uc.metrics.LockFailure()
		return nil, fmt.Errorf("lock accounts: %w", err)
	}

	return func() {
		// Release with a fresh context so a cancelled request still frees its locks.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = release(releaseCtx)
	}, nil
}

func (uc *TransferUseCase) observe(kind string, start time.Time, amount int64, reason *domain.ValidationError, err error) {
	switch {
	case err != nil:
		uc.metrics.ObserveTransfer(kind, metrics.OutcomeError, "", amount, time.Since(start))
	case reason != nil:
		uc.metrics.ObserveTransfer(kind, metrics.OutcomeRejected, reason.Code, amount, time.Since(start))
	default:
		uc.metrics.ObserveTransfer(kind, metrics.OutcomeOK, "", amount, time.Since(start))
	}
}

// sortedUniqueIDs returns the non-empty ids in ascending order without duplicates.
// Every lock in this package is taken in this order.
func sortedUniqueIDs(ids ...string) []string {
	seen := make(map[string]bool, len(ids))
	result := make([]string, 0, len(ids))

	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, id)
	}

	sort.Strings(result)

	return result
}

// replaceAccounts returns accounts with the updated copies substituted by id.
func replaceAccounts(accounts []*domain.Account, updated ...*domain.Account) []*domain.Account {
	result := make([]*domain.Account, len(accounts))
	for i, acc := range accounts {
		result[i] = acc
		if u, ok := domain.FindAccount(updated, acc.ID); ok {
			result[i] = u
		}
	}
	return result
}
