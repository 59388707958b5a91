package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ucubank/bankaccounts/internal/domain"
	"github.com/ucubank/bankaccounts/internal/usecase"
	"github.com/ucubank/bankaccounts/internal/usecase/mocks"
)

func TestUserUseCase_CreateUser_Success(t *testing.T) {
	repo := mocks.NewMockUserRepository()
	idGen := mocks.NewMockIDGenerator()
	idGen.GenerateFunc = func() string { return "user-1" }

	uc := usecase.NewUserUseCase(repo, idGen)

	user, err := uc.CreateUser(context.Background(), usecase.CreateUserInput{
		Username: "alice",
		Email:    " Alice@Example.com ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if user.ID != "user-1" || user.Username != "alice" {
		t.Fatalf("unexpected user %+v", user)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("expected normalized email, got %q", user.Email)
	}
	if user.CreatedAt.IsZero() {
		t.Error("expected creation time to be set")
	}
}

func TestUserUseCase_CreateUser_KeepsProviderID(t *testing.T) {
	uc := usecase.NewUserUseCase(mocks.NewMockUserRepository(), mocks.NewMockIDGenerator())

	user, err := uc.CreateUser(context.Background(), usecase.CreateUserInput{
		ID: "sub-123", Username: "bob", Email: "bob@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "sub-123" {
		t.Fatalf("expected provider id to be kept, got %q", user.ID)
	}
}

func TestUserUseCase_CreateUser_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		input usecase.CreateUserInput
		want  error
	}{
		{name: "empty username", input: usecase.CreateUserInput{Email: "a@example.com"}, want: domain.ErrInvalidUsername},
		{name: "username with space", input: usecase.CreateUserInput{Username: "a b", Email: "a@example.com"}, want: domain.ErrInvalidUsername},
		{name: "bad email", input: usecase.CreateUserInput{Username: "alice", Email: "nope"}, want: domain.ErrInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := usecase.NewUserUseCase(mocks.NewMockUserRepository(), mocks.NewMockIDGenerator())

			if _, err := uc.CreateUser(context.Background(), tt.input); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestUserUseCase_CreateUser_Duplicate(t *testing.T) {
	repo := mocks.NewMockUserRepository()
	_ = repo.Create(context.Background(), &domain.User{ID: "u1", Username: "alice"})

	uc := usecase.NewUserUseCase(repo, mocks.NewMockIDGenerator())

	_, err := uc.CreateUser(context.Background(), usecase.CreateUserInput{Username: "alice", Email: "a@example.com"})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestUserUseCase_CreateUser_LookupFailure(t *testing.T) {
	repo := mocks.NewMockUserRepository()
	repo.GetByUsernameFunc = func(context.Context, string) (*domain.User, error) {
		return nil, errors.New("db down")
	}

	uc := usecase.NewUserUseCase(repo, mocks.NewMockIDGenerator())

	if _, err := uc.CreateUser(context.Background(), usecase.CreateUserInput{Username: "alice", Email: "a@example.com"}); err == nil {
		t.Fatal("expected lookup error to propagate")
	}
}

func TestUserUseCase_GetUser(t *testing.T) {
	repo := mocks.NewMockUserRepository()
	_ = repo.Create(context.Background(), &domain.User{ID: "u1", Username: "alice"})

	uc := usecase.NewUserUseCase(repo, mocks.NewMockIDGenerator())

	user, err := uc.GetUser(context.Background(), "u1")
	if err != nil || user.Username != "alice" {
		t.Fatalf("expected alice, got %+v (err %v)", user, err)
	}

	if _, err := uc.GetUser(context.Background(), "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserUseCase_ListUsers(t *testing.T) {
	repo := mocks.NewMockUserRepository()

	var gotLimit, gotOffset int
	repo.ListFunc = func(_ context.Context, limit, offset int) ([]*domain.User, error) {
		gotLimit, gotOffset = limit, offset
		return []*domain.User{{ID: "u1"}}, nil
	}

	uc := usecase.NewUserUseCase(repo, mocks.NewMockIDGenerator())

	users, err := uc.ListUsers(context.Background(), 500, -1)
	if err != nil || len(users) != 1 {
		t.Fatalf("unexpected result %+v (err %v)", users, err)
	}
	if gotLimit != 100 || gotOffset != 0 {
		t.Errorf("expected pagination to be clamped to 100/0, got %d/%d", gotLimit, gotOffset)
	}
}

func TestUserUseCase_DeleteUserOrphansAccounts(t *testing.T) {
	b := newBank(t)
	b.user(t, "alice")
	b.user(t, "bob")
	b.account(t, "a-chk", "alice", domain.AccountTypeChecking, 100)
	b.account(t, "b-chk", "bob", domain.AccountTypeChecking, 0)

	ctx := context.Background()
	result, err := b.transfer.CreateExternalTransfer(ctx, usecase.CreateExternalTransferInput{
		PayerID: "alice", FromAccountID: "a-chk", PayeeID: "bob", Amount: 25,
	})
	if err != nil || !result.OK {
		t.Fatalf("payment failed: %v %+v", err, result)
	}

	uc := usecase.NewUserUseCase(b.users, mocks.NewMockIDGenerator())
	if err := uc.DeleteUser(ctx, "alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	acc, err := b.accounts.GetByID(ctx, "a-chk")
	if err != nil {
		t.Fatalf("account must survive user deletion: %v", err)
	}
	if acc.HolderID != nil || acc.Balance != 75 {
		t.Fatalf("expected orphaned account with balance 75, got %+v", acc)
	}

	receipts, err := b.receipts.ListExternalByUser(ctx, "bob", 10, 0)
	if err != nil || len(receipts) != 1 {
		t.Fatalf("expected bob's receipt to survive, got %d (err %v)", len(receipts), err)
	}
	if receipts[0].PayerID != nil {
		t.Errorf("expected payer reference cleared, got %v", *receipts[0].PayerID)
	}

	if err := uc.DeleteUser(ctx, "alice"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound on second delete, got %v", err)
	}
}
