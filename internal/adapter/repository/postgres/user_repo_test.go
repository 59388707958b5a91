package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/ucubank/bankaccounts/internal/domain"
)

func TestUserRepository_Create(t *testing.T) {
	pool := newMockPool(t)
	repo := NewUserRepository(pool)
	now := time.Now().UTC()

	pool.ExpectExec(`INSERT INTO users`).
		WithArgs("u1", "alice", "a@example.com", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	pool.ExpectExec(`INSERT INTO users`).
		WithArgs("u2", "alice", "a@example.com", now).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})

	ctx := context.Background()
	if err := repo.Create(ctx, &domain.User{ID: "u1", Username: "alice", Email: "a@example.com", CreatedAt: now}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := repo.Create(ctx, &domain.User{ID: "u2", Username: "alice", Email: "a@example.com", CreatedAt: now})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	assertExpectations(t, pool)
}

func TestUserRepository_GetByID(t *testing.T) {
	pool := newMockPool(t)
	repo := NewUserRepository(pool)
	now := time.Now().UTC()

	pool.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "email", "created_at"}).
			AddRow("u1", "alice", "a@example.com", now))
	pool.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "email", "created_at"}))

	ctx := context.Background()
	user, err := repo.GetByID(ctx, "u1")
	if err != nil || user.Username != "alice" {
		t.Fatalf("expected alice, got %+v (err %v)", user, err)
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	assertExpectations(t, pool)
}

func TestUserRepository_ListAndCount(t *testing.T) {
	pool := newMockPool(t)
	repo := NewUserRepository(pool)
	now := time.Now().UTC()

	pool.ExpectQuery(`FROM users ORDER BY created_at ASC, id ASC LIMIT \$1 OFFSET \$2`).
		WithArgs(20, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "email", "created_at"}).
			AddRow("u1", "alice", "a@example.com", now).
			AddRow("u2", "bob", "b@example.com", now))
	pool.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(2)))

	ctx := context.Background()
	users, err := repo.List(ctx, 20, 0)
	if err != nil || len(users) != 2 {
		t.Fatalf("expected 2 users, got %d (err %v)", len(users), err)
	}

	count, err := repo.Count(ctx)
	if err != nil || count != 2 {
		t.Fatalf("expected count 2, got %d (err %v)", count, err)
	}

	assertExpectations(t, pool)
}

func TestUserRepository_Delete(t *testing.T) {
	pool := newMockPool(t)
	repo := NewUserRepository(pool)

	pool.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs("u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	pool.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs("u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	ctx := context.Background()
	if err := repo.Delete(ctx, "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Delete(ctx, "u1"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	assertExpectations(t, pool)
}
