package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ucubank/bankaccounts/internal/adapter/http/dto"
	"github.com/ucubank/bankaccounts/internal/domain"
	"github.com/ucubank/bankaccounts/internal/usecase"
)

type userServiceStub struct {
	createFn func(ctx context.Context, input usecase.CreateUserInput) (*domain.User, error)
	getFn    func(ctx context.Context, id string) (*domain.User, error)
	listFn   func(ctx context.Context, limit, offset int) ([]*domain.User, error)
	deleteFn func(ctx context.Context, id string) error
}

func (s *userServiceStub) CreateUser(ctx context.Context, input usecase.CreateUserInput) (*domain.User, error) {
	return s.createFn(ctx, input)
}

func (s *userServiceStub) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.getFn(ctx, id)
}

func (s *userServiceStub) ListUsers(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	return s.listFn(ctx, limit, offset)
}

func (s *userServiceStub) DeleteUser(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

func TestUserHandler_Create(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "created", status: http.StatusCreated},
		{name: "duplicate", err: domain.ErrUserExists, status: http.StatusConflict},
		{name: "bad email", err: domain.ErrInvalidEmail, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewUserHandler(&userServiceStub{
				createFn: func(ctx context.Context, input usecase.CreateUserInput) (*domain.User, error) {
					if input.Username != "alice" || input.Email != "alice@example.com" {
						t.Fatalf("unexpected input %+v", input)
					}
					if tt.err != nil {
						return nil, tt.err
					}
					return &domain.User{ID: "u1", Username: input.Username, Email: input.Email}, nil
				},
			})

			body := `{"username":"alice","email":"alice@example.com"}`
			req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewBufferString(body))
			rec := httptest.NewRecorder()

			handler.Create(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestUserHandler_List(t *testing.T) {
	handler := NewUserHandler(&userServiceStub{
		listFn: func(ctx context.Context, limit, offset int) ([]*domain.User, error) {
			if limit != 100 || offset != 5 {
				t.Fatalf("expected clamped limit 100 and offset 5, got %d/%d", limit, offset)
			}
			return []*domain.User{{ID: "u1", Username: "alice"}}, nil
		},
	})

	req := asUser(httptest.NewRequest(http.MethodGet, "/users?limit=1000&offset=5", nil), "alice")
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.ListUsersResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Users) != 1 || resp.Limit != 100 || resp.Offset != 5 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestUserHandler_Me(t *testing.T) {
	handler := NewUserHandler(&userServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.User, error) {
			return &domain.User{ID: id, Username: "alice"}, nil
		},
	})

	req := asUser(httptest.NewRequest(http.MethodGet, "/users/me", nil), "u1")
	rec := httptest.NewRecorder()

	handler.Me(rec, req)

	var resp dto.UserResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if rec.Code != http.StatusOK || resp.ID != "u1" {
		t.Fatalf("unexpected response %d %+v", rec.Code, resp)
	}
}

func TestUserHandler_Get_NotFound(t *testing.T) {
	handler := NewUserHandler(&userServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.User, error) {
			return nil, domain.ErrUserNotFound
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/users/ghost", nil)
	req = setChiURLParam(asUser(req, "alice"), "id", "ghost")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestUserHandler_Delete(t *testing.T) {
	t.Run("self", func(t *testing.T) {
		var deleted string
		handler := NewUserHandler(&userServiceStub{
			deleteFn: func(ctx context.Context, id string) error {
				deleted = id
				return nil
			},
		})

		req := httptest.NewRequest(http.MethodDelete, "/users/u1", nil)
		req = setChiURLParam(asUser(req, "u1"), "id", "u1")
		rec := httptest.NewRecorder()

		handler.Delete(rec, req)

		if rec.Code != http.StatusNoContent || deleted != "u1" {
			t.Fatalf("expected 204 and u1 deleted, got %d %q", rec.Code, deleted)
		}
	})

	t.Run("someone else", func(t *testing.T) {
		handler := NewUserHandler(&userServiceStub{
			deleteFn: func(ctx context.Context, id string) error {
				t.Fatal("delete must not be called")
				return nil
			},
		})

		req := httptest.NewRequest(http.MethodDelete, "/users/u2", nil)
		req = setChiURLParam(asUser(req, "u1"), "id", "u2")
		rec := httptest.NewRecorder()

		handler.Delete(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})
}
