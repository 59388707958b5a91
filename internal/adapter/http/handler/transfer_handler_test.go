package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ucubank/bankaccounts/internal/adapter/http/dto"
	"github.com/ucubank/bankaccounts/internal/domain"
	"github.com/ucubank/bankaccounts/internal/usecase"
)

type transferServiceStub struct {
	internalFn func(ctx context.Context, input usecase.CreateInternalTransferInput) (*usecase.InternalTransferResult, error)
	externalFn func(ctx context.Context, input usecase.CreateExternalTransferInput) (*usecase.ExternalTransferResult, error)
}

func (s *transferServiceStub) CreateInternalTransfer(ctx context.Context, input usecase.CreateInternalTransferInput) (*usecase.InternalTransferResult, error) {
	return s.internalFn(ctx, input)
}

func (s *transferServiceStub) CreateExternalTransfer(ctx context.Context, input usecase.CreateExternalTransferInput) (*usecase.ExternalTransferResult, error) {
	return s.externalFn(ctx, input)
}

func TestTransferHandler_Internal_Success(t *testing.T) {
	var captured usecase.CreateInternalTransferInput
	handler := NewTransferHandler(&transferServiceStub{
		internalFn: func(ctx context.Context, input usecase.CreateInternalTransferInput) (*usecase.InternalTransferResult, error) {
			captured = input
			return &usecase.InternalTransferResult{
				OK:      true,
				Message: "Transfer complete.",
				Receipt: &domain.InternalTransferReceipt{ID: "r1", Amount: input.Amount},
				Accounts: []*domain.Account{
					{ID: "a1", Balance: 60},
					{ID: "a2", Balance: 40},
				},
			}, nil
		},
	})

	body := `{"from_account_id":"a1","to_account_id":"a2","amount":40}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/transfers/internal", bytes.NewBufferString(body)), "alice")
	rec := httptest.NewRecorder()

	handler.Internal(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured != (usecase.CreateInternalTransferInput{ActorID: "alice", FromAccountID: "a1", ToAccountID: "a2", Amount: 40}) {
		t.Fatalf("unexpected input %+v", captured)
	}

	var resp dto.InternalTransferResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.OK || resp.Receipt == nil || resp.Receipt.ID != "r1" || len(resp.Accounts) != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestTransferHandler_Internal_Rejected(t *testing.T) {
	handler := NewTransferHandler(&transferServiceStub{
		internalFn: func(ctx context.Context, input usecase.CreateInternalTransferInput) (*usecase.InternalTransferResult, error) {
			return &usecase.InternalTransferResult{
				Reason:   domain.ErrInsufficientFunds,
				Message:  domain.ErrInsufficientFunds.Message,
				Accounts: []*domain.Account{{ID: "a1", Balance: 10}},
			}, nil
		},
	})

	body := `{"from_account_id":"a1","to_account_id":"a2","amount":40}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/transfers/internal", bytes.NewBufferString(body)), "alice")
	rec := httptest.NewRecorder()

	handler.Internal(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}

	var resp dto.InternalTransferResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.OK || resp.Error != "insufficient_funds" || resp.Receipt != nil || len(resp.Accounts) != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestTransferHandler_Internal_BadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: "{"},
		{name: "fractional amount", body: `{"from_account_id":"a1","to_account_id":"a2","amount":"0.5"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewTransferHandler(&transferServiceStub{
				internalFn: func(ctx context.Context, input usecase.CreateInternalTransferInput) (*usecase.InternalTransferResult, error) {
					t.Fatal("transfer should not be attempted")
					return nil, nil
				},
			})

			req := asUser(httptest.NewRequest(http.MethodPost, "/transfers/internal", bytes.NewBufferString(tt.body)), "alice")
			rec := httptest.NewRecorder()

			handler.Internal(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestTransferHandler_Internal_StorageError(t *testing.T) {
	handler := NewTransferHandler(&transferServiceStub{
		internalFn: func(ctx context.Context, input usecase.CreateInternalTransferInput) (*usecase.InternalTransferResult, error) {
			return nil, errors.New("connection reset")
		},
	})

	body := `{"from_account_id":"a1","to_account_id":"a2","amount":1}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/transfers/internal", bytes.NewBufferString(body)), "alice")
	rec := httptest.NewRecorder()

	handler.Internal(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection reset") {
		t.Fatal("storage details must not leak")
	}
}

func TestTransferHandler_External(t *testing.T) {
	tests := []struct {
		name   string
		result *usecase.ExternalTransferResult
		status int
		code   string
	}{
		{
			name: "paid",
			result: &usecase.ExternalTransferResult{
				OK:      true,
				Receipt: &domain.ExternalTransferReceipt{ID: "r1", Amount: 25, Comment: "lunch"},
			},
			status: http.StatusCreated,
		},
		{
			name:   "self payment",
			result: &usecase.ExternalTransferResult{Reason: domain.ErrSelfPayment, Message: domain.ErrSelfPayment.Message},
			status: http.StatusUnprocessableEntity,
			code:   "self_payment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured usecase.CreateExternalTransferInput
			handler := NewTransferHandler(&transferServiceStub{
				externalFn: func(ctx context.Context, input usecase.CreateExternalTransferInput) (*usecase.ExternalTransferResult, error) {
					captured = input
					return tt.result, nil
				},
			})

			body := `{"from_account_id":"a1","payee_id":"bob","amount":25,"comment":"lunch"}`
			req := asUser(httptest.NewRequest(http.MethodPost, "/transfers/external", bytes.NewBufferString(body)), "alice")
			rec := httptest.NewRecorder()

			handler.External(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if captured.PayerID != "alice" || captured.PayeeID != "bob" || captured.Amount != 25 || captured.Comment != "lunch" {
				t.Fatalf("unexpected input %+v", captured)
			}

			var resp dto.ExternalTransferResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Error != tt.code {
				t.Fatalf("expected error code %q, got %q", tt.code, resp.Error)
			}
		})
	}
}

func TestTransferHandler_External_CommentTooLong(t *testing.T) {
	handler := NewTransferHandler(&transferServiceStub{
		externalFn: func(ctx context.Context, input usecase.CreateExternalTransferInput) (*usecase.ExternalTransferResult, error) {
			t.Fatal("payment should not be attempted")
			return nil, nil
		},
	})

	body, _ := json.Marshal(dto.ExternalTransferRequest{
		FromAccountID: "a1",
		PayeeID:       "bob",
		Comment:       strings.Repeat("x", domain.MaxCommentLength+1),
	})
	req := asUser(httptest.NewRequest(http.MethodPost, "/transfers/external", bytes.NewReader(body)), "alice")
	rec := httptest.NewRecorder()

	handler.External(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
