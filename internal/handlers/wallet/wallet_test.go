package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/Santiagociroc11/couriermart/internal/domain"
	"github.com/Santiagociroc11/couriermart/internal/dto"
	"github.com/Santiagociroc11/couriermart/pkg/auth"
)

func NewMock(t *testing.T) (*WalletHandler, *MockService) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	handler := New(service)
	return handler, service
}

func newAuthRequest(method, target string, userID int) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	ctx := context.WithValue(req.Context(), auth.UserIDKey, userID)
	ctx = context.WithValue(ctx, auth.RoleKey, domain.RoleBusiness)
	return req.WithContext(ctx)
}

func TestGetBalanceHandler(t *testing.T) {
	tests := []struct {
		name            string
		prepareMock     func(service *MockService)
		expectedCode    int
		expectedBalance float64
	}{
		{
			name: "Existing wallet",
			prepareMock: func(service *MockService) {
				service.EXPECT().
					GetBalance(gomock.Any(), 7).
					Return(&domain.Balance{UserID: 7, Balance: 350.5}, nil)
			},
			expectedCode:    http.StatusOK,
			expectedBalance: 350.5,
		},
		{
			name: "No wallet yet",
			prepareMock: func(service *MockService) {
				service.EXPECT().
					GetBalance(gomock.Any(), 7).
					Return(nil, domain.ErrNotFound)
			},
			expectedCode:    http.StatusOK,
			expectedBalance: 0,
		},
		{
			name: "Internal error",
			prepareMock: func(service *MockService) {
				service.EXPECT().
					GetBalance(gomock.Any(), 7).
					Return(nil, errors.New("error"))
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := NewMock(t)
			tt.prepareMock(service)

			req := newAuthRequest(http.MethodGet, "/api/wallet", 7)
			rec := httptest.NewRecorder()

			handler.GetBalance(rec, req)

			assert.Equal(t, tt.expectedCode, rec.Code)
			if tt.expectedCode == http.StatusOK {
				var resp dto.BalanceResponseDTO
				assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Equal(t, tt.expectedBalance, resp.Balance)
			}
		})
	}
}

func TestGetTransactionsHandler(t *testing.T) {
	t.Run("Lists transactions", func(t *testing.T) {
		handler, service := NewMock(t)
		orderID := 42
		now := time.Now()

		service.EXPECT().
			GetTransactions(gomock.Any(), 7).
			Return([]domain.WalletTransaction{
				{ID: 2, Type: domain.TxTypeOrderDeduct, Amount: -120, BalanceAfter: 380, OrderID: &orderID, Note: "prepayment for order 42", CreatedAt: now},
				{ID: 1, Type: domain.TxTypeRecharge, Amount: 500, BalanceAfter: 500, CreatedAt: now.Add(-time.Hour)},
			}, nil)

		req := newAuthRequest(http.MethodGet, "/api/wallet/transactions", 7)
		rec := httptest.NewRecorder()

		handler.GetTransactions(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp []dto.TransactionResponseDTO
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Len(t, resp, 2)
		assert.Equal(t, -120.0, resp[0].Amount)
		assert.Equal(t, &orderID, resp[0].OrderID)
	})

	t.Run("Internal error", func(t *testing.T) {
		handler, service := NewMock(t)

		service.EXPECT().
			GetTransactions(gomock.Any(), 7).
			Return(nil, errors.New("error"))

		req := newAuthRequest(http.MethodGet, "/api/wallet/transactions", 7)
		rec := httptest.NewRecorder()

		handler.GetTransactions(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
