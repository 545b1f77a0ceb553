package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/Santiagociroc11/couriermart/internal/domain"
	"github.com/Santiagociroc11/couriermart/internal/dto"
	orderservice "github.com/Santiagociroc11/couriermart/internal/service/orderservice"
	"github.com/Santiagociroc11/couriermart/pkg/auth"
)

func NewMock(t *testing.T) (*OrderHandler, *MockService) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	handler := New(service)
	return handler, service
}

func newAuthRequest(method, target string, body io.Reader, userID int, role domain.Role) *http.Request {
	req := httptest.NewRequest(method, target, body)
	ctx := context.WithValue(req.Context(), auth.UserIDKey, userID)
	ctx = context.WithValue(ctx, auth.RoleKey, role)
	return req.WithContext(ctx)
}

func withOrderID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderID", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func intPtr(v int) *int { return &v }

func TestCreateHandler(t *testing.T) {
	validBody := `{"city":"Bogota","payment_method":"PREPAID","product_value":250,"pickup_address":"Cra 7 # 12-34","dropoff_address":"Cl 80 # 5-10"}`

	tests := []struct {
		name         string
		body         string
		prepareMock  func(service *MockService)
		expectedCode int
	}{
		{
			name: "Order created",
			body: validBody,
			prepareMock: func(service *MockService) {
				service.EXPECT().
					Create(gomock.Any(), 7, orderservice.CreateOrderInput{
						City:           "Bogota",
						PaymentMethod:  domain.PaymentMethodPrepaid,
						ProductValue:   250,
						PickupAddress:  "Cra 7 # 12-34",
						DropoffAddress: "Cl 80 # 5-10",
					}).
					Return(&domain.Order{ID: 42, BusinessID: 7, Status: domain.OrderStatusPending}, nil)
			},
			expectedCode: http.StatusCreated,
		},
		{
			name:         "Invalid body",
			body:         "not json",
			prepareMock:  func(service *MockService) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "Missing addresses",
			body:         `{"city":"Bogota","payment_method":"PREPAID"}`,
			prepareMock:  func(service *MockService) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "Insufficient balance",
			body: validBody,
			prepareMock: func(service *MockService) {
				service.EXPECT().
					Create(gomock.Any(), 7, gomock.Any()).
					Return(nil, domain.ErrInsufficientFunds)
			},
			expectedCode: http.StatusPaymentRequired,
		},
		{
			name: "No route",
			body: validBody,
			prepareMock: func(service *MockService) {
				service.EXPECT().
					Create(gomock.Any(), 7, gomock.Any()).
					Return(nil, orderservice.ErrNoRoute)
			},
			expectedCode: http.StatusUnprocessableEntity,
		},
		{
			name: "Unknown payment method",
			body: validBody,
			prepareMock: func(service *MockService) {
				service.EXPECT().
					Create(gomock.Any(), 7, gomock.Any()).
					Return(nil, domain.ErrInvalidAmount)
			},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "Internal error",
			body: validBody,
			prepareMock: func(service *MockService) {
				service.EXPECT().
					Create(gomock.Any(), 7, gomock.Any()).
					Return(nil, errors.New("error"))
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := NewMock(t)
			tt.prepareMock(service)

			req := newAuthRequest(http.MethodPost, "/api/orders", bytes.NewBufferString(tt.body), 7, domain.RoleBusiness)
			rec := httptest.NewRecorder()

			handler.Create(rec, req)

			assert.Equal(t, tt.expectedCode, rec.Code)
			if tt.expectedCode == http.StatusCreated {
				var resp dto.OrderResponseDTO
				assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Equal(t, 42, resp.ID)
			}
		})
	}
}

func TestGetOrdersHandler(t *testing.T) {
	t.Run("Business sees own orders", func(t *testing.T) {
		handler, service := NewMock(t)

		service.EXPECT().
			GetBusinessOrders(gomock.Any(), 7).
			Return([]domain.Order{{ID: 1, BusinessID: 7}}, nil)

		req := newAuthRequest(http.MethodGet, "/api/orders", nil, 7, domain.RoleBusiness)
		rec := httptest.NewRecorder()

		handler.GetOrders(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp []dto.OrderResponseDTO
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Len(t, resp, 1)
	})

	t.Run("Driver sees assigned orders", func(t *testing.T) {
		handler, service := NewMock(t)

		service.EXPECT().
			GetDriverOrders(gomock.Any(), 12).
			Return([]domain.Order{{ID: 2, DriverID: intPtr(12)}}, nil)

		req := newAuthRequest(http.MethodGet, "/api/orders", nil, 12, domain.RoleDriver)
		rec := httptest.NewRecorder()

		handler.GetOrders(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Internal error", func(t *testing.T) {
		handler, service := NewMock(t)

		service.EXPECT().
			GetBusinessOrders(gomock.Any(), 7).
			Return(nil, errors.New("error"))

		req := newAuthRequest(http.MethodGet, "/api/orders", nil, 7, domain.RoleBusiness)
		rec := httptest.NewRecorder()

		handler.GetOrders(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestGetFeedHandler(t *testing.T) {
	handler, service := NewMock(t)

	service.EXPECT().
		GetFeed(gomock.Any(), 12).
		Return([]domain.Order{{ID: 1, Status: domain.OrderStatusPending}}, nil)

	req := newAuthRequest(http.MethodGet, "/api/orders/feed", nil, 12, domain.RoleDriver)
	rec := httptest.NewRecorder()

	handler.GetFeed(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetOrderHandler(t *testing.T) {
	tests := []struct {
		name         string
		orderID      string
		prepareMock  func(service *MockService)
		expectedCode int
	}{
		{
			name:    "Found",
			orderID: "42",
			prepareMock: func(service *MockService) {
				service.EXPECT().
					GetOrder(gomock.Any(), 7, domain.RoleBusiness, 42).
					Return(&domain.Order{ID: 42, BusinessID: 7}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:         "Invalid id",
			orderID:      "abc",
			prepareMock:  func(service *MockService) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:    "Not found",
			orderID: "42",
			prepareMock: func(service *MockService) {
				service.EXPECT().
					GetOrder(gomock.Any(), 7, domain.RoleBusiness, 42).
					Return(nil, domain.ErrNotFound)
			},
			expectedCode: http.StatusNotFound,
		},
		{
			name:    "Forbidden",
			orderID: "42",
			prepareMock: func(service *MockService) {
				service.EXPECT().
					GetOrder(gomock.Any(), 7, domain.RoleBusiness, 42).
					Return(nil, domain.ErrForbidden)
			},
			expectedCode: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := NewMock(t)
			tt.prepareMock(service)

			req := newAuthRequest(http.MethodGet, "/api/orders/"+tt.orderID, nil, 7, domain.RoleBusiness)
			req = withOrderID(req, tt.orderID)
			rec := httptest.NewRecorder()

			handler.GetOrder(rec, req)

			assert.Equal(t, tt.expectedCode, rec.Code)
		})
	}
}

func TestAcceptHandler(t *testing.T) {
	tests := []struct {
		name         string
		prepareMock  func(service *MockService)
		expectedCode int
	}{
		{
			name: "Claimed",
			prepareMock: func(service *MockService) {
				service.EXPECT().
					Accept(gomock.Any(), 12, 42).
					Return(&domain.Order{ID: 42, DriverID: intPtr(12), Status: domain.OrderStatusAccepted}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name: "Already claimed",
			prepareMock: func(service *MockService) {
				service.EXPECT().
					Accept(gomock.Any(), 12, 42).
					Return(nil, domain.ErrAlreadyClaimed)
			},
			expectedCode: http.StatusConflict,
		},
		{
			name: "Not claimable",
			prepareMock: func(service *MockService) {
				service.EXPECT().
					Accept(gomock.Any(), 12, 42).
					Return(nil, domain.ErrInvalidTransition)
			},
			expectedCode: http.StatusUnprocessableEntity,
		},
		{
			name: "Not found",
			prepareMock: func(service *MockService) {
				service.EXPECT().
					Accept(gomock.Any(), 12, 42).
					Return(nil, domain.ErrNotFound)
			},
			expectedCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := NewMock(t)
			tt.prepareMock(service)

			req := newAuthRequest(http.MethodPost, "/api/orders/42/accept", nil, 12, domain.RoleDriver)
			req = withOrderID(req, "42")
			rec := httptest.NewRecorder()

			handler.Accept(rec, req)

			assert.Equal(t, tt.expectedCode, rec.Code)
		})
	}
}

func TestPickupHandler(t *testing.T) {
	t.Run("With proof", func(t *testing.T) {
		handler, service := NewMock(t)

		service.EXPECT().
			Pickup(gomock.Any(), 12, 42, "s3://proof/1.jpg").
			Return(&domain.Order{ID: 42, Status: domain.OrderStatusPickedUp}, nil)

		body := bytes.NewBufferString(`{"proof_uri":"s3://proof/1.jpg"}`)
		req := newAuthRequest(http.MethodPost, "/api/orders/42/pickup", body, 12, domain.RoleDriver)
		req = withOrderID(req, "42")
		rec := httptest.NewRecorder()

		handler.Pickup(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Without body", func(t *testing.T) {
		handler, service := NewMock(t)

		service.EXPECT().
			Pickup(gomock.Any(), 12, 42, "").
			Return(&domain.Order{ID: 42, Status: domain.OrderStatusPickedUp}, nil)

		req := newAuthRequest(http.MethodPost, "/api/orders/42/pickup", nil, 12, domain.RoleDriver)
		req = withOrderID(req, "42")
		rec := httptest.NewRecorder()

		handler.Pickup(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Not the assigned driver", func(t *testing.T) {
		handler, service := NewMock(t)

		service.EXPECT().
			Pickup(gomock.Any(), 99, 42, "").
			Return(nil, domain.ErrUnauthorized)

		req := newAuthRequest(http.MethodPost, "/api/orders/42/pickup", nil, 99, domain.RoleDriver)
		req = withOrderID(req, "42")
		rec := httptest.NewRecorder()

		handler.Pickup(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Invalid order id", func(t *testing.T) {
		handler, _ := NewMock(t)

		req := newAuthRequest(http.MethodPost, "/api/orders/abc/pickup", nil, 12, domain.RoleDriver)
		req = withOrderID(req, "abc")
		rec := httptest.NewRecorder()

		handler.Pickup(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDeliverHandler(t *testing.T) {
	t.Run("Delivered", func(t *testing.T) {
		handler, service := NewMock(t)

		service.EXPECT().
			Deliver(gomock.Any(), 12, 42, "s3://proof/2.jpg").
			Return(&domain.Order{ID: 42, Status: domain.OrderStatusDelivered}, nil)

		body := bytes.NewBufferString(`{"proof_uri":"s3://proof/2.jpg"}`)
		req := newAuthRequest(http.MethodPost, "/api/orders/42/deliver", body, 12, domain.RoleDriver)
		req = withOrderID(req, "42")
		rec := httptest.NewRecorder()

		handler.Deliver(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Wrong status", func(t *testing.T) {
		handler, service := NewMock(t)

		service.EXPECT().
			Deliver(gomock.Any(), 12, 42, "").
			Return(nil, domain.ErrInvalidTransition)

		req := newAuthRequest(http.MethodPost, "/api/orders/42/deliver", nil, 12, domain.RoleDriver)
		req = withOrderID(req, "42")
		rec := httptest.NewRecorder()

		handler.Deliver(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestCancelHandler(t *testing.T) {
	tests := []struct {
		name         string
		prepareMock  func(service *MockService)
		expectedCode int
	}{
		{
			name: "Cancelled",
			prepareMock: func(service *MockService) {
				service.EXPECT().
					Cancel(gomock.Any(), 7, domain.RoleBusiness, 42).
					Return(&domain.Order{ID: 42, Status: domain.OrderStatusCancelled}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name: "Not the owner",
			prepareMock: func(service *MockService) {
				service.EXPECT().
					Cancel(gomock.Any(), 7, domain.RoleBusiness, 42).
					Return(nil, domain.ErrForbidden)
			},
			expectedCode: http.StatusForbidden,
		},
		{
			name: "Too late",
			prepareMock: func(service *MockService) {
				service.EXPECT().
					Cancel(gomock.Any(), 7, domain.RoleBusiness, 42).
					Return(nil, domain.ErrInvalidTransition)
			},
			expectedCode: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := NewMock(t)
			tt.prepareMock(service)

			req := newAuthRequest(http.MethodPost, "/api/orders/42/cancel", nil, 7, domain.RoleBusiness)
			req = withOrderID(req, "42")
			rec := httptest.NewRecorder()

			handler.Cancel(rec, req)

			assert.Equal(t, tt.expectedCode, rec.Code)
		})
	}
}

func TestUpdateLocationHandler(t *testing.T) {
	t.Run("Updated", func(t *testing.T) {
		handler, service := NewMock(t)

		service.EXPECT().
			UpdateLocation(gomock.Any(), 12, 42, 4.65, -74.05).
			Return(nil)

		body := bytes.NewBufferString(`{"lat":4.65,"lng":-74.05}`)
		req := newAuthRequest(http.MethodPost, "/api/orders/42/location", body, 12, domain.RoleDriver)
		req = withOrderID(req, "42")
		rec := httptest.NewRecorder()

		handler.UpdateLocation(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Invalid body", func(t *testing.T) {
		handler, _ := NewMock(t)

		req := newAuthRequest(http.MethodPost, "/api/orders/42/location", bytes.NewBufferString("not json"), 12, domain.RoleDriver)
		req = withOrderID(req, "42")
		rec := httptest.NewRecorder()

		handler.UpdateLocation(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Order not active", func(t *testing.T) {
		handler, service := NewMock(t)

		service.EXPECT().
			UpdateLocation(gomock.Any(), 12, 42, 4.65, -74.05).
			Return(domain.ErrInvalidTransition)

		body := bytes.NewBufferString(`{"lat":4.65,"lng":-74.05}`)
		req := newAuthRequest(http.MethodPost, "/api/orders/42/location", body, 12, domain.RoleDriver)
		req = withOrderID(req, "42")
		rec := httptest.NewRecorder()

		handler.UpdateLocation(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestConfirmCODCollectedHandler(t *testing.T) {
	tests := []struct {
		name         string
		prepareMock  func(service *MockService)
		expectedCode int
	}{
		{
			name: "Confirmed",
			prepareMock: func(service *MockService) {
				service.EXPECT().
					ConfirmCODCollected(gomock.Any(), 7, domain.RoleBusiness, 42).
					Return(nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name: "Already confirmed",
			prepareMock: func(service *MockService) {
				service.EXPECT().
					ConfirmCODCollected(gomock.Any(), 7, domain.RoleBusiness, 42).
					Return(domain.ErrInvalidTransition)
			},
			expectedCode: http.StatusUnprocessableEntity,
		},
		{
			name: "Not the owner",
			prepareMock: func(service *MockService) {
				service.EXPECT().
					ConfirmCODCollected(gomock.Any(), 7, domain.RoleBusiness, 42).
					Return(domain.ErrForbidden)
			},
			expectedCode: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := NewMock(t)
			tt.prepareMock(service)

			req := newAuthRequest(http.MethodPost, "/api/orders/42/cod-collected", nil, 7, domain.RoleBusiness)
			req = withOrderID(req, "42")
			rec := httptest.NewRecorder()

			handler.ConfirmCODCollected(rec, req)

			assert.Equal(t, tt.expectedCode, rec.Code)
		})
	}
}
