package clients

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func newPushMock(t *testing.T) (*PushClient, *MockHTTPClientI) {
	ctrl := gomock.NewController(t)
	mock := NewMockHTTPClientI(ctrl)
	httpClient := NewHTTPClient()
	httpClient.SetClient(mock)
	return NewPushClient("http://push:8082", httpClient), mock
}

func TestPushClient_Send(t *testing.T) {
	req := PushRequest{
		DeliveryID: "a3f1c9d2-1b2c-4d5e-8f90-123456789abc",
		UserID:     12,
		Type:       "driver_new_order",
		Payload:    `{"orderId":42}`,
	}
	wantBody := []byte(`{"delivery_id":"a3f1c9d2-1b2c-4d5e-8f90-123456789abc","user_id":12,"type":"driver_new_order","payload":"{\"orderId\":42}"}`)

	tests := []struct {
		name       string
		statusCode int
		clientErr  error
		wantErr    bool
	}{
		{name: "Accepted", statusCode: http.StatusOK},
		{name: "Created", statusCode: http.StatusCreated},
		{name: "Provider Rejects", statusCode: http.StatusBadGateway, wantErr: true},
		{name: "Transport Failure", clientErr: errors.New("connection refused"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mock := newPushMock(t)

			mock.EXPECT().Post("http://push:8082/api/push", nil, wantBody).
				Return(tt.statusCode, nil, tt.clientErr)

			err := client.Send(req)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
