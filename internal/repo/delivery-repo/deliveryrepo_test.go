package deliveryrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"

	"github.com/Santiagociroc11/couriermart/internal/domain"
)

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	repo := New(mockDB)
	defer mockDB.Close()

	return repo, mockDB
}

const deliveryID = "6f1c2b1e-3a9b-4d28-9f30-3f7a1f8f0b6e"

func TestRepository_Create(t *testing.T) {
	repo, mock := NewMock(t)

	now := time.Now()
	delivery := &domain.PushDelivery{
		DeliveryID: deliveryID,
		UserID:     12,
		Type:       domain.NotifyDriverNewOrder,
		Payload:    `{"orderId":42}`,
	}

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO push_deliveries (delivery_id, user_id, type, payload, status) VALUES ($1, $2, $3, $4, 'sent') RETURNING id, sent_at`)).
		WithArgs(deliveryID, 12, domain.NotifyDriverNewOrder, `{"orderId":42}`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "sent_at"}).AddRow(5, now))

	err := repo.Create(context.Background(), delivery)
	assert.NoError(t, err)
	assert.Equal(t, 5, delivery.ID)
	assert.Equal(t, domain.DeliveryStatusSent, delivery.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_MarkReceived(t *testing.T) {
	query := regexp.QuoteMeta(`UPDATE push_deliveries SET status = 'received', received_at = now() WHERE delivery_id = $1 AND status = 'sent'`)
	existsQuery := regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM push_deliveries WHERE delivery_id = $1)`)

	tests := []struct {
		name        string
		mockSetup   func(mock pgxmock.PgxPoolIface)
		expectedErr error
	}{
		{
			name: "Fresh entry is marked received",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(query).WithArgs(deliveryID).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
			expectedErr: nil,
		},
		{
			name: "Stale report after displayed is ignored",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(query).WithArgs(deliveryID).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
				mock.ExpectQuery(existsQuery).WithArgs(deliveryID).
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
			},
			expectedErr: nil,
		},
		{
			name: "Unknown delivery id",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(query).WithArgs(deliveryID).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
				mock.ExpectQuery(existsQuery).WithArgs(deliveryID).
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
			},
			expectedErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := NewMock(t)
			tt.mockSetup(mock)

			err := repo.MarkReceived(context.Background(), deliveryID)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_MarkDisplayed(t *testing.T) {
	repo, mock := NewMock(t)

	query := regexp.QuoteMeta(`UPDATE push_deliveries SET status = 'displayed', displayed_at = now(), received_at = COALESCE(received_at, now()) WHERE delivery_id = $1 AND status IN ('sent', 'received')`)

	mock.ExpectExec(query).WithArgs(deliveryID).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	assert.NoError(t, repo.MarkDisplayed(context.Background(), deliveryID))

	// repeat report matches nothing and is ignored
	mock.ExpectExec(query).WithArgs(deliveryID).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM push_deliveries WHERE delivery_id = $1)`)).
		WithArgs(deliveryID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	assert.NoError(t, repo.MarkDisplayed(context.Background(), deliveryID))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_MarkError(t *testing.T) {
	repo, mock := NewMock(t)

	query := regexp.QuoteMeta(`UPDATE push_deliveries SET status = 'error', error_message = $2 WHERE delivery_id = $1 AND status IN ('sent', 'received')`)

	mock.ExpectExec(query).WithArgs(deliveryID, "permission denied").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	assert.NoError(t, repo.MarkError(context.Background(), deliveryID, "permission denied"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_MarkFailed(t *testing.T) {
	repo, mock := NewMock(t)

	query := regexp.QuoteMeta(`UPDATE push_deliveries SET status = 'failed', error_message = $2 WHERE delivery_id = $1 AND status = 'sent'`)

	mock.ExpectExec(query).WithArgs(deliveryID, "provider timeout").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	assert.NoError(t, repo.MarkFailed(context.Background(), deliveryID, "provider timeout"))

	mock.ExpectExec(query).WithArgs(deliveryID, "provider timeout").WillReturnError(errors.New("database error"))
	assert.Error(t, repo.MarkFailed(context.Background(), deliveryID, "provider timeout"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindByDeliveryID(t *testing.T) {
	repo, mock := NewMock(t)

	query := regexp.QuoteMeta(`SELECT id, delivery_id, user_id, type, payload, status, error_message, sent_at, received_at, displayed_at FROM push_deliveries WHERE delivery_id = $1`)

	now := time.Now()
	rows := pgxmock.NewRows([]string{"id", "delivery_id", "user_id", "type", "payload", "status", "error_message", "sent_at", "received_at", "displayed_at"}).
		AddRow(5, deliveryID, 12, domain.NotifyDriverNewOrder, `{"orderId":42}`, domain.DeliveryStatusReceived, (*string)(nil), now, &now, (*time.Time)(nil))
	mock.ExpectQuery(query).WithArgs(deliveryID).WillReturnRows(rows)

	delivery, err := repo.FindByDeliveryID(context.Background(), deliveryID)
	assert.NoError(t, err)
	assert.Equal(t, domain.DeliveryStatusReceived, delivery.Status)

	mock.ExpectQuery(query).WithArgs("missing").WillReturnError(pgx.ErrNoRows)
	delivery, err = repo.FindByDeliveryID(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, delivery)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_DeleteOlderThan(t *testing.T) {
	repo, mock := NewMock(t)

	cutoff := time.Now().AddDate(0, 0, -30)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM push_deliveries WHERE sent_at < $1 AND status IN ('displayed', 'failed', 'error')`)).
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 7))

	deleted, err := repo.DeleteOlderThan(context.Background(), cutoff)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
