package notificationrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

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

func TestRepository_Create(t *testing.T) {
	repo, mock := NewMock(t)

	now := time.Now()
	notification := &domain.Notification{
		UserID:  12,
		Type:    domain.NotifyDriverNewOrder,
		Payload: `{"orderId":42}`,
	}

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO notifications (user_id, type, payload) VALUES ($1, $2, $3) RETURNING id, created_at`)).
		WithArgs(12, domain.NotifyDriverNewOrder, `{"orderId":42}`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(5, now))

	err := repo.Create(context.Background(), notification)
	assert.NoError(t, err)
	assert.Equal(t, 5, notification.ID)
	assert.Equal(t, now, notification.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListByUserID(t *testing.T) {
	repo, mock := NewMock(t)

	now := time.Now()
	allQuery := regexp.QuoteMeta(`SELECT id, user_id, type, payload, read_at, created_at FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`)
	unreadQuery := regexp.QuoteMeta(`SELECT id, user_id, type, payload, read_at, created_at FROM notifications WHERE user_id = $1 AND read_at IS NULL ORDER BY created_at DESC`)

	rows := pgxmock.NewRows([]string{"id", "user_id", "type", "payload", "read_at", "created_at"}).
		AddRow(2, 12, domain.NotifyDriverNewOrder, `{"orderId":43}`, (*time.Time)(nil), now).
		AddRow(1, 12, domain.NotifyDriverNewOrder, `{"orderId":42}`, &now, now.Add(-time.Hour))
	mock.ExpectQuery(allQuery).WithArgs(12).WillReturnRows(rows)

	notifications, err := repo.ListByUserID(context.Background(), 12, false)
	assert.NoError(t, err)
	assert.Len(t, notifications, 2)
	assert.Nil(t, notifications[0].ReadAt)
	assert.NotNil(t, notifications[1].ReadAt)

	unreadRows := pgxmock.NewRows([]string{"id", "user_id", "type", "payload", "read_at", "created_at"}).
		AddRow(2, 12, domain.NotifyDriverNewOrder, `{"orderId":43}`, (*time.Time)(nil), now)
	mock.ExpectQuery(unreadQuery).WithArgs(12).WillReturnRows(unreadRows)

	notifications, err = repo.ListByUserID(context.Background(), 12, true)
	assert.NoError(t, err)
	assert.Len(t, notifications, 1)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_MarkRead(t *testing.T) {
	repo, mock := NewMock(t)

	query := regexp.QuoteMeta(`UPDATE notifications SET read_at = now() WHERE id = $1 AND user_id = $2 AND read_at IS NULL`)

	mock.ExpectExec(query).WithArgs(5, 12).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	assert.NoError(t, repo.MarkRead(context.Background(), 12, 5))

	// someone else's notification matches nothing
	mock.ExpectExec(query).WithArgs(5, 13).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.ErrorIs(t, repo.MarkRead(context.Background(), 13, 5), domain.ErrNotFound)

	mock.ExpectExec(query).WithArgs(5, 12).WillReturnError(errors.New("database error"))
	assert.Error(t, repo.MarkRead(context.Background(), 12, 5))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_MarkAllRead(t *testing.T) {
	repo, mock := NewMock(t)

	query := regexp.QuoteMeta(`UPDATE notifications SET read_at = now() WHERE user_id = $1 AND read_at IS NULL`)

	mock.ExpectExec(query).WithArgs(12).WillReturnResult(pgxmock.NewResult("UPDATE", 3))
	count, err := repo.MarkAllRead(context.Background(), 12)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), count)

	assert.NoError(t, mock.ExpectationsWereMet())
}
