package notificationrepo

import (
	"context"

	"github.com/Santiagociroc11/couriermart/internal/domain"
	"github.com/Santiagociroc11/couriermart/internal/pg"
	"go.uber.org/zap"
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, notification *domain.Notification) error {
	query := `
        INSERT INTO notifications (user_id, type, payload)
        VALUES ($1, $2, $3)
        RETURNING id, created_at
    `
	row := r.db.QueryRow(ctx, query, notification.UserID, notification.Type, notification.Payload)
	if err := row.Scan(&notification.ID, &notification.CreatedAt); err != nil {
		zap.L().Error("can't create notification", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) ListByUserID(ctx context.Context, userID int, unreadOnly bool) ([]domain.Notification, error) {
	query := `
        SELECT id, user_id, type, payload, read_at, created_at
        FROM notifications
        WHERE user_id = $1
        ORDER BY created_at DESC
    `
	if unreadOnly {
		query = `
        SELECT id, user_id, type, payload, read_at, created_at
        FROM notifications
        WHERE user_id = $1 AND read_at IS NULL
        ORDER BY created_at DESC
    `
	}
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		zap.L().Error("can't get notifications", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Payload, &n.ReadAt, &n.CreatedAt)
		if err != nil {
			zap.L().Error("can't scan notification row", zap.Error(err))
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

func (r *Repository) MarkRead(ctx context.Context, userID, notificationID int) error {
	query := `
        UPDATE notifications
        SET read_at = now()
        WHERE id = $1 AND user_id = $2 AND read_at IS NULL
    `
	tag, err := r.db.Exec(ctx, query, notificationID, userID)
	if err != nil {
		zap.L().Error("can't mark notification read", zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) MarkAllRead(ctx context.Context, userID int) (int64, error) {
	query := `
        UPDATE notifications
        SET read_at = now()
        WHERE user_id = $1 AND read_at IS NULL
    `
	tag, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		zap.L().Error("can't mark notifications read", zap.Error(err))
		return 0, err
	}
	return tag.RowsAffected(), nil
}
