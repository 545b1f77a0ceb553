package deliveryrepo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

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

func (r *Repository) Create(ctx context.Context, delivery *domain.PushDelivery) error {
	query := `
        INSERT INTO push_deliveries (delivery_id, user_id, type, payload, status)
        VALUES ($1, $2, $3, $4, 'sent')
        RETURNING id, sent_at
    `
	row := r.db.QueryRow(ctx, query, delivery.DeliveryID, delivery.UserID, delivery.Type, delivery.Payload)
	if err := row.Scan(&delivery.ID, &delivery.SentAt); err != nil {
		zap.L().Error("can't create push delivery", zap.Error(err))
		return err
	}
	delivery.Status = domain.DeliveryStatusSent
	return nil
}

// MarkFailed records a send-time provider failure. Only a fresh "sent" entry
// can flip to "failed".
func (r *Repository) MarkFailed(ctx context.Context, deliveryID, errorMessage string) error {
	query := `
        UPDATE push_deliveries
        SET status = 'failed', error_message = $2
        WHERE delivery_id = $1 AND status = 'sent'
    `
	_, err := r.db.Exec(ctx, query, deliveryID, errorMessage)
	if err != nil {
		zap.L().Error("can't mark push delivery failed", zap.Error(err))
		return err
	}
	return nil
}

// MarkReceived applies the client-reported "push event fired" stage. The
// WHERE clause makes the transition monotonic: a late report after
// "displayed" matches no row and is ignored.
func (r *Repository) MarkReceived(ctx context.Context, deliveryID string) error {
	query := `
        UPDATE push_deliveries
        SET status = 'received', received_at = now()
        WHERE delivery_id = $1 AND status = 'sent'
    `
	tag, err := r.db.Exec(ctx, query, deliveryID)
	if err != nil {
		zap.L().Error("can't mark push delivery received", zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.classifyNoRow(ctx, deliveryID)
	}
	return nil
}

// MarkDisplayed applies the client-reported "notification shown" stage.
func (r *Repository) MarkDisplayed(ctx context.Context, deliveryID string) error {
	query := `
        UPDATE push_deliveries
        SET status = 'displayed', displayed_at = now(),
            received_at = COALESCE(received_at, now())
        WHERE delivery_id = $1 AND status IN ('sent', 'received')
    `
	tag, err := r.db.Exec(ctx, query, deliveryID)
	if err != nil {
		zap.L().Error("can't mark push delivery displayed", zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.classifyNoRow(ctx, deliveryID)
	}
	return nil
}

// MarkError records a client-reported display failure.
func (r *Repository) MarkError(ctx context.Context, deliveryID, errorMessage string) error {
	query := `
        UPDATE push_deliveries
        SET status = 'error', error_message = $2
        WHERE delivery_id = $1 AND status IN ('sent', 'received')
    `
	tag, err := r.db.Exec(ctx, query, deliveryID, errorMessage)
	if err != nil {
		zap.L().Error("can't mark push delivery error", zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.classifyNoRow(ctx, deliveryID)
	}
	return nil
}

// classifyNoRow separates "unknown delivery id" from "regressing report".
// Regressions are not errors: the report is simply stale.
func (r *Repository) classifyNoRow(ctx context.Context, deliveryID string) error {
	var exists bool
	row := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM push_deliveries WHERE delivery_id = $1)`, deliveryID)
	if err := row.Scan(&exists); err != nil {
		zap.L().Error("can't check push delivery existence", zap.Error(err))
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) FindByDeliveryID(ctx context.Context, deliveryID string) (*domain.PushDelivery, error) {
	query := `
        SELECT id, delivery_id, user_id, type, payload, status, error_message, sent_at, received_at, displayed_at
        FROM push_deliveries
        WHERE delivery_id = $1
    `
	row := r.db.QueryRow(ctx, query, deliveryID)
	var d domain.PushDelivery
	err := row.Scan(&d.ID, &d.DeliveryID, &d.UserID, &d.Type, &d.Payload, &d.Status,
		&d.ErrorMessage, &d.SentAt, &d.ReceivedAt, &d.DisplayedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find push delivery", zap.Error(err))
		return nil, err
	}
	return &d, nil
}

// DeleteOlderThan removes terminal entries past the retention window.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
        DELETE FROM push_deliveries
        WHERE sent_at < $1 AND status IN ('displayed', 'failed', 'error')
    `
	tag, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		zap.L().Error("can't delete old push deliveries", zap.Error(err))
		return 0, err
	}
	return tag.RowsAffected(), nil
}
