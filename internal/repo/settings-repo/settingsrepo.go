package settingsrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/Santiagociroc11/couriermart/internal/domain"
	"github.com/Santiagociroc11/couriermart/internal/pg"
	"go.uber.org/zap"
)

// Repository reads and writes the platform settings singleton. Reads are
// always fresh from the row so an admin's commission or toggle change takes
// effect on the next operation; nothing here is cached process-wide.
type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Get(ctx context.Context) (*domain.PlatformSettings, error) {
	query := `
        SELECT id, commission_rate, balance, updated_at
        FROM platform_settings
        WHERE id = 1
    `
	row := r.db.QueryRow(ctx, query)
	var settings domain.PlatformSettings
	err := row.Scan(&settings.ID, &settings.CommissionRate, &settings.Balance, &settings.UpdatedAt)
	if err != nil {
		zap.L().Error("failed to get platform settings", zap.Error(err))
		return nil, err
	}
	return &settings, nil
}

func (r *Repository) UpdateCommissionRate(ctx context.Context, rate float64) error {
	query := `
        UPDATE platform_settings
        SET commission_rate = $1, updated_at = now()
        WHERE id = 1
    `
	_, err := r.db.Exec(ctx, query, rate)
	if err != nil {
		zap.L().Error("failed to update commission rate", zap.Error(err))
		return err
	}
	return nil
}

// NotificationEnabled reports the per-type push toggle. Types without a row
// are enabled.
func (r *Repository) NotificationEnabled(ctx context.Context, notificationType string) (bool, error) {
	query := `
        SELECT enabled
        FROM notification_toggles
        WHERE type = $1
    `
	row := r.db.QueryRow(ctx, query, notificationType)
	var enabled bool
	err := row.Scan(&enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		zap.L().Error("failed to get notification toggle", zap.Error(err))
		return false, err
	}
	return enabled, nil
}

func (r *Repository) SetNotificationToggle(ctx context.Context, notificationType string, enabled bool) error {
	query := `
        INSERT INTO notification_toggles (type, enabled)
        VALUES ($1, $2)
        ON CONFLICT (type) DO UPDATE SET enabled = EXCLUDED.enabled
    `
	_, err := r.db.Exec(ctx, query, notificationType, enabled)
	if err != nil {
		zap.L().Error("failed to set notification toggle", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) ListNotificationToggles(ctx context.Context) (map[string]bool, error) {
	query := `
        SELECT type, enabled
        FROM notification_toggles
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		zap.L().Error("failed to list notification toggles", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	toggles := make(map[string]bool)
	for rows.Next() {
		var notificationType string
		var enabled bool
		if err := rows.Scan(&notificationType, &enabled); err != nil {
			zap.L().Error("can't scan notification toggle row", zap.Error(err))
			return nil, err
		}
		toggles[notificationType] = enabled
	}
	return toggles, nil
}
