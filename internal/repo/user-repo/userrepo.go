package userrepo

import (
	"context"
	"errors"

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

func (r *Repository) FindByID(ctx context.Context, userID int) (*domain.User, error) {
	query := `
        SELECT id, name, city, role, active, created_at
        FROM users
        WHERE id = $1
    `
	row := r.db.QueryRow(ctx, query, userID)
	var user domain.User
	err := row.Scan(&user.ID, &user.Name, &user.City, &user.Role, &user.Active, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find user", zap.Error(err))
		return nil, err
	}
	return &user, nil
}

// FindActiveDriversByCity returns the fan-out targets for new-order reminders.
func (r *Repository) FindActiveDriversByCity(ctx context.Context, city string) ([]domain.User, error) {
	query := `
        SELECT id, name, city, role, active, created_at
        FROM users
        WHERE role = 'driver' AND active = TRUE AND city = $1
    `
	rows, err := r.db.Query(ctx, query, city)
	if err != nil {
		zap.L().Error("can't get active drivers", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var drivers []domain.User
	for rows.Next() {
		var user domain.User
		err := rows.Scan(&user.ID, &user.Name, &user.City, &user.Role, &user.Active, &user.CreatedAt)
		if err != nil {
			zap.L().Error("can't scan driver row", zap.Error(err))
			return nil, err
		}
		drivers = append(drivers, user)
	}
	return drivers, nil
}
