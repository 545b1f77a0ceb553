package userrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Santiagociroc11/couriermart/internal/domain"
)

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	repo := New(mockDB)
	defer mockDB.Close()

	return repo, mockDB
}

func TestRepository_FindByID(t *testing.T) {
	repo, mock := NewMock(t)

	now := time.Now()
	query := regexp.QuoteMeta(`SELECT id, name, city, role, active, created_at FROM users WHERE id = $1`)

	mock.ExpectQuery(query).WithArgs(12).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "city", "role", "active", "created_at"}).
			AddRow(12, "Askar", "Almaty", domain.RoleDriver, true, now))
	user, err := repo.FindByID(context.Background(), 12)
	assert.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, domain.RoleDriver, user.Role)
	assert.Equal(t, "Almaty", user.City)

	mock.ExpectQuery(query).WithArgs(99).WillReturnError(pgx.ErrNoRows)
	user, err = repo.FindByID(context.Background(), 99)
	assert.NoError(t, err)
	assert.Nil(t, user)

	mock.ExpectQuery(query).WithArgs(1).WillReturnError(errors.New("database error"))
	_, err = repo.FindByID(context.Background(), 1)
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindActiveDriversByCity(t *testing.T) {
	repo, mock := NewMock(t)

	now := time.Now()
	query := regexp.QuoteMeta(`SELECT id, name, city, role, active, created_at FROM users WHERE role = 'driver' AND active = TRUE AND city = $1`)

	rows := pgxmock.NewRows([]string{"id", "name", "city", "role", "active", "created_at"}).
		AddRow(12, "Askar", "Almaty", domain.RoleDriver, true, now).
		AddRow(13, "Dana", "Almaty", domain.RoleDriver, true, now)
	mock.ExpectQuery(query).WithArgs("Almaty").WillReturnRows(rows)

	drivers, err := repo.FindActiveDriversByCity(context.Background(), "Almaty")
	assert.NoError(t, err)
	assert.Len(t, drivers, 2)
	assert.Equal(t, 12, drivers[0].ID)
	assert.Equal(t, 13, drivers[1].ID)

	mock.ExpectQuery(query).WithArgs("Astana").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "city", "role", "active", "created_at"}))
	drivers, err = repo.FindActiveDriversByCity(context.Background(), "Astana")
	assert.NoError(t, err)
	assert.Empty(t, drivers)

	assert.NoError(t, mock.ExpectationsWereMet())
}
