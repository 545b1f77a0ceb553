package orderrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/Santiagociroc11/couriermart/internal/domain"
	"github.com/Santiagociroc11/couriermart/internal/pg"
)

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface, *pg.MockTXManager) {
	ctrl := gomock.NewController(t)
	mockTxManager := pg.NewMockTXManager(ctrl)

	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	repo := New(mockDB, mockTxManager)
	defer mockDB.Close()
	defer ctrl.Finish()

	return repo, mockDB, mockTxManager
}

const colsLine = `id, business_id, driver_id, city, status, payment_method, price, distance, product_value, pickup_address, pickup_contact, pickup_lat, pickup_lng, dropoff_address, dropoff_contact, dropoff_lat, dropoff_lng, pickup_proof_uri, delivery_proof_uri, last_driver_lat, last_driver_lng, last_driver_loc_at, reminder_count, last_reminder_at, created_at, accepted_at, picked_up_at, delivered_at, cancelled_at, cod_collected_at`

var orderCols = []string{
	"id", "business_id", "driver_id", "city", "status", "payment_method", "price", "distance", "product_value",
	"pickup_address", "pickup_contact", "pickup_lat", "pickup_lng",
	"dropoff_address", "dropoff_contact", "dropoff_lat", "dropoff_lng",
	"pickup_proof_uri", "delivery_proof_uri",
	"last_driver_lat", "last_driver_lng", "last_driver_loc_at",
	"reminder_count", "last_reminder_at",
	"created_at", "accepted_at", "picked_up_at", "delivered_at", "cancelled_at", "cod_collected_at",
}

func orderRows(o *domain.Order) *pgxmock.Rows {
	return pgxmock.NewRows(orderCols).AddRow(
		o.ID, o.BusinessID, o.DriverID, o.City, o.Status, o.PaymentMethod, o.Price, o.Distance, o.ProductValue,
		o.PickupAddress, o.PickupContact, o.PickupLat, o.PickupLng,
		o.DropoffAddress, o.DropoffContact, o.DropoffLat, o.DropoffLng,
		o.PickupProofURI, o.DeliveryProofURI,
		o.LastDriverLat, o.LastDriverLng, o.LastDriverLocAt,
		o.ReminderCount, o.LastReminderAt,
		o.CreatedAt, o.AcceptedAt, o.PickedUpAt, o.DeliveredAt, o.CancelledAt, o.CODCollectedAt,
	)
}

func fixtureOrder(status string) *domain.Order {
	return &domain.Order{
		ID:             42,
		BusinessID:     7,
		City:           "Almaty",
		Status:         status,
		PaymentMethod:  domain.PaymentMethodPrepaid,
		Price:          2500,
		Distance:       7.4,
		PickupAddress:  "Abay Ave 10",
		DropoffAddress: "Dostyk Ave 91",
		CreatedAt:      time.Now().Add(-time.Hour),
	}
}

func TestRepository_Save(t *testing.T) {
	repo, mock, _ := NewMock(t)

	order := fixtureOrder(domain.OrderStatusPending)
	order.ID = 0
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO orders`)).
		WithArgs(order.BusinessID, order.City, order.Status, order.PaymentMethod, order.Price, order.Distance, order.ProductValue,
			order.PickupAddress, order.PickupContact, order.PickupLat, order.PickupLng,
			order.DropoffAddress, order.DropoffContact, order.DropoffLat, order.DropoffLng).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(42, now))

	err := repo.Save(context.Background(), order)
	assert.NoError(t, err)
	assert.Equal(t, 42, order.ID)
	assert.Equal(t, now, order.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindByID(t *testing.T) {
	repo, mock, _ := NewMock(t)

	query := regexp.QuoteMeta(`SELECT ` + colsLine + ` FROM orders WHERE id = $1`)

	order := fixtureOrder(domain.OrderStatusPending)
	mock.ExpectQuery(query).WithArgs(42).WillReturnRows(orderRows(order))
	got, err := repo.FindByID(context.Background(), 42)
	assert.NoError(t, err)
	assert.Equal(t, order, got)

	mock.ExpectQuery(query).WithArgs(99).WillReturnError(pgx.ErrNoRows)
	got, err = repo.FindByID(context.Background(), 99)
	assert.NoError(t, err)
	assert.Nil(t, got)

	mock.ExpectQuery(query).WithArgs(1).WillReturnError(errors.New("database error"))
	_, err = repo.FindByID(context.Background(), 1)
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindOpenByCity(t *testing.T) {
	repo, mock, _ := NewMock(t)

	query := regexp.QuoteMeta(`SELECT ` + colsLine + ` FROM orders WHERE city = $1 AND status = 'PENDING' AND driver_id IS NULL ORDER BY created_at ASC`)

	first := fixtureOrder(domain.OrderStatusPending)
	second := fixtureOrder(domain.OrderStatusPending)
	second.ID = 43
	rows := orderRows(first)
	rows.AddRow(
		second.ID, second.BusinessID, second.DriverID, second.City, second.Status, second.PaymentMethod, second.Price, second.Distance, second.ProductValue,
		second.PickupAddress, second.PickupContact, second.PickupLat, second.PickupLng,
		second.DropoffAddress, second.DropoffContact, second.DropoffLat, second.DropoffLng,
		second.PickupProofURI, second.DeliveryProofURI,
		second.LastDriverLat, second.LastDriverLng, second.LastDriverLocAt,
		second.ReminderCount, second.LastReminderAt,
		second.CreatedAt, second.AcceptedAt, second.PickedUpAt, second.DeliveredAt, second.CancelledAt, second.CODCollectedAt,
	)
	mock.ExpectQuery(query).WithArgs("Almaty").WillReturnRows(rows)

	orders, err := repo.FindOpenByCity(context.Background(), "Almaty")
	assert.NoError(t, err)
	assert.Len(t, orders, 2)
	assert.Equal(t, 42, orders[0].ID)
	assert.Equal(t, 43, orders[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindPendingUnclaimed(t *testing.T) {
	repo, mock, _ := NewMock(t)

	query := regexp.QuoteMeta(`SELECT ` + colsLine + ` FROM orders WHERE status = 'PENDING' AND driver_id IS NULL ORDER BY created_at ASC LIMIT $1`)

	mock.ExpectQuery(query).WithArgs(1000).WillReturnRows(orderRows(fixtureOrder(domain.OrderStatusPending)))
	orders, err := repo.FindPendingUnclaimed(context.Background(), 1000)
	assert.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Claim(t *testing.T) {
	claimQuery := regexp.QuoteMeta(`UPDATE orders SET status = 'ACCEPTED', driver_id = $2, accepted_at = now() WHERE id = $1 AND status = 'PENDING' AND driver_id IS NULL RETURNING ` + colsLine)
	findQuery := regexp.QuoteMeta(`SELECT ` + colsLine + ` FROM orders WHERE id = $1`)

	driverID := 12

	tests := []struct {
		name        string
		mockSetup   func(mock pgxmock.PgxPoolIface)
		expectedErr error
	}{
		{
			name: "Pending unclaimed order is claimed",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				claimed := fixtureOrder(domain.OrderStatusAccepted)
				claimed.DriverID = &driverID
				mock.ExpectQuery(claimQuery).WithArgs(42, driverID).WillReturnRows(orderRows(claimed))
			},
			expectedErr: nil,
		},
		{
			name: "Order claimed by another driver",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				other := 13
				taken := fixtureOrder(domain.OrderStatusAccepted)
				taken.DriverID = &other
				mock.ExpectQuery(claimQuery).WithArgs(42, driverID).WillReturnError(pgx.ErrNoRows)
				mock.ExpectQuery(findQuery).WithArgs(42).WillReturnRows(orderRows(taken))
			},
			expectedErr: domain.ErrAlreadyClaimed,
		},
		{
			name: "Order does not exist",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(claimQuery).WithArgs(42, driverID).WillReturnError(pgx.ErrNoRows)
				mock.ExpectQuery(findQuery).WithArgs(42).WillReturnError(pgx.ErrNoRows)
			},
			expectedErr: domain.ErrNotFound,
		},
		{
			name: "Cancelled order is not claimable",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(claimQuery).WithArgs(42, driverID).WillReturnError(pgx.ErrNoRows)
				mock.ExpectQuery(findQuery).WithArgs(42).WillReturnRows(orderRows(fixtureOrder(domain.OrderStatusCancelled)))
			},
			expectedErr: domain.ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, _ := NewMock(t)
			tt.mockSetup(mock)

			order, err := repo.Claim(context.Background(), 42, driverID)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, order)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, domain.OrderStatusAccepted, order.Status)
				assert.Equal(t, &driverID, order.DriverID)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_MarkPickedUp(t *testing.T) {
	repo, mock, _ := NewMock(t)

	query := regexp.QuoteMeta(`UPDATE orders SET status = 'PICKED_UP', picked_up_at = now(), pickup_proof_uri = $3 WHERE id = $1 AND driver_id = $2 AND status = 'ACCEPTED' RETURNING ` + colsLine)

	driverID := 12
	picked := fixtureOrder(domain.OrderStatusPickedUp)
	picked.DriverID = &driverID
	picked.PickupProofURI = "proof.jpg"

	mock.ExpectQuery(query).WithArgs(42, driverID, "proof.jpg").WillReturnRows(orderRows(picked))
	order, err := repo.MarkPickedUp(context.Background(), 42, driverID, "proof.jpg")
	assert.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPickedUp, order.Status)

	mock.ExpectQuery(query).WithArgs(42, driverID, "").WillReturnError(pgx.ErrNoRows)
	_, err = repo.MarkPickedUp(context.Background(), 42, driverID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_MarkDelivered(t *testing.T) {
	repo, mock, _ := NewMock(t)

	query := regexp.QuoteMeta(`UPDATE orders SET status = 'DELIVERED', delivered_at = now(), delivery_proof_uri = $3 WHERE id = $1 AND driver_id = $2 AND status = 'PICKED_UP' RETURNING ` + colsLine)

	driverID := 12
	delivered := fixtureOrder(domain.OrderStatusDelivered)
	delivered.DriverID = &driverID

	mock.ExpectQuery(query).WithArgs(42, driverID, "").WillReturnRows(orderRows(delivered))
	order, err := repo.MarkDelivered(context.Background(), 42, driverID, "")
	assert.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, order.Status)

	mock.ExpectQuery(query).WithArgs(42, 99, "").WillReturnError(pgx.ErrNoRows)
	_, err = repo.MarkDelivered(context.Background(), 42, 99, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Cancel(t *testing.T) {
	repo, mock, _ := NewMock(t)

	query := regexp.QuoteMeta(`UPDATE orders SET status = 'CANCELLED', cancelled_at = now() WHERE id = $1 AND status IN ('PENDING', 'ACCEPTED') RETURNING ` + colsLine)

	mock.ExpectQuery(query).WithArgs(42).WillReturnRows(orderRows(fixtureOrder(domain.OrderStatusCancelled)))
	order, err := repo.Cancel(context.Background(), 42)
	assert.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, order.Status)

	mock.ExpectQuery(query).WithArgs(42).WillReturnError(pgx.ErrNoRows)
	_, err = repo.Cancel(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_OverrideStatus(t *testing.T) {
	repo, mock, _ := NewMock(t)

	stamped := regexp.QuoteMeta(`UPDATE orders SET status = $2, delivered_at = now() WHERE id = $1 RETURNING ` + colsLine)
	plain := regexp.QuoteMeta(`UPDATE orders SET status = $2 WHERE id = $1 RETURNING ` + colsLine)

	mock.ExpectQuery(stamped).
		WithArgs(42, domain.OrderStatusDelivered).
		WillReturnRows(orderRows(fixtureOrder(domain.OrderStatusDelivered)))
	order, err := repo.OverrideStatus(context.Background(), 42, domain.OrderStatusDelivered)
	assert.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, order.Status)

	mock.ExpectQuery(plain).
		WithArgs(42, domain.OrderStatusPending).
		WillReturnRows(orderRows(fixtureOrder(domain.OrderStatusPending)))
	order, err = repo.OverrideStatus(context.Background(), 42, domain.OrderStatusPending)
	assert.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)

	mock.ExpectQuery(stamped).
		WithArgs(99, domain.OrderStatusDelivered).
		WillReturnError(pgx.ErrNoRows)
	_, err = repo.OverrideStatus(context.Background(), 99, domain.OrderStatusDelivered)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateDriverLocation(t *testing.T) {
	repo, mock, _ := NewMock(t)

	query := regexp.QuoteMeta(`UPDATE orders SET last_driver_lat = $3, last_driver_lng = $4, last_driver_loc_at = now() WHERE id = $1 AND driver_id = $2 AND status IN ('ACCEPTED', 'PICKED_UP')`)

	mock.ExpectExec(query).
		WithArgs(42, 12, 43.2, 76.8).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	err := repo.UpdateDriverLocation(context.Background(), 42, 12, 43.2, 76.8)
	assert.NoError(t, err)

	mock.ExpectExec(query).
		WithArgs(42, 12, 43.2, 76.8).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	err = repo.UpdateDriverLocation(context.Background(), 42, 12, 43.2, 76.8)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_MarkReminded(t *testing.T) {
	repo, mock, _ := NewMock(t)

	query := regexp.QuoteMeta(`UPDATE orders SET reminder_count = reminder_count + 1, last_reminder_at = now() WHERE id = $1`)

	mock.ExpectExec(query).WithArgs(42).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	assert.NoError(t, repo.MarkReminded(context.Background(), 42))

	mock.ExpectExec(query).WithArgs(42).WillReturnError(errors.New("database error"))
	assert.Error(t, repo.MarkReminded(context.Background(), 42))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SetCODCollected(t *testing.T) {
	repo, mock, _ := NewMock(t)

	query := regexp.QuoteMeta(`UPDATE orders SET cod_collected_at = now() WHERE id = $1 AND status = 'DELIVERED' AND payment_method = 'COD' AND cod_collected_at IS NULL`)

	mock.ExpectExec(query).WithArgs(42).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	assert.NoError(t, repo.SetCODCollected(context.Background(), 42))

	// second confirmation matches nothing
	mock.ExpectExec(query).WithArgs(42).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.ErrorIs(t, repo.SetCODCollected(context.Background(), 42), domain.ErrInvalidTransition)

	assert.NoError(t, mock.ExpectationsWereMet())
}
