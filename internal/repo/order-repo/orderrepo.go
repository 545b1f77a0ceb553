package orderrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Santiagociroc11/couriermart/internal/domain"
	"github.com/Santiagociroc11/couriermart/internal/pg"
	"go.uber.org/zap"
)

const orderColumns = `id, business_id, driver_id, city, status, payment_method, price, distance, product_value,
        pickup_address, pickup_contact, pickup_lat, pickup_lng,
        dropoff_address, dropoff_contact, dropoff_lat, dropoff_lng,
        pickup_proof_uri, delivery_proof_uri,
        last_driver_lat, last_driver_lng, last_driver_loc_at,
        reminder_count, last_reminder_at,
        created_at, accepted_at, picked_up_at, delivered_at, cancelled_at, cod_collected_at`

type Repository struct {
	db        pg.Database
	txManager pg.TXManager
}

func New(db pg.Database, txManager pg.TXManager) *Repository {
	return &Repository{
		db:        db,
		txManager: txManager,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID, &o.BusinessID, &o.DriverID, &o.City, &o.Status, &o.PaymentMethod, &o.Price, &o.Distance, &o.ProductValue,
		&o.PickupAddress, &o.PickupContact, &o.PickupLat, &o.PickupLng,
		&o.DropoffAddress, &o.DropoffContact, &o.DropoffLat, &o.DropoffLng,
		&o.PickupProofURI, &o.DeliveryProofURI,
		&o.LastDriverLat, &o.LastDriverLng, &o.LastDriverLocAt,
		&o.ReminderCount, &o.LastReminderAt,
		&o.CreatedAt, &o.AcceptedAt, &o.PickedUpAt, &o.DeliveredAt, &o.CancelledAt, &o.CODCollectedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repository) Save(ctx context.Context, order *domain.Order) error {
	query := `
        INSERT INTO orders (business_id, city, status, payment_method, price, distance, product_value,
            pickup_address, pickup_contact, pickup_lat, pickup_lng,
            dropoff_address, dropoff_contact, dropoff_lat, dropoff_lng)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
        RETURNING id, created_at
    `
	row := r.db.QueryRow(ctx, query,
		order.BusinessID, order.City, order.Status, order.PaymentMethod, order.Price, order.Distance, order.ProductValue,
		order.PickupAddress, order.PickupContact, order.PickupLat, order.PickupLng,
		order.DropoffAddress, order.DropoffContact, order.DropoffLat, order.DropoffLng)
	if err := row.Scan(&order.ID, &order.CreatedAt); err != nil {
		zap.L().Error("can't save order", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, orderID int) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	order, err := scanOrder(r.db.QueryRow(ctx, query, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find order", zap.Error(err))
		return nil, err
	}
	return order, nil
}

func (r *Repository) queryOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		zap.L().Error("can't get orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			zap.L().Error("can't scan order row", zap.Error(err))
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, nil
}

func (r *Repository) FindByBusinessID(ctx context.Context, businessID int) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE business_id = $1 ORDER BY created_at DESC`
	return r.queryOrders(ctx, query, businessID)
}

func (r *Repository) FindByDriverID(ctx context.Context, driverID int) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE driver_id = $1 ORDER BY created_at DESC`
	return r.queryOrders(ctx, query, driverID)
}

// FindOpenByCity returns the claimable feed for drivers in a city.
func (r *Repository) FindOpenByCity(ctx context.Context, city string) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
        WHERE city = $1 AND status = 'PENDING' AND driver_id IS NULL
        ORDER BY created_at ASC`
	return r.queryOrders(ctx, query, city)
}

// FindPendingUnclaimed feeds the reminder sweep.
func (r *Repository) FindPendingUnclaimed(ctx context.Context, limit uint32) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
        WHERE status = 'PENDING' AND driver_id IS NULL
        ORDER BY created_at ASC
        LIMIT $1`
	return r.queryOrders(ctx, query, int(limit))
}

// Claim assigns the order to a driver with a single conditional write: it
// succeeds only if the order is still PENDING and unclaimed at the moment of
// the update. Of N concurrent claims exactly one matches the row.
func (r *Repository) Claim(ctx context.Context, orderID, driverID int) (*domain.Order, error) {
	query := `
        UPDATE orders
        SET status = 'ACCEPTED', driver_id = $2, accepted_at = now()
        WHERE id = $1 AND status = 'PENDING' AND driver_id IS NULL
        RETURNING ` + orderColumns
	order, err := scanOrder(r.db.QueryRow(ctx, query, orderID, driverID))
	if errors.Is(err, pgx.ErrNoRows) {
		existing, findErr := r.FindByID(ctx, orderID)
		if findErr != nil {
			return nil, findErr
		}
		if existing == nil {
			return nil, domain.ErrNotFound
		}
		if existing.DriverID != nil {
			return nil, domain.ErrAlreadyClaimed
		}
		return nil, domain.ErrInvalidTransition
	}
	if err != nil {
		zap.L().Error("can't claim order", zap.Error(err))
		return nil, err
	}
	return order, nil
}

// MarkPickedUp advances ACCEPTED -> PICKED_UP for the assigned driver only.
func (r *Repository) MarkPickedUp(ctx context.Context, orderID, driverID int, proofURI string) (*domain.Order, error) {
	query := `
        UPDATE orders
        SET status = 'PICKED_UP', picked_up_at = now(), pickup_proof_uri = $3
        WHERE id = $1 AND driver_id = $2 AND status = 'ACCEPTED'
        RETURNING ` + orderColumns
	order, err := scanOrder(r.db.QueryRow(ctx, query, orderID, driverID, proofURI))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrInvalidTransition
	}
	if err != nil {
		zap.L().Error("can't mark order picked up", zap.Error(err))
		return nil, err
	}
	return order, nil
}

// MarkDelivered advances PICKED_UP -> DELIVERED for the assigned driver only.
func (r *Repository) MarkDelivered(ctx context.Context, orderID, driverID int, proofURI string) (*domain.Order, error) {
	query := `
        UPDATE orders
        SET status = 'DELIVERED', delivered_at = now(), delivery_proof_uri = $3
        WHERE id = $1 AND driver_id = $2 AND status = 'PICKED_UP'
        RETURNING ` + orderColumns
	order, err := scanOrder(r.db.QueryRow(ctx, query, orderID, driverID, proofURI))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrInvalidTransition
	}
	if err != nil {
		zap.L().Error("can't mark order delivered", zap.Error(err))
		return nil, err
	}
	return order, nil
}

// Cancel moves a PENDING or ACCEPTED order to CANCELLED. Conditional on the
// current status so a concurrent pickup wins over a late cancel.
func (r *Repository) Cancel(ctx context.Context, orderID int) (*domain.Order, error) {
	query := `
        UPDATE orders
        SET status = 'CANCELLED', cancelled_at = now()
        WHERE id = $1 AND status IN ('PENDING', 'ACCEPTED')
        RETURNING ` + orderColumns
	order, err := scanOrder(r.db.QueryRow(ctx, query, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrInvalidTransition
	}
	if err != nil {
		zap.L().Error("can't cancel order", zap.Error(err))
		return nil, err
	}
	return order, nil
}

var statusStampColumn = map[string]string{
	domain.OrderStatusAccepted:  "accepted_at",
	domain.OrderStatusPickedUp:  "picked_up_at",
	domain.OrderStatusDelivered: "delivered_at",
	domain.OrderStatusCancelled: "cancelled_at",
}

// OverrideStatus is the operator escape hatch: sets any status and stamps the
// matching timestamp.
func (r *Repository) OverrideStatus(ctx context.Context, orderID int, status string) (*domain.Order, error) {
	query := `UPDATE orders SET status = $2 WHERE id = $1 RETURNING ` + orderColumns
	if col, ok := statusStampColumn[status]; ok {
		query = fmt.Sprintf(`UPDATE orders SET status = $2, %s = now() WHERE id = $1 RETURNING `, col) + orderColumns
	}
	order, err := scanOrder(r.db.QueryRow(ctx, query, orderID, status))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		zap.L().Error("can't override order status", zap.Error(err))
		return nil, err
	}
	return order, nil
}

// UpdateDriverLocation is last-write-wins ETA data, accepted only from the
// assigned driver while the order is active.
func (r *Repository) UpdateDriverLocation(ctx context.Context, orderID, driverID int, lat, lng float64) error {
	query := `
        UPDATE orders
        SET last_driver_lat = $3, last_driver_lng = $4, last_driver_loc_at = now()
        WHERE id = $1 AND driver_id = $2 AND status IN ('ACCEPTED', 'PICKED_UP')
    `
	tag, err := r.db.Exec(ctx, query, orderID, driverID, lat, lng)
	if err != nil {
		zap.L().Error("can't update driver location", zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

// MarkReminded bumps the reminder bookkeeping after a fan-out was issued.
func (r *Repository) MarkReminded(ctx context.Context, orderID int) error {
	query := `
        UPDATE orders
        SET reminder_count = reminder_count + 1, last_reminder_at = now()
        WHERE id = $1
    `
	_, err := r.db.Exec(ctx, query, orderID)
	if err != nil {
		zap.L().Error("can't mark order reminded", zap.Error(err))
		return err
	}
	return nil
}

// SetCODCollected stamps the post-hoc COD confirmation, once.
func (r *Repository) SetCODCollected(ctx context.Context, orderID int) error {
	query := `
        UPDATE orders
        SET cod_collected_at = now()
        WHERE id = $1 AND status = 'DELIVERED' AND payment_method = 'COD' AND cod_collected_at IS NULL
    `
	tag, err := r.db.Exec(ctx, query, orderID)
	if err != nil {
		zap.L().Error("can't set cod collected", zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}
