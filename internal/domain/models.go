package domain

import "time"

type User struct {
	ID        int       `db:"id"`
	Name      string    `db:"name"`
	City      string    `db:"city"`
	Role      Role      `db:"role"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
}

// Order statuses. Transitions between them are governed by the table in
// transition.go; nothing outside orderservice writes the status column.
const (
	OrderStatusPending   string = "PENDING"
	OrderStatusAccepted  string = "ACCEPTED"
	OrderStatusPickedUp  string = "PICKED_UP"
	OrderStatusDelivered string = "DELIVERED"
	OrderStatusCancelled string = "CANCELLED"
)

const (
	PaymentMethodPrepaid string = "PREPAID"
	PaymentMethodCOD     string = "COD"
)

type Order struct {
	ID            int     `db:"id"`
	BusinessID    int     `db:"business_id"`
	DriverID      *int    `db:"driver_id"`
	City          string  `db:"city"`
	Status        string  `db:"status"`
	PaymentMethod string  `db:"payment_method"`
	Price         float64 `db:"price"`
	Distance      float64 `db:"distance"`
	ProductValue  float64 `db:"product_value"`

	PickupAddress  string   `db:"pickup_address"`
	PickupContact  string   `db:"pickup_contact"`
	PickupLat      *float64 `db:"pickup_lat"`
	PickupLng      *float64 `db:"pickup_lng"`
	DropoffAddress string   `db:"dropoff_address"`
	DropoffContact string   `db:"dropoff_contact"`
	DropoffLat     *float64 `db:"dropoff_lat"`
	DropoffLng     *float64 `db:"dropoff_lng"`

	PickupProofURI   string `db:"pickup_proof_uri"`
	DeliveryProofURI string `db:"delivery_proof_uri"`

	LastDriverLat   *float64   `db:"last_driver_lat"`
	LastDriverLng   *float64   `db:"last_driver_lng"`
	LastDriverLocAt *time.Time `db:"last_driver_loc_at"`

	ReminderCount  int        `db:"reminder_count"`
	LastReminderAt *time.Time `db:"last_reminder_at"`

	CreatedAt      time.Time  `db:"created_at"`
	AcceptedAt     *time.Time `db:"accepted_at"`
	PickedUpAt     *time.Time `db:"picked_up_at"`
	DeliveredAt    *time.Time `db:"delivered_at"`
	CancelledAt    *time.Time `db:"cancelled_at"`
	CODCollectedAt *time.Time `db:"cod_collected_at"`
}

// Terminal reports whether the order can no longer change status.
func (o *Order) Terminal() bool {
	return o.Status == OrderStatusDelivered || o.Status == OrderStatusCancelled
}

type Balance struct {
	ID      int     `db:"id"`
	UserID  int     `db:"user_id"`
	Balance float64 `db:"balance"`
}

// Wallet transaction types. Amounts are signed: deducts are negative,
// everything else positive.
const (
	TxTypeRecharge       string = "RECHARGE"
	TxTypeOrderDeduct    string = "ORDER_DEDUCT"
	TxTypeOrderRefund    string = "ORDER_REFUND"
	TxTypeDriverPay      string = "DRIVER_PAY"
	TxTypePlatformIncome string = "PLATFORM_INCOME"
)

// WalletTransaction is append-only: created once, never updated or deleted.
// BalanceAfter is an audit snapshot taken inside the same database
// transaction as the balance update, so it always agrees with the running sum.
// UserID is nil for PLATFORM_INCOME rows, which accrue to the platform
// settings balance instead of a user account.
type WalletTransaction struct {
	ID           int       `db:"id"`
	UserID       *int      `db:"user_id"`
	Type         string    `db:"type"`
	Amount       float64   `db:"amount"`
	BalanceAfter float64   `db:"balance_after"`
	OrderID      *int      `db:"order_id"`
	ActorID      *int      `db:"actor_id"`
	Note         string    `db:"note"`
	CreatedAt    time.Time `db:"created_at"`
}

// PlatformSettings is a singleton row. CommissionRate is the fraction of the
// order price retained by the platform on delivery. Balance is the platform's
// accrued commission, mutated only by the payout engine.
type PlatformSettings struct {
	ID             int       `db:"id"`
	CommissionRate float64   `db:"commission_rate"`
	Balance        float64   `db:"balance"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Notification event types, shared by the push and in-app channels.
const (
	NotifyBusinessOrderAccepted  string = "businessOrderAccepted"
	NotifyBusinessOrderPickedUp  string = "businessOrderPickedUp"
	NotifyBusinessOrderDelivered string = "businessOrderDelivered"
	NotifyBusinessOrderCancelled string = "businessOrderCancelled"
	NotifyBusinessRecharge       string = "businessRecharge"
	NotifyDriverNewOrder         string = "driverNewOrder"
	NotifyDriverOrderCancelled   string = "driverOrderCancelled"
)

// Push delivery statuses. "failed" means the send attempt itself failed;
// "error" means the client reported a display failure.
const (
	DeliveryStatusSent      string = "sent"
	DeliveryStatusFailed    string = "failed"
	DeliveryStatusReceived  string = "received"
	DeliveryStatusDisplayed string = "displayed"
	DeliveryStatusError     string = "error"
)

// PushDelivery tracks one push attempt end to end. Each stage is stamped at
// most once and the status never regresses.
type PushDelivery struct {
	ID           int        `db:"id"`
	DeliveryID   string     `db:"delivery_id"`
	UserID       int        `db:"user_id"`
	Type         string     `db:"type"`
	Payload      string     `db:"payload"`
	Status       string     `db:"status"`
	ErrorMessage *string    `db:"error_message"`
	SentAt       time.Time  `db:"sent_at"`
	ReceivedAt   *time.Time `db:"received_at"`
	DisplayedAt  *time.Time `db:"displayed_at"`
}

// Notification is the in-app record, written even when the push channel for
// its type is disabled.
type Notification struct {
	ID        int        `db:"id"`
	UserID    int        `db:"user_id"`
	Type      string     `db:"type"`
	Payload   string     `db:"payload"`
	ReadAt    *time.Time `db:"read_at"`
	CreatedAt time.Time  `db:"created_at"`
}
