package orderservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Santiagociroc11/couriermart/internal/domain"
	"github.com/Santiagociroc11/couriermart/pkg/clients"
	"go.uber.org/zap"
)

type Repo interface {
	Save(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, orderID int) (*domain.Order, error)
	FindByBusinessID(ctx context.Context, businessID int) ([]domain.Order, error)
	FindByDriverID(ctx context.Context, driverID int) ([]domain.Order, error)
	FindOpenByCity(ctx context.Context, city string) ([]domain.Order, error)
	Claim(ctx context.Context, orderID, driverID int) (*domain.Order, error)
	MarkPickedUp(ctx context.Context, orderID, driverID int, proofURI string) (*domain.Order, error)
	MarkDelivered(ctx context.Context, orderID, driverID int, proofURI string) (*domain.Order, error)
	Cancel(ctx context.Context, orderID int) (*domain.Order, error)
	OverrideStatus(ctx context.Context, orderID int, status string) (*domain.Order, error)
	UpdateDriverLocation(ctx context.Context, orderID, driverID int, lat, lng float64) error
	SetCODCollected(ctx context.Context, orderID int) error
}

type Wallet interface {
	GetBalance(ctx context.Context, userID int) (*domain.Balance, error)
	Deduct(ctx context.Context, userID int, amount float64, orderID int, note string) (*domain.WalletTransaction, error)
	Refund(ctx context.Context, userID int, amount float64, orderID int, note string) (*domain.WalletTransaction, error)
}

type Payout interface {
	PayOut(ctx context.Context, order *domain.Order) error
}

type Notifier interface {
	Dispatch(ctx context.Context, notificationType string, userIDs []int, payload string) error
}

type Users interface {
	FindByID(ctx context.Context, userID int) (*domain.User, error)
}

type Pricing interface {
	GetQuote(city, pickupAddress, dropoffAddress string) (*clients.Quote, error)
}

// ErrNoRoute mirrors the pricing client's failure to resolve addresses or a
// city rate.
var ErrNoRoute = clients.ErrNoRoute

type Service struct {
	repo     Repo
	wallet   Wallet
	payout   Payout
	notifier Notifier
	users    Users
	pricing  Pricing
}

func New(repo Repo, wallet Wallet, payout Payout, notifier Notifier, users Users, pricing Pricing) *Service {
	return &Service{
		repo:     repo,
		wallet:   wallet,
		payout:   payout,
		notifier: notifier,
		users:    users,
		pricing:  pricing,
	}
}

type CreateOrderInput struct {
	City           string
	PaymentMethod  string
	ProductValue   float64
	PickupAddress  string
	PickupContact  string
	DropoffAddress string
	DropoffContact string
}

// Create prices the order through the external pricing service and, for
// prepaid orders, charges the business wallet before the order becomes
// visible to drivers.
func (s *Service) Create(ctx context.Context, businessID int, in CreateOrderInput) (*domain.Order, error) {
	if in.PaymentMethod != domain.PaymentMethodPrepaid && in.PaymentMethod != domain.PaymentMethodCOD {
		return nil, fmt.Errorf("%w: unknown payment method %q", domain.ErrInvalidAmount, in.PaymentMethod)
	}

	quote, err := s.pricing.GetQuote(in.City, in.PickupAddress, in.DropoffAddress)
	if err != nil {
		if errors.Is(err, clients.ErrNoRoute) {
			return nil, ErrNoRoute
		}
		zap.L().Error("pricing quote failed", zap.Error(err))
		return nil, err
	}

	if in.PaymentMethod == domain.PaymentMethodPrepaid {
		balance, err := s.wallet.GetBalance(ctx, businessID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrInsufficientFunds
			}
			return nil, err
		}
		if balance.Balance < quote.Price {
			return nil, domain.ErrInsufficientFunds
		}
	}

	order := &domain.Order{
		BusinessID:     businessID,
		City:           in.City,
		Status:         domain.OrderStatusPending,
		PaymentMethod:  in.PaymentMethod,
		Price:          quote.Price,
		Distance:       quote.Distance,
		ProductValue:   in.ProductValue,
		PickupAddress:  in.PickupAddress,
		PickupContact:  in.PickupContact,
		DropoffAddress: in.DropoffAddress,
		DropoffContact: in.DropoffContact,
	}
	if err := s.repo.Save(ctx, order); err != nil {
		zap.L().Error("can't save order", zap.Error(err))
		return nil, err
	}

	if in.PaymentMethod == domain.PaymentMethodPrepaid {
		note := fmt.Sprintf("prepayment for order %d", order.ID)
		if _, err := s.wallet.Deduct(ctx, businessID, order.Price, order.ID, note); err != nil {
			// the pre-check raced with another deduct; take the order back out
			if _, cancelErr := s.repo.OverrideStatus(ctx, order.ID, domain.OrderStatusCancelled); cancelErr != nil {
				zap.L().Error("failed to cancel unpaid order", zap.Int("orderID", order.ID), zap.Error(cancelErr))
			}
			return nil, err
		}
	}

	return order, nil
}

// Accept is the atomic claim: of N concurrent accepts on one PENDING order
// exactly one succeeds, the rest get ErrAlreadyClaimed.
func (s *Service) Accept(ctx context.Context, driverID, orderID int) (*domain.Order, error) {
	order, err := s.repo.Claim(ctx, orderID, driverID)
	if err != nil {
		return nil, err
	}

	s.notifyOrder(ctx, domain.NotifyBusinessOrderAccepted, []int{order.BusinessID}, order)
	return order, nil
}

func (s *Service) Pickup(ctx context.Context, driverID, orderID int, proofURI string) (*domain.Order, error) {
	order, err := s.repo.MarkPickedUp(ctx, orderID, driverID, proofURI)
	if err != nil {
		return nil, s.refineTransitionError(ctx, err, orderID, driverID)
	}

	s.notifyOrder(ctx, domain.NotifyBusinessOrderPickedUp, []int{order.BusinessID}, order)
	return order, nil
}

// Deliver completes the order and triggers the payout exactly once. A retried
// delivery call from the assigned driver finds the order already DELIVERED and
// re-runs the guarded payout, so a transient payout failure after the status
// flip is settled on the next attempt instead of being lost.
func (s *Service) Deliver(ctx context.Context, driverID, orderID int, proofURI string) (*domain.Order, error) {
	order, err := s.repo.MarkDelivered(ctx, orderID, driverID, proofURI)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidTransition) {
			return nil, err
		}
		current, findErr := s.repo.FindByID(ctx, orderID)
		if findErr != nil {
			return nil, findErr
		}
		if current == nil {
			return nil, domain.ErrNotFound
		}
		if current.DriverID == nil || *current.DriverID != driverID {
			return nil, domain.ErrUnauthorized
		}
		if current.Status != domain.OrderStatusDelivered {
			return nil, err
		}
		// the transition already landed; only the payout may still be pending
		if err := s.payout.PayOut(ctx, current); err != nil && !errors.Is(err, domain.ErrAlreadyProcessed) {
			zap.L().Error("payout failed", zap.Int("orderID", current.ID), zap.Error(err))
			return nil, err
		}
		return current, nil
	}

	if err := s.payout.PayOut(ctx, order); err != nil && !errors.Is(err, domain.ErrAlreadyProcessed) {
		zap.L().Error("payout failed", zap.Int("orderID", order.ID), zap.Error(err))
		return nil, err
	}

	s.notifyOrder(ctx, domain.NotifyBusinessOrderDelivered, []int{order.BusinessID}, order)
	return order, nil
}

// Cancel is available to the owning business while the order is PENDING or
// ACCEPTED, and to admins. Prepaid orders are refunded in full, exactly once.
func (s *Service) Cancel(ctx context.Context, callerID int, role domain.Role, orderID int) (*domain.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	if role == domain.RoleBusiness && order.BusinessID != callerID {
		return nil, domain.ErrForbidden
	}
	if !domain.CanTransition(order.Status, domain.OrderStatusCancelled, role) {
		return nil, domain.ErrInvalidTransition
	}

	cancelled, err := s.repo.Cancel(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := s.refundIfPrepaid(ctx, cancelled); err != nil {
		return nil, err
	}

	s.notifyOrder(ctx, domain.NotifyBusinessOrderCancelled, []int{cancelled.BusinessID}, cancelled)
	if cancelled.DriverID != nil {
		s.notifyOrder(ctx, domain.NotifyDriverOrderCancelled, []int{*cancelled.DriverID}, cancelled)
	}
	return cancelled, nil
}

// OverrideStatus is the operator escape hatch. The financial side effects of
// the target status still run through their idempotency-guarded paths, so an
// override can never double-refund or double-pay.
func (s *Service) OverrideStatus(ctx context.Context, adminID, orderID int, status string) (*domain.Order, error) {
	switch status {
	case domain.OrderStatusPending, domain.OrderStatusAccepted, domain.OrderStatusPickedUp,
		domain.OrderStatusDelivered, domain.OrderStatusCancelled:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidTransition, status)
	}

	order, err := s.repo.OverrideStatus(ctx, orderID, status)
	if err != nil {
		return nil, err
	}
	zap.L().Info("order status overridden",
		zap.Int("orderID", orderID), zap.Int("adminID", adminID), zap.String("status", status))

	switch status {
	case domain.OrderStatusDelivered:
		if order.DriverID != nil {
			if err := s.payout.PayOut(ctx, order); err != nil && !errors.Is(err, domain.ErrAlreadyProcessed) {
				return nil, err
			}
		}
		s.notifyOrder(ctx, domain.NotifyBusinessOrderDelivered, []int{order.BusinessID}, order)
	case domain.OrderStatusCancelled:
		if err := s.refundIfPrepaid(ctx, order); err != nil {
			return nil, err
		}
		s.notifyOrder(ctx, domain.NotifyBusinessOrderCancelled, []int{order.BusinessID}, order)
		if order.DriverID != nil {
			s.notifyOrder(ctx, domain.NotifyDriverOrderCancelled, []int{*order.DriverID}, order)
		}
	}
	return order, nil
}

// UpdateLocation accepts ETA coordinates from the assigned driver while the
// order is active. Last write wins.
func (s *Service) UpdateLocation(ctx context.Context, driverID, orderID int, lat, lng float64) error {
	err := s.repo.UpdateDriverLocation(ctx, orderID, driverID, lat, lng)
	if err != nil {
		return s.refineTransitionError(ctx, err, orderID, driverID)
	}
	return nil
}

// ConfirmCODCollected stamps the post-delivery COD confirmation, once. Only
// the owning business or an admin may confirm; drivers cannot.
func (s *Service) ConfirmCODCollected(ctx context.Context, callerID int, role domain.Role, orderID int) error {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return domain.ErrNotFound
	}
	switch role {
	case domain.RoleAdmin:
	case domain.RoleBusiness:
		if order.BusinessID != callerID {
			return domain.ErrForbidden
		}
	default:
		return domain.ErrForbidden
	}
	return s.repo.SetCODCollected(ctx, orderID)
}

func (s *Service) GetOrder(ctx context.Context, callerID int, role domain.Role, orderID int) (*domain.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	switch role {
	case domain.RoleAdmin:
	case domain.RoleBusiness:
		if order.BusinessID != callerID {
			return nil, domain.ErrForbidden
		}
	case domain.RoleDriver:
		assigned := order.DriverID != nil && *order.DriverID == callerID
		open := order.Status == domain.OrderStatusPending && order.DriverID == nil
		if !assigned && !open {
			return nil, domain.ErrForbidden
		}
	default:
		return nil, domain.ErrForbidden
	}
	return order, nil
}

func (s *Service) GetBusinessOrders(ctx context.Context, businessID int) ([]domain.Order, error) {
	orders, err := s.repo.FindByBusinessID(ctx, businessID)
	if err != nil {
		zap.L().Error("failed to get business orders", zap.Error(err))
		return nil, err
	}
	return orders, nil
}

func (s *Service) GetDriverOrders(ctx context.Context, driverID int) ([]domain.Order, error) {
	orders, err := s.repo.FindByDriverID(ctx, driverID)
	if err != nil {
		zap.L().Error("failed to get driver orders", zap.Error(err))
		return nil, err
	}
	return orders, nil
}

// GetFeed returns the claimable orders in the driver's own city.
func (s *Service) GetFeed(ctx context.Context, driverID int) ([]domain.Order, error) {
	driver, err := s.users.FindByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if driver == nil {
		return nil, domain.ErrNotFound
	}
	return s.repo.FindOpenByCity(ctx, driver.City)
}

func (s *Service) refundIfPrepaid(ctx context.Context, order *domain.Order) error {
	if order.PaymentMethod != domain.PaymentMethodPrepaid {
		return nil
	}
	note := fmt.Sprintf("refund for cancelled order %d", order.ID)
	_, err := s.wallet.Refund(ctx, order.BusinessID, order.Price, order.ID, note)
	if errors.Is(err, domain.ErrAlreadyProcessed) {
		// safe retry, the refund already landed
		return nil
	}
	return err
}

// refineTransitionError turns the repo's rows-matched-nothing answer into the
// error the caller should actually see: missing order, wrong driver, or a
// genuinely illegal transition.
func (s *Service) refineTransitionError(ctx context.Context, err error, orderID, driverID int) error {
	if !errors.Is(err, domain.ErrInvalidTransition) {
		return err
	}
	order, findErr := s.repo.FindByID(ctx, orderID)
	if findErr != nil {
		return findErr
	}
	if order == nil {
		return domain.ErrNotFound
	}
	if order.DriverID == nil || *order.DriverID != driverID {
		return domain.ErrUnauthorized
	}
	return err
}

func (s *Service) notifyOrder(ctx context.Context, notificationType string, userIDs []int, order *domain.Order) {
	payload, _ := json.Marshal(map[string]any{
		"orderId": order.ID,
		"status":  order.Status,
		"city":    order.City,
		"price":   order.Price,
	})
	if err := s.notifier.Dispatch(ctx, notificationType, userIDs, string(payload)); err != nil {
		zap.L().Error("failed to dispatch order notification",
			zap.String("type", notificationType), zap.Int("orderID", order.ID), zap.Error(err))
	}
}
