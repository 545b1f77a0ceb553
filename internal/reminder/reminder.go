package reminder

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Santiagociroc11/couriermart/internal/config"
	"github.com/Santiagociroc11/couriermart/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var sweepingOrders sync.Map

type OrderRepo interface {
	FindPendingUnclaimed(ctx context.Context, limit uint32) ([]domain.Order, error)
	MarkReminded(ctx context.Context, orderID int) error
}

type UserRepo interface {
	FindActiveDriversByCity(ctx context.Context, city string) ([]domain.User, error)
}

type Notifier interface {
	Dispatch(ctx context.Context, notificationType string, userIDs []int, payload string) error
}

// Service periodically re-notifies drivers about stale unclaimed orders.
// Fan-out is at-least-once: the reminder bookkeeping is bumped only after the
// dispatch was issued, so a crash in between repeats a reminder instead of
// dropping one. Duplicate reminders are tolerable, missed ones are not.
type Service struct {
	orderRepo  OrderRepo
	userRepo   UserRepo
	notifier   Notifier
	limit      uint32
	workerPool WorkerPoolI

	sweepInterval time.Duration
	firstDelay    time.Duration
	interval      time.Duration
	maxReminders  int

	now func() time.Time
}

func New(cfg *config.Config, orderRepo OrderRepo, userRepo UserRepo, notifier Notifier) *Service {
	return &Service{
		orderRepo:     orderRepo,
		userRepo:      userRepo,
		notifier:      notifier,
		limit:         1000,
		workerPool:    NewWorkerPool(10),
		sweepInterval: cfg.ReminderSweepInterval,
		firstDelay:    cfg.ReminderFirstDelay,
		interval:      cfg.ReminderInterval,
		maxReminders:  cfg.ReminderMax,
		now:           time.Now,
	}
}

func (s *Service) Start(ctx context.Context) {
	zap.L().Info("Reminder service started")
	go s.run(ctx)
}

func (s *Service) run(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("Context canceled, stopping reminder service")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Service) sweep(ctx context.Context) {
	orders, err := s.orderRepo.FindPendingUnclaimed(ctx, s.limit)
	if err != nil {
		zap.L().Error("Failed to fetch orders for reminding", zap.Error(err))
		return
	}

	now := s.now()
	var g errgroup.Group
	for _, order := range orders {
		order := order

		if !s.due(&order, now) {
			continue
		}
		if _, loaded := sweepingOrders.LoadOrStore(order.ID, struct{}{}); loaded {
			continue
		}

		g.Go(func() error {
			err := s.workerPool.AddTask(ctx, func() error {
				defer sweepingOrders.Delete(order.ID)
				return s.remind(ctx, order)
			})
			if err != nil {
				sweepingOrders.Delete(order.ID)
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		zap.L().Error("Error sweeping orders", zap.Error(err))
	}
}

// due applies the escalating backoff policy: first reminder after firstDelay,
// then one per interval, capped at maxReminders.
func (s *Service) due(order *domain.Order, now time.Time) bool {
	if order.ReminderCount >= s.maxReminders {
		return false
	}
	if order.ReminderCount == 0 {
		return now.Sub(order.CreatedAt) >= s.firstDelay
	}
	last := order.CreatedAt
	if order.LastReminderAt != nil {
		last = *order.LastReminderAt
	}
	return now.Sub(last) >= s.interval
}

func (s *Service) remind(ctx context.Context, order domain.Order) error {
	drivers, err := s.userRepo.FindActiveDriversByCity(ctx, order.City)
	if err != nil {
		return err
	}

	if len(drivers) > 0 {
		userIDs := make([]int, len(drivers))
		for i, driver := range drivers {
			userIDs[i] = driver.ID
		}
		payload, _ := json.Marshal(map[string]any{
			"orderId": order.ID,
			"city":    order.City,
			"price":   order.Price,
		})
		if err := s.notifier.Dispatch(ctx, domain.NotifyDriverNewOrder, userIDs, string(payload)); err != nil {
			return err
		}
	}

	// bookkeeping strictly after the fan-out was issued
	if err := s.orderRepo.MarkReminded(ctx, order.ID); err != nil {
		return err
	}

	zap.L().Info("Order reminder sent",
		zap.Int("orderID", order.ID),
		zap.Int("drivers", len(drivers)),
		zap.Int("reminderCount", order.ReminderCount+1),
	)
	return nil
}
