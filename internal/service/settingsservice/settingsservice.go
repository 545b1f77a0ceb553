package settingsservice

import (
	"context"
	"fmt"

	"github.com/Santiagociroc11/couriermart/internal/domain"
	"go.uber.org/zap"
)

type Repo interface {
	Get(ctx context.Context) (*domain.PlatformSettings, error)
	UpdateCommissionRate(ctx context.Context, rate float64) error
	SetNotificationToggle(ctx context.Context, notificationType string, enabled bool) error
	ListNotificationToggles(ctx context.Context) (map[string]bool, error)
}

type Service struct {
	repo Repo
}

func New(repo Repo) *Service {
	return &Service{repo: repo}
}

type Settings struct {
	CommissionRate float64
	Balance        float64
	Toggles        map[string]bool
}

func (s *Service) Get(ctx context.Context) (*Settings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	toggles, err := s.repo.ListNotificationToggles(ctx)
	if err != nil {
		return nil, err
	}
	return &Settings{
		CommissionRate: settings.CommissionRate,
		Balance:        settings.Balance,
		Toggles:        toggles,
	}, nil
}

// UpdateCommissionRate bounds the rate to [0, 1]. The new rate applies to the
// next payout: the engine reads settings fresh on every delivery.
func (s *Service) UpdateCommissionRate(ctx context.Context, rate float64) error {
	if rate < 0 || rate > 1 {
		return fmt.Errorf("%w: commission rate %v out of range", domain.ErrInvalidAmount, rate)
	}
	if err := s.repo.UpdateCommissionRate(ctx, rate); err != nil {
		return err
	}
	zap.L().Info("commission rate updated", zap.Float64("rate", rate))
	return nil
}

func (s *Service) SetNotificationToggle(ctx context.Context, notificationType string, enabled bool) error {
	switch notificationType {
	case domain.NotifyBusinessOrderAccepted, domain.NotifyBusinessOrderPickedUp,
		domain.NotifyBusinessOrderDelivered, domain.NotifyBusinessOrderCancelled,
		domain.NotifyBusinessRecharge, domain.NotifyDriverNewOrder, domain.NotifyDriverOrderCancelled:
	default:
		return fmt.Errorf("%w: unknown notification type %q", domain.ErrNotFound, notificationType)
	}
	return s.repo.SetNotificationToggle(ctx, notificationType, enabled)
}
