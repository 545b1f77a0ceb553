package notifyservice

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Santiagociroc11/couriermart/internal/domain"
	"github.com/Santiagociroc11/couriermart/pkg/clients"
	"go.uber.org/zap"
)

type DeliveryRepo interface {
	Create(ctx context.Context, delivery *domain.PushDelivery) error
	MarkFailed(ctx context.Context, deliveryID, errorMessage string) error
	MarkReceived(ctx context.Context, deliveryID string) error
	MarkDisplayed(ctx context.Context, deliveryID string) error
	MarkError(ctx context.Context, deliveryID, errorMessage string) error
}

type NotificationRepo interface {
	Create(ctx context.Context, notification *domain.Notification) error
	ListByUserID(ctx context.Context, userID int, unreadOnly bool) ([]domain.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID int) error
	MarkAllRead(ctx context.Context, userID int) (int64, error)
}

type SettingsRepo interface {
	NotificationEnabled(ctx context.Context, notificationType string) (bool, error)
}

type PushSender interface {
	Send(req clients.PushRequest) error
}

// Service drives both notification channels from one trigger. The in-app
// record is always written; the push goes out only when the per-type toggle
// is enabled, and every push attempt is tracked in the delivery log under a
// unique delivery id.
type Service struct {
	deliveries    DeliveryRepo
	notifications NotificationRepo
	settings      SettingsRepo
	push          PushSender
}

func New(deliveries DeliveryRepo, notifications NotificationRepo, settings SettingsRepo, push PushSender) *Service {
	return &Service{
		deliveries:    deliveries,
		notifications: notifications,
		settings:      settings,
		push:          push,
	}
}

// Dispatch fans one event out to the given users. Failures are isolated per
// user: one dead recipient never blocks the rest, and a provider failure is
// recorded on the delivery log entry rather than surfaced to the caller.
func (s *Service) Dispatch(ctx context.Context, notificationType string, userIDs []int, payload string) error {
	enabled, err := s.settings.NotificationEnabled(ctx, notificationType)
	if err != nil {
		return err
	}

	for _, userID := range userIDs {
		notification := &domain.Notification{
			UserID:  userID,
			Type:    notificationType,
			Payload: payload,
		}
		if err := s.notifications.Create(ctx, notification); err != nil {
			zap.L().Error("failed to create in-app notification",
				zap.Int("userID", userID), zap.String("type", notificationType), zap.Error(err))
			continue
		}

		if !enabled {
			continue
		}
		s.sendPush(ctx, notificationType, userID, payload)
	}
	return nil
}

func (s *Service) sendPush(ctx context.Context, notificationType string, userID int, payload string) {
	delivery := &domain.PushDelivery{
		DeliveryID: uuid.NewString(),
		UserID:     userID,
		Type:       notificationType,
		Payload:    payload,
	}
	if err := s.deliveries.Create(ctx, delivery); err != nil {
		zap.L().Error("failed to create delivery log entry",
			zap.Int("userID", userID), zap.String("type", notificationType), zap.Error(err))
		return
	}

	if err := s.push.Send(clients.PushRequest{
		DeliveryID: delivery.DeliveryID,
		UserID:     userID,
		Type:       notificationType,
		Payload:    payload,
	}); err != nil {
		zap.L().Warn("push send failed",
			zap.String("deliveryID", delivery.DeliveryID), zap.Error(err))
		if markErr := s.deliveries.MarkFailed(ctx, delivery.DeliveryID, err.Error()); markErr != nil {
			zap.L().Error("failed to mark delivery failed",
				zap.String("deliveryID", delivery.DeliveryID), zap.Error(markErr))
		}
	}
}

// ReportStatus applies a client-side delivery report. Transitions are
// monotonic; a stale report is a no-op, an unknown delivery id is
// ErrNotFound.
func (s *Service) ReportStatus(ctx context.Context, deliveryID, status, errorMessage string) error {
	switch status {
	case domain.DeliveryStatusReceived:
		return s.deliveries.MarkReceived(ctx, deliveryID)
	case domain.DeliveryStatusDisplayed:
		return s.deliveries.MarkDisplayed(ctx, deliveryID)
	case domain.DeliveryStatusError:
		return s.deliveries.MarkError(ctx, deliveryID, errorMessage)
	default:
		return fmt.Errorf("%w: unknown delivery status %q", domain.ErrInvalidTransition, status)
	}
}

func (s *Service) ListNotifications(ctx context.Context, userID int, unreadOnly bool) ([]domain.Notification, error) {
	notifications, err := s.notifications.ListByUserID(ctx, userID, unreadOnly)
	if err != nil {
		zap.L().Error("failed to list notifications", zap.Error(err))
		return nil, err
	}
	return notifications, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID int) error {
	return s.notifications.MarkRead(ctx, userID, notificationID)
}

func (s *Service) MarkAllRead(ctx context.Context, userID int) (int64, error) {
	return s.notifications.MarkAllRead(ctx, userID)
}
