package payoutservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/Santiagociroc11/couriermart/internal/domain"
	"github.com/Santiagociroc11/couriermart/pkg/utils"
	"go.uber.org/zap"
)

type Wallet interface {
	CreditDriver(ctx context.Context, driverID int, amount float64, orderID int, note string) (*domain.WalletTransaction, error)
	CreditPlatform(ctx context.Context, orderID int, amount float64, note string) (*domain.WalletTransaction, error)
	HasOrderTransaction(ctx context.Context, orderID int, txType string) (bool, error)
}

type SettingsRepo interface {
	Get(ctx context.Context) (*domain.PlatformSettings, error)
}

// Service splits a delivered order's price between the driver and the
// platform. The commission rate is read fresh on every payout so an admin
// change applies immediately.
type Service struct {
	wallet   Wallet
	settings SettingsRepo
}

func New(wallet Wallet, settings SettingsRepo) *Service {
	return &Service{
		wallet:   wallet,
		settings: settings,
	}
}

// PayOut credits the driver and the platform for one delivered order.
// Idempotent: a second call for the same order returns ErrAlreadyProcessed
// without crediting anything. Each half is rounded to two decimals
// independently; the halves may drift from the price by up to one cent.
func (s *Service) PayOut(ctx context.Context, order *domain.Order) error {
	if order.DriverID == nil {
		return fmt.Errorf("order %d has no assigned driver", order.ID)
	}

	paid, err := s.wallet.HasOrderTransaction(ctx, order.ID, domain.TxTypeDriverPay)
	if err != nil {
		return err
	}
	if paid {
		return domain.ErrAlreadyProcessed
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		zap.L().Error("failed to read platform settings", zap.Error(err))
		return err
	}
	rate := settings.CommissionRate

	driverAmount := utils.Round2(order.Price * (1 - rate))
	platformAmount := utils.Round2(order.Price * rate)

	note := fmt.Sprintf("payout for order %d", order.ID)
	if _, err := s.wallet.CreditDriver(ctx, *order.DriverID, driverAmount, order.ID, note); err != nil {
		if errors.Is(err, domain.ErrAlreadyProcessed) {
			return domain.ErrAlreadyProcessed
		}
		return fmt.Errorf("failed to credit driver for order %d: %w", order.ID, err)
	}
	if _, err := s.wallet.CreditPlatform(ctx, order.ID, platformAmount, note); err != nil && !errors.Is(err, domain.ErrAlreadyProcessed) {
		return fmt.Errorf("failed to credit platform for order %d: %w", order.ID, err)
	}

	zap.L().Info("order paid out",
		zap.Int("orderID", order.ID),
		zap.Float64("driverAmount", driverAmount),
		zap.Float64("platformAmount", platformAmount),
	)
	return nil
}
