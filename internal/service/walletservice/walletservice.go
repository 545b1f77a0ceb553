package walletservice

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Santiagociroc11/couriermart/internal/domain"
	"go.uber.org/zap"
)

type Repo interface {
	GetBalance(ctx context.Context, userID int) (*domain.Balance, error)
	CreateBalance(ctx context.Context, userID int) (*domain.Balance, error)
	ApplyTransaction(ctx context.Context, tx *domain.WalletTransaction) (*domain.WalletTransaction, error)
	CreditPlatform(ctx context.Context, orderID int, amount float64, note string) (*domain.WalletTransaction, error)
	HasOrderTransaction(ctx context.Context, orderID int, txType string) (bool, error)
	ListByUserID(ctx context.Context, userID int) ([]domain.WalletTransaction, error)
}

type Notifier interface {
	Dispatch(ctx context.Context, notificationType string, userIDs []int, payload string) error
}

// Service is the only path to an account balance. Every mutation lands as one
// conditional balance update plus one ledger row in a single database
// transaction, so the running sum of a user's rows always equals the balance.
type Service struct {
	repo     Repo
	notifier Notifier
}

func New(repo Repo, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
	}
}

func (s *Service) GetBalance(ctx context.Context, userID int) (*domain.Balance, error) {
	balance, err := s.repo.GetBalance(ctx, userID)
	if err != nil {
		zap.L().Error("failed to get balance", zap.Error(err))
		return nil, err
	}
	if balance == nil {
		return nil, domain.ErrNotFound
	}
	return balance, nil
}

func (s *Service) GetTransactions(ctx context.Context, userID int) ([]domain.WalletTransaction, error) {
	txs, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		zap.L().Error("failed to fetch wallet transactions", zap.Error(err))
		return nil, err
	}
	return txs, nil
}

// Deduct charges a prepaid order against the business account. Fails with
// ErrInsufficientFunds when the balance is lower than the amount.
func (s *Service) Deduct(ctx context.Context, userID int, amount float64, orderID int, note string) (*domain.WalletTransaction, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	tx := &domain.WalletTransaction{
		UserID:  &userID,
		Type:    domain.TxTypeOrderDeduct,
		Amount:  -amount,
		OrderID: &orderID,
		Note:    note,
	}
	applied, err := s.repo.ApplyTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}
	return applied, nil
}

// Refund returns the full prepaid price after a cancellation. Guarded so a
// retried cancellation can never credit twice.
func (s *Service) Refund(ctx context.Context, userID int, amount float64, orderID int, note string) (*domain.WalletTransaction, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	refunded, err := s.repo.HasOrderTransaction(ctx, orderID, domain.TxTypeOrderRefund)
	if err != nil {
		return nil, err
	}
	if refunded {
		return nil, domain.ErrAlreadyProcessed
	}
	tx := &domain.WalletTransaction{
		UserID:  &userID,
		Type:    domain.TxTypeOrderRefund,
		Amount:  amount,
		OrderID: &orderID,
		Note:    note,
	}
	return s.repo.ApplyTransaction(ctx, tx)
}

// Recharge credits an account on behalf of an operator. Creates the balance
// row on first use.
func (s *Service) Recharge(ctx context.Context, userID int, amount float64, actorID int, note string) (*domain.WalletTransaction, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if err := s.ensureBalance(ctx, userID); err != nil {
		return nil, err
	}
	tx := &domain.WalletTransaction{
		UserID:  &userID,
		Type:    domain.TxTypeRecharge,
		Amount:  amount,
		ActorID: &actorID,
		Note:    note,
	}
	applied, err := s.repo.ApplyTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}

	payload, _ := json.Marshal(map[string]any{
		"amount":  amount,
		"balance": applied.BalanceAfter,
	})
	if err := s.notifier.Dispatch(ctx, domain.NotifyBusinessRecharge, []int{userID}, string(payload)); err != nil {
		zap.L().Error("failed to dispatch recharge notification", zap.Error(err))
	}
	return applied, nil
}

// CreditDriver pays out the driver's share of a delivered order.
func (s *Service) CreditDriver(ctx context.Context, driverID int, amount float64, orderID int, note string) (*domain.WalletTransaction, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	paid, err := s.repo.HasOrderTransaction(ctx, orderID, domain.TxTypeDriverPay)
	if err != nil {
		return nil, err
	}
	if paid {
		return nil, domain.ErrAlreadyProcessed
	}
	if err := s.ensureBalance(ctx, driverID); err != nil {
		return nil, err
	}
	tx := &domain.WalletTransaction{
		UserID:  &driverID,
		Type:    domain.TxTypeDriverPay,
		Amount:  amount,
		OrderID: &orderID,
		Note:    note,
	}
	return s.repo.ApplyTransaction(ctx, tx)
}

// CreditPlatform accrues the platform's share of a delivered order.
func (s *Service) CreditPlatform(ctx context.Context, orderID int, amount float64, note string) (*domain.WalletTransaction, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	accrued, err := s.repo.HasOrderTransaction(ctx, orderID, domain.TxTypePlatformIncome)
	if err != nil {
		return nil, err
	}
	if accrued {
		return nil, domain.ErrAlreadyProcessed
	}
	return s.repo.CreditPlatform(ctx, orderID, amount, note)
}

func (s *Service) HasOrderTransaction(ctx context.Context, orderID int, txType string) (bool, error) {
	return s.repo.HasOrderTransaction(ctx, orderID, txType)
}

func (s *Service) ensureBalance(ctx context.Context, userID int) error {
	balance, err := s.repo.GetBalance(ctx, userID)
	if err != nil {
		return err
	}
	if balance == nil {
		if _, err := s.repo.CreateBalance(ctx, userID); err != nil {
			return fmt.Errorf("can't create balance for user %d: %w", userID, err)
		}
	}
	return nil
}
