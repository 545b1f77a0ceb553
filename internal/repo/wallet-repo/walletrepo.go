package walletrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Santiagociroc11/couriermart/internal/domain"
	"github.com/Santiagociroc11/couriermart/internal/pg"
	"go.uber.org/zap"
)

const pgUniqueViolation = "23505"

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

func (r *Repository) GetBalance(ctx context.Context, userID int) (*domain.Balance, error) {
	query := `
        SELECT id, user_id, balance
        FROM balances
        WHERE user_id = $1
    `
	row := r.db.QueryRow(ctx, query, userID)
	var balance domain.Balance
	err := row.Scan(&balance.ID, &balance.UserID, &balance.Balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to get balance", zap.Error(err))
		return nil, err
	}
	return &balance, nil
}

func (r *Repository) CreateBalance(ctx context.Context, userID int) (*domain.Balance, error) {
	query := `
        INSERT INTO balances (user_id, balance)
        VALUES ($1, 0)
        RETURNING id, user_id, balance
    `
	row := r.db.QueryRow(ctx, query, userID)
	var balance domain.Balance
	err := row.Scan(&balance.ID, &balance.UserID, &balance.Balance)
	if err != nil {
		zap.L().Error("failed to create balance", zap.Error(err))
		return nil, err
	}
	return &balance, nil
}

// ApplyTransaction mutates an account balance and appends the matching ledger
// row in one database transaction. The balance update is a single conditional
// write: a negative amount that would overdraw the account matches no row, so
// two concurrent deducts can never both pass the funds check. Refund and
// payout rows are additionally fenced by unique indexes on (order_id, type),
// surfaced as ErrAlreadyProcessed.
func (r *Repository) ApplyTransaction(ctx context.Context, tx *domain.WalletTransaction) (*domain.WalletTransaction, error) {
	if tx.UserID == nil {
		return nil, errors.New("wallet transaction requires an account")
	}

	updateQuery := `
        UPDATE balances
        SET balance = balance + $2
        WHERE user_id = $1 AND balance + $2 >= 0
        RETURNING balance
    `
	insertQuery := `
        INSERT INTO wallet_transactions (user_id, type, amount, balance_after, order_id, actor_id, note)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at
    `
	applied := *tx
	err := r.txManager.Begin(ctx, func(ctx context.Context) error {
		row := r.db.QueryRow(ctx, updateQuery, *tx.UserID, tx.Amount)
		if err := row.Scan(&applied.BalanceAfter); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return r.classifyNoRow(ctx, *tx.UserID)
			}
			zap.L().Error("failed to update balance", zap.Error(err))
			return err
		}

		row = r.db.QueryRow(ctx, insertQuery,
			applied.UserID, applied.Type, applied.Amount, applied.BalanceAfter,
			applied.OrderID, applied.ActorID, applied.Note)
		if err := row.Scan(&applied.ID, &applied.CreatedAt); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
				return domain.ErrAlreadyProcessed
			}
			zap.L().Error("failed to insert wallet transaction", zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &applied, nil
}

// classifyNoRow distinguishes "account missing" from "not enough balance"
// after the conditional update matched nothing.
func (r *Repository) classifyNoRow(ctx context.Context, userID int) error {
	var exists bool
	row := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM balances WHERE user_id = $1)`, userID)
	if err := row.Scan(&exists); err != nil {
		zap.L().Error("failed to check balance existence", zap.Error(err))
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrInsufficientFunds
}

// CreditPlatform adds commission to the platform's accrued balance and appends
// the PLATFORM_INCOME ledger row (user_id NULL) in one database transaction.
func (r *Repository) CreditPlatform(ctx context.Context, orderID int, amount float64, note string) (*domain.WalletTransaction, error) {
	updateQuery := `
        UPDATE platform_settings
        SET balance = balance + $1, updated_at = now()
        WHERE id = 1
        RETURNING balance
    `
	insertQuery := `
        INSERT INTO wallet_transactions (user_id, type, amount, balance_after, order_id, note)
        VALUES (NULL, $1, $2, $3, $4, $5)
        RETURNING id, created_at
    `
	applied := domain.WalletTransaction{
		Type:    domain.TxTypePlatformIncome,
		Amount:  amount,
		OrderID: &orderID,
		Note:    note,
	}
	err := r.txManager.Begin(ctx, func(ctx context.Context) error {
		row := r.db.QueryRow(ctx, updateQuery, amount)
		if err := row.Scan(&applied.BalanceAfter); err != nil {
			zap.L().Error("failed to update platform balance", zap.Error(err))
			return err
		}

		row = r.db.QueryRow(ctx, insertQuery,
			applied.Type, applied.Amount, applied.BalanceAfter, applied.OrderID, applied.Note)
		if err := row.Scan(&applied.ID, &applied.CreatedAt); err != nil {
			zap.L().Error("failed to insert platform income transaction", zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &applied, nil
}

// HasOrderTransaction is the idempotency lookup: was a row of this type
// already written for this order.
func (r *Repository) HasOrderTransaction(ctx context.Context, orderID int, txType string) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM wallet_transactions
            WHERE order_id = $1 AND type = $2
        )
    `
	var exists bool
	row := r.db.QueryRow(ctx, query, orderID, txType)
	if err := row.Scan(&exists); err != nil {
		zap.L().Error("failed to check order transaction", zap.Error(err))
		return false, err
	}
	return exists, nil
}

func (r *Repository) ListByUserID(ctx context.Context, userID int) ([]domain.WalletTransaction, error) {
	query := `
        SELECT id, user_id, type, amount, balance_after, order_id, actor_id, note, created_at
        FROM wallet_transactions
        WHERE user_id = $1
        ORDER BY created_at DESC
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		zap.L().Error("can't get wallet transactions", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var txs []domain.WalletTransaction
	for rows.Next() {
		var tx domain.WalletTransaction
		err := rows.Scan(&tx.ID, &tx.UserID, &tx.Type, &tx.Amount, &tx.BalanceAfter,
			&tx.OrderID, &tx.ActorID, &tx.Note, &tx.CreatedAt)
		if err != nil {
			zap.L().Error("can't scan wallet transaction row", zap.Error(err))
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}
