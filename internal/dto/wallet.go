package dto

import "time"

type BalanceResponseDTO struct {
	Balance float64 `json:"balance" example:"30000"`
}

type TransactionResponseDTO struct {
	ID           int       `json:"id" example:"101"`
	Type         string    `json:"type" example:"ORDER_DEDUCT"`
	Amount       float64   `json:"amount" example:"-20000"`
	BalanceAfter float64   `json:"balance_after" example:"30000"`
	OrderID      *int      `json:"order_id,omitempty" example:"42"`
	Note         string    `json:"note,omitempty" example:"prepayment for order 42"`
	CreatedAt    time.Time `json:"created_at"`
}

type RechargeRequestDTO struct {
	UserID int     `json:"user_id" example:"7"`
	Amount float64 `json:"amount" example:"50000"`
	Note   string  `json:"note,omitempty" example:"bank transfer #4411"`
}
