package wallet

import (
	"context"
	"errors"
	"net/http"

	"github.com/Santiagociroc11/couriermart/internal/domain"
	"github.com/Santiagociroc11/couriermart/internal/dto"
	"github.com/Santiagociroc11/couriermart/pkg/auth"
	"github.com/Santiagociroc11/couriermart/pkg/utils"
)

type Service interface {
	GetBalance(ctx context.Context, userID int) (*domain.Balance, error)
	GetTransactions(ctx context.Context, userID int) ([]domain.WalletTransaction, error)
}

type WalletHandler struct {
	walletService Service
}

func New(walletService Service) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
	}
}

// GetBalance godoc
//
//	@Summary		Get own wallet balance
//	@Tags			Wallet
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	dto.BalanceResponseDTO
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/wallet [get]
func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.CallerFromContext(r.Context())

	balance, err := h.walletService.GetBalance(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// no wallet yet means an empty one
			utils.RespondWithJSON(w, http.StatusOK, dto.BalanceResponseDTO{Balance: 0})
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch balance")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.BalanceResponseDTO{Balance: balance.Balance})
}

// GetTransactions godoc
//
//	@Summary		List own wallet transactions
//	@Description	Newest first. Amounts are signed, balance_after is the running balance at the time of the entry.
//	@Tags			Wallet
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		dto.TransactionResponseDTO
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/wallet/transactions [get]
func (h *WalletHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.CallerFromContext(r.Context())

	transactions, err := h.walletService.GetTransactions(r.Context(), userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch transactions")
		return
	}

	response := make([]dto.TransactionResponseDTO, len(transactions))
	for i, tx := range transactions {
		response[i] = dto.TransactionResponseDTO{
			ID:           tx.ID,
			Type:         tx.Type,
			Amount:       tx.Amount,
			BalanceAfter: tx.BalanceAfter,
			OrderID:      tx.OrderID,
			Note:         tx.Note,
			CreatedAt:    tx.CreatedAt,
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}
