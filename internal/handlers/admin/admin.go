package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Santiagociroc11/couriermart/internal/domain"
	"github.com/Santiagociroc11/couriermart/internal/dto"
	"github.com/Santiagociroc11/couriermart/internal/service/settingsservice"
	"github.com/Santiagociroc11/couriermart/pkg/auth"
	"github.com/Santiagociroc11/couriermart/pkg/utils"
)

type WalletService interface {
	Recharge(ctx context.Context, userID int, amount float64, actorID int, note string) (*domain.WalletTransaction, error)
}

type SettingsService interface {
	Get(ctx context.Context) (*settingsservice.Settings, error)
	UpdateCommissionRate(ctx context.Context, rate float64) error
	SetNotificationToggle(ctx context.Context, notificationType string, enabled bool) error
}

type OrderService interface {
	OverrideStatus(ctx context.Context, adminID, orderID int, status string) (*domain.Order, error)
}

type AdminHandler struct {
	walletService   WalletService
	settingsService SettingsService
	orderService    OrderService
}

func New(walletService WalletService, settingsService SettingsService, orderService OrderService) *AdminHandler {
	return &AdminHandler{
		walletService:   walletService,
		settingsService: settingsService,
		orderService:    orderService,
	}
}

// Recharge godoc
//
//	@Summary		Credit a business wallet
//	@Description	Records an off-platform payment as a RECHARGE transaction on the target wallet.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.RechargeRequestDTO	true	"Target user and amount"
//	@Success		200		{object}	dto.TransactionResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body or non-positive amount"
//	@Failure		403		{object}	utils.Response	"Admin role required"
//	@Failure		404		{object}	utils.Response	"User not found"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/wallet/recharge [post]
func (h *AdminHandler) Recharge(w http.ResponseWriter, r *http.Request) {
	adminID, _ := auth.CallerFromContext(r.Context())

	var req dto.RechargeRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tx, err := h.walletService.Recharge(r.Context(), req.UserID, req.Amount, adminID, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidAmount):
			utils.RespondWithError(w, http.StatusBadRequest, "amount must be positive")
		case errors.Is(err, domain.ErrNotFound):
			utils.RespondWithError(w, http.StatusNotFound, "user not found")
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dto.TransactionResponseDTO{
		ID:           tx.ID,
		Type:         tx.Type,
		Amount:       tx.Amount,
		BalanceAfter: tx.BalanceAfter,
		OrderID:      tx.OrderID,
		Note:         tx.Note,
		CreatedAt:    tx.CreatedAt,
	})
}

// GetSettings godoc
//
//	@Summary		Get platform settings
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	dto.SettingsResponseDTO
//	@Failure		403	{object}	utils.Response	"Admin role required"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/settings [get]
func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsService.Get(r.Context())
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch settings")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.SettingsResponseDTO{
		CommissionRate: settings.CommissionRate,
		Balance:        settings.Balance,
		Toggles:        settings.Toggles,
	})
}

// UpdateSettings godoc
//
//	@Summary		Update platform settings
//	@Description	Updates the commission rate and/or notification toggles. The new rate applies to payouts settled after the write.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.UpdateSettingsRequestDTO	true	"Fields to update"
//	@Success		200		{object}	dto.SettingsResponseDTO
//	@Failure		400		{object}	utils.Response	"Rate out of range or unknown notification type"
//	@Failure		403		{object}	utils.Response	"Admin role required"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/settings [put]
func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateSettingsRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.CommissionRate != nil {
		if err := h.settingsService.UpdateCommissionRate(r.Context(), *req.CommissionRate); err != nil {
			if errors.Is(err, domain.ErrInvalidAmount) {
				utils.RespondWithError(w, http.StatusBadRequest, "commission rate must be between 0 and 1")
				return
			}
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update settings")
			return
		}
	}
	for notificationType, enabled := range req.Toggles {
		if err := h.settingsService.SetNotificationToggle(r.Context(), notificationType, enabled); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				utils.RespondWithError(w, http.StatusBadRequest, "unknown notification type: "+notificationType)
				return
			}
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update settings")
			return
		}
	}

	h.GetSettings(w, r)
}

// OverrideStatus godoc
//
//	@Summary		Force an order status
//	@Description	Moves the order to any status, bypassing the role transition table. Settlement side effects still apply exactly once.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			orderID	path		int							true	"Order id"
//	@Param			request	body		dto.OverrideStatusRequestDTO	true	"Target status"
//	@Success		200		{object}	dto.OrderResponseDTO
//	@Failure		400		{object}	utils.Response	"Unknown status"
//	@Failure		403		{object}	utils.Response	"Admin role required"
//	@Failure		404		{object}	utils.Response	"Order not found"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/orders/{orderID}/status [post]
func (h *AdminHandler) OverrideStatus(w http.ResponseWriter, r *http.Request) {
	adminID, _ := auth.CallerFromContext(r.Context())
	orderID, err := strconv.Atoi(chi.URLParam(r, "orderID"))
	if err != nil || orderID <= 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req dto.OverrideStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.orderService.OverrideStatus(r.Context(), adminID, orderID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidTransition):
			utils.RespondWithError(w, http.StatusBadRequest, "unknown status: "+req.Status)
		case errors.Is(err, domain.ErrNotFound):
			utils.RespondWithError(w, http.StatusNotFound, "order not found")
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dto.OrderResponseDTO{
		ID:             order.ID,
		BusinessID:     order.BusinessID,
		DriverID:       order.DriverID,
		City:           order.City,
		Status:         order.Status,
		PaymentMethod:  order.PaymentMethod,
		Price:          order.Price,
		Distance:       order.Distance,
		ProductValue:   order.ProductValue,
		PickupAddress:  order.PickupAddress,
		DropoffAddress: order.DropoffAddress,
		CreatedAt:      order.CreatedAt,
		AcceptedAt:     order.AcceptedAt,
		PickedUpAt:     order.PickedUpAt,
		DeliveredAt:    order.DeliveredAt,
		CancelledAt:    order.CancelledAt,
	})
}
