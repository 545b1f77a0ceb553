package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Santiagociroc11/couriermart/internal/domain"
	"github.com/Santiagociroc11/couriermart/internal/dto"
	"github.com/Santiagociroc11/couriermart/pkg/auth"
	"github.com/Santiagociroc11/couriermart/pkg/utils"
)

type Service interface {
	ListNotifications(ctx context.Context, userID int, unreadOnly bool) ([]domain.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID int) error
	MarkAllRead(ctx context.Context, userID int) (int64, error)
	ReportStatus(ctx context.Context, deliveryID, status, errorMessage string) error
}

type NotificationHandler struct {
	notifyService Service
}

func New(notifyService Service) *NotificationHandler {
	return &NotificationHandler{
		notifyService: notifyService,
	}
}

// List godoc
//
//	@Summary		List own in-app notifications
//	@Tags			Notifications
//	@Security		BearerAuth
//	@Produce		json
//	@Param			unread	query		bool	false	"Only unread notifications"
//	@Success		200		{array}		dto.NotificationResponseDTO
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/notifications [get]
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.CallerFromContext(r.Context())
	unreadOnly := r.URL.Query().Get("unread") == "true"

	notifications, err := h.notifyService.ListNotifications(r.Context(), userID, unreadOnly)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch notifications")
		return
	}

	response := make([]dto.NotificationResponseDTO, len(notifications))
	for i, n := range notifications {
		response[i] = dto.NotificationResponseDTO{
			ID:        n.ID,
			Type:      n.Type,
			Payload:   n.Payload,
			ReadAt:    n.ReadAt,
			CreatedAt: n.CreatedAt,
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// MarkRead godoc
//
//	@Summary		Mark notifications read
//	@Description	Marks one notification read, or all of the caller's notifications when "all" is set.
//	@Tags			Notifications
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.MarkReadRequestDTO	true	"Target notification"
//	@Success		200		{object}	utils.Response
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		404		{object}	utils.Response	"Notification not found"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/notifications/read [post]
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.CallerFromContext(r.Context())

	var req dto.MarkReadRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.All {
		count, err := h.notifyService.MarkAllRead(r.Context(), userID)
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to mark notifications read")
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, utils.Response{Message: fmt.Sprintf("%d notifications marked read", count)})
		return
	}

	if req.NotificationID <= 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "notification_id is required")
		return
	}
	if err := h.notifyService.MarkRead(r.Context(), userID, req.NotificationID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "notification not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to mark notification read")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.Response{Message: "notification marked read"})
}

// ReportPushStatus godoc
//
//	@Summary		Report push delivery status
//	@Description	Called by the push gateway and client devices. Stale or out-of-order reports are ignored.
//	@Tags			Notifications
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.PushReportRequestDTO	true	"Delivery status report"
//	@Success		200		{object}	utils.Response
//	@Failure		400		{object}	utils.Response	"Invalid request body or unknown status"
//	@Failure		404		{object}	utils.Response	"Unknown delivery id"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/push/report [post]
func (h *NotificationHandler) ReportPushStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.PushReportRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DeliveryID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "delivery_id is required")
		return
	}

	err := h.notifyService.ReportStatus(r.Context(), req.DeliveryID, req.Status, req.ErrorMessage)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			utils.RespondWithError(w, http.StatusNotFound, "unknown delivery id")
		case errors.Is(err, domain.ErrInvalidTransition):
			utils.RespondWithError(w, http.StatusBadRequest, "unknown delivery status")
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.Response{Message: "status recorded"})
}
