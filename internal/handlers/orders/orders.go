package orders

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Santiagociroc11/couriermart/internal/domain"
	"github.com/Santiagociroc11/couriermart/internal/dto"
	orderservice "github.com/Santiagociroc11/couriermart/internal/service/orderservice"
	"github.com/Santiagociroc11/couriermart/pkg/auth"
	"github.com/Santiagociroc11/couriermart/pkg/utils"
)

type Service interface {
	Create(ctx context.Context, businessID int, in orderservice.CreateOrderInput) (*domain.Order, error)
	Accept(ctx context.Context, driverID, orderID int) (*domain.Order, error)
	Pickup(ctx context.Context, driverID, orderID int, proofURI string) (*domain.Order, error)
	Deliver(ctx context.Context, driverID, orderID int, proofURI string) (*domain.Order, error)
	Cancel(ctx context.Context, callerID int, role domain.Role, orderID int) (*domain.Order, error)
	UpdateLocation(ctx context.Context, driverID, orderID int, lat, lng float64) error
	ConfirmCODCollected(ctx context.Context, callerID int, role domain.Role, orderID int) error
	GetOrder(ctx context.Context, callerID int, role domain.Role, orderID int) (*domain.Order, error)
	GetBusinessOrders(ctx context.Context, businessID int) ([]domain.Order, error)
	GetDriverOrders(ctx context.Context, driverID int) ([]domain.Order, error)
	GetFeed(ctx context.Context, driverID int) ([]domain.Order, error)
}

type OrderHandler struct {
	orderService Service
}

func New(orderService Service) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

func toOrderDTO(order *domain.Order) dto.OrderResponseDTO {
	return dto.OrderResponseDTO{
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
	}
}

func orderIDParam(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "orderID"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Create godoc
//
//	@Summary		Create a new delivery order
//	@Description	Price the route via the pricing service and create a PENDING order. Prepaid orders charge the business wallet up front.
//	@Tags			Orders
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.CreateOrderRequestDTO	true	"Order details"
//	@Success		201		{object}	dto.OrderResponseDTO		"Order created"
//	@Failure		400		{object}	utils.Response				"Invalid request body"
//	@Failure		402		{object}	utils.Response				"Insufficient wallet balance"
//	@Failure		422		{object}	utils.Response				"Address or city cannot be priced"
//	@Failure		500		{object}	utils.Response				"Internal server error"
//	@Router			/api/orders [post]
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.CallerFromContext(r.Context())

	var req dto.CreateOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.City == "" || req.PickupAddress == "" || req.DropoffAddress == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "city, pickup and dropoff addresses are required")
		return
	}

	order, err := h.orderService.Create(r.Context(), userID, orderservice.CreateOrderInput{
		City:           req.City,
		PaymentMethod:  req.PaymentMethod,
		ProductValue:   req.ProductValue,
		PickupAddress:  req.PickupAddress,
		PickupContact:  req.PickupContact,
		DropoffAddress: req.DropoffAddress,
		DropoffContact: req.DropoffContact,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInsufficientFunds):
			utils.RespondWithError(w, http.StatusPaymentRequired, "insufficient balance")
		case errors.Is(err, orderservice.ErrNoRoute):
			utils.RespondWithError(w, http.StatusUnprocessableEntity, "address or city cannot be priced")
		case errors.Is(err, domain.ErrInvalidAmount):
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, toOrderDTO(order))
}

// GetOrders godoc
//
//	@Summary		List own orders
//	@Description	Businesses see the orders they created, drivers the orders assigned to them.
//	@Tags			Orders
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		dto.OrderResponseDTO
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/orders [get]
func (h *OrderHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	userID, role := auth.CallerFromContext(r.Context())

	var orders []domain.Order
	var err error
	switch role {
	case domain.RoleDriver:
		orders, err = h.orderService.GetDriverOrders(r.Context(), userID)
	default:
		orders, err = h.orderService.GetBusinessOrders(r.Context(), userID)
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}

	response := make([]dto.OrderResponseDTO, len(orders))
	for i := range orders {
		response[i] = toOrderDTO(&orders[i])
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// GetFeed godoc
//
//	@Summary		List claimable orders
//	@Description	Open PENDING orders in the driver's city, oldest first.
//	@Tags			Orders
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		dto.OrderResponseDTO
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/orders/feed [get]
func (h *OrderHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.CallerFromContext(r.Context())

	orders, err := h.orderService.GetFeed(r.Context(), userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch order feed")
		return
	}

	response := make([]dto.OrderResponseDTO, len(orders))
	for i := range orders {
		response[i] = toOrderDTO(&orders[i])
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// GetOrder godoc
//
//	@Summary		Get one order
//	@Tags			Orders
//	@Security		BearerAuth
//	@Produce		json
//	@Param			orderID	path		int	true	"Order id"
//	@Success		200		{object}	dto.OrderResponseDTO
//	@Failure		403		{object}	utils.Response	"Not the owner or assigned driver"
//	@Failure		404		{object}	utils.Response	"Order not found"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/orders/{orderID} [get]
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, role := auth.CallerFromContext(r.Context())
	orderID, ok := orderIDParam(r)
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), userID, role, orderID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			utils.RespondWithError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, domain.ErrForbidden):
			utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toOrderDTO(order))
}

// Accept godoc
//
//	@Summary		Claim a pending order
//	@Description	Atomically assigns the order to the calling driver. Exactly one of any number of concurrent claims succeeds.
//	@Tags			Orders
//	@Security		BearerAuth
//	@Produce		json
//	@Param			orderID	path		int	true	"Order id"
//	@Success		200		{object}	dto.OrderResponseDTO
//	@Failure		404		{object}	utils.Response	"Order not found"
//	@Failure		409		{object}	utils.Response	"Order already claimed by another driver"
//	@Failure		422		{object}	utils.Response	"Order is not claimable"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/orders/{orderID}/accept [post]
func (h *OrderHandler) Accept(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.CallerFromContext(r.Context())
	orderID, ok := orderIDParam(r)
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.orderService.Accept(r.Context(), userID, orderID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			utils.RespondWithError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, domain.ErrAlreadyClaimed):
			utils.RespondWithError(w, http.StatusConflict, "order already claimed")
		case errors.Is(err, domain.ErrInvalidTransition):
			utils.RespondWithError(w, http.StatusUnprocessableEntity, "order is not claimable")
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toOrderDTO(order))
}

// Pickup godoc
//
//	@Summary		Mark the order picked up
//	@Tags			Orders
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			orderID	path		int					true	"Order id"
//	@Param			request	body		dto.ProofRequestDTO	false	"Pickup proof"
//	@Success		200		{object}	dto.OrderResponseDTO
//	@Failure		401		{object}	utils.Response	"Not the assigned driver"
//	@Failure		404		{object}	utils.Response	"Order not found"
//	@Failure		422		{object}	utils.Response	"Transition not allowed from current status"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/orders/{orderID}/pickup [post]
func (h *OrderHandler) Pickup(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, h.orderService.Pickup)
}

// Deliver godoc
//
//	@Summary		Mark the order delivered
//	@Description	Completes the order and triggers the driver/platform payout exactly once.
//	@Tags			Orders
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			orderID	path		int					true	"Order id"
//	@Param			request	body		dto.ProofRequestDTO	false	"Delivery proof"
//	@Success		200		{object}	dto.OrderResponseDTO
//	@Failure		401		{object}	utils.Response	"Not the assigned driver"
//	@Failure		404		{object}	utils.Response	"Order not found"
//	@Failure		422		{object}	utils.Response	"Transition not allowed from current status"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/orders/{orderID}/deliver [post]
func (h *OrderHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, h.orderService.Deliver)
}

func (h *OrderHandler) advance(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, driverID, orderID int, proofURI string) (*domain.Order, error),
) {
	userID, _ := auth.CallerFromContext(r.Context())
	orderID, ok := orderIDParam(r)
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req dto.ProofRequestDTO
	if r.Body != nil {
		// proof is optional, a missing body is fine
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	order, err := op(r.Context(), userID, orderID, req.ProofURI)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			utils.RespondWithError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, domain.ErrUnauthorized):
			utils.RespondWithError(w, http.StatusUnauthorized, "not the assigned driver")
		case errors.Is(err, domain.ErrInvalidTransition):
			utils.RespondWithError(w, http.StatusUnprocessableEntity, "transition not allowed")
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toOrderDTO(order))
}

// Cancel godoc
//
//	@Summary		Cancel an order
//	@Description	Allowed for the owning business while the order is PENDING or ACCEPTED. Prepaid orders are refunded in full.
//	@Tags			Orders
//	@Security		BearerAuth
//	@Produce		json
//	@Param			orderID	path		int	true	"Order id"
//	@Success		200		{object}	dto.OrderResponseDTO
//	@Failure		403		{object}	utils.Response	"Not the owner"
//	@Failure		404		{object}	utils.Response	"Order not found"
//	@Failure		422		{object}	utils.Response	"Order can no longer be cancelled"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/orders/{orderID}/cancel [post]
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, role := auth.CallerFromContext(r.Context())
	orderID, ok := orderIDParam(r)
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.orderService.Cancel(r.Context(), userID, role, orderID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			utils.RespondWithError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, domain.ErrForbidden):
			utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
		case errors.Is(err, domain.ErrInvalidTransition):
			utils.RespondWithError(w, http.StatusUnprocessableEntity, "order can no longer be cancelled")
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toOrderDTO(order))
}

// UpdateLocation godoc
//
//	@Summary		Post the driver's current location
//	@Description	Accepted from the assigned driver while the order is ACCEPTED or PICKED_UP. Last write wins.
//	@Tags			Orders
//	@Security		BearerAuth
//	@Accept			json
//	@Param			orderID	path		int						true	"Order id"
//	@Param			request	body		dto.LocationRequestDTO	true	"Coordinates"
//	@Success		200		{object}	utils.Response
//	@Failure		401		{object}	utils.Response	"Not the assigned driver"
//	@Failure		404		{object}	utils.Response	"Order not found"
//	@Failure		422		{object}	utils.Response	"Order is not active"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/orders/{orderID}/location [post]
func (h *OrderHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.CallerFromContext(r.Context())
	orderID, ok := orderIDParam(r)
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req dto.LocationRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.orderService.UpdateLocation(r.Context(), userID, orderID, req.Lat, req.Lng)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			utils.RespondWithError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, domain.ErrUnauthorized):
			utils.RespondWithError(w, http.StatusUnauthorized, "not the assigned driver")
		case errors.Is(err, domain.ErrInvalidTransition):
			utils.RespondWithError(w, http.StatusUnprocessableEntity, "order is not active")
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.Response{Message: "location updated"})
}

// ConfirmCODCollected godoc
//
//	@Summary		Confirm cash-on-delivery collection
//	@Description	Stamps the post-delivery COD confirmation, once.
//	@Tags			Orders
//	@Security		BearerAuth
//	@Param			orderID	path		int	true	"Order id"
//	@Success		200		{object}	utils.Response
//	@Failure		403		{object}	utils.Response	"Not the owner"
//	@Failure		404		{object}	utils.Response	"Order not found"
//	@Failure		422		{object}	utils.Response	"Order is not a delivered COD order"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/orders/{orderID}/cod-collected [post]
func (h *OrderHandler) ConfirmCODCollected(w http.ResponseWriter, r *http.Request) {
	userID, role := auth.CallerFromContext(r.Context())
	orderID, ok := orderIDParam(r)
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	err := h.orderService.ConfirmCODCollected(r.Context(), userID, role, orderID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			utils.RespondWithError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, domain.ErrForbidden):
			utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
		case errors.Is(err, domain.ErrInvalidTransition):
			utils.RespondWithError(w, http.StatusUnprocessableEntity, "order is not a delivered COD order")
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.Response{Message: "cod collection confirmed"})
}
