package handlers

import (
	"net/http"

	_ "github.com/Santiagociroc11/couriermart/docs"
	adminhandlers "github.com/Santiagociroc11/couriermart/internal/handlers/admin"
	notificationhandlers "github.com/Santiagociroc11/couriermart/internal/handlers/notifications"
	ordershandlers "github.com/Santiagociroc11/couriermart/internal/handlers/orders"
	wallethandlers "github.com/Santiagociroc11/couriermart/internal/handlers/wallet"
	"github.com/Santiagociroc11/couriermart/internal/domain"
	"github.com/Santiagociroc11/couriermart/internal/service"
	"github.com/Santiagociroc11/couriermart/pkg/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type OrderHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	GetOrders(w http.ResponseWriter, r *http.Request)
	GetFeed(w http.ResponseWriter, r *http.Request)
	GetOrder(w http.ResponseWriter, r *http.Request)
	Accept(w http.ResponseWriter, r *http.Request)
	Pickup(w http.ResponseWriter, r *http.Request)
	Deliver(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)
	UpdateLocation(w http.ResponseWriter, r *http.Request)
	ConfirmCODCollected(w http.ResponseWriter, r *http.Request)
}

type WalletHandler interface {
	GetBalance(w http.ResponseWriter, r *http.Request)
	GetTransactions(w http.ResponseWriter, r *http.Request)
}

type NotificationHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	MarkRead(w http.ResponseWriter, r *http.Request)
	ReportPushStatus(w http.ResponseWriter, r *http.Request)
}

type AdminHandler interface {
	Recharge(w http.ResponseWriter, r *http.Request)
	GetSettings(w http.ResponseWriter, r *http.Request)
	UpdateSettings(w http.ResponseWriter, r *http.Request)
	OverrideStatus(w http.ResponseWriter, r *http.Request)
}

type Handlers struct {
	OrderHandler        OrderHandler
	WalletHandler       WalletHandler
	NotificationHandler NotificationHandler
	AdminHandler        AdminHandler
}

func New(s *service.Services) *Handlers {
	return &Handlers{
		OrderHandler:        ordershandlers.New(s.OrderService),
		WalletHandler:       wallethandlers.New(s.WalletService),
		NotificationHandler: notificationhandlers.New(s.NotifyService),
		AdminHandler:        adminhandlers.New(s.WalletService, s.SettingsService, s.OrderService),
	}
}

func (h *Handlers) InitRoutes(r chi.Router) chi.Router {
	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("doc.json"),
	))

	// push gateways and devices report without a user token
	r.Post("/api/push/report", h.NotificationHandler.ReportPushStatus)

	r.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware)

		r.Route("/api/orders", func(r chi.Router) {
			r.Get("/", h.OrderHandler.GetOrders)
			r.With(auth.RequireRole(domain.RoleBusiness)).Post("/", h.OrderHandler.Create)

			r.With(auth.RequireRole(domain.RoleDriver)).Get("/feed", h.OrderHandler.GetFeed)

			r.Route("/{orderID}", func(r chi.Router) {
				r.Get("/", h.OrderHandler.GetOrder)
				r.Post("/cancel", h.OrderHandler.Cancel)
				r.Post("/cod-collected", h.OrderHandler.ConfirmCODCollected)

				r.Group(func(r chi.Router) {
					r.Use(auth.RequireRole(domain.RoleDriver))
					r.Post("/accept", h.OrderHandler.Accept)
					r.Post("/pickup", h.OrderHandler.Pickup)
					r.Post("/deliver", h.OrderHandler.Deliver)
					r.Post("/location", h.OrderHandler.UpdateLocation)
				})
			})
		})

		r.Route("/api/wallet", func(r chi.Router) {
			r.Get("/", h.WalletHandler.GetBalance)
			r.Get("/transactions", h.WalletHandler.GetTransactions)
		})

		r.Route("/api/notifications", func(r chi.Router) {
			r.Get("/", h.NotificationHandler.List)
			r.Post("/read", h.NotificationHandler.MarkRead)
		})

		r.Route("/api/admin", func(r chi.Router) {
			r.Use(auth.RequireRole(domain.RoleAdmin))
			r.Post("/wallet/recharge", h.AdminHandler.Recharge)
			r.Get("/settings", h.AdminHandler.GetSettings)
			r.Put("/settings", h.AdminHandler.UpdateSettings)
			r.Post("/orders/{orderID}/status", h.AdminHandler.OverrideStatus)
		})
	})

	return r
}
