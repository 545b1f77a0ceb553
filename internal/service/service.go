package service

import (
	"github.com/Santiagociroc11/couriermart/internal/repo"
	notifyservice "github.com/Santiagociroc11/couriermart/internal/service/notifyservice"
	orderservice "github.com/Santiagociroc11/couriermart/internal/service/orderservice"
	payoutservice "github.com/Santiagociroc11/couriermart/internal/service/payoutservice"
	settingsservice "github.com/Santiagociroc11/couriermart/internal/service/settingsservice"
	walletservice "github.com/Santiagociroc11/couriermart/internal/service/walletservice"
	"github.com/Santiagociroc11/couriermart/pkg/clients"
)

// Services holds concrete service values so that callers outside the HTTP
// layer (the reminder sweeper, cron jobs) can consume the method subsets
// they need without extra adapters.
type Services struct {
	OrderService    *orderservice.Service
	WalletService   *walletservice.Service
	PayoutService   *payoutservice.Service
	NotifyService   *notifyservice.Service
	SettingsService *settingsservice.Service
}

func New(repo *repo.Repositories, pricing *clients.PricingClient, push *clients.PushClient) *Services {
	notifyService := notifyservice.New(repo.DeliveryRepo, repo.NotificationRepo, repo.SettingsRepo, push)
	walletService := walletservice.New(repo.WalletRepo, notifyService)
	payoutService := payoutservice.New(walletService, repo.SettingsRepo)
	orderService := orderservice.New(repo.OrderRepo, walletService, payoutService, notifyService, repo.UserRepo, pricing)
	settingsService := settingsservice.New(repo.SettingsRepo)

	return &Services{
		OrderService:    orderService,
		WalletService:   walletService,
		PayoutService:   payoutService,
		NotifyService:   notifyService,
		SettingsService: settingsService,
	}
}
