package repo

import (
	"github.com/Santiagociroc11/couriermart/internal/pg"
	deliveryrepo "github.com/Santiagociroc11/couriermart/internal/repo/delivery-repo"
	notificationrepo "github.com/Santiagociroc11/couriermart/internal/repo/notification-repo"
	orderrepo "github.com/Santiagociroc11/couriermart/internal/repo/order-repo"
	settingsrepo "github.com/Santiagociroc11/couriermart/internal/repo/settings-repo"
	userrepo "github.com/Santiagociroc11/couriermart/internal/repo/user-repo"
	walletrepo "github.com/Santiagociroc11/couriermart/internal/repo/wallet-repo"
)

type Repositories struct {
	UserRepo         *userrepo.Repository
	OrderRepo        *orderrepo.Repository
	WalletRepo       *walletrepo.Repository
	SettingsRepo     *settingsrepo.Repository
	DeliveryRepo     *deliveryrepo.Repository
	NotificationRepo *notificationrepo.Repository
}

func New(conn pg.Database, txManager pg.TXManager) *Repositories {
	return &Repositories{
		UserRepo:         userrepo.New(conn),
		OrderRepo:        orderrepo.New(conn, txManager),
		WalletRepo:       walletrepo.New(conn, txManager),
		SettingsRepo:     settingsrepo.New(conn),
		DeliveryRepo:     deliveryrepo.New(conn),
		NotificationRepo: notificationrepo.New(conn),
	}
}
