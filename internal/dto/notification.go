package dto

import "time"

type NotificationResponseDTO struct {
	ID        int        `json:"id" example:"5"`
	Type      string     `json:"type" example:"driverNewOrder"`
	Payload   string     `json:"payload" example:"{\"orderId\":42}"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type MarkReadRequestDTO struct {
	NotificationID int  `json:"notification_id,omitempty" example:"5"`
	All            bool `json:"all,omitempty" example:"false"`
}

type PushReportRequestDTO struct {
	DeliveryID   string `json:"delivery_id" example:"6f1c2b1e-3a9b-4d28-9f30-3f7a1f8f0b6e"`
	Status       string `json:"status" example:"received"`
	ErrorMessage string `json:"error_message,omitempty" example:"notification permission denied"`
}
