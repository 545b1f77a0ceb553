package dto

import "time"

type CreateOrderRequestDTO struct {
	City           string  `json:"city" example:"Almaty"`
	PaymentMethod  string  `json:"payment_method" example:"PREPAID"`
	ProductValue   float64 `json:"product_value,omitempty" example:"15000"`
	PickupAddress  string  `json:"pickup_address" example:"Abay Ave 10"`
	PickupContact  string  `json:"pickup_contact,omitempty" example:"+7 777 000 00 00"`
	DropoffAddress string  `json:"dropoff_address" example:"Dostyk Ave 91"`
	DropoffContact string  `json:"dropoff_contact,omitempty" example:"+7 777 111 11 11"`
}

type OrderResponseDTO struct {
	ID             int        `json:"id" example:"42"`
	BusinessID     int        `json:"business_id" example:"7"`
	DriverID       *int       `json:"driver_id,omitempty" example:"12"`
	City           string     `json:"city" example:"Almaty"`
	Status         string     `json:"status" example:"PENDING"`
	PaymentMethod  string     `json:"payment_method" example:"PREPAID"`
	Price          float64    `json:"price" example:"2500"`
	Distance       float64    `json:"distance" example:"7.4"`
	ProductValue   float64    `json:"product_value,omitempty" example:"15000"`
	PickupAddress  string     `json:"pickup_address" example:"Abay Ave 10"`
	DropoffAddress string     `json:"dropoff_address" example:"Dostyk Ave 91"`
	CreatedAt      time.Time  `json:"created_at"`
	AcceptedAt     *time.Time `json:"accepted_at,omitempty"`
	PickedUpAt     *time.Time `json:"picked_up_at,omitempty"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
}

type ProofRequestDTO struct {
	ProofURI string `json:"proof_uri,omitempty" example:"https://storage.example.com/proof/abc.jpg"`
}

type LocationRequestDTO struct {
	Lat float64 `json:"lat" example:"43.238949"`
	Lng float64 `json:"lng" example:"76.889709"`
}
