package dto

type SettingsResponseDTO struct {
	CommissionRate float64         `json:"commission_rate" example:"0.3"`
	Balance        float64         `json:"balance" example:"120000"`
	Toggles        map[string]bool `json:"toggles"`
}

type UpdateSettingsRequestDTO struct {
	CommissionRate *float64        `json:"commission_rate,omitempty" example:"0.25"`
	Toggles        map[string]bool `json:"toggles,omitempty"`
}

type OverrideStatusRequestDTO struct {
	Status string `json:"status" example:"CANCELLED"`
}
