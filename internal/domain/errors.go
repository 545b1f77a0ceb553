package domain

import "errors"

// Shared error taxonomy. Repositories detect these conditions at the storage
// layer (conditional updates, unique indexes); services and handlers branch on
// them with errors.Is.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrAlreadyClaimed    = errors.New("order already claimed")
	ErrAlreadyProcessed  = errors.New("operation already processed")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnauthorized      = errors.New("caller is not allowed to perform this transition")
	ErrForbidden         = errors.New("caller does not own this resource")
	ErrNotFound          = errors.New("not found")
)
