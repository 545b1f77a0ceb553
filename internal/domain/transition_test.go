package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		role    Role
		allowed bool
	}{
		{"driver claims pending order", OrderStatusPending, OrderStatusAccepted, RoleDriver, true},
		{"driver picks up accepted order", OrderStatusAccepted, OrderStatusPickedUp, RoleDriver, true},
		{"driver delivers picked up order", OrderStatusPickedUp, OrderStatusDelivered, RoleDriver, true},
		{"business cancels pending order", OrderStatusPending, OrderStatusCancelled, RoleBusiness, true},
		{"business cancels accepted order", OrderStatusAccepted, OrderStatusCancelled, RoleBusiness, true},

		{"driver cannot skip pickup", OrderStatusAccepted, OrderStatusDelivered, RoleDriver, false},
		{"driver cannot deliver a pending order", OrderStatusPending, OrderStatusDelivered, RoleDriver, false},
		{"driver cannot cancel", OrderStatusPending, OrderStatusCancelled, RoleDriver, false},
		{"business cannot claim", OrderStatusPending, OrderStatusAccepted, RoleBusiness, false},
		{"business cannot cancel after pickup", OrderStatusPickedUp, OrderStatusCancelled, RoleBusiness, false},
		{"no way out of delivered", OrderStatusDelivered, OrderStatusCancelled, RoleBusiness, false},
		{"no way out of cancelled", OrderStatusCancelled, OrderStatusPending, RoleDriver, false},
		{"unknown role", OrderStatusPending, OrderStatusAccepted, Role("support"), false},

		{"admin may set any status", OrderStatusDelivered, OrderStatusPending, RoleAdmin, true},
		{"admin may resurrect cancelled", OrderStatusCancelled, OrderStatusAccepted, RoleAdmin, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to, tt.role))
		})
	}
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleBusiness.Valid())
	assert.True(t, RoleDriver.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("support").Valid())
	assert.False(t, Role("").Valid())
}

func TestOrderTerminal(t *testing.T) {
	for status, terminal := range map[string]bool{
		OrderStatusPending:   false,
		OrderStatusAccepted:  false,
		OrderStatusPickedUp:  false,
		OrderStatusDelivered: true,
		OrderStatusCancelled: true,
	} {
		o := Order{Status: status}
		assert.Equal(t, terminal, o.Terminal(), status)
	}
}

func TestActiveForLocation(t *testing.T) {
	assert.False(t, ActiveForLocation(OrderStatusPending))
	assert.True(t, ActiveForLocation(OrderStatusAccepted))
	assert.True(t, ActiveForLocation(OrderStatusPickedUp))
	assert.False(t, ActiveForLocation(OrderStatusDelivered))
	assert.False(t, ActiveForLocation(OrderStatusCancelled))
}
