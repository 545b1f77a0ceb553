package domain

// Role is the closed set of caller roles. The caller's identity layer asserts
// it; everything below trusts it.
type Role string

const (
	RoleBusiness Role = "business"
	RoleDriver   Role = "driver"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleBusiness || r == RoleDriver || r == RoleAdmin
}

type transition struct {
	From string
	To   string
	Role Role
}

// transitions enumerates every legal (from, to, role) triple. Ownership checks
// (the driver must be the assigned driver, the business must own the order)
// are layered on top in orderservice; this table only answers whether the
// status change itself is legal for the role.
var transitions = map[transition]struct{}{
	{OrderStatusPending, OrderStatusAccepted, RoleDriver}:     {},
	{OrderStatusAccepted, OrderStatusPickedUp, RoleDriver}:    {},
	{OrderStatusPickedUp, OrderStatusDelivered, RoleDriver}:   {},
	{OrderStatusPending, OrderStatusCancelled, RoleBusiness}:  {},
	{OrderStatusAccepted, OrderStatusCancelled, RoleBusiness}: {},
}

// CanTransition reports whether role may move an order from one status to
// another. Admin is the operator escape hatch and may set any status.
func CanTransition(from, to string, role Role) bool {
	if role == RoleAdmin {
		return true
	}
	_, ok := transitions[transition{From: from, To: to, Role: role}]
	return ok
}

// ActiveForLocation reports whether a driver may post location updates for an
// order in this status.
func ActiveForLocation(status string) bool {
	return status == OrderStatusAccepted || status == OrderStatusPickedUp
}
