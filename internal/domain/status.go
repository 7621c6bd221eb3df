package domain

// DeliveryStatus enumerates delivery lifecycle states. The numeric values are
// part of the wire contract with the authoritative store and must not change.
type DeliveryStatus int

// List of possible delivery statuses.
const (
	StatusCancelled DeliveryStatus = 0
	StatusPending   DeliveryStatus = 1
	// StatusSearching is reserved by the wire contract and currently unused.
	StatusSearching DeliveryStatus = 2
	StatusAssigned  DeliveryStatus = 3
	StatusPickedUp  DeliveryStatus = 4
	StatusDelivered DeliveryStatus = 5
)

// Valid checks if the DeliveryStatus is a known state.
func (s DeliveryStatus) Valid() bool {
	return s >= StatusCancelled && s <= StatusDelivered
}

// Terminal reports whether the status ends the delivery lifecycle.
func (s DeliveryStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusDelivered
}

// String returns a human-readable status name.
func (s DeliveryStatus) String() string {
	switch s {
	case StatusCancelled:
		return "cancelled"
	case StatusPending:
		return "pending"
	case StatusSearching:
		return "searching"
	case StatusAssigned:
		return "assigned"
	case StatusPickedUp:
		return "picked_up"
	case StatusDelivered:
		return "delivered"
	default:
		return "unknown"
	}
}
