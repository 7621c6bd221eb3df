package domain

// Courier represents a mobile worker carrying deliveries. The record mirrors
// the authoritative profile and is kept current by inbound sync merges and
// the location-update path.
type Courier struct {
	ID                int64     `json:"id"`
	Username          string    `json:"username"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	Location          *Location `json:"location,omitempty"`
	Busy              bool      `json:"busy"`
	CurrentDeliveryID *int64    `json:"current_delivery_id,omitempty"`
	DoneDeliveries    int       `json:"done_deliveries"`
	Balance           float64   `json:"balance"`
	Rank              float64   `json:"rank"`
}

// Free reports whether the courier can take a delivery right now.
func (c *Courier) Free() bool {
	return c != nil && !c.Busy && c.Location != nil
}

// PartialCourier carries optional fields to merge into a stored courier.
// A nil field means "do not change" that attribute.
type PartialCourier struct {
	ID                int64
	Username          *string
	FirstName         *string
	LastName          *string
	Location          *Location
	Busy              *bool
	CurrentDeliveryID *int64
	DoneDeliveries    *int
	Balance           *float64
	Rank              *float64
}
