package domain

import "time"

// Delivery is a single delivery job mirrored from the authoritative store.
// Pickup is where the goods are collected, Consumer is the drop-off point.
type Delivery struct {
	ID                 int64          `json:"id"`
	Pickup             Location       `json:"pickup"`
	Consumer           Location       `json:"consumer"`
	CourierID          *int64         `json:"courier_id,omitempty"`
	Amount             float64        `json:"amount"`
	Status             DeliveryStatus `json:"status"`
	StartedAt          time.Time      `json:"started_at"`
	CompletedAt        *time.Time     `json:"completed_at,omitempty"`
	Address            string         `json:"address"`
	Priority           int            `json:"priority"`
	EstimatedTime      *time.Time     `json:"estimated_time,omitempty"`
	LastNotificationTS *time.Time     `json:"last_notification_ts,omitempty"`
	Distance           float64        `json:"distance"`
}

// Active reports whether the delivery is currently being carried.
func (d *Delivery) Active() bool {
	return d != nil && (d.Status == StatusAssigned || d.Status == StatusPickedUp)
}

// PartialDelivery carries optional fields to merge into a stored delivery.
// A nil field means "do not change" that attribute.
type PartialDelivery struct {
	ID                 int64
	Pickup             *Location
	Consumer           *Location
	CourierID          *int64
	Amount             *float64
	Status             *DeliveryStatus
	StartedAt          *time.Time
	CompletedAt        *time.Time
	Address            *string
	Priority           *int
	EstimatedTime      *time.Time
	LastNotificationTS *time.Time
	Distance           *float64
}

// AssignResult is the outcome of one matching attempt inside a dispatch tick.
type AssignResult struct {
	DeliveryID int64
	Courier    *Courier
	Delivery   *Delivery
	Err        error
}
