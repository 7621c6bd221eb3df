package kafka

import (
	"time"

	"courier-dispatch/internal/domain"
)

// LocationDTO mirrors domain.Location on the wire.
type LocationDTO struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CourierDTO is a partial courier snapshot. Every field except the id is
// optional: the authoritative side serializes only the fields it changed, and
// a missing field must not overwrite local state.
type CourierDTO struct {
	ID                int64        `json:"id"`
	Username          *string      `json:"username,omitempty"`
	FirstName         *string      `json:"first_name,omitempty"`
	LastName          *string      `json:"last_name,omitempty"`
	Location          *LocationDTO `json:"location,omitempty"`
	Busy              *bool        `json:"busy,omitempty"`
	CurrentDeliveryID *int64       `json:"current_delivery_id,omitempty"`
	DoneDeliveries    *int         `json:"done_deliveries,omitempty"`
	Balance           *float64     `json:"balance,omitempty"`
	Rank              *float64     `json:"rank,omitempty"`
}

// ToPartial converts the DTO into a registry merge request.
func (d CourierDTO) ToPartial() domain.PartialCourier {
	p := domain.PartialCourier{
		ID:                d.ID,
		Username:          d.Username,
		FirstName:         d.FirstName,
		LastName:          d.LastName,
		Busy:              d.Busy,
		CurrentDeliveryID: d.CurrentDeliveryID,
		DoneDeliveries:    d.DoneDeliveries,
		Balance:           d.Balance,
		Rank:              d.Rank,
	}
	if d.Location != nil {
		p.Location = &domain.Location{Lat: d.Location.Lat, Lon: d.Location.Lon}
	}
	return p
}

// DeliveryDTO is a partial delivery snapshot. Field names follow the
// authoritative store's flat latitude/longitude layout.
type DeliveryDTO struct {
	ID                 int64      `json:"id"`
	Latitude           *float64   `json:"latitude,omitempty"`
	Longitude          *float64   `json:"longitude,omitempty"`
	ConsumerLatitude   *float64   `json:"consumer_latitude,omitempty"`
	ConsumerLongitude  *float64   `json:"consumer_longitude,omitempty"`
	Courier            *int64     `json:"courier,omitempty"`
	Amount             *float64   `json:"amount,omitempty"`
	Status             *int       `json:"status,omitempty"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	Address            *string    `json:"address,omitempty"`
	Priority           *int       `json:"priority,omitempty"`
	EstimatedTime      *time.Time `json:"estimated_time,omitempty"`
	LastNotificationTS *time.Time `json:"last_notification_ts,omitempty"`
	Distance           *float64   `json:"distance,omitempty"`
}

// ToPartial converts the DTO into a registry merge request.
func (d DeliveryDTO) ToPartial() domain.PartialDelivery {
	p := domain.PartialDelivery{
		ID:                 d.ID,
		CourierID:          d.Courier,
		Amount:             d.Amount,
		StartedAt:          d.StartedAt,
		CompletedAt:        d.CompletedAt,
		Address:            d.Address,
		Priority:           d.Priority,
		EstimatedTime:      d.EstimatedTime,
		LastNotificationTS: d.LastNotificationTS,
		Distance:           d.Distance,
	}
	if d.Latitude != nil && d.Longitude != nil {
		p.Pickup = &domain.Location{Lat: *d.Latitude, Lon: *d.Longitude}
	}
	if d.ConsumerLatitude != nil && d.ConsumerLongitude != nil {
		p.Consumer = &domain.Location{Lat: *d.ConsumerLatitude, Lon: *d.ConsumerLongitude}
	}
	if d.Status != nil {
		s := domain.DeliveryStatus(*d.Status)
		p.Status = &s
	}
	return p
}

// DeliverySnapshot builds the outbound wire form of a delivery.
func DeliverySnapshot(dv *domain.Delivery) DeliveryDTO {
	status := int(dv.Status)
	out := DeliveryDTO{
		ID:                 dv.ID,
		Latitude:           &dv.Pickup.Lat,
		Longitude:          &dv.Pickup.Lon,
		ConsumerLatitude:   &dv.Consumer.Lat,
		ConsumerLongitude:  &dv.Consumer.Lon,
		Courier:            dv.CourierID,
		Amount:             &dv.Amount,
		Status:             &status,
		StartedAt:          &dv.StartedAt,
		CompletedAt:        dv.CompletedAt,
		Address:            &dv.Address,
		Priority:           &dv.Priority,
		EstimatedTime:      dv.EstimatedTime,
		LastNotificationTS: dv.LastNotificationTS,
		Distance:           &dv.Distance,
	}
	return out
}

// LocationUpdate is the outbound payload for courier position changes.
type LocationUpdate struct {
	CourierID int64       `json:"courier_id"`
	Location  LocationDTO `json:"location"`
}

// ProfileRequest asks the authoritative store to replay a courier profile.
type ProfileRequest struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
