package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"courier-dispatch/internal/domain"
	"courier-dispatch/internal/logx"
	"courier-dispatch/internal/registry"
)

// Waker is poked when an inbound update may have freed a courier, so the
// dispatch admission lock can be cleared without waiting for the poll path.
type Waker interface {
	CourierAvailable()
}

// Sync applies authoritative-store change events to the local registry.
// Updates may arrive partial and out of order, so every apply is a
// merge-not-replace.
type Sync struct {
	couriers   *registry.Couriers
	deliveries *registry.Deliveries
	cancels    *registry.CancelQueue
	waker      Waker
	logger     logx.Logger
}

// NewSync wires the inbound side of the synchronization layer.
func NewSync(
	couriers *registry.Couriers,
	deliveries *registry.Deliveries,
	cancels *registry.CancelQueue,
	waker Waker,
	logger logx.Logger,
) *Sync {
	return &Sync{
		couriers:   couriers,
		deliveries: deliveries,
		cancels:    cancels,
		waker:      waker,
		logger:     logger,
	}
}

// Routes returns the topic → handler table for the consumer.
func (s *Sync) Routes() map[string]HandleFunc {
	return map[string]HandleFunc{
		TopicCourierProfile:  s.handleCourierProfile,
		TopicDeliveryCreated: s.handleDeliveryCreated,
		TopicDeliveryCancel:  s.handleDeliveryCancel,
	}
}

func (s *Sync) handleCourierProfile(_ context.Context, payload []byte) error {
	var dto CourierDTO
	if err := json.Unmarshal(payload, &dto); err != nil {
		return fmt.Errorf("courier profile: %w", err)
	}
	if dto.ID == 0 {
		return fmt.Errorf("courier profile: missing id")
	}

	s.couriers.Merge(dto.ToPartial())
	s.logger.Info("courier profile merged", logx.Int64("courier_id", dto.ID))

	if c, ok := s.couriers.Get(dto.ID); ok && c.Free() {
		s.waker.CourierAvailable()
	}
	return nil
}

func (s *Sync) handleDeliveryCreated(_ context.Context, payload []byte) error {
	var dto DeliveryDTO
	if err := json.Unmarshal(payload, &dto); err != nil {
		return fmt.Errorf("delivery created: %w", err)
	}
	if dto.ID == 0 {
		return fmt.Errorf("delivery created: missing id")
	}

	s.deliveries.Merge(dto.ToPartial())
	s.logger.Info("delivery merged", logx.Int64("delivery_id", dto.ID))
	return nil
}

func (s *Sync) handleDeliveryCancel(_ context.Context, payload []byte) error {
	var dto DeliveryDTO
	if err := json.Unmarshal(payload, &dto); err != nil {
		return fmt.Errorf("delivery cancel: %w", err)
	}
	if dto.ID == 0 {
		return fmt.Errorf("delivery cancel: missing id")
	}

	dv := domain.Delivery{ID: dto.ID, Status: domain.StatusCancelled}
	if dto.Courier != nil {
		dv.CourierID = dto.Courier
	}
	s.cancels.Put(dv)
	s.logger.Info("delivery flagged for cancellation", logx.Int64("delivery_id", dto.ID))
	return nil
}
