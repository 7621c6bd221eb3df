// Package notifier is the outward edge toward the messaging/UI layer, which
// lives in another service. This core only decides who to notify about what.
package notifier

import (
	"courier-dispatch/internal/domain"
	"courier-dispatch/internal/logx"
)

// Notifier delivers user-facing messages about dispatch events.
type Notifier interface {
	NotifyAssignment(courier *domain.Courier, delivery *domain.Delivery)
	NotifyLate(delivery *domain.Delivery)
	NotifyTimeout(delivery *domain.Delivery)
	NotifyCancelled(courier *domain.Courier)
}

// LogNotifier writes notifications to the log. It stands in for the excluded
// messaging layer in local runs and tests.
type LogNotifier struct {
	logger logx.Logger
}

// NewLogNotifier returns a Notifier backed by the given logger.
func NewLogNotifier(logger logx.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// NotifyAssignment reports a new assignment to the courier.
func (n *LogNotifier) NotifyAssignment(courier *domain.Courier, delivery *domain.Delivery) {
	n.logger.Info("notify assignment",
		logx.Int64("courier_id", courier.ID),
		logx.Int64("delivery_id", delivery.ID),
		logx.String("address", delivery.Address),
	)
}

// NotifyLate warns the courier that the delivery is behind schedule.
func (n *LogNotifier) NotifyLate(delivery *domain.Delivery) {
	n.logger.Warn("notify late delivery", logx.Int64("delivery_id", delivery.ID))
}

// NotifyTimeout reports that the delivery missed its estimated time entirely.
func (n *LogNotifier) NotifyTimeout(delivery *domain.Delivery) {
	n.logger.Warn("notify delivery timeout", logx.Int64("delivery_id", delivery.ID))
}

// NotifyCancelled tells the courier that the consumer cancelled the delivery.
func (n *LogNotifier) NotifyCancelled(courier *domain.Courier) {
	n.logger.Info("notify cancellation", logx.Int64("courier_id", courier.ID))
}

var _ Notifier = (*LogNotifier)(nil)
