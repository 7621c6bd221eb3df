// Package speed derives the average courier speed from completed deliveries.
package speed

import (
	"time"

	"courier-dispatch/internal/domain"
	"courier-dispatch/internal/geo"
	"courier-dispatch/internal/logx"
	"courier-dispatch/internal/metrics"
	"courier-dispatch/internal/registry"
)

// Provider periodically sweeps delivered records, computes the realized
// average speed and feeds it back into the ETA calculator.
type Provider struct {
	deliveries *registry.Deliveries
	calc       *geo.Calculator
	logger     logx.Logger
	m          *metrics.Metrics
}

// NewProvider wires the speed provider.
func NewProvider(deliveries *registry.Deliveries, calc *geo.Calculator, logger logx.Logger, m *metrics.Metrics) *Provider {
	return &Provider{deliveries: deliveries, calc: calc, logger: logger, m: m}
}

// Refresh consumes all delivered records: total assigned distance over total
// carry time gives km/h. The swept records leave the registry, this is the
// cleanup path for completed deliveries. Returns false when there was
// nothing usable to measure.
func (p *Provider) Refresh() (float64, bool) {
	done := p.deliveries.ByStatus(domain.StatusDelivered)
	if len(done) == 0 {
		return 0, false
	}

	var distanceKm float64
	var elapsed time.Duration
	for _, d := range done {
		p.deliveries.Delete(d.ID)
		if d.CompletedAt == nil {
			p.logger.Warn("delivered record without completion time", logx.Int64("delivery_id", d.ID))
			continue
		}
		distanceKm += d.Distance
		elapsed += d.CompletedAt.Sub(d.StartedAt)
	}

	hours := elapsed.Hours()
	if hours <= 0 || distanceKm <= 0 {
		return 0, false
	}

	kmh := distanceKm / hours
	p.calc.SetAvgSpeed(kmh)
	p.m.AvgCourierSpeed.Set(kmh)
	p.logger.Info("avg courier speed refreshed", logx.Float64("kmh", kmh))
	return kmh, true
}
