// Package jobs drives the periodic dispatch, notification, cancellation and
// metrics ticks.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"courier-dispatch/internal/config"
	"courier-dispatch/internal/logx"
	"courier-dispatch/internal/notifier"
	"courier-dispatch/internal/service/cancel"
	"courier-dispatch/internal/service/dispatch"
	"courier-dispatch/internal/service/notify"
	"courier-dispatch/internal/service/speed"
)

// Manager schedules the background ticks. Each tick recovers its own panics
// and logs its own failures, one bad tick never halts the schedule.
type Manager struct {
	cron       *cron.Cron
	engine     *dispatch.Engine
	monitor    *notify.Monitor
	reconciler *cancel.Reconciler
	speed      *speed.Provider
	notif      notifier.Notifier
	ticks      config.Ticks
	logger     logx.Logger

	ctx context.Context
}

// NewManager wires the periodic tasks.
func NewManager(
	engine *dispatch.Engine,
	monitor *notify.Monitor,
	reconciler *cancel.Reconciler,
	speedProvider *speed.Provider,
	notif notifier.Notifier,
	ticks config.Ticks,
	logger logx.Logger,
) *Manager {
	return &Manager{
		cron:       cron.New(),
		engine:     engine,
		monitor:    monitor,
		reconciler: reconciler,
		speed:      speedProvider,
		notif:      notif,
		ticks:      ticks,
		logger:     logger,
	}
}

// Start registers and starts all periodic ticks. ctx bounds the in-flight
// dispatch scans so shutdown can abort them.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx = ctx

	schedule := []struct {
		name string
		spec string
		run  func()
	}{
		{"dispatch", every(m.ticks.Dispatch), m.RunDispatchTick},
		{"notification", every(m.ticks.Notification), m.RunNotificationTick},
		{"cancellation", every(m.ticks.Cancellation), m.RunCancellationTick},
		{"speed_refresh", every(m.ticks.SpeedRefresh), m.RunSpeedTick},
	}
	for _, job := range schedule {
		job := job
		if _, err := m.cron.AddFunc(job.spec, func() { m.guard(job.name, job.run) }); err != nil {
			return fmt.Errorf("schedule %s job: %w", job.name, err)
		}
	}

	m.cron.Start()
	m.logger.Info("background jobs started")
	return nil
}

// Stop stops the schedule and waits for running ticks to finish.
func (m *Manager) Stop() {
	<-m.cron.Stop().Done()
	m.logger.Info("background jobs stopped")
}

// RunDispatchTick runs one dispatch pass and fans the results out.
func (m *Manager) RunDispatchTick() {
	ctx := m.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	for _, res := range m.engine.RunTick(ctx) {
		if res.Err != nil {
			m.logger.Warn("no courier for delivery",
				logx.Int64("delivery_id", res.DeliveryID),
				logx.Err(res.Err),
			)
			continue
		}
		m.notif.NotifyAssignment(res.Courier, res.Delivery)
	}
}

// RunNotificationTick runs one lateness scan and fans the results out.
func (m *Manager) RunNotificationTick() {
	toNotify, timedOut := m.monitor.Run()
	for i := range toNotify {
		m.notif.NotifyLate(&toNotify[i])
	}
	for i := range timedOut {
		m.notif.NotifyTimeout(&timedOut[i])
	}
}

// RunCancellationTick drains the cancellation queue and notifies freed couriers.
func (m *Manager) RunCancellationTick() {
	for _, courier := range m.reconciler.Run() {
		courier := courier
		m.notif.NotifyCancelled(&courier)
	}
}

// RunSpeedTick refreshes the average courier speed.
func (m *Manager) RunSpeedTick() {
	if _, ok := m.speed.Refresh(); !ok {
		m.logger.Debug("no completed deliveries to measure")
	}
}

// guard keeps a panicking tick from taking the scheduler down.
func (m *Manager) guard(name string, run func()) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("tick panicked", logx.String("job", name), logx.Any("panic", r))
		}
	}()
	run()
}

func every(d time.Duration) string {
	return "@every " + d.String()
}
