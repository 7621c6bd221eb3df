package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"courier-dispatch/internal/config"
	"courier-dispatch/internal/geo"
	"courier-dispatch/internal/http/handlers"
	"courier-dispatch/internal/http/router"
	"courier-dispatch/internal/jobs"
	"courier-dispatch/internal/logx"
	"courier-dispatch/internal/metrics"
	"courier-dispatch/internal/notifier"
	"courier-dispatch/internal/registry"
	"courier-dispatch/internal/service/cancel"
	"courier-dispatch/internal/service/dispatch"
	"courier-dispatch/internal/service/notify"
	"courier-dispatch/internal/service/speed"
	"courier-dispatch/internal/transport/kafka"
)

// ContainerBuilder is a dig container builder.
type ContainerBuilder struct {
	logFatalf func(string, ...interface{})
}

// NewContainerBuilder returns a new dig container builder.
func NewContainerBuilder() *ContainerBuilder {
	return &ContainerBuilder{logFatalf: log.Fatalf}
}

// WithLogFatalf sets the log.Fatalf function.
func (b *ContainerBuilder) WithLogFatalf(fn func(string, ...interface{})) *ContainerBuilder {
	if fn != nil {
		b.logFatalf = fn
	}
	return b
}

// MustBuild builds and returns a new dig container.
func (b *ContainerBuilder) MustBuild(ctx context.Context) *dig.Container {
	container, err := b.build(ctx)
	if err != nil {
		b.logFatalf("failed to build container: %v", err)
	}
	return container
}

func (b *ContainerBuilder) build(ctx context.Context) (*dig.Container, error) {
	container := dig.New()

	if err := registerCore(container, ctx); err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	if err := registerRegistry(container); err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	if err := registerBus(container); err != nil {
		return nil, fmt.Errorf("bus: %w", err)
	}
	if err := registerServices(container); err != nil {
		return nil, fmt.Errorf("services: %w", err)
	}
	if err := registerHTTP(container); err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	return container, nil
}

// MustBuildContainer builds and returns a new dig container.
func MustBuildContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuild(ctx)
}

func provideAll(container *dig.Container, providers ...any) error {
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return fmt.Errorf("provide %T: %w", provider, err)
		}
	}
	return nil
}

func registerCore(container *dig.Container, ctx context.Context) error {
	return provideAll(container,
		func() context.Context { return ctx },
		config.Load,
		NewLogger,
		func() *metrics.Metrics { return metrics.New(prometheus.DefaultRegisterer) },
	)
}

func registerRegistry(container *dig.Container) error {
	return provideAll(container,
		registry.NewCouriers,
		registry.NewDeliveries,
		registry.NewCancelQueue,
	)
}

func registerBus(container *dig.Container) error {
	return provideAll(container,
		func(logger logx.Logger, cfg *config.Config, m *metrics.Metrics) (*kafka.Publisher, error) {
			return kafka.NewPublisher(logger, cfg.Kafka.Brokers, cfg.Publisher.QueueSize, cfg.Publisher.Workers, m)
		},
		func(p *kafka.Publisher) dispatch.Bus { return p },
		kafka.NewSync,
		func(a *dispatch.Admission) kafka.Waker { return a },
		func(logger logx.Logger, cfg *config.Config, s *kafka.Sync) (*kafka.Consumer, error) {
			return kafka.NewConsumer(logger, cfg.Kafka.Brokers, cfg.Kafka.GroupID, s.Routes())
		},
	)
}

func registerServices(container *dig.Container) error {
	return provideAll(container,
		func(cfg *config.Config) *geo.Calculator { return geo.NewCalculator(cfg.Dispatch) },
		func(cfg *config.Config) *dispatch.Admission { return dispatch.NewAdmission(cfg.Dispatch.MissThreshold) },
		func(
			couriers *registry.Couriers,
			deliveries *registry.Deliveries,
			calc *geo.Calculator,
			admission *dispatch.Admission,
			bus dispatch.Bus,
			cfg *config.Config,
			logger logx.Logger,
			m *metrics.Metrics,
		) *dispatch.Engine {
			return dispatch.NewEngine(couriers, deliveries, calc, admission, bus, cfg.Dispatch, logger, m)
		},
		func(
			deliveries *registry.Deliveries,
			couriers *registry.Couriers,
			calc *geo.Calculator,
			cfg *config.Config,
			logger logx.Logger,
			m *metrics.Metrics,
		) *notify.Monitor {
			return notify.NewMonitor(deliveries, couriers, calc, cfg.Dispatch, logger, m)
		},
		func(a *dispatch.Admission) cancel.Waker { return a },
		cancel.NewReconciler,
		speed.NewProvider,
		func(logger logx.Logger) notifier.Notifier { return notifier.NewLogNotifier(logger) },
		func(
			engine *dispatch.Engine,
			monitor *notify.Monitor,
			reconciler *cancel.Reconciler,
			speedProvider *speed.Provider,
			notif notifier.Notifier,
			cfg *config.Config,
			logger logx.Logger,
		) *jobs.Manager {
			return jobs.NewManager(engine, monitor, reconciler, speedProvider, notif, cfg.Ticks, logger)
		},
	)
}

func registerHTTP(container *dig.Container) error {
	serverProvider := func(cfg *config.Config, mux http.Handler) *http.Server {
		return &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
	}
	return provideAll(container,
		handlers.New,
		handlers.NewCourierHandler,
		handlers.NewDeliveryHandler,
		handlers.NewTickHandler,
		router.New,
		serverProvider,
	)
}
