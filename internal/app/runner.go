package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/dig"

	"courier-dispatch/internal/jobs"
	"courier-dispatch/internal/logx"
	"courier-dispatch/internal/transport/kafka"
)

// Runner runs the dispatcher: HTTP server, bus consumers and periodic jobs.
type Runner struct {
	runFn func(*dig.Container) error
}

// NewRunner returns a new Runner.
func NewRunner() *Runner {
	return &Runner{runFn: run}
}

// MustRun starts the service using the provided DI container.
func (r *Runner) MustRun(container *dig.Container) {
	err := r.runFn(container)
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	panic(err)
}

func run(container *dig.Container) error {
	return container.Invoke(serviceRun)
}

func serviceRun(
	ctx context.Context,
	server *http.Server,
	consumer *kafka.Consumer,
	publisher *kafka.Publisher,
	manager *jobs.Manager,
	logger logx.Logger,
) error {
	defer closeResources(server, consumer, publisher, logger)

	if err := manager.Start(ctx); err != nil {
		return err
	}
	defer manager.Stop()

	consumerDone := make(chan error, 1)
	go func() { consumerDone <- consumer.Run(ctx) }()

	go func() {
		logger.Info("courier-dispatch listening", logx.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen error", logx.Err(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down courier-dispatch")

	shCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shCtx); err != nil {
		logger.Error("graceful shutdown error", logx.Err(err))
	}

	select {
	case err := <-consumerDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("consumer stopped with error", logx.Err(err))
		}
	case <-time.After(5 * time.Second):
		logger.Warn("consumer did not stop in time")
	}

	return ctx.Err()
}

func closeResources(server *http.Server, consumer *kafka.Consumer, publisher *kafka.Publisher, logger logx.Logger) {
	if err := consumer.Close(); err != nil {
		logger.Error("kafka consumer close error", logx.Err(err))
	}
	if err := publisher.Close(); err != nil {
		logger.Error("kafka publisher close error", logx.Err(err))
	}
	if err := server.Close(); err != nil {
		logger.Error("server close error", logx.Err(err))
	}
}
