package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"courier-dispatch/internal/http/handlers"
	obs "courier-dispatch/internal/http/middleware"
	"courier-dispatch/internal/logx"
)

// New constructs a chi-based http.Handler with base middleware and routes.
func New(
	h *handlers.Handlers,
	courier *handlers.CourierHandler,
	delivery *handlers.DeliveryHandler,
	ticks *handlers.TickHandler,
	logger logx.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(obs.Observability(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(5 * time.Second))

	r.Get("/ping", h.Ping)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/courier", func(r chi.Router) {
		r.Post("/", courier.Register)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", courier.Get)
			r.Delete("/", courier.Remove)
			r.Get("/delivery", courier.Delivery)
			r.Post("/location", courier.UpdateLocation)
			r.Get("/proximity", courier.Proximity)
			r.Post("/pickup", courier.Pickup)
			r.Post("/close", courier.Close)
		})
	})

	r.Get("/delivery/{id}", delivery.Get)
	r.Get("/deliveries", delivery.List)
	r.Post("/working-range", delivery.AdjustRange)

	r.Route("/ticks", func(r chi.Router) {
		r.Post("/dispatch", ticks.Dispatch)
		r.Post("/notification", ticks.Notification)
		r.Post("/cancellation", ticks.Cancellation)
		r.Post("/speed", ticks.Speed)
	})

	r.NotFound(http.HandlerFunc(h.NotFound))

	return r
}
