package handlers

import (
	"net/http"

	"courier-dispatch/internal/jobs"
)

// TickHandler exposes manual triggers for the periodic tasks; handy for
// operators and integration tests.
type TickHandler struct {
	manager *jobs.Manager
}

// NewTickHandler wires the job manager into HTTP handlers.
func NewTickHandler(manager *jobs.Manager) *TickHandler {
	return &TickHandler{manager: manager}
}

// Dispatch handles POST /ticks/dispatch.
func (h *TickHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	h.manager.RunDispatchTick()
	w.WriteHeader(http.StatusAccepted)
}

// Notification handles POST /ticks/notification.
func (h *TickHandler) Notification(w http.ResponseWriter, r *http.Request) {
	h.manager.RunNotificationTick()
	w.WriteHeader(http.StatusAccepted)
}

// Cancellation handles POST /ticks/cancellation.
func (h *TickHandler) Cancellation(w http.ResponseWriter, r *http.Request) {
	h.manager.RunCancellationTick()
	w.WriteHeader(http.StatusAccepted)
}

// Speed handles POST /ticks/speed.
func (h *TickHandler) Speed(w http.ResponseWriter, r *http.Request) {
	h.manager.RunSpeedTick()
	w.WriteHeader(http.StatusAccepted)
}
