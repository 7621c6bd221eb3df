package handlers

import "net/http"

// Handlers serves the service-level endpoints.
type Handlers struct{}

// New returns the service-level handlers.
func New() *Handlers { return &Handlers{} }

// Ping handles GET /ping.
func (h *Handlers) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// NotFound handles unknown routes.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, "route not found")
}
