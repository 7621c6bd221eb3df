package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"courier-dispatch/internal/apperr"
	"courier-dispatch/internal/domain"
	"courier-dispatch/internal/registry"
	"courier-dispatch/internal/service/dispatch"
)

// DeliveryHandler serves delivery views and operator commands.
type DeliveryHandler struct {
	engine     *dispatch.Engine
	deliveries *registry.Deliveries
}

// NewDeliveryHandler wires delivery endpoints.
func NewDeliveryHandler(engine *dispatch.Engine, deliveries *registry.Deliveries) *DeliveryHandler {
	return &DeliveryHandler{engine: engine, deliveries: deliveries}
}

// Get handles GET /delivery/{id}.
func (h *DeliveryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	d, ok := h.deliveries.Get(id)
	if !ok {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, r, http.StatusOK, d)
}

// List handles GET /deliveries with an optional status filter.
func (h *DeliveryHandler) List(w http.ResponseWriter, r *http.Request) {
	if s := r.URL.Query().Get("status"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || !domain.DeliveryStatus(n).Valid() {
			writeError(w, r, http.StatusBadRequest, "invalid status")
			return
		}
		writeJSON(w, r, http.StatusOK, h.deliveries.ByStatus(domain.DeliveryStatus(n)))
		return
	}
	writeJSON(w, r, http.StatusOK, h.deliveries.List())
}

// AdjustRange handles POST /working-range: operator delta on the matching range.
func (h *DeliveryHandler) AdjustRange(w http.ResponseWriter, r *http.Request) {
	var req rangeRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	rangeKm, err := h.engine.AdjustWorkingRange(req.DeltaKm)
	switch {
	case err == nil:
		writeJSON(w, r, http.StatusOK, map[string]float64{"working_range_km": rangeKm})
	case errors.Is(err, apperr.ErrInvalid):
		writeError(w, r, http.StatusBadRequest, "working range would drop below minimum")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
