package handlers

import (
	"errors"
	"net/http"

	"courier-dispatch/internal/apperr"
	"courier-dispatch/internal/domain"
	"courier-dispatch/internal/registry"
	"courier-dispatch/internal/service/dispatch"
)

// CourierHandler serves the courier-side calls from the messaging layer.
type CourierHandler struct {
	engine   *dispatch.Engine
	couriers *registry.Couriers
}

// NewCourierHandler wires the dispatch engine into HTTP handlers.
func NewCourierHandler(engine *dispatch.Engine, couriers *registry.Couriers) *CourierHandler {
	return &CourierHandler{engine: engine, couriers: couriers}
}

// Register handles POST /courier: the courier goes on the line.
func (h *CourierHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerCourierRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}
	if req.ID <= 0 {
		writeError(w, r, http.StatusBadRequest, "invalid id")
		return
	}

	h.engine.RegisterCourier(domain.Courier{
		ID:        req.ID,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Rank:      5,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Remove handles DELETE /courier/{id}: explicit stop-work.
func (h *CourierHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	c, err := h.engine.RemoveCourier(id)
	switch {
	case err == nil:
		writeJSON(w, r, http.StatusOK, c)
	case errors.Is(err, apperr.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

// Get handles GET /courier/{id}.
func (h *CourierHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	c, ok := h.couriers.Get(id)
	if !ok {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, r, http.StatusOK, c)
}

// Delivery handles GET /courier/{id}/delivery: the delivery currently carried.
func (h *CourierHandler) Delivery(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	d, err := h.engine.CourierDelivery(id)
	switch {
	case err == nil:
		writeJSON(w, r, http.StatusOK, d)
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrStale):
		writeError(w, r, http.StatusNotFound, "not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

// UpdateLocation handles POST /courier/{id}/location.
func (h *CourierHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	var req locationRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	err = h.engine.UpdateLocation(id, domain.Location{Lat: req.Lat, Lon: req.Lon})
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, apperr.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

// Proximity handles GET /courier/{id}/proximity.
func (h *CourierHandler) Proximity(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	onPoint, err := h.engine.ValidateProximity(id)
	switch {
	case err == nil:
		writeJSON(w, r, http.StatusOK, map[string]bool{"on_point": onPoint})
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrStale):
		writeError(w, r, http.StatusNotFound, "not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

// Pickup handles POST /courier/{id}/pickup.
func (h *CourierHandler) Pickup(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	d, err := h.engine.ConfirmPickup(id)
	writeDeliveryResult(w, r, d, err)
}

// Close handles POST /courier/{id}/close.
func (h *CourierHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	var req closeRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	d, err := h.engine.CloseDelivery(id, domain.DeliveryStatus(req.Status))
	writeDeliveryResult(w, r, d, err)
}

func writeDeliveryResult(w http.ResponseWriter, r *http.Request, d domain.Delivery, err error) {
	switch {
	case err == nil:
		writeJSON(w, r, http.StatusOK, d)
	case errors.Is(err, apperr.ErrProximity):
		writeError(w, r, http.StatusConflict, "courier is not at the required point")
	case errors.Is(err, apperr.ErrInvalid):
		writeError(w, r, http.StatusBadRequest, "invalid state")
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrStale):
		writeError(w, r, http.StatusNotFound, "not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
