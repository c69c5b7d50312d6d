package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/corvand/remedy/internal/apperr"
	"github.com/corvand/remedy/internal/mutate"
	"github.com/corvand/remedy/internal/record"
)

// OrdersHandler serves the orders view.
type OrdersHandler struct {
	orders *mutate.Coordinator[record.Order]
}

// NewOrdersHandler creates an OrdersHandler.
func NewOrdersHandler(orders *mutate.Coordinator[record.Order]) *OrdersHandler {
	return &OrdersHandler{orders: orders}
}

// List handles GET /api/orders.
func (h *OrdersHandler) List(w http.ResponseWriter, _ *http.Request) {
	snapshot := h.orders.Cache().Snapshot()
	items := make([]OrderResponse, 0, len(snapshot))
	for _, o := range snapshot {
		items = append(items, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"orders": items,
		"total":  len(items),
	})
}

// UpdateStatus handles PUT /api/orders/{id}/status: the restricted update
// touching only the delivery-status field. The cache is refreshed with a
// full reload so the view matches the store exactly.
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, "update status", apperr.Validation("invalid status", err))
		return
	}

	patch := record.StatusPatch{Status: req.DeliveryStatus}
	if err := h.orders.Update(r.Context(), id, patch, nil, mutate.RefreshFull); err != nil {
		respondError(w, "update status", err)
		return
	}

	updated, ok := h.orders.Cache().Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(updated))
}
