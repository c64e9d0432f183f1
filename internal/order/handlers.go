package order

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/agroflight/backend-shop/internal/common"
	"github.com/agroflight/backend-shop/internal/events"
)

// Handler exposes the customer-facing order endpoints. Every route requires
// an authenticated account; guest orders are looked up out of band.
type Handler struct {
	Store *Store
}

// ListMine returns the caller's orders, newest first.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	customerID, ok := authedCustomer(w, r)
	if !ok {
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	orders, err := h.Store.ListByCustomer(r.Context(), customerID, perPage, (page-1)*perPage)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to list orders", nil)
		return
	}
	common.JSONData(w, http.StatusOK, orders)
}

// GetMine returns one of the caller's orders with its lines.
func (h *Handler) GetMine(w http.ResponseWriter, r *http.Request) {
	customerID, ok := authedCustomer(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid order id", nil)
		return
	}
	o, err := h.Store.Get(r.Context(), id, &customerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to load order", nil)
		return
	}
	common.JSONData(w, http.StatusOK, o)
}

func authedCustomer(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw, ok := common.CustomerID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, common.CodeUnauthorized, "authentication required", nil)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		common.JSONError(w, http.StatusUnauthorized, common.CodeUnauthorized, "authentication required", nil)
		return uuid.Nil, false
	}
	return id, true
}

// AdminHandler exposes the back-office order endpoints.
type AdminHandler struct {
	Store *Store
	Bus   *events.Bus
}

type statusPayload struct {
	Status string `json:"status"`
}

// List returns all orders, newest first.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	orders, err := h.Store.List(r.Context(), perPage, (page-1)*perPage)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to list orders", nil)
		return
	}
	common.JSONData(w, http.StatusOK, orders)
}

// Get returns any order with its lines.
func (h *AdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid order id", nil)
		return
	}
	o, err := h.Store.Get(r.Context(), id, nil)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to load order", nil)
		return
	}
	common.JSONData(w, http.StatusOK, o)
}

// PatchStatus moves an order to a new fulfilment status and emits the
// status-change event.
func (h *AdminHandler) PatchStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid order id", nil)
		return
	}
	var payload statusPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid request body", nil)
		return
	}
	status, err := ParseStatus(payload.Status)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, err.Error(), nil)
		return
	}
	o, err := h.Store.SetStatus(r.Context(), id, status)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to update order", nil)
		return
	}
	if h.Bus != nil {
		_, _ = h.Bus.Emit(r.Context(), events.TopicOrderStatusChanged, o.ID, map[string]any{
			"orderId": o.ID.String(),
			"email":   o.Email,
			"status":  string(o.Status),
		})
	}
	common.JSONData(w, http.StatusOK, o)
}
