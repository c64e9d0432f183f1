package checkout

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/agroflight/backend-shop/internal/b2b"
	"github.com/agroflight/backend-shop/internal/cart"
	"github.com/agroflight/backend-shop/internal/common"
)

// Handler exposes the quote and place-order endpoints.
type Handler struct {
	Service   *Service
	Directory b2b.Directory
	Validate  *validator.Validate
}

type placePayload struct {
	Email string `json:"email" validate:"omitempty,email"`
}

// Quote prices the current cart without placing an order.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	c, customer, ok := h.currentCart(w, r)
	if !ok {
		return
	}
	totals, err := h.Service.Quote(r.Context(), c, customer)
	if err != nil {
		h.writeCheckoutError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, totals)
}

// PlaceOrder turns the current cart into an order.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var payload placePayload
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid request body", nil)
			return
		}
	}
	if err := h.Validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid email", nil)
		return
	}
	c, customer, ok := h.currentCart(w, r)
	if !ok {
		return
	}
	email := strings.TrimSpace(payload.Email)
	if email == "" && customer != nil {
		email = customer.Email
	}
	if email == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "email is required for guest checkout", nil)
		return
	}
	o, err := h.Service.PlaceOrder(r.Context(), c, customer, email)
	if err != nil {
		h.writeCheckoutError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, o)
}

func (h *Handler) currentCart(w http.ResponseWriter, r *http.Request) (cart.Cart, *b2b.Customer, bool) {
	customer, err := h.Directory.ApprovedCustomer(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to load customer", nil)
		return cart.Cart{}, nil, false
	}
	var ownerID *uuid.UUID
	if customer != nil {
		ownerID = &customer.ID
	}
	anonID := strings.TrimSpace(r.Header.Get(cart.AnonIDHeader))
	if ownerID == nil && anonID == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "missing "+cart.AnonIDHeader+" header for anonymous checkout", nil)
		return cart.Cart{}, nil, false
	}
	c, err := h.Service.Carts.EnsureCart(r.Context(), ownerID, anonID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to load cart", nil)
		return cart.Cart{}, nil, false
	}
	return c, customer, true
}

func (h *Handler) writeCheckoutError(w http.ResponseWriter, err error) {
	var oos *OutOfStockError
	switch {
	case errors.Is(err, ErrEmptyCart):
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodeValidation, "cart is empty", nil)
	case errors.As(err, &oos):
		common.JSONError(w, http.StatusConflict, common.CodeConflict, "insufficient stock", map[string]any{
			"slug":      oos.Slug,
			"requested": oos.Requested,
			"available": oos.Available,
		})
	default:
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "checkout failed", nil)
	}
}
