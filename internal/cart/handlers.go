package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agroflight/backend-shop/internal/b2b"
	"github.com/agroflight/backend-shop/internal/catalog"
	"github.com/agroflight/backend-shop/internal/common"
	"github.com/agroflight/backend-shop/internal/money"
	"github.com/agroflight/backend-shop/internal/pricing"
	"github.com/agroflight/backend-shop/internal/tax"
)

// AnonIDHeader carries the anonymous session token for carts without a
// signed-in account.
const AnonIDHeader = "X-Anon-Id"

// Handler exposes the cart endpoints. Prices shown in the cart view are
// resolved on every read with the same resolver checkout uses, so the cart
// never quotes a price checkout would not charge.
type Handler struct {
	Store     *Store
	Catalog   *catalog.Service
	Resolver  *pricing.Resolver
	Directory b2b.Directory
	Validate  *validator.Validate

	VATRatePercent decimal.Decimal
}

type itemPayload struct {
	ProductID string `json:"productId" validate:"required,uuid4"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=999"`
}

type quantityPayload struct {
	Quantity int `json:"quantity" validate:"min=0,max=999"`
}

type itemView struct {
	ProductID    string             `json:"productId"`
	Slug         string             `json:"slug"`
	Title        string             `json:"title"`
	Quantity     int                `json:"quantity"`
	Resolution   pricing.Resolution `json:"resolution"`
	Presentation tax.Presentation   `json:"presentation"`
	LineTotal    money.Money        `json:"lineTotal"`
}

type cartView struct {
	CartID   string         `json:"cartId"`
	Currency money.Currency `json:"currency"`
	Items    []itemView     `json:"items"`
}

// View returns the current cart with freshly resolved prices.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	c, customer, ok := h.ensure(w, r)
	if !ok {
		return
	}
	currency := money.PLN
	if customer != nil {
		currency = customer.Region.Currency()
	}
	items, err := h.Store.Items(r.Context(), c.ID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to load cart", nil)
		return
	}
	view := cartView{CartID: c.ID.String(), Currency: currency, Items: make([]itemView, 0, len(items))}
	for _, it := range items {
		product, err := h.Catalog.Product(r.Context(), it.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				// Product pulled from the catalog after it was added; drop
				// the line from the view.
				continue
			}
			common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to load cart", nil)
			return
		}
		resolution, err := h.Resolver.Resolve(r.Context(), it.ProductID, customer, currency)
		if err != nil {
			common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to price cart", nil)
			return
		}
		view.Items = append(view.Items, itemView{
			ProductID:  it.ProductID.String(),
			Slug:       product.Slug,
			Title:      product.Title,
			Quantity:   it.Quantity,
			Resolution: resolution,
			Presentation: tax.Present(tax.Input{
				Price:          resolution.Price,
				Currency:       currency,
				Customer:       customer,
				IsB2B:          resolution.IsB2B,
				VATRatePercent: h.VATRatePercent,
			}),
			LineTotal: money.MulQty(resolution.Price, it.Quantity),
		})
	}
	common.JSONData(w, http.StatusOK, view)
}

// AddItem adds a product to the cart, incrementing the quantity when the
// line already exists.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var payload itemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid request body", nil)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid cart item", nil)
		return
	}
	productID, err := uuid.Parse(payload.ProductID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid product id", nil)
		return
	}
	if _, err := h.Catalog.Product(r.Context(), productID); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeProductNotFound, "product not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to load product", nil)
		return
	}
	c, _, ok := h.ensure(w, r)
	if !ok {
		return
	}
	if err := h.Store.AddItem(r.Context(), c.ID, productID, payload.Quantity); err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to update cart", nil)
		return
	}
	h.View(w, r)
}

// UpdateItem sets the quantity of a cart line; zero removes it.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "productId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid product id", nil)
		return
	}
	var payload quantityPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid request body", nil)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid quantity", nil)
		return
	}
	c, _, ok := h.ensure(w, r)
	if !ok {
		return
	}
	if err := h.Store.SetItem(r.Context(), c.ID, productID, payload.Quantity); err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to update cart", nil)
		return
	}
	h.View(w, r)
}

// RemoveItem deletes a cart line.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "productId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid product id", nil)
		return
	}
	c, _, ok := h.ensure(w, r)
	if !ok {
		return
	}
	if err := h.Store.RemoveItem(r.Context(), c.ID, productID); err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to update cart", nil)
		return
	}
	h.View(w, r)
}

// ensure resolves the cart owner from the request and loads or creates the
// cart. Writes the error response itself when the owner is missing.
func (h *Handler) ensure(w http.ResponseWriter, r *http.Request) (Cart, *b2b.Customer, bool) {
	customer, err := h.Directory.ApprovedCustomer(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to load customer", nil)
		return Cart{}, nil, false
	}
	var ownerID *uuid.UUID
	if customer != nil {
		ownerID = &customer.ID
	}
	anonID := strings.TrimSpace(r.Header.Get(AnonIDHeader))
	if ownerID == nil && anonID == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "missing "+AnonIDHeader+" header for anonymous cart", nil)
		return Cart{}, nil, false
	}
	c, err := h.Store.EnsureCart(r.Context(), ownerID, anonID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to load cart", nil)
		return Cart{}, nil, false
	}
	return c, customer, true
}
