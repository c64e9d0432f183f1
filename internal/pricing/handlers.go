package pricing

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/agroflight/backend-shop/internal/b2b"
	"github.com/agroflight/backend-shop/internal/catalog"
	"github.com/agroflight/backend-shop/internal/common"
	"github.com/agroflight/backend-shop/internal/money"
	"github.com/agroflight/backend-shop/internal/tax"
)

// Handler serves the storefront price endpoint used by every product display
// surface: it resolves the charge price for the current session and returns
// the tax presentation alongside it.
type Handler struct {
	Catalog        *catalog.Service
	Resolver       *Resolver
	Directory      b2b.Directory
	VATRatePercent decimal.Decimal
}

type priceResponse struct {
	ProductID    string               `json:"productId"`
	Resolution   Resolution           `json:"resolution"`
	Presentation tax.Presentation     `json:"presentation"`
	Availability catalog.Availability `json:"availability"`
}

// ProductPrice resolves and presents the price of one product for the
// current session. Anonymous shoppers get the base price; approved B2B
// accounts get their rule tier. Currency defaults to the customer's region,
// falling back to PLN.
func (h *Handler) ProductPrice(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSpace(chi.URLParam(r, "slug"))
	if slug == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "slug is required", nil)
		return
	}
	product, err := h.Catalog.ProductBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeProductNotFound, "product not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to load product", nil)
		return
	}
	customer, err := h.Directory.ApprovedCustomer(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to load customer", nil)
		return
	}
	currency, err := requestCurrency(r.URL.Query().Get("currency"), customer)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "unsupported currency", nil)
		return
	}
	resolution, err := h.Resolver.Resolve(r.Context(), product.ID, customer, currency)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to resolve price", nil)
		return
	}
	var compareAt *money.Money
	if v := product.CompareAt.Get(currency); v > 0 {
		compareAt = &v
	}
	presentation := tax.Present(tax.Input{
		Price:          resolution.Price,
		Currency:       currency,
		Customer:       customer,
		IsB2B:          resolution.IsB2B,
		VATRatePercent: h.VATRatePercent,
		CompareAt:      compareAt,
	})
	common.JSONData(w, http.StatusOK, priceResponse{
		ProductID:    product.ID.String(),
		Resolution:   resolution,
		Presentation: presentation,
		Availability: product.Availability(),
	})
}

func requestCurrency(raw string, customer *b2b.Customer) (money.Currency, error) {
	if strings.TrimSpace(raw) != "" {
		return money.ParseCurrency(raw)
	}
	if customer != nil {
		return customer.Region.Currency(), nil
	}
	return money.PLN, nil
}
