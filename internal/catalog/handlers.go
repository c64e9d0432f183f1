package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/agroflight/backend-shop/internal/common"
	"github.com/agroflight/backend-shop/internal/money"
)

// Handler exposes catalog endpoints.
type Handler struct {
	Service  *Service
	Validate *validator.Validate
}

// Products lists the catalog page by page.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	page, limit := common.ParsePagination(r, 0)
	result, err := h.Service.ListProducts(r.Context(), page, limit)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to list products", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": result.Items,
		"pagination": common.Pagination{
			Page:       result.Page,
			PerPage:    result.Limit,
			TotalItems: int(result.Total),
		},
	})
}

// ProductDetail returns a single product by slug.
func (h *Handler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSpace(chi.URLParam(r, "slug"))
	if slug == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "slug is required", nil)
		return
	}
	product, err := h.Service.ProductBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeProductNotFound, "product not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to load product", nil)
		return
	}
	common.JSONData(w, http.StatusOK, product)
}

type productPayload struct {
	Slug             string  `json:"slug" validate:"required"`
	Title            string  `json:"title" validate:"required"`
	Description      string  `json:"description"`
	BasePricePLN     int64   `json:"basePricePln" validate:"gt=0"`
	BasePriceEUR     int64   `json:"basePriceEur" validate:"gt=0"`
	CompareAtPLN     int64   `json:"compareAtPln" validate:"gte=0"`
	CompareAtEUR     int64   `json:"compareAtEur" validate:"gte=0"`
	Stock            int     `json:"stock" validate:"gte=0"`
	PreorderEnabled  bool    `json:"preorderEnabled"`
	PreorderLeadTime *string `json:"preorderLeadTime"`
}

// AdminCreate inserts a new product.
func (h *Handler) AdminCreate(w http.ResponseWriter, r *http.Request) {
	h.upsert(w, r, nil)
}

// AdminUpdate replaces an existing product.
func (h *Handler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid product id", nil)
		return
	}
	h.upsert(w, r, &id)
}

func (h *Handler) upsert(w http.ResponseWriter, r *http.Request, id *uuid.UUID) {
	var payload productPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeValidation, err.Error(), nil)
			return
		}
	}
	input := ProductInput{
		Slug:        strings.TrimSpace(payload.Slug),
		Title:       payload.Title,
		Description: payload.Description,
		BasePrice: money.Amounts{
			money.PLN: payload.BasePricePLN,
			money.EUR: payload.BasePriceEUR,
		},
		CompareAt: money.Amounts{
			money.PLN: payload.CompareAtPLN,
			money.EUR: payload.CompareAtEUR,
		},
		Stock:            payload.Stock,
		PreorderEnabled:  payload.PreorderEnabled,
		PreorderLeadTime: payload.PreorderLeadTime,
	}
	product, err := h.Service.UpsertProduct(r.Context(), id, input)
	if err != nil {
		switch {
		case errors.Is(err, ErrProductNotFound):
			common.JSONError(w, http.StatusNotFound, common.CodeProductNotFound, "product not found", nil)
		case errors.Is(err, ErrSlugTaken):
			common.JSONError(w, http.StatusConflict, common.CodeConflict, "slug already in use", nil)
		default:
			common.JSONError(w, http.StatusBadRequest, common.CodeValidation, err.Error(), nil)
		}
		return
	}
	status := http.StatusOK
	if id == nil {
		status = http.StatusCreated
	}
	common.JSONData(w, status, product)
}
