package b2b

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agroflight/backend-shop/internal/common"
	"github.com/agroflight/backend-shop/internal/events"
	"github.com/agroflight/backend-shop/internal/money"
	"github.com/agroflight/backend-shop/internal/obs"
)

// Handler exposes the administrative B2B surface: rule management and the
// customer approval queue.
type Handler struct {
	Store        *Store
	Bus          *events.Bus
	Validate     *validator.Validate
	HashPassword func(password string) (string, error)
}

type rulePayload struct {
	ProductID          string           `json:"productId" validate:"required,uuid4"`
	CustomerID         *string          `json:"customerId" validate:"omitempty,uuid4"`
	FixedPricePLN      int64            `json:"fixedPricePln" validate:"gte=0"`
	FixedPriceEUR      int64            `json:"fixedPriceEur" validate:"gte=0"`
	DiscountPLNPercent *decimal.Decimal `json:"discountPlnPercent"`
	DiscountEURPercent *decimal.Decimal `json:"discountEurPercent"`
}

type bulkPayload struct {
	ProductIDs         []string         `json:"productIds" validate:"required,min=1,dive,uuid4"`
	CustomerID         *string          `json:"customerId" validate:"omitempty,uuid4"`
	FixedPricePLN      int64            `json:"fixedPricePln" validate:"gte=0"`
	FixedPriceEUR      int64            `json:"fixedPriceEur" validate:"gte=0"`
	DiscountPLNPercent *decimal.Decimal `json:"discountPlnPercent"`
	DiscountEURPercent *decimal.Decimal `json:"discountEurPercent"`
}

type customerPayload struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=10"`
	CompanyName string `json:"companyName" validate:"required"`
	VATID       string `json:"vatId" validate:"required"`
	Region      string `json:"region" validate:"required"`
	Approved    bool   `json:"approved"`
}

// CreateRule inserts a new price rule.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var payload rulePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid payload", nil)
		return
	}
	input, err := h.ruleInput(payload)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, err.Error(), nil)
		return
	}
	rule, err := h.Store.CreateRule(r.Context(), input)
	if err != nil {
		if errors.Is(err, ErrDuplicateRule) {
			common.JSONError(w, http.StatusConflict, common.CodeDuplicateRule, "a rule for this product and customer already exists", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to create rule", nil)
		return
	}
	common.JSONData(w, http.StatusCreated, rule)
}

// UpdateRule replaces the pricing fields of an existing rule.
func (h *Handler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid rule id", nil)
		return
	}
	var payload rulePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid payload", nil)
		return
	}
	input, err := h.ruleInput(payload)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, err.Error(), nil)
		return
	}
	rule, err := h.Store.UpdateRule(r.Context(), id, input)
	if err != nil {
		if errors.Is(err, ErrRuleNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "rule not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to update rule", nil)
		return
	}
	common.JSONData(w, http.StatusOK, rule)
}

// DeleteRule removes a rule.
func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid rule id", nil)
		return
	}
	if err := h.Store.DeleteRule(r.Context(), id); err != nil {
		if errors.Is(err, ErrRuleNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "rule not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to delete rule", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListRules returns every rule for a product.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(strings.TrimSpace(r.URL.Query().Get("productId")))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "productId query parameter is required", nil)
		return
	}
	rules, err := h.Store.ListRulesByProduct(r.Context(), productID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to list rules", nil)
		return
	}
	common.JSONData(w, http.StatusOK, rules)
}

// BulkApplyRules applies one rule template to many products and reports the
// per-product tally. Partial success returns 200 with the full report.
func (h *Handler) BulkApplyRules(w http.ResponseWriter, r *http.Request) {
	var payload bulkPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid payload", nil)
		return
	}
	if err := h.validate(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, err.Error(), nil)
		return
	}
	template, err := buildRuleInput(payload.CustomerID, payload.FixedPricePLN, payload.FixedPriceEUR, payload.DiscountPLNPercent, payload.DiscountEURPercent)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, err.Error(), nil)
		return
	}
	productIDs := make([]uuid.UUID, 0, len(payload.ProductIDs))
	for _, raw := range payload.ProductIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid product id: "+raw, nil)
			return
		}
		productIDs = append(productIDs, id)
	}
	report, err := h.Store.BulkApply(r.Context(), template, productIDs)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "bulk apply aborted", map[string]any{"report": report})
		return
	}
	if obs.BulkRuleApplyTotal != nil {
		obs.BulkRuleApplyTotal.WithLabelValues("applied").Add(float64(report.Applied))
		obs.BulkRuleApplyTotal.WithLabelValues("failed").Add(float64(report.Failed))
	}
	if h.Bus != nil {
		_, _ = h.Bus.Emit(r.Context(), events.TopicPriceRulesBulkApplied, uuid.New(), map[string]any{
			"applied": report.Applied,
			"failed":  report.Failed,
		})
	}
	common.JSONData(w, http.StatusOK, report)
}

// CreateCustomer lets an administrator create an account, optionally pre-approved.
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var payload customerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid payload", nil)
		return
	}
	if err := h.validate(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, err.Error(), nil)
		return
	}
	region, err := ParseRegion(payload.Region)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "region must be home or foreign", nil)
		return
	}
	if h.HashPassword == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "password hasher not configured", nil)
		return
	}
	hash, err := h.HashPassword(payload.Password)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to hash password", nil)
		return
	}
	status := StatusPending
	if payload.Approved {
		status = StatusApproved
	}
	customer, err := h.Store.CreateCustomer(r.Context(), NewCustomerParams{
		Email:        strings.ToLower(strings.TrimSpace(payload.Email)),
		PasswordHash: hash,
		CompanyName:  payload.CompanyName,
		VATID:        payload.VATID,
		Region:       region,
		Status:       status,
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			common.JSONError(w, http.StatusConflict, common.CodeConflict, "email already registered", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to create customer", nil)
		return
	}
	common.JSONData(w, http.StatusCreated, customer)
}

// ListCustomers returns accounts, optionally filtered by status.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 50)
	var status *Status
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		parsed, err := ParseStatus(raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid status filter", nil)
			return
		}
		status = &parsed
	}
	customers, err := h.Store.ListCustomers(r.Context(), status, perPage, (page-1)*perPage)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to list customers", nil)
		return
	}
	common.JSONData(w, http.StatusOK, customers)
}

// PatchCustomerStatus transitions the approval state.
func (h *Handler) PatchCustomerStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid customer id", nil)
		return
	}
	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid payload", nil)
		return
	}
	status, err := ParseStatus(payload.Status)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "status must be pending, approved or rejected", nil)
		return
	}
	customer, err := h.Store.SetCustomerStatus(r.Context(), id, status)
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "customer not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to update status", nil)
		return
	}
	if h.Bus != nil {
		_, _ = h.Bus.Emit(r.Context(), events.TopicCustomerStatusChanged, customer.ID, map[string]any{
			"email":  customer.Email,
			"status": string(customer.Status),
		})
	}
	common.JSONData(w, http.StatusOK, customer)
}

// DeleteCustomer removes an account and, through the cascade, its scoped rules.
func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid customer id", nil)
		return
	}
	if err := h.Store.DeleteCustomer(r.Context(), id); err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "customer not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to delete customer", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ruleInput(payload rulePayload) (RuleInput, error) {
	if err := h.validate(payload); err != nil {
		return RuleInput{}, err
	}
	input, err := buildRuleInput(payload.CustomerID, payload.FixedPricePLN, payload.FixedPriceEUR, payload.DiscountPLNPercent, payload.DiscountEURPercent)
	if err != nil {
		return RuleInput{}, err
	}
	input.ProductID, err = uuid.Parse(payload.ProductID)
	if err != nil {
		return RuleInput{}, errors.New("invalid product id")
	}
	return input, nil
}

func buildRuleInput(rawCustomerID *string, fixedPLN, fixedEUR int64, discPLN, discEUR *decimal.Decimal) (RuleInput, error) {
	var customerID *uuid.UUID
	if rawCustomerID != nil && strings.TrimSpace(*rawCustomerID) != "" {
		id, err := uuid.Parse(*rawCustomerID)
		if err != nil {
			return RuleInput{}, errors.New("invalid customer id")
		}
		customerID = &id
	}
	discounts := map[money.Currency]decimal.Decimal{}
	for currency, d := range map[money.Currency]*decimal.Decimal{
		money.PLN: discPLN,
		money.EUR: discEUR,
	} {
		if d == nil {
			continue
		}
		if d.IsNegative() || d.GreaterThanOrEqual(decimal.NewFromInt(100)) {
			return RuleInput{}, errors.New("discount percent must be in [0, 100)")
		}
		if d.GreaterThan(decimal.Zero) {
			discounts[currency] = *d
		}
	}
	return RuleInput{
		CustomerID: customerID,
		Fixed: money.Amounts{
			money.PLN: fixedPLN,
			money.EUR: fixedEUR,
		},
		Discount: discounts,
	}, nil
}

func (h *Handler) validate(v any) error {
	if h.Validate == nil {
		return nil
	}
	return h.Validate.Struct(v)
}
