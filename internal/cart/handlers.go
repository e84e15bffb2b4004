package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/danupratama/backend-kasir/internal/common"
	"github.com/danupratama/backend-kasir/internal/money"
	"github.com/danupratama/backend-kasir/internal/obs"
	"github.com/danupratama/backend-kasir/internal/pricing"
)

// Handler wires the cart service to HTTP.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

func (h *Handler) writeView(w http.ResponseWriter, view View, err error) {
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.WriteError(w, common.NotFoundError("cart not found"))
			return
		}
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, view)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid payload", nil)
		return false
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(dst); err != nil {
			common.WriteError(w, common.ValidationError("invalid payload", err.Error()))
			return false
		}
	}
	return true
}

// cents converts a decimal amount at the API boundary to integer cents.
func cents(w http.ResponseWriter, value float64) (pricing.Money, bool) {
	c, err := money.FromDecimal(value)
	if err != nil {
		common.WriteError(w, common.ValidationError("amounts support at most two decimal places", nil))
		return 0, false
	}
	return c, true
}

// Create opens a new cart session.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	view, err := h.Svc.Create(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, view)
}

// Get returns the cart with derived totals.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	h.writeView(w, view, err)
}

// Delete discards the cart session.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"deleted": true}})
}

// AddLine adds an item to the cart.
func (h *Handler) AddLine(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ItemID          string   `json:"itemId" validate:"required"`
		UnitPrice       float64  `json:"unitPrice" validate:"gte=0"`
		Qty             int      `json:"qty" validate:"gt=0"`
		DiscountedPrice *float64 `json:"discountedPrice"`
		BatchNumber     string   `json:"batchNumber"`
		SerialNumber    string   `json:"serialNumber"`
		UOM             string   `json:"uom"`
	}
	if !h.decode(w, r, &payload) {
		return
	}
	price, ok := cents(w, payload.UnitPrice)
	if !ok {
		return
	}
	line := pricing.Line{
		ItemID:       payload.ItemID,
		UnitPrice:    price,
		Qty:          payload.Qty,
		BatchNumber:  payload.BatchNumber,
		SerialNumber: payload.SerialNumber,
		UOM:          payload.UOM,
	}
	if payload.DiscountedPrice != nil {
		dp, ok := cents(w, *payload.DiscountedPrice)
		if !ok {
			return
		}
		line.DiscountedPrice = &dp
	}
	view, err := h.Svc.AddLine(r.Context(), chi.URLParam(r, "id"), line)
	h.writeView(w, view, err)
}

// UpdateLine changes a line quantity; zero removes the line.
func (h *Handler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid line index", nil)
		return
	}
	var payload struct {
		Qty int `json:"qty"`
	}
	if !h.decode(w, r, &payload) {
		return
	}
	view, err := h.Svc.UpdateLine(r.Context(), chi.URLParam(r, "id"), index, payload.Qty)
	h.writeView(w, view, err)
}

// RemoveLine deletes a line.
func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid line index", nil)
		return
	}
	view, err := h.Svc.RemoveLine(r.Context(), chi.URLParam(r, "id"), index)
	h.writeView(w, view, err)
}

// ApplyCoupon applies a flat-value coupon.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Code  string  `json:"code" validate:"required"`
		Value float64 `json:"value" validate:"gt=0"`
	}
	if !h.decode(w, r, &payload) {
		return
	}
	value, ok := cents(w, payload.Value)
	if !ok {
		return
	}
	view, err := h.Svc.ApplyCoupon(r.Context(), chi.URLParam(r, "id"), pricing.Coupon{Code: payload.Code, Value: value})
	h.writeView(w, view, err)
}

// RemoveCoupon removes an applied coupon.
func (h *Handler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	view, err := h.Svc.RemoveCoupon(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "code"))
	h.writeView(w, view, err)
}

// SelectTax switches the active tax rule.
func (h *Handler) SelectTax(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RuleID string `json:"ruleId"`
	}
	if !h.decode(w, r, &payload) {
		return
	}
	view, err := h.Svc.SelectTax(r.Context(), chi.URLParam(r, "id"), payload.RuleID)
	h.writeView(w, view, err)
}

// SetCustomer attaches a customer.
func (h *Handler) SetCustomer(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Customer string `json:"customer"`
	}
	if !h.decode(w, r, &payload) {
		return
	}
	view, err := h.Svc.SetCustomer(r.Context(), chi.URLParam(r, "id"), payload.Customer)
	h.writeView(w, view, err)
}

// SetCreditSale toggles the credit-sale flag.
func (h *Handler) SetCreditSale(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		IsCreditSale bool `json:"isCreditSale"`
	}
	if !h.decode(w, r, &payload) {
		return
	}
	view, err := h.Svc.SetCreditSale(r.Context(), chi.URLParam(r, "id"), payload.IsCreditSale)
	h.writeView(w, view, err)
}

// SetPayment assigns an amount to a payment method.
func (h *Handler) SetPayment(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Method string  `json:"method" validate:"required"`
		Amount float64 `json:"amount" validate:"gte=0"`
	}
	if !h.decode(w, r, &payload) {
		return
	}
	amount, ok := cents(w, payload.Amount)
	if !ok {
		return
	}
	view, err := h.Svc.SetPayment(r.Context(), chi.URLParam(r, "id"), payload.Method, amount)
	h.writeView(w, view, err)
}

// AutoFillPayment pays the full total with one method.
func (h *Handler) AutoFillPayment(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Method string `json:"method" validate:"required"`
	}
	if !h.decode(w, r, &payload) {
		return
	}
	view, err := h.Svc.AutoFillPayment(r.Context(), chi.URLParam(r, "id"), payload.Method)
	h.writeView(w, view, err)
}

// ApplyRoundOff floors the total to the write-off step.
func (h *Handler) ApplyRoundOff(w http.ResponseWriter, r *http.Request) {
	view, err := h.Svc.ApplyRoundOff(r.Context(), chi.URLParam(r, "id"))
	if err == nil && view.Totals.RoundOff != 0 && obs.RoundOffAppliedTotal != nil {
		obs.RoundOffAppliedTotal.Inc()
	}
	h.writeView(w, view, err)
}

// SetManualRoundOff stores a hand-entered round-off delta.
func (h *Handler) SetManualRoundOff(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Value float64 `json:"value"`
	}
	if !h.decode(w, r, &payload) {
		return
	}
	value, ok := cents(w, payload.Value)
	if !ok {
		return
	}
	view, err := h.Svc.SetManualRoundOff(r.Context(), chi.URLParam(r, "id"), value)
	if err == nil && view.Totals.RoundOff != 0 && obs.RoundOffAppliedTotal != nil {
		obs.RoundOffAppliedTotal.Inc()
	}
	h.writeView(w, view, err)
}

// ClearRoundOff removes the applied round-off.
func (h *Handler) ClearRoundOff(w http.ResponseWriter, r *http.Request) {
	view, err := h.Svc.ClearRoundOff(r.Context(), chi.URLParam(r, "id"))
	h.writeView(w, view, err)
}
