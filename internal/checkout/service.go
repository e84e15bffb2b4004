package checkout

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/danupratama/backend-kasir/internal/cart"
	"github.com/danupratama/backend-kasir/internal/common"
	"github.com/danupratama/backend-kasir/internal/erp"
	"github.com/danupratama/backend-kasir/internal/events"
	"github.com/danupratama/backend-kasir/internal/lock"
	"github.com/danupratama/backend-kasir/internal/money"
	"github.com/danupratama/backend-kasir/internal/obs"
	"github.com/danupratama/backend-kasir/internal/payments"
)

// ProfileSource provides the backend profile a checkout is validated against.
type ProfileSource interface {
	Profile(ctx context.Context) (erp.Profile, error)
}

// Receipt is the checkout outcome returned to the cashier.
type Receipt struct {
	InvoiceID    string  `json:"invoiceId"`
	Status       string  `json:"status"`
	GrandTotal   float64 `json:"grandTotal"`
	AmountPaid   float64 `json:"amountPaid"`
	ChangeAmount float64 `json:"changeAmount"`
}

// Service orchestrates the final submission of a cart. The session stays
// intact on every failure path; it is only discarded after the backend
// confirmed the invoice.
type Service struct {
	Carts   *cart.Service
	Profile ProfileSource
	ERP     erp.Client
	Events  *events.Bus
	Locker  *lock.Locker
	LockTTL time.Duration
	Log     zerolog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

// acquire marks the cart as being checked out; a second submit while the
// first is in flight is rejected rather than queued. With a Locker the guard
// also holds across bridge instances.
func (s *Service) acquire(ctx context.Context, id string) (func(), error) {
	s.mu.Lock()
	if s.inflight == nil {
		s.inflight = make(map[string]struct{})
	}
	if _, busy := s.inflight[id]; busy {
		s.mu.Unlock()
		return nil, common.ConflictError("checkout already in progress for this cart")
	}
	s.inflight[id] = struct{}{}
	s.mu.Unlock()

	releaseLocal := func() {
		s.mu.Lock()
		delete(s.inflight, id)
		s.mu.Unlock()
	}
	if s.Locker == nil {
		return releaseLocal, nil
	}
	releaseRemote, ok, err := s.Locker.TryLock(ctx, "kasir:checkout:"+id, s.LockTTL)
	if err != nil {
		releaseLocal()
		return nil, err
	}
	if !ok {
		releaseLocal()
		return nil, common.ConflictError("checkout already in progress for this cart")
	}
	return func() {
		releaseRemote()
		releaseLocal()
	}, nil
}

// Submit validates the cart, posts the invoice to the backend and, on
// success only, discards the session.
func (s *Service) Submit(ctx context.Context, cartID string) (Receipt, error) {
	release, err := s.acquire(ctx, cartID)
	if err != nil {
		return Receipt{}, err
	}
	defer release()

	view, err := s.Carts.Get(ctx, cartID)
	if err != nil {
		if err == cart.ErrNotFound {
			return Receipt{}, common.NotFoundError("cart not found")
		}
		return Receipt{}, err
	}
	p, err := s.Profile.Profile(ctx)
	if err != nil {
		return Receipt{}, err
	}
	if err := validate(&view, p); err != nil {
		countSubmit("rejected")
		return Receipt{}, err
	}

	payload := buildPayload(&view, p, "")
	res, err := s.ERP.SubmitInvoice(ctx, payload)
	if err != nil {
		countSubmit("error")
		s.Log.Error().Err(err).Str("cart_id", cartID).Msg("invoice submission failed")
		return Receipt{}, common.ExternalError("invoice submission failed; the cart is preserved", err)
	}

	if err := s.Carts.Delete(ctx, cartID); err != nil {
		s.Log.Warn().Err(err).Str("cart_id", cartID).Msg("unable to discard cart after submit")
	}
	countSubmit("success")
	s.Events.Emit(ctx, events.TopicCheckoutCompleted, map[string]any{
		"cartId":    cartID,
		"invoiceId": res.Name,
		"customer":  view.Customer,
	})
	return receipt(&view, res), nil
}

// Hold saves the cart as a draft invoice on the backend. The session is kept
// so the sale can be resumed.
func (s *Service) Hold(ctx context.Context, cartID string) (Receipt, error) {
	release, err := s.acquire(ctx, cartID)
	if err != nil {
		return Receipt{}, err
	}
	defer release()

	view, err := s.Carts.Get(ctx, cartID)
	if err != nil {
		if err == cart.ErrNotFound {
			return Receipt{}, common.NotFoundError("cart not found")
		}
		return Receipt{}, err
	}
	if len(view.Lines) == 0 {
		countHold("rejected")
		return Receipt{}, common.ValidationError("cart is empty", nil)
	}
	p, err := s.Profile.Profile(ctx)
	if err != nil {
		return Receipt{}, err
	}

	payload := buildPayload(&view, p, "held")
	res, err := s.ERP.SaveDraft(ctx, payload)
	if err != nil {
		countHold("error")
		return Receipt{}, common.ExternalError("unable to hold the invoice; the cart is preserved", err)
	}
	countHold("success")
	s.Events.Emit(ctx, events.TopicCheckoutHeld, map[string]any{
		"cartId":    cartID,
		"invoiceId": res.Name,
	})
	return receipt(&view, res), nil
}

// validate enforces the submit gates. A credit sale skips the payment
// completeness check entirely; an invoice-type business tolerates an
// outstanding balance on any sale.
func validate(view *cart.View, p erp.Profile) error {
	if len(view.Lines) == 0 {
		return common.ValidationError("cart is empty", nil)
	}
	if strings.TrimSpace(view.Customer) == "" {
		return common.ValidationError("customer is required", nil)
	}
	if view.CreditSale {
		if !p.AllowCreditSales {
			return common.ConfigurationError("credit sales are not enabled for this profile")
		}
		return nil
	}
	if view.Outstanding > 0 && !strings.EqualFold(p.BusinessType, "invoice") {
		return common.ValidationError("payment is incomplete", map[string]any{
			"outstandingAmount": view.Outstanding,
		})
	}
	return nil
}

// buildPayload converts the integer-cent cart document into the decimal
// invoice shape. Overpayment is netted off the last positive allocation
// right before the boundary so the backend never sees change as payment.
func buildPayload(view *cart.View, p erp.Profile, status string) erp.InvoicePayload {
	snap := view.Totals
	tracker := payments.Tracker{
		Entries:    append([]payments.Allocation(nil), view.Payments.Entries...),
		LastEdited: view.Payments.LastEdited,
	}
	tracker.AdjustForOverpayment(snap.GrandTotal)

	items := make([]erp.InvoiceItem, 0, len(view.Lines))
	for _, l := range view.Lines {
		item := erp.InvoiceItem{
			ItemCode:     l.ItemID,
			Qty:          l.Qty,
			Price:        money.Decimal(l.UnitPrice),
			BatchNumber:  l.BatchNumber,
			SerialNumber: l.SerialNumber,
			UOM:          l.UOM,
		}
		if l.DiscountedPrice != nil {
			item.Price = money.Decimal(*l.DiscountedPrice)
			item.DiscountAmount = money.Decimal((l.UnitPrice - *l.DiscountedPrice) * money.Cents(l.Qty))
			if l.UnitPrice > 0 {
				item.DiscountPercentage = float64(l.UnitPrice-*l.DiscountedPrice) / float64(l.UnitPrice) * 100
			}
		}
		items = append(items, item)
	}

	entries := make([]erp.PaymentEntry, 0, len(tracker.Entries))
	for _, e := range tracker.Entries {
		if e.Amount <= 0 {
			continue
		}
		entries = append(entries, erp.PaymentEntry{Method: e.Method, Amount: money.Decimal(e.Amount)})
	}

	coupons := make([]string, 0, len(view.Coupons))
	for _, c := range view.Coupons {
		coupons = append(coupons, c.Code)
	}

	taxType := ""
	if view.TaxRule != nil {
		taxType = "exclusive"
		if view.TaxRule.Inclusive {
			taxType = "inclusive"
		}
	}

	return erp.InvoicePayload{
		Items:             items,
		Customer:          view.Customer,
		PaymentMethods:    entries,
		Subtotal:          money.Decimal(snap.Subtotal),
		TaxAmount:         money.Decimal(snap.TaxAmount),
		TaxType:           taxType,
		CouponDiscount:    money.Decimal(snap.CouponDiscount),
		RoundOffAmount:    money.Decimal(snap.RoundOff),
		GrandTotal:        money.Decimal(snap.GrandTotal),
		AmountPaid:        money.Decimal(tracker.TotalPaid()),
		OutstandingAmount: money.Decimal(tracker.Outstanding(snap.GrandTotal)),
		AppliedCoupons:    coupons,
		BusinessType:      p.BusinessType,
		IsCreditSale:      view.CreditSale,
		Status:            status,
	}
}

func receipt(view *cart.View, res erp.InvoiceResult) Receipt {
	return Receipt{
		InvoiceID:    res.Name,
		Status:       res.Status,
		GrandTotal:   money.Decimal(view.Totals.GrandTotal),
		AmountPaid:   money.Decimal(view.AmountPaid),
		ChangeAmount: money.Decimal(view.Change),
	}
}

func countSubmit(result string) {
	if obs.CheckoutSubmitTotal != nil {
		obs.CheckoutSubmitTotal.WithLabelValues(result).Inc()
	}
}

func countHold(result string) {
	if obs.CheckoutHoldTotal != nil {
		obs.CheckoutHoldTotal.WithLabelValues(result).Inc()
	}
}
