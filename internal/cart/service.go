package cart

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danupratama/backend-kasir/internal/common"
	"github.com/danupratama/backend-kasir/internal/payments"
	"github.com/danupratama/backend-kasir/internal/pricing"
)

// ConfigProvider resolves the POS configuration a cart mutation depends on:
// payment modes, tax rules and the write-off policy.
type ConfigProvider interface {
	PaymentModes(ctx context.Context) ([]payments.Mode, error)
	TaxRule(ctx context.Context, id string) (*pricing.TaxRule, error)
	WriteOff(ctx context.Context) (limit pricing.Money, allowed bool, err error)
	BusinessType(ctx context.Context) (string, error)
}

// Service owns cart sessions. Every mutation follows the same cycle: apply
// the change, recompute the totals snapshot, rebalance the payment tracker
// against the new grand total, persist.
type Service struct {
	Store  *Store
	Config ConfigProvider
}

// Create opens a new empty cart session.
func (s *Service) Create(ctx context.Context) (View, error) {
	now := time.Now().UTC()
	doc := &Doc{
		ID:        uuid.NewString(),
		Lines:     []pricing.Line{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.Put(ctx, doc); err != nil {
		return View{}, err
	}
	return NewView(doc), nil
}

// Get returns the cart view. On first sight of a payable cart the tracker is
// seeded with the default payment mode carrying the full grand total.
func (s *Service) Get(ctx context.Context, id string) (View, error) {
	doc, err := s.Store.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	if !doc.Seeded {
		snap := doc.Snapshot()
		if snap.GrandTotal > 0 {
			modes, err := s.Config.PaymentModes(ctx)
			if err != nil {
				return View{}, err
			}
			doc.Payments.SeedDefault(modes, snap.GrandTotal)
			doc.Seeded = true
			if err := s.Store.Put(ctx, doc); err != nil {
				return View{}, err
			}
		}
	}
	return NewView(doc), nil
}

// Delete discards the cart session.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.Store.Delete(ctx, id)
}

// mutate loads the cart, applies fn, recomputes totals, rebalances the
// tracker against the new grand total and persists. fn returning an error
// leaves the stored cart untouched.
func (s *Service) mutate(ctx context.Context, id string, fn func(*Doc) error) (View, error) {
	return s.apply(ctx, id, true, fn)
}

// mutatePayments is mutate without the rebalance step. Payment edits are
// allowed to overpay the total; the surplus surfaces as change.
func (s *Service) mutatePayments(ctx context.Context, id string, fn func(*Doc) error) (View, error) {
	return s.apply(ctx, id, false, fn)
}

func (s *Service) apply(ctx context.Context, id string, rebalance bool, fn func(*Doc) error) (View, error) {
	doc, err := s.Store.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	if err := fn(doc); err != nil {
		return View{}, err
	}
	if rebalance {
		snap := doc.Snapshot()
		doc.Payments.Rebalance(snap.GrandTotal)
	}
	if err := s.Store.Put(ctx, doc); err != nil {
		return View{}, err
	}
	return NewView(doc), nil
}

// AddLine appends a line, or increments the quantity when an identical item
// (same id, batch and serial) is already present.
func (s *Service) AddLine(ctx context.Context, id string, line pricing.Line) (View, error) {
	line.ItemID = strings.TrimSpace(line.ItemID)
	if line.ItemID == "" {
		return View{}, common.ValidationError("itemId is required", nil)
	}
	if line.Qty <= 0 {
		return View{}, common.ValidationError("qty must be positive", nil)
	}
	if line.UnitPrice < 0 {
		return View{}, common.ValidationError("unitPrice must not be negative", nil)
	}
	return s.mutate(ctx, id, func(doc *Doc) error {
		for i := range doc.Lines {
			existing := &doc.Lines[i]
			if existing.ItemID == line.ItemID &&
				existing.BatchNumber == line.BatchNumber &&
				existing.SerialNumber == line.SerialNumber {
				existing.Qty += line.Qty
				doc.RoundOff = 0
				return nil
			}
		}
		doc.Lines = append(doc.Lines, line)
		doc.RoundOff = 0
		return nil
	})
}

// UpdateLine replaces the quantity of the indexed line. A non-positive
// quantity removes the line.
func (s *Service) UpdateLine(ctx context.Context, id string, index, qty int) (View, error) {
	return s.mutate(ctx, id, func(doc *Doc) error {
		if index < 0 || index >= len(doc.Lines) {
			return common.NotFoundError("cart line not found")
		}
		if qty <= 0 {
			doc.Lines = append(doc.Lines[:index], doc.Lines[index+1:]...)
		} else {
			doc.Lines[index].Qty = qty
		}
		doc.RoundOff = 0
		return nil
	})
}

// RemoveLine deletes the indexed line.
func (s *Service) RemoveLine(ctx context.Context, id string, index int) (View, error) {
	return s.UpdateLine(ctx, id, index, 0)
}

// ApplyCoupon adds a flat-value coupon. Codes are unique within a cart.
func (s *Service) ApplyCoupon(ctx context.Context, id string, coupon pricing.Coupon) (View, error) {
	coupon.Code = strings.TrimSpace(coupon.Code)
	if coupon.Code == "" {
		return View{}, common.ValidationError("coupon code is required", nil)
	}
	if coupon.Value <= 0 {
		return View{}, common.ValidationError("coupon value must be positive", nil)
	}
	return s.mutate(ctx, id, func(doc *Doc) error {
		for _, c := range doc.Coupons {
			if strings.EqualFold(c.Code, coupon.Code) {
				return common.ConflictError("coupon already applied")
			}
		}
		doc.Coupons = append(doc.Coupons, coupon)
		doc.RoundOff = 0
		return nil
	})
}

// RemoveCoupon drops the coupon with the given code.
func (s *Service) RemoveCoupon(ctx context.Context, id, code string) (View, error) {
	return s.mutate(ctx, id, func(doc *Doc) error {
		for i, c := range doc.Coupons {
			if strings.EqualFold(c.Code, code) {
				doc.Coupons = append(doc.Coupons[:i], doc.Coupons[i+1:]...)
				doc.RoundOff = 0
				return nil
			}
		}
		return common.NotFoundError("coupon not applied")
	})
}

// SelectTax switches the active tax rule. An empty rule id clears taxation.
func (s *Service) SelectTax(ctx context.Context, id, ruleID string) (View, error) {
	var rule *pricing.TaxRule
	if ruleID != "" {
		var err error
		rule, err = s.Config.TaxRule(ctx, ruleID)
		if err != nil {
			return View{}, err
		}
		if rule == nil {
			return View{}, common.NotFoundError("tax rule not found")
		}
	}
	return s.mutate(ctx, id, func(doc *Doc) error {
		doc.TaxRule = rule
		doc.RoundOff = 0
		return nil
	})
}

// SetCustomer attaches a customer to the cart.
func (s *Service) SetCustomer(ctx context.Context, id, customer string) (View, error) {
	return s.mutate(ctx, id, func(doc *Doc) error {
		doc.Customer = strings.TrimSpace(customer)
		return nil
	})
}

// SetCreditSale flags the cart as a credit sale; the checkout gate decides
// whether the profile actually permits it.
func (s *Service) SetCreditSale(ctx context.Context, id string, credit bool) (View, error) {
	return s.mutate(ctx, id, func(doc *Doc) error {
		doc.CreditSale = credit
		return nil
	})
}

// SetPayment assigns an amount to a payment method.
func (s *Service) SetPayment(ctx context.Context, id, method string, amount pricing.Money) (View, error) {
	method = strings.TrimSpace(method)
	if method == "" {
		return View{}, common.ValidationError("payment method is required", nil)
	}
	return s.mutatePayments(ctx, id, func(doc *Doc) error {
		doc.Payments.SetAmount(method, amount)
		return nil
	})
}

// AutoFillPayment zeroes every other method and pays the full grand total
// with the given one.
func (s *Service) AutoFillPayment(ctx context.Context, id, method string) (View, error) {
	method = strings.TrimSpace(method)
	if method == "" {
		return View{}, common.ValidationError("payment method is required", nil)
	}
	return s.mutatePayments(ctx, id, func(doc *Doc) error {
		snap := doc.Snapshot()
		doc.Payments.AutoFill(method, snap.GrandTotal)
		return nil
	})
}

// ApplyRoundOff floors the current total to the write-off step and collapses
// the payment view onto the resolved target method. An invoice-only business
// records the round-off without touching the allocations.
func (s *Service) ApplyRoundOff(ctx context.Context, id string) (View, error) {
	limit, modes, invoiceOnly, err := s.roundOffContext(ctx)
	if err != nil {
		return View{}, err
	}
	return s.mutate(ctx, id, func(doc *Doc) error {
		if !invoiceOnly && !doc.Payments.HasCashPositive(modes) {
			return common.ValidationError("round-off requires a cash payment with a positive amount", nil)
		}
		doc.RoundOff = 0
		inclusive := doc.TaxRule != nil && doc.TaxRule.Inclusive
		base := doc.Snapshot().Base(inclusive)
		_, delta := pricing.RoundDown(base, limit)
		doc.RoundOff = delta
		s.collapsePayments(doc, modes, invoiceOnly)
		return nil
	})
}

// SetManualRoundOff accepts a hand-entered round-off delta. The value is
// coerced negative and rejected beyond the write-off allowance.
func (s *Service) SetManualRoundOff(ctx context.Context, id string, value pricing.Money) (View, error) {
	limit, modes, invoiceOnly, err := s.roundOffContext(ctx)
	if err != nil {
		return View{}, err
	}
	coerced, err := pricing.CoerceManualRoundOff(value, limit)
	if err != nil {
		return View{}, common.ValidationError("round-off exceeds the write-off limit", map[string]any{
			"maxRoundOff": pricing.MaxRoundOff(limit),
		})
	}
	return s.mutate(ctx, id, func(doc *Doc) error {
		if !invoiceOnly && !doc.Payments.HasCashPositive(modes) {
			return common.ValidationError("round-off requires a cash payment with a positive amount", nil)
		}
		doc.RoundOff = coerced
		s.collapsePayments(doc, modes, invoiceOnly)
		return nil
	})
}

func (s *Service) roundOffContext(ctx context.Context) (pricing.Money, []payments.Mode, bool, error) {
	limit, allowed, err := s.Config.WriteOff(ctx)
	if err != nil {
		return 0, nil, false, err
	}
	if !allowed {
		return 0, nil, false, common.ConfigurationError("write-off is not enabled for this profile")
	}
	modes, err := s.Config.PaymentModes(ctx)
	if err != nil {
		return 0, nil, false, err
	}
	business, err := s.Config.BusinessType(ctx)
	if err != nil {
		return 0, nil, false, err
	}
	return limit, modes, strings.EqualFold(business, "invoice"), nil
}

func (s *Service) collapsePayments(doc *Doc, modes []payments.Mode, invoiceOnly bool) {
	if invoiceOnly {
		return
	}
	snap := doc.Snapshot()
	if target := doc.Payments.RoundTarget(modes); target != "" {
		doc.Payments.ForceSingle(target, snap.GrandTotal)
	}
}

// ClearRoundOff removes an applied round-off.
func (s *Service) ClearRoundOff(ctx context.Context, id string) (View, error) {
	return s.mutate(ctx, id, func(doc *Doc) error {
		doc.RoundOff = 0
		return nil
	})
}
