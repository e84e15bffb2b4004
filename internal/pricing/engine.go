package pricing

import "github.com/danupratama/backend-kasir/internal/money"

// Money represents a monetary value stored in minor units.
type Money = money.Cents

// Line describes a cart line used for the total calculation. A non-nil
// DiscountedPrice takes precedence over UnitPrice.
type Line struct {
	ItemID          string `json:"itemId"`
	UnitPrice       Money  `json:"unitPrice"`
	Qty             int    `json:"qty"`
	DiscountedPrice *Money `json:"discountedPrice,omitempty"`
	BatchNumber     string `json:"batchNumber,omitempty"`
	SerialNumber    string `json:"serialNumber,omitempty"`
	UOM             string `json:"uom,omitempty"`
}

// EffectivePrice returns the price a unit of this line is charged at.
func (l Line) EffectivePrice() Money {
	if l.DiscountedPrice != nil {
		return *l.DiscountedPrice
	}
	return l.UnitPrice
}

// Coupon is a flat-value discount applied to the cart. Codes are unique
// within the applied set.
type Coupon struct {
	Code  string `json:"code"`
	Value Money  `json:"value"`
}

// TaxRule selects the active tax computation. Rate is stored in basis points
// (percent times 100) so the calculation stays in integer arithmetic.
type TaxRule struct {
	ID        string `json:"id"`
	RateBps   int64  `json:"rateBps"`
	Inclusive bool   `json:"inclusive"`
}

// Snapshot aggregates the computed totals. It is a pure projection of its
// inputs and is never stored independently.
type Snapshot struct {
	Subtotal       Money `json:"subtotal"`
	CouponDiscount Money `json:"couponDiscount"`
	TaxableAmount  Money `json:"taxableAmount"`
	TaxAmount      Money `json:"taxAmount"`
	RoundOff       Money `json:"roundOffAmount"`
	GrandTotal     Money `json:"grandTotal"`
}

// Compute calculates cart totals given the provided inputs.
//
// With an inclusive rule the tax is extracted from the taxable amount rather
// than added on top, so the grand total equals the taxable amount plus the
// round-off delta. A nil rule yields zero tax.
func Compute(lines []Line, coupons []Coupon, rule *TaxRule, roundOff Money) Snapshot {
	var subtotal Money
	for _, l := range lines {
		if l.Qty <= 0 {
			continue
		}
		subtotal += Money(l.Qty) * l.EffectivePrice()
	}
	var couponDiscount Money
	for _, c := range coupons {
		couponDiscount += c.Value
	}
	taxable := subtotal - couponDiscount
	if taxable < 0 {
		taxable = 0
	}
	var tax Money
	grand := taxable
	if rule != nil && rule.RateBps > 0 {
		if rule.Inclusive {
			tax = money.RoundRatio(taxable*rule.RateBps, 10000+rule.RateBps)
		} else {
			tax = money.RoundRatio(taxable*rule.RateBps, 10000)
			grand += tax
		}
	}
	grand += roundOff
	return Snapshot{
		Subtotal:       subtotal,
		CouponDiscount: couponDiscount,
		TaxableAmount:  taxable,
		TaxAmount:      tax,
		RoundOff:       roundOff,
		GrandTotal:     grand,
	}
}

// Base returns the amount the round-off policy operates on: the taxable
// amount for inclusive rules, taxable plus tax otherwise.
func (s Snapshot) Base(inclusive bool) Money {
	if inclusive {
		return s.TaxableAmount
	}
	return s.TaxableAmount + s.TaxAmount
}
