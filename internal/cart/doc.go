package cart

import (
	"time"

	"github.com/danupratama/backend-kasir/internal/payments"
	"github.com/danupratama/backend-kasir/internal/pricing"
)

// Doc is the full cart session as persisted in Redis. It is the single
// source of truth for one sale in progress; the Snapshot is always derived
// from it, never stored.
type Doc struct {
	ID         string            `json:"id"`
	Customer   string            `json:"customer,omitempty"`
	Lines      []pricing.Line    `json:"lines"`
	Coupons    []pricing.Coupon  `json:"coupons,omitempty"`
	TaxRule    *pricing.TaxRule  `json:"taxRule,omitempty"`
	RoundOff   pricing.Money     `json:"roundOffAmount"`
	Payments   payments.Tracker  `json:"payments"`
	CreditSale bool              `json:"isCreditSale"`
	Seeded     bool              `json:"seeded"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// Snapshot recomputes the totals projection from the document state.
func (d *Doc) Snapshot() pricing.Snapshot {
	return pricing.Compute(d.Lines, d.Coupons, d.TaxRule, d.RoundOff)
}

// View is the API representation of a cart: the document plus its derived
// totals and payment summary.
type View struct {
	Doc
	Totals      pricing.Snapshot `json:"totals"`
	AmountPaid  pricing.Money    `json:"amountPaid"`
	Outstanding pricing.Money    `json:"outstandingAmount"`
	Change      pricing.Money    `json:"changeAmount"`
}

// NewView derives the API view from a document.
func NewView(d *Doc) View {
	snap := d.Snapshot()
	return View{
		Doc:         *d,
		Totals:      snap,
		AmountPaid:  d.Payments.TotalPaid(),
		Outstanding: d.Payments.Outstanding(snap.GrandTotal),
		Change:      d.Payments.Change(snap.GrandTotal),
	}
}
