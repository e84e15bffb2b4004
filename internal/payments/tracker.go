package payments

import (
	"strings"

	"github.com/danupratama/backend-kasir/internal/pricing"
)

// Allocation is a single payment-method entry. Entries keep their insertion
// order; the pre-submit overpayment net depends on it.
type Allocation struct {
	Method string        `json:"method"`
	Amount pricing.Money `json:"amount"`
}

// Mode describes a payment method offered by the backend configuration.
type Mode struct {
	Method  string `json:"mode_of_payment"`
	Type    string `json:"type"`
	Default bool   `json:"default"`
}

// IsCash reports whether the mode is a cash-type method.
func (m Mode) IsCash() bool {
	return strings.EqualFold(strings.TrimSpace(m.Type), "cash")
}

// Tracker maintains the payment-method allocation for a cart.
type Tracker struct {
	Entries    []Allocation `json:"entries"`
	LastEdited string       `json:"lastEdited,omitempty"`
}

func (t *Tracker) find(method string) *Allocation {
	for i := range t.Entries {
		if t.Entries[i].Method == method {
			return &t.Entries[i]
		}
	}
	return nil
}

// SetAmount replaces the allocation for the method, clamping negatives to
// zero, and marks the method as the most recently edited one.
func (t *Tracker) SetAmount(method string, amount pricing.Money) {
	if amount < 0 {
		amount = 0
	}
	if e := t.find(method); e != nil {
		e.Amount = amount
	} else {
		t.Entries = append(t.Entries, Allocation{Method: method, Amount: amount})
	}
	t.LastEdited = method
}

// AutoFill zeroes every other method and assigns the full grand total to the
// given one. One-tap "pay with this method only".
func (t *Tracker) AutoFill(method string, grandTotal pricing.Money) {
	for i := range t.Entries {
		t.Entries[i].Amount = 0
	}
	t.SetAmount(method, grandTotal)
}

// ForceSingle is AutoFill with an explicit amount; used when accepting a
// round-off, which collapses the payment view to the target method.
func (t *Tracker) ForceSingle(method string, amount pricing.Money) {
	for i := range t.Entries {
		t.Entries[i].Amount = 0
	}
	t.SetAmount(method, amount)
}

// Rebalance shrinks an over-allocation after the grand total dropped. Only
// the single largest entry is reduced (floored at zero); allocations are
// never increased automatically.
func (t *Tracker) Rebalance(grandTotal pricing.Money) {
	excess := t.TotalPaid() - grandTotal
	if excess <= 0 {
		return
	}
	largest := -1
	for i := range t.Entries {
		if largest < 0 || t.Entries[i].Amount > t.Entries[largest].Amount {
			largest = i
		}
	}
	if largest < 0 {
		return
	}
	t.Entries[largest].Amount -= excess
	if t.Entries[largest].Amount < 0 {
		t.Entries[largest].Amount = 0
	}
}

// AdjustForOverpayment is the pre-submit safety net: it reduces the last
// positive allocation in insertion order by the excess, floored at zero.
// Deliberately distinct from Rebalance, which targets the largest entry.
func (t *Tracker) AdjustForOverpayment(grandTotal pricing.Money) {
	excess := t.TotalPaid() - grandTotal
	if excess <= 0 {
		return
	}
	for i := len(t.Entries) - 1; i >= 0; i-- {
		if t.Entries[i].Amount <= 0 {
			continue
		}
		t.Entries[i].Amount -= excess
		if t.Entries[i].Amount < 0 {
			t.Entries[i].Amount = 0
		}
		return
	}
}

// TotalPaid sums all allocations.
func (t *Tracker) TotalPaid() pricing.Money {
	var sum pricing.Money
	for _, e := range t.Entries {
		sum += e.Amount
	}
	return sum
}

// Outstanding returns the unpaid remainder, never negative.
func (t *Tracker) Outstanding(grandTotal pricing.Money) pricing.Money {
	if out := grandTotal - t.TotalPaid(); out > 0 {
		return out
	}
	return 0
}

// Change returns the overpayment, never negative.
func (t *Tracker) Change(grandTotal pricing.Money) pricing.Money {
	if chg := t.TotalPaid() - grandTotal; chg > 0 {
		return chg
	}
	return 0
}

// SeedDefault assigns the full grand total to the default-flagged mode when
// no allocation exists yet.
func (t *Tracker) SeedDefault(modes []Mode, grandTotal pricing.Money) {
	if len(t.Entries) > 0 {
		return
	}
	for _, m := range modes {
		if m.Default {
			t.Entries = append(t.Entries, Allocation{Method: m.Method, Amount: grandTotal})
			return
		}
	}
}

// HasCashPositive reports whether any cash-type mode currently holds a
// positive allocation.
func (t *Tracker) HasCashPositive(modes []Mode) bool {
	for _, e := range t.Entries {
		if e.Amount <= 0 {
			continue
		}
		for _, m := range modes {
			if m.Method == e.Method && m.IsCash() {
				return true
			}
		}
	}
	return false
}

// RoundTarget resolves which method absorbs the round-off delta. The
// tie-break order is fixed: most recently edited method holding a nonzero
// allocation, then a sole nonzero allocation, then any non-default nonzero
// allocation, then the default mode, then the first available mode.
func (t *Tracker) RoundTarget(modes []Mode) string {
	if t.LastEdited != "" {
		if e := t.find(t.LastEdited); e != nil && e.Amount != 0 {
			return t.LastEdited
		}
	}
	var nonzero []Allocation
	for _, e := range t.Entries {
		if e.Amount != 0 {
			nonzero = append(nonzero, e)
		}
	}
	if len(nonzero) == 1 {
		return nonzero[0].Method
	}
	defaultMethod := ""
	for _, m := range modes {
		if m.Default {
			defaultMethod = m.Method
			break
		}
	}
	for _, e := range nonzero {
		if e.Method != defaultMethod {
			return e.Method
		}
	}
	if defaultMethod != "" {
		return defaultMethod
	}
	if len(modes) > 0 {
		return modes[0].Method
	}
	return ""
}
