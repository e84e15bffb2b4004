package erp

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
)

// Mock returns canned data and is useful for development and tests.
type Mock struct {
	counter atomic.Int64

	// FailSubmit forces SubmitInvoice to return an error when set.
	FailSubmit error
}

// SubmitInvoice synthesises a deterministic invoice name.
func (m *Mock) SubmitInvoice(_ context.Context, payload InvoicePayload) (InvoiceResult, error) {
	if m.FailSubmit != nil {
		return InvoiceResult{}, m.FailSubmit
	}
	if payload.Customer == "" {
		return InvoiceResult{}, fmt.Errorf("customer is required")
	}
	n := m.counter.Add(1)
	return InvoiceResult{Name: fmt.Sprintf("POS-INV-%05d", n), Status: "submitted"}, nil
}

// SaveDraft synthesises a held invoice name.
func (m *Mock) SaveDraft(_ context.Context, _ InvoicePayload) (InvoiceResult, error) {
	n := m.counter.Add(1)
	return InvoiceResult{Name: fmt.Sprintf("POS-HLD-%05d", n), Status: "held"}, nil
}

// Profile returns a permissive development profile.
func (*Mock) Profile(context.Context) (Profile, error) {
	return Profile{
		WriteOffLimit:    1.0,
		AllowWriteOff:    true,
		AllowCreditSales: true,
		BusinessType:     "retail",
	}, nil
}

// PaymentModes returns a cash-default mode set.
func (*Mock) PaymentModes(context.Context) ([]PaymentMode, error) {
	return []PaymentMode{
		{ModeOfPayment: "Cash", Type: "Cash", Default: true},
		{ModeOfPayment: "Card", Type: "Bank"},
		{ModeOfPayment: "QRIS", Type: "Phone"},
	}, nil
}

// TaxRules returns a pair of inclusive/exclusive rules.
func (*Mock) TaxRules(context.Context) ([]TaxRuleDoc, error) {
	return []TaxRuleDoc{
		{ID: "VAT-11", Rate: 11, Default: true},
		{ID: "VAT-11-INC", Rate: 11, Inclusive: true},
	}, nil
}

// Products returns canned catalog entries matching the search term.
func (*Mock) Products(_ context.Context, q ProductQuery) ([]Product, error) {
	all := []Product{
		{ItemCode: "KOPI-001", ItemName: "Kopi Susu", Rate: 18000, UOM: "Unit"},
		{ItemCode: "TEH-001", ItemName: "Teh Manis", Rate: 8000, UOM: "Unit"},
		{ItemCode: "ROTI-001", ItemName: "Roti Bakar", Rate: 15000, UOM: "Unit"},
	}
	if q.Start >= len(all) {
		return nil, nil
	}
	var out []Product
	for _, p := range all[q.Start:] {
		if q.Search != "" && !strings.Contains(strings.ToLower(p.ItemName), strings.ToLower(q.Search)) {
			continue
		}
		out = append(out, p)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

// Share acknowledges every delivery.
func (*Mock) Share(_ context.Context, req ShareRequest) (ShareResult, error) {
	if req.MobileNo == "" && req.Email == "" {
		return ShareResult{Status: "error", Error: "missing recipient"}, nil
	}
	return ShareResult{Status: "success", Message: "queued"}, nil
}

// Ping always succeeds.
func (*Mock) Ping(context.Context) error { return nil }
