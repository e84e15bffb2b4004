package erp

import "context"

// InvoiceItem is a resolved cart line in the invoice payload.
type InvoiceItem struct {
	ItemCode           string  `json:"itemCode"`
	Qty                int     `json:"qty"`
	Price              float64 `json:"price"`
	BatchNumber        string  `json:"batchNumber,omitempty"`
	SerialNumber       string  `json:"serialNumber,omitempty"`
	UOM                string  `json:"uom,omitempty"`
	DiscountPercentage float64 `json:"discountPercentage,omitempty"`
	DiscountAmount     float64 `json:"discountAmount,omitempty"`
}

// PaymentEntry is a selected payment allocation in the invoice payload.
type PaymentEntry struct {
	Method string  `json:"method"`
	Amount float64 `json:"amount"`
}

// InvoicePayload is the outbound invoice shape the backend expects. Amounts
// are decimal at this boundary only; everything upstream is integer cents.
type InvoicePayload struct {
	Items             []InvoiceItem  `json:"items"`
	Customer          string         `json:"customer"`
	PaymentMethods    []PaymentEntry `json:"paymentMethods"`
	Subtotal          float64        `json:"subtotal"`
	TaxAmount         float64        `json:"taxAmount"`
	TaxType           string         `json:"taxType"`
	CouponDiscount    float64        `json:"couponDiscount"`
	RoundOffAmount    float64        `json:"roundOffAmount"`
	GrandTotal        float64        `json:"grandTotal"`
	AmountPaid        float64        `json:"amountPaid"`
	OutstandingAmount float64        `json:"outstandingAmount"`
	AppliedCoupons    []string       `json:"appliedCoupons"`
	BusinessType      string         `json:"businessType,omitempty"`
	IsCreditSale      bool           `json:"isCreditSale"`
	Status            string         `json:"status,omitempty"`
}

// InvoiceResult is the normalised response to an invoice submission.
type InvoiceResult struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// PaymentMode mirrors the backend payment-method configuration.
type PaymentMode struct {
	ModeOfPayment string `json:"mode_of_payment"`
	Type          string `json:"type"`
	Default       bool   `json:"default"`
}

// TaxRuleDoc mirrors the backend tax-rule configuration.
type TaxRuleDoc struct {
	ID        string  `json:"id"`
	Rate      float64 `json:"rate"`
	Inclusive bool    `json:"is_inclusive"`
	Default   bool    `json:"default"`
}

// Profile mirrors the POS profile document.
type Profile struct {
	WriteOffLimit    float64 `json:"write_off_limit"`
	AllowWriteOff    bool    `json:"custom_allow_write_off"`
	AllowCreditSales bool    `json:"custom_allow_credit_sales"`
	BusinessType     string  `json:"business_type"`
}

// Product is a catalog entry served to the cashier grid.
type Product struct {
	ItemCode  string  `json:"item_code"`
	ItemName  string  `json:"item_name"`
	Rate      float64 `json:"rate"`
	UOM       string  `json:"stock_uom"`
	ItemGroup string  `json:"item_group,omitempty"`
	Barcode   string  `json:"barcode,omitempty"`
	Image     string  `json:"image,omitempty"`
}

// ProductQuery selects a catalog page. Start/Limit follow the backend's
// limit_start/limit_page_length pagination.
type ProductQuery struct {
	Search string
	Start  int
	Limit  int
}

// ShareRequest asks the backend to deliver a receipt over a channel.
type ShareRequest struct {
	Channel      string `json:"channel"`
	MobileNo     string `json:"mobile_no,omitempty"`
	Email        string `json:"email,omitempty"`
	CustomerName string `json:"customer_name"`
	InvoiceID    string `json:"invoice_data"`
	Message      string `json:"message,omitempty"`
}

// ShareResult carries the backend's delivery outcome.
type ShareResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Ok reports whether the backend acknowledged the delivery.
func (r ShareResult) Ok() bool { return r.Status == "success" }

// Client abstracts the ERP backend the bridge talks to.
type Client interface {
	SubmitInvoice(ctx context.Context, payload InvoicePayload) (InvoiceResult, error)
	SaveDraft(ctx context.Context, payload InvoicePayload) (InvoiceResult, error)
	Profile(ctx context.Context) (Profile, error)
	PaymentModes(ctx context.Context) ([]PaymentMode, error)
	TaxRules(ctx context.Context) ([]TaxRuleDoc, error)
	Products(ctx context.Context, q ProductQuery) ([]Product, error)
	Share(ctx context.Context, req ShareRequest) (ShareResult, error)
	Ping(ctx context.Context) error
}
