package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/danupratama/backend-kasir/internal/obs"
)

// Frappe talks to a Frappe-style backend over its /api/method endpoints.
// Interactive calls are single-attempt: retries are the cashier's decision,
// not the client's.
type Frappe struct {
	BaseURL   string
	APIKey    string
	APISecret string
	HTTP      *http.Client
}

const (
	methodCreateInvoice = "/api/method/posbridge.api.create_invoice"
	methodSaveDraft     = "/api/method/posbridge.api.hold_invoice"
	methodProfile       = "/api/method/posbridge.api.get_pos_profile"
	methodPaymentModes  = "/api/method/posbridge.api.get_payment_modes"
	methodTaxRules      = "/api/method/posbridge.api.get_tax_rules"
	methodProducts      = "/api/method/posbridge.api.get_products"
	methodSendReceipt   = "/api/method/posbridge.api.send_receipt"
	methodPing          = "/api/method/ping"
)

// ErrUnexpectedShape indicates the backend answered with a payload the
// client could not normalise. Callers fail closed on it.
var ErrUnexpectedShape = errors.New("erp: unexpected response shape")

func (f Frappe) client() *http.Client {
	if f.HTTP != nil {
		return f.HTTP
	}
	return &http.Client{Timeout: 15 * time.Second}
}

// envelope is the standard Frappe response wrapper.
type envelope struct {
	Message json.RawMessage `json:"message"`
	Exc     string          `json:"exception"`
	ExcType string          `json:"exc_type"`
}

func (f Frappe) call(ctx context.Context, httpMethod, path string, query url.Values, body any, out any) error {
	op := opLabel(path)
	start := time.Now()
	err := f.doCall(ctx, httpMethod, path, query, body, out)
	result := "ok"
	if err != nil {
		result = "error"
	}
	obs.ObserveERPRequest(op, result, time.Since(start))
	return err
}

func (f Frappe) doCall(ctx context.Context, httpMethod, path string, query url.Values, body any, out any) error {
	base := strings.TrimRight(strings.TrimSpace(f.BaseURL), "/")
	if base == "" {
		return errors.New("erp: base url not configured")
	}
	target := base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("erp: encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, httpMethod, target, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "token "+f.APIKey+":"+f.APISecret)
	}

	resp, err := f.client().Do(req)
	if err != nil {
		return fmt.Errorf("erp: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("erp: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("erp: %s: %s: %s", path, resp.Status, excerpt(data))
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("%w: %s", ErrUnexpectedShape, excerpt(data))
	}
	if env.Exc != "" {
		return fmt.Errorf("erp: %s: %s", path, env.Exc)
	}
	if out == nil {
		return nil
	}
	if len(env.Message) == 0 {
		return ErrUnexpectedShape
	}
	if err := json.Unmarshal(env.Message, out); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
	}
	return nil
}

// SubmitInvoice posts the finalised invoice.
func (f Frappe) SubmitInvoice(ctx context.Context, payload InvoicePayload) (InvoiceResult, error) {
	var res InvoiceResult
	if err := f.call(ctx, http.MethodPost, methodCreateInvoice, nil, payload, &res); err != nil {
		return InvoiceResult{}, err
	}
	if res.Name == "" {
		return InvoiceResult{}, ErrUnexpectedShape
	}
	return res, nil
}

// SaveDraft persists the cart as a held invoice.
func (f Frappe) SaveDraft(ctx context.Context, payload InvoicePayload) (InvoiceResult, error) {
	payload.Status = "held"
	var res InvoiceResult
	if err := f.call(ctx, http.MethodPost, methodSaveDraft, nil, payload, &res); err != nil {
		return InvoiceResult{}, err
	}
	return res, nil
}

// Profile fetches the POS profile document.
func (f Frappe) Profile(ctx context.Context) (Profile, error) {
	var p Profile
	if err := f.call(ctx, http.MethodGet, methodProfile, nil, nil, &p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// PaymentModes fetches the configured payment methods.
func (f Frappe) PaymentModes(ctx context.Context) ([]PaymentMode, error) {
	var modes []PaymentMode
	if err := f.call(ctx, http.MethodGet, methodPaymentModes, nil, nil, &modes); err != nil {
		return nil, err
	}
	return modes, nil
}

// TaxRules fetches the fixed set of selectable tax rules.
func (f Frappe) TaxRules(ctx context.Context) ([]TaxRuleDoc, error) {
	var rules []TaxRuleDoc
	if err := f.call(ctx, http.MethodGet, methodTaxRules, nil, nil, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// Products fetches a catalog page, optionally filtered by a search term.
func (f Frappe) Products(ctx context.Context, q ProductQuery) ([]Product, error) {
	query := url.Values{}
	if q.Search != "" {
		query.Set("search", q.Search)
	}
	query.Set("limit_start", strconv.Itoa(q.Start))
	if q.Limit > 0 {
		query.Set("limit_page_length", strconv.Itoa(q.Limit))
	}
	var products []Product
	if err := f.call(ctx, http.MethodGet, methodProducts, query, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Share asks the backend to deliver a receipt over email/SMS/WhatsApp.
func (f Frappe) Share(ctx context.Context, req ShareRequest) (ShareResult, error) {
	var res ShareResult
	if err := f.call(ctx, http.MethodPost, methodSendReceipt, nil, req, &res); err != nil {
		return ShareResult{}, err
	}
	return res, nil
}

// Ping probes backend reachability for readiness checks.
func (f Frappe) Ping(ctx context.Context) error {
	return f.call(ctx, http.MethodGet, methodPing, nil, nil, nil)
}

func excerpt(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > 200 {
		return s[:200]
	}
	return s
}

func opLabel(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 && i+1 < len(path) {
		return path[i+1:]
	}
	return strings.TrimPrefix(path, "/api/method/")
}
