package erp_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danupratama/backend-kasir/internal/erp"
)

func newServer(t *testing.T, handler http.HandlerFunc) erp.Frappe {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return erp.Frappe{BaseURL: srv.URL, APIKey: "key", APISecret: "secret", HTTP: srv.Client()}
}

func TestSubmitInvoice(t *testing.T) {
	t.Parallel()

	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "token key:secret", r.Header.Get("Authorization"))

		var payload erp.InvoicePayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "Budi Santoso", payload.Customer)
		require.InDelta(t, 103.50, payload.GrandTotal, 1e-9)
		require.Equal(t, "exclusive", payload.TaxType)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]any{"name": "ACC-PSINV-2025-00042", "status": "submitted"},
		})
	})

	res, err := client.SubmitInvoice(context.Background(), erp.InvoicePayload{
		Customer:   "Budi Santoso",
		GrandTotal: 103.50,
		TaxType:    "exclusive",
	})
	require.NoError(t, err)
	require.Equal(t, "ACC-PSINV-2025-00042", res.Name)
}

func TestSubmitInvoiceFailsClosedOnShapeMismatch(t *testing.T) {
	t.Parallel()

	client := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"message": {"unexpected": true}}`))
	})
	_, err := client.SubmitInvoice(context.Background(), erp.InvoicePayload{Customer: "x"})
	require.ErrorIs(t, err, erp.ErrUnexpectedShape)
}

func TestCallSurfacesBackendException(t *testing.T) {
	t.Parallel()

	client := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"exception": "frappe.ValidationError: customer missing"}`))
	})
	_, err := client.SubmitInvoice(context.Background(), erp.InvoicePayload{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "customer missing")
}

func TestCallSurfacesHTTPError(t *testing.T) {
	t.Parallel()

	client := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "internal server error", http.StatusBadGateway)
	})
	_, err := client.Profile(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "502")
}

func TestProductsPagination(t *testing.T) {
	t.Parallel()

	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "40", r.URL.Query().Get("limit_start"))
		require.Equal(t, "20", r.URL.Query().Get("limit_page_length"))
		require.Equal(t, "kopi", r.URL.Query().Get("search"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": []map[string]any{
				{"item_code": "KOPI-001", "item_name": "Kopi Susu", "rate": 18000, "stock_uom": "Unit"},
			},
		})
	})

	products, err := client.Products(context.Background(), erp.ProductQuery{Search: "kopi", Start: 40, Limit: 20})
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, "KOPI-001", products[0].ItemCode)
}

func TestShareResult(t *testing.T) {
	t.Parallel()

	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req erp.ShareRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "whatsapp", req.Channel)
		require.Equal(t, "+628123456789", req.MobileNo)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]any{"status": "success", "message": "sent"},
		})
	})

	res, err := client.Share(context.Background(), erp.ShareRequest{
		Channel:      "whatsapp",
		MobileNo:     "+628123456789",
		CustomerName: "Budi Santoso",
		InvoiceID:    "ACC-PSINV-2025-00042",
	})
	require.NoError(t, err)
	require.True(t, res.Ok())
}

func TestProfileNormalisation(t *testing.T) {
	t.Parallel()

	client := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]any{
				"write_off_limit":           5.0,
				"custom_allow_write_off":    true,
				"custom_allow_credit_sales": false,
				"business_type":             "retail",
			},
		})
	})
	profile, err := client.Profile(context.Background())
	require.NoError(t, err)
	require.InDelta(t, 5.0, profile.WriteOffLimit, 1e-9)
	require.True(t, profile.AllowWriteOff)
	require.False(t, profile.AllowCreditSales)
}
