package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"easypharma/m/domain"
	"easypharma/m/internal/api"
	"easypharma/m/internal/database"
	"easypharma/m/internal/migrations"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db := database.Connect(":memory:")
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Run(db))

	srv := httptest.NewServer(api.New(db, "test_secret").Router())
	t.Cleanup(srv.Close)
	return srv
}

func request(t *testing.T, srv *httptest.Server, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func signupPharmacy(t *testing.T, srv *httptest.Server, email string) string {
	t.Helper()
	resp := request(t, srv, http.MethodPost, "/auth/signup", "", map[string]any{
		"full_name":     "Test Owner",
		"email":         email,
		"password":      "secret123",
		"role":          "pharmacy",
		"pharmacy_name": "Test Pharmacy",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var body map[string]any
	decode(t, resp, &body)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func createMedicine(t *testing.T, srv *httptest.Server, token, name string) float64 {
	t.Helper()
	resp := request(t, srv, http.MethodPost, "/catalog/medicines", token, map[string]any{
		"name":     name,
		"brand":    "Generic Labs",
		"category": "General",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var body map[string]any
	decode(t, resp, &body)
	return body["id"].(float64)
}

func addInventory(t *testing.T, srv *httptest.Server, token string, medicineID float64, price float64, qty int, expiry string) float64 {
	t.Helper()
	resp := request(t, srv, http.MethodPost, "/inventory", token, map[string]any{
		"medicine_id":       medicineID,
		"batch_number":      "B-001",
		"expiry_date":       expiry,
		"purchase_price":    price / 2,
		"selling_price":     price,
		"quantity_in_stock": qty,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var body map[string]any
	decode(t, resp, &body)
	return body["id"].(float64)
}

func TestPOSCheckoutFlow(t *testing.T) {
	srv := newTestServer(t)
	token := signupPharmacy(t, srv, "owner@example.com")

	paraID := createMedicine(t, srv, token, "Paracetamol")
	amoxID := createMedicine(t, srv, token, "Amoxicillin")
	paraInv := addInventory(t, srv, token, paraID, 10, 5, "2030-06-30")
	amoxInv := addInventory(t, srv, token, amoxID, 50, 5, "2030-06-30")

	// Two units of paracetamol, one of amoxicillin.
	resp := request(t, srv, http.MethodPost, "/pos/cart/items", token, map[string]any{"inventory_id": paraInv})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = request(t, srv, http.MethodPost, "/pos/cart/items", token, map[string]any{"inventory_id": paraInv})
	var cart map[string]any
	decode(t, resp, &cart)
	lines := cart["lines"].([]any)
	require.Len(t, lines, 1)
	require.Equal(t, float64(2), lines[0].(map[string]any)["quantity"])

	resp = request(t, srv, http.MethodPost, "/pos/cart/items", token, map[string]any{"inventory_id": amoxInv})
	decode(t, resp, &cart)
	require.Equal(t, float64(70), cart["total"])

	resp = request(t, srv, http.MethodPost, "/pos/checkout", token, map[string]any{"payment_method": "cash"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var receipt map[string]any
	decode(t, resp, &receipt)
	require.Equal(t, float64(70), receipt["total_amount"])
	number := receipt["transaction_number"].(string)
	require.True(t, strings.HasPrefix(number, "TXN-"))

	// The cart is spent.
	resp = request(t, srv, http.MethodGet, "/pos/cart", token, nil)
	decode(t, resp, &cart)
	require.Empty(t, cart["lines"])

	// Stock went down by the sold quantities; 3 and 4 are both at or
	// below the default reorder level of 10.
	resp = request(t, srv, http.MethodGet, "/inventory", token, nil)
	var rows []map[string]any
	decode(t, resp, &rows)
	byID := map[float64]map[string]any{}
	for _, row := range rows {
		byID[row["id"].(float64)] = row
	}
	require.Equal(t, float64(3), byID[paraInv]["quantity_in_stock"])
	require.Equal(t, float64(4), byID[amoxInv]["quantity_in_stock"])
	require.Equal(t, true, byID[paraInv]["low_stock"])
	require.Equal(t, false, byID[paraInv]["expired"])

	// The report sees the sale.
	resp = request(t, srv, http.MethodGet, "/reports/sales?range=today", token, nil)
	var reportBody map[string]any
	decode(t, resp, &reportBody)
	stats := reportBody["stats"].(map[string]any)
	require.Equal(t, float64(70), stats["total_sales"])
	require.Equal(t, float64(1), stats["transaction_count"])
	require.Equal(t, "Paracetamol", stats["top_selling_medicine"])

	resp = request(t, srv, http.MethodGet, "/reports/sales/export", token, nil)
	require.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	csv := string(raw)
	require.Contains(t, csv, `"Transaction Number"`)
	require.Contains(t, csv, `"`+number+`"`)
	require.Contains(t, csv, `"Walk-in Customer"`)
	require.Contains(t, csv, `"70.00"`)

	resp = request(t, srv, http.MethodGet, "/dashboard", token, nil)
	var dash map[string]any
	decode(t, resp, &dash)
	require.Equal(t, float64(70), dash["today_revenue"])
	require.Equal(t, float64(1), dash["today_transactions"])
	require.Equal(t, float64(2), dash["total_items"])
}

func TestCartAddWarnsWhenStockExhausted(t *testing.T) {
	srv := newTestServer(t)
	token := signupPharmacy(t, srv, "owner@example.com")
	medID := createMedicine(t, srv, token, "Insulin")
	invID := addInventory(t, srv, token, medID, 400, 1, "2030-06-30")

	resp := request(t, srv, http.MethodPost, "/pos/cart/items", token, map[string]any{"inventory_id": invID})
	var cart map[string]any
	decode(t, resp, &cart)
	require.Empty(t, cart["warning"])

	resp = request(t, srv, http.MethodPost, "/pos/cart/items", token, map[string]any{"inventory_id": invID})
	decode(t, resp, &cart)
	require.Contains(t, cart["warning"], "1 units available")
	require.Equal(t, float64(1), cart["lines"].([]any)[0].(map[string]any)["quantity"])
}

func TestDashboardExpiringSoonMatchesInventoryFlags(t *testing.T) {
	srv := newTestServer(t)
	token := signupPharmacy(t, srv, "owner@example.com")
	medID := createMedicine(t, srv, token, "Insulin")

	// One batch on the last day of the expiry window, one just past it.
	edge := domain.ExpiryWindowEnd(time.Now())
	edgeDay, err := time.ParseInLocation(domain.ExpiryLayout, edge, time.Local)
	require.NoError(t, err)
	beyond := edgeDay.AddDate(0, 0, 1).Format(domain.ExpiryLayout)
	edgeInv := addInventory(t, srv, token, medID, 400, 5, edge)
	beyondInv := addInventory(t, srv, token, medID, 400, 5, beyond)

	resp := request(t, srv, http.MethodGet, "/inventory", token, nil)
	var rows []map[string]any
	decode(t, resp, &rows)
	flagged := 0
	for _, row := range rows {
		if row["expiring_soon"] == true {
			flagged++
		}
		switch row["id"] {
		case edgeInv:
			require.Equal(t, true, row["expiring_soon"])
		case beyondInv:
			require.Equal(t, false, row["expiring_soon"])
		}
	}
	require.Equal(t, 1, flagged)

	// The dashboard counts the same rows the inventory flags do.
	resp = request(t, srv, http.MethodGet, "/dashboard", token, nil)
	var dash map[string]any
	decode(t, resp, &dash)
	require.Equal(t, float64(flagged), dash["expiring_soon_items"])
}

func TestCheckoutEmptyCartRejected(t *testing.T) {
	srv := newTestServer(t)
	token := signupPharmacy(t, srv, "owner@example.com")

	resp := request(t, srv, http.MethodPost, "/pos/checkout", token, map[string]any{"payment_method": "cash"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t)
	resp := request(t, srv, http.MethodGet, "/inventory", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestNonPharmacyRoleForbidden(t *testing.T) {
	srv := newTestServer(t)
	resp := request(t, srv, http.MethodPost, "/auth/signup", "", map[string]any{
		"full_name": "A Customer",
		"email":     "customer@example.com",
		"password":  "secret123",
		"role":      "customer",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var body map[string]any
	decode(t, resp, &body)
	token := body["token"].(string)

	resp = request(t, srv, http.MethodGet, "/inventory", token, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Non-pharmacy roles still get a dashboard, shaped as a profile.
	resp = request(t, srv, http.MethodGet, "/dashboard", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var dash map[string]any
	decode(t, resp, &dash)
	require.Equal(t, "customer", dash["role"])
}

func TestSignupValidation(t *testing.T) {
	srv := newTestServer(t)

	resp := request(t, srv, http.MethodPost, "/auth/signup", "", map[string]any{
		"full_name": "X", "email": "x@example.com", "password": "p", "role": "wizard",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = request(t, srv, http.MethodPost, "/auth/signup", "", map[string]any{
		"full_name": "X", "email": "x@example.com", "password": "p", "role": "pharmacy",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestPharmacyLookupFailureIsServerError(t *testing.T) {
	db := database.Connect(":memory:")
	require.NoError(t, migrations.Run(db))
	srv := httptest.NewServer(api.New(db, "test_secret").Router())
	t.Cleanup(srv.Close)
	token := signupPharmacy(t, srv, "owner@example.com")

	// A broken database is a server error, not a missing pharmacy.
	require.NoError(t, db.Close())
	resp := request(t, srv, http.MethodGet, "/inventory", token, nil)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	resp.Body.Close()
}

func TestLogin(t *testing.T) {
	srv := newTestServer(t)
	signupPharmacy(t, srv, "owner@example.com")

	resp := request(t, srv, http.MethodPost, "/auth/login", "", map[string]any{
		"email": "Owner@Example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	decode(t, resp, &body)
	require.NotEmpty(t, body["token"])

	resp = request(t, srv, http.MethodPost, "/auth/login", "", map[string]any{
		"email": "owner@example.com", "password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}
