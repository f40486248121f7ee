package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"posledger/backend/internal/domain"
	"posledger/backend/internal/metrics"
	"posledger/backend/internal/service"
	"posledger/backend/internal/store/memory"
)

const (
	ownerPassword   = "Owner#Test1"
	cashierPassword = "Cashier#Test1"

	chipsID     = 4
	chocolateID = 5
	snacksID    = 2
)

// newTestAPI builds a full API with the seeded in-memory store, real
// AuthManager and real Service so handler tests exercise the complete
// request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()
	t.Setenv("SEED_OWNER_PASSWORD", ownerPassword)
	t.Setenv("SEED_CASHIER_PASSWORD", cashierPassword)

	repo := memory.NewSeeded()
	m := metrics.New()
	svc := service.New(repo, service.Options{Metrics: m})
	auth := NewAuthManager("test-secret-key", time.Hour, repo)

	return New(svc, auth, Options{
		AllowedOrigins: []string{"http://localhost:5173"},
		Metrics:        m,
		Logger:         zap.NewNop(),
	})
}

func doJSON(t *testing.T, h http.Handler, method string, path string, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, h http.Handler, email string, password string) string {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{Email: email, Password: password})
	if rec.Code != http.StatusOK {
		t.Fatalf("login as %s failed: %d %s", email, rec.Code, rec.Body.String())
	}
	var payload domain.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		t.Fatalf("expected access token in login response")
	}
	return payload.AccessToken
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[map[string]string](t, rec)["error"]
}

func TestHandleHealth(t *testing.T) {
	api := newTestAPI(t)
	rec := doJSON(t, api.Handler(), http.MethodGet, "/healthz", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody[map[string]any](t, rec)
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestHandleLogin_Success(t *testing.T) {
	api := newTestAPI(t)
	rec := doJSON(t, api.Handler(), http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{
		Email:    "owner@demo.local",
		Password: ownerPassword,
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	resp := decodeBody[domain.LoginResponse](t, rec)
	if resp.AccessToken == "" || resp.TokenType != "bearer" {
		t.Fatalf("expected bearer access token, got %+v", resp)
	}
	if resp.Store.BusinessName != "Demo Mart" || resp.User.Role != domain.RoleOwner {
		t.Fatalf("unexpected login payload %+v", resp)
	}
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	api := newTestAPI(t)
	rec := doJSON(t, api.Handler(), http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{
		Email:    "owner@demo.local",
		Password: "wrongpassword",
	})

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleSignupThenLogin(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/signup", "", validSignup())
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	signup := decodeBody[domain.SignupResponse](t, rec)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/products", signup.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if products := decodeBody[[]domain.Product](t, rec); len(products) != 0 {
		t.Fatalf("new store should start with an empty catalog, got %d products", len(products))
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/auth/signup", "", validSignup())
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate signup, got %d", rec.Code)
	}
}

func TestHandleProducts_RequiresAuth(t *testing.T) {
	api := newTestAPI(t)
	rec := doJSON(t, api.Handler(), http.MethodGet, "/api/v1/products", "", nil)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = doJSON(t, api.Handler(), http.MethodGet, "/api/v1/products", "garbage", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %d", rec.Code)
	}
}

func TestHandleProducts_WithValidToken(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := login(t, handler, "cashier@demo.local", cashierPassword)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/products", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if products := decodeBody[[]domain.Product](t, rec); len(products) != 7 {
		t.Fatalf("expected 7 seeded products, got %d", len(products))
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/products?low_stock=true", token, nil)
	low := decodeBody[[]domain.Product](t, rec)
	if len(low) != 1 || low[0].Name != "Chocolate Bar" {
		t.Fatalf("expected only Chocolate Bar to be low, got %+v", low)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/products/by-barcode/8991001000042", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for barcode lookup, got %d", rec.Code)
	}
	chips := decodeBody[domain.Product](t, rec)
	if chips.Name != "Potato Chips 68g" || chips.CategoryName == nil || *chips.CategoryName != "Snacks" {
		t.Fatalf("unexpected barcode product %+v", chips)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/products/by-barcode/0000", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown barcode, got %d", rec.Code)
	}
}

func TestCashierCannotChangeCatalog(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	cashier := login(t, handler, "cashier@demo.local", cashierPassword)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/products", cashier, map[string]any{
		"name":          "Bottled Juice",
		"selling_price": 1.25,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodPatch, fmt.Sprintf("/api/v1/products/%d", chipsID), cashier, map[string]any{"selling_price": 0.01})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 on patch, got %d", rec.Code)
	}

	owner := login(t, handler, "owner@demo.local", ownerPassword)
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/products", owner, map[string]any{
		"name":           "Bottled Juice",
		"selling_price":  1.25,
		"stock_quantity": 30,
		"category_id":    1,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	created := decodeBody[domain.Product](t, rec)
	if created.MinStockLevel != 10 || created.CategoryName == nil || *created.CategoryName != "Beverages" {
		t.Fatalf("unexpected created product %+v", created)
	}
}

func TestCreateTransactionEndpoint(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := login(t, handler, "cashier@demo.local", cashierPassword)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/transactions/create", token, map[string]any{
		"items": []map[string]any{
			{"product_id": chipsID, "quantity": 2, "product_name": "Potato Chips 68g", "unit_price": 0.01},
		},
		"payment_method": "cash",
		"customer_id":    1,
		"discount_type":  "percentage",
		"discount_value": 10,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	created := decodeBody[map[string]any](t, rec)
	if created["message"] != "Sale successful" {
		t.Fatalf("unexpected message %v", created["message"])
	}
	if created["total_amount"] != 2.7 {
		t.Fatalf("expected total 2.7 as a JSON number, got %v", created["total_amount"])
	}
	id := int64(created["id"].(float64))

	rec = doJSON(t, handler, http.MethodGet, fmt.Sprintf("/api/v1/transactions/%d", id), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	txn := decodeBody[domain.Transaction](t, rec)
	if len(txn.Items) != 1 || txn.Items[0].ProductName != "Potato Chips 68g" || txn.Items[0].UnitPrice.String() != "1.5" {
		t.Fatalf("unexpected items %+v", txn.Items)
	}
	if txn.CustomerName == nil || *txn.CustomerName != "Jamie Regular" {
		t.Fatalf("expected customer name, got %v", txn.CustomerName)
	}

	rec = doJSON(t, handler, http.MethodGet, fmt.Sprintf("/api/v1/transactions/%d/receipt", id), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for receipt, got %d", rec.Code)
	}
	receipt := decodeBody[domain.Receipt](t, rec)
	if receipt.StoreName != "Demo Mart" || receipt.CashierName != "Casey Cashier" {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
	if receipt.StoreAddress != "1 Market Street, Springfield, IL" {
		t.Fatalf("unexpected store address %q", receipt.StoreAddress)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/transactions?limit=10", token, nil)
	if list := decodeBody[[]domain.Transaction](t, rec); len(list) != 1 || list[0].ID != id {
		t.Fatalf("expected the new sale in the list, got %+v", list)
	}

	rec = doJSON(t, handler, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", chipsID), token, nil)
	if chips := decodeBody[domain.Product](t, rec); chips.StockQuantity != 118 {
		t.Fatalf("expected stock 118 after sale, got %d", chips.StockQuantity)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/customers/1", token, nil)
	if customer := decodeBody[domain.Customer](t, rec); customer.LoyaltyPoints != 2 {
		t.Fatalf("expected 2 loyalty points, got %d", customer.LoyaltyPoints)
	}
}

func TestCreateTransactionErrors(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := login(t, handler, "cashier@demo.local", cashierPassword)

	cases := []struct {
		name    string
		payload map[string]any
		status  int
		message string
	}{
		{
			name:    "insufficient stock",
			payload: map[string]any{"items": []map[string]any{{"product_id": chocolateID, "quantity": 9}}, "payment_method": "cash"},
			status:  http.StatusBadRequest,
			message: "Not enough stock for Chocolate Bar. Available: 8",
		},
		{
			name:    "unknown product",
			payload: map[string]any{"items": []map[string]any{{"product_id": 999, "quantity": 1}}, "payment_method": "cash"},
			status:  http.StatusNotFound,
			message: "product not found",
		},
		{
			name:    "unknown customer",
			payload: map[string]any{"items": []map[string]any{{"product_id": chipsID, "quantity": 1}}, "payment_method": "cash", "customer_id": 999},
			status:  http.StatusNotFound,
			message: "customer not found",
		},
		{
			name:    "percentage above 100",
			payload: map[string]any{"items": []map[string]any{{"product_id": chipsID, "quantity": 1}}, "payment_method": "cash", "discount_type": "percentage", "discount_value": 110},
			status:  http.StatusBadRequest,
		},
		{
			name:    "unknown discount type",
			payload: map[string]any{"items": []map[string]any{{"product_id": chipsID, "quantity": 1}}, "payment_method": "cash", "discount_type": "bogo", "discount_value": 1},
			status:  http.StatusBadRequest,
		},
		{
			name:    "empty cart",
			payload: map[string]any{"items": []map[string]any{}, "payment_method": "cash"},
			status:  http.StatusBadRequest,
		},
		{
			name:    "unknown field",
			payload: map[string]any{"items": []map[string]any{{"product_id": chipsID, "quantity": 1}}, "payment_method": "cash", "tip": 5},
			status:  http.StatusBadRequest,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, handler, http.MethodPost, "/api/v1/transactions/create", token, tc.payload)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d (body: %s)", tc.status, rec.Code, rec.Body.String())
			}
			if tc.message != "" {
				if got := errorMessage(t, rec); got != tc.message {
					t.Fatalf("expected message %q, got %q", tc.message, got)
				}
			}
		})
	}

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/transactions", token, nil)
	if list := decodeBody[[]domain.Transaction](t, rec); len(list) != 0 {
		t.Fatalf("failed sales must not persist, got %d transactions", len(list))
	}
	rec = doJSON(t, handler, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", chipsID), token, nil)
	if chips := decodeBody[domain.Product](t, rec); chips.StockQuantity != 120 {
		t.Fatalf("failed sales must not move stock, got %d", chips.StockQuantity)
	}
}

func TestTransactionsAreTenantScoped(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	demo := login(t, handler, "owner@demo.local", ownerPassword)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/transactions/create", demo, map[string]any{
		"items":          []map[string]any{{"product_id": chipsID, "quantity": 1}},
		"payment_method": "card",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("sale failed: %d %s", rec.Code, rec.Body.String())
	}
	id := int64(decodeBody[map[string]any](t, rec)["id"].(float64))

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/auth/signup", "", validSignup())
	other := decodeBody[domain.SignupResponse](t, rec).AccessToken

	for _, path := range []string{
		fmt.Sprintf("/api/v1/transactions/%d", id),
		fmt.Sprintf("/api/v1/transactions/%d/receipt", id),
		fmt.Sprintf("/api/v1/products/%d", chipsID),
		"/api/v1/customers/1",
		"/api/v1/categories/1",
	} {
		rec = doJSON(t, handler, http.MethodGet, path, other, nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404 across tenants, got %d", path, rec.Code)
		}
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/transactions/create", other, map[string]any{
		"items":          []map[string]any{{"product_id": chipsID, "quantity": 1}},
		"payment_method": "cash",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 selling another tenant's product, got %d", rec.Code)
	}
}

func TestCategoryAndCustomerEndpoints(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	owner := login(t, handler, "owner@demo.local", ownerPassword)

	rec := doJSON(t, handler, http.MethodDelete, fmt.Sprintf("/api/v1/categories/%d", snacksID), owner, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 deleting a used category, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "cannot delete category: 2 products are using this category" {
		t.Fatalf("unexpected message %q", msg)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/categories", owner, domain.CategoryRequest{Name: "Frozen"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	frozen := decodeBody[domain.Category](t, rec)

	rec = doJSON(t, handler, http.MethodPut, fmt.Sprintf("/api/v1/categories/%d", frozen.ID), owner, domain.CategoryRequest{Name: "Frozen Food"})
	if got := decodeBody[domain.Category](t, rec); got.Name != "Frozen Food" {
		t.Fatalf("expected renamed category, got %+v", got)
	}
	rec = doJSON(t, handler, http.MethodDelete, fmt.Sprintf("/api/v1/categories/%d", frozen.ID), owner, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 deleting unused category, got %d", rec.Code)
	}

	cashier := login(t, handler, "cashier@demo.local", cashierPassword)
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/customers", cashier, map[string]any{"name": "Morgan Blake", "phone": "555-0177"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	customer := decodeBody[domain.Customer](t, rec)

	rec = doJSON(t, handler, http.MethodPatch, fmt.Sprintf("/api/v1/customers/%d", customer.ID), cashier, map[string]any{"city": "Salem"})
	if got := decodeBody[domain.Customer](t, rec); got.City == nil || *got.City != "Salem" || got.Name != "Morgan Blake" {
		t.Fatalf("unexpected patched customer %+v", got)
	}
	rec = doJSON(t, handler, http.MethodPatch, fmt.Sprintf("/api/v1/customers/%d", customer.ID), cashier, map[string]any{"loyalty_points": 9999})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("loyalty points must not be patchable, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/customers?search=morgan", cashier, nil)
	if found := decodeBody[[]domain.Customer](t, rec); len(found) != 1 || found[0].ID != customer.ID {
		t.Fatalf("expected search hit, got %+v", found)
	}
}

func TestAnalyticsEndpoints(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := login(t, handler, "owner@demo.local", ownerPassword)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/transactions/create", token, map[string]any{
		"items":          []map[string]any{{"product_id": chipsID, "quantity": 4}},
		"payment_method": "upi",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("sale failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/analytics/dashboard", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	stats := decodeBody[domain.DashboardStats](t, rec)
	if stats.TodayTransactions != 1 || stats.TodaySales.String() != "6" {
		t.Fatalf("unexpected today stats %+v", stats)
	}
	if stats.TotalProducts != 7 || stats.LowStockItems != 1 {
		t.Fatalf("unexpected product stats %+v", stats)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/analytics/sales?days=3", token, nil)
	days := decodeBody[[]domain.DailySales](t, rec)
	if len(days) != 3 || days[2].TransactionCount != 1 {
		t.Fatalf("unexpected daily sales %+v", days)
	}
}

func TestUnknownTransactionRoutes(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := login(t, handler, "owner@demo.local", ownerPassword)

	if rec := doJSON(t, handler, http.MethodGet, "/api/v1/transactions/abc", token, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric id, got %d", rec.Code)
	}
	if rec := doJSON(t, handler, http.MethodGet, "/api/v1/transactions/1/void", token, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown sub-route, got %d", rec.Code)
	}
	if rec := doJSON(t, handler, http.MethodGet, "/api/v1/transactions/42", token, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown transaction, got %d", rec.Code)
	}
	if rec := doJSON(t, handler, http.MethodGet, "/api/v1/transactions/create", token, nil); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET on create, got %d", rec.Code)
	}
}
