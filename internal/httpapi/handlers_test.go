package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"ventas/backend/internal/cache"
	"ventas/backend/internal/domain"
	"ventas/backend/internal/report"
	"ventas/backend/internal/service"
	"ventas/backend/internal/store/memory"
)

func newTestAPI(t *testing.T) *API {
	t.Helper()
	repo := memory.NewSeeded()
	logger := zaptest.NewLogger(t)
	reports := report.NewEngine(cache.NoopSummaryCache{}, 5*time.Second, logger)
	svc := service.New(repo, reports, logger)
	auth := NewAuthManager(testSecret, time.Hour, repo)
	return New(svc, auth, "*", logger)
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func loginAs(t *testing.T, handler http.Handler, username, password string) string {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", username, rec.Code, rec.Body.String())
	}
	var resp domain.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatalf("expected access token")
	}
	return resp.AccessToken
}

func TestHandleHealth(t *testing.T) {
	handler := newTestAPI(t).Handler()
	rec := doJSON(t, handler, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type %q", ct)
	}
}

func TestHandleLogin(t *testing.T) {
	handler := newTestAPI(t).Handler()

	token := loginAs(t, handler, "central", "central123")
	if token == "" {
		t.Fatalf("expected token")
	}

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "central",
		"password": "nope",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSalesRequireBearerToken(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/sales", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/sales", "not-a-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", rec.Code)
	}
}

func TestSalesCreateListGet(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginAs(t, handler, "central", "central123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/sales", token, map[string]any{
		"sku":     "OREO_CLASSIC",
		"units":   10,
		"price":   "1.99",
		"branch":  "Miraflores",
		"sold_at": "2025-03-10T14:30:00Z",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", rec.Code, rec.Body.String())
	}
	var created domain.Sale
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode created sale: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected assigned id")
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/sales?from=2025-03-01&to=2025-03-10", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status %d body %s", rec.Code, rec.Body.String())
	}
	var page domain.SalePage
	if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.TotalCount != 1 {
		t.Fatalf("expected 1 sale in window, got %d", page.TotalCount)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/sales/"+created.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestSalesRejectsMalformedDates(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginAs(t, handler, "central", "central123")

	for _, raw := range []string{"10-03-2025", "2025/03/10", "yesterday"} {
		rec := doJSON(t, handler, http.MethodGet, "/api/v1/sales?from="+raw, token, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("from=%s: expected 400, got %d", raw, rec.Code)
		}
	}
}

func TestSaleValidationErrorsMapTo400(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginAs(t, handler, "central", "central123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/sales", token, map[string]any{
		"sku":     "",
		"units":   10,
		"price":   "1.99",
		"branch":  "Miraflores",
		"sold_at": "2025-03-10T14:30:00Z",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body %s", rec.Code, rec.Body.String())
	}
}

func TestBranchDeleteForbidden(t *testing.T) {
	handler := newTestAPI(t).Handler()
	centralToken := loginAs(t, handler, "central", "central123")
	branchToken := loginAs(t, handler, "miraflores", "branch123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/sales", centralToken, map[string]any{
		"sku":     "OREO_CLASSIC",
		"units":   2,
		"price":   "1.99",
		"branch":  "Miraflores",
		"sold_at": "2025-03-10T14:30:00Z",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d", rec.Code)
	}
	var created domain.Sale
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = doJSON(t, handler, http.MethodDelete, "/api/v1/sales/"+created.ID, branchToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for branch delete, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodDelete, "/api/v1/sales/"+created.ID, centralToken, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for central delete, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodDelete, "/api/v1/sales/"+created.ID, centralToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for repeated delete, got %d", rec.Code)
	}
}

func TestBranchForeignRecordIsHidden(t *testing.T) {
	handler := newTestAPI(t).Handler()
	centralToken := loginAs(t, handler, "central", "central123")
	branchToken := loginAs(t, handler, "miraflores", "branch123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/sales", centralToken, map[string]any{
		"sku":     "OREO_CLASSIC",
		"units":   2,
		"price":   "1.99",
		"branch":  "San Isidro",
		"sold_at": "2025-03-10T14:30:00Z",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d", rec.Code)
	}
	var created domain.Sale
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/sales/"+created.ID, branchToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginAs(t, handler, "central", "central123")

	seed := []map[string]any{
		{"sku": "OREO_CLASSIC", "units": 10, "price": "1.99", "branch": "Miraflores", "sold_at": "2025-03-10T14:30:00Z"},
		{"sku": "OREO_DOUBLE", "units": 5, "price": "2.49", "branch": "San Isidro", "sold_at": "2025-03-11T09:00:00Z"},
	}
	for _, body := range seed {
		if rec := doJSON(t, handler, http.MethodPost, "/api/v1/sales", token, body); rec.Code != http.StatusCreated {
			t.Fatalf("seed: status %d body %s", rec.Code, rec.Body.String())
		}
	}

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/sales/summary?from=2025-03-01&to=2025-03-31", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: status %d body %s", rec.Code, rec.Body.String())
	}
	var summary domain.SaleSummary
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.TotalUnits != 15 {
		t.Fatalf("expected 15 units, got %d", summary.TotalUnits)
	}
	if summary.TotalRevenue.String() != "32.35" {
		t.Fatalf("expected revenue 32.35, got %s", summary.TotalRevenue)
	}
	if summary.TopSKU == nil || *summary.TopSKU != "OREO_CLASSIC" {
		t.Fatalf("expected top sku OREO_CLASSIC, got %v", summary.TopSKU)
	}
}

func TestUsersEndpointIsCentralOnly(t *testing.T) {
	handler := newTestAPI(t).Handler()
	centralToken := loginAs(t, handler, "central", "central123")
	branchToken := loginAs(t, handler, "miraflores", "branch123")

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/users", branchToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for branch, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/users", centralToken, map[string]any{
		"username": "sanisidro",
		"password": "secret99",
		"role":     "BRANCH",
		"branch":   "San Isidro",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/users", centralToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list users: status %d", rec.Code)
	}
	var listing struct {
		Users []domain.UserView `json:"users"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&listing); err != nil {
		t.Fatalf("decode users: %v", err)
	}
	if len(listing.Users) != 3 {
		t.Fatalf("expected 3 users, got %d", len(listing.Users))
	}

	loginAs(t, handler, "sanisidro", "secret99")
}

func TestUnknownFieldsRejected(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginAs(t, handler, "central", "central123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/sales", token, map[string]any{
		"sku":      "A",
		"units":    1,
		"price":    "1.00",
		"branch":   "Miraflores",
		"sold_at":  "2025-03-10T14:30:00Z",
		"discount": true,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}
}

func TestPreflightRequests(t *testing.T) {
	handler := newTestAPI(t).Handler()
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sales", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}

func TestLoginRateLimit(t *testing.T) {
	handler := newTestAPI(t).Handler()

	var last int
	for attempt := 0; attempt < 6; attempt++ {
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"username": "central",
			"password": fmt.Sprintf("wrong-%d", attempt),
		})
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after repeated attempts, got %d", last)
	}
}
