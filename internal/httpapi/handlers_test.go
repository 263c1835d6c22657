package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"luxepos/internal/market"
	"luxepos/internal/service"
	"luxepos/internal/session"
	"luxepos/internal/store/memory"
)

type testEnv struct {
	api     *API
	handler http.Handler
	guard   *session.Guard
}

// newTestAPI wires the full stack over an in-memory store so handler
// tests exercise the complete request path.
func newTestAPI(t *testing.T) testEnv {
	t.Helper()

	log, _ := test.NewNullLogger()
	svc := service.New(memory.NewSeeded(), market.NewStaticFeed(), log)
	guard := session.NewGuard(session.MockAuthenticator{}, session.NewMemoryStore(), log)
	tokens := NewTokenIssuer("test-secret-key-test-secret-key!", time.Hour)

	api := New(svc, guard, tokens, Options{AllowedOrigin: "*", Logger: log})
	return testEnv{api: api, handler: api.Handler(), guard: guard}
}

func (e testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e testEnv) login(t *testing.T) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "sarah.johnson@luxe.com",
		"password": "anything",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return resp.AccessToken
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dest); err != nil {
		t.Fatalf("decode body: %v (body: %s)", err, rec.Body.String())
	}
}

func TestHandleHealth(t *testing.T) {
	env := newTestAPI(t)
	rec := env.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	decodeBody(t, rec, &body)
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestHandleLogin_Success(t *testing.T) {
	env := newTestAPI(t)
	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "  sarah.johnson@luxe.com ",
		"password": "secret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var resp struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   string `json:"expires_at"`
		User        struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		} `json:"user"`
	}
	decodeBody(t, rec, &resp)
	if resp.AccessToken == "" || resp.ExpiresAt == "" {
		t.Fatalf("expected token and expiry, got %+v", resp)
	}
	if resp.User.Name != "Sarah.johnson" {
		t.Fatalf("expected display name Sarah.johnson, got %q", resp.User.Name)
	}
	if !env.guard.IsAuthenticated() {
		t.Fatal("expected guard to hold a session")
	}
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	env := newTestAPI(t)
	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "sarah.johnson@luxe.com",
		"password": "",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if env.guard.IsAuthenticated() {
		t.Fatal("failed login must not open a session")
	}
}

func TestHandleLogin_RateLimit(t *testing.T) {
	env := newTestAPI(t)
	body := map[string]string{"email": "x@luxe.com", "password": ""}
	for i := 0; i < 5; i++ {
		rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", body)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, rec.Code)
		}
	}
	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", body)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}

func TestSessionEndpoint(t *testing.T) {
	env := newTestAPI(t)

	var before map[string]any
	decodeBody(t, env.do(t, http.MethodGet, "/api/v1/auth/session", "", nil), &before)
	if before["authenticated"] != false {
		t.Fatalf("expected signed-out session, got %v", before)
	}

	token := env.login(t)
	var after struct {
		Authenticated bool `json:"authenticated"`
		User          *struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	decodeBody(t, env.do(t, http.MethodGet, "/api/v1/auth/session", "", nil), &after)
	if !after.Authenticated || after.User == nil || after.User.Email != "sarah.johnson@luxe.com" {
		t.Fatalf("unexpected session %+v", after)
	}

	if rec := env.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", rec.Code)
	}
	if env.guard.IsAuthenticated() {
		t.Fatal("expected session to be cleared")
	}
}

func TestProtectedRoutesRequireTokenAndSession(t *testing.T) {
	env := newTestAPI(t)

	if rec := env.do(t, http.MethodGet, "/api/v1/products", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/products", "not-a-jwt", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: expected 401, got %d", rec.Code)
	}

	token := env.login(t)
	if rec := env.do(t, http.MethodGet, "/api/v1/products", token, nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	if err := env.guard.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/products", token, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("token without session: expected 401, got %d", rec.Code)
	}
}

func TestListProductsFilters(t *testing.T) {
	env := newTestAPI(t)
	token := env.login(t)

	rec := env.do(t, http.MethodGet, "/api/v1/products?category=rings&material=Diamond", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	decodeBody(t, rec, &body)
	if len(body.Items) != 2 || body.Items[0].ID != "1" || body.Items[1].ID != "5" {
		t.Fatalf("expected products 1 and 5, got %+v", body.Items)
	}

	if rec := env.do(t, http.MethodGet, "/api/v1/products?stock=plenty", token, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad stock filter: expected 400, got %d", rec.Code)
	}
}

func TestProductLifecycle(t *testing.T) {
	env := newTestAPI(t)
	token := env.login(t)

	create := map[string]any{
		"id":          "13",
		"name":        "Opal Ring",
		"category":    "rings",
		"price":       "650.00",
		"description": "Australian opal",
		"material":    "Sterling Silver, Opal",
		"stock":       2,
	}
	rec := env.do(t, http.MethodPost, "/api/v1/products", token, create)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var created struct {
		ID    string `json:"id"`
		Stock int    `json:"stock"`
	}
	decodeBody(t, rec, &created)
	if created.ID != "13" || created.Stock != 2 {
		t.Fatalf("unexpected product %+v", created)
	}
	if rec := env.do(t, http.MethodPost, "/api/v1/products", token, create); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate id: expected 409, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/products/"+created.ID+"/stock/adjust", token, map[string]int{"delta": -5})
	if rec.Code != http.StatusOK {
		t.Fatalf("adjust: expected 200, got %d", rec.Code)
	}
	var adjusted struct {
		Stock int `json:"stock"`
	}
	decodeBody(t, rec, &adjusted)
	if adjusted.Stock != 0 {
		t.Fatalf("expected stock clamped to 0, got %d", adjusted.Stock)
	}

	if rec := env.do(t, http.MethodDelete, "/api/v1/products/"+created.ID, token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/products/"+created.ID, token, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("get deleted: expected 404, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPut, "/api/v1/products/missing/stock", token, map[string]int{"stock": 3}); rec.Code != http.StatusNotFound {
		t.Fatalf("stock on missing product: expected 404, got %d", rec.Code)
	}
}

func TestCheckoutFlow(t *testing.T) {
	env := newTestAPI(t)
	token := env.login(t)

	if rec := env.do(t, http.MethodPost, "/api/v1/cart/checkout", token, map[string]string{"payment_method": "cash"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty cart: expected 400, got %d", rec.Code)
	}

	for i := 0; i < 2; i++ {
		if rec := env.do(t, http.MethodPost, "/api/v1/cart/items", token, map[string]string{"product_id": "9"}); rec.Code != http.StatusOK {
			t.Fatalf("add: expected 200, got %d", rec.Code)
		}
	}
	rec := env.do(t, http.MethodPatch, "/api/v1/cart/items/9", token, map[string]int{"quantity": 3})
	var view struct {
		Units int    `json:"units"`
		Total string `json:"total"`
	}
	decodeBody(t, rec, &view)
	if view.Units != 3 || view.Total != "14999.97" {
		t.Fatalf("unexpected cart %+v", view)
	}

	if rec := env.do(t, http.MethodPost, "/api/v1/cart/checkout", token, map[string]string{"payment_method": "barter"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad method: expected 400, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/cart/checkout", token, map[string]string{"payment_method": "card", "customer_name": "Ava"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("checkout: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var product struct {
		Stock int `json:"stock"`
	}
	decodeBody(t, env.do(t, http.MethodGet, "/api/v1/products/9", token, nil), &product)
	if product.Stock != 0 {
		t.Fatalf("expected stock clamped at 0, got %d", product.Stock)
	}

	var cartAfter struct {
		ItemCount int `json:"item_count"`
	}
	decodeBody(t, env.do(t, http.MethodGet, "/api/v1/cart", token, nil), &cartAfter)
	if cartAfter.ItemCount != 0 {
		t.Fatalf("expected empty cart after checkout, got %d items", cartAfter.ItemCount)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/sales/export.csv", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("expected text/csv, got %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "Luxury Swiss Watch") {
		t.Fatalf("expected sold product in export, got %s", rec.Body.String())
	}
}

func TestInvoiceDraftFlow(t *testing.T) {
	env := newTestAPI(t)
	token := env.login(t)

	rec := env.do(t, http.MethodPost, "/api/v1/invoices/drafts", token, map[string]string{"type": "sales"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create draft: expected 201, got %d", rec.Code)
	}
	var draft struct {
		ID    string `json:"id"`
		State string `json:"state"`
	}
	decodeBody(t, rec, &draft)
	if draft.State != "empty" {
		t.Fatalf("expected empty draft, got %q", draft.State)
	}
	base := "/api/v1/invoices/drafts/" + draft.ID

	if rec := env.do(t, http.MethodPost, base+"/items", token, map[string]string{"product_id": "1"}); rec.Code != http.StatusOK {
		t.Fatalf("add item: expected 200, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPatch, base+"/items/abc", token, map[string]int{"quantity": 2}); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad index: expected 400, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPatch, base+"/items/4", token, map[string]int{"quantity": 2}); rec.Code != http.StatusBadRequest {
		t.Fatalf("index out of range: expected 400, got %d", rec.Code)
	}

	if rec := env.do(t, http.MethodPost, base+"/submit", token, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("submit without customer: expected 400, got %d", rec.Code)
	}

	if rec := env.do(t, http.MethodPatch, base, token, map[string]string{"customer_name": "Olivia Park", "due_date": "2026-03-01"}); rec.Code != http.StatusOK {
		t.Fatalf("details: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, base+"/submit", token, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var inv struct {
		ID     string `json:"id"`
		Number string `json:"number"`
	}
	decodeBody(t, rec, &inv)
	if !strings.HasPrefix(inv.Number, "INV-") {
		t.Fatalf("expected assigned number, got %q", inv.Number)
	}

	if rec := env.do(t, http.MethodGet, base, token, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("submitted draft: expected 404, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/invoices/"+inv.ID, token, nil); rec.Code != http.StatusOK {
		t.Fatalf("stored invoice: expected 200, got %d", rec.Code)
	}

	var list struct {
		Items []struct {
			Number string `json:"number"`
		} `json:"items"`
	}
	decodeBody(t, env.do(t, http.MethodGet, "/api/v1/invoices?number="+inv.Number, token, nil), &list)
	if len(list.Items) != 1 {
		t.Fatalf("expected the new invoice in the list, got %+v", list.Items)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/invoices?type=layaway", token, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad type filter: expected 400, got %d", rec.Code)
	}
}

func TestPawnDraftAcceptsEmptyItemBody(t *testing.T) {
	env := newTestAPI(t)
	token := env.login(t)

	var draft struct {
		ID string `json:"id"`
	}
	decodeBody(t, env.do(t, http.MethodPost, "/api/v1/invoices/drafts", token, map[string]string{"type": "pawn"}), &draft)

	rec := env.do(t, http.MethodPost, "/api/v1/invoices/drafts/"+draft.ID+"/items", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var view struct {
		PawnItems []map[string]any `json:"pawn_items"`
	}
	decodeBody(t, rec, &view)
	if len(view.PawnItems) != 1 {
		t.Fatalf("expected one pawn line, got %d", len(view.PawnItems))
	}
}

func TestNewsAndDashboard(t *testing.T) {
	env := newTestAPI(t)
	token := env.login(t)

	var news struct {
		Gold struct {
			Current string `json:"current"`
		} `json:"gold"`
	}
	decodeBody(t, env.do(t, http.MethodGet, "/api/v1/news", token, nil), &news)
	if news.Gold.Current != "2095.25" {
		t.Fatalf("expected latest gold quote, got %q", news.Gold.Current)
	}

	if rec := env.do(t, http.MethodGet, "/api/v1/sales/dashboard?year=2026", token, nil); rec.Code != http.StatusOK {
		t.Fatalf("dashboard: expected 200, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/sales/dashboard?year=soon", token, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad year: expected 400, got %d", rec.Code)
	}
}
