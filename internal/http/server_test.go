package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ledger/internal/kv"
	"ledger/internal/session"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	sess, err := session.New(context.Background(), kv.NewMemoryStore(), nil)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	return NewServer(":0", sess)
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func TestAddAndListRecords(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/records",
		`{"date":"2024-03-01","amount":"12.34","category":"food","note":"lunch"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created recordDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected assigned id")
	}
	if created.Amount != "12.34" || created.AmountCents != 1234 {
		t.Fatalf("unexpected amount: %+v", created)
	}
	if created.CategoryName != "Food" {
		t.Fatalf("expected resolved category name Food, got %q", created.CategoryName)
	}

	rec = do(t, s, http.MethodGet, "/api/records", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var list []recordDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("expected the created record, got %+v", list)
	}
}

func TestAddRecordValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing date", `{"amount":"10.00"}`, "date"},
		{"bad date", `{"date":"03/01/2024","amount":"10.00"}`, "date"},
		{"zero amount", `{"date":"2024-03-01","amount":"0"}`, "amount"},
		{"negative amount", `{"date":"2024-03-01","amount":"-5"}`, "amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/records", tt.body)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
			}
			var resp map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp["field"] != tt.field {
				t.Fatalf("expected field %q, got %q", tt.field, resp["field"])
			}
		})
	}

	rec := do(t, s, http.MethodGet, "/api/records", "")
	var list []recordDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("rejected submissions must not create records")
	}
}

func TestUpdateRecord(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/records",
		`{"date":"2024-03-01","amount":"10.00","category":"food"}`)
	var created recordDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = do(t, s, http.MethodPatch, "/api/records/"+created.ID, `{"amount":"25.50"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated recordDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.ID != created.ID {
		t.Fatalf("update must not change the id")
	}
	if updated.AmountCents != 2550 {
		t.Fatalf("expected 2550 cents, got %d", updated.AmountCents)
	}
	if updated.Category != "food" {
		t.Fatalf("untouched fields must survive, got %+v", updated)
	}

	rec = do(t, s, http.MethodPatch, "/api/records/missing", `{"amount":"1.00"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", rec.Code)
	}
}

func TestRemoveAndClearRecords(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/records", `{"date":"2024-03-01","amount":"10.00"}`)
	var created recordDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if rec := do(t, s, http.MethodDelete, "/api/records/"+created.ID, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	// Removal is idempotent.
	if rec := do(t, s, http.MethodDelete, "/api/records/"+created.ID, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on repeat delete, got %d", rec.Code)
	}

	do(t, s, http.MethodPost, "/api/records", `{"date":"2024-03-02","amount":"5.00"}`)
	if rec := do(t, s, http.MethodDelete, "/api/records", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for clear, got %d", rec.Code)
	}
	rec = do(t, s, http.MethodGet, "/api/records", "")
	var list []recordDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty ledger after clear, got %d records", len(list))
	}
}

func TestCategoryEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/categories", `{"name":"Dining Out","color":"#ff0000"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created categoryDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID != "dining-out" {
		t.Fatalf("expected slug id dining-out, got %q", created.ID)
	}

	if rec := do(t, s, http.MethodPost, "/api/categories", `{"name":"dining  out"}`); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for colliding slug, got %d", rec.Code)
	}

	if rec := do(t, s, http.MethodPatch, "/api/categories/dining-out", `{"name":"Restaurants"}`); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for rename, got %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPatch, "/api/categories/missing", `{"color":"#000000"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown category, got %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPatch, "/api/categories/dining-out", `{}`); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for empty patch, got %d", rec.Code)
	}

	if rec := do(t, s, http.MethodDelete, "/api/categories/dining-out", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for delete, got %d", rec.Code)
	}
}

func TestViewEndpoint(t *testing.T) {
	s := newTestServer(t)

	do(t, s, http.MethodPost, "/api/records", `{"date":"2024-03-01","amount":"50.00","category":"food"}`)
	do(t, s, http.MethodPost, "/api/records", `{"date":"2024-03-05","amount":"100.00","category":"bill"}`)
	do(t, s, http.MethodPost, "/api/records", `{"date":"2024-04-01","amount":"7.00","category":"food"}`)

	rec := do(t, s, http.MethodGet, "/api/view?from=2024-03-01&to=2024-03-31&sort=amount-desc", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var view viewDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(view.Records) != 2 {
		t.Fatalf("expected 2 records in March, got %d", len(view.Records))
	}
	if view.Records[0].AmountCents != 10000 || view.Records[1].AmountCents != 5000 {
		t.Fatalf("expected amount-desc order, got %+v", view.Records)
	}
	if view.Total != "150.00" || view.TotalCents != 15000 {
		t.Fatalf("expected total 150.00, got %s", view.Total)
	}
	if len(view.ByCategory) != 2 {
		t.Fatalf("expected 2 category sums, got %+v", view.ByCategory)
	}

	if rec := do(t, s, http.MethodGet, "/api/view?from=bogus", ""); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for bad date, got %d", rec.Code)
	}
}

func TestViewReflectsMutations(t *testing.T) {
	s := newTestServer(t)

	do(t, s, http.MethodPost, "/api/records", `{"date":"2024-03-01","amount":"10.00"}`)
	rec := do(t, s, http.MethodGet, "/api/view", "")
	var before viewDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &before); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if before.TotalCents != 1000 {
		t.Fatalf("expected 1000 cents, got %d", before.TotalCents)
	}

	// A cached view must not outlive the mutation.
	do(t, s, http.MethodPost, "/api/records", `{"date":"2024-03-02","amount":"5.00"}`)
	rec = do(t, s, http.MethodGet, "/api/view", "")
	var after viewDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &after); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if after.TotalCents != 1500 {
		t.Fatalf("expected 1500 cents after add, got %d", after.TotalCents)
	}
}

func TestExportImportEndpoints(t *testing.T) {
	s := newTestServer(t)

	do(t, s, http.MethodPost, "/api/records", `{"date":"2024-03-01","amount":"12.34","category":"food","note":"lunch"}`)

	rec := do(t, s, http.MethodGet, "/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("expected text/csv content type, got %q", ct)
	}
	exported := rec.Body.String()
	if !strings.HasPrefix(exported, "date,amount,category,note,method,id\n") {
		t.Fatalf("unexpected export: %q", exported)
	}

	other := newTestServer(t)
	rec = do(t, other, http.MethodPost, "/import", exported)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result["imported"] != 1 {
		t.Fatalf("expected 1 imported record, got %d", result["imported"])
	}

	if rec := do(t, other, http.MethodPost, "/import", "no,valid,header\n"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for structural failure, got %d", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)
	if rec := do(t, s, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Fatalf("readyz: %d", rec.Code)
	}
}
