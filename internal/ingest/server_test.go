package ingest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/JonMunkholm/cseguard/internal/config"
	"github.com/JonMunkholm/cseguard/internal/core"
	"github.com/JonMunkholm/cseguard/internal/screen"
	"github.com/JonMunkholm/cseguard/internal/store"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, *store.Memory) {
	t.Helper()
	cfg := &config.Config{Screen: config.ScreenConfig{BulkEnabled: true}}
	if mutate != nil {
		mutate(cfg)
	}
	st := store.NewMemory()
	return NewServer(st, screen.New(screen.DefaultBrands), cfg), st
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode detail from %q: %v", rec.Body.String(), err)
	}
	return body.Detail
}

func TestBulkAdd(t *testing.T) {
	s, st := newTestServer(t, nil)
	if _, err := st.Add(t.Context(), core.DomainRecord{Domain: "icicibank.com", OrganizationName: "ICICI", Sector: "BFSI"}); err != nil {
		t.Fatal(err)
	}

	rec := do(t, s, http.MethodPost, "/api/cse-domains/bulk", core.BulkRequest{Domains: []core.DomainRecord{
		{Domain: "sbi.co.in", OrganizationName: "State Bank of India", Sector: "BFSI"},
		{Domain: "icicibank.com", OrganizationName: "ICICI", Sector: "BFSI"},
		{Domain: "icicbank.com", OrganizationName: "ICICI", Sector: "BFSI"},
		{Domain: "sbi.co.in", OrganizationName: "State Bank of India", Sector: "BFSI"},
		{Domain: "  ", OrganizationName: "Blank", Sector: "Other"},
	}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var result core.BulkResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if result.TotalAdded != 1 || len(result.Added) != 1 || result.Added[0].Domain != "sbi.co.in" {
		t.Errorf("added = %+v (total %d), want sbi.co.in only", result.Added, result.TotalAdded)
	}
	if got := strings.Join(result.SkippedExisting, ","); got != "icicibank.com,sbi.co.in" {
		t.Errorf("skipped_existing = %q", got)
	}
	if got := result.SkippedMalicious.Domains(); len(got) != 1 || got[0] != "icicbank.com" {
		t.Errorf("skipped_malicious = %q, want icicbank.com", got)
	}
	if result.TotalSkipped != 3 {
		t.Errorf("total_skipped = %d, want 3", result.TotalSkipped)
	}
	if result.Message != "Successfully added 1 domains (screened for lookalikes and blocklisted names on upload)" {
		t.Errorf("message = %q", result.Message)
	}

	// The dashboard side reads this as a result that must stay on screen.
	if core.Reconcile(result, 0).AutoDismiss {
		t.Error("result with malicious skips reconciled as auto-dismiss")
	}
}

func TestBulkAdd_ScreeningDisabled(t *testing.T) {
	s, _ := newTestServer(t, func(c *config.Config) { c.Screen.BulkEnabled = false })

	rec := do(t, s, http.MethodPost, "/api/cse-domains/bulk", core.BulkRequest{Domains: []core.DomainRecord{
		{Domain: "paytmm.com", OrganizationName: "X", Sector: "Y"},
	}})

	var result core.BulkResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.TotalAdded != 1 || result.SkippedMalicious.Len() != 0 {
		t.Errorf("result = %+v, want the lookalike accepted", result)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"skipped_malicious":[]`)) {
		t.Errorf("skipped_malicious should encode as [], body = %s", rec.Body)
	}
	if result.Message != "Successfully added 1 domains (scanning will happen when monitoring starts)" {
		t.Errorf("message = %q", result.Message)
	}
}

func TestBulkAdd_CaseVariantsAreDuplicates(t *testing.T) {
	s, st := newTestServer(t, func(c *config.Config) { c.Screen.BulkEnabled = false })
	if _, err := st.Add(t.Context(), core.DomainRecord{Domain: "sbi.co.in", OrganizationName: "SBI", Sector: "BFSI"}); err != nil {
		t.Fatal(err)
	}

	rec := do(t, s, http.MethodPost, "/api/cse-domains/bulk", core.BulkRequest{Domains: []core.DomainRecord{
		{Domain: "SBI.co.in", OrganizationName: "SBI", Sector: "BFSI"},
		{Domain: "onlinesbi.sbi", OrganizationName: "SBI", Sector: "BFSI"},
		{Domain: " OnlineSBI.sbi ", OrganizationName: "SBI", Sector: "BFSI"},
	}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var result core.BulkResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.TotalAdded != 1 || result.Added[0].Domain != "onlinesbi.sbi" {
		t.Errorf("added = %+v, want onlinesbi.sbi only", result.Added)
	}
	if got := strings.Join(result.SkippedExisting, ","); got != "sbi.co.in,onlinesbi.sbi" {
		t.Errorf("skipped_existing = %q, want sbi.co.in,onlinesbi.sbi", got)
	}

	active, err := st.ActiveDomains(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 2 {
		t.Errorf("active = %q, want 2 domains", active)
	}
}

func TestBulkAdd_InvalidBody(t *testing.T) {
	s, _ := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/cse-domains/bulk", strings.NewReader(`{"domains": [`))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestAddDomain(t *testing.T) {
	s, st := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/cse-domains", core.DomainRecord{Domain: "icicibank.com", OrganizationName: "ICICI", Sector: "BFSI"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var d core.CSEDomain
	if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
		t.Fatal(err)
	}
	if d.ID == 0 || !d.IsActive {
		t.Errorf("domain = %+v", d)
	}

	tests := []struct {
		name       string
		rec        core.DomainRecord
		status     int
		wantDetail string
	}{
		{
			name:       "already monitored",
			rec:        core.DomainRecord{Domain: "icicibank.com", OrganizationName: "ICICI", Sector: "BFSI"},
			status:     http.StatusBadRequest,
			wantDetail: "This domain is already being monitored",
		},
		{
			name:       "already monitored in another case",
			rec:        core.DomainRecord{Domain: " ICICIBank.COM ", OrganizationName: "ICICI", Sector: "BFSI"},
			status:     http.StatusBadRequest,
			wantDetail: "This domain is already being monitored",
		},
		{
			name:       "lookalike of monitored domain",
			rec:        core.DomainRecord{Domain: "icicbank.com", OrganizationName: "ICICI", Sector: "BFSI"},
			status:     http.StatusBadRequest,
			wantDetail: "TYPOSQUATTING DETECTED",
		},
		{
			name:       "invalid name",
			rec:        core.DomainRecord{Domain: "not a domain", OrganizationName: "X", Sector: "Y"},
			status:     http.StatusBadRequest,
			wantDetail: "invalid domain name",
		},
		{
			name:       "missing fields",
			rec:        core.DomainRecord{Domain: "ok.com"},
			status:     http.StatusUnprocessableEntity,
			wantDetail: "required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/cse-domains", tt.rec)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d, body = %s", rec.Code, tt.status, rec.Body)
			}
			if got := detail(t, rec); !strings.Contains(got, tt.wantDetail) {
				t.Errorf("detail = %q, want it to contain %q", got, tt.wantDetail)
			}
		})
	}

	// Removed domains cannot come back.
	if err := st.Deactivate(t.Context(), d.ID); err != nil {
		t.Fatal(err)
	}
	rec = do(t, s, http.MethodPost, "/api/cse-domains", core.DomainRecord{Domain: "IciciBank.com", OrganizationName: "ICICI", Sector: "BFSI"})
	if rec.Code != http.StatusBadRequest || !strings.Contains(detail(t, rec), "previously removed") {
		t.Errorf("re-add after removal: status = %d, body = %s", rec.Code, rec.Body)
	}
}

func TestListDomains(t *testing.T) {
	s, st := newTestServer(t, nil)
	for _, n := range []string{"a.com", "b.com", "c.com"} {
		if _, err := st.Add(t.Context(), core.DomainRecord{Domain: n, OrganizationName: "O", Sector: "S"}); err != nil {
			t.Fatal(err)
		}
	}
	removed, _ := st.Add(t.Context(), core.DomainRecord{Domain: "gone.com", OrganizationName: "O", Sector: "S"})
	if err := st.Deactivate(t.Context(), removed.ID); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		query  string
		status int
		count  int
	}{
		{name: "defaults hide inactive", query: "", status: 200, count: 3},
		{name: "include inactive", query: "?active_only=false", status: 200, count: 4},
		{name: "paged", query: "?skip=1&limit=1", status: 200, count: 1},
		{name: "past the end", query: "?skip=10", status: 200, count: 0},
		{name: "bad skip", query: "?skip=-1", status: 422},
		{name: "bad limit", query: "?limit=0", status: 422},
		{name: "limit too large", query: "?limit=5000", status: 422},
		{name: "bad bool", query: "?active_only=maybe", status: 422},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, "/api/cse-domains"+tt.query, nil)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d, body = %s", rec.Code, tt.status, rec.Body)
			}
			if tt.status != 200 {
				return
			}
			var got []core.CSEDomain
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.count {
				t.Errorf("got %d domains, want %d", len(got), tt.count)
			}
		})
	}
}

func TestDeleteDomain(t *testing.T) {
	s, st := newTestServer(t, nil)
	d, _ := st.Add(t.Context(), core.DomainRecord{Domain: "a.com", OrganizationName: "O", Sector: "S"})

	rec := do(t, s, http.MethodDelete, "/api/cse-domains/"+strconv.FormatInt(d.ID, 10), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	active, _ := st.ActiveDomains(t.Context())
	if len(active) != 0 {
		t.Errorf("active after delete = %q", active)
	}

	if rec := do(t, s, http.MethodDelete, "/api/cse-domains/999", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", rec.Code)
	}
	if rec := do(t, s, http.MethodDelete, "/api/cse-domains/abc", nil); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("non-numeric id status = %d, want 422", rec.Code)
	}
}

func TestAPIKeyRequired(t *testing.T) {
	s, _ := newTestServer(t, func(c *config.Config) {
		c.Security = config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}}
	})

	if rec := do(t, s, http.MethodGet, "/api/cse-domains", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("without key status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/cse-domains", nil)
	req.Header.Set("X-API-Key", "k1")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("with key status = %d, want 200", rec.Code)
	}

	// Health stays open for probes.
	if rec := do(t, s, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", rec.Code)
	}
}
