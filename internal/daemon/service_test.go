package daemon

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/theirongolddev/deptfund/internal/ledger"
	"github.com/theirongolddev/deptfund/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	seed := store.State{
		Admin:  "treasurer",
		Ledger: ledger.Snapshot{TotalBudget: 100, Pool: 100},
		Funded: 100,
	}
	if err := db.SaveState(seed, nil); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	svc, err := New(Config{Addr: "127.0.0.1:0"}, db)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return svc, db
}

func do(t *testing.T, svc *Service, method, path, callerID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if callerID != "" {
		req.Header.Set("X-Caller", callerID)
	}
	w := httptest.NewRecorder()
	svc.routes().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	svc, _ := newTestService(t)
	w := do(t, svc, http.MethodGet, "/healthz", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", w.Code)
	}
}

func TestAllocatePersists(t *testing.T) {
	svc, db := newTestService(t)

	w := do(t, svc, http.MethodPost, "/v1/allocate", "treasurer", `{"department":"IT","amount":10}`)
	if w.Code != http.StatusOK {
		t.Fatalf("allocate status = %d, body %s", w.Code, w.Body)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["pool"].(float64) != 90 {
		t.Fatalf("pool = %v, want 90", resp["pool"])
	}

	// State must be on disk, not just in memory.
	st, err := db.LoadState()
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if st.Ledger.Pool != 90 {
		t.Fatalf("persisted pool = %d, want 90", st.Ledger.Pool)
	}
	if len(st.Ledger.Departments) != 1 || st.Ledger.Departments[0].ID != "IT" {
		t.Fatalf("persisted departments = %v", st.Ledger.Departments)
	}

	n, err := db.EventCount()
	if err != nil {
		t.Fatalf("EventCount: %v", err)
	}
	if n != 1 {
		t.Fatalf("journaled %d events, want 1", n)
	}
}

func TestAllocateUnauthorized(t *testing.T) {
	svc, _ := newTestService(t)

	w := do(t, svc, http.MethodPost, "/v1/allocate", "IT", `{"department":"IT","amount":10}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	if got := svc.led.PoolBalance(); got != 100 {
		t.Fatalf("pool = %d after rejected allocate, want 100", got)
	}
}

func TestErrorMapping(t *testing.T) {
	svc, _ := newTestService(t)

	cases := []struct {
		name   string
		path   string
		caller string
		body   string
		want   int
	}{
		{"zero amount", "/v1/allocate", "treasurer", `{"department":"IT","amount":0}`, http.StatusBadRequest},
		{"exceeds pool", "/v1/allocate", "treasurer", `{"department":"IT","amount":500}`, http.StatusBadRequest},
		{"unknown department request", "/v1/request", "ghost", `{"amount":5}`, http.StatusNotFound},
		{"release exceeds requested", "/v1/release", "treasurer", `{"department":"IT","amount":5}`, http.StatusBadRequest},
		{"malformed body", "/v1/allocate", "treasurer", `{`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, svc, http.MethodPost, tc.path, tc.caller, tc.body)
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tc.want, w.Body)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	svc, _ := newTestService(t)
	w := do(t, svc, http.MethodGet, "/v1/allocate", "treasurer", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", w.Code)
	}
}

func TestFullFlowOverHTTP(t *testing.T) {
	svc, db := newTestService(t)

	steps := []struct {
		path   string
		caller string
		body   string
	}{
		{"/v1/allocate", "treasurer", `{"department":"IT","amount":10}`},
		{"/v1/request", "IT", `{"amount":5}`},
		{"/v1/release", "treasurer", `{"department":"IT","amount":5}`},
	}
	for _, st := range steps {
		w := do(t, svc, http.MethodPost, st.path, st.caller, st.body)
		if w.Code != http.StatusOK {
			t.Fatalf("%s status = %d, body %s", st.path, w.Code, w.Body)
		}
	}

	if got := svc.led.SpentFunds("IT"); got != 5 {
		t.Fatalf("SpentFunds = %d, want 5", got)
	}
	if got := svc.led.RequestedFunds("IT"); got != 0 {
		t.Fatalf("RequestedFunds = %d, want 0", got)
	}
	if got := svc.tre.BalanceOf("IT"); got != 5 {
		t.Fatalf("treasury balance = %d, want 5", got)
	}

	// Departments view includes balances.
	w := do(t, svc, http.MethodGet, "/v1/departments", "", "")
	var views []DepartmentView
	if err := json.Unmarshal(w.Body.Bytes(), &views); err != nil {
		t.Fatalf("decode departments: %v", err)
	}
	if len(views) != 1 || views[0].Balance != 5 || views[0].Remaining != 5 {
		t.Fatalf("departments view = %+v", views)
	}

	// Three events journaled, newest first.
	evs, err := db.ListEvents(10)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(evs) != 3 {
		t.Fatalf("journaled %d events, want 3", len(evs))
	}
	if evs[0].Type != ledger.EventReleased {
		t.Fatalf("newest event type = %s, want released", evs[0].Type)
	}

	w = do(t, svc, http.MethodGet, "/v1/events?limit=2", "", "")
	var listed []ledger.Event
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode events: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("events endpoint returned %d, want 2", len(listed))
	}
}

func TestStatusEndpoint(t *testing.T) {
	svc, _ := newTestService(t)

	do(t, svc, http.MethodPost, "/v1/allocate", "treasurer", `{"department":"IT","amount":10}`)

	w := do(t, svc, http.MethodGet, "/v1/status", "", "")
	var st Status
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if st.Admin != "treasurer" {
		t.Fatalf("Admin = %s", st.Admin)
	}
	if st.TotalBudget != 100 || st.PoolBalance != 90 {
		t.Fatalf("budget/pool = %d/%d, want 100/90", st.TotalBudget, st.PoolBalance)
	}
	if st.OpCount != 1 {
		t.Fatalf("OpCount = %d, want 1", st.OpCount)
	}
	if st.EventCount != 1 {
		t.Fatalf("EventCount = %d, want 1", st.EventCount)
	}
}

func TestAdminTransfer(t *testing.T) {
	svc, db := newTestService(t)

	w := do(t, svc, http.MethodPost, "/v1/admin/transfer", "intruder", `{"new_admin":"intruder"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("transfer by non-admin status = %d, want 403", w.Code)
	}

	w = do(t, svc, http.MethodPost, "/v1/admin/transfer", "treasurer", `{"new_admin":"cfo"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("transfer status = %d, body %s", w.Code, w.Body)
	}

	// New admin can allocate, old one cannot.
	w = do(t, svc, http.MethodPost, "/v1/allocate", "treasurer", `{"department":"IT","amount":10}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("old admin allocate status = %d, want 403", w.Code)
	}
	w = do(t, svc, http.MethodPost, "/v1/allocate", "cfo", `{"department":"IT","amount":10}`)
	if w.Code != http.StatusOK {
		t.Fatalf("new admin allocate status = %d", w.Code)
	}

	st, err := db.LoadState()
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if st.Admin != "cfo" {
		t.Fatalf("persisted admin = %s, want cfo", st.Admin)
	}
}
