package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/deptfund/internal/ledger"
	"github.com/theirongolddev/deptfund/internal/treasury"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLoadStateBeforeInit(t *testing.T) {
	s := openTestStore(t)

	ok, err := s.Initialized()
	if err != nil {
		t.Fatalf("Initialized: %v", err)
	}
	if ok {
		t.Fatal("fresh store reported as initialized")
	}
	if _, err := s.LoadState(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("LoadState error = %v, want ErrNotInitialized", err)
	}
}

func TestSaveAndLoadStateRoundTrip(t *testing.T) {
	s := openTestStore(t)

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	st := State{
		Admin: "treasurer",
		Ledger: ledger.Snapshot{
			TotalBudget: 100,
			Pool:        50,
			Departments: []ledger.DepartmentSnapshot{
				{ID: "HR", Allocated: 20, Requested: 3, Spent: 2},
				{ID: "IT", Allocated: 30, Requested: 0, Spent: 10},
			},
		},
		Funded:   88,
		Balances: []treasury.Balance{{Recipient: "IT", Amount: 10}, {Recipient: "HR", Amount: 2}},
	}
	evs := []ledger.Event{
		{ID: "ev-1", Type: ledger.EventAllocated, Department: "HR", Amount: 20, At: at},
		{ID: "ev-2", Type: ledger.EventRequested, Department: "HR", Amount: 3, At: at.Add(time.Minute)},
	}

	if err := s.SaveState(st, evs); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	got, err := s.LoadState()
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if got.Admin != "treasurer" {
		t.Fatalf("Admin = %s, want treasurer", got.Admin)
	}
	if got.Ledger.TotalBudget != 100 || got.Ledger.Pool != 50 {
		t.Fatalf("Ledger = %+v, want total 100 pool 50", got.Ledger)
	}
	if len(got.Ledger.Departments) != 2 {
		t.Fatalf("got %d departments, want 2", len(got.Ledger.Departments))
	}
	if got.Ledger.Departments[0].ID != "HR" || got.Ledger.Departments[0].Requested != 3 {
		t.Fatalf("HR record = %+v", got.Ledger.Departments[0])
	}
	if got.Funded != 88 {
		t.Fatalf("Funded = %d, want 88", got.Funded)
	}
	if len(got.Balances) != 2 || got.Balances[1].Amount != 10 {
		t.Fatalf("Balances = %v", got.Balances)
	}

	// Restored ledger must pass invariant validation.
	if _, err := ledger.FromSnapshot(got.Ledger, nil, nil); err != nil {
		t.Fatalf("FromSnapshot on loaded state: %v", err)
	}
}

func TestSaveStateOverwrites(t *testing.T) {
	s := openTestStore(t)

	st := State{Admin: "treasurer", Ledger: ledger.Snapshot{TotalBudget: 100, Pool: 100}, Funded: 100}
	if err := s.SaveState(st, nil); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	st.Ledger.Pool = 70
	st.Ledger.Departments = []ledger.DepartmentSnapshot{{ID: "IT", Allocated: 30}}
	if err := s.SaveState(st, nil); err != nil {
		t.Fatalf("second SaveState: %v", err)
	}

	got, err := s.LoadState()
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if got.Ledger.Pool != 70 {
		t.Fatalf("Pool = %d, want 70", got.Ledger.Pool)
	}
	if len(got.Ledger.Departments) != 1 {
		t.Fatalf("got %d departments, want 1", len(got.Ledger.Departments))
	}
}

func TestEventJournal(t *testing.T) {
	s := openTestStore(t)

	st := State{Admin: "treasurer", Ledger: ledger.Snapshot{TotalBudget: 10, Pool: 10}, Funded: 10}
	at := time.Now().UTC().Truncate(time.Millisecond)
	for i, id := range []string{"ev-1", "ev-2", "ev-3"} {
		ev := ledger.Event{ID: id, Type: ledger.EventAllocated, Department: "IT", Amount: int64(i + 1), At: at}
		if err := s.SaveState(st, []ledger.Event{ev}); err != nil {
			t.Fatalf("SaveState %s: %v", id, err)
		}
	}

	n, err := s.EventCount()
	if err != nil {
		t.Fatalf("EventCount: %v", err)
	}
	if n != 3 {
		t.Fatalf("EventCount = %d, want 3", n)
	}

	evs, err := s.ListEvents(2)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(evs) != 2 {
		t.Fatalf("ListEvents returned %d, want 2", len(evs))
	}
	// Newest first.
	if evs[0].ID != "ev-3" || evs[1].ID != "ev-2" {
		t.Fatalf("ListEvents order = %s, %s; want ev-3, ev-2", evs[0].ID, evs[1].ID)
	}
	if !evs[0].At.Equal(at) {
		t.Fatalf("event time = %v, want %v", evs[0].At, at)
	}
}
