// Package store provides SQLite-backed persistence for the budget ledger,
// the treasury balances, and the event journal.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/deptfund/internal/ledger"
	"github.com/theirongolddev/deptfund/internal/treasury"

	_ "modernc.org/sqlite" // register sqlite driver
)

// ErrNotInitialized indicates that no ledger has been created yet.
var ErrNotInitialized = errors.New("ledger not initialized (run `deptfund init` first)")

// Store persists ledger state. All writes happen in a single transaction so
// a failed operation never leaves a partial save behind.
type Store struct {
	db *sql.DB
}

// State is everything needed to reconstruct the running system.
type State struct {
	Admin    ledger.Identity
	Ledger   ledger.Snapshot
	Funded   int64
	Balances []treasury.Balance
}

// DefaultPath returns the XDG-compliant database path.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "deptfund", "ledger.db")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "deptfund", "ledger.db")
}

// Open opens or creates the database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening ledger db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Initialized reports whether a ledger row exists.
func (s *Store) Initialized() (bool, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM ledger").Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// SaveState writes the full system state and appends any new events in one
// transaction.
func (s *Store) SaveState(st State, evs []ledger.Event) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.Exec(`INSERT OR REPLACE INTO ledger (id, admin, total_budget, pool, saved_at)
		VALUES (1, ?, ?, ?, ?)`,
		string(st.Admin), st.Ledger.TotalBudget, st.Ledger.Pool, now)
	if err != nil {
		return err
	}

	for _, d := range st.Ledger.Departments {
		_, err = tx.Exec(`INSERT OR REPLACE INTO departments (id, allocated, requested, spent)
			VALUES (?, ?, ?, ?)`,
			string(d.ID), d.Allocated, d.Requested, d.Spent)
		if err != nil {
			return err
		}
	}

	_, err = tx.Exec(`INSERT OR REPLACE INTO treasury (id, funded) VALUES (1, ?)`, st.Funded)
	if err != nil {
		return err
	}
	for _, b := range st.Balances {
		_, err = tx.Exec(`INSERT OR REPLACE INTO balances (recipient, amount) VALUES (?, ?)`,
			string(b.Recipient), b.Amount)
		if err != nil {
			return err
		}
	}

	for _, ev := range evs {
		_, err = tx.Exec(`INSERT INTO events (event_id, type, department, amount, at)
			VALUES (?, ?, ?, ?, ?)`,
			ev.ID, string(ev.Type), string(ev.Department), ev.Amount,
			ev.At.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadState reads the full system state. Returns ErrNotInitialized when no
// ledger has been created.
func (s *Store) LoadState() (State, error) {
	var st State
	var admin string
	err := s.db.QueryRow("SELECT admin, total_budget, pool FROM ledger WHERE id = 1").
		Scan(&admin, &st.Ledger.TotalBudget, &st.Ledger.Pool)
	if errors.Is(err, sql.ErrNoRows) {
		return st, ErrNotInitialized
	}
	if err != nil {
		return st, err
	}
	st.Admin = ledger.Identity(admin)

	rows, err := s.db.Query("SELECT id, allocated, requested, spent FROM departments ORDER BY id")
	if err != nil {
		return st, err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var d ledger.DepartmentSnapshot
		var id string
		if err := rows.Scan(&id, &d.Allocated, &d.Requested, &d.Spent); err != nil {
			return st, err
		}
		d.ID = ledger.Identity(id)
		st.Ledger.Departments = append(st.Ledger.Departments, d)
	}
	if err := rows.Err(); err != nil {
		return st, err
	}

	err = s.db.QueryRow("SELECT funded FROM treasury WHERE id = 1").Scan(&st.Funded)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return st, err
	}

	balRows, err := s.db.Query("SELECT recipient, amount FROM balances ORDER BY recipient")
	if err != nil {
		return st, err
	}
	defer func() { _ = balRows.Close() }()
	for balRows.Next() {
		var b treasury.Balance
		var recipient string
		if err := balRows.Scan(&recipient, &b.Amount); err != nil {
			return st, err
		}
		b.Recipient = ledger.Identity(recipient)
		st.Balances = append(st.Balances, b)
	}
	return st, balRows.Err()
}

// ListEvents returns up to limit journal entries, newest first.
func (s *Store) ListEvents(limit int) ([]ledger.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`SELECT event_id, type, department, amount, at
		FROM events ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []ledger.Event
	for rows.Next() {
		var ev ledger.Event
		var typ, dept, at string
		if err := rows.Scan(&ev.ID, &typ, &dept, &ev.Amount, &at); err != nil {
			return nil, err
		}
		ev.Type = ledger.EventType(typ)
		ev.Department = ledger.Identity(dept)
		ev.At, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// EventCount returns the number of journaled events.
func (s *Store) EventCount() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&n)
	return n, err
}
