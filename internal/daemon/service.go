// Package daemon provides the long-running ledger service with an HTTP API
// and a server-sent event stream.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/theirongolddev/deptfund/internal/authority"
	"github.com/theirongolddev/deptfund/internal/events"
	"github.com/theirongolddev/deptfund/internal/ledger"
	"github.com/theirongolddev/deptfund/internal/store"
	"github.com/theirongolddev/deptfund/internal/tracing"
	"github.com/theirongolddev/deptfund/internal/treasury"
)

var errPersist = errors.New("persisting ledger state")

// Config controls the daemon runtime behavior.
type Config struct {
	Addr         string
	EventsBuffer int
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time                   `json:"started_at"`
	Admin           ledger.Identity             `json:"admin"`
	TotalBudget     int64                       `json:"total_budget"`
	PoolBalance     int64                       `json:"pool_balance"`
	Departments     int                         `json:"departments"`
	OpCount         int64                       `json:"op_count"`
	EventCount      int                         `json:"event_count"`
	SubscriberCount int                         `json:"subscriber_count"`
	LastError       string                      `json:"last_error,omitempty"`
	Snapshot        []ledger.DepartmentSnapshot `json:"snapshot,omitempty"`
}

// DepartmentView is one department record plus its delivered external balance.
type DepartmentView struct {
	ledger.DepartmentSnapshot
	Remaining int64 `json:"remaining"`
	Balance   int64 `json:"balance"`
}

// Service owns the in-memory ledger, persists every mutation through the
// store, and fans events out to SSE subscribers.
type Service struct {
	cfg Config

	led  *ledger.Ledger
	auth *authority.Static
	tre  *treasury.Treasury
	db   *store.Store
	bus  *events.Bus
	coll *events.Collector

	// opMu serializes mutating operations so concurrent HTTP requests see
	// the same all-or-nothing semantics as a serialized-execution host.
	opMu sync.Mutex

	mu        sync.RWMutex
	startedAt time.Time
	opCount   int64
	lastError string
}

// New builds a service from persisted state. The store must be initialized.
func New(cfg Config, db *store.Store) (*Service, error) {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8791"
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}

	st, err := db.LoadState()
	if err != nil {
		return nil, err
	}

	s := &Service{
		cfg:       cfg,
		auth:      authority.NewStatic(st.Admin),
		tre:       treasury.Restore(st.Funded, st.Balances),
		db:        db,
		bus:       events.NewBus(cfg.EventsBuffer),
		coll:      &events.Collector{},
		startedAt: time.Now(),
	}

	sink := ledger.SinkFunc(func(ev ledger.Event) {
		s.bus.Publish(ev)
		s.coll.Publish(ev)
	})
	led, err := ledger.FromSnapshot(st.Ledger, s.auth, s.tre, ledger.WithSink(sink))
	if err != nil {
		return nil, err
	}
	s.led = led
	return s, nil
}

func (s *Service) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/departments", s.handleDepartments)
	mux.HandleFunc("/v1/allocate", s.handleAllocate)
	mux.HandleFunc("/v1/request", s.handleRequest)
	mux.HandleFunc("/v1/release", s.handleRelease)
	mux.HandleFunc("/v1/admin/transfer", s.handleAdminTransfer)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	return mux
}

// Run serves the HTTP API until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("daemon http server: %w", err)
	}
}

// mutate runs one ledger operation and persists the result. Mutations are
// serialized; a persistence failure is surfaced but the in-memory mutation
// stands (the journal catches up on the next successful save).
func (s *Service) mutate(op func() error) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := op(); err != nil {
		s.recordError(err)
		return err
	}

	evs := s.coll.Drain()
	st := store.State{
		Admin:    s.auth.Admin(),
		Ledger:   s.led.Snapshot(),
		Funded:   s.tre.Funded(),
		Balances: s.tre.Balances(),
	}
	if err := s.db.SaveState(st, evs); err != nil {
		log.Printf("deptfund daemon: save state: %v", err)
		s.recordError(err)
		return fmt.Errorf("%w: %v", errPersist, err)
	}

	s.mu.Lock()
	s.opCount++
	s.lastError = ""
	s.mu.Unlock()
	return nil
}

func (s *Service) recordError(err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
}

type allocateRequest struct {
	Department ledger.Identity `json:"department"`
	Amount     int64           `json:"amount"`
}

type requestRequest struct {
	Amount int64 `json:"amount"`
}

type releaseRequest struct {
	Department ledger.Identity `json:"department"`
	Amount     int64           `json:"amount"`
}

type transferRequest struct {
	NewAdmin ledger.Identity `json:"new_admin"`
}

func caller(r *http.Request) ledger.Identity {
	return ledger.Identity(r.Header.Get("X-Caller"))
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, ledger.ErrUnauthorized), errors.Is(err, authority.ErrNotAdmin):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrNoSuchDepartment):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrReentrantCall):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrTransferFailed):
		return http.StatusBadGateway
	case errors.Is(err, errPersist):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusForError(err), map[string]string{"error": err.Error()})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return false
	}
	return true
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	snap := s.led.Snapshot()
	eventCount, _ := s.db.EventCount()

	s.mu.RLock()
	st := Status{
		StartedAt:       s.startedAt,
		Admin:           s.auth.Admin(),
		TotalBudget:     snap.TotalBudget,
		PoolBalance:     snap.Pool,
		Departments:     len(snap.Departments),
		OpCount:         s.opCount,
		EventCount:      eventCount,
		SubscriberCount: s.bus.SubscriberCount(),
		LastError:       s.lastError,
	}
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, st)
}

func (s *Service) handleDepartments(w http.ResponseWriter, _ *http.Request) {
	snap := s.led.Snapshot()
	views := make([]DepartmentView, 0, len(snap.Departments))
	for _, d := range snap.Departments {
		views = append(views, DepartmentView{
			DepartmentSnapshot: d,
			Remaining:          d.Allocated - d.Spent,
			Balance:            s.tre.BalanceOf(d.ID),
		})
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Service) handleAllocate(w http.ResponseWriter, r *http.Request) {
	var req allocateRequest
	if !decode(w, r, &req) {
		return
	}

	_, span := tracing.StartSpan(r.Context(), "ledger.allocate", map[string]string{
		"department": string(req.Department),
	})
	err := s.mutate(func() error {
		return s.led.Allocate(caller(r), req.Department, req.Amount)
	})
	tracing.EndSpan(span, err)

	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"department": req.Department,
		"allocated":  s.led.AllocatedBudget(req.Department),
		"pool":       s.led.PoolBalance(),
	})
}

func (s *Service) handleRequest(w http.ResponseWriter, r *http.Request) {
	var req requestRequest
	if !decode(w, r, &req) {
		return
	}

	from := caller(r)
	_, span := tracing.StartSpan(r.Context(), "ledger.request", map[string]string{
		"department": string(from),
	})
	err := s.mutate(func() error {
		return s.led.Request(from, req.Amount)
	})
	tracing.EndSpan(span, err)

	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"department": from,
		"requested":  s.led.RequestedFunds(from),
	})
}

func (s *Service) handleRelease(w http.ResponseWriter, r *http.Request) {
	var req releaseRequest
	if !decode(w, r, &req) {
		return
	}

	ctx, span := tracing.StartSpan(r.Context(), "ledger.release", map[string]string{
		"department": string(req.Department),
	})
	err := s.mutate(func() error {
		return s.led.Release(ctx, caller(r), req.Department, req.Amount)
	})
	tracing.EndSpan(span, err)

	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"department": req.Department,
		"spent":      s.led.SpentFunds(req.Department),
		"requested":  s.led.RequestedFunds(req.Department),
		"balance":    s.tre.BalanceOf(req.Department),
	})
}

func (s *Service) handleAdminTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !decode(w, r, &req) {
		return
	}

	err := s.mutate(func() error {
		return s.auth.Transfer(caller(r), req.NewAdmin)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"admin": s.auth.Admin()})
}

func (s *Service) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		_, _ = fmt.Sscanf(v, "%d", &limit)
	}
	evs, err := s.db.ListEvents(limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if evs == nil {
		evs = []ledger.Event{}
	}
	writeJSON(w, http.StatusOK, evs)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan ledger.Event, 16)
	id := s.bus.Subscribe(ch)
	defer s.bus.Unsubscribe(id)

	// Replay retained history so a new listener starts with context.
	for _, ev := range s.bus.Recent() {
		writeSSE(w, ev)
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev ledger.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}
