// Package ledger implements the department budget ledger: a fixed pool of
// funds allocated to departments by an administrator, requested by the
// departments themselves, and released as real transfers out of a backing
// treasury. All bookkeeping runs inside one non-reentrant critical section so
// no sequence of calls can double-spend the pool or a department's allocation.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Identity is an opaque caller or department identifier.
type Identity string

// Authority answers whether a caller may invoke admin-only operations.
type Authority interface {
	IsAdmin(caller Identity) bool
}

// Payer delivers funds to a department's external account. Pay either fully
// succeeds or fails without partial delivery. A Pay implementation may call
// back into the ledger; such nested mutations fail with ErrReentrantCall.
type Payer interface {
	Pay(ctx context.Context, recipient Identity, amount int64) error
}

// Account is one department's bookkeeping record. Allocated and Spent only
// ever grow; Requested fluctuates but never exceeds Allocated minus Spent.
type Account struct {
	Allocated int64
	Requested int64
	Spent     int64
}

// Unspent returns the allocation still available to request against.
func (a Account) Unspent() int64 { return a.Allocated - a.Spent }

// DepartmentSnapshot is one department's record plus its identity.
type DepartmentSnapshot struct {
	ID        Identity `json:"id"`
	Allocated int64    `json:"allocated"`
	Requested int64    `json:"requested"`
	Spent     int64    `json:"spent"`
}

// Snapshot is the full ledger state, used for persistence and queries.
type Snapshot struct {
	TotalBudget int64                `json:"total_budget"`
	Pool        int64                `json:"pool"`
	Departments []DepartmentSnapshot `json:"departments"`
}

// Ledger is the single source of truth for the budget pool and all
// department records. Safe for concurrent use.
type Ledger struct {
	authority Authority
	payer     Payer
	sink      Sink
	now       func() time.Time

	mu       sync.Mutex
	busy     bool // a guarded operation is mid-transfer
	total    int64
	pool     int64
	accounts map[Identity]*Account
}

// Option customizes a Ledger at construction.
type Option func(*Ledger)

// WithSink sets the event sink. Defaults to discarding events.
func WithSink(s Sink) Option {
	return func(l *Ledger) { l.sink = s }
}

// WithClock overrides the time source for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New creates a ledger seeded with totalBudget. The pool must be fully funded
// at creation: backingFunds must equal totalBudget.
func New(totalBudget, backingFunds int64, auth Authority, payer Payer, opts ...Option) (*Ledger, error) {
	if totalBudget < 0 {
		return nil, ErrAmountNotPositive
	}
	if backingFunds != totalBudget {
		return nil, ErrBackingMismatch
	}
	l := &Ledger{
		authority: auth,
		payer:     payer,
		sink:      SinkFunc(func(Event) {}),
		now:       time.Now,
		total:     totalBudget,
		pool:      totalBudget,
		accounts:  make(map[Identity]*Account),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// FromSnapshot restores a previously persisted ledger. The snapshot is
// validated against the ledger invariants before use.
func FromSnapshot(snap Snapshot, auth Authority, payer Payer, opts ...Option) (*Ledger, error) {
	if snap.Pool < 0 {
		return nil, fmt.Errorf("corrupt ledger state: pool %d is negative", snap.Pool)
	}
	allocated := int64(0)
	for _, d := range snap.Departments {
		if d.Spent > d.Allocated {
			return nil, fmt.Errorf("corrupt ledger state: department %s spent %d exceeds allocated %d", d.ID, d.Spent, d.Allocated)
		}
		if d.Requested > d.Allocated-d.Spent {
			return nil, fmt.Errorf("corrupt ledger state: department %s requested %d exceeds unspent %d", d.ID, d.Requested, d.Allocated-d.Spent)
		}
		allocated += d.Allocated
	}
	if allocated+snap.Pool != snap.TotalBudget {
		return nil, fmt.Errorf("corrupt ledger state: allocations %d plus pool %d do not equal total budget %d", allocated, snap.Pool, snap.TotalBudget)
	}

	l, err := New(snap.TotalBudget, snap.TotalBudget, auth, payer, opts...)
	if err != nil {
		return nil, err
	}
	l.pool = snap.Pool
	for _, d := range snap.Departments {
		l.accounts[d.ID] = &Account{Allocated: d.Allocated, Requested: d.Requested, Spent: d.Spent}
	}
	return l, nil
}

// Allocate moves amount from the unallocated pool to the department's
// allocation. Admin-only. The first successful allocation creates the
// department record.
func (l *Ledger) Allocate(caller, dept Identity, amount int64) error {
	l.mu.Lock()
	if l.busy {
		l.mu.Unlock()
		return ErrReentrantCall
	}
	if !l.authority.IsAdmin(caller) {
		l.mu.Unlock()
		return ErrUnauthorized
	}
	if amount <= 0 {
		l.mu.Unlock()
		return ErrAmountNotPositive
	}
	if amount > l.pool {
		l.mu.Unlock()
		return ErrExceedsPool
	}

	acct, ok := l.accounts[dept]
	if !ok {
		acct = &Account{}
		l.accounts[dept] = acct
	}
	l.pool -= amount
	acct.Allocated += amount
	at := l.now()
	l.mu.Unlock()

	l.sink.Publish(newEvent(EventAllocated, dept, amount, at))
	return nil
}

// Request records that the calling department wants amount released from its
// own allocation. Requests accumulate: the outstanding total is bounded by
// the unspent allocation.
func (l *Ledger) Request(caller Identity, amount int64) error {
	l.mu.Lock()
	if l.busy {
		l.mu.Unlock()
		return ErrReentrantCall
	}
	if amount <= 0 {
		l.mu.Unlock()
		return ErrAmountNotPositive
	}
	acct, ok := l.accounts[caller]
	if !ok {
		l.mu.Unlock()
		return ErrNoSuchDepartment
	}
	if amount > acct.Unspent()-acct.Requested {
		l.mu.Unlock()
		return ErrExceedsAllocation
	}

	acct.Requested += amount
	at := l.now()
	l.mu.Unlock()

	l.sink.Publish(newEvent(EventRequested, caller, amount, at))
	return nil
}

// Release pays amount of the department's requested funds out through the
// payer. Admin-only. The ledger is debited before the transfer is attempted;
// if the transfer fails the debit is rolled back and ErrTransferFailed is
// returned. Nested ledger mutations from within the transfer fail with
// ErrReentrantCall, so funds move exactly once per successful call.
func (l *Ledger) Release(ctx context.Context, caller, dept Identity, amount int64) error {
	l.mu.Lock()
	if l.busy {
		l.mu.Unlock()
		return ErrReentrantCall
	}
	if !l.authority.IsAdmin(caller) {
		l.mu.Unlock()
		return ErrUnauthorized
	}
	if amount <= 0 {
		l.mu.Unlock()
		return ErrAmountNotPositive
	}
	acct, ok := l.accounts[dept]
	if !ok || amount > acct.Requested {
		l.mu.Unlock()
		return ErrExceedsRequested
	}

	// Debit before the external call so a reentrant observer can never see
	// funds that are already on their way out.
	acct.Requested -= amount
	acct.Spent += amount
	l.busy = true
	l.mu.Unlock()

	payErr := l.payer.Pay(ctx, dept, amount)

	l.mu.Lock()
	l.busy = false
	if payErr != nil {
		acct.Requested += amount
		acct.Spent -= amount
		l.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrTransferFailed, payErr)
	}
	at := l.now()
	l.mu.Unlock()

	l.sink.Publish(newEvent(EventReleased, dept, amount, at))
	return nil
}

// AllocatedBudget returns the cumulative amount ever allocated to dept.
func (l *Ledger) AllocatedBudget(dept Identity) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if acct, ok := l.accounts[dept]; ok {
		return acct.Allocated
	}
	return 0
}

// RequestedFunds returns dept's outstanding requested-but-unreleased amount.
func (l *Ledger) RequestedFunds(dept Identity) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if acct, ok := l.accounts[dept]; ok {
		return acct.Requested
	}
	return 0
}

// SpentFunds returns the cumulative amount released to dept.
func (l *Ledger) SpentFunds(dept Identity) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if acct, ok := l.accounts[dept]; ok {
		return acct.Spent
	}
	return 0
}

// RemainingUnspentAllocation returns dept's allocation minus what it has
// already spent. Released funds never return to the pool.
func (l *Ledger) RemainingUnspentAllocation(dept Identity) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if acct, ok := l.accounts[dept]; ok {
		return acct.Unspent()
	}
	return 0
}

// Exists reports whether dept has ever received an allocation.
func (l *Ledger) Exists(dept Identity) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.accounts[dept]
	return ok
}

// PoolBalance returns the funds still custodied but not yet allocated.
func (l *Ledger) PoolBalance() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pool
}

// TotalBudget returns the original pool size supplied at construction.
func (l *Ledger) TotalBudget() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// Departments returns every department record, sorted by identity.
func (l *Ledger) Departments() []DepartmentSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.departmentsLocked()
}

func (l *Ledger) departmentsLocked() []DepartmentSnapshot {
	out := make([]DepartmentSnapshot, 0, len(l.accounts))
	for id, acct := range l.accounts {
		out = append(out, DepartmentSnapshot{
			ID:        id,
			Allocated: acct.Allocated,
			Requested: acct.Requested,
			Spent:     acct.Spent,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Snapshot returns a consistent copy of the full ledger state.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Snapshot{
		TotalBudget: l.total,
		Pool:        l.pool,
		Departments: l.departmentsLocked(),
	}
}
