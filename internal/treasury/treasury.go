// Package treasury custodies the backing funds behind the budget ledger and
// delivers released amounts to department accounts.
package treasury

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/theirongolddev/deptfund/internal/ledger"
)

// ErrInsufficientFunds signals a delivery failure: the treasury does not hold
// enough backing funds to cover the transfer. No partial delivery occurs.
var ErrInsufficientFunds = errors.New("treasury has insufficient backing funds")

// Treasury holds the undelivered backing funds plus the external balance of
// every recipient ever paid. Pay is all-or-nothing. Safe for concurrent use.
type Treasury struct {
	mu       sync.Mutex
	funded   int64
	balances map[ledger.Identity]int64
}

// Balance pairs a recipient with its delivered funds, for listings.
type Balance struct {
	Recipient ledger.Identity `json:"recipient"`
	Amount    int64           `json:"amount"`
}

// New returns a treasury funded with the given backing amount.
func New(funded int64) *Treasury {
	return &Treasury{
		funded:   funded,
		balances: make(map[ledger.Identity]int64),
	}
}

// Restore rebuilds a treasury from persisted state.
func Restore(funded int64, balances []Balance) *Treasury {
	t := New(funded)
	for _, b := range balances {
		t.balances[b.Recipient] = b.Amount
	}
	return t
}

// Pay implements ledger.Payer: it moves amount from the backing funds to the
// recipient's external balance, or fails without side effects.
func (t *Treasury) Pay(_ context.Context, recipient ledger.Identity, amount int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if amount > t.funded {
		return ErrInsufficientFunds
	}
	t.funded -= amount
	t.balances[recipient] += amount
	return nil
}

// BalanceOf returns the funds delivered to recipient so far.
func (t *Treasury) BalanceOf(recipient ledger.Identity) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balances[recipient]
}

// Funded returns the backing funds not yet delivered.
func (t *Treasury) Funded() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.funded
}

// Balances returns every recipient balance, sorted by recipient.
func (t *Treasury) Balances() []Balance {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Balance, 0, len(t.balances))
	for id, amt := range t.balances {
		out = append(out, Balance{Recipient: id, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Recipient < out[j].Recipient })
	return out
}
