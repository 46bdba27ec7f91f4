// Package authority decides who may call admin-only ledger operations.
package authority

import (
	"errors"
	"sync"

	"github.com/theirongolddev/deptfund/internal/ledger"
)

// ErrNotAdmin rejects an ownership handoff initiated by a non-admin.
var ErrNotAdmin = errors.New("only the current administrator can transfer ownership")

// Static authorizes a single administrator identity and supports ownership
// handoff. Safe for concurrent use.
type Static struct {
	mu    sync.RWMutex
	admin ledger.Identity
}

// NewStatic returns an authority whose administrator is admin.
func NewStatic(admin ledger.Identity) *Static {
	return &Static{admin: admin}
}

// IsAdmin implements ledger.Authority.
func (s *Static) IsAdmin(caller ledger.Identity) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return caller == s.admin
}

// Admin returns the current administrator identity.
func (s *Static) Admin() ledger.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admin
}

// Transfer hands ownership to next. Only the current administrator may call it.
func (s *Static) Transfer(caller, next ledger.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if caller != s.admin {
		return ErrNotAdmin
	}
	s.admin = next
	return nil
}
