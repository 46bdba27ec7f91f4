package ledger

import "errors"

// Every mutating operation fails with exactly one of these; a failed call
// leaves the ledger untouched.
var (
	// ErrAmountNotPositive rejects zero or negative amounts on any operation.
	ErrAmountNotPositive = errors.New("amount must be more than zero")

	// ErrExceedsPool rejects an allocation beyond the remaining unallocated pool.
	ErrExceedsPool = errors.New("amount exceeds remaining pool")

	// ErrNoSuchDepartment rejects a request from an identity that has never
	// been allocated budget.
	ErrNoSuchDepartment = errors.New("department does not exist")

	// ErrExceedsAllocation rejects a request whose outstanding total would
	// exceed the department's unspent allocation.
	ErrExceedsAllocation = errors.New("request exceeds allocated budget")

	// ErrExceedsRequested rejects a release larger than the department's
	// outstanding requested funds.
	ErrExceedsRequested = errors.New("release exceeds requested funds")

	// ErrUnauthorized rejects an admin-only operation from a non-admin caller.
	ErrUnauthorized = errors.New("caller is not the administrator")

	// ErrReentrantCall rejects a guarded operation entered while another
	// guarded operation is still executing (e.g. from a payment callback).
	ErrReentrantCall = errors.New("reentrant ledger call")

	// ErrTransferFailed wraps a payment delivery failure; the release that
	// triggered it is rolled back in full.
	ErrTransferFailed = errors.New("fund transfer failed")

	// ErrBackingMismatch rejects construction when the backing funds do not
	// equal the total budget.
	ErrBackingMismatch = errors.New("backing funds must equal total budget")
)
