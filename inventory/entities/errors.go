package entities

import "errors"

// Error taxonomy for ledger and allocator operations. Callers match with
// errors.Is; most sites wrap these with fmt.Errorf("%w") to add context.
var (
	// ErrInvalidInput rejects a request before any mutation: non-positive
	// quantity, past expiry on receipt, unknown item or branch.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientStock is returned by a single-lot deduct when the
	// requested quantity exceeds what the lot holds. The allocator absorbs
	// it by moving to the next lot; it is not surfaced on allocations.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrNotFound marks a lookup for an entity the store does not hold.
	ErrNotFound = errors.New("not found")
)
