/*
errors.go - Centralized error types for the lease engine

ERROR CATEGORIES:
  1. Input malformation - unparseable dates, non-positive payment amounts
  2. Not-found errors   - missing contracts, deductions, partners
  3. Conflict errors    - contract number collisions (retryable)
  4. Bulk errors        - aggregate failures from bulk settlement ops

The core never catches-and-swallows: a date parse failure or a rejected
amount propagates to the caller unmodified.
*/
package lease

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidDate is returned when a date string cannot be parsed.
	// Malformed dates fail fast; they are never coerced to a sentinel value.
	ErrInvalidDate = errors.New("invalid date")

	// ErrNonPositiveAmount is returned when a payment amount is zero or
	// negative. Rejected before any record is mutated.
	ErrNonPositiveAmount = errors.New("payment amount must be positive")

	// ErrContractNotFound is returned when a referenced contract doesn't exist.
	ErrContractNotFound = errors.New("contract not found")

	// ErrDeductionNotFound is returned when a deduction id is not in the
	// contract's schedule.
	ErrDeductionNotFound = errors.New("deduction not found")

	// ErrPartnerNotFound is returned when a referenced partner doesn't exist.
	ErrPartnerNotFound = errors.New("partner not found")

	// ErrEventNotFound is returned when a calendar event doesn't exist.
	ErrEventNotFound = errors.New("event not found")

	// ErrRoundNotFound is returned when a settlement round doesn't exist.
	ErrRoundNotFound = errors.New("settlement round not found")

	// ErrDuplicateContractNumber is returned when contract-number allocation
	// collides under concurrent creation. The write is rejected loudly and
	// can be retried; numbers are monotonic but may leave gaps.
	ErrDuplicateContractNumber = errors.New("duplicate contract number")

	// ErrInvalidTransition is returned for settlement stage transitions not
	// permitted from the contract's current status.
	ErrInvalidTransition = errors.New("invalid settlement transition")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// BulkError aggregates per-contract failures from a bulk settlement
// operation. Bulk updates are fired independently with no transactional
// grouping: every id is attempted, failures are collected, and the store
// is left in a possibly-mixed state that only a re-fetch reveals.
type BulkError struct {
	Failures map[string]error // contract id -> failure
}

func (e *BulkError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for id, err := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", id, err))
	}
	return fmt.Sprintf("bulk operation failed for %d contract(s): %s",
		len(e.Failures), strings.Join(parts, "; "))
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable reports whether the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrDuplicateContractNumber)
}

// IsClientError reports whether the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrNonPositiveAmount) ||
		errors.Is(err, ErrInvalidTransition)
}

// IsNotFound reports whether the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrContractNotFound) ||
		errors.Is(err, ErrDeductionNotFound) ||
		errors.Is(err, ErrPartnerNotFound) ||
		errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrRoundNotFound)
}
