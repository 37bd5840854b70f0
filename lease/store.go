package lease

import "context"

// =============================================================================
// CONTRACT STORE - Persistence interface
// =============================================================================

// ContractStore is the persistence boundary for contracts. The deduction
// schedule rides along as a single structured column on the contract row;
// SaveDeductions overwrites it verbatim with whatever the caller produced.
//
// InsertContract allocates the human-facing contract number inside the
// store so the sequence can be made atomic against concurrent creations.
// A collision surfaces as ErrDuplicateContractNumber, which is retryable.
type ContractStore interface {
	// ListContracts returns all contracts, newest contract date first.
	ListContracts(ctx context.Context) ([]Contract, error)

	// GetContract returns one contract or ErrContractNotFound.
	GetContract(ctx context.Context, id string) (*Contract, error)

	// InsertContract persists a new contract, allocating its sequential
	// contract number, and returns the stored row.
	InsertContract(ctx context.Context, c Contract) (Contract, error)

	// UpdateContract overwrites an existing contract row.
	UpdateContract(ctx context.Context, c Contract) error

	// DeleteContract removes a contract. Explicit user action only.
	DeleteContract(ctx context.Context, id string) error

	// SaveDeductions overwrites the contract's stored deduction schedule.
	SaveDeductions(ctx context.Context, contractID string, schedule []DeductionLog) error
}
