/*
service.go - Mutation entry points over a ContractStore

PURPOSE:
  The Service is what the surrounding CRUD/UI layer calls. Each method
  fetches a snapshot, computes "today" exactly once, runs the pure core
  functions against the snapshot, and persists the result. The core never
  performs I/O; this is the only layer that does.

BULK OPERATIONS:
  Bulk settle/request-settle fire per-contract updates independently with
  no transactional grouping. Every id is attempted; failures are collected
  into a BulkError and the store is left in a possibly-mixed state that
  only a re-fetch reveals. There is no rollback.
*/
package lease

import (
	"context"

	"github.com/google/uuid"
)

// Service wires the pure core to a ContractStore.
type Service struct {
	Store ContractStore

	// Clock returns "today". Overridable in tests; defaults to Today.
	// Each operation calls it exactly once so a single computation never
	// observes two different days.
	Clock func() Date
}

func NewService(store ContractStore) *Service {
	return &Service{Store: store, Clock: Today}
}

func (s *Service) today() Date {
	if s.Clock != nil {
		return s.Clock()
	}
	return Today()
}

// =============================================================================
// CONTRACT LIFECYCLE
// =============================================================================

// CreateContract normalizes and persists a new contract. The execution
// date defaults to the contract date; the expiry date is always recomputed
// as execution + duration and is not independently editable.
func (s *Service) CreateContract(ctx context.Context, c Contract) (Contract, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	applyDefaults(&c)
	normalizeWindow(&c)
	return s.Store.InsertContract(ctx, c)
}

// UpdateContract re-normalizes the active window and overwrites the row.
// If the window changed, the schedule regenerates wholesale on next load.
func (s *Service) UpdateContract(ctx context.Context, c Contract) (Contract, error) {
	normalizeWindow(&c)
	if err := s.Store.UpdateContract(ctx, c); err != nil {
		return Contract{}, err
	}
	return c, nil
}

func (s *Service) DeleteContract(ctx context.Context, id string) error {
	return s.Store.DeleteContract(ctx, id)
}

// GetContract returns one contract, enriched.
func (s *Service) GetContract(ctx context.Context, id string) (Contract, error) {
	c, err := s.Store.GetContract(ctx, id)
	if err != nil {
		return Contract{}, err
	}
	return Enrich(*c, s.today()), nil
}

// ListContracts returns all contracts enriched against one today snapshot.
func (s *Service) ListContracts(ctx context.Context) ([]Contract, error) {
	raw, err := s.Store.ListContracts(ctx)
	if err != nil {
		return nil, err
	}
	return EnrichAll(raw, s.today()), nil
}

func applyDefaults(c *Contract) {
	if c.Status == "" {
		c.Status = ContractActive
	}
	if c.SettlementStatus == "" {
		c.SettlementStatus = SettlementNotReady
	}
	if c.ShippingStatus == "" {
		c.ShippingStatus = ShippingPreparing
	}
	if c.ProcurementStatus == "" {
		c.ProcurementStatus = ProcurementUnsecured
	}
	if c.UnitsRequired <= 0 {
		c.UnitsRequired = 1
	}
	if c.ExecutionDate == nil && !c.ContractDate.IsZero() {
		d := c.ContractDate
		c.ExecutionDate = &d
	}
}

func normalizeWindow(c *Contract) {
	if c.DurationDays <= 0 || c.ExecutionDate == nil {
		return
	}
	expiry := c.ExecutionDate.AddDays(c.DurationDays)
	c.ExpiryDate = &expiry
}

// =============================================================================
// PAYMENT ENTRY POINTS
// =============================================================================

// AddPayment allocates a payment across the contract's schedule,
// oldest unpaid day first, and persists the updated schedule verbatim.
// The unallocated remainder (payment beyond total outstanding) is
// returned to the caller rather than discarded.
func (s *Service) AddPayment(ctx context.Context, contractID string, amount Money) ([]DeductionLog, Money, error) {
	if !amount.IsPositive() {
		return nil, Zero(), ErrNonPositiveAmount
	}
	today := s.today()

	c, err := s.Store.GetContract(ctx, contractID)
	if err != nil {
		return nil, Zero(), err
	}

	enriched := Enrich(*c, today)
	updated, remainder, err := Allocate(enriched.Deductions, amount, today)
	if err != nil {
		return nil, Zero(), err
	}
	if err := s.Store.SaveDeductions(ctx, c.ID, updated); err != nil {
		return nil, Zero(), err
	}
	return updated, remainder, nil
}

// SettleDeduction forces a single deduction record to fully paid.
func (s *Service) SettleDeduction(ctx context.Context, contractID, deductionID string) ([]DeductionLog, error) {
	today := s.today()

	c, err := s.Store.GetContract(ctx, contractID)
	if err != nil {
		return nil, err
	}

	enriched := Enrich(*c, today)
	updated, err := Settle(enriched.Deductions, deductionID)
	if err != nil {
		return nil, err
	}
	if err := s.Store.SaveDeductions(ctx, c.ID, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// CancelDeduction reverts a single deduction record to unpaid state.
func (s *Service) CancelDeduction(ctx context.Context, contractID, deductionID string) ([]DeductionLog, error) {
	today := s.today()

	c, err := s.Store.GetContract(ctx, contractID)
	if err != nil {
		return nil, err
	}

	enriched := Enrich(*c, today)
	updated, err := Cancel(enriched.Deductions, deductionID, today)
	if err != nil {
		return nil, err
	}
	if err := s.Store.SaveDeductions(ctx, c.ID, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// =============================================================================
// SETTLEMENT WORKFLOW
// =============================================================================

// PrerequisiteUpdate carries the settlement prerequisites a user can edit.
// Nil fields are left untouched.
type PrerequisiteUpdate struct {
	ShippingStatus         *ShippingStatus
	IsLesseeContractSigned *bool
	SettlementDocumentURL  *string
}

// UpdatePrerequisites applies the edit and re-derives both statuses, so a
// contract moves between not_ready and ready immediately (regression
// included, e.g. when the signed flag is unset again).
func (s *Service) UpdatePrerequisites(ctx context.Context, contractID string, upd PrerequisiteUpdate) (Contract, error) {
	c, err := s.Store.GetContract(ctx, contractID)
	if err != nil {
		return Contract{}, err
	}

	if upd.ShippingStatus != nil {
		c.ShippingStatus = *upd.ShippingStatus
	}
	if upd.IsLesseeContractSigned != nil {
		c.IsLesseeContractSigned = *upd.IsLesseeContractSigned
	}
	if upd.SettlementDocumentURL != nil {
		c.SettlementDocumentURL = *upd.SettlementDocumentURL
	}

	c.Status, c.SettlementStatus = DeriveStatuses(*c, s.today())
	if err := s.Store.UpdateContract(ctx, *c); err != nil {
		return Contract{}, err
	}
	return *c, nil
}

// RequestSettlement moves ready -> requested, stamping the request date.
func (s *Service) RequestSettlement(ctx context.Context, contractID string) (Contract, error) {
	return s.transition(ctx, contractID, SettlementReady, func(c *Contract, today Date) {
		c.SettlementStatus = SettlementRequested
		d := today
		c.SettlementRequestDate = &d
	})
}

// CompleteSettlement moves requested -> completed. This is the one place
// a contract's status becomes settled.
func (s *Service) CompleteSettlement(ctx context.Context, contractID string) (Contract, error) {
	return s.transition(ctx, contractID, SettlementRequested, func(c *Contract, today Date) {
		c.SettlementStatus = SettlementCompleted
		c.Status = ContractSettled
		d := today
		c.SettlementDate = &d
	})
}

func (s *Service) transition(ctx context.Context, contractID string, from SettlementStatus, apply func(*Contract, Date)) (Contract, error) {
	c, err := s.Store.GetContract(ctx, contractID)
	if err != nil {
		return Contract{}, err
	}
	if c.SettlementStatus != from {
		return Contract{}, ErrInvalidTransition
	}
	apply(c, s.today())
	if err := s.Store.UpdateContract(ctx, *c); err != nil {
		return Contract{}, err
	}
	return *c, nil
}

// BulkRequestSettlement attempts RequestSettlement for every id.
func (s *Service) BulkRequestSettlement(ctx context.Context, contractIDs []string) error {
	return s.bulk(contractIDs, func(id string) error {
		_, err := s.RequestSettlement(ctx, id)
		return err
	})
}

// BulkCompleteSettlement attempts CompleteSettlement for every id.
func (s *Service) BulkCompleteSettlement(ctx context.Context, contractIDs []string) error {
	return s.bulk(contractIDs, func(id string) error {
		_, err := s.CompleteSettlement(ctx, id)
		return err
	})
}

func (s *Service) bulk(ids []string, op func(string) error) error {
	failures := make(map[string]error)
	for _, id := range ids {
		if err := op(id); err != nil {
			failures[id] = err
		}
	}
	if len(failures) > 0 {
		return &BulkError{Failures: failures}
	}
	return nil
}
