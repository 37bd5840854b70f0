/*
Package lease is the core engine of the device-lease back office.

PURPOSE:
  This package contains the data model and algorithms for lease contracts:
  the daily deduction schedule, unpaid-balance aggregation, contract and
  settlement status derivation, and oldest-first payment allocation.

KEY CONCEPTS IN THIS FILE (types.go):
  - Contract: a lease agreement for one or more physical units
  - DeductionLog: one calendar day's due amount inside the active window
  - Status enums: contract, deduction, shipping, procurement, settlement

DESIGN PRINCIPLES:
  1. Purity: every core function is a deterministic map from snapshot to
     result; "today" is always an explicit parameter, never read inline
  2. Precision: Money wraps decimal.Decimal to avoid float drift
  3. Derived state is never authoritative: UnpaidBalance and the
     materialized schedule are recomputed on every load

SEE ALSO:
  - schedule.go: materializes the daily deduction calendar
  - balance.go:  unpaid-balance and total-paid aggregation
  - status.go:   contract/settlement status derivation
  - allocate.go: oldest-first payment allocation, settle/cancel
  - service.go:  mutation entry points over a ContractStore
*/
package lease

// =============================================================================
// STATUS ENUMS
// =============================================================================

type ContractStatus string

const (
	ContractActive  ContractStatus = "active"
	ContractExpired ContractStatus = "expired"
	ContractSettled ContractStatus = "settled"
)

type DeductionStatus string

const (
	DeductionUnpaid  DeductionStatus = "unpaid"
	DeductionPending DeductionStatus = "pending"
	DeductionPartial DeductionStatus = "partial"
	DeductionPaid    DeductionStatus = "paid"
)

type ShippingStatus string

const (
	ShippingPreparing ShippingStatus = "preparing"
	ShippingShipped   ShippingStatus = "shipped"
	ShippingDelivered ShippingStatus = "delivered"
)

type ProcurementStatus string

const (
	ProcurementUnsecured ProcurementStatus = "unsecured"
	ProcurementSecured   ProcurementStatus = "secured"
)

type SettlementStatus string

const (
	SettlementNotReady  SettlementStatus = "not_ready"
	SettlementReady     SettlementStatus = "ready"
	SettlementRequested SettlementStatus = "requested"
	SettlementCompleted SettlementStatus = "completed"
)

// =============================================================================
// DEDUCTION LOG - One calendar day of the schedule
// =============================================================================

// DeductionLog is one day's due amount within a contract's active window.
//
// INVARIANTS:
//   - 0 <= PaidAmount <= Amount
//   - Status is consistent with PaidAmount and the date relative to today:
//       PaidAmount == 0 and date <  today  => unpaid
//       PaidAmount == 0 and date >= today  => pending
//       0 < PaidAmount < Amount            => partial
//       PaidAmount == Amount               => paid
//
// Records are never deleted individually; the whole schedule is
// regenerated if the contract's execution/expiry window changes.
type DeductionLog struct {
	ID         string          `json:"id"`
	Date       Date            `json:"date"`
	Amount     Money           `json:"amount"`
	PaidAmount Money           `json:"paid_amount"`
	Status     DeductionStatus `json:"status"`
}

// Outstanding returns the unpaid remainder of this record. A paid record
// contributes zero even if its stored amounts disagree.
func (d DeductionLog) Outstanding() Money {
	if d.Status == DeductionPaid {
		return Zero()
	}
	return d.Amount.Sub(d.PaidAmount)
}

// =============================================================================
// CONTRACT
// =============================================================================

// Contract is a lease agreement for one or more physical units.
//
// TotalAmount and DailyDeduction are stored per unit; Enrich scales them
// by UnitsRequired. UnpaidBalance, TotalPaid and the materialized
// Deductions slice are derived caches, recomputed on every load and never
// treated as persisted truth.
type Contract struct {
	ID             string
	ContractNumber int64
	PartnerID      string
	DeviceName     string
	Color          string

	ContractDate  Date
	ExecutionDate *Date // deduction clock starts the day after; nil = not activated
	ExpiryDate    *Date // derived: execution date + duration
	DurationDays  int

	TotalAmount    Money // per unit as stored, scaled by Enrich
	DailyDeduction Money // per unit as stored, scaled by Enrich
	UnitsRequired  int
	UnitsSecured   int

	Deductions    []DeductionLog
	UnpaidBalance Money // derived
	TotalPaid     Money // derived

	Status ContractStatus

	// Shipping
	ShippingStatus  ShippingStatus
	ShippingDate    *Date
	ShippingCompany string
	TrackingNumber  string

	// Procurement
	ProcurementStatus ProcurementStatus
	ProcurementSource string
	ProcurementCost   Money

	// Parties
	LesseeName           string
	LesseeContact        string
	LesseeBusinessNumber string
	DistributorName      string
	DistributorContact   string
	ManagerName          string

	// Settlement workflow
	SettlementRound        int
	SettlementStatus       SettlementStatus
	IsLesseeContractSigned bool
	SettlementRequestDate  *Date
	SettlementDate         *Date
	SettlementDocumentURL  string

	ContractFileURL string
}

// Units returns the unit count used for scaling, defaulting to one.
func (c Contract) Units() int {
	if c.UnitsRequired <= 0 {
		return 1
	}
	return c.UnitsRequired
}
