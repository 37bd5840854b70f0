package lease

// =============================================================================
// STATUS DERIVATION
// =============================================================================

// PrerequisitesMet reports whether all three settlement prerequisites hold:
// goods delivered, lessee contract signed, settlement document uploaded.
func PrerequisitesMet(c Contract) bool {
	return c.ShippingStatus == ShippingDelivered &&
		c.IsLesseeContractSigned &&
		c.SettlementDocumentURL != ""
}

// DeriveStatuses recomputes the contract status and settlement status from
// the contract's current prerequisites and dates. Idempotent: applying it
// twice yields the same result.
//
// Contract status: active -> expired once the expiry date has passed.
// Nothing else is automatic; "settled" is only set by explicit settlement
// completion.
//
// Settlement status: not_ready <-> ready follow the prerequisite booleans
// in both directions (unsigning a contract regresses it). requested and
// completed are reached only via explicit user action and are never
// touched here.
func DeriveStatuses(c Contract, today Date) (ContractStatus, SettlementStatus) {
	contractStatus := c.Status
	if contractStatus == ContractActive && c.ExpiryDate != nil && c.ExpiryDate.Before(today) {
		contractStatus = ContractExpired
	}

	settlementStatus := c.SettlementStatus
	switch settlementStatus {
	case SettlementNotReady:
		if PrerequisitesMet(c) {
			settlementStatus = SettlementReady
		}
	case SettlementReady:
		if !PrerequisitesMet(c) {
			settlementStatus = SettlementNotReady
		}
	}

	return contractStatus, settlementStatus
}

// statusFor returns the deduction status consistent with a record's paid
// amount and its date relative to today (the invariant table).
func statusFor(amount, paid Money, date, today Date) DeductionStatus {
	switch {
	case paid.GreaterThanOrEqual(amount) && amount.IsPositive():
		return DeductionPaid
	case paid.IsPositive():
		return DeductionPartial
	case date.Before(today):
		return DeductionUnpaid
	default:
		return DeductionPending
	}
}
