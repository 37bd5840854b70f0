package lease

// =============================================================================
// ENRICHMENT - Raw storage row -> display-ready contract
// =============================================================================

// Enrich turns a raw contract row into its display-ready form:
//
//  1. Scales the per-unit price and daily deduction by the unit count.
//  2. Materializes the full deduction schedule around the stored records.
//  3. Aggregates the unpaid balance and total paid.
//  4. Re-derives contract and settlement status.
//
// The result is an in-memory cache only. The balance and the materialized
// schedule are never written back as authoritative state; the next load
// recomputes them from scratch.
func Enrich(c Contract, today Date) Contract {
	out := c

	units := c.Units()
	out.TotalAmount = c.TotalAmount.MulInt(units)
	out.DailyDeduction = c.DailyDeduction.MulInt(units)

	out.Deductions = Materialize(c.Deductions, c.ID, c.ExecutionDate, c.ExpiryDate, out.DailyDeduction, today)
	out.UnpaidBalance = UnpaidBalance(out.Deductions)
	out.TotalPaid = TotalPaid(out.Deductions)
	out.Status, out.SettlementStatus = DeriveStatuses(out, today)

	return out
}

// EnrichAll enriches a batch of contracts against a single today snapshot,
// so one load never mixes two different notions of "now".
func EnrichAll(contracts []Contract, today Date) []Contract {
	out := make([]Contract, len(contracts))
	for i, c := range contracts {
		out[i] = Enrich(c, today)
	}
	return out
}
