package lease

// =============================================================================
// BALANCE AGGREGATION
// =============================================================================

// UnpaidBalance sums (amount - paid) over every record not yet paid.
// A partial record contributes only its remainder; this is the one place
// double-counting must be guarded against.
func UnpaidBalance(schedule []DeductionLog) Money {
	total := Zero()
	for _, d := range schedule {
		total = total.Add(d.Outstanding())
	}
	return total
}

// TotalPaid sums the paid amounts across the schedule.
func TotalPaid(schedule []DeductionLog) Money {
	total := Zero()
	for _, d := range schedule {
		total = total.Add(d.PaidAmount)
	}
	return total
}

// TotalOutstanding is UnpaidBalance under its allocation-facing name:
// the most a single payment can absorb.
func TotalOutstanding(schedule []DeductionLog) Money {
	return UnpaidBalance(schedule)
}
