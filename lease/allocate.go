/*
allocate.go - Payment allocation across the deduction schedule

PURPOSE:
  Applies an incoming payment to the schedule oldest-date-first: the
  oldest debt is always retired first, regardless of how the UI happens
  to display the records. Settle and Cancel are the single-record inverse
  operations; they overwrite one record and never redistribute.

CONSERVATION GUARANTEE:
  Total applied == min(payment, total outstanding). Any excess beyond the
  outstanding balance is returned as an unallocated remainder; it is the
  caller's policy decision what to do with it, never silently dropped.
*/
package lease

// Allocate applies amount across the schedule oldest-date-first and
// returns the updated schedule plus the unallocated remainder.
//
// A non-positive amount is a caller error and is rejected before any
// record is touched. The input slice is not mutated.
func Allocate(schedule []DeductionLog, amount Money, today Date) ([]DeductionLog, Money, error) {
	if !amount.IsPositive() {
		return nil, Zero(), ErrNonPositiveAmount
	}

	out := append([]DeductionLog(nil), schedule...)
	sortSchedule(out)

	remaining := amount
	for i := range out {
		if remaining.IsZero() {
			break
		}
		if out[i].Status == DeductionPaid {
			continue
		}
		needed := out[i].Amount.Sub(out[i].PaidAmount)
		if !needed.IsPositive() {
			continue
		}
		payment := needed.Min(remaining)
		out[i].PaidAmount = out[i].PaidAmount.Add(payment)
		remaining = remaining.Sub(payment)
		out[i].Status = statusFor(out[i].Amount, out[i].PaidAmount, out[i].Date, today)
	}

	return out, remaining, nil
}

// Settle forces a single record to fully paid. Unconditional overwrite;
// it does not re-run the allocator.
func Settle(schedule []DeductionLog, deductionID string) ([]DeductionLog, error) {
	out := append([]DeductionLog(nil), schedule...)
	for i := range out {
		if out[i].ID != deductionID {
			continue
		}
		out[i].PaidAmount = out[i].Amount
		out[i].Status = DeductionPaid
		return out, nil
	}
	return nil, ErrDeductionNotFound
}

// Cancel reverts a single record to unpaid state. The cancelled amount is
// not redistributed to other records; the status falls back to unpaid or
// pending depending on the date.
func Cancel(schedule []DeductionLog, deductionID string, today Date) ([]DeductionLog, error) {
	out := append([]DeductionLog(nil), schedule...)
	for i := range out {
		if out[i].ID != deductionID {
			continue
		}
		out[i].PaidAmount = Zero()
		out[i].Status = statusFor(out[i].Amount, Zero(), out[i].Date, today)
		return out, nil
	}
	return nil, ErrDeductionNotFound
}
