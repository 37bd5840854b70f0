/*
schedule.go - Daily deduction schedule materializer

PURPOSE:
  (Re)materializes the full calendar of daily deduction records for a
  contract's active window. The schedule is a derived structure: storage
  holds a sparse set of records with payment history, and every load
  rebuilds the complete calendar around them.

THE WALK:
  - Starts the day AFTER the execution date: the first deduction is due
    the day after the lease clock starts, not on execution day itself.
  - Proceeds one calendar day at a time through the LATER of the expiry
    date and today, so an overdue contract keeps generating records past
    expiry and the arrears stay visible to the balance aggregator.
  - A date that already has a record is carried forward unchanged,
    preserving whatever payment state was recorded.
  - A date with no record gets a synthesized one: deterministic id from
    contract id + date, due amount = the current daily deduction, zero
    paid, status unpaid for past dates and pending otherwise.

  Re-running the walk on its own output is a no-op (idempotent), which is
  what makes it safe to materialize on every load.

DATE ARITHMETIC:
  Everything runs on lease.Date (UTC civil days). An earlier revision of
  this system did the walk in local wall-clock time and dates silently
  shifted across DST boundaries; Date exists so that cannot recur.
*/
package lease

import (
	"sort"
)

// DeductionID derives the deterministic record id for a contract + date.
// Stable across re-materializations so synthesized records keep their
// identity from one load to the next.
func DeductionID(contractID string, date Date) string {
	return contractID + "-" + date.String()
}

// Materialize produces one deduction record per calendar day in the
// contract's active window, reusing existing records by date.
//
// If either boundary date is absent the contract has no active window
// (never activated, or imported without dates) and the existing records
// are returned as-is, sorted by date.
func Materialize(existing []DeductionLog, contractID string, executionDate, expiryDate *Date, dailyAmount Money, today Date) []DeductionLog {
	if executionDate == nil || expiryDate == nil {
		out := append([]DeductionLog(nil), existing...)
		sortSchedule(out)
		return out
	}

	byDate := make(map[string]DeductionLog, len(existing))
	for _, d := range existing {
		byDate[d.Date.String()] = d
	}

	end := Later(*expiryDate, today)

	var out []DeductionLog
	for day := executionDate.AddDays(1); day.BeforeOrEqual(end); day = day.AddDays(1) {
		if d, ok := byDate[day.String()]; ok {
			out = append(out, d)
			continue
		}
		status := DeductionPending
		if day.Before(today) {
			status = DeductionUnpaid
		}
		out = append(out, DeductionLog{
			ID:         DeductionID(contractID, day),
			Date:       day,
			Amount:     dailyAmount,
			PaidAmount: Zero(),
			Status:     status,
		})
	}

	// The walk inserts in ascending order already; the sort guards the
	// contract with downstream consumers regardless.
	sortSchedule(out)
	return out
}

func sortSchedule(s []DeductionLog) {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Date.Before(s[j].Date)
	})
}
