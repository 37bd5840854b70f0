package lease_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/lease-engine/lease"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func day(s string) lease.Date {
	return lease.MustDate(s)
}

func dayPtr(s string) *lease.Date {
	d := lease.MustDate(s)
	return &d
}

func won(v float64) lease.Money {
	return lease.NewMoneyFromFloat(v)
}

// =============================================================================
// MATERIALIZATION TESTS
// =============================================================================

func TestMaterialize_FreshContract(t *testing.T) {
	// GIVEN: A contract executed Jan 10, expiring Jan 20, no stored records
	// WHEN: Materializing with today = Jan 15
	// THEN: One record per day from Jan 11 through Jan 20; past days are
	//       unpaid, today and future days are pending

	schedule := lease.Materialize(nil, "c-1",
		dayPtr("2025-01-10"), dayPtr("2025-01-20"), won(5000), day("2025-01-15"))

	require.Len(t, schedule, 10)
	assert.Equal(t, day("2025-01-11"), schedule[0].Date, "walk starts the day after execution")
	assert.Equal(t, day("2025-01-20"), schedule[9].Date)

	for _, d := range schedule {
		assert.Equal(t, "c-1-"+d.Date.String(), d.ID)
		assert.True(t, d.Amount.Equal(won(5000)))
		assert.True(t, d.PaidAmount.IsZero())
		if d.Date.Before(day("2025-01-15")) {
			assert.Equal(t, lease.DeductionUnpaid, d.Status, "past day %s", d.Date)
		} else {
			assert.Equal(t, lease.DeductionPending, d.Status, "day %s", d.Date)
		}
	}
}

func TestMaterialize_CarriesForwardExistingRecords(t *testing.T) {
	// GIVEN: A stored record for Jan 12 that was already paid
	// WHEN: Materializing the window around it
	// THEN: The paid record survives unchanged; the gaps are synthesized

	paid := lease.DeductionLog{
		ID:         "c-1-2025-01-12",
		Date:       day("2025-01-12"),
		Amount:     won(5000),
		PaidAmount: won(5000),
		Status:     lease.DeductionPaid,
	}

	schedule := lease.Materialize([]lease.DeductionLog{paid}, "c-1",
		dayPtr("2025-01-10"), dayPtr("2025-01-14"), won(5000), day("2025-01-15"))

	require.Len(t, schedule, 4) // Jan 11..14
	assert.Equal(t, paid, schedule[1], "existing record carried forward verbatim")
	assert.Equal(t, lease.DeductionUnpaid, schedule[0].Status)
	assert.Equal(t, lease.DeductionUnpaid, schedule[2].Status)
}

func TestMaterialize_Idempotent(t *testing.T) {
	// GIVEN: A materialized schedule
	// WHEN: Materializing again from its own output
	// THEN: The result is identical

	today := day("2025-01-15")
	first := lease.Materialize(nil, "c-1",
		dayPtr("2025-01-10"), dayPtr("2025-01-20"), won(5000), today)
	second := lease.Materialize(first, "c-1",
		dayPtr("2025-01-10"), dayPtr("2025-01-20"), won(5000), today)

	assert.Equal(t, first, second)
}

func TestMaterialize_OverdueContractWalksThroughToday(t *testing.T) {
	// GIVEN: A contract whose expiry (Jan 20) is long past
	// WHEN: Materializing with today = Feb 10
	// THEN: The walk continues past expiry through today, so the arrears
	//       stay visible to the balance aggregator

	schedule := lease.Materialize(nil, "c-1",
		dayPtr("2025-01-10"), dayPtr("2025-01-20"), won(5000), day("2025-02-10"))

	require.Len(t, schedule, 31) // Jan 11 .. Feb 10
	last := schedule[len(schedule)-1]
	assert.Equal(t, day("2025-02-10"), last.Date)
	assert.Equal(t, lease.DeductionPending, last.Status, "today itself is pending, not overdue")
	assert.Equal(t, lease.DeductionUnpaid, schedule[len(schedule)-2].Status)
}

func TestMaterialize_NoWindowReturnsExistingSorted(t *testing.T) {
	// GIVEN: A contract with no execution date (never activated)
	// WHEN: Materializing
	// THEN: Existing records come back sorted by date; nothing is synthesized

	existing := []lease.DeductionLog{
		{ID: "b", Date: day("2025-01-12"), Amount: won(5000), PaidAmount: lease.Zero(), Status: lease.DeductionUnpaid},
		{ID: "a", Date: day("2025-01-11"), Amount: won(5000), PaidAmount: lease.Zero(), Status: lease.DeductionUnpaid},
	}

	schedule := lease.Materialize(existing, "c-1", nil, dayPtr("2025-01-20"), won(5000), day("2025-01-15"))

	require.Len(t, schedule, 2)
	assert.Equal(t, "a", schedule[0].ID)
	assert.Equal(t, "b", schedule[1].ID)
}

func TestMaterialize_ExpiryBeforeExecutionYieldsEmpty(t *testing.T) {
	// Degenerate window: expiry on execution day means no day qualifies
	// (the walk starts the day after execution).

	schedule := lease.Materialize(nil, "c-1",
		dayPtr("2025-01-10"), dayPtr("2025-01-10"), won(5000), day("2025-01-05"))

	assert.Empty(t, schedule)
}

func TestDeductionID_Deterministic(t *testing.T) {
	assert.Equal(t, "c-9-2025-03-01", lease.DeductionID("c-9", day("2025-03-01")))
}
