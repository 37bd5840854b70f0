package lease_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/lease-engine/lease"
)

func readyContract() lease.Contract {
	return lease.Contract{
		ID:                     "c-1",
		Status:                 lease.ContractActive,
		SettlementStatus:       lease.SettlementNotReady,
		ShippingStatus:         lease.ShippingDelivered,
		IsLesseeContractSigned: true,
		SettlementDocumentURL:  "https://files.example/settlement.pdf",
	}
}

// =============================================================================
// CONTRACT STATUS TESTS
// =============================================================================

func TestDeriveStatuses_ExpiryPassed(t *testing.T) {
	c := lease.Contract{Status: lease.ContractActive, ExpiryDate: dayPtr("2025-01-20")}

	status, _ := lease.DeriveStatuses(c, day("2025-01-21"))
	assert.Equal(t, lease.ContractExpired, status)

	// Expiry day itself is still active; only a strictly later today expires.
	status, _ = lease.DeriveStatuses(c, day("2025-01-20"))
	assert.Equal(t, lease.ContractActive, status)
}

func TestDeriveStatuses_SettledNeverReverts(t *testing.T) {
	c := lease.Contract{Status: lease.ContractSettled, ExpiryDate: dayPtr("2025-01-20")}

	status, _ := lease.DeriveStatuses(c, day("2025-06-01"))
	assert.Equal(t, lease.ContractSettled, status, "settled is terminal, expiry does not override it")
}

func TestDeriveStatuses_NoExpiryStaysActive(t *testing.T) {
	c := lease.Contract{Status: lease.ContractActive}

	status, _ := lease.DeriveStatuses(c, day("2025-06-01"))
	assert.Equal(t, lease.ContractActive, status)
}

// =============================================================================
// SETTLEMENT READINESS TESTS
// =============================================================================

func TestDeriveStatuses_ReadyWhenAllPrerequisitesMet(t *testing.T) {
	c := readyContract()

	_, settlement := lease.DeriveStatuses(c, day("2025-01-15"))
	assert.Equal(t, lease.SettlementReady, settlement)
}

func TestDeriveStatuses_NotReadyWhileAnyPrerequisiteMissing(t *testing.T) {
	cases := map[string]func(*lease.Contract){
		"not delivered": func(c *lease.Contract) { c.ShippingStatus = lease.ShippingShipped },
		"not signed":    func(c *lease.Contract) { c.IsLesseeContractSigned = false },
		"no document":   func(c *lease.Contract) { c.SettlementDocumentURL = "" },
	}

	for name, breakIt := range cases {
		t.Run(name, func(t *testing.T) {
			c := readyContract()
			breakIt(&c)

			_, settlement := lease.DeriveStatuses(c, day("2025-01-15"))
			assert.Equal(t, lease.SettlementNotReady, settlement)
		})
	}
}

func TestDeriveStatuses_ReadyRegressesWhenPrerequisiteLost(t *testing.T) {
	// GIVEN: A contract already marked ready
	// WHEN: The lessee contract is unsigned again
	// THEN: It drops back to not_ready

	c := readyContract()
	c.SettlementStatus = lease.SettlementReady
	c.IsLesseeContractSigned = false

	_, settlement := lease.DeriveStatuses(c, day("2025-01-15"))
	assert.Equal(t, lease.SettlementNotReady, settlement)
}

func TestDeriveStatuses_RequestedAndCompletedAreSticky(t *testing.T) {
	// Once a settlement is requested or completed, losing a prerequisite
	// no longer moves the status; those stages are user-driven only.

	for _, stage := range []lease.SettlementStatus{lease.SettlementRequested, lease.SettlementCompleted} {
		c := readyContract()
		c.SettlementStatus = stage
		c.IsLesseeContractSigned = false

		_, settlement := lease.DeriveStatuses(c, day("2025-01-15"))
		assert.Equal(t, stage, settlement)
	}
}

func TestDeriveStatuses_Idempotent(t *testing.T) {
	c := readyContract()
	c.ExpiryDate = dayPtr("2025-01-10")
	today := day("2025-02-01")

	c.Status, c.SettlementStatus = lease.DeriveStatuses(c, today)
	status2, settlement2 := lease.DeriveStatuses(c, today)

	assert.Equal(t, c.Status, status2)
	assert.Equal(t, c.SettlementStatus, settlement2)
}

func TestPrerequisitesMet(t *testing.T) {
	assert.True(t, lease.PrerequisitesMet(readyContract()))

	c := readyContract()
	c.SettlementDocumentURL = ""
	assert.False(t, lease.PrerequisitesMet(c))
}
