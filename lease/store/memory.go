// Package store provides ContractStore implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/lease-engine/lease"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu         sync.RWMutex
	contracts  map[string]lease.Contract
	nextNumber int64
}

func NewMemory() *Memory {
	return &Memory{
		contracts:  make(map[string]lease.Contract),
		nextNumber: 1,
	}
}

func (m *Memory) ListContracts(_ context.Context) ([]lease.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]lease.Contract, 0, len(m.contracts))
	for _, c := range m.contracts {
		out = append(out, cloneContract(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ContractDate.Equal(out[j].ContractDate) {
			return out[i].ContractDate.After(out[j].ContractDate)
		}
		return out[i].ContractNumber > out[j].ContractNumber
	})
	return out, nil
}

func (m *Memory) GetContract(_ context.Context, id string) (*lease.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.contracts[id]
	if !ok {
		return nil, lease.ErrContractNotFound
	}
	clone := cloneContract(c)
	return &clone, nil
}

// InsertContract allocates the next contract number under the write lock,
// so concurrent creations cannot observe the same maximum.
func (m *Memory) InsertContract(_ context.Context, c lease.Contract) (lease.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c.ContractNumber = m.nextNumber
	m.nextNumber++
	m.contracts[c.ID] = cloneContract(c)
	return c, nil
}

func (m *Memory) UpdateContract(_ context.Context, c lease.Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.contracts[c.ID]; !ok {
		return lease.ErrContractNotFound
	}
	m.contracts[c.ID] = cloneContract(c)
	return nil
}

func (m *Memory) DeleteContract(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.contracts[id]; !ok {
		return lease.ErrContractNotFound
	}
	delete(m.contracts, id)
	return nil
}

func (m *Memory) SaveDeductions(_ context.Context, contractID string, schedule []lease.DeductionLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.contracts[contractID]
	if !ok {
		return lease.ErrContractNotFound
	}
	c.Deductions = append([]lease.DeductionLog(nil), schedule...)
	m.contracts[contractID] = c
	return nil
}

func cloneContract(c lease.Contract) lease.Contract {
	c.Deductions = append([]lease.DeductionLog(nil), c.Deductions...)
	return c
}
