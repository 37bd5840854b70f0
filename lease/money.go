package lease

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Currency amount backed by decimal
// =============================================================================

// Money is a currency amount. Backed by decimal.Decimal so that partial
// payments and unit scaling never accumulate floating-point drift.
type Money struct {
	Value decimal.Decimal
}

func NewMoney(v int64) Money {
	return Money{Value: decimal.NewFromInt(v)}
}

func NewMoneyFromFloat(v float64) Money {
	return Money{Value: decimal.NewFromFloat(v)}
}

func Zero() Money { return Money{Value: decimal.Zero} }

func (m Money) Add(o Money) Money  { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money  { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) MulInt(n int) Money { return Money{Value: m.Value.Mul(decimal.NewFromInt(int64(n)))} }

func (m Money) IsZero() bool     { return m.Value.IsZero() }
func (m Money) IsPositive() bool { return m.Value.IsPositive() }
func (m Money) IsNegative() bool { return m.Value.IsNegative() }

func (m Money) Equal(o Money) bool       { return m.Value.Equal(o.Value) }
func (m Money) LessThan(o Money) bool    { return m.Value.LessThan(o.Value) }
func (m Money) GreaterThan(o Money) bool { return m.Value.GreaterThan(o.Value) }

func (m Money) GreaterThanOrEqual(o Money) bool { return !m.Value.LessThan(o.Value) }

func (m Money) Min(o Money) Money {
	if m.LessThan(o) {
		return m
	}
	return o
}

func (m Money) Float64() float64 {
	f, _ := m.Value.Float64()
	return f
}

func (m Money) String() string { return m.Value.String() }

// JSON round-trips as a plain number, matching the persisted schedule column.
func (m Money) MarshalJSON() ([]byte, error) {
	return m.Value.MarshalJSON()
}

func (m *Money) UnmarshalJSON(b []byte) error {
	return m.Value.UnmarshalJSON(b)
}
