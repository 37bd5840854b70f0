// Package pricing holds partners and their price tiers. A partner is a
// pricing source; a pure template carries a price list but no live
// contracts. Tiers map device model x storage x lease duration to the
// per-unit total amount and daily deduction.
package pricing

import (
	"github.com/warp/lease-engine/lease"
)

type PriceTier struct {
	ID             string      `json:"id"`
	Model          string      `json:"model"`
	Storage        string      `json:"storage"`
	DurationDays   int         `json:"duration_days"`
	TotalAmount    lease.Money `json:"total_amount"`
	DailyDeduction lease.Money `json:"daily_deduction"`
}

type Partner struct {
	ID             string
	Name           string
	BusinessNumber string
	Address        string
	PriceList      []PriceTier
	IsTemplate     bool
}

// FindTier returns the first tier matching model, storage and duration.
// The price list is ordered; the first match wins.
func (p Partner) FindTier(model, storage string, durationDays int) (PriceTier, bool) {
	for _, t := range p.PriceList {
		if t.Model == model && t.Storage == storage && t.DurationDays == durationDays {
			return t, true
		}
	}
	return PriceTier{}, false
}

// Quote fills a contract's financial fields from a tier. Amounts stay
// per-unit; lease.Enrich scales them by the unit count at display time.
func Quote(c lease.Contract, t PriceTier) lease.Contract {
	c.DurationDays = t.DurationDays
	c.TotalAmount = t.TotalAmount
	c.DailyDeduction = t.DailyDeduction
	return c
}
