// Package selector ranks catalogue miners by daily profitability at a given
// network rate and electricity price, and picks an economically optimal
// default. All monetary arguments must be expressed in the same currency.
package selector

import (
	"fmt"

	"github.com/21mScot/sitecast/internal/catalogue"
)

// Evaluation is the per-miner economics at one network rate and power price.
type Evaluation struct {
	Miner           catalogue.Miner `json:"miner"`
	RevenuePerDay   float64         `json:"revenuePerDay"`
	PowerCostPerDay float64         `json:"powerCostPerDay"`
	ProfitPerDay    float64         `json:"profitPerDay"`
	PaybackDays     *float64        `json:"paybackDays,omitempty"` // nil when not viable
	BreakevenPerKWh float64         `json:"breakevenPerKwh"`
	Viable          bool            `json:"viable"`
}

// NoViableMinerError reports that no catalogue entry is profitable at the
// given power price. Callers must handle this explicitly; the selector never
// returns a degraded default.
type NoViableMinerError struct {
	PowerPricePerKWh float64
	Considered       int
}

func (e *NoViableMinerError) Error() string {
	return fmt.Sprintf("no viable miner: none of %d catalogue entries is profitable at %.4f/kWh",
		e.Considered, e.PowerPricePerKWh)
}

// Evaluate computes daily economics for every catalogue entry.
// ratePerTHPerDay is revenue per TH/s per day; powerPricePerKWh is the site
// electricity price. Entries with profit <= 0 are marked non-viable and get
// no payback figure.
func Evaluate(miners []catalogue.Miner, ratePerTHPerDay, powerPricePerKWh float64) []Evaluation {
	evals := make([]Evaluation, 0, len(miners))
	for _, m := range miners {
		revenue := m.HashrateTHs * ratePerTHPerDay
		cost := m.EnergyKWhPerDay() * powerPricePerKWh
		profit := revenue - cost

		ev := Evaluation{
			Miner:           m,
			RevenuePerDay:   revenue,
			PowerCostPerDay: cost,
			ProfitPerDay:    profit,
		}
		if kwh := m.EnergyKWhPerDay(); kwh > 0 {
			ev.BreakevenPerKWh = revenue / kwh
		}
		if profit > 0 {
			payback := m.PriceUSD / profit
			ev.PaybackDays = &payback
			ev.Viable = true
		}
		evals = append(evals, ev)
	}
	return evals
}

// ChooseDefault returns the viable miner with the shortest simple payback.
// Ties break by lowest price, then by catalogue order (first seen wins), so
// the choice is deterministic. Zero-or-negative profit is never selected,
// even when it would be the least-bad option.
func ChooseDefault(miners []catalogue.Miner, ratePerTHPerDay, powerPricePerKWh float64) (catalogue.Miner, error) {
	var best *Evaluation
	evals := Evaluate(miners, ratePerTHPerDay, powerPricePerKWh)
	for i := range evals {
		ev := &evals[i]
		if !ev.Viable {
			continue
		}
		if best == nil {
			best = ev
			continue
		}
		switch {
		case *ev.PaybackDays < *best.PaybackDays:
			best = ev
		case *ev.PaybackDays == *best.PaybackDays && ev.Miner.PriceUSD < best.Miner.PriceUSD:
			best = ev
		}
	}
	if best == nil {
		return catalogue.Miner{}, &NoViableMinerError{
			PowerPricePerKWh: powerPricePerKWh,
			Considered:       len(miners),
		}
	}
	return best.Miner, nil
}
