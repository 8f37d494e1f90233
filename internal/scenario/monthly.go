package scenario

import (
	"fmt"
	"math"

	"github.com/21mScot/sitecast/internal/network"
)

// DaysPerMonth is the average month length used by the monthly forecast.
const DaysPerMonth = 365.0 / 12.0

// MonthPoint is one month of a fine-grained production forecast. Difficulty
// and price compound monthly; the subsidy steps at year boundaries, same as
// the annual path.
type MonthPoint struct {
	MonthIndex            int     `json:"monthIndex"` // 1-based
	BTCPriceUSD           float64 `json:"btcPriceUsd"`
	SubsidyBTC            float64 `json:"subsidyBtc"`
	Difficulty            float64 `json:"difficulty"`
	BTCPerTHPerDay        float64 `json:"btcPerThPerDay"`
	RevenuePerTHPerDayUSD float64 `json:"revenuePerThPerDayUsd"`
	PowerPricePerKWh      float64 `json:"powerPricePerKwh"`
}

// MonthlyPath is the month-granular counterpart of Path.
type MonthlyPath struct {
	Kind   Kind         `json:"kind"`
	Months []MonthPoint `json:"months"`
}

// ProjectMonthly builds a month-by-month path over horizonYears. Annual
// growth rates are applied as compound monthly factors, in the style of a
// difficulty-increment forecast.
func (e *Engine) ProjectMonthly(kind Kind, horizonYears int, snap network.Snapshot, powerPricePerKWh float64) (MonthlyPath, error) {
	cfg, ok := e.configs[kind]
	if !ok {
		return MonthlyPath{}, &UnknownScenarioError{Kind: kind}
	}
	if horizonYears < 1 {
		return MonthlyPath{}, fmt.Errorf("horizon must be at least 1 year, got %d", horizonYears)
	}
	if err := snap.Validate(); err != nil {
		return MonthlyPath{}, err
	}

	shockedPower := powerPricePerKWh * (1.0 + cfg.PowerPriceShock)
	months := horizonYears * 12

	out := make([]MonthPoint, 0, months)
	for m := 1; m <= months; m++ {
		drift := float64(m-1) / 12.0
		price := snap.BTCPriceUSD * math.Pow(1.0+cfg.PriceGrowthPerYear, drift)
		difficulty := snap.Difficulty * math.Pow(1.0+cfg.DifficultyGrowthPerYear, drift)
		year := (m-1)/12 + 1
		subsidy := e.halvings.SubsidyForYear(snap.BlockSubsidyBTC, year)

		share, err := network.ShareOfNetwork(1.0, difficulty)
		if err != nil {
			return MonthlyPath{}, err
		}
		btcPerTH := network.BTCPerDay(share, subsidy)

		out = append(out, MonthPoint{
			MonthIndex:            m,
			BTCPriceUSD:           price,
			SubsidyBTC:            subsidy,
			Difficulty:            difficulty,
			BTCPerTHPerDay:        btcPerTH,
			RevenuePerTHPerDayUSD: network.USDPerDay(btcPerTH, price),
			PowerPricePerKWh:      shockedPower,
		})
	}
	return MonthlyPath{Kind: kind, Months: out}, nil
}
