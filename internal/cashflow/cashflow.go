// Package cashflow turns a fleet plan and a scenario path into a signed
// cashflow series: CF_0 is the capex outlay, CF_1..CF_T are annual profits.
// A series is owned by the computation that produced it and is never mutated
// after construction; any input change recomputes it wholesale.
package cashflow

import (
	"github.com/21mScot/sitecast/internal/scenario"
	"github.com/21mScot/sitecast/internal/site"
)

// Series is an ordered cashflow series [CF_0 .. CF_T] in USD.
type Series struct {
	Kind   scenario.Kind `json:"kind"`
	Values []float64     `json:"values"`
}

// Horizon returns T, the number of operating years in the series.
func (s Series) Horizon() int {
	if len(s.Values) == 0 {
		return 0
	}
	return len(s.Values) - 1
}

// Project combines a fleet plan with a scenario path. For each year t,
// revenue scales the path's per-TH rate by the plan's (uptime-derated) site
// hashrate, and power cost uses the path's per-year power price, so a
// scenario that shocks electricity is honoured without special-casing here.
func Project(plan site.Plan, path scenario.Path) Series {
	values := make([]float64, 0, len(path.Years)+1)
	values = append(values, -plan.CapexTotal)

	for _, yr := range path.Years {
		annualRevenue := plan.SiteHashrateTHs * yr.RevenuePerTHPerDayUSD * 365.0
		annualPowerCost := plan.SiteKWhPerDay * yr.PowerPricePerKWh * 365.0
		values = append(values, annualRevenue-annualPowerCost)
	}
	return Series{Kind: path.Kind, Values: values}
}

// ProjectMonthly is the month-granular counterpart: CF_0 is still the capex
// outlay, followed by one cashflow per month using the average month length.
func ProjectMonthly(plan site.Plan, path scenario.MonthlyPath) Series {
	values := make([]float64, 0, len(path.Months)+1)
	values = append(values, -plan.CapexTotal)

	for _, m := range path.Months {
		revenue := plan.SiteHashrateTHs * m.RevenuePerTHPerDayUSD * scenario.DaysPerMonth
		powerCost := plan.SiteKWhPerDay * m.PowerPricePerKWh * scenario.DaysPerMonth
		values = append(values, revenue-powerCost)
	}
	return Series{Kind: path.Kind, Values: values}
}
