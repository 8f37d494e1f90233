package cashflow

import (
	"math"
	"testing"

	"github.com/21mScot/sitecast/internal/scenario"
	"github.com/21mScot/sitecast/internal/site"
)

func flatPath(years int, rate, powerPrice float64) scenario.Path {
	p := scenario.Path{Kind: scenario.Base}
	for t := 1; t <= years; t++ {
		p.Years = append(p.Years, scenario.YearPoint{
			YearIndex:             t,
			RevenuePerTHPerDayUSD: rate,
			PowerPricePerKWh:      powerPrice,
		})
	}
	return p
}

func testPlan() site.Plan {
	return site.Plan{
		NMiners:         25,
		CapexTotal:      77500,
		SiteHashrateTHs: 5000,
		SiteKWhPerDay:   2100,
	}
}

func TestProject_Shape(t *testing.T) {
	series := Project(testPlan(), flatPath(5, 0.05, 0.06))

	if len(series.Values) != 6 {
		t.Fatalf("expected CF_0..CF_5 (6 values), got %d", len(series.Values))
	}
	if series.Horizon() != 5 {
		t.Errorf("expected horizon 5, got %d", series.Horizon())
	}
	if series.Kind != scenario.Base {
		t.Errorf("expected series to carry its scenario kind, got %s", series.Kind)
	}
}

func TestProject_CapexIsExactNegation(t *testing.T) {
	series := Project(testPlan(), flatPath(3, 0.05, 0.06))

	if series.Values[0] != -77500 {
		t.Errorf("expected CF_0 = -77500 exactly, got %f", series.Values[0])
	}
}

func TestProject_AnnualProfit(t *testing.T) {
	series := Project(testPlan(), flatPath(3, 0.05, 0.06))

	// revenue 5000 * 0.05 * 365 = 91250; power 2100 * 0.06 * 365 = 45990
	want := 91250.0 - 45990.0
	for i, cf := range series.Values[1:] {
		if math.Abs(cf-want) > 1e-6 {
			t.Errorf("year %d: expected cashflow %f, got %f", i+1, want, cf)
		}
	}
}

func TestProject_ZeroFleet(t *testing.T) {
	plan := site.Plan{ZeroFleet: true}
	series := Project(plan, flatPath(5, 0.05, 0.06))

	for i, cf := range series.Values {
		if cf != 0 {
			t.Errorf("position %d: expected zero cashflow for zero fleet, got %f", i, cf)
		}
	}
}

func TestProject_HonoursPerYearPowerPrice(t *testing.T) {
	path := flatPath(2, 0.05, 0.06)
	path.Years[1].PowerPricePerKWh = 0.12

	series := Project(testPlan(), path)

	costYear1 := 2100 * 0.06 * 365.0
	costYear2 := 2100 * 0.12 * 365.0
	if math.Abs((series.Values[1]-series.Values[2])-(costYear2-costYear1)) > 1e-6 {
		t.Errorf("expected year 2 to carry the higher power cost, got %f vs %f",
			series.Values[1], series.Values[2])
	}
}

func TestProjectMonthly_SumsToAnnual(t *testing.T) {
	plan := testPlan()
	monthly := scenario.MonthlyPath{Kind: scenario.Base}
	for m := 1; m <= 12; m++ {
		monthly.Months = append(monthly.Months, scenario.MonthPoint{
			MonthIndex:            m,
			RevenuePerTHPerDayUSD: 0.05,
			PowerPricePerKWh:      0.06,
		})
	}

	series := ProjectMonthly(plan, monthly)
	if len(series.Values) != 13 {
		t.Fatalf("expected CF_0 plus 12 months, got %d values", len(series.Values))
	}
	if series.Values[0] != -plan.CapexTotal {
		t.Errorf("expected CF_0 = -capex, got %f", series.Values[0])
	}

	sum := 0.0
	for _, cf := range series.Values[1:] {
		sum += cf
	}
	annual := Project(plan, flatPath(1, 0.05, 0.06))
	if math.Abs(sum-annual.Values[1]) > 1e-6 {
		t.Errorf("expected 12 flat months to sum to the annual cashflow, got %f vs %f",
			sum, annual.Values[1])
	}
}

func TestHorizon_Empty(t *testing.T) {
	var s Series
	if s.Horizon() != 0 {
		t.Errorf("expected horizon 0 for empty series, got %d", s.Horizon())
	}
}
