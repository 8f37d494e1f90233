// Package analysis ties the engine together: one pure call from a network
// snapshot, site inputs, and a miner catalogue to a chosen fleet plan,
// per-scenario paths, cashflow series, and investment metrics.
//
// Nothing in this package performs I/O, consults the clock, or logs; results
// depend only on the request, so identical requests yield identical results.
package analysis

import (
	"fmt"

	"github.com/21mScot/sitecast/internal/cashflow"
	"github.com/21mScot/sitecast/internal/catalogue"
	"github.com/21mScot/sitecast/internal/finance"
	"github.com/21mScot/sitecast/internal/network"
	"github.com/21mScot/sitecast/internal/scenario"
	"github.com/21mScot/sitecast/internal/selector"
	"github.com/21mScot/sitecast/internal/site"
)

// Request carries every input of one analysis. The snapshot is a value, not
// a fetcher: acquiring it is the live-data collaborator's job.
type Request struct {
	Snapshot     network.Snapshot  `json:"snapshot"`
	Site         site.Inputs       `json:"site"`
	HorizonYears int               `json:"horizonYears"`
	DiscountRate float64           `json:"discountRate"`
	Catalogue    []catalogue.Miner `json:"catalogue"`

	// MinerName pins the plan to a specific catalogue entry instead of
	// letting the selector choose.
	MinerName string `json:"minerName,omitempty"`

	// IncludeMonthly adds month-granular paths and cashflows to each
	// scenario outcome.
	IncludeMonthly bool `json:"includeMonthly,omitempty"`
}

// ScenarioOutcome bundles everything computed for one named scenario.
type ScenarioOutcome struct {
	Kind        scenario.Kind         `json:"kind"`
	Path        scenario.Path         `json:"path"`
	Cashflows   cashflow.Series       `json:"cashflows"`
	Metrics     finance.Metrics       `json:"metrics"`
	MonthlyPath *scenario.MonthlyPath `json:"monthlyPath,omitempty"`
	Monthly     *cashflow.Series      `json:"monthlyCashflows,omitempty"`
}

// Result is the full engine output handed to the presentation and export
// layers: plain immutable values, no rendering concerns.
type Result struct {
	Snapshot           network.Snapshot      `json:"snapshot"`
	RevenuePerTHPerDay float64               `json:"revenuePerThPerDayUsd"`
	Miner              catalogue.Miner       `json:"miner"`
	Plan               site.Plan             `json:"plan"`
	Evaluations        []selector.Evaluation `json:"evaluations"`
	Scenarios          []ScenarioOutcome     `json:"scenarios"`
}

// Engine runs analyses against a fixed scenario configuration. It holds no
// mutable state, so one Engine can serve concurrent sessions.
type Engine struct {
	scenarios *scenario.Engine
}

// New builds an analysis engine. Nil configs use the default scenario set.
func New(halvings scenario.HalvingSchedule, configs map[scenario.Kind]scenario.Config) *Engine {
	return &Engine{scenarios: scenario.NewEngine(halvings, configs)}
}

func findMiner(miners []catalogue.Miner, name string) (catalogue.Miner, error) {
	for _, m := range miners {
		if m.Name == name {
			return m, nil
		}
	}
	return catalogue.Miner{}, fmt.Errorf("miner %q not found in catalogue", name)
}

// Run executes one full analysis. It fails with the typed errors of the
// underlying packages: network.InvalidParametersError,
// catalogue.ValidationError, site.InvalidInputsError, or
// selector.NoViableMinerError. A site too small for one unit is not an
// error; it yields a zero-fleet plan with all-zero cashflows.
func (e *Engine) Run(req Request) (*Result, error) {
	if err := req.Snapshot.Validate(); err != nil {
		return nil, err
	}
	if err := req.Site.Validate(); err != nil {
		return nil, err
	}
	if err := catalogue.Validate(req.Catalogue); err != nil {
		return nil, err
	}
	if len(req.Catalogue) == 0 {
		return nil, fmt.Errorf("catalogue is empty")
	}
	if req.HorizonYears < 1 {
		return nil, fmt.Errorf("horizon must be at least 1 year, got %d", req.HorizonYears)
	}
	if req.DiscountRate <= -1 {
		return nil, fmt.Errorf("discount rate must be > -1, got %g", req.DiscountRate)
	}

	rate, err := network.RevenuePerTHPerDay(req.Snapshot)
	if err != nil {
		return nil, err
	}

	evals := selector.Evaluate(req.Catalogue, rate, req.Site.PowerPricePerKWh)

	var miner catalogue.Miner
	if req.MinerName != "" {
		miner, err = findMiner(req.Catalogue, req.MinerName)
	} else {
		miner, err = selector.ChooseDefault(req.Catalogue, rate, req.Site.PowerPricePerKWh)
	}
	if err != nil {
		return nil, err
	}

	plan, err := site.Build(miner, req.Site)
	if err != nil {
		return nil, err
	}

	outcomes := make([]ScenarioOutcome, 0, len(scenario.Kinds()))
	for _, kind := range scenario.Kinds() {
		path, err := e.scenarios.Project(kind, req.HorizonYears, req.Snapshot, req.Site.PowerPricePerKWh)
		if err != nil {
			return nil, err
		}
		series := cashflow.Project(plan, path)
		outcome := ScenarioOutcome{
			Kind:      kind,
			Path:      path,
			Cashflows: series,
			Metrics:   finance.Analyze(series.Values, req.DiscountRate),
		}

		if req.IncludeMonthly {
			monthly, err := e.scenarios.ProjectMonthly(kind, req.HorizonYears, req.Snapshot, req.Site.PowerPricePerKWh)
			if err != nil {
				return nil, err
			}
			monthlySeries := cashflow.ProjectMonthly(plan, monthly)
			outcome.MonthlyPath = &monthly
			outcome.Monthly = &monthlySeries
		}

		outcomes = append(outcomes, outcome)
	}

	return &Result{
		Snapshot:           req.Snapshot,
		RevenuePerTHPerDay: rate,
		Miner:              miner,
		Plan:               plan,
		Evaluations:        evals,
		Scenarios:          outcomes,
	}, nil
}
