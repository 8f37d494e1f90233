// Package scenario projects revenue-per-TH-per-day paths over a multi-year
// horizon under named deterministic scenarios, incorporating halving-driven
// subsidy drops, compound difficulty growth, and per-scenario price curves.
//
// Halvings are modelled as a step function indexed by project year, not by
// exact block height; the small approximation error near halving boundaries
// is accepted and documented.
package scenario

import (
	"fmt"
	"math"

	"github.com/21mScot/sitecast/internal/network"
)

// Kind names one of the closed set of scenarios. The set is fixed; each
// variant carries its own projection parameters.
type Kind string

const (
	Base    Kind = "base"
	Bearish Kind = "bearish"
	Bullish Kind = "bullish"
)

// Kinds returns every scenario in canonical order.
func Kinds() []Kind {
	return []Kind{Base, Bearish, Bullish}
}

// UnknownScenarioError reports a request for a scenario outside the set.
type UnknownScenarioError struct {
	Kind Kind
}

func (e *UnknownScenarioError) Error() string {
	return fmt.Sprintf("unknown scenario %q", e.Kind)
}

// Config holds the deterministic multiplier curve for one scenario. All
// fields are annual fractions: +0.20 means +20% per year (price and
// difficulty compound; the power shock is a level shift).
type Config struct {
	PriceGrowthPerYear      float64 `json:"priceGrowthPerYear"`
	DifficultyGrowthPerYear float64 `json:"difficultyGrowthPerYear"`
	PowerPriceShock         float64 `json:"powerPriceShock"`
}

// DefaultConfigs returns the standard scenario set: Base extrapolates the
// snapshot flat, Bullish and Bearish apply deterministic shocks.
func DefaultConfigs() map[Kind]Config {
	return map[Kind]Config{
		Base:    {},
		Bearish: {PriceGrowthPerYear: -0.20, DifficultyGrowthPerYear: 0.10, PowerPriceShock: 0.10},
		Bullish: {PriceGrowthPerYear: 0.25, DifficultyGrowthPerYear: 0.15},
	}
}

// HalvingSchedule models the block-subsidy halvings as a year-indexed step
// function. NextHalvingYear is the 1-based project year in which the next
// halving takes effect; 0 means no halving within any horizon.
type HalvingSchedule struct {
	NextHalvingYear int `json:"nextHalvingYear"`
	IntervalYears   int `json:"intervalYears"`
}

// SubsidyForYear returns the per-block subsidy active in project year t
// (1-based), halving at NextHalvingYear and every IntervalYears after.
func (h HalvingSchedule) SubsidyForYear(baseSubsidy float64, year int) float64 {
	if h.NextHalvingYear <= 0 || year < h.NextHalvingYear {
		return baseSubsidy
	}
	interval := h.IntervalYears
	if interval <= 0 {
		interval = 4
	}
	halvings := 1 + (year-h.NextHalvingYear)/interval
	return baseSubsidy * math.Pow(0.5, float64(halvings))
}

// YearPoint is one year of a scenario path. RevenuePerTHPerDayUSD is the
// value downstream cashflow projection scales by fleet hashrate; the other
// fields expose the assumptions that produced it.
type YearPoint struct {
	YearIndex             int     `json:"yearIndex"` // 1-based
	BTCPriceUSD           float64 `json:"btcPriceUsd"`
	SubsidyBTC            float64 `json:"subsidyBtc"`
	Difficulty            float64 `json:"difficulty"`
	BTCPerTHPerDay        float64 `json:"btcPerThPerDay"`
	RevenuePerTHPerDayUSD float64 `json:"revenuePerThPerDayUsd"`
	PowerPricePerKWh      float64 `json:"powerPricePerKwh"`
}

// Path is a full per-year projection for one scenario. Downstream consumers
// apply it to any fleet size.
type Path struct {
	Kind  Kind        `json:"kind"`
	Years []YearPoint `json:"years"`
}

// Engine produces scenario paths. It is stateless apart from its immutable
// configuration, so every projection is a pure function of its arguments.
type Engine struct {
	halvings HalvingSchedule
	configs  map[Kind]Config
}

// NewEngine builds an engine from a halving schedule and scenario configs.
// Nil configs fall back to DefaultConfigs.
func NewEngine(h HalvingSchedule, configs map[Kind]Config) *Engine {
	if configs == nil {
		configs = DefaultConfigs()
	}
	return &Engine{halvings: h, configs: configs}
}

// Project builds the per-year path for one scenario over horizonYears,
// starting from the snapshot and the site's current power price. Year 1 is
// the first operating year.
func (e *Engine) Project(kind Kind, horizonYears int, snap network.Snapshot, powerPricePerKWh float64) (Path, error) {
	cfg, ok := e.configs[kind]
	if !ok {
		return Path{}, &UnknownScenarioError{Kind: kind}
	}
	if horizonYears < 1 {
		return Path{}, fmt.Errorf("horizon must be at least 1 year, got %d", horizonYears)
	}
	if err := snap.Validate(); err != nil {
		return Path{}, err
	}

	shockedPower := powerPricePerKWh * (1.0 + cfg.PowerPriceShock)

	years := make([]YearPoint, 0, horizonYears)
	for t := 1; t <= horizonYears; t++ {
		drift := float64(t - 1)
		price := snap.BTCPriceUSD * math.Pow(1.0+cfg.PriceGrowthPerYear, drift)
		difficulty := snap.Difficulty * math.Pow(1.0+cfg.DifficultyGrowthPerYear, drift)
		subsidy := e.halvings.SubsidyForYear(snap.BlockSubsidyBTC, t)

		share, err := network.ShareOfNetwork(1.0, difficulty)
		if err != nil {
			return Path{}, err
		}
		btcPerTH := network.BTCPerDay(share, subsidy)

		years = append(years, YearPoint{
			YearIndex:             t,
			BTCPriceUSD:           price,
			SubsidyBTC:            subsidy,
			Difficulty:            difficulty,
			BTCPerTHPerDay:        btcPerTH,
			RevenuePerTHPerDayUSD: network.USDPerDay(btcPerTH, price),
			PowerPricePerKWh:      shockedPower,
		})
	}
	return Path{Kind: kind, Years: years}, nil
}

// ProjectAll runs Project for every scenario in canonical order.
func (e *Engine) ProjectAll(horizonYears int, snap network.Snapshot, powerPricePerKWh float64) ([]Path, error) {
	paths := make([]Path, 0, len(Kinds()))
	for _, k := range Kinds() {
		p, err := e.Project(k, horizonYears, snap, powerPricePerKWh)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}
