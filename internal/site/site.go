// Package site scales a single chosen miner to a whole site under a flat
// power constraint, producing an immutable fleet plan with capex.
package site

import (
	"fmt"
	"math"

	"github.com/21mScot/sitecast/internal/catalogue"
)

// Inputs are the site-level constraints and prices.
type Inputs struct {
	SitePowerKW      float64 `json:"sitePowerKw"`
	LoadFactor       float64 `json:"loadFactor"` // in [0,1]
	PowerPricePerKWh float64 `json:"powerPricePerKwh"`

	// UptimePct is expected uptime as a percentage (98 = 98%). Zero is
	// treated as 100 so callers can omit it.
	UptimePct float64 `json:"uptimePct,omitempty"`
	// CoolingOverheadPct inflates each unit's power draw for cooling and
	// ancillary load (10 = +10%).
	CoolingOverheadPct float64 `json:"coolingOverheadPct,omitempty"`
}

// InvalidInputsError reports a site input outside its allowed range.
type InvalidInputsError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidInputsError) Error() string {
	return fmt.Sprintf("invalid site inputs: %s = %g (%s)", e.Field, e.Value, e.Reason)
}

// Validate checks the per-field invariants from the data model.
func (in Inputs) Validate() error {
	if in.SitePowerKW <= 0 {
		return &InvalidInputsError{Field: "sitePowerKw", Value: in.SitePowerKW, Reason: "must be > 0"}
	}
	if in.LoadFactor < 0 || in.LoadFactor > 1 {
		return &InvalidInputsError{Field: "loadFactor", Value: in.LoadFactor, Reason: "must be in [0,1]"}
	}
	if in.PowerPricePerKWh < 0 {
		return &InvalidInputsError{Field: "powerPricePerKwh", Value: in.PowerPricePerKWh, Reason: "must be >= 0"}
	}
	if in.UptimePct < 0 || in.UptimePct > 100 {
		return &InvalidInputsError{Field: "uptimePct", Value: in.UptimePct, Reason: "must be in [0,100]"}
	}
	if in.CoolingOverheadPct < 0 {
		return &InvalidInputsError{Field: "coolingOverheadPct", Value: in.CoolingOverheadPct, Reason: "must be >= 0"}
	}
	return nil
}

// EffectivePowerKW is the power actually available to the fleet.
func (in Inputs) EffectivePowerKW() float64 {
	return in.SitePowerKW * in.LoadFactor
}

// UptimeFactor returns uptime as a fraction, defaulting to 1 when unset.
func (in Inputs) UptimeFactor() float64 {
	if in.UptimePct == 0 {
		return 1.0
	}
	return in.UptimePct / 100.0
}

func (in Inputs) overheadFactor() float64 {
	return 1.0 + in.CoolingOverheadPct/100.0
}

// Plan is the immutable result of sizing a fleet for a site. A zero fleet
// (NMiners == 0) is a valid, reportable state, not an error: the site is
// simply too small for even one unit.
type Plan struct {
	Miner          catalogue.Miner `json:"miner"`
	NMiners        int             `json:"nMiners"`
	PowerPerUnitKW float64         `json:"powerPerUnitKw"` // incl. cooling overhead
	UsedPowerKW    float64         `json:"usedPowerKw"`
	UnusedPowerKW  float64         `json:"unusedPowerKw"`
	CapexTotal     float64         `json:"capexTotal"` // USD

	// SiteHashrateTHs and SiteKWhPerDay are uptime-derated, so downstream
	// revenue and power-cost projections can use them directly.
	SiteHashrateTHs float64 `json:"siteHashrateThs"`
	SiteKWhPerDay   float64 `json:"siteKwhPerDay"`

	ZeroFleet bool `json:"zeroFleet"`
}

// Build sizes the fleet: floor(effective power / per-unit power) units,
// never exceeding the effective power budget.
func Build(m catalogue.Miner, in Inputs) (Plan, error) {
	if err := m.Validate(); err != nil {
		return Plan{}, err
	}
	if err := in.Validate(); err != nil {
		return Plan{}, err
	}

	effective := in.EffectivePowerKW()
	perUnit := m.PowerKW() * in.overheadFactor()
	uptime := in.UptimeFactor()

	n := 0
	if perUnit > 0 {
		n = int(math.Floor(effective / perUnit))
	}
	if n < 0 {
		n = 0
	}

	used := float64(n) * perUnit
	plan := Plan{
		Miner:          m,
		NMiners:        n,
		PowerPerUnitKW: perUnit,
		UsedPowerKW:    used,
		UnusedPowerKW:  effective - used,
		CapexTotal:     float64(n) * m.PriceUSD,

		SiteHashrateTHs: float64(n) * m.HashrateTHs * uptime,
		SiteKWhPerDay:   used * 24.0 * uptime,

		ZeroFleet: n == 0,
	}
	return plan, nil
}
