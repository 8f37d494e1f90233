// Package catalogue holds ASIC miner specifications. The catalogue is pure
// data plus derived fields; it is loaded once per run and never mutated.
// Prices are quoted in USD.
package catalogue

import "fmt"

// Miner is a single ASIC miner option.
type Miner struct {
	Name        string  `json:"name"`
	HashrateTHs float64 `json:"hashrateThs"`
	PowerW      float64 `json:"powerW"`
	PriceUSD    float64 `json:"priceUsd"`
	Supplier    string  `json:"supplier,omitempty"`
}

// PowerKW returns the nameplate power draw in kW.
func (m Miner) PowerKW() float64 {
	return m.PowerW / 1000.0
}

// EfficiencyJPerTH returns joules per terahash (numerically equal to W per
// TH/s). Derived, never stored.
func (m Miner) EfficiencyJPerTH() float64 {
	if m.HashrateTHs <= 0 {
		return 0
	}
	return m.PowerW / m.HashrateTHs
}

// EnergyKWhPerDay returns the energy drawn over 24h at nameplate power.
func (m Miner) EnergyKWhPerDay() float64 {
	return m.PowerKW() * 24.0
}

// ValidationError reports a miner record violating a field invariant.
type ValidationError struct {
	Miner string
	Field string
	Value float64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid miner %q: %s = %g (must be > 0)", e.Miner, e.Field, e.Value)
}

// Validate checks the per-field invariants for one record.
func (m Miner) Validate() error {
	if m.Name == "" {
		return &ValidationError{Miner: "(unnamed)", Field: "name"}
	}
	if m.HashrateTHs <= 0 {
		return &ValidationError{Miner: m.Name, Field: "hashrateThs", Value: m.HashrateTHs}
	}
	if m.PowerW <= 0 {
		return &ValidationError{Miner: m.Name, Field: "powerW", Value: m.PowerW}
	}
	if m.PriceUSD <= 0 {
		return &ValidationError{Miner: m.Name, Field: "priceUsd", Value: m.PriceUSD}
	}
	return nil
}

// Validate checks every record and that names are unique within the list.
// Order is significant: the selector breaks full ties by first-seen.
func Validate(miners []Miner) error {
	seen := make(map[string]bool, len(miners))
	for _, m := range miners {
		if err := m.Validate(); err != nil {
			return err
		}
		if seen[m.Name] {
			return fmt.Errorf("duplicate miner name %q in catalogue", m.Name)
		}
		seen[m.Name] = true
	}
	return nil
}

// Variant names one of the interchangeable catalogue sets. Variants are
// never mixed within one calculation run.
type Variant string

const (
	VariantDev  Variant = "dev"
	VariantProd Variant = "prod"
)

// Builtin returns a copy of the built-in catalogue for a variant.
func Builtin(v Variant) ([]Miner, error) {
	switch v {
	case VariantDev:
		return append([]Miner(nil), devMiners...), nil
	case VariantProd:
		return append([]Miner(nil), prodMiners...), nil
	default:
		return nil, fmt.Errorf("unknown catalogue variant %q", v)
	}
}

// Dev catalogue: intentionally varied to exercise efficiency, breakeven, and
// payback behaviour when running locally.
var devMiners = []Miner{
	{Name: "TestMake A-Hyper-efficient", HashrateTHs: 110, PowerW: 1650, PriceUSD: 4000, Supplier: "TestMake"},
	{Name: "TestMake B-High Hashrate", HashrateTHs: 250, PowerW: 4750, PriceUSD: 5200, Supplier: "TestMake"},
	{Name: "TestMake C-Efficient Premium", HashrateTHs: 200, PowerW: 3200, PriceUSD: 7000, Supplier: "TestMake"},
}

// Production catalogue, synced with the supplier spreadsheet.
var prodMiners = []Miner{
	{Name: "M33 H++", HashrateTHs: 242, PowerW: 7260, PriceUSD: 600, Supplier: "MicroBT"},
	{Name: "M63 H", HashrateTHs: 478, PowerW: 7399, PriceUSD: 7409, Supplier: "MicroBT"},
	{Name: "S19 H+", HashrateTHs: 279, PowerW: 5300, PriceUSD: 2511, Supplier: "Bitmain"},
	{Name: "S21 XP+ Hydro", HashrateTHs: 500, PowerW: 5500, PriceUSD: 7834, Supplier: "Bitmain"},
	{Name: "S23 H+", HashrateTHs: 580, PowerW: 5500, PriceUSD: 14500, Supplier: "Bitmain"},
}
