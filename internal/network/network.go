// Package network models Bitcoin network-level mining output: how much of
// the network a given hashrate represents, and how many BTC/USD per day that
// share earns at a given difficulty, block subsidy, and price.
//
// Block reward is approximated as subsidy only; transaction fees are
// excluded. This is a deliberate conservative simplification, not a bug.
package network

import (
	"fmt"
	"time"
)

// BlocksPerDay is the expected number of Bitcoin blocks per day
// (600s target block time).
const BlocksPerDay = 144

// Source tags where a snapshot came from. The engine surfaces this tag in
// output but never decides freshness policy itself.
type Source string

const (
	SourceLive   Source = "live"
	SourceStatic Source = "static"
)

// Snapshot is an immutable view of the network at a point in time. It is
// supplied by the live-data collaborator (or a static fallback) and passed
// by value into every calculation, so the engine never performs I/O or
// consults the wall clock.
type Snapshot struct {
	Difficulty      float64   `json:"difficulty"`
	BlockSubsidyBTC float64   `json:"blockSubsidyBtc"`
	BTCPriceUSD     float64   `json:"btcPriceUsd"`
	USDToGBP        float64   `json:"usdToGbp,omitempty"`
	BlockHeight     int64     `json:"blockHeight,omitempty"`
	FetchedAt       time.Time `json:"fetchedAt"`
	Source          Source    `json:"source"`
}

// InvalidParametersError reports a non-positive network parameter. It is
// fatal to the current calculation, never to the process.
type InvalidParametersError struct {
	Field string
	Value float64
}

func (e *InvalidParametersError) Error() string {
	return fmt.Sprintf("invalid network parameters: %s = %g (must be > 0)", e.Field, e.Value)
}

// Validate checks the per-field invariants required by every calculation.
func (s Snapshot) Validate() error {
	if s.Difficulty <= 0 {
		return &InvalidParametersError{Field: "difficulty", Value: s.Difficulty}
	}
	if s.BlockSubsidyBTC <= 0 {
		return &InvalidParametersError{Field: "blockSubsidyBtc", Value: s.BlockSubsidyBTC}
	}
	if s.BTCPriceUSD <= 0 {
		return &InvalidParametersError{Field: "btcPriceUsd", Value: s.BTCPriceUSD}
	}
	return nil
}

// Hashrate returns the implied network hashrate in H/s for a difficulty:
// difficulty * 2^32 / 600.
func Hashrate(difficulty float64) float64 {
	return difficulty * 4294967296.0 / 600.0
}

// ShareOfNetwork returns the fraction of total network hashrate contributed
// by a miner of hashrateTHs (TH/s) at the given difficulty.
func ShareOfNetwork(hashrateTHs, difficulty float64) (float64, error) {
	if difficulty <= 0 {
		return 0, &InvalidParametersError{Field: "difficulty", Value: difficulty}
	}
	return hashrateTHs * 1e12 / Hashrate(difficulty), nil
}

// BTCPerDay returns expected BTC mined per day for a network share.
func BTCPerDay(share, blockSubsidyBTC float64) float64 {
	return share * blockSubsidyBTC * BlocksPerDay
}

// USDPerDay converts a BTC/day output into USD/day at a BTC price.
func USDPerDay(btcPerDay, btcPriceUSD float64) float64 {
	return btcPerDay * btcPriceUSD
}

// Economics is the canonical per-miner daily output. GBPPerDay is a
// convenience conversion via the snapshot FX rate; all downstream cashflow
// arithmetic stays in USD.
type Economics struct {
	BTCPerDay float64 `json:"btcPerDay"`
	USDPerDay float64 `json:"usdPerDay"`
	GBPPerDay float64 `json:"gbpPerDay,omitempty"`
}

// MinerEconomics computes BTC/day and USD/day for a single miner of
// hashrateTHs under the given snapshot. Assumes 100% uptime and no pool
// fees; uptime derating is applied at the site level.
func MinerEconomics(hashrateTHs float64, snap Snapshot) (Economics, error) {
	if err := snap.Validate(); err != nil {
		return Economics{}, err
	}
	share, err := ShareOfNetwork(hashrateTHs, snap.Difficulty)
	if err != nil {
		return Economics{}, err
	}
	btcDay := BTCPerDay(share, snap.BlockSubsidyBTC)
	usdDay := USDPerDay(btcDay, snap.BTCPriceUSD)
	econ := Economics{BTCPerDay: btcDay, USDPerDay: usdDay}
	if snap.USDToGBP > 0 {
		econ.GBPPerDay = usdDay * snap.USDToGBP
	}
	return econ, nil
}

// RevenuePerTHPerDay returns the network rate in USD per TH/s per day under
// the given snapshot. Scenario paths and the miner selector both consume
// this fixed per-TH unit so they scale to any fleet size.
func RevenuePerTHPerDay(snap Snapshot) (float64, error) {
	econ, err := MinerEconomics(1.0, snap)
	if err != nil {
		return 0, err
	}
	return econ.USDPerDay, nil
}
