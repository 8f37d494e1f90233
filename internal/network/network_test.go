package network

import (
	"errors"
	"math"
	"testing"
)

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func validSnapshot() Snapshot {
	return Snapshot{
		Difficulty:      150_000_000_000_000,
		BlockSubsidyBTC: 3.125,
		BTCPriceUSD:     90_000,
		USDToGBP:        0.8,
		Source:          SourceStatic,
	}
}

func TestMinerEconomics_KnownScenario(t *testing.T) {
	// difficulty 150T, subsidy 3.125, price $90k, 200 TH/s
	econ, err := MinerEconomics(200, validSnapshot())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !approx(econ.BTCPerDay, 0.00008382, 0.0000001) {
		t.Errorf("expected BTC/day ~0.00008382, got %.10f", econ.BTCPerDay)
	}
	if !approx(econ.USDPerDay, 7.54, 0.01) {
		t.Errorf("expected USD/day ~7.54, got %f", econ.USDPerDay)
	}
	if !approx(econ.GBPPerDay, econ.USDPerDay*0.8, 1e-12) {
		t.Errorf("expected GBP/day = USD/day * FX, got %f vs %f", econ.GBPPerDay, econ.USDPerDay*0.8)
	}
}

func TestMinerEconomics_USDIsBTCTimesPrice(t *testing.T) {
	snap := validSnapshot()
	hashrates := []float64{1, 110, 200, 480, 580.5}

	for _, th := range hashrates {
		econ, err := MinerEconomics(th, snap)
		if err != nil {
			t.Fatalf("unexpected error at %f TH/s: %v", th, err)
		}
		if econ.USDPerDay != econ.BTCPerDay*snap.BTCPriceUSD {
			t.Errorf("at %f TH/s: USD/day %v != BTC/day * price %v",
				th, econ.USDPerDay, econ.BTCPerDay*snap.BTCPriceUSD)
		}
	}
}

func TestSnapshot_Validate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Snapshot)
		field  string
	}{
		{"ZeroDifficulty", func(s *Snapshot) { s.Difficulty = 0 }, "difficulty"},
		{"NegativeDifficulty", func(s *Snapshot) { s.Difficulty = -1 }, "difficulty"},
		{"ZeroSubsidy", func(s *Snapshot) { s.BlockSubsidyBTC = 0 }, "blockSubsidyBtc"},
		{"ZeroPrice", func(s *Snapshot) { s.BTCPriceUSD = 0 }, "btcPriceUsd"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap := validSnapshot()
			tc.mutate(&snap)

			err := snap.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}

			var perr *InvalidParametersError
			if !errors.As(err, &perr) {
				t.Fatalf("expected InvalidParametersError, got %T", err)
			}
			if perr.Field != tc.field {
				t.Errorf("expected field %q, got %q", tc.field, perr.Field)
			}
		})
	}
}

func TestMinerEconomics_InvalidSnapshot(t *testing.T) {
	snap := validSnapshot()
	snap.Difficulty = 0

	if _, err := MinerEconomics(200, snap); err == nil {
		t.Fatal("expected error for zero difficulty, got nil")
	}
}

func TestRevenuePerTHPerDay_ScalesLinearly(t *testing.T) {
	snap := validSnapshot()

	rate, err := RevenuePerTHPerDay(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	econ, err := MinerEconomics(200, snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !approx(rate*200, econ.USDPerDay, 1e-9) {
		t.Errorf("expected per-TH rate * 200 = miner USD/day, got %f vs %f", rate*200, econ.USDPerDay)
	}
}

func TestMinerEconomics_Idempotent(t *testing.T) {
	snap := validSnapshot()

	first, err := MinerEconomics(242, snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := MinerEconomics(242, snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first != second {
		t.Errorf("expected bit-identical results, got %+v vs %+v", first, second)
	}
}
