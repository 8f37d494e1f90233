// Package finance computes investment metrics from a cashflow series: NPV,
// IRR, ROIC, and simple/discounted payback. Everything is a pure function of
// its inputs; metrics are derived on demand and never cached.
package finance

import (
	"errors"
	"math"
)

// Root-finding bounds for IRR.
const (
	irrLowerBound    = -0.99
	irrMaxIterations = 100
	irrNPVTolerance  = 1e-7
)

var (
	// ErrIRRUndefined means the cashflow series has no sign change, so no
	// discount rate can zero its NPV. This is a distinct metric state, not
	// a zero.
	ErrIRRUndefined = errors.New("irr undefined: cashflow series has no sign change")

	// ErrNoConvergence means the bracketed root-find hit its iteration cap.
	// Callers treat it the same as ErrIRRUndefined.
	ErrNoConvergence = errors.New("irr root-finding did not converge within iteration cap")
)

// IRRStatus values reported in Metrics.
const (
	IRRStatusOK            = "ok"
	IRRStatusUndefined     = "undefined"
	IRRStatusNoConvergence = "no-convergence"
)

// Metrics are the headline investment figures for one cashflow series.
// Nil pointer fields are deliberate sentinels: IRR nil means undefined,
// payback nil means the investment never pays back within the horizon,
// ROIC nil means capex was zero.
type Metrics struct {
	NPV                    float64  `json:"npv"`
	IRR                    *float64 `json:"irr,omitempty"`
	IRRStatus              string   `json:"irrStatus"`
	ROIC                   *float64 `json:"roic,omitempty"`
	SimplePaybackYears     *float64 `json:"simplePaybackYears,omitempty"`
	DiscountedPaybackYears *float64 `json:"discountedPaybackYears,omitempty"`
	TotalNetCash           float64  `json:"totalNetCash"`
	DiscountRate           float64  `json:"discountRate"`
}

// NPV discounts the series at the given rate: sum of CF_t / (1+r)^t.
func NPV(cashflows []float64, rate float64) float64 {
	total := 0.0
	for t, cf := range cashflows {
		total += cf / math.Pow(1.0+rate, float64(t))
	}
	return total
}

// hasSignChange reports whether the series contains both a positive and a
// negative cashflow. Without one, NPV never crosses zero.
func hasSignChange(cashflows []float64) bool {
	pos, neg := false, false
	for _, cf := range cashflows {
		if cf > 0 {
			pos = true
		} else if cf < 0 {
			neg = true
		}
	}
	return pos && neg
}

// IRR finds the rate r* with NPV(r*) = 0 by bisection over a bracket that
// starts at [-0.99, 1.0] and doubles its upper bound until the NPV changes
// sign. The iteration cap guarantees termination; on cap exhaustion the
// caller gets ErrNoConvergence rather than a fabricated number.
func IRR(cashflows []float64) (float64, error) {
	if !hasSignChange(cashflows) {
		return 0, ErrIRRUndefined
	}

	lo, hi := irrLowerBound, 1.0
	npvLo := NPV(cashflows, lo)
	npvHi := NPV(cashflows, hi)

	// Expand the upper bound until the bracket straddles zero.
	for i := 0; npvLo*npvHi > 0; i++ {
		if i >= irrMaxIterations {
			return 0, ErrNoConvergence
		}
		hi *= 2
		npvHi = NPV(cashflows, hi)
	}

	for i := 0; i < irrMaxIterations; i++ {
		mid := (lo + hi) / 2
		npvMid := NPV(cashflows, mid)

		if math.Abs(npvMid) < irrNPVTolerance || (hi-lo)/2 < 1e-12 {
			return mid, nil
		}
		if npvLo*npvMid < 0 {
			hi = mid
		} else {
			lo = mid
			npvLo = npvMid
		}
	}
	return 0, ErrNoConvergence
}

// paybackYears walks the cumulative sum of the series and returns the
// fractional year at which it first reaches zero, interpolating linearly
// within the crossing year. Nil means it never reaches zero in the horizon.
func paybackYears(cashflows []float64) *float64 {
	if len(cashflows) == 0 {
		return nil
	}
	cumulative := cashflows[0]
	if cumulative >= 0 {
		zero := 0.0
		return &zero
	}
	for t := 1; t < len(cashflows); t++ {
		prev := cumulative
		cumulative += cashflows[t]
		if cumulative >= 0 && cashflows[t] > 0 {
			years := float64(t-1) + (-prev)/cashflows[t]
			return &years
		}
	}
	return nil
}

// Analyze computes the full metric set for a cashflow series at a discount
// rate. CF_0 is expected to be the (negative) capex outlay.
func Analyze(cashflows []float64, discountRate float64) Metrics {
	m := Metrics{
		NPV:          NPV(cashflows, discountRate),
		DiscountRate: discountRate,
	}
	for _, cf := range cashflows {
		m.TotalNetCash += cf
	}

	switch irr, err := IRR(cashflows); {
	case err == nil:
		m.IRR = &irr
		m.IRRStatus = IRRStatusOK
	case errors.Is(err, ErrNoConvergence):
		m.IRRStatus = IRRStatusNoConvergence
	default:
		m.IRRStatus = IRRStatusUndefined
	}

	// ROIC: mean annual profit over capex, undefined when capex is zero.
	if len(cashflows) > 1 {
		capex := -cashflows[0]
		if capex > 0 {
			sum := 0.0
			for _, cf := range cashflows[1:] {
				sum += cf
			}
			roic := sum / float64(len(cashflows)-1) / capex
			m.ROIC = &roic
		}
	}

	m.SimplePaybackYears = paybackYears(cashflows)

	discounted := make([]float64, len(cashflows))
	for t, cf := range cashflows {
		discounted[t] = cf / math.Pow(1.0+discountRate, float64(t))
	}
	m.DiscountedPaybackYears = paybackYears(discounted)

	return m
}
