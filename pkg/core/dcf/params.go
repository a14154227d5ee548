// Package dcf implements the deterministic multi-stage DCF valuation core:
// cash flow projection under a 2- or 3-phase growth schedule, terminal value,
// and the single Evaluate primitive the risk layer re-invokes under
// perturbation. All functions are pure; inputs are validated once at entry.
package dcf

import "math"

// Canonical field names accepted by ValuationParameters.Apply.
// The risk layer addresses parameters by these names when overriding.
const (
	FieldBaseCashFlow      = "base_cash_flow"
	FieldDiscountRate      = "discount_rate"
	FieldGrowthPhase1      = "growth_phase1"
	FieldYearsPhase1       = "years_phase1"
	FieldYearsTransition   = "years_transition"
	FieldTerminalGrowth    = "terminal_growth"
	FieldNetDebt           = "net_debt"
	FieldSharesOutstanding = "shares_outstanding"
)

// FieldNames lists every overridable parameter in a stable order.
var FieldNames = []string{
	FieldBaseCashFlow,
	FieldDiscountRate,
	FieldGrowthPhase1,
	FieldYearsPhase1,
	FieldYearsTransition,
	FieldTerminalGrowth,
	FieldNetDebt,
	FieldSharesOutstanding,
}

// ValuationParameters holds the bounded input set of the DCF model.
// All monetary values share one currency unit (conventionally millions).
type ValuationParameters struct {
	BaseCashFlow      float64 `json:"base_cash_flow"`     // FCFF/FCFE at year 0, must be finite and > 0
	DiscountRate      float64 `json:"discount_rate"`      // WACC for FCFF, Ke for FCFE, must be > 0
	GrowthPhase1      float64 `json:"growth_phase1"`      // high-growth rate, e.g. 0.12
	YearsPhase1       int     `json:"years_phase1"`       // length of the high-growth phase, >= 0
	YearsTransition   int     `json:"years_transition"`   // 0 collapses the model to 2 phases
	TerminalGrowth    float64 `json:"terminal_growth"`    // perpetual growth, must be < DiscountRate
	NetDebt           float64 `json:"net_debt"`           // negative = net cash position
	SharesOutstanding float64 `json:"shares_outstanding"` // must be > 0
}

// Validate checks every construction invariant. It is called at the entry of
// Evaluate so the projection and terminal-value stages can assume clean inputs.
func (p ValuationParameters) Validate() error {
	if math.IsNaN(p.BaseCashFlow) || math.IsInf(p.BaseCashFlow, 0) || p.BaseCashFlow <= 0 {
		return invalidParam(FieldBaseCashFlow, p.BaseCashFlow, "base cash flow must be finite and positive")
	}
	if math.IsNaN(p.DiscountRate) || math.IsInf(p.DiscountRate, 0) || p.DiscountRate <= 0 {
		return invalidParam(FieldDiscountRate, p.DiscountRate, "discount rate must be finite and positive")
	}
	if p.YearsPhase1 < 0 {
		return invalidParam(FieldYearsPhase1, float64(p.YearsPhase1), "phase-1 length cannot be negative")
	}
	if p.YearsTransition < 0 {
		return invalidParam(FieldYearsTransition, float64(p.YearsTransition), "transition length cannot be negative")
	}
	if p.TerminalGrowth >= p.DiscountRate {
		return invalidParam(FieldTerminalGrowth, p.TerminalGrowth, "terminal growth must be below the discount rate or the perpetuity diverges")
	}
	if p.SharesOutstanding <= 0 {
		return invalidParam(FieldSharesOutstanding, p.SharesOutstanding, "share count must be positive")
	}
	return nil
}

// Horizon returns the explicit projection length in years.
func (p ValuationParameters) Horizon() int {
	return p.YearsPhase1 + p.YearsTransition
}

// Apply returns a copy of p with the named fields overridden. The receiver is
// never mutated, which keeps base parameter sets safe to share across
// concurrent grid cells, scenarios and simulation draws.
// Integer year fields are rounded to the nearest whole year.
func (p ValuationParameters) Apply(overrides map[string]float64) (ValuationParameters, error) {
	out := p
	for name, v := range overrides {
		switch name {
		case FieldBaseCashFlow:
			out.BaseCashFlow = v
		case FieldDiscountRate:
			out.DiscountRate = v
		case FieldGrowthPhase1:
			out.GrowthPhase1 = v
		case FieldYearsPhase1:
			out.YearsPhase1 = int(math.Round(v))
		case FieldYearsTransition:
			out.YearsTransition = int(math.Round(v))
		case FieldTerminalGrowth:
			out.TerminalGrowth = v
		case FieldNetDebt:
			out.NetDebt = v
		case FieldSharesOutstanding:
			out.SharesOutstanding = v
		default:
			return p, invalidParam(name, v, "unknown parameter name")
		}
	}
	return out, nil
}
