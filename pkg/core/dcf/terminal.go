package dcf

import "math"

// TerminalMethod selects how value beyond the explicit horizon is capitalized.
type TerminalMethod string

const (
	// TerminalGordon uses the Gordon Growth perpetuity: TV = FCF*(1+g)/(r-g).
	TerminalGordon TerminalMethod = "gordon_growth"
	// TerminalExitMultiple applies a market multiple to a terminal-year metric.
	TerminalExitMultiple TerminalMethod = "exit_multiple"
)

// TerminalValue holds the capitalized value of post-horizon cash flows.
// Ratio is TV present value over total enterprise value; it is always
// computed so a caller can flag excessive terminal reliance (conventionally
// above ~0.80); the threshold judgement stays with the caller.
type TerminalValue struct {
	Method  TerminalMethod `json:"method"`
	Nominal float64        `json:"nominal"`
	Present float64        `json:"present"`
	Ratio   float64        `json:"ratio_of_total"`
}

// GordonTerminalValue computes the perpetuity value of the flow following the
// last explicit year.
//
// FORMULA: TV = FCF_last * (1 + g) / (r - g)
//
// Fails when g >= r: the denominator would be non-positive and the perpetuity
// diverges.
func GordonTerminalValue(lastFlow, terminalGrowth, discountRate float64) (float64, error) {
	if terminalGrowth >= discountRate {
		return 0, invalidParam(FieldTerminalGrowth, terminalGrowth, "terminal growth must be below the discount rate or the perpetuity diverges")
	}
	return lastFlow * (1 + terminalGrowth) / (discountRate - terminalGrowth), nil
}

// ExitMultipleTerminalValue computes TV as a direct multiple of a terminal-year
// metric (typically EV/EBITDA on terminal EBITDA). No rate constraint applies.
func ExitMultipleTerminalValue(metric, multiple float64) (float64, error) {
	if metric <= 0 {
		return 0, invalidParam("terminal_metric", metric, "terminal metric must be positive")
	}
	if multiple <= 0 {
		return 0, invalidParam("exit_multiple", multiple, "exit multiple must be positive")
	}
	return metric * multiple, nil
}

// DiscountTerminal brings a nominal terminal value back to the present over
// the explicit horizon of n years.
func DiscountTerminal(nominal, discountRate float64, horizon int) float64 {
	return nominal / math.Pow(1+discountRate, float64(horizon))
}
