package dcf

import "math"

// PeriodFlow is one projected year: the growth rate applied that year, the
// resulting nominal flow, and its present value at the discount rate. The
// per-period growth rate is retained for audit and sensitivity-table display.
type PeriodFlow struct {
	Year         int     `json:"year"` // 1-indexed, chronological
	GrowthRate   float64 `json:"growth_rate"`
	Flow         float64 `json:"flow"`
	PresentValue float64 `json:"present_value"`
}

// GrowthSchedule generates the per-year growth rates of the multi-stage model.
//
// Phase 1: yearsPhase1 periods at growthPhase1.
// Transition: period i of m (1-indexed) uses
//
//	g1 + (gt - g1) * i/m
//
// so the final transition year lands exactly on the terminal rate.
// yearsTransition = 0 degenerates to the 2-phase model: the transition loop
// simply contributes nothing.
func GrowthSchedule(growthPhase1, growthTerminal float64, yearsPhase1, yearsTransition int) []float64 {
	rates := make([]float64, 0, yearsPhase1+yearsTransition)
	for i := 0; i < yearsPhase1; i++ {
		rates = append(rates, growthPhase1)
	}
	for i := 1; i <= yearsTransition; i++ {
		frac := float64(i) / float64(yearsTransition)
		rates = append(rates, growthPhase1+(growthTerminal-growthPhase1)*frac)
	}
	return rates
}

// ProjectFlows compounds the base flow through the growth schedule and
// discounts each period at discountRate. Output order is chronological and
// significant: the engine sums it and renderers display it as-is.
func ProjectFlows(p ValuationParameters) ([]PeriodFlow, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	rates := GrowthSchedule(p.GrowthPhase1, p.TerminalGrowth, p.YearsPhase1, p.YearsTransition)
	flows := make([]PeriodFlow, 0, len(rates))

	flow := p.BaseCashFlow
	for i, g := range rates {
		year := i + 1
		flow *= 1 + g
		flows = append(flows, PeriodFlow{
			Year:         year,
			GrowthRate:   g,
			Flow:         flow,
			PresentValue: flow / math.Pow(1+p.DiscountRate, float64(year)),
		})
	}
	return flows, nil
}
