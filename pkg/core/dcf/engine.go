package dcf

// ValuationOutcome is the full output of one DCF evaluation.
type ValuationOutcome struct {
	EnterpriseValue float64 `json:"enterprise_value"`
	EquityValue     float64 `json:"equity_value"`
	PerShareValue   float64 `json:"per_share_value"`
	ExplicitPV      float64 `json:"explicit_pv"`
	TerminalPV      float64 `json:"terminal_pv"`
	TerminalRatio   float64 `json:"terminal_ratio"`
}

// Valuation bundles the outcome with the intermediate artifacts a caller may
// want to display (sensitivity tables, audit trails). Flows and Terminal are
// owned by this result; the engine retains nothing after returning.
type Valuation struct {
	Outcome  ValuationOutcome `json:"outcome"`
	Flows    []PeriodFlow     `json:"flows"`
	Terminal TerminalValue    `json:"terminal"`
}

// Evaluate runs the full multi-stage DCF with a Gordon-growth terminal value:
// project, discount, capitalize the tail, aggregate down to per-share value.
//
// The function is pure and re-entrant: identical inputs always produce
// identical outputs, and concurrent callers share no state. Every risk
// technique (sensitivity, scenarios, Monte Carlo) funnels through here.
func Evaluate(p ValuationParameters) (*Valuation, error) {
	flows, err := ProjectFlows(p)
	if err != nil {
		return nil, err
	}

	lastFlow := p.BaseCashFlow
	if n := len(flows); n > 0 {
		lastFlow = flows[n-1].Flow
	}

	tvNominal, err := GordonTerminalValue(lastFlow, p.TerminalGrowth, p.DiscountRate)
	if err != nil {
		return nil, err
	}

	return assemble(p, flows, TerminalValue{Method: TerminalGordon, Nominal: tvNominal}), nil
}

// EvaluateExitMultiple is the exit-multiple variant of Evaluate. The caller
// supplies the terminal-year metric (e.g. EBITDA) and the multiple; the
// explicit-period mechanics are identical to the Gordon path.
func EvaluateExitMultiple(p ValuationParameters, terminalMetric, exitMultiple float64) (*Valuation, error) {
	flows, err := ProjectFlows(p)
	if err != nil {
		return nil, err
	}

	tvNominal, err := ExitMultipleTerminalValue(terminalMetric, exitMultiple)
	if err != nil {
		return nil, err
	}

	return assemble(p, flows, TerminalValue{Method: TerminalExitMultiple, Nominal: tvNominal}), nil
}

// PerShare is the scalar shortcut used by the risk layer.
func PerShare(p ValuationParameters) (float64, error) {
	v, err := Evaluate(p)
	if err != nil {
		return 0, err
	}
	return v.Outcome.PerShareValue, nil
}

func assemble(p ValuationParameters, flows []PeriodFlow, tv TerminalValue) *Valuation {
	var explicitPV float64
	for _, f := range flows {
		explicitPV += f.PresentValue
	}

	tv.Present = DiscountTerminal(tv.Nominal, p.DiscountRate, p.Horizon())

	ev := explicitPV + tv.Present
	if ev != 0 {
		tv.Ratio = tv.Present / ev
	}

	equity := ev - p.NetDebt // negative net debt (net cash) adds back

	return &Valuation{
		Outcome: ValuationOutcome{
			EnterpriseValue: ev,
			EquityValue:     equity,
			PerShareValue:   equity / p.SharesOutstanding,
			ExplicitPV:      explicitPV,
			TerminalPV:      tv.Present,
			TerminalRatio:   tv.Ratio,
		},
		Flows:    flows,
		Terminal: tv,
	}
}
