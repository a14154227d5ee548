package risk

import (
	"math"

	"quantval/pkg/core/dcf"
)

// ProbabilityTolerance bounds how far a scenario set's weights may drift
// from summing to exactly 1.
const ProbabilityTolerance = 1e-6

// Scenario names a set of parameter overrides with an occurrence probability.
type Scenario struct {
	Name        string             `json:"name"`
	Probability float64            `json:"probability"`
	Overrides   map[string]float64 `json:"overrides"`
}

// ScenarioResult is one evaluated scenario; Weighted is its contribution to
// the expected value.
type ScenarioResult struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
	PerShare    float64 `json:"per_share"`
	Weighted    float64 `json:"weighted"`
}

// ScenarioAnalysis aggregates per-scenario values into the probability-
// weighted expectation.
type ScenarioAnalysis struct {
	Results       []ScenarioResult `json:"results"`
	ExpectedValue float64          `json:"expected_value"`
}

// EvaluateScenarios merges each scenario's overrides onto the base parameters,
// evaluates the DCF engine, and weights the per-share values by probability.
// Deterministic, no randomness. Unlike the sensitivity grid, evaluation errors
// fail fast: a scenario set is a deliberate construction, not an exploratory
// range, so an infeasible member is a caller mistake.
func EvaluateScenarios(base dcf.ValuationParameters, scenarios []Scenario) (*ScenarioAnalysis, error) {
	if len(scenarios) == 0 {
		return nil, &InconsistentProbabilitiesError{Sum: 0}
	}

	var sum float64
	for _, s := range scenarios {
		if s.Probability <= 0 || s.Probability > 1 {
			return nil, &dcf.InvalidParameterError{Field: "probability", Value: s.Probability, Reason: "scenario probability must be in (0, 1]"}
		}
		sum += s.Probability
	}
	if math.Abs(sum-1) > ProbabilityTolerance {
		return nil, &InconsistentProbabilitiesError{Sum: sum}
	}

	out := &ScenarioAnalysis{Results: make([]ScenarioResult, 0, len(scenarios))}
	for _, s := range scenarios {
		p, err := base.Apply(s.Overrides)
		if err != nil {
			return nil, err
		}
		ps, err := dcf.PerShare(p)
		if err != nil {
			return nil, err
		}
		r := ScenarioResult{
			Name:        s.Name,
			Probability: s.Probability,
			PerShare:    ps,
			Weighted:    s.Probability * ps,
		}
		out.Results = append(out.Results, r)
		out.ExpectedValue += r.Weighted
	}
	return out, nil
}
