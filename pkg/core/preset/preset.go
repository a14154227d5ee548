// Package preset loads analysis presets: a base parameter set bundled with
// the scenario definitions, distribution specs and correlation pairs an
// analyst wants applied to it. Presets are HJSON documents so they can carry
// comments and trailing commas like any other hand-maintained config.
package preset

import (
	"fmt"
	"os"

	hjson "github.com/hjson/hjson-go/v4"

	"quantval/pkg/core/dcf"
	"quantval/pkg/core/risk"
)

// DistributionSpec is the on-disk form of a marginal distribution.
type DistributionSpec struct {
	Kind   string  `json:"kind"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Mode   float64 `json:"mode"`
	Max    float64 `json:"max"`
	Mu     float64 `json:"mu"`
	Sigma  float64 `json:"sigma"`
}

// CorrelationSpec is one symmetric correlation pair.
type CorrelationSpec struct {
	A   string  `json:"a"`
	B   string  `json:"b"`
	Rho float64 `json:"rho"`
}

// ScenarioSpec is the on-disk form of a named scenario.
type ScenarioSpec struct {
	Name        string             `json:"name"`
	Probability float64            `json:"probability"`
	Overrides   map[string]float64 `json:"overrides"`
}

// AnalysisPreset bundles everything one analysis request needs.
type AnalysisPreset struct {
	Name          string                      `json:"name"`
	Parameters    dcf.ValuationParameters     `json:"parameters"`
	Scenarios     []ScenarioSpec              `json:"scenarios"`
	Distributions map[string]DistributionSpec `json:"distributions"`
	Correlations  []CorrelationSpec           `json:"correlations"`
	Iterations    int                         `json:"iterations"`
}

// Load reads and decodes an HJSON preset file.
func Load(path string) (*AnalysisPreset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading preset %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes an HJSON preset document and validates the embedded
// parameters eagerly so a broken preset fails at load, not mid-analysis.
func Parse(raw []byte) (*AnalysisPreset, error) {
	var p AnalysisPreset
	if err := hjson.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decoding preset: %w", err)
	}
	if err := p.Parameters.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// RiskScenarios converts the on-disk scenario specs to risk-layer scenarios.
func (p *AnalysisPreset) RiskScenarios() []risk.Scenario {
	out := make([]risk.Scenario, 0, len(p.Scenarios))
	for _, s := range p.Scenarios {
		out = append(out, risk.Scenario{Name: s.Name, Probability: s.Probability, Overrides: s.Overrides})
	}
	return out
}

// RiskDistributions converts the on-disk distribution specs through the typed
// constructors so shape invariants are enforced at preset load.
func (p *AnalysisPreset) RiskDistributions() (map[string]risk.Distribution, error) {
	out := make(map[string]risk.Distribution, len(p.Distributions))
	for name, spec := range p.Distributions {
		d, err := buildDistribution(spec)
		if err != nil {
			return nil, fmt.Errorf("distribution for %q: %w", name, err)
		}
		out[name] = d
	}
	return out, nil
}

// RiskCorrelation builds the correlation matrix over the varied parameters,
// or returns nil when no pairs are declared.
func (p *AnalysisPreset) RiskCorrelation() (*risk.CorrelationMatrix, error) {
	if len(p.Correlations) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(p.Distributions))
	for name := range p.Distributions {
		names = append(names, name)
	}
	m, err := risk.NewCorrelationMatrix(names)
	if err != nil {
		return nil, err
	}
	for _, c := range p.Correlations {
		if err := m.Set(c.A, c.B, c.Rho); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func buildDistribution(spec DistributionSpec) (risk.Distribution, error) {
	switch risk.DistributionKind(spec.Kind) {
	case risk.DistNormal:
		return risk.Normal(spec.Mean, spec.StdDev)
	case risk.DistTriangular:
		return risk.Triangular(spec.Min, spec.Mode, spec.Max)
	case risk.DistUniform:
		return risk.Uniform(spec.Min, spec.Max)
	case risk.DistLognormal:
		return risk.Lognormal(spec.Mu, spec.Sigma)
	}
	return risk.Distribution{}, fmt.Errorf("unsupported distribution kind %q", spec.Kind)
}
