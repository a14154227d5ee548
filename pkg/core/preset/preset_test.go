package preset

import (
	"strings"
	"testing"

	"quantval/pkg/core/risk"
)

// Presets are hand-edited, so the fixture deliberately uses HJSON comments
// and trailing commas.
const samplePreset = `
{
  name: Tech Large Cap
  parameters: {
    base_cash_flow: 66170
    discount_rate: 0.0942
    growth_phase1: 0.12
    years_phase1: 5
    years_transition: 5
    terminal_growth: 0.025
    net_debt: -21000          # net cash position
    shares_outstanding: 7430
  }
  scenarios: [
    { name: "Bull", probability: 0.3, overrides: { growth_phase1: 0.15 } },
    { name: "Base", probability: 0.5 },
    { name: "Bear", probability: 0.2, overrides: { growth_phase1: 0.06 } },
  ]
  distributions: {
    discount_rate: { kind: "normal", mean: 0.0942, stddev: 0.008 }
    growth_phase1: { kind: "triangular", min: 0.06, mode: 0.12, max: 0.16 }
    terminal_growth: { kind: "uniform", min: 0.015, max: 0.035 }
  }
  correlations: [
    { a: "discount_rate", b: "growth_phase1", rho: -0.3 },
  ]
  iterations: 20000
}
`

func TestParse_SamplePreset(t *testing.T) {
	p, err := Parse([]byte(samplePreset))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "Tech Large Cap" {
		t.Errorf("name %q", p.Name)
	}
	if p.Parameters.BaseCashFlow != 66170 || p.Parameters.NetDebt != -21000 {
		t.Errorf("parameters not decoded: %+v", p.Parameters)
	}
	if p.Iterations != 20000 {
		t.Errorf("iterations %d", p.Iterations)
	}
	if len(p.Scenarios) != 3 {
		t.Fatalf("expected 3 scenarios, got %d", len(p.Scenarios))
	}
}

func TestParse_InvalidParametersRejectedAtLoad(t *testing.T) {
	bad := strings.Replace(samplePreset, "terminal_growth: 0.025", "terminal_growth: 0.12", 1)
	if _, err := Parse([]byte(bad)); err == nil {
		t.Fatal("terminal growth above the discount rate must fail at load")
	}
}

func TestRiskDistributions(t *testing.T) {
	p, err := Parse([]byte(samplePreset))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dists, err := p.RiskDistributions()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dists) != 3 {
		t.Fatalf("expected 3 distributions, got %d", len(dists))
	}
	if dists["discount_rate"].Kind != risk.DistNormal {
		t.Errorf("discount_rate kind %q", dists["discount_rate"].Kind)
	}
	if dists["growth_phase1"].Kind != risk.DistTriangular {
		t.Errorf("growth_phase1 kind %q", dists["growth_phase1"].Kind)
	}
}

func TestRiskDistributions_BadShape(t *testing.T) {
	bad := strings.Replace(samplePreset, "mode: 0.12", "mode: 0.50", 1)
	p, err := Parse([]byte(bad))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.RiskDistributions(); err == nil {
		t.Fatal("triangular mode outside [min, max] must fail")
	}
}

func TestRiskCorrelation(t *testing.T) {
	p, err := Parse([]byte(samplePreset))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, err := p.RiskCorrelation()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m == nil {
		t.Fatal("expected a matrix for declared correlations")
	}
	rho := m.Get("discount_rate", "growth_phase1")
	if rho != -0.3 {
		t.Errorf("rho %g", rho)
	}

	p.Correlations = nil
	m, err = p.RiskCorrelation()
	if err != nil || m != nil {
		t.Errorf("no pairs must yield a nil matrix, got %v, %v", m, err)
	}
}

func TestRiskScenarios(t *testing.T) {
	p, err := Parse([]byte(samplePreset))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	scenarios := p.RiskScenarios()
	if len(scenarios) != 3 {
		t.Fatalf("expected 3, got %d", len(scenarios))
	}
	if scenarios[0].Overrides["growth_phase1"] != 0.15 {
		t.Errorf("override lost: %+v", scenarios[0])
	}
}
