// Verification harness for the valuation engine. Runs the reference fixture
// and a handful of closed-form checks, printing PASS/FAIL per check. Useful
// as a smoke test against a freshly built binary without the test suite.
package main

import (
	"context"
	"fmt"
	"math"
	"os"

	"quantval/pkg/core/dcf"
	"quantval/pkg/core/report"
	"quantval/pkg/core/risk"
)

var failures int

func check(name string, ok bool, detail string) {
	status := "PASS"
	if !ok {
		status = "FAIL"
		failures++
	}
	fmt.Printf("[%s] %-42s %s\n", status, name, detail)
}

func main() {
	fixture := dcf.ValuationParameters{
		BaseCashFlow:      66170,
		DiscountRate:      0.0942,
		GrowthPhase1:      0.12,
		YearsPhase1:       5,
		YearsTransition:   5,
		TerminalGrowth:    0.025,
		NetDebt:           -21000,
		SharesOutstanding: 7430,
	}

	fmt.Println("--- Reference Fixture ---")
	v, err := dcf.Evaluate(fixture)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	ps := v.Outcome.PerShareValue
	check("fixture per-share", math.Abs(ps-226.09) < 0.25,
		fmt.Sprintf("got %s", report.Money(ps)))
	check("net cash adds to equity", v.Outcome.EquityValue > v.Outcome.EnterpriseValue,
		fmt.Sprintf("EV %s, equity %s", report.Money(v.Outcome.EnterpriseValue), report.Money(v.Outcome.EquityValue)))
	check("terminal ratio in (0,1)", v.Outcome.TerminalRatio > 0 && v.Outcome.TerminalRatio < 1,
		report.Percent(v.Outcome.TerminalRatio))

	fmt.Println("--- Gordon Closed Form ---")
	// A single-phase perpetuity with no transition reduces to the textbook
	// formula EV = sum of PV(explicit) + PV(FCF_n*(1+g)/(r-g)).
	flat := dcf.ValuationParameters{
		BaseCashFlow: 1000, DiscountRate: 0.10, GrowthPhase1: 0.03,
		YearsPhase1: 1, YearsTransition: 0, TerminalGrowth: 0.03,
		SharesOutstanding: 1,
	}
	fv, err := dcf.Evaluate(flat)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	f1 := 1000 * 1.03
	wantEV := f1/1.10 + (f1 * 1.03 / (0.10 - 0.03) / 1.10)
	check("constant-growth EV", math.Abs(fv.Outcome.EnterpriseValue-wantEV) < 1e-6,
		fmt.Sprintf("got %.6f, want %.6f", fv.Outcome.EnterpriseValue, wantEV))

	fmt.Println("--- Divergence Guard ---")
	bad := fixture
	bad.TerminalGrowth = 0.10
	_, err = dcf.Evaluate(bad)
	check("growth >= rate rejected", err != nil, fmt.Sprintf("%v", err))

	fmt.Println("--- Degenerate Simulation ---")
	dists := map[string]risk.Distribution{
		dcf.FieldDiscountRate: mustDist(risk.Normal(fixture.DiscountRate, 0)),
	}
	res, err := risk.Simulate(context.Background(), fixture, dists, nil, risk.SimulationOptions{})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	check("zero-variance collapses", res.Summary.Min == ps && res.Summary.Max == ps && res.Summary.StdDev == 0,
		fmt.Sprintf("mean %s, stddev %g", report.Money(res.Summary.Mean), res.Summary.StdDev))

	if failures > 0 {
		fmt.Printf("\n%d check(s) failed\n", failures)
		os.Exit(1)
	}
	fmt.Println("\nAll checks passed")
}

func mustDist(d risk.Distribution, err error) risk.Distribution {
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	return d
}
