// Package report renders valuation results as Markdown for analyst review.
// Rendering is presentation only: every number comes from the dcf and risk
// packages unchanged, this package just formats.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"quantval/pkg/core/dcf"
	"quantval/pkg/core/risk"
)

// RenderValuation renders the deterministic DCF result: the headline values
// followed by the year-by-year flow table.
func RenderValuation(v *dcf.Valuation) string {
	var b strings.Builder
	b.WriteString("## DCF Valuation\n\n")
	b.WriteString("| Measure | Value |\n")
	b.WriteString("|---|---|\n")
	fmt.Fprintf(&b, "| Enterprise Value | %s |\n", Money(v.Outcome.EnterpriseValue))
	fmt.Fprintf(&b, "| Equity Value | %s |\n", Money(v.Outcome.EquityValue))
	fmt.Fprintf(&b, "| Per-Share Value | %s |\n", Money(v.Outcome.PerShareValue))
	fmt.Fprintf(&b, "| Explicit-Period PV | %s |\n", Money(v.Outcome.ExplicitPV))
	fmt.Fprintf(&b, "| Terminal PV | %s |\n", Money(v.Outcome.TerminalPV))
	fmt.Fprintf(&b, "| Terminal Share of EV | %s |\n", Percent(v.Outcome.TerminalRatio))

	b.WriteString("\n### Projected Flows\n\n")
	b.WriteString("| Year | Growth | Flow | Present Value |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, f := range v.Flows {
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n",
			f.Year, Percent(f.GrowthRate), Money(f.Flow), Money(f.PresentValue))
	}
	return b.String()
}

// RenderSensitivity renders the grid with row values down the left and column
// values across the top. Cells that failed to evaluate show N/A.
func RenderSensitivity(g *risk.SensitivityGrid) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Sensitivity: %s vs %s\n\n", g.RowParam, g.ColParam)

	fmt.Fprintf(&b, "| %s \\ %s |", g.RowParam, g.ColParam)
	for _, cv := range g.ColValues {
		fmt.Fprintf(&b, " %s |", trimFloat(cv))
	}
	b.WriteString("\n|---|")
	for range g.ColValues {
		b.WriteString("---|")
	}
	b.WriteString("\n")

	for i, rv := range g.RowValues {
		fmt.Fprintf(&b, "| %s |", trimFloat(rv))
		for j := range g.ColValues {
			if !g.CellOK(i, j) {
				b.WriteString(" N/A |")
				continue
			}
			fmt.Fprintf(&b, " %s |", Money(g.Values[i][j]))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderScenarios renders per-scenario rows and the probability-weighted
// expected value.
func RenderScenarios(a *risk.ScenarioAnalysis) string {
	var b strings.Builder
	b.WriteString("## Scenario Analysis\n\n")
	b.WriteString("| Scenario | Probability | Per-Share | Weighted |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, r := range a.Results {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			r.Name, Percent(r.Probability), Money(r.PerShare), Money(r.Weighted))
	}
	fmt.Fprintf(&b, "| **Expected Value** | | | **%s** |\n", Money(a.ExpectedValue))
	return b.String()
}

// RenderSimulation renders the summary statistics, confidence intervals and
// an ASCII histogram of the outcome distribution.
func RenderSimulation(r *risk.SimulationResult) string {
	var b strings.Builder
	b.WriteString("## Monte Carlo Simulation\n\n")
	fmt.Fprintf(&b, "Draws: %d requested, %d completed, %d infeasible\n\n",
		r.Requested, r.Completed, r.Failed)
	if r.Partial {
		b.WriteString("> Run was interrupted; statistics cover completed draws only.\n\n")
	}

	s := r.Summary
	b.WriteString("| Statistic | Value |\n")
	b.WriteString("|---|---|\n")
	fmt.Fprintf(&b, "| Mean | %s |\n", Money(s.Mean))
	fmt.Fprintf(&b, "| Median | %s |\n", Money(s.Median))
	fmt.Fprintf(&b, "| Std Dev | %s |\n", Money(s.StdDev))
	fmt.Fprintf(&b, "| Min | %s |\n", Money(s.Min))
	fmt.Fprintf(&b, "| Max | %s |\n", Money(s.Max))
	fmt.Fprintf(&b, "| 90%% CI | %s – %s |\n", Money(s.P5), Money(s.P95))
	fmt.Fprintf(&b, "| 50%% CI | %s – %s |\n", Money(s.P25), Money(s.P75))
	fmt.Fprintf(&b, "| P(value < 0) | %s |\n", Percent(r.ProbNegative))

	if len(r.Histogram) > 0 {
		b.WriteString("\n### Distribution\n\n```\n")
		b.WriteString(RenderHistogram(r.Histogram, 40))
		b.WriteString("```\n")
	}
	return b.String()
}

// RenderHistogram draws each bin as a bar of block characters scaled to the
// largest bin, with the bin range on the left and the count on the right.
func RenderHistogram(bins []risk.HistogramBin, width int) string {
	if width <= 0 {
		width = 40
	}
	maxCount := 0
	for _, bin := range bins {
		if bin.Count > maxCount {
			maxCount = bin.Count
		}
	}
	if maxCount == 0 {
		return ""
	}

	var b strings.Builder
	for _, bin := range bins {
		n := bin.Count * width / maxCount
		if bin.Count > 0 && n == 0 {
			n = 1
		}
		fmt.Fprintf(&b, "%10.2f – %10.2f  %-*s %d\n",
			bin.Low, bin.High, width, strings.Repeat("█", n), bin.Count)
	}
	return b.String()
}

// Money formats a monetary amount with two decimals and thousands separators.
func Money(v float64) string {
	if math.IsNaN(v) {
		return "N/A"
	}
	d := decimal.NewFromFloat(v).Round(2)
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)

	whole, frac, _ := strings.Cut(s, ".")
	var parts []string
	for len(whole) > 3 {
		parts = append([]string{whole[len(whole)-3:]}, parts...)
		whole = whole[:len(whole)-3]
	}
	parts = append([]string{whole}, parts...)

	out := strings.Join(parts, ",") + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}

// Percent formats a fraction as a percentage with two decimals.
func Percent(v float64) string {
	if math.IsNaN(v) {
		return "N/A"
	}
	return decimal.NewFromFloat(v * 100).Round(2).StringFixed(2) + "%"
}

func trimFloat(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.6f", v), "0"), ".")
}
