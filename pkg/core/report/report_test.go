package report

import (
	"strings"
	"testing"

	"quantval/pkg/core/dcf"
	"quantval/pkg/core/risk"
)

func reportParams() dcf.ValuationParameters {
	return dcf.ValuationParameters{
		BaseCashFlow:      66170,
		DiscountRate:      0.0942,
		GrowthPhase1:      0.12,
		YearsPhase1:       5,
		YearsTransition:   5,
		TerminalGrowth:    0.025,
		NetDebt:           -21000,
		SharesOutstanding: 7430,
	}
}

func TestMoney(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{1234.5, "1,234.50"},
		{-1234567.891, "-1,234,567.89"},
		{226.0942, "226.09"},
		{999, "999.00"},
	}
	for _, tc := range cases {
		if got := Money(tc.in); got != tc.want {
			t.Errorf("Money(%g): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(0.0942); got != "9.42%" {
		t.Errorf("expected 9.42%%, got %q", got)
	}
	if got := Percent(1); got != "100.00%" {
		t.Errorf("expected 100.00%%, got %q", got)
	}
}

func TestRenderValuation(t *testing.T) {
	v, err := dcf.Evaluate(reportParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	md := RenderValuation(v)

	if !strings.Contains(md, "Per-Share Value") {
		t.Error("missing per-share row")
	}
	// One flow row per projected year, years 1 through 10.
	for _, year := range []string{"| 1 |", "| 10 |"} {
		if !strings.Contains(md, year) {
			t.Errorf("missing flow row %q", year)
		}
	}
	if !ValidateMarkdown(md) {
		t.Error("rendered valuation is not valid markdown")
	}
}

func TestRenderSensitivity_NACells(t *testing.T) {
	g, err := risk.Sensitivity(reportParams(),
		dcf.FieldDiscountRate, []float64{0.07, 0.12},
		dcf.FieldTerminalGrowth, []float64{0.02, 0.08})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	md := RenderSensitivity(g)
	if !strings.Contains(md, "N/A") {
		t.Error("infeasible cell must render as N/A")
	}
	if !strings.Contains(md, dcf.FieldDiscountRate) || !strings.Contains(md, dcf.FieldTerminalGrowth) {
		t.Error("axis labels missing")
	}
}

func TestRenderScenarios(t *testing.T) {
	a, err := risk.EvaluateScenarios(reportParams(), []risk.Scenario{
		{Name: "Bull", Probability: 0.3, Overrides: map[string]float64{dcf.FieldGrowthPhase1: 0.15}},
		{Name: "Base", Probability: 0.5},
		{Name: "Bear", Probability: 0.2, Overrides: map[string]float64{dcf.FieldGrowthPhase1: 0.05}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	md := RenderScenarios(a)
	for _, want := range []string{"Bull", "Base", "Bear", "Expected Value"} {
		if !strings.Contains(md, want) {
			t.Errorf("missing %q in scenario report", want)
		}
	}
}

func TestRenderHistogram(t *testing.T) {
	bins := []risk.HistogramBin{
		{Low: 100, High: 150, Count: 2},
		{Low: 150, High: 200, Count: 10},
		{Low: 200, High: 250, Count: 1},
	}
	out := RenderHistogram(bins, 20)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(lines))
	}
	if !strings.Contains(lines[1], strings.Repeat("█", 20)) {
		t.Error("largest bin must fill the full width")
	}
	// A non-empty bin never rounds down to zero blocks.
	if !strings.Contains(lines[2], "█") {
		t.Error("small bin lost its bar")
	}
}

func TestToHTML_RendersTables(t *testing.T) {
	v, err := dcf.Evaluate(reportParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	html, err := ToHTML(RenderValuation(v))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(html, "<table>") {
		t.Error("markdown tables must render as HTML tables")
	}
}

func TestCleanMarkdown(t *testing.T) {
	in := "```markdown\n# Report\n```"
	if got := CleanMarkdown(in); got != "# Report" {
		t.Errorf("expected fences stripped, got %q", got)
	}
	if got := CleanMarkdown("# Plain"); got != "# Plain" {
		t.Errorf("plain input must pass through, got %q", got)
	}
}
