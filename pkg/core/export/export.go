// Package export writes analysis results to xlsx workbooks, one sheet per
// analysis section. The writer interface keeps the sheet building testable
// without touching the filesystem.
package export

import (
	"fmt"
	"io"

	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"

	"quantval/pkg/core/dcf"
	"quantval/pkg/core/risk"
)

// Sheet names in the generated workbook.
const (
	SheetDCF         = "DCF"
	SheetSensitivity = "Sensitivity"
	SheetScenarios   = "Scenarios"
	SheetMonteCarlo  = "MonteCarlo"
)

// Bundle collects the sections available for export. Nil sections are
// skipped, so a deterministic-only run still exports cleanly.
type Bundle struct {
	Valuation   *dcf.Valuation
	Sensitivity *risk.SensitivityGrid
	Scenarios   *risk.ScenarioAnalysis
	Simulation  *risk.SimulationResult
}

// Write builds the workbook and writes it to w.
func Write(w io.Writer, b Bundle) error {
	f, err := Workbook(b)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// WriteFile builds the workbook and saves it to path.
func WriteFile(path string, b Bundle) error {
	f, err := Workbook(b)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", path, err)
	}
	return nil
}

// Workbook builds the in-memory workbook for the bundle.
func Workbook(b Bundle) (*excelize.File, error) {
	f := excelize.NewFile()
	wrote := false

	if b.Valuation != nil {
		if err := writeSheet(f, SheetDCF, buildDCF(b.Valuation)); err != nil {
			return nil, err
		}
		wrote = true
	}
	if b.Sensitivity != nil {
		if err := writeSheet(f, SheetSensitivity, buildSensitivity(b.Sensitivity)); err != nil {
			return nil, err
		}
		wrote = true
	}
	if b.Scenarios != nil {
		if err := writeSheet(f, SheetScenarios, buildScenarios(b.Scenarios)); err != nil {
			return nil, err
		}
		wrote = true
	}
	if b.Simulation != nil {
		if err := writeSheet(f, SheetMonteCarlo, buildSimulation(b.Simulation)); err != nil {
			return nil, err
		}
		wrote = true
	}

	if !wrote {
		return nil, fmt.Errorf("nothing to export")
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("removing default sheet: %w", err)
	}
	return f, nil
}

func writeSheet(f *excelize.File, name string, rows [][]any) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("creating sheet %s: %w", name, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("writing sheet %s row %d: %w", name, i+1, err)
		}
	}
	return nil
}

// buildDCF lays out the headline values followed by the flow table.
// Columns of the flow table: Year | Growth | Flow | Present Value
func buildDCF(v *dcf.Valuation) [][]any {
	rows := [][]any{
		{"Measure", "Value"},
		{"Enterprise Value", v.Outcome.EnterpriseValue},
		{"Equity Value", v.Outcome.EquityValue},
		{"Per-Share Value", v.Outcome.PerShareValue},
		{"Explicit-Period PV", v.Outcome.ExplicitPV},
		{"Terminal PV", v.Outcome.TerminalPV},
		{"Terminal Share of EV", v.Outcome.TerminalRatio},
		{},
		{"Year", "Growth", "Flow", "Present Value"},
	}
	return append(rows, lo.Map(v.Flows, func(f dcf.PeriodFlow, _ int) []any {
		return []any{f.Year, f.GrowthRate, f.Flow, f.PresentValue}
	})...)
}

// buildSensitivity lays the grid out like the markdown report: column values
// across the first row, row values down the first column, failed cells blank.
func buildSensitivity(g *risk.SensitivityGrid) [][]any {
	header := append([]any{fmt.Sprintf("%s \\ %s", g.RowParam, g.ColParam)},
		lo.ToAnySlice(g.ColValues)...)

	rows := [][]any{header}
	for i, rv := range g.RowValues {
		row := make([]any, 0, len(g.ColValues)+1)
		row = append(row, rv)
		for j := range g.ColValues {
			if !g.CellOK(i, j) {
				row = append(row, "N/A")
				continue
			}
			row = append(row, g.Values[i][j])
		}
		rows = append(rows, row)
	}
	return rows
}

func buildScenarios(a *risk.ScenarioAnalysis) [][]any {
	rows := [][]any{{"Scenario", "Probability", "Per-Share", "Weighted"}}
	rows = append(rows, lo.Map(a.Results, func(r risk.ScenarioResult, _ int) []any {
		return []any{r.Name, r.Probability, r.PerShare, r.Weighted}
	})...)
	return append(rows, []any{"Expected Value", "", "", a.ExpectedValue})
}

func buildSimulation(r *risk.SimulationResult) [][]any {
	s := r.Summary
	rows := [][]any{
		{"Statistic", "Value"},
		{"Requested", r.Requested},
		{"Completed", r.Completed},
		{"Infeasible", r.Failed},
		{"Mean", s.Mean},
		{"Median", s.Median},
		{"Std Dev", s.StdDev},
		{"Min", s.Min},
		{"Max", s.Max},
		{"P5", s.P5},
		{"P25", s.P25},
		{"P75", s.P75},
		{"P95", s.P95},
		{"P(value < 0)", r.ProbNegative},
		{},
		{"Bin Low", "Bin High", "Count"},
	}
	return append(rows, lo.Map(r.Histogram, func(b risk.HistogramBin, _ int) []any {
		return []any{b.Low, b.High, b.Count}
	})...)
}
