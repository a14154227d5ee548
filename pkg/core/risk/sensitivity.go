package risk

import (
	"encoding/json"
	"errors"
	"math"

	"quantval/pkg/core/dcf"
)

// SensitivityGrid is the cross product of two varied parameters evaluated
// through the DCF engine. Row/column order is exactly the order the caller
// supplied, with no implicit sorting. Infeasible combinations (e.g. growth >=
// rate at a corner of the range) carry NaN in Values and the cell error in
// Errors, so renderers can print "N/A" without the whole grid aborting.
// The JSON wire form is defined by the Marshal/Unmarshal methods below, since
// encoding/json cannot represent the in-memory NaN cells.
type SensitivityGrid struct {
	RowParam  string
	ColParam  string
	RowValues []float64
	ColValues []float64
	Values    [][]float64
	Errors    [][]error
}

// sensitivityGridJSON is the wire form: JSON has no NaN, so infeasible cells
// travel as null values paired with a per-cell error message.
type sensitivityGridJSON struct {
	RowParam  string       `json:"row_param"`
	ColParam  string       `json:"col_param"`
	RowValues []float64    `json:"row_values"`
	ColValues []float64    `json:"col_values"`
	Values    [][]*float64 `json:"values"`
	Errors    [][]string   `json:"errors"`
}

func (g *SensitivityGrid) MarshalJSON() ([]byte, error) {
	out := sensitivityGridJSON{
		RowParam:  g.RowParam,
		ColParam:  g.ColParam,
		RowValues: g.RowValues,
		ColValues: g.ColValues,
		Values:    make([][]*float64, len(g.Values)),
		Errors:    make([][]string, len(g.Values)),
	}
	for i := range g.Values {
		out.Values[i] = make([]*float64, len(g.Values[i]))
		out.Errors[i] = make([]string, len(g.Values[i]))
		for j := range g.Values[i] {
			if g.Errors[i][j] != nil {
				out.Errors[i][j] = g.Errors[i][j].Error()
				continue
			}
			v := g.Values[i][j]
			out.Values[i][j] = &v
		}
	}
	return json.Marshal(out)
}

func (g *SensitivityGrid) UnmarshalJSON(data []byte) error {
	var in sensitivityGridJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	g.RowParam = in.RowParam
	g.ColParam = in.ColParam
	g.RowValues = in.RowValues
	g.ColValues = in.ColValues
	g.Values = make([][]float64, len(in.Values))
	g.Errors = make([][]error, len(in.Values))
	for i := range in.Values {
		g.Values[i] = make([]float64, len(in.Values[i]))
		g.Errors[i] = make([]error, len(in.Values[i]))
		for j, v := range in.Values[i] {
			if v != nil {
				g.Values[i][j] = *v
				continue
			}
			g.Values[i][j] = math.NaN()
			msg := "infeasible cell"
			if i < len(in.Errors) && j < len(in.Errors[i]) && in.Errors[i][j] != "" {
				msg = in.Errors[i][j]
			}
			g.Errors[i][j] = errors.New(msg)
		}
	}
	return nil
}

// CellOK reports whether the cell at (i, j) evaluated successfully.
func (g *SensitivityGrid) CellOK(i, j int) bool {
	return g.Errors[i][j] == nil
}

// Sensitivity evaluates per-share value over every (row, col) override pair.
// Deterministic: identical inputs produce an identical grid. An unknown
// parameter name fails the whole call; per-cell evaluation errors do not.
func Sensitivity(base dcf.ValuationParameters, rowParam string, rowValues []float64, colParam string, colValues []float64) (*SensitivityGrid, error) {
	if err := knownField(rowParam); err != nil {
		return nil, err
	}
	if err := knownField(colParam); err != nil {
		return nil, err
	}

	grid := &SensitivityGrid{
		RowParam:  rowParam,
		ColParam:  colParam,
		RowValues: append([]float64(nil), rowValues...),
		ColValues: append([]float64(nil), colValues...),
		Values:    make([][]float64, len(rowValues)),
		Errors:    make([][]error, len(rowValues)),
	}

	for i, rv := range rowValues {
		grid.Values[i] = make([]float64, len(colValues))
		grid.Errors[i] = make([]error, len(colValues))
		for j, cv := range colValues {
			p, err := base.Apply(map[string]float64{rowParam: rv, colParam: cv})
			if err == nil {
				var ps float64
				ps, err = dcf.PerShare(p)
				if err == nil {
					grid.Values[i][j] = ps
					continue
				}
			}
			grid.Values[i][j] = math.NaN()
			grid.Errors[i][j] = err
		}
	}
	return grid, nil
}

func knownField(name string) error {
	for _, f := range dcf.FieldNames {
		if f == name {
			return nil
		}
	}
	return &dcf.InvalidParameterError{Field: name, Reason: "unknown parameter name"}
}
