// calc-engine is a sidecar binary: JSON analysis request in (flag or stdin),
// JSON result out on stdout. Frontends and batch scripts shell out to it
// without linking the module.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"quantval/pkg/core/dcf"
	"quantval/pkg/core/preset"
	"quantval/pkg/core/risk"
)

type Request struct {
	Parameters    dcf.ValuationParameters      `json:"parameters"`
	Scenarios     []risk.Scenario              `json:"scenarios"`
	Distributions map[string]risk.Distribution `json:"distributions"`
	Correlations  []preset.CorrelationSpec     `json:"correlations"`
	Iterations    int                          `json:"iterations"`
	Seed          int64                        `json:"seed"`
}

func main() {
	mode := flag.String("mode", "evaluate", "Mode: evaluate, scenarios or simulate")
	dataStr := flag.String("data", "", "JSON request payload (reads stdin when empty)")
	presetPath := flag.String("preset", "", "HJSON preset file (overrides -data)")
	flag.Parse()

	req, err := loadRequest(*dataStr, *presetPath)
	if err != nil {
		fail(err)
	}

	switch *mode {
	case "evaluate":
		v, err := dcf.Evaluate(req.Parameters)
		if err != nil {
			fail(err)
		}
		emit(v)
	case "scenarios":
		a, err := risk.EvaluateScenarios(req.Parameters, req.Scenarios)
		if err != nil {
			fail(err)
		}
		emit(a)
	case "simulate":
		corr, err := buildCorrelation(req)
		if err != nil {
			fail(err)
		}
		res, err := risk.Simulate(context.Background(), req.Parameters, req.Distributions, corr,
			risk.SimulationOptions{Iterations: req.Iterations, Seed: req.Seed})
		if err != nil {
			fail(err)
		}
		emit(res)
	default:
		fail(fmt.Errorf("unknown mode: %s", *mode))
	}
}

func loadRequest(dataStr, presetPath string) (*Request, error) {
	if presetPath != "" {
		p, err := preset.Load(presetPath)
		if err != nil {
			return nil, err
		}
		dists, err := p.RiskDistributions()
		if err != nil {
			return nil, err
		}
		return &Request{
			Parameters:    p.Parameters,
			Scenarios:     p.RiskScenarios(),
			Distributions: dists,
			Correlations:  p.Correlations,
			Iterations:    p.Iterations,
		}, nil
	}

	raw := []byte(dataStr)
	if len(raw) == 0 {
		var err error
		raw, err = io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("no request provided")
	}

	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("unmarshaling request: %w", err)
	}
	return &req, nil
}

func buildCorrelation(req *Request) (*risk.CorrelationMatrix, error) {
	if len(req.Correlations) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(req.Distributions))
	for name := range req.Distributions {
		names = append(names, name)
	}
	corr, err := risk.NewCorrelationMatrix(names)
	if err != nil {
		return nil, err
	}
	for _, c := range req.Correlations {
		if err := corr.Set(c.A, c.B, c.Rho); err != nil {
			return nil, err
		}
	}
	return corr, nil
}

func emit(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
