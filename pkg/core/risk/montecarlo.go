package risk

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sort"

	"quantval/pkg/core/dcf"
)

const (
	// MinIterations is the hard floor on Monte Carlo sample size, matching
	// the domain's statistical-significance convention.
	MinIterations = 10000

	// DefaultBins is the histogram bucket count when the caller leaves it 0.
	DefaultBins = 20
)

// SimulationOptions tunes a Monte Carlo run. Zero values pick defaults:
// MinIterations draws, one worker per CPU, DefaultBins buckets, seed 42
// (reproducible by default, matching the reference engine).
type SimulationOptions struct {
	Iterations int   `json:"iterations"`
	Seed       int64 `json:"seed"`
	Workers    int   `json:"workers"`
	Bins       int   `json:"bins"`
}

// SimulationResult is the full outcome of a Monte Carlo run. Values is the
// ascending-sorted sequence of successful per-share draws; the caller owns it
// once returned. Failed counts draws whose sampled combination was infeasible
// for the DCF model (excluded from the statistics). Partial is set when the
// run was cancelled after reaching the floor but before Requested draws;
// statistics over fewer draws than declared are never reported silently.
type SimulationResult struct {
	Values       []float64      `json:"values"`
	Summary      Summary        `json:"summary"`
	Histogram    []HistogramBin `json:"histogram"`
	Requested    int            `json:"requested"`
	Completed    int            `json:"completed"`
	Failed       int            `json:"failed"`
	Partial      bool           `json:"partial"`
	ProbNegative float64        `json:"prob_negative"`
}

// Simulate draws correlated parameter vectors from the declared marginals,
// evaluates the DCF engine per draw, and aggregates the distribution of
// per-share values.
//
// Draws are independent pure computations, so they fan out across Workers
// goroutines with per-worker rand streams and per-worker buffers; results are
// concatenated and sorted before aggregation, which makes the statistics
// independent of scheduling order. corr may be nil for independent sampling.
func Simulate(ctx context.Context, base dcf.ValuationParameters, dists map[string]Distribution, corr *CorrelationMatrix, opts SimulationOptions) (*SimulationResult, error) {
	iterations := opts.Iterations
	if iterations == 0 {
		iterations = MinIterations
	}
	if iterations < MinIterations {
		return nil, &InsufficientIterationsError{Requested: iterations, Floor: MinIterations}
	}
	if len(dists) == 0 {
		return nil, &dcf.InvalidParameterError{Field: "distributions", Reason: "at least one varied parameter is required"}
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}

	names, L, err := correlationFactor(dists, corr)
	if err != nil {
		return nil, err
	}
	ordered := make([]Distribution, len(names))
	for i, n := range names {
		if err := knownField(n); err != nil {
			return nil, err
		}
		if err := dists[n].Validate(); err != nil {
			return nil, err
		}
		ordered[i] = dists[n]
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > iterations {
		workers = iterations
	}
	seed := opts.Seed
	if seed == 0 {
		seed = 42
	}

	type chunk struct {
		values []float64
		failed int
	}
	results := make(chan chunk, workers)

	per := iterations / workers
	extra := iterations % workers
	for w := 0; w < workers; w++ {
		n := per
		if w < extra {
			n++
		}
		go func(worker, draws int) {
			rng := rand.New(rand.NewSource(seed + int64(worker)))
			out := chunk{values: make([]float64, 0, draws)}
			z := make([]float64, len(names))
			overrides := make(map[string]float64, len(names))

			for i := 0; i < draws; i++ {
				if ctx.Err() != nil {
					break
				}
				for k := range z {
					z[k] = rng.NormFloat64()
				}
				for k, name := range names {
					overrides[name] = ordered[k].Sample(correlate(L, z, k))
				}
				p, err := base.Apply(overrides)
				if err != nil {
					out.failed++
					continue
				}
				ps, err := dcf.PerShare(p)
				if err != nil {
					out.failed++
					continue
				}
				out.values = append(out.values, ps)
			}
			results <- out
		}(w, n)
	}

	var values []float64
	failed := 0
	for w := 0; w < workers; w++ {
		c := <-results
		values = append(values, c.values...)
		failed += c.failed
	}

	completed := len(values) + failed
	if completed < iterations && completed < MinIterations {
		// Interrupted below the floor: refuse to report statistics.
		return nil, fmt.Errorf("simulation interrupted after %d of %d draws: %w", completed, iterations, ctx.Err())
	}

	sort.Float64s(values)

	bins := opts.Bins
	if bins <= 0 {
		bins = DefaultBins
	}

	negative := sort.SearchFloat64s(values, 0)
	probNeg := 0.0
	if len(values) > 0 {
		probNeg = float64(negative) / float64(len(values))
	}

	return &SimulationResult{
		Values:       values,
		Summary:      Summarize(values),
		Histogram:    BuildHistogram(values, bins),
		Requested:    iterations,
		Completed:    completed,
		Failed:       failed,
		Partial:      completed < iterations,
		ProbNegative: probNeg,
	}, nil
}

// correlationFactor returns the parameter ordering and the Cholesky factor to
// apply per draw. With no correlation declared, the factor is nil and draws
// stay independent.
func correlationFactor(dists map[string]Distribution, corr *CorrelationMatrix) ([]string, [][]float64, error) {
	if corr == nil {
		names := make([]string, 0, len(dists))
		for n := range dists {
			names = append(names, n)
		}
		sort.Strings(names)
		return names, nil, nil
	}

	names := corr.Names()
	if len(names) != len(dists) {
		return nil, nil, fmt.Errorf("correlation matrix covers %d parameters, distributions declare %d", len(names), len(dists))
	}
	for _, n := range names {
		if _, ok := dists[n]; !ok {
			return nil, nil, fmt.Errorf("correlation matrix names %q which has no distribution", n)
		}
	}

	L, err := corr.Cholesky()
	if err != nil {
		return nil, nil, err
	}
	return names, L, nil
}

// correlate computes row k of L·z, or passes z[k] through when independent.
func correlate(L [][]float64, z []float64, k int) float64 {
	if L == nil {
		return z[k]
	}
	var sum float64
	for j := 0; j <= k; j++ {
		sum += L[k][j] * z[j]
	}
	return sum
}
