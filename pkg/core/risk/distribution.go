// Package risk layers sensitivity grids, probability-weighted scenarios and
// correlated Monte Carlo simulation on top of the dcf valuation engine. Every
// technique re-evaluates dcf.Evaluate under perturbed inputs and never
// bypasses it.
package risk

import (
	"math"

	"quantval/pkg/core/dcf"
)

// DistributionKind is the closed set of supported marginal distributions.
type DistributionKind string

const (
	DistNormal     DistributionKind = "normal"
	DistTriangular DistributionKind = "triangular"
	DistUniform    DistributionKind = "uniform"
	DistLognormal  DistributionKind = "lognormal"
)

// Distribution is a tagged variant over the four supported shapes. Construct
// through the typed constructors so shape invariants hold; adding a kind is a
// compile-time extension of Sample, not a string branch scattered elsewhere.
type Distribution struct {
	Kind DistributionKind `json:"kind"`

	// Normal
	Mean   float64 `json:"mean,omitempty"`
	StdDev float64 `json:"stddev,omitempty"`

	// Triangular / Uniform
	Min  float64 `json:"min,omitempty"`
	Mode float64 `json:"mode,omitempty"`
	Max  float64 `json:"max,omitempty"`

	// Lognormal
	Mu    float64 `json:"mu,omitempty"`
	Sigma float64 `json:"sigma,omitempty"`
}

// Normal builds a Normal(mean, stddev) spec. A zero stddev is legal and
// degenerates to the point value mean.
func Normal(mean, stddev float64) (Distribution, error) {
	if stddev < 0 {
		return Distribution{}, &dcf.InvalidParameterError{Field: "stddev", Value: stddev, Reason: "standard deviation cannot be negative"}
	}
	return Distribution{Kind: DistNormal, Mean: mean, StdDev: stddev}, nil
}

// Triangular builds a Triangular(min, mode, max) spec; min <= mode <= max.
// min == mode == max is legal and degenerates to the point value.
func Triangular(min, mode, max float64) (Distribution, error) {
	if !(min <= mode && mode <= max) {
		return Distribution{}, &dcf.InvalidParameterError{Field: "mode", Value: mode, Reason: "triangular requires min <= mode <= max"}
	}
	return Distribution{Kind: DistTriangular, Min: min, Mode: mode, Max: max}, nil
}

// Uniform builds a Uniform(min, max) spec; min == max degenerates to a point.
func Uniform(min, max float64) (Distribution, error) {
	if min > max {
		return Distribution{}, &dcf.InvalidParameterError{Field: "min", Value: min, Reason: "uniform requires min <= max"}
	}
	return Distribution{Kind: DistUniform, Min: min, Max: max}, nil
}

// Lognormal builds a Lognormal(mu, sigma) spec over the log-space parameters.
func Lognormal(mu, sigma float64) (Distribution, error) {
	if sigma < 0 {
		return Distribution{}, &dcf.InvalidParameterError{Field: "sigma", Value: sigma, Reason: "sigma cannot be negative"}
	}
	return Distribution{Kind: DistLognormal, Mu: mu, Sigma: sigma}, nil
}

// Validate re-checks the shape invariants the constructors enforce. Needed
// for specs decoded straight from JSON, which never pass through a
// constructor.
func (d Distribution) Validate() error {
	var err error
	switch d.Kind {
	case DistNormal:
		_, err = Normal(d.Mean, d.StdDev)
	case DistTriangular:
		_, err = Triangular(d.Min, d.Mode, d.Max)
	case DistUniform:
		_, err = Uniform(d.Min, d.Max)
	case DistLognormal:
		_, err = Lognormal(d.Mu, d.Sigma)
	default:
		err = &dcf.InvalidParameterError{Field: "kind", Reason: "unsupported distribution kind " + string(d.Kind)}
	}
	return err
}

// Degenerate reports whether every draw collapses to the same value.
func (d Distribution) Degenerate() bool {
	switch d.Kind {
	case DistNormal:
		return d.StdDev == 0
	case DistTriangular:
		return d.Min == d.Max
	case DistUniform:
		return d.Min == d.Max
	case DistLognormal:
		return d.Sigma == 0
	}
	return false
}

// Sample maps one standard-normal draw z into this marginal distribution.
// Normal and lognormal use the direct affine/exponential transform; uniform
// and triangular go through the probability integral transform Phi(z) and the
// shape's inverse CDF. Degenerate shapes return the point value exactly, with
// no floating-point noise, so a zero-variance simulation reproduces the
// deterministic result bit-for-bit.
func (d Distribution) Sample(z float64) float64 {
	switch d.Kind {
	case DistNormal:
		if d.StdDev == 0 {
			return d.Mean
		}
		return d.Mean + d.StdDev*z
	case DistLognormal:
		if d.Sigma == 0 {
			return math.Exp(d.Mu)
		}
		return math.Exp(d.Mu + d.Sigma*z)
	case DistUniform:
		if d.Min == d.Max {
			return d.Min
		}
		return d.Min + (d.Max-d.Min)*stdNormalCDF(z)
	case DistTriangular:
		if d.Min == d.Max {
			return d.Min
		}
		return triangularInvCDF(stdNormalCDF(z), d.Min, d.Mode, d.Max)
	}
	return math.NaN()
}

// stdNormalCDF is Phi(z), computed via the complementary error function.
func stdNormalCDF(z float64) float64 {
	return 0.5 * math.Erfc(-z/math.Sqrt2)
}

// triangularInvCDF inverts the triangular CDF at probability u.
func triangularInvCDF(u, min, mode, max float64) float64 {
	span := max - min
	cut := (mode - min) / span
	if u <= cut {
		return min + math.Sqrt(u*span*(mode-min))
	}
	return max - math.Sqrt((1-u)*span*(max-mode))
}
