package risk

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestNormalSample(t *testing.T) {
	d, err := Normal(0.09, 0.01)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := d.Sample(0); got != 0.09 {
		t.Errorf("z=0 must map to the mean, got %g", got)
	}
	if got := d.Sample(2); !almostEqual(got, 0.11, 1e-12) {
		t.Errorf("z=2 expected 0.11, got %g", got)
	}
	if got := d.Sample(-2); !almostEqual(got, 0.07, 1e-12) {
		t.Errorf("z=-2 expected 0.07, got %g", got)
	}
}

func TestLognormalSample(t *testing.T) {
	d, err := Lognormal(1.5, 0.4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := d.Sample(0); !almostEqual(got, math.Exp(1.5), 1e-12) {
		t.Errorf("z=0 expected exp(mu), got %g", got)
	}
	if got := d.Sample(1); !almostEqual(got, math.Exp(1.9), 1e-12) {
		t.Errorf("z=1 expected exp(mu+sigma), got %g", got)
	}
}

func TestUniformSample(t *testing.T) {
	d, err := Uniform(2, 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := d.Sample(0); !almostEqual(got, 4, 1e-9) {
		t.Errorf("z=0 maps to the midpoint, got %g", got)
	}
	// Extreme draws stay inside the support.
	for _, z := range []float64{-8, -3, 3, 8} {
		got := d.Sample(z)
		if got < 2 || got > 6 {
			t.Errorf("z=%g: sample %g escaped [2, 6]", z, got)
		}
	}
}

func TestTriangularSample(t *testing.T) {
	d, err := Triangular(1, 2, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// At u = F(mode) = (mode-min)/(max-min) = 0.25 the inverse CDF returns the mode.
	zAtCut := math.Sqrt2 * math.Erfinv(2*0.25-1)
	if got := d.Sample(zAtCut); !almostEqual(got, 2, 1e-6) {
		t.Errorf("inverse CDF at the mode cut expected 2, got %g", got)
	}
	for _, z := range []float64{-8, -1, 0, 1, 8} {
		got := d.Sample(z)
		if got < 1 || got > 5 {
			t.Errorf("z=%g: sample %g escaped [1, 5]", z, got)
		}
	}
}

func TestDegenerateDistributionsCollapseExactly(t *testing.T) {
	cases := []struct {
		name string
		d    Distribution
		want float64
	}{
		{"normal zero stddev", mustDist(Normal(0.0942, 0)), 0.0942},
		{"triangular point", mustDist(Triangular(0.025, 0.025, 0.025)), 0.025},
		{"uniform point", mustDist(Uniform(7430, 7430)), 7430},
		{"lognormal zero sigma", mustDist(Lognormal(0, 0)), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !tc.d.Degenerate() {
				t.Fatal("expected Degenerate() to report true")
			}
			for _, z := range []float64{-3, -0.5, 0, 0.5, 3} {
				if got := tc.d.Sample(z); got != tc.want {
					t.Fatalf("z=%g: degenerate sample must be exact, got %g want %g", z, got, tc.want)
				}
			}
		})
	}
}

func TestDistributionConstructorsReject(t *testing.T) {
	if _, err := Normal(0, -0.1); err == nil {
		t.Error("negative stddev accepted")
	}
	if _, err := Triangular(1, 0.5, 2); err == nil {
		t.Error("mode below min accepted")
	}
	if _, err := Triangular(1, 3, 2); err == nil {
		t.Error("mode above max accepted")
	}
	if _, err := Uniform(2, 1); err == nil {
		t.Error("min above max accepted")
	}
	if _, err := Lognormal(0, -1); err == nil {
		t.Error("negative sigma accepted")
	}
}

func TestDistributionValidate(t *testing.T) {
	// Shapes assembled directly (as JSON decoding does) go through Validate.
	bad := Distribution{Kind: DistTriangular, Min: 1, Mode: 5, Max: 2}
	if err := bad.Validate(); err == nil {
		t.Error("invalid triangular shape passed Validate")
	}
	if err := (Distribution{Kind: "cauchy"}).Validate(); err == nil {
		t.Error("unknown kind passed Validate")
	}
	ok := Distribution{Kind: DistNormal, Mean: 0.1, StdDev: 0.01}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid shape rejected: %v", err)
	}
}

func mustDist(d Distribution, err error) Distribution {
	if err != nil {
		panic(err)
	}
	return d
}
