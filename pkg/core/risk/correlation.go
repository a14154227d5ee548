package risk

import (
	"fmt"
	"math"
	"sort"
)

// psdTolerance absorbs floating-point noise around zero pivots so that
// perfectly correlated (rho = ±1) matrices, which are positive semi-definite
// but singular, still factor, while genuinely indefinite matrices fail.
const psdTolerance = 1e-10

// CorrelationMatrix maps parameter-name pairs to correlation coefficients.
// Symmetric, unit diagonal, coefficients in [-1, 1]. Positive
// semi-definiteness is verified by Cholesky at factorization time; violations
// surface as SingularCorrelationMatrixError, never as a silent clamp.
type CorrelationMatrix struct {
	names []string
	index map[string]int
	m     [][]float64
}

// NewCorrelationMatrix builds an identity correlation over the given
// parameter names. Names are kept in sorted order so draw vectors line up
// deterministically regardless of caller map iteration.
func NewCorrelationMatrix(names []string) (*CorrelationMatrix, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("correlation matrix requires at least one parameter name")
	}
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	index := make(map[string]int, len(sorted))
	for i, n := range sorted {
		if _, dup := index[n]; dup {
			return nil, fmt.Errorf("duplicate parameter name %q", n)
		}
		index[n] = i
	}

	m := make([][]float64, len(sorted))
	for i := range m {
		m[i] = make([]float64, len(sorted))
		m[i][i] = 1
	}
	return &CorrelationMatrix{names: sorted, index: index, m: m}, nil
}

// Names returns the parameter ordering used by the factor and draw vectors.
func (c *CorrelationMatrix) Names() []string {
	return append([]string(nil), c.names...)
}

// Set assigns rho to the (a, b) pair, maintaining symmetry.
func (c *CorrelationMatrix) Set(a, b string, rho float64) error {
	i, ok := c.index[a]
	if !ok {
		return fmt.Errorf("unknown parameter %q in correlation pair", a)
	}
	j, ok := c.index[b]
	if !ok {
		return fmt.Errorf("unknown parameter %q in correlation pair", b)
	}
	if i == j {
		return fmt.Errorf("diagonal of a correlation matrix is fixed at 1")
	}
	if math.IsNaN(rho) || rho < -1 || rho > 1 {
		return fmt.Errorf("correlation coefficient %g for (%s, %s) outside [-1, 1]", rho, a, b)
	}
	c.m[i][j] = rho
	c.m[j][i] = rho
	return nil
}

// Get returns the coefficient for the (a, b) pair, 0 for unknown names.
func (c *CorrelationMatrix) Get(a, b string) float64 {
	i, ok := c.index[a]
	if !ok {
		return 0
	}
	j, ok := c.index[b]
	if !ok {
		return 0
	}
	return c.m[i][j]
}

// Cholesky factors the matrix into lower-triangular L with L·Lᵀ = C.
// Multiplying a vector of independent standard normals by L induces the
// target correlation structure. Fails when the matrix is not positive
// semi-definite.
func (c *CorrelationMatrix) Cholesky() ([][]float64, error) {
	n := len(c.names)
	L := make([][]float64, n)
	for i := range L {
		L[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := c.m[i][j]
			for k := 0; k < j; k++ {
				sum -= L[i][k] * L[j][k]
			}
			if i == j {
				if sum < -psdTolerance {
					return nil, &SingularCorrelationMatrixError{Row: c.names[i]}
				}
				if sum < 0 {
					sum = 0
				}
				L[i][j] = math.Sqrt(sum)
				continue
			}
			if L[j][j] == 0 {
				// Semi-definite rank deficiency: remaining mass in this
				// column must be zero or the matrix is inconsistent.
				if math.Abs(sum) > psdTolerance {
					return nil, &SingularCorrelationMatrixError{Row: c.names[i]}
				}
				L[i][j] = 0
				continue
			}
			L[i][j] = sum / L[j][j]
		}
	}
	return L, nil
}
