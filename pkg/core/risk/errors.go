package risk

import "fmt"

// InsufficientIterationsError rejects Monte Carlo sample sizes below the
// statistical-significance floor.
type InsufficientIterationsError struct {
	Requested int
	Floor     int
}

func (e *InsufficientIterationsError) Error() string {
	return fmt.Sprintf("insufficient iterations: %d requested, floor is %d", e.Requested, e.Floor)
}

// InconsistentProbabilitiesError reports a scenario set whose weights do not
// sum to 1 within tolerance.
type InconsistentProbabilitiesError struct {
	Sum float64
}

func (e *InconsistentProbabilitiesError) Error() string {
	return fmt.Sprintf("scenario probabilities sum to %.6f, expected 1.0", e.Sum)
}

// SingularCorrelationMatrixError reports a correlation matrix that is not
// positive semi-definite and therefore has no Cholesky factor.
type SingularCorrelationMatrixError struct {
	Row string
}

func (e *SingularCorrelationMatrixError) Error() string {
	return fmt.Sprintf("correlation matrix is not positive semi-definite (pivot failed at %q)", e.Row)
}
