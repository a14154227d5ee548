package dcf

import "fmt"

// InvalidParameterError reports a valuation input that fails its invariant.
// Field and Value carry enough context for a precise user-facing message.
type InvalidParameterError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%g: %s", e.Field, e.Value, e.Reason)
}

func invalidParam(field string, value float64, reason string) error {
	return &InvalidParameterError{Field: field, Value: value, Reason: reason}
}
