package predictor

import (
	"errors"
	"fmt"
	"strings"
)

// MissingInputsError lists every column left blank, in schema order.
type MissingInputsError struct {
	Columns []string
}

func (e *MissingInputsError) Error() string {
	return fmt.Sprintf("missing inputs: %s", strings.Join(e.Columns, ", "))
}

// InvalidValueError is returned when a categorical input matches no label
// and is not a known code.
type InvalidValueError struct {
	Column string
	Value  string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value for %s: %s", e.Column, e.Value)
}

// ParseError is returned when a numeric input is not a finite number.
type ParseError struct {
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid number for %s: %q", e.Column, e.Value)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsValidationError reports whether err stems from user input rather than the model.
func IsValidationError(err error) bool {
	var missing *MissingInputsError
	var invalid *InvalidValueError
	var parse *ParseError
	return errors.As(err, &missing) || errors.As(err, &invalid) || errors.As(err, &parse)
}
