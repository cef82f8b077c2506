package model

import (
	"errors"
	"fmt"
)

// ErrNumeric is the sentinel for numeric-instability failures. A NaN or
// infinity in any intermediate tensor aborts the pass; the corrupted value
// is never propagated to the final output.
var ErrNumeric = errors.New("numeric instability")

// NumericError reports the forward or relevance stage where a NaN appeared.
type NumericError struct {
	Stage string
}

func (e *NumericError) Error() string {
	return fmt.Sprintf("model: NaN detected at stage %q", e.Stage)
}

func (e *NumericError) Unwrap() error { return ErrNumeric }

// ErrInputTooLong reports an input exceeding the configured maximum length.
var ErrInputTooLong = errors.New("input exceeds maximum length")

// ShapeError reports a weight store tensor that does not match the schema.
type ShapeError struct {
	Name string
	Want []int
	Got  []int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("model: tensor %q has shape %v, want %v", e.Name, e.Got, e.Want)
}
