package filter

import (
	"errors"
	"fmt"
)

// ErrUnknownRule is returned when a named rule does not exist
var ErrUnknownRule = errors.New("unknown rule")

// CompilationError indicates a filter expression could not be compiled
type CompilationError struct {
	Expression string
	Reason     string
	Err        error
}

func (e *CompilationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("compilation error in '%s': %s: %v", e.Expression, e.Reason, e.Err)
	}
	return fmt.Sprintf("compilation error in '%s': %s", e.Expression, e.Reason)
}

func (e *CompilationError) Unwrap() error {
	return e.Err
}

// EvaluationError indicates a filter failed at runtime for a product
type EvaluationError struct {
	Expression string
	RetailerID string
	Err        error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation error for '%s' on product %s: %v", e.Expression, e.RetailerID, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}
