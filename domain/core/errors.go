package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input errors
	ErrColumnMissing = errors.New("required column missing")
	ErrColumnType    = errors.New("column has wrong type")
	ErrMissingValue  = errors.New("missing value in required column")
	ErrBadCategory   = errors.New("category value outside Yes/No")

	// Statistical edge cases
	ErrEmptySample      = errors.New("empty sample")
	ErrDegenerateSample = errors.New("degenerate sample")
	ErrSingularFit      = errors.New("singular model fit")
	ErrNoConvergence    = errors.New("model fit did not converge")

	// Determinism errors
	ErrSeedMismatch = errors.New("seed mismatch")
)

// Error constructors with context
func NewColumnMissingError(column string) error {
	return fmt.Errorf("%w: %s", ErrColumnMissing, column)
}

func NewColumnTypeError(column, want string) error {
	return fmt.Errorf("%w: %s is not %s", ErrColumnType, column, want)
}

func NewMissingValueError(column string, row int) error {
	return fmt.Errorf("%w: %s row %d", ErrMissingValue, column, row)
}

func NewBadCategoryError(column, value string, row int) error {
	return fmt.Errorf("%w: %s=%q row %d", ErrBadCategory, column, value, row)
}

func NewEmptySampleError(variable string) error {
	return fmt.Errorf("%w: %s", ErrEmptySample, variable)
}

// Error checking helpers
func IsInputError(err error) bool {
	return errors.Is(err, ErrColumnMissing) ||
		errors.Is(err, ErrColumnType) ||
		errors.Is(err, ErrMissingValue) ||
		errors.Is(err, ErrBadCategory)
}

func IsDegenerateError(err error) bool {
	return errors.Is(err, ErrEmptySample) ||
		errors.Is(err, ErrDegenerateSample) ||
		errors.Is(err, ErrSingularFit)
}
