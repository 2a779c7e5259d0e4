package alignment

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks across package boundaries.
var (
	// ErrShapeMismatch reports inputs whose dimensions disagree where
	// equality is required.
	ErrShapeMismatch = errors.New("alignment: shape mismatch")

	// ErrNotFitted reports use of a method object before a successful Fit.
	ErrNotFitted = errors.New("alignment: estimator is not fitted")

	// ErrInvalidConfig reports an unusable option or parameter value.
	ErrInvalidConfig = errors.New("alignment: invalid configuration")

	// ErrUnknownMethod reports an alignment method name or tag outside the
	// supported set. It matches ErrInvalidConfig under errors.Is.
	ErrUnknownMethod = fmt.Errorf("%w: unknown alignment method", ErrInvalidConfig)
)

// ShapeMismatchError carries the expected and observed dimensions of a
// failed shape check. It matches ErrShapeMismatch under errors.Is.
type ShapeMismatchError struct {
	Op       string
	WantRows int
	WantCols int
	GotRows  int
	GotCols  int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: shape mismatch: want %dx%d, got %dx%d",
		e.Op, e.WantRows, e.WantCols, e.GotRows, e.GotCols)
}

func (e *ShapeMismatchError) Unwrap() error { return ErrShapeMismatch }

// NotFittedError reports a Transform or state access on an estimator that
// has not completed a successful Fit. It matches ErrNotFitted.
type NotFittedError struct {
	Op string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("%s: estimator is not fitted", e.Op)
}

func (e *NotFittedError) Unwrap() error { return ErrNotFitted }

// InvalidConfigError reports a configuration value that can never work,
// such as a non-positive region count. It matches ErrInvalidConfig.
type InvalidConfigError struct {
	Op     string
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }
