// Package alignment implements functional alignment between paired sample
// matrices: closed-form and iterative solvers together with the stateful
// fit/transform method objects built on them.
//
// Fit takes two sample-major matrices of identical shape (n_samples ×
// n_features) whose rows are paired observations. Transform takes
// feature-major input (n_features × m) and applies the learned operator on
// the left, so a fitted method maps source feature space onto target
// feature space one column at a time.
package alignment

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Method enumerates the supported alignment variants. The set is closed:
// constructing an Aligner goes through this tag, never through an open
// registry.
type Method int

const (
	// Identity leaves the data untouched.
	Identity Method = iota
	// Permutation maps each target feature to its best one-to-one source
	// feature by minimum-cost linear assignment.
	Permutation
	// ScaledOrthogonal solves the scaled orthogonal Procrustes problem.
	ScaledOrthogonal
	// OptimalTransport couples source and target features through an
	// entropically regularized transport plan.
	OptimalTransport
	// Ridge learns a dense linear map with an L2 penalty.
	Ridge
)

var methodNames = [...]string{
	Identity:         "identity",
	Permutation:      "permutation",
	ScaledOrthogonal: "scaled_orthogonal",
	OptimalTransport: "optimal_transport",
	Ridge:            "ridge",
}

// String returns the configuration-surface name of the method.
func (m Method) String() string {
	if m >= 0 && int(m) < len(methodNames) {
		return methodNames[m]
	}
	return fmt.Sprintf("method(%d)", int(m))
}

// ParseMethod maps a configuration name to its Method tag.
func ParseMethod(name string) (Method, error) {
	for m, s := range methodNames {
		if s == name {
			return Method(m), nil
		}
	}
	return 0, fmt.Errorf("%q: %w", name, ErrUnknownMethod)
}

// Options configures the solvers behind the method objects. The zero value
// is not useful; start from DefaultOptions.
type Options struct {
	// Scaling enables the global scale factor of the scaled orthogonal
	// method. Off by default.
	Scaling bool

	// Reg is the entropic regularization strength of the optimal
	// transport method.
	Reg float64

	// SinkhornIterations bounds the Sinkhorn scaling loop. The bound is
	// part of the method configuration so transport plans stay
	// reproducible for fixed inputs.
	SinkhornIterations int

	// SinkhornTolerance stops the scaling loop early once the marginal
	// violation falls below it.
	SinkhornTolerance float64

	// RidgeAlphas are the candidate L2 penalties for the ridge method. A
	// single entry fixes the penalty; several entries select by
	// cross-validation.
	RidgeAlphas []float64

	// RidgeCVFolds is the fold count for ridge cross-validation over
	// samples. Folds are contiguous row blocks, so selection is
	// deterministic.
	RidgeCVFolds int
}

// DefaultOptions returns the default method configuration.
func DefaultOptions() Options {
	return Options{
		Scaling:            false,
		Reg:                1.0,
		SinkhornIterations: 1000,
		SinkhornTolerance:  1e-9,
		RidgeAlphas:        []float64{0.1, 1, 10, 100, 1000},
		RidgeCVFolds:       4,
	}
}

// Aligner is the uniform contract shared by all alignment method objects.
// Fit may be called repeatedly; each successful call replaces the stored
// state. Transform is a pure function of the stored state and its input.
type Aligner interface {
	// Fit learns the transformation from paired sample-major matrices of
	// identical shape (n_samples × n_features).
	Fit(X, Y *mat.Dense) error

	// Transform applies the learned transformation to feature-major input
	// (n_features × m) and returns a matrix of the same shape. It fails
	// with a NotFittedError before a successful Fit.
	Transform(X *mat.Dense) (*mat.Dense, error)

	// Kind reports the method variant.
	Kind() Method
}

// New constructs the method object for the given variant.
func New(m Method, opts Options) (Aligner, error) {
	switch m {
	case Identity:
		return NewIdentityAlignment(), nil
	case Permutation:
		return NewPermutationAlignment(), nil
	case ScaledOrthogonal:
		return NewScaledOrthogonalAlignment(opts), nil
	case OptimalTransport:
		return NewOptimalTransportAlignment(opts), nil
	case Ridge:
		return NewRidgeAlignment(opts), nil
	}
	return nil, fmt.Errorf("%s: %w", m, ErrUnknownMethod)
}

// fitState tracks fitted-ness explicitly rather than inferring it from
// attribute presence. Embedded by every method object.
type fitState struct {
	fitted   bool
	features int
}

func (s *fitState) setFitted(p int) {
	s.fitted = true
	s.features = p
}

func (s *fitState) reset() {
	s.fitted = false
	s.features = 0
}

func (s *fitState) requireFitted(op string) error {
	if !s.fitted {
		return &NotFittedError{Op: op}
	}
	return nil
}

// checkInput validates feature-major transform input against the fitted
// feature count.
func (s *fitState) checkInput(op string, X *mat.Dense) error {
	r, c := X.Dims()
	if r != s.features {
		return &ShapeMismatchError{Op: op, WantRows: s.features, WantCols: c, GotRows: r, GotCols: c}
	}
	return nil
}

// checkFitShapes validates that X and Y are sample-major matrices of
// identical shape and returns their dimensions.
func checkFitShapes(op string, X, Y *mat.Dense) (n, p int, err error) {
	n, p = X.Dims()
	yr, yc := Y.Dims()
	if yr != n || yc != p {
		return 0, 0, &ShapeMismatchError{Op: op, WantRows: n, WantCols: p, GotRows: yr, GotCols: yc}
	}
	return n, p, nil
}

// eye returns the p×p identity matrix.
func eye(p int) *mat.Dense {
	m := mat.NewDense(p, p, nil)
	for i := 0; i < p; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// columnDistances returns the p×p matrix of Euclidean distances between
// the activation profiles (columns) of X and Y.
func columnDistances(X, Y *mat.Dense) *mat.Dense {
	n, p := X.Dims()
	d := mat.NewDense(p, p, nil)
	for i := 0; i < p; i++ {
		for j := 0; j < p; j++ {
			var s float64
			for k := 0; k < n; k++ {
				diff := X.At(k, i) - Y.At(k, j)
				s += diff * diff
			}
			d.Set(i, j, math.Sqrt(s))
		}
	}
	return d
}
