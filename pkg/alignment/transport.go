package alignment

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// kernelFloor keeps the Gibbs kernel strictly positive so the scaling
// iterations never divide by zero when cost/reg is large.
const kernelFloor = 1e-100

// OptimalTransportAlignment couples source and target features through an
// entropically regularized transport plan between the uniform empirical
// distributions over features, under the Euclidean activation-profile
// cost. The stored operator is the plan rescaled to be row-stochastic, so
// each target feature is a convex blend of source features.
type OptimalTransportAlignment struct {
	fitState
	reg        float64
	iterations int
	tolerance  float64
	op         *mat.Dense
}

// NewOptimalTransportAlignment returns an unfitted optimal transport
// method configured from opts.
func NewOptimalTransportAlignment(opts Options) *OptimalTransportAlignment {
	return &OptimalTransportAlignment{
		reg:        opts.Reg,
		iterations: opts.SinkhornIterations,
		tolerance:  opts.SinkhornTolerance,
	}
}

// Kind reports the method variant.
func (a *OptimalTransportAlignment) Kind() Method { return OptimalTransport }

// Fit solves the entropic transport problem between the feature sets.
func (a *OptimalTransportAlignment) Fit(X, Y *mat.Dense) error {
	_, p, err := checkFitShapes("optimal transport fit", X, Y)
	if err != nil {
		a.reset()
		return err
	}
	if a.reg <= 0 {
		a.reset()
		return &InvalidConfigError{Op: "optimal transport fit", Reason: "regularization must be positive"}
	}
	if a.iterations <= 0 {
		a.reset()
		return &InvalidConfigError{Op: "optimal transport fit", Reason: "iteration budget must be positive"}
	}

	marginal := make([]float64, p)
	for i := range marginal {
		marginal[i] = 1 / float64(p)
	}
	plan, err := sinkhorn(marginal, marginal, columnDistances(X, Y), a.reg, a.iterations, a.tolerance)
	if err != nil {
		a.reset()
		return fmt.Errorf("optimal transport fit: %w", err)
	}

	// Rescale the plan into a row-stochastic operator on feature-major
	// data: operator row j blends the source features feeding target j.
	op := mat.NewDense(p, p, nil)
	for j := 0; j < p; j++ {
		for i := 0; i < p; i++ {
			op.Set(j, i, float64(p)*plan.At(i, j))
		}
	}
	a.op = op
	a.setFitted(p)
	return nil
}

// Transform maps feature-major input through the transport operator.
func (a *OptimalTransportAlignment) Transform(X *mat.Dense) (*mat.Dense, error) {
	if err := a.requireFitted("optimal transport transform"); err != nil {
		return nil, err
	}
	if err := a.checkInput("optimal transport transform", X); err != nil {
		return nil, err
	}
	var out mat.Dense
	out.Mul(a.op, X)
	return &out, nil
}

// Operator returns the fitted row-stochastic operator. The matrix is
// owned by the aligner and must not be modified.
func (a *OptimalTransportAlignment) Operator() *mat.Dense { return a.op }

// sinkhorn computes the entropic-regularized transport plan between the
// discrete distributions a and b under the given cost, by alternating
// scaling of the Gibbs kernel K = exp(−cost/reg). Iteration stops at the
// fixed budget or once the marginal violation of the current scaling
// falls below tol. The result depends only on the inputs and the budget.
func sinkhorn(a, b []float64, cost *mat.Dense, reg float64, iters int, tol float64) (*mat.Dense, error) {
	n, m := cost.Dims()
	if len(a) != n || len(b) != m {
		return nil, &ShapeMismatchError{Op: "sinkhorn", WantRows: n, WantCols: m, GotRows: len(a), GotCols: len(b)}
	}

	k := mat.NewDense(n, m, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			k.Set(i, j, math.Max(math.Exp(-cost.At(i, j)/reg), kernelFloor))
		}
	}

	u := make([]float64, n)
	v := make([]float64, m)
	for i := range u {
		u[i] = 1
	}
	for j := range v {
		v[j] = 1
	}

	kv := make([]float64, n)
	ktu := make([]float64, m)
	for it := 0; it < iters; it++ {
		for i := 0; i < n; i++ {
			var s float64
			for j := 0; j < m; j++ {
				s += k.At(i, j) * v[j]
			}
			kv[i] = s
		}
		for i := 0; i < n; i++ {
			u[i] = a[i] / kv[i]
		}
		for j := 0; j < m; j++ {
			var s float64
			for i := 0; i < n; i++ {
				s += k.At(i, j) * u[i]
			}
			ktu[j] = s
		}
		// Column-marginal violation of the scaling before the v update:
		// zero exactly when the plan has converged.
		var viol float64
		for j := 0; j < m; j++ {
			viol += math.Abs(v[j]*ktu[j] - b[j])
		}
		for j := 0; j < m; j++ {
			v[j] = b[j] / ktu[j]
		}
		if viol < tol {
			break
		}
	}

	plan := mat.NewDense(n, m, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			plan.Set(i, j, u[i]*k.At(i, j)*v[j])
		}
	}
	return plan, nil
}

type transportJSON struct {
	Reg      float64    `json:"reg"`
	Operator matrixJSON `json:"operator"`
}

// MarshalJSON encodes the fitted state.
func (a *OptimalTransportAlignment) MarshalJSON() ([]byte, error) {
	if err := a.requireFitted("optimal transport marshal"); err != nil {
		return nil, err
	}
	return json.Marshal(transportJSON{Reg: a.reg, Operator: encodeMatrix(a.op)})
}

// UnmarshalJSON restores a fitted optimal transport method.
func (a *OptimalTransportAlignment) UnmarshalJSON(b []byte) error {
	var p transportJSON
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	op, err := p.Operator.decodeSquare()
	if err != nil {
		return fmt.Errorf("optimal transport state: %w", err)
	}
	a.reg = p.Reg
	a.op = op
	rows, _ := op.Dims()
	a.setFitted(rows)
	return nil
}
