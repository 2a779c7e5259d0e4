package alignment

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// RidgeAlignment learns an unconstrained dense map W minimizing
// ||X·Wᵀ − Y||²_F + α||W||²_F. With several candidate penalties it picks
// the one minimizing held-out squared error under contiguous k-fold
// cross-validation over samples, then refits on the full data.
type RidgeAlignment struct {
	fitState
	alphas []float64
	folds  int
	coef   *mat.Dense
	alpha  float64
}

// NewRidgeAlignment returns an unfitted ridge method configured from opts.
func NewRidgeAlignment(opts Options) *RidgeAlignment {
	return &RidgeAlignment{
		alphas: append([]float64(nil), opts.RidgeAlphas...),
		folds:  opts.RidgeCVFolds,
	}
}

// Kind reports the method variant.
func (a *RidgeAlignment) Kind() Method { return Ridge }

// Fit selects the penalty and solves the regularized normal equations.
func (a *RidgeAlignment) Fit(X, Y *mat.Dense) error {
	n, p, err := checkFitShapes("ridge fit", X, Y)
	if err != nil {
		a.reset()
		return err
	}
	if len(a.alphas) == 0 {
		a.reset()
		return &InvalidConfigError{Op: "ridge fit", Reason: "no candidate penalties"}
	}
	for _, alpha := range a.alphas {
		if alpha < 0 || math.IsNaN(alpha) {
			a.reset()
			return &InvalidConfigError{Op: "ridge fit", Reason: fmt.Sprintf("invalid penalty %v", alpha)}
		}
	}
	if a.folds < 0 {
		a.reset()
		return &InvalidConfigError{Op: "ridge fit", Reason: "negative fold count"}
	}

	alpha := a.alphas[0]
	if len(a.alphas) > 1 && a.folds >= 2 && n >= a.folds {
		alpha, err = a.selectAlpha(X, Y, n, p)
		if err != nil {
			a.reset()
			return fmt.Errorf("ridge fit: %w", err)
		}
	}

	coef, err := solveRidge(X, Y, alpha)
	if err != nil {
		a.reset()
		return fmt.Errorf("ridge fit: %w", err)
	}
	a.coef = coef
	a.alpha = alpha
	a.setFitted(p)
	return nil
}

// selectAlpha cross-validates the candidate penalties on contiguous row
// folds and returns the one with the smallest summed held-out error.
// Ties go to the earliest candidate, keeping selection deterministic.
func (a *RidgeAlignment) selectAlpha(X, Y *mat.Dense, n, p int) (float64, error) {
	best := a.alphas[0]
	bestErr := math.Inf(1)
	for _, alpha := range a.alphas {
		var sse float64
		for f := 0; f < a.folds; f++ {
			lo := f * n / a.folds
			hi := (f + 1) * n / a.folds
			if lo == hi {
				continue
			}
			trainX, testX := splitRows(X, lo, hi, p)
			trainY, testY := splitRows(Y, lo, hi, p)
			coef, err := solveRidge(trainX, trainY, alpha)
			if err != nil {
				return 0, err
			}
			var pred mat.Dense
			pred.Mul(testX, coef.T())
			pred.Sub(&pred, testY)
			norm := mat.Norm(&pred, 2)
			sse += norm * norm
		}
		if sse < bestErr {
			bestErr = sse
			best = alpha
		}
	}
	return best, nil
}

// splitRows partitions the rows of m into the held-out block [lo, hi) and
// the remaining training rows.
func splitRows(m *mat.Dense, lo, hi, cols int) (train, test *mat.Dense) {
	rows, _ := m.Dims()
	train = mat.NewDense(rows-(hi-lo), cols, nil)
	test = mat.NewDense(hi-lo, cols, nil)
	ti := 0
	for r := 0; r < rows; r++ {
		if r >= lo && r < hi {
			test.SetRow(r-lo, m.RawRowView(r))
			continue
		}
		train.SetRow(ti, m.RawRowView(r))
		ti++
	}
	return train, test
}

// solveRidge solves (XᵀX + αI)·Wᵀ = XᵀY for W. The Gram matrix is
// symmetric positive definite for α > 0, so Cholesky is tried first with
// a dense LU solve as the rank-deficient fallback.
func solveRidge(X, Y *mat.Dense, alpha float64) (*mat.Dense, error) {
	_, p := X.Dims()

	var gram mat.SymDense
	gram.SymOuterK(1, X.T())
	for i := 0; i < p; i++ {
		gram.SetSym(i, i, gram.At(i, i)+alpha)
	}
	var rhs mat.Dense
	rhs.Mul(X.T(), Y)

	var wt mat.Dense
	var chol mat.Cholesky
	if chol.Factorize(&gram) {
		if err := chol.SolveTo(&wt, &rhs); err == nil {
			var coef mat.Dense
			coef.CloneFrom(wt.T())
			return &coef, nil
		}
	}

	var dense mat.Dense
	dense.CloneFrom(&gram)
	if err := wt.Solve(&dense, &rhs); err != nil {
		return nil, fmt.Errorf("normal equations solve: %w", err)
	}
	var coef mat.Dense
	coef.CloneFrom(wt.T())
	return &coef, nil
}

// Transform maps feature-major input through the fitted coefficients.
func (a *RidgeAlignment) Transform(X *mat.Dense) (*mat.Dense, error) {
	if err := a.requireFitted("ridge transform"); err != nil {
		return nil, err
	}
	if err := a.checkInput("ridge transform", X); err != nil {
		return nil, err
	}
	var out mat.Dense
	out.Mul(a.coef, X)
	return &out, nil
}

// Coef returns the fitted coefficient matrix W. The matrix is owned by
// the aligner and must not be modified.
func (a *RidgeAlignment) Coef() *mat.Dense { return a.coef }

// Alpha returns the selected penalty.
func (a *RidgeAlignment) Alpha() float64 { return a.alpha }

type ridgeJSON struct {
	Alpha float64    `json:"alpha"`
	Coef  matrixJSON `json:"coef"`
}

// MarshalJSON encodes the fitted state.
func (a *RidgeAlignment) MarshalJSON() ([]byte, error) {
	if err := a.requireFitted("ridge marshal"); err != nil {
		return nil, err
	}
	return json.Marshal(ridgeJSON{Alpha: a.alpha, Coef: encodeMatrix(a.coef)})
}

// UnmarshalJSON restores a fitted ridge method.
func (a *RidgeAlignment) UnmarshalJSON(b []byte) error {
	var p ridgeJSON
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	coef, err := p.Coef.decodeSquare()
	if err != nil {
		return fmt.Errorf("ridge state: %w", err)
	}
	a.alpha = p.Alpha
	a.coef = coef
	rows, _ := coef.Dims()
	a.setFitted(rows)
	return nil
}
