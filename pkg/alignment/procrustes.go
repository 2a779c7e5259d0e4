package alignment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ScaledProcrustes computes the orthogonal matrix R and scale factor s
// minimizing ||s·X·Rᵀ − Y||_F for sample-major X and Y of identical shape
// (n, p). The returned R is p×p, acts on feature-major data from the left
// (Yᵀ ≈ s·R·Xᵀ), and satisfies R·Rᵀ = Rᵀ·R = I in the primal regime.
//
// The decomposition runs on the p×p cross product Yᵀ·X when n ≥ p and
// switches to a dual formulation built from the thin factorizations of X
// and Y when n < p, where the direct product would be rank-deficient and
// needlessly large. Both formulations agree on the action R·Xᵀ; they agree
// on R itself whenever n ≥ p.
//
// Degenerate input is absorbed: when either matrix has zero Frobenius
// norm the result is the identity with unit scale. When scaling is false
// the scale is fixed to 1; otherwise s = Σσᵢ / ||X||²_F over the singular
// values of the cross product.
func ScaledProcrustes(X, Y *mat.Dense, scaling bool) (*mat.Dense, float64, error) {
	n, p, err := checkFitShapes("scaled procrustes", X, Y)
	if err != nil {
		return nil, 0, err
	}
	if mat.Norm(X, 2) == 0 || mat.Norm(Y, 2) == 0 {
		return eye(p), 1, nil
	}
	if n >= p {
		return scaledProcrustesPrimal(X, Y, scaling)
	}
	return scaledProcrustesDual(X, Y, scaling)
}

// scaledProcrustesPrimal decomposes the p×p cross product directly:
// Yᵀ·X = U·Σ·Vᵀ gives R = U·Vᵀ.
func scaledProcrustesPrimal(X, Y *mat.Dense, scaling bool) (*mat.Dense, float64, error) {
	var a mat.Dense
	a.Mul(Y.T(), X)

	var svd mat.SVD
	if ok := svd.Factorize(&a, mat.SVDThin); !ok {
		return nil, 0, fmt.Errorf("scaled procrustes: svd of cross product did not converge")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var r mat.Dense
	r.Mul(&u, v.T())
	return &r, procrustesScale(X, svd.Values(nil), scaling), nil
}

// scaledProcrustesDual avoids forming the p×p cross product when n < p.
// With thin factorizations X = Ux·Σx·Vxᵀ and Y = Uy·Σy·Vyᵀ, the r×r core
// A = Σy·(Uyᵀ·Ux)·Σx shares its singular values with Yᵀ·X, and
// R = Vy·U·Vᵀ·Vxᵀ from A = U·Σ·Vᵀ reproduces the primal action on the
// span of the data.
func scaledProcrustesDual(X, Y *mat.Dense, scaling bool) (*mat.Dense, float64, error) {
	var xsvd, ysvd mat.SVD
	if ok := xsvd.Factorize(X, mat.SVDThin); !ok {
		return nil, 0, fmt.Errorf("scaled procrustes: svd of source did not converge")
	}
	if ok := ysvd.Factorize(Y, mat.SVDThin); !ok {
		return nil, 0, fmt.Errorf("scaled procrustes: svd of target did not converge")
	}

	var ux, vx, uy, vy mat.Dense
	xsvd.UTo(&ux)
	xsvd.VTo(&vx)
	ysvd.UTo(&uy)
	ysvd.VTo(&vy)
	sx := xsvd.Values(nil)
	sy := ysvd.Values(nil)

	// A = Σy·(Uyᵀ·Ux)·Σx, scaling rows by sy and columns by sx.
	var cross mat.Dense
	cross.Mul(uy.T(), &ux)
	r, c := cross.Dims()
	a := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			a.Set(i, j, sy[i]*cross.At(i, j)*sx[j])
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, 0, fmt.Errorf("scaled procrustes: svd of dual core did not converge")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var uvt, basis, rot mat.Dense
	uvt.Mul(&u, v.T())
	basis.Mul(&vy, &uvt)
	rot.Mul(&basis, vx.T())
	return &rot, procrustesScale(X, svd.Values(nil), scaling), nil
}

// procrustesScale derives the global scale from the cross-product
// singular values, or 1 when scaling is disabled.
func procrustesScale(X *mat.Dense, values []float64, scaling bool) float64 {
	if !scaling {
		return 1
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	norm := mat.Norm(X, 2)
	return sum / (norm * norm)
}
