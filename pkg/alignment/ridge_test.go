package alignment

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestRidgeRecoversLinearMap(t *testing.T) {
	rng := rand.New(rand.NewSource(40))
	w0 := randDense(rng, 3, 3)
	x := randDense(rng, 40, 3)
	var y mat.Dense
	y.Mul(x, w0.T())

	al := NewRidgeAlignment(Options{RidgeAlphas: []float64{1e-8}})
	require.NoError(t, al.Fit(x, &y))
	assert.True(t, mat.EqualApprox(w0, al.Coef(), 1e-5), "must recover the generating map")

	xnew := randDense(rng, 3, 7)
	got, err := al.Transform(xnew)
	require.NoError(t, err)

	var want mat.Dense
	want.Mul(w0, xnew)
	assert.True(t, mat.EqualApprox(&want, got, 1e-5))
}

func TestRidgeShrinkage(t *testing.T) {
	rng := rand.New(rand.NewSource(41))
	x := randDense(rng, 20, 4)
	y := randDense(rng, 20, 4)

	weak := NewRidgeAlignment(Options{RidgeAlphas: []float64{0.1}})
	require.NoError(t, weak.Fit(x, y))
	strong := NewRidgeAlignment(Options{RidgeAlphas: []float64{1000}})
	require.NoError(t, strong.Fit(x, y))

	assert.Less(t, mat.Norm(strong.Coef(), 2), mat.Norm(weak.Coef(), 2),
		"a larger penalty must shrink the coefficients")
}

func TestRidgeCVPicksLowPenaltyOnCleanData(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	w0 := randDense(rng, 4, 4)
	x := randDense(rng, 48, 4)
	var y mat.Dense
	y.Mul(x, w0.T())

	al := NewRidgeAlignment(Options{
		RidgeAlphas:  []float64{0.01, 1000},
		RidgeCVFolds: 4,
	})
	require.NoError(t, al.Fit(x, &y))
	assert.Equal(t, 0.01, al.Alpha(), "noise-free linear data favors the small penalty")
}

func TestRidgeSingleAlphaSkipsCV(t *testing.T) {
	rng := rand.New(rand.NewSource(43))
	x := randDense(rng, 3, 4)
	y := randDense(rng, 3, 4)

	// n < folds would make CV impossible; the first alpha is used as-is.
	al := NewRidgeAlignment(Options{RidgeAlphas: []float64{7.5}, RidgeCVFolds: 4})
	require.NoError(t, al.Fit(x, y))
	assert.Equal(t, 7.5, al.Alpha())
}

func TestRidgeConfigErrors(t *testing.T) {
	rng := rand.New(rand.NewSource(44))
	x := randDense(rng, 5, 3)
	y := randDense(rng, 5, 3)

	cases := []Options{
		{RidgeAlphas: nil},
		{RidgeAlphas: []float64{-1}},
		{RidgeAlphas: []float64{1}, RidgeCVFolds: -2},
	}
	for _, opts := range cases {
		al := NewRidgeAlignment(opts)
		err := al.Fit(x, y)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	}
}
