package alignment

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestSinkhornMarginals(t *testing.T) {
	rng := rand.New(rand.NewSource(30))
	n := 5
	cost := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			cost.Set(i, j, math.Abs(rng.NormFloat64()))
		}
	}
	marginal := make([]float64, n)
	for i := range marginal {
		marginal[i] = 1 / float64(n)
	}

	plan, err := sinkhorn(marginal, marginal, cost, 1.0, 1000, 1e-12)
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		var rowSum, colSum float64
		for j := 0; j < n; j++ {
			rowSum += plan.At(i, j)
			colSum += plan.At(j, i)
		}
		assert.InDelta(t, marginal[i], rowSum, 1e-8, "row marginal %d", i)
		assert.InDelta(t, marginal[i], colSum, 1e-8, "column marginal %d", i)
	}
}

func TestSinkhornMarginalLengthChecked(t *testing.T) {
	cost := mat.NewDense(3, 3, nil)
	_, err := sinkhorn([]float64{0.5, 0.5}, []float64{1, 1, 1}, cost, 1.0, 10, 1e-9)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestTransportOperatorRowStochastic(t *testing.T) {
	rng := rand.New(rand.NewSource(31))
	x := randDense(rng, 10, 6)
	y := randDense(rng, 10, 6)

	al := NewOptimalTransportAlignment(DefaultOptions())
	require.NoError(t, al.Fit(x, y))

	op := al.Operator()
	r, c := op.Dims()
	require.Equal(t, 6, r)
	require.Equal(t, 6, c)
	for i := 0; i < r; i++ {
		var sum float64
		for j := 0; j < c; j++ {
			assert.GreaterOrEqual(t, op.At(i, j), 0.0)
			sum += op.At(i, j)
		}
		assert.InDelta(t, 1.0, sum, 1e-6, "operator row %d must be stochastic", i)
	}
}

func TestTransportConcentratesOnMatchingFeatures(t *testing.T) {
	// Identical source and target with well-separated feature profiles:
	// at low regularization the plan mass concentrates on the diagonal.
	p := 5
	x := mat.NewDense(4, p, nil)
	for j := 0; j < p; j++ {
		x.Set(j%4, j, 4+3*float64(j))
	}

	opts := DefaultOptions()
	opts.Reg = 0.05
	al := NewOptimalTransportAlignment(opts)
	require.NoError(t, al.Fit(x, x))

	op := al.Operator()
	for i := 0; i < p; i++ {
		maxJ := 0
		for j := 1; j < p; j++ {
			if op.At(i, j) > op.At(i, maxJ) {
				maxJ = j
			}
		}
		assert.Equal(t, i, maxJ, "row %d must put most mass on its own feature", i)
	}
}

func TestTransportTransformBlends(t *testing.T) {
	rng := rand.New(rand.NewSource(32))
	x := randDense(rng, 8, 4)
	y := randDense(rng, 8, 4)

	al := NewOptimalTransportAlignment(DefaultOptions())
	require.NoError(t, al.Fit(x, y))

	in := randDense(rng, 4, 3)
	out, err := al.Transform(in)
	require.NoError(t, err)

	// Row-stochastic operator: every output value stays inside the range
	// spanned by the input column it blends.
	for j := 0; j < 3; j++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for i := 0; i < 4; i++ {
			lo = math.Min(lo, in.At(i, j))
			hi = math.Max(hi, in.At(i, j))
		}
		for i := 0; i < 4; i++ {
			assert.GreaterOrEqual(t, out.At(i, j), lo-1e-6)
			assert.LessOrEqual(t, out.At(i, j), hi+1e-6)
		}
	}
}

func TestTransportInvalidConfig(t *testing.T) {
	rng := rand.New(rand.NewSource(33))
	x := randDense(rng, 5, 3)
	y := randDense(rng, 5, 3)

	opts := DefaultOptions()
	opts.Reg = 0
	al := NewOptimalTransportAlignment(opts)
	err := al.Fit(x, y)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	opts = DefaultOptions()
	opts.SinkhornIterations = 0
	al = NewOptimalTransportAlignment(opts)
	err = al.Fit(x, y)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
