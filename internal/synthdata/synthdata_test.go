package synthdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestMatrixDeterministic(t *testing.T) {
	a := Matrix(4, 3, 11)
	b := Matrix(4, 3, 11)
	c := Matrix(4, 3, 12)

	assert.True(t, mat.Equal(a, b))
	assert.False(t, mat.Equal(a, c))
}

func TestOrthogonalIsRotation(t *testing.T) {
	q := Orthogonal(6, 3)

	var gram mat.Dense
	gram.Mul(q.T(), q)
	eye := mat.NewDense(6, 6, nil)
	for i := 0; i < 6; i++ {
		eye.Set(i, i, 1)
	}
	assert.True(t, mat.EqualApprox(eye, &gram, 1e-10))
	assert.InDelta(t, 1, mat.Det(q), 1e-10)
}

func TestRotatedPairNoiseless(t *testing.T) {
	x, y, r := RotatedPair(10, 4, 0, 5)

	var want mat.Dense
	want.Mul(x, r.T())
	assert.True(t, mat.Equal(&want, y))
}

func TestBlobVolume(t *testing.T) {
	mask, err := BlobVolume(8, 8, 4, 3, 2.0, 9)
	require.NoError(t, err)

	assert.Greater(t, mask.NumFeatures(), 0)
	assert.LessOrEqual(t, mask.NumFeatures(), 8*8*4)

	again, err := BlobVolume(8, 8, 4, 3, 2.0, 9)
	require.NoError(t, err)
	assert.Equal(t, mask.NumFeatures(), again.NumFeatures())
	assert.True(t, mat.Equal(mask.Coordinates(), again.Coordinates()))
}
