package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"func-align/pkg/alignment"
)

func TestR2PerfectPrediction(t *testing.T) {
	y := mat.NewDense(3, 2, []float64{1, 4, 2, 5, 3, 6})

	scores, err := R2Voxelwise(y, mat.DenseCopyOf(y))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, scores)
}

func TestR2KnownValues(t *testing.T) {
	target := mat.NewDense(3, 2, []float64{
		1, 1,
		2, 2,
		3, 3,
	})
	// Column 0 predicts the mean everywhere, column 1 reverses the trend.
	pred := mat.NewDense(3, 2, []float64{
		2, 3,
		2, 2,
		2, 1,
	})

	scores, err := R2Voxelwise(target, pred)
	require.NoError(t, err)
	assert.InDelta(t, 0, scores[0], 1e-12)
	// Raw score is -3; the clip floors it.
	assert.Equal(t, -1.0, scores[1])
}

func TestR2ConstantColumns(t *testing.T) {
	target := mat.NewDense(2, 2, []float64{
		5, 5,
		5, 5,
	})
	pred := mat.NewDense(2, 2, []float64{
		5, 4,
		5, 6,
	})

	scores, err := R2Voxelwise(target, pred)
	require.NoError(t, err)
	assert.Equal(t, 1.0, scores[0])
	assert.Equal(t, 0.0, scores[1])
}

func TestR2ShapeMismatch(t *testing.T) {
	_, err := R2Voxelwise(mat.NewDense(3, 2, nil), mat.NewDense(3, 3, nil))
	assert.ErrorIs(t, err, alignment.ErrShapeMismatch)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{0.5, -1, 1, 0.25})
	assert.InDelta(t, 0.1875, s.Mean, 1e-12)
	assert.InDelta(t, 0.25, s.Median, 1e-12)
	assert.Equal(t, -1.0, s.Min)
	assert.Equal(t, 1.0, s.Max)

	assert.Equal(t, Summary{}, Summarize(nil))
}
