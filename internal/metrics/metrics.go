// Package metrics scores alignment predictions against ground truth.
package metrics

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"func-align/pkg/alignment"
)

// R2Voxelwise returns the per-column coefficient of determination of pred
// against target, clipped below at -1 so a handful of badly predicted
// columns cannot dominate a summary. A constant target column scores 1
// when reproduced exactly and 0 otherwise.
func R2Voxelwise(target, pred *mat.Dense) ([]float64, error) {
	n, p := target.Dims()
	pr, pc := pred.Dims()
	if pr != n || pc != p {
		return nil, &alignment.ShapeMismatchError{
			Op:       "voxelwise r2",
			WantRows: n, WantCols: p,
			GotRows: pr, GotCols: pc,
		}
	}

	scores := make([]float64, p)
	for j := 0; j < p; j++ {
		mean := 0.0
		for i := 0; i < n; i++ {
			mean += target.At(i, j)
		}
		mean /= float64(n)

		ssTot, ssRes := 0.0, 0.0
		for i := 0; i < n; i++ {
			d := target.At(i, j) - mean
			ssTot += d * d
			r := target.At(i, j) - pred.At(i, j)
			ssRes += r * r
		}

		var r2 float64
		switch {
		case ssTot == 0 && ssRes == 0:
			r2 = 1
		case ssTot == 0:
			r2 = 0
		default:
			r2 = 1 - ssRes/ssTot
		}
		if r2 < -1 {
			r2 = -1
		}
		scores[j] = r2
	}
	return scores, nil
}

// Summary captures distribution statistics of per-column scores.
type Summary struct {
	Mean   float64
	Median float64
	Min    float64
	Max    float64
}

// Summarize reduces per-column scores to distribution statistics. An
// empty slice yields the zero Summary.
func Summarize(scores []float64) Summary {
	if len(scores) == 0 {
		return Summary{}
	}
	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)
	return Summary{
		Mean:   stat.Mean(sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Min:    floats.Min(sorted),
		Max:    floats.Max(sorted),
	}
}

func (s Summary) String() string {
	return fmt.Sprintf("mean=%.4f median=%.4f min=%.4f max=%.4f", s.Mean, s.Median, s.Min, s.Max)
}
