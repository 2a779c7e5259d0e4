package alignment

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// randDense fills an r×c matrix with standard normal draws.
func randDense(rng *rand.Rand, r, c int) *mat.Dense {
	m := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.Set(i, j, rng.NormFloat64())
		}
	}
	return m
}

// centerRows subtracts each row's mean in place and returns the matrix.
func centerRows(m *mat.Dense) *mat.Dense {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		var mean float64
		for j := 0; j < c; j++ {
			mean += m.At(i, j)
		}
		mean /= float64(c)
		for j := 0; j < c; j++ {
			m.Set(i, j, m.At(i, j)-mean)
		}
	}
	return m
}

// randRotation draws a random rotation (orthogonal, det +1) from the QR
// decomposition of a Gaussian matrix.
func randRotation(rng *rand.Rand, p int) *mat.Dense {
	var qr mat.QR
	qr.Factorize(randDense(rng, p, p))
	var q mat.Dense
	qr.QTo(&q)
	if mat.Det(&q) < 0 {
		for i := 0; i < p; i++ {
			q.Set(i, 0, -q.At(i, 0))
		}
	}
	return &q
}

// xAxisRotation is the 3-D rotation by the given angle about the x-axis.
func xAxisRotation(angle float64) *mat.Dense {
	c, s := math.Cos(angle), math.Sin(angle)
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	})
}

// transpose returns a dense copy of mᵀ.
func transpose(m *mat.Dense) *mat.Dense {
	var t mat.Dense
	t.CloneFrom(m.T())
	return &t
}
