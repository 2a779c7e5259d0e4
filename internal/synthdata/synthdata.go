// Package synthdata generates deterministic synthetic matrices and masks
// for benchmark harnesses and examples.
package synthdata

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"func-align/pkg/parcellation"
)

// Matrix returns an n by p matrix of standard normal draws.
func Matrix(n, p int, seed uint64) *mat.Dense {
	rng := rand.New(rand.NewSource(int64(seed)))
	return normal(n, p, rng)
}

// Orthogonal returns a random p by p rotation (orthogonal with
// determinant +1), drawn by orthonormalizing a Gaussian matrix.
func Orthogonal(p int, seed uint64) *mat.Dense {
	rng := rand.New(rand.NewSource(int64(seed)))
	return rotation(p, rng)
}

// RotatedPair returns a source matrix X, a target Y = X·Rᵀ plus optional
// Gaussian noise, and the hidden rotation R itself.
func RotatedPair(n, p int, noise float64, seed uint64) (x, y, r *mat.Dense) {
	rng := rand.New(rand.NewSource(int64(seed)))
	x = normal(n, p, rng)
	r = rotation(p, rng)

	y = mat.NewDense(n, p, nil)
	y.Mul(x, r.T())
	if noise > 0 {
		for i := 0; i < n; i++ {
			for j := 0; j < p; j++ {
				y.Set(i, j, y.At(i, j)+noise*rng.NormFloat64())
			}
		}
	}
	return x, y, r
}

// BlobVolume returns a grid mask covering k spherical blobs dropped at
// random centers inside an nx by ny by nz volume. Each blob's center
// voxel is always included, so the mask is never empty.
func BlobVolume(nx, ny, nz, k int, radius float64, seed uint64) (*parcellation.GridMask, error) {
	rng := rand.New(rand.NewSource(int64(seed)))
	voxels := make([]bool, nx*ny*nz)
	for b := 0; b < k; b++ {
		cx, cy, cz := rng.Intn(nx), rng.Intn(ny), rng.Intn(nz)
		for z := 0; z < nz; z++ {
			for y := 0; y < ny; y++ {
				for x := 0; x < nx; x++ {
					dx, dy, dz := float64(x-cx), float64(y-cy), float64(z-cz)
					if dx*dx+dy*dy+dz*dz <= radius*radius {
						voxels[(z*ny+y)*nx+x] = true
					}
				}
			}
		}
	}
	return parcellation.NewGridMask(nx, ny, nz, voxels)
}

func normal(n, p int, rng *rand.Rand) *mat.Dense {
	m := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			m.Set(i, j, rng.NormFloat64())
		}
	}
	return m
}

func rotation(p int, rng *rand.Rand) *mat.Dense {
	var qr mat.QR
	qr.Factorize(normal(p, p, rng))
	q := mat.NewDense(p, p, nil)
	qr.QTo(q)
	if mat.Det(q) < 0 {
		for i := 0; i < p; i++ {
			q.Set(i, 0, -q.At(i, 0))
		}
	}
	return q
}
