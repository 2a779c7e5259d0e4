// Package parcellation partitions a feature space into disjoint spatial
// regions so alignment can be fit piecewise. A Mask describes the feature
// space geometry; Partition produces a deterministic region labeling from
// it.
package parcellation

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"func-align/pkg/alignment"
)

// Mask is the opaque collaborator defining the feature space: how many
// features exist and where they sit. Implementations outside this package
// can wrap whatever geometry their data carries.
type Mask interface {
	// NumFeatures returns the feature count the mask defines.
	NumFeatures() int

	// Coordinates returns an n_features × d matrix of spatial positions,
	// one row per feature, in feature order.
	Coordinates() *mat.Dense
}

// GridMask is a binary mask over a regular 3-D voxel grid. Features are
// the set voxels in scan order (x fastest, then y, then z), their
// coordinates the integer grid positions.
type GridMask struct {
	nx, ny, nz int
	voxels     []bool
	features   int
}

// NewGridMask builds a grid mask from dimensions and an inclusion bitmap
// of length nx·ny·nz in scan order.
func NewGridMask(nx, ny, nz int, voxels []bool) (*GridMask, error) {
	if nx < 1 || ny < 1 || nz < 1 {
		return nil, &alignment.InvalidConfigError{
			Op:     "grid mask",
			Reason: fmt.Sprintf("non-positive dimensions %dx%dx%d", nx, ny, nz),
		}
	}
	if len(voxels) != nx*ny*nz {
		return nil, &alignment.InvalidConfigError{
			Op:     "grid mask",
			Reason: fmt.Sprintf("bitmap length %d does not cover %dx%dx%d", len(voxels), nx, ny, nz),
		}
	}
	count := 0
	for _, v := range voxels {
		if v {
			count++
		}
	}
	if count == 0 {
		return nil, &alignment.InvalidConfigError{Op: "grid mask", Reason: "mask selects no voxels"}
	}
	return &GridMask{
		nx:       nx,
		ny:       ny,
		nz:       nz,
		voxels:   append([]bool(nil), voxels...),
		features: count,
	}, nil
}

// FullGridMask returns a grid mask with every voxel included.
func FullGridMask(nx, ny, nz int) (*GridMask, error) {
	voxels := make([]bool, nx*ny*nz)
	for i := range voxels {
		voxels[i] = true
	}
	return NewGridMask(nx, ny, nz, voxels)
}

// NumFeatures returns the number of set voxels.
func (g *GridMask) NumFeatures() int { return g.features }

// Dims returns the grid dimensions.
func (g *GridMask) Dims() (nx, ny, nz int) { return g.nx, g.ny, g.nz }

// Coordinates returns the (x, y, z) position of each set voxel in scan
// order.
func (g *GridMask) Coordinates() *mat.Dense {
	coords := mat.NewDense(g.features, 3, nil)
	row := 0
	for z := 0; z < g.nz; z++ {
		for y := 0; y < g.ny; y++ {
			for x := 0; x < g.nx; x++ {
				if !g.voxels[(z*g.ny+y)*g.nx+x] {
					continue
				}
				coords.Set(row, 0, float64(x))
				coords.Set(row, 1, float64(y))
				coords.Set(row, 2, float64(z))
				row++
			}
		}
	}
	return coords
}

// flatMask is a geometry-free mask: features live on a line in index
// order. It is the default when a caller has matrices but no volume.
type flatMask int

// FlatMask returns a 1-D mask over n features with coordinates 0..n−1.
func FlatMask(n int) Mask { return flatMask(n) }

func (f flatMask) NumFeatures() int { return int(f) }

func (f flatMask) Coordinates() *mat.Dense {
	coords := mat.NewDense(int(f), 1, nil)
	for i := 0; i < int(f); i++ {
		coords.Set(i, 0, float64(i))
	}
	return coords
}

// Labeling assigns every feature to a region: entry i is the region id of
// feature i, contiguous from 0.
type Labeling []int

// NumRegions returns one past the highest region id, or 0 for an empty
// labeling.
func (l Labeling) NumRegions() int {
	max := -1
	for _, id := range l {
		if id > max {
			max = id
		}
	}
	return max + 1
}

// Validate checks the labeling invariants: one entry per feature, ids in
// [0, k) with every id in that range used.
func (l Labeling) Validate(nFeatures int) error {
	if len(l) != nFeatures {
		return &alignment.ShapeMismatchError{
			Op:       "labeling validate",
			WantRows: nFeatures, WantCols: 1,
			GotRows: len(l), GotCols: 1,
		}
	}
	k := l.NumRegions()
	seen := make([]bool, k)
	for i, id := range l {
		if id < 0 || id >= k {
			return &alignment.InvalidConfigError{
				Op:     "labeling validate",
				Reason: fmt.Sprintf("feature %d has region id %d outside [0, %d)", i, id, k),
			}
		}
		seen[id] = true
	}
	for id, ok := range seen {
		if !ok {
			return &alignment.InvalidConfigError{
				Op:     "labeling validate",
				Reason: fmt.Sprintf("region id %d is unused; ids must be contiguous from 0", id),
			}
		}
	}
	return nil
}

// Regions groups feature indices by region id, ordered by id and by
// feature index within each region.
func (l Labeling) Regions() [][]int {
	k := l.NumRegions()
	regions := make([][]int, k)
	for i, id := range l {
		regions[id] = append(regions[id], i)
	}
	return regions
}
