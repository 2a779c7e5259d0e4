package parcellation

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"func-align/pkg/alignment"
)

// Options configures Partition.
type Options struct {
	// NPieces is the target region count. 1 is the degenerate
	// single-region case and skips clustering entirely.
	NPieces int

	// Seed fixes the k-means++ initialization. The same mask, piece
	// count and seed always produce the same labeling.
	Seed uint64

	// MaxIter bounds the Lloyd iterations.
	MaxIter int

	// Tol stops iterating once the largest centroid shift falls below it.
	Tol float64
}

// DefaultOptions returns the default partitioning configuration.
func DefaultOptions() Options {
	return Options{
		NPieces: 1,
		Seed:    0,
		MaxIter: 100,
		Tol:     1e-6,
	}
}

// Partition produces a deterministic region labeling of the mask's
// features by seeded k-means over their coordinates. Every region is
// nonempty and region ids are contiguous from 0.
func Partition(m Mask, opts Options) (Labeling, error) {
	p := m.NumFeatures()
	if opts.NPieces < 1 {
		return nil, &alignment.InvalidConfigError{
			Op:     "partition",
			Reason: fmt.Sprintf("piece count %d must be at least 1", opts.NPieces),
		}
	}
	if opts.NPieces > p {
		return nil, &alignment.InvalidConfigError{
			Op:     "partition",
			Reason: fmt.Sprintf("piece count %d exceeds feature count %d", opts.NPieces, p),
		}
	}
	labels := make(Labeling, p)
	if opts.NPieces == 1 {
		return labels, nil
	}

	maxIter := opts.MaxIter
	if maxIter <= 0 {
		maxIter = 100
	}

	coords := m.Coordinates()
	_, dims := coords.Dims()
	k := opts.NPieces
	rng := rand.New(rand.NewSource(int64(opts.Seed)))

	centers := seedCenters(rng, coords, k)
	for iter := 0; iter < maxIter; iter++ {
		assign(coords, centers, labels)
		reseedEmpty(coords, centers, labels)

		shift := updateCenters(coords, centers, labels, dims)
		if shift < opts.Tol {
			break
		}
	}
	assign(coords, centers, labels)
	reseedEmpty(coords, centers, labels)
	return labels, nil
}

// seedCenters runs k-means++ initialization: the first center is drawn
// uniformly, each further center proportionally to squared distance from
// the nearest chosen one.
func seedCenters(rng *rand.Rand, coords *mat.Dense, k int) *mat.Dense {
	p, dims := coords.Dims()
	centers := mat.NewDense(k, dims, nil)
	centers.SetRow(0, coords.RawRowView(rng.Intn(p)))

	dist := make([]float64, p)
	for c := 1; c < k; c++ {
		var total float64
		for i := 0; i < p; i++ {
			best := math.Inf(1)
			for cc := 0; cc < c; cc++ {
				if d := sqDist(coords, i, centers, cc); d < best {
					best = d
				}
			}
			dist[i] = best
			total += best
		}
		if total == 0 {
			// All remaining points coincide with chosen centers.
			centers.SetRow(c, coords.RawRowView(rng.Intn(p)))
			continue
		}
		target := rng.Float64() * total
		idx := p - 1
		var cum float64
		for i := 0; i < p; i++ {
			cum += dist[i]
			if cum >= target {
				idx = i
				break
			}
		}
		centers.SetRow(c, coords.RawRowView(idx))
	}
	return centers
}

// assign labels every feature with its nearest center, lowest index
// winning ties.
func assign(coords, centers *mat.Dense, labels Labeling) {
	p, _ := coords.Dims()
	k, _ := centers.Dims()
	for i := 0; i < p; i++ {
		best := 0
		bestDist := math.Inf(1)
		for c := 0; c < k; c++ {
			if d := sqDist(coords, i, centers, c); d < bestDist {
				bestDist = d
				best = c
			}
		}
		labels[i] = best
	}
}

// reseedEmpty moves each empty cluster onto the feature farthest from its
// current center, so every region stays nonempty.
func reseedEmpty(coords, centers *mat.Dense, labels Labeling) {
	p, _ := coords.Dims()
	k, _ := centers.Dims()
	counts := make([]int, k)
	for _, id := range labels {
		counts[id]++
	}
	for c := 0; c < k; c++ {
		if counts[c] > 0 {
			continue
		}
		far := -1
		farDist := -1.0
		for i := 0; i < p; i++ {
			if counts[labels[i]] <= 1 {
				continue
			}
			if d := sqDist(coords, i, centers, labels[i]); d > farDist {
				farDist = d
				far = i
			}
		}
		if far < 0 {
			continue
		}
		centers.SetRow(c, coords.RawRowView(far))
		counts[labels[far]]--
		labels[far] = c
		counts[c]++
	}
}

// updateCenters recomputes each center as its region mean and returns the
// largest squared shift.
func updateCenters(coords, centers *mat.Dense, labels Labeling, dims int) float64 {
	p, _ := coords.Dims()
	k, _ := centers.Dims()
	sums := mat.NewDense(k, dims, nil)
	counts := make([]int, k)
	for i := 0; i < p; i++ {
		id := labels[i]
		counts[id]++
		for d := 0; d < dims; d++ {
			sums.Set(id, d, sums.At(id, d)+coords.At(i, d))
		}
	}
	var maxShift float64
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			continue
		}
		var shift float64
		for d := 0; d < dims; d++ {
			mean := sums.At(c, d) / float64(counts[c])
			diff := mean - centers.At(c, d)
			shift += diff * diff
			centers.Set(c, d, mean)
		}
		if shift > maxShift {
			maxShift = shift
		}
	}
	return maxShift
}

func sqDist(a *mat.Dense, ai int, b *mat.Dense, bi int) float64 {
	_, dims := a.Dims()
	var s float64
	for d := 0; d < dims; d++ {
		diff := a.At(ai, d) - b.At(bi, d)
		s += diff * diff
	}
	return s
}
