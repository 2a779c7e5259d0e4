package alignment

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// linearSumAssignment solves the square minimum-cost assignment problem
// with the O(p³) potentials form of the Hungarian algorithm. The result
// maps each column j of the cost matrix to its assigned row. Ties are
// broken by scan order, so the result is deterministic.
func linearSumAssignment(cost *mat.Dense) []int {
	n, m := cost.Dims()

	// 1-based working arrays with column 0 as the virtual unmatched slot.
	u := make([]float64, n+1)
	v := make([]float64, m+1)
	match := make([]int, m+1)
	way := make([]int, m+1)

	for i := 1; i <= n; i++ {
		match[0] = i
		j0 := 0
		minv := make([]float64, m+1)
		used := make([]bool, m+1)
		for j := range minv {
			minv[j] = math.Inf(1)
		}
		for {
			used[j0] = true
			i0 := match[j0]
			delta := math.Inf(1)
			j1 := 0
			for j := 1; j <= m; j++ {
				if used[j] {
					continue
				}
				cur := cost.At(i0-1, j-1) - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= m; j++ {
				if used[j] {
					u[match[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if match[j0] == 0 {
				break
			}
		}
		// Augment along the found path.
		for j0 != 0 {
			j1 := way[j0]
			match[j0] = match[j1]
			j0 = j1
		}
	}

	colToRow := make([]int, m)
	for j := 1; j <= m; j++ {
		colToRow[j-1] = match[j] - 1
	}
	return colToRow
}
