package alignment

import (
	"encoding/json"

	"gonum.org/v1/gonum/mat"
)

// PermutationAlignment maps each target feature to exactly one source
// feature, chosen by minimum-cost linear assignment over the Euclidean
// distances between activation profiles. It is the exact-correspondence
// alternative to the blending methods.
type PermutationAlignment struct {
	fitState
	// sigma[j] is the source feature assigned to target position j.
	sigma []int
}

// NewPermutationAlignment returns an unfitted permutation method.
func NewPermutationAlignment() *PermutationAlignment {
	return &PermutationAlignment{}
}

// Kind reports the method variant.
func (a *PermutationAlignment) Kind() Method { return Permutation }

// Fit finds the optimal one-to-one feature correspondence.
func (a *PermutationAlignment) Fit(X, Y *mat.Dense) error {
	_, p, err := checkFitShapes("permutation fit", X, Y)
	if err != nil {
		a.reset()
		return err
	}
	a.sigma = linearSumAssignment(columnDistances(X, Y))
	a.setFitted(p)
	return nil
}

// Transform re-indexes the rows of feature-major input: output row j is
// input row sigma[j].
func (a *PermutationAlignment) Transform(X *mat.Dense) (*mat.Dense, error) {
	if err := a.requireFitted("permutation transform"); err != nil {
		return nil, err
	}
	if err := a.checkInput("permutation transform", X); err != nil {
		return nil, err
	}
	_, m := X.Dims()
	out := mat.NewDense(a.features, m, nil)
	for j, i := range a.sigma {
		out.SetRow(j, X.RawRowView(i))
	}
	return out, nil
}

// Assignment returns a copy of the fitted assignment: entry j is the
// source feature mapped to target position j.
func (a *PermutationAlignment) Assignment() []int {
	return append([]int(nil), a.sigma...)
}

// OperatorMatrix builds the permutation matrix form of the assignment,
// with a single 1 per row and per column.
func (a *PermutationAlignment) OperatorMatrix() *mat.Dense {
	m := mat.NewDense(a.features, a.features, nil)
	for j, i := range a.sigma {
		m.Set(j, i, 1)
	}
	return m
}

type permutationJSON struct {
	Perm []int `json:"perm"`
}

// MarshalJSON encodes the fitted state.
func (a *PermutationAlignment) MarshalJSON() ([]byte, error) {
	if err := a.requireFitted("permutation marshal"); err != nil {
		return nil, err
	}
	return json.Marshal(permutationJSON{Perm: a.sigma})
}

// UnmarshalJSON restores a fitted permutation method.
func (a *PermutationAlignment) UnmarshalJSON(b []byte) error {
	var p permutationJSON
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	if len(p.Perm) == 0 {
		return &InvalidConfigError{Op: "permutation state", Reason: "empty assignment"}
	}
	seen := make([]bool, len(p.Perm))
	for _, i := range p.Perm {
		if i < 0 || i >= len(p.Perm) || seen[i] {
			return &InvalidConfigError{Op: "permutation state", Reason: "assignment is not a permutation"}
		}
		seen[i] = true
	}
	a.sigma = append([]int(nil), p.Perm...)
	a.setFitted(len(p.Perm))
	return nil
}
