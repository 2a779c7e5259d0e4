package alignment

import (
	"encoding/json"

	"gonum.org/v1/gonum/mat"
)

// IdentityAlignment is the no-op method: transform returns its input
// unchanged. It exists so a pipeline can be run without alignment, and as
// the baseline against which the other methods are scored.
type IdentityAlignment struct {
	fitState
}

// NewIdentityAlignment returns an unfitted identity method.
func NewIdentityAlignment() *IdentityAlignment {
	return &IdentityAlignment{}
}

// Kind reports the method variant.
func (a *IdentityAlignment) Kind() Method { return Identity }

// Fit records the feature count. The inputs must still agree in shape so
// misuse is caught here rather than at transform time.
func (a *IdentityAlignment) Fit(X, Y *mat.Dense) error {
	_, p, err := checkFitShapes("identity fit", X, Y)
	if err != nil {
		a.reset()
		return err
	}
	a.setFitted(p)
	return nil
}

// Transform returns a copy of the feature-major input.
func (a *IdentityAlignment) Transform(X *mat.Dense) (*mat.Dense, error) {
	if err := a.requireFitted("identity transform"); err != nil {
		return nil, err
	}
	if err := a.checkInput("identity transform", X); err != nil {
		return nil, err
	}
	var out mat.Dense
	out.CloneFrom(X)
	return &out, nil
}

type identityJSON struct {
	Features int `json:"features"`
}

// MarshalJSON encodes the fitted state.
func (a *IdentityAlignment) MarshalJSON() ([]byte, error) {
	if err := a.requireFitted("identity marshal"); err != nil {
		return nil, err
	}
	return json.Marshal(identityJSON{Features: a.features})
}

// UnmarshalJSON restores a fitted identity method.
func (a *IdentityAlignment) UnmarshalJSON(b []byte) error {
	var p identityJSON
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	if p.Features <= 0 {
		return &InvalidConfigError{Op: "identity state", Reason: "non-positive feature count"}
	}
	a.setFitted(p.Features)
	return nil
}
