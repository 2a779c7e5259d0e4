package alignment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// matrixJSON is the wire form of a dense matrix in model files: row-major
// data with explicit dimensions.
type matrixJSON struct {
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float64 `json:"data"`
}

func encodeMatrix(m *mat.Dense) matrixJSON {
	r, c := m.Dims()
	data := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		data = append(data, m.RawRowView(i)...)
	}
	return matrixJSON{Rows: r, Cols: c, Data: data}
}

func (mj matrixJSON) decode() (*mat.Dense, error) {
	if mj.Rows <= 0 || mj.Cols <= 0 {
		return nil, fmt.Errorf("matrix payload: non-positive dimensions %dx%d", mj.Rows, mj.Cols)
	}
	if len(mj.Data) != mj.Rows*mj.Cols {
		return nil, fmt.Errorf("matrix payload: %dx%d needs %d values, got %d",
			mj.Rows, mj.Cols, mj.Rows*mj.Cols, len(mj.Data))
	}
	data := make([]float64, len(mj.Data))
	copy(data, mj.Data)
	return mat.NewDense(mj.Rows, mj.Cols, data), nil
}

// decodeSquare additionally requires a square matrix, the shape of every
// stored feature-space operator.
func (mj matrixJSON) decodeSquare() (*mat.Dense, error) {
	if mj.Rows != mj.Cols {
		return nil, fmt.Errorf("matrix payload: operator must be square, got %dx%d", mj.Rows, mj.Cols)
	}
	return mj.decode()
}
