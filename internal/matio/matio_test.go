package matio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestRoundTrip(t *testing.T) {
	m := mat.NewDense(3, 2, []float64{
		1.5, -2,
		0, 3.25e-4,
		-7.125, 1e9,
	})

	path := filepath.Join(t.TempDir(), "m.csv")
	require.NoError(t, WriteCSV(path, m))

	got, err := ReadCSV(path)
	require.NoError(t, err)
	assert.True(t, mat.Equal(m, got))
}

func TestReadRejectsRaggedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ragged.csv")
	require.NoError(t, os.WriteFile(path, []byte("1,2,3\n4,5\n"), 0644))

	_, err := ReadCSV(path)
	assert.Error(t, err)
}

func TestReadRejectsBadFloat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("1,2\n3,oops\n"), 0644))

	_, err := ReadCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2 column 2")
}

func TestReadRejectsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	_, err := ReadCSV(path)
	assert.Error(t, err)
}

func TestReadMissingFile(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}
