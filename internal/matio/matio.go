// Package matio reads and writes data matrices as headerless CSV, one
// sample per row, one feature per column.
package matio

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// ReadCSV loads a matrix from a CSV file. Every row must have the same
// number of fields and every field must parse as a float.
func ReadCSV(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("matio: read %q: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("matio: %q contains no rows", path)
	}

	rows, cols := len(records), len(records[0])
	if cols == 0 {
		return nil, fmt.Errorf("matio: %q contains no columns", path)
	}
	m := mat.NewDense(rows, cols, nil)
	for i, record := range records {
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("matio: %q row %d column %d: %w", path, i+1, j+1, err)
			}
			m.Set(i, j, v)
		}
	}
	return m, nil
}

// WriteCSV writes a matrix as headerless CSV.
func WriteCSV(path string, m mat.Matrix) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(f)
	rows, cols := m.Dims()
	record := make([]string, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			record[j] = strconv.FormatFloat(m.At(i, j), 'g', -1, 64)
		}
		if err := writer.Write(record); err != nil {
			f.Close()
			return fmt.Errorf("matio: write %q: %w", path, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return fmt.Errorf("matio: write %q: %w", path, err)
	}
	return f.Close()
}
