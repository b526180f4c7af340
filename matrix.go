package atlas

import (
	"encoding/csv"
	"io"
)

// Matrix is a square tissue-by-tissue matrix. Overlap and correlation
// matrices are symmetric by construction; NaN marks pairs with no
// defined value and is passed through to serialization for downstream
// consumers to skip or gray out.
type Matrix struct {
	Labels []string
	Values [][]float64
}

func NewMatrix(labels []string) *Matrix {
	m := &Matrix{Labels: labels, Values: make([][]float64, len(labels))}
	for i := range m.Values {
		m.Values[i] = make([]float64, len(labels))
	}
	return m
}

func (m *Matrix) Set(i, j int, v float64) {
	m.Values[i][j] = v
}

func (m *Matrix) At(i, j int) float64 {
	return m.Values[i][j]
}

// WriteCSV writes the matrix with a label header row and a label
// column. NaN cells are written literally as NaN, which both pandas
// and R parse as missing.
func (m *Matrix) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append([]string{""}, m.Labels...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, label := range m.Labels {
		rec := make([]string, 0, len(m.Labels)+1)
		rec = append(rec, label)
		for j := range m.Labels {
			rec = append(rec, formatFloat(m.Values[i][j]))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
