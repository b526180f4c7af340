package atlas

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// ExprMatrix is a genes-by-samples expression matrix as supplied by
// the upstream loading/preprocessing collaborator (already
// quality-controlled; this core does not validate QC).
type ExprMatrix struct {
	Genes   []string
	Samples []string
	Values  [][]float64 // Values[i] is the row for Genes[i]
}

// ReadExprMatrix reads a CSV expression matrix: header row of sample
// IDs (first cell ignored), one row per gene with the gene ID in the
// first column. Duplicate gene rows keep the first occurrence.
func ReadExprMatrix(r io.Reader) (*ExprMatrix, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty input, expected an expression matrix header")
	} else if err != nil {
		return nil, err
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("expression matrix has no sample columns")
	}
	m := &ExprMatrix{Samples: header[1:]}
	seen := map[string]bool{}
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return m, nil
		} else if err != nil {
			return nil, err
		}
		gene := strings.TrimSpace(rec[0])
		if gene == "" {
			return nil, fmt.Errorf("row %d: missing gene ID", row)
		}
		if seen[gene] {
			continue
		}
		seen[gene] = true
		vals := make([]float64, len(rec)-1)
		for i, field := range rec[1:] {
			vals[i], err = strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: bad expression value %q", row, field)
			}
		}
		m.Genes = append(m.Genes, gene)
		m.Values = append(m.Values, vals)
	}
}

// MeanProfile reduces the matrix to a per-gene mean expression map.
func (m *ExprMatrix) MeanProfile() map[string]float64 {
	profile := make(map[string]float64, len(m.Genes))
	for i, gene := range m.Genes {
		profile[gene] = stat.Mean(m.Values[i], nil)
	}
	return profile
}

// Row returns the expression vector for a gene, or nil if absent.
func (m *ExprMatrix) Row(gene string) []float64 {
	for i, g := range m.Genes {
		if g == gene {
			return m.Values[i]
		}
	}
	return nil
}
