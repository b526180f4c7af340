package atlas

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Column names match the upstream DE collaborator's schema.
const (
	colGene      = "gene"
	colLog2FC    = "logfoldchanges"
	colPVal      = "pvals"
	colPValAdj   = "pvals_adj"
	colScore     = "scores"
	colGroup     = "group"
	colDirection = "direction"
)

func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.ToLower(name))] = i
	}
	return idx
}

// ReadGeneStats reads a raw DE table. Column order is free, but
// gene, logfoldchanges, pvals, and pvals_adj must be present; scores
// and group are optional. A missing column or an unparseable value is
// an input-shape error for the whole table.
func ReadGeneStats(r io.Reader) ([]GeneStat, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty input, expected a DE table header")
	} else if err != nil {
		return nil, err
	}
	idx := columnIndex(header)
	for _, required := range []string{colGene, colLog2FC, colPVal, colPValAdj} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}
	var stats []GeneStat
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return stats, nil
		} else if err != nil {
			return nil, err
		}
		var stat GeneStat
		stat.Gene, err = stringField(rec, idx, colGene, row)
		if err != nil {
			return nil, err
		}
		for _, f := range []struct {
			col      string
			dst      *float64
			required bool
		}{
			{colLog2FC, &stat.Log2FoldChange, true},
			{colPVal, &stat.PValue, true},
			{colPValAdj, &stat.PValueAdj, true},
			{colScore, &stat.Score, false},
		} {
			col, ok := idx[f.col]
			if !ok {
				continue
			}
			if col >= len(rec) {
				if f.required {
					return nil, fmt.Errorf("row %d: missing %s", row, f.col)
				}
				continue
			}
			*f.dst, err = strconv.ParseFloat(strings.TrimSpace(rec[col]), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: bad %s value %q", row, f.col, rec[col])
			}
		}
		if col, ok := idx[colGroup]; ok && col < len(rec) {
			stat.Group = rec[col]
		}
		stats = append(stats, stat)
	}
}

func stringField(rec []string, idx map[string]int, col string, row int) (string, error) {
	i, ok := idx[col]
	if !ok || i >= len(rec) || strings.TrimSpace(rec[i]) == "" {
		return "", fmt.Errorf("row %d: missing %s", row, col)
	}
	return strings.TrimSpace(rec[i]), nil
}

// ReadSignificantGenes reads a filtered table as written by
// WriteSignificantGenes. If the direction column is absent (e.g. the
// table came straight from the DE collaborator), direction is derived
// from the fold change sign.
func ReadSignificantGenes(r io.Reader) ([]SignificantGene, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	stats, err := ReadGeneStats(strings.NewReader(string(data)))
	if err != nil {
		return nil, err
	}
	genes := make([]SignificantGene, 0, len(stats))
	for _, stat := range stats {
		genes = append(genes, SignificantGene{GeneStat: stat, Direction: directionOf(stat.Log2FoldChange)})
	}

	// An explicit direction column wins over the fold change sign.
	cr := csv.NewReader(strings.NewReader(string(data)))
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, err
	}
	dirCol, hasDir := columnIndex(header)[colDirection]
	if !hasDir {
		return genes, nil
	}
	for i := range genes {
		rec, err := cr.Read()
		if err != nil {
			return nil, err
		}
		if dirCol < len(rec) && strings.TrimSpace(rec[dirCol]) != "" {
			dir, err := ParseDirection(rec[dirCol])
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i+2, err)
			}
			genes[i].Direction = dir
		}
	}
	return genes, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteSignificantGenes writes a filtered table in the same schema as
// the raw DE table plus a direction column.
func WriteSignificantGenes(w io.Writer, genes []SignificantGene) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{colGene, colLog2FC, colPVal, colPValAdj, colScore, colGroup, colDirection}); err != nil {
		return err
	}
	for _, g := range genes {
		err := cw.Write([]string{
			g.Gene,
			formatFloat(g.Log2FoldChange),
			formatFloat(g.PValue),
			formatFloat(g.PValueAdj),
			formatFloat(g.Score),
			g.Group,
			string(g.Direction),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteGeneStats writes a raw DE table in the upstream schema.
func WriteGeneStats(w io.Writer, stats []GeneStat) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{colGene, colLog2FC, colPVal, colPValAdj, colScore, colGroup}); err != nil {
		return err
	}
	for _, s := range stats {
		err := cw.Write([]string{
			s.Gene,
			formatFloat(s.Log2FoldChange),
			formatFloat(s.PValue),
			formatFloat(s.PValueAdj),
			formatFloat(s.Score),
			s.Group,
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
