package atlas

import (
	"flag"
	"fmt"
	"io"
)

// OverlapMetric selects how two tissues' signature gene sets are
// compared.
type OverlapMetric string

const (
	Jaccard            OverlapMetric = "jaccard"
	Intersection       OverlapMetric = "intersection"
	OverlapCoefficient OverlapMetric = "overlap_coefficient"
)

// ParseOverlapMetric validates a metric name. An unknown name is a
// configuration error and fatal for the run.
func ParseOverlapMetric(s string) (OverlapMetric, error) {
	switch OverlapMetric(s) {
	case Jaccard, Intersection, OverlapCoefficient:
		return OverlapMetric(s), nil
	}
	return "", fmt.Errorf("unknown overlap metric %q (want jaccard, intersection, or overlap_coefficient)", s)
}

// SignatureOverlap computes the pairwise similarity of the tissues'
// signature gene sets. Jaccard is |∩|/|∪| (0 when the union is
// empty), intersection is the raw count |∩|, and overlap_coefficient
// is |∩|/min(|G1|,|G2|) (0 when either set is empty). The matrix is
// symmetric; the diagonal is 1 for the normalized metrics on any
// non-empty set, and the set size for intersection.
func SignatureOverlap(tables []TissueTable, metric OverlapMetric) (*Matrix, error) {
	if _, err := ParseOverlapMetric(string(metric)); err != nil {
		return nil, err
	}
	labels := make([]string, 0, len(tables))
	sets := make([]map[string]bool, 0, len(tables))
	for _, t := range tables {
		labels = append(labels, t.Tissue)
		sets = append(sets, t.GeneSet())
	}
	m := NewMatrix(labels)
	for i := range sets {
		for j := i; j < len(sets); j++ {
			score := overlapScore(sets[i], sets[j], metric)
			m.Set(i, j, score)
			m.Set(j, i, score)
		}
	}
	return m, nil
}

func overlapScore(g1, g2 map[string]bool, metric OverlapMetric) float64 {
	inter := 0
	for g := range g1 {
		if g2[g] {
			inter++
		}
	}
	switch metric {
	case Intersection:
		return float64(inter)
	case OverlapCoefficient:
		min := len(g1)
		if len(g2) < min {
			min = len(g2)
		}
		if min == 0 {
			return 0
		}
		return float64(inter) / float64(min)
	default: // Jaccard
		union := len(g1) + len(g2) - inter
		if union == 0 {
			return 0
		}
		return float64(inter) / float64(union)
	}
}

type overlapcmd struct{}

func (cmd *overlapcmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	outputFilename := flags.String("o", "-", "output matrix `file` (- for stdout)")
	metricName := flags.String("metric", string(Jaccard), "overlap `metric` (jaccard, intersection, overlap_coefficient)")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "usage: %s [options] tissue=table.csv ...\n", prog)
		flags.PrintDefaults()
	}
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	}
	metric, err := ParseOverlapMetric(*metricName)
	if err != nil {
		return 2
	}
	inputs, err := parseTissueArgs(flags.Args())
	if err != nil {
		return 2
	}

	tables, err := readTissueTables(inputs, stdin)
	if err != nil {
		return 1
	}
	m, err := SignatureOverlap(tables, metric)
	if err != nil {
		return 1
	}

	output, err := createOutput(*outputFilename, stdout)
	if err != nil {
		return 1
	}
	defer output.Close()
	err = m.WriteCSV(output)
	if err != nil {
		return 1
	}
	err = output.Close()
	if err != nil {
		return 1
	}
	return 0
}

// readTissueTables loads one significant-gene table per tissue,
// preserving the caller's tissue order.
func readTissueTables(inputs []tissueFile, stdin io.Reader) ([]TissueTable, error) {
	tables := make([]TissueTable, 0, len(inputs))
	for _, in := range inputs {
		f, err := openInput(in.Path, stdin)
		if err != nil {
			return nil, err
		}
		genes, err := ReadSignificantGenes(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", in.Path, err)
		}
		tables = append(tables, TissueTable{Tissue: in.Tissue, Genes: genes})
	}
	return tables, nil
}
