package atlas

import (
	"flag"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// CorrMethod selects the correlation statistic for mean-expression
// profiles.
type CorrMethod string

const (
	Pearson  CorrMethod = "pearson"
	Spearman CorrMethod = "spearman"
)

func ParseCorrMethod(s string) (CorrMethod, error) {
	switch CorrMethod(s) {
	case Pearson, Spearman:
		return CorrMethod(s), nil
	}
	return "", fmt.Errorf("unknown correlation method %q (want pearson or spearman)", s)
}

// TissueProfile is one tissue's mean expression over its gene
// universe.
type TissueProfile struct {
	Tissue string
	Mean   map[string]float64
}

// ExpressionCorrelation computes the pairwise correlation of the
// tissues' mean-expression profiles. When genes is nil the
// intersection of all tissues' gene universes is used, in sorted
// order. Genes missing (or NaN) in either tissue of a pair are
// excluded from that pair's computation rather than zero-filled; a
// pair left with fewer than two genes, or with a constant profile,
// yields NaN, not an error.
func ExpressionCorrelation(profiles []TissueProfile, genes []string, method CorrMethod) (*Matrix, error) {
	if _, err := ParseCorrMethod(string(method)); err != nil {
		return nil, err
	}
	if genes == nil {
		genes = commonGenes(profiles)
	}
	labels := make([]string, 0, len(profiles))
	for _, p := range profiles {
		labels = append(labels, p.Tissue)
	}
	m := NewMatrix(labels)
	for i := range profiles {
		for j := i; j < len(profiles); j++ {
			r := pairCorrelation(profiles[i].Mean, profiles[j].Mean, genes, method)
			m.Set(i, j, r)
			m.Set(j, i, r)
		}
	}
	return m, nil
}

func commonGenes(profiles []TissueProfile) []string {
	if len(profiles) == 0 {
		return nil
	}
	var genes []string
	for g := range profiles[0].Mean {
		shared := true
		for _, p := range profiles[1:] {
			if _, ok := p.Mean[g]; !ok {
				shared = false
				break
			}
		}
		if shared {
			genes = append(genes, g)
		}
	}
	sort.Strings(genes)
	return genes
}

func pairCorrelation(m1, m2 map[string]float64, genes []string, method CorrMethod) float64 {
	var x, y []float64
	for _, g := range genes {
		v1, ok1 := m1[g]
		v2, ok2 := m2[g]
		if !ok1 || !ok2 || math.IsNaN(v1) || math.IsNaN(v2) {
			continue
		}
		x = append(x, v1)
		y = append(y, v2)
	}
	if len(x) < 2 {
		return math.NaN()
	}
	if method == Spearman {
		x = averageRanks(x)
		y = averageRanks(y)
	}
	return stat.Correlation(x, y, nil)
}

// averageRanks replaces values with 1-based ranks, assigning tied
// values the mean of the ranks they span.
func averageRanks(x []float64) []float64 {
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })
	ranks := make([]float64, len(x))
	for i := 0; i < len(idx); {
		j := i + 1
		for j < len(idx) && x[idx[j]] == x[idx[i]] {
			j++
		}
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		i = j
	}
	return ranks
}

type correlatecmd struct{}

func (cmd *correlatecmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	outputFilename := flags.String("o", "-", "output matrix `file` (- for stdout)")
	methodName := flags.String("method", string(Pearson), "correlation `method` (pearson or spearman)")
	geneList := flags.String("genes", "", "comma-separated `genes` to correlate over (default: intersection of all tissues)")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "usage: %s [options] tissue=expression.csv ...\n", prog)
		flags.PrintDefaults()
	}
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	}
	method, err := ParseCorrMethod(*methodName)
	if err != nil {
		return 2
	}
	inputs, err := parseTissueArgs(flags.Args())
	if err != nil {
		return 2
	}

	var genes []string
	if *geneList != "" {
		genes = strings.Split(*geneList, ",")
	}

	profiles := make([]TissueProfile, 0, len(inputs))
	for _, in := range inputs {
		f, err2 := openInput(in.Path, stdin)
		if err2 != nil {
			err = err2
			return 1
		}
		mat, err2 := ReadExprMatrix(f)
		f.Close()
		if err2 != nil {
			err = fmt.Errorf("%s: %w", in.Path, err2)
			return 1
		}
		profiles = append(profiles, TissueProfile{Tissue: in.Tissue, Mean: mat.MeanProfile()})
	}

	m, err := ExpressionCorrelation(profiles, genes, method)
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
