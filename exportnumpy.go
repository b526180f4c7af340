package atlas

import (
	"bufio"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"math"

	"github.com/kshedden/gonpy"
)

// FoldChanges is a genes-by-tissues matrix of log2 fold changes for
// the visualization collaborator. Pairs where a gene was not
// significant in a tissue are NaN, not zero-filled.
type FoldChanges struct {
	Genes   []string
	Tissues []string
	Values  [][]float64 // Values[i][j] = gene i in tissue j
}

// FoldChangeMatrix collects per-tissue log2 fold changes for the
// given genes. A nil gene list means every gene seen in any table, in
// first-seen order across the ordered tables.
func FoldChangeMatrix(tables []TissueTable, genes []string) *FoldChanges {
	if genes == nil {
		seen := map[string]bool{}
		for _, t := range tables {
			for _, g := range t.Genes {
				if !seen[g.Gene] {
					seen[g.Gene] = true
					genes = append(genes, g.Gene)
				}
			}
		}
	}
	fc := &FoldChanges{Genes: genes}
	lookup := make([]map[string]float64, 0, len(tables))
	for _, t := range tables {
		fc.Tissues = append(fc.Tissues, t.Tissue)
		m := make(map[string]float64, len(t.Genes))
		for _, g := range t.Genes {
			if _, ok := m[g.Gene]; !ok {
				m[g.Gene] = g.Log2FoldChange
			}
		}
		lookup = append(lookup, m)
	}
	for _, gene := range genes {
		row := make([]float64, len(tables))
		for j := range tables {
			if v, ok := lookup[j][gene]; ok {
				row[j] = v
			} else {
				row[j] = math.NaN()
			}
		}
		fc.Values = append(fc.Values, row)
	}
	return fc
}

type exportNumpy struct{}

func (cmd *exportNumpy) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	outputFilename := flags.String("o", "-", "output `file` (.npy, - for stdout)")
	geneLabels := flags.String("output-gene-labels", "", "also output gene row labels csv `file`")
	tissueLabels := flags.String("output-tissue-labels", "", "also output tissue column labels csv `file`")
	minTissues := flags.Int("min-tissues", 1, "only export genes significant in at least `N` tissues")
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
	inputs, err := parseTissueArgs(flags.Args())
	if err != nil {
		return 2
	}
	tables, err := readTissueTables(inputs, stdin)
	if err != nil {
		return 1
	}

	fc := FoldChangeMatrix(tables, nil)
	if *minTissues > 1 {
		fc = filterFoldChanges(fc, *minTissues)
	}

	output, err := createOutput(*outputFilename, stdout)
	if err != nil {
		return 1
	}
	defer output.Close()
	bufw := bufio.NewWriter(output)
	npw, err := gonpy.NewWriter(nopCloser{bufw})
	if err != nil {
		return 1
	}
	npw.Shape = []int{len(fc.Genes), len(fc.Tissues)}
	flat := make([]float64, 0, len(fc.Genes)*len(fc.Tissues))
	for _, row := range fc.Values {
		flat = append(flat, row...)
	}
	err = npw.WriteFloat64(flat)
	if err != nil {
		return 1
	}
	err = bufw.Flush()
	if err != nil {
		return 1
	}
	err = output.Close()
	if err != nil {
		return 1
	}

	if *geneLabels != "" {
		err = writeLabels(*geneLabels, fc.Genes)
		if err != nil {
			return 1
		}
	}
	if *tissueLabels != "" {
		err = writeLabels(*tissueLabels, fc.Tissues)
		if err != nil {
			return 1
		}
	}
	return 0
}

// filterFoldChanges keeps only genes with a defined fold change in at
// least minTissues tissues.
func filterFoldChanges(fc *FoldChanges, minTissues int) *FoldChanges {
	out := &FoldChanges{Tissues: fc.Tissues}
	for i, gene := range fc.Genes {
		n := 0
		for _, v := range fc.Values[i] {
			if !math.IsNaN(v) {
				n++
			}
		}
		if n >= minTissues {
			out.Genes = append(out.Genes, gene)
			out.Values = append(out.Values, fc.Values[i])
		}
	}
	return out
}

func writeLabels(filename string, labels []string) error {
	f, err := createOutput(filename, nil)
	if err != nil {
		return err
	}
	defer f.Close()
	cw := csv.NewWriter(f)
	for i, label := range labels {
		if err := cw.Write([]string{fmt.Sprintf("%d", i), label}); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return f.Close()
}
