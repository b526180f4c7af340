package atlas

import (
	"flag"
	"fmt"
	"io"
	"math"
	"sort"

	log "github.com/sirupsen/logrus"
)

// FilterSignificant classifies DE rows as significant and annotates
// direction. A row is retained iff pvals_adj < maxPValAdj and
// |logfoldchanges| > minLog2FC (both strict, so NaN statistics are
// dropped). If the upstream test emits the same gene more than once,
// the first retained row wins. Output is sorted by ascending adjusted
// p-value; ties keep input order.
func FilterSignificant(results []GeneStat, minLog2FC, maxPValAdj float64) []SignificantGene {
	sig := make([]SignificantGene, 0, len(results))
	seen := make(map[string]bool, len(results))
	for _, r := range results {
		if !(r.PValueAdj < maxPValAdj) || !(math.Abs(r.Log2FoldChange) > minLog2FC) {
			continue
		}
		if seen[r.Gene] {
			continue
		}
		seen[r.Gene] = true
		sig = append(sig, SignificantGene{GeneStat: r, Direction: directionOf(r.Log2FoldChange)})
	}
	sort.SliceStable(sig, func(i, j int) bool {
		return sig[i].PValueAdj < sig[j].PValueAdj
	})
	return sig
}

type filtercmd struct {
	MinLog2FC  float64
	MaxPValAdj float64
}

func (cmd *filtercmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	inputFilename := flags.String("i", "-", "input DE table `file` (- for stdin)")
	outputFilename := flags.String("o", "-", "output `file` (- for stdout)")
	flags.Float64Var(&cmd.MinLog2FC, "min-log2fc", DefaultConfig().MinLog2FC, "minimum |log2 fold change|")
	flags.Float64Var(&cmd.MaxPValAdj, "max-pval-adj", DefaultConfig().MaxPValAdj, "maximum adjusted p-value")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	}

	cfg := DefaultConfig()
	cfg.MinLog2FC = cmd.MinLog2FC
	cfg.MaxPValAdj = cmd.MaxPValAdj
	if err = cfg.Validate(); err != nil {
		return 2
	}

	input, err := openInput(*inputFilename, stdin)
	if err != nil {
		return 1
	}
	defer input.Close()
	stats, err := ReadGeneStats(input)
	if err != nil {
		return 1
	}
	err = input.Close()
	if err != nil {
		return 1
	}

	sig := FilterSignificant(stats, cmd.MinLog2FC, cmd.MaxPValAdj)
	up, down := 0, 0
	for _, g := range sig {
		if g.Direction == Up {
			up++
		} else {
			down++
		}
	}
	log.Infof("significant genes: %d (%d up, %d down) of %d tested", len(sig), up, down, len(stats))

	output, err := createOutput(*outputFilename, stdout)
	if err != nil {
		return 1
	}
	defer output.Close()
	err = WriteSignificantGenes(output, sig)
	if err != nil {
		return 1
	}
	err = output.Close()
	if err != nil {
		return 1
	}
	return 0
}
