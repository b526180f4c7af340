package atlas

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
)

// statscmd prints a JSON digest of a significant-gene table.
type statscmd struct{}

func (cmd *statscmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	inputFilename := flags.String("i", "-", "input `file` (- for stdin)")
	outputFilename := flags.String("o", "-", "output `file` (- for stdout)")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	}

	input, err := openInput(*inputFilename, stdin)
	if err != nil {
		return 1
	}
	defer input.Close()

	output, err := createOutput(*outputFilename, stdout)
	if err != nil {
		return 1
	}
	defer output.Close()

	bufw := bufio.NewWriter(output)
	err = cmd.doStats(input, bufw)
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
	return 0
}

func (cmd *statscmd) doStats(input io.Reader, output io.Writer) error {
	genes, err := ReadSignificantGenes(input)
	if err != nil {
		return err
	}
	var ret struct {
		Genes         int
		Upregulated   int
		Downregulated int
		MinPValAdj    float64
		MaxAbsLog2FC  float64
		Groups        map[string]int `json:",omitempty"`
	}
	ret.Genes = len(genes)
	ret.MinPValAdj = math.NaN()
	for _, g := range genes {
		if g.Direction == Up {
			ret.Upregulated++
		} else {
			ret.Downregulated++
		}
		if math.IsNaN(ret.MinPValAdj) || g.PValueAdj < ret.MinPValAdj {
			ret.MinPValAdj = g.PValueAdj
		}
		if abs := math.Abs(g.Log2FoldChange); abs > ret.MaxAbsLog2FC {
			ret.MaxAbsLog2FC = abs
		}
		if g.Group != "" {
			if ret.Groups == nil {
				ret.Groups = map[string]int{}
			}
			ret.Groups[g.Group]++
		}
	}
	if math.IsNaN(ret.MinPValAdj) {
		// empty table, or nothing but NaN p-values; JSON has no NaN
		ret.MinPValAdj = 1
	}
	return json.NewEncoder(output).Encode(ret)
}
