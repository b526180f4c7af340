package atlas

import (
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	_ "net/http/pprof"
	"sort"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DEMethod selects the statistic used by the reference DE
// implementation. The core never depends on which one produced a
// table; anything emitting the standard schema can stand in.
type DEMethod string

const (
	TTest DEMethod = "ttest"
	GLM   DEMethod = "glm"
)

func ParseDEMethod(s string) (DEMethod, error) {
	switch DEMethod(s) {
	case TTest, GLM:
		return DEMethod(s), nil
	}
	return "", fmt.Errorf("unknown DE method %q (want ttest or glm)", s)
}

// DifferentialExpression compares disease vs control expression for
// every gene present in both matrices (in disease row order) and
// returns one GeneStat per gene with Benjamini-Hochberg adjusted
// p-values. group labels the comparison group in the output table.
func DifferentialExpression(disease, control *ExprMatrix, group string, method DEMethod) ([]GeneStat, error) {
	if _, err := ParseDEMethod(string(method)); err != nil {
		return nil, err
	}
	if len(disease.Genes) == 0 || len(control.Genes) == 0 {
		return nil, fmt.Errorf("empty expression matrix, expected at least one gene row")
	}
	controlRows := make(map[string][]float64, len(control.Genes))
	for i, g := range control.Genes {
		controlRows[g] = control.Values[i]
	}

	var stats []GeneStat
	for i, gene := range disease.Genes {
		ctl, ok := controlRows[gene]
		if !ok {
			continue
		}
		dis := disease.Values[i]
		var score, p float64
		switch method {
		case GLM:
			score, p = glmScore(dis, ctl)
		default:
			score, p = welchT(dis, ctl)
		}
		stats = append(stats, GeneStat{
			Gene:           gene,
			Log2FoldChange: log2FoldChange(dis, ctl),
			PValue:         p,
			Score:          score,
			Group:          group,
		})
	}
	adj := benjaminiHochberg(pvalues(stats))
	for i := range stats {
		stats[i].PValueAdj = adj[i]
	}
	return stats, nil
}

func pvalues(stats []GeneStat) []float64 {
	p := make([]float64, len(stats))
	for i, s := range stats {
		p[i] = s.PValue
	}
	return p
}

// log2FoldChange compares group means with a small pseudocount so
// all-zero genes stay finite.
func log2FoldChange(disease, control []float64) float64 {
	const eps = 1e-9
	return math.Log2((stat.Mean(disease, nil) + eps) / (stat.Mean(control, nil) + eps))
}

// welchT is Welch's unequal-variance t-test with the Satterthwaite
// degrees of freedom. Degenerate inputs (fewer than two observations
// in either group, or zero variance in both) fall back to p=1 when
// the means agree and p=0 when they don't, rather than erroring.
func welchT(x, y []float64) (t, p float64) {
	if len(x) < 2 || len(y) < 2 {
		return 0, 1
	}
	mx, vx := stat.MeanVariance(x, nil)
	my, vy := stat.MeanVariance(y, nil)
	sex := vx / float64(len(x))
	sey := vy / float64(len(y))
	se := math.Sqrt(sex + sey)
	if se == 0 {
		if mx == my {
			return 0, 1
		}
		return math.Inf(sign(mx - my)), 0
	}
	t = (mx - my) / se
	df := (sex + sey) * (sex + sey) / (sex*sex/float64(len(x)-1) + sey*sey/float64(len(y)-1))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return t, 2 * dist.CDF(-math.Abs(t))
}

func sign(x float64) int {
	if x < 0 {
		return -1
	}
	return 1
}

// benjaminiHochberg applies the BH step-up adjustment. NaN p-values
// stay NaN and do not count toward the number of tests.
func benjaminiHochberg(p []float64) []float64 {
	adj := make([]float64, len(p))
	var idx []int
	for i, v := range p {
		if math.IsNaN(v) {
			adj[i] = math.NaN()
			continue
		}
		idx = append(idx, i)
	}
	sort.Slice(idx, func(a, b int) bool { return p[idx[a]] < p[idx[b]] })
	n := float64(len(idx))
	running := math.Inf(1)
	for rank := len(idx); rank >= 1; rank-- {
		i := idx[rank-1]
		v := p[i] * n / float64(rank)
		if v < running {
			running = v
		}
		if running > 1 {
			adj[i] = 1
		} else {
			adj[i] = running
		}
	}
	return adj
}

type decmd struct {
	Method string
	Group  string
}

func (cmd *decmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	pprof := flags.String("pprof", "", "serve Go profile data at http://`[addr]:port`")
	diseaseFilename := flags.String("disease", "", "disease expression matrix `file`")
	controlFilename := flags.String("control", "", "control expression matrix `file`")
	outputFilename := flags.String("o", "-", "output DE table `file` (- for stdout)")
	flags.StringVar(&cmd.Method, "method", string(TTest), "DE `method` (ttest or glm)")
	flags.StringVar(&cmd.Group, "group", "disease", "comparison group `label` for the output table")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	}

	if *pprof != "" {
		go func() {
			log.Println(http.ListenAndServe(*pprof, nil))
		}()
	}

	method, err := ParseDEMethod(cmd.Method)
	if err != nil {
		return 2
	}
	if *diseaseFilename == "" || *controlFilename == "" {
		err = fmt.Errorf("-disease and -control files are both required")
		return 2
	}

	disease, err := readExprFile(*diseaseFilename, stdin)
	if err != nil {
		return 1
	}
	control, err := readExprFile(*controlFilename, stdin)
	if err != nil {
		return 1
	}
	log.Infof("running %s DE: %d disease x %d control samples", method, len(disease.Samples), len(control.Samples))

	stats, err := DifferentialExpression(disease, control, cmd.Group, method)
	if err != nil {
		return 1
	}

	output, err := createOutput(*outputFilename, stdout)
	if err != nil {
		return 1
	}
	defer output.Close()
	err = WriteGeneStats(output, stats)
	if err != nil {
		return 1
	}
	err = output.Close()
	if err != nil {
		return 1
	}
	return 0
}

func readExprFile(filename string, stdin io.Reader) (*ExprMatrix, error) {
	f, err := openInput(filename, stdin)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := ReadExprMatrix(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return m, nil
}
