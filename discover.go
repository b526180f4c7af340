package atlas

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"runtime"

	log "github.com/sirupsen/logrus"
)

// discovercmd runs the whole signature discovery pipeline: filter
// each tissue's raw DE table, aggregate cross-tissue signatures,
// partition tissue-specific ones, compute the signature overlap
// matrix, and persist everything under the output directory.
type discovercmd struct {
	Config     Config
	MaxWorkers int
}

func (cmd *discovercmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	cmd.Config = DefaultConfig()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	pprof := flags.String("pprof", "", "serve Go profile data at http://`[addr]:port`")
	outputDir := flags.String("output-dir", "./signatures", "output `directory`")
	metricName := flags.String("overlap-metric", string(cmd.Config.OverlapMetric), "signature overlap `metric` (jaccard, intersection, overlap_coefficient)")
	flags.Float64Var(&cmd.Config.MinLog2FC, "min-log2fc", cmd.Config.MinLog2FC, "minimum |log2 fold change|")
	flags.Float64Var(&cmd.Config.MaxPValAdj, "max-pval-adj", cmd.Config.MaxPValAdj, "maximum adjusted p-value")
	flags.IntVar(&cmd.Config.MinTissues, "min-tissues", cmd.Config.MinTissues, "minimum number of tissues for a cross-tissue signature")
	flags.BoolVar(&cmd.Config.DirectionConsistent, "direction-consistent", cmd.Config.DirectionConsistent, "require the same direction in every contributing tissue")
	flags.IntVar(&cmd.Config.TopN, "top-n", cmd.Config.TopN, "number of top genes per category in the summary")
	flags.IntVar(&cmd.MaxWorkers, "max-workers", runtime.NumCPU(), "maximum concurrent per-tissue workers")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "usage: %s [options] tissue=de_table.csv ...\n", prog)
		flags.PrintDefaults()
	}
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

	cmd.Config.OverlapMetric = OverlapMetric(*metricName)
	if err = cmd.Config.Validate(); err != nil {
		return 2
	}
	inputs, err := parseTissueArgs(flags.Args())
	if err != nil {
		return 2
	}

	tables, err := cmd.loadTissueTables(inputs, stdin)
	if err != nil {
		return 1
	}

	cross := AggregateCrossTissue(tables, cmd.Config.MinTissues, cmd.Config.DirectionConsistent)
	specific := PartitionTissueSpecific(tables, CrossTissueGeneSet(cross))
	log.WithFields(log.Fields{
		"tissues":       len(tables),
		"crossTissue":   len(cross),
		"minTissues":    cmd.Config.MinTissues,
		"dirConsistent": cmd.Config.DirectionConsistent,
	}).Info("aggregated cross-tissue signatures")

	overlap, err := SignatureOverlap(tables, cmd.Config.OverlapMetric)
	if err != nil {
		return 1
	}
	overlapArt, err := SaveMatrix(*outputDir, "signature_overlap.csv", overlap)
	if err != nil {
		return 1
	}

	summary := BuildSummary(cross, specific, cmd.Config.TopN)
	err = SaveSignatures(*outputDir, cross, specific, summary, overlapArt)
	if err != nil {
		return 1
	}
	fmt.Fprintln(stdout, *outputDir)
	return 0
}

// loadTissueTables reads and filters each tissue's raw DE table.
// Failures are isolated per tissue: a bad table is logged and
// skipped, and the run only aborts if no tissue survives. Tables are
// read concurrently but the returned order is the caller's.
func (cmd *discovercmd) loadTissueTables(inputs []tissueFile, stdin io.Reader) ([]TissueTable, error) {
	loaded := make([]*TissueTable, len(inputs))
	throttle := newThrottle(cmd.MaxWorkers)
	for i, in := range inputs {
		i, in := i, in
		throttle.Go(func() {
			f, err := openInput(in.Path, stdin)
			if err != nil {
				log.WithError(err).Warnf("skipping tissue %q", in.Tissue)
				return
			}
			stats, err := ReadGeneStats(f)
			f.Close()
			if err != nil {
				log.WithError(err).Warnf("skipping tissue %q: %s", in.Tissue, in.Path)
				return
			}
			sig := FilterSignificant(stats, cmd.Config.MinLog2FC, cmd.Config.MaxPValAdj)
			log.Infof("%s: %d significant of %d tested genes", in.Tissue, len(sig), len(stats))
			loaded[i] = &TissueTable{Tissue: in.Tissue, Genes: sig}
		})
	}
	throttle.Wait()

	tables := make([]TissueTable, 0, len(inputs))
	for _, t := range loaded {
		if t != nil {
			tables = append(tables, *t)
		}
	}
	if len(tables) == 0 {
		return nil, errors.New("no tissue tables could be processed")
	}
	return tables, nil
}
