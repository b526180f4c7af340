package atlas

import (
	"fmt"
	"strings"
)

// Direction is the sign of a gene's disease-vs-control fold change.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// ParseDirection converts the serialized form back to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(s)) {
	case Up:
		return Up, nil
	case Down:
		return Down, nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// directionOf maps a log2 fold change to a Direction. Zero maps to
// Down, matching the strict x > 0 test used everywhere else.
func directionOf(log2fc float64) Direction {
	if log2fc > 0 {
		return Up
	}
	return Down
}

// GeneStat is one row of a per-tissue differential expression table,
// as produced by the upstream DE test (see the `de` subcommand for
// the reference implementation). Immutable once produced.
type GeneStat struct {
	Gene           string
	Log2FoldChange float64
	PValue         float64
	PValueAdj      float64
	Score          float64
	Group          string
}

// SignificantGene is a GeneStat that survived significance filtering,
// annotated with its fold-change direction.
type SignificantGene struct {
	GeneStat
	Direction Direction
}

// TissueTable is one tissue's significant-gene table. Gene IDs are
// unique within a table. Multi-tissue operations take ordered
// []TissueTable slices so that any first-seen tie-breaking is
// controlled by the caller, not by map iteration order.
type TissueTable struct {
	Tissue string
	Genes  []SignificantGene
}

// GeneSet returns the set of gene IDs in the table.
func (t TissueTable) GeneSet() map[string]bool {
	set := make(map[string]bool, len(t.Genes))
	for _, g := range t.Genes {
		set[g.Gene] = true
	}
	return set
}

// CrossTissueSignature is a gene significant in at least minTissues
// tissues (and, if required, with a consistent direction in all of
// them). Derived wholesale from the per-tissue tables; never mutated
// in place.
type CrossTissueSignature struct {
	Gene         string
	NTissues     int
	Tissues      []string
	AvgLog2FC    float64
	Direction    Direction
	MinPValueAdj float64
	CombinedP    float64
}

// CrossTissueGeneSet collects the gene IDs claimed by cross-tissue
// signatures, for partitioning the per-tissue tables.
func CrossTissueGeneSet(sigs []CrossTissueSignature) map[string]bool {
	set := make(map[string]bool, len(sigs))
	for _, sig := range sigs {
		set[sig.Gene] = true
	}
	return set
}
