package atlas

import "sort"

// AggregateCrossTissue merges per-tissue significant-gene tables into
// cross-tissue signatures. tables must be in the caller's chosen
// order: tissue lists in the output, and the "first seen" direction
// used when directionConsistent is false, follow that order.
//
// A gene is admitted when it appears in at least minTissues tables
// and, if directionConsistent is set, its direction is identical in
// all of them (genes with conflicting directions are discarded, not
// flagged). Rows are sorted by descending tissue count, then
// ascending minimum adjusted p-value, then gene ID, so repeated runs
// over the same inputs produce byte-identical tables.
func AggregateCrossTissue(tables []TissueTable, minTissues int, directionConsistent bool) []CrossTissueSignature {
	var genes []string
	seen := map[string]bool{}
	for _, t := range tables {
		for _, g := range t.Genes {
			if !seen[g.Gene] {
				seen[g.Gene] = true
				genes = append(genes, g.Gene)
			}
		}
	}

	var sigs []CrossTissueSignature
	for _, gene := range genes {
		var (
			tissues    []string
			log2fcs    []float64
			pvals      []float64
			directions []Direction
			minPAdj    = 1.0
		)
		for _, t := range tables {
			for _, g := range t.Genes {
				if g.Gene != gene {
					continue
				}
				tissues = append(tissues, t.Tissue)
				log2fcs = append(log2fcs, g.Log2FoldChange)
				pvals = append(pvals, g.PValueAdj)
				directions = append(directions, g.Direction)
				if g.PValueAdj < minPAdj {
					minPAdj = g.PValueAdj
				}
				break
			}
		}
		if len(tissues) < minTissues {
			continue
		}
		if directionConsistent && !allSameDirection(directions) {
			continue
		}
		sum := 0.0
		for _, fc := range log2fcs {
			sum += fc
		}
		sigs = append(sigs, CrossTissueSignature{
			Gene:         gene,
			NTissues:     len(tissues),
			Tissues:      tissues,
			AvgLog2FC:    sum / float64(len(log2fcs)),
			Direction:    directions[0],
			MinPValueAdj: minPAdj,
			CombinedP:    fisherCombinedP(pvals),
		})
	}

	sort.Slice(sigs, func(i, j int) bool {
		if sigs[i].NTissues != sigs[j].NTissues {
			return sigs[i].NTissues > sigs[j].NTissues
		}
		if sigs[i].MinPValueAdj != sigs[j].MinPValueAdj {
			return sigs[i].MinPValueAdj < sigs[j].MinPValueAdj
		}
		return sigs[i].Gene < sigs[j].Gene
	})
	return sigs
}

func allSameDirection(directions []Direction) bool {
	for _, d := range directions[1:] {
		if d != directions[0] {
			return false
		}
	}
	return true
}
