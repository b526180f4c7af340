package atlas

// SignatureCounts summarizes one signature category: totals by
// direction plus the most significant genes (the input tables are
// already sorted strongest-first, so top genes are a prefix).
type SignatureCounts struct {
	TotalGenes    int      `json:"total_genes"`
	Upregulated   int      `json:"upregulated"`
	Downregulated int      `json:"downregulated"`
	TopGenes      []string `json:"top_genes"`
}

// SignatureSummary is the structured run summary persisted alongside
// the signature tables.
type SignatureSummary struct {
	CrossTissue    SignatureCounts            `json:"cross_tissue"`
	TissueSpecific map[string]SignatureCounts `json:"tissue_specific"`
}

// BuildSummary counts cross-tissue and tissue-specific signatures by
// direction and records the top topN genes per category.
func BuildSummary(cross []CrossTissueSignature, specific []TissueTable, topN int) *SignatureSummary {
	summary := &SignatureSummary{
		CrossTissue:    SignatureCounts{TopGenes: []string{}},
		TissueSpecific: map[string]SignatureCounts{},
	}
	for _, sig := range cross {
		summary.CrossTissue.TotalGenes++
		if sig.Direction == Up {
			summary.CrossTissue.Upregulated++
		} else {
			summary.CrossTissue.Downregulated++
		}
		if len(summary.CrossTissue.TopGenes) < topN {
			summary.CrossTissue.TopGenes = append(summary.CrossTissue.TopGenes, sig.Gene)
		}
	}
	for _, t := range specific {
		counts := SignatureCounts{TopGenes: []string{}}
		for _, g := range t.Genes {
			counts.TotalGenes++
			if g.Direction == Up {
				counts.Upregulated++
			} else {
				counts.Downregulated++
			}
			if len(counts.TopGenes) < topN {
				counts.TopGenes = append(counts.TopGenes, g.Gene)
			}
		}
		summary.TissueSpecific[t.Tissue] = counts
	}
	return summary
}
