package atlas

// PartitionTissueSpecific removes cross-tissue genes from each
// tissue's significant table, leaving the tissue-exclusive signature.
// Per-tissue row order is preserved and no statistics are recomputed,
// so for every tissue the returned rows plus the rows whose gene is
// in crossTissue partition the input table exactly.
func PartitionTissueSpecific(tables []TissueTable, crossTissue map[string]bool) []TissueTable {
	specific := make([]TissueTable, 0, len(tables))
	for _, t := range tables {
		kept := make([]SignificantGene, 0, len(t.Genes))
		for _, g := range t.Genes {
			if !crossTissue[g.Gene] {
				kept = append(kept, g)
			}
		}
		specific = append(specific, TissueTable{Tissue: t.Tissue, Genes: kept})
	}
	return specific
}
