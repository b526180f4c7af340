package atlas

import (
	"reflect"

	"gopkg.in/check.v1"
)

type aggregateSuite struct{}

var _ = check.Suite(&aggregateSuite{})

func sigRow(gene string, log2fc, padj float64) SignificantGene {
	return SignificantGene{
		GeneStat:  GeneStat{Gene: gene, Log2FoldChange: log2fc, PValue: padj / 2, PValueAdj: padj, Group: "disease"},
		Direction: directionOf(log2fc),
	}
}

func (s *aggregateSuite) TestConsistentGeneAcrossTwoTissues(c *check.C) {
	tables := []TissueTable{
		{Tissue: "blood", Genes: []SignificantGene{sigRow("geneA", 2.0, 0.001)}},
		{Tissue: "lung", Genes: []SignificantGene{sigRow("geneA", 1.5, 0.01)}},
	}
	sigs := AggregateCrossTissue(tables, 2, true)
	c.Assert(sigs, check.HasLen, 1)
	c.Check(sigs[0].Gene, check.Equals, "geneA")
	c.Check(sigs[0].NTissues, check.Equals, 2)
	c.Check(sigs[0].Tissues, check.DeepEquals, []string{"blood", "lung"})
	c.Check(sigs[0].AvgLog2FC, check.Equals, 1.75)
	c.Check(sigs[0].Direction, check.Equals, Up)
	c.Check(sigs[0].MinPValueAdj, check.Equals, 0.001)
	c.Check(sigs[0].CombinedP < 0.001, check.Equals, true)
}

func (s *aggregateSuite) TestConflictingDirectionsExcluded(c *check.C) {
	tables := []TissueTable{
		{Tissue: "blood", Genes: []SignificantGene{sigRow("geneA", 2.0, 0.001)}},
		{Tissue: "lung", Genes: []SignificantGene{sigRow("geneA", -1.5, 0.01)}},
	}
	c.Check(AggregateCrossTissue(tables, 2, true), check.HasLen, 0)

	// With the consistency requirement off the gene is admitted and
	// keeps the direction of the first tissue in caller order.
	sigs := AggregateCrossTissue(tables, 2, false)
	c.Assert(sigs, check.HasLen, 1)
	c.Check(sigs[0].Direction, check.Equals, Up)
	c.Check(sigs[0].AvgLog2FC, check.Equals, 0.25)
}

func (s *aggregateSuite) TestMinTissues(c *check.C) {
	tables := []TissueTable{
		{Tissue: "blood", Genes: []SignificantGene{sigRow("A", 1, 0.01), sigRow("B", 1, 0.01)}},
		{Tissue: "lung", Genes: []SignificantGene{sigRow("B", 1, 0.01), sigRow("C", 1, 0.01)}},
		{Tissue: "heart", Genes: []SignificantGene{sigRow("B", 1, 0.01)}},
	}
	sigs := AggregateCrossTissue(tables, 3, true)
	c.Assert(sigs, check.HasLen, 1)
	c.Check(sigs[0].Gene, check.Equals, "B")
	c.Check(sigs[0].NTissues, check.Equals, 3)

	sigs = AggregateCrossTissue(tables, 1, true)
	c.Check(sigs, check.HasLen, 3)
	// more tissues first, then stronger significance, then gene ID
	c.Check(sigs[0].Gene, check.Equals, "B")
	c.Check(sigs[1].Gene, check.Equals, "A")
	c.Check(sigs[2].Gene, check.Equals, "C")
}

func (s *aggregateSuite) TestTieBreakByPValueThenGene(c *check.C) {
	tables := []TissueTable{
		{Tissue: "blood", Genes: []SignificantGene{
			sigRow("Z", 1, 0.002),
			sigRow("M", 1, 0.001),
			sigRow("A", 1, 0.002),
		}},
		{Tissue: "lung", Genes: []SignificantGene{
			sigRow("Z", 1, 0.002),
			sigRow("M", 1, 0.001),
			sigRow("A", 1, 0.002),
		}},
	}
	sigs := AggregateCrossTissue(tables, 2, true)
	c.Assert(sigs, check.HasLen, 3)
	c.Check(sigs[0].Gene, check.Equals, "M")
	c.Check(sigs[1].Gene, check.Equals, "A")
	c.Check(sigs[2].Gene, check.Equals, "Z")
}

func (s *aggregateSuite) TestIdempotent(c *check.C) {
	tables := []TissueTable{
		{Tissue: "blood", Genes: []SignificantGene{sigRow("A", 1.2, 0.01), sigRow("B", -0.9, 0.002)}},
		{Tissue: "lung", Genes: []SignificantGene{sigRow("B", -1.1, 0.03), sigRow("A", 0.8, 0.04)}},
	}
	first := AggregateCrossTissue(tables, 2, true)
	second := AggregateCrossTissue(tables, 2, true)
	c.Check(reflect.DeepEqual(first, second), check.Equals, true)
}

func (s *aggregateSuite) TestEmptyInputs(c *check.C) {
	c.Check(AggregateCrossTissue(nil, 2, true), check.HasLen, 0)
	c.Check(AggregateCrossTissue([]TissueTable{{Tissue: "blood"}, {Tissue: "lung"}}, 2, true), check.HasLen, 0)
}
