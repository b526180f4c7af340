package atlas

import (
	"encoding/json"
	"os"
	"strings"

	"gopkg.in/check.v1"
)

type persistSuite struct{}

var _ = check.Suite(&persistSuite{})

func fixtureSignatures() ([]CrossTissueSignature, []TissueTable, *SignatureSummary) {
	cross := []CrossTissueSignature{
		{Gene: "IL6", NTissues: 2, Tissues: []string{"blood", "lung"}, AvgLog2FC: 1.75, Direction: Up, MinPValueAdj: 0.001, CombinedP: 0.0001},
	}
	specific := []TissueTable{
		{Tissue: "blood", Genes: []SignificantGene{sigRow("CXCL8", 1.8, 0.002)}},
		{Tissue: "lung", Genes: []SignificantGene{sigRow("SFTPC", -2.5, 0.0008)}},
	}
	return cross, specific, BuildSummary(cross, specific, 20)
}

func (s *persistSuite) TestSaveSignatures(c *check.C) {
	tmpdir := c.MkDir()
	cross, specific, summary := fixtureSignatures()
	c.Assert(SaveSignatures(tmpdir, cross, specific, summary), check.IsNil)

	data, err := os.ReadFile(tmpdir + "/cross_tissue_signatures.csv")
	c.Assert(err, check.IsNil)
	c.Check(string(data), check.Equals,
		"gene,n_tissues,tissues,avg_log2fc,direction,min_pval_adj,combined_pval\n"+
			"IL6,2,\"blood,lung\",1.75,up,0.001,0.0001\n")

	data, err = os.ReadFile(tmpdir + "/blood_specific_signatures.csv")
	c.Assert(err, check.IsNil)
	c.Check(strings.Contains(string(data), "CXCL8"), check.Equals, true)
	_, err = os.Stat(tmpdir + "/lung_specific_signatures.csv")
	c.Check(err, check.IsNil)

	data, err = os.ReadFile(tmpdir + "/signature_summary.json")
	c.Assert(err, check.IsNil)
	var got SignatureSummary
	c.Assert(json.Unmarshal(data, &got), check.IsNil)
	c.Check(got.CrossTissue.TotalGenes, check.Equals, 1)
	c.Check(got.CrossTissue.Upregulated, check.Equals, 1)
	c.Check(got.CrossTissue.TopGenes, check.DeepEquals, []string{"IL6"})
	c.Check(got.TissueSpecific["lung"].Downregulated, check.Equals, 1)

	data, err = os.ReadFile(tmpdir + "/manifest.json")
	c.Assert(err, check.IsNil)
	var manifest []Artifact
	c.Assert(json.Unmarshal(data, &manifest), check.IsNil)
	c.Assert(manifest, check.HasLen, 4)
	c.Check(manifest[0].Name, check.Equals, "cross_tissue_signatures.csv")
	c.Check(manifest[0].Rows, check.Equals, 1)
	c.Check(manifest[0].Blake2b, check.Matches, "[0-9a-f]{64}")
}

func (s *persistSuite) TestSaveSignaturesIdempotent(c *check.C) {
	tmpdir := c.MkDir()
	cross, specific, summary := fixtureSignatures()
	c.Assert(SaveSignatures(tmpdir, cross, specific, summary), check.IsNil)
	first, err := os.ReadFile(tmpdir + "/cross_tissue_signatures.csv")
	c.Assert(err, check.IsNil)

	// re-running overwrites in place without prior cleanup
	c.Assert(SaveSignatures(tmpdir, cross, specific, summary), check.IsNil)
	second, err := os.ReadFile(tmpdir + "/cross_tissue_signatures.csv")
	c.Assert(err, check.IsNil)
	c.Check(string(second), check.Equals, string(first))
}

func (s *persistSuite) TestSaveSignaturesEmpty(c *check.C) {
	tmpdir := c.MkDir()
	summary := BuildSummary(nil, nil, 20)
	c.Assert(SaveSignatures(tmpdir, nil, nil, summary), check.IsNil)
	data, err := os.ReadFile(tmpdir + "/cross_tissue_signatures.csv")
	c.Assert(err, check.IsNil)
	c.Check(string(data), check.Equals, "gene,n_tissues,tissues,avg_log2fc,direction,min_pval_adj,combined_pval\n")
}

func (s *persistSuite) TestSafeFilename(c *check.C) {
	c.Check(safeFilename("upper lobe of lung"), check.Equals, "upper_lobe_of_lung")
	c.Check(safeFilename("a/b:c"), check.Equals, "a_b_c")
}

func (s *persistSuite) TestBuildSummaryTopN(c *check.C) {
	var cross []CrossTissueSignature
	for _, g := range []string{"A", "B", "C"} {
		cross = append(cross, CrossTissueSignature{Gene: g, NTissues: 2, Direction: Down})
	}
	summary := BuildSummary(cross, nil, 2)
	c.Check(summary.CrossTissue.TotalGenes, check.Equals, 3)
	c.Check(summary.CrossTissue.Downregulated, check.Equals, 3)
	c.Check(summary.CrossTissue.TopGenes, check.DeepEquals, []string{"A", "B"})
}
