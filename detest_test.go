package atlas

import (
	"fmt"
	"math"

	"gopkg.in/check.v1"
)

type detestSuite struct{}

var _ = check.Suite(&detestSuite{})

func (s *detestSuite) TestWelchT(c *check.C) {
	x := []float64{5.1, 5.3, 4.9, 5.2, 5.0, 5.1}
	y := []float64{1.0, 1.2, 0.9, 1.1, 1.0, 0.8}
	t, p := welchT(x, y)
	c.Check(t > 10, check.Equals, true)
	c.Check(p < 1e-6, check.Equals, true)

	t, p = welchT(x, x)
	c.Check(t, check.Equals, 0.0)
	c.Check(p > 0.99, check.Equals, true)
}

func (s *detestSuite) TestWelchTDegenerate(c *check.C) {
	// too few observations
	_, p := welchT([]float64{1}, []float64{2, 3})
	c.Check(p, check.Equals, 1.0)
	// zero variance, equal means
	_, p = welchT([]float64{2, 2}, []float64{2, 2})
	c.Check(p, check.Equals, 1.0)
	// zero variance, different means
	_, p = welchT([]float64{2, 2}, []float64{3, 3})
	c.Check(p, check.Equals, 0.0)
}

func (s *detestSuite) TestBenjaminiHochberg(c *check.C) {
	adj := benjaminiHochberg([]float64{0.01, 0.02, 0.03, 0.04})
	// every p_i * n/rank_i equals 0.04 here, so the step-up
	// minimum flattens the whole set
	for i := range adj {
		c.Check(fmt.Sprintf("%.7f", adj[i]), check.Equals, "0.0400000")
	}

	adj = benjaminiHochberg([]float64{0.001, 0.5, 0.04})
	c.Check(fmt.Sprintf("%.7f", adj[0]), check.Equals, "0.0030000") // 0.001 * 3/1
	c.Check(fmt.Sprintf("%.7f", adj[2]), check.Equals, "0.0600000") // 0.04 * 3/2
	c.Check(adj[1], check.Equals, 0.5)                              // 0.5 * 3/3
	// adjustment never shrinks a p-value
	for i, p := range []float64{0.001, 0.5, 0.04} {
		c.Check(adj[i] >= p, check.Equals, true)
	}
}

func (s *detestSuite) TestBenjaminiHochbergNaN(c *check.C) {
	adj := benjaminiHochberg([]float64{0.9, math.NaN(), 0.5})
	c.Check(adj[0], check.Equals, 0.9)
	c.Check(math.IsNaN(adj[1]), check.Equals, true)
	c.Check(adj[2], check.Equals, 0.9) // 0.5*2/1 = 1.0, cummin with 0.9
}

func (s *detestSuite) TestLog2FoldChange(c *check.C) {
	fc := log2FoldChange([]float64{4, 4}, []float64{1, 1})
	c.Check(fmt.Sprintf("%.7f", fc), check.Equals, "2.0000000")
	c.Check(log2FoldChange([]float64{0, 0}, []float64{0, 0}), check.Equals, 0.0)
}

func (s *detestSuite) TestDifferentialExpression(c *check.C) {
	disease := &ExprMatrix{
		Genes:   []string{"IL6", "ACTB", "ONLYDISEASE"},
		Samples: []string{"d1", "d2", "d3", "d4"},
		Values: [][]float64{
			{8, 9, 8.5, 9.5},
			{5, 5.1, 4.9, 5.0},
			{1, 2, 3, 4},
		},
	}
	control := &ExprMatrix{
		Genes:   []string{"IL6", "ACTB"},
		Samples: []string{"c1", "c2", "c3", "c4"},
		Values: [][]float64{
			{2, 2.2, 1.8, 2.0},
			{5.1, 5.0, 4.9, 5.0},
		},
	}
	stats, err := DifferentialExpression(disease, control, "disease", TTest)
	c.Assert(err, check.IsNil)
	c.Assert(stats, check.HasLen, 2) // intersection only
	c.Check(stats[0].Gene, check.Equals, "IL6")
	c.Check(stats[0].Group, check.Equals, "disease")
	c.Check(stats[0].Log2FoldChange > 2, check.Equals, true)
	c.Check(stats[0].PValue < 0.001, check.Equals, true)
	c.Check(stats[0].PValueAdj >= stats[0].PValue, check.Equals, true)
	c.Check(stats[1].Gene, check.Equals, "ACTB")
	c.Check(stats[1].PValue > 0.5, check.Equals, true)
}

func (s *detestSuite) TestDifferentialExpressionErrors(c *check.C) {
	_, err := DifferentialExpression(&ExprMatrix{}, &ExprMatrix{}, "disease", TTest)
	c.Check(err, check.ErrorMatches, "empty expression matrix.*")
	_, err = DifferentialExpression(&ExprMatrix{Genes: []string{"A"}}, &ExprMatrix{Genes: []string{"A"}}, "disease", DEMethod("anova"))
	c.Check(err, check.ErrorMatches, `unknown DE method "anova".*`)
}

func (s *detestSuite) TestFisherCombinedP(c *check.C) {
	c.Check(math.IsNaN(fisherCombinedP(nil)), check.Equals, true)
	p := fisherCombinedP([]float64{0.001, 0.01})
	c.Check(p < 0.001, check.Equals, true)
	// combining weak evidence does not fabricate significance
	c.Check(fisherCombinedP([]float64{1, 1}) > 0.99, check.Equals, true)
	// a zero p-value is clamped, not -Inf
	c.Check(fisherCombinedP([]float64{0, 0.5}) >= 0, check.Equals, true)
}
