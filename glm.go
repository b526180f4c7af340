package atlas

import (
	"io"
	"log"
	"math"

	"github.com/kshedden/statmodel/glm"
	"github.com/kshedden/statmodel/statmodel"
	"gonum.org/v1/gonum/stat/distuv"
)

var glmConfig = &glm.Config{
	Family:         glm.NewFamily(glm.GaussianFamily),
	FitMethod:      "IRLS",
	ConcurrentIRLS: 1000,
	Log:            log.New(io.Discard, "", 0),
}

// glmScore fits a Gaussian GLM of expression on condition (disease=1,
// control=0) and computes a likelihood-ratio p-value against the
// intercept-only model. Returns the LR statistic as the score. Fit
// failures (e.g. singular designs on constant genes) yield NaN.
func glmScore(disease, control []float64) (score, p float64) {
	defer func() {
		if recover() != nil {
			score, p = math.NaN(), math.NaN()
		}
	}()

	n := len(disease) + len(control)
	outcome := make([]statmodel.Dtype, 0, n)
	condition := make([]statmodel.Dtype, 0, n)
	constants := make([]statmodel.Dtype, 0, n)
	for _, v := range disease {
		outcome = append(outcome, v)
		condition = append(condition, 1)
		constants = append(constants, 1)
	}
	for _, v := range control {
		outcome = append(outcome, v)
		condition = append(condition, 0)
		constants = append(constants, 1)
	}

	null := statmodel.NewDataset([][]statmodel.Dtype{outcome, constants}, []string{"outcome", "constants"})
	nullModel, err := glm.NewGLM(null, "outcome", []string{"constants"}, glmConfig)
	if err != nil {
		return math.NaN(), math.NaN()
	}
	logNull := nullModel.Fit().LogLike()

	full := statmodel.NewDataset([][]statmodel.Dtype{outcome, condition, constants}, []string{"outcome", "condition", "constants"})
	fullModel, err := glm.NewGLM(full, "outcome", []string{"condition", "constants"}, glmConfig)
	if err != nil {
		return math.NaN(), math.NaN()
	}
	logFull := fullModel.Fit().LogLike()

	lr := -2 * (logNull - logFull)
	dist := distuv.ChiSquared{K: 1, Src: chisqSrc}
	return lr, dist.Survival(lr)
}
