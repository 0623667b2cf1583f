package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// TTestPValue computes the two-tailed p-value of a t statistic
func TTestPValue(tStatistic float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 || math.IsNaN(tStatistic) {
		return 1.0
	}
	if math.IsInf(tStatistic, 0) {
		return 0
	}

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(degreesOfFreedom)}
	return 2 * (1 - tDist.CDF(math.Abs(tStatistic)))
}

// CorrelationPValue tests r against zero with n-2 degrees of freedom.
// This is the significance reported for a simple linear regression slope.
func CorrelationPValue(correlation float64, sampleSize int) float64 {
	if sampleSize < 3 || math.IsNaN(correlation) {
		return 1.0
	}

	df := float64(sampleSize - 2)
	denom := 1 - correlation*correlation
	if denom <= 0 {
		return 0
	}
	tStatistic := correlation * math.Sqrt(df/denom)
	return TTestPValue(tStatistic, sampleSize-2)
}
