package policy

import (
	"math"
	"sort"

	"github.com/joyshmitz/frankenpandas/pkg/metrics"
)

// ConformalGuard maintains a rolling window of non-conformity scores
// and reports whether a new score falls within the calibrated set.
type ConformalGuard struct {
	alpha          float64
	windowSize     int
	minCoverageEvals int
	scores         []float64
	evalCount      int
	inSetCount     int
}

// NewConformalGuard constructs a guard from a PolicyConfig-derived
// clamped alpha, rolling window size, and minimum evaluation count
// before a coverage alert can fire.
func NewConformalGuard(alpha float64, windowSize, minCoverageEvals int) *ConformalGuard {
	return &ConformalGuard{alpha: alpha, windowSize: windowSize, minCoverageEvals: minCoverageEvals}
}

// Observe pushes a new non-conformity score into the rolling window,
// evicting the oldest score once windowSize is exceeded.
func (g *ConformalGuard) Observe(score float64) {
	g.scores = append(g.scores, score)
	if len(g.scores) > g.windowSize {
		g.scores = g.scores[len(g.scores)-g.windowSize:]
	}
}

// threshold returns the empirical (1-alpha) quantile of the current
// window, or +Inf under the calibration floor (fewer than 2 scores).
func (g *ConformalGuard) threshold() float64 {
	if len(g.scores) < 2 {
		return math.Inf(1)
	}
	sorted := append([]float64(nil), g.scores...)
	sort.Float64s(sorted)
	rank := int(math.Ceil((1 - g.alpha) * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

// Evaluate reports whether score is in-set against the current
// threshold, records the evaluation, and raises a coverage alert via
// the metrics package if empirical coverage has dropped below 1-alpha
// after at least minCoverageEvals evaluations.
func (g *ConformalGuard) Evaluate(score float64) (inSet bool, coverageAlert bool) {
	inSet = score <= g.threshold()
	g.evalCount++
	if inSet {
		g.inSetCount++
	}

	coverage := g.EmpiricalCoverage()
	metrics.ConformalEmpiricalCoverage.Set(coverage)

	if g.evalCount >= g.minCoverageEvals && coverage < 1-g.alpha {
		coverageAlert = true
		metrics.ConformalCoverageAlertsTotal.Inc()
	}
	return inSet, coverageAlert
}

// EmpiricalCoverage returns the fraction of evaluations that were
// in-set so far.
func (g *ConformalGuard) EmpiricalCoverage() float64 {
	if g.evalCount == 0 {
		return 1.0
	}
	return float64(g.inSetCount) / float64(g.evalCount)
}
