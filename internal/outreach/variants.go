package outreach

import (
	"math"
	"math/rand"
)

// SelectVariant picks a variant by weighted random draw. A zero total weight
// returns the first variant; the last variant is always reachable as the
// terminal fallback. Returns nil for an empty list.
func SelectVariant(variants []SequenceVariant, rng *rand.Rand) *SequenceVariant {
	if len(variants) == 0 {
		return nil
	}
	total := 0
	for _, v := range variants {
		if v.Weight > 0 {
			total += v.Weight
		}
	}
	if total == 0 {
		return &variants[0]
	}
	draw := rng.Float64() * float64(total)
	for i := range variants {
		draw -= float64(variants[i].Weight)
		if draw < 0 {
			return &variants[i]
		}
	}
	return &variants[len(variants)-1]
}

// ResetTestWeights returns fresh weights for n variants after an experiment
// is reset: base = floor(100/n), with the remainder added to the first
// variant so the sum is exactly 100.
func ResetTestWeights(n int) []int {
	if n <= 0 {
		return nil
	}
	base := 100 / n
	remainder := 100 - base*n
	weights := make([]int, n)
	for i := range weights {
		weights[i] = base
	}
	weights[0] += remainder
	return weights
}

// WinnerWeights freezes the experiment: the winner gets weight 100, all
// others 0.
func WinnerWeights(n, winnerIdx int) []int {
	weights := make([]int, n)
	if winnerIdx >= 0 && winnerIdx < n {
		weights[winnerIdx] = 100
	}
	return weights
}

// TwoProportionZ computes the two-proportion z-score between rates p1 (n1
// trials) and p2 (n2 trials). Returns 0 when either sample is empty or the
// pooled standard error is zero.
func TwoProportionZ(p1 float64, n1 int, p2 float64, n2 int) float64 {
	if n1 == 0 || n2 == 0 {
		return 0
	}
	pooled := (p1*float64(n1) + p2*float64(n2)) / float64(n1+n2)
	se := math.Sqrt(pooled * (1 - pooled) * (1/float64(n1) + 1/float64(n2)))
	if se == 0 {
		return 0
	}
	return math.Abs(p1-p2) / se
}

// NormalCDF evaluates the standard normal CDF via the Abramowitz & Stegun
// 26.2.17 polynomial approximation (|error| < 7.5e-8).
func NormalCDF(z float64) float64 {
	if z < 0 {
		return 1 - NormalCDF(-z)
	}
	t := 1 / (1 + 0.2316419*z)
	poly := t * (0.319381530 + t*(-0.356563782+t*(1.781477937+t*(-1.821255978+t*1.330274429))))
	density := math.Exp(-z*z/2) / math.Sqrt(2*math.Pi)
	return 1 - density*poly
}

// ShiftLeaderWeight maps a one-tailed confidence level to the leader's new
// traffic weight. Returns (weight, declareWinner, shift). No shift happens
// below 0.70 confidence.
func ShiftLeaderWeight(confidence float64) (int, bool, bool) {
	switch {
	case confidence >= 0.95:
		return 100, true, true
	case confidence >= 0.90:
		return 85, false, true
	case confidence >= 0.80:
		return 75, false, true
	case confidence >= 0.70:
		return 60, false, true
	default:
		return 0, false, false
	}
}

// LoserWeight divides the remaining traffic evenly across the n-1 trailing
// variants.
func LoserWeight(leaderWeight, n int) int {
	if n <= 1 {
		return 0
	}
	return (100 - leaderWeight) / (n - 1)
}

// VariantRates derives zero-safe engagement rates from raw counters.
func VariantRates(s VariantStats) (openRate, clickRate, replyRate float64) {
	if s.SentCount > 0 {
		openRate = float64(s.OpenCount) / float64(s.SentCount)
		replyRate = float64(s.ReplyCount) / float64(s.SentCount)
	}
	if s.OpenCount > 0 {
		clickRate = float64(s.ClickCount) / float64(s.OpenCount)
	}
	return
}
