package outreach

import "math"

// HealthInputs are the signals the health score is computed from.
// BounceRate and SpamRate are fractions in [0,1].
type HealthInputs struct {
	WarmupEnabled bool
	WarmupDay     int
	SentTotal     int
	RepliedTotal  int
	BounceRate    float64
	SpamRate      float64
}

// volumeScoreK scales log10 volume so ~1800 lifetime sends max out the
// volume component.
const volumeScoreK = 7.7

// HealthScore computes the bounded [0,100] deliverability posture summary.
// Monotone non-decreasing in warmup day and reply rate, non-increasing in
// bounce and spam rates. Spam weighs heavier than bounces.
func HealthScore(in HealthInputs) int {
	var dayScore, engagementBonus float64
	if in.WarmupEnabled {
		dayScore = math.Min(40, float64(in.WarmupDay)*40.0/30.0)
		if in.WarmupDay > 7 {
			engagementBonus = 10
		}
	}

	volumeScore := math.Min(25, math.Log10(1+float64(in.SentTotal))*volumeScoreK)

	denom := in.SentTotal
	if denom < 1 {
		denom = 1
	}
	replyScore := math.Min(25, float64(in.RepliedTotal)/float64(denom)*50)

	bouncePenalty := math.Min(10, in.BounceRate*10)
	spamPenalty := math.Min(20, in.SpamRate*40)

	score := dayScore + engagementBonus + volumeScore + replyScore - bouncePenalty - spamPenalty
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return int(math.Round(score))
}
