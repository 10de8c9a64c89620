package outreach

import "testing"

func TestHealthScoreBounds(t *testing.T) {
	worst := HealthScore(HealthInputs{
		SentTotal:  1000,
		BounceRate: 1.0,
		SpamRate:   1.0,
	})
	if worst < 0 || worst > 100 {
		t.Errorf("score out of bounds: %d", worst)
	}

	best := HealthScore(HealthInputs{
		WarmupEnabled: true,
		WarmupDay:     30,
		SentTotal:     100000,
		RepliedTotal:  100000,
	})
	if best < 0 || best > 100 {
		t.Errorf("score out of bounds: %d", best)
	}
}

func TestHealthScoreFreshInboxWithoutWarmup(t *testing.T) {
	score := HealthScore(HealthInputs{})
	if score != 0 {
		t.Errorf("brand new inbox without warmup should score 0, got %d", score)
	}
}

func TestHealthScoreMonotoneInWarmupDay(t *testing.T) {
	prev := -1
	for day := 0; day <= 40; day++ {
		s := HealthScore(HealthInputs{WarmupEnabled: true, WarmupDay: day, SentTotal: 500})
		if s < prev {
			t.Fatalf("score decreased at warmup day %d: %d -> %d", day, prev, s)
		}
		prev = s
	}
}

func TestHealthScorePenalties(t *testing.T) {
	base := HealthInputs{WarmupEnabled: true, WarmupDay: 30, SentTotal: 1000, RepliedTotal: 100}
	clean := HealthScore(base)

	bouncy := base
	bouncy.BounceRate = 0.10
	if HealthScore(bouncy) >= clean {
		t.Error("bounce rate must lower the score")
	}

	spammy := base
	spammy.SpamRate = 0.10
	if HealthScore(spammy) >= clean {
		t.Error("spam rate must lower the score")
	}

	// Spam weighs heavier than the same bounce rate.
	if HealthScore(spammy) >= HealthScore(bouncy) {
		t.Errorf("spam penalty (%d) should exceed bounce penalty (%d)",
			clean-HealthScore(spammy), clean-HealthScore(bouncy))
	}
}

func TestHealthScoreEngagementBonusAfterWeekOne(t *testing.T) {
	day7 := HealthScore(HealthInputs{WarmupEnabled: true, WarmupDay: 7})
	day8 := HealthScore(HealthInputs{WarmupEnabled: true, WarmupDay: 8})
	// Day 8 gains both the ramp increment and the engagement bonus.
	if day8-day7 < 10 {
		t.Errorf("expected engagement bonus jump after day 7: day7=%d day8=%d", day7, day8)
	}
}

func TestHealthScoreReplyRateCapped(t *testing.T) {
	// Reply score caps at 25 even for absurd reply rates.
	s := HealthScore(HealthInputs{SentTotal: 10, RepliedTotal: 10})
	capped := HealthScore(HealthInputs{SentTotal: 10, RepliedTotal: 100})
	if capped != s {
		t.Errorf("reply component should be capped: %d vs %d", s, capped)
	}
}
