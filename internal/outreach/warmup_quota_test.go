package outreach

import "testing"

func TestWarmupQuotaRampTable(t *testing.T) {
	tests := []struct {
		day  int
		want int
	}{
		{1, 2}, {2, 2},
		{3, 4}, {4, 4},
		{5, 8}, {7, 8},
		{8, 12}, {10, 12},
		{11, 18}, {14, 18},
		{15, 25}, {21, 25},
		{22, 35}, {30, 35},
		{31, 40}, {90, 40},
	}
	for _, tt := range tests {
		if got := WarmupQuota(tt.day, RampNormal); got != tt.want {
			t.Errorf("WarmupQuota(%d, normal) = %d, want %d", tt.day, got, tt.want)
		}
	}
}

func TestWarmupQuotaSpeedFactors(t *testing.T) {
	// Day 15 base is 25.
	if got := WarmupQuota(15, RampSlow); got != 17 {
		t.Errorf("slow day 15 = %d, want 17", got)
	}
	if got := WarmupQuota(15, RampFast); got != 37 {
		t.Errorf("fast day 15 = %d, want 37", got)
	}
	// Unknown speed behaves as normal.
	if got := WarmupQuota(15, RampSpeed("turbo")); got != 25 {
		t.Errorf("unknown speed day 15 = %d, want 25", got)
	}
}

func TestWarmupQuotaMonotone(t *testing.T) {
	for _, speed := range []RampSpeed{RampSlow, RampNormal, RampFast} {
		prev := 0
		for day := 1; day <= 60; day++ {
			q := WarmupQuota(day, speed)
			if q < prev {
				t.Fatalf("quota decreased at day %d speed %s: %d -> %d", day, speed, prev, q)
			}
			prev = q
		}
	}
	// Ordering across speeds at every day.
	for day := 1; day <= 60; day++ {
		slow := WarmupQuota(day, RampSlow)
		normal := WarmupQuota(day, RampNormal)
		fast := WarmupQuota(day, RampFast)
		if !(slow <= normal && normal <= fast) {
			t.Fatalf("day %d: slow=%d normal=%d fast=%d out of order", day, slow, normal, fast)
		}
	}
}

func TestWarmupQuotaFloors(t *testing.T) {
	if got := WarmupQuota(0, RampSlow); got < 1 {
		t.Errorf("quota must be at least 1, got %d", got)
	}
	if got := WarmupQuota(-5, RampNormal); got != 2 {
		t.Errorf("negative day clamps to day 1, got %d", got)
	}
}

func TestWarmupDedupKey(t *testing.T) {
	key := WarmupDedupKey("inbox-a", "inbox-b", WarmupTypeMain)
	if key != "warmup:dedup:inbox-a:inbox-b:main" {
		t.Errorf("unexpected key %q", key)
	}
	// Direction matters: a->b and b->a are separate pairs.
	if key == WarmupDedupKey("inbox-b", "inbox-a", WarmupTypeMain) {
		t.Error("dedup key must be directional")
	}
}
