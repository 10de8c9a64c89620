package outreach

import (
	"fmt"
	"time"
)

// RampSpeed controls how aggressively a mailbox's warmup volume grows.
type RampSpeed string

const (
	RampSlow   RampSpeed = "slow"
	RampNormal RampSpeed = "normal"
	RampFast   RampSpeed = "fast"
)

// Factor returns the quota multiplier for the ramp speed.
func (r RampSpeed) Factor() float64 {
	switch r {
	case RampSlow:
		return 0.7
	case RampFast:
		return 1.5
	default:
		return 1.0
	}
}

// warmupRampTable maps the first day of each range to its base quota.
// Ranges per the warmup protocol: 1-2, 3-4, 5-7, 8-10, 11-14, 15-21,
// 22-30, 31+.
var warmupRampTable = []struct {
	fromDay int
	quota   int
}{
	{31, 40},
	{22, 35},
	{15, 25},
	{11, 18},
	{8, 12},
	{5, 8},
	{3, 4},
	{1, 2},
}

// WarmupQuota returns the daily warmup send quota for a mailbox on the
// given warmup day at the given ramp speed. Monotone non-decreasing in day,
// and fast >= normal >= slow at every day.
func WarmupQuota(day int, speed RampSpeed) int {
	if day < 1 {
		day = 1
	}
	base := 2
	for _, row := range warmupRampTable {
		if day >= row.fromDay {
			base = row.quota
			break
		}
	}
	q := int(float64(base) * speed.Factor())
	if q < 1 {
		q = 1
	}
	return q
}

// Warmup message types within a synthetic conversation.
const (
	WarmupTypeMain         = "main"
	WarmupTypeReply        = "reply"
	WarmupTypeContinuation = "continuation"
	WarmupTypeCloser       = "closer"
)

// WarmupDedupTTL is how long a (from, to, type) pair is considered
// recently exercised.
const WarmupDedupTTL = 7 * 24 * time.Hour

// WarmupDedupKey is the Redis key recording that a warmup pair was
// recently used.
func WarmupDedupKey(fromInboxID, toInboxID, msgType string) string {
	return fmt.Sprintf("warmup:dedup:%s:%s:%s", fromInboxID, toInboxID, msgType)
}

// WarmupLastResetKey guards the once-per-day counter reset.
const WarmupLastResetKey = "warmup:last_reset_date"
