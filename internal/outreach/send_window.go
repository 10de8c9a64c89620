package outreach

import (
	"strconv"
	"strings"
	"time"
)

var dayKeys = map[time.Weekday]string{
	time.Monday:    "mon",
	time.Tuesday:   "tue",
	time.Wednesday: "wed",
	time.Thursday:  "thu",
	time.Friday:    "fri",
	time.Saturday:  "sat",
	time.Sunday:    "sun",
}

// InSendWindow decides whether sending is permitted right now in the
// campaign's timezone. A non-empty per-day schedule takes precedence over
// the legacy HH:MM window; an empty interval list for today means the day
// is closed.
func InSendWindow(now time.Time, s CampaignSettings) bool {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		loc = time.UTC
	}
	local := now.In(loc)
	day := dayKeys[local.Weekday()]

	// A present-but-empty schedule ({}) closes every day; only an absent
	// schedule falls back to the legacy window.
	if s.Schedule != nil {
		ranges, ok := s.Schedule[day]
		if !ok || len(ranges) == 0 {
			return false
		}
		hour := local.Hour()
		for _, r := range ranges {
			if r.Start < 0 || r.End > 24 || r.Start >= r.End {
				continue
			}
			if hour >= r.Start && hour < r.End {
				return true
			}
		}
		return false
	}

	// Legacy window: send_days + HH:MM start/end.
	if len(s.SendDays) > 0 {
		allowed := false
		for _, d := range s.SendDays {
			if strings.EqualFold(strings.TrimSpace(d), day) {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	startMin := parseClock(s.SendWindowStart, 9*60)
	endMin := parseClock(s.SendWindowEnd, 17*60)
	nowMin := local.Hour()*60 + local.Minute()
	if startMin == endMin {
		return false
	}
	if startMin < endMin {
		return nowMin >= startMin && nowMin < endMin
	}
	// Window crossing midnight.
	return nowMin >= startMin || nowMin < endMin
}

// parseClock parses "HH:MM" into minutes since midnight, falling back to
// def on malformed input.
func parseClock(v string, def int) int {
	if v == "" {
		return def
	}
	parts := strings.SplitN(v, ":", 2)
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 24 {
		return def
	}
	m := 0
	if len(parts) == 2 {
		m, err = strconv.Atoi(parts[1])
		if err != nil || m < 0 || m > 59 {
			return def
		}
	}
	return h*60 + m
}
