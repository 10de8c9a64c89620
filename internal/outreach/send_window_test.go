package outreach

import (
	"testing"
	"time"
)

// at builds a UTC instant that corresponds to the given local wall time in
// the named zone.
func at(t *testing.T, zone string, year int, month time.Month, day, hour, min int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation(zone)
	if err != nil {
		t.Fatalf("load %s: %v", zone, err)
	}
	return time.Date(year, month, day, hour, min, 0, 0, loc)
}

func TestInSendWindowLegacyDefaults(t *testing.T) {
	s := ParseCampaignSettings(nil) // 9-17 Mon-Fri America/New_York

	// Wednesday 10:00 New York.
	if !InSendWindow(at(t, "America/New_York", 2026, time.March, 4, 10, 0), s) {
		t.Error("Wednesday 10:00 should be inside the default window")
	}
	// Wednesday 08:59 — before open.
	if InSendWindow(at(t, "America/New_York", 2026, time.March, 4, 8, 59), s) {
		t.Error("08:59 should be outside the default window")
	}
	// Wednesday 17:00 — the end is exclusive.
	if InSendWindow(at(t, "America/New_York", 2026, time.March, 4, 17, 0), s) {
		t.Error("17:00 should be outside the half-open window")
	}
	// Saturday 10:00 — weekend.
	if InSendWindow(at(t, "America/New_York", 2026, time.March, 7, 10, 0), s) {
		t.Error("Saturday should be outside the default send days")
	}
}

func TestInSendWindowTimezoneMatters(t *testing.T) {
	s := ParseCampaignSettings([]byte(`{"timezone":"Asia/Tokyo"}`))

	// 10:00 Tokyo on a Wednesday is inside; the same instant is Tuesday
	// evening in New York.
	instant := at(t, "Asia/Tokyo", 2026, time.March, 4, 10, 0)
	if !InSendWindow(instant, s) {
		t.Error("10:00 Tokyo should be inside the Tokyo window")
	}

	ny := ParseCampaignSettings([]byte(`{"timezone":"America/New_York"}`))
	if InSendWindow(instant, ny) {
		t.Error("the same instant should be outside the New York window")
	}
}

func TestInSendWindowModernSchedule(t *testing.T) {
	raw := []byte(`{"timezone":"UTC","schedule":{
		"mon": [{"start": 9, "end": 12}, {"start": 14, "end": 17}],
		"tue": []
	}}`)
	s := ParseCampaignSettings(raw)

	// Monday 2026-03-02.
	if !InSendWindow(at(t, "UTC", 2026, time.March, 2, 9, 0), s) {
		t.Error("Monday 09:00 should be open")
	}
	if InSendWindow(at(t, "UTC", 2026, time.March, 2, 12, 30), s) {
		t.Error("Monday 12:30 falls in the gap between intervals")
	}
	if !InSendWindow(at(t, "UTC", 2026, time.March, 2, 16, 59), s) {
		t.Error("Monday 16:59 should be open")
	}
	if InSendWindow(at(t, "UTC", 2026, time.March, 2, 17, 0), s) {
		t.Error("interval end is exclusive")
	}
	// Tuesday has an explicit empty list: closed all day.
	if InSendWindow(at(t, "UTC", 2026, time.March, 3, 10, 0), s) {
		t.Error("explicit empty day must be closed")
	}
	// Wednesday is absent from the schedule: closed.
	if InSendWindow(at(t, "UTC", 2026, time.March, 4, 10, 0), s) {
		t.Error("day absent from schedule must be closed")
	}
}

func TestInSendWindowEmptyScheduleClosesEverything(t *testing.T) {
	s := CampaignSettings{
		Timezone: "UTC",
		Schedule: map[string][]HourRange{},
	}
	// An empty-but-present schedule never falls back to the legacy window.
	for day := 2; day <= 8; day++ {
		if InSendWindow(at(t, "UTC", 2026, time.March, day, 10, 0), s) {
			t.Fatalf("empty schedule should close day %d", day)
		}
	}
}

func TestInSendWindowScheduleOverridesLegacy(t *testing.T) {
	raw := []byte(`{"timezone":"UTC",
		"send_window_start":"00:00","send_window_end":"23:59",
		"send_days":["sat","sun"],
		"schedule":{"mon":[{"start":9,"end":17}]}}`)
	s := ParseCampaignSettings(raw)

	if InSendWindow(at(t, "UTC", 2026, time.March, 7, 10, 0), s) {
		t.Error("schedule takes precedence; Saturday must be closed")
	}
	if !InSendWindow(at(t, "UTC", 2026, time.March, 2, 10, 0), s) {
		t.Error("Monday 10:00 should be open via the schedule")
	}
}

func TestInSendWindowOvernightLegacyWindow(t *testing.T) {
	raw := []byte(`{"timezone":"UTC","send_window_start":"22:00","send_window_end":"02:00",
		"send_days":["mon","tue","wed","thu","fri"]}`)
	s := ParseCampaignSettings(raw)

	if !InSendWindow(at(t, "UTC", 2026, time.March, 2, 23, 0), s) {
		t.Error("23:00 should be inside the overnight window")
	}
	if !InSendWindow(at(t, "UTC", 2026, time.March, 3, 1, 0), s) {
		t.Error("01:00 should be inside the overnight window")
	}
	if InSendWindow(at(t, "UTC", 2026, time.March, 3, 3, 0), s) {
		t.Error("03:00 should be outside the overnight window")
	}
}

func TestInSendWindowMalformedInterval(t *testing.T) {
	s := CampaignSettings{
		Timezone: "UTC",
		Schedule: map[string][]HourRange{
			"mon": {{Start: 17, End: 9}, {Start: -1, End: 25}},
		},
	}
	if InSendWindow(at(t, "UTC", 2026, time.March, 2, 10, 0), s) {
		t.Error("malformed intervals must be ignored")
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		def  int
		want int
	}{
		{"09:30", 0, 570},
		{"17", 0, 1020},
		{"", 540, 540},
		{"nonsense", 540, 540},
		{"25:00", 540, 540},
		{"10:75", 540, 540},
	}
	for _, tt := range tests {
		if got := parseClock(tt.in, tt.def); got != tt.want {
			t.Errorf("parseClock(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
