package outreach

import "testing"

func TestParseCampaignSettingsDefaults(t *testing.T) {
	s := ParseCampaignSettings(nil)
	if s.Timezone != "America/New_York" {
		t.Errorf("default timezone = %q", s.Timezone)
	}
	if len(s.SendDays) != 5 {
		t.Errorf("default send days = %v", s.SendDays)
	}
	if !s.StopOnReplyEnabled() {
		t.Error("stop_on_reply should default to true")
	}
}

func TestParseCampaignSettingsExplicit(t *testing.T) {
	s := ParseCampaignSettings([]byte(`{
		"timezone": "Europe/Berlin",
		"stop_on_reply": false,
		"schedule": {"mon": [{"start": 8, "end": 18}]},
		"sequence_conditions": {"2": {"type": "no_open", "action": "stop"}},
		"unknown_key": 42
	}`))
	if s.Timezone != "Europe/Berlin" {
		t.Errorf("timezone = %q", s.Timezone)
	}
	if s.StopOnReplyEnabled() {
		t.Error("explicit stop_on_reply=false must win")
	}
	if len(s.SendDays) != 0 {
		t.Errorf("send_days default must not apply when a schedule exists: %v", s.SendDays)
	}

	c := s.ConditionForStep(2)
	if c.Type != "no_open" || c.Action != "stop" {
		t.Errorf("ConditionForStep(2) = %+v", c)
	}
	d := s.ConditionForStep(3)
	if d.Type != "no_reply" || d.Action != "continue" {
		t.Errorf("ConditionForStep(3) default = %+v", d)
	}
}

func TestParseCampaignSettingsMalformed(t *testing.T) {
	s := ParseCampaignSettings([]byte("{broken"))
	if s.Timezone != "America/New_York" || len(s.SendDays) != 5 {
		t.Errorf("malformed settings should yield pure defaults: %+v", s)
	}
}

func TestEffectiveDailyLimit(t *testing.T) {
	tests := []struct {
		limit, throttle, want int
	}{
		{50, 100, 50},
		{50, 50, 25},
		{50, 0, 0},
		{50, 10, 5},
		{50, -10, 50},
		{50, 150, 50},
		{33, 50, 16},
	}
	for _, tt := range tests {
		i := Inbox{DailySendLimit: tt.limit, ThrottlePercentage: tt.throttle}
		if got := i.EffectiveDailyLimit(); got != tt.want {
			t.Errorf("EffectiveDailyLimit(limit=%d, throttle=%d) = %d, want %d",
				tt.limit, tt.throttle, got, tt.want)
		}
	}
}

func TestSequenceStepDelay(t *testing.T) {
	s := SequenceStep{DelayDays: 2, DelayHours: 3}
	if got := s.Delay().Hours(); got != 51 {
		t.Errorf("Delay = %.0f hours, want 51", got)
	}
}
