package outreach

import "testing"

func TestTransitionHappyPath(t *testing.T) {
	steps := []struct {
		from  LeadStatus
		event LeadEvent
		want  LeadStatus
	}{
		{LeadPending, EventEmailSent, LeadInSequence},
		{LeadInSequence, EventEmailDelivered, LeadContacted},
		{LeadContacted, EventReplyReceived, LeadReplied},
		{LeadReplied, EventIntentInterested, LeadInterested},
		{LeadInterested, EventIntentMeetingBooked, LeadMeetingBooked},
	}
	for _, s := range steps {
		got, ok := Transition(s.from, s.event)
		if !ok {
			t.Fatalf("Transition(%s, %s) not allowed", s.from, s.event)
		}
		if got != s.want {
			t.Errorf("Transition(%s, %s) = %s, want %s", s.from, s.event, got, s.want)
		}
	}
}

func TestTerminalStatesAdmitNothing(t *testing.T) {
	terminals := []LeadStatus{LeadBounced, LeadUnsubscribed, LeadSpamReported, LeadMeetingBooked}
	events := []LeadEvent{
		EventEmailSent, EventEmailDelivered, EventReplyReceived,
		EventIntentInterested, EventIntentNotInterested, EventIntentMeetingBooked,
		EventHardBounce, EventSoftBounce, EventSpamComplaint,
		EventUnsubscribe, EventSequenceFinished,
	}
	for _, st := range terminals {
		if !IsTerminal(st) {
			t.Errorf("%s should be terminal", st)
		}
		for _, ev := range events {
			if got, ok := Transition(st, ev); ok {
				t.Errorf("Transition(%s, %s) should be blocked, got %s", st, ev, got)
			}
		}
	}
}

func TestSoftBounceRecovery(t *testing.T) {
	got, ok := Transition(LeadSoftBounced, EventEmailSent)
	if !ok || got != LeadInSequence {
		t.Errorf("soft_bounced + email_sent = (%s, %v), want (in_sequence, true)", got, ok)
	}
	if BlocksSequence(LeadSoftBounced) {
		t.Error("soft_bounced must not block the sequence")
	}

	got, ok = Transition(LeadSoftBounced, EventHardBounce)
	if !ok || got != LeadBounced {
		t.Errorf("soft_bounced + hard_bounce = (%s, %v), want (bounced, true)", got, ok)
	}
}

func TestBlockingSet(t *testing.T) {
	blockingWant := map[LeadStatus]bool{
		LeadReplied: true, LeadInterested: true, LeadNotInterested: true,
		LeadMeetingBooked: true, LeadBounced: true, LeadUnsubscribed: true,
		LeadSpamReported: true, LeadSequenceComplete: true,
	}
	all := []LeadStatus{
		LeadPending, LeadInSequence, LeadContacted, LeadReplied,
		LeadInterested, LeadNotInterested, LeadMeetingBooked, LeadBounced,
		LeadSoftBounced, LeadUnsubscribed, LeadSpamReported, LeadSequenceComplete,
	}
	for _, st := range all {
		if BlocksSequence(st) != blockingWant[st] {
			t.Errorf("BlocksSequence(%s) = %v, want %v", st, BlocksSequence(st), blockingWant[st])
		}
	}

	listed := BlockingStatuses()
	if len(listed) != len(blockingWant) {
		t.Fatalf("BlockingStatuses returned %d entries, want %d", len(listed), len(blockingWant))
	}
	for _, s := range listed {
		if !blockingWant[LeadStatus(s)] {
			t.Errorf("BlockingStatuses includes non-blocking %s", s)
		}
	}
}

func TestSequenceCompleteCanStillReply(t *testing.T) {
	got, ok := Transition(LeadSequenceComplete, EventReplyReceived)
	if !ok || got != LeadReplied {
		t.Errorf("sequence_complete + reply = (%s, %v), want (replied, true)", got, ok)
	}
}

func TestUnknownEventRejected(t *testing.T) {
	if got, ok := Transition(LeadPending, EventSequenceFinished); ok {
		t.Errorf("pending + sequence_finished should be rejected, got %s", got)
	}
	if got, ok := Transition(LeadNotInterested, EventEmailSent); ok {
		t.Errorf("not_interested + email_sent should be rejected, got %s", got)
	}
}

func TestEventFromBounceType(t *testing.T) {
	tests := []struct {
		bounceType string
		want       LeadEvent
	}{
		{"hard", EventHardBounce},
		{"soft", EventSoftBounce},
		{"complaint", EventSpamComplaint},
		{"garbage", EventHardBounce},
	}
	for _, tt := range tests {
		if got := EventFromBounceType(tt.bounceType); got != tt.want {
			t.Errorf("EventFromBounceType(%q) = %s, want %s", tt.bounceType, got, tt.want)
		}
	}
}
