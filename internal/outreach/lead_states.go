package outreach

// LeadStatus is the closed set of lead lifecycle states.
type LeadStatus string

const (
	LeadPending          LeadStatus = "pending"
	LeadInSequence       LeadStatus = "in_sequence"
	LeadContacted        LeadStatus = "contacted"
	LeadReplied          LeadStatus = "replied"
	LeadInterested       LeadStatus = "interested"
	LeadNotInterested    LeadStatus = "not_interested"
	LeadMeetingBooked    LeadStatus = "meeting_booked"
	LeadBounced          LeadStatus = "bounced"
	LeadSoftBounced      LeadStatus = "soft_bounced"
	LeadUnsubscribed     LeadStatus = "unsubscribed"
	LeadSpamReported     LeadStatus = "spam_reported"
	LeadSequenceComplete LeadStatus = "sequence_complete"
)

// LeadEvent is a delivery or engagement event that may move a lead.
type LeadEvent string

const (
	EventEmailSent          LeadEvent = "email_sent"
	EventEmailDelivered     LeadEvent = "email_delivered"
	EventReplyReceived      LeadEvent = "reply_received"
	EventIntentInterested   LeadEvent = "intent_interested"
	EventIntentNotInterested LeadEvent = "intent_not_interested"
	EventIntentMeetingBooked LeadEvent = "intent_meeting_booked"
	EventHardBounce         LeadEvent = "hard_bounce"
	EventSoftBounce         LeadEvent = "soft_bounce"
	EventSpamComplaint      LeadEvent = "spam_complaint"
	EventUnsubscribe        LeadEvent = "unsubscribe"
	EventSequenceFinished   LeadEvent = "sequence_finished"
)

// blocking is the set of statuses that stop further sequence steps.
// soft_bounced is deliberately absent: it may recover.
var blocking = map[LeadStatus]bool{
	LeadReplied:          true,
	LeadInterested:       true,
	LeadNotInterested:    true,
	LeadMeetingBooked:    true,
	LeadBounced:          true,
	LeadUnsubscribed:     true,
	LeadSpamReported:     true,
	LeadSequenceComplete: true,
}

// terminal statuses admit no further outbound transitions.
var terminal = map[LeadStatus]bool{
	LeadBounced:       true,
	LeadUnsubscribed:  true,
	LeadSpamReported:  true,
	LeadMeetingBooked: true,
}

// transitions maps (state, event) to the single legal target state.
var transitions = map[LeadStatus]map[LeadEvent]LeadStatus{
	LeadPending: {
		EventEmailSent:     LeadInSequence,
		EventHardBounce:    LeadBounced,
		EventSoftBounce:    LeadSoftBounced,
		EventSpamComplaint: LeadSpamReported,
		EventUnsubscribe:   LeadUnsubscribed,
	},
	LeadInSequence: {
		EventEmailSent:        LeadInSequence,
		EventEmailDelivered:   LeadContacted,
		EventReplyReceived:    LeadReplied,
		EventHardBounce:       LeadBounced,
		EventSoftBounce:       LeadSoftBounced,
		EventSpamComplaint:    LeadSpamReported,
		EventUnsubscribe:      LeadUnsubscribed,
		EventSequenceFinished: LeadSequenceComplete,
	},
	LeadContacted: {
		EventEmailSent:        LeadInSequence,
		EventReplyReceived:    LeadReplied,
		EventHardBounce:       LeadBounced,
		EventSoftBounce:       LeadSoftBounced,
		EventSpamComplaint:    LeadSpamReported,
		EventUnsubscribe:      LeadUnsubscribed,
		EventSequenceFinished: LeadSequenceComplete,
	},
	LeadSoftBounced: {
		// Recovery path: a later successful send resumes the sequence.
		EventEmailSent:      LeadInSequence,
		EventEmailDelivered: LeadContacted,
		EventReplyReceived:  LeadReplied,
		EventHardBounce:     LeadBounced,
		EventSoftBounce:     LeadSoftBounced,
		EventSpamComplaint:  LeadSpamReported,
		EventUnsubscribe:    LeadUnsubscribed,
	},
	LeadReplied: {
		EventIntentInterested:    LeadInterested,
		EventIntentNotInterested: LeadNotInterested,
		EventIntentMeetingBooked: LeadMeetingBooked,
		EventUnsubscribe:         LeadUnsubscribed,
		EventSpamComplaint:       LeadSpamReported,
	},
	LeadInterested: {
		EventIntentMeetingBooked: LeadMeetingBooked,
		EventIntentNotInterested: LeadNotInterested,
		EventUnsubscribe:         LeadUnsubscribed,
	},
	LeadNotInterested: {
		EventUnsubscribe: LeadUnsubscribed,
	},
	LeadSequenceComplete: {
		EventReplyReceived: LeadReplied,
		EventUnsubscribe:   LeadUnsubscribed,
		EventSpamComplaint: LeadSpamReported,
	},
}

// Transition returns the target state for (status, event), or ok=false when
// no legal transition exists. Callers log blocked transitions; nothing panics.
func Transition(status LeadStatus, event LeadEvent) (LeadStatus, bool) {
	if terminal[status] {
		return status, false
	}
	row, ok := transitions[status]
	if !ok {
		return status, false
	}
	next, ok := row[event]
	if !ok {
		return status, false
	}
	return next, true
}

// BlocksSequence reports whether a lead in this status must receive no
// further sequence steps.
func BlocksSequence(status LeadStatus) bool {
	return blocking[status]
}

// IsTerminal reports whether the status admits no outbound transitions
// short of an administrative reset.
func IsTerminal(status LeadStatus) bool {
	return terminal[status]
}

// BlockingStatuses returns the blocking set as strings, in stable order,
// for use in SQL predicates.
func BlockingStatuses() []string {
	return []string{
		string(LeadReplied),
		string(LeadInterested),
		string(LeadNotInterested),
		string(LeadMeetingBooked),
		string(LeadBounced),
		string(LeadUnsubscribed),
		string(LeadSpamReported),
		string(LeadSequenceComplete),
	}
}

// EventFromBounceType maps a bounce classification to the lead event.
func EventFromBounceType(bounceType string) LeadEvent {
	switch bounceType {
	case "hard":
		return EventHardBounce
	case "soft":
		return EventSoftBounce
	case "complaint":
		return EventSpamComplaint
	default:
		return EventHardBounce
	}
}
