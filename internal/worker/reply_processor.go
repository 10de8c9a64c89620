package worker

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/driftmail/outreach/internal/outreach"
)

// Reply intents returned by the classifier.
const (
	IntentInterested    = "interested"
	IntentNotInterested = "not_interested"
	IntentMeetingBooked = "meeting_booked"
	IntentQuestion      = "question"
	IntentOutOfOffice   = "out_of_office"
	IntentAutoReply     = "auto_reply"
	IntentBounce        = "bounce"
)

// IntentClassifier labels an inbound reply. The production implementation
// calls an external AI service; tests supply a stub.
type IntentClassifier interface {
	Classify(ctx context.Context, subject, body string) (string, error)
}

// IntentClassifierFunc adapts a function to IntentClassifier.
type IntentClassifierFunc func(ctx context.Context, subject, body string) (string, error)

func (f IntentClassifierFunc) Classify(ctx context.Context, subject, body string) (string, error) {
	return f(ctx, subject, body)
}

// InboundMessage is a reply delivered by the mailbox provider.
type InboundMessage struct {
	FromEmail  string
	ToEmail    string
	Subject    string
	Body       string
	MessageID  string
	InReplyTo  string
	References string
	ThreadID   string
	ReceivedAt time.Time
}

// ReplyProcessor matches inbound messages to sent emails and drives the
// stop-on-reply and intent transitions.
type ReplyProcessor struct {
	db         *sql.DB
	counters   *Counters
	classifier IntentClassifier
}

// NewReplyProcessor creates a reply processor. The classifier may be nil,
// in which case replies are recorded without an intent.
func NewReplyProcessor(db *sql.DB, classifier IntentClassifier) *ReplyProcessor {
	return &ReplyProcessor{db: db, counters: NewCounters(db), classifier: classifier}
}

// ProcessInbound matches the message against sent emails and records the
// reply. Returns matched=false when no sent email owns the thread.
func (rp *ReplyProcessor) ProcessInbound(ctx context.Context, msg *InboundMessage) (bool, error) {
	email, err := rp.matchEmail(ctx, msg)
	if err != nil {
		return false, err
	}
	if email == nil {
		return false, nil
	}

	replyID := uuid.New()
	if _, err := rp.db.ExecContext(ctx, `
		INSERT INTO replies (id, email_id, lead_id, from_email, subject, body, message_id, received_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`,
		replyID, email.ID, email.LeadID, msg.FromEmail, msg.Subject, msg.Body,
		msg.MessageID, msg.ReceivedAt); err != nil {
		return false, fmt.Errorf("insert reply: %w", err)
	}

	// Stop-on-reply rides on the state machine: replied blocks further steps.
	settings, err := rp.campaignSettings(ctx, email.CampaignID)
	if err != nil {
		log.Printf("[ReplyProcessor] Settings load failed for campaign %s: %v", email.CampaignID, err)
		settings = outreach.ParseCampaignSettings(nil)
	}
	if settings.StopOnReplyEnabled() {
		rp.transitionLead(ctx, email.LeadID, outreach.EventReplyReceived)
	}

	if err := rp.counters.CampaignReplies(ctx, email.CampaignID); err != nil {
		log.Printf("[ReplyProcessor] Campaign reply counter failed for %s: %v", email.CampaignID, err)
	}
	if _, err := rp.db.ExecContext(ctx, `
		UPDATE inboxes SET replied_total = replied_total + 1, updated_at = NOW()
		WHERE id = $1`, email.InboxID); err != nil {
		log.Printf("[ReplyProcessor] Inbox reply counter failed for %s: %v", email.InboxID, err)
	}
	if email.VariantID.Valid {
		if vid, err := uuid.Parse(email.VariantID.String); err == nil {
			if err := rp.counters.VariantStat(ctx, vid, "replies"); err != nil {
				log.Printf("[ReplyProcessor] Variant reply counter failed for %s: %v", vid, err)
			}
		}
	}
	rp.counters.RecordEmailEvent(ctx, email.ID, "replied", "")

	rp.classifyAndTransition(ctx, replyID, email.LeadID, msg)
	return true, nil
}

// matchedEmail is the subset of the email row reply matching needs.
type matchedEmail struct {
	ID         uuid.UUID
	CampaignID uuid.UUID
	LeadID     uuid.UUID
	InboxID    uuid.UUID
	VariantID  sql.NullString
}

// matchEmail resolves the thread: thread_id first, then in_reply_to, then
// any message ID from the references chain.
func (rp *ReplyProcessor) matchEmail(ctx context.Context, msg *InboundMessage) (*matchedEmail, error) {
	var candidates []string
	if msg.ThreadID != "" {
		if e, err := rp.lookup(ctx, `thread_id = $1`, msg.ThreadID); err != nil || e != nil {
			return e, err
		}
	}
	if msg.InReplyTo != "" {
		candidates = append(candidates, msg.InReplyTo)
	}
	for _, ref := range strings.Fields(msg.References) {
		candidates = append(candidates, ref)
	}
	for _, mid := range candidates {
		e, err := rp.lookup(ctx, `message_id = $1`, mid)
		if err != nil {
			return nil, err
		}
		if e != nil {
			return e, nil
		}
	}
	return nil, nil
}

func (rp *ReplyProcessor) lookup(ctx context.Context, predicate, arg string) (*matchedEmail, error) {
	var e matchedEmail
	err := rp.db.QueryRowContext(ctx, `
		SELECT id, campaign_id, lead_id, inbox_id, variant_id
		FROM emails
		WHERE `+predicate+` AND status <> $2
		ORDER BY sent_at DESC NULLS LAST
		LIMIT 1`, arg, outreach.EmailQueued).Scan(
		&e.ID, &e.CampaignID, &e.LeadID, &e.InboxID, &e.VariantID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("match email: %w", err)
	}
	return &e, nil
}

func (rp *ReplyProcessor) campaignSettings(ctx context.Context, campaignID uuid.UUID) (outreach.CampaignSettings, error) {
	var raw []byte
	err := rp.db.QueryRowContext(ctx,
		`SELECT COALESCE(settings, '{}') FROM campaigns WHERE id = $1`, campaignID).Scan(&raw)
	if err != nil {
		return outreach.CampaignSettings{}, err
	}
	return outreach.ParseCampaignSettings(raw), nil
}

// classifyAndTransition asks the classifier for an intent and applies the
// matching lead transition. Out-of-office and auto-replies leave the lead
// where it is.
func (rp *ReplyProcessor) classifyAndTransition(ctx context.Context, replyID, leadID uuid.UUID, msg *InboundMessage) {
	if rp.classifier == nil {
		return
	}
	intent, err := rp.classifier.Classify(ctx, msg.Subject, msg.Body)
	if err != nil {
		log.Printf("[ReplyProcessor] Intent classification failed for reply %s: %v", replyID, err)
		return
	}

	if _, err := rp.db.ExecContext(ctx,
		`UPDATE replies SET intent = $1 WHERE id = $2`, intent, replyID); err != nil {
		log.Printf("[ReplyProcessor] Reply %s intent update failed: %v", replyID, err)
	}

	var event outreach.LeadEvent
	switch intent {
	case IntentInterested:
		event = outreach.EventIntentInterested
	case IntentNotInterested:
		event = outreach.EventIntentNotInterested
	case IntentMeetingBooked:
		event = outreach.EventIntentMeetingBooked
	default:
		return
	}
	rp.transitionLead(ctx, leadID, event)
}

func (rp *ReplyProcessor) transitionLead(ctx context.Context, leadID uuid.UUID, event outreach.LeadEvent) {
	var current outreach.LeadStatus
	if err := rp.db.QueryRowContext(ctx,
		`SELECT status FROM leads WHERE id = $1`, leadID).Scan(&current); err != nil {
		log.Printf("[ReplyProcessor] Lead %s status read failed: %v", leadID, err)
		return
	}
	next, ok := outreach.Transition(current, event)
	if !ok || next == current {
		return
	}
	if _, err := rp.db.ExecContext(ctx, `
		UPDATE leads SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		next, leadID, current); err != nil {
		log.Printf("[ReplyProcessor] Lead %s transition failed: %v", leadID, err)
	}
}
