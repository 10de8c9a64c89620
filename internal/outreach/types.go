// Package outreach contains the pure domain logic of the cold-email engine:
// the template language, the lead state machine, send windows, A/B variant
// math, warmup quotas, and the health-score formula. Nothing in this package
// touches the database, Redis, or the network.
package outreach

import (
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Campaign statuses. Only active campaigns are picked up by the scheduler.
const (
	CampaignDraft     = "draft"
	CampaignActive    = "active"
	CampaignPaused    = "paused"
	CampaignCompleted = "completed"
	CampaignArchived  = "archived"
)

// Inbox statuses.
const (
	InboxActive    = "active"
	InboxWarmingUp = "warming_up"
	InboxPaused    = "paused"
	InboxError     = "error"
	InboxBanned    = "banned"
)

// Email statuses. Transitions are monotone except the soft-bounce loop
// queued -> retry_pending -> queued.
const (
	EmailQueued       = "queued"
	EmailSending      = "sending"
	EmailSent         = "sent"
	EmailDelivered    = "delivered"
	EmailOpened       = "opened"
	EmailClicked      = "clicked"
	EmailBounced      = "bounced"
	EmailRetryPending = "retry_pending"
	EmailFailed       = "failed"

	// EmailSkipped marks a step suppressed by a skip_step sequence
	// condition. The row exists only so the next step can advance.
	EmailSkipped = "skipped"
)

// Warmup phases.
const (
	WarmupRamping     = "ramping"
	WarmupMaintaining = "maintaining"
	WarmupPaused      = "paused"
	WarmupCompleted   = "completed"
)

// Warmup modes.
const (
	WarmupModePool    = "pool"
	WarmupModeNetwork = "network"
)

// Suppression reasons.
const (
	SuppressHardBounce    = "hard_bounce"
	SuppressSpamComplaint = "spam_complaint"
	SuppressUnsubscribe   = "unsubscribe"
	SuppressManual        = "manual"
)

// MinInboxHealthScore is the floor below which the scheduler will not
// select an inbox for sending.
const MinInboxHealthScore = 50

// Campaign is a row from the campaigns table.
type Campaign struct {
	ID         uuid.UUID
	TeamID     uuid.UUID
	Name       string
	Status     string
	LeadListID sql.NullString
	Settings   CampaignSettings
}

// SequenceStep belongs to exactly one campaign. Step numbers are 1-based
// and dense; step 1 has zero delay.
type SequenceStep struct {
	ID         uuid.UUID
	CampaignID uuid.UUID
	StepNumber int
	DelayDays  int
	DelayHours int
	Subject    string
	BodyHTML   string
}

// Delay returns how long after the previous step's send this step becomes due.
func (s SequenceStep) Delay() time.Duration {
	return time.Duration(s.DelayDays)*24*time.Hour + time.Duration(s.DelayHours)*time.Hour
}

// SequenceVariant is an A/B alternative for a step. Weights across a step
// sum to 100.
type SequenceVariant struct {
	ID       uuid.UUID
	StepID   uuid.UUID
	Subject  string
	Body     string
	Weight   int
	IsWinner bool
}

// VariantStats carries lifetime engagement counters for one variant.
type VariantStats struct {
	VariantID uuid.UUID
	Weight    int
	IsWinner  bool
	SentCount int
	OpenCount int
	ClickCount int
	ReplyCount int
}

// Lead is a recipient record. Email is stored lowercased, unique per team.
type Lead struct {
	ID           uuid.UUID
	TeamID       uuid.UUID
	ListID       sql.NullString
	Email        string
	FirstName    sql.NullString
	LastName     sql.NullString
	Company      sql.NullString
	Title        sql.NullString
	Phone        sql.NullString
	LinkedinURL  sql.NullString
	Website      sql.NullString
	Country      sql.NullString
	City         sql.NullString
	Timezone     sql.NullString
	CustomFields map[string]string
	Status       LeadStatus
}

// Inbox is a connected sender mailbox.
type Inbox struct {
	ID                  uuid.UUID
	TeamID              uuid.UUID
	Provider            string
	Email               string
	FromName            sql.NullString
	SenderFirstName     sql.NullString
	SenderLastName      sql.NullString
	SenderCompany       sql.NullString
	SenderTitle         sql.NullString
	SenderPhone         sql.NullString
	SenderWebsite       sql.NullString
	Status              string
	StatusReason        sql.NullString
	HealthScore         int
	DailySendLimit      int
	SentToday           int
	SentTotal           int
	BouncedTotal        int
	RepliedTotal        int
	SpamComplaintsTotal int
	ThrottlePercentage  int
}

// EffectiveDailyLimit applies the throttle percentage to the daily cap.
// Zero is a valid throttle and yields a zero limit; only out-of-range
// values fall back to full rate.
func (i Inbox) EffectiveDailyLimit() int {
	pct := i.ThrottlePercentage
	if pct < 0 || pct > 100 {
		pct = 100
	}
	return i.DailySendLimit * pct / 100
}

// WarmupState is the per-inbox warmup record. Its *_today counters are
// distinct from the inbox's sent_today and must never be aliased.
type WarmupState struct {
	InboxID           uuid.UUID
	TeamID            uuid.UUID
	Enabled           bool
	Phase             string
	CurrentDay        int
	RampSpeed         RampSpeed
	TargetDailyVolume int
	ReplyRateTarget   int
	WarmupMode        sql.NullString
	SentToday         int
	ReceivedToday     int
	RepliedToday      int
	SpamToday         int
	SentTotal         int
	ReceivedTotal     int
	RepliedTotal      int
	SpamTotal         int
	StartedAt         sql.NullTime
	LastActivityAt    sql.NullTime
}

// EmailRecord is one outbound send attempt. (campaign, lead, step_number)
// is unique.
type EmailRecord struct {
	ID               uuid.UUID
	TeamID           uuid.UUID
	CampaignID       uuid.UUID
	StepID           uuid.UUID
	StepNumber       int
	LeadID           uuid.UUID
	InboxID          uuid.UUID
	VariantID        sql.NullString
	FromEmail        string
	ToEmail          string
	Subject          string
	BodyHTML         string
	Status           string
	MessageID        sql.NullString
	InReplyTo        sql.NullString
	ReferencesHeader sql.NullString
	ThreadID         sql.NullString
	OpenCount        int
	ClickCount       int
	SoftBounceCount  int
	BounceType       sql.NullString
	BounceReason     sql.NullString
	SentAt           sql.NullTime
	BouncedAt        sql.NullTime
	LastRetryAt      sql.NullTime
}

// HourRange is one half-open [Start, End) sending interval, hours 0..24.
type HourRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// SequenceCondition configures per-step branch behavior.
type SequenceCondition struct {
	Type   string `json:"type"`   // no_reply | no_open | no_click | replied | opened | clicked | bounced
	Action string `json:"action"` // continue | stop | skip_step
}

// CampaignSettings is the recognized settings object. Unknown keys are
// ignored on parse.
type CampaignSettings struct {
	SendWindowStart    string                       `json:"send_window_start"`
	SendWindowEnd      string                       `json:"send_window_end"`
	Timezone           string                       `json:"timezone"`
	SendDays           []string                     `json:"send_days"`
	Schedule           map[string][]HourRange       `json:"schedule"`
	TrackOpens         bool                         `json:"track_opens"`
	TrackClicks        bool                         `json:"track_clicks"`
	StopOnReply        *bool                        `json:"stop_on_reply"`
	SequenceConditions map[string]SequenceCondition `json:"sequence_conditions"`
	WarmupCeilingDays  int                          `json:"warmup_ceiling_days"`
}

// ParseCampaignSettings decodes the stored settings JSON, applying defaults
// for anything missing. A nil or empty payload yields pure defaults.
func ParseCampaignSettings(raw []byte) CampaignSettings {
	var s CampaignSettings
	if len(raw) > 0 {
		json.Unmarshal(raw, &s)
	}
	if s.Timezone == "" {
		s.Timezone = "America/New_York"
	}
	if len(s.SendDays) == 0 && len(s.Schedule) == 0 {
		s.SendDays = []string{"mon", "tue", "wed", "thu", "fri"}
	}
	return s
}

// StopOnReplyEnabled defaults to true when unset.
func (s CampaignSettings) StopOnReplyEnabled() bool {
	if s.StopOnReply == nil {
		return true
	}
	return *s.StopOnReply
}

// ConditionForStep returns the configured condition for step n, or the
// default {no_reply, continue} for steps after the first.
func (s CampaignSettings) ConditionForStep(n int) SequenceCondition {
	if c, ok := s.SequenceConditions[strconv.Itoa(n)]; ok && c.Type != "" {
		return c
	}
	return SequenceCondition{Type: "no_reply", Action: "continue"}
}
