package worker

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/google/uuid"
)

// Counters funnels every engagement counter through atomic SQL functions so
// concurrent workers never lose increments. First-touch timestamps
// (opened_at, clicked_at) are set inside the functions with
// COALESCE(existing, NOW()).
type Counters struct {
	db *sql.DB
}

func NewCounters(db *sql.DB) *Counters {
	return &Counters{db: db}
}

func (c *Counters) call(ctx context.Context, fn string, args ...interface{}) error {
	placeholders := ""
	for i := range args {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += fmt.Sprintf("$%d", i+1)
	}
	if _, err := c.db.ExecContext(ctx, fmt.Sprintf("SELECT %s(%s)", fn, placeholders), args...); err != nil {
		return fmt.Errorf("%s: %w", fn, err)
	}
	return nil
}

func (c *Counters) EmailOpen(ctx context.Context, emailID uuid.UUID) error {
	return c.call(ctx, "increment_email_open", emailID)
}

func (c *Counters) EmailClick(ctx context.Context, emailID uuid.UUID) error {
	return c.call(ctx, "increment_email_click", emailID)
}

func (c *Counters) CampaignOpens(ctx context.Context, campaignID uuid.UUID) error {
	return c.call(ctx, "increment_campaign_opens", campaignID)
}

func (c *Counters) CampaignClicks(ctx context.Context, campaignID uuid.UUID) error {
	return c.call(ctx, "increment_campaign_clicks", campaignID)
}

func (c *Counters) CampaignSent(ctx context.Context, campaignID uuid.UUID) error {
	return c.call(ctx, "increment_campaign_sent", campaignID)
}

func (c *Counters) CampaignBounces(ctx context.Context, campaignID uuid.UUID) error {
	return c.call(ctx, "increment_campaign_bounces", campaignID)
}

func (c *Counters) CampaignReplies(ctx context.Context, campaignID uuid.UUID) error {
	return c.call(ctx, "increment_campaign_replies", campaignID)
}

// VariantStat bumps one stat column (sent/opens/clicks/replies) on a
// sequence variant.
func (c *Counters) VariantStat(ctx context.Context, variantID uuid.UUID, stat string) error {
	return c.call(ctx, "increment_variant_stat", variantID, stat)
}

func (c *Counters) InboxSpam(ctx context.Context, inboxID uuid.UUID) error {
	return c.call(ctx, "increment_inbox_spam", inboxID)
}

// RecordEmailEvent appends an email_events audit row. Failures are logged
// and swallowed so the counter pipeline is never blocked by the audit trail.
func (c *Counters) RecordEmailEvent(ctx context.Context, emailID uuid.UUID, eventType, metadata string) {
	if metadata == "" {
		metadata = "{}"
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO email_events (id, email_id, event_type, metadata, created_at)
		VALUES ($1, $2, $3, $4, NOW())`,
		uuid.New(), emailID, eventType, metadata)
	if err != nil {
		log.Printf("[Counters] Failed to record email event %s for %s: %v", eventType, emailID, err)
	}
}

// RecordInboxEvent appends an inbox_events audit row (auto_paused,
// auth_error, warmup_phase_change, ...).
func (c *Counters) RecordInboxEvent(ctx context.Context, inboxID uuid.UUID, eventType, detail string) {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO inbox_events (id, inbox_id, event_type, detail, created_at)
		VALUES ($1, $2, $3, $4, NOW())`,
		uuid.New(), inboxID, eventType, detail)
	if err != nil {
		log.Printf("[Counters] Failed to record inbox event %s for %s: %v", eventType, inboxID, err)
	}
}

// TrackOpen runs the open pipeline in its fixed order: email counter,
// event row, campaign counter, variant counter. Later stages are skipped
// when the email has no campaign or variant attached.
func (c *Counters) TrackOpen(ctx context.Context, emailID uuid.UUID, campaignID, variantID *uuid.UUID) error {
	if err := c.EmailOpen(ctx, emailID); err != nil {
		return err
	}
	c.RecordEmailEvent(ctx, emailID, "opened", "")
	if campaignID != nil {
		if err := c.CampaignOpens(ctx, *campaignID); err != nil {
			log.Printf("[Counters] Campaign open counter failed for %s: %v", *campaignID, err)
		}
	}
	if variantID != nil {
		if err := c.VariantStat(ctx, *variantID, "opens"); err != nil {
			log.Printf("[Counters] Variant open counter failed for %s: %v", *variantID, err)
		}
	}
	return nil
}

// TrackClick mirrors TrackOpen for link clicks.
func (c *Counters) TrackClick(ctx context.Context, emailID uuid.UUID, campaignID, variantID *uuid.UUID) error {
	if err := c.EmailClick(ctx, emailID); err != nil {
		return err
	}
	c.RecordEmailEvent(ctx, emailID, "clicked", "")
	if campaignID != nil {
		if err := c.CampaignClicks(ctx, *campaignID); err != nil {
			log.Printf("[Counters] Campaign click counter failed for %s: %v", *campaignID, err)
		}
	}
	if variantID != nil {
		if err := c.VariantStat(ctx, *variantID, "clicks"); err != nil {
			log.Printf("[Counters] Variant click counter failed for %s: %v", *variantID, err)
		}
	}
	return nil
}
