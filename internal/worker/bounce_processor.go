package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/driftmail/outreach/internal/outreach"
	"github.com/driftmail/outreach/internal/queue"
	"github.com/driftmail/outreach/internal/suppression"
)

const (
	// MaxSoftBounceRetries caps the retry ladder for soft bounces.
	MaxSoftBounceRetries = 3

	// MinEmailsForRate is the minimum send volume before an inbox bounce
	// rate is considered meaningful.
	MinEmailsForRate = 50

	// BounceRateThreshold is the auto-pause cutoff (3%).
	BounceRateThreshold = 0.03

	bounceBatchSize = 20
	bounceIdleWait  = 5 * time.Second
)

// softBounceDelays is the retry ladder, indexed by the pre-increment
// soft_bounce_count.
var softBounceDelays = [MaxSoftBounceRetries]time.Duration{
	1 * time.Hour,
	4 * time.Hour,
	24 * time.Hour,
}

// BounceProcessor consumes delivery-failure events. Soft bounces walk a
// retry ladder; hard bounces and complaints suppress the recipient and can
// auto-pause the sending inbox.
type BounceProcessor struct {
	db       *sql.DB
	q        *queue.Queue
	suppress *suppression.Store
	counters *Counters
	workerID string
	reg      *registry

	processed     int64
	retriesQueued int64
	inboxesPaused int64
	errorCount    int64

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.RWMutex
}

// NewBounceProcessor creates a bounce processor.
func NewBounceProcessor(db *sql.DB, q *queue.Queue, suppress *suppression.Store) *BounceProcessor {
	bp := &BounceProcessor{
		db:       db,
		q:        q,
		suppress: suppress,
		counters: NewCounters(db),
		workerID: workerInstanceID("bounce"),
	}
	bp.reg = newRegistry(db, bp.workerID, "bounce_processor")
	return bp
}

// Start launches the consumer loop.
func (bp *BounceProcessor) Start() error {
	bp.mu.Lock()
	if bp.running {
		bp.mu.Unlock()
		return fmt.Errorf("bounce processor already running")
	}
	bp.running = true
	bp.ctx, bp.cancel = context.WithCancel(context.Background())
	bp.mu.Unlock()

	log.Printf("[BounceProcessor] Starting")
	bp.reg.register()

	bp.wg.Add(1)
	go bp.consumeLoop()
	return nil
}

// Stop drains the consumer.
func (bp *BounceProcessor) Stop() {
	bp.mu.Lock()
	if !bp.running {
		bp.mu.Unlock()
		return
	}
	bp.running = false
	bp.cancel()
	bp.mu.Unlock()

	bp.wg.Wait()
	bp.reg.deregister()
	log.Printf("[BounceProcessor] Stopped. Processed: %d, retries: %d, inboxes paused: %d",
		atomic.LoadInt64(&bp.processed), atomic.LoadInt64(&bp.retriesQueued), atomic.LoadInt64(&bp.inboxesPaused))
}

// Stats returns current counters.
func (bp *BounceProcessor) Stats() map[string]int64 {
	return map[string]int64{
		"processed":      atomic.LoadInt64(&bp.processed),
		"retries_queued": atomic.LoadInt64(&bp.retriesQueued),
		"inboxes_paused": atomic.LoadInt64(&bp.inboxesPaused),
		"errors":         atomic.LoadInt64(&bp.errorCount),
	}
}

func (bp *BounceProcessor) consumeLoop() {
	defer bp.wg.Done()
	for {
		select {
		case <-bp.ctx.Done():
			return
		default:
		}

		jobs, err := bp.q.Dequeue(bp.ctx, queue.QueueBounceProcess, bounceBatchSize)
		if err != nil {
			log.Printf("[BounceProcessor] Dequeue error: %v", err)
			bp.sleep(bounceIdleWait)
			continue
		}
		if len(jobs) == 0 {
			bp.sleep(bounceIdleWait)
			continue
		}

		for _, job := range jobs {
			if bp.ctx.Err() != nil {
				return
			}
			if err := bp.processJob(job); err != nil {
				atomic.AddInt64(&bp.errorCount, 1)
				log.Printf("[BounceProcessor] Job %s failed: %v", job.ID, err)
				bp.q.Retry(bp.ctx, job, time.Minute)
				continue
			}
			atomic.AddInt64(&bp.processed, 1)
		}
	}
}

func (bp *BounceProcessor) sleep(d time.Duration) {
	select {
	case <-bp.ctx.Done():
	case <-time.After(d):
	}
}

func (bp *BounceProcessor) processJob(job queue.Job) error {
	var b queue.BounceJob
	if err := json.Unmarshal(job.Payload, &b); err != nil {
		return fmt.Errorf("malformed bounce job: %w", err)
	}
	emailID, err := uuid.Parse(b.EmailID)
	if err != nil {
		return fmt.Errorf("invalid email ID: %w", err)
	}
	leadID, err := uuid.Parse(b.LeadID)
	if err != nil {
		return fmt.Errorf("invalid lead ID: %w", err)
	}
	inboxID, err := uuid.Parse(b.InboxID)
	if err != nil {
		return fmt.Errorf("invalid inbox ID: %w", err)
	}

	var teamID uuid.UUID
	var toEmail string
	var softCount int
	var stepNumber int
	err = bp.db.QueryRowContext(bp.ctx, `
		SELECT team_id, to_email, soft_bounce_count, step_number
		FROM emails WHERE id = $1`, emailID).Scan(&teamID, &toEmail, &softCount, &stepNumber)
	if err == sql.ErrNoRows {
		log.Printf("[BounceProcessor] Email %s not found, dropping bounce", emailID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load email: %w", err)
	}

	bounceType := b.BounceType
	bounceReason := b.BounceReason

	if bounceType == "soft" && softCount < MaxSoftBounceRetries {
		return bp.scheduleSoftRetry(b, emailID, softCount)
	}
	if bounceType == "soft" {
		// Ladder exhausted: treat as hard from here on.
		bounceType = "hard"
		bounceReason = bounceReason + " (max retries exceeded)"
	}

	if _, err := bp.db.ExecContext(bp.ctx, `
		UPDATE emails
		SET status = $1, bounce_type = $2, bounce_reason = $3, bounced_at = NOW(), updated_at = NOW()
		WHERE id = $4`,
		outreach.EmailBounced, bounceType, bounceReason, emailID); err != nil {
		return fmt.Errorf("mark bounced: %w", err)
	}

	bp.transitionLead(leadID, outreach.EventFromBounceType(bounceType))

	switch bounceType {
	case "hard":
		if err := bp.suppress.Add(bp.ctx, teamID, toEmail, outreach.SuppressHardBounce, bounceReason); err != nil {
			log.Printf("[BounceProcessor] Suppression add failed for email %s: %v", emailID, err)
		}
	case "complaint":
		if err := bp.suppress.Add(bp.ctx, teamID, toEmail, outreach.SuppressSpamComplaint, bounceReason); err != nil {
			log.Printf("[BounceProcessor] Suppression add failed for email %s: %v", emailID, err)
		}
		if err := bp.counters.InboxSpam(bp.ctx, inboxID); err != nil {
			log.Printf("[BounceProcessor] Inbox spam counter failed for %s: %v", inboxID, err)
		}
	}

	if _, err := bp.db.ExecContext(bp.ctx, `
		UPDATE inboxes SET bounced_total = bounced_total + 1, updated_at = NOW()
		WHERE id = $1`, inboxID); err != nil {
		log.Printf("[BounceProcessor] Inbox bounce counter failed for %s: %v", inboxID, err)
	}

	payload, _ := json.Marshal(b)
	bp.counters.RecordEmailEvent(bp.ctx, emailID, "bounced", string(payload))

	if b.CampaignID != "" {
		if cid, err := uuid.Parse(b.CampaignID); err == nil {
			if err := bp.counters.CampaignBounces(bp.ctx, cid); err != nil {
				// Fallback: plain read-then-write increment.
				bp.db.ExecContext(bp.ctx, `
					UPDATE campaigns SET bounced_count = COALESCE(bounced_count, 0) + 1, updated_at = NOW()
					WHERE id = $1`, cid)
			}
		}
	}

	bp.checkInboxHealth(inboxID)
	return nil
}

// scheduleSoftRetry walks the 1h/4h/24h ladder without touching the lead.
func (bp *BounceProcessor) scheduleSoftRetry(b queue.BounceJob, emailID uuid.UUID, softCount int) error {
	delay := softBounceDelays[softCount]

	if _, err := bp.db.ExecContext(bp.ctx, `
		UPDATE emails
		SET status = $1, soft_bounce_count = soft_bounce_count + 1,
		    bounce_reason = $2, last_retry_at = NOW(), updated_at = NOW()
		WHERE id = $3`,
		outreach.EmailRetryPending, b.BounceReason, emailID); err != nil {
		return fmt.Errorf("mark retry_pending: %w", err)
	}

	if _, err := bp.q.Enqueue(bp.ctx, queue.QueueEmailSend, "", queue.EmailSendJob{
		EmailID:    b.EmailID,
		LeadID:     b.LeadID,
		CampaignID: b.CampaignID,
		InboxID:    b.InboxID,
		IsRetry:    true,
		RetryCount: softCount + 1,
	}, delay); err != nil {
		return fmt.Errorf("enqueue retry: %w", err)
	}

	bp.counters.RecordEmailEvent(bp.ctx, emailID, "retry_scheduled",
		fmt.Sprintf(`{"attempt":%d,"delaySeconds":%d}`, softCount+1, int(delay.Seconds())))
	atomic.AddInt64(&bp.retriesQueued, 1)
	log.Printf("[BounceProcessor] Email %s soft bounce, retry %d in %v", emailID, softCount+1, delay)
	return nil
}

func (bp *BounceProcessor) transitionLead(leadID uuid.UUID, event outreach.LeadEvent) {
	var current outreach.LeadStatus
	if err := bp.db.QueryRowContext(bp.ctx,
		`SELECT status FROM leads WHERE id = $1`, leadID).Scan(&current); err != nil {
		log.Printf("[BounceProcessor] Lead %s status read failed: %v", leadID, err)
		return
	}
	next, ok := outreach.Transition(current, event)
	if !ok || next == current {
		return
	}
	if _, err := bp.db.ExecContext(bp.ctx, `
		UPDATE leads SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		next, leadID, current); err != nil {
		log.Printf("[BounceProcessor] Lead %s transition failed: %v", leadID, err)
	}
}

// checkInboxHealth auto-pauses an inbox whose bounce rate crossed the
// threshold on a meaningful sample.
func (bp *BounceProcessor) checkInboxHealth(inboxID uuid.UUID) {
	var sentTotal, bouncedTotal int
	var status string
	err := bp.db.QueryRowContext(bp.ctx, `
		SELECT sent_total, bounced_total, status FROM inboxes WHERE id = $1`,
		inboxID).Scan(&sentTotal, &bouncedTotal, &status)
	if err != nil {
		log.Printf("[BounceProcessor] Inbox %s health read failed: %v", inboxID, err)
		return
	}
	if status == outreach.InboxPaused || status == outreach.InboxError || status == outreach.InboxBanned {
		return
	}
	if sentTotal < MinEmailsForRate {
		return
	}
	rate := float64(bouncedTotal) / float64(sentTotal)
	if rate <= BounceRateThreshold {
		return
	}

	reason := fmt.Sprintf("High bounce rate: %.1f%%", rate*100)
	if _, err := bp.db.ExecContext(bp.ctx, `
		UPDATE inboxes
		SET status = $1, paused_at = NOW(), pause_reason = $2, updated_at = NOW()
		WHERE id = $3`,
		outreach.InboxPaused, reason, inboxID); err != nil {
		log.Printf("[BounceProcessor] Inbox %s auto-pause failed: %v", inboxID, err)
		return
	}
	bp.counters.RecordInboxEvent(bp.ctx, inboxID, "auto_paused", reason)
	atomic.AddInt64(&bp.inboxesPaused, 1)
	log.Printf("[BounceProcessor] Inbox %s auto-paused: %s", inboxID, reason)
}
