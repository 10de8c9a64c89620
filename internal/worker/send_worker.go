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
	"github.com/lib/pq"

	"github.com/driftmail/outreach/internal/outreach"
	"github.com/driftmail/outreach/internal/queue"
	"github.com/driftmail/outreach/internal/suppression"
)

const (
	// DefaultSendWorkers is the pool size per process.
	DefaultSendWorkers = 4

	// sendBatchSize is how many jobs one worker claims per poll.
	sendBatchSize = 10

	// sendIdleWait is how long a worker sleeps when the queue is empty.
	sendIdleWait = 2 * time.Second
)

// SendWorkerPool consumes the email-send queue: it revalidates each job
// against the current campaign and suppression state, hands the message to
// the transport, and settles the email row and counters afterwards.
type SendWorkerPool struct {
	db         *sql.DB
	q          *queue.Queue
	suppress   *suppression.Store
	transport  Transport
	counters   *Counters
	numWorkers int
	workerID   string
	reg        *registry

	totalSent    int64
	totalFailed  int64
	totalSkipped int64
	totalRetried int64

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.RWMutex
}

// NewSendWorkerPool creates a send pool.
func NewSendWorkerPool(db *sql.DB, q *queue.Queue, suppress *suppression.Store, transport Transport, numWorkers int) *SendWorkerPool {
	if numWorkers <= 0 {
		numWorkers = DefaultSendWorkers
	}
	p := &SendWorkerPool{
		db:         db,
		q:          q,
		suppress:   suppress,
		transport:  transport,
		counters:   NewCounters(db),
		numWorkers: numWorkers,
		workerID:   workerInstanceID("sender"),
	}
	p.reg = newRegistry(db, p.workerID, "email_sender")
	return p
}

// Start launches the worker goroutines.
func (p *SendWorkerPool) Start() error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("send worker pool already running")
	}
	p.running = true
	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.mu.Unlock()

	log.Printf("[SendWorker] Starting %d workers", p.numWorkers)
	p.reg.register()

	p.wg.Add(1)
	go p.heartbeatLoop()

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	return nil
}

// Stop drains the pool.
func (p *SendWorkerPool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.cancel()
	p.mu.Unlock()

	p.wg.Wait()
	p.reg.deregister()
	log.Printf("[SendWorker] Stopped. Sent: %d, failed: %d, skipped: %d, retried: %d",
		atomic.LoadInt64(&p.totalSent), atomic.LoadInt64(&p.totalFailed),
		atomic.LoadInt64(&p.totalSkipped), atomic.LoadInt64(&p.totalRetried))
}

// Stats returns current counters.
func (p *SendWorkerPool) Stats() map[string]int64 {
	return map[string]int64{
		"total_sent":    atomic.LoadInt64(&p.totalSent),
		"total_failed":  atomic.LoadInt64(&p.totalFailed),
		"total_skipped": atomic.LoadInt64(&p.totalSkipped),
		"total_retried": atomic.LoadInt64(&p.totalRetried),
	}
}

func (p *SendWorkerPool) heartbeatLoop() {
	defer p.wg.Done()
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.reg.heartbeat(p.Stats())
		}
	}
}

func (p *SendWorkerPool) worker(workerNum int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		jobs, err := p.q.Dequeue(p.ctx, queue.QueueEmailSend, sendBatchSize)
		if err != nil {
			log.Printf("[SendWorker] Worker %d dequeue error: %v", workerNum, err)
			p.sleep(sendIdleWait)
			continue
		}
		if len(jobs) == 0 {
			p.sleep(sendIdleWait)
			continue
		}

		for _, job := range jobs {
			if p.ctx.Err() != nil {
				return
			}
			p.processJob(job)
		}
	}
}

func (p *SendWorkerPool) sleep(d time.Duration) {
	select {
	case <-p.ctx.Done():
	case <-time.After(d):
	}
}

func (p *SendWorkerPool) processJob(job queue.Job) {
	var payload queue.EmailSendJob
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		log.Printf("[SendWorker] Malformed job %s: %v", job.ID, err)
		atomic.AddInt64(&p.totalFailed, 1)
		return
	}

	emailID, err := uuid.Parse(payload.EmailID)
	if err != nil {
		log.Printf("[SendWorker] Invalid email ID in job %s: %v", job.ID, err)
		atomic.AddInt64(&p.totalFailed, 1)
		return
	}

	email, err := p.loadEmail(emailID)
	if err != nil {
		log.Printf("[SendWorker] Email %s load failed: %v", emailID, err)
		p.retry(job, fmt.Errorf("load email: %w", err))
		return
	}
	if email == nil {
		atomic.AddInt64(&p.totalSkipped, 1)
		return
	}
	if email.Status != outreach.EmailQueued && email.Status != outreach.EmailRetryPending {
		// Already settled by another worker.
		atomic.AddInt64(&p.totalSkipped, 1)
		return
	}

	// A paused or archived campaign cancels in-flight jobs; the email row
	// stays queued so a resume picks it back up.
	var campaignStatus string
	err = p.db.QueryRowContext(p.ctx,
		`SELECT status FROM campaigns WHERE id = $1`, email.CampaignID).Scan(&campaignStatus)
	if err != nil {
		p.retry(job, fmt.Errorf("campaign status: %w", err))
		return
	}
	if campaignStatus != outreach.CampaignActive {
		atomic.AddInt64(&p.totalSkipped, 1)
		return
	}

	suppressed, err := p.suppress.IsSuppressed(p.ctx, email.TeamID, email.ToEmail)
	if err == nil && suppressed {
		p.markFailed(email.ID, "recipient suppressed")
		atomic.AddInt64(&p.totalSkipped, 1)
		return
	}

	// A rendered body or subject with leftover template syntax or smart
	// placeholders never leaves the building.
	if err := outreach.ValidateRendered(email.Subject); err != nil {
		p.markFailed(email.ID, "subject validation: "+err.Error())
		atomic.AddInt64(&p.totalFailed, 1)
		return
	}
	if err := outreach.ValidateRendered(email.BodyHTML); err != nil {
		p.markFailed(email.ID, "body validation: "+err.Error())
		atomic.AddInt64(&p.totalFailed, 1)
		return
	}

	if _, err := p.db.ExecContext(p.ctx, `
		UPDATE emails SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = ANY($3)`,
		outreach.EmailSending, email.ID,
		pq.Array([]string{outreach.EmailQueued, outreach.EmailRetryPending})); err != nil {
		p.retry(job, fmt.Errorf("mark sending: %w", err))
		return
	}

	msg := &OutboundMessage{
		EmailID:    email.ID.String(),
		CampaignID: email.CampaignID.String(),
		LeadID:     email.LeadID.String(),
		InboxID:    email.InboxID.String(),
		FromName:   email.FromName,
		FromEmail:  email.FromEmail,
		ToEmail:    email.ToEmail,
		Subject:    email.Subject,
		BodyHTML:   email.BodyHTML,
		Headers:    map[string]string{},
	}
	if email.InReplyTo.Valid && email.InReplyTo.String != "" {
		msg.Headers["In-Reply-To"] = email.InReplyTo.String
	}
	if email.ReferencesHeader.Valid && email.ReferencesHeader.String != "" {
		msg.Headers["References"] = email.ReferencesHeader.String
	}

	result, err := p.transport.Send(p.ctx, msg)
	if err != nil {
		p.handleSendError(job, email, err)
		return
	}

	p.settleSent(email, result)
	atomic.AddInt64(&p.totalSent, 1)
}

// sentEmail is the slice of the email row the send path needs.
type sentEmail struct {
	ID               uuid.UUID
	TeamID           uuid.UUID
	CampaignID       uuid.UUID
	LeadID           uuid.UUID
	InboxID          uuid.UUID
	VariantID        sql.NullString
	StepNumber       int
	FromName         string
	FromEmail        string
	ToEmail          string
	Subject          string
	BodyHTML         string
	Status           string
	InReplyTo        sql.NullString
	ReferencesHeader sql.NullString
	ThreadID         sql.NullString
}

func (p *SendWorkerPool) loadEmail(id uuid.UUID) (*sentEmail, error) {
	var e sentEmail
	err := p.db.QueryRowContext(p.ctx, `
		SELECT e.id, e.team_id, e.campaign_id, e.lead_id, e.inbox_id, e.variant_id,
		       e.step_number, COALESCE(i.from_name, ''), e.from_email, e.to_email,
		       e.subject, e.body_html, e.status, e.in_reply_to, e.references_header,
		       e.thread_id
		FROM emails e
		JOIN inboxes i ON i.id = e.inbox_id
		WHERE e.id = $1`, id).Scan(
		&e.ID, &e.TeamID, &e.CampaignID, &e.LeadID, &e.InboxID, &e.VariantID,
		&e.StepNumber, &e.FromName, &e.FromEmail, &e.ToEmail,
		&e.Subject, &e.BodyHTML, &e.Status, &e.InReplyTo, &e.ReferencesHeader,
		&e.ThreadID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// settleSent records a successful transport ack: email row first, then the
// campaign counter, the inbox counters, the variant counter, and the lead
// transition.
func (p *SendWorkerPool) settleSent(email *sentEmail, result *SendResult) {
	threadID := email.ThreadID
	if !threadID.Valid && result.MessageID != "" {
		// Step 1 starts the thread with its own message ID.
		threadID = sql.NullString{String: result.MessageID, Valid: true}
	}

	_, err := p.db.ExecContext(p.ctx, `
		UPDATE emails
		SET status = $1, message_id = $2, thread_id = $3, sent_at = $4, updated_at = NOW()
		WHERE id = $5`,
		outreach.EmailSent, result.MessageID, threadID, result.SentAt, email.ID)
	if err != nil {
		log.Printf("[SendWorker] Email %s sent but row update failed: %v", email.ID, err)
		return
	}

	if err := p.counters.CampaignSent(p.ctx, email.CampaignID); err != nil {
		log.Printf("[SendWorker] Campaign sent counter failed for %s: %v", email.CampaignID, err)
	}

	if _, err := p.db.ExecContext(p.ctx, `
		UPDATE inboxes
		SET sent_today = sent_today + 1, sent_total = sent_total + 1,
		    last_sent_at = NOW(), updated_at = NOW()
		WHERE id = $1`, email.InboxID); err != nil {
		log.Printf("[SendWorker] Inbox counter update failed for %s: %v", email.InboxID, err)
	}

	if email.VariantID.Valid {
		if vid, err := uuid.Parse(email.VariantID.String); err == nil {
			if err := p.counters.VariantStat(p.ctx, vid, "sent"); err != nil {
				log.Printf("[SendWorker] Variant sent counter failed for %s: %v", vid, err)
			}
		}
	}

	p.transitionLead(email.LeadID, outreach.EventEmailSent)
	p.counters.RecordEmailEvent(p.ctx, email.ID, "sent", "")
}

func (p *SendWorkerPool) transitionLead(leadID uuid.UUID, event outreach.LeadEvent) {
	var current outreach.LeadStatus
	if err := p.db.QueryRowContext(p.ctx,
		`SELECT status FROM leads WHERE id = $1`, leadID).Scan(&current); err != nil {
		log.Printf("[SendWorker] Lead %s status read failed: %v", leadID, err)
		return
	}
	next, ok := outreach.Transition(current, event)
	if !ok || next == current {
		return
	}
	if _, err := p.db.ExecContext(p.ctx, `
		UPDATE leads SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		next, leadID, current); err != nil {
		log.Printf("[SendWorker] Lead %s transition %s -> %s failed: %v", leadID, current, next, err)
	}
}

func (p *SendWorkerPool) handleSendError(job queue.Job, email *sentEmail, sendErr error) {
	if IsAuthError(sendErr.Error()) {
		log.Printf("[SendWorker] Auth failure on inbox %s: %v", email.InboxID, sendErr)
		p.disableInboxForAuth(email.InboxID, sendErr.Error())
		p.markFailed(email.ID, "inbox auth failure: "+sendErr.Error())
		atomic.AddInt64(&p.totalFailed, 1)
		return
	}
	p.retry(job, sendErr)
}

// disableInboxForAuth marks the inbox unusable and pauses its warmup so no
// traffic keeps hitting a dead credential. The status_reason carries the
// "disconnected" marker a reconnect flow looks for.
func (p *SendWorkerPool) disableInboxForAuth(inboxID uuid.UUID, errText string) {
	reason := "disconnected: " + errText
	if _, err := p.db.ExecContext(p.ctx, `
		UPDATE inboxes
		SET status = $1, status_reason = $2, updated_at = NOW()
		WHERE id = $3`,
		outreach.InboxError, reason, inboxID); err != nil {
		log.Printf("[SendWorker] Inbox %s error-state update failed: %v", inboxID, err)
	}
	if _, err := p.db.ExecContext(p.ctx, `
		UPDATE warmup_states
		SET enabled = FALSE, phase = $1, updated_at = NOW()
		WHERE inbox_id = $2`,
		outreach.WarmupPaused, inboxID); err != nil {
		log.Printf("[SendWorker] Warmup pause failed for inbox %s: %v", inboxID, err)
	}
	p.counters.RecordInboxEvent(p.ctx, inboxID, "auth_error", reason)
}

func (p *SendWorkerPool) markFailed(emailID uuid.UUID, reason string) {
	if _, err := p.db.ExecContext(p.ctx, `
		UPDATE emails
		SET status = $1, bounce_reason = $2, updated_at = NOW()
		WHERE id = $3`,
		outreach.EmailFailed, reason, emailID); err != nil {
		log.Printf("[SendWorker] Email %s failure update failed: %v", emailID, err)
	}
}

// retry re-queues with exponential backoff; the email row goes back to
// queued so a later attempt can claim it. Dead-lettered jobs mark the email
// failed.
func (p *SendWorkerPool) retry(job queue.Job, cause error) {
	backoff := time.Duration(1<<uint(job.Attempts)) * time.Minute
	retried, err := p.q.Retry(p.ctx, job, backoff)
	if err != nil {
		log.Printf("[SendWorker] Retry of job %s failed: %v (cause: %v)", job.ID, err, cause)
		return
	}

	var payload queue.EmailSendJob
	json.Unmarshal(job.Payload, &payload)
	emailID, parseErr := uuid.Parse(payload.EmailID)

	if !retried {
		atomic.AddInt64(&p.totalFailed, 1)
		log.Printf("[SendWorker] Job %s dead-lettered after %d attempts: %v", job.ID, job.Attempts+1, cause)
		if parseErr == nil {
			p.markFailed(emailID, "max send attempts exceeded: "+cause.Error())
		}
		return
	}

	atomic.AddInt64(&p.totalRetried, 1)
	if parseErr == nil {
		if _, err := p.db.ExecContext(p.ctx, `
			UPDATE emails SET status = $1, updated_at = NOW()
			WHERE id = $2 AND status = $3`,
			outreach.EmailQueued, emailID, outreach.EmailSending); err != nil {
			log.Printf("[SendWorker] Email %s requeue update failed: %v", emailID, err)
		}
	}
}
