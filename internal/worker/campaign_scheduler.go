package worker

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/driftmail/outreach/internal/outreach"
	"github.com/driftmail/outreach/internal/pkg/distlock"
	"github.com/driftmail/outreach/internal/queue"
	"github.com/driftmail/outreach/internal/suppression"
)

const (
	// DefaultSchedulerTick is the scheduler cadence. The first tick runs
	// immediately on startup.
	DefaultSchedulerTick = 5 * time.Minute

	// MaxEmailsPerRun caps how many emails one campaign may enqueue in a
	// single tick.
	MaxEmailsPerRun = 100

	schedulerLockTTL = 4 * time.Minute
)

// CampaignScheduler walks active campaigns on a timer, assembles due leads
// per sequence step, and enqueues send jobs with humanlike jitter. One
// process at a time holds the scheduler lock; the others skip the tick.
type CampaignScheduler struct {
	db          *sql.DB
	redisClient *redis.Client
	q           *queue.Queue
	suppress    *suppression.Store
	engine      *outreach.TemplateEngine
	rng         *rand.Rand
	reg         *registry

	workerID string
	tick     time.Duration

	// rotation holds the per-campaign round-robin counter. Process-local:
	// cross-process skew only affects inbox balance, not correctness.
	rotation map[uuid.UUID]int

	campaignsProcessed int64
	emailsQueued       int64
	leadsCompleted     int64
	errorCount         int64

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.RWMutex
}

// NewCampaignScheduler creates a scheduler. The Redis client is optional;
// without it the scheduler lock falls back to a PG advisory lock.
func NewCampaignScheduler(db *sql.DB, q *queue.Queue, suppress *suppression.Store) *CampaignScheduler {
	cs := &CampaignScheduler{
		db:       db,
		q:        q,
		suppress: suppress,
		engine:   outreach.NewTemplateEngine(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		workerID: workerInstanceID("scheduler"),
		tick:     DefaultSchedulerTick,
		rotation: make(map[uuid.UUID]int),
	}
	if q != nil {
		cs.redisClient = q.Client()
	}
	cs.reg = newRegistry(db, cs.workerID, "campaign_scheduler")
	return cs
}

// SetTickInterval overrides the scheduler cadence (tests).
func (cs *CampaignScheduler) SetTickInterval(d time.Duration) { cs.tick = d }

// Start launches the scheduling loop.
func (cs *CampaignScheduler) Start() error {
	cs.mu.Lock()
	if cs.running {
		cs.mu.Unlock()
		return fmt.Errorf("campaign scheduler already running")
	}
	cs.running = true
	cs.ctx, cs.cancel = context.WithCancel(context.Background())
	cs.mu.Unlock()

	log.Printf("[CampaignScheduler] Starting with tick interval %v", cs.tick)
	cs.reg.register()

	cs.wg.Add(1)
	go cs.heartbeatLoop()

	cs.wg.Add(1)
	go cs.schedulerLoop()
	return nil
}

// Stop shuts the scheduler down and waits for the in-flight tick.
func (cs *CampaignScheduler) Stop() {
	cs.mu.Lock()
	if !cs.running {
		cs.mu.Unlock()
		return
	}
	cs.running = false
	cs.cancel()
	cs.mu.Unlock()

	cs.wg.Wait()
	cs.reg.deregister()
	log.Printf("[CampaignScheduler] Stopped. Campaigns processed: %d, emails queued: %d, errors: %d",
		atomic.LoadInt64(&cs.campaignsProcessed), atomic.LoadInt64(&cs.emailsQueued), atomic.LoadInt64(&cs.errorCount))
}

// Stats returns current counters.
func (cs *CampaignScheduler) Stats() map[string]int64 {
	return map[string]int64{
		"campaigns_processed": atomic.LoadInt64(&cs.campaignsProcessed),
		"emails_queued":       atomic.LoadInt64(&cs.emailsQueued),
		"leads_completed":     atomic.LoadInt64(&cs.leadsCompleted),
		"errors":              atomic.LoadInt64(&cs.errorCount),
	}
}

func (cs *CampaignScheduler) heartbeatLoop() {
	defer cs.wg.Done()
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-cs.ctx.Done():
			return
		case <-ticker.C:
			cs.reg.heartbeat(cs.Stats())
		}
	}
}

func (cs *CampaignScheduler) schedulerLoop() {
	defer cs.wg.Done()

	// Immediate first tick so a restart does not wait a full interval.
	cs.runTick()

	ticker := time.NewTicker(cs.tick)
	defer ticker.Stop()
	for {
		select {
		case <-cs.ctx.Done():
			return
		case <-ticker.C:
			cs.runTick()
		}
	}
}

// runTick processes every active campaign under the scheduler lock. Errors
// are isolated per campaign.
func (cs *CampaignScheduler) runTick() {
	lock := distlock.New(cs.redisClient, cs.db, "campaign-scheduler", schedulerLockTTL)
	acquired, err := lock.Acquire(cs.ctx)
	if err != nil {
		log.Printf("[CampaignScheduler] Lock error: %v", err)
		return
	}
	if !acquired {
		return
	}
	defer lock.Release(cs.ctx)

	campaigns, err := cs.loadActiveCampaigns()
	if err != nil {
		atomic.AddInt64(&cs.errorCount, 1)
		log.Printf("[CampaignScheduler] Failed to load campaigns: %v", err)
		return
	}

	for i := range campaigns {
		if cs.ctx.Err() != nil {
			return
		}
		if err := cs.processCampaign(&campaigns[i]); err != nil {
			atomic.AddInt64(&cs.errorCount, 1)
			log.Printf("[CampaignScheduler] Campaign %s failed: %v", campaigns[i].ID, err)
			continue
		}
		atomic.AddInt64(&cs.campaignsProcessed, 1)
	}
}

func (cs *CampaignScheduler) loadActiveCampaigns() ([]outreach.Campaign, error) {
	rows, err := cs.db.QueryContext(cs.ctx, `
		SELECT id, team_id, name, status, lead_list_id, COALESCE(settings, '{}')
		FROM campaigns
		WHERE status = $1
		ORDER BY created_at`,
		outreach.CampaignActive)
	if err != nil {
		return nil, fmt.Errorf("query active campaigns: %w", err)
	}
	defer rows.Close()

	var out []outreach.Campaign
	for rows.Next() {
		var c outreach.Campaign
		var settings []byte
		if err := rows.Scan(&c.ID, &c.TeamID, &c.Name, &c.Status, &c.LeadListID, &settings); err != nil {
			return nil, err
		}
		c.Settings = outreach.ParseCampaignSettings(settings)
		out = append(out, c)
	}
	return out, rows.Err()
}

// inboxSlot tracks remaining capacity for one inbox within a tick.
type inboxSlot struct {
	inbox     outreach.Inbox
	remaining int
}

func (cs *CampaignScheduler) processCampaign(c *outreach.Campaign) error {
	if !outreach.InSendWindow(time.Now(), c.Settings) {
		return nil
	}

	slots, err := cs.eligibleInboxes(c.ID)
	if err != nil {
		return err
	}
	if len(slots) == 0 {
		return cs.completionSweep(c)
	}

	steps, err := cs.loadSteps(c.ID)
	if err != nil {
		return err
	}

	budget := MaxEmailsPerRun
	for _, step := range steps {
		if budget <= 0 {
			break
		}
		cond, explicit := cs.stepCondition(c, step.StepNumber)
		leads, err := cs.stepCandidates(c, step, cond, explicit, budget)
		if err != nil {
			log.Printf("[CampaignScheduler] Candidate query failed for campaign %s step %d: %v",
				c.ID, step.StepNumber, err)
			continue
		}

		// An explicit condition can route matching leads away from the
		// send path; stops and skips never consume send budget.
		if explicit {
			switch cond.Action {
			case "stop":
				cs.stopLeads(c, step, leads)
				continue
			case "skip_step":
				cs.skipLeads(c, step, leads, slots)
				continue
			}
		}

		batchIdx := 0
		for i := range leads {
			if budget <= 0 {
				break
			}
			queued, err := cs.scheduleLead(c, step, &leads[i], slots, batchIdx)
			if err != nil {
				log.Printf("[CampaignScheduler] Lead %s step %d skipped: %v",
					leads[i].ID, step.StepNumber, err)
				continue
			}
			if queued {
				budget--
				batchIdx++
				atomic.AddInt64(&cs.emailsQueued, 1)
			}
		}
	}

	return cs.completionSweep(c)
}

// eligibleInboxes loads the campaign's sendable inboxes and their remaining
// daily capacity, which is decremented in memory as leads are assigned.
func (cs *CampaignScheduler) eligibleInboxes(campaignID uuid.UUID) ([]*inboxSlot, error) {
	rows, err := cs.db.QueryContext(cs.ctx, `
		SELECT i.id, i.team_id, i.provider, i.email, i.from_name,
		       i.sender_first_name, i.sender_last_name, i.sender_company,
		       i.sender_title, i.sender_phone, i.sender_website,
		       i.status, i.health_score, i.daily_send_limit, i.sent_today,
		       COALESCE(i.throttle_percentage, 100)
		FROM inboxes i
		JOIN campaign_inboxes ci ON ci.inbox_id = i.id
		WHERE ci.campaign_id = $1
		  AND i.status = ANY($2)
		  AND i.health_score >= $3
		ORDER BY i.email`,
		campaignID,
		pq.Array([]string{outreach.InboxActive, outreach.InboxWarmingUp}),
		outreach.MinInboxHealthScore)
	if err != nil {
		return nil, fmt.Errorf("query campaign inboxes: %w", err)
	}
	defer rows.Close()

	var slots []*inboxSlot
	for rows.Next() {
		var ib outreach.Inbox
		if err := rows.Scan(&ib.ID, &ib.TeamID, &ib.Provider, &ib.Email, &ib.FromName,
			&ib.SenderFirstName, &ib.SenderLastName, &ib.SenderCompany,
			&ib.SenderTitle, &ib.SenderPhone, &ib.SenderWebsite,
			&ib.Status, &ib.HealthScore, &ib.DailySendLimit, &ib.SentToday,
			&ib.ThrottlePercentage); err != nil {
			return nil, err
		}
		remaining := ib.EffectiveDailyLimit() - ib.SentToday
		if remaining <= 0 {
			continue
		}
		slots = append(slots, &inboxSlot{inbox: ib, remaining: remaining})
	}
	return slots, rows.Err()
}

func (cs *CampaignScheduler) loadSteps(campaignID uuid.UUID) ([]outreach.SequenceStep, error) {
	rows, err := cs.db.QueryContext(cs.ctx, `
		SELECT id, campaign_id, step_number, delay_days, delay_hours, subject, body_html
		FROM sequence_steps
		WHERE campaign_id = $1
		ORDER BY step_number`,
		campaignID)
	if err != nil {
		return nil, fmt.Errorf("query sequence steps: %w", err)
	}
	defer rows.Close()

	var steps []outreach.SequenceStep
	for rows.Next() {
		var s outreach.SequenceStep
		if err := rows.Scan(&s.ID, &s.CampaignID, &s.StepNumber, &s.DelayDays,
			&s.DelayHours, &s.Subject, &s.BodyHTML); err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

const leadColumns = `l.id, l.team_id, l.list_id, l.email, l.first_name, l.last_name,
	l.company, l.title, l.phone, l.linkedin_url, l.website, l.country, l.city,
	l.timezone, COALESCE(l.custom_fields, '{}'), l.status`

// stepCondition resolves the effective sequence condition for a step.
// Explicit conditions come from settings; the implicit default for step
// N>1 is {no_reply, continue} with the reply gate deferred to the
// stop_on_reply flag.
func (cs *CampaignScheduler) stepCondition(c *outreach.Campaign, stepNumber int) (outreach.SequenceCondition, bool) {
	if stepNumber > 1 {
		if cond, ok := c.Settings.SequenceConditions[strconv.Itoa(stepNumber)]; ok && cond.Type != "" {
			return cond, true
		}
	}
	return outreach.SequenceCondition{Type: "no_reply", Action: "continue"}, false
}

// stepCandidates assembles due leads for one step. Step 1 takes pending
// leads from the campaign's list; step N takes leads whose step N-1 email
// succeeded (or was skipped), whose delay elapsed, whose status does not
// block the sequence, and who match the step's sequence condition.
func (cs *CampaignScheduler) stepCandidates(c *outreach.Campaign, step outreach.SequenceStep, cond outreach.SequenceCondition, explicit bool, limit int) ([]outreach.Lead, error) {
	var rows *sql.Rows
	var err error

	if step.StepNumber == 1 {
		if !c.LeadListID.Valid {
			return nil, nil
		}
		rows, err = cs.db.QueryContext(cs.ctx, `
			SELECT `+leadColumns+`
			FROM leads l
			WHERE l.list_id = $1
			  AND l.status = $2
			  AND NOT EXISTS (
				SELECT 1 FROM emails e
				WHERE e.campaign_id = $3 AND e.lead_id = l.id AND e.step_number = 1
			  )
			ORDER BY l.created_at
			LIMIT $4`,
			c.LeadListID.String, outreach.LeadPending, c.ID, limit)
	} else {
		// The delay counts from the previous step's sent_at. A bounced
		// previous step never advances by default; only an explicit
		// bounced condition targets those leads.
		prevStatuses := []string{outreach.EmailSent, outreach.EmailDelivered,
			outreach.EmailOpened, outreach.EmailClicked, outreach.EmailSkipped}
		engagement := ""
		requireNoReply := c.Settings.StopOnReplyEnabled()
		requireReply := false
		if explicit {
			switch cond.Type {
			case "no_open":
				engagement = "AND prev.opened_at IS NULL"
			case "opened":
				engagement = "AND prev.opened_at IS NOT NULL"
			case "no_click":
				engagement = "AND prev.clicked_at IS NULL"
			case "clicked":
				engagement = "AND prev.clicked_at IS NOT NULL"
			case "bounced":
				prevStatuses = []string{outreach.EmailBounced}
			case "no_reply":
				requireNoReply = true
			case "replied":
				// Only useful with stop_on_reply=false; otherwise the
				// reply already parked the lead in a blocking status.
				requireNoReply = false
				requireReply = true
			}
		}

		delayHours := step.DelayDays*24 + step.DelayHours
		rows, err = cs.db.QueryContext(cs.ctx, `
			SELECT `+leadColumns+`
			FROM leads l
			JOIN emails prev ON prev.lead_id = l.id
			  AND prev.campaign_id = $1
			  AND prev.step_number = $2
			WHERE prev.status = ANY($3)
			  AND prev.sent_at IS NOT NULL
			  AND prev.sent_at <= NOW() - ($4 * INTERVAL '1 hour')
			  `+engagement+`
			  AND l.status <> ALL($5)
			  AND NOT EXISTS (
				SELECT 1 FROM emails cur
				WHERE cur.campaign_id = $1 AND cur.lead_id = l.id AND cur.step_number = $6
			  )
			  AND ($7 = FALSE OR NOT EXISTS (
				SELECT 1 FROM replies r
				JOIN emails re ON re.id = r.email_id
				WHERE re.campaign_id = $1 AND re.lead_id = l.id
			  ))
			  AND ($8 = FALSE OR EXISTS (
				SELECT 1 FROM replies r
				JOIN emails re ON re.id = r.email_id
				WHERE re.campaign_id = $1 AND re.lead_id = l.id
			  ))
			ORDER BY prev.sent_at
			LIMIT $9`,
			c.ID, step.StepNumber-1,
			pq.Array(prevStatuses),
			delayHours,
			pq.Array(outreach.BlockingStatuses()),
			step.StepNumber,
			requireNoReply,
			requireReply,
			limit)
	}
	if err != nil {
		return nil, fmt.Errorf("candidate query: %w", err)
	}
	defer rows.Close()

	var leads []outreach.Lead
	for rows.Next() {
		var l outreach.Lead
		var customFields []byte
		if err := rows.Scan(&l.ID, &l.TeamID, &l.ListID, &l.Email, &l.FirstName,
			&l.LastName, &l.Company, &l.Title, &l.Phone, &l.LinkedinURL,
			&l.Website, &l.Country, &l.City, &l.Timezone, &customFields, &l.Status); err != nil {
			return nil, err
		}
		l.CustomFields = outreach.ParseCustomFields(customFields)
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

// stopLeads ends the sequence for leads matched by a stop condition. Only
// in-flight statuses move; the transition makes the leads invisible to
// every later candidate query.
func (cs *CampaignScheduler) stopLeads(c *outreach.Campaign, step outreach.SequenceStep, leads []outreach.Lead) {
	stopped := int64(0)
	for i := range leads {
		res, err := cs.db.ExecContext(cs.ctx, `
			UPDATE leads SET status = $1, updated_at = NOW()
			WHERE id = $2 AND status = ANY($3)`,
			outreach.LeadSequenceComplete, leads[i].ID,
			pq.Array([]string{string(outreach.LeadInSequence), string(outreach.LeadContacted)}))
		if err != nil {
			log.Printf("[CampaignScheduler] Stop condition update failed for lead %s: %v", leads[i].ID, err)
			continue
		}
		if n, _ := res.RowsAffected(); n > 0 {
			stopped += n
		}
	}
	if stopped > 0 {
		atomic.AddInt64(&cs.leadsCompleted, stopped)
		log.Printf("[CampaignScheduler] Campaign %s step %d: stopped %d leads on condition",
			c.ID, step.StepNumber, stopped)
	}
}

// skipLeads records a skipped marker row for leads matched by a skip_step
// condition, so the next step's candidate query can advance them. The
// marker's sent_at anchors the next step's delay at the skip decision.
func (cs *CampaignScheduler) skipLeads(c *outreach.Campaign, step outreach.SequenceStep, leads []outreach.Lead, slots []*inboxSlot) {
	if len(leads) == 0 || len(slots) == 0 {
		return
	}
	inbox := slots[0].inbox
	skipped := 0
	for i := range leads {
		if _, err := cs.db.ExecContext(cs.ctx, `
			INSERT INTO emails (
				id, team_id, campaign_id, step_id, step_number, lead_id, inbox_id,
				from_email, to_email, status, sent_at, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW(), NOW())
			ON CONFLICT (campaign_id, lead_id, step_number) DO NOTHING`,
			uuid.New(), c.TeamID, c.ID, step.ID, step.StepNumber, leads[i].ID, inbox.ID,
			inbox.Email, leads[i].Email, outreach.EmailSkipped); err != nil {
			log.Printf("[CampaignScheduler] Skip marker failed for lead %s step %d: %v",
				leads[i].ID, step.StepNumber, err)
			continue
		}
		skipped++
	}
	if skipped > 0 {
		log.Printf("[CampaignScheduler] Campaign %s step %d: skipped for %d leads on condition",
			c.ID, step.StepNumber, skipped)
	}
}

// pickInbox advances the campaign's round-robin cursor over slots that still
// have capacity. Returns nil when every inbox is exhausted.
func (cs *CampaignScheduler) pickInbox(campaignID uuid.UUID, slots []*inboxSlot) *inboxSlot {
	var available []*inboxSlot
	for _, s := range slots {
		if s.remaining > 0 {
			available = append(available, s)
		}
	}
	if len(available) == 0 {
		return nil
	}
	idx := cs.rotation[campaignID] % len(available)
	cs.rotation[campaignID]++
	return available[idx]
}

// scheduleLead inserts one queued email and enqueues its send job. Returns
// queued=false for benign skips (suppressed, duplicate, no capacity).
func (cs *CampaignScheduler) scheduleLead(c *outreach.Campaign, step outreach.SequenceStep, lead *outreach.Lead, slots []*inboxSlot, batchIdx int) (bool, error) {
	slot := cs.pickInbox(c.ID, slots)
	if slot == nil {
		return false, nil
	}

	suppressed, err := cs.suppress.IsSuppressed(cs.ctx, c.TeamID, lead.Email)
	if err != nil {
		return false, fmt.Errorf("suppression check: %w", err)
	}
	if suppressed {
		return false, nil
	}

	var exists bool
	err = cs.db.QueryRowContext(cs.ctx, `
		SELECT EXISTS (
			SELECT 1 FROM emails
			WHERE campaign_id = $1 AND lead_id = $2 AND step_number = $3
		)`, c.ID, lead.ID, step.StepNumber).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("duplicate check: %w", err)
	}
	if exists {
		return false, nil
	}

	subjectTpl, bodyTpl := step.Subject, step.BodyHTML
	var variantID sql.NullString
	variants, err := cs.loadVariants(step.ID)
	if err != nil {
		return false, err
	}
	if len(variants) > 0 {
		v := outreach.SelectVariant(variants, cs.rng)
		variantID = sql.NullString{String: v.ID.String(), Valid: true}
		subjectTpl, bodyTpl = v.Subject, v.Body
	}

	vars := outreach.BuildVariables(lead, &slot.inbox)
	subject := cs.engine.Render(subjectTpl, vars)
	body := cs.engine.Render(bodyTpl, vars)

	var thread threadInfo
	if step.StepNumber > 1 {
		thread, err = cs.threadInfo(c.ID, lead.ID, step.StepNumber)
		if err != nil {
			return false, err
		}
		if thread.baseSubject != "" {
			subject = outreach.ReplySubject(thread.baseSubject)
		}
	}

	emailID := uuid.New()
	_, err = cs.db.ExecContext(cs.ctx, `
		INSERT INTO emails (
			id, team_id, campaign_id, step_id, step_number, lead_id, inbox_id,
			variant_id, from_email, to_email, subject, body_html, status,
			in_reply_to, references_header, thread_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())`,
		emailID, c.TeamID, c.ID, step.ID, step.StepNumber, lead.ID, slot.inbox.ID,
		variantID, slot.inbox.Email, lead.Email, subject, body, outreach.EmailQueued,
		thread.inReplyTo, thread.references, thread.threadID)
	if err != nil {
		return false, fmt.Errorf("insert email: %w", err)
	}

	// Jitter: i*U(30,120)s + U(0,30)s spreads the batch unevenly.
	delay := time.Duration(batchIdx)*(time.Duration(30+cs.rng.Intn(91))*time.Second) +
		time.Duration(cs.rng.Intn(31))*time.Second

	jobID := queue.DailyJobID(c.ID.String(), lead.ID.String(), step.StepNumber, time.Now().UTC())
	enqueued, err := cs.q.Enqueue(cs.ctx, queue.QueueEmailSend, jobID, queue.EmailSendJob{
		EmailID:      emailID.String(),
		LeadID:       lead.ID.String(),
		CampaignID:   c.ID.String(),
		InboxID:      slot.inbox.ID.String(),
		SequenceStep: step.StepNumber,
	}, delay)
	if err != nil {
		return false, fmt.Errorf("enqueue send: %w", err)
	}
	if !enqueued {
		// Another process already scheduled this (campaign, lead, step)
		// today. Keep the email row; the job that owns the ID will send it.
		return false, nil
	}

	slot.remaining--
	return true, nil
}

func (cs *CampaignScheduler) loadVariants(stepID uuid.UUID) ([]outreach.SequenceVariant, error) {
	rows, err := cs.db.QueryContext(cs.ctx, `
		SELECT id, step_id, subject, body, weight, is_winner
		FROM sequence_variants
		WHERE step_id = $1
		ORDER BY created_at`,
		stepID)
	if err != nil {
		return nil, fmt.Errorf("query variants: %w", err)
	}
	defer rows.Close()

	var variants []outreach.SequenceVariant
	for rows.Next() {
		var v outreach.SequenceVariant
		if err := rows.Scan(&v.ID, &v.StepID, &v.Subject, &v.Body, &v.Weight, &v.IsWinner); err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

type threadInfo struct {
	threadID    sql.NullString
	inReplyTo   sql.NullString
	references  sql.NullString
	baseSubject string
}

// threadInfo collects the reply-threading headers for step > 1: thread_id
// and base subject from step 1, in_reply_to from the immediately preceding
// step, references from every prior message_id in order.
func (cs *CampaignScheduler) threadInfo(campaignID, leadID uuid.UUID, stepNumber int) (threadInfo, error) {
	var info threadInfo
	rows, err := cs.db.QueryContext(cs.ctx, `
		SELECT step_number, subject, message_id, thread_id
		FROM emails
		WHERE campaign_id = $1 AND lead_id = $2 AND step_number < $3
		ORDER BY step_number`,
		campaignID, leadID, stepNumber)
	if err != nil {
		return info, fmt.Errorf("query thread history: %w", err)
	}
	defer rows.Close()

	var messageIDs []string
	for rows.Next() {
		var num int
		var subject string
		var messageID, threadID sql.NullString
		if err := rows.Scan(&num, &subject, &messageID, &threadID); err != nil {
			return info, err
		}
		if num == 1 {
			info.baseSubject = subject
			info.threadID = threadID
		}
		if messageID.Valid && messageID.String != "" {
			messageIDs = append(messageIDs, messageID.String)
			if num == stepNumber-1 {
				info.inReplyTo = messageID
			}
		}
	}
	if err := rows.Err(); err != nil {
		return info, err
	}
	if refs := outreach.JoinReferences(messageIDs); refs != "" {
		info.references = sql.NullString{String: refs, Valid: true}
	}
	return info, nil
}

// completionSweep moves leads whose final step succeeded to
// sequence_complete.
func (cs *CampaignScheduler) completionSweep(c *outreach.Campaign) error {
	res, err := cs.db.ExecContext(cs.ctx, `
		UPDATE leads l
		SET status = $1, updated_at = NOW()
		FROM emails e
		WHERE e.lead_id = l.id
		  AND e.campaign_id = $2
		  AND e.step_number = (
			SELECT MAX(step_number) FROM sequence_steps WHERE campaign_id = $2
		  )
		  AND e.status = ANY($3)
		  AND l.status = ANY($4)`,
		outreach.LeadSequenceComplete, c.ID,
		pq.Array([]string{outreach.EmailSent, outreach.EmailDelivered, outreach.EmailOpened, outreach.EmailClicked, outreach.EmailSkipped}),
		pq.Array([]string{string(outreach.LeadInSequence), string(outreach.LeadContacted)}))
	if err != nil {
		return fmt.Errorf("completion sweep: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		atomic.AddInt64(&cs.leadsCompleted, n)
		log.Printf("[CampaignScheduler] Campaign %s: %d leads completed sequence", c.ID, n)
	}
	return nil
}
