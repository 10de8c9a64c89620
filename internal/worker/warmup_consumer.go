package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/driftmail/outreach/internal/outreach"
	"github.com/driftmail/outreach/internal/queue"
)

const (
	warmupBatchSize = 10
	warmupIdleWait  = 3 * time.Second

	// syntheticOpenRate is how often a warmup recipient registers an open.
	// Opens only feed counters; no per-rate guarantee is made.
	syntheticOpenRate = 0.7
)

// WarmupConsumer delivers the warmup messages the engine scheduled and
// plays the counterparty: replies with roughly the configured probability,
// continues threads up to their depth, and closes them.
type WarmupConsumer struct {
	db        *sql.DB
	q         *queue.Queue
	transport Transport
	engine    *outreach.TemplateEngine
	rng       *rand.Rand
	workerID  string
	reg       *registry

	// template rotation state per message type.
	cursorMu sync.Mutex
	cursors  map[string]*templateRotation

	sent       int64
	replies    int64
	threads    int64
	errorCount int64

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.RWMutex
}

// templateRotation walks a shuffled template order, reshuffling when the
// pool is exhausted so consecutive sends never reuse a template early.
type templateRotation struct {
	order []int
	pos   int
}

// NewWarmupConsumer creates a consumer. The transport sends pool-mode
// messages; network-mode counterparties are simulated in-process.
func NewWarmupConsumer(db *sql.DB, q *queue.Queue, transport Transport) *WarmupConsumer {
	wc := &WarmupConsumer{
		db:        db,
		q:         q,
		transport: transport,
		engine:    outreach.NewTemplateEngine(),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		workerID:  workerInstanceID("warmup-consumer"),
		cursors:   make(map[string]*templateRotation),
	}
	wc.reg = newRegistry(db, wc.workerID, "warmup_consumer")
	return wc
}

// Start launches the consumer loop.
func (wc *WarmupConsumer) Start() error {
	wc.mu.Lock()
	if wc.running {
		wc.mu.Unlock()
		return fmt.Errorf("warmup consumer already running")
	}
	wc.running = true
	wc.ctx, wc.cancel = context.WithCancel(context.Background())
	wc.mu.Unlock()

	log.Printf("[WarmupConsumer] Starting")
	wc.reg.register()

	wc.wg.Add(1)
	go wc.loop()
	return nil
}

// Stop drains the consumer.
func (wc *WarmupConsumer) Stop() {
	wc.mu.Lock()
	if !wc.running {
		wc.mu.Unlock()
		return
	}
	wc.running = false
	wc.cancel()
	wc.mu.Unlock()

	wc.wg.Wait()
	wc.reg.deregister()
	log.Printf("[WarmupConsumer] Stopped. Sent: %d, replies: %d", atomic.LoadInt64(&wc.sent), atomic.LoadInt64(&wc.replies))
}

// Stats returns current counters.
func (wc *WarmupConsumer) Stats() map[string]int64 {
	return map[string]int64{
		"sent":    atomic.LoadInt64(&wc.sent),
		"replies": atomic.LoadInt64(&wc.replies),
		"threads": atomic.LoadInt64(&wc.threads),
		"errors":  atomic.LoadInt64(&wc.errorCount),
	}
}

func (wc *WarmupConsumer) loop() {
	defer wc.wg.Done()
	for {
		select {
		case <-wc.ctx.Done():
			return
		default:
		}

		jobs, err := wc.q.Dequeue(wc.ctx, queue.QueueWarmupSend, warmupBatchSize)
		if err != nil {
			log.Printf("[WarmupConsumer] Dequeue error: %v", err)
			wc.sleep(warmupIdleWait)
			continue
		}
		if len(jobs) == 0 {
			wc.sleep(warmupIdleWait)
			continue
		}

		for _, job := range jobs {
			if wc.ctx.Err() != nil {
				return
			}
			if err := wc.processJob(job); err != nil {
				atomic.AddInt64(&wc.errorCount, 1)
				log.Printf("[WarmupConsumer] Job %s failed: %v", job.ID, err)
			}
		}
	}
}

func (wc *WarmupConsumer) sleep(d time.Duration) {
	select {
	case <-wc.ctx.Done():
	case <-time.After(d):
	}
}

// warmupParty is one side of a warmup exchange: a team inbox or a platform
// partner mailbox.
type warmupParty struct {
	id        string
	email     string
	firstName string
	partner   bool
}

func (wc *WarmupConsumer) processJob(job queue.Job) error {
	var w queue.WarmupSendJob
	if err := json.Unmarshal(job.Payload, &w); err != nil {
		return fmt.Errorf("malformed warmup job: %w", err)
	}

	defer wc.q.DecrWarmupPending(wc.ctx, w.FromInboxID)

	from, err := wc.loadSender(w.FromInboxID, w.IsNetworkWarmup && w.TemplateType != outreach.WarmupTypeMain)
	if err != nil {
		return err
	}
	if from == nil {
		// Warmup disabled or inbox unusable between enqueue and dispatch.
		return nil
	}

	to, err := wc.loadRecipient(&w)
	if err != nil {
		return err
	}
	if to == nil {
		return nil
	}

	tpl := wc.nextTemplate(w.TemplateType)
	if tpl == nil {
		return fmt.Errorf("no templates for type %s", w.TemplateType)
	}

	vars := map[string]string{
		"firstName":         to.firstName,
		"first_name":        to.firstName,
		"senderFirstName":   from.firstName,
		"sender_first_name": from.firstName,
	}
	body := wc.engine.Render(tpl.Body, vars)

	var subject string
	if w.TemplateType == outreach.WarmupTypeMain {
		subject = wc.engine.Render(tpl.Subject, vars)
	} else {
		subject = outreach.ReplySubject(w.ThreadSubject)
	}

	// Partner mailboxes are platform-simulated; only real inboxes go
	// through the transport.
	if !from.partner {
		msg := &OutboundMessage{
			EmailID:   uuid.New().String(),
			InboxID:   from.id,
			FromName:  from.firstName,
			FromEmail: from.email,
			ToEmail:   to.email,
			Subject:   subject,
			BodyHTML:  body,
			Headers:   map[string]string{"X-Warmup": "1"},
		}
		if w.ThreadID != "" {
			msg.Headers["In-Reply-To"] = w.ThreadID
			msg.Headers["References"] = w.ThreadID
		}
		if _, err := wc.transport.Send(wc.ctx, msg); err != nil {
			return fmt.Errorf("warmup send: %w", err)
		}
	}

	wc.recordSend(from, to, w.TemplateType)
	atomic.AddInt64(&wc.sent, 1)

	if _, err := wc.q.MarkWarmupPair(wc.ctx, from.id, to.id, w.TemplateType); err != nil {
		log.Printf("[WarmupConsumer] Dedup mark failed for %s -> %s: %v", from.id, to.id, err)
	}

	wc.scheduleFollowUp(&w, subject)
	return nil
}

// loadSender fetches the sending side. For partner senders (replies coming
// back from the network) partnerSide is true and the partner table is used.
func (wc *WarmupConsumer) loadSender(id string, partnerSide bool) (*warmupParty, error) {
	if partnerSide {
		return wc.loadPartner(id)
	}

	inboxID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid inbox ID %q: %w", id, err)
	}
	var p warmupParty
	var enabled bool
	var status string
	err = wc.db.QueryRowContext(wc.ctx, `
		SELECT i.id, i.email, COALESCE(i.sender_first_name, ''), i.status, w.enabled
		FROM inboxes i
		JOIN warmup_states w ON w.inbox_id = i.id
		WHERE i.id = $1`, inboxID).Scan(
		&p.id, &p.email, &p.firstName, &status, &enabled)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load warmup sender: %w", err)
	}
	if !enabled || status == outreach.InboxError || status == outreach.InboxBanned {
		return nil, nil
	}
	return &p, nil
}

func (wc *WarmupConsumer) loadRecipient(w *queue.WarmupSendJob) (*warmupParty, error) {
	if w.IsNetworkWarmup && w.TemplateType == outreach.WarmupTypeMain {
		return wc.loadPartner(w.ToInboxID)
	}
	// Pool recipient, or a network thread coming back to the real inbox.
	inboxID, err := uuid.Parse(w.ToInboxID)
	if err != nil {
		if w.IsNetworkWarmup {
			return wc.loadPartner(w.ToInboxID)
		}
		return nil, fmt.Errorf("invalid recipient ID %q: %w", w.ToInboxID, err)
	}
	var p warmupParty
	err = wc.db.QueryRowContext(wc.ctx, `
		SELECT id, email, COALESCE(sender_first_name, '')
		FROM inboxes WHERE id = $1`, inboxID).Scan(&p.id, &p.email, &p.firstName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load warmup recipient: %w", err)
	}
	return &p, nil
}

func (wc *WarmupConsumer) loadPartner(id string) (*warmupParty, error) {
	var p warmupParty
	err := wc.db.QueryRowContext(wc.ctx, `
		SELECT id, email, COALESCE(first_name, '')
		FROM warmup_partners WHERE id = $1 AND active = TRUE`, id).Scan(
		&p.id, &p.email, &p.firstName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load warmup partner: %w", err)
	}
	p.partner = true
	return &p, nil
}

// nextTemplate rotates through a shuffled order of the type's template
// pool, reshuffling on wraparound.
func (wc *WarmupConsumer) nextTemplate(msgType string) *WarmupTemplate {
	pool := WarmupTemplatePool(msgType)
	if len(pool) == 0 {
		return nil
	}

	wc.cursorMu.Lock()
	defer wc.cursorMu.Unlock()

	rot, ok := wc.cursors[msgType]
	if !ok || rot.pos >= len(rot.order) {
		order := make([]int, len(pool))
		for i := range order {
			order[i] = i
		}
		for i := len(order) - 1; i > 0; i-- {
			j := wc.rng.Intn(i + 1)
			order[i], order[j] = order[j], order[i]
		}
		rot = &templateRotation{order: order}
		wc.cursors[msgType] = rot
	}
	idx := rot.order[rot.pos]
	rot.pos++
	return &pool[idx]
}

// recordSend settles counters for one delivered warmup message. Warmup
// sends count against both the warmup quota and the inbox's daily cap; the
// two sent_today columns are distinct on purpose. A reply-type message
// additionally counts toward the sender's replied counters.
func (wc *WarmupConsumer) recordSend(from, to *warmupParty, msgType string) {
	if !from.partner {
		if _, err := wc.db.ExecContext(wc.ctx, `
			UPDATE warmup_states
			SET sent_today = sent_today + 1, sent_total = sent_total + 1,
			    last_activity_at = NOW(), updated_at = NOW()
			WHERE inbox_id = $1`, from.id); err != nil {
			log.Printf("[WarmupConsumer] Warmup sent counter failed for %s: %v", from.id, err)
		}
		if _, err := wc.db.ExecContext(wc.ctx, `
			UPDATE inboxes
			SET sent_today = sent_today + 1, sent_total = sent_total + 1,
			    last_sent_at = NOW(), updated_at = NOW()
			WHERE id = $1`, from.id); err != nil {
			log.Printf("[WarmupConsumer] Inbox sent counter failed for %s: %v", from.id, err)
		}
		if msgType == outreach.WarmupTypeReply {
			if _, err := wc.db.ExecContext(wc.ctx, `
				UPDATE warmup_states
				SET replied_today = replied_today + 1, replied_total = replied_total + 1,
				    updated_at = NOW()
				WHERE inbox_id = $1`, from.id); err != nil {
				log.Printf("[WarmupConsumer] Warmup replied counter failed for %s: %v", from.id, err)
			}
		}
	}

	if !to.partner {
		if _, err := wc.db.ExecContext(wc.ctx, `
			UPDATE warmup_states
			SET received_today = received_today + 1, received_total = received_total + 1,
			    last_activity_at = NOW(), updated_at = NOW()
			WHERE inbox_id = $1`, to.id); err != nil {
			log.Printf("[WarmupConsumer] Warmup received counter failed for %s: %v", to.id, err)
		}
	}

	// Synthetic open on the sender's message, counters only.
	if !from.partner && wc.rng.Float64() < syntheticOpenRate {
		if _, err := wc.db.ExecContext(wc.ctx, `
			UPDATE warmup_states
			SET opened_total = opened_total + 1, updated_at = NOW()
			WHERE inbox_id = $1`, from.id); err != nil {
			log.Printf("[WarmupConsumer] Warmup open counter failed for %s: %v", from.id, err)
		}
	}
}

// scheduleFollowUp plays the counterparty side: a probabilistic reply to
// the opening message, then continuations until the closer at max depth.
func (wc *WarmupConsumer) scheduleFollowUp(w *queue.WarmupSendJob, subject string) {
	threadSubject := w.ThreadSubject
	if threadSubject == "" {
		threadSubject = subject
	}

	var nextType string
	depth := w.ThreadDepth
	switch {
	case depth == 0:
		// Reply probability tracks the sender's configured target.
		target := wc.replyRateTarget(w.FromInboxID)
		if wc.rng.Float64()*100 >= float64(target) {
			return
		}
		nextType = outreach.WarmupTypeReply
	case depth >= w.MaxThreadDepth:
		return
	case depth == w.MaxThreadDepth-1:
		nextType = outreach.WarmupTypeCloser
	default:
		nextType = outreach.WarmupTypeContinuation
	}

	// Humanlike pause before the counterparty writes back.
	delay := 5*time.Minute + time.Duration(wc.rng.Int63n(int64(4*time.Hour)))

	next := queue.WarmupSendJob{
		FromInboxID:     w.ToInboxID,
		ToInboxID:       w.FromInboxID,
		TemplateType:    nextType,
		ThreadDepth:     depth + 1,
		MaxThreadDepth:  w.MaxThreadDepth,
		IsNetworkWarmup: w.IsNetworkWarmup,
		ThreadSubject:   threadSubject,
		ThreadID:        w.ThreadID,
	}
	if _, err := wc.q.Enqueue(wc.ctx, queue.QueueWarmupSend, "", next, delay); err != nil {
		log.Printf("[WarmupConsumer] Follow-up enqueue failed: %v", err)
		return
	}
	wc.q.IncrWarmupPending(wc.ctx, next.FromInboxID)
	if nextType == outreach.WarmupTypeReply {
		atomic.AddInt64(&wc.replies, 1)
	}
	if depth+1 >= w.MaxThreadDepth {
		atomic.AddInt64(&wc.threads, 1)
	}
}

func (wc *WarmupConsumer) replyRateTarget(inboxID string) int {
	id, err := uuid.Parse(inboxID)
	if err != nil {
		return 30
	}
	var target int
	if err := wc.db.QueryRowContext(wc.ctx,
		`SELECT reply_rate_target FROM warmup_states WHERE inbox_id = $1`, id).Scan(&target); err != nil {
		return 30
	}
	if target <= 0 {
		return 30
	}
	return target
}
