package worker

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/driftmail/outreach/internal/outreach"
	"github.com/driftmail/outreach/internal/pkg/distlock"
	"github.com/driftmail/outreach/internal/queue"
)

const (
	// DefaultWarmupTick is the warmup scheduling cadence.
	DefaultWarmupTick = 30 * time.Minute

	warmupLockTTL = 25 * time.Minute
)

// warmupMailbox is one enrolled mailbox with the fields scheduling needs.
type warmupMailbox struct {
	InboxID         uuid.UUID
	TeamID          uuid.UUID
	Email           string
	CurrentDay      int
	RampSpeed       outreach.RampSpeed
	ReplyRateTarget int
	WarmupMode      string
	SentToday       int
}

// WarmupEngine schedules synthetic conversations that build sender
// reputation. Pool mode pairs mailboxes within a team; network mode pairs
// them with platform counterparties.
type WarmupEngine struct {
	db          *sql.DB
	redisClient *redis.Client
	q           *queue.Queue
	rng         *rand.Rand
	workerID    string
	reg         *registry
	tick        time.Duration

	scheduled       int64
	mailboxes       int64
	disabledByDrift int64
	errorCount      int64

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.RWMutex
}

// NewWarmupEngine creates a warmup engine.
func NewWarmupEngine(db *sql.DB, q *queue.Queue) *WarmupEngine {
	we := &WarmupEngine{
		db:       db,
		q:        q,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		workerID: workerInstanceID("warmup"),
		tick:     DefaultWarmupTick,
	}
	if q != nil {
		we.redisClient = q.Client()
	}
	we.reg = newRegistry(db, we.workerID, "warmup_engine")
	return we
}

// SetTickInterval overrides the cadence (tests).
func (we *WarmupEngine) SetTickInterval(d time.Duration) { we.tick = d }

// Start launches the warmup loop.
func (we *WarmupEngine) Start() error {
	we.mu.Lock()
	if we.running {
		we.mu.Unlock()
		return fmt.Errorf("warmup engine already running")
	}
	we.running = true
	we.ctx, we.cancel = context.WithCancel(context.Background())
	we.mu.Unlock()

	log.Printf("[WarmupEngine] Starting with tick interval %v", we.tick)
	we.reg.register()

	we.wg.Add(1)
	go we.loop()
	return nil
}

// Stop shuts the engine down.
func (we *WarmupEngine) Stop() {
	we.mu.Lock()
	if !we.running {
		we.mu.Unlock()
		return
	}
	we.running = false
	we.cancel()
	we.mu.Unlock()

	we.wg.Wait()
	we.reg.deregister()
	log.Printf("[WarmupEngine] Stopped. Mailboxes: %d, messages scheduled: %d",
		atomic.LoadInt64(&we.mailboxes), atomic.LoadInt64(&we.scheduled))
}

// Stats returns current counters.
func (we *WarmupEngine) Stats() map[string]int64 {
	return map[string]int64{
		"mailboxes_processed": atomic.LoadInt64(&we.mailboxes),
		"messages_scheduled":  atomic.LoadInt64(&we.scheduled),
		"disabled_by_drift":   atomic.LoadInt64(&we.disabledByDrift),
		"errors":              atomic.LoadInt64(&we.errorCount),
	}
}

func (we *WarmupEngine) loop() {
	defer we.wg.Done()

	we.runTick()

	ticker := time.NewTicker(we.tick)
	defer ticker.Stop()
	for {
		select {
		case <-we.ctx.Done():
			return
		case <-ticker.C:
			we.runTick()
		}
	}
}

func (we *WarmupEngine) runTick() {
	lock := distlock.New(we.redisClient, we.db, "warmup-engine", warmupLockTTL)
	acquired, err := lock.Acquire(we.ctx)
	if err != nil {
		log.Printf("[WarmupEngine] Lock error: %v", err)
		return
	}
	if !acquired {
		return
	}
	defer lock.Release(we.ctx)

	if err := we.reconcile(); err != nil {
		atomic.AddInt64(&we.errorCount, 1)
		log.Printf("[WarmupEngine] Reconciliation failed: %v", err)
	}

	mailboxes, err := we.loadEnrolled()
	if err != nil {
		atomic.AddInt64(&we.errorCount, 1)
		log.Printf("[WarmupEngine] Failed to load enrolled mailboxes: %v", err)
		return
	}

	for i := range mailboxes {
		if we.ctx.Err() != nil {
			return
		}
		if err := we.scheduleMailbox(&mailboxes[i]); err != nil {
			atomic.AddInt64(&we.errorCount, 1)
			log.Printf("[WarmupEngine] Mailbox %s failed: %v", mailboxes[i].InboxID, err)
			continue
		}
		atomic.AddInt64(&we.mailboxes, 1)
	}
}

// reconcile repairs state drift before any scheduling:
// an errored inbox disables its warmup, pool warmup needs two or more
// mailboxes per team, and an enabled warmup keeps its inbox in warming_up.
func (we *WarmupEngine) reconcile() error {
	res, err := we.db.ExecContext(we.ctx, `
		UPDATE warmup_states w
		SET enabled = FALSE, phase = $1, updated_at = NOW()
		FROM inboxes i
		WHERE i.id = w.inbox_id AND w.enabled = TRUE AND i.status = $2`,
		outreach.WarmupPaused, outreach.InboxError)
	if err != nil {
		return fmt.Errorf("disable errored warmups: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		atomic.AddInt64(&we.disabledByDrift, n)
		log.Printf("[WarmupEngine] Disabled %d warmups on errored inboxes", n)
	}

	res, err = we.db.ExecContext(we.ctx, `
		UPDATE warmup_states w
		SET enabled = FALSE, phase = $1, updated_at = NOW()
		WHERE w.enabled = TRUE AND w.warmup_mode = $2
		  AND (
			SELECT COUNT(*) FROM warmup_states w2
			JOIN inboxes i2 ON i2.id = w2.inbox_id
			WHERE w2.team_id = w.team_id AND w2.enabled = TRUE
			  AND w2.warmup_mode = $2
			  AND i2.status <> ALL($3)
		  ) < 2`,
		outreach.WarmupPaused, outreach.WarmupModePool,
		pq.Array([]string{outreach.InboxError, outreach.InboxBanned}))
	if err != nil {
		return fmt.Errorf("pool size check: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		atomic.AddInt64(&we.disabledByDrift, n)
		log.Printf("[WarmupEngine] Disabled %d pool warmups below team minimum", n)
	}

	if _, err := we.db.ExecContext(we.ctx, `
		UPDATE inboxes i
		SET status = $1, updated_at = NOW()
		FROM warmup_states w
		WHERE w.inbox_id = i.id AND w.enabled = TRUE AND i.status = $2`,
		outreach.InboxWarmingUp, outreach.InboxActive); err != nil {
		return fmt.Errorf("sync inbox status: %w", err)
	}
	return nil
}

func (we *WarmupEngine) loadEnrolled() ([]warmupMailbox, error) {
	rows, err := we.db.QueryContext(we.ctx, `
		SELECT w.inbox_id, w.team_id, i.email, w.current_day, w.ramp_speed,
		       w.reply_rate_target, COALESCE(w.warmup_mode, $1), w.sent_today
		FROM warmup_states w
		JOIN inboxes i ON i.id = w.inbox_id
		WHERE w.enabled = TRUE
		  AND i.status <> ALL($2)
		ORDER BY w.inbox_id`,
		outreach.WarmupModePool,
		pq.Array([]string{outreach.InboxError, outreach.InboxBanned}))
	if err != nil {
		return nil, fmt.Errorf("query enrolled mailboxes: %w", err)
	}
	defer rows.Close()

	var out []warmupMailbox
	for rows.Next() {
		var m warmupMailbox
		if err := rows.Scan(&m.InboxID, &m.TeamID, &m.Email, &m.CurrentDay, &m.RampSpeed,
			&m.ReplyRateTarget, &m.WarmupMode, &m.SentToday); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (we *WarmupEngine) scheduleMailbox(m *warmupMailbox) error {
	quota := outreach.WarmupQuota(m.CurrentDay, m.RampSpeed)
	pending, err := we.q.WarmupPending(we.ctx, m.InboxID.String())
	if err != nil {
		return fmt.Errorf("pending count: %w", err)
	}
	remaining := quota - m.SentToday - pending
	if remaining <= 0 {
		return nil
	}

	counterparties, err := we.counterparties(m)
	if err != nil {
		return err
	}
	if len(counterparties) == 0 {
		return nil
	}

	// Fisher-Yates over candidate indices; when every pair was recently
	// used we reshuffle once and take pairs anyway rather than starve.
	order := we.shuffledIndices(len(counterparties))
	picked := we.pickCounterparties(m, counterparties, order, remaining)

	for _, to := range picked {
		depth := we.pickThreadDepth()
		delay := time.Duration(we.rng.Int63n(int64(we.tick)))

		// ThreadDepth counts replies under the opening message: the main
		// message is depth 0, the first reply 1, and MaxThreadDepth is the
		// last message the thread may carry.
		job := queue.WarmupSendJob{
			FromInboxID:     m.InboxID.String(),
			ToInboxID:       to.id,
			TemplateType:    outreach.WarmupTypeMain,
			ThreadDepth:     0,
			MaxThreadDepth:  depth,
			IsNetworkWarmup: to.network,
		}
		if _, err := we.q.Enqueue(we.ctx, queue.QueueWarmupSend, "", job, delay); err != nil {
			log.Printf("[WarmupEngine] Enqueue failed for %s -> %s: %v", m.InboxID, to.id, err)
			continue
		}
		if err := we.q.IncrWarmupPending(we.ctx, m.InboxID.String()); err != nil {
			log.Printf("[WarmupEngine] Pending counter failed for %s: %v", m.InboxID, err)
		}
		atomic.AddInt64(&we.scheduled, 1)
	}
	return nil
}

// warmupCounterparty is a potential recipient: either a teammate's inbox in
// pool warmup, or a platform partner mailbox.
type warmupCounterparty struct {
	id      string
	network bool
}

func (we *WarmupEngine) counterparties(m *warmupMailbox) ([]warmupCounterparty, error) {
	if m.WarmupMode == outreach.WarmupModeNetwork {
		rows, err := we.db.QueryContext(we.ctx, `
			SELECT id FROM warmup_partners WHERE active = TRUE ORDER BY id`)
		if err != nil {
			return nil, fmt.Errorf("query warmup partners: %w", err)
		}
		defer rows.Close()
		var out []warmupCounterparty
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return nil, err
			}
			out = append(out, warmupCounterparty{id: id, network: true})
		}
		return out, rows.Err()
	}

	rows, err := we.db.QueryContext(we.ctx, `
		SELECT w.inbox_id
		FROM warmup_states w
		JOIN inboxes i ON i.id = w.inbox_id
		WHERE w.team_id = $1 AND w.inbox_id <> $2 AND w.enabled = TRUE
		  AND COALESCE(w.warmup_mode, $3) = $3
		  AND i.status <> ALL($4)
		ORDER BY w.inbox_id`,
		m.TeamID, m.InboxID, outreach.WarmupModePool,
		pq.Array([]string{outreach.InboxError, outreach.InboxBanned}))
	if err != nil {
		return nil, fmt.Errorf("query pool counterparties: %w", err)
	}
	defer rows.Close()
	var out []warmupCounterparty
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, warmupCounterparty{id: id.String()})
	}
	return out, rows.Err()
}

func (we *WarmupEngine) shuffledIndices(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := we.rng.Intn(i + 1)
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// pickCounterparties takes up to want recipients, preferring pairs not seen
// within the dedup TTL. If the fresh pairs run out, a reshuffled pass fills
// the remainder from already-seen pairs.
func (we *WarmupEngine) pickCounterparties(m *warmupMailbox, candidates []warmupCounterparty, order []int, want int) []warmupCounterparty {
	var picked []warmupCounterparty
	for _, idx := range order {
		if len(picked) >= want {
			return picked
		}
		to := candidates[idx]
		fresh, err := we.q.MarkWarmupPair(we.ctx, m.InboxID.String(), to.id, outreach.WarmupTypeMain)
		if err != nil {
			log.Printf("[WarmupEngine] Dedup check failed for %s -> %s: %v", m.InboxID, to.id, err)
			continue
		}
		if fresh {
			picked = append(picked, to)
		}
	}
	if len(picked) >= want {
		return picked
	}
	for _, idx := range we.shuffledIndices(len(candidates)) {
		if len(picked) >= want {
			break
		}
		picked = append(picked, candidates[idx])
	}
	return picked
}

// pickThreadDepth flips a coin between a single exchange and a deeper
// conversation with max depth drawn uniformly from {2,3,4,5}.
func (we *WarmupEngine) pickThreadDepth() int {
	if we.rng.Intn(2) == 0 {
		return 1
	}
	return 2 + we.rng.Intn(4)
}
