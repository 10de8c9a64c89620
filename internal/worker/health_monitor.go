package worker

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/driftmail/outreach/internal/outreach"
	"github.com/driftmail/outreach/internal/pkg/distlock"
	"github.com/driftmail/outreach/internal/queue"
)

const (
	// DefaultHealthTick is the health recomputation cadence.
	DefaultHealthTick = 15 * time.Minute

	healthLockTTL = 12 * time.Minute
)

// HealthMonitor recomputes every inbox's health score from its lifetime
// counters and warmup progress. Scores feed the scheduler's inbox
// eligibility gate.
type HealthMonitor struct {
	db          *sql.DB
	redisClient *redis.Client
	workerID    string
	reg         *registry
	tick        time.Duration

	inboxesScored int64
	scoreChanges  int64
	errorCount    int64

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.RWMutex
}

// NewHealthMonitor creates a health monitor.
func NewHealthMonitor(db *sql.DB, q *queue.Queue) *HealthMonitor {
	hm := &HealthMonitor{
		db:       db,
		workerID: workerInstanceID("health"),
		tick:     DefaultHealthTick,
	}
	if q != nil {
		hm.redisClient = q.Client()
	}
	hm.reg = newRegistry(db, hm.workerID, "health_monitor")
	return hm
}

// SetTickInterval overrides the cadence (tests).
func (hm *HealthMonitor) SetTickInterval(d time.Duration) { hm.tick = d }

// Start launches the monitoring loop.
func (hm *HealthMonitor) Start() error {
	hm.mu.Lock()
	if hm.running {
		hm.mu.Unlock()
		return fmt.Errorf("health monitor already running")
	}
	hm.running = true
	hm.ctx, hm.cancel = context.WithCancel(context.Background())
	hm.mu.Unlock()

	log.Printf("[HealthMonitor] Starting with tick interval %v", hm.tick)
	hm.reg.register()

	hm.wg.Add(1)
	go hm.loop()
	return nil
}

// Stop shuts the monitor down.
func (hm *HealthMonitor) Stop() {
	hm.mu.Lock()
	if !hm.running {
		hm.mu.Unlock()
		return
	}
	hm.running = false
	hm.cancel()
	hm.mu.Unlock()

	hm.wg.Wait()
	hm.reg.deregister()
	log.Printf("[HealthMonitor] Stopped. Inboxes scored: %d, changes: %d",
		atomic.LoadInt64(&hm.inboxesScored), atomic.LoadInt64(&hm.scoreChanges))
}

// Stats returns current counters.
func (hm *HealthMonitor) Stats() map[string]int64 {
	return map[string]int64{
		"inboxes_scored": atomic.LoadInt64(&hm.inboxesScored),
		"score_changes":  atomic.LoadInt64(&hm.scoreChanges),
		"errors":         atomic.LoadInt64(&hm.errorCount),
	}
}

func (hm *HealthMonitor) loop() {
	defer hm.wg.Done()

	hm.runTick()

	ticker := time.NewTicker(hm.tick)
	defer ticker.Stop()
	for {
		select {
		case <-hm.ctx.Done():
			return
		case <-ticker.C:
			hm.runTick()
		}
	}
}

func (hm *HealthMonitor) runTick() {
	lock := distlock.New(hm.redisClient, hm.db, "health-monitor", healthLockTTL)
	acquired, err := lock.Acquire(hm.ctx)
	if err != nil {
		log.Printf("[HealthMonitor] Lock error: %v", err)
		return
	}
	if !acquired {
		return
	}
	defer lock.Release(hm.ctx)

	if err := hm.recomputeAll(); err != nil {
		atomic.AddInt64(&hm.errorCount, 1)
		log.Printf("[HealthMonitor] Recompute failed: %v", err)
	}
}

func (hm *HealthMonitor) recomputeAll() error {
	rows, err := hm.db.QueryContext(hm.ctx, `
		SELECT i.id, i.health_score, i.sent_total, i.bounced_total,
		       i.replied_total, i.spam_complaints_total,
		       COALESCE(w.enabled, FALSE), COALESCE(w.current_day, 0)
		FROM inboxes i
		LEFT JOIN warmup_states w ON w.inbox_id = i.id
		WHERE i.status <> $1`,
		outreach.InboxBanned)
	if err != nil {
		return fmt.Errorf("query inboxes: %w", err)
	}
	defer rows.Close()

	type scored struct {
		id       string
		current  int
		newScore int
	}
	var updates []scored
	for rows.Next() {
		var id string
		var current, sentTotal, bouncedTotal, repliedTotal, spamTotal, warmupDay int
		var warmupEnabled bool
		if err := rows.Scan(&id, &current, &sentTotal, &bouncedTotal,
			&repliedTotal, &spamTotal, &warmupEnabled, &warmupDay); err != nil {
			return err
		}

		var bounceRate, spamRate float64
		if sentTotal > 0 {
			bounceRate = float64(bouncedTotal) / float64(sentTotal)
			spamRate = float64(spamTotal) / float64(sentTotal)
		}
		score := outreach.HealthScore(outreach.HealthInputs{
			WarmupEnabled: warmupEnabled,
			WarmupDay:     warmupDay,
			SentTotal:     sentTotal,
			RepliedTotal:  repliedTotal,
			BounceRate:    bounceRate,
			SpamRate:      spamRate,
		})
		atomic.AddInt64(&hm.inboxesScored, 1)
		if score != current {
			updates = append(updates, scored{id: id, current: current, newScore: score})
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, u := range updates {
		if _, err := hm.db.ExecContext(hm.ctx, `
			UPDATE inboxes SET health_score = $1, updated_at = NOW() WHERE id = $2`,
			u.newScore, u.id); err != nil {
			log.Printf("[HealthMonitor] Score update failed for %s: %v", u.id, err)
			continue
		}
		atomic.AddInt64(&hm.scoreChanges, 1)
		if u.newScore < outreach.MinInboxHealthScore && u.current >= outreach.MinInboxHealthScore {
			log.Printf("[HealthMonitor] Inbox %s dropped below sending threshold (%d -> %d)",
				u.id, u.current, u.newScore)
		}
	}
	return nil
}
