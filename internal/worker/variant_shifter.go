package worker

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/driftmail/outreach/internal/outreach"
	"github.com/driftmail/outreach/internal/pkg/distlock"
	"github.com/driftmail/outreach/internal/queue"
)

const (
	// DefaultShifterTick is the traffic-shifting cadence. Stale counters
	// within a tick are acceptable; the job converges over time.
	DefaultShifterTick = 1 * time.Hour

	// MinVariantSends is the per-variant sample floor before any shift.
	MinVariantSends = 50

	shifterLockTTL = 50 * time.Minute
)

// VariantShifter progressively moves traffic toward the better-performing
// A/B variant as statistical confidence accumulates, declaring a winner at
// 95% confidence.
type VariantShifter struct {
	db          *sql.DB
	redisClient *redis.Client
	workerID    string
	reg         *registry
	tick        time.Duration

	stepsEvaluated  int64
	shiftsApplied   int64
	winnersDeclared int64
	errorCount      int64

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.RWMutex
}

// NewVariantShifter creates a shifter. The queue supplies the Redis client
// for the job lock; nil falls back to advisory locks.
func NewVariantShifter(db *sql.DB, q *queue.Queue) *VariantShifter {
	vs := &VariantShifter{
		db:       db,
		workerID: workerInstanceID("shifter"),
		tick:     DefaultShifterTick,
	}
	if q != nil {
		vs.redisClient = q.Client()
	}
	vs.reg = newRegistry(db, vs.workerID, "variant_shifter")
	return vs
}

// SetTickInterval overrides the cadence (tests).
func (vs *VariantShifter) SetTickInterval(d time.Duration) { vs.tick = d }

// Start launches the shifting loop.
func (vs *VariantShifter) Start() error {
	vs.mu.Lock()
	if vs.running {
		vs.mu.Unlock()
		return fmt.Errorf("variant shifter already running")
	}
	vs.running = true
	vs.ctx, vs.cancel = context.WithCancel(context.Background())
	vs.mu.Unlock()

	log.Printf("[VariantShifter] Starting with tick interval %v", vs.tick)
	vs.reg.register()

	vs.wg.Add(1)
	go vs.loop()
	return nil
}

// Stop shuts the shifter down.
func (vs *VariantShifter) Stop() {
	vs.mu.Lock()
	if !vs.running {
		vs.mu.Unlock()
		return
	}
	vs.running = false
	vs.cancel()
	vs.mu.Unlock()

	vs.wg.Wait()
	vs.reg.deregister()
	log.Printf("[VariantShifter] Stopped. Steps evaluated: %d, shifts: %d, winners: %d",
		atomic.LoadInt64(&vs.stepsEvaluated), atomic.LoadInt64(&vs.shiftsApplied), atomic.LoadInt64(&vs.winnersDeclared))
}

// Stats returns current counters.
func (vs *VariantShifter) Stats() map[string]int64 {
	return map[string]int64{
		"steps_evaluated":  atomic.LoadInt64(&vs.stepsEvaluated),
		"shifts_applied":   atomic.LoadInt64(&vs.shiftsApplied),
		"winners_declared": atomic.LoadInt64(&vs.winnersDeclared),
		"errors":           atomic.LoadInt64(&vs.errorCount),
	}
}

func (vs *VariantShifter) loop() {
	defer vs.wg.Done()

	vs.runTick()

	ticker := time.NewTicker(vs.tick)
	defer ticker.Stop()
	for {
		select {
		case <-vs.ctx.Done():
			return
		case <-ticker.C:
			vs.runTick()
		}
	}
}

func (vs *VariantShifter) runTick() {
	lock := distlock.New(vs.redisClient, vs.db, "variant-shifter", shifterLockTTL)
	acquired, err := lock.Acquire(vs.ctx)
	if err != nil {
		log.Printf("[VariantShifter] Lock error: %v", err)
		return
	}
	if !acquired {
		return
	}
	defer lock.Release(vs.ctx)

	stepIDs, err := vs.stepsWithVariants()
	if err != nil {
		atomic.AddInt64(&vs.errorCount, 1)
		log.Printf("[VariantShifter] Failed to list steps: %v", err)
		return
	}

	for _, stepID := range stepIDs {
		if vs.ctx.Err() != nil {
			return
		}
		if err := vs.evaluateStep(stepID); err != nil {
			atomic.AddInt64(&vs.errorCount, 1)
			log.Printf("[VariantShifter] Step %s failed: %v", stepID, err)
			continue
		}
		atomic.AddInt64(&vs.stepsEvaluated, 1)
	}
}

// stepsWithVariants lists steps on active campaigns with two or more
// variants.
func (vs *VariantShifter) stepsWithVariants() ([]uuid.UUID, error) {
	rows, err := vs.db.QueryContext(vs.ctx, `
		SELECT v.step_id
		FROM sequence_variants v
		JOIN sequence_steps s ON s.id = v.step_id
		JOIN campaigns c ON c.id = s.campaign_id
		WHERE c.status = $1
		GROUP BY v.step_id
		HAVING COUNT(*) >= 2`,
		outreach.CampaignActive)
	if err != nil {
		return nil, fmt.Errorf("query variant steps: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// evaluateStep applies the shift for one step: find the leader by open
// rate, compute the weakest pairwise confidence against the rest, and remap
// weights by the confidence threshold.
func (vs *VariantShifter) evaluateStep(stepID uuid.UUID) error {
	stats, err := vs.loadStats(stepID)
	if err != nil {
		return err
	}
	if len(stats) < 2 {
		return nil
	}
	for _, s := range stats {
		if s.IsWinner {
			return nil
		}
		if s.SentCount < MinVariantSends {
			return nil
		}
	}

	leader := 0
	leaderRate := -1.0
	for i, s := range stats {
		openRate, _, _ := outreach.VariantRates(s)
		if openRate > leaderRate {
			leaderRate = openRate
			leader = i
		}
	}

	// The weakest comparison decides the shift: the leader must beat every
	// other variant with at least the threshold confidence.
	confidence := 1.0
	for i, s := range stats {
		if i == leader {
			continue
		}
		rate, _, _ := outreach.VariantRates(s)
		z := outreach.TwoProportionZ(leaderRate, stats[leader].SentCount, rate, s.SentCount)
		c := outreach.NormalCDF(z)
		if c < confidence {
			confidence = c
		}
	}

	leaderWeight, declareWinner, shift := outreach.ShiftLeaderWeight(confidence)
	if !shift {
		return nil
	}

	loserWeight := outreach.LoserWeight(leaderWeight, len(stats))
	for i, s := range stats {
		weight := loserWeight
		isWinner := false
		if i == leader {
			weight = leaderWeight
			isWinner = declareWinner
		}
		if _, err := vs.db.ExecContext(vs.ctx, `
			UPDATE sequence_variants
			SET weight = $1, is_winner = $2, updated_at = NOW()
			WHERE id = $3`,
			weight, isWinner, s.VariantID); err != nil {
			return fmt.Errorf("update variant %s: %w", s.VariantID, err)
		}
	}

	atomic.AddInt64(&vs.shiftsApplied, 1)
	if declareWinner {
		atomic.AddInt64(&vs.winnersDeclared, 1)
		log.Printf("[VariantShifter] Step %s: variant %s declared winner at %.0f%% confidence",
			stepID, stats[leader].VariantID, confidence*100)
	} else {
		log.Printf("[VariantShifter] Step %s: leader %s shifted to weight %d (confidence %.2f)",
			stepID, stats[leader].VariantID, leaderWeight, confidence)
	}
	return nil
}

func (vs *VariantShifter) loadStats(stepID uuid.UUID) ([]outreach.VariantStats, error) {
	rows, err := vs.db.QueryContext(vs.ctx, `
		SELECT id, weight, is_winner, sent_count, open_count, click_count, reply_count
		FROM sequence_variants
		WHERE step_id = $1
		ORDER BY created_at`,
		stepID)
	if err != nil {
		return nil, fmt.Errorf("query variant stats: %w", err)
	}
	defer rows.Close()

	var stats []outreach.VariantStats
	for rows.Next() {
		var s outreach.VariantStats
		if err := rows.Scan(&s.VariantID, &s.Weight, &s.IsWinner, &s.SentCount,
			&s.OpenCount, &s.ClickCount, &s.ReplyCount); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
