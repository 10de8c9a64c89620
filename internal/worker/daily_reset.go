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
	// dailyResetTick runs every minute so each team resets within a minute
	// of its local midnight.
	dailyResetTick = 1 * time.Minute

	// WarmupGraduationDay moves a ramping warmup to maintaining.
	WarmupGraduationDay = 30

	dailyResetLockTTL = 55 * time.Second
)

// DailyResetWorker rolls the per-day counters at each team's local
// midnight: zeroes sent_today on inboxes and warmup states, advances
// warmup days, and applies phase transitions.
type DailyResetWorker struct {
	db          *sql.DB
	redisClient *redis.Client
	q           *queue.Queue
	workerID    string
	reg         *registry
	tick        time.Duration

	teamsReset int64
	errorCount int64

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.RWMutex
}

// NewDailyResetWorker creates a daily reset worker.
func NewDailyResetWorker(db *sql.DB, q *queue.Queue) *DailyResetWorker {
	dr := &DailyResetWorker{
		db:       db,
		q:        q,
		workerID: workerInstanceID("reset"),
		tick:     dailyResetTick,
	}
	if q != nil {
		dr.redisClient = q.Client()
	}
	dr.reg = newRegistry(db, dr.workerID, "daily_reset")
	return dr
}

// SetTickInterval overrides the cadence (tests).
func (dr *DailyResetWorker) SetTickInterval(d time.Duration) { dr.tick = d }

// Start launches the reset loop.
func (dr *DailyResetWorker) Start() error {
	dr.mu.Lock()
	if dr.running {
		dr.mu.Unlock()
		return fmt.Errorf("daily reset worker already running")
	}
	dr.running = true
	dr.ctx, dr.cancel = context.WithCancel(context.Background())
	dr.mu.Unlock()

	log.Printf("[DailyReset] Starting")
	dr.reg.register()

	dr.wg.Add(1)
	go dr.loop()
	return nil
}

// Stop shuts the worker down.
func (dr *DailyResetWorker) Stop() {
	dr.mu.Lock()
	if !dr.running {
		dr.mu.Unlock()
		return
	}
	dr.running = false
	dr.cancel()
	dr.mu.Unlock()

	dr.wg.Wait()
	dr.reg.deregister()
	log.Printf("[DailyReset] Stopped. Teams reset: %d", atomic.LoadInt64(&dr.teamsReset))
}

// Stats returns current counters.
func (dr *DailyResetWorker) Stats() map[string]int64 {
	return map[string]int64{
		"teams_reset": atomic.LoadInt64(&dr.teamsReset),
		"errors":      atomic.LoadInt64(&dr.errorCount),
	}
}

func (dr *DailyResetWorker) loop() {
	defer dr.wg.Done()

	dr.runTick(time.Now())

	ticker := time.NewTicker(dr.tick)
	defer ticker.Stop()
	for {
		select {
		case <-dr.ctx.Done():
			return
		case now := <-ticker.C:
			dr.runTick(now)
		}
	}
}

// runTick checks every team for a local-date rollover. One sweeper runs per
// minute; per-team idempotence is enforced by a conditional date update, so
// a missed minute or a crashed sweeper self-heals on the next tick.
func (dr *DailyResetWorker) runTick(now time.Time) {
	lock := distlock.New(dr.redisClient, dr.db, "daily-reset", dailyResetLockTTL)
	acquired, err := lock.Acquire(dr.ctx)
	if err != nil {
		log.Printf("[DailyReset] Lock error: %v", err)
		return
	}
	if !acquired {
		return
	}
	defer lock.Release(dr.ctx)

	// The shared guard key tracks the global UTC rollover for observability.
	if dr.q != nil {
		if claimed, err := dr.q.ClaimDailyReset(dr.ctx, now.UTC().Format("2006-01-02")); err == nil && claimed {
			log.Printf("[DailyReset] UTC day rolled over to %s", now.UTC().Format("2006-01-02"))
		}
	}

	teams, err := dr.loadTeams()
	if err != nil {
		atomic.AddInt64(&dr.errorCount, 1)
		log.Printf("[DailyReset] Failed to load teams: %v", err)
		return
	}

	for _, t := range teams {
		if dr.ctx.Err() != nil {
			return
		}
		loc, err := time.LoadLocation(t.timezone)
		if err != nil {
			loc = time.UTC
		}
		localDate := now.In(loc).Format("2006-01-02")

		claimed, err := dr.claimTeamReset(t.id, localDate)
		if err != nil {
			atomic.AddInt64(&dr.errorCount, 1)
			log.Printf("[DailyReset] Claim failed for team %s: %v", t.id, err)
			continue
		}
		if !claimed {
			continue
		}
		if err := dr.resetTeam(t, localDate); err != nil {
			atomic.AddInt64(&dr.errorCount, 1)
			log.Printf("[DailyReset] Reset failed for team %s: %v", t.id, err)
			continue
		}
		atomic.AddInt64(&dr.teamsReset, 1)
	}
}

type resetTeam struct {
	id                uuid.UUID
	timezone          string
	warmupCeilingDays int
}

func (dr *DailyResetWorker) loadTeams() ([]resetTeam, error) {
	rows, err := dr.db.QueryContext(dr.ctx, `
		SELECT id, COALESCE(timezone, 'UTC'), COALESCE(warmup_ceiling_days, 0)
		FROM teams`)
	if err != nil {
		return nil, fmt.Errorf("query teams: %w", err)
	}
	defer rows.Close()

	var teams []resetTeam
	for rows.Next() {
		var t resetTeam
		if err := rows.Scan(&t.id, &t.timezone, &t.warmupCeilingDays); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// claimTeamReset advances the team's last-reset marker only when the local
// date moved forward. Exactly one sweep per team per local day wins.
func (dr *DailyResetWorker) claimTeamReset(teamID uuid.UUID, localDate string) (bool, error) {
	res, err := dr.db.ExecContext(dr.ctx, `
		UPDATE teams
		SET last_warmup_reset_date = $1
		WHERE id = $2
		  AND (last_warmup_reset_date IS NULL OR last_warmup_reset_date < $1)`,
		localDate, teamID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (dr *DailyResetWorker) resetTeam(t resetTeam, localDate string) error {
	if _, err := dr.db.ExecContext(dr.ctx, `
		UPDATE inboxes SET sent_today = 0, updated_at = NOW() WHERE team_id = $1`,
		t.id); err != nil {
		return fmt.Errorf("reset inbox counters: %w", err)
	}

	if _, err := dr.db.ExecContext(dr.ctx, `
		UPDATE warmup_states
		SET sent_today = 0, received_today = 0, replied_today = 0, spam_today = 0,
		    updated_at = NOW()
		WHERE team_id = $1`,
		t.id); err != nil {
		return fmt.Errorf("reset warmup counters: %w", err)
	}

	if _, err := dr.db.ExecContext(dr.ctx, `
		UPDATE warmup_states
		SET current_day = current_day + 1, updated_at = NOW()
		WHERE team_id = $1 AND enabled = TRUE`,
		t.id); err != nil {
		return fmt.Errorf("advance warmup days: %w", err)
	}

	// Ramping warmups graduate to maintaining past day 30; the optional
	// team ceiling completes them outright.
	if _, err := dr.db.ExecContext(dr.ctx, `
		UPDATE warmup_states
		SET phase = $1, updated_at = NOW()
		WHERE team_id = $2 AND enabled = TRUE AND phase = $3 AND current_day > $4`,
		outreach.WarmupMaintaining, t.id, outreach.WarmupRamping, WarmupGraduationDay); err != nil {
		return fmt.Errorf("graduate warmups: %w", err)
	}
	if t.warmupCeilingDays > 0 {
		if _, err := dr.db.ExecContext(dr.ctx, `
			UPDATE warmup_states
			SET phase = $1, enabled = FALSE, updated_at = NOW()
			WHERE team_id = $2 AND enabled = TRUE AND current_day >= $3`,
			outreach.WarmupCompleted, t.id, t.warmupCeilingDays); err != nil {
			return fmt.Errorf("complete warmups: %w", err)
		}
	}

	log.Printf("[DailyReset] Team %s reset for %s", t.id, localDate)
	return nil
}
