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

	"github.com/driftmail/outreach/internal/outreach"
	"github.com/driftmail/outreach/internal/queue"
)

const (
	// DefaultRecoveryTick is how often stuck emails are swept.
	DefaultRecoveryTick = 5 * time.Minute

	// StaleSendingAge is how long an email may sit in 'sending' before it
	// is presumed orphaned by a crashed worker.
	StaleSendingAge = 15 * time.Minute
)

// QueueRecovery requeues emails stranded in 'sending' by a worker crash.
// The deterministic daily job ID cannot be reused (it is already claimed),
// so recovery enqueues with a fresh ID; the status check in the send worker
// suppresses double sends.
type QueueRecovery struct {
	db       *sql.DB
	q        *queue.Queue
	workerID string
	reg      *registry
	tick     time.Duration

	recovered  int64
	errorCount int64

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.RWMutex
}

// NewQueueRecovery creates a recovery sweeper.
func NewQueueRecovery(db *sql.DB, q *queue.Queue) *QueueRecovery {
	qr := &QueueRecovery{
		db:       db,
		q:        q,
		workerID: workerInstanceID("recovery"),
		tick:     DefaultRecoveryTick,
	}
	qr.reg = newRegistry(db, qr.workerID, "queue_recovery")
	return qr
}

// SetTickInterval overrides the cadence (tests).
func (qr *QueueRecovery) SetTickInterval(d time.Duration) { qr.tick = d }

// Start launches the sweeper.
func (qr *QueueRecovery) Start() error {
	qr.mu.Lock()
	if qr.running {
		qr.mu.Unlock()
		return fmt.Errorf("queue recovery already running")
	}
	qr.running = true
	qr.ctx, qr.cancel = context.WithCancel(context.Background())
	qr.mu.Unlock()

	log.Printf("[QueueRecovery] Starting with tick interval %v", qr.tick)
	qr.reg.register()

	qr.wg.Add(1)
	go qr.loop()
	return nil
}

// Stop shuts the sweeper down.
func (qr *QueueRecovery) Stop() {
	qr.mu.Lock()
	if !qr.running {
		qr.mu.Unlock()
		return
	}
	qr.running = false
	qr.cancel()
	qr.mu.Unlock()

	qr.wg.Wait()
	qr.reg.deregister()
	log.Printf("[QueueRecovery] Stopped. Emails recovered: %d", atomic.LoadInt64(&qr.recovered))
}

// Stats returns current counters.
func (qr *QueueRecovery) Stats() map[string]int64 {
	return map[string]int64{
		"recovered": atomic.LoadInt64(&qr.recovered),
		"errors":    atomic.LoadInt64(&qr.errorCount),
	}
}

func (qr *QueueRecovery) loop() {
	defer qr.wg.Done()

	ticker := time.NewTicker(qr.tick)
	defer ticker.Stop()
	for {
		select {
		case <-qr.ctx.Done():
			return
		case <-ticker.C:
			if err := qr.sweep(); err != nil {
				atomic.AddInt64(&qr.errorCount, 1)
				log.Printf("[QueueRecovery] Sweep failed: %v", err)
			}
		}
	}
}

func (qr *QueueRecovery) sweep() error {
	rows, err := qr.db.QueryContext(qr.ctx, `
		SELECT id, campaign_id, lead_id, inbox_id, step_number
		FROM emails
		WHERE status = $1 AND updated_at < NOW() - ($2 * INTERVAL '1 minute')
		LIMIT 100`,
		outreach.EmailSending, int(StaleSendingAge.Minutes()))
	if err != nil {
		return fmt.Errorf("query stale emails: %w", err)
	}
	defer rows.Close()

	type stale struct {
		id, campaignID, leadID, inboxID uuid.UUID
		step                            int
	}
	var stuck []stale
	for rows.Next() {
		var s stale
		if err := rows.Scan(&s.id, &s.campaignID, &s.leadID, &s.inboxID, &s.step); err != nil {
			return err
		}
		stuck = append(stuck, s)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, s := range stuck {
		if _, err := qr.db.ExecContext(qr.ctx, `
			UPDATE emails SET status = $1, updated_at = NOW()
			WHERE id = $2 AND status = $3`,
			outreach.EmailQueued, s.id, outreach.EmailSending); err != nil {
			log.Printf("[QueueRecovery] Requeue update failed for %s: %v", s.id, err)
			continue
		}
		if _, err := qr.q.Enqueue(qr.ctx, queue.QueueEmailSend, "", queue.EmailSendJob{
			EmailID:      s.id.String(),
			LeadID:       s.leadID.String(),
			CampaignID:   s.campaignID.String(),
			InboxID:      s.inboxID.String(),
			SequenceStep: s.step,
			IsRetry:      true,
		}, 0); err != nil {
			log.Printf("[QueueRecovery] Re-enqueue failed for %s: %v", s.id, err)
			continue
		}
		atomic.AddInt64(&qr.recovered, 1)
		log.Printf("[QueueRecovery] Requeued stale email %s", s.id)
	}
	return nil
}
