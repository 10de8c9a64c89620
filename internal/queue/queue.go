// Package queue implements the Redis-backed job queue shared by the
// schedulers and workers: delayed delivery via sorted sets, deterministic
// job IDs for daily idempotence, warmup pair dedup keys, and the
// daily-reset guard key.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/driftmail/outreach/internal/outreach"
)

// Queue names.
const (
	QueueEmailSend     = "email-send"
	QueueBounceProcess = "bounce-process"
	QueueWarmupSend    = "warmup-send"
)

// MaxAttempts is the retry cap before a job is dead-lettered.
const MaxAttempts = 5

// jobIDTTL keeps deterministic job IDs unique for the calendar day.
const jobIDTTL = 26 * time.Hour

// EmailSendJob instructs the send worker to dispatch one queued email.
type EmailSendJob struct {
	EmailID      string `json:"emailId"`
	LeadID       string `json:"leadId"`
	CampaignID   string `json:"campaignId"`
	InboxID      string `json:"inboxId"`
	SequenceStep int    `json:"sequenceStep"`
	IsRetry      bool   `json:"isRetry,omitempty"`
	RetryCount   int    `json:"retryCount,omitempty"`
}

// BounceJob carries a delivery-failure event to the bounce processor.
type BounceJob struct {
	EmailID        string `json:"emailId"`
	LeadID         string `json:"leadId"`
	InboxID        string `json:"inboxId"`
	CampaignID     string `json:"campaignId,omitempty"`
	BounceType     string `json:"bounceType"` // hard | soft | complaint
	BounceReason   string `json:"bounceReason"`
	DiagnosticCode string `json:"diagnosticCode,omitempty"`
}

// WarmupSendJob instructs the warmup consumer to exchange one synthetic
// message between two mailboxes.
type WarmupSendJob struct {
	FromInboxID     string `json:"fromInboxId"`
	ToInboxID       string `json:"toInboxId"`
	TemplateType    string `json:"templateType"`
	ThreadDepth     int    `json:"threadDepth"`
	MaxThreadDepth  int    `json:"maxThreadDepth"`
	IsNetworkWarmup bool   `json:"isNetworkWarmup"`
	ThreadSubject   string `json:"threadSubject,omitempty"`
	ThreadID        string `json:"threadId,omitempty"`
}

// Job is the envelope stored on the wire.
type Job struct {
	ID         string          `json:"id"`
	Queue      string          `json:"queue"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
	Deadline   time.Time       `json:"deadline,omitempty"`
}

// Queue is the Redis job queue. All operations are atomic per job; delayed
// jobs live in a ZSET scored by their ready-at time.
type Queue struct {
	client *redis.Client

	popScript   *redis.Script
	resetScript *redis.Script
}

// popDueScript pops up to ARGV[2] members whose score has passed ARGV[1].
const popDueScript = `
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, ARGV[2])
if #due > 0 then
    redis.call('ZREM', KEYS[1], unpack(due))
end
return due
`

// resetDateScript sets the guard key to ARGV[1] only if it differs,
// returning 1 when this caller won the daily reset.
const resetDateScript = `
local current = redis.call('GET', KEYS[1])
if current == ARGV[1] then
    return 0
end
redis.call('SET', KEYS[1], ARGV[1])
return 1
`

// New creates a queue on an existing Redis client.
func New(client *redis.Client) *Queue {
	return &Queue{
		client:      client,
		popScript:   redis.NewScript(popDueScript),
		resetScript: redis.NewScript(resetDateScript),
	}
}

// NewFromURL connects to Redis and returns a queue.
func NewFromURL(redisURL string) (*Queue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return New(redis.NewClient(opts)), nil
}

// Client exposes the underlying Redis client for shared counters.
func (q *Queue) Client() *redis.Client { return q.client }

func zsetKey(queueName string) string  { return "queue:z:" + queueName }
func jobKey(jobID string) string       { return "queue:jobid:" + jobID }
func deadKey(queueName string) string  { return "queue:dead:" + queueName }
func pendingKey(inboxID string) string { return "warmup:pending:" + inboxID }

// DailyJobID builds the deterministic send-job key that suppresses
// duplicate enqueues of the same (campaign, lead, step) within a day.
func DailyJobID(campaignID, leadID string, step int, day time.Time) string {
	return fmt.Sprintf("campaign-%s-%s-%d-%s", campaignID, leadID, step, day.Format("20060102"))
}

// Enqueue schedules a job for delivery after delay. A non-empty jobID makes
// the enqueue idempotent: re-enqueues of the same ID within the day are
// dropped and reported with enqueued=false.
func (q *Queue) Enqueue(ctx context.Context, queueName, jobID string, payload interface{}, delay time.Duration) (bool, error) {
	if jobID == "" {
		jobID = uuid.New().String()
	} else {
		fresh, err := q.client.SetNX(ctx, jobKey(jobID), 1, jobIDTTL).Result()
		if err != nil {
			return false, fmt.Errorf("job id reservation: %w", err)
		}
		if !fresh {
			return false, nil
		}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("marshal payload: %w", err)
	}
	job := Job{
		ID:         jobID,
		Queue:      queueName,
		Payload:    raw,
		EnqueuedAt: time.Now().UTC(),
		Deadline:   time.Now().UTC().Add(24 * time.Hour),
	}
	member, err := json.Marshal(job)
	if err != nil {
		return false, err
	}

	readyAt := float64(time.Now().Add(delay).UnixMilli())
	if err := q.client.ZAdd(ctx, zsetKey(queueName), redis.Z{Score: readyAt, Member: member}).Err(); err != nil {
		return false, fmt.Errorf("enqueue %s: %w", queueName, err)
	}
	return true, nil
}

// Dequeue pops up to limit due jobs. Jobs past their deadline are
// dead-lettered instead of returned.
func (q *Queue) Dequeue(ctx context.Context, queueName string, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 10
	}
	now := time.Now().UnixMilli()
	res, err := q.popScript.Run(ctx, q.client, []string{zsetKey(queueName)}, now, limit).StringSlice()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("dequeue %s: %w", queueName, err)
	}

	var jobs []Job
	for _, raw := range res {
		var job Job
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			continue
		}
		if !job.Deadline.IsZero() && time.Now().After(job.Deadline) {
			q.client.LPush(ctx, deadKey(queueName), raw)
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Retry re-enqueues a failed job with its attempt count advanced. Once the
// job exceeds MaxAttempts it is dead-lettered and retried=false is returned.
func (q *Queue) Retry(ctx context.Context, job Job, backoff time.Duration) (bool, error) {
	job.Attempts++
	member, err := json.Marshal(job)
	if err != nil {
		return false, err
	}
	if job.Attempts >= MaxAttempts {
		if err := q.client.LPush(ctx, deadKey(job.Queue), member).Err(); err != nil {
			return false, fmt.Errorf("dead-letter: %w", err)
		}
		return false, nil
	}
	readyAt := float64(time.Now().Add(backoff).UnixMilli())
	err = q.client.ZAdd(ctx, zsetKey(job.Queue), redis.Z{Score: readyAt, Member: member}).Err()
	return err == nil, err
}

// DeadLetterDepth returns the number of dead jobs for a queue.
func (q *Queue) DeadLetterDepth(ctx context.Context, queueName string) (int64, error) {
	return q.client.LLen(ctx, deadKey(queueName)).Result()
}

// Depth returns the number of pending jobs (due or delayed) for a queue.
func (q *Queue) Depth(ctx context.Context, queueName string) (int64, error) {
	return q.client.ZCard(ctx, zsetKey(queueName)).Result()
}

// MarkWarmupPair records that (from, to, type) was exercised. Returns
// fresh=false when the pair was already seen within the dedup TTL.
func (q *Queue) MarkWarmupPair(ctx context.Context, fromInboxID, toInboxID, msgType string) (bool, error) {
	key := outreach.WarmupDedupKey(fromInboxID, toInboxID, msgType)
	fresh, err := q.client.SetNX(ctx, key, 1, outreach.WarmupDedupTTL).Result()
	if err != nil {
		return false, fmt.Errorf("warmup dedup: %w", err)
	}
	return fresh, nil
}

// WarmupPairSeen checks the dedup key without claiming it.
func (q *Queue) WarmupPairSeen(ctx context.Context, fromInboxID, toInboxID, msgType string) (bool, error) {
	n, err := q.client.Exists(ctx, outreach.WarmupDedupKey(fromInboxID, toInboxID, msgType)).Result()
	return n > 0, err
}

// IncrWarmupPending / DecrWarmupPending track per-inbox warmup jobs already
// enqueued but not yet consumed, so a tick never overshoots the daily quota.
func (q *Queue) IncrWarmupPending(ctx context.Context, inboxID string) error {
	pipe := q.client.Pipeline()
	pipe.Incr(ctx, pendingKey(inboxID))
	pipe.Expire(ctx, pendingKey(inboxID), 48*time.Hour)
	_, err := pipe.Exec(ctx)
	return err
}

func (q *Queue) DecrWarmupPending(ctx context.Context, inboxID string) error {
	n, err := q.client.Decr(ctx, pendingKey(inboxID)).Result()
	if err == nil && n < 0 {
		q.client.Set(ctx, pendingKey(inboxID), 0, 48*time.Hour)
	}
	return err
}

// WarmupPending returns the in-flight warmup job count for an inbox.
func (q *Queue) WarmupPending(ctx context.Context, inboxID string) (int, error) {
	n, err := q.client.Get(ctx, pendingKey(inboxID)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}

// ClaimDailyReset atomically claims the daily reset for the given calendar
// date. Exactly one caller per date observes claimed=true.
func (q *Queue) ClaimDailyReset(ctx context.Context, date string) (bool, error) {
	n, err := q.resetScript.Run(ctx, q.client, []string{outreach.WarmupLastResetKey}, date).Int()
	if err != nil {
		return false, fmt.Errorf("daily reset claim: %w", err)
	}
	return n == 1, nil
}
