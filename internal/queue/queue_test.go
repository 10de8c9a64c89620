package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client), mr
}

func TestEnqueueDequeueRoundTrip(t *testing.T) {
	q, _ := setupQueue(t)
	ctx := context.Background()

	payload := EmailSendJob{EmailID: "e1", CampaignID: "c1", LeadID: "l1", InboxID: "i1", SequenceStep: 1}
	enqueued, err := q.Enqueue(ctx, QueueEmailSend, "", payload, 0)
	if err != nil || !enqueued {
		t.Fatalf("Enqueue: enqueued=%v err=%v", enqueued, err)
	}

	jobs, err := q.Dequeue(ctx, QueueEmailSend, 10)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}

	var got EmailSendJob
	if err := json.Unmarshal(jobs[0].Payload, &got); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if got.EmailID != "e1" || got.SequenceStep != 1 {
		t.Errorf("payload mismatch: %+v", got)
	}

	// Queue drained.
	jobs, _ = q.Dequeue(ctx, QueueEmailSend, 10)
	if len(jobs) != 0 {
		t.Errorf("queue should be empty, got %d jobs", len(jobs))
	}
}

func TestEnqueueDeterministicIDIdempotent(t *testing.T) {
	q, _ := setupQueue(t)
	ctx := context.Background()

	id := DailyJobID("c1", "l1", 2, time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC))
	if id != "campaign-c1-l1-2-20260825" {
		t.Fatalf("unexpected daily job ID %q", id)
	}

	first, err := q.Enqueue(ctx, QueueEmailSend, id, EmailSendJob{EmailID: "e1"}, 0)
	if err != nil || !first {
		t.Fatalf("first enqueue: %v %v", first, err)
	}
	second, err := q.Enqueue(ctx, QueueEmailSend, id, EmailSendJob{EmailID: "e1"}, 0)
	if err != nil {
		t.Fatalf("second enqueue: %v", err)
	}
	if second {
		t.Error("duplicate daily job ID must be suppressed")
	}

	if depth, _ := q.Depth(ctx, QueueEmailSend); depth != 1 {
		t.Errorf("depth = %d, want 1", depth)
	}
}

func TestDelayedJobsInvisibleUntilDue(t *testing.T) {
	q, _ := setupQueue(t)
	ctx := context.Background()

	if _, err := q.Enqueue(ctx, QueueWarmupSend, "", WarmupSendJob{FromInboxID: "a"}, 2*time.Hour); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := q.Enqueue(ctx, QueueWarmupSend, "", WarmupSendJob{FromInboxID: "b"}, 0); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	if depth, _ := q.Depth(ctx, QueueWarmupSend); depth != 2 {
		t.Errorf("depth should count delayed jobs, got %d", depth)
	}

	// Only the due job comes back; the delayed one stays in the ZSET.
	jobs, _ := q.Dequeue(ctx, QueueWarmupSend, 10)
	if len(jobs) != 1 {
		t.Fatalf("expected only the due job, got %d", len(jobs))
	}
	var got WarmupSendJob
	json.Unmarshal(jobs[0].Payload, &got)
	if got.FromInboxID != "b" {
		t.Errorf("wrong job dequeued: %+v", got)
	}
	if depth, _ := q.Depth(ctx, QueueWarmupSend); depth != 1 {
		t.Errorf("delayed job should remain, depth=%d", depth)
	}
}

func TestRetryBackoffAndDeadLetter(t *testing.T) {
	q, _ := setupQueue(t)
	ctx := context.Background()

	if _, err := q.Enqueue(ctx, QueueEmailSend, "", EmailSendJob{EmailID: "e1"}, 0); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	jobs, _ := q.Dequeue(ctx, QueueEmailSend, 1)
	if len(jobs) != 1 {
		t.Fatalf("expected a job")
	}
	job := jobs[0]

	// Retry with backoff: job is delayed, not immediately visible.
	retried, err := q.Retry(ctx, job, time.Hour)
	if err != nil || !retried {
		t.Fatalf("Retry: retried=%v err=%v", retried, err)
	}
	if got, _ := q.Dequeue(ctx, QueueEmailSend, 10); len(got) != 0 {
		t.Error("retried job must respect backoff")
	}

	// Exhaust attempts: the job dead-letters.
	job.Attempts = MaxAttempts - 1
	retried, err = q.Retry(ctx, job, 0)
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if retried {
		t.Error("job past MaxAttempts must not be retried")
	}
	if n, _ := q.DeadLetterDepth(ctx, QueueEmailSend); n != 1 {
		t.Errorf("dead letter depth = %d, want 1", n)
	}
}

func TestDequeueDeadLettersExpiredJobs(t *testing.T) {
	q, _ := setupQueue(t)
	ctx := context.Background()

	// Hand-craft a job whose deadline already passed.
	job := Job{
		ID:         "expired",
		Queue:      QueueEmailSend,
		Payload:    json.RawMessage(`{}`),
		EnqueuedAt: time.Now().Add(-48 * time.Hour),
		Deadline:   time.Now().Add(-24 * time.Hour),
	}
	member, _ := json.Marshal(job)
	q.Client().ZAdd(ctx, "queue:z:"+QueueEmailSend, redis.Z{
		Score:  float64(time.Now().Add(-time.Minute).UnixMilli()),
		Member: member,
	})

	jobs, err := q.Dequeue(ctx, QueueEmailSend, 10)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("expired job must not be returned, got %d", len(jobs))
	}
	if n, _ := q.DeadLetterDepth(ctx, QueueEmailSend); n != 1 {
		t.Errorf("expired job should be dead-lettered, depth=%d", n)
	}
}

func TestWarmupPairDedup(t *testing.T) {
	q, _ := setupQueue(t)
	ctx := context.Background()

	fresh, err := q.MarkWarmupPair(ctx, "a", "b", "main")
	if err != nil || !fresh {
		t.Fatalf("first mark: fresh=%v err=%v", fresh, err)
	}
	fresh, _ = q.MarkWarmupPair(ctx, "a", "b", "main")
	if fresh {
		t.Error("second mark within TTL must not be fresh")
	}

	seen, _ := q.WarmupPairSeen(ctx, "a", "b", "main")
	if !seen {
		t.Error("pair should be seen")
	}
	// Direction and type are part of the key.
	if seen, _ := q.WarmupPairSeen(ctx, "b", "a", "main"); seen {
		t.Error("reverse direction should be unseen")
	}
	if seen, _ := q.WarmupPairSeen(ctx, "a", "b", "reply"); seen {
		t.Error("other message type should be unseen")
	}
}

func TestWarmupPendingCounter(t *testing.T) {
	q, _ := setupQueue(t)
	ctx := context.Background()

	if n, _ := q.WarmupPending(ctx, "inbox-1"); n != 0 {
		t.Errorf("initial pending = %d", n)
	}
	q.IncrWarmupPending(ctx, "inbox-1")
	q.IncrWarmupPending(ctx, "inbox-1")
	if n, _ := q.WarmupPending(ctx, "inbox-1"); n != 2 {
		t.Errorf("pending = %d, want 2", n)
	}
	q.DecrWarmupPending(ctx, "inbox-1")
	if n, _ := q.WarmupPending(ctx, "inbox-1"); n != 1 {
		t.Errorf("pending = %d, want 1", n)
	}

	// Decrement below zero clamps back to zero.
	q.DecrWarmupPending(ctx, "inbox-1")
	q.DecrWarmupPending(ctx, "inbox-1")
	if n, _ := q.WarmupPending(ctx, "inbox-1"); n != 0 {
		t.Errorf("pending should clamp at 0, got %d", n)
	}
}

func TestClaimDailyReset(t *testing.T) {
	q, _ := setupQueue(t)
	ctx := context.Background()

	claimed, err := q.ClaimDailyReset(ctx, "2026-08-25")
	if err != nil || !claimed {
		t.Fatalf("first claim: claimed=%v err=%v", claimed, err)
	}
	claimed, _ = q.ClaimDailyReset(ctx, "2026-08-25")
	if claimed {
		t.Error("same date must not be claimable twice")
	}
	claimed, _ = q.ClaimDailyReset(ctx, "2026-08-26")
	if !claimed {
		t.Error("next date should be claimable")
	}
}

func TestDequeueBatchLimit(t *testing.T) {
	q, _ := setupQueue(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := q.Enqueue(ctx, QueueBounceProcess, "", BounceJob{EmailID: "e"}, 0); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}
	jobs, _ := q.Dequeue(ctx, QueueBounceProcess, 3)
	if len(jobs) != 3 {
		t.Errorf("limit 3 returned %d jobs", len(jobs))
	}
	jobs, _ = q.Dequeue(ctx, QueueBounceProcess, 3)
	if len(jobs) != 2 {
		t.Errorf("remaining dequeue returned %d jobs", len(jobs))
	}
}
