package worker

import (
	"context"
	"math/rand"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/driftmail/outreach/internal/outreach"
)

// Seed 1's first Float64 draw is ~0.60, below the synthetic open rate, so
// every recordSend from a real inbox registers an open.
func newTestWarmupConsumer(t *testing.T) (*WarmupConsumer, sqlmock.Sqlmock) {
	db, mock := setupTestDB(t)
	wc := NewWarmupConsumer(db, nil, nil)
	wc.ctx = context.Background()
	wc.rng = rand.New(rand.NewSource(1))
	return wc, mock
}

func TestRecordSendBumpsBothSentCounters(t *testing.T) {
	wc, mock := newTestWarmupConsumer(t)
	from := &warmupParty{id: uuid.New().String(), email: "a@driftmail.io"}
	to := &warmupParty{id: uuid.New().String(), email: "b@driftmail.io"}

	mock.ExpectExec(`warmup_states\s+SET sent_today = sent_today \+ 1`).
		WithArgs(from.id).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`inboxes\s+SET sent_today = sent_today \+ 1`).
		WithArgs(from.id).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`received_today = received_today \+ 1`).
		WithArgs(to.id).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`opened_total = opened_total \+ 1`).
		WithArgs(from.id).WillReturnResult(sqlmock.NewResult(0, 1))

	wc.recordSend(from, to, outreach.WarmupTypeMain)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRecordSendReplyBumpsRepliedCounters(t *testing.T) {
	wc, mock := newTestWarmupConsumer(t)
	from := &warmupParty{id: uuid.New().String(), email: "a@driftmail.io"}
	to := &warmupParty{id: uuid.New().String(), email: "b@driftmail.io"}

	mock.ExpectExec(`warmup_states\s+SET sent_today = sent_today \+ 1`).
		WithArgs(from.id).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`inboxes\s+SET sent_today = sent_today \+ 1`).
		WithArgs(from.id).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`replied_today = replied_today \+ 1`).
		WithArgs(from.id).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`received_today = received_today \+ 1`).
		WithArgs(to.id).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`opened_total = opened_total \+ 1`).
		WithArgs(from.id).WillReturnResult(sqlmock.NewResult(0, 1))

	wc.recordSend(from, to, outreach.WarmupTypeReply)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRecordSendPartnerSenderOnlyCountsRecipient(t *testing.T) {
	wc, mock := newTestWarmupConsumer(t)
	from := &warmupParty{id: uuid.New().String(), email: "partner@warmupnet.io", partner: true}
	to := &warmupParty{id: uuid.New().String(), email: "a@driftmail.io"}

	// Partner mailboxes carry no warmup state; only the real recipient's
	// received counter moves.
	mock.ExpectExec(`received_today = received_today \+ 1`).
		WithArgs(to.id).WillReturnResult(sqlmock.NewResult(0, 1))

	wc.recordSend(from, to, outreach.WarmupTypeReply)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
