package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/driftmail/outreach/internal/outreach"
	"github.com/driftmail/outreach/internal/queue"
)

func newTestSendPool(t *testing.T) (*SendWorkerPool, sqlmock.Sqlmock) {
	db, mock := setupTestDB(t)
	p := NewSendWorkerPool(db, nil, nil, nil, 1)
	p.ctx = context.Background()
	return p, mock
}

func TestAuthFailureDisconnectsInbox(t *testing.T) {
	p, mock := newTestSendPool(t)
	inboxID, emailID := uuid.New(), uuid.New()
	sendErr := errors.New("oauth2: invalid_grant token expired")

	mock.ExpectExec("UPDATE inboxes").
		WithArgs(outreach.InboxError, "disconnected: oauth2: invalid_grant token expired", inboxID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE warmup_states").
		WithArgs(outreach.WarmupPaused, inboxID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO inbox_events").
		WithArgs(sqlmock.AnyArg(), inboxID, "auth_error", "disconnected: oauth2: invalid_grant token expired").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE emails").
		WithArgs(outreach.EmailFailed, "inbox auth failure: oauth2: invalid_grant token expired", emailID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	p.handleSendError(queue.Job{}, &sentEmail{ID: emailID, InboxID: inboxID}, sendErr)

	if got := p.Stats()["total_failed"]; got != 1 {
		t.Errorf("total_failed = %d, want 1", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
