package worker

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/driftmail/outreach/internal/outreach"
)

func newTestDailyReset(t *testing.T) (*DailyResetWorker, sqlmock.Sqlmock) {
	db, mock := setupTestDB(t)
	dr := NewDailyResetWorker(db, nil)
	dr.ctx = context.Background()
	return dr, mock
}

func TestDailyResetClaimWinsOncePerLocalDay(t *testing.T) {
	dr, mock := newTestDailyReset(t)
	teamID := uuid.New()

	mock.ExpectExec(`last_warmup_reset_date = \$1`).
		WithArgs("2026-08-25", teamID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`last_warmup_reset_date = \$1`).
		WithArgs("2026-08-25", teamID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	claimed, err := dr.claimTeamReset(teamID, "2026-08-25")
	if err != nil {
		t.Fatalf("claimTeamReset: %v", err)
	}
	if !claimed {
		t.Fatal("first claim for the day should win")
	}

	claimed, err = dr.claimTeamReset(teamID, "2026-08-25")
	if err != nil {
		t.Fatalf("claimTeamReset: %v", err)
	}
	if claimed {
		t.Error("repeat claim for the same day must lose")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDailyResetRollsCountersAndAdvancesWarmups(t *testing.T) {
	dr, mock := newTestDailyReset(t)
	teamID := uuid.New()

	// Inbox and warmup daily counters are distinct and both zeroed.
	mock.ExpectExec(`UPDATE inboxes SET sent_today = 0`).
		WithArgs(teamID).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`received_today = 0`).
		WithArgs(teamID).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`current_day = current_day \+ 1`).
		WithArgs(teamID).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`current_day > \$4`).
		WithArgs(outreach.WarmupMaintaining, teamID, outreach.WarmupRamping, WarmupGraduationDay).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := dr.resetTeam(resetTeam{id: teamID, timezone: "America/New_York"}, "2026-08-25")
	if err != nil {
		t.Fatalf("resetTeam: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDailyResetCeilingCompletesWarmups(t *testing.T) {
	dr, mock := newTestDailyReset(t)
	teamID := uuid.New()

	mock.ExpectExec(`UPDATE inboxes SET sent_today = 0`).
		WithArgs(teamID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`received_today = 0`).
		WithArgs(teamID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`current_day = current_day \+ 1`).
		WithArgs(teamID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`current_day > \$4`).
		WithArgs(outreach.WarmupMaintaining, teamID, outreach.WarmupRamping, WarmupGraduationDay).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`enabled = FALSE`).
		WithArgs(outreach.WarmupCompleted, teamID, 45).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := dr.resetTeam(resetTeam{id: teamID, timezone: "UTC", warmupCeilingDays: 45}, "2026-08-25")
	if err != nil {
		t.Fatalf("resetTeam: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
