package worker

import (
	"context"
	"database/sql/driver"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func newTestVariantShifter(t *testing.T) (*VariantShifter, sqlmock.Sqlmock) {
	db, mock := setupTestDB(t)
	vs := NewVariantShifter(db, nil)
	vs.ctx = context.Background()
	return vs, mock
}

func variantStatsRows(rows [][]driver.Value) *sqlmock.Rows {
	r := sqlmock.NewRows([]string{"id", "weight", "is_winner", "sent_count", "open_count", "click_count", "reply_count"})
	for _, row := range rows {
		r.AddRow(row...)
	}
	return r
}

func TestShifterDeclaresWinnerAtHighConfidence(t *testing.T) {
	vs, mock := newTestVariantShifter(t)
	stepID, aID, bID := uuid.New(), uuid.New(), uuid.New()

	// 60% vs 30% open rate over 200 sends each is far past 95% confidence.
	mock.ExpectQuery("FROM sequence_variants").
		WithArgs(stepID).
		WillReturnRows(variantStatsRows([][]driver.Value{
			{aID.String(), 50, false, 200, 120, 10, 8},
			{bID.String(), 50, false, 200, 60, 4, 3},
		}))
	mock.ExpectExec("UPDATE sequence_variants").
		WithArgs(100, true, aID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE sequence_variants").
		WithArgs(0, false, bID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := vs.evaluateStep(stepID); err != nil {
		t.Fatalf("evaluateStep: %v", err)
	}
	if got := vs.Stats()["winners_declared"]; got != 1 {
		t.Errorf("winners_declared = %d, want 1", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestShifterPartialShiftAtModerateConfidence(t *testing.T) {
	vs, mock := newTestVariantShifter(t)
	stepID, aID, bID := uuid.New(), uuid.New(), uuid.New()

	// 48% vs 40% over 100 sends each lands near 87% confidence, in the
	// 0.80 band: leader 75, trailer 25.
	mock.ExpectQuery("FROM sequence_variants").
		WithArgs(stepID).
		WillReturnRows(variantStatsRows([][]driver.Value{
			{aID.String(), 50, false, 100, 48, 5, 4},
			{bID.String(), 50, false, 100, 40, 5, 3},
		}))
	mock.ExpectExec("UPDATE sequence_variants").
		WithArgs(75, false, aID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE sequence_variants").
		WithArgs(25, false, bID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := vs.evaluateStep(stepID); err != nil {
		t.Fatalf("evaluateStep: %v", err)
	}
	if got := vs.Stats()["shifts_applied"]; got != 1 {
		t.Errorf("shifts_applied = %d, want 1", got)
	}
	if got := vs.Stats()["winners_declared"]; got != 0 {
		t.Errorf("winners_declared = %d, want 0", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestShifterWaitsForSampleFloor(t *testing.T) {
	vs, mock := newTestVariantShifter(t)
	stepID, aID, bID := uuid.New(), uuid.New(), uuid.New()

	// One variant below 50 sends: no shift, no writes.
	mock.ExpectQuery("FROM sequence_variants").
		WithArgs(stepID).
		WillReturnRows(variantStatsRows([][]driver.Value{
			{aID.String(), 50, false, 200, 120, 10, 8},
			{bID.String(), 50, false, 30, 5, 0, 0},
		}))

	if err := vs.evaluateStep(stepID); err != nil {
		t.Fatalf("evaluateStep: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestShifterSkipsSettledExperiments(t *testing.T) {
	vs, mock := newTestVariantShifter(t)
	stepID, aID, bID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery("FROM sequence_variants").
		WithArgs(stepID).
		WillReturnRows(variantStatsRows([][]driver.Value{
			{aID.String(), 100, true, 400, 220, 20, 15},
			{bID.String(), 0, false, 200, 60, 4, 3},
		}))

	if err := vs.evaluateStep(stepID); err != nil {
		t.Fatalf("evaluateStep: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
