package suppression

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func setupTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Ana@Globex.COM", "ana@globex.com"},
		{"  ana@globex.com  ", "ana@globex.com"},
		{"ana@globex.com", "ana@globex.com"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsSuppressedLoadsAndCaches(t *testing.T) {
	db, mock := setupTestDB(t)
	store := NewStore(db)
	teamID := uuid.New()

	mock.ExpectQuery("SELECT email FROM suppressions").
		WithArgs(teamID).
		WillReturnRows(sqlmock.NewRows([]string{"email"}).
			AddRow("blocked@globex.com").
			AddRow("Spam@Globex.com"))

	hit, err := store.IsSuppressed(context.Background(), teamID, "Blocked@Globex.COM")
	if err != nil {
		t.Fatalf("IsSuppressed: %v", err)
	}
	if !hit {
		t.Error("normalized address should be suppressed")
	}

	// Second and third lookups are served from the cache: no further query
	// expectations.
	hit, err = store.IsSuppressed(context.Background(), teamID, "spam@globex.com")
	if err != nil || !hit {
		t.Errorf("cached lookup: hit=%v err=%v", hit, err)
	}
	hit, err = store.IsSuppressed(context.Background(), teamID, "fine@globex.com")
	if err != nil {
		t.Fatalf("IsSuppressed: %v", err)
	}
	if hit {
		t.Error("unlisted address must not be suppressed")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestIsSuppressedDegradesToDirectLookup(t *testing.T) {
	db, mock := setupTestDB(t)
	store := NewStore(db)
	teamID := uuid.New()

	mock.ExpectQuery("SELECT email FROM suppressions").
		WithArgs(teamID).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(teamID, "ana@globex.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	hit, err := store.IsSuppressed(context.Background(), teamID, "ana@globex.com")
	if err != nil {
		t.Fatalf("IsSuppressed: %v", err)
	}
	if !hit {
		t.Error("direct lookup fallback should report suppression")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAddNormalizesAndUpdatesCache(t *testing.T) {
	db, mock := setupTestDB(t)
	store := NewStore(db)
	teamID := uuid.New()

	// Prime the cache with an empty set.
	mock.ExpectQuery("SELECT email FROM suppressions").
		WithArgs(teamID).
		WillReturnRows(sqlmock.NewRows([]string{"email"}))
	if hit, _ := store.IsSuppressed(context.Background(), teamID, "ana@globex.com"); hit {
		t.Fatal("address suppressed before add")
	}

	mock.ExpectExec("INSERT INTO suppressions").
		WithArgs(sqlmock.AnyArg(), teamID, "ana@globex.com", ReasonHardBounce, "550 5.1.1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.Add(context.Background(), teamID, "Ana@Globex.COM", ReasonHardBounce, "550 5.1.1"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// The cache reflects the add without another query.
	hit, err := store.IsSuppressed(context.Background(), teamID, "ana@globex.com")
	if err != nil || !hit {
		t.Errorf("after add: hit=%v err=%v", hit, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestInvalidateForcesReload(t *testing.T) {
	db, mock := setupTestDB(t)
	store := NewStore(db)
	teamID := uuid.New()

	mock.ExpectQuery("SELECT email FROM suppressions").
		WithArgs(teamID).
		WillReturnRows(sqlmock.NewRows([]string{"email"}))
	store.IsSuppressed(context.Background(), teamID, "ana@globex.com")

	store.Invalidate(teamID)

	// Another process added a row; the reload sees it.
	mock.ExpectQuery("SELECT email FROM suppressions").
		WithArgs(teamID).
		WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow("ana@globex.com"))
	hit, err := store.IsSuppressed(context.Background(), teamID, "ana@globex.com")
	if err != nil || !hit {
		t.Errorf("after invalidate: hit=%v err=%v", hit, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
