package worker

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/driftmail/outreach/internal/queue"
	"github.com/driftmail/outreach/internal/suppression"
)

type stubStats map[string]int64

func (s stubStats) Stats() map[string]int64 { return s }

func setupOpsServer(t *testing.T) (*OpsServer, sqlmock.Sqlmock, *queue.Queue) {
	t.Helper()
	db, mock := setupTestDB(t)

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	q := queue.New(client)

	srv := NewOpsServer(db, q, NewReplyProcessor(db, nil), suppression.NewStore(db))
	return srv, mock, q
}

func TestOpsHealthz(t *testing.T) {
	srv, _, _ := setupOpsServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestOpsStatsAggregation(t *testing.T) {
	srv, _, _ := setupOpsServer(t)
	srv.AddSource("send_workers", stubStats{"sent": 12, "errors": 1})
	srv.AddSource("scheduler", stubStats{"scheduled": 40})

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rec.Code)
	}
	var got map[string]map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if got["send_workers"]["sent"] != 12 || got["scheduler"]["scheduled"] != 40 {
		t.Errorf("unexpected stats payload: %v", got)
	}
}

func TestOpsTrackOpenServesPixel(t *testing.T) {
	srv, mock, _ := setupOpsServer(t)
	emailID, campaignID, variantID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery("SELECT campaign_id, variant_id FROM emails").
		WithArgs(emailID).
		WillReturnRows(sqlmock.NewRows([]string{"campaign_id", "variant_id"}).
			AddRow(campaignID.String(), variantID.String()))
	mock.ExpectExec("SELECT increment_email_open").
		WithArgs(emailID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO email_events").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("SELECT increment_campaign_opens").
		WithArgs(campaignID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("SELECT increment_variant_stat").
		WithArgs(variantID, "opens").WillReturnResult(sqlmock.NewResult(0, 0))

	req := httptest.NewRequest(http.MethodGet, "/track/open/"+emailID.String(), nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("open status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/gif" {
		t.Errorf("content type = %q", ct)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestOpsTrackOpenBadIDStillServesPixel(t *testing.T) {
	srv, _, _ := setupOpsServer(t)

	req := httptest.NewRequest(http.MethodGet, "/track/open/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	// The pixel must render even for garbage so broken links never show an
	// error in the recipient's client.
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/gif" {
		t.Errorf("bad ID should still serve the pixel: status=%d", rec.Code)
	}
}

func TestOpsTrackClickRedirects(t *testing.T) {
	srv, mock, _ := setupOpsServer(t)
	emailID := uuid.New()

	mock.ExpectQuery("SELECT campaign_id, variant_id FROM emails").
		WithArgs(emailID).
		WillReturnRows(sqlmock.NewRows([]string{"campaign_id", "variant_id"})) // no row

	mock.ExpectExec("SELECT increment_email_click").
		WithArgs(emailID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO email_events").
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodGet,
		"/track/click/"+emailID.String()+"?url=https%3A%2F%2Fexample.com%2Fpricing", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("click status = %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "https://example.com/pricing" {
		t.Errorf("redirect location = %q", loc)
	}
}

func TestOpsInboundBounceValidation(t *testing.T) {
	srv, _, _ := setupOpsServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"garbage json", "{not json", http.StatusBadRequest},
		{"bad email id", `{"emailId":"nope","bounceType":"hard"}`, http.StatusBadRequest},
		{"bad bounce type", `{"emailId":"` + uuid.NewString() + `","bounceType":"weird"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/inbound/bounce", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			srv.Routes().ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestOpsInboundBounceEnqueues(t *testing.T) {
	srv, mock, q := setupOpsServer(t)
	emailID, leadID, inboxID, campaignID := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery("SELECT lead_id, inbox_id, campaign_id FROM emails").
		WithArgs(emailID).
		WillReturnRows(sqlmock.NewRows([]string{"lead_id", "inbox_id", "campaign_id"}).
			AddRow(leadID.String(), inboxID.String(), campaignID.String()))

	body := `{"emailId":"` + emailID.String() + `","bounceType":"soft","bounceReason":"mailbox full"}`
	req := httptest.NewRequest(http.MethodPost, "/inbound/bounce", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("bounce status = %d", rec.Code)
	}
	depth, err := q.Depth(req.Context(), queue.QueueBounceProcess)
	if err != nil || depth != 1 {
		t.Errorf("bounce queue depth = %d err=%v, want 1", depth, err)
	}
}
