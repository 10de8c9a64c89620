package worker

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/driftmail/outreach/internal/outreach"
	"github.com/driftmail/outreach/internal/pkg/logger"
	"github.com/driftmail/outreach/internal/queue"
	"github.com/driftmail/outreach/internal/suppression"
)

// 1x1 transparent GIF served for open-tracking pixels.
var pixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00,
	0x80, 0x00, 0x00, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x2c,
	0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x02,
	0x02, 0x44, 0x01, 0x00, 0x3b,
}

// StatsSource exposes a worker's counters for the /stats endpoint.
type StatsSource interface {
	Stats() map[string]int64
}

// OpsServer is the worker process's HTTP surface: health and stats for
// operators, tracking pixels and redirects for engagement, and inbound
// webhooks for replies and bounce notifications.
type OpsServer struct {
	db       *sql.DB
	q        *queue.Queue
	counters *Counters
	replies  *ReplyProcessor
	suppress *suppression.Store
	sources  map[string]StatsSource
}

// NewOpsServer creates the ops surface. Register each running worker with
// AddSource before calling Routes.
func NewOpsServer(db *sql.DB, q *queue.Queue, replies *ReplyProcessor, suppress *suppression.Store) *OpsServer {
	return &OpsServer{
		db:       db,
		q:        q,
		counters: NewCounters(db),
		replies:  replies,
		suppress: suppress,
		sources:  make(map[string]StatsSource),
	}
}

// AddSource registers a worker under a name for /stats aggregation.
func (s *OpsServer) AddSource(name string, src StatsSource) {
	s.sources[name] = src
}

// Routes builds the chi router.
func (s *OpsServer) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/stats", s.handleStats)

	r.Get("/track/open/{emailID}", s.handleOpen)
	r.Get("/track/click/{emailID}", s.handleClick)
	r.Get("/track/unsubscribe/{emailID}", s.handleUnsubscribe)

	r.Post("/inbound/reply", s.handleInboundReply)
	r.Post("/inbound/bounce", s.handleInboundBounce)
	return r
}

func (s *OpsServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		http.Error(w, "database unreachable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *OpsServer) handleStats(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]map[string]int64, len(s.sources))
	for name, src := range s.sources {
		out[name] = src.Stats()
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// emailContext resolves the campaign and variant attached to an email for
// the counter pipeline. Both may be nil.
func (s *OpsServer) emailContext(r *http.Request, emailID uuid.UUID) (campaignID, variantID *uuid.UUID) {
	var cid uuid.UUID
	var vid uuid.NullUUID
	err := s.db.QueryRowContext(r.Context(),
		`SELECT campaign_id, variant_id FROM emails WHERE id = $1`, emailID).Scan(&cid, &vid)
	if err != nil {
		return nil, nil
	}
	campaignID = &cid
	if vid.Valid {
		variantID = &vid.UUID
	}
	return campaignID, variantID
}

func (s *OpsServer) handleOpen(w http.ResponseWriter, r *http.Request) {
	emailID, err := uuid.Parse(chi.URLParam(r, "emailID"))
	if err != nil {
		s.servePixel(w)
		return
	}
	campaignID, variantID := s.emailContext(r, emailID)
	if err := s.counters.TrackOpen(r.Context(), emailID, campaignID, variantID); err != nil {
		log.Printf("[Ops] Open tracking failed for %s: %v", emailID, err)
	}
	s.servePixel(w)
}

func (s *OpsServer) handleClick(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	emailID, err := uuid.Parse(chi.URLParam(r, "emailID"))
	if err != nil {
		http.Error(w, "bad link", http.StatusBadRequest)
		return
	}
	campaignID, variantID := s.emailContext(r, emailID)
	if err := s.counters.TrackClick(r.Context(), emailID, campaignID, variantID); err != nil {
		log.Printf("[Ops] Click tracking failed for %s: %v", emailID, err)
	}
	if target == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

func (s *OpsServer) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	emailID, err := uuid.Parse(chi.URLParam(r, "emailID"))
	if err != nil {
		http.Error(w, "bad link", http.StatusBadRequest)
		return
	}

	var teamID, leadID uuid.UUID
	var toEmail string
	err = s.db.QueryRowContext(r.Context(),
		`SELECT team_id, lead_id, to_email FROM emails WHERE id = $1`, emailID).
		Scan(&teamID, &leadID, &toEmail)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	if err := s.suppress.Add(r.Context(), teamID, toEmail, outreach.SuppressUnsubscribe, "list-unsubscribe"); err != nil {
		log.Printf("[Ops] Unsubscribe suppression failed for %s: %v", emailID, err)
	}
	s.applyLeadEvent(r, leadID, outreach.EventUnsubscribe)
	s.counters.RecordEmailEvent(r.Context(), emailID, "unsubscribed", "")

	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("You have been unsubscribed."))
}

func (s *OpsServer) applyLeadEvent(r *http.Request, leadID uuid.UUID, event outreach.LeadEvent) {
	var current outreach.LeadStatus
	if err := s.db.QueryRowContext(r.Context(),
		`SELECT status FROM leads WHERE id = $1`, leadID).Scan(&current); err != nil {
		log.Printf("[Ops] Lead %s status read failed: %v", leadID, err)
		return
	}
	next, ok := outreach.Transition(current, event)
	if !ok || next == current {
		return
	}
	if _, err := s.db.ExecContext(r.Context(), `
		UPDATE leads SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		next, leadID, current); err != nil {
		log.Printf("[Ops] Lead %s transition failed: %v", leadID, err)
	}
}

type inboundReplyPayload struct {
	FromEmail  string    `json:"fromEmail"`
	ToEmail    string    `json:"toEmail"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	MessageID  string    `json:"messageId"`
	InReplyTo  string    `json:"inReplyTo"`
	References string    `json:"references"`
	ThreadID   string    `json:"threadId"`
	ReceivedAt time.Time `json:"receivedAt"`
}

func (s *OpsServer) handleInboundReply(w http.ResponseWriter, r *http.Request) {
	var p inboundReplyPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if p.ReceivedAt.IsZero() {
		p.ReceivedAt = time.Now().UTC()
	}

	matched, err := s.replies.ProcessInbound(r.Context(), &InboundMessage{
		FromEmail:  p.FromEmail,
		ToEmail:    p.ToEmail,
		Subject:    p.Subject,
		Body:       p.Body,
		MessageID:  p.MessageID,
		InReplyTo:  p.InReplyTo,
		References: p.References,
		ThreadID:   p.ThreadID,
		ReceivedAt: p.ReceivedAt,
	})
	if err != nil {
		log.Printf("[Ops] Inbound reply processing failed: %v", err)
		http.Error(w, "processing failed", http.StatusInternalServerError)
		return
	}
	if !matched {
		log.Printf("[Ops] Inbound reply from %s matched no tracked thread", logger.RedactEmail(p.FromEmail))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"matched": matched})
}

type inboundBouncePayload struct {
	EmailID        string `json:"emailId"`
	BounceType     string `json:"bounceType"`
	BounceReason   string `json:"bounceReason"`
	DiagnosticCode string `json:"diagnosticCode"`
}

// handleInboundBounce accepts provider delivery-failure notifications and
// queues them for the bounce processor.
func (s *OpsServer) handleInboundBounce(w http.ResponseWriter, r *http.Request) {
	var p inboundBouncePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	emailID, err := uuid.Parse(p.EmailID)
	if err != nil {
		http.Error(w, "invalid email id", http.StatusBadRequest)
		return
	}
	switch p.BounceType {
	case "hard", "soft", "complaint":
	default:
		http.Error(w, "invalid bounce type", http.StatusBadRequest)
		return
	}

	var leadID, inboxID, campaignID uuid.UUID
	err = s.db.QueryRowContext(r.Context(),
		`SELECT lead_id, inbox_id, campaign_id FROM emails WHERE id = $1`, emailID).
		Scan(&leadID, &inboxID, &campaignID)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	if _, err := s.q.Enqueue(r.Context(), queue.QueueBounceProcess, "", queue.BounceJob{
		EmailID:        emailID.String(),
		LeadID:         leadID.String(),
		InboxID:        inboxID.String(),
		CampaignID:     campaignID.String(),
		BounceType:     p.BounceType,
		BounceReason:   p.BounceReason,
		DiagnosticCode: p.DiagnosticCode,
	}, 0); err != nil {
		log.Printf("[Ops] Bounce enqueue failed for %s: %v", emailID, err)
		http.Error(w, "enqueue failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (s *OpsServer) servePixel(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.Write(pixelGIF)
}
