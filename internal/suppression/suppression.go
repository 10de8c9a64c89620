// Package suppression provides the team-scoped suppression list: addresses
// that must never be emailed again. Lookups are served from a per-team
// in-memory set refreshed on a TTL, so the scheduler's per-lead checks stay
// off the database hot path.
package suppression

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Reasons mirror the persisted enum.
const (
	ReasonHardBounce    = "hard_bounce"
	ReasonSpamComplaint = "spam_complaint"
	ReasonUnsubscribe   = "unsubscribe"
	ReasonManual        = "manual"
)

// cacheTTL bounds staleness of the in-memory set. Additions through this
// store update the cache immediately; additions from other processes become
// visible within the TTL.
const cacheTTL = 2 * time.Minute

type teamCache struct {
	emails    map[string]struct{}
	fetchedAt time.Time
}

// Store reads and writes the suppressions table with a per-team cache.
type Store struct {
	db    *sql.DB
	mu    sync.RWMutex
	cache map[uuid.UUID]*teamCache
}

// NewStore creates a suppression store.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:    db,
		cache: make(map[uuid.UUID]*teamCache),
	}
}

// Normalize lowercases and trims an address; suppression entries are always
// stored in this form.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsSuppressed reports whether the address is on the team's suppression
// list.
func (s *Store) IsSuppressed(ctx context.Context, teamID uuid.UUID, email string) (bool, error) {
	email = Normalize(email)

	s.mu.RLock()
	tc, ok := s.cache[teamID]
	s.mu.RUnlock()

	if ok && time.Since(tc.fetchedAt) < cacheTTL {
		_, hit := tc.emails[email]
		return hit, nil
	}

	tc, err := s.loadTeam(ctx, teamID)
	if err != nil {
		// Degrade to a direct lookup rather than failing the caller.
		var exists bool
		qerr := s.db.QueryRowContext(ctx, `
			SELECT EXISTS(SELECT 1 FROM suppressions WHERE team_id = $1 AND email = $2)
		`, teamID, email).Scan(&exists)
		if qerr != nil {
			return false, fmt.Errorf("suppression lookup: %w", qerr)
		}
		return exists, nil
	}

	_, hit := tc.emails[email]
	return hit, nil
}

// Add upserts a suppression entry. The (team, email) pair is unique; a
// repeat add keeps the original reason.
func (s *Store) Add(ctx context.Context, teamID uuid.UUID, email, reason, details string) error {
	email = Normalize(email)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO suppressions (id, team_id, email, reason, details, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (team_id, email) DO NOTHING
	`, uuid.New(), teamID, email, reason, details)
	if err != nil {
		return fmt.Errorf("add suppression: %w", err)
	}

	s.mu.Lock()
	if tc, ok := s.cache[teamID]; ok {
		tc.emails[email] = struct{}{}
	}
	s.mu.Unlock()
	return nil
}

// Invalidate drops the cached set for a team (used after bulk imports).
func (s *Store) Invalidate(teamID uuid.UUID) {
	s.mu.Lock()
	delete(s.cache, teamID)
	s.mu.Unlock()
}

func (s *Store) loadTeam(ctx context.Context, teamID uuid.UUID) (*teamCache, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT email FROM suppressions WHERE team_id = $1
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tc := &teamCache{
		emails:    make(map[string]struct{}),
		fetchedAt: time.Now(),
	}
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			continue
		}
		tc.emails[Normalize(email)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[teamID] = tc
	s.mu.Unlock()
	return tc, nil
}
