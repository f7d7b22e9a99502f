package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"mixtape/internal/server/game"
	"mixtape/internal/server/storage"
)

const (
	// SessionTTL bounds how long an idle session survives; the game holds
	// session state in memory only.
	SessionTTL         = 24 * time.Hour
	CleanupJobInterval = 1 * time.Hour

	leaderboardTopCount = 5
)

// Sentinel errors surfaced to the transport layer
var (
	ErrValidation  = errors.New("name and three tracks required")
	ErrEmptyName   = errors.New("player name required")
	ErrNotFinished = errors.New("session not finished")
)

type sessionEntry struct {
	session  *game.Session
	lastSeen time.Time
}

// Service coordinates session state, round selection and storage
type Service struct {
	store    *storage.Store
	selector *game.Selector
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
	now      func() time.Time
}

// New creates a new service instance
func New(store *storage.Store, selector *game.Selector) *Service {
	return &Service{
		store:    store,
		selector: selector,
		sessions: make(map[string]*sessionEntry),
		now:      time.Now,
	}
}

// NewToken mints an opaque session token for the cookie layer
func (s *Service) NewToken() string {
	return uuid.NewString()
}

// session returns the session for a token, creating it lazily, and bumps
// its idle timer.
func (s *Service) session(token string) *game.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[token]
	if !ok {
		e = &sessionEntry{session: game.NewSession()}
		s.sessions[token] = e
	}
	e.lastSeen = s.now()
	return e.session
}

// lookup returns an existing session without creating one
func (s *Service) lookup(token string) (*game.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[token]
	if !ok {
		return nil, false
	}
	return e.session, true
}

// SessionCount returns the number of live sessions
func (s *Service) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// GetStorageHealth returns the storage component status
func (s *Service) GetStorageHealth() string {
	if s.store.IsHealthy() {
		return "ok"
	}
	return "degraded"
}

// RunCleanupJob periodically drops sessions idle past their TTL
func (s *Service) RunCleanupJob(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanupIdleSessions()
		}
	}
}

func (s *Service) cleanupIdleSessions() {
	cutoff := s.now().Add(-SessionTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, e := range s.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(s.sessions, token)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("cleanup: dropped %d idle session(s)", removed)
	}
}

// Shutdown drops all sessions and closes storage
func (s *Service) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make(map[string]*sessionEntry)

	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
