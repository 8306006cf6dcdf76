package redis

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-session/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Session machines live in process; the local map is the source of truth.
//   - Redis holds a liveness marker per open session so operators can count
//     sessions across instances. Every lookup extends the marker's TTL, so it
//     only lapses for sessions idle longer than ttl or when an instance dies.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	logger   *slog.Logger
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration, logger *slog.Logger) *SessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		logger:   logger,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	// best-effort liveness marker
	marker := session.CreatedAt.UTC().Format(time.RFC3339)
	if err := s.client.Set(context.Background(), s.key(session.ID), marker, s.ttl).Err(); err != nil {
		s.logger.Warn("session marker write failed", "session_id", session.ID, "error", err)
	}
}

func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	s.mu.RLock()
	session, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if err := s.client.Expire(context.Background(), s.key(sessionID), s.ttl).Err(); err != nil {
		s.logger.Warn("session marker refresh failed", "session_id", sessionID, "error", err)
	}
	return session, true
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	_ = s.client.Del(context.Background(), s.key(sessionID)).Err()
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:session:" + sessionID
}
