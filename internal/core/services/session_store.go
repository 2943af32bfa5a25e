package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poyrazK/hora/internal/core/domain"
	"github.com/poyrazK/hora/internal/core/ports"
)

// SessionStore keeps the durable session rows and the fast-path cache
// entries consistent. The cache entry is the authoritative liveness signal:
// a durable row without a cache entry must never be left behind, so a failed
// cache write compensates by deleting the row it just inserted.
type SessionStore struct {
	repo   ports.AuthRepository
	cache  ports.SessionCache
	logger *slog.Logger
}

func NewSessionStore(repo ports.AuthRepository, cache ports.SessionCache, logger *slog.Logger) *SessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{repo: repo, cache: cache, logger: logger}
}

// Create issues a new session for the user under the realm's policy.
// The capacity check counts non-expired durable rows; count-then-insert is
// racy under concurrent logins, so a post-insert re-count backs out the
// insert when a racer pushed the user past the cap. The window is narrow,
// not eliminated.
func (s *SessionStore) Create(ctx context.Context, user *domain.User, realm *domain.Realm, data json.RawMessage) (*domain.Session, error) {
	policy := realm.Config.Sessions
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	count, err := s.repo.CountActiveSessions(ctx, user.ID, now)
	if err != nil {
		return nil, storeErr("count sessions", err)
	}
	if count >= policy.MaxCount {
		return nil, domain.ErrCapacityExceeded
	}

	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	sess := &domain.Session{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Data:      data,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Duration(policy.Duration)),
	}

	if err := s.repo.CreateSession(ctx, sess); err != nil {
		return nil, storeErr("create session", err)
	}

	recount, err := s.repo.CountActiveSessions(ctx, user.ID, now)
	if err == nil && recount > policy.MaxCount {
		s.compensate(ctx, sess.ID, "capacity overshoot")
		return nil, domain.ErrCapacityExceeded
	}

	ttl := time.Until(sess.ExpiresAt)
	if err := s.cache.Put(ctx, sess.ID, ttl); err != nil {
		// A durable row that the fast path cannot see is an invariant
		// violation, not a degraded mode.
		s.compensate(ctx, sess.ID, "cache write failed")
		return nil, storeErr("cache session", err)
	}

	return sess, nil
}

func (s *SessionStore) compensate(ctx context.Context, sessionID, reason string) {
	if err := s.repo.DeleteSessionByID(ctx, sessionID); err != nil {
		s.logger.Error("failed to roll back session row", "session_id", sessionID, "reason", reason, "error", err)
		return
	}
	s.logger.Warn("rolled back session creation", "session_id", sessionID, "reason", reason)
}

// Check is the hot path: a pure cache existence lookup, never touching the
// durable store. Presence means valid; absence means expired or revoked.
func (s *SessionStore) Check(ctx context.Context, sessionID string) (bool, error) {
	ok, err := s.cache.Exists(ctx, sessionID)
	if err != nil {
		return false, storeErr("check session", err)
	}
	return ok, nil
}

// Revoke clears the fast-path entry unconditionally, then deletes the
// durable row scoped to the realm through the owning user. It reports true
// only when a durable row was actually removed. If the cache delete fails
// the durable row is left alone: removing it while a live cache entry
// survives would make a revoked session keep validating.
func (s *SessionStore) Revoke(ctx context.Context, sessionID, realmID string) (bool, error) {
	if err := s.cache.Delete(ctx, sessionID); err != nil {
		return false, storeErr("evict session", err)
	}
	deleted, err := s.repo.DeleteSession(ctx, sessionID, realmID)
	if err != nil {
		return false, storeErr("delete session", err)
	}
	return deleted, nil
}

// RevokeAllForUser evicts every cache entry of the user's sessions. The
// durable rows are expected to be removed by the caller (user deletion
// cascades over them).
func (s *SessionStore) RevokeAllForUser(ctx context.Context, userID string) error {
	ids, err := s.repo.ListSessionIDsForUser(ctx, userID)
	if err != nil {
		return storeErr("list sessions", err)
	}
	for _, id := range ids {
		if err := s.cache.Delete(ctx, id); err != nil {
			return storeErr("evict session", err)
		}
	}
	return nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, op, err)
}

var _ ports.SessionService = (*SessionStore)(nil)
