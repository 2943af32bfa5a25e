package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poyrazK/hora/internal/core/domain"
	"github.com/poyrazK/hora/internal/core/ports"
)

type authService struct {
	repo     ports.AuthRepository
	cache    ports.SessionCache
	sessions ports.SessionService
	logger   *slog.Logger
}

func NewAuthService(repo ports.AuthRepository, cache ports.SessionCache, sessions ports.SessionService, logger *slog.Logger) ports.AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &authService{repo: repo, cache: cache, sessions: sessions, logger: logger}
}

// Authenticate resolves a realm from an inbound key/secret pair. The pair is
// matched atomically at the store; a miss yields the generic credential
// error with no hint which half was wrong.
func (s *authService) Authenticate(ctx context.Context, key, secret string) (*domain.Realm, error) {
	if key == "" || secret == "" {
		return nil, domain.ErrInvalidCredentials
	}
	realm, apiKey, err := s.repo.GetRealmByAPIKey(ctx, key, secret)
	if err != nil {
		return nil, storeErr("lookup api key", err)
	}
	if realm == nil || apiKey == nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !apiKey.VerifyIntegrity() {
		s.logger.Error("api key integrity digest mismatch", "key_id", apiKey.ID, "realm_id", realm.ID)
		return nil, domain.ErrInvalidCredentials
	}
	return realm, nil
}

// Register creates a user with a password credential. The preceding
// existence check is advisory only; the store's uniqueness constraint is
// what actually rejects a racing duplicate.
func (s *authService) Register(ctx context.Context, realm *domain.Realm, username, password string, data json.RawMessage) (string, error) {
	if err := domain.ValidateUsername(username); err != nil {
		return "", err
	}
	if err := domain.ValidatePassword(password); err != nil {
		return "", err
	}

	existing, err := s.repo.GetUserByName(ctx, realm.ID, username)
	if err != nil {
		return "", storeErr("lookup user", err)
	}
	if existing != nil {
		return "", domain.ErrUsernameTaken
	}

	cred, err := domain.NewPasswordCredential(password)
	if err != nil {
		return "", err
	}
	auth, err := domain.CredentialSet{Active: []domain.StoredCredential{cred}}.Encode()
	if err != nil {
		return "", err
	}

	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	user := &domain.User{
		ID:        uuid.New().String(),
		RealmID:   realm.ID,
		Username:  username,
		Auth:      auth,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			return "", domain.ErrUsernameTaken
		}
		return "", storeErr("create user", err)
	}
	return user.ID, nil
}

// Login verifies the password against the user's credential set and opens a
// session. Unknown user and wrong password stay distinct here for logging;
// the boundary renders them identically.
func (s *authService) Login(ctx context.Context, realm *domain.Realm, username, password string, data json.RawMessage, tiny bool) (*ports.LoginResult, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidInput
	}

	user, err := s.repo.GetUserByName(ctx, realm.ID, username)
	if err != nil {
		return nil, storeErr("lookup user", err)
	}
	if user == nil {
		s.logger.Info("login for unknown user", "realm_id", realm.ID, "username", username)
		return nil, domain.ErrUnknownUser
	}

	creds, err := domain.DecodeCredentialSet(user.Auth)
	if err != nil {
		s.logger.Error("stored credential set unreadable", "user_id", user.ID, "error", err)
		return nil, err
	}
	ok, err := creds.VerifyAny(domain.VariantPassword, password)
	if err != nil {
		s.logger.Error("stored credential form unreadable", "user_id", user.ID, "error", err)
		return nil, err
	}
	if !ok {
		s.logger.Warn("password verification failed", "user_id", user.ID)
		return nil, domain.ErrBadCredential
	}

	sess, err := s.sessions.Create(ctx, user, realm, data)
	if err != nil {
		return nil, err
	}

	result := &ports.LoginResult{
		UserID:    user.ID,
		SessionID: sess.ID,
		Data:      json.RawMessage("{}"),
	}
	if !tiny {
		result.Data = user.Data
	}
	return result, nil
}

// DeleteUser removes a user and all their sessions. Cache entries are
// evicted before the durable cascade so no fast-path hit can outlive the
// rows.
func (s *authService) DeleteUser(ctx context.Context, realm *domain.Realm, userID string) (bool, error) {
	user, err := s.repo.GetUserByID(ctx, userID, realm.ID)
	if err != nil {
		return false, storeErr("lookup user", err)
	}
	if user == nil {
		return false, nil
	}
	if err := s.sessions.RevokeAllForUser(ctx, user.ID); err != nil {
		return false, err
	}
	deleted, err := s.repo.DeleteUser(ctx, user.ID, realm.ID)
	if err != nil {
		return false, storeErr("delete user", err)
	}
	return deleted, nil
}

// HealthCheck reports per-backend reachability, keyed by backend name.
func (s *authService) HealthCheck(ctx context.Context) map[string]error {
	return map[string]error{
		"postgres": s.repo.Ping(ctx),
		"redis":    s.cache.Ping(ctx),
	}
}
