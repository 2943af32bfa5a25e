package ports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/poyrazK/hora/internal/core/domain"
)

// AuthRepository is the durable (relational) store. Uniqueness of
// (key, secret) pairs and of usernames within a realm is enforced by store
// constraints, never by application-level check-then-act.
type AuthRepository interface {
	// GetRealmByAPIKey resolves a realm from a credential pair. The pair is
	// matched as a single equality predicate; key-only lookups are not
	// exposed. Returns (nil, nil, nil) when no row matches.
	GetRealmByAPIKey(ctx context.Context, key, secret string) (*domain.Realm, *domain.APIKey, error)

	CreateRealm(ctx context.Context, realm *domain.Realm) error
	GetRealmByName(ctx context.Context, name string) (*domain.Realm, error)
	ListRealms(ctx context.Context) ([]domain.Realm, error)
	UpdateRealmConfig(ctx context.Context, realmID string, config domain.Config) error

	CreateAPIKey(ctx context.Context, key *domain.APIKey) error
	ListAPIKeys(ctx context.Context, realmID string) ([]domain.APIKey, error)
	DeleteAPIKey(ctx context.Context, id, realmID string) (bool, error)

	// CreateUser returns domain.ErrUsernameTaken when the (realm, username)
	// uniqueness constraint rejects the insert.
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByName(ctx context.Context, realmID, username string) (*domain.User, error)
	GetUserByID(ctx context.Context, id, realmID string) (*domain.User, error)
	// DeleteUser removes the user row; session rows go with it via the
	// cascading foreign key. Reports whether a row was removed.
	DeleteUser(ctx context.Context, id, realmID string) (bool, error)

	CreateSession(ctx context.Context, session *domain.Session) error
	// DeleteSession is realm-scoped through the owning user so a guessed id
	// from another realm can never be revoked. Reports whether a row was
	// removed.
	DeleteSession(ctx context.Context, id, realmID string) (bool, error)
	// DeleteSessionByID is the compensation path for a failed cache write
	// during creation; it is not realm-scoped because the caller owns the
	// row it just inserted.
	DeleteSessionByID(ctx context.Context, id string) error
	CountActiveSessions(ctx context.Context, userID string, now time.Time) (int, error)
	ListSessionIDsForUser(ctx context.Context, userID string) ([]string, error)

	Ping(ctx context.Context) error
}

// SessionCache is the volatile fast-path store. One existence-only entry per
// live session; entry TTL equals the remaining time to expiry.
type SessionCache interface {
	Put(ctx context.Context, sessionID string, ttl time.Duration) error
	Exists(ctx context.Context, sessionID string) (bool, error)
	Delete(ctx context.Context, sessionID string) error
	Ping(ctx context.Context) error
}

// LoginResult is what a successful login hands back to the boundary.
type LoginResult struct {
	UserID    string
	SessionID string
	Data      json.RawMessage
}

// AuthService is the boundary contract the routing layer composes against.
type AuthService interface {
	Authenticate(ctx context.Context, key, secret string) (*domain.Realm, error)
	Register(ctx context.Context, realm *domain.Realm, username, password string, data json.RawMessage) (string, error)
	Login(ctx context.Context, realm *domain.Realm, username, password string, data json.RawMessage, tiny bool) (*LoginResult, error)
	DeleteUser(ctx context.Context, realm *domain.Realm, userID string) (bool, error)
	HealthCheck(ctx context.Context) map[string]error
}

// SessionService owns the session lifecycle across both stores.
type SessionService interface {
	Create(ctx context.Context, user *domain.User, realm *domain.Realm, data json.RawMessage) (*domain.Session, error)
	Check(ctx context.Context, sessionID string) (bool, error)
	Revoke(ctx context.Context, sessionID, realmID string) (bool, error)
	RevokeAllForUser(ctx context.Context, userID string) error
}

// RoutingEngine announces and withdraws the service VIP via BGP.
type RoutingEngine interface {
	Start(ctx context.Context, localASN, peerASN uint32, peerIP string) error
	Announce(ctx context.Context, vip string) error
	Withdraw(ctx context.Context, vip string) error
	Stop() error
}

// VIPManager binds the VIP to a local interface.
type VIPManager interface {
	Bind(ctx context.Context, vip, iface string) error
	Unbind(ctx context.Context, vip, iface string) error
}
