package services

import (
	"context"
	"sync"
	"time"

	"github.com/poyrazK/hora/internal/core/domain"
)

// fakeRepo is an in-memory AuthRepository with per-call error injection.
type fakeRepo struct {
	mu       sync.Mutex
	realms   map[string]*domain.Realm
	apiKeys  map[string]*domain.APIKey
	users    map[string]*domain.User
	sessions map[string]*domain.Session

	// error injection
	lookupErr        error
	createUserErr    error
	createSessionErr error
	countErr         error

	// countQueue overrides CountActiveSessions results in FIFO order; when
	// drained the real count from the sessions map is used.
	countQueue []int

	compensated []string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		realms:   make(map[string]*domain.Realm),
		apiKeys:  make(map[string]*domain.APIKey),
		users:    make(map[string]*domain.User),
		sessions: make(map[string]*domain.Session),
	}
}

func (m *fakeRepo) GetRealmByAPIKey(ctx context.Context, key, secret string) (*domain.Realm, *domain.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return nil, nil, m.lookupErr
	}
	for _, k := range m.apiKeys {
		if k.Key == key && k.Secret == secret {
			return m.realms[k.RealmID], k, nil
		}
	}
	return nil, nil, nil
}

func (m *fakeRepo) CreateRealm(ctx context.Context, realm *domain.Realm) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.realms[realm.ID] = realm
	return nil
}

func (m *fakeRepo) GetRealmByName(ctx context.Context, name string) (*domain.Realm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.realms {
		if r.Name == name {
			return r, nil
		}
	}
	return nil, nil
}

func (m *fakeRepo) ListRealms(ctx context.Context) ([]domain.Realm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Realm
	for _, r := range m.realms {
		out = append(out, *r)
	}
	return out, nil
}

func (m *fakeRepo) UpdateRealmConfig(ctx context.Context, realmID string, config domain.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.realms[realmID]; ok {
		r.Config = config
	}
	return nil
}

func (m *fakeRepo) CreateAPIKey(ctx context.Context, key *domain.APIKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apiKeys[key.ID] = key
	return nil
}

func (m *fakeRepo) ListAPIKeys(ctx context.Context, realmID string) ([]domain.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.APIKey
	for _, k := range m.apiKeys {
		if k.RealmID == realmID {
			out = append(out, *k)
		}
	}
	return out, nil
}

func (m *fakeRepo) DeleteAPIKey(ctx context.Context, id, realmID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if k, ok := m.apiKeys[id]; ok && k.RealmID == realmID {
		delete(m.apiKeys, id)
		return true, nil
	}
	return false, nil
}

func (m *fakeRepo) CreateUser(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createUserErr != nil {
		return m.createUserErr
	}
	for _, u := range m.users {
		if u.RealmID == user.RealmID && u.Username == user.Username {
			return domain.ErrUsernameTaken
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *fakeRepo) GetUserByName(ctx context.Context, realmID, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	for _, u := range m.users {
		if u.RealmID == realmID && u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (m *fakeRepo) GetUserByID(ctx context.Context, id, realmID string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok && u.RealmID == realmID {
		return u, nil
	}
	return nil, nil
}

func (m *fakeRepo) DeleteUser(ctx context.Context, id, realmID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.RealmID != realmID {
		return false, nil
	}
	delete(m.users, id)
	for sid, s := range m.sessions {
		if s.UserID == id {
			delete(m.sessions, sid)
		}
	}
	return true, nil
}

func (m *fakeRepo) CreateSession(ctx context.Context, session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createSessionErr != nil {
		return m.createSessionErr
	}
	m.sessions[session.ID] = session
	return nil
}

func (m *fakeRepo) DeleteSession(ctx context.Context, id, realmID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return false, nil
	}
	owner, ok := m.users[s.UserID]
	if !ok || owner.RealmID != realmID {
		return false, nil
	}
	delete(m.sessions, id)
	return true, nil
}

func (m *fakeRepo) DeleteSessionByID(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	m.compensated = append(m.compensated, id)
	return nil
}

func (m *fakeRepo) CountActiveSessions(ctx context.Context, userID string, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.countErr != nil {
		return 0, m.countErr
	}
	if len(m.countQueue) > 0 {
		n := m.countQueue[0]
		m.countQueue = m.countQueue[1:]
		return n, nil
	}
	count := 0
	for _, s := range m.sessions {
		if s.UserID == userID && s.ExpiresAt.After(now) {
			count++
		}
	}
	return count, nil
}

func (m *fakeRepo) ListSessionIDsForUser(ctx context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, s := range m.sessions {
		if s.UserID == userID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *fakeRepo) Ping(ctx context.Context) error { return nil }

// fakeCache is an in-memory SessionCache. TTLs are recorded, not enforced;
// tests that need expiry delete entries themselves.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]time.Duration

	putErr    error
	existsErr error
	deleteErr error
	pingErr   error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]time.Duration)}
}

func (c *fakeCache) Put(ctx context.Context, sessionID string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.putErr != nil {
		return c.putErr
	}
	c.entries[sessionID] = ttl
	return nil
}

func (c *fakeCache) Exists(ctx context.Context, sessionID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.existsErr != nil {
		return false, c.existsErr
	}
	_, ok := c.entries[sessionID]
	return ok, nil
}

func (c *fakeCache) Delete(ctx context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deleteErr != nil {
		return c.deleteErr
	}
	delete(c.entries, sessionID)
	return nil
}

func (c *fakeCache) Ping(ctx context.Context) error { return c.pingErr }

func (c *fakeCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
