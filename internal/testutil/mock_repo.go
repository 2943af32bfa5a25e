package testutil

import (
	"context"
	"time"

	"github.com/poyrazK/hora/internal/core/domain"
	"github.com/poyrazK/hora/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

var _ ports.AuthRepository = (*MockRepo)(nil)

// MockRepo is a testify mock of ports.AuthRepository for command and
// service tests.
type MockRepo struct {
	mock.Mock
}

func (m *MockRepo) GetRealmByAPIKey(ctx context.Context, key, secret string) (*domain.Realm, *domain.APIKey, error) {
	args := m.Called(key, secret)
	realm, _ := args.Get(0).(*domain.Realm)
	apiKey, _ := args.Get(1).(*domain.APIKey)
	return realm, apiKey, args.Error(2)
}

func (m *MockRepo) CreateRealm(ctx context.Context, realm *domain.Realm) error {
	args := m.Called(realm)
	return args.Error(0)
}

func (m *MockRepo) GetRealmByName(ctx context.Context, name string) (*domain.Realm, error) {
	args := m.Called(name)
	realm, _ := args.Get(0).(*domain.Realm)
	return realm, args.Error(1)
}

func (m *MockRepo) ListRealms(ctx context.Context) ([]domain.Realm, error) {
	args := m.Called()
	realms, _ := args.Get(0).([]domain.Realm)
	return realms, args.Error(1)
}

func (m *MockRepo) UpdateRealmConfig(ctx context.Context, realmID string, config domain.Config) error {
	args := m.Called(realmID, config)
	return args.Error(0)
}

func (m *MockRepo) CreateAPIKey(ctx context.Context, key *domain.APIKey) error {
	args := m.Called(key)
	return args.Error(0)
}

func (m *MockRepo) ListAPIKeys(ctx context.Context, realmID string) ([]domain.APIKey, error) {
	args := m.Called(realmID)
	keys, _ := args.Get(0).([]domain.APIKey)
	return keys, args.Error(1)
}

func (m *MockRepo) DeleteAPIKey(ctx context.Context, id, realmID string) (bool, error) {
	args := m.Called(id, realmID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepo) CreateUser(ctx context.Context, user *domain.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockRepo) GetUserByName(ctx context.Context, realmID, username string) (*domain.User, error) {
	args := m.Called(realmID, username)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *MockRepo) GetUserByID(ctx context.Context, id, realmID string) (*domain.User, error) {
	args := m.Called(id, realmID)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *MockRepo) DeleteUser(ctx context.Context, id, realmID string) (bool, error) {
	args := m.Called(id, realmID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepo) CreateSession(ctx context.Context, session *domain.Session) error {
	args := m.Called(session)
	return args.Error(0)
}

func (m *MockRepo) DeleteSession(ctx context.Context, id, realmID string) (bool, error) {
	args := m.Called(id, realmID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepo) DeleteSessionByID(ctx context.Context, id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockRepo) CountActiveSessions(ctx context.Context, userID string, now time.Time) (int, error) {
	args := m.Called(userID, now)
	return args.Int(0), args.Error(1)
}

func (m *MockRepo) ListSessionIDsForUser(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(userID)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *MockRepo) Ping(ctx context.Context) error {
	args := m.Called()
	return args.Error(0)
}
