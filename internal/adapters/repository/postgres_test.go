package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/poyrazK/hora/internal/core/domain"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("hora_test"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432").
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start container: %s", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %s", err)
	}

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		t.Fatalf("failed to open db: %s", err)
	}

	if err := ApplySchema(ctx, db); err != nil {
		t.Fatalf("failed to apply schema: %s", err)
	}

	return db, func() {
		db.Close()
		pgContainer.Terminate(ctx)
	}
}

func TestPostgresRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPostgresRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	// 1. Realm and API key provisioning
	realm := &domain.Realm{
		ID:   "550e8400-e29b-41d4-a716-446655440000",
		Name: "production",
		Config: domain.Config{Sessions: domain.SessionPolicy{
			Duration: domain.Duration(4 * 7 * 24 * time.Hour),
			MaxCount: 24,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreateRealm(ctx, realm); err != nil {
		t.Fatalf("CreateRealm failed: %v", err)
	}

	key, secret, err := domain.NewAPIKeyPair()
	if err != nil {
		t.Fatalf("NewAPIKeyPair failed: %v", err)
	}
	apiKey := &domain.APIKey{
		ID:        "550e8400-e29b-41d4-a716-446655440001",
		RealmID:   realm.ID,
		Key:       key,
		Secret:    secret,
		Hash:      domain.APIKeyHash(key, secret),
		CreatedAt: now,
	}
	if err := repo.CreateAPIKey(ctx, apiKey); err != nil {
		t.Fatalf("CreateAPIKey failed: %v", err)
	}

	// 2. Pair lookup round-trips realm config through JSONB
	gotRealm, gotKey, err := repo.GetRealmByAPIKey(ctx, key, secret)
	if err != nil {
		t.Fatalf("GetRealmByAPIKey failed: %v", err)
	}
	if gotRealm == nil || gotRealm.Config.Sessions.MaxCount != 24 {
		t.Fatalf("Unexpected realm: %+v", gotRealm)
	}
	if time.Duration(gotRealm.Config.Sessions.Duration) != 4*7*24*time.Hour {
		t.Errorf("Duration did not round-trip: %v", gotRealm.Config.Sessions.Duration)
	}
	if gotKey == nil || !gotKey.VerifyIntegrity() {
		t.Fatalf("API key integrity check failed: %+v", gotKey)
	}

	// Half-pair lookups must miss
	if r, _, _ := repo.GetRealmByAPIKey(ctx, key, "wrong"); r != nil {
		t.Error("Lookup with wrong secret returned a realm")
	}
	if r, _, _ := repo.GetRealmByAPIKey(ctx, "wrong", secret); r != nil {
		t.Error("Lookup with wrong key returned a realm")
	}

	// 3. User lifecycle with uniqueness constraint
	user := &domain.User{
		ID:        "550e8400-e29b-41d4-a716-446655440002",
		RealmID:   realm.ID,
		Username:  "alice",
		Auth:      json.RawMessage(`{"active":[{"id":1,"data":{"password":"$argon2id$stub"}}]}`),
		Data:      json.RawMessage(`{"plan":"pro"}`),
		CreatedAt: now,
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	dup := *user
	dup.ID = "550e8400-e29b-41d4-a716-446655440003"
	if err := repo.CreateUser(ctx, &dup); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Errorf("Duplicate insert error = %v, want ErrUsernameTaken", err)
	}

	got, err := repo.GetUserByName(ctx, realm.ID, "alice")
	if err != nil || got == nil {
		t.Fatalf("GetUserByName = %+v, %v", got, err)
	}
	if string(got.Data) != `{"plan":"pro"}` {
		t.Errorf("User data did not round-trip: %s", got.Data)
	}

	// Same username in a different realm is fine
	realm2 := &domain.Realm{
		ID: "550e8400-e29b-41d4-a716-446655440010", Name: "staging",
		Config:    realm.Config,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := repo.CreateRealm(ctx, realm2); err != nil {
		t.Fatalf("CreateRealm failed: %v", err)
	}
	other := *user
	other.ID = "550e8400-e29b-41d4-a716-446655440004"
	other.RealmID = realm2.ID
	if err := repo.CreateUser(ctx, &other); err != nil {
		t.Errorf("Same username in another realm rejected: %v", err)
	}

	// 4. Sessions: counting, realm-scoped delete, cascade
	sess := &domain.Session{
		ID:        "550e8400-e29b-41d4-a716-446655440005",
		UserID:    user.ID,
		Data:      json.RawMessage(`{}`),
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	expired := &domain.Session{
		ID:        "550e8400-e29b-41d4-a716-446655440006",
		UserID:    user.ID,
		Data:      json.RawMessage(`{}`),
		CreatedAt: now.Add(-2 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	}
	if err := repo.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if err := repo.CreateSession(ctx, expired); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	count, err := repo.CountActiveSessions(ctx, user.ID, now)
	if err != nil || count != 1 {
		t.Errorf("CountActiveSessions = %d, %v; want 1 (expired row excluded)", count, err)
	}

	// Foreign realm cannot delete the session
	deleted, err := repo.DeleteSession(ctx, sess.ID, realm2.ID)
	if err != nil || deleted {
		t.Errorf("Cross-realm DeleteSession = %v, %v; want false, nil", deleted, err)
	}
	deleted, err = repo.DeleteSession(ctx, sess.ID, realm.ID)
	if err != nil || !deleted {
		t.Errorf("DeleteSession = %v, %v; want true, nil", deleted, err)
	}

	// 5. User delete cascades over remaining sessions
	deleted, err = repo.DeleteUser(ctx, user.ID, realm.ID)
	if err != nil || !deleted {
		t.Fatalf("DeleteUser = %v, %v; want true, nil", deleted, err)
	}
	ids, err := repo.ListSessionIDsForUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListSessionIDsForUser failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("Sessions survived user delete: %v", ids)
	}
}
