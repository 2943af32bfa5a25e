package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/poyrazK/hora/internal/core/domain"
)

const uniqueViolation = "23505"

// PostgresRepository implements ports.AuthRepository using PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates and returns a new PostgresRepository instance.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetRealmByAPIKey matches the credential pair as a single equality
// predicate. There is deliberately no key-only lookup: matching both halves
// in one WHERE clause keeps application code from branching on which half
// failed.
func (r *PostgresRepository) GetRealmByAPIKey(ctx context.Context, key, secret string) (*domain.Realm, *domain.APIKey, error) {
	query := `SELECT r.id, r.name, r.config, r.created_at, r.updated_at,
	                 k.id, k.realm_id, k.key, k.secret, k.hash, k.created_at
	          FROM api_keys k
	          JOIN realms r ON r.id = k.realm_id
	          WHERE k.key = $1 AND k.secret = $2`

	var realm domain.Realm
	var apiKey domain.APIKey
	var config []byte
	errRow := r.db.QueryRowContext(ctx, query, key, secret).Scan(
		&realm.ID, &realm.Name, &config, &realm.CreatedAt, &realm.UpdatedAt,
		&apiKey.ID, &apiKey.RealmID, &apiKey.Key, &apiKey.Secret, &apiKey.Hash, &apiKey.CreatedAt)
	if errors.Is(errRow, sql.ErrNoRows) {
		return nil, nil, nil
	}
	if errRow != nil {
		return nil, nil, errRow
	}
	if errCfg := json.Unmarshal(config, &realm.Config); errCfg != nil {
		return nil, nil, fmt.Errorf("failed to decode realm config: %w", errCfg)
	}
	return &realm, &apiKey, nil
}

func (r *PostgresRepository) CreateRealm(ctx context.Context, realm *domain.Realm) error {
	config, errCfg := json.Marshal(realm.Config)
	if errCfg != nil {
		return errCfg
	}
	query := `INSERT INTO realms (id, name, config, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, realm.ID, realm.Name, config, realm.CreatedAt, realm.UpdatedAt)
	return err
}

func (r *PostgresRepository) GetRealmByName(ctx context.Context, name string) (*domain.Realm, error) {
	query := `SELECT id, name, config, created_at, updated_at FROM realms WHERE name = $1`
	var realm domain.Realm
	var config []byte
	errRow := r.db.QueryRowContext(ctx, query, name).Scan(
		&realm.ID, &realm.Name, &config, &realm.CreatedAt, &realm.UpdatedAt)
	if errors.Is(errRow, sql.ErrNoRows) {
		return nil, nil
	}
	if errRow != nil {
		return nil, errRow
	}
	if errCfg := json.Unmarshal(config, &realm.Config); errCfg != nil {
		return nil, fmt.Errorf("failed to decode realm config: %w", errCfg)
	}
	return &realm, nil
}

func (r *PostgresRepository) ListRealms(ctx context.Context) ([]domain.Realm, error) {
	query := `SELECT id, name, config, created_at, updated_at FROM realms ORDER BY name`
	rows, errQuery := r.db.QueryContext(ctx, query)
	if errQuery != nil {
		return nil, errQuery
	}
	defer func() {
		if errClose := rows.Close(); errClose != nil {
			log.Printf("failed to close rows: %v", errClose)
		}
	}()

	var realms []domain.Realm
	for rows.Next() {
		var realm domain.Realm
		var config []byte
		if errScan := rows.Scan(&realm.ID, &realm.Name, &config, &realm.CreatedAt, &realm.UpdatedAt); errScan != nil {
			return nil, errScan
		}
		if errCfg := json.Unmarshal(config, &realm.Config); errCfg != nil {
			return nil, fmt.Errorf("failed to decode realm config: %w", errCfg)
		}
		realms = append(realms, realm)
	}
	return realms, rows.Err()
}

func (r *PostgresRepository) UpdateRealmConfig(ctx context.Context, realmID string, config domain.Config) error {
	raw, errCfg := json.Marshal(config)
	if errCfg != nil {
		return errCfg
	}
	query := `UPDATE realms SET config = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, raw, time.Now().UTC(), realmID)
	return err
}

func (r *PostgresRepository) CreateAPIKey(ctx context.Context, key *domain.APIKey) error {
	query := `INSERT INTO api_keys (id, realm_id, key, secret, hash, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, key.ID, key.RealmID, key.Key, key.Secret, key.Hash, key.CreatedAt)
	return err
}

func (r *PostgresRepository) ListAPIKeys(ctx context.Context, realmID string) ([]domain.APIKey, error) {
	query := `SELECT id, realm_id, key, secret, hash, created_at FROM api_keys WHERE realm_id = $1`
	rows, errQuery := r.db.QueryContext(ctx, query, realmID)
	if errQuery != nil {
		return nil, errQuery
	}
	defer func() {
		if errClose := rows.Close(); errClose != nil {
			log.Printf("failed to close rows: %v", errClose)
		}
	}()

	var keys []domain.APIKey
	for rows.Next() {
		var key domain.APIKey
		if errScan := rows.Scan(&key.ID, &key.RealmID, &key.Key, &key.Secret, &key.Hash, &key.CreatedAt); errScan != nil {
			return nil, errScan
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (r *PostgresRepository) DeleteAPIKey(ctx context.Context, id, realmID string) (bool, error) {
	query := `DELETE FROM api_keys WHERE id = $1 AND realm_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, realmID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// CreateUser maps the (realm_id, username) unique-constraint violation to
// domain.ErrUsernameTaken so a racing duplicate insert surfaces as the same
// conflict the advisory pre-check reports.
func (r *PostgresRepository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (id, realm_id, username, auth, data, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, user.ID, user.RealmID, user.Username, []byte(user.Auth), []byte(user.Data), user.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrUsernameTaken
	}
	return err
}

func (r *PostgresRepository) GetUserByName(ctx context.Context, realmID, username string) (*domain.User, error) {
	query := `SELECT id, realm_id, username, auth, data, created_at FROM users
	          WHERE realm_id = $1 AND username = $2`
	return r.scanUser(r.db.QueryRowContext(ctx, query, realmID, username))
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id, realmID string) (*domain.User, error) {
	query := `SELECT id, realm_id, username, auth, data, created_at FROM users
	          WHERE id = $1 AND realm_id = $2`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id, realmID))
}

func (r *PostgresRepository) scanUser(row *sql.Row) (*domain.User, error) {
	var user domain.User
	var auth, data []byte
	errRow := row.Scan(&user.ID, &user.RealmID, &user.Username, &auth, &data, &user.CreatedAt)
	if errors.Is(errRow, sql.ErrNoRows) {
		return nil, nil
	}
	if errRow != nil {
		return nil, errRow
	}
	user.Auth = auth
	user.Data = data
	return &user, nil
}

func (r *PostgresRepository) DeleteUser(ctx context.Context, id, realmID string) (bool, error) {
	query := `DELETE FROM users WHERE id = $1 AND realm_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, realmID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *PostgresRepository) CreateSession(ctx context.Context, session *domain.Session) error {
	query := `INSERT INTO sessions (id, user_id, data, created_at, expires_at)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, session.ID, session.UserID, []byte(session.Data), session.CreatedAt, session.ExpiresAt)
	return err
}

// DeleteSession joins through users so deletion outside the caller's realm
// is impossible even with a guessed session id.
func (r *PostgresRepository) DeleteSession(ctx context.Context, id, realmID string) (bool, error) {
	query := `DELETE FROM sessions USING users
	          WHERE sessions.id = $1 AND users.id = sessions.user_id AND users.realm_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, realmID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *PostgresRepository) DeleteSessionByID(ctx context.Context, id string) error {
	query := `DELETE FROM sessions WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *PostgresRepository) CountActiveSessions(ctx context.Context, userID string, now time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM sessions WHERE user_id = $1 AND expires_at > $2`
	var count int
	if err := r.db.QueryRowContext(ctx, query, userID, now).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresRepository) ListSessionIDsForUser(ctx context.Context, userID string) ([]string, error) {
	query := `SELECT id FROM sessions WHERE user_id = $1`
	rows, errQuery := r.db.QueryContext(ctx, query, userID)
	if errQuery != nil {
		return nil, errQuery
	}
	defer func() {
		if errClose := rows.Close(); errClose != nil {
			log.Printf("failed to close rows: %v", errClose)
		}
	}()

	var ids []string
	for rows.Next() {
		var id string
		if errScan := rows.Scan(&id); errScan != nil {
			return nil, errScan
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
