package domain

import (
	"encoding/json"
	"time"
)

// Realm is the tenant boundary. Every user, API key and session belongs to
// exactly one realm; cross-realm references are rejected at the repository
// layer by scoping every lookup and delete with the realm id.
type Realm struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Config    Config    `json:"config"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Config is the per-realm policy document, stored as JSONB.
type Config struct {
	Sessions SessionPolicy `json:"sessions"`
}

// SessionPolicy bounds the session lifecycle for a realm.
type SessionPolicy struct {
	Duration Duration `json:"duration"`
	MaxCount int      `json:"max_count"`
}

// Duration wraps time.Duration so the realm config document can carry
// durations as strings ("672h") instead of nanosecond integers.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Validate rejects policies that would make sessions uncreatable.
func (p SessionPolicy) Validate() error {
	if time.Duration(p.Duration) <= 0 {
		return ErrInvalidPolicy
	}
	if p.MaxCount <= 0 {
		return ErrInvalidPolicy
	}
	return nil
}

// APIKey is a realm-scoped credential pair presented by service callers.
// The (Key, Secret) pair is globally unique and only ever matched as a
// single equality predicate at the store. Hash is an integrity digest over
// the pair, re-checked after row fetch.
type APIKey struct {
	ID        string    `json:"id"`
	RealmID   string    `json:"realm_id"`
	Key       string    `json:"key"`
	Secret    string    `json:"-"`
	Hash      string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// User is an identity within a realm. Auth holds the serialized credential
// set (see credential.go); Data is an opaque profile document.
type User struct {
	ID        string          `json:"id"`
	RealmID   string          `json:"realm_id"`
	Username  string          `json:"username"`
	Auth      json.RawMessage `json:"-"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

// Session is one login instance. ExpiresAt is fixed at creation time
// (created + realm session duration); there is no sliding expiry. Liveness
// is signalled by the cache entry, not by this row.
type Session struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}
