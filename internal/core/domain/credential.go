package domain

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Credential variants. Each stored credential carries an explicit variant
// tag and is dispatched through the variant table; there is no runtime type
// inspection.
const (
	VariantPassword = 1
)

const (
	argonTime    uint32 = 1
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 4
	argonKeyLen  uint32 = 32
	argonSaltLen        = 16
)

// Strategy is one verifiable authentication factor attached to a user.
type Strategy interface {
	Verify(secret string) (bool, error)
}

// StoredCredential is the tagged, serialized form of a Strategy as persisted
// in the user's auth document. Data never contains recoverable plaintext.
type StoredCredential struct {
	Variant int             `json:"id"`
	Data    json.RawMessage `json:"data"`
}

// CredentialSet is the ordered list of a user's active auth factors.
type CredentialSet struct {
	Active []StoredCredential `json:"active"`
}

var variants = map[int]func(json.RawMessage) (Strategy, error){
	VariantPassword: decodePasswordCredential,
}

// DecodeCredentialSet parses a user's stored auth document. A document that
// does not parse is corrupt data, not a verification failure.
func DecodeCredentialSet(raw json.RawMessage) (CredentialSet, error) {
	var cs CredentialSet
	if err := json.Unmarshal(raw, &cs); err != nil {
		return CredentialSet{}, fmt.Errorf("%w: %v", ErrCorruptCredential, err)
	}
	return cs, nil
}

// Encode serializes the set back to its stored document form.
func (cs CredentialSet) Encode() (json.RawMessage, error) {
	return json.Marshal(cs)
}

// VerifyAny reports whether at least one credential of the given variant
// verifies the supplied secret. It short-circuits on the first success.
// No matching entry is a plain false; a stored form that fails to decode is
// an ErrCorruptCredential and must not be treated as a wrong secret.
func (cs CredentialSet) VerifyAny(variant int, secret string) (bool, error) {
	decode, known := variants[variant]
	if !known {
		return false, fmt.Errorf("%w: unknown credential variant %d", ErrCorruptCredential, variant)
	}
	for _, sc := range cs.Active {
		if sc.Variant != variant {
			continue
		}
		strat, err := decode(sc.Data)
		if err != nil {
			return false, err
		}
		ok, err := strat.Verify(secret)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

type passwordCredential struct {
	Password string `json:"password"`
}

func decodePasswordCredential(data json.RawMessage) (Strategy, error) {
	var pc passwordCredential
	if err := json.Unmarshal(data, &pc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptCredential, err)
	}
	if pc.Password == "" {
		return nil, fmt.Errorf("%w: empty password hash", ErrCorruptCredential)
	}
	return &pc, nil
}

// NewPasswordCredential hashes the secret with argon2id under a fresh random
// salt and returns the tagged stored form.
func NewPasswordCredential(secret string) (StoredCredential, error) {
	if secret == "" {
		return StoredCredential{}, ErrInvalidInput
	}
	encoded, err := hashPassword(secret)
	if err != nil {
		return StoredCredential{}, err
	}
	data, err := json.Marshal(passwordCredential{Password: encoded})
	if err != nil {
		return StoredCredential{}, err
	}
	return StoredCredential{Variant: VariantPassword, Data: data}, nil
}

func (pc *passwordCredential) Verify(secret string) (bool, error) {
	return verifyPassword(secret, pc.Password)
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	saltB64 := base64.RawStdEncoding.EncodeToString(salt)
	hashB64 := base64.RawStdEncoding.EncodeToString(hash)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads, saltB64, hashB64), nil
}

// verifyPassword recomputes the hash under the parameters recorded in the
// PHC string and compares in constant time. A malformed PHC string is
// corrupt stored data, not a mismatch.
func verifyPassword(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return false, fmt.Errorf("%w: malformed password hash", ErrCorruptCredential)
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return false, fmt.Errorf("%w: unsupported argon2 version", ErrCorruptCredential)
	}

	var memory, timeCost uint32
	var threads uint8
	{
		params := strings.Split(parts[3], ",")
		if len(params) != 3 {
			return false, fmt.Errorf("%w: malformed argon2 parameters", ErrCorruptCredential)
		}
		m, okM := strings.CutPrefix(params[0], "m=")
		t, okT := strings.CutPrefix(params[1], "t=")
		p, okP := strings.CutPrefix(params[2], "p=")
		if !okM || !okT || !okP {
			return false, fmt.Errorf("%w: malformed argon2 parameters", ErrCorruptCredential)
		}
		m64, errM := strconv.ParseUint(m, 10, 32)
		t64, errT := strconv.ParseUint(t, 10, 32)
		p64, errP := strconv.ParseUint(p, 10, 8)
		if errM != nil || errT != nil || errP != nil {
			return false, fmt.Errorf("%w: malformed argon2 parameters", ErrCorruptCredential)
		}
		memory = uint32(m64)
		timeCost = uint32(t64)
		threads = uint8(p64)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("%w: malformed salt", ErrCorruptCredential)
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("%w: malformed hash", ErrCorruptCredential)
	}
	if len(hash) == 0 {
		return false, fmt.Errorf("%w: empty hash", ErrCorruptCredential)
	}

	check := argon2.IDKey([]byte(password), salt, timeCost, memory, threads, uint32(len(hash)))
	return subtle.ConstantTimeCompare(hash, check) == 1, nil
}
