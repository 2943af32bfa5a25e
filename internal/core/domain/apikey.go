package domain

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// APIKeyHash digests a credential pair for the integrity column. The digest
// is stored next to the pair at issue time and re-checked after row fetch.
func APIKeyHash(key, secret string) string {
	sum := sha256.Sum256([]byte(key + ":" + secret))
	return hex.EncodeToString(sum[:])
}

// VerifyIntegrity re-derives the pair digest and compares it to the stored
// hash in constant time.
func (k *APIKey) VerifyIntegrity() bool {
	expected := APIKeyHash(k.Key, k.Secret)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(k.Hash)) == 1
}

// NewAPIKeyPair generates a fresh key/secret pair (24-char key, 64-char
// secret).
func NewAPIKeyPair() (key, secret string, err error) {
	key, err = randomToken(24)
	if err != nil {
		return "", "", err
	}
	secret, err = randomToken(64)
	if err != nil {
		return "", "", err
	}
	return key, secret, nil
}

func randomToken(n int) (string, error) {
	const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	for i := range b {
		b[i] = alphabet[int(b[i])%len(alphabet)]
	}
	return string(b), nil
}
