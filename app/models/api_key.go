package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

const apiKeyPrefix = "gmd_"

// APIKey is a bearer credential record. Only the SHA-256 hash of the
// secret is stored; the plaintext is returned exactly once at creation.
type APIKey struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Name      string     `json:"name"`
	HashedKey string     `json:"hashedKey,omitempty"`
	Active    bool       `json:"active"`
	LastUsed  *time.Time `json:"lastUsed"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Redacted returns a copy safe to hand to the owner: the hash is stripped,
// the plaintext was never stored to begin with.
func (k APIKey) Redacted() APIKey {
	k.HashedKey = ""
	return k
}

// GenerateAPIKey returns a fresh secret with the recognizable gmd_ prefix
// followed by 64 hex characters, and its SHA-256 hash.
func GenerateAPIKey() (rawKey string, hashedKey string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	rawKey = apiKeyPrefix + hex.EncodeToString(b)
	return rawKey, HashAPIKey(rawKey), nil
}

// HashAPIKey returns the SHA-256 hash for the provided API key. Validation
// is prefix-agnostic: any presented string hashes and looks up the same way.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(raw)))
	return hex.EncodeToString(sum[:])
}
