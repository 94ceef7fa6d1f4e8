package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// MCP session lifecycle. A session starts pending, flips to authorized
// exactly once when a human completes sign-in, and lapses to expired when
// its deadline passes.
const (
	McpStatusPending    = "pending"
	McpStatusAuthorized = "authorized"
	McpStatusExpired    = "expired"
)

// McpSession is the interactive authorization handshake record. SessionID
// is the only handle ever exposed outside the store (in authorization
// URLs), so it is drawn from a cryptographically secure source.
type McpSession struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	UserID    string    `json:"userId,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session deadline has passed.
func (s *McpSession) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}

// NewMcpSessionID returns a 64-hex-character external session id. Hex is
// safe to embed in a URL query parameter as-is.
func NewMcpSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
