package models

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMcpSessionID(t *testing.T) {
	id, err := NewMcpSessionID()
	require.NoError(t, err)
	assert.Len(t, id, 64)

	_, err = hex.DecodeString(id)
	assert.NoError(t, err)

	other, err := NewMcpSessionID()
	require.NoError(t, err)
	assert.NotEqual(t, id, other)
}

func TestMcpSessionExpired(t *testing.T) {
	now := time.Now()
	s := McpSession{ExpiresAt: now.Add(time.Hour)}

	assert.False(t, s.Expired(now))
	assert.False(t, s.Expired(s.ExpiresAt))
	assert.True(t, s.Expired(now.Add(2*time.Hour)))
}
