package mcpsession

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/docsbridge/docsbridge/app/models"
	"github.com/docsbridge/docsbridge/internal/pkg/kvstore"
)

const (
	sessionKeyPrefix = "mcp:session:"

	// SessionTTL is how long an authorization handshake stays valid. The
	// deadline is fixed at creation; authorization does not extend it.
	SessionTTL = 24 * time.Hour

	// expiredGraceTTL keeps a lazily expired session readable briefly for
	// diagnostics before the store reclaims it.
	expiredGraceTTL = time.Minute
)

// ErrNotFound is returned for absent sessions and for sessions whose
// deadline has passed: both read the same to callers.
var ErrNotFound = kvstore.ErrNotFound

// Manager runs the pending -> authorized -> expired lifecycle for the
// out-of-band authorization handshake. Sessions are stored with a TTL
// equal to their remaining validity, so the store reclaims them without a
// sweep; on top of that, Get performs lazy expiry at read time.
//
// Note: Get is a side-effecting read. A session found past its deadline is
// rewritten as expired before Get reports it absent.
type Manager struct {
	store kvstore.Store

	// now is the clock used for expiry decisions; tests override it.
	now func() time.Time
}

// NewManager returns a session manager over the given store.
func NewManager(store kvstore.Store) *Manager {
	return &Manager{store: store, now: time.Now}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

// Create allocates a new pending session with a fresh high-entropy
// external session id and a deadline 24 hours out.
func (m *Manager) Create(ctx context.Context) (*models.McpSession, error) {
	sessionID, err := models.NewMcpSessionID()
	if err != nil {
		return nil, fmt.Errorf("mcpsession: generate session id: %w", err)
	}

	now := m.now()
	session := &models.McpSession{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Status:    models.McpStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(SessionTTL),
	}

	if err := m.store.PutTTL(ctx, sessionKey(sessionID), session, SessionTTL); err != nil {
		return nil, err
	}
	return session, nil
}

// Get returns the session for the external id, or ErrNotFound. A session
// whose stored deadline has passed is downgraded to expired with a short
// remaining TTL and reported absent.
func (m *Manager) Get(ctx context.Context, sessionID string) (*models.McpSession, error) {
	session, err := m.getRaw(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Expired(m.now()) {
		if err := m.markExpired(ctx, session); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return session, nil
}

// Authorize attaches the identity and flips the session to authorized.
// Absent or expired sessions are a no-op, and so is a session that is
// already authorized: a replayed callback cannot re-bind the identity.
// The remaining TTL is preserved; authorizing never resets the deadline.
func (m *Manager) Authorize(ctx context.Context, sessionID, userID string) error {
	session, err := m.Get(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if session.Status == models.McpStatusAuthorized {
		return nil
	}

	session.UserID = userID
	session.Status = models.McpStatusAuthorized
	session.UpdatedAt = m.now()

	remaining, err := m.store.TTL(ctx, sessionKey(sessionID))
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if remaining <= 0 {
		remaining = SessionTTL
	}
	return m.store.PutTTL(ctx, sessionKey(sessionID), session, remaining)
}

// Expire forces a session to expired with a short cleanup TTL.
func (m *Manager) Expire(ctx context.Context, sessionID string) error {
	session, err := m.getRaw(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return m.markExpired(ctx, session)
}

// IsAuthorized reports true with the attached identity iff the session
// status is exactly authorized. Pending, expired, and absent sessions all
// report false.
func (m *Manager) IsAuthorized(ctx context.Context, sessionID string) (bool, string, error) {
	session, err := m.Get(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return false, "", nil
	}
	if err != nil {
		return false, "", err
	}
	if session.Status != models.McpStatusAuthorized {
		return false, "", nil
	}
	return true, session.UserID, nil
}

// AuthURL builds the human-facing authorization URL. It carries nothing
// beyond the external session id, which is why that id is high-entropy.
func AuthURL(sessionID, baseURL string) string {
	return fmt.Sprintf("%s/auth/mcp?session=%s", baseURL, url.QueryEscape(sessionID))
}

func (m *Manager) getRaw(ctx context.Context, sessionID string) (*models.McpSession, error) {
	if sessionID == "" {
		return nil, ErrNotFound
	}
	var session models.McpSession
	if err := m.store.Get(ctx, sessionKey(sessionID), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (m *Manager) markExpired(ctx context.Context, session *models.McpSession) error {
	session.Status = models.McpStatusExpired
	session.UpdatedAt = m.now()
	return m.store.PutTTL(ctx, sessionKey(session.SessionID), session, expiredGraceTTL)
}
