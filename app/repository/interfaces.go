package repository

import (
	"context"
	"errors"
	"time"

	"github.com/docsbridge/docsbridge/app/models"
	"github.com/docsbridge/docsbridge/internal/pkg/kvstore"
)

// ErrNotFound is returned when a record (or its index entry) is absent.
// It is a valid, expected outcome, never logged as an error.
var ErrNotFound = kvstore.ErrNotFound

// ErrInvalidInput is returned for malformed identifiers or record shapes.
var ErrInvalidInput = errors.New("repository: invalid input")

// UserRepository is the durable identity store: users, linked provider
// accounts, browser sessions, and single-use verification tokens, all kept
// in the key-value store with their secondary indices.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByAccount(ctx context.Context, provider, providerAccountID string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error

	LinkAccount(ctx context.Context, account *models.ProviderAccount) (*models.ProviderAccount, error)
	GetAccount(ctx context.Context, provider, providerAccountID string) (*models.ProviderAccount, error)
	UnlinkAccount(ctx context.Context, provider, providerAccountID string) error

	// ProviderTokens resolves the stored access/refresh token pair for the
	// given user and provider, used by the external document API client.
	ProviderTokens(ctx context.Context, userID, provider string) (accessToken, refreshToken string, err error)

	CreateSession(ctx context.Context, userID string, expires time.Time) (*models.BrowserSession, error)
	GetSessionAndUser(ctx context.Context, sessionToken string) (*models.BrowserSession, *models.User, error)
	UpdateSession(ctx context.Context, sessionToken string, expires *time.Time) (*models.BrowserSession, error)
	DeleteSession(ctx context.Context, sessionToken string) error

	CreateVerificationToken(ctx context.Context, token *models.VerificationToken) error
	// UseVerificationToken returns the token payload and deletes it in the
	// same operation; a second read with the same key reports ErrNotFound.
	UseVerificationToken(ctx context.Context, identifier, token string) (*models.VerificationToken, error)
}

// APIKeyRepository issues, validates, lists, and revokes bearer credentials.
type APIKeyRepository interface {
	// Issue returns the stored record and the plaintext secret. The
	// plaintext is shown exactly this once and never stored.
	Issue(ctx context.Context, userID, name string) (*models.APIKey, string, error)
	// Validate resolves a presented secret through the hash index. Missing
	// and inactive records are both reported as ErrNotFound.
	Validate(ctx context.Context, secret string) (*models.APIKey, error)
	// List returns the owner's keys with hashes redacted, newest first.
	List(ctx context.Context, userID string) ([]models.APIKey, error)
	// Revoke deletes the record and its indices; a missing record or a
	// foreign owner is a no-op.
	Revoke(ctx context.Context, id, userID string) error
}
