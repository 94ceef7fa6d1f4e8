package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/docsbridge/docsbridge/app/models"
	"github.com/docsbridge/docsbridge/internal/pkg/kvstore"
)

// kvUserRepository implements UserRepository on the injected store.
//
// Index maintenance rule: every write that introduces a lookup path
// (email, provider:accountId) writes the index entry in the same logical
// operation as the primary record, and every delete removes index entries
// before the primary record. A dangling index entry (primary missing)
// reads as ErrNotFound, not as an error.
type kvUserRepository struct {
	store kvstore.Store
}

// NewUserRepository returns a UserRepository backed by the given store.
func NewUserRepository(store kvstore.Store) UserRepository {
	return &kvUserRepository{store: store}
}

func (r *kvUserRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if user == nil {
		return nil, ErrInvalidInput
	}
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if existing, err := r.GetUserByEmail(ctx, user.Email); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: email already in use", ErrInvalidInput)
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	created := *user
	created.ID = uuid.NewString()
	now := time.Now()
	created.CreatedAt = now
	created.UpdatedAt = now

	if err := r.store.Put(ctx, userKey(created.ID), &created); err != nil {
		return nil, err
	}
	if err := r.store.Put(ctx, userEmailKey(created.Email), created.ID); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *kvUserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	var user models.User
	if err := r.store.Get(ctx, userKey(id), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *kvUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if email == "" {
		return nil, ErrInvalidInput
	}
	var id string
	if err := r.store.Get(ctx, userEmailKey(email), &id); err != nil {
		return nil, err
	}
	user, err := r.GetUserByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		// Dangling email index; the primary record is authoritative.
		return nil, ErrNotFound
	}
	return user, err
}

func (r *kvUserRepository) GetUserByAccount(ctx context.Context, provider, providerAccountID string) (*models.User, error) {
	account, err := r.GetAccount(ctx, provider, providerAccountID)
	if err != nil {
		return nil, err
	}
	return r.GetUserByID(ctx, account.UserID)
}

func (r *kvUserRepository) UpdateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if user == nil || user.ID == "" {
		return nil, ErrInvalidInput
	}
	existing, err := r.GetUserByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	updated := *user
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now()
	if updated.Email == "" {
		updated.Email = existing.Email
	}

	if err := r.store.Put(ctx, userKey(updated.ID), &updated); err != nil {
		return nil, err
	}
	if updated.Email != existing.Email {
		if err := r.store.Put(ctx, userEmailKey(updated.Email), updated.ID); err != nil {
			return nil, err
		}
		if err := r.store.Delete(ctx, userEmailKey(existing.Email)); err != nil {
			return nil, err
		}
	}
	return &updated, nil
}

// DeleteUser removes the user along with all linked accounts, browser
// sessions, and their index entries. Deletes are sequential best-effort:
// index entries go first so a concurrent reader never resolves an index to
// a half-deleted record.
func (r *kvUserRepository) DeleteUser(ctx context.Context, id string) error {
	user, err := r.GetUserByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := r.store.Delete(ctx, userEmailKey(user.Email)); err != nil {
		return err
	}

	accountIDs, err := r.store.MembersOf(ctx, accountsByUserKey(id))
	if err != nil {
		return err
	}
	for _, accountID := range accountIDs {
		var account models.ProviderAccount
		if err := r.store.Get(ctx, accountKey(accountID), &account); err == nil {
			if err := r.store.Delete(ctx, accountIndexKey(account.Provider, account.ProviderAccountID)); err != nil {
				return err
			}
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		if err := r.store.Delete(ctx, accountKey(accountID)); err != nil {
			return err
		}
		if err := r.store.RemoveFromSet(ctx, accountsByUserKey(id), accountID); err != nil {
			return err
		}
	}

	sessionTokens, err := r.store.MembersOf(ctx, sessionsByUserKey(id))
	if err != nil {
		return err
	}
	for _, token := range sessionTokens {
		if err := r.store.Delete(ctx, sessionKey(token)); err != nil {
			return err
		}
		if err := r.store.RemoveFromSet(ctx, sessionsByUserKey(id), token); err != nil {
			return err
		}
	}

	return r.store.Delete(ctx, userKey(id))
}

func (r *kvUserRepository) LinkAccount(ctx context.Context, account *models.ProviderAccount) (*models.ProviderAccount, error) {
	if account == nil || account.UserID == "" || account.Provider == "" || account.ProviderAccountID == "" {
		return nil, ErrInvalidInput
	}

	linked := *account
	linked.ID = uuid.NewString()
	now := time.Now()
	linked.CreatedAt = now
	linked.UpdatedAt = now

	if err := r.store.Put(ctx, accountKey(linked.ID), &linked); err != nil {
		return nil, err
	}
	if err := r.store.Put(ctx, accountIndexKey(linked.Provider, linked.ProviderAccountID), linked.ID); err != nil {
		return nil, err
	}
	if err := r.store.AddToSet(ctx, accountsByUserKey(linked.UserID), linked.ID); err != nil {
		return nil, err
	}
	return &linked, nil
}

func (r *kvUserRepository) GetAccount(ctx context.Context, provider, providerAccountID string) (*models.ProviderAccount, error) {
	if provider == "" || providerAccountID == "" {
		return nil, ErrInvalidInput
	}
	var accountID string
	if err := r.store.Get(ctx, accountIndexKey(provider, providerAccountID), &accountID); err != nil {
		return nil, err
	}
	var account models.ProviderAccount
	if err := r.store.Get(ctx, accountKey(accountID), &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *kvUserRepository) UnlinkAccount(ctx context.Context, provider, providerAccountID string) error {
	account, err := r.GetAccount(ctx, provider, providerAccountID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := r.store.Delete(ctx, accountIndexKey(provider, providerAccountID)); err != nil {
		return err
	}
	if err := r.store.Delete(ctx, accountKey(account.ID)); err != nil {
		return err
	}
	return r.store.RemoveFromSet(ctx, accountsByUserKey(account.UserID), account.ID)
}

func (r *kvUserRepository) ProviderTokens(ctx context.Context, userID, provider string) (string, string, error) {
	if userID == "" || provider == "" {
		return "", "", ErrInvalidInput
	}
	accountIDs, err := r.store.MembersOf(ctx, accountsByUserKey(userID))
	if err != nil {
		return "", "", err
	}
	for _, accountID := range accountIDs {
		var account models.ProviderAccount
		if err := r.store.Get(ctx, accountKey(accountID), &account); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return "", "", err
		}
		if account.Provider == provider {
			return account.AccessToken, account.RefreshToken, nil
		}
	}
	return "", "", ErrNotFound
}

func (r *kvUserRepository) CreateSession(ctx context.Context, userID string, expires time.Time) (*models.BrowserSession, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	token := uuid.NewString()
	session := &models.BrowserSession{
		SessionToken: token,
		UserID:       userID,
		Expires:      expires,
	}
	if err := r.store.Put(ctx, sessionKey(token), session); err != nil {
		return nil, err
	}
	if err := r.store.AddToSet(ctx, sessionsByUserKey(userID), token); err != nil {
		return nil, err
	}
	return session, nil
}

func (r *kvUserRepository) GetSessionAndUser(ctx context.Context, sessionToken string) (*models.BrowserSession, *models.User, error) {
	if sessionToken == "" {
		return nil, nil, ErrInvalidInput
	}
	var session models.BrowserSession
	if err := r.store.Get(ctx, sessionKey(sessionToken), &session); err != nil {
		return nil, nil, err
	}
	user, err := r.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, nil, err
	}
	return &session, user, nil
}

func (r *kvUserRepository) UpdateSession(ctx context.Context, sessionToken string, expires *time.Time) (*models.BrowserSession, error) {
	if sessionToken == "" {
		return nil, ErrInvalidInput
	}
	var session models.BrowserSession
	if err := r.store.Get(ctx, sessionKey(sessionToken), &session); err != nil {
		return nil, err
	}
	if expires != nil {
		session.Expires = *expires
	}
	if err := r.store.Put(ctx, sessionKey(sessionToken), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *kvUserRepository) DeleteSession(ctx context.Context, sessionToken string) error {
	if sessionToken == "" {
		return ErrInvalidInput
	}
	var session models.BrowserSession
	err := r.store.Get(ctx, sessionKey(sessionToken), &session)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := r.store.Delete(ctx, sessionKey(sessionToken)); err != nil {
		return err
	}
	return r.store.RemoveFromSet(ctx, sessionsByUserKey(session.UserID), sessionToken)
}

func (r *kvUserRepository) CreateVerificationToken(ctx context.Context, token *models.VerificationToken) error {
	if token == nil || token.Identifier == "" || token.Token == "" {
		return ErrInvalidInput
	}
	return r.store.Put(ctx, verificationTokenKey(token.Identifier, token.Token), token)
}

func (r *kvUserRepository) UseVerificationToken(ctx context.Context, identifier, token string) (*models.VerificationToken, error) {
	if identifier == "" || token == "" {
		return nil, ErrInvalidInput
	}
	var vt models.VerificationToken
	if err := r.store.Get(ctx, verificationTokenKey(identifier, token), &vt); err != nil {
		return nil, err
	}
	// Single use: consuming the token deletes it so replay reads not found.
	if err := r.store.Delete(ctx, verificationTokenKey(identifier, token)); err != nil {
		return nil, err
	}
	return &vt, nil
}
