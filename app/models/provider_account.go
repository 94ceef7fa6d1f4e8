package models

import "time"

// ProviderAccount stores an external OAuth provider identity linked to a
// user, together with the provider's access/refresh token pair. The pair
// (provider, providerAccountId) resolves to exactly one account id, and
// every account id appears in its owner's accounts-by-user set.
type ProviderAccount struct {
	ID                string     `json:"id"`
	UserID            string     `json:"userId"`
	Provider          string     `json:"provider"`
	ProviderAccountID string     `json:"providerAccountId"`
	AccessToken       string     `json:"access_token,omitempty"`
	RefreshToken      string     `json:"refresh_token,omitempty"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}
