package repository

// Key layout in the shared store. These prefixes are part of the stored
// contract; changing them orphans existing records.
const (
	userKeyPrefix              = "user:"
	userEmailKeyPrefix         = "user:email:"
	accountKeyPrefix           = "user:account:"
	accountByUserKeyPrefix     = "user:account:by-user-id:"
	sessionKeyPrefix           = "user:session:"
	sessionByUserKeyPrefix     = "user:session:by-user-id:"
	verificationTokenKeyPrefix = "user:token:"

	apiKeyKeyPrefix        = "api-key:"
	apiKeyHashKeyPrefix    = "api-key:hash:"
	apiKeysByUserKeyPrefix = "user:api-keys:"
)

func userKey(id string) string            { return userKeyPrefix + id }
func userEmailKey(email string) string    { return userEmailKeyPrefix + email }
func accountKey(id string) string         { return accountKeyPrefix + id }
func accountIndexKey(provider, providerAccountID string) string {
	return accountKeyPrefix + provider + ":" + providerAccountID
}
func accountsByUserKey(userID string) string { return accountByUserKeyPrefix + userID }
func sessionKey(token string) string         { return sessionKeyPrefix + token }
func sessionsByUserKey(userID string) string { return sessionByUserKeyPrefix + userID }
func verificationTokenKey(identifier, token string) string {
	return verificationTokenKeyPrefix + identifier + ":" + token
}

func apiKeyKey(id string) string             { return apiKeyKeyPrefix + id }
func apiKeyHashKey(hash string) string       { return apiKeyHashKeyPrefix + hash }
func apiKeysByUserKey(userID string) string  { return apiKeysByUserKeyPrefix + userID }
