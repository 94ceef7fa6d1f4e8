package models

import "time"

// BrowserSession is an interactive sign-in session. The opaque session
// token is the single source of truth; every live token also appears in
// its owner's sessions-by-user set.
type BrowserSession struct {
	SessionToken string    `json:"sessionToken"`
	UserID       string    `json:"userId"`
	Expires      time.Time `json:"expires"`
}

// Expired reports whether the session deadline has passed.
func (s *BrowserSession) Expired(now time.Time) bool {
	return !s.Expires.After(now)
}
