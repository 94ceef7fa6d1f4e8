package models

import "time"

// VerificationToken is a single-use sign-in token keyed by the composite
// (identifier, token). Consuming it for validation also deletes it, so a
// replayed token reads as not found.
type VerificationToken struct {
	Identifier string    `json:"identifier"`
	Token      string    `json:"token"`
	Expires    time.Time `json:"expires"`
}
