package model

import "time"

// AuthToken is the admin bearer token together with its expiry
type AuthToken struct {
	Value     string
	ExpiresAt time.Time
}

// Expired reports whether the token is no longer valid at now
func (t AuthToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
