package domain

import "time"

// AuthRecord is the durable per-email authentication state inside one
// tenant's data store. Records are created on the first sign-in attempt and
// retained indefinitely as the account's auth anchor.
type AuthRecord struct {
	Email         string
	CodeHash      []byte
	CodeExpiresAt time.Time
	Verified      bool
	LoginAttempts int
	LockedUntil   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Locked reports whether the record carries a lock that has not yet elapsed.
func (r AuthRecord) Locked(now time.Time) bool {
	return r.LockedUntil != nil && r.LockedUntil.After(now)
}
