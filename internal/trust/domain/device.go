package domain

import "time"

// TrustTTL is how long a trusted device may bypass the second factor.
const TrustTTL = 30 * 24 * time.Hour

// Device is a server-side trusted-device record. Possession of a valid,
// unexpired, matching bearer token is necessary and sufficient to skip the
// second factor for its owner.
type Device struct {
	ID         string
	UserID     string
	Token      string // opaque 64-character bearer token, mirrored client-side
	DeviceName string
	Browser    string
	OS         string
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the trust window has passed at the given instant.
func (d *Device) Expired(now time.Time) bool {
	return d.ExpiresAt.Before(now)
}
