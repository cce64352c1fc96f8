package domain

import "time"

// RecoveryCode is one single-use backup credential. Only the SHA-256 hash of
// the normalized code is stored; the plaintext is shown to the user exactly
// once at generation time.
type RecoveryCode struct {
	ID        string
	UserID    string
	CodeHash  string
	Used      bool
	UsedAt    *time.Time // nil until consumed
	CreatedAt time.Time
}
