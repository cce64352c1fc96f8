// Package recovery generates, stores, and consumes single-use backup codes
// for login when the authenticator app is unavailable.
package recovery

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// BatchSize is the number of codes produced per generation. Regenerating
// replaces the entire batch.
const BatchSize = 10

// codeAlphabet is the 32-symbol code alphabet. It excludes characters that
// are easy to confuse when read back (I, O, 0, 1).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// normalizedLength is the length of a code with the separator stripped.
const normalizedLength = 8

// generateCode returns one code in display form, two groups of four symbols
// separated by a hyphen (e.g. "AB12-CD34"). Uses crypto/rand.
func generateCode() (string, error) {
	b := make([]byte, normalizedLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := make([]byte, normalizedLength)
	for i := range b {
		s[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(s[:4]) + "-" + string(s[4:]), nil
}

// GenerateBatch returns BatchSize fresh codes in display form.
func GenerateBatch() ([]string, error) {
	codes := make([]string, BatchSize)
	for i := range codes {
		c, err := generateCode()
		if err != nil {
			return nil, err
		}
		codes[i] = c
	}
	return codes, nil
}

// Normalize strips all non-alphanumeric characters and upper-cases the rest,
// so "ab12-cd34" and "AB12CD34" hash identically.
func Normalize(code string) string {
	var b strings.Builder
	b.Grow(len(code))
	for _, r := range code {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizedValid reports whether a normalized code has the expected length.
// Checked before any lookup so malformed input never reaches the store.
func NormalizedValid(normalized string) bool {
	return len(normalized) == normalizedLength
}

// Hash returns the SHA-256 hash of the normalized code, hex-encoded. The
// hash is deterministic and case/separator-insensitive by construction.
func Hash(code string) string {
	h := sha256.Sum256([]byte(Normalize(code)))
	return hex.EncodeToString(h[:])
}
