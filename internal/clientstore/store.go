// Package clientstore models the browser's durable key-value storage as an
// explicit keyed cache. The trusted-device token and device-session id live
// client-side under per-principal keys; server code never treats them as
// ambient state and always addresses them by principal id.
package clientstore

import "context"

// Key prefixes for the per-principal client storage slots.
const (
	trustedDevicePrefix = "trusted_device_"
	deviceSessionPrefix = "device_session_"
)

// TrustedDeviceKey returns the storage key holding the trusted-device bearer
// token for the given principal.
func TrustedDeviceKey(userID string) string {
	return trustedDevicePrefix + userID
}

// DeviceSessionKey returns the storage key holding the device-session id for
// the given principal.
func DeviceSessionKey(userID string) string {
	return deviceSessionPrefix + userID
}

// Store is the read/write/clear contract for the client-side durable storage.
// Implementations: Memory (tests, local provider flows) and the cookie-backed
// request store in the server package. No TTL is enforced at this layer;
// staleness is detected server-side at trusted-device check time.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool)
	Set(ctx context.Context, key, value string)
	Delete(ctx context.Context, key string)
}
