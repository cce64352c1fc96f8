package domain

import "time"

// Session is a lightweight record of "this browser is currently associated
// with this account", shown on the settings devices screen. It carries no
// security weight; MFA bypass is the trusted-device registry's job.
type Session struct {
	ID         string
	UserID     string
	DeviceName string
	DeviceType string // "mobile", "tablet", or "desktop"
	Browser    string
	OS         string
	IsCurrent  bool
	LastActive time.Time
	CreatedAt  time.Time
}
