package domain

import (
	"fmt"
	"time"
)

// EventType identifies a security-relevant event. The set is closed; Record
// rejects values outside it.
type EventType string

const (
	EventLogin            EventType = "login"
	EventLoginFailed      EventType = "login_failed"
	EventLogout           EventType = "logout"
	EventPasswordChanged  EventType = "password_changed"
	EventEmailChanged     EventType = "email_changed"
	EventTwoFactorEnabled EventType = "2fa_enabled"
	EventTwoFactorDisabled EventType = "2fa_disabled"
	EventRecoveryCodeUsed EventType = "2fa_recovery_used"
	EventDeviceTrusted    EventType = "device_trusted"
	EventDeviceRemoved    EventType = "device_removed"
	EventSessionRemoved   EventType = "session_removed"
	EventEmployeeAdded    EventType = "employee_added"
	EventEmployeeRemoved  EventType = "employee_removed"
	EventStatusChanged    EventType = "status_changed"
)

var validEventTypes = map[EventType]struct{}{
	EventLogin: {}, EventLoginFailed: {}, EventLogout: {},
	EventPasswordChanged: {}, EventEmailChanged: {},
	EventTwoFactorEnabled: {}, EventTwoFactorDisabled: {}, EventRecoveryCodeUsed: {},
	EventDeviceTrusted: {}, EventDeviceRemoved: {}, EventSessionRemoved: {},
	EventEmployeeAdded: {}, EventEmployeeRemoved: {}, EventStatusChanged: {},
}

// Valid reports whether t is one of the closed event types.
func (t EventType) Valid() bool {
	_, ok := validEventTypes[t]
	return ok
}

// Label returns the human-readable name for t, used by the admin log screen.
func (t EventType) Label() string {
	switch t {
	case EventLogin:
		return "Login"
	case EventLoginFailed:
		return "Failed Login"
	case EventLogout:
		return "Logout"
	case EventPasswordChanged:
		return "Password Changed"
	case EventEmailChanged:
		return "Email Changed"
	case EventTwoFactorEnabled:
		return "2FA Enabled"
	case EventTwoFactorDisabled:
		return "2FA Disabled"
	case EventRecoveryCodeUsed:
		return "Recovery Code Used"
	case EventDeviceTrusted:
		return "Device Trusted"
	case EventDeviceRemoved:
		return "Device Removed"
	case EventSessionRemoved:
		return "Session Removed"
	case EventEmployeeAdded:
		return "Employee Added"
	case EventEmployeeRemoved:
		return "Employee Removed"
	case EventStatusChanged:
		return "Status Changed"
	default:
		return string(t)
	}
}

// Entry is one append-only activity log record. Entries are never mutated or
// deleted once written.
type Entry struct {
	ID          string
	UserID      string
	EventType   EventType
	Description string
	UserAgent   string
	Metadata    map[string]any
	CreatedAt   time.Time
}

// Validate checks the fields required before persisting an entry.
func (e *Entry) Validate() error {
	if e.UserID == "" {
		return fmt.Errorf("activity entry: user id is required")
	}
	if !e.EventType.Valid() {
		return fmt.Errorf("activity entry: unknown event type %q", e.EventType)
	}
	return nil
}
