// Package device manages the devices punches arrive from. Enrollment issues
// a one-time secret stored only as a bcrypt hash; the User-Agent supplies a
// display name and a fingerprint used to flag drift on later logins.
package device

import (
	"time"

	id "timeclock/pkg/domain"
)

// Device is one enrolled punch device.
type Device struct {
	ID          id.DeviceID
	UserID      id.UserID
	DisplayName string
	Fingerprint string
	SecretHash  string
	EnrolledAt  time.Time
	LastSeenAt  *time.Time
	IsActive    bool
}
