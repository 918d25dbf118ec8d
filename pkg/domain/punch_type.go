package domain

import "fmt"

// PunchType distinguishes clock-in from clock-out events. It is shared by
// verification sessions, temporary workplace records, and punch requests.
type PunchType string

const (
	PunchClockIn  PunchType = "clock-in"
	PunchClockOut PunchType = "clock-out"
)

// ParsePunchType validates and returns a PunchType.
func ParsePunchType(s string) (PunchType, error) {
	switch PunchType(s) {
	case PunchClockIn, PunchClockOut:
		return PunchType(s), nil
	}
	return "", fmt.Errorf("unknown punch type: %q", s)
}

func (t PunchType) String() string {
	return string(t)
}

// IsValid reports whether the punch type is one of the known values.
func (t PunchType) IsValid() bool {
	return t == PunchClockIn || t == PunchClockOut
}
