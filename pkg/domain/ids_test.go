package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "timeclock/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseUserID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseUserID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseUserID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseUserID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, UserID(validUUID), id)
	})
}

// TestTypeDistinction verifies the compiler enforces type safety.
// This is a compile-time check - if this compiles, the invariant holds.
func TestTypeDistinction(t *testing.T) {
	userID := UserID(uuid.New())
	sessionID := SessionID(uuid.New())

	// These would fail to compile if types were interchangeable:
	// var _ UserID = sessionID   // compile error
	// var _ SessionID = userID   // compile error

	// Verify they're distinct at runtime too
	assert.NotEqual(t, uuid.UUID(userID), uuid.UUID(sessionID))
}

// TestParseID_SecurityInvariants validates trust boundary parsing rules:
// parsing must reject attack vectors at API entry points.
func TestParseID_SecurityInvariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		// Attack vectors
		{"SQL injection attempt", "'; DROP TABLE approval_requests;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Unicode zero-width space", "550e8400​-e29b-41d4-a716-446655440000", true},

		// Edge cases
		{"Empty string", "", true},
		{"Nil UUID", uuid.Nil.String(), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},

		// Valid
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseApprovalID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// TestAllIDTypes_ConsistentBehavior ensures all ID types share identical
// parsing behavior; inconsistent validation across ID types would create holes.
func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	validUUID := uuid.New().String()
	invalidInputs := []string{"", "invalid", uuid.Nil.String()}

	t.Run("all accept valid UUID", func(t *testing.T) {
		_, errUser := ParseUserID(validUUID)
		_, errEvent := ParseEventID(validUUID)
		_, errSession := ParseSessionID(validUUID)
		_, errZone := ParseZoneID(validUUID)
		_, errRecord := ParseRecordID(validUUID)
		_, errWorkplace := ParseWorkplaceID(validUUID)
		_, errApproval := ParseApprovalID(validUUID)
		_, errDevice := ParseDeviceID(validUUID)

		assert.NoError(t, errUser)
		assert.NoError(t, errEvent)
		assert.NoError(t, errSession)
		assert.NoError(t, errZone)
		assert.NoError(t, errRecord)
		assert.NoError(t, errWorkplace)
		assert.NoError(t, errApproval)
		assert.NoError(t, errDevice)
	})

	t.Run("all reject invalid inputs", func(t *testing.T) {
		for _, input := range invalidInputs {
			_, errUser := ParseUserID(input)
			_, errEvent := ParseEventID(input)
			_, errSession := ParseSessionID(input)
			_, errZone := ParseZoneID(input)
			_, errRecord := ParseRecordID(input)
			_, errWorkplace := ParseWorkplaceID(input)
			_, errApproval := ParseApprovalID(input)
			_, errDevice := ParseDeviceID(input)

			assert.Error(t, errUser, "input %q", input)
			assert.Error(t, errEvent, "input %q", input)
			assert.Error(t, errSession, "input %q", input)
			assert.Error(t, errZone, "input %q", input)
			assert.Error(t, errRecord, "input %q", input)
			assert.Error(t, errWorkplace, "input %q", input)
			assert.Error(t, errApproval, "input %q", input)
			assert.Error(t, errDevice, "input %q", input)
		}
	})
}

func TestPunchType(t *testing.T) {
	t.Run("parses known values", func(t *testing.T) {
		in, err := ParsePunchType("clock-in")
		require.NoError(t, err)
		assert.Equal(t, PunchClockIn, in)

		out, err := ParsePunchType("clock-out")
		require.NoError(t, err)
		assert.Equal(t, PunchClockOut, out)
	})

	t.Run("rejects unknown values", func(t *testing.T) {
		_, err := ParsePunchType("break")
		require.Error(t, err)

		_, err = ParsePunchType("")
		require.Error(t, err)
	})

	t.Run("IsValid matches parse", func(t *testing.T) {
		assert.True(t, PunchClockIn.IsValid())
		assert.True(t, PunchClockOut.IsValid())
		assert.False(t, PunchType("lunch").IsValid())
	})
}
