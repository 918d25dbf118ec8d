package provider

import (
	"context"

	"timeclock/internal/verification"
)

// Static always returns the configured outcome. It backs development runs
// where no external verification service is reachable.
type Static struct {
	Outcome verification.Outcome
}

// Approving returns a Static provider that accepts every sample.
func Approving() Static {
	return Static{Outcome: verification.Outcome{Success: true, ConfidencePercent: 100}}
}

func (s Static) Verify(context.Context, string, verification.Sample) (verification.Outcome, error) {
	return s.Outcome, nil
}
