package domain

import (
	"fmt"
	"time"
)

// RefreshStatus mirrors the service status strings. Unknown means a refresh is
// still in progress and Never that the dataset has no refresh history.
type RefreshStatus string

const (
	RefreshStatusCompleted RefreshStatus = "Completed"
	RefreshStatusFailed    RefreshStatus = "Failed"
	RefreshStatusDisabled  RefreshStatus = "Disabled"
	RefreshStatusUnknown   RefreshStatus = "Unknown"
	RefreshStatusNever     RefreshStatus = "Never"
)

// RefreshRecord is the most recent entry of a dataset's refresh history.
type RefreshRecord struct {
	Status  RefreshStatus
	EndTime *time.Time
}

type TriggerOutcome string

const (
	TriggerAccepted    TriggerOutcome = "accepted"
	TriggerRateLimited TriggerOutcome = "rate_limited"
	TriggerFailed      TriggerOutcome = "failed"
)

// TriggerResult is the answer of the service to a refresh request.
// Detail is only set for TriggerFailed.
type TriggerResult struct {
	Outcome    TriggerOutcome
	RetryAfter string
	Detail     error
}

func (r TriggerResult) Succeeded() bool {
	return r.Outcome == TriggerAccepted
}

func (r TriggerResult) Err() error {
	if r.Outcome != TriggerFailed {
		return nil
	}
	if r.Detail == nil {
		return fmt.Errorf("refresh request failed")
	}
	return r.Detail
}
