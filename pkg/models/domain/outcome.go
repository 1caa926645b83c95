package domain

import "time"

type Action string

const (
	ActionTriggered   Action = "triggered"
	ActionRateLimited Action = "rate_limited"
	ActionSkipped     Action = "skipped"
	ActionStatus      Action = "status"
	ActionError       Action = "error"
)

// DatasetOutcome is what happened to a single dataset during a run.
type DatasetOutcome struct {
	WorkspaceID string
	Dataset     Dataset
	Action      Action
	// StatusRead is false when the policy never looked at the refresh history.
	StatusRead  bool
	Status      RefreshStatus
	LastRefresh *time.Time
	Err         error
}

type RunSummary struct {
	RunID      string
	Policy     RefreshPolicy
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []DatasetOutcome
}

func (s *RunSummary) Counts() map[Action]int {
	counts := make(map[Action]int)
	for _, o := range s.Outcomes {
		counts[o.Action]++
	}
	return counts
}
