package adapters

import (
	"github.com/de-tools/pbi-refresh/pkg/models/api"
	"github.com/de-tools/pbi-refresh/pkg/models/domain"
)

func MapDomainOutcomeToAPI(o domain.DatasetOutcome) api.DatasetOutcome {
	out := api.DatasetOutcome{
		WorkspaceID: o.WorkspaceID,
		DatasetID:   o.Dataset.ID,
		DatasetName: o.Dataset.Name,
		Action:      string(o.Action),
		Status:      string(o.Status),
		LastRefresh: o.LastRefresh,
	}
	if o.Err != nil {
		out.Error = o.Err.Error()
	}
	return out
}

func MapDomainSummaryToAPI(s *domain.RunSummary) api.RunSummary {
	counts := make(map[string]int)
	for action, n := range s.Counts() {
		counts[string(action)] = n
	}

	outcomes := make([]api.DatasetOutcome, 0, len(s.Outcomes))
	for _, o := range s.Outcomes {
		outcomes = append(outcomes, MapDomainOutcomeToAPI(o))
	}

	return api.RunSummary{
		RunID:      s.RunID,
		Policy:     string(s.Policy),
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
		Counts:     counts,
		Outcomes:   outcomes,
	}
}
