package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/de-tools/pbi-refresh/pkg/models/domain"
	"github.com/de-tools/pbi-refresh/pkg/services/config"
	"github.com/de-tools/pbi-refresh/pkg/store/client"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TokenSource hands out the single access token a run works with.
type TokenSource interface {
	Token(ctx context.Context) (domain.AccessToken, error)
}

// PowerBI is the subset of the Power BI REST API the orchestrator drives.
type PowerBI interface {
	ListDatasets(ctx context.Context, workspaceID string) ([]domain.Dataset, error)
	GetLastRefresh(ctx context.Context, workspaceID, datasetID string) (domain.RefreshRecord, error)
	TriggerRefresh(ctx context.Context, workspaceID string, ds domain.Dataset) (domain.TriggerResult, error)
}

// ClientFactory binds a PowerBI client to an acquired token.
type ClientFactory func(token domain.AccessToken) PowerBI

// OutcomeHandler receives every dataset outcome as soon as it is known.
type OutcomeHandler interface {
	HandleOutcome(outcome domain.DatasetOutcome) error
}

// Orchestrator walks the configured workspaces strictly one call at a time.
type Orchestrator struct {
	tokens     TokenSource
	newClient  ClientFactory
	workspaces []domain.Workspace
	now        func() time.Time
}

func NewOrchestrator(tokens TokenSource, newClient ClientFactory, workspaces []domain.Workspace) *Orchestrator {
	return &Orchestrator{
		tokens:     tokens,
		newClient:  newClient,
		workspaces: workspaces,
		now:        time.Now,
	}
}

// NewFromConfig wires the orchestrator to Entra ID and the Power BI REST API.
func NewFromConfig(cfg *config.Config) (*Orchestrator, error) {
	auth, err := client.NewAuthenticator(cfg.Credentials(), client.AuthOptions{
		AuthorityHost: cfg.AuthorityHost,
	})
	if err != nil {
		return nil, err
	}

	opts := client.Options{
		APIURL:            cfg.APIURL,
		NotifyOption:      cfg.NotifyOption,
		RequestsPerSecond: cfg.RequestsPerSecond,
	}
	factory := func(token domain.AccessToken) PowerBI {
		return client.NewClient(token, opts)
	}
	return NewOrchestrator(auth, factory, cfg.Workspaces()), nil
}

func (o *Orchestrator) Workspaces() []domain.Workspace {
	return o.workspaces
}

// Run acquires one token and applies the policy to every dataset of every
// workspace in listing order. Token or listing failures abort the run and are
// returned together with the outcomes collected so far; per-dataset failures
// are recorded as outcomes and the run goes on.
func (o *Orchestrator) Run(
	ctx context.Context,
	policy domain.RefreshPolicy,
	handler OutcomeHandler,
) (*domain.RunSummary, error) {
	summary := &domain.RunSummary{
		RunID:     uuid.NewString(),
		Policy:    policy,
		StartedAt: o.now(),
	}
	logger := zerolog.Ctx(ctx).With().
		Str("run_id", summary.RunID).
		Str("policy", string(policy)).
		Logger()
	ctx = logger.WithContext(ctx)
	defer func() { summary.FinishedAt = o.now() }()

	pbi, err := o.connect(ctx)
	if err != nil {
		return summary, err
	}

	for _, ws := range o.workspaces {
		datasets, err := pbi.ListDatasets(ctx, ws.ID)
		if err != nil {
			logger.Error().Err(err).Str("workspace", ws.ID).Msg("failed to list datasets")
			return summary, fmt.Errorf("failed to list datasets of workspace %s: %w", ws.ID, err)
		}
		logger.Debug().Str("workspace", ws.ID).Int("datasets", len(datasets)).Msg("datasets listed")

		for _, ds := range datasets {
			outcome := o.processDataset(ctx, pbi, ws.ID, ds, policy)
			summary.Outcomes = append(summary.Outcomes, outcome)
			if handler == nil {
				continue
			}
			if err := handler.HandleOutcome(outcome); err != nil {
				logger.Warn().Err(err).Str("dataset", ds.Name).Msg("failed to report outcome")
			}
		}
	}

	return summary, nil
}

// ListDatasets returns the datasets of every configured workspace.
func (o *Orchestrator) ListDatasets(ctx context.Context) ([]domain.WorkspaceDatasets, error) {
	pbi, err := o.connect(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]domain.WorkspaceDatasets, 0, len(o.workspaces))
	for _, ws := range o.workspaces {
		datasets, err := pbi.ListDatasets(ctx, ws.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list datasets of workspace %s: %w", ws.ID, err)
		}
		result = append(result, domain.WorkspaceDatasets{Workspace: ws, Datasets: datasets})
	}
	return result, nil
}

// ListWorkspaceDatasets returns the datasets of a single workspace.
func (o *Orchestrator) ListWorkspaceDatasets(ctx context.Context, workspaceID string) ([]domain.Dataset, error) {
	pbi, err := o.connect(ctx)
	if err != nil {
		return nil, err
	}
	return pbi.ListDatasets(ctx, workspaceID)
}

func (o *Orchestrator) connect(ctx context.Context) (PowerBI, error) {
	token, err := o.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	return o.newClient(token), nil
}

func (o *Orchestrator) processDataset(
	ctx context.Context,
	pbi PowerBI,
	workspaceID string,
	ds domain.Dataset,
	policy domain.RefreshPolicy,
) domain.DatasetOutcome {
	logger := zerolog.Ctx(ctx).With().
		Str("workspace", workspaceID).
		Str("dataset", ds.Name).
		Logger()
	outcome := domain.DatasetOutcome{WorkspaceID: workspaceID, Dataset: ds}

	if !IsModelBased(ds) {
		outcome.Action = domain.ActionSkipped
		return outcome
	}

	if policy.ReadsStatus() {
		record, err := pbi.GetLastRefresh(ctx, workspaceID, ds.ID)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to read refresh status")
			outcome.Action = domain.ActionError
			outcome.Err = err
			return outcome
		}
		outcome.StatusRead = true
		outcome.Status = record.Status
		outcome.LastRefresh = record.EndTime

		if !policy.ShouldTrigger(record.Status) {
			outcome.Action = domain.ActionStatus
			return outcome
		}
	}

	result, err := pbi.TriggerRefresh(ctx, workspaceID, ds)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to trigger refresh")
		outcome.Action = domain.ActionError
		outcome.Err = err
		return outcome
	}

	switch result.Outcome {
	case domain.TriggerAccepted:
		outcome.Action = domain.ActionTriggered
	case domain.TriggerRateLimited:
		outcome.Action = domain.ActionRateLimited
	default:
		logger.Warn().Err(result.Err()).Msg("refresh request rejected")
		outcome.Action = domain.ActionError
		outcome.Err = result.Err()
	}
	return outcome
}
