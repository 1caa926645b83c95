package refresh

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/de-tools/pbi-refresh/pkg/models/domain"
	"github.com/de-tools/pbi-refresh/pkg/store/client"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTokens struct {
	mock.Mock
}

func (m *mockTokens) Token(ctx context.Context) (domain.AccessToken, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.AccessToken), args.Error(1)
}

type mockPowerBI struct {
	mock.Mock
}

func (m *mockPowerBI) ListDatasets(ctx context.Context, workspaceID string) ([]domain.Dataset, error) {
	args := m.Called(ctx, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Dataset), args.Error(1)
}

func (m *mockPowerBI) GetLastRefresh(ctx context.Context, workspaceID, datasetID string) (domain.RefreshRecord, error) {
	args := m.Called(ctx, workspaceID, datasetID)
	return args.Get(0).(domain.RefreshRecord), args.Error(1)
}

func (m *mockPowerBI) TriggerRefresh(
	ctx context.Context,
	workspaceID string,
	ds domain.Dataset,
) (domain.TriggerResult, error) {
	args := m.Called(ctx, workspaceID, ds)
	return args.Get(0).(domain.TriggerResult), args.Error(1)
}

type collectingHandler struct {
	outcomes []domain.DatasetOutcome
}

func (h *collectingHandler) HandleOutcome(o domain.DatasetOutcome) error {
	h.outcomes = append(h.outcomes, o)
	return nil
}

type fixture struct {
	tokens *mockTokens
	pbi    *mockPowerBI
	orch   *Orchestrator
	ctx    context.Context
}

func setupFixture(t *testing.T, workspaces ...string) *fixture {
	t.Helper()
	tokens := new(mockTokens)
	pbi := new(mockPowerBI)

	var ws []domain.Workspace
	for _, id := range workspaces {
		ws = append(ws, domain.Workspace{ID: id})
	}

	orch := NewOrchestrator(tokens, func(domain.AccessToken) PowerBI { return pbi }, ws)
	logger := zerolog.New(zerolog.NewTestWriter(t))

	return &fixture{
		tokens: tokens,
		pbi:    pbi,
		orch:   orch,
		ctx:    logger.WithContext(context.Background()),
	}
}

func (f *fixture) withToken() *fixture {
	f.tokens.On("Token", mock.Anything).Return(domain.AccessToken{Value: "tok"}, nil).Once()
	return f
}

var (
	sales = domain.Dataset{ID: "1", Name: "Sales", WorkspaceID: "W"}
	flow  = domain.Dataset{ID: "2", Name: "Flow", WorkspaceID: "W", HasDataflow: true}
)

func TestIsModelBased(t *testing.T) {
	assert.True(t, IsModelBased(domain.Dataset{ID: "1"}))
	assert.False(t, IsModelBased(domain.Dataset{ID: "1", HasDataflow: true}))
	assert.True(t, IsModelBased(domain.Dataset{}))
}

func TestRun_FailedPolicy_TriggersFailedAndSkipsDataflow(t *testing.T) {
	f := setupFixture(t, "W").withToken()
	last := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	f.pbi.On("ListDatasets", mock.Anything, "W").Return([]domain.Dataset{sales, flow}, nil)
	f.pbi.On("GetLastRefresh", mock.Anything, "W", "1").
		Return(domain.RefreshRecord{Status: domain.RefreshStatusFailed, EndTime: &last}, nil)
	f.pbi.On("TriggerRefresh", mock.Anything, "W", sales).
		Return(domain.TriggerResult{Outcome: domain.TriggerAccepted}, nil).Once()

	handler := &collectingHandler{}
	summary, err := f.orch.Run(f.ctx, domain.RefreshPolicyFailed, handler)

	require.NoError(t, err)
	require.Len(t, summary.Outcomes, 2)
	assert.Equal(t, summary.Outcomes, handler.outcomes)

	assert.Equal(t, domain.ActionTriggered, summary.Outcomes[0].Action)
	assert.Equal(t, domain.RefreshStatusFailed, summary.Outcomes[0].Status)
	assert.Equal(t, &last, summary.Outcomes[0].LastRefresh)
	assert.True(t, summary.Outcomes[0].StatusRead)

	assert.Equal(t, domain.ActionSkipped, summary.Outcomes[1].Action)
	f.pbi.AssertNotCalled(t, "GetLastRefresh", mock.Anything, "W", "2")
	f.pbi.AssertNumberOfCalls(t, "TriggerRefresh", 1)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, domain.RefreshPolicyFailed, summary.Policy)
	assert.False(t, summary.FinishedAt.Before(summary.StartedAt))
}

func TestRun_FailedPolicy_OtherStatusesDoNotTrigger(t *testing.T) {
	statuses := []domain.RefreshStatus{
		domain.RefreshStatusCompleted,
		domain.RefreshStatusDisabled,
		domain.RefreshStatusUnknown,
		domain.RefreshStatusNever,
	}

	for _, status := range statuses {
		t.Run(string(status), func(t *testing.T) {
			f := setupFixture(t, "W").withToken()
			f.pbi.On("ListDatasets", mock.Anything, "W").Return([]domain.Dataset{sales}, nil)
			f.pbi.On("GetLastRefresh", mock.Anything, "W", "1").
				Return(domain.RefreshRecord{Status: status}, nil)

			summary, err := f.orch.Run(f.ctx, domain.RefreshPolicyFailed, nil)

			require.NoError(t, err)
			require.Len(t, summary.Outcomes, 1)
			assert.Equal(t, domain.ActionStatus, summary.Outcomes[0].Action)
			assert.Equal(t, status, summary.Outcomes[0].Status)
			f.pbi.AssertNotCalled(t, "TriggerRefresh", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestRun_AlwaysPolicy_TriggersEveryModel(t *testing.T) {
	f := setupFixture(t, "W1", "W2").withToken()
	other := domain.Dataset{ID: "3", Name: "Finance", WorkspaceID: "W2"}

	f.pbi.On("ListDatasets", mock.Anything, "W1").Return([]domain.Dataset{sales, flow}, nil)
	f.pbi.On("ListDatasets", mock.Anything, "W2").Return([]domain.Dataset{other}, nil)
	f.pbi.On("TriggerRefresh", mock.Anything, mock.Anything, mock.Anything).
		Return(domain.TriggerResult{Outcome: domain.TriggerAccepted}, nil)

	summary, err := f.orch.Run(f.ctx, domain.RefreshPolicyAlways, nil)

	require.NoError(t, err)
	f.pbi.AssertNotCalled(t, "GetLastRefresh", mock.Anything, mock.Anything, mock.Anything)
	f.pbi.AssertNumberOfCalls(t, "TriggerRefresh", 2)
	f.pbi.AssertCalled(t, "TriggerRefresh", mock.Anything, "W1", sales)
	f.pbi.AssertCalled(t, "TriggerRefresh", mock.Anything, "W2", other)

	counts := summary.Counts()
	assert.Equal(t, 2, counts[domain.ActionTriggered])
	assert.Equal(t, 1, counts[domain.ActionSkipped])
	assert.False(t, summary.Outcomes[0].StatusRead)
}

func TestRun_StatusPolicy_NeverTriggers(t *testing.T) {
	f := setupFixture(t, "W").withToken()
	f.pbi.On("ListDatasets", mock.Anything, "W").Return([]domain.Dataset{sales}, nil)
	f.pbi.On("GetLastRefresh", mock.Anything, "W", "1").
		Return(domain.RefreshRecord{Status: domain.RefreshStatusFailed}, nil)

	summary, err := f.orch.Run(f.ctx, domain.RefreshPolicyStatus, nil)

	require.NoError(t, err)
	assert.Equal(t, domain.ActionStatus, summary.Outcomes[0].Action)
	f.pbi.AssertNotCalled(t, "TriggerRefresh", mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_RateLimitedIsSoftAndRunContinues(t *testing.T) {
	f := setupFixture(t, "W").withToken()
	last := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	f.pbi.On("ListDatasets", mock.Anything, "W").Return([]domain.Dataset{sales, flow}, nil)
	f.pbi.On("GetLastRefresh", mock.Anything, "W", "1").
		Return(domain.RefreshRecord{Status: domain.RefreshStatusFailed, EndTime: &last}, nil)
	f.pbi.On("TriggerRefresh", mock.Anything, "W", sales).
		Return(domain.TriggerResult{Outcome: domain.TriggerRateLimited}, nil)

	summary, err := f.orch.Run(f.ctx, domain.RefreshPolicyFailed, nil)

	require.NoError(t, err)
	require.Len(t, summary.Outcomes, 2)
	assert.Equal(t, domain.ActionRateLimited, summary.Outcomes[0].Action)
	assert.NoError(t, summary.Outcomes[0].Err)
	assert.Equal(t, &last, summary.Outcomes[0].LastRefresh)
	assert.Equal(t, domain.ActionSkipped, summary.Outcomes[1].Action)
}

func TestRun_PerDatasetErrorsDoNotStopTheRun(t *testing.T) {
	f := setupFixture(t, "W1", "W2").withToken()
	broken := domain.Dataset{ID: "4", Name: "Broken", WorkspaceID: "W1"}
	rejected := domain.Dataset{ID: "5", Name: "Rejected", WorkspaceID: "W1"}
	later := domain.Dataset{ID: "6", Name: "Later", WorkspaceID: "W2"}
	rejection := &client.TriggerError{DatasetName: "Rejected", StatusCode: 400, Body: "bad"}

	f.pbi.On("ListDatasets", mock.Anything, "W1").Return([]domain.Dataset{broken, rejected}, nil)
	f.pbi.On("ListDatasets", mock.Anything, "W2").Return([]domain.Dataset{later}, nil)
	f.pbi.On("GetLastRefresh", mock.Anything, "W1", "4").
		Return(domain.RefreshRecord{}, &client.FetchError{Op: "dataset refresh status", StatusCode: 500, Body: "oops"})
	f.pbi.On("GetLastRefresh", mock.Anything, "W1", "5").
		Return(domain.RefreshRecord{Status: domain.RefreshStatusFailed}, nil)
	f.pbi.On("GetLastRefresh", mock.Anything, "W2", "6").
		Return(domain.RefreshRecord{Status: domain.RefreshStatusFailed}, nil)
	f.pbi.On("TriggerRefresh", mock.Anything, "W1", rejected).
		Return(domain.TriggerResult{Outcome: domain.TriggerFailed, Detail: rejection}, nil)
	f.pbi.On("TriggerRefresh", mock.Anything, "W2", later).
		Return(domain.TriggerResult{Outcome: domain.TriggerAccepted}, nil)

	summary, err := f.orch.Run(f.ctx, domain.RefreshPolicyFailed, nil)

	require.NoError(t, err)
	require.Len(t, summary.Outcomes, 3)

	var fetchErr *client.FetchError
	assert.Equal(t, domain.ActionError, summary.Outcomes[0].Action)
	assert.ErrorAs(t, summary.Outcomes[0].Err, &fetchErr)

	assert.Equal(t, domain.ActionError, summary.Outcomes[1].Action)
	assert.ErrorIs(t, summary.Outcomes[1].Err, rejection)

	assert.Equal(t, domain.ActionTriggered, summary.Outcomes[2].Action)
}

func TestRun_TransportErrorOnTriggerIsPerDataset(t *testing.T) {
	f := setupFixture(t, "W").withToken()
	second := domain.Dataset{ID: "7", Name: "Second", WorkspaceID: "W"}
	netErr := errors.New("connection reset")

	f.pbi.On("ListDatasets", mock.Anything, "W").Return([]domain.Dataset{sales, second}, nil)
	f.pbi.On("TriggerRefresh", mock.Anything, "W", sales).Return(domain.TriggerResult{}, netErr)
	f.pbi.On("TriggerRefresh", mock.Anything, "W", second).
		Return(domain.TriggerResult{Outcome: domain.TriggerAccepted}, nil)

	summary, err := f.orch.Run(f.ctx, domain.RefreshPolicyAlways, nil)

	require.NoError(t, err)
	assert.ErrorIs(t, summary.Outcomes[0].Err, netErr)
	assert.Equal(t, domain.ActionTriggered, summary.Outcomes[1].Action)
}

func TestRun_TokenFailureAbortsBeforeAnyDatasetWork(t *testing.T) {
	f := setupFixture(t, "W")
	authErr := &client.AuthenticationError{TenantID: "tenant"}
	f.tokens.On("Token", mock.Anything).Return(domain.AccessToken{}, authErr)

	handler := &collectingHandler{}
	summary, err := f.orch.Run(f.ctx, domain.RefreshPolicyFailed, handler)

	assert.ErrorIs(t, err, authErr)
	assert.Empty(t, summary.Outcomes)
	assert.Empty(t, handler.outcomes)
	f.pbi.AssertNotCalled(t, "ListDatasets", mock.Anything, mock.Anything)
}

func TestRun_ListingFailureAbortsRun(t *testing.T) {
	f := setupFixture(t, "W1", "W2").withToken()
	listErr := &client.FetchError{Op: "datasets", StatusCode: 401, Body: "unauthorized"}

	f.pbi.On("ListDatasets", mock.Anything, "W1").Return([]domain.Dataset{flow}, nil)
	f.pbi.On("ListDatasets", mock.Anything, "W2").Return(nil, listErr)

	summary, err := f.orch.Run(f.ctx, domain.RefreshPolicyAlways, nil)

	var fetchErr *client.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "W2")
	assert.Len(t, summary.Outcomes, 1, "outcomes before the failure are kept")
}

func TestRun_TokenAcquiredOnce(t *testing.T) {
	f := setupFixture(t, "W1", "W2", "W3").withToken()
	f.pbi.On("ListDatasets", mock.Anything, mock.Anything).Return([]domain.Dataset{}, nil)

	_, err := f.orch.Run(f.ctx, domain.RefreshPolicyFailed, nil)

	require.NoError(t, err)
	f.tokens.AssertNumberOfCalls(t, "Token", 1)
	f.pbi.AssertNumberOfCalls(t, "ListDatasets", 3)
}

func TestListDatasets(t *testing.T) {
	f := setupFixture(t, "W1", "W2").withToken()
	f.pbi.On("ListDatasets", mock.Anything, "W1").Return([]domain.Dataset{sales}, nil)
	f.pbi.On("ListDatasets", mock.Anything, "W2").Return([]domain.Dataset{flow}, nil)

	result, err := f.orch.ListDatasets(f.ctx)

	require.NoError(t, err)
	assert.Equal(t, []domain.WorkspaceDatasets{
		{Workspace: domain.Workspace{ID: "W1"}, Datasets: []domain.Dataset{sales}},
		{Workspace: domain.Workspace{ID: "W2"}, Datasets: []domain.Dataset{flow}},
	}, result)
}
