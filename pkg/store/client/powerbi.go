package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/de-tools/pbi-refresh/pkg/adapters"
	"github.com/de-tools/pbi-refresh/pkg/models/domain"
	"github.com/de-tools/pbi-refresh/pkg/models/store"
	"github.com/rs/zerolog"
)

const (
	DefaultAPIURL = "https://api.powerbi.com"

	moduleName    = "pbi-refresh"
	moduleVersion = "v0.1.0"
)

// Options configure the Power BI REST client.
type Options struct {
	APIURL string
	// NotifyOption is sent with every refresh request when set
	// (NoNotification, MailOnFailure, MailOnCompletion).
	NotifyOption string
	// RequestsPerSecond paces outgoing calls; zero disables pacing.
	RequestsPerSecond float64
	Transport         policy.Transporter
}

// Client talks to the dataset endpoints of the Power BI REST API with a fixed bearer token.
type Client struct {
	baseURL      string
	notifyOption string
	pipeline     runtime.Pipeline
}

func NewClient(token domain.AccessToken, opts Options) *Client {
	baseURL := opts.APIURL
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}

	perCall := []policy.Policy{&bearerPolicy{token: token.Value}}
	if opts.RequestsPerSecond > 0 {
		perCall = append(perCall, newPacer(opts.RequestsPerSecond))
	}

	clientOpts := &policy.ClientOptions{
		Retry: policy.RetryOptions{MaxRetries: -1},
	}
	if opts.Transport != nil {
		clientOpts.Transport = opts.Transport
	}

	return &Client{
		baseURL:      baseURL,
		notifyOption: opts.NotifyOption,
		pipeline:     runtime.NewPipeline(moduleName, moduleVersion, runtime.PipelineOptions{PerCall: perCall}, clientOpts),
	}
}

// ListDatasets returns the datasets of a workspace in the order the service lists them.
func (c *Client) ListDatasets(ctx context.Context, workspaceID string) ([]domain.Dataset, error) {
	logger := zerolog.Ctx(ctx)

	req, err := c.newRequest(ctx, http.MethodGet, c.datasetsURL(workspaceID))
	if err != nil {
		return nil, err
	}

	resp, err := c.pipeline.Do(req)
	if err != nil {
		logger.Warn().Err(err).Str("workspace", workspaceID).Msg("failed to list datasets")
		return nil, fmt.Errorf("failed to list datasets in workspace %s: %w", workspaceID, err)
	}
	if !runtime.HasStatusCode(resp, http.StatusOK) {
		return nil, newFetchError("datasets", resp)
	}

	var list store.DatasetList
	if err := runtime.UnmarshalAsJSON(resp, &list); err != nil {
		return nil, fmt.Errorf("failed to decode datasets of workspace %s: %w", workspaceID, err)
	}

	datasets := make([]domain.Dataset, 0, len(list.Value))
	for _, ds := range list.Value {
		datasets = append(datasets, adapters.MapStoreDatasetToDomain(workspaceID, ds))
	}
	return datasets, nil
}

// GetLastRefresh reads the most recent refresh of a dataset. A dataset that was
// never refreshed yields RefreshStatusNever and a nil end time.
func (c *Client) GetLastRefresh(ctx context.Context, workspaceID, datasetID string) (domain.RefreshRecord, error) {
	req, err := c.newRequest(ctx, http.MethodGet, runtime.JoinPaths(c.datasetURL(workspaceID, datasetID), "refreshes"))
	if err != nil {
		return domain.RefreshRecord{}, err
	}
	req.Raw().URL.RawQuery = "$top=1"

	resp, err := c.pipeline.Do(req)
	if err != nil {
		return domain.RefreshRecord{}, fmt.Errorf("failed to read refresh history of dataset %s: %w", datasetID, err)
	}
	if !runtime.HasStatusCode(resp, http.StatusOK) {
		return domain.RefreshRecord{}, newFetchError("dataset refresh status", resp)
	}

	var list store.RefreshList
	if err := runtime.UnmarshalAsJSON(resp, &list); err != nil {
		return domain.RefreshRecord{}, fmt.Errorf("failed to decode refresh history of dataset %s: %w", datasetID, err)
	}
	if len(list.Value) == 0 {
		return domain.RefreshRecord{Status: domain.RefreshStatusNever}, nil
	}
	return adapters.MapStoreRefreshToDomain(list.Value[0]), nil
}

// TriggerRefresh asks the service to refresh a dataset asynchronously.
// The returned error is only set when no answer was received at all;
// rejections by the service are reported through the result outcome.
func (c *Client) TriggerRefresh(
	ctx context.Context,
	workspaceID string,
	ds domain.Dataset,
) (domain.TriggerResult, error) {
	logger := zerolog.Ctx(ctx)

	req, err := c.newRequest(ctx, http.MethodPost, runtime.JoinPaths(c.datasetURL(workspaceID, ds.ID), "refreshes"))
	if err != nil {
		return domain.TriggerResult{}, err
	}
	if c.notifyOption != "" {
		if err := runtime.MarshalAsJSON(req, store.RefreshRequest{NotifyOption: c.notifyOption}); err != nil {
			return domain.TriggerResult{}, fmt.Errorf("failed to encode refresh request: %w", err)
		}
	}

	resp, err := c.pipeline.Do(req)
	if err != nil {
		return domain.TriggerResult{}, fmt.Errorf("failed to request refresh of dataset %q: %w", ds.Name, err)
	}

	switch resp.StatusCode {
	case http.StatusAccepted:
		return domain.TriggerResult{Outcome: domain.TriggerAccepted}, nil
	case http.StatusTooManyRequests:
		retryAfter := resp.Header.Get("Retry-After")
		logger.Info().
			Str("dataset", ds.Name).
			Str("retry_after", retryAfter).
			Msg("refresh limit reached")
		return domain.TriggerResult{Outcome: domain.TriggerRateLimited, RetryAfter: retryAfter}, nil
	default:
		return domain.TriggerResult{Outcome: domain.TriggerFailed, Detail: newTriggerError(ds.Name, resp)}, nil
	}
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string) (*policy.Request, error) {
	req, err := runtime.NewRequest(ctx, method, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s %s request: %w", method, endpoint, err)
	}
	req.Raw().Header.Set("Content-Type", "application/json")
	req.Raw().Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) datasetsURL(workspaceID string) string {
	return runtime.JoinPaths(c.baseURL, "v1.0/myorg/groups", url.PathEscape(workspaceID), "datasets")
}

func (c *Client) datasetURL(workspaceID, datasetID string) string {
	return runtime.JoinPaths(c.datasetsURL(workspaceID), url.PathEscape(datasetID))
}
