package client

import (
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
)

// AuthenticationError is returned when the identity provider does not hand out a token.
type AuthenticationError struct {
	TenantID string
	Err      error
}

func (e *AuthenticationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("could not obtain access token for tenant %s", e.TenantID)
	}
	return fmt.Sprintf("could not obtain access token for tenant %s: %v", e.TenantID, e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// FetchError carries the raw body of a non-success listing or history response.
type FetchError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("error fetching %s (status %d): %s", e.Op, e.StatusCode, e.Body)
}

// TriggerError carries the raw body of a refresh request the service turned down.
type TriggerError struct {
	DatasetName string
	StatusCode  int
	Body        string
}

func (e *TriggerError) Error() string {
	return fmt.Sprintf("error triggering dataset refresh for %q (status %d): %s", e.DatasetName, e.StatusCode, e.Body)
}

func newFetchError(op string, resp *http.Response) *FetchError {
	body, err := runtime.Payload(resp)
	if err != nil {
		body = []byte(err.Error())
	}
	return &FetchError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
}

func newTriggerError(datasetName string, resp *http.Response) *TriggerError {
	body, err := runtime.Payload(resp)
	if err != nil {
		body = []byte(err.Error())
	}
	return &TriggerError{DatasetName: datasetName, StatusCode: resp.StatusCode, Body: string(body)}
}
