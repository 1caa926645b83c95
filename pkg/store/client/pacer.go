package client

import (
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"golang.org/x/time/rate"
)

// pacer spaces requests out to at most requestsPerSecond. It never retries.
type pacer struct {
	limiter *rate.Limiter
}

func newPacer(requestsPerSecond float64) *pacer {
	return &pacer{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1)}
}

func (p *pacer) Do(req *policy.Request) (*http.Response, error) {
	if err := p.limiter.Wait(req.Raw().Context()); err != nil {
		return nil, err
	}
	return req.Next()
}

type bearerPolicy struct {
	token string
}

func (p *bearerPolicy) Do(req *policy.Request) (*http.Response, error) {
	req.Raw().Header.Set("Authorization", "Bearer "+p.token)
	return req.Next()
}
