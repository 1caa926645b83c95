package domain

import (
	"fmt"
	"strings"
)

// RefreshPolicy decides which model-based datasets get a refresh request.
type RefreshPolicy string

const (
	// RefreshPolicyFailed triggers a refresh only when the last one failed.
	RefreshPolicyFailed RefreshPolicy = "failed"
	// RefreshPolicyAlways triggers a refresh for every model-based dataset.
	RefreshPolicyAlways RefreshPolicy = "always"
	// RefreshPolicyStatus only reports the last refresh status.
	RefreshPolicyStatus RefreshPolicy = "status"
)

var RefreshPolicies = []RefreshPolicy{RefreshPolicyFailed, RefreshPolicyAlways, RefreshPolicyStatus}

func ParseRefreshPolicy(s string) (RefreshPolicy, error) {
	p := RefreshPolicy(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range RefreshPolicies {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown refresh policy %q, expected one of %v", s, RefreshPolicies)
}

// ReadsStatus reports whether the policy needs the refresh history before deciding.
func (p RefreshPolicy) ReadsStatus() bool {
	return p != RefreshPolicyAlways
}

func (p RefreshPolicy) ShouldTrigger(last RefreshStatus) bool {
	switch p {
	case RefreshPolicyAlways:
		return true
	case RefreshPolicyFailed:
		return last == RefreshStatusFailed
	default:
		return false
	}
}
