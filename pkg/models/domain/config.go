package domain

import "fmt"

// Credentials identify the user the run acts on behalf of.
type Credentials struct {
	TenantID string
	ClientID string
	Username string
	Password string
}

func (c Credentials) String() string {
	return fmt.Sprintf("%s@%s", c.Username, c.TenantID)
}
