package domain

import "time"

type Dataset struct {
	ID            string
	Name          string
	WorkspaceID   string
	ConfiguredBy  string
	IsRefreshable bool
	// HasDataflow is set when the service reports a dataflow behind the dataset.
	HasDataflow   bool
}

type AccessToken struct {
	Value     string
	ExpiresOn time.Time
}
