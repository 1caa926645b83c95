package api

import "time"

type Workspace struct {
	ID string `json:"id"`
}

type Dataset struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	WorkspaceID string `json:"workspace_id"`
	ModelBased  bool   `json:"model_based"`
}

type DatasetOutcome struct {
	WorkspaceID string     `json:"workspace_id"`
	DatasetID   string     `json:"dataset_id"`
	DatasetName string     `json:"dataset_name"`
	Action      string     `json:"action"`
	Status      string     `json:"status,omitempty"`
	LastRefresh *time.Time `json:"last_refresh,omitempty"`
	Error       string     `json:"error,omitempty"`
}

type RunSummary struct {
	RunID      string           `json:"run_id"`
	Policy     string           `json:"policy"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Counts     map[string]int   `json:"counts"`
	Outcomes   []DatasetOutcome `json:"outcomes"`
}
