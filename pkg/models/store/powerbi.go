package store

import "time"

// Dataset is a dataset entry of the Power BI REST API.
type Dataset struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ConfiguredBy  string `json:"configuredBy,omitempty"`
	IsRefreshable bool   `json:"isRefreshable"`
	// Dataflow is any non-null value the service attaches under "dataflow".
	Dataflow any `json:"dataflow,omitempty"`
}

type DatasetList struct {
	Value []Dataset `json:"value"`
}

type Refresh struct {
	RequestID   string     `json:"requestId,omitempty"`
	RefreshType string     `json:"refreshType,omitempty"`
	StartTime   *time.Time `json:"startTime,omitempty"`
	EndTime     *time.Time `json:"endTime,omitempty"`
	Status      string     `json:"status"`
}

type RefreshList struct {
	Value []Refresh `json:"value"`
}

type RefreshRequest struct {
	NotifyOption string `json:"notifyOption,omitempty"`
}
