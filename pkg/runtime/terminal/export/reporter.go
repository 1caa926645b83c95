package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/de-tools/pbi-refresh/pkg/models/domain"
)

const outcomeTemplate = `
{{- define "last" }}{{ if .StatusRead }} Last refresh time: {{ formatTime .LastRefresh }}{{ end }}{{ end -}}
{{- if eq .Action "triggered" -}}
Dataset "{{ .Dataset.Name }}" refresh triggered.{{ template "last" . }}
{{- else if eq .Action "rate_limited" -}}
Dataset "{{ .Dataset.Name }}" refresh limit reached. Try again later.{{ template "last" . }}
{{- else if eq .Action "status" -}}
Dataset "{{ .Dataset.Name }}" status: {{ .Status }}.{{ template "last" . }}
{{- else if eq .Action "skipped" -}}
Skipping dataset "{{ .Dataset.Name }}" as it is not model-based
{{- else -}}
Error processing dataset "{{ .Dataset.Name }}": {{ .Err }}
{{- end }}
`

const summaryTemplate = `Run {{ .RunID }} ({{ .Policy }}) finished in {{ duration . }}:
{{- range $i, $action := actions }} {{ $action }}={{ index $.ActionCounts $action }}{{ end }}
`

// Reporter prints one line per dataset outcome.
type Reporter struct {
	writer  io.Writer
	outcome *template.Template
	summary *template.Template
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}

	funcMap := template.FuncMap{
		"formatTime": func(t *time.Time) string {
			if t == nil {
				return "never"
			}
			return t.UTC().Format(time.RFC3339)
		},
		"duration": func(s summaryView) string {
			return s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond).String()
		},
		"actions": func() []domain.Action {
			return []domain.Action{
				domain.ActionTriggered,
				domain.ActionRateLimited,
				domain.ActionStatus,
				domain.ActionSkipped,
				domain.ActionError,
			}
		},
	}

	return &Reporter{
		writer:  writer,
		outcome: template.Must(template.New("outcome").Funcs(funcMap).Parse(strings.TrimSpace(outcomeTemplate) + "\n")),
		summary: template.Must(template.New("summary").Funcs(funcMap).Parse(summaryTemplate)),
	}
}

func (c *Reporter) HandleOutcome(outcome domain.DatasetOutcome) error {
	if err := c.outcome.Execute(c.writer, outcome); err != nil {
		return fmt.Errorf("failed to render outcome: %w", err)
	}
	return nil
}

type summaryView struct {
	*domain.RunSummary
	ActionCounts map[domain.Action]int
}

func (c *Reporter) HandleSummary(summary *domain.RunSummary) error {
	view := summaryView{RunSummary: summary, ActionCounts: summary.Counts()}
	if err := c.summary.Execute(c.writer, view); err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	return nil
}
