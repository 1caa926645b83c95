package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/de-tools/pbi-refresh/pkg/models/domain"
)

type TableConfig struct {
	IDWidth    int
	NameWidth  int
	KindWidth  int
	OwnerWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		IDWidth:    36,
		NameWidth:  40,
		KindWidth:  8,
		OwnerWidth: 30,
	}
}

// TableReporter renders the datasets of each workspace as a table.
type TableReporter struct {
	writer io.Writer
	config TableConfig
}

func NewTableReporter(writer io.Writer) *TableReporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &TableReporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

func (c *TableReporter) Handle(workspaces []domain.WorkspaceDatasets, isModelBased func(domain.Dataset) bool) error {
	funcMap := template.FuncMap{
		"formatRow": func(id, name, kind, owner string) string {
			return fmt.Sprintf("| %-*s | %-*s | %-*s | %-*s |",
				c.config.IDWidth, id,
				c.config.NameWidth, name,
				c.config.KindWidth, kind,
				c.config.OwnerWidth, owner)
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+%s+%s+",
				strings.Repeat("-", c.config.IDWidth+2),
				strings.Repeat("-", c.config.NameWidth+2),
				strings.Repeat("-", c.config.KindWidth+2),
				strings.Repeat("-", c.config.OwnerWidth+2))
		},
		"kind": func(ds domain.Dataset) string {
			if isModelBased(ds) {
				return "model"
			}
			return "dataflow"
		},
	}

	tmpl := `{{range .}}
=== Workspace {{.Workspace.ID}} ({{len .Datasets}} datasets) ===
{{separator}}
{{formatRow "ID" "Name" "Kind" "Configured by"}}
{{separator}}
{{range .Datasets}}{{formatRow .ID .Name (kind .) .ConfiguredBy}}
{{end}}{{separator}}
{{end}}`

	t, err := template.New("datasets").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, workspaces)
}
