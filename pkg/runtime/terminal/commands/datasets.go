package commands

import (
	"github.com/de-tools/pbi-refresh/pkg/runtime/terminal/export"
	"github.com/de-tools/pbi-refresh/pkg/services/config"
	"github.com/de-tools/pbi-refresh/pkg/services/refresh"
	"github.com/spf13/cobra"
)

type DatasetsCmd struct {
	env          *Env
	reporter     *export.TableReporter
	workspaceIDs []string
}

func NewDatasetsCmd(env *Env, reporter *export.TableReporter) *cobra.Command {
	dc := &DatasetsCmd{env: env, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "List the datasets of the configured workspaces",
		RunE:  dc.run,
	}

	cmd.Flags().StringSliceVar(&dc.workspaceIDs, "workspace", nil, "Workspace id to list (repeatable, overrides configuration)")

	return cmd
}

func (dc *DatasetsCmd) run(cmd *cobra.Command, _ []string) error {
	overrides := map[string]any{}
	if cmd.Flags().Changed("workspace") {
		overrides[config.KeyWorkspaceIDs] = dc.workspaceIDs
	}

	s, err := dc.env.open(cmd, overrides)
	if err != nil {
		return err
	}
	defer s.cancel()

	workspaces, err := s.refresher.ListDatasets(s.ctx)
	if err != nil {
		return err
	}
	return dc.reporter.Handle(workspaces, refresh.IsModelBased)
}
