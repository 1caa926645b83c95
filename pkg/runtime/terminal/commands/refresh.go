package commands

import (
	"github.com/de-tools/pbi-refresh/pkg/models/domain"
	"github.com/de-tools/pbi-refresh/pkg/runtime/terminal/export"
	"github.com/de-tools/pbi-refresh/pkg/services/config"
	"github.com/spf13/cobra"
)

type RefreshCmd struct {
	env          *Env
	reporter     *export.Reporter
	policy       string
	fixedPolicy  domain.RefreshPolicy
	workspaceIDs []string
	notifyOption string
	noSummary    bool
}

func NewRefreshCmd(env *Env, reporter *export.Reporter) *cobra.Command {
	rc := &RefreshCmd{env: env, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Trigger dataset refreshes across the configured workspaces",
		Long: `Lists the datasets of every configured workspace and, for each model-based
dataset, applies the refresh policy:

  failed  trigger a refresh only when the last one failed (default)
  always  trigger a refresh for every model-based dataset
  status  only report the last refresh status`,
		RunE: rc.run,
	}

	cmd.Flags().StringVar(&rc.policy, "policy", "", "Refresh policy: failed, always or status")
	rc.bindCommonFlags(cmd)
	cmd.Flags().StringVar(&rc.notifyOption, "notify", "", "Notification option sent with refresh requests")

	return cmd
}

// NewStatusCmd reports refresh status without triggering anything.
func NewStatusCmd(env *Env, reporter *export.Reporter) *cobra.Command {
	rc := &RefreshCmd{env: env, reporter: reporter, fixedPolicy: domain.RefreshPolicyStatus}
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report the last refresh status of every model-based dataset",
		RunE:  rc.run,
	}
	rc.bindCommonFlags(cmd)
	return cmd
}

func (rc *RefreshCmd) bindCommonFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&rc.workspaceIDs, "workspace", nil, "Workspace id to process (repeatable, overrides configuration)")
	cmd.Flags().BoolVar(&rc.noSummary, "no-summary", false, "Do not print the run summary")
}

func (rc *RefreshCmd) overrides(cmd *cobra.Command) map[string]any {
	overrides := map[string]any{}
	if rc.fixedPolicy != "" {
		overrides[config.KeyRefreshPolicy] = string(rc.fixedPolicy)
	} else if cmd.Flags().Changed("policy") {
		overrides[config.KeyRefreshPolicy] = rc.policy
	}
	if cmd.Flags().Changed("workspace") {
		overrides[config.KeyWorkspaceIDs] = rc.workspaceIDs
	}
	if cmd.Flags().Changed("notify") {
		overrides[config.KeyNotifyOption] = rc.notifyOption
	}
	return overrides
}

func (rc *RefreshCmd) run(cmd *cobra.Command, _ []string) error {
	s, err := rc.env.open(cmd, rc.overrides(cmd))
	if err != nil {
		return err
	}
	defer s.cancel()

	summary, err := s.refresher.Run(s.ctx, s.cfg.RefreshPolicy, rc.reporter)
	if err != nil {
		return err
	}

	if rc.noSummary {
		return nil
	}
	return rc.reporter.HandleSummary(summary)
}
