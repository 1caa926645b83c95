package terminal

import (
	"io"
	"os"

	"github.com/de-tools/pbi-refresh/pkg/runtime/terminal/commands"
	"github.com/de-tools/pbi-refresh/pkg/runtime/terminal/export"
	"github.com/spf13/cobra"
)

// CLI represents the command-line interface
type CLI struct {
	env      *commands.Env
	reporter *export.Reporter
	table    *export.TableReporter
	rootCmd  *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Factory   commands.Factory
	Output    io.Writer
	ErrOutput io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.ErrOutput == nil {
		opts.ErrOutput = os.Stderr
	}
	if opts.Factory == nil {
		opts.Factory = commands.DefaultFactory
	}

	cli := &CLI{
		env:      &commands.Env{Global: &commands.GlobalOptions{}, Factory: opts.Factory},
		reporter: export.NewReporter(opts.Output),
		table:    export.NewTableReporter(opts.Output),
	}

	cli.rootCmd = cli.newRootCmd()
	cli.rootCmd.SetOut(opts.Output)
	cli.rootCmd.SetErr(opts.ErrOutput)
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

// SetArgs replaces os.Args[1:] for the next Execute.
func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pbi-refresh",
		Short:         "Refresh Power BI datasets across workspaces",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	g := cli.env.Global
	cmd.PersistentFlags().StringVarP(&g.ConfigFile, "config", "c", "", "Path to a config file (yaml, json, toml, ini)")
	cmd.PersistentFlags().StringVar(&g.ProfileFile, "profile-file", "", "Path to the profile file (default is $HOME/.powerbicfg)")
	cmd.PersistentFlags().StringVarP(&g.Profile, "profile", "p", "", "Profile to read from the profile file (default \"default\")")
	cmd.PersistentFlags().StringVar(&g.EnvFile, "env-file", "", "Path to a .env file (default is ./.env if present)")
	cmd.PersistentFlags().StringVar(&g.LogLevel, "log-level", "warn", "Log level for diagnostics written to stderr")

	cmd.AddCommand(commands.NewRefreshCmd(cli.env, cli.reporter))
	cmd.AddCommand(commands.NewStatusCmd(cli.env, cli.reporter))
	cmd.AddCommand(commands.NewDatasetsCmd(cli.env, cli.table))

	return cmd
}
