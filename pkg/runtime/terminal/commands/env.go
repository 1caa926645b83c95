package commands

import (
	"context"
	"fmt"

	"github.com/de-tools/pbi-refresh/pkg/models/domain"
	"github.com/de-tools/pbi-refresh/pkg/services/config"
	"github.com/de-tools/pbi-refresh/pkg/services/refresh"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Refresher is what the commands need from the orchestrator.
type Refresher interface {
	Run(ctx context.Context, policy domain.RefreshPolicy, handler refresh.OutcomeHandler) (*domain.RunSummary, error)
	ListDatasets(ctx context.Context) ([]domain.WorkspaceDatasets, error)
}

// Factory builds a Refresher from the loaded configuration.
type Factory func(cfg *config.Config) (Refresher, error)

func DefaultFactory(cfg *config.Config) (Refresher, error) {
	orchestrator, err := refresh.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return orchestrator, nil
}

// GlobalOptions are the persistent flags shared by every command.
type GlobalOptions struct {
	ConfigFile  string
	ProfileFile string
	Profile     string
	EnvFile     string
	LogLevel    string
}

// Env carries the shared state from the root command into subcommands.
type Env struct {
	Global  *GlobalOptions
	Factory Factory
}

type session struct {
	ctx       context.Context
	cancel    context.CancelFunc
	cfg       *config.Config
	refresher Refresher
}

func (e *Env) open(cmd *cobra.Command, overrides map[string]any) (*session, error) {
	level, err := zerolog.ParseLevel(e.Global.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", e.Global.LogLevel, err)
	}
	logger := zerolog.New(cmd.ErrOrStderr()).With().Timestamp().Logger().Level(level)
	ctx := logger.WithContext(cmd.Context())

	cfg, err := config.Load(ctx, config.Options{
		ConfigFile:  e.Global.ConfigFile,
		ProfileFile: e.Global.ProfileFile,
		Profile:     e.Global.Profile,
		EnvFile:     e.Global.EnvFile,
		Overrides:   overrides,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	refresher, err := e.Factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to set up refresh orchestrator: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	return &session{ctx: ctx, cancel: cancel, cfg: cfg, refresher: refresher}, nil
}
