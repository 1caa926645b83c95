package main

import (
	"fmt"
	"net"
	"os"

	"github.com/de-tools/pbi-refresh/pkg/server"
	"github.com/de-tools/pbi-refresh/pkg/services/config"
	"github.com/de-tools/pbi-refresh/pkg/services/refresh"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgPath     string
	profilePath string
	profile     string
	logLevel    string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:          "web",
		Short:        "Start the web server for Power BI dataset refreshes",
		SilenceUsage: true,
		RunE:         runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to a config file (yaml, json, toml, ini)")
	rootCmd.Flags().StringVar(&profilePath, "profile-file", "",
		"Path to the profile file (default is $HOME/.powerbicfg)")
	rootCmd.Flags().StringVarP(&profile, "profile", "p", "", "Profile to read from the profile file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	ctx := logger.WithContext(cmd.Context())

	cfg, err := config.Load(ctx, config.Options{
		ConfigFile:  cfgPath,
		ProfileFile: profilePath,
		Profile:     profile,
	})
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	orchestrator, err := refresh.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to create refresh orchestrator: %w", err)
	}

	logger.Info().Msgf("Configuration loaded for %s.", cfg.Credentials())
	logger.Info().Msgf("Serving the following workspaces:")
	for _, ws := range cfg.Workspaces() {
		logger.Info().Msgf("ID: `%s`", ws.ID)
	}

	api := server.NewWebAPI(server.Config{
		Addr:            net.JoinHostPort(cfg.ServerHost, cfg.ServerPort),
		ShutdownTimeout: cfg.Timeout,
		Dependencies: server.Dependencies{
			Refresher:     orchestrator,
			DefaultPolicy: cfg.RefreshPolicy,
			Logger:        logger,
		},
	})

	return api.Start()
}
