package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/de-tools/pbi-refresh/pkg/models/domain"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	KeyTenantID          = "tenant_id"
	KeyClientID          = "client_id"
	KeyUsername          = "username"
	KeyPassword          = "password"
	KeyWorkspaceIDs      = "workspace_ids"
	KeyRefreshPolicy     = "refresh_policy"
	KeyNotifyOption      = "notify_option"
	KeyAPIURL            = "api_url"
	KeyAuthorityHost     = "authority_host"
	KeyRequestsPerSecond = "requests_per_second"
	KeyTimeout           = "timeout"
	KeyServerHost        = "server_host"
	KeyServerPort        = "server_port"
)

// envVars maps every key to the environment variable it is read from.
var envVars = map[string]string{
	KeyTenantID:          "TENANT_ID",
	KeyClientID:          "CLIENT_ID",
	KeyUsername:          "USERNAME",
	KeyPassword:          "PASSWORD",
	KeyWorkspaceIDs:      "WORKSPACE_IDS",
	KeyRefreshPolicy:     "REFRESH_POLICY",
	KeyNotifyOption:      "NOTIFY_OPTION",
	KeyAPIURL:            "POWERBI_API_URL",
	KeyAuthorityHost:     "AZURE_AUTHORITY_HOST",
	KeyRequestsPerSecond: "REQUESTS_PER_SECOND",
	KeyTimeout:           "RUN_TIMEOUT",
	KeyServerHost:        "SERVER_HOST",
	KeyServerPort:        "SERVER_PORT",
}

var notifyOptions = []string{"NoNotification", "MailOnFailure", "MailOnCompletion"}

// Config is loaded once at start up and read-only afterwards.
type Config struct {
	TenantID          string               `mapstructure:"tenant_id"`
	ClientID          string               `mapstructure:"client_id"`
	Username          string               `mapstructure:"username"`
	Password          string               `mapstructure:"password"`
	WorkspaceIDs      []string             `mapstructure:"workspace_ids"`
	RefreshPolicy     domain.RefreshPolicy `mapstructure:"refresh_policy"`
	NotifyOption      string               `mapstructure:"notify_option"`
	APIURL            string               `mapstructure:"api_url"`
	AuthorityHost     string               `mapstructure:"authority_host"`
	RequestsPerSecond float64              `mapstructure:"requests_per_second"`
	Timeout           time.Duration        `mapstructure:"timeout"`
	ServerHost        string               `mapstructure:"server_host"`
	ServerPort        string               `mapstructure:"server_port"`
}

// Options select the sources Load reads from. Empty paths fall back to the
// defaults; a missing default file is not an error, a missing explicit one is.
type Options struct {
	ConfigFile  string
	ProfileFile string
	Profile     string
	EnvFile     string
	// Overrides take precedence over every other source, usually set from CLI flags.
	Overrides map[string]any
}

// Load merges, from highest to lowest precedence: overrides, environment,
// the .env file, the config file, the ini profile and the built-in defaults.
func Load(ctx context.Context, opts Options) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if err := applyProfile(ctx, v, opts); err != nil {
		return nil, err
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	for key, env := range envVars {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if err := applyEnvFile(v, opts.EnvFile); err != nil {
		return nil, err
	}

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.WorkspaceIDs = splitWorkspaceIDs(cfg.WorkspaceIDs)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyClientID, "ea0616ba-638b-4df5-95b9-636659ae5121")
	v.SetDefault(KeyRefreshPolicy, string(domain.RefreshPolicyFailed))
	v.SetDefault(KeyAPIURL, "https://api.powerbi.com")
	v.SetDefault(KeyAuthorityHost, "https://login.microsoftonline.com/")
	v.SetDefault(KeyRequestsPerSecond, 0)
	v.SetDefault(KeyTimeout, "5m")
	v.SetDefault(KeyServerHost, "127.0.0.1")
	v.SetDefault(KeyServerPort, "8080")
}

// applyProfile layers an ini profile right above the built-in defaults.
func applyProfile(ctx context.Context, v *viper.Viper, opts Options) error {
	path := opts.ProfileFile
	explicit := path != ""
	if !explicit {
		path = DefaultProfilePath()
	}
	if _, err := os.Stat(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to open profile file %s: %w", path, err)
	}

	registry, err := NewRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load profile file %s: %w", path, err)
	}

	name := opts.Profile
	if name == "" {
		name = DefaultProfile
	}
	values, err := registry.GetProfile(ctx, name)
	if err != nil {
		if !explicit && opts.Profile == "" {
			return nil
		}
		return err
	}

	for key, value := range values {
		v.SetDefault(strings.ToLower(key), value)
	}
	return nil
}

// applyEnvFile loads a .env file without touching the process environment.
// Non-empty variables already present in the environment win.
func applyEnvFile(v *viper.Viper, path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}

	values, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}

	for key, env := range envVars {
		if os.Getenv(env) != "" {
			continue
		}
		if value, ok := values[env]; ok && value != "" {
			v.Set(key, value)
		}
	}
	return nil
}

func splitWorkspaceIDs(raw []string) []string {
	var ids []string
	for _, item := range raw {
		for _, id := range strings.Split(item, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// Validate reports every missing or malformed setting at once.
func (c *Config) Validate() error {
	var missing []string
	if c.TenantID == "" {
		missing = append(missing, envVars[KeyTenantID])
	}
	if c.Username == "" {
		missing = append(missing, envVars[KeyUsername])
	}
	if c.Password == "" {
		missing = append(missing, envVars[KeyPassword])
	}
	if len(c.WorkspaceIDs) == 0 {
		missing = append(missing, envVars[KeyWorkspaceIDs])
	}
	if len(missing) > 0 {
		return fmt.Errorf("required configuration is missing: %v", missing)
	}

	policy, err := domain.ParseRefreshPolicy(string(c.RefreshPolicy))
	if err != nil {
		return err
	}
	c.RefreshPolicy = policy

	if c.NotifyOption != "" && !slices.Contains(notifyOptions, c.NotifyOption) {
		return fmt.Errorf("unknown notify option %q, expected one of %v", c.NotifyOption, notifyOptions)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must not be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

func (c *Config) Credentials() domain.Credentials {
	return domain.Credentials{
		TenantID: c.TenantID,
		ClientID: c.ClientID,
		Username: c.Username,
		Password: c.Password,
	}
}

func (c *Config) Workspaces() []domain.Workspace {
	workspaces := make([]domain.Workspace, 0, len(c.WorkspaceIDs))
	for _, id := range c.WorkspaceIDs {
		workspaces = append(workspaces, domain.Workspace{ID: id})
	}
	return workspaces
}
