// Package core contains the client-side business logic of prio: the task
// store and its identity counter, form and import validation, the session
// that binds the store to the analysis engine, and configuration loading.
package core

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/prio/pkg/models"
)

// ConfigurationManager defines the interface for loading and validating the
// global configuration stored in .prioconfig.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
	ValidateConfig(cfg *models.GlobalConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading YAML configuration files and PRIO_* environment overrides.
type viperConfigManager struct {
	// basePath is the root directory where .prioconfig resides.
	basePath string
}

// NewConfigurationManager creates a new ConfigurationManager that reads
// configuration files relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultGlobalConfig returns a GlobalConfig populated with sensible defaults.
func DefaultGlobalConfig() *models.GlobalConfig {
	return &models.GlobalConfig{
		API: models.APIConfig{
			BaseURL: models.DefaultAPIBaseURL,
			Timeout: 0,
		},
		DefaultStrategy: models.DefaultStrategy,
		WorkspaceFile:   "workspace.yaml",
		EventsEnabled:   true,
	}
}

// LoadGlobalConfig reads the .prioconfig file from the base path using Viper.
// If the file does not exist, defaults (plus any environment overrides) are
// returned.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	cfg := DefaultGlobalConfig()

	v := viper.New()
	v.SetConfigName(".prioconfig")
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	v.SetEnvPrefix("PRIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.timeout", cfg.API.Timeout)
	v.SetDefault("defaults.strategy", string(cfg.DefaultStrategy))
	v.SetDefault("workspace.file", cfg.WorkspaceFile)
	v.SetDefault("events.enabled", cfg.EventsEnabled)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading .prioconfig: %w", err)
		}
	}

	cfg.API.BaseURL = strings.TrimRight(v.GetString("api.base_url"), "/")
	cfg.API.Timeout = v.GetDuration("api.timeout")
	cfg.DefaultStrategy = models.Strategy(strings.ToLower(v.GetString("defaults.strategy")))
	cfg.WorkspaceFile = v.GetString("workspace.file")
	cfg.EventsEnabled = v.GetBool("events.enabled")

	return cfg, nil
}

// ValidateConfig checks the configuration for invalid values and reports
// every problem found in a single error.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if cfg.API.BaseURL == "" {
		errs = append(errs, "api.base_url must not be empty")
	} else if u, err := url.Parse(cfg.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Sprintf("api.base_url %q must be an absolute http(s) URL", cfg.API.BaseURL))
	}

	if cfg.API.Timeout < 0 {
		errs = append(errs, fmt.Sprintf("api.timeout must be non-negative, got %s", cfg.API.Timeout))
	}

	if cfg.DefaultStrategy != "" && !cfg.DefaultStrategy.Valid() {
		errs = append(errs, fmt.Sprintf(
			"defaults.strategy %q is invalid, must be one of: smart_balance, fastest_wins, high_impact, deadline_driven",
			cfg.DefaultStrategy,
		))
	}

	if strings.TrimSpace(cfg.WorkspaceFile) == "" {
		errs = append(errs, "workspace.file must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
