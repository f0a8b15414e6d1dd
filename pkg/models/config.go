package models

import "time"

// DefaultAPIBaseURL is the analysis engine's API root when none is configured.
const DefaultAPIBaseURL = "http://localhost:8000/api"

// APIConfig holds settings for reaching the analysis engine.
type APIConfig struct {
	BaseURL string        // api.base_url
	Timeout time.Duration // api.timeout
}

// GlobalConfig holds system-wide settings read from .prioconfig via Viper.
// Each field is read from the nested key named beside it; PRIO_ environment
// variables override them with dots replaced by underscores.
type GlobalConfig struct {
	API             APIConfig
	DefaultStrategy Strategy // defaults.strategy
	WorkspaceFile   string   // workspace.file
	EventsEnabled   bool     // events.enabled
}
