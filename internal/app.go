// Package internal provides the App struct that wires all components of prio
// together and initializes the CLI layer.
package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/valter-silva-au/prio/internal/cli"
	"github.com/valter-silva-au/prio/internal/core"
	"github.com/valter-silva-au/prio/internal/exchange"
	"github.com/valter-silva-au/prio/internal/observability"
	"github.com/valter-silva-au/prio/internal/storage"
	"github.com/valter-silva-au/prio/pkg/models"
)

// configFileNames are the names ResolveBasePath looks for while walking up
// from the current directory.
var configFileNames = []string{".prioconfig.yaml", ".prioconfig.yml", ".prioconfig"}

// App holds all service dependencies for prio.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.GlobalConfig

	// Storage layer
	Workspace storage.WorkspaceManager

	// Core services
	Store   *core.Store
	Client  *exchange.Client
	Session *core.Session

	// Observability
	LogLevel    *slog.LevelVar
	Logger      *slog.Logger
	EventLog    observability.EventLog
	Recorder    *observability.Recorder
	MetricsCalc observability.MetricsCalculator
}

// NewApp creates and wires all components of prio. basePath is the directory
// holding .prioconfig, the workspace file and the event log.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.DefaultStrategy == "" {
		cfg.DefaultStrategy = models.DefaultStrategy
	}
	app.Config = cfg

	// --- Logging ---
	app.LogLevel = new(slog.LevelVar)
	app.LogLevel.Set(slog.LevelInfo)
	app.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: app.LogLevel}))

	// --- Storage layer ---
	app.Workspace = storage.NewWorkspaceManager(basePath, cfg.WorkspaceFile)

	// --- Observability ---
	if cfg.EventsEnabled {
		eventLogPath := filepath.Join(basePath, ".prio_events.jsonl")
		app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
		if err != nil {
			// Non-fatal: run without an event log.
			app.Logger.Warn("event log disabled", "path", eventLogPath, "error", err)
			app.EventLog = nil
		}
	}
	var evtLogger core.EventLogger
	if app.EventLog != nil {
		app.Recorder = observability.NewRecorder(app.EventLog)
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
		evtLogger = app.Recorder
	}

	// --- Core services ---
	app.Client = exchange.NewClient(cfg.API.BaseURL,
		exchange.WithTimeout(cfg.API.Timeout),
		exchange.WithLogger(app.Logger),
	)
	app.Store = core.NewStore()
	app.Session = core.NewSession(app.Store, app.Client, evtLogger)

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Session = app.Session
	cli.Workspace = app.Workspace
	cli.DefaultStrategy = cfg.DefaultStrategy
	cli.LogLevel = app.LogLevel

	cli.EventLog = app.EventLog
	cli.MetricsCalc = app.MetricsCalc

	return app, nil
}

// Close releases resources held by the App, such as the event log file handle.
// It is safe to call Close on an App whose EventLog is nil.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the base path for prio's data. It checks the
// PRIO_HOME env var, then walks up from the current directory looking for a
// .prioconfig file, then falls back to the current directory.
func ResolveBasePath() string {
	if home := os.Getenv("PRIO_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	cwd := dir
	for {
		for _, name := range configFileNames {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return cwd
}
