package cli

import (
	"log/slog"

	"github.com/valter-silva-au/prio/internal/core"
	"github.com/valter-silva-au/prio/internal/observability"
	"github.com/valter-silva-au/prio/internal/storage"
	"github.com/valter-silva-au/prio/pkg/models"
)

// Service instances, set during app initialization in app.go.
var (
	BasePath        string
	Session         *core.Session
	Workspace       storage.WorkspaceManager
	DefaultStrategy = models.DefaultStrategy
)

// Observability service instances, set during app initialization in app.go.
// Both may be nil when the event log is disabled.
var (
	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
)

// LogLevel controls the level of the engine request logger. --verbose lowers
// it to debug.
var LogLevel *slog.LevelVar
