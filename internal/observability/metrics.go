package observability

import (
	"fmt"
	"time"
)

// Metrics holds calculated metrics derived from the event log.
type Metrics struct {
	TasksAdded     int            `json:"tasks_added"`
	AddsRejected   int            `json:"adds_rejected"`
	Imports        int            `json:"imports"`
	TasksImported  int            `json:"tasks_imported"`
	ImportsFailed  int            `json:"imports_failed"`
	Analyses       int            `json:"analyses"`
	AnalysesFailed int            `json:"analyses_failed"`
	Suggestions    int            `json:"suggestions"`
	SuggestsFailed int            `json:"suggestions_failed"`
	StrategyUsage  map[string]int `json:"strategy_usage"`
	Sessions       int            `json:"sessions"`
	EventCount     int            `json:"event_count"`
	OldestEvent    *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent    *time.Time     `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

// metricsCalculator implements MetricsCalculator by reading from an EventLog.
type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a new MetricsCalculator that reads from the given EventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate reads all events since the given time and aggregates them into
// metrics. Strategy usage counts successful analyze and suggest calls.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{
		StrategyUsage: make(map[string]int),
	}
	m.EventCount = len(events)
	sessions := make(map[string]struct{})

	for i, event := range events {
		if i == 0 {
			t := event.Time
			m.OldestEvent = &t
		}
		t := event.Time
		m.NewestEvent = &t

		if event.Session != "" {
			sessions[event.Session] = struct{}{}
		}

		switch event.Type {
		case "task.added":
			m.TasksAdded++
		case "task.add_rejected":
			m.AddsRejected++
		case "tasks.imported":
			m.Imports++
			m.TasksImported += intField(event.Data, "count")
		case "tasks.import_failed":
			m.ImportsFailed++
		case "tasks.analyzed":
			m.Analyses++
			countStrategy(m, event.Data)
		case "tasks.analyze_failed":
			m.AnalysesFailed++
		case "tasks.suggested":
			m.Suggestions++
			countStrategy(m, event.Data)
		case "tasks.suggest_failed":
			m.SuggestsFailed++
		}
	}
	m.Sessions = len(sessions)

	return m, nil
}

func countStrategy(m *Metrics, data map[string]any) {
	if s, ok := data["strategy"].(string); ok && s != "" {
		m.StrategyUsage[s]++
	}
}

// intField reads a numeric field. Values decoded from JSON arrive as
// float64; values written in-process may still be int.
func intField(data map[string]any, key string) int {
	switch v := data[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
