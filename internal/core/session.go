package core

import (
	"context"
	"errors"
	"sync"

	"github.com/valter-silva-au/prio/internal/exchange"
	"github.com/valter-silva-au/prio/pkg/models"
)

// ErrNoTasks is returned when analyze or suggest is requested on an empty
// working set. No request is sent.
var ErrNoTasks = errors.New("no tasks to send")

// ErrSuperseded is returned when a remote result arrives after a newer
// request of the same kind was started, or after the working set was
// changed locally. The result is discarded.
var ErrSuperseded = errors.New("superseded by a newer request")

// Exchanger sends the working set to the analysis engine.
// exchange.Client implements it.
type Exchanger interface {
	Analyze(ctx context.Context, strategy models.Strategy, tasks []models.Task) (*exchange.AnalyzeResult, error)
	Suggest(ctx context.Context, strategy models.Strategy, tasks []models.Task) (*exchange.SuggestResult, error)
}

// inflight tracks the newest request of one kind.
type inflight struct {
	gen    uint64
	cancel context.CancelFunc
}

// Session binds a Store to the analysis engine. Each analyze or suggest call
// supersedes the previous call of the same kind: the older call's context is
// cancelled, and if its response still arrives it is dropped. An analyze
// result is also dropped when the store was mutated after the request
// snapshot was taken, so a late response never overwrites local edits.
type Session struct {
	store       *Store
	remote      Exchanger
	eventLogger EventLogger

	mu      sync.Mutex
	analyze inflight
	suggest inflight
}

// NewSession creates a session over store. eventLogger may be nil.
func NewSession(store *Store, remote Exchanger, eventLogger EventLogger) *Session {
	return &Session{
		store:       store,
		remote:      remote,
		eventLogger: eventLogger,
	}
}

// Store returns the working set the session operates on.
func (s *Session) Store() *Store {
	return s.store
}

// Add validates form input and appends a task to the working set.
func (s *Session) Add(in TaskInput) (models.Task, error) {
	task, err := s.store.Add(in)
	if err != nil {
		s.logEvent("task.add_rejected", map[string]any{"error": err.Error()})
		return models.Task{}, err
	}
	s.logEvent("task.added", map[string]any{"task_id": task.ID, "title": task.Title})
	return task, nil
}

// BulkLoad replaces the working set with the tasks in raw.
func (s *Session) BulkLoad(raw string) (int, error) {
	n, err := s.store.BulkLoad(raw)
	if err != nil {
		data := map[string]any{"error": err.Error()}
		var ie *ImportError
		if errors.As(err, &ie) {
			data["kind"] = string(ie.Kind)
		}
		s.logEvent("tasks.import_failed", data)
		return 0, err
	}
	s.logEvent("tasks.imported", map[string]any{"count": n})
	return n, nil
}

// Analyze sends the working set to the engine and, on success, replaces it
// with the returned tasks. The returned result holds the tasks as stored,
// after identity normalization.
func (s *Session) Analyze(ctx context.Context, strategy models.Strategy) (*exchange.AnalyzeResult, error) {
	tasks, version := s.store.view()
	if len(tasks) == 0 {
		return nil, ErrNoTasks
	}

	ctx, gen := s.begin(ctx, &s.analyze)
	defer s.end(&s.analyze, gen)

	res, err := s.remote.Analyze(ctx, strategy, tasks)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.analyze.gen != gen {
		return nil, ErrSuperseded
	}
	if err != nil {
		s.logEvent("tasks.analyze_failed", map[string]any{"strategy": string(strategy), "error": err.Error()})
		return nil, err
	}
	if !s.store.replaceIfVersion(version, res.Tasks) {
		return nil, ErrSuperseded
	}

	res.Tasks = s.store.Tasks()
	s.logEvent("tasks.analyzed", map[string]any{
		"strategy": string(strategy),
		"count":    len(res.Tasks),
		"warnings": len(res.Warnings),
	})
	return res, nil
}

// Suggest asks the engine for the best tasks to work on next. The working
// set is never modified.
func (s *Session) Suggest(ctx context.Context, strategy models.Strategy) (*exchange.SuggestResult, error) {
	tasks, _ := s.store.view()
	if len(tasks) == 0 {
		return nil, ErrNoTasks
	}

	ctx, gen := s.begin(ctx, &s.suggest)
	defer s.end(&s.suggest, gen)

	res, err := s.remote.Suggest(ctx, strategy, tasks)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.suggest.gen != gen {
		return nil, ErrSuperseded
	}
	if err != nil {
		s.logEvent("tasks.suggest_failed", map[string]any{"strategy": string(strategy), "error": err.Error()})
		return nil, err
	}

	s.logEvent("tasks.suggested", map[string]any{"strategy": string(strategy), "count": len(res.Tasks)})
	return res, nil
}

// begin starts a new generation for slot, cancelling the previous request.
func (s *Session) begin(ctx context.Context, slot *inflight) (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slot.cancel != nil {
		slot.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	slot.gen++
	slot.cancel = cancel
	return ctx, slot.gen
}

// end releases the context of generation gen if it is still the newest.
func (s *Session) end(slot *inflight, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slot.gen == gen && slot.cancel != nil {
		slot.cancel()
		slot.cancel = nil
	}
}

// logEvent emits an event if an EventLogger is configured.
func (s *Session) logEvent(eventType string, data map[string]any) {
	if s.eventLogger != nil {
		_ = s.eventLogger.LogEvent(eventType, data)
	}
}
