package observability

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newTestEventLog(t *testing.T) EventLog {
	t.Helper()
	log, err := NewJSONLEventLog(filepath.Join(t.TempDir(), "events.jsonl"))
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	t.Cleanup(func() { _ = log.Close() })
	return log
}

func writeAll(t *testing.T, log EventLog, events []Event) {
	t.Helper()
	for _, e := range events {
		if err := log.Write(e); err != nil {
			t.Fatalf("writing event: %v", err)
		}
	}
}

func TestEventLog_WriteAndRead(t *testing.T) {
	log := newTestEventLog(t)

	now := time.Now().UTC().Truncate(time.Millisecond)
	writeAll(t, log, []Event{
		{
			Time:    now,
			Level:   LevelInfo,
			Type:    "task.added",
			Session: "s1",
			Message: "task added",
			Data:    map[string]any{"task_id": "1"},
		},
		{
			Time:    now.Add(time.Second),
			Level:   LevelError,
			Type:    "tasks.analyze_failed",
			Session: "s1",
			Message: "analyze request failed",
			Data:    map[string]any{"error": "connection refused"},
		},
	})

	result, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("expected 2 events, got %d", len(result))
	}
	if result[0].Type != "task.added" {
		t.Errorf("expected type task.added, got %s", result[0].Type)
	}
	if result[0].Session != "s1" {
		t.Errorf("expected session s1, got %s", result[0].Session)
	}
	if !result[0].Time.Equal(now) {
		t.Errorf("time = %v, want %v", result[0].Time, now)
	}
	if result[1].Data["error"] != "connection refused" {
		t.Errorf("data = %v", result[1].Data)
	}
}

func TestEventLog_FilterByType(t *testing.T) {
	log := newTestEventLog(t)

	now := time.Now().UTC()
	writeAll(t, log, []Event{
		{Time: now, Level: LevelInfo, Type: "task.added", Message: "added"},
		{Time: now.Add(time.Second), Level: LevelInfo, Type: "tasks.analyzed", Message: "analyzed"},
		{Time: now.Add(2 * time.Second), Level: LevelInfo, Type: "task.added", Message: "added again"},
		{Time: now.Add(3 * time.Second), Level: LevelWarn, Type: "task.add_rejected", Message: "rejected"},
	})

	exact, err := log.Read(EventFilter{Type: "task.added"})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(exact) != 2 {
		t.Errorf("expected 2 task.added events, got %d", len(exact))
	}

	prefixed, err := log.Read(EventFilter{Type: "task."})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(prefixed) != 3 {
		t.Errorf("expected 3 task.* events, got %d", len(prefixed))
	}
}

func TestEventLog_FilterByTimeRange(t *testing.T) {
	log := newTestEventLog(t)

	base := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	writeAll(t, log, []Event{
		{Time: base, Level: LevelInfo, Type: "task.added", Message: "first"},
		{Time: base.Add(time.Hour), Level: LevelInfo, Type: "task.added", Message: "second"},
		{Time: base.Add(2 * time.Hour), Level: LevelInfo, Type: "task.added", Message: "third"},
		{Time: base.Add(3 * time.Hour), Level: LevelInfo, Type: "task.added", Message: "fourth"},
	})

	since := base.Add(30 * time.Minute)
	until := base.Add(2*time.Hour + 30*time.Minute)
	result, err := log.Read(EventFilter{Since: &since, Until: &until})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("expected 2 events in time range, got %d", len(result))
	}
	if result[0].Message != "second" || result[1].Message != "third" {
		t.Errorf("got %q, %q, want second, third", result[0].Message, result[1].Message)
	}
}

func TestEventLog_FilterByLevelAndSession(t *testing.T) {
	log := newTestEventLog(t)

	now := time.Now().UTC()
	writeAll(t, log, []Event{
		{Time: now, Level: LevelInfo, Type: "task.added", Session: "a"},
		{Time: now, Level: LevelWarn, Type: "task.add_rejected", Session: "a"},
		{Time: now, Level: LevelWarn, Type: "tasks.import_failed", Session: "b"},
		{Time: now, Level: LevelError, Type: "tasks.suggest_failed", Session: "b"},
	})

	warns, err := log.Read(EventFilter{Level: LevelWarn})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(warns) != 2 {
		t.Errorf("expected 2 WARN events, got %d", len(warns))
	}

	sessionB, err := log.Read(EventFilter{Session: "b", Level: LevelWarn})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(sessionB) != 1 || sessionB[0].Type != "tasks.import_failed" {
		t.Errorf("session b warnings = %+v", sessionB)
	}
}

func TestEventLog_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	content := `{"time":"2025-01-15T10:00:00Z","level":"INFO","type":"task.added","msg":"ok"}
not json at all

{"time":"2025-01-15T11:00:00Z","level":"INFO","type":"tasks.imported","msg":"ok","data":{"count":3}}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	defer log.Close()

	result, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 events, got %d", len(result))
	}
}

func TestEventLog_EmptyLog(t *testing.T) {
	log := newTestEventLog(t)

	result, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading empty log: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("expected 0 events from empty log, got %d", len(result))
	}
}

func TestEventLog_ConcurrentWrites(t *testing.T) {
	log := newTestEventLog(t)

	const goroutines = 10
	const eventsPerGoroutine = 20

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for g := 0; g < goroutines; g++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < eventsPerGoroutine; i++ {
				event := Event{
					Time:    time.Now().UTC(),
					Level:   LevelInfo,
					Type:    "task.added",
					Message: "concurrent event",
					Data:    map[string]any{"goroutine": id, "index": i},
				}
				if err := log.Write(event); err != nil {
					t.Errorf("concurrent write error: %v", err)
				}
			}
		}(g)
	}

	wg.Wait()

	result, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events after concurrent writes: %v", err)
	}

	expected := goroutines * eventsPerGoroutine
	if len(result) != expected {
		t.Errorf("expected %d events, got %d", expected, len(result))
	}
}
