package observability

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// eventMessages gives each known event type a readable message.
var eventMessages = map[string]string{
	"task.added":           "task added",
	"task.add_rejected":    "task rejected by validation",
	"tasks.imported":       "tasks loaded from JSON",
	"tasks.import_failed":  "bulk import rejected",
	"tasks.analyzed":       "tasks analyzed",
	"tasks.analyze_failed": "analyze request failed",
	"tasks.suggested":      "suggestions fetched",
	"tasks.suggest_failed": "suggest request failed",
}

// Recorder writes events to an EventLog, stamping each with the time, a
// level derived from the event type and the recorder's session id.
type Recorder struct {
	log     EventLog
	session string
	now     func() time.Time
}

// NewRecorder creates a Recorder with a fresh random session id.
func NewRecorder(log EventLog) *Recorder {
	return &Recorder{
		log:     log,
		session: uuid.NewString(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Session returns the id stamped on every event this recorder writes.
func (r *Recorder) Session() string {
	return r.session
}

// LogEvent writes one event of the given type.
func (r *Recorder) LogEvent(eventType string, data map[string]any) error {
	msg, ok := eventMessages[eventType]
	if !ok {
		msg = eventType
	}
	return r.log.Write(Event{
		Time:    r.now(),
		Level:   levelFor(eventType),
		Type:    eventType,
		Session: r.session,
		Message: msg,
		Data:    data,
	})
}

// levelFor maps rejected input to WARN and failed engine calls to ERROR.
func levelFor(eventType string) string {
	switch {
	case strings.HasSuffix(eventType, "_rejected"), eventType == "tasks.import_failed":
		return LevelWarn
	case strings.HasSuffix(eventType, "_failed"):
		return LevelError
	default:
		return LevelInfo
	}
}
