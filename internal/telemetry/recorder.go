// internal/telemetry/recorder.go
package telemetry

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Attrs carries event attributes. Values should be JSON friendly.
type Attrs map[string]interface{}

// Recorder receives diagnostic breadcrumbs from the core. Implementations must
// be safe for concurrent use and must not block the caller for long.
type Recorder interface {
	Record(ctx context.Context, event string, attrs Attrs)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Record(context.Context, string, Attrs) {}

// OrNop returns r, or Nop when r is nil.
func OrNop(r Recorder) Recorder {
	if r == nil {
		return Nop{}
	}
	return r
}

type requestIDKey struct{}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// LogrusRecorder writes events as structured log lines.
type LogrusRecorder struct {
	logger *logrus.Logger
	level  logrus.Level
}

func NewLogrusRecorder(logger *logrus.Logger, level logrus.Level) *LogrusRecorder {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogrusRecorder{logger: logger, level: level}
}

func (r *LogrusRecorder) Record(ctx context.Context, event string, attrs Attrs) {
	fields := logrus.Fields{"event": event}
	for k, v := range attrs {
		fields[k] = v
	}
	if id := RequestID(ctx); id != "" {
		fields["request_id"] = id
	}
	r.logger.WithFields(fields).Log(r.level, "breadcrumb")
}

// Event is a captured Record call.
type Event struct {
	Name  string
	Attrs Attrs
}

// MemoryRecorder keeps events in memory for assertions.
type MemoryRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (m *MemoryRecorder) Record(_ context.Context, event string, attrs Attrs) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, Event{Name: event, Attrs: attrs})
}

func (m *MemoryRecorder) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// Named returns the captured events with the given name.
func (m *MemoryRecorder) Named(name string) []Event {
	var out []Event
	for _, e := range m.Events() {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// Multi fans an event out to several recorders.
type Multi []Recorder

func (m Multi) Record(ctx context.Context, event string, attrs Attrs) {
	for _, r := range m {
		if r != nil {
			r.Record(ctx, event, attrs)
		}
	}
}
