// Package notify fans out reconciliation lifecycle events to pluggable
// sinks.
//
// Events cover the update lifecycle: update started, change applied,
// rollback triggered, deployment finished. A failing sink never blocks the
// others and never fails the operation that emitted the event.
package notify

import (
	"time"

	"github.com/volkov-io/convergd/internal/log"
)

// Level grades event severity.
type Level string

// Event severity levels.
const (
	LevelInfo     Level = "info"
	LevelWarning  Level = "warning"
	LevelError    Level = "error"
	LevelCritical Level = "critical"
)

// Event is one lifecycle notification.
type Event struct {
	Level   Level
	Title   string
	Message string
	// Urgent marks reboot- and rollback-class events that must reach
	// the operator.
	Urgent bool
	Time   time.Time
}

// Sink receives events. Implementations must be safe for concurrent use.
type Sink interface {
	Notify(event Event) error
}

// Notifier broadcasts events to all registered sinks.
type Notifier struct {
	logger log.Logger
	sinks  []Sink
}

// NewNotifier creates a notifier with the given sinks.
func NewNotifier(logger log.Logger, sinks ...Sink) *Notifier {
	return &Notifier{logger: logger, sinks: sinks}
}

// AddSink registers an additional sink.
func (n *Notifier) AddSink(sink Sink) {
	n.sinks = append(n.sinks, sink)
}

// Notify broadcasts an event. Sink failures are logged and swallowed.
func (n *Notifier) Notify(level Level, title, message string, urgent bool) {
	event := Event{
		Level:   level,
		Title:   title,
		Message: message,
		Urgent:  urgent,
		Time:    time.Now().UTC(),
	}
	for _, sink := range n.sinks {
		if err := sink.Notify(event); err != nil {
			n.logger.Warn("Notification sink failed", "title", title, "error", err)
		}
	}
}

// Info broadcasts an informational event.
func (n *Notifier) Info(title, message string) {
	n.Notify(LevelInfo, title, message, false)
}

// Warning broadcasts a warning event.
func (n *Notifier) Warning(title, message string) {
	n.Notify(LevelWarning, title, message, false)
}

// Error broadcasts an error event.
func (n *Notifier) Error(title, message string) {
	n.Notify(LevelError, title, message, false)
}

// Critical broadcasts an urgent critical event.
func (n *Notifier) Critical(title, message string) {
	n.Notify(LevelCritical, title, message, true)
}
