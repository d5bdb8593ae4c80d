package notify

import (
	"fmt"
	"os"
	"sync"

	"github.com/coreos/go-systemd/v22/journal"

	"github.com/volkov-io/convergd/internal/log"
)

// LogSink writes events as structured log lines.
type LogSink struct {
	logger log.Logger
}

// NewLogSink creates a sink backed by the given logger.
func NewLogSink(logger log.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Notify implements Sink.
func (s *LogSink) Notify(event Event) error {
	args := []any{"title", event.Title, "urgent", event.Urgent}
	switch event.Level {
	case LevelWarning:
		s.logger.Warn(event.Message, args...)
	case LevelError, LevelCritical:
		s.logger.Error(event.Message, args...)
	default:
		s.logger.Info(event.Message, args...)
	}
	return nil
}

// FileSink appends events to a log file, one line per event.
type FileSink struct {
	mu   sync.Mutex
	path string
}

// NewFileSink creates a sink appending to the given path.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Notify implements Sink.
func (s *FileSink) Notify(event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open notification log: %w", err)
	}
	defer f.Close()

	urgent := ""
	if event.Urgent {
		urgent = " [URGENT]"
	}
	line := fmt.Sprintf("%s %s%s %s: %s\n",
		event.Time.Format("2006-01-02T15:04:05Z"), event.Level, urgent, event.Title, event.Message)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to append notification: %w", err)
	}
	return nil
}

// JournalSink forwards events to the systemd journal.
type JournalSink struct{}

// NewJournalSink creates a journal sink.
func NewJournalSink() *JournalSink {
	return &JournalSink{}
}

// Notify implements Sink.
func (s *JournalSink) Notify(event Event) error {
	if !journal.Enabled() {
		return nil
	}

	priority := journal.PriInfo
	switch event.Level {
	case LevelWarning:
		priority = journal.PriWarning
	case LevelError:
		priority = journal.PriErr
	case LevelCritical:
		priority = journal.PriCrit
	}

	vars := map[string]string{
		"CONVERGD_TITLE":  event.Title,
		"CONVERGD_URGENT": fmt.Sprintf("%t", event.Urgent),
	}
	return journal.Send(fmt.Sprintf("%s: %s", event.Title, event.Message), priority, vars)
}
