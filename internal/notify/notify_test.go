package notify

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volkov-io/convergd/internal/log"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (s *recordingSink) Notify(event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *recordingSink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

func TestNotifierFanOut(t *testing.T) {
	first := &recordingSink{}
	second := &recordingSink{}
	n := NewNotifier(log.NewLogger(false), first, second)

	n.Notify(LevelWarning, "disk", "low space", false)

	require.Len(t, first.Events(), 1)
	require.Len(t, second.Events(), 1)
	assert.Equal(t, LevelWarning, first.Events()[0].Level)
	assert.Equal(t, "disk", first.Events()[0].Title)
	assert.Equal(t, "low space", first.Events()[0].Message)
	assert.False(t, first.Events()[0].Time.IsZero())
}

func TestNotifierSinkFailureDoesNotStopDelivery(t *testing.T) {
	failing := &recordingSink{err: errors.New("sink down")}
	healthy := &recordingSink{}
	n := NewNotifier(log.NewLogger(false), failing, healthy)

	n.Error("deploy", "layer failed")

	require.Len(t, failing.Events(), 1)
	require.Len(t, healthy.Events(), 1)
}

func TestNotifierLevelHelpers(t *testing.T) {
	sink := &recordingSink{}
	n := NewNotifier(log.NewLogger(false), sink)

	n.Info("a", "info message")
	n.Warning("b", "warning message")
	n.Error("c", "error message")
	n.Critical("d", "critical message")

	events := sink.Events()
	require.Len(t, events, 4)
	assert.Equal(t, LevelInfo, events[0].Level)
	assert.Equal(t, LevelWarning, events[1].Level)
	assert.Equal(t, LevelError, events[2].Level)
	assert.Equal(t, LevelCritical, events[3].Level)
	assert.False(t, events[0].Urgent)
	assert.True(t, events[3].Urgent)
}

func TestNotifierAddSink(t *testing.T) {
	n := NewNotifier(log.NewLogger(false))
	sink := &recordingSink{}
	n.AddSink(sink)

	n.Info("x", "y")

	require.Len(t, sink.Events(), 1)
}

func TestFileSinkAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notifications.log")
	sink := NewFileSink(path)
	n := NewNotifier(log.NewLogger(false), sink)

	n.Info("reconcile", "applied 3 changes")
	n.Critical("update", "rollback performed")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "info")
	assert.Contains(t, lines[0], "reconcile: applied 3 changes")
	assert.Contains(t, lines[1], "critical")
	assert.Contains(t, lines[1], "[URGENT]")
}

func TestLogSinkNeverFails(t *testing.T) {
	sink := NewLogSink(log.NewLogger(false))

	err := sink.Notify(Event{Level: LevelError, Title: "t", Message: "m"})

	assert.NoError(t, err)
}
