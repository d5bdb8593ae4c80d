package cmd

import (
	"testing"
)

func TestHistoryCommandEmpty(t *testing.T) {
	app, _ := newTestApp(t)

	cmd := NewHistoryCommand().GetCobraCommand()
	SetupCommandContext(cmd, app)

	AssertCommandOutput(t, cmd, []string{}, "No events recorded.")
}

func TestHistoryCommandShowsRecordedEvents(t *testing.T) {
	app, _ := newTestApp(t)

	app.Notifier.Info("Update started", "3 change(s) to apply")
	app.Notifier.Critical("Rollback failed", "manual intervention required")

	cmd := NewHistoryCommand().GetCobraCommand()
	SetupCommandContext(cmd, app)

	AssertCommandOutput(t, cmd, []string{"--limit", "10"},
		"Update started", "! Rollback failed", "manual intervention required")
}

func TestSnapshotListCommandEmpty(t *testing.T) {
	app, _ := newTestApp(t)

	cmd := NewSnapshotCommand().GetCobraCommand()
	SetupCommandContext(cmd, app)

	AssertCommandOutput(t, cmd, []string{"list"}, "No snapshots found.")
}
