// Package audit persists reconciliation events to a local database.
package audit

import (
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/volkov-io/convergd/internal/log"
	"github.com/volkov-io/convergd/internal/notify"

	// Register migrate's sqlite3 driver.
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"

	// Register sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Entry is a recorded event.
type Entry struct {
	ID        int64
	Level     string
	Title     string
	Message   string
	Urgent    bool
	CreatedAt time.Time
}

// Store writes and queries audit events. It implements notify.Sink so it
// can be attached to a Notifier alongside the other sinks.
type Store struct {
	db     *sql.DB
	logger log.Logger
}

// Open connects to the database at path and applies pending migrations.
func Open(path string, logger log.Logger) (*Store, error) {
	if err := migrateUp(path, logger); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to audit database: %w", err)
	}

	logger.Debug("Connected to audit database", "path", path)

	return &Store{db: db, logger: logger}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Notify implements notify.Sink.
func (s *Store) Notify(event notify.Event) error {
	return s.Record(Entry{
		Level:     string(event.Level),
		Title:     event.Title,
		Message:   event.Message,
		Urgent:    event.Urgent,
		CreatedAt: event.Time,
	})
}

// Record inserts an entry. A zero CreatedAt is replaced with the current time.
func (s *Store) Record(entry Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(
		"INSERT INTO events (level, title, message, urgent, created_at) VALUES (?, ?, ?, ?, ?)",
		entry.Level, entry.Title, entry.Message, entry.Urgent, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record audit event: %w", err)
	}
	return nil
}

// List returns the most recent entries, newest first. A limit of zero or
// less returns all entries.
func (s *Store) List(limit int) ([]Entry, error) {
	query := "SELECT id, level, title, message, urgent, created_at FROM events ORDER BY created_at DESC, id DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Level, &e.Title, &e.Message, &e.Urgent, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes entries older than the cutoff and returns the count removed.
func (s *Store) Prune(cutoff time.Time) (int64, error) {
	result, err := s.db.Exec("DELETE FROM events WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune audit events: %w", err)
	}
	return result.RowsAffected()
}

func migrateUp(path string, logger log.Logger) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, "sqlite3://"+path)
	if err != nil {
		return fmt.Errorf("failed to prepare migrations: %w", err)
	}
	m.Log = &migrationLogger{logger: logger}

	err = m.Up()
	switch {
	case err == migrate.ErrNoChange:
		logger.Debug("No new audit database migrations to apply")
	case err != nil:
		return fmt.Errorf("failed to apply migrations: %w", err)
	default:
		logger.Info("Audit database migrations applied")
	}

	srcErr, dbErr := m.Close()
	if srcErr != nil {
		return srcErr
	}
	return dbErr
}

type migrationLogger struct {
	logger log.Logger
}

func (l *migrationLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug("Migration: " + fmt.Sprintf(format, v...))
}

func (l *migrationLogger) Verbose() bool {
	return false
}
