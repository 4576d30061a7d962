// Package audit appends leveled events to the log_entries table.
//
// The audit trail is an observability side effect, not a correctness
// dependency: a failed append must never abort the operation that produced
// it, so Log swallows errors after reporting them on the local fallback
// channel (stderr via slog).
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/agirodo/cadastro/internal/store"
)

// Levels recorded in log_entries. These mirror the severity the operations
// report; they are unrelated to the process log level.
const (
	LevelDebug    = "DEBUG"
	LevelInfo     = "INFO"
	LevelWarning  = "WARNING"
	LevelError    = "ERROR"
	LevelCritical = "CRITICAL"
)

// Entry is one audit event as stored.
type Entry struct {
	ID       int
	LoggedAt time.Time
	Level    string
	Message  string
}

// Logger writes audit events.
type Logger struct {
	db store.DB
}

// New creates an audit logger over the given store handle.
func New(db store.DB) *Logger {
	return &Logger{db: db}
}

// Log appends one event. Append failures are reported to the process log
// and otherwise ignored.
func (l *Logger) Log(ctx context.Context, level, message string) {
	_, err := l.db.Exec(ctx,
		`INSERT INTO log_entries (level, message) VALUES ($1, $2)`,
		level, message)
	if err != nil {
		slog.Error("audit append failed", "level", level, "message", message, "error", err)
	}
}

// Logf appends one formatted event.
func (l *Logger) Logf(ctx context.Context, level, format string, args ...any) {
	l.Log(ctx, level, fmt.Sprintf(format, args...))
}

// Recent returns the newest entries, most recent first.
func (l *Logger) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := l.db.Query(ctx,
		`SELECT id, logged_at, level, message
		 FROM log_entries ORDER BY logged_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query log entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.LoggedAt, &e.Level, &e.Message); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
