// Package audit provides a SQLite-backed security event log. Every insert
// also emits a structured log line, so the slog stream stays the
// line-oriented record and the database stays the queryable one.
package audit

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Event kinds.
const (
	KindBoundaryDenied = "boundary_denied"
	KindSymlinkDenied  = "symlink_denied"
	KindInvalidPath    = "invalid_path"
	KindCSRFDenied     = "csrf_denied"
	KindRateLimited    = "rate_limited"
	KindThemeSaved     = "theme_saved"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS security_events (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	client_addr TEXT NOT NULL DEFAULT '',
	input       TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_security_events_kind ON security_events(kind);
CREATE INDEX IF NOT EXISTS idx_security_events_created ON security_events(created_at);
`

// Event is one recorded security event.
type Event struct {
	ID         string
	Kind       string
	ClientAddr string
	Input      string
	CreatedAt  time.Time
}

// Recorder is what handlers depend on; *Log is the SQLite implementation
// and Nop serves tests that don't care about persistence.
type Recorder interface {
	Record(kind, clientAddr, input string)
}

// Verify implementations at compile time.
var (
	_ Recorder = (*Log)(nil)
	_ Recorder = Nop{}
)

// Nop discards events.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(string, string, string) {}

// Log wraps a sql.DB with audit-specific operations.
type Log struct {
	conn   *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the audit database and applies the schema.
func Open(dsn string, logger *slog.Logger) (*Log, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("audit: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("audit: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("audit: apply schema: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{conn: conn, logger: logger}, nil
}

// Close closes the underlying database connection.
func (l *Log) Close() error {
	return l.conn.Close()
}

// Record persists one event and logs it. Recording is best effort: a
// failed insert is logged and never fails the request that triggered it.
func (l *Log) Record(kind, clientAddr, input string) {
	l.logger.Warn("security event",
		slog.String("kind", kind),
		slog.String("client", clientAddr),
		slog.String("input", input))

	_, err := l.conn.Exec(`
		INSERT INTO security_events (id, kind, client_addr, input, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, uuid.NewString(), kind, clientAddr, input, time.Now().UTC())
	if err != nil {
		l.logger.Error("audit: insert failed", slog.String("error", err.Error()))
	}
}

// Recent returns the newest events, most recent first.
func (l *Log) Recent(limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.conn.Query(`
		SELECT id, kind, client_addr, input, created_at
		FROM security_events
		ORDER BY created_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: query recent: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Kind, &e.ClientAddr, &e.Input, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountByKind returns how many events of the given kind are stored.
func (l *Log) CountByKind(kind string) (int, error) {
	var n int
	err := l.conn.QueryRow(`SELECT COUNT(*) FROM security_events WHERE kind = ?`, kind).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("audit: count: %w", err)
	}
	return n, nil
}
