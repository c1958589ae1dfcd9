// Package sessionlog durably records what happened during a debug
// session — every BR the debuggee raised and every command/response
// pair the controller issued — so a developer can reconstruct a
// session after a crash without having kept a terminal scrollback.
// Backed by modernc.org/sqlite (pure Go, no cgo). Writes happen from
// the controller side, off the debuggee's blocking I/O loop, so
// recording never perturbs the protocol's hot path.
package sessionlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS breaks (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	path       TEXT NOT NULL,
	line       INTEGER NOT NULL,
	at         TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS commands (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT NOT NULL,
	command     TEXT NOT NULL,
	reply_head  TEXT NOT NULL,
	at          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_breaks_session ON breaks(session_id);
CREATE INDEX IF NOT EXISTS idx_commands_session ON commands(session_id);
`

// Log appends BR events and command/reply pairs for one or more
// sessions to a single SQLite database.
type Log struct {
	db *sql.DB
}

// Open creates (or reuses) the SQLite database at path and ensures
// its schema exists. Passing ":memory:" is useful for tests.
func Open(ctx context.Context, path string) (*Log, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sessionlog: opening %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sessionlog: creating schema: %w", err)
	}
	return &Log{db: db}, nil
}

// Close releases the underlying database handle.
func (l *Log) Close() error { return l.db.Close() }

// RecordBreak appends a BR event for sessionID at the given path/line.
func (l *Log) RecordBreak(ctx context.Context, sessionID, path string, line int, at time.Time) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO breaks (session_id, path, line, at) VALUES (?, ?, ?, ?)`,
		sessionID, path, line, at.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("sessionlog: recording break: %w", err)
	}
	return nil
}

// RecordCommand appends a command/reply pair for sessionID. replyHead
// is a short summary of the reply (its first line is enough — the
// log is for reconstructing a timeline, not replaying bytes).
func (l *Log) RecordCommand(ctx context.Context, sessionID, command, replyHead string, at time.Time) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO commands (session_id, command, reply_head, at) VALUES (?, ?, ?, ?)`,
		sessionID, command, replyHead, at.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("sessionlog: recording command: %w", err)
	}
	return nil
}

// BreakEvent is one recorded BR.
type BreakEvent struct {
	Path string
	Line int
	At   time.Time
}

// CommandEvent is one recorded command/reply pair.
type CommandEvent struct {
	Command   string
	ReplyHead string
	At        time.Time
}

// Replay returns every recorded break and command event for sessionID
// in chronological order, for reconstructing "what happened".
func (l *Log) Replay(ctx context.Context, sessionID string) ([]BreakEvent, []CommandEvent, error) {
	breaks, err := l.replayBreaks(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	commands, err := l.replayCommands(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	return breaks, commands, nil
}

func (l *Log) replayBreaks(ctx context.Context, sessionID string) ([]BreakEvent, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT path, line, at FROM breaks WHERE session_id = ? ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("sessionlog: replaying breaks: %w", err)
	}
	defer rows.Close()

	var out []BreakEvent
	for rows.Next() {
		var e BreakEvent
		var at string
		if err := rows.Scan(&e.Path, &e.Line, &at); err != nil {
			return nil, fmt.Errorf("sessionlog: scanning break: %w", err)
		}
		e.At, err = time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("sessionlog: parsing break timestamp: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (l *Log) replayCommands(ctx context.Context, sessionID string) ([]CommandEvent, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT command, reply_head, at FROM commands WHERE session_id = ? ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("sessionlog: replaying commands: %w", err)
	}
	defer rows.Close()

	var out []CommandEvent
	for rows.Next() {
		var e CommandEvent
		var at string
		if err := rows.Scan(&e.Command, &e.ReplyHead, &at); err != nil {
			return nil, fmt.Errorf("sessionlog: scanning command: %w", err)
		}
		e.At, err = time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("sessionlog: parsing command timestamp: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
