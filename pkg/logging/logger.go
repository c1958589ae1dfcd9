// Package logging provides leveled, optionally-JSON structured
// logging for the debugger's lifecycle events: session start/stop,
// detach-on-I/O-error, breakpoint churn. Protocol traffic itself is
// never logged through this path — it would interleave with the
// line-oriented wire on a shared terminal.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

// String returns the string representation of a log level
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name to a LogLevel, defaulting to INFO
// for anything unrecognized.
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// LogFormat represents the output format for logs
type LogFormat int

const (
	// TextFormat outputs human-readable text logs
	TextFormat LogFormat = iota
	// JSONFormat outputs structured JSON logs
	JSONFormat
)

// LogEntry is a single log record with its metadata.
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	SessionID string                 `json:"session_id,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	// Level is the minimum level to log (default: INFO)
	Level LogLevel
	// Format is the output format (default: TextFormat)
	Format LogFormat
	// Output is the writer to send logs to (default: os.Stderr)
	Output io.Writer
	// SessionID stamps every entry; empty generates a fresh one.
	SessionID string
}

// Logger writes leveled log entries synchronously. Writes are
// serialized by a mutex so the debuggee's hook thread and the
// controller's optional HTTP servers can share one instance.
type Logger struct {
	mu        sync.Mutex
	level     LogLevel
	format    LogFormat
	out       io.Writer
	sessionID string
}

// NewLogger creates a logger with the given configuration.
func NewLogger(config LoggerConfig) (*Logger, error) {
	if config.Output == nil {
		config.Output = os.Stderr
	}
	if config.SessionID == "" {
		config.SessionID = uuid.NewString()
	}
	return &Logger{
		level:     config.Level,
		format:    config.Format,
		out:       config.Output,
		sessionID: config.SessionID,
	}, nil
}

// SessionID returns the id stamped on every entry this logger writes.
func (l *Logger) SessionID() string { return l.sessionID }

func (l *Logger) log(level LogLevel, msg string, fields map[string]interface{}) {
	if level < l.level {
		return
	}
	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     level.String(),
		Message:   msg,
		SessionID: l.sessionID,
		Fields:    fields,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.format == JSONFormat {
		data, err := json.Marshal(entry)
		if err != nil {
			return
		}
		fmt.Fprintln(l.out, string(data))
		return
	}
	fmt.Fprintf(l.out, "[%s] %s %s", entry.Timestamp.Format(time.RFC3339), entry.Level, entry.Message)
	if entry.SessionID != "" {
		fmt.Fprintf(l.out, " session=%s", entry.SessionID)
	}
	for k, v := range fields {
		fmt.Fprintf(l.out, " %s=%v", k, v)
	}
	fmt.Fprintln(l.out)
}

// Debug logs a message at DEBUG level
func (l *Logger) Debug(msg string) { l.log(DEBUG, msg, nil) }

// Info logs a message at INFO level
func (l *Logger) Info(msg string) { l.log(INFO, msg, nil) }

// Warn logs a message at WARN level
func (l *Logger) Warn(msg string) { l.log(WARN, msg, nil) }

// Error logs a message at ERROR level
func (l *Logger) Error(msg string) { l.log(ERROR, msg, nil) }

// DebugWithFields logs at DEBUG level with structured fields
func (l *Logger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.log(DEBUG, msg, fields)
}

// InfoWithFields logs at INFO level with structured fields
func (l *Logger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.log(INFO, msg, fields)
}

// WarnWithFields logs at WARN level with structured fields
func (l *Logger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.log(WARN, msg, fields)
}

// ErrorWithFields logs at ERROR level with structured fields
func (l *Logger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.log(ERROR, msg, fields)
}
