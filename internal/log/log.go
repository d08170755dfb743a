// Package log is a small leveled key/value logger on top of the standard
// library logger. Every line carries the component in brackets:
//
//	2026-01-28T09:10:00+01:00 [INFO] [watcher] status published user=a@b.c status=office
package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

// ParseLevel parses debug, info, warn or error (case-insensitive).
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

var (
	mu       sync.Mutex
	backend  = stdlog.New(os.Stderr, "", 0)
	minLevel = LevelInfo
	now      = time.Now
)

// SetLevel sets the minimum level written by all loggers.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = l
}

// SetOutput redirects all loggers to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	backend.SetOutput(w)
}

// Logger writes lines tagged with a component name.
type Logger struct {
	component string
}

// New returns a logger for component, e.g. "watcher" or "gcal".
func New(component string) *Logger {
	return &Logger{component: component}
}

func (l *Logger) Debug(msg string, kv ...any) { l.log(LevelDebug, msg, kv...) }
func (l *Logger) Info(msg string, kv ...any) { l.log(LevelInfo, msg, kv...) }
func (l *Logger) Warn(msg string, kv ...any) { l.log(LevelWarn, msg, kv...) }

// Error logs msg with err prepended to the key/value pairs.
func (l *Logger) Error(msg string, err error, kv ...any) {
	l.log(LevelError, msg, append([]any{"err", err}, kv...)...)
}

func (l *Logger) log(level Level, msg string, kv ...any) {
	mu.Lock()
	defer mu.Unlock()
	if level < minLevel {
		return
	}

	var b strings.Builder
	b.WriteString(now().Format(time.RFC3339))
	b.WriteString(" [")
	b.WriteString(level.String())
	b.WriteString("] ")
	if l.component != "" {
		b.WriteString("[" + l.component + "] ")
	}
	b.WriteString(msg)
	b.WriteString(formatKVs(kv...))
	backend.Println(b.String())
}

// formatKVs renders key/value pairs; a trailing odd value is dropped.
func formatKVs(kv ...any) string {
	var b strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		b.WriteString(" " + key + "=" + quote(fmt.Sprint(kv[i+1])))
	}
	return b.String()
}

func quote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\"=") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

// CronLogger adapts a Logger to robfig/cron's Logger interface.
type CronLogger struct {
	*Logger
}

// Info logs cron's routine messages at debug level; cron is chatty.
func (c CronLogger) Info(msg string, kv ...any) {
	c.Logger.Debug(msg, kv...)
}

// Error logs cron failures, such as recovered job panics.
func (c CronLogger) Error(err error, msg string, kv ...any) {
	c.Logger.Error(msg, err, kv...)
}
