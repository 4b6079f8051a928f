// Package logger provides structured logging for gamevault-backend.
package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// Color printers for consistent output across the application
var (
	SuccessColor = color.New(color.FgGreen, color.Bold)
	ErrorColor   = color.New(color.FgRed, color.Bold)
	WarnColor    = color.New(color.FgYellow, color.Bold)
	InfoColor    = color.New(color.FgCyan)
	DebugColor   = color.New(color.FgWhite)
)

// Logger defines the interface for logging
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	WithField(key string, value any) Logger

	// StartOperation returns a logger that tracks timing for a
	// long-running operation (backup, restore, migration).
	StartOperation(name string) OperationLogger
}

// OperationLogger tracks timing for a single operation
type OperationLogger interface {
	Update(msg string, args ...any)
	Complete(msg string, args ...any)
	Fail(msg string, args ...any)
}

type logger struct {
	entry *logrus.Entry
}

type operationLogger struct {
	name      string
	startTime time.Time
	parent    *logger
}

// New creates a new logger writing to stdout
func New(level, format string) Logger {
	return NewWithOutput(level, format, os.Stdout)
}

// NewWithOutput creates a new logger writing to the given writer
func NewWithOutput(level, format string, out io.Writer) Logger {
	l := logrus.New()
	l.SetLevel(parseLevel(level))
	l.SetOutput(out)

	switch strings.ToLower(format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&CleanFormatter{})
	}

	return &logger{entry: logrus.NewEntry(l)}
}

// NewSilent creates a logger that discards all output (for tests)
func NewSilent() Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &logger{entry: logrus.NewEntry(l)}
}

func parseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func (l *logger) Debug(msg string, args ...any) { l.log(logrus.DebugLevel, msg, args...) }
func (l *logger) Info(msg string, args ...any)  { l.log(logrus.InfoLevel, msg, args...) }
func (l *logger) Warn(msg string, args ...any)  { l.log(logrus.WarnLevel, msg, args...) }
func (l *logger) Error(msg string, args ...any) { l.log(logrus.ErrorLevel, msg, args...) }

func (l *logger) WithField(key string, value any) Logger {
	return &logger{entry: l.entry.WithField(key, value)}
}

func (l *logger) StartOperation(name string) OperationLogger {
	return &operationLogger{name: name, startTime: time.Now(), parent: l}
}

func (l *logger) log(level logrus.Level, msg string, args ...any) {
	if l == nil || l.entry == nil {
		return
	}
	// Early exit for disabled levels to avoid field allocation overhead
	if !l.entry.Logger.IsLevelEnabled(level) {
		return
	}

	entry := l.entry
	if fields := fieldsFromArgs(args...); fields != nil {
		entry = entry.WithFields(fields)
	}
	entry.Log(level, msg)
}

func (ol *operationLogger) Update(msg string, args ...any) {
	ol.parent.Info(fmt.Sprintf("[%s] %s", ol.name, msg),
		append(args, "elapsed", formatDuration(time.Since(ol.startTime)))...)
}

func (ol *operationLogger) Complete(msg string, args ...any) {
	ol.parent.Info(fmt.Sprintf("[%s] COMPLETED: %s", ol.name, msg),
		append(args, "duration", formatDuration(time.Since(ol.startTime)))...)
}

func (ol *operationLogger) Fail(msg string, args ...any) {
	ol.parent.Error(fmt.Sprintf("[%s] FAILED: %s", ol.name, msg),
		append(args, "duration", formatDuration(time.Since(ol.startTime)))...)
}

// fieldsFromArgs converts variadic key/value pairs into logrus fields
func fieldsFromArgs(args ...any) logrus.Fields {
	if len(args) == 0 {
		return nil
	}

	fields := make(logrus.Fields, len(args)/2+1)
	for i := 0; i < len(args); {
		if i+1 < len(args) {
			if key, ok := args[i].(string); ok {
				fields[key] = args[i+1]
				i += 2
				continue
			}
		}
		fields[fmt.Sprintf("arg%d", i)] = args[i]
		i++
	}
	return fields
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

// CleanFormatter formats log entries in a clean, human-readable format
type CleanFormatter struct{}

// Format implements logrus.Formatter
func (f *CleanFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var buf bytes.Buffer

	var levelText string
	switch entry.Level {
	case logrus.DebugLevel, logrus.TraceLevel:
		levelText = DebugColor.Sprint("DEBUG")
	case logrus.WarnLevel:
		levelText = WarnColor.Sprint("WARN ")
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		levelText = ErrorColor.Sprint("ERROR")
	default:
		levelText = SuccessColor.Sprint("INFO ")
	}

	buf.WriteString(levelText)
	buf.WriteString(" [")
	buf.WriteString(entry.Time.Format("2006-01-02T15:04:05"))
	buf.WriteString("] ")
	buf.WriteString(entry.Message)

	for k, v := range entry.Data {
		buf.WriteByte(' ')
		buf.WriteString(k)
		buf.WriteByte('=')
		fmt.Fprint(&buf, v)
	}

	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
