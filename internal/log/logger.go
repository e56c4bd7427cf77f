// Package log fronts the application's structured logging. Engine code logs
// through the package-level functions or a Logger instance; output format,
// debug gating, and file tee are configured once at startup.
package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"dropd/internal/errors"

	"github.com/sirupsen/logrus"
)

const callerKey = "caller"

var (
	isDebug = false
	logger  = NewLogger()
)

// Field is a single structured logging field.
type Field struct {
	Key   string
	Value interface{}
}

// F builds a Field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Option configures a Logger.
type Option func(*Logger)

// WithOutput redirects log output to w.
func WithOutput(w io.Writer) Option {
	return func(l *Logger) {
		l.lr.SetOutput(w)
	}
}

// WithJSON switches the logger to JSON output.
func WithJSON() Option {
	return func(l *Logger) {
		l.lr.SetFormatter(&jsonFormatter{})
	}
}

// WithFile tees log output to the named file in addition to stdout.
func WithFile(path string) Option {
	return func(l *Logger) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			l.lr.Warnf("cannot open log file %s: %v", path, err)
			return
		}
		l.file = f
		l.lr.SetOutput(io.MultiWriter(os.Stdout, f))
	}
}

// Logger wraps a logrus logger behind the application's logging API.
type Logger struct {
	lr   *logrus.Logger
	file *os.File
}

// NewLogger creates a logger writing text-formatted lines to stdout.
func NewLogger(opts ...Option) *Logger {
	lr := logrus.New()
	lr.SetOutput(os.Stdout)
	// Debug visibility is gated by SetDebug, not the logrus level.
	lr.SetLevel(logrus.DebugLevel)
	lr.SetFormatter(&textFormatter{})
	l := &Logger{lr: lr}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Configure replaces the package-level logger.
func Configure(opts ...Option) {
	logger = NewLogger(opts...)
}

// SetDebug toggles debug output for every logger in the process.
func SetDebug(debug bool) {
	isDebug = debug
}

// Entry is a log statement under construction, carrying accumulated fields.
type Entry struct {
	e *logrus.Entry
}

func toLogrus(fields []Field) logrus.Fields {
	lf := make(logrus.Fields, len(fields))
	for _, f := range fields {
		lf[f.Key] = f.Value
	}
	return lf
}

// With returns an entry carrying the given fields.
func (l *Logger) With(fields ...Field) *Entry {
	return &Entry{e: l.lr.WithFields(toLogrus(fields))}
}

// WithContext returns an entry bound to ctx. A nil ctx is allowed.
func (l *Logger) WithContext(ctx context.Context) *Entry {
	e := logrus.NewEntry(l.lr)
	if ctx != nil {
		e = e.WithContext(ctx)
	}
	return &Entry{e: e}
}

// With adds further fields to the entry.
func (e *Entry) With(fields ...Field) *Entry {
	return &Entry{e: e.e.WithFields(toLogrus(fields))}
}

func (e *Entry) withCaller() *logrus.Entry {
	return e.e.WithField(callerKey, callerLocation())
}

// Info logs at info level.
func (e *Entry) Info(args ...interface{}) { e.withCaller().Info(args...) }

// Infof logs a formatted message at info level.
func (e *Entry) Infof(format string, args ...interface{}) { e.withCaller().Infof(format, args...) }

// Warn logs at warning level.
func (e *Entry) Warn(args ...interface{}) { e.withCaller().Warn(args...) }

// Warnf logs a formatted message at warning level.
func (e *Entry) Warnf(format string, args ...interface{}) { e.withCaller().Warnf(format, args...) }

// Error logs at error level.
func (e *Entry) Error(args ...interface{}) { e.withCaller().Error(args...) }

// Errorf logs a formatted message at error level.
func (e *Entry) Errorf(format string, args ...interface{}) { e.withCaller().Errorf(format, args...) }

// Debug logs at debug level when debug output is enabled.
func (e *Entry) Debug(args ...interface{}) {
	if !isDebug {
		return
	}
	e.withCaller().Debug(args...)
}

// Debugf logs a formatted message at debug level when debug output is enabled.
func (e *Entry) Debugf(format string, args ...interface{}) {
	if !isDebug {
		return
	}
	e.withCaller().Debugf(format, args...)
}

func (l *Logger) entry() *Entry {
	return &Entry{e: logrus.NewEntry(l.lr)}
}

// Info logs at info level.
func (l *Logger) Info(args ...interface{}) { l.entry().Info(args...) }

// Infof logs a formatted message at info level.
func (l *Logger) Infof(format string, args ...interface{}) { l.entry().Infof(format, args...) }

// Warn logs at warning level.
func (l *Logger) Warn(args ...interface{}) { l.entry().Warn(args...) }

// Warnf logs a formatted message at warning level.
func (l *Logger) Warnf(format string, args ...interface{}) { l.entry().Warnf(format, args...) }

// Error logs at error level.
func (l *Logger) Error(args ...interface{}) { l.entry().Error(args...) }

// Errorf logs a formatted message at error level.
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry().Errorf(format, args...) }

// Debug logs at debug level when debug output is enabled.
func (l *Logger) Debug(args ...interface{}) { l.entry().Debug(args...) }

// Debugf logs a formatted message at debug level when debug output is enabled.
func (l *Logger) Debugf(format string, args ...interface{}) { l.entry().Debugf(format, args...) }

// Package-level logging through the configured logger.

// Info logs at info level.
func Info(args ...interface{}) { logger.entry().Info(args...) }

// Infof logs a formatted message at info level.
func Infof(format string, args ...interface{}) { logger.entry().Infof(format, args...) }

// Warn logs at warning level.
func Warn(args ...interface{}) { logger.entry().Warn(args...) }

// Warnf logs a formatted message at warning level.
func Warnf(format string, args ...interface{}) { logger.entry().Warnf(format, args...) }

// Error logs at error level.
func Error(args ...interface{}) { logger.entry().Error(args...) }

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...interface{}) { logger.entry().Errorf(format, args...) }

// Debug logs at debug level when debug output is enabled.
func Debug(args ...interface{}) { logger.entry().Debug(args...) }

// Debugf logs a formatted message at debug level when debug output is enabled.
func Debugf(format string, args ...interface{}) { logger.entry().Debugf(format, args...) }

// LogWithFields returns an entry on the configured logger carrying fields.
func LogWithFields(fields ...Field) *Entry {
	return logger.With(fields...)
}

// LogWithError returns an entry annotated with err and, when err is one of the
// application's typed errors, with its kind and context fields.
func LogWithError(err error) *Entry {
	e := logger.With(F("error", fmt.Sprintf("%v", err)))
	if err == nil {
		return e
	}
	e = e.With(F("error_kind", int(errors.KindOf(err))))
	var fileErr *errors.FileError
	if errors.As(err, &fileErr) && fileErr.Path() != "" {
		e = e.With(F("path", fileErr.Path()))
	}
	var configErr *errors.ConfigError
	if errors.As(err, &configErr) && configErr.Param() != "" {
		e = e.With(F("param", configErr.Param()))
	}
	var fetchErr *errors.FetchError
	if errors.As(err, &fetchErr) && fetchErr.URL() != "" {
		e = e.With(F("url", fetchErr.URL()))
	}
	var resErr *errors.ResolveError
	if errors.As(err, &resErr) && resErr.Identifier() != "" {
		e = e.With(F("identifier", resErr.Identifier()))
	}
	return e
}

// LogError logs err at error level with msg.
func LogError(err error, msg string) {
	LogWithError(err).Error(msg)
}

// callerLocation reports the first call frame outside this package.
func callerLocation() string {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		inPackage := strings.Contains(filepath.ToSlash(frame.File), "/internal/log/") &&
			!strings.HasSuffix(frame.File, "_test.go")
		if !inPackage && frame.File != "" {
			return fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)
		}
		if !more {
			return ""
		}
	}
}

type textFormatter struct{}

func (f *textFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "[%s] %s: %s",
		entry.Time.Format("2006-01-02 15:04:05"),
		strings.ToUpper(entry.Level.String()),
		entry.Message)
	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if k == callerKey {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	if caller, ok := entry.Data[callerKey].(string); ok && caller != "" {
		fmt.Fprintf(&b, " (%s)", caller)
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

type jsonFormatter struct{}

func (f *jsonFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	data := make(map[string]interface{}, len(entry.Data)+4)
	for k, v := range entry.Data {
		if err, ok := v.(error); ok {
			data[k] = err.Error()
			continue
		}
		data[k] = v
	}
	if _, ok := data[callerKey]; !ok {
		data[callerKey] = ""
	}
	data["timestamp"] = entry.Time.Format(time.RFC3339)
	data["level"] = strings.ToUpper(entry.Level.String())
	data["message"] = entry.Message
	b, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
