// Package logging provides structured logging for the Oba LDAP server.
package logging

import (
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents the logging level.
type Level int

const (
	// LevelDebug is the most verbose level.
	LevelDebug Level = iota
	// LevelInfo is for informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLevel parses a string into a Level.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// zapLevel maps a Level onto the zapcore.Level the underlying core filters on.
func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Format represents the log output format.
type Format int

const (
	// FormatText outputs logs in human-readable text format.
	FormatText Format = iota
	// FormatJSON outputs logs in JSON format.
	FormatJSON
)

// ParseFormat parses a string into a Format.
func ParseFormat(s string) Format {
	switch s {
	case "json":
		return FormatJSON
	case "text":
		return FormatText
	default:
		return FormatText
	}
}

// Logger is the interface for structured logging.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs.
	Debug(msg string, keysAndValues ...interface{})
	// Info logs an info message with optional key-value pairs.
	Info(msg string, keysAndValues ...interface{})
	// Warn logs a warning message with optional key-value pairs.
	Warn(msg string, keysAndValues ...interface{})
	// Error logs an error message with optional key-value pairs.
	Error(msg string, keysAndValues ...interface{})
	// WithRequestID returns a new logger with the given request ID.
	WithRequestID(requestID string) Logger
	// WithFields returns a new logger with the given fields.
	WithFields(keysAndValues ...interface{}) Logger
	// WithSource returns a new logger tagging every entry with the given
	// subsystem source (e.g. "system", "ldap", "acl").
	WithSource(source string) Logger
	// SetStore attaches a LogStore that every subsequent entry is also
	// persisted to, in addition to the configured output writer.
	SetStore(store *LogStore)
}

// logger is the default implementation of Logger, backed by a
// zap.SugaredLogger so callers keep the loosely-typed keysAndValues idiom
// while the actual encoding, level filtering and field propagation are
// zap's, not hand-rolled.
type logger struct {
	zl        *zap.SugaredLogger
	level     Level
	format    Format
	output    io.Writer
	requestID string
	source    string
	store     *storeRef
}

// storeRef holds the optional LogStore a logger tree persists entries to.
// It is shared by pointer across a logger and every WithRequestID/WithFields/
// WithSource clone derived from it, so SetStore called once on a base
// logger takes effect for loggers already derived from it.
type storeRef struct {
	mu    sync.RWMutex
	store *LogStore
}

func (r *storeRef) get() *LogStore {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store
}

func (r *storeRef) set(store *LogStore) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store = store
}

// Config holds the logger configuration.
type Config struct {
	Level  string
	Format string
	Output string
}

// encoderConfig is shared by both the JSON and console encoders so the two
// formats agree on field names (ts/level/msg) and time/level rendering.
func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
	}
}

func newZapLogger(format Format, level Level, output io.Writer) *zap.Logger {
	cfg := encoderConfig()
	var encoder zapcore.Encoder
	if format == FormatJSON {
		encoder = zapcore.NewJSONEncoder(cfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(cfg)
	}
	core := zapcore.NewCore(encoder, zapcore.AddSync(output), level.zapLevel())
	return zap.New(core)
}

// New creates a new Logger with the given configuration.
func New(cfg Config) Logger {
	var output io.Writer
	switch cfg.Output {
	case "", "stdout":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		// Try to open file, fall back to stdout on error
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			output = os.Stdout
		} else {
			output = f
		}
	}

	level := ParseLevel(cfg.Level)
	format := ParseFormat(cfg.Format)
	return &logger{
		zl:     newZapLogger(format, level, output).Sugar(),
		level:  level,
		format: format,
		output: output,
		store:  &storeRef{},
	}
}

// NewDefault creates a new Logger with default settings.
func NewDefault() Logger {
	return &logger{
		zl:     newZapLogger(FormatText, LevelInfo, os.Stdout).Sugar(),
		level:  LevelInfo,
		format: FormatText,
		output: os.Stdout,
		store:  &storeRef{},
	}
}

// NewNop creates a no-op logger that discards all output.
func NewNop() Logger {
	return &nopLogger{}
}

// Debug logs a debug message.
func (l *logger) Debug(msg string, keysAndValues ...interface{}) {
	l.zl.Debugw(msg, keysAndValues...)
	l.writeStore(LevelDebug, msg, keysAndValues)
}

// Info logs an info message.
func (l *logger) Info(msg string, keysAndValues ...interface{}) {
	l.zl.Infow(msg, keysAndValues...)
	l.writeStore(LevelInfo, msg, keysAndValues)
}

// Warn logs a warning message.
func (l *logger) Warn(msg string, keysAndValues ...interface{}) {
	l.zl.Warnw(msg, keysAndValues...)
	l.writeStore(LevelWarn, msg, keysAndValues)
}

// Error logs an error message.
func (l *logger) Error(msg string, keysAndValues ...interface{}) {
	l.zl.Errorw(msg, keysAndValues...)
	l.writeStore(LevelError, msg, keysAndValues)
}

// writeStore persists the entry to the attached LogStore, if any. The user
// and request ID are pulled from keysAndValues/l.requestID on a best-effort
// basis; LogStore.Write tolerates empty values for both.
func (l *logger) writeStore(level Level, msg string, keysAndValues []interface{}) {
	if l.store == nil {
		return
	}
	store := l.store.get()
	if store == nil {
		return
	}
	fields := kvsToMap(keysAndValues)
	user, _ := fields["user"].(string)
	store.Write(level.String(), msg, l.source, user, l.requestID, fields)
}

func kvsToMap(keysAndValues []interface{}) map[string]interface{} {
	if len(keysAndValues) == 0 {
		return nil
	}
	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}

// WithRequestID returns a new logger with the given request ID attached to
// every subsequent entry via the underlying zap core's field propagation.
func (l *logger) WithRequestID(requestID string) Logger {
	return &logger{
		zl:        l.zl.With("request_id", requestID),
		level:     l.level,
		format:    l.format,
		output:    l.output,
		requestID: requestID,
		source:    l.source,
		store:     l.store,
	}
}

// WithFields returns a new logger with the given fields.
func (l *logger) WithFields(keysAndValues ...interface{}) Logger {
	return &logger{
		zl:        l.zl.With(keysAndValues...),
		level:     l.level,
		format:    l.format,
		output:    l.output,
		requestID: l.requestID,
		source:    l.source,
		store:     l.store,
	}
}

// WithSource returns a new logger tagging every entry with the given
// subsystem source.
func (l *logger) WithSource(source string) Logger {
	return &logger{
		zl:        l.zl.With("source", source),
		level:     l.level,
		format:    l.format,
		output:    l.output,
		requestID: l.requestID,
		source:    source,
		store:     l.store,
	}
}

// SetStore attaches a LogStore that every subsequent entry, including ones
// logged through loggers already derived from this one via WithRequestID,
// WithFields or WithSource, is also persisted to.
func (l *logger) SetStore(store *LogStore) {
	l.store.set(store)
}

// nopLogger is a no-op logger that discards all output.
type nopLogger struct{}

func (n *nopLogger) Debug(_ string, _ ...interface{})   {}
func (n *nopLogger) Info(_ string, _ ...interface{})    {}
func (n *nopLogger) Warn(_ string, _ ...interface{})    {}
func (n *nopLogger) Error(_ string, _ ...interface{})   {}
func (n *nopLogger) WithRequestID(_ string) Logger      { return n }
func (n *nopLogger) WithFields(_ ...interface{}) Logger { return n }
func (n *nopLogger) WithSource(_ string) Logger         { return n }
func (n *nopLogger) SetStore(_ *LogStore)               {}
