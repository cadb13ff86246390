package logger

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger writes structured lines through zerolog. When a collector is
// attached, warn and error lines are also aggregated for shipping.
type Logger struct {
	zl        zerolog.Logger
	collector *LogCollector
	// Context fields from With, repeated on collected entries.
	base []Field
}

type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	Output     string // stdout, stderr, or file path
	TimeFormat string
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

func New(cfg *Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	out, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}

	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = timeFormat

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: timeFormat}
	}

	zl := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		CallerWithSkipFrameCount(3).
		Logger()
	return &Logger{zl: zl}, nil
}

func openOutput(output string) (io.Writer, error) {
	switch output {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("could not open log file: %w", err)
	}
	return f, nil
}

// With returns a child logger that always carries the given fields.
func (l *Logger) With(fields ...Field) *Logger {
	ctx := l.zl.With()
	for _, f := range fields {
		ctx = ctx.Interface(f.Key, f.Value)
	}
	base := make([]Field, 0, len(l.base)+len(fields))
	base = append(base, l.base...)
	base = append(base, fields...)
	return &Logger{zl: ctx.Logger(), collector: l.collector, base: base}
}

func (l *Logger) Debug(msg string, fields ...Field) {
	write(l.zl.Debug(), msg, fields)
}

func (l *Logger) Info(msg string, fields ...Field) {
	write(l.zl.Info(), msg, fields)
}

func (l *Logger) Warn(msg string, fields ...Field) {
	write(l.zl.Warn(), msg, fields)
	l.collect("warn", msg, fields)
}

func (l *Logger) Error(msg string, fields ...Field) {
	write(l.zl.Error(), msg, fields)
	l.collect("error", msg, fields)
}

// AddCollector attaches a collector, closing any previous one.
func (l *Logger) AddCollector(config *CollectionConfig) {
	if l.collector != nil {
		l.collector.Close()
	}
	l.collector = NewLogCollector(config)
}

// RemoveCollector flushes and detaches the collector.
func (l *Logger) RemoveCollector() {
	if l.collector != nil {
		l.collector.Close()
		l.collector = nil
	}
}

func write(e *zerolog.Event, msg string, fields []Field) {
	for _, f := range fields {
		f.add(e)
	}
	e.Msg(msg)
}

func (l *Logger) collect(level, msg string, fields []Field) {
	if l.collector == nil {
		return
	}

	// Skip collect and Warn/Error to reach the calling code.
	caller := "unknown"
	if _, file, line, ok := runtime.Caller(2); ok {
		if i := strings.LastIndex(file, "FinDash/"); i >= 0 {
			file = file[i+len("FinDash/"):]
		}
		caller = fmt.Sprintf("%s:%d", file, line)
	}

	m := make(map[string]interface{}, len(l.base)+len(fields))
	for _, f := range l.base {
		m[f.Key] = f.Value
	}
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	l.collector.AddLog(level, msg, m, caller)
}

// Field is one structured key/value pair.
type Field struct {
	Key   string
	Value interface{}
	add   func(*zerolog.Event)
}

func String(key, value string) Field {
	return Field{key, value, func(e *zerolog.Event) { e.Str(key, value) }}
}

func Strings(key string, value []string) Field {
	return Field{key, value, func(e *zerolog.Event) { e.Strs(key, value) }}
}

func Int(key string, value int) Field {
	return Field{key, value, func(e *zerolog.Event) { e.Int(key, value) }}
}

func Int64(key string, value int64) Field {
	return Field{key, value, func(e *zerolog.Event) { e.Int64(key, value) }}
}

func Float64(key string, value float64) Field {
	return Field{key, value, func(e *zerolog.Event) { e.Float64(key, value) }}
}

func Bool(key string, value bool) Field {
	return Field{key, value, func(e *zerolog.Event) { e.Bool(key, value) }}
}

// Duration logs whole milliseconds; name the key accordingly.
func Duration(key string, value time.Duration) Field {
	ms := value.Milliseconds()
	return Field{key, ms, func(e *zerolog.Event) { e.Int64(key, ms) }}
}

// Error logs err under "error". The collected value is the message so
// identical failures aggregate.
func Error(err error) Field {
	var msg string
	if err != nil {
		msg = err.Error()
	}
	return Field{"error", msg, func(e *zerolog.Event) { e.Err(err) }}
}

func Any(key string, value interface{}) Field {
	return Field{key, value, func(e *zerolog.Event) { e.Interface(key, value) }}
}
