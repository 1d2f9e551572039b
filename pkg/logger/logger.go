package logger

import (
	"context"
	"io"
	"os"
	"sync"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// OutputType defines where log entries are written
type OutputType string

const (
	// OutputConsole writes to stdout
	OutputConsole OutputType = "console"
	// OutputFile writes to a rotating file
	OutputFile OutputType = "file"
	// OutputOTEL writes to stdout and also exports to an OpenTelemetry collector
	OutputOTEL OutputType = "otel"
)

// Config holds the logger configuration
type Config struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string

	// Output selects the sink (console, file, otel)
	Output OutputType

	// Format is json or console
	Format string

	// FilePath is required when Output is "file"
	FilePath string

	FileMaxSizeMB  int
	FileMaxBackups int
	FileMaxAgeDays int
	FileCompress   bool

	// Development enables colored levels and warn-level stacktraces
	Development bool

	AddCaller  bool
	CallerSkip int
}

// DefaultConfig returns a default logger configuration
func DefaultConfig() *Config {
	return &Config{
		Level:          "info",
		Output:         OutputConsole,
		Format:         "json",
		FilePath:       "./logs/setuphub.log",
		FileMaxSizeMB:  100,
		FileMaxBackups: 3,
		FileMaxAgeDays: 28,
		FileCompress:   true,
		AddCaller:      true,
	}
}

// Logger wraps zap.Logger. Components receive one through their
// constructors; the package global exists for process bootstrap only.
type Logger struct {
	*zap.Logger
	config  *Config
	core    zapcore.Core
	closers []io.Closer
	mu      sync.Mutex
}

var (
	globalLogger *Logger
	globalMu     sync.RWMutex
)

// New creates a Logger for the given configuration
func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := createEncoderConfig(cfg.Development)

	var (
		core    zapcore.Core
		closers []io.Closer
	)
	switch cfg.Output {
	case OutputFile:
		writer, err := newFileWriter(cfg)
		if err != nil {
			return nil, err
		}
		core = zapcore.NewCore(newEncoder(cfg, encoderConfig), zapcore.AddSync(writer), level)
		closers = append(closers, writer)
	default:
		core = zapcore.NewCore(newEncoder(cfg, encoderConfig), zapcore.AddSync(os.Stdout), level)
	}

	return NewWithCore(cfg, core, closers...), nil
}

// NewWithCore creates a Logger around a custom core, e.g. a tee with the OTEL exporter
func NewWithCore(cfg *Config, core zapcore.Core, closers ...io.Closer) *Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	return &Logger{
		Logger:  zap.New(core, buildZapOptions(cfg)...),
		config:  cfg,
		core:    core,
		closers: closers,
	}
}

// NewNop returns a logger that discards everything. Used by tests.
func NewNop() *Logger {
	return &Logger{
		Logger: zap.NewNop(),
		config: DefaultConfig(),
		core:   zapcore.NewNopCore(),
	}
}

// Init builds a logger and installs it as the global instance
func Init(cfg *Config) (*Logger, error) {
	l, err := New(cfg)
	if err != nil {
		return nil, err
	}
	SetGlobal(l)
	return l, nil
}

// SetGlobal sets the global logger instance
func SetGlobal(l *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

// Get returns the global logger, creating a default one on first use
func Get() *Logger {
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()
	if l != nil {
		return l
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger, _ = New(DefaultConfig())
	}
	return globalLogger
}

// Core returns the underlying zapcore.Core
func (l *Logger) Core() zapcore.Core {
	return l.core
}

// Config returns the configuration the logger was built with
func (l *Logger) Config() *Config {
	return l.config
}

// WithContext attaches trace and span ids when ctx carries a valid span
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return l
	}

	return l.WithFields(
		TraceID(sc.TraceID().String()),
		SpanID(sc.SpanID().String()),
	)
}

// WithFields returns a child logger with additional fields
func (l *Logger) WithFields(fields ...zap.Field) *Logger {
	return &Logger{
		Logger:  l.With(fields...),
		config:  l.config,
		core:    l.core,
		closers: l.closers,
	}
}

// WithError returns a child logger with an error field
func (l *Logger) WithError(err error) *Logger {
	return l.WithFields(zap.Error(err))
}

// WithComponent tags every entry with the component name
func (l *Logger) WithComponent(name string) *Logger {
	return l.WithFields(Component(name))
}

// Close flushes buffered entries and closes file or exporter sinks
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_ = l.Logger.Sync()

	var lastErr error
	for _, closer := range l.closers {
		if err := closer.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// ParseLevel converts a level name to zapcore.Level
func ParseLevel(level string) (zapcore.Level, error) {
	var l zapcore.Level
	err := l.UnmarshalText([]byte(level))
	return l, err
}

func createEncoderConfig(development bool) zapcore.EncoderConfig {
	if development {
		config := zap.NewDevelopmentEncoderConfig()
		config.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.EncodeTime = zapcore.ISO8601TimeEncoder
		return config
	}

	config := zap.NewProductionEncoderConfig()
	config.EncodeTime = zapcore.ISO8601TimeEncoder
	config.TimeKey = "timestamp"
	config.MessageKey = "message"
	return config
}

func newEncoder(cfg *Config, encoderConfig zapcore.EncoderConfig) zapcore.Encoder {
	if cfg.Format == "console" || (cfg.Development && cfg.Output != OutputFile) {
		return zapcore.NewConsoleEncoder(encoderConfig)
	}
	return zapcore.NewJSONEncoder(encoderConfig)
}

func buildZapOptions(cfg *Config) []zap.Option {
	var opts []zap.Option

	if cfg.AddCaller {
		opts = append(opts, zap.AddCaller())
		if cfg.CallerSkip > 0 {
			opts = append(opts, zap.AddCallerSkip(cfg.CallerSkip))
		}
	}

	if cfg.Development {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.WarnLevel))
	} else {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	return opts
}
