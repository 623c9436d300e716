// Package logging builds categorized zap loggers from configuration.
// There is no process-wide logger: the CLI builds one Factory and hands named
// loggers to each component it wires.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ttlform/internal/config"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot      Category = "boot"      // startup and wiring
	CategoryEditor    Category = "editor"    // editing session controller
	CategoryIdentity  Category = "identity"  // identity discovery
	CategoryTransport Category = "transport" // submission transports
	CategoryStore     Category = "store"     // triple store
	CategoryIngest    Category = "ingest"    // ingestion backend
	CategoryWatch     Category = "watch"     // drop-directory loader
	CategoryGenerator Category = "generator" // Gemini generation
	CategoryUI        Category = "ui"        // terminal host
)

// Factory hands out per-category loggers that share one core.
type Factory struct {
	cfg  config.LoggingConfig
	root *zap.Logger
	file *os.File
}

// Option customizes a Factory.
type Option func(*factoryOptions)

type factoryOptions struct {
	writer io.Writer
}

// WithWriter sends output to w instead of the configured file or stderr.
func WithWriter(w io.Writer) Option {
	return func(o *factoryOptions) { o.writer = w }
}

// NewFactory builds the shared core. Outside debug mode only warnings and errors
// are written.
func NewFactory(cfg config.LoggingConfig, opts ...Option) (*Factory, error) {
	var o factoryOptions
	for _, opt := range opts {
		opt(&o)
	}

	level := zapcore.InfoLevel
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}
	if !cfg.DebugMode && level < zapcore.WarnLevel {
		level = zapcore.WarnLevel
	}

	f := &Factory{cfg: cfg}

	var sink zapcore.WriteSyncer
	switch {
	case o.writer != nil:
		sink = zapcore.AddSync(o.writer)
	case cfg.File != "":
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		f.file = file
		sink = zapcore.AddSync(file)
	default:
		sink = zapcore.Lock(os.Stderr)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if cfg.Format == "json" {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	f.root = zap.New(zapcore.NewCore(enc, sink, zap.NewAtomicLevelAt(level)))
	return f, nil
}

// NewNop returns a factory whose loggers discard everything.
func NewNop() *Factory {
	return &Factory{root: zap.NewNop()}
}

// Get returns the logger for a category, or a no-op logger if the category is off.
func (f *Factory) Get(category Category) *zap.Logger {
	if f == nil || !f.cfg.IsCategoryEnabled(string(category)) {
		return zap.NewNop()
	}
	return f.root.Named(string(category))
}

// Close flushes buffered output and closes the log file, if any.
func (f *Factory) Close() error {
	if f == nil {
		return nil
	}
	_ = f.root.Sync()
	if f.file != nil {
		return f.file.Close()
	}
	return nil
}

// Timer tracks operation duration
type Timer struct {
	log   *zap.Logger
	op    string
	start time.Time
}

// StartTimer begins timing an operation
func StartTimer(log *zap.Logger, operation string) *Timer {
	return &Timer{log: log, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	t.log.Debug("operation completed", zap.String("op", t.op), zap.Duration("elapsed", elapsed))
	return elapsed
}

// StopWithThreshold logs a warning if duration exceeds threshold
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		t.log.Warn("operation slow",
			zap.String("op", t.op),
			zap.Duration("elapsed", elapsed),
			zap.Duration("threshold", threshold))
	} else {
		t.log.Debug("operation completed", zap.String("op", t.op), zap.Duration("elapsed", elapsed))
	}
	return elapsed
}
