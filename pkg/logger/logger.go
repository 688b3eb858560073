// Package logger provides a simple, clean logging interface backed by zap.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation settings for file output.
const (
	defaultMaxSizeMB  = 50
	defaultMaxBackups = 5
	defaultMaxAgeDays = 14
	logDirPerm        = 0o755
)

// Logger defines the logging interface.
type Logger interface {
	// Context-aware variants
	Info(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	Debug(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Fatal(ctx context.Context, msg string, fields ...Field)

	Named(name string) Logger
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value interface{}
}

// Field constructors.
func String(key, val string) Field                 { return Field{Key: key, Value: val} }
func Int(key string, val int) Field                { return Field{Key: key, Value: val} }
func Int64(key string, val int64) Field            { return Field{Key: key, Value: val} }
func Float64(key string, val float64) Field        { return Field{Key: key, Value: val} }
func Bool(key string, val bool) Field              { return Field{Key: key, Value: val} }
func Duration(key string, val time.Duration) Field { return Field{Key: key, Value: val} }
func Any(key string, val interface{}) Field        { return Field{Key: key, Value: val} }
func Error(err error) Field                        { return Field{Key: "error", Value: err} }

// Config controls where and how the global logger writes.
type Config struct {
	// Level is one of debug, info, warn, error.
	Level string
	// File enables rotated JSON output in addition to stdout when non-empty.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// zapLogger implements Logger on top of a zap.Logger.
type zapLogger struct {
	z *zap.Logger
}

// New wraps an existing zap core. Tests use it with zaptest/observer.
func New(core zapcore.Core) Logger {
	return &zapLogger{z: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))}
}

func (l *zapLogger) Named(name string) Logger {
	return &zapLogger{z: l.z.Named(name)}
}

func (l *zapLogger) Info(_ context.Context, msg string, fields ...Field) {
	l.z.Info(msg, convertFields(fields)...)
}

func (l *zapLogger) Error(_ context.Context, msg string, fields ...Field) {
	l.z.Error(msg, convertFields(fields)...)
}

func (l *zapLogger) Debug(_ context.Context, msg string, fields ...Field) {
	l.z.Debug(msg, convertFields(fields)...)
}

func (l *zapLogger) Warn(_ context.Context, msg string, fields ...Field) {
	l.z.Warn(msg, convertFields(fields)...)
}

func (l *zapLogger) Fatal(_ context.Context, msg string, fields ...Field) {
	l.z.Fatal(msg, convertFields(fields)...)
}

// convertFields converts our Field type to zap fields.
func convertFields(fields []Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		switch v := f.Value.(type) {
		case error:
			out[i] = zap.NamedError(f.Key, v)
		case time.Duration:
			out[i] = zap.Duration(f.Key, v)
		default:
			out[i] = zap.Any(f.Key, v)
		}
	}
	return out
}

var (
	mu       sync.RWMutex
	global   *zapLogger
	levelVar = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Init initializes the global logger writing JSON to stdout.
func Init() error {
	return InitWithConfig(Config{Level: "info"})
}

// InitWithConfig initializes the global logger; file output is rotated by lumberjack.
func InitWithConfig(cfg Config) error {
	if err := SetLevelString(cfg.Level); err != nil {
		return err
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	// stdout is a pipe under most supervisors and does not support fsync.
	stdout := zapcore.AddSync(struct{ io.Writer }{os.Stdout})
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), stdout, levelVar),
	}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), logDirPerm); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.MaxSizeMB, defaultMaxSizeMB),
			MaxBackups: orDefault(cfg.MaxBackups, defaultMaxBackups),
			MaxAge:     orDefault(cfg.MaxAgeDays, defaultMaxAgeDays),
			Compress:   cfg.Compress,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(rotating), levelVar))
	}

	z := zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)

	mu.Lock()
	global = &zapLogger{z: z}
	mu.Unlock()
	return nil
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

// Get returns the global logger.
func Get() Logger {
	mu.RLock()
	l := global
	mu.RUnlock()
	if l == nil {
		// Initialize with defaults if not initialized
		_ = Init()
		mu.RLock()
		l = global
		mu.RUnlock()
	}
	return l
}

// Named returns a named child of the global logger.
func Named(name string) Logger {
	return Get().Named(name)
}

// Sync flushes buffered log entries.
func Sync() error {
	mu.RLock()
	l := global
	mu.RUnlock()
	if l == nil {
		return nil
	}
	return l.z.Sync()
}

// SetLevelString parses and sets the logging level.
// Accepts: debug, info, warn/warning, error (case-insensitive).
func SetLevelString(level string) error {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		levelVar.SetLevel(zapcore.DebugLevel)
	case "", "info":
		levelVar.SetLevel(zapcore.InfoLevel)
	case "warn", "warning":
		levelVar.SetLevel(zapcore.WarnLevel)
	case "error":
		levelVar.SetLevel(zapcore.ErrorLevel)
	default:
		return fmt.Errorf("unknown log level: %s", level)
	}
	return nil
}
