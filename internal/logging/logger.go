package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Config holds logger configuration.
type Config struct {
	Level      slog.Level
	OutputFile string // empty = stdout only
	MaxSize    int64  // bytes before rotation
	JSONFormat bool
	AddSource  bool
}

// Logger wraps slog.Logger with file handling and a global instance.
type Logger struct {
	slog *slog.Logger
	cfg  Config
	file *os.File
	mu   sync.Mutex
}

var (
	global *Logger
	once   sync.Once
)

// Initialize configures the process-wide logger. Call once at startup.
func Initialize(cfg Config) error {
	var initErr error
	once.Do(func() {
		l, err := New(cfg)
		if err != nil {
			initErr = fmt.Errorf("initialize logger: %w", err)
			return
		}
		global = l
	})
	return initErr
}

// New creates a logger from the given configuration.
func New(cfg Config) (*Logger, error) {
	if cfg.MaxSize == 0 {
		cfg.MaxSize = 10 * 1024 * 1024
	}

	l := &Logger{cfg: cfg}

	writers := []io.Writer{os.Stdout}
	if cfg.OutputFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.OutputFile), 0755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		if err := l.rotateIfNeeded(); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", cfg.OutputFile, err)
		}
		l.file = f
		writers = append(writers, f)
	}

	opts := &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.JSONFormat {
		handler = slog.NewJSONHandler(io.MultiWriter(writers...), opts)
	} else {
		handler = slog.NewTextHandler(io.MultiWriter(writers...), opts)
	}
	l.slog = slog.New(handler)
	return l, nil
}

// rotateIfNeeded moves an oversized log file aside before opening a new one.
func (l *Logger) rotateIfNeeded() error {
	info, err := os.Stat(l.cfg.OutputFile)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat log file: %w", err)
	}
	if info.Size() < l.cfg.MaxSize {
		return nil
	}
	backup := fmt.Sprintf("%s.1", l.cfg.OutputFile)
	if err := os.Rename(l.cfg.OutputFile, backup); err != nil {
		return fmt.Errorf("rotate log file: %w", err)
	}
	return nil
}

func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// With returns a child logger carrying additional context attributes.
// The child shares the parent's output file.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slog: l.slog.With(args...), cfg: l.cfg, file: l.file}
}

// Close closes the log file if one is open.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// Package-level convenience functions on the global logger.

func Debug(msg string, args ...any) {
	if global != nil {
		global.Debug(msg, args...)
		return
	}
	slog.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	if global != nil {
		global.Info(msg, args...)
		return
	}
	slog.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	if global != nil {
		global.Warn(msg, args...)
		return
	}
	slog.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	if global != nil {
		global.Error(msg, args...)
		return
	}
	slog.Error(msg, args...)
}

// With returns a contextual logger from the global instance, or a bare
// logger when Initialize was never called (tests, library use).
func With(args ...any) *Logger {
	if global != nil {
		return global.With(args...)
	}
	return &Logger{slog: slog.Default().With(args...)}
}

// Close closes the global logger's file.
func Close() error {
	if global != nil {
		return global.Close()
	}
	return nil
}

// DefaultConfig returns the standard configuration: debug builds log
// human-readable text to stdout, batch runs log JSON to a dated file.
func DefaultConfig(debug bool) Config {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logFile := filepath.Join("logs", fmt.Sprintf("orgtrail_%s.log", time.Now().Format("2006-01-02")))
	return Config{
		Level:      level,
		OutputFile: logFile,
		JSONFormat: !debug,
		AddSource:  debug,
	}
}
