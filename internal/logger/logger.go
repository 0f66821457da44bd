// internal/logger/logger.go
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

var (
	defaultLogger *slog.Logger
	logLevel      *slog.LevelVar
	initOnce      sync.Once
	logOutput     io.Writer = io.Discard
	logFile       *os.File
)

// Init initializes the logger package from a Config.
// Output goes to cfg.LogFilePath; "-" means stderr, empty means discard.
func Init(cfg Config) error {
	var initErr error
	initOnce.Do(func() {
		cfg.process()

		output := io.Writer(io.Discard)
		switch cfg.LogFilePath {
		case "":
		case "-":
			output = os.Stderr
		default:
			f, err := os.OpenFile(cfg.LogFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				initErr = fmt.Errorf("open log file '%s': %w", cfg.LogFilePath, err)
			} else {
				logFile = f
				output = f
			}
		}
		install(cfg, output)
	})
	return initErr
}

// InitWriter initializes the logger with an explicit writer (used by tests and tools).
func InitWriter(cfg Config, output io.Writer) {
	initOnce.Do(func() {
		cfg.process()
		if output == nil {
			output = io.Discard
		}
		install(cfg, output)
	})
}

func install(cfg Config, output io.Writer) {
	logOutput = output
	logLevel = new(slog.LevelVar)
	logLevel.Set(cfg.level.Level())

	opts := slog.HandlerOptions{
		Level:     logLevel,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				if source, ok := a.Value.Any().(*slog.Source); ok && source != nil {
					source.File = filepath.Base(source.File)
				}
			}
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().Format(time.TimeOnly))
			}
			return a
		},
	}
	base := slog.NewTextHandler(output, &opts)
	processed := cfg
	defaultLogger = slog.New(newFilteringHandler(base, &processed))

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "Logger initialized", 0)
	r.AddAttrs(slog.String("level", logLevel.Level().String()))
	_ = base.Handle(context.Background(), r)
}

// Close releases the log file opened by Init, if any.
func Close() error {
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// SetLevel changes the minimum level at runtime.
func SetLevel(level slog.Level) {
	ensureInitialized()
	logLevel.Set(level)
}

// ensureInitialized installs a discarding logger if Init wasn't called.
func ensureInitialized() {
	initOnce.Do(func() {
		logLevel = new(slog.LevelVar)
		logLevel.Set(slog.LevelInfo)
		handler := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: logLevel})
		defaultLogger = slog.New(handler)
	})
}

// logAtLevel creates and logs a record at the specified level, capturing the caller source.
func logAtLevel(level slog.Level, tag string, format string, args ...interface{}) {
	ensureInitialized()
	if !defaultLogger.Enabled(context.Background(), level) {
		return
	}

	// Skip runtime.Callers, logAtLevel and the exported wrapper.
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])

	r := slog.NewRecord(time.Now(), level, fmt.Sprintf(format, args...), pcs[0])
	if tag != "" {
		r.AddAttrs(slog.String(tagKey, tag))
	}
	_ = defaultLogger.Handler().Handle(context.Background(), r)
}

// --- Wrapper Functions ---

// Debugf logs a debug message using Printf-style formatting.
func Debugf(format string, args ...interface{}) {
	logAtLevel(slog.LevelDebug, "", format, args...)
}

// DebugTagf logs a debug message carrying a filterable tag.
func DebugTagf(tag string, format string, args ...interface{}) {
	logAtLevel(slog.LevelDebug, tag, format, args...)
}

// Infof logs an info message using Printf-style formatting.
func Infof(format string, args ...interface{}) {
	logAtLevel(slog.LevelInfo, "", format, args...)
}

// Warnf logs a warning message using Printf-style formatting.
func Warnf(format string, args ...interface{}) {
	logAtLevel(slog.LevelWarn, "", format, args...)
}

// Errorf logs an error message using Printf-style formatting.
func Errorf(format string, args ...interface{}) {
	logAtLevel(slog.LevelError, "", format, args...)
}

// Get retrieves the configured logger instance.
func Get() *slog.Logger {
	ensureInitialized()
	return defaultLogger
}
