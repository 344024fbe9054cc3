// Package logging provides component loggers for hdcompare.
//
// Basic usage:
//
//	if err := logging.Init(logging.Config{Level: "info", ConsoleLevel: "debug"}); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Close()
//
//	logger := logging.Get("manifest")
//	logger.Debug("manifest parsed", "path", path, "records", n)
//
// Loggers obtained before Init are silent and start writing once Init runs,
// so packages may hold them in package-level variables.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Level represents a logging level.
type Level int

// Log levels from least to most severe.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the level.
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

func (l Level) toCharmLevel() log.Level {
	switch l {
	case LevelDebug:
		return log.DebugLevel
	case LevelWarn:
		return log.WarnLevel
	case LevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ErrInvalidLevel is returned when an invalid log level string is provided.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel parses a string into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
	}
}

// Config configures the logging system.
type Config struct {
	// Level is the file log level (debug, info, warn, error).
	Level string

	// Path is the log file. Empty disables file logging.
	Path string

	// Rotation bounds the log file's size and history.
	Rotation RotationConfig

	// ConsoleLevel enables stderr output at the given level.
	// Empty disables console output.
	ConsoleLevel string

	// Console overrides the console writer. Defaults to os.Stderr.
	Console io.Writer
}

// Logger is a component logger. It resolves its sinks on every call, so a
// Logger created before Init picks up the configuration once Init runs.
type Logger struct {
	component string
	fields    []interface{}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.log(LevelDebug, msg, args...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...interface{}) {
	l.log(LevelInfo, msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.log(LevelWarn, msg, args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...interface{}) {
	l.log(LevelError, msg, args...)
}

// With returns a logger that adds args to every message.
func (l *Logger) With(args ...interface{}) *Logger {
	fields := make([]interface{}, 0, len(l.fields)+len(args))
	fields = append(fields, l.fields...)
	fields = append(fields, args...)
	return &Logger{component: l.component, fields: fields}
}

func (l *Logger) log(level Level, msg string, args ...interface{}) {
	if len(l.fields) > 0 {
		args = append(append([]interface{}{}, l.fields...), args...)
	}

	globalState.mu.RLock()
	defer globalState.mu.RUnlock()

	for _, sink := range globalState.sinks(l.component) {
		logTo(sink, level, msg, args...)
	}
}

func logTo(logger *log.Logger, level Level, msg string, args ...interface{}) {
	switch level {
	case LevelDebug:
		logger.Debug(msg, args...)
	case LevelInfo:
		logger.Info(msg, args...)
	case LevelWarn:
		logger.Warn(msg, args...)
	case LevelError:
		logger.Error(msg, args...)
	}
}

// state holds the global logging state.
type state struct {
	mu          sync.RWMutex
	initialized bool
	file        *RotatingWriter
	fileLevel   Level
	console     io.Writer
	consoleLvl  Level
	loggers     map[string]*Logger
	charm       map[string][]*log.Logger
}

var globalState = &state{
	loggers: make(map[string]*Logger),
	charm:   make(map[string][]*log.Logger),
}

// sinks returns the charm loggers for a component. Caller holds mu.
func (s *state) sinks(component string) []*log.Logger {
	if !s.initialized {
		return nil
	}
	return s.charm[component]
}

// build creates the charm loggers for a component. Caller holds the write lock.
func (s *state) build(component string) {
	var sinks []*log.Logger

	if s.file != nil {
		sinks = append(sinks, log.NewWithOptions(s.file, log.Options{
			Level:           s.fileLevel.toCharmLevel(),
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          component,
		}))
	}

	if s.console != nil {
		sinks = append(sinks, log.NewWithOptions(s.console, log.Options{
			Level:           s.consoleLvl.toCharmLevel(),
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
			Prefix:          component,
		}))
	}

	s.charm[component] = sinks
}

// Init configures the logging system. Calling Init again replaces the
// previous configuration.
func Init(cfg Config) error {
	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	if err := globalState.closeLocked(); err != nil {
		return err
	}

	level := LevelInfo
	if cfg.Level != "" {
		parsed, err := ParseLevel(cfg.Level)
		if err != nil {
			return fmt.Errorf("parsing log level: %w", err)
		}
		level = parsed
	}
	globalState.fileLevel = level

	if cfg.ConsoleLevel != "" {
		consoleLevel, err := ParseLevel(cfg.ConsoleLevel)
		if err != nil {
			return fmt.Errorf("parsing console level: %w", err)
		}
		globalState.consoleLvl = consoleLevel
		globalState.console = cfg.Console
		if globalState.console == nil {
			globalState.console = os.Stderr
		}
	}

	if cfg.Path != "" {
		w, err := NewRotatingWriter(cfg.Path, cfg.Rotation)
		if err != nil {
			return err
		}
		globalState.file = w
	}

	globalState.initialized = true
	for component := range globalState.loggers {
		globalState.build(component)
	}

	return nil
}

// Get returns the logger for a component.
func Get(component string) *Logger {
	globalState.mu.RLock()
	if logger, ok := globalState.loggers[component]; ok {
		globalState.mu.RUnlock()
		return logger
	}
	globalState.mu.RUnlock()

	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	if logger, ok := globalState.loggers[component]; ok {
		return logger
	}

	logger := &Logger{component: component}
	globalState.loggers[component] = logger
	if globalState.initialized {
		globalState.build(component)
	}
	return logger
}

// Close flushes and closes the log file. Loggers go silent until the next Init.
func Close() error {
	globalState.mu.Lock()
	defer globalState.mu.Unlock()
	return globalState.closeLocked()
}

func (s *state) closeLocked() error {
	s.initialized = false
	s.console = nil
	s.charm = make(map[string][]*log.Logger)

	if s.file != nil {
		err := s.file.Close()
		s.file = nil
		if err != nil {
			return fmt.Errorf("closing log file: %w", err)
		}
	}
	return nil
}
