package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"accidentdetector/internal/config"
)

// Level selects one of the log streams.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

// FileName returns the file a level is persisted to inside the log directory.
func (l Level) FileName() string {
	switch l {
	case LevelWarning:
		return "warning.log"
	case LevelError:
		return "error.log"
	default:
		return "info.log"
	}
}

func (l Level) prefix() string {
	switch l {
	case LevelWarning:
		return "⚠️  WARNING "
	case LevelError:
		return "❌ ERROR   "
	default:
		return "ℹ️  INFO    "
	}
}

// Logger provides leveled logging (info/warning/error) to files and stdout/stderr.
type Logger struct {
	loggers map[Level]*log.Logger
	files   []*os.File
	logDir  string
	mu      sync.Mutex
}

// NewLogger creates a Logger writing into cfg.LogDirectory.
func NewLogger(cfg *config.Config) (*Logger, error) {
	return New(cfg.LogDirectory, os.Stdout, os.Stderr)
}

// New creates a Logger in logDir. Info and warning entries are mirrored to
// stdout, errors to stderr.
func New(logDir string, stdout, stderr io.Writer) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	l := &Logger{
		loggers: make(map[Level]*log.Logger, 3),
		logDir:  logDir,
	}

	for _, level := range []Level{LevelInfo, LevelWarning, LevelError} {
		file, err := os.OpenFile(filepath.Join(logDir, level.FileName()), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			l.Close()
			return nil, fmt.Errorf("failed to open log file %s: %w", level.FileName(), err)
		}
		l.files = append(l.files, file)

		console := stdout
		if level == LevelError {
			console = stderr
		}
		l.loggers[level] = log.New(io.MultiWriter(console, file), level.prefix(), log.Ldate|log.Ltime|log.Lshortfile)
	}

	return l, nil
}

func (l *Logger) output(level Level, format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	// calldepth 3 reports the caller of Info/Warning/Error.
	l.loggers[level].Output(3, fmt.Sprintf(format, v...))
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.output(LevelInfo, format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.output(LevelWarning, format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.output(LevelError, format, v...)
}

// Dir returns the directory the log files live in.
func (l *Logger) Dir() string {
	return l.logDir
}

// CleanLogs truncates the log file of the given level.
func (l *Logger) CleanLogs(level Level) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.Truncate(filepath.Join(l.logDir, level.FileName()), 0); err != nil {
		return fmt.Errorf("failed to truncate %s: %w", level.FileName(), err)
	}
	return nil
}

// Close releases the underlying files.
func (l *Logger) Close() error {
	var firstErr error
	for _, file := range l.files {
		if err := file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.files = nil
	return firstErr
}
