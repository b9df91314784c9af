package logger

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"qrguard/internal/config"
	"sync"
)

// Logger provides leveled logging (info/warning/error) to files and stdout/stderr.
type Logger struct {
	infoLog    *log.Logger
	warningLog *log.Logger
	errorLog   *log.Logger
	files      []*os.File
	dir        string
	mu         sync.Mutex
}

// Levels are the names of the per-level log files, without extension.
var Levels = []string{"info", "warning", "error"}

// ErrNoLogFiles is returned by file operations on a console-only Logger.
var ErrNoLogFiles = errors.New("logging to files is disabled")

// NewLogger creates a Logger writing to the console and, when a log directory
// is configured, to one file per level inside it.
func NewLogger(cfg *config.Config) (*Logger, error) {
	if cfg.LogDirectory == "" {
		return newLogger(os.Stdout, os.Stdout, os.Stderr), nil
	}

	if err := os.MkdirAll(cfg.LogDirectory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	var files []*os.File
	open := func(name string) (*os.File, error) {
		file, err := os.OpenFile(filepath.Join(cfg.LogDirectory, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", name, err)
		}
		files = append(files, file)
		return file, nil
	}

	infoFile, err := open("info.log")
	if err != nil {
		return nil, err
	}
	warningFile, err := open("warning.log")
	if err != nil {
		closeAll(files)
		return nil, err
	}
	errorFile, err := open("error.log")
	if err != nil {
		closeAll(files)
		return nil, err
	}

	l := newLogger(
		io.MultiWriter(os.Stdout, infoFile),
		io.MultiWriter(os.Stdout, warningFile),
		io.MultiWriter(os.Stderr, errorFile),
	)
	l.files = files
	l.dir = cfg.LogDirectory
	return l, nil
}

// NewWithWriter sends every level to w.
func NewWithWriter(w io.Writer) *Logger {
	return newLogger(w, w, w)
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return NewWithWriter(io.Discard)
}

func newLogger(info, warning, errw io.Writer) *Logger {
	return &Logger{
		infoLog:    log.New(info, "ℹ️  INFO    ", log.Ldate|log.Ltime|log.Lshortfile),
		warningLog: log.New(warning, "⚠️  WARNING ", log.Ldate|log.Ltime|log.Lshortfile),
		errorLog:   log.New(errw, "❌ ERROR   ", log.Ldate|log.Ltime|log.Lshortfile),
	}
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoLog.Output(2, fmt.Sprintf(format, v...))
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warningLog.Output(2, fmt.Sprintf(format, v...))
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorLog.Output(2, fmt.Sprintf(format, v...))
}

// FilePath returns the file backing a level ("info", "warning" or "error").
func (l *Logger) FilePath(level string) (string, error) {
	if l.dir == "" {
		return "", ErrNoLogFiles
	}
	for _, known := range Levels {
		if level == known {
			return filepath.Join(l.dir, level+".log"), nil
		}
	}
	return "", fmt.Errorf("unknown log level %q", level)
}

// CleanLogs truncates the file backing a level.
func (l *Logger) CleanLogs(level string) error {
	path, err := l.FilePath(level)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return os.Truncate(path, 0)
}

// Close releases the log files, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	err := closeAll(l.files)
	l.files = nil
	return err
}

func closeAll(files []*os.File) error {
	var first error
	for _, f := range files {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
