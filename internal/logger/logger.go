package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"beecam/internal/config"
)

// Log file names under the process log directory.
const (
	InfoFile    = "info.log"
	WarningFile = "warning.log"
	ErrorFile   = "error.log"
)

// Logger provides leveled logging (info/warning/error) to files and stdout/stderr,
// plus the per-boot session log kept on the artifact storage.
type Logger struct {
	infoLog    *log.Logger
	warningLog *log.Logger
	errorLog   *log.Logger
	logDir     string
	mu         sync.Mutex

	echo        io.Writer
	session     io.Writer
	sessionOpen func() bool
}

// NewLogger creates a Logger and ensures the log directory exists.
func NewLogger(config *config.Config) (*Logger, error) {
	if err := os.MkdirAll(config.LogDirectory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logger := &Logger{
		logDir: config.LogDirectory,
	}
	if config.EchoLogs {
		logger.echo = os.Stdout
	}

	if err := logger.setupLoggers(); err != nil {
		return nil, err
	}
	return logger, nil
}

// New creates a Logger that writes every level to w and keeps no log files.
func New(w io.Writer) *Logger {
	return &Logger{
		infoLog:    log.New(w, "INFO    ", log.Ldate|log.Ltime|log.Lshortfile),
		warningLog: log.New(w, "WARNING ", log.Ldate|log.Ltime|log.Lshortfile),
		errorLog:   log.New(w, "ERROR   ", log.Ldate|log.Ltime|log.Lshortfile),
	}
}

// setupLoggers initializes writers and per-level loggers.
func (l *Logger) setupLoggers() error {
	infoFileHandle, err := l.openLogFile(filepath.Join(l.logDir, InfoFile))
	if err != nil {
		return err
	}
	warningFileHandle, err := l.openLogFile(filepath.Join(l.logDir, WarningFile))
	if err != nil {
		return err
	}
	errorFileHandle, err := l.openLogFile(filepath.Join(l.logDir, ErrorFile))
	if err != nil {
		return err
	}

	infoWriter := io.MultiWriter(os.Stdout, infoFileHandle)
	warningWriter := io.MultiWriter(os.Stdout, warningFileHandle)
	errorWriter := io.MultiWriter(os.Stderr, errorFileHandle)

	l.infoLog = log.New(infoWriter, "INFO    ", log.Ldate|log.Ltime|log.Lshortfile)
	l.warningLog = log.New(warningWriter, "WARNING ", log.Ldate|log.Ltime|log.Lshortfile)
	l.errorLog = log.New(errorWriter, "ERROR   ", log.Ldate|log.Ltime|log.Lshortfile)
	return nil
}

// openLogFile opens or creates a log file for appending.
func (l *Logger) openLogFile(filename string) (*os.File, error) {
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", filename, err)
	}
	return file, nil
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

// AttachSession routes Session output to w. Lines are only written while
// writable reports true; w is synced after every line when it supports it.
func (l *Logger) AttachSession(w io.Writer, writable func() bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.session = w
	l.sessionOpen = writable
}

// DetachSession stops writing the session log and closes it when possible.
func (l *Logger) DetachSession() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	w := l.session
	l.session = nil
	l.sessionOpen = nil
	if c, ok := w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Session appends a raw line to the boot session log. The format is written
// as-is, so callers supply their own trailing newline.
func (l *Logger) Session(format string, v ...interface{}) {
	line := fmt.Sprintf(format, v...)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.echo != nil {
		io.WriteString(l.echo, line)
	}
	if l.session == nil || (l.sessionOpen != nil && !l.sessionOpen()) {
		return
	}
	io.WriteString(l.session, line)
	if s, ok := l.session.(interface{ Sync() error }); ok {
		s.Sync()
	}
}

// LogDir returns the process log directory ("" for writer-backed loggers).
func (l *Logger) LogDir() string {
	return l.logDir
}

// CleanLogs truncates the specified log file.
func (l *Logger) CleanLogs(fileName string) error {
	if l.logDir == "" {
		return nil
	}
	filePath := filepath.Join(l.logDir, fileName)
	file, err := os.OpenFile(filePath, os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		l.Error("Error opening file: %v", err)
		return err
	}
	defer file.Close()

	l.Info("File content has been cleared: %s", fileName)
	return nil
}
