// Package pplog provides the diagnostic sink used throughout the
// translator. It keeps the teacher's leveled, colorized logger shape
// but is constructed explicitly and threaded through the pipeline
// instead of living behind a package-level singleton: the translator
// has no correctness need for process-global state, and a single
// process may in principle translate more than one file with
// different trace settings.
package pplog

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents the logging level.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

var levelColors = map[Level]string{
	DEBUG: "\033[36m", // Cyan
	INFO:  "\033[32m", // Green
	WARN:  "\033[33m", // Yellow
	ERROR: "\033[31m", // Red
	FATAL: "\033[35m", // Magenta
}

const colorReset = "\033[0m"

// Logger is a single diagnostic sink. The zero value is not usable;
// construct one with New or NewWithFile.
type Logger struct {
	mu          sync.Mutex
	level       Level
	console     io.Writer // console output (with color)
	file        io.Writer // file output (without color)
	fileHandle  *os.File  // kept for Close
	colorEnable bool
	prefix      string

	// errCount/warnCount let callers (e.g. the CLI) decide an exit
	// status after a run without re-walking every diagnostic.
	errCount  int
	warnCount int
}

// New creates a console-only logger at the given level.
func New(levelStr string, colorEnable bool) *Logger {
	return &Logger{
		level:       ParseLevel(levelStr),
		console:     os.Stdout,
		colorEnable: colorEnable,
	}
}

// NewWithFile creates a logger that writes to both the console (with
// color) and a timestamped file under logDir (without color).
func NewWithFile(levelStr string, colorEnable bool, logDir string) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	now := time.Now()
	zone, _ := now.Zone()
	filename := fmt.Sprintf("%s_%s.log", now.Format("2006-01-02_15-04-05"), zone)
	logPath := filepath.Join(logDir, filename)

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := &Logger{
		level:       ParseLevel(levelStr),
		console:     os.Stdout,
		file:        file,
		fileHandle:  file,
		colorEnable: colorEnable,
	}
	l.Info("Log file: %s", logPath)
	return l, nil
}

// Close closes the log file if one is open.
func (l *Logger) Close() {
	if l == nil || l.fileHandle == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fileHandle.Close()
	l.fileHandle = nil
	l.file = nil
}

// SetLevel changes the minimum level this logger emits.
func (l *Logger) SetLevel(levelStr string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = ParseLevel(levelStr)
}

// SetOutput redirects console output.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.console = w
}

// ErrorCount returns the number of Error-or-above messages logged so
// far, so a caller can decide whether a translation run "succeeded".
func (l *Logger) ErrorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errCount
}

// WarnCount returns the number of Warn messages logged so far.
func (l *Logger) WarnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.warnCount
}

// ParseLevel converts a string to a Level, defaulting to INFO.
func ParseLevel(levelStr string) Level {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	default:
		return INFO
	}
}

// log writes a log message if the level is sufficient.
func (l *Logger) log(level Level, format string, args ...interface{}) {
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	switch level {
	case WARN:
		l.warnCount++
	case ERROR, FATAL:
		l.errCount++
	}

	if level < l.level {
		return
	}

	message := fmt.Sprintf(format, args...)
	levelName := levelNames[level]

	if l.console != nil {
		var consoleOutput string
		if l.colorEnable {
			color := levelColors[level]
			consoleOutput = fmt.Sprintf("%s[%s]%s %s", color, levelName, colorReset, message)
		} else {
			consoleOutput = fmt.Sprintf("[%s] %s", levelName, message)
		}
		log.New(l.console, l.prefix, log.LstdFlags).Println(consoleOutput)
	}

	if l.file != nil {
		fileOutput := fmt.Sprintf("[%s] %s", levelName, message)
		log.New(l.file, l.prefix, log.LstdFlags).Println(fileOutput)
	}

	if level == FATAL {
		os.Exit(1)
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) { l.log(DEBUG, format, args...) }

// Info logs an info message.
func (l *Logger) Info(format string, args ...interface{}) { l.log(INFO, format, args...) }

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) { l.log(WARN, format, args...) }

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) { l.log(ERROR, format, args...) }

// Fatal logs a fatal message and terminates the process.
func (l *Logger) Fatal(format string, args ...interface{}) { l.log(FATAL, format, args...) }

// AtLine prefixes format with the source line number every diagnostic
// in this translator must carry (spec §7: "All diagnostics carry the
// source-file line number").
func AtLine(lineNo int, format string) string {
	return fmt.Sprintf("line %d: %s", lineNo, format)
}
