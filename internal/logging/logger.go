package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

// Level represents the severity of a log message.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger defines a minimal, printf-style logging contract. Components depend
// on this interface so tests can swap in Nop().
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

// OrNop returns logger when non-nil, otherwise a no-op logger.
func OrNop(logger Logger) Logger {
	if logger == nil {
		return Nop()
	}
	return logger
}

// fileLogger writes timestamped lines to flou-debug.log and mirrors WARN and
// above to stderr.
type fileLogger struct {
	mu        sync.Mutex
	file      *os.File
	out       *log.Logger
	level     Level
	component string
}

var (
	rootLogger *fileLogger
	rootOnce   sync.Once
)

func root() *fileLogger {
	rootOnce.Do(func() {
		rootLogger = &fileLogger{level: DEBUG}
		dir := os.Getenv("FLOU_LOG_DIR")
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return
			}
			dir = filepath.Join(home, ".flou")
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return
		}
		file, err := os.OpenFile(filepath.Join(dir, "flou-debug.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return
		}
		rootLogger.file = file
		rootLogger.out = log.New(file, "", 0)
	})
	return rootLogger
}

// SetLevel adjusts the minimum severity written by component loggers.
func SetLevel(level Level) {
	r := root()
	r.mu.Lock()
	r.level = level
	r.mu.Unlock()
}

// ParseLevel maps a config string to a Level, defaulting to INFO.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return DEBUG
	case "info", "":
		return INFO
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// NewComponentLogger returns the shared application logger scoped to a component.
func NewComponentLogger(component string) Logger {
	r := root()
	return &fileLogger{
		file:      r.file,
		out:       r.out,
		level:     r.level,
		component: component,
	}
}

func (l *fileLogger) log(level Level, format string, args ...any) {
	if level < l.level {
		return
	}

	msg := fmt.Sprintf(format, args...)
	_, file, line, ok := runtime.Caller(2)
	caller := ""
	if ok {
		caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}

	entry := fmt.Sprintf("[%s] [%s] [%s] %s %s",
		time.Now().Format("2006-01-02 15:04:05.000"),
		level, l.component, caller, msg)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.out != nil {
		l.out.Println(entry)
	}
	if level >= WARN {
		fmt.Fprintln(os.Stderr, entry)
	}
}

func (l *fileLogger) Debug(format string, args ...any) { l.log(DEBUG, format, args...) }
func (l *fileLogger) Info(format string, args ...any)  { l.log(INFO, format, args...) }
func (l *fileLogger) Warn(format string, args ...any)  { l.log(WARN, format, args...) }
func (l *fileLogger) Error(format string, args ...any) { l.log(ERROR, format, args...) }
