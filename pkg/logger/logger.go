package logger

import (
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	charmlog "github.com/charmbracelet/log"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[LogLevel]string{
	DEBUG: "debug",
	INFO:  "info",
	WARN:  "warn",
	ERROR: "error",
}

func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "info"
}

func (l LogLevel) charm() charmlog.Level {
	switch l {
	case DEBUG:
		return charmlog.DebugLevel
	case WARN:
		return charmlog.WarnLevel
	case ERROR:
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

// ParseLevel maps "debug", "info", "warn" and "error" to a LogLevel.
// Unknown names fall back to INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// Options controls the process-wide logger.
type Options struct {
	Level  LogLevel
	JSON   bool
	Output io.Writer
}

var (
	mu   sync.RWMutex
	base = newCharm(Options{Level: INFO, Output: os.Stderr})
)

func newCharm(opts Options) *charmlog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	l := charmlog.NewWithOptions(out, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           opts.Level.charm(),
	})
	if opts.JSON {
		l.SetFormatter(charmlog.JSONFormatter)
	}
	return l
}

// Configure replaces the process-wide logger.
func Configure(opts Options) {
	l := newCharm(opts)
	mu.Lock()
	base = l
	mu.Unlock()
}

// SetLevel changes the minimum level that gets written.
func SetLevel(level LogLevel) {
	mu.RLock()
	defer mu.RUnlock()
	base.SetLevel(level.charm())
}

func logMessage(level LogLevel, component string, message string, fields map[string]interface{}) {
	keyvals := make([]interface{}, 0, 2+2*len(fields))
	if component != "" {
		keyvals = append(keyvals, "component", component)
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		keyvals = append(keyvals, k, fields[k])
	}

	mu.RLock()
	l := base
	mu.RUnlock()

	switch level {
	case DEBUG:
		l.Debug(message, keyvals...)
	case WARN:
		l.Warn(message, keyvals...)
	case ERROR:
		l.Error(message, keyvals...)
	default:
		l.Info(message, keyvals...)
	}
}

func Debug(message string) {
	logMessage(DEBUG, "", message, nil)
}

func DebugC(component string, message string) {
	logMessage(DEBUG, component, message, nil)
}

func DebugCF(component string, message string, fields map[string]interface{}) {
	logMessage(DEBUG, component, message, fields)
}

func Info(message string) {
	logMessage(INFO, "", message, nil)
}

func InfoC(component string, message string) {
	logMessage(INFO, component, message, nil)
}

func InfoCF(component string, message string, fields map[string]interface{}) {
	logMessage(INFO, component, message, fields)
}

func Warn(message string) {
	logMessage(WARN, "", message, nil)
}

func WarnC(component string, message string) {
	logMessage(WARN, component, message, nil)
}

func WarnCF(component string, message string, fields map[string]interface{}) {
	logMessage(WARN, component, message, fields)
}

func Error(message string) {
	logMessage(ERROR, "", message, nil)
}

func ErrorC(component string, message string) {
	logMessage(ERROR, component, message, nil)
}

func ErrorCF(component string, message string, fields map[string]interface{}) {
	logMessage(ERROR, component, message, fields)
}
