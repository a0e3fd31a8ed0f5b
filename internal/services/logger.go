package services

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger defines common logging interface for all services
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// LogLevel represents different logging levels
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case LogLevelDebug:
		return zerolog.DebugLevel
	case LogLevelWarn:
		return zerolog.WarnLevel
	case LogLevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ParseLogLevel maps LOG_LEVEL values to a LogLevel, defaulting to INFO.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LogLevelDebug
	case "WARN", "WARNING":
		return LogLevelWarn
	case "ERROR":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// ProductionLogger is a structured zerolog-backed logger
type ProductionLogger struct {
	logger  zerolog.Logger
	level   LogLevel
	service string
}

// NewProductionLogger creates a JSON logger writing to stdout
func NewProductionLogger(service string) *ProductionLogger {
	return NewProductionLoggerWithWriter(service, os.Stdout, true)
}

// NewProductionLoggerWithWriter creates a logger on w. structured=false uses
// zerolog's console writer for human-readable development output.
func NewProductionLoggerWithWriter(service string, w io.Writer, structured bool) *ProductionLogger {
	out := w
	if !structured {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	zl := zerolog.New(out).With().Timestamp().Str("service", service).Logger()
	p := &ProductionLogger{logger: zl, service: service}
	p.SetLevel(LogLevelInfo)
	return p
}

// SetLevel updates the logging level
func (p *ProductionLogger) SetLevel(level LogLevel) {
	p.level = level
	p.logger = p.logger.Level(level.zerolog())
}

// Level returns the active level.
func (p *ProductionLogger) Level() LogLevel {
	return p.level
}

func (p *ProductionLogger) Info(msg string, keysAndValues ...interface{}) {
	p.logger.Info().Fields(fields(keysAndValues)).Msg(msg)
}

func (p *ProductionLogger) Error(msg string, keysAndValues ...interface{}) {
	p.logger.Error().Fields(fields(keysAndValues)).Msg(msg)
}

func (p *ProductionLogger) Debug(msg string, keysAndValues ...interface{}) {
	p.logger.Debug().Fields(fields(keysAndValues)).Msg(msg)
}

func (p *ProductionLogger) Warn(msg string, keysAndValues ...interface{}) {
	p.logger.Warn().Fields(fields(keysAndValues)).Msg(msg)
}

// fields turns alternating key/value pairs into a zerolog field map.
// Non-string keys and a trailing odd value are dropped.
func fields(keysAndValues []interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i < len(keysAndValues)-1; i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, isErr := keysAndValues[i+1].(error); isErr && err != nil {
			out[key] = err.Error()
			continue
		}
		out[key] = keysAndValues[i+1]
	}
	return out
}

// NoOpLogger is a logger that does nothing (for testing)
type NoOpLogger struct{}

func (n *NoOpLogger) Info(msg string, keysAndValues ...interface{})  {}
func (n *NoOpLogger) Error(msg string, keysAndValues ...interface{}) {}
func (n *NoOpLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (n *NoOpLogger) Warn(msg string, keysAndValues ...interface{})  {}

// NewLogger builds a logger from GO_ENV / ENV and LOG_LEVEL.
func NewLogger(service string) Logger {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = os.Getenv("ENV")
	}
	return NewLoggerWithLevel(service, env, os.Getenv("LOG_LEVEL"))
}

// NewLoggerWithLevel builds a logger for env at level. The "test" env gets a
// NoOpLogger; "production" gets JSON output, anything else the console writer.
func NewLoggerWithLevel(service, env, level string) Logger {
	if env == "test" {
		return &NoOpLogger{}
	}

	// Use structured logging in production
	logger := NewProductionLoggerWithWriter(service, os.Stdout, strings.EqualFold(env, "production"))
	logger.SetLevel(ParseLogLevel(level))
	return logger
}
