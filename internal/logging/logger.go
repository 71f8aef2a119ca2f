// Package logging builds the zap loggers used by the engine and the CLI.
package logging

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Format represents the logging encoder.
type Format string

const (
	// FormatConsole indicates human-readable console format.
	FormatConsole Format = "CONSOLE"
	// FormatJSON indicates structured JSON format.
	FormatJSON Format = "JSON"
)

// Component names used with Logger.Named.
const (
	ComponentMachine    = "Machine"
	ComponentDispatcher = "Dispatcher"
	ComponentLifecycle  = "Lifecycle"
	ComponentOperation  = "Operation"
	ComponentLoader     = "ChartLoader"
	ComponentRuntime    = "Runtime"
)

// Level converts a textual level (DEBUG, INFO, WARN, ERROR) to zapcore.Level.
// Unknown values map to INFO.
func Level(level string) zapcore.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARN", "WARNING":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New creates a logger writing to stderr.
func New(level string, format Format) *zap.Logger {
	return NewWithWriter(os.Stderr, level, format)
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(w io.Writer, level string, format Format) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "component",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
	}
	var encoder zapcore.Encoder
	switch Format(strings.ToUpper(string(format))) {
	case FormatConsole:
		encoderConfig.ConsoleSeparator = " | "
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zap.NewAtomicLevelAt(Level(level)))
	return zap.New(core, zap.AddCaller())
}

// OrNop returns logger or a no-op logger when nil.
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
