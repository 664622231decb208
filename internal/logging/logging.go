// Package logging provides structured logging using Go's slog package.
package logging

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// RequestIDKey is the context key for the current conversion's run ID.
	RequestIDKey ContextKey = "run_id"
)

var defaultLogger *slog.Logger

func init() {
	InitLogger(LevelInfo, FormatText)
}

// Level represents a log level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Format represents a log output format.
type Format int

const (
	FormatJSON Format = iota
	FormatText
)

// LevelFromVerbosity maps the CLI's cumulative -v flag to a log level:
// 0 -> Warn, 1 -> Info, 2+ -> Debug.
func LevelFromVerbosity(v uint8) Level {
	switch {
	case v >= 2:
		return LevelDebug
	case v == 1:
		return LevelInfo
	default:
		return LevelWarn
	}
}

// InitLogger initializes the global logger with the specified level and format.
func InitLogger(level Level, format Format) {
	var slogLevel slog.Level
	switch level {
	case LevelDebug:
		slogLevel = slog.LevelDebug
	case LevelInfo:
		slogLevel = slog.LevelInfo
	case LevelWarn:
		slogLevel = slog.LevelWarn
	case LevelError:
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// GetLogger returns the global logger instance.
func GetLogger() *slog.Logger {
	return defaultLogger
}

// WithRequestID attaches a run ID to the context.
func WithRequestID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, runID)
}

// GetRequestID retrieves the run ID from the context.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// LoggerFromContext returns a logger with context values attached.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger := defaultLogger
	if runID := GetRequestID(ctx); runID != "" {
		logger = logger.With("run_id", runID)
	}
	return logger
}

func Debug(msg string, args ...any) { defaultLogger.Debug(msg, args...) }
func Info(msg string, args ...any)  { defaultLogger.Info(msg, args...) }
func Warn(msg string, args ...any)  { defaultLogger.Warn(msg, args...) }
func Error(msg string, args ...any) { defaultLogger.Error(msg, args...) }

func DebugContext(ctx context.Context, msg string, args ...any) { LoggerFromContext(ctx).Debug(msg, args...) }
func InfoContext(ctx context.Context, msg string, args ...any)  { LoggerFromContext(ctx).Info(msg, args...) }
func WarnContext(ctx context.Context, msg string, args ...any)  { LoggerFromContext(ctx).Warn(msg, args...) }
func ErrorContext(ctx context.Context, msg string, args ...any) { LoggerFromContext(ctx).Error(msg, args...) }

// TransformRecovered logs a locally-recovered failure inside a transform
// (e.g. an image decode error in ImageRescale, a CSS parse error in
// CSSFlattener): the pipeline keeps running, original bytes are kept.
func TransformRecovered(transform, item string, err error) {
	defaultLogger.Warn("transform_recovered", "transform", transform, "item", item, "error", err.Error())
}

// SubprocessStart logs the invocation of an external tool (pdftohtml, pdftoppm).
func SubprocessStart(tool string, args []string) {
	defaultLogger.Debug("subprocess_start", "tool", tool, "args", args)
}

// SubprocessFailed logs a failed external tool invocation with its captured output.
func SubprocessFailed(tool string, err error, output string) {
	defaultLogger.Error("subprocess_failed", "tool", tool, "error", err.Error(), "output", output)
}

// PipelinePhase logs the start of a pipeline phase with its progress band.
func PipelinePhase(phase string, progress float64) {
	defaultLogger.Info("pipeline_phase", "phase", phase, "progress", progress)
}
