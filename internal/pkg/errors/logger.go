package errors

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jiaz/jiaz/internal/pkg/security"
)

// Logger provides structured logging with verbose mode support.
// Non-verbose loggers only emit errors; verbose loggers emit everything.
type Logger struct {
	mu      sync.Mutex
	output  io.Writer
	level   zap.AtomicLevel
	zl      *zap.Logger
	verbose bool
	runID   string
}

// Global logger instance
var defaultLogger = NewLogger(os.Stderr, false)

// NewLogger creates a new logger with the given configuration.
func NewLogger(output io.Writer, verbose bool) *Logger {
	l := &Logger{
		output: output,
		level:  zap.NewAtomicLevelAt(levelFor(verbose)),
		runID:  uuid.NewString(),
	}
	l.verbose = verbose
	l.build()
	return l
}

func levelFor(verbose bool) zapcore.Level {
	if verbose {
		return zapcore.DebugLevel
	}
	return zapcore.ErrorLevel
}

// build must be called with mu held or before the logger is shared.
func (l *Logger) build() {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig()),
		zapcore.AddSync(l.output),
		l.level,
	)
	l.zl = zap.New(core).With(zap.String("run_id", l.runID))
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "L",
		MessageKey:     "M",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("15:04:05"),
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(verbose bool) {
	defaultLogger.SetVerbose(verbose)
}

// IsVerbose returns whether verbose logging is enabled.
func IsVerbose() bool {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	return defaultLogger.verbose
}

// SetOutput sets the output writer for the logger.
func SetOutput(w io.Writer) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.output = w
	defaultLogger.build()
}

// RunID returns the identifier attached to every line of this invocation.
func RunID() string {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	return defaultLogger.runID
}

// SetVerbose toggles debug output on this logger.
func (l *Logger) SetVerbose(verbose bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verbose = verbose
	l.level.SetLevel(levelFor(verbose))
}

func (l *Logger) sugar() *zap.SugaredLogger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.zl.Sugar()
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar().Errorf(format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.sugar().Warnf(format, args...)
}

// Info logs an info message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar().Infof(format, args...)
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar().Debugf(format, args...)
}

// LogAPIRequest logs an outgoing request in verbose mode.
func (l *Logger) LogAPIRequest(provider, endpoint, model string, promptLength int) {
	l.mu.Lock()
	zl := l.zl
	l.mu.Unlock()
	zl.Debug("api request",
		zap.String("provider", provider),
		zap.String("endpoint", security.SanitizeForLogging(endpoint)),
		zap.String("model", model),
		zap.Int("prompt_length", promptLength),
	)
}

// LogAPIResponse logs a response in verbose mode.
func (l *Logger) LogAPIResponse(provider string, statusCode int, responseLength int, duration time.Duration) {
	l.mu.Lock()
	zl := l.zl
	l.mu.Unlock()
	zl.Debug("api response",
		zap.String("provider", provider),
		zap.Int("status", statusCode),
		zap.Int("response_length", responseLength),
		zap.Duration("duration", duration),
	)
}

// LogFallback records that a provider failed and the next one will be tried.
func (l *Logger) LogFallback(provider string, err error) {
	l.mu.Lock()
	zl := l.zl
	l.mu.Unlock()
	zl.Info("provider failed, falling back",
		zap.String("provider", provider),
		zap.String("error", SanitizeErrorMessage(err.Error())),
	)
}

// Package-level logging functions using the default logger

// Error logs an error message.
func Error(format string, args ...interface{}) {
	defaultLogger.Error(format, args...)
}

// Warn logs a warning message.
func Warn(format string, args ...interface{}) {
	defaultLogger.Warn(format, args...)
}

// Info logs an info message.
func Info(format string, args ...interface{}) {
	defaultLogger.Info(format, args...)
}

// Debug logs a debug message.
func Debug(format string, args ...interface{}) {
	defaultLogger.Debug(format, args...)
}

// LogAPIRequest logs an API request in verbose mode.
func LogAPIRequest(provider, endpoint, model string, promptLength int) {
	defaultLogger.LogAPIRequest(provider, endpoint, model, promptLength)
}

// LogAPIResponse logs an API response in verbose mode.
func LogAPIResponse(provider string, statusCode int, responseLength int, duration time.Duration) {
	defaultLogger.LogAPIResponse(provider, statusCode, responseLength, duration)
}

// LogFallback logs a provider fallback in verbose mode.
func LogFallback(provider string, err error) {
	defaultLogger.LogFallback(provider, err)
}
