// Package logger provides the process-wide structured logger. Call sites
// keep the teacher's simple signatures (Info(msg), Error(err)) while the
// implementation is a real structured logger (zap) underneath.
package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	once sync.Once
	log  *zap.SugaredLogger
)

// Init configures the global logger. level is one of "debug", "info",
// "warn", "error"; an empty string defaults to "info". Safe to call more
// than once; only the first call takes effect.
func Init(level string) {
	once.Do(func() {
		log = build(level).Sugar()
	})
}

func build(level string) *zap.Logger {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg),
		zapcore.AddSync(os.Stderr),
		parseLevel(level),
	)
	return zap.New(core)
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func ensure() *zap.SugaredLogger {
	if log == nil {
		Init("")
	}
	return log
}

// Info logs an informational message.
func Info(msg string) {
	ensure().Info(msg)
}

// Infof logs a formatted informational message.
func Infof(format string, args ...interface{}) {
	ensure().Infof(format, args...)
}

// Warnf logs a formatted warning.
func Warnf(format string, args ...interface{}) {
	ensure().Warnf(format, args...)
}

// Debugf logs a formatted debug message.
func Debugf(format string, args ...interface{}) {
	ensure().Debugf(format, args...)
}

// Error logs err at error level. A nil err is a no-op.
func Error(err error) {
	if err == nil {
		return
	}
	ensure().Error(err.Error())
}

// Sync flushes any buffered log entries; callers should defer this in main.
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}
