// Package core implements the functionality shared across all genesis components.
package core

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultLogFileMaxSizeMB  = 50
	defaultLogFileMaxBackups = 3
	defaultLogFileMaxAgeDays = 14
)

// LogOptions controls how the global logger is built.
type LogOptions struct {
	Pretty bool   // colored development output instead of JSON
	Level  string // debug, info, warn, error, fatal; empty means info
	File   string // optional path, rotated with lumberjack, written in addition to stderr
}

// Init initializes zap's global logger.
// After calling this, we use zap.L() directly.
func Init(opts LogOptions) error {
	var config zap.Config

	if opts.Pretty {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if opts.Level != "" {
		level, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		config.Level = zap.NewAtomicLevelAt(level)
	}

	logger, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	if opts.File != "" {
		// the file sink always gets JSON so it stays machine readable
		fileEncoderConfig := zap.NewProductionEncoderConfig()
		fileEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(fileEncoderConfig),
			zapcore.AddSync(newRotatingFile(opts.File)),
			config.Level,
		)
		logger = logger.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, fileCore)
		}))
	}

	zap.ReplaceGlobals(logger)
	return nil
}

func newRotatingFile(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    defaultLogFileMaxSizeMB,
		MaxBackups: defaultLogFileMaxBackups,
		MaxAge:     defaultLogFileMaxAgeDays,
		Compress:   true,
	}
}

// LogToolExecution logs a tool execution event using zap's global logger
func LogToolExecution(toolName string, callerID string, duration time.Duration, err error) {
	fields := []zap.Field{
		zap.String("tool", toolName),
		zap.String("caller", callerID),
		zap.Float64("duration_seconds", duration.Seconds()),
		zap.Bool("success", err == nil),
	}

	if err != nil {
		fields = append(fields, zap.Error(err))
		zap.L().Error("Tool execution failed", fields...)
		return
	}

	zap.L().Info("Tool execution completed successfully", fields...)
}

// LogPanicRecovery logs a recovered panic together with the current stack.
func LogPanicRecovery(component string, recovered any) {
	zap.L().Error("Panic recovered",
		zap.String("component", component),
		zap.Any("panic_value", recovered),
		zap.String("report", strings.TrimSpace(BugReportMessage())),
		zap.ByteString("stack", debug.Stack()))
}

// LogDeferredError runs fn and logs its error, if any. Meant for defer statements.
func LogDeferredError(fn func() error) {
	if err := fn(); err != nil {
		zap.L().Error("Deferred error", zap.Error(err), zap.Stack("stack"))
	}
}

// SyncLogger flushes the global logger, ignoring the errors stdout and stderr
// commonly return on sync.
func SyncLogger() {
	_ = zap.L().Sync()
	_ = os.Stderr.Sync()
}
