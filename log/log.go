// Package log holds the logger used by the gaea packages. The library is
// silent by default; programs that want the internal trace logging call
// Init, or install their own zap logger.
package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logger used by all gaea packages. It defaults to a nop
// logger and may be replaced before any queues are created.
var Logger = zap.NewNop()

// Init replaces Logger with a production zap logger logging at the given
// level. Library logging is at debug level, so pass zapcore.DebugLevel to
// see register and poll traces.
func Init(level zapcore.Level) error {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	logger, err := config.Build()
	if err != nil {
		return err
	}
	Logger = logger
	return nil
}
