// Package logger wraps zap behind a small interface so components depend on
// the logging contract, not on zap itself.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Fatal(msg string, fields ...zap.Field)

	Sync() error
}

// Field helpers re-exported so callers do not import zap directly.
var (
	String   = zap.String
	Int      = zap.Int
	Duration = zap.Duration
	Time     = zap.Time
	Error    = zap.Error
)

type loggerImpl struct {
	base *zap.Logger
}

// New builds a production JSON logger, or a colored development logger when
// pretty is set.
func New(level string, pretty bool) Logger {
	var cfg zap.Config
	if pretty {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}

	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	base, err := cfg.Build(zap.AddStacktrace(zapcore.FatalLevel))
	if err != nil {
		panic(err)
	}
	return &loggerImpl{base: base}
}

// Nop returns a logger that discards everything. Used in tests.
func Nop() Logger {
	return &loggerImpl{base: zap.NewNop()}
}

func (l *loggerImpl) Debug(msg string, fields ...zap.Field) { l.base.Debug(msg, fields...) }
func (l *loggerImpl) Info(msg string, fields ...zap.Field)  { l.base.Info(msg, fields...) }
func (l *loggerImpl) Warn(msg string, fields ...zap.Field)  { l.base.Warn(msg, fields...) }
func (l *loggerImpl) Error(msg string, fields ...zap.Field) { l.base.Error(msg, fields...) }
func (l *loggerImpl) Fatal(msg string, fields ...zap.Field) { l.base.Fatal(msg, fields...) }
func (l *loggerImpl) Sync() error                           { return l.base.Sync() }
