// Package logging wraps go.uber.org/zap for dxcore's structured logging.
//
// Grounded on theRebelliousNerd-codenerd's cmd/nerd/main.go, which builds a
// *zap.Logger via zap.NewProductionConfig() and a zap.AtomicLevel; the
// teacher itself only reaches for the standard library "log" package, so
// this concern is enriched from elsewhere in the retrieval pack rather than
// from certenIO-certen-validator directly.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level mirrors the handful of levels dxcore's pipeline actually emits at.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New builds a production-style zap.Logger at the given minimum level.
func New(level Level) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level.zapLevel())
	return cfg.Build()
}

// Noop returns a logger that discards everything, for tests and for
// callers that never wired one in.
func Noop() *zap.Logger {
	return zap.NewNop()
}

// ForStage returns a child logger pre-populated with the stage name field,
// the way the orchestrator tags every log line it emits on a stage's
// behalf.
func ForStage(base *zap.Logger, stageName string) *zap.Logger {
	return base.With(zap.String("stage", stageName))
}
