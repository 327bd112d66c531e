// Package logger wraps zap the way serv/serv.go configures it: a single
// sugared logger threaded through constructors rather than a package
// global, with structured fields per request (role, table, op, duration).
package logger

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production-style JSON logger, or a human-readable console
// logger when dev is true.
func New(dev bool) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if dev {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// Nop returns a logger that discards everything, for use in tests.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// Resolver returns the standard field set logged around a single field
// resolution, grounded in the teacher's gj.spanStart instrumentation.
func Resolver(role, table, op string, start time.Time) []interface{} {
	return []interface{}{
		"role", role,
		"table", table,
		"op", op,
		"duration_ms", time.Since(start).Milliseconds(),
	}
}
