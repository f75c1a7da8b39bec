// Copyright 2025 James Ross
package obs

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

func NewLogger(level string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	switch strings.ToLower(level) {
	case "debug":
		lvl = zapcore.DebugLevel
	case "warn":
		lvl = zapcore.WarnLevel
	case "error":
		lvl = zapcore.ErrorLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "json"
	return cfg.Build()
}

// NewRotatingLogger tees JSON logs to stdout and to a rotated file. Nothing
// in this repository calls it: "daemon run" logs through NewLogger. It is
// not for the RT thread, which must not block on file I/O mid-tick.
func NewRotatingLogger(level, logPath string, maxSizeMB, maxBackups, maxAgeDays int) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	switch strings.ToLower(level) {
	case "debug":
		lvl = zapcore.DebugLevel
	case "warn":
		lvl = zapcore.WarnLevel
	case "error":
		lvl = zapcore.ErrorLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	fileSink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	})

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), lvl),
		zapcore.NewCore(encoder, fileSink, lvl),
	)
	return zap.New(core), nil
}

// Convenience typed fields, matching the teacher's obs.String/obs.Err shape.
func String(k, v string) zap.Field        { return zap.String(k, v) }
func Int(k string, v int) zap.Field       { return zap.Int(k, v) }
func Uint64(k string, v uint64) zap.Field { return zap.Uint64(k, v) }
func Bool(k string, v bool) zap.Field     { return zap.Bool(k, v) }
func Float64(k string, v float64) zap.Field {
	return zap.Float64(k, v)
}
func Err(err error) zap.Field { return zap.Error(err) }
