package config

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerConfig selects the zap logger flavour.
type LoggerConfig struct {
	Level             string // debug, info, warn, error
	Encoding          string // json or console
	DisableCaller     bool
	DisableStacktrace bool
}

// LoadLoggerConfig reads LOG_* variables.
func LoadLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:             envStr("LOG_LEVEL", "info"),
		Encoding:          envStr("LOG_ENCODING", "json"),
		DisableCaller:     envBool("LOG_DISABLE_CALLER", false),
		DisableStacktrace: envBool("LOG_DISABLE_STACKTRACE", true),
	}
}

// NewLogger builds a production logger for the json encoding and a
// development one for console. An unknown level falls back to info.
func NewLogger(cfg LoggerConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Encoding == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	lvl := zapcore.InfoLevel
	if err := lvl.UnmarshalText([]byte(cfg.Level)); err != nil {
		lvl = zapcore.InfoLevel
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.DisableCaller = cfg.DisableCaller
	zc.DisableStacktrace = cfg.DisableStacktrace
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zc.Build()
}
