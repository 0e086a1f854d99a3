// Package logger owns the process-wide zap logger. Production runs JSON
// to stdout; local development gets a compact console layout with the
// structured fields syntax-highlighted.
package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Level       string // debug, info, warn, error
	Format      string // json, console
	EnableColor bool   // console mode only
}

var (
	globalLogger *zap.Logger
	atom         zap.AtomicLevel
	once         sync.Once
)

// DefaultConfig reads LOG_LEVEL, LOG_FORMAT and the color switches from
// the environment so the logger works before config parsing does.
func DefaultConfig() Config {
	return Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Format:      getEnv("LOG_FORMAT", "console"),
		EnableColor: shouldEnableColor(),
	}
}

// Initialize builds the global logger. The first call wins; later calls
// are no-ops so an eager main and a lazy Get cannot fight over the sink.
func Initialize(cfg Config) {
	once.Do(func() {
		atom = zap.NewAtomicLevelAt(parseLevel(cfg.Level))

		zapConfig := zap.Config{
			Level:             atom,
			Encoding:          encodingFor(cfg),
			EncoderConfig:     encoderConfigFor(cfg),
			OutputPaths:       []string{"stdout"},
			ErrorOutputPaths:  []string{"stderr"},
			DisableStacktrace: cfg.Level != "debug" && cfg.Level != "error",
		}

		var err error
		globalLogger, err = zapConfig.Build(zap.AddCallerSkip(1))
		if err != nil {
			panic("failed to initialize logger: " + err.Error())
		}
	})
}

// encoderConfigFor starts from zap's production defaults and relaxes
// them for console output: short callers, clock-only timestamps, and
// colored levels when the terminal allows it.
func encoderConfigFor(cfg Config) zapcore.EncoderConfig {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "timestamp"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder

	if cfg.Format == "console" {
		enc.EncodeCaller = zapcore.ShortCallerEncoder
		enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		if cfg.EnableColor {
			enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
	}
	return enc
}

// encodingFor picks the encoder name, swapping in the highlighting one
// for colored console sessions.
func encodingFor(cfg Config) string {
	if cfg.Format == "console" && cfg.EnableColor {
		registerPrettyEncoding()
		return prettyEncodingName
	}
	return cfg.Format
}

// Get returns the global logger, initializing with defaults on first use.
func Get() *zap.Logger {
	if globalLogger == nil {
		Initialize(DefaultConfig())
	}
	return globalLogger
}

// With creates a child logger carrying extra structured context.
func With(fields ...zap.Field) *zap.Logger {
	return Get().With(fields...)
}

// Named creates a child logger scoped to a subsystem name.
func Named(name string) *zap.Logger {
	return Get().Named(name)
}

// SetLevel changes the minimum level of the global logger at runtime.
func SetLevel(lvl string) {
	Get()
	atom.SetLevel(parseLevel(lvl))
}

func Debug(msg string, fields ...zap.Field) { Get().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { Get().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { Get().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { Get().Error(msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { Get().Fatal(msg, fields...) }

func Sync() {
	if globalLogger != nil {
		_ = globalLogger.Sync()
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return strings.ToLower(value)
	}
	return fallback
}

func parseLevel(lvl string) zapcore.Level {
	switch strings.ToLower(lvl) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// shouldEnableColor honors NO_COLOR first, then an explicit LOG_COLOR
// override, and otherwise assumes a developer terminal.
func shouldEnableColor() bool {
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor {
		return false
	}
	if val := os.Getenv("LOG_COLOR"); val != "" {
		return val == "true" || val == "1"
	}
	return true
}
