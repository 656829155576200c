// Package logger builds the zap loggers used across slabdb.
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const defaultService = "slabdb"

// Config holds all the configuration for the logger.
type Config struct {
	// Level is the minimum level: "debug", "info", "warn" or "error".
	// Anything unparsable falls back to "info".
	Level string `yaml:"level"`
	// Format is "json" (default) or "console".
	Format string `yaml:"format"`
	// OutputFile is a path, or "stdout"/"stderr". Empty means stdout.
	OutputFile string `yaml:"output_file"`
	// Service is attached to every entry as the "service" field.
	Service string `yaml:"service"`
	// Development adds stack traces to warnings and makes DPanic panic.
	Development bool `yaml:"development"`

	// Rotation for file output. Zero values use lumberjack's defaults
	// (100 MB, keep everything, no compression).
	MaxSizeMB  int  `yaml:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days"`
	Compress   bool `yaml:"compress"`
}

// New creates a logger from config. Call it once at startup and hand the
// result (or named children of it) to each component.
func New(config Config) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(config.Level)); err != nil {
		level.SetLevel(zap.InfoLevel)
	}

	sink := openSink(config)

	service := config.Service
	if service == "" {
		service = defaultService
	}

	core := zapcore.NewCore(newEncoder(config.Format), sink, level)
	opts := []zap.Option{zap.AddCaller(), zap.Fields(zap.String("service", service))}
	if config.Development {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zap.WarnLevel))
	} else {
		opts = append(opts, zap.AddStacktrace(zap.ErrorLevel))
	}
	return zap.New(core, opts...), nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

func newEncoder(format string) zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	if strings.EqualFold(format, "console") {
		return zapcore.NewConsoleEncoder(encoderConfig)
	}
	return zapcore.NewJSONEncoder(encoderConfig)
}

// openSink picks the destination. Files are opened lazily by lumberjack on
// the first write, creating parent directories as needed.
func openSink(config Config) zapcore.WriteSyncer {
	switch strings.ToLower(config.OutputFile) {
	case "stdout", "":
		return zapcore.Lock(os.Stdout)
	case "stderr":
		return zapcore.Lock(os.Stderr)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   config.OutputFile,
		MaxSize:    config.MaxSizeMB,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAgeDays,
		Compress:   config.Compress,
	})
}
