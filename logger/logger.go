// Package logger sets up the process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var globalLogger zerolog.Logger

type Config struct {
	Level      string
	Debug      bool
	Output     string
	TimeFormat string
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	globalLogger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func Init(cfg Config) error {
	var output io.Writer = os.Stdout
	if cfg.Output == "stderr" {
		output = os.Stderr
	}
	return InitWithWriter(cfg, output)
}

// InitWithWriter is Init with an explicit destination.
func InitWithWriter(cfg Config, output io.Writer) error {
	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	} else if cfg.Level != "" {
		var err error
		level, err = zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return err
		}
	}

	if cfg.TimeFormat != "" {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	}

	globalLogger = zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()
	log.Logger = globalLogger

	return nil
}

func WithComponent(component string) zerolog.Logger {
	return globalLogger.With().Str("component", component).Logger()
}
