package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

const serviceName = "stage-analytics-service"

// New returns a console logger in development and a JSON logger elsewhere.
func New(env string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level := zerolog.InfoLevel
	if env == "development" {
		level = zerolog.DebugLevel
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).Level(level).With().Timestamp().Str("service", serviceName).Logger()
	}

	return zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", serviceName).Logger()
}
