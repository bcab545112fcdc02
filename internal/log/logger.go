// Package log builds the process-wide zerolog logger. Every component
// receives a child of this logger through its constructor.
package log

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

const serviceName = "profilehub-api"

// New returns a console logger tagged with the service and environment.
// Outside production the global level drops to debug and output is
// colorized.
func New(environment string) zerolog.Logger {
	production := environment == "production"

	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
		NoColor:    production,
	}

	logger := zerolog.New(output).With().
		Timestamp().
		Str("service", serviceName).
		Str("env", environment).
		Logger()

	if production {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	return logger
}
