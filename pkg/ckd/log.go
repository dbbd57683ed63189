package ckd

import (
	"os"

	"github.com/rs/zerolog"
)

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
	With().Timestamp().Logger().Level(zerolog.Disabled)

// SetLog enables or disables logging.
func SetLog(enable bool) {
	if enable {
		logger = logger.Level(zerolog.InfoLevel)
	} else {
		logger = logger.Level(zerolog.Disabled)
	}
}

// Log logs the given message if logging is enabled.
func Log(f string, args ...interface{}) {
	logger.Info().Msgf(f, args...)
}
