// Package logging holds shared zerolog helpers.
package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component creates a new logger with a component identifier.
func Component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
