// Package logtrace initializes process wide logging and tracing switches.
package logtrace

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger configures the global zerolog logger. Output is structured
// JSON on stderr; the level can be lowered for debugging through
// STEWARD_LOG_LEVEL without rebuilding.
func InitLogger() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level := zerolog.InfoLevel
	if s := os.Getenv("STEWARD_LOG_LEVEL"); s != "" {
		if parsed, err := zerolog.ParseLevel(s); err == nil {
			level = parsed
		}
	}
	log.Logger = zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}
