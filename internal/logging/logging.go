// Package logging builds the operational zerolog logger. This is
// deliberately a different library from the audit trail's zap logger
// (internal/audit): operational logs are high-volume and leveled for human
// operators, while audit records are structured, unsampled, and
// consumed by a downstream pipeline.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds a zerolog.Logger writing ISO8601-timestamped JSON to stdout,
// or a human-readable console writer when development is set.
func New(level string, development bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var out = os.Stdout
	logger := zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	if development {
		logger = logger.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}
	return logger
}
