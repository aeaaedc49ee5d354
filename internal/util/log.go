package util

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// NewLogger builds the process-wide zerolog logger, tagging every line with
// the app name. Unknown levels fall back to info.
func NewLogger(app, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).With().Timestamp()
	if app != "" {
		logger = logger.Str("app", app)
	}
	return logger.Logger().Level(lvl)
}
