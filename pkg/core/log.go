package core

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Debug is the shell's trace logger. It stays silent unless CLANKER_DEBUG is
// set in the environment; diagnostics meant for the user go through Stdio
// instead, with the stable prefixes the shell documents.
var Debug = newDebugLogger()

func newDebugLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
		Prefix:          "clanker",
	})
	if os.Getenv("CLANKER_DEBUG") != "" {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetOutput(io.Discard)
		logger.SetLevel(log.FatalLevel)
	}
	return logger
}
