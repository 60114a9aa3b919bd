// Package logging configures the shared structured logger.
package logging

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// New returns a stderr logger. Verbose enables debug-level output.
func New(verbose bool) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}
