// Package testlog configures logging for package tests.
package testlog

import (
	"testing"

	"github.com/rs/zerolog/log"

	"github.com/NielsdaWheelz/ppi/internal/logging"
)

// Start installs the test logging profile and marks the start of t in the
// log stream. Logs go to the process-wide logger on stderr.
func Start(t *testing.T) {
	t.Helper()
	logging.ConfigureTests()
	log.Debug().Str("test", t.Name()).Msg("start")
}
