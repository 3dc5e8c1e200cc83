package logging

import (
	"os"

	"github.com/hashicorp/go-hclog"
)

// Logger is the shared library logger. Conversion engines report page-level
// fallbacks and renderer problems here; user-facing progress goes through the
// progress callbacks instead.
var Logger = hclog.New(&hclog.LoggerOptions{
	Name:   "pdfdusk",
	Output: os.Stderr,
	Level:  hclog.Warn,
})

// SetLevel adjusts the shared logger's verbosity.
func SetLevel(level hclog.Level) {
	Logger.SetLevel(level)
}
