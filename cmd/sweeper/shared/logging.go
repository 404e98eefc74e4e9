package shared

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

// SetupLogger configures a charm logger writing to stderr. An empty level
// means info.
func SetupLogger(level string, noColor bool) (*log.Logger, error) {
	lvl := log.InfoLevel
	if level != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
	if noColor {
		logger.SetColorProfile(termenv.Ascii)
	}
	return logger, nil
}
