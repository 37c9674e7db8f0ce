package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Setup returns the process logger. Output is JSON on stderr unless console
// is set, in which case a human readable writer with stack traces is used.
func Setup(level zerolog.Level, console bool) zerolog.Logger {
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Caller().Logger()

	if console {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}).Level(level).With().Stack().Logger()
	}

	return logger
}
