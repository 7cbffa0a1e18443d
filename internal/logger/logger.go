package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// FormatPretty selects the human-readable console writer; any other format
// value produces JSON lines.
const FormatPretty = "pretty"

// Setup builds the process logger on stdout and installs its level globally.
// Level accepts trace, debug, info, warn, error, fatal or panic; unknown
// values fall back to info.
func Setup(level, format string) zerolog.Logger {
	log := New(os.Stdout, level, format)
	zerolog.SetGlobalLevel(log.GetLevel())
	return log
}

// New builds a logger on an arbitrary writer without touching global state.
// The exam-taker logs to stderr so log lines never interleave with the paper
// on stdout.
func New(out io.Writer, level, format string) zerolog.Logger {
	writer := out
	if strings.EqualFold(format, FormatPretty) {
		writer = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(writer).
		Level(lvl).
		With().
		Timestamp().
		Caller().
		Logger()
}
