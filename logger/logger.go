package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init installs the global zerolog logger. Debug mode writes human readable
// console lines, otherwise JSON lines go to stdout.
func Init(debug bool) {
	Setup(os.Stdout, debug)
}

func Setup(out io.Writer, debug bool) {
	zerolog.TimeFieldFormat = time.RFC3339
	if debug {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

// Component returns a child logger tagged with the component name.
func Component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
