package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// EnvLogLevel overrides the configured level.
const EnvLogLevel = "MSGBUS_LOG_LEVEL"

// New returns a console logger tagged with app. level falls back to info
// when it does not parse.
func New(app, level string, out io.Writer) zerolog.Logger {
	lvl, ok := ParseLevel(os.Getenv(EnvLogLevel))
	if !ok {
		lvl, ok = ParseLevel(level)
		if !ok {
			lvl = zerolog.InfoLevel
		}
	}
	w := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    !isTerminal(out),
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("app", app).Logger()
}

// Stderr is New writing to os.Stderr.
func Stderr(app, level string) zerolog.Logger { return New(app, level, os.Stderr) }

// ParseLevel accepts zerolog level names plus "warning", "off" and "none".
func ParseLevel(raw string) (zerolog.Level, bool) {
	name := strings.ToLower(strings.TrimSpace(raw))
	switch name {
	case "":
		return zerolog.InfoLevel, false
	case "warning":
		name = "warn"
	case "off", "none":
		name = "disabled"
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel, false
	}
	return lvl, true
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
