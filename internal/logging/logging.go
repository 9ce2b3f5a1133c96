// Package logging builds the zerolog logger shared by all components.
package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// New returns a console logger writing to w.
// Only warnings and errors are written unless debug is set.
func New(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}

	cw := zerolog.NewConsoleWriter()
	cw.Out = w
	cw.TimeFormat = time.TimeOnly
	cw.NoColor = !debug

	return zerolog.New(cw).
		Level(level).
		With().
		Timestamp().
		Logger()
}
