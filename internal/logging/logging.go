// Package logging builds the zerolog logger used across flowtrack.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// New returns the logger for a run.
//
// With debug set, logs go to errOut at debug level through a console writer.
// Otherwise they are written as JSON to file at the given level; an empty
// file disables logging. The returned closer must always be called.
func New(debug bool, level, file string, errOut io.Writer) (zerolog.Logger, func(), error) {
	closer := func() {}

	if debug {
		w := zerolog.ConsoleWriter{Out: errOut, NoColor: true}
		l := zerolog.New(w).With().Timestamp().Logger().Level(zerolog.DebugLevel)
		return l, closer, nil
	}

	if file == "" {
		return zerolog.Nop(), closer, nil
	}

	if level == "" {
		level = "warn"
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), closer, err
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return zerolog.Nop(), closer, fmt.Errorf("create logs dir: %w", err)
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Nop(), closer, err
	}
	closer = func() { _ = f.Close() }

	l := zerolog.New(f).
		With().
		Timestamp().
		Logger().
		Level(lvl)

	return l, closer, nil
}
