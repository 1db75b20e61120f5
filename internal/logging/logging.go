// Package logging builds the hclog loggers used across iconform.
package logging

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/term"
)

// Options configures New.
type Options struct {
	// Level is one of trace, debug, info, warn, error or off. Unknown
	// values fall back to warn.
	Level string

	// Output defaults to os.Stderr.
	Output io.Writer

	JSON bool
}

// New returns a root logger. Colour is enabled only when the output is a
// terminal.
func New(name string, opts Options) hclog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	level := hclog.LevelFromString(opts.Level)
	if level == hclog.NoLevel {
		level = hclog.Warn
	}

	colour := hclog.ColorOff
	if IsTerminal(out) && !opts.JSON {
		colour = hclog.AutoColor
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      level,
		Output:     out,
		JSONFormat: opts.JSON,
		Color:      colour,
	})
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
