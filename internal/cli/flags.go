package cli

import (
	"errors"

	"github.com/spf13/pflag"

	"github.com/jmylchreest/iconform/pkg/plugin"
)

// runFlags are the standardise options shared by commands that run the
// pipeline.
type runFlags struct {
	selection      []string
	hex            string
	style          string
	variable       string
	size           float64
	sizeVariableID string
	noOutline      bool
}

func registerRunFlags(fs *pflag.FlagSet, f *runFlags) {
	fs.StringArrayVarP(&f.selection, "select", "s", nil, "node id or name-path glob to select (repeatable), e.g. 'Icons/**/arrow-*'")
	fs.StringVar(&f.hex, "hex", "", "recolour with a literal hex colour")
	fs.StringVar(&f.style, "style", "", "recolour with a paint style id")
	fs.StringVar(&f.variable, "variable", "", "bind colour to a colour variable id")
	fs.Float64Var(&f.size, "size", 0, "resize to this width and height")
	fs.StringVar(&f.sizeVariableID, "size-variable", "", "bind width and height to a number variable id")
	fs.BoolVar(&f.noOutline, "no-outline", false, "do not outline strokes before flattening")
}

// message converts the flags to a standardise command.
func (f *runFlags) message() (plugin.StandardiseSelection, error) {
	msg := plugin.StandardiseSelection{
		Type:                 plugin.TypeStandardiseSelection,
		TargetSizeVariableID: f.sizeVariableID,
		ShouldResize:         f.size > 0 || f.sizeVariableID != "",
	}
	if f.size > 0 {
		size := f.size
		msg.TargetSize = &size
	}
	if f.noOutline {
		outline := false
		msg.ShouldOutline = &outline
	}

	set := 0
	for _, v := range []string{f.hex, f.style, f.variable} {
		if v != "" {
			set++
		}
	}
	switch {
	case set > 1:
		return msg, errors.New("only one of --hex, --style and --variable may be given")
	case f.hex != "":
		msg.ColorOptions = &plugin.ColorOptions{Mode: "HEX", Value: f.hex}
	case f.style != "":
		msg.ColorOptions = &plugin.ColorOptions{Mode: "STYLE", Value: f.style, Type: "STYLE"}
	case f.variable != "":
		msg.ColorOptions = &plugin.ColorOptions{Mode: "STYLE", Value: f.variable, Type: "VARIABLE"}
	}
	return msg, nil
}
