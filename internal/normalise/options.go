// Package normalise turns selected icon artwork into a single flattened,
// recoloured and resized vector per container.
package normalise

import (
	"fmt"
	"strings"

	"github.com/jmylchreest/iconform/internal/token"
)

// ColourMode selects how the flattened vector is recoloured.
type ColourMode string

const (
	ColourOriginal ColourMode = "ORIGINAL"
	ColourHex      ColourMode = "HEX"
	ColourStyle    ColourMode = "STYLE"
)

// ParseColourMode parses a colour mode, case-insensitively. An empty string
// means ORIGINAL.
func ParseColourMode(s string) (ColourMode, error) {
	switch m := ColourMode(strings.ToUpper(strings.TrimSpace(s))); m {
	case "":
		return ColourOriginal, nil
	case ColourOriginal, ColourHex, ColourStyle:
		return m, nil
	default:
		return "", fmt.Errorf("unknown colour mode: %q", s)
	}
}

// ColourOptions describes the recolour step. Value is a hex string in HEX
// mode and a style or variable id in STYLE mode. Kind optionally pins the
// lookup in STYLE mode; when empty a style is tried before a variable.
type ColourOptions struct {
	Mode  ColourMode
	Value string
	Kind  token.Kind
}

// Validate checks the shape of the options. A value that does not decode
// or resolve is not an error here: the recolour step degrades per item.
func (o ColourOptions) Validate() error {
	switch o.Mode {
	case ColourOriginal, ColourHex:
		return nil
	case ColourStyle:
		if o.Kind != "" && o.Kind != token.KindStyle && o.Kind != token.KindVariable {
			return fmt.Errorf("unknown token kind: %q", o.Kind)
		}
		return nil
	default:
		return fmt.Errorf("unknown colour mode: %q", o.Mode)
	}
}

// SizeOptions describes the resize step. VariableID wins over Target when
// both are set.
type SizeOptions struct {
	Resize     bool
	Target     float64
	VariableID string
}

// Validate checks that the options can be applied.
func (o SizeOptions) Validate() error {
	if o.Target < 0 {
		return fmt.Errorf("target size must not be negative, got %v", o.Target)
	}
	return nil
}

// Options configures a run.
type Options struct {
	Colour  ColourOptions
	Size    SizeOptions
	Outline bool
}

// DefaultOptions keeps original colours and size and outlines strokes.
func DefaultOptions() Options {
	return Options{
		Colour:  ColourOptions{Mode: ColourOriginal},
		Outline: true,
	}
}

// Validate checks every option group.
func (o Options) Validate() error {
	if err := o.Colour.Validate(); err != nil {
		return err
	}
	return o.Size.Validate()
}
