package scene

import (
	"github.com/jmylchreest/iconform/internal/colour"
)

// PaintType discriminates paints.
type PaintType string

const (
	PaintSolid          PaintType = "SOLID"
	PaintGradientLinear PaintType = "GRADIENT_LINEAR"
	PaintGradientRadial PaintType = "GRADIENT_RADIAL"
	PaintImage          PaintType = "IMAGE"
)

// Paint is one entry of a fill or stroke list.
type Paint struct {
	Type    PaintType  `json:"type"`
	Color   colour.RGB `json:"color"`
	Opacity *float64   `json:"opacity,omitempty"`
	Visible *bool      `json:"visible,omitempty"`

	// ColorVariable is the id of a COLOR variable bound to Color, if any.
	ColorVariable string `json:"colorVariable,omitempty"`
}

// SolidPaint returns an opaque solid paint of c.
func SolidPaint(c colour.RGB) Paint {
	return Paint{Type: PaintSolid, Color: c}
}

// IsSolid reports whether p is a solid colour paint.
func (p Paint) IsSolid() bool {
	return p.Type == PaintSolid
}

// ClonePaints copies a paint list so callers can edit it without aliasing.
func ClonePaints(paints []Paint) []Paint {
	if paints == nil {
		return nil
	}
	out := make([]Paint, len(paints))
	copy(out, paints)
	return out
}
