package normalise

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/iconform/internal/colour"
	"github.com/jmylchreest/iconform/internal/scene"
	"github.com/jmylchreest/iconform/internal/token"
)

// outline swaps stroked nodes for their outlined geometry. Nodes that
// cannot be outlined pass through unchanged.
func (n *Normaliser) outline(it *item, nodes []*scene.Node, enabled bool, log hclog.Logger) []*scene.Node {
	if !enabled {
		it.outcome.record(StepOutline, StatusSkipped, "disabled")
		return nodes
	}

	out := make([]*scene.Node, 0, len(nodes))
	var outlined int
	var failures []string
	for _, nd := range nodes {
		if !nd.HasStrokes() || !nd.StrokeWeight.Outlinable() {
			out = append(out, nd)
			continue
		}

		o, err := n.doc.OutlineStroke(nd)
		if err != nil {
			log.Debug("outline failed, keeping stroke", "node", nd.ID, "error", err)
			failures = append(failures, nd.ID)
			out = append(out, nd)
			continue
		}
		if err := n.doc.Remove(nd); err != nil && !errors.Is(err, scene.ErrRemoved) {
			log.Warn("failed to remove stroked original", "node", nd.ID, "error", err)
		}
		out = append(out, o)
		outlined++
	}

	switch {
	case len(failures) > 0:
		it.outcome.record(StepOutline, StatusDegraded, "%d outlined, kept stroke on %s", outlined, strings.Join(failures, ", "))
	case outlined > 0:
		it.outcome.record(StepOutline, StatusApplied, "%d outlined", outlined)
	default:
		it.outcome.record(StepOutline, StatusSkipped, "no outlinable strokes")
	}
	return out
}

// resize sizes the container, binding it to a dimension variable when one
// is given.
func (n *Normaliser) resize(ctx context.Context, it *item, opts SizeOptions, log hclog.Logger) {
	c := it.container
	switch {
	case !opts.Resize:
		it.outcome.record(StepResize, StatusSkipped, "disabled")

	case opts.VariableID != "":
		if err := n.bindSize(ctx, c, opts.VariableID); err != nil {
			log.Warn("failed to apply dimension variable", "variable", opts.VariableID, "error", err)
			it.outcome.record(StepResize, StatusDegraded, "%v", err)
			return
		}
		it.outcome.record(StepResize, StatusApplied, "bound to %s, %vx%v", opts.VariableID, c.Width, c.Height)

	case opts.Target > 0:
		if err := n.doc.Resize(c, opts.Target, opts.Target); err != nil {
			it.outcome.record(StepResize, StatusDegraded, "%v", err)
			return
		}
		c.AspectRatioLocked = true
		it.outcome.record(StepResize, StatusApplied, "%vx%v", opts.Target, opts.Target)

	default:
		it.outcome.record(StepResize, StatusSkipped, "no target size")
	}
}

func (n *Normaliser) bindSize(ctx context.Context, c *scene.Node, id string) error {
	v, err := n.doc.VariableByID(ctx, id)
	if err != nil {
		return err
	}
	for _, f := range []scene.BindableField{scene.FieldWidth, scene.FieldHeight} {
		if err := n.doc.SetBoundVariable(c, f, v); err != nil {
			return fmt.Errorf("failed to bind %s: %w", f, err)
		}
	}
	c.AspectRatioLocked = true

	size, err := n.resolver.ResolveNumber(ctx, v, c)
	if err != nil {
		return fmt.Errorf("bound but not resized: %w", err)
	}
	if err := n.doc.Resize(c, size, size); err != nil {
		return fmt.Errorf("bound but not resized: %w", err)
	}
	return nil
}

// recolour applies the colour options to the flattened vector. Strokes are
// only touched when the vector already has some.
func (n *Normaliser) recolour(ctx context.Context, it *item, flat *scene.Node, opts ColourOptions, log hclog.Logger) {
	switch opts.Mode {
	case ColourOriginal, "":
		it.outcome.record(StepRecolour, StatusSkipped, "original colours")
		return

	case ColourHex:
		c, ok := colour.ParseHex(opts.Value)
		if !ok {
			it.outcome.record(StepRecolour, StatusDegraded, "invalid hex %q", opts.Value)
			return
		}
		flat.Fills = []scene.Paint{scene.SolidPaint(c)}
		flat.FillStyleID = ""
		if flat.HasStrokes() {
			flat.Strokes = []scene.Paint{scene.SolidPaint(c)}
			flat.StrokeStyleID = ""
		}
		it.outcome.record(StepRecolour, StatusApplied, "%s", c.Hex())

	case ColourStyle:
		if opts.Value == "" {
			it.outcome.record(StepRecolour, StatusDegraded, "no token id")
			return
		}
		if opts.Kind != token.KindVariable {
			style, err := n.doc.StyleByID(ctx, opts.Value)
			if err == nil {
				applyStyle(flat, style)
				it.outcome.record(StepRecolour, StatusApplied, "style %s", style.Name)
				return
			}
			if opts.Kind == token.KindStyle || !errors.Is(err, scene.ErrNotFound) {
				log.Warn("failed to apply colour style", "style", opts.Value, "error", err)
				it.outcome.record(StepRecolour, StatusDegraded, "%v", err)
				return
			}
		}

		v, err := n.doc.VariableByID(ctx, opts.Value)
		if err != nil {
			log.Warn("colour token not found", "token", opts.Value, "error", err)
			it.outcome.record(StepRecolour, StatusDegraded, "%v", err)
			return
		}
		if err := n.bindColour(flat, v); err != nil {
			log.Warn("failed to apply colour variable", "variable", v.Name, "error", err)
			it.outcome.record(StepRecolour, StatusDegraded, "%v", err)
			return
		}
		it.outcome.record(StepRecolour, StatusApplied, "variable %s", v.Name)

	default:
		it.outcome.record(StepRecolour, StatusDegraded, "unknown colour mode %q", opts.Mode)
	}
}

func applyStyle(flat *scene.Node, style *scene.Style) {
	flat.FillStyleID = style.ID
	flat.Fills = scene.ClonePaints(style.Paints)
	if flat.HasStrokes() {
		flat.StrokeStyleID = style.ID
		flat.Strokes = scene.ClonePaints(style.Paints)
	}
}

// bindColour binds v to the colour of the first fill, and the first stroke
// when there is one. An empty fill list gets a black base paint first.
func (n *Normaliser) bindColour(flat *scene.Node, v *scene.Variable) error {
	fills := scene.ClonePaints(flat.Fills)
	if len(fills) == 0 {
		fills = []scene.Paint{scene.SolidPaint(colour.Black)}
	}
	bound, err := n.doc.BindPaintColor(fills[0], v)
	if err != nil {
		return fmt.Errorf("fill: %w", err)
	}
	fills[0] = bound

	var strokes []scene.Paint
	if flat.HasStrokes() {
		strokes = scene.ClonePaints(flat.Strokes)
		bound, err := n.doc.BindPaintColor(strokes[0], v)
		if err != nil {
			return fmt.Errorf("stroke: %w", err)
		}
		strokes[0] = bound
	}

	flat.Fills = fills
	flat.FillStyleID = ""
	if strokes != nil {
		flat.Strokes = strokes
		flat.StrokeStyleID = ""
	}
	return nil
}

// cleanup removes the wrapped group and every container child other than
// the flattened vector.
func (n *Normaliser) cleanup(it *item, flat *scene.Node, log hclog.Logger) {
	removed := 0
	remove := func(nd *scene.Node) {
		if nd.Removed() {
			return
		}
		if err := n.doc.Remove(nd); err != nil {
			if !errors.Is(err, scene.ErrRemoved) {
				log.Warn("failed to remove scaffolding", "node", nd.ID, "error", err)
			}
			return
		}
		removed++
	}

	if it.originalGroup != nil {
		remove(it.originalGroup)
	}
	for _, c := range append([]*scene.Node(nil), it.container.Children...) {
		if c != flat {
			remove(c)
		}
	}

	if removed == 0 {
		it.outcome.record(StepCleanup, StatusSkipped, "nothing to remove")
		return
	}
	it.outcome.record(StepCleanup, StatusApplied, "removed %d node(s)", removed)
}
