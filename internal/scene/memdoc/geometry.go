package memdoc

import (
	"fmt"
	"slices"

	"github.com/jmylchreest/iconform/internal/colour"
	"github.com/jmylchreest/iconform/internal/scene"
)

var colourWhite = colour.White

// Flatten implements scene.Document. The result's box is the union of the
// inputs in parent coordinates and its path data is their concatenation;
// no boolean geometry is computed. Paint comes from the first input.
func (d *Document) Flatten(nodes []*scene.Node, parent *scene.Node) (*scene.Node, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("flatten: no nodes")
	}
	if err := live(parent); err != nil {
		return nil, err
	}
	if err := live(nodes...); err != nil {
		return nil, fmt.Errorf("flatten: %w", err)
	}
	for p := parent; p != nil; p = p.Parent() {
		if slices.Contains(nodes, p) {
			return nil, fmt.Errorf("flatten: parent %s is inside the flatten set", parent.ID)
		}
	}

	box := nodes[0].BoundsWithin(parent)
	var paths []string
	for i, n := range nodes {
		if i > 0 {
			box = box.Union(n.BoundsWithin(parent))
		}
		paths = append(paths, n.Paths...)
	}

	first := nodes[0]
	flat := &scene.Node{
		ID:            d.newID(),
		Type:          scene.NodeVector,
		Name:          first.Name,
		X:             box.X,
		Y:             box.Y,
		Width:         box.Width,
		Height:        box.Height,
		Fills:         scene.ClonePaints(first.Fills),
		Strokes:       scene.ClonePaints(first.Strokes),
		StrokeWeight:  first.StrokeWeight,
		FillStyleID:   first.FillStyleID,
		StrokeStyleID: first.StrokeStyleID,
		Constraints:   first.Constraints,
		Paths:         paths,
	}

	parent.Attach(-1, flat)
	for _, n := range nodes {
		old := n.Parent()
		n.MarkRemoved()
		d.pruneEmptyGroup(old)
	}
	return flat, nil
}

// OutlineStroke implements scene.Document. The outline grows the box by
// half the stroke weight on each side and paints the former strokes as
// fills.
func (d *Document) OutlineStroke(n *scene.Node) (*scene.Node, error) {
	if err := live(n); err != nil {
		return nil, err
	}
	if n.OutlineUnsupported || !n.HasStrokes() || !n.StrokeWeight.Outlinable() {
		return nil, fmt.Errorf("outline %s: %w", n.ID, scene.ErrUnsupported)
	}
	parent := n.Parent()
	if parent == nil {
		return nil, fmt.Errorf("outline %s: detached node: %w", n.ID, scene.ErrUnsupported)
	}

	half := n.StrokeWeight.Value / 2
	outlined := &scene.Node{
		ID:          d.newID(),
		Type:        scene.NodeVector,
		Name:        n.Name,
		X:           n.X - half,
		Y:           n.Y - half,
		Width:       n.Width + 2*half,
		Height:      n.Height + 2*half,
		Fills:       scene.ClonePaints(n.Strokes),
		FillStyleID: n.StrokeStyleID,
		Constraints: n.Constraints,
		Paths:       append([]string(nil), n.Paths...),
	}
	parent.Attach(parent.IndexOf(n)+1, outlined)
	return outlined, nil
}
