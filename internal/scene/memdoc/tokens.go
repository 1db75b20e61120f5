package memdoc

import (
	"context"
	"fmt"

	"github.com/jmylchreest/iconform/internal/scene"
)

// LocalPaintStyles implements scene.Document.
func (d *Document) LocalPaintStyles(_ context.Context) ([]*scene.Style, error) {
	return append([]*scene.Style(nil), d.styles...), nil
}

// LocalVariables implements scene.Document.
func (d *Document) LocalVariables(_ context.Context, t scene.VariableType) ([]*scene.Variable, error) {
	var out []*scene.Variable
	for _, v := range d.variables {
		if v.Type == t {
			out = append(out, v)
		}
	}
	return out, nil
}

// StyleByID implements scene.Document.
func (d *Document) StyleByID(_ context.Context, id string) (*scene.Style, error) {
	for _, s := range d.styles {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, fmt.Errorf("style %s: %w", id, scene.ErrNotFound)
}

// VariableByID implements scene.Document.
func (d *Document) VariableByID(_ context.Context, id string) (*scene.Variable, error) {
	for _, v := range d.variables {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, fmt.Errorf("variable %s: %w", id, scene.ErrNotFound)
}

// ResolveForConsumer implements scene.Document. The mode is the nearest
// explicit mode set on consumer or an ancestor for v's collection, else the
// collection default.
func (d *Document) ResolveForConsumer(v *scene.Variable, consumer *scene.Node) (scene.Value, error) {
	if v == nil {
		return scene.Value{}, fmt.Errorf("resolve: nil variable: %w", scene.ErrNotFound)
	}

	modeID, err := d.modeFor(v, consumer)
	if err != nil {
		return scene.Value{}, err
	}
	val, ok := v.ValuesByMode[modeID]
	if !ok {
		return scene.Value{}, fmt.Errorf("variable %s has no value for mode %s: %w", v.ID, modeID, scene.ErrNotFound)
	}
	return val, nil
}

func (d *Document) modeFor(v *scene.Variable, consumer *scene.Node) (string, error) {
	for n := consumer; n != nil; n = n.Parent() {
		if mode, ok := n.ExplicitModes[v.CollectionID]; ok {
			return mode, nil
		}
	}

	if c, ok := d.collections[v.CollectionID]; ok && c.DefaultModeID != "" {
		return c.DefaultModeID, nil
	}

	// Collection-less variables with one mode are unambiguous.
	if len(v.ValuesByMode) == 1 {
		for mode := range v.ValuesByMode {
			return mode, nil
		}
	}
	return "", fmt.Errorf("variable %s: no mode for collection %q: %w", v.ID, v.CollectionID, scene.ErrNotFound)
}

// SetBoundVariable implements scene.Document.
func (d *Document) SetBoundVariable(n *scene.Node, field scene.BindableField, v *scene.Variable) error {
	if err := live(n); err != nil {
		return err
	}
	if v == nil {
		return fmt.Errorf("bind %s: nil variable: %w", field, scene.ErrNotFound)
	}
	switch field {
	case scene.FieldWidth, scene.FieldHeight:
		if v.Type != scene.VariableFloat {
			return fmt.Errorf("bind %s to %s variable %s: %w", field, v.Type, v.ID, scene.ErrUnsupported)
		}
	default:
		return fmt.Errorf("bind unknown field %q: %w", field, scene.ErrUnsupported)
	}

	if n.BoundVariables == nil {
		n.BoundVariables = make(map[scene.BindableField]string)
	}
	n.BoundVariables[field] = v.ID
	return nil
}

// BindPaintColor implements scene.Document.
func (d *Document) BindPaintColor(p scene.Paint, v *scene.Variable) (scene.Paint, error) {
	if v == nil {
		return p, fmt.Errorf("bind paint: nil variable: %w", scene.ErrNotFound)
	}
	if v.Type != scene.VariableColor {
		return p, fmt.Errorf("bind paint to %s variable %s: %w", v.Type, v.ID, scene.ErrUnsupported)
	}
	if !p.IsSolid() {
		return p, fmt.Errorf("bind %s paint: %w", p.Type, scene.ErrUnsupported)
	}
	p.ColorVariable = v.ID
	return p, nil
}
