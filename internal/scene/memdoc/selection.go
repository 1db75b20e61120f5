package memdoc

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/jmylchreest/iconform/internal/scene"
)

// SelectGlob selects every node whose name path (see scene.Node.Path)
// matches pattern, e.g. "Icons/**/arrow-*". Descendants of an already
// matched node are not selected separately.
func (d *Document) SelectGlob(pattern string) (int, error) {
	sel, err := d.glob(pattern)
	if err != nil {
		return 0, err
	}
	d.selection = sel
	return len(sel), nil
}

// SelectSpecs replaces the selection with the union of specs in order.
// A spec containing glob metacharacters selects by name path, anything
// else is a node id. A node matched twice is selected once.
func (d *Document) SelectSpecs(specs []string) (int, error) {
	var sel []*scene.Node
	seen := make(map[*scene.Node]bool)
	add := func(nodes ...*scene.Node) {
		for _, n := range nodes {
			if !seen[n] {
				seen[n] = true
				sel = append(sel, n)
			}
		}
	}

	for _, spec := range specs {
		if !isGlob(spec) {
			n, ok := d.NodeByID(spec)
			if !ok {
				return 0, fmt.Errorf("selected node %s: %w", spec, scene.ErrNotFound)
			}
			add(n)
			continue
		}
		nodes, err := d.glob(spec)
		if err != nil {
			return 0, err
		}
		add(nodes...)
	}

	d.selection = sel
	return len(sel), nil
}

func (d *Document) glob(pattern string) ([]*scene.Node, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid selection pattern: %q", pattern)
	}

	var sel []*scene.Node
	var walk func(*scene.Node)
	walk = func(parent *scene.Node) {
		for _, c := range parent.Children {
			if c.Removed() {
				continue
			}
			if ok, _ := doublestar.Match(pattern, c.Path()); ok {
				sel = append(sel, c)
				continue
			}
			walk(c)
		}
	}
	walk(d.page)
	return sel, nil
}

func isGlob(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}
