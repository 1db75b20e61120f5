package scene

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StrokeWeight is a stroke width that may differ between sub-paths.
type StrokeWeight struct {
	Value float64
	Mixed bool
}

// Outlinable reports whether the weight is a single positive number.
func (w StrokeWeight) Outlinable() bool {
	return !w.Mixed && w.Value > 0
}

// MarshalJSON encodes a mixed weight as the string "mixed".
func (w StrokeWeight) MarshalJSON() ([]byte, error) {
	if w.Mixed {
		return []byte(`"mixed"`), nil
	}
	return json.Marshal(w.Value)
}

// UnmarshalJSON accepts a number or the string "mixed".
func (w *StrokeWeight) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if !strings.EqualFold(s, "mixed") {
			return fmt.Errorf("invalid stroke weight: %q", s)
		}
		*w = StrokeWeight{Mixed: true}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("invalid stroke weight: %w", err)
	}
	*w = StrokeWeight{Value: f}
	return nil
}

// Node is one element of the document tree. Position is relative to the
// parent. The tree owns nodes; Parent is a back reference only.
type Node struct {
	ID     string   `json:"id"`
	Type   NodeType `json:"type"`
	Name   string   `json:"name"`
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	Width  float64  `json:"width"`
	Height float64  `json:"height"`

	Fills         []Paint      `json:"fills,omitempty"`
	Strokes       []Paint      `json:"strokes,omitempty"`
	StrokeWeight  StrokeWeight `json:"strokeWeight"`
	FillStyleID   string       `json:"fillStyleId,omitempty"`
	StrokeStyleID string       `json:"strokeStyleId,omitempty"`

	Constraints       Constraints `json:"constraints"`
	AspectRatioLocked bool        `json:"aspectRatioLocked,omitempty"`

	// BoundVariables maps a bindable field to a variable id.
	BoundVariables map[BindableField]string `json:"boundVariables,omitempty"`

	// ExplicitModes maps a variable collection id to the mode chosen for
	// this subtree.
	ExplicitModes map[string]string `json:"explicitVariableModes,omitempty"`

	// Paths holds opaque vector path data.
	Paths []string `json:"paths,omitempty"`

	// OutlineUnsupported marks shapes the host cannot outline.
	OutlineUnsupported bool `json:"outlineUnsupported,omitempty"`

	Children []*Node `json:"children,omitempty"`

	parent  *Node
	removed bool
}

// Parent returns the containing node, or nil for a root or detached node.
func (n *Node) Parent() *Node {
	return n.parent
}

// Removed reports whether the node was deleted from the document.
func (n *Node) Removed() bool {
	return n.removed
}

// Bounds returns the node box in its parent's coordinates.
func (n *Node) Bounds() Rect {
	return Rect{X: n.X, Y: n.Y, Width: n.Width, Height: n.Height}
}

// AbsoluteBounds returns the node box in page coordinates.
func (n *Node) AbsoluteBounds() Rect {
	r := n.Bounds()
	for p := n.parent; p != nil && p.Type != NodePage; p = p.parent {
		r.X += p.X
		r.Y += p.Y
	}
	return r
}

// BoundsWithin returns the node box in the coordinates of ancestor.
func (n *Node) BoundsWithin(ancestor *Node) Rect {
	r := n.AbsoluteBounds()
	if ancestor == nil {
		return r
	}
	a := ancestor.AbsoluteBounds()
	r.X -= a.X
	r.Y -= a.Y
	return r
}

// IndexOf returns the position of child among n's children, or -1.
func (n *Node) IndexOf(child *Node) int {
	for i, c := range n.Children {
		if c == child {
			return i
		}
	}
	return -1
}

// FindAll returns every descendant (not n itself) matching pred in
// depth-first pre-order.
func (n *Node) FindAll(pred func(*Node) bool) []*Node {
	var found []*Node
	var walk func(*Node)
	walk = func(parent *Node) {
		for _, c := range parent.Children {
			if pred(c) {
				found = append(found, c)
			}
			walk(c)
		}
	}
	walk(n)
	return found
}

// Find returns the first descendant matching pred, or nil.
func (n *Node) Find(pred func(*Node) bool) *Node {
	for _, c := range n.Children {
		if pred(c) {
			return c
		}
		if found := c.Find(pred); found != nil {
			return found
		}
	}
	return nil
}

// Path returns the slash separated names from the page down to n,
// e.g. "Icons/Arrows/arrow-left".
func (n *Node) Path() string {
	var parts []string
	for p := n; p != nil && p.Type != NodePage; p = p.parent {
		parts = append(parts, p.Name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

// HasStrokes reports whether the node carries at least one stroke paint.
func (n *Node) HasStrokes() bool {
	return len(n.Strokes) > 0
}

// Link restores parent references below n, e.g. after decoding JSON.
func (n *Node) Link() {
	for _, c := range n.Children {
		c.parent = n
		c.Link()
	}
}

// Attach inserts child at index (clamped) after detaching it from any
// previous parent. Host implementations call this; pipeline code goes
// through Document.
func (n *Node) Attach(index int, child *Node) {
	child.Detach()
	if index < 0 || index > len(n.Children) {
		index = len(n.Children)
	}
	n.Children = append(n.Children, nil)
	copy(n.Children[index+1:], n.Children[index:])
	n.Children[index] = child
	child.parent = n
}

// Detach unlinks n from its parent without marking it removed.
func (n *Node) Detach() {
	if n.parent == nil {
		return
	}
	if i := n.parent.IndexOf(n); i >= 0 {
		n.parent.Children = append(n.parent.Children[:i], n.parent.Children[i+1:]...)
	}
	n.parent = nil
}

// MarkRemoved detaches n and flags it and its subtree as removed.
func (n *Node) MarkRemoved() {
	n.Detach()
	var mark func(*Node)
	mark = func(x *Node) {
		x.removed = true
		for _, c := range x.Children {
			mark(c)
		}
	}
	mark(n)
}
