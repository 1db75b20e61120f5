// Package memdoc is an in-memory host document. It implements
// scene.Document over a JSON snapshot so the pipeline can run outside a
// design tool: from the CLI, behind the plugin RPC, and in tests.
package memdoc

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/jmylchreest/iconform/internal/scene"
)

// Snapshot is the serialised form of a document.
type Snapshot struct {
	Page        *scene.Node         `json:"page"`
	Selection   []string            `json:"selection,omitempty"`
	Styles      []*scene.Style      `json:"styles,omitempty"`
	Collections []*scene.Collection `json:"collections,omitempty"`
	Variables   []*scene.Variable   `json:"variables,omitempty"`
}

// Document is an in-memory scene.Document. It is not safe for concurrent
// use; callers serialise access the same way a host delivers one event at
// a time.
type Document struct {
	page        *scene.Node
	selection   []*scene.Node
	styles      []*scene.Style
	collections map[string]*scene.Collection
	variables   []*scene.Variable
	nextID      int
}

var _ scene.Document = (*Document)(nil)

// New builds a document from a snapshot. The snapshot's nodes are adopted,
// not copied.
func New(snap *Snapshot) (*Document, error) {
	if snap == nil || snap.Page == nil {
		return nil, fmt.Errorf("snapshot has no page")
	}
	if snap.Page.Type != scene.NodePage {
		return nil, fmt.Errorf("snapshot root must be a PAGE, got %s", snap.Page.Type)
	}
	snap.Page.Link()

	d := &Document{
		page:        snap.Page,
		styles:      snap.Styles,
		collections: make(map[string]*scene.Collection, len(snap.Collections)),
		variables:   snap.Variables,
	}
	for _, c := range snap.Collections {
		d.collections[c.ID] = c
	}
	d.nextID = maxLocalID(snap.Page)

	if err := d.Select(snap.Selection...); err != nil {
		return nil, err
	}
	return d, nil
}

// Snapshot returns the document's current state for serialisation.
func (d *Document) Snapshot() *Snapshot {
	snap := &Snapshot{
		Page:      d.page,
		Styles:    d.styles,
		Variables: d.variables,
	}
	for _, n := range d.Selection() {
		snap.Selection = append(snap.Selection, n.ID)
	}
	for _, c := range d.collections {
		snap.Collections = append(snap.Collections, c)
	}
	slices.SortFunc(snap.Collections, func(a, b *scene.Collection) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return snap
}

// NodeByID finds a live node on the page.
func (d *Document) NodeByID(id string) (*scene.Node, bool) {
	if d.page.ID == id {
		return d.page, true
	}
	n := d.page.Find(func(n *scene.Node) bool { return n.ID == id })
	return n, n != nil
}

// Select replaces the selection with the nodes named by ids.
func (d *Document) Select(ids ...string) error {
	sel := make([]*scene.Node, 0, len(ids))
	for _, id := range ids {
		n, ok := d.NodeByID(id)
		if !ok {
			return fmt.Errorf("selected node %s: %w", id, scene.ErrNotFound)
		}
		sel = append(sel, n)
	}
	d.selection = sel
	return nil
}

// SelectNodes replaces the selection with nodes already in the document.
func (d *Document) SelectNodes(nodes ...*scene.Node) {
	d.selection = slices.Clone(nodes)
}

// CurrentPage implements scene.Document.
func (d *Document) CurrentPage() *scene.Node {
	return d.page
}

// Selection implements scene.Document. Removed nodes drop out.
func (d *Document) Selection() []*scene.Node {
	live := d.selection[:0:0]
	for _, n := range d.selection {
		if !n.Removed() {
			live = append(live, n)
		}
	}
	return live
}

// CreateFrame implements scene.Document.
func (d *Document) CreateFrame() *scene.Node {
	f := &scene.Node{
		ID:          d.newID(),
		Type:        scene.NodeFrame,
		Name:        "Frame",
		Width:       100,
		Height:      100,
		Fills:       []scene.Paint{scene.SolidPaint(colourWhite)},
		Constraints: scene.Constraints{Horizontal: scene.ConstraintMin, Vertical: scene.ConstraintMin},
	}
	d.page.Attach(-1, f)
	return f
}

// InsertChild implements scene.Document.
func (d *Document) InsertChild(parent *scene.Node, index int, child *scene.Node) error {
	if err := live(parent, child); err != nil {
		return err
	}
	if !parent.Type.IsContainer() {
		return fmt.Errorf("cannot insert into %s: %w", parent.Type, scene.ErrUnsupported)
	}
	for p := parent; p != nil; p = p.Parent() {
		if p == child {
			return fmt.Errorf("cannot insert %s into its own descendant", child.ID)
		}
	}

	old := child.Parent()
	parent.Attach(index, child)
	d.pruneEmptyGroup(old)
	return nil
}

// AppendChild implements scene.Document.
func (d *Document) AppendChild(parent, child *scene.Node) error {
	return d.InsertChild(parent, -1, child)
}

// Remove implements scene.Document.
func (d *Document) Remove(n *scene.Node) error {
	if n.Removed() {
		return fmt.Errorf("remove %s: %w", n.ID, scene.ErrRemoved)
	}
	if n == d.page {
		return fmt.Errorf("cannot remove the page: %w", scene.ErrUnsupported)
	}
	parent := n.Parent()
	n.MarkRemoved()
	d.pruneEmptyGroup(parent)
	return nil
}

// Resize implements scene.Document. Direct children follow their
// constraints.
func (d *Document) Resize(n *scene.Node, width, height float64) error {
	if err := live(n); err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid size %vx%v", width, height)
	}

	oldW, oldH := n.Width, n.Height
	for _, c := range n.Children {
		c.X, c.Width = applyConstraint(c.Constraints.Horizontal, c.X, c.Width, oldW, width)
		c.Y, c.Height = applyConstraint(c.Constraints.Vertical, c.Y, c.Height, oldH, height)
	}
	n.Width, n.Height = width, height
	return nil
}

func applyConstraint(ct scene.ConstraintType, pos, size, oldParent, newParent float64) (float64, float64) {
	delta := newParent - oldParent
	switch ct {
	case scene.ConstraintScale:
		if oldParent == 0 {
			return pos, size
		}
		f := newParent / oldParent
		return pos * f, size * f
	case scene.ConstraintMax:
		return pos + delta, size
	case scene.ConstraintCenter:
		return pos + delta/2, size
	case scene.ConstraintStretch:
		return pos, max(size+delta, 0)
	default:
		return pos, size
	}
}

const localIDPrefix = "I:"

func (d *Document) newID() string {
	d.nextID++
	return localIDPrefix + strconv.Itoa(d.nextID)
}

// maxLocalID returns the highest counter among ids this document type
// generates, so nodes created after a reload never reuse a saved id.
func maxLocalID(root *scene.Node) int {
	highest := 0
	check := func(n *scene.Node) bool {
		if rest, ok := strings.CutPrefix(n.ID, localIDPrefix); ok {
			if v, err := strconv.Atoi(rest); err == nil && v > highest {
				highest = v
			}
		}
		return false
	}
	check(root)
	root.FindAll(check)
	return highest
}

// pruneEmptyGroup removes groups left without children, cascading upward,
// the way hosts refuse to keep empty groups alive.
func (d *Document) pruneEmptyGroup(n *scene.Node) {
	for n != nil && !n.Removed() && n.Type == scene.NodeGroup && len(n.Children) == 0 {
		parent := n.Parent()
		n.MarkRemoved()
		n = parent
	}
}

func live(nodes ...*scene.Node) error {
	for _, n := range nodes {
		if n == nil {
			return fmt.Errorf("nil node: %w", scene.ErrNotFound)
		}
		if n.Removed() {
			return fmt.Errorf("node %s: %w", n.ID, scene.ErrRemoved)
		}
	}
	return nil
}
