package scene

import (
	"context"
	"errors"
)

var (
	// ErrRemoved is returned when operating on a node already deleted.
	ErrRemoved = errors.New("node has been removed")

	// ErrNotFound is returned when a style, variable or node id is unknown.
	ErrNotFound = errors.New("not found")

	// ErrUnsupported is returned when the host cannot perform an operation
	// on a particular node, e.g. outlining a text stroke.
	ErrUnsupported = errors.New("operation not supported")
)

// Document is the capability surface a host document offers. The pipeline
// never creates, reparents, resizes or deletes nodes except through it.
// Methods taking a context may suspend on the host.
type Document interface {
	// CurrentPage returns the page the user is looking at.
	CurrentPage() *Node

	// Selection returns the user's top level selection in order.
	Selection() []*Node

	// CreateFrame creates an empty frame on the current page.
	CreateFrame() *Node

	// InsertChild moves child under parent at index.
	InsertChild(parent *Node, index int, child *Node) error

	// AppendChild moves child under parent as its last child.
	AppendChild(parent, child *Node) error

	// Remove deletes n and its subtree.
	Remove(n *Node) error

	// Resize sets the size of n, applying children's constraints.
	Resize(n *Node, width, height float64) error

	// Flatten merges nodes into a single vector appended to parent. The
	// inputs are destroyed.
	Flatten(nodes []*Node, parent *Node) (*Node, error)

	// OutlineStroke returns a new vector covering n's stroke as fill
	// geometry, inserted next to n. n itself is left untouched.
	OutlineStroke(n *Node) (*Node, error)

	// LocalPaintStyles lists paint styles defined in the document.
	LocalPaintStyles(ctx context.Context) ([]*Style, error)

	// LocalVariables lists variables of the given type defined in the document.
	LocalVariables(ctx context.Context, t VariableType) ([]*Variable, error)

	// StyleByID looks up a style, returning ErrNotFound if absent.
	StyleByID(ctx context.Context, id string) (*Style, error)

	// VariableByID looks up a variable, returning ErrNotFound if absent.
	VariableByID(ctx context.Context, id string) (*Variable, error)

	// ResolveForConsumer returns v's value in the mode that applies to
	// consumer. An alias value is returned as-is, not followed.
	ResolveForConsumer(v *Variable, consumer *Node) (Value, error)

	// SetBoundVariable binds field of n to v.
	SetBoundVariable(n *Node, field BindableField, v *Variable) error

	// BindPaintColor returns a copy of p whose colour is bound to v.
	BindPaintColor(p Paint, v *Variable) (Paint, error)
}

// ResolutionContext returns the node variables are resolved against when
// nothing more specific is known: the first selected node, else the page.
func ResolutionContext(doc Document) *Node {
	if sel := doc.Selection(); len(sel) > 0 {
		return sel[0]
	}
	return doc.CurrentPage()
}
