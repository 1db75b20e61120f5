// Package scene models the host document graph that icons live in and the
// capability surface the host exposes for mutating it.
package scene

import (
	"fmt"
	"strings"
)

// NodeType discriminates scene nodes.
type NodeType int

const (
	NodeUnknown NodeType = iota
	NodePage
	NodeGroup
	NodeFrame
	NodeComponent
	NodeComponentSet
	NodeInstance
	NodeVector
	NodeStar
	NodeLine
	NodeEllipse
	NodePolygon
	NodeBooleanOperation
	NodeText
	NodeRectangle
	NodeSlice
)

var nodeTypeNames = map[NodeType]string{
	NodeUnknown:          "UNKNOWN",
	NodePage:             "PAGE",
	NodeGroup:            "GROUP",
	NodeFrame:            "FRAME",
	NodeComponent:        "COMPONENT",
	NodeComponentSet:     "COMPONENT_SET",
	NodeInstance:         "INSTANCE",
	NodeVector:           "VECTOR",
	NodeStar:             "STAR",
	NodeLine:             "LINE",
	NodeEllipse:          "ELLIPSE",
	NodePolygon:          "POLYGON",
	NodeBooleanOperation: "BOOLEAN_OPERATION",
	NodeText:             "TEXT",
	NodeRectangle:        "RECTANGLE",
	NodeSlice:            "SLICE",
}

// String returns the host's spelling of the type, e.g. "COMPONENT_SET".
func (t NodeType) String() string {
	if name, ok := nodeTypeNames[t]; ok {
		return name
	}
	return nodeTypeNames[NodeUnknown]
}

// ParseNodeType parses the host spelling of a node type.
func ParseNodeType(s string) (NodeType, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for t, name := range nodeTypeNames {
		if t != NodeUnknown && name == want {
			return t, nil
		}
	}
	return NodeUnknown, fmt.Errorf("unknown node type: %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t NodeType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *NodeType) UnmarshalText(b []byte) error {
	parsed, err := ParseNodeType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// IsFlattenable reports whether nodes of this type are merged into the
// single icon vector.
func (t NodeType) IsFlattenable() bool {
	switch t {
	case NodeVector, NodeStar, NodeLine, NodeEllipse, NodePolygon, NodeBooleanOperation, NodeText:
		return true
	default:
		return false
	}
}

// IsContainer reports whether nodes of this type may hold children.
func (t NodeType) IsContainer() bool {
	switch t {
	case NodePage, NodeGroup, NodeFrame, NodeComponent, NodeComponentSet, NodeInstance, NodeBooleanOperation:
		return true
	default:
		return false
	}
}

// ConstraintType is a resize rule applied on one axis.
type ConstraintType string

const (
	ConstraintMin     ConstraintType = "MIN"
	ConstraintMax     ConstraintType = "MAX"
	ConstraintCenter  ConstraintType = "CENTER"
	ConstraintStretch ConstraintType = "STRETCH"
	ConstraintScale   ConstraintType = "SCALE"
)

// Constraints describes how a node follows its parent when the parent is resized.
type Constraints struct {
	Horizontal ConstraintType `json:"horizontal"`
	Vertical   ConstraintType `json:"vertical"`
}

// ScaleConstraints scale proportionally on both axes.
var ScaleConstraints = Constraints{Horizontal: ConstraintScale, Vertical: ConstraintScale}

// Rect is an axis aligned box.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Union returns the smallest box containing r and o.
func (r Rect) Union(o Rect) Rect {
	minX := min(r.X, o.X)
	minY := min(r.Y, o.Y)
	maxX := max(r.X+r.Width, o.X+o.Width)
	maxY := max(r.Y+r.Height, o.Y+o.Height)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// BindableField names a node property that can be bound to a variable.
type BindableField string

const (
	FieldWidth  BindableField = "width"
	FieldHeight BindableField = "height"
)
