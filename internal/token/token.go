// Package token resolves paint styles and variables to concrete colours and
// dimensions, and lists the tokens a document offers.
package token

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind says whether a colour token is a paint style or a colour variable.
type Kind string

const (
	KindStyle    Kind = "STYLE"
	KindVariable Kind = "VARIABLE"
)

// ParseKind parses a token kind tag, case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToUpper(strings.TrimSpace(s))) {
	case KindStyle:
		return KindStyle, nil
	case KindVariable:
		return KindVariable, nil
	default:
		return "", fmt.Errorf("unknown token kind: %q", s)
	}
}

const (
	// FallbackSwatch is shown for styles whose first paint is not solid.
	FallbackSwatch = "#CCCCCC"

	// AliasMarker stands in for a dimension whose value is an alias.
	AliasMarker = "Alias"

	colourFallbackGroup    = "Other"
	dimensionFallbackGroup = "General"
)

// ColourToken is a paint style or COLOR variable as offered to the panel.
// Hex is empty when a variable could not be resolved.
type ColourToken struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Group string `json:"group"`
	Kind  Kind   `json:"type"`
	Hex   string `json:"hex,omitempty"`
}

// DimensionToken is a FLOAT variable usable for width and height.
type DimensionToken struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Group string    `json:"group"`
	Value Dimension `json:"value"`
}

// Dimension is a resolved number, or the alias marker when the variable
// points at another variable in the resolving mode.
type Dimension struct {
	Number float64
	Alias  bool
}

// String returns the number, or AliasMarker.
func (d Dimension) String() string {
	if d.Alias {
		return AliasMarker
	}
	return strconv.FormatFloat(d.Number, 'f', -1, 64)
}

// MarshalJSON encodes the number, or the string "Alias".
func (d Dimension) MarshalJSON() ([]byte, error) {
	if d.Alias {
		return json.Marshal(AliasMarker)
	}
	return json.Marshal(d.Number)
}

// UnmarshalJSON accepts a number or the string "Alias".
func (d *Dimension) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if s != AliasMarker {
			return fmt.Errorf("invalid dimension: %q", s)
		}
		*d = Dimension{Alias: true}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("invalid dimension: %w", err)
	}
	*d = Dimension{Number: f}
	return nil
}

// SplitName splits a "/" delimited display name into a group and a leaf
// name. A name with a single segment is placed in fallback. When trim is
// set the group and the leaf of a multi-segment name are trimmed of
// surrounding spaces.
func SplitName(name, fallback string, trim bool) (group, leaf string) {
	first, rest, ok := strings.Cut(name, "/")
	if !ok {
		return fallback, name
	}
	if trim {
		return strings.TrimSpace(first), strings.TrimSpace(rest)
	}
	return first, rest
}
