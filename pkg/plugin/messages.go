package plugin

import (
	"encoding/json"
	"fmt"
)

// Message types exchanged between the panel and the backend.
const (
	// Backend to panel.
	TypeSelectionUpdated   = "selection-updated"
	TypeColourAssets       = "color-assets"
	TypeDimensionVariables = "dimension-variables"
	TypeNotify             = "notify"
	TypeStandardiseResult  = "standardize-result"

	// Panel to backend.
	TypeStandardiseSelection = "standardize-selection"
	TypeRefreshAssets        = "refresh-assets"
)

// AliasValue is sent as a dimension value that is an alias.
const AliasValue = "Alias"

// Envelope carries only the discriminant of a message.
type Envelope struct {
	Type string `json:"type"`
}

// PeekType returns the type of a raw JSON message.
func PeekType(raw []byte) (string, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", fmt.Errorf("failed to parse message: %w", err)
	}
	if env.Type == "" {
		return "", fmt.Errorf("message has no type")
	}
	return env.Type, nil
}

// SelectionUpdated reports the number of selected nodes.
type SelectionUpdated struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// ColourAsset is a paint style or colour variable offered to the panel.
// Hex is null when a variable could not be resolved.
type ColourAsset struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Group string  `json:"group"`
	Type  string  `json:"type"`
	Hex   *string `json:"hex"`
}

// ColourAssets lists every colour token.
type ColourAssets struct {
	Type   string        `json:"type"`
	Assets []ColourAsset `json:"assets"`
}

// DimensionVariable is a size variable. Value is a number, or AliasValue.
type DimensionVariable struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Group string `json:"group"`
	Value any    `json:"value"`
}

// DimensionVariables lists every size variable.
type DimensionVariables struct {
	Type      string              `json:"type"`
	Variables []DimensionVariable `json:"variables"`
}

// Notify is a user facing toast. Timeout is in milliseconds; zero leaves
// the host default.
type Notify struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Error   bool   `json:"error,omitempty"`
	Timeout int    `json:"timeout,omitempty"`
}

// StepResult is the outcome of one pipeline step of one item.
type StepResult struct {
	Step   string `json:"step"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Outcome is the result of one processed item.
type Outcome struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	State  string       `json:"state"`
	Steps  []StepResult `json:"steps,omitempty"`
	Reason string       `json:"reason,omitempty"`
}

// StandardiseResult follows every standardise command.
type StandardiseResult struct {
	Type     string    `json:"type"`
	Count    int       `json:"count"`
	Outcomes []Outcome `json:"outcomes"`
}

// ColorOptions selects the recolour mode: ORIGINAL, HEX or STYLE. Type
// optionally tags a STYLE value as a STYLE or VARIABLE id.
type ColorOptions struct {
	Mode  string `json:"mode"`
	Value string `json:"value,omitempty"`
	Type  string `json:"type,omitempty"`
}

// StandardiseSelection asks the backend to normalise the selection.
type StandardiseSelection struct {
	Type                 string        `json:"type"`
	ColorOptions         *ColorOptions `json:"colorOptions,omitempty"`
	ShouldResize         bool          `json:"shouldResize,omitempty"`
	TargetSize           *float64      `json:"targetSize,omitempty"`
	TargetSizeVariableID string        `json:"targetSizeVariableId,omitempty"`
	ShouldOutline        *bool         `json:"shouldOutline,omitempty"`
}

// Outline reports whether strokes should be outlined; true when omitted.
func (m StandardiseSelection) Outline() bool {
	return m.ShouldOutline == nil || *m.ShouldOutline
}

// RefreshAssets asks the backend to resend both token lists.
type RefreshAssets struct {
	Type string `json:"type"`
}
