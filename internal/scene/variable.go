package scene

import (
	"github.com/jmylchreest/iconform/internal/colour"
)

// VariableType is the resolved type of a variable.
type VariableType string

const (
	VariableColor   VariableType = "COLOR"
	VariableFloat   VariableType = "FLOAT"
	VariableString  VariableType = "STRING"
	VariableBoolean VariableType = "BOOLEAN"
)

// VariableScope limits where the host offers a variable.
type VariableScope string

const (
	ScopeAllScopes   VariableScope = "ALL_SCOPES"
	ScopeWidthHeight VariableScope = "WIDTH_HEIGHT"
	ScopeAllFills    VariableScope = "ALL_FILLS"
	ScopeStrokeColor VariableScope = "STROKE_COLOR"
)

// ValueKind discriminates variable values.
type ValueKind string

const (
	ValueColor   ValueKind = "COLOR"
	ValueFloat   ValueKind = "FLOAT"
	ValueString  ValueKind = "STRING"
	ValueBoolean ValueKind = "BOOLEAN"
	ValueAlias   ValueKind = "VARIABLE_ALIAS"
)

// Value is a variable value for one mode. Exactly one payload field is
// meaningful, selected by Kind.
type Value struct {
	Kind    ValueKind   `json:"type"`
	Color   *colour.RGB `json:"color,omitempty"`
	Float   *float64    `json:"float,omitempty"`
	String  *string     `json:"string,omitempty"`
	Boolean *bool       `json:"boolean,omitempty"`

	// AliasID is the id of the variable this value points at when Kind is ValueAlias.
	AliasID string `json:"id,omitempty"`
}

// ColorValue builds a colour value.
func ColorValue(c colour.RGB) Value {
	return Value{Kind: ValueColor, Color: &c}
}

// FloatValue builds a numeric value.
func FloatValue(f float64) Value {
	return Value{Kind: ValueFloat, Float: &f}
}

// AliasValue builds a value that points at another variable.
func AliasValue(id string) Value {
	return Value{Kind: ValueAlias, AliasID: id}
}

// IsAlias reports whether v points at another variable.
func (v Value) IsAlias() bool {
	return v.Kind == ValueAlias
}

// Mode is one column of a variable collection.
type Mode struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Collection groups variables that share modes.
type Collection struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Modes         []Mode `json:"modes"`
	DefaultModeID string `json:"defaultModeId"`
}

// Variable is a named design value with one value per mode.
type Variable struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	CollectionID string           `json:"collectionId"`
	Type         VariableType     `json:"type"`
	Scopes       []VariableScope  `json:"scopes,omitempty"`
	ValuesByMode map[string]Value `json:"valuesByMode"`
}

// HasScope reports whether s is listed in the variable's scopes.
func (v *Variable) HasScope(s VariableScope) bool {
	for _, scope := range v.Scopes {
		if scope == s {
			return true
		}
	}
	return false
}

// Style is a named paint style.
type Style struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Paints []Paint `json:"paints"`
}
