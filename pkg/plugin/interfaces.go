package plugin

import (
	"context"
	"encoding/json"
)

// Backend runs the session logic against a document snapshot. It is the
// interface out-of-process backends implement for go-plugin RPC.
type Backend interface {
	// Exchange loads the request's document, delivers its messages in
	// order and returns everything the backend sent plus the updated
	// document.
	Exchange(ctx context.Context, req ExchangeRequest) (ExchangeResponse, error)

	// GetMetadata returns backend metadata.
	GetMetadata() PluginInfo
}

// ExchangeRequest is one batch of panel messages against a document.
type ExchangeRequest struct {
	// Document is a JSON snapshot of the host document.
	Document []byte `json:"document"`

	// Selection, when set, replaces the snapshot's selection. Entries
	// containing glob metacharacters select by name path.
	Selection []string `json:"selection,omitempty"`

	Messages []json.RawMessage `json:"messages"`
}

// ExchangeResponse carries the backend's replies.
type ExchangeResponse struct {
	Document []byte            `json:"document"`
	Messages []json.RawMessage `json:"messages"`
}

// PluginInfo contains metadata about a backend.
type PluginInfo struct {
	Name            string `json:"name"`
	Version         string `json:"version"`
	ProtocolVersion string `json:"protocol_version"`
	Description     string `json:"description"`
	PluginProtocol  string `json:"plugin_protocol"` // "go-plugin" or "json-stdio"
}
