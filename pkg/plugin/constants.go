// Package plugin provides the public API for iconform backends and panels:
// the message types exchanged with the panel and the go-plugin RPC surface
// for out-of-process backends.
package plugin

import (
	"github.com/hashicorp/go-plugin"
)

const (
	// ProtocolVersion defines the current backend API version.
	// Format: MAJOR.MINOR.PATCH.
	// - Increment MAJOR for breaking changes (incompatible API changes).
	// - Increment MINOR for backward-compatible additions.
	// - Increment PATCH for backward-compatible bug fixes.
	ProtocolVersion = "0.1.0"

	// MinCompatibleVersion is the oldest protocol version this iconform version can work with.
	MinCompatibleVersion = "0.1.0"

	// BackendPluginName is the key of the backend in the go-plugin plugin map.
	BackendPluginName = "backend"
)

// Handshake is the handshake configuration for go-plugin protocol.
// This ensures that backends using go-plugin can only connect to compatible hosts.
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  0, // Major version from ProtocolVersion
	MagicCookieKey:   "ICONFORM_PLUGIN",
	MagicCookieValue: "iconform_backend",
}

// PluginType defines the type of backend communication protocol.
type PluginType string

const (
	// PluginTypeGoPlugin indicates the backend uses HashiCorp go-plugin RPC.
	PluginTypeGoPlugin PluginType = "go-plugin"

	// PluginTypeJSON indicates the backend reads an ExchangeRequest on stdin
	// and writes an ExchangeResponse to stdout.
	PluginTypeJSON PluginType = "json-stdio"
)

// PluginMap returns the plugin set served and dispensed for impl. Clients
// pass a nil impl.
func PluginMap(impl Backend) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		BackendPluginName: &BackendRPC{Impl: impl},
	}
}
