package plugin

import (
	"context"
	"net/rpc"

	"github.com/hashicorp/go-plugin"
)

// BackendRPC implements the go-plugin Plugin interface for backends.
type BackendRPC struct {
	plugin.Plugin
	Impl Backend
}

// Server returns an RPC server for this plugin.
func (p *BackendRPC) Server(*plugin.MuxBroker) (any, error) {
	return &BackendRPCServer{Impl: p.Impl}, nil
}

// Client returns an RPC client for this plugin.
func (p *BackendRPC) Client(_ *plugin.MuxBroker, c *rpc.Client) (any, error) {
	return &BackendRPCClient{client: c}, nil
}

// BackendRPCServer is the RPC server implementation for backends.
type BackendRPCServer struct {
	Impl Backend
}

// Exchange implements the RPC method for a message exchange.
func (s *BackendRPCServer) Exchange(req ExchangeRequest, resp *ExchangeResponse) error {
	result, err := s.Impl.Exchange(context.Background(), req)
	if err != nil {
		return &RPCError{Message: err.Error()}
	}
	*resp = result
	return nil
}

// GetMetadata implements the RPC method for fetching backend metadata.
func (s *BackendRPCServer) GetMetadata(_ any, resp *PluginInfo) error {
	*resp = s.Impl.GetMetadata()
	return nil
}

// BackendRPCClient is the RPC client implementation for backends.
type BackendRPCClient struct {
	client *rpc.Client
}

// Exchange calls the remote Exchange method.
func (c *BackendRPCClient) Exchange(_ context.Context, req ExchangeRequest) (ExchangeResponse, error) {
	var resp ExchangeResponse
	if err := c.client.Call("Plugin.Exchange", req, &resp); err != nil {
		return ExchangeResponse{}, &RPCError{Message: err.Error()}
	}
	return resp, nil
}

// GetMetadata calls the remote GetMetadata method.
func (c *BackendRPCClient) GetMetadata() PluginInfo {
	var info PluginInfo
	if err := c.client.Call("Plugin.GetMetadata", new(any), &info); err != nil {
		return PluginInfo{}
	}
	return info
}

// RPCError represents an error returned from an RPC call.
type RPCError struct {
	Message string
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	return e.Message
}
