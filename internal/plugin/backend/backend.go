// Package backend runs iconform sessions against document snapshots on
// behalf of another process, over go-plugin RPC or a JSON exchange on
// stdio.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
	goplugin "github.com/hashicorp/go-plugin"

	"github.com/jmylchreest/iconform/internal/channel"
	"github.com/jmylchreest/iconform/internal/scene/memdoc"
	"github.com/jmylchreest/iconform/internal/session"
	"github.com/jmylchreest/iconform/internal/version"
	"github.com/jmylchreest/iconform/pkg/plugin"
)

// Backend implements plugin.Backend with an in-process session.
type Backend struct {
	logger   hclog.Logger
	protocol plugin.PluginType
	opts     []session.Option
}

var _ plugin.Backend = (*Backend)(nil)

// New creates a backend. The protocol is reported by GetMetadata so a
// host knows how to launch it; opts are passed to every session.
func New(logger hclog.Logger, protocol plugin.PluginType, opts ...session.Option) *Backend {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Backend{
		logger:   logger.Named("backend"),
		protocol: protocol,
		opts:     opts,
	}
}

// GetMetadata implements plugin.Backend.
func (b *Backend) GetMetadata() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:            "iconform",
		Version:         version.Version,
		ProtocolVersion: plugin.ProtocolVersion,
		Description:     "Standardises icon artwork in design documents",
		PluginProtocol:  string(b.protocol),
	}
}

// Exchange decodes the snapshot, applies the requested selection, pushes
// the startup state and then handles each message in order. The response
// carries every message the session sent and the updated snapshot.
func (b *Backend) Exchange(ctx context.Context, req plugin.ExchangeRequest) (plugin.ExchangeResponse, error) {
	doc, err := memdoc.Decode(bytes.NewReader(req.Document))
	if err != nil {
		return plugin.ExchangeResponse{}, err
	}
	if len(req.Selection) > 0 {
		n, err := doc.SelectSpecs(req.Selection)
		if err != nil {
			return plugin.ExchangeResponse{}, fmt.Errorf("failed to apply selection: %w", err)
		}
		b.logger.Debug("selection applied", "specs", req.Selection, "count", n)
	}

	rec := &channel.Recorder{}
	opts := append([]session.Option{session.WithLogger(b.logger)}, b.opts...)
	ctrl, err := session.New(doc, rec, opts...)
	if err != nil {
		return plugin.ExchangeResponse{}, err
	}
	if err := ctrl.Start(ctx); err != nil {
		return plugin.ExchangeResponse{}, err
	}

	for i, msg := range req.Messages {
		if err := ctx.Err(); err != nil {
			return plugin.ExchangeResponse{}, err
		}
		if err := ctrl.Handle(ctx, msg); err != nil {
			return plugin.ExchangeResponse{}, fmt.Errorf("message %d: %w", i, err)
		}
	}

	var out bytes.Buffer
	if err := doc.Encode(&out); err != nil {
		return plugin.ExchangeResponse{}, err
	}
	return plugin.ExchangeResponse{Document: out.Bytes(), Messages: rec.Messages()}, nil
}

// Serve serves b over go-plugin RPC until the host disconnects.
func Serve(b *Backend, logger hclog.Logger) {
	goplugin.Serve(&goplugin.ServeConfig{
		HandshakeConfig: plugin.Handshake,
		Plugins:         plugin.PluginMap(b),
		Logger:          logger,
	})
}

// ServeJSON reads one ExchangeRequest from in and writes the response to
// out.
func ServeJSON(ctx context.Context, b plugin.Backend, in io.Reader, out io.Writer) error {
	var req plugin.ExchangeRequest
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return fmt.Errorf("failed to read exchange request: %w", err)
	}
	resp, err := b.Exchange(ctx, req)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(out).Encode(resp); err != nil {
		return fmt.Errorf("failed to write exchange response: %w", err)
	}
	return nil
}
