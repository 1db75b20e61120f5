// Package executor drives an out-of-process iconform backend, speaking
// either go-plugin RPC or a single JSON exchange over stdio depending on
// what the backend reports from `plugin info`.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	goplugin "github.com/hashicorp/go-plugin"

	"github.com/jmylchreest/iconform/pkg/plugin"
)

// DefaultInfoTimeout bounds the `plugin info` probe.
const DefaultInfoTimeout = 5 * time.Second

// Executor is a plugin.Backend backed by an external process.
type Executor struct {
	path        string
	info        plugin.PluginInfo
	runner      ProcessRunner
	logger      hclog.Logger
	infoTimeout time.Duration

	mu      sync.Mutex
	client  *goplugin.Client
	backend plugin.Backend
}

var _ plugin.Backend = (*Executor)(nil)

// Option configures an Executor.
type Option func(*Executor)

// WithRunner replaces the process runner.
func WithRunner(r ProcessRunner) Option {
	return func(e *Executor) { e.runner = r }
}

// WithLogger sets the logger; go-plugin client output is routed through it.
func WithLogger(l hclog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// WithInfoTimeout bounds the metadata probe.
func WithInfoTimeout(d time.Duration) Option {
	return func(e *Executor) { e.infoTimeout = d }
}

// New probes the backend at path and returns an executor for it. The
// backend must report a compatible protocol version.
func New(ctx context.Context, path string, opts ...Option) (*Executor, error) {
	e := &Executor{
		path:        path,
		runner:      ExecRunner{},
		logger:      hclog.NewNullLogger(),
		infoTimeout: DefaultInfoTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}

	info, err := e.detect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to detect backend protocol: %w", err)
	}
	e.info = info
	e.logger.Debug("backend detected", "path", path, "name", info.Name,
		"version", info.Version, "protocol", info.PluginProtocol)
	return e, nil
}

func (e *Executor) detect(ctx context.Context) (plugin.PluginInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, e.infoTimeout)
	defer cancel()

	stdout, stderr, err := e.runner.Run(ctx, e.path, []string{"plugin", "info"}, nil)
	if err != nil {
		return plugin.PluginInfo{}, processError("plugin info", err, stderr)
	}

	var info plugin.PluginInfo
	if err := json.Unmarshal(bytes.TrimSpace(stdout), &info); err != nil {
		return plugin.PluginInfo{}, fmt.Errorf("invalid plugin info output: %w", err)
	}
	if err := plugin.CheckCompatible(info.ProtocolVersion); err != nil {
		return plugin.PluginInfo{}, err
	}

	switch plugin.PluginType(info.PluginProtocol) {
	case plugin.PluginTypeGoPlugin, plugin.PluginTypeJSON:
	case "":
		info.PluginProtocol = string(plugin.PluginTypeJSON)
	default:
		return plugin.PluginInfo{}, fmt.Errorf("unsupported plugin protocol %q", info.PluginProtocol)
	}
	return info, nil
}

// Path returns the backend executable path.
func (e *Executor) Path() string { return e.path }

// GetMetadata returns what the backend reported when probed.
func (e *Executor) GetMetadata() plugin.PluginInfo { return e.info }

// Exchange forwards req to the backend.
func (e *Executor) Exchange(ctx context.Context, req plugin.ExchangeRequest) (plugin.ExchangeResponse, error) {
	switch plugin.PluginType(e.info.PluginProtocol) {
	case plugin.PluginTypeGoPlugin:
		b, err := e.rpcBackend()
		if err != nil {
			return plugin.ExchangeResponse{}, err
		}
		return b.Exchange(ctx, req)
	default:
		return e.exchangeJSON(ctx, req)
	}
}

// Close stops a running go-plugin backend. It is safe to call repeatedly.
func (e *Executor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client != nil {
		e.client.Kill()
		e.client = nil
		e.backend = nil
	}
}

func (e *Executor) rpcBackend() (plugin.Backend, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.backend != nil {
		return e.backend, nil
	}

	client := goplugin.NewClient(&goplugin.ClientConfig{
		HandshakeConfig:  plugin.Handshake,
		Plugins:          plugin.PluginMap(nil),
		Cmd:              exec.Command(e.path, "plugin", "serve"),
		AllowedProtocols: []goplugin.Protocol{goplugin.ProtocolNetRPC},
		Logger:           e.logger.Named("go-plugin"),
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to get RPC client: %w", err)
	}
	raw, err := rpcClient.Dispense(plugin.BackendPluginName)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to dispense backend: %w", err)
	}
	backend, ok := raw.(plugin.Backend)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("dispensed %T does not implement the backend interface", raw)
	}

	e.client = client
	e.backend = backend
	return backend, nil
}

func (e *Executor) exchangeJSON(ctx context.Context, req plugin.ExchangeRequest) (plugin.ExchangeResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return plugin.ExchangeResponse{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	stdout, stderr, err := e.runner.Run(ctx, e.path, []string{"plugin", "exchange"}, bytes.NewReader(body))
	if err != nil {
		return plugin.ExchangeResponse{}, processError("plugin exchange", err, stderr)
	}
	if len(stderr) > 0 {
		e.logger.Debug("backend stderr", "output", strings.TrimSpace(string(stderr)))
	}

	var resp plugin.ExchangeResponse
	if err := json.Unmarshal(stdout, &resp); err != nil {
		return plugin.ExchangeResponse{}, fmt.Errorf("failed to parse backend output: %w", err)
	}
	return resp, nil
}

func processError(op string, err error, stderr []byte) error {
	msg := strings.TrimSpace(string(stderr))
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && msg == "" {
		msg = fmt.Sprintf("exit code %d", exitErr.ExitCode())
	}
	if msg == "" {
		return fmt.Errorf("%s failed: %w", op, err)
	}
	return fmt.Errorf("%s failed: %w: %s", op, err, msg)
}
