package executor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/jmylchreest/iconform/pkg/plugin"
)

// fakeRunner answers `plugin info` and `plugin exchange` without a process.
type fakeRunner struct {
	info      string
	infoErr   error
	exchange  func(req plugin.ExchangeRequest) (string, error)
	stderr    string
	calls     [][]string
	lastStdin []byte
}

func (f *fakeRunner) Run(ctx context.Context, path string, args []string, stdin io.Reader) ([]byte, []byte, error) {
	f.calls = append(f.calls, args)
	switch strings.Join(args, " ") {
	case "plugin info":
		return []byte(f.info), []byte(f.stderr), f.infoErr
	case "plugin exchange":
		body, err := io.ReadAll(stdin)
		if err != nil {
			return nil, nil, err
		}
		f.lastStdin = body
		var req plugin.ExchangeRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, nil, err
		}
		out, err := f.exchange(req)
		return []byte(out), []byte(f.stderr), err
	}
	return nil, nil, errors.New("unexpected args")
}

func infoJSON(protocol, version string) string {
	b, _ := json.Marshal(plugin.PluginInfo{
		Name:            "test-backend",
		Version:         "1.2.3",
		ProtocolVersion: version,
		PluginProtocol:  protocol,
	})
	return string(b)
}

func TestNewDetectsProtocol(t *testing.T) {
	tests := []struct {
		name    string
		info    string
		want    string
		wantErr string
	}{
		{name: "json", info: infoJSON("json-stdio", plugin.ProtocolVersion), want: "json-stdio"},
		{name: "go-plugin", info: infoJSON("go-plugin", plugin.ProtocolVersion), want: "go-plugin"},
		{name: "default json", info: infoJSON("", plugin.ProtocolVersion), want: "json-stdio"},
		{name: "unknown protocol", info: infoJSON("carrier-pigeon", plugin.ProtocolVersion), wantErr: "unsupported plugin protocol"},
		{name: "incompatible", info: infoJSON("json-stdio", "9.0.0"), wantErr: "incompatible major version"},
		{name: "garbage", info: "not json", wantErr: "invalid plugin info output"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{info: tt.info}
			e, err := New(context.Background(), "/bin/backend", WithRunner(runner))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("New() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			defer e.Close()

			if got := e.GetMetadata().PluginProtocol; got != tt.want {
				t.Errorf("PluginProtocol = %q, want %q", got, tt.want)
			}
			if e.Path() != "/bin/backend" {
				t.Errorf("Path() = %q", e.Path())
			}
		})
	}
}

func TestNewProbeFailure(t *testing.T) {
	runner := &fakeRunner{infoErr: errors.New("boom"), stderr: "no such command"}
	_, err := New(context.Background(), "/bin/backend", WithRunner(runner))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "no such command") {
		t.Errorf("error %q should carry stderr", err)
	}
}

func TestExchangeJSON(t *testing.T) {
	runner := &fakeRunner{
		info: infoJSON("json-stdio", plugin.ProtocolVersion),
		exchange: func(req plugin.ExchangeRequest) (string, error) {
			resp := plugin.ExchangeResponse{
				Document: req.Document,
				Messages: []json.RawMessage{json.RawMessage(`{"type":"selection-updated","count":1}`)},
			}
			b, err := json.Marshal(resp)
			return string(b), err
		},
	}
	e, err := New(context.Background(), "/bin/backend", WithRunner(runner))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer e.Close()

	req := plugin.ExchangeRequest{
		Document:  []byte(`{"pages":[]}`),
		Selection: []string{"icons/*"},
		Messages:  []json.RawMessage{json.RawMessage(`{"type":"refresh-assets"}`)},
	}
	resp, err := e.Exchange(context.Background(), req)
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}

	if string(resp.Document) != `{"pages":[]}` {
		t.Errorf("Document = %s", resp.Document)
	}
	if len(resp.Messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(resp.Messages))
	}
	if typ, _ := plugin.PeekType(resp.Messages[0]); typ != plugin.TypeSelectionUpdated {
		t.Errorf("message type = %q", typ)
	}
	if !strings.Contains(string(runner.lastStdin), `"icons/*"`) {
		t.Errorf("stdin did not carry selection: %s", runner.lastStdin)
	}
	if len(runner.calls) != 2 {
		t.Errorf("runner called %d times, want 2", len(runner.calls))
	}
}

func TestExchangeJSONErrors(t *testing.T) {
	t.Run("process failure", func(t *testing.T) {
		runner := &fakeRunner{
			info:     infoJSON("json-stdio", plugin.ProtocolVersion),
			stderr:   "document is corrupt",
			exchange: func(plugin.ExchangeRequest) (string, error) { return "", errors.New("exit status 1") },
		}
		e, err := New(context.Background(), "/bin/backend", WithRunner(runner))
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		_, err = e.Exchange(context.Background(), plugin.ExchangeRequest{})
		if err == nil || !strings.Contains(err.Error(), "document is corrupt") {
			t.Errorf("Exchange() error = %v", err)
		}
	})

	t.Run("bad output", func(t *testing.T) {
		runner := &fakeRunner{
			info:     infoJSON("json-stdio", plugin.ProtocolVersion),
			exchange: func(plugin.ExchangeRequest) (string, error) { return "{", nil },
		}
		e, err := New(context.Background(), "/bin/backend", WithRunner(runner))
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		_, err = e.Exchange(context.Background(), plugin.ExchangeRequest{})
		if err == nil || !strings.Contains(err.Error(), "failed to parse backend output") {
			t.Errorf("Exchange() error = %v", err)
		}
	})
}

func TestExchangeGoPluginMissingBinary(t *testing.T) {
	runner := &fakeRunner{info: infoJSON("go-plugin", plugin.ProtocolVersion)}
	e, err := New(context.Background(), "/nonexistent/iconform-backend", WithRunner(runner))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer e.Close()

	if _, err := e.Exchange(context.Background(), plugin.ExchangeRequest{}); err == nil {
		t.Error("expected error starting a missing go-plugin backend")
	}
	e.Close()
}

func TestExecRunner(t *testing.T) {
	if _, _, err := (ExecRunner{}).Run(context.Background(), "/nonexistent/binary", nil, nil); err == nil {
		t.Error("expected error running a missing binary")
	}
}
