package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmylchreest/iconform/internal/scene/memdoc"
	"github.com/jmylchreest/iconform/pkg/plugin"
)

const testDocument = `{
  "page": {
    "id": "0:1", "type": "PAGE", "name": "Page",
    "children": [
      {"id": "1:1", "type": "FRAME", "name": "Icons", "width": 200, "height": 100,
       "children": [
         {"id": "1:2", "type": "GROUP", "name": "home", "width": 24, "height": 24,
          "children": [
            {"id": "1:3", "type": "VECTOR", "name": "roof", "width": 24, "height": 12},
            {"id": "1:4", "type": "VECTOR", "name": "walls", "y": 12, "width": 24, "height": 12}
          ]},
         {"id": "1:5", "type": "RECTANGLE", "name": "bg", "width": 10, "height": 10}
       ]}
    ]
  },
  "styles": [{"id": "S:1", "name": "Brand/Primary", "paints": [{"type": "SOLID", "color": {"r": 0, "g": 0, "b": 1}}]}],
  "collections": [{"id": "C:1", "name": "Sizes", "modes": [{"id": "M:1", "name": "Default"}], "defaultModeId": "M:1"}],
  "variables": [
    {"id": "V:size", "name": "Icon/Size", "collectionId": "C:1", "type": "FLOAT", "scopes": ["WIDTH_HEIGHT"],
     "valuesByMode": {"M:1": {"type": "FLOAT", "float": 32}}}
  ]
}`

func writeDocument(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "icons.json")
	if err := os.WriteFile(path, []byte(testDocument), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--env-file=" + filepath.Join(t.TempDir(), "none.env")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestRunFlagsMessage(t *testing.T) {
	tests := []struct {
		name    string
		flags   runFlags
		check   func(t *testing.T, msg plugin.StandardiseSelection)
		wantErr bool
	}{
		{
			name:  "defaults",
			flags: runFlags{},
			check: func(t *testing.T, msg plugin.StandardiseSelection) {
				if msg.ColorOptions != nil || msg.ShouldResize || msg.ShouldOutline != nil {
					t.Errorf("unexpected options: %+v", msg)
				}
			},
		},
		{
			name:  "hex and size",
			flags: runFlags{hex: "#ff0000", size: 24, noOutline: true},
			check: func(t *testing.T, msg plugin.StandardiseSelection) {
				if msg.ColorOptions == nil || msg.ColorOptions.Mode != "HEX" || msg.ColorOptions.Value != "#ff0000" {
					t.Errorf("ColorOptions = %+v", msg.ColorOptions)
				}
				if !msg.ShouldResize || msg.TargetSize == nil || *msg.TargetSize != 24 {
					t.Errorf("size = %v %v", msg.ShouldResize, msg.TargetSize)
				}
				if msg.Outline() {
					t.Error("Outline() = true, want false")
				}
			},
		},
		{
			name:  "variable",
			flags: runFlags{variable: "V:red", sizeVariableID: "V:size"},
			check: func(t *testing.T, msg plugin.StandardiseSelection) {
				if msg.ColorOptions.Type != "VARIABLE" || msg.ColorOptions.Mode != "STYLE" {
					t.Errorf("ColorOptions = %+v", msg.ColorOptions)
				}
				if !msg.ShouldResize || msg.TargetSizeVariableID != "V:size" {
					t.Errorf("size variable not requested: %+v", msg)
				}
			},
		},
		{name: "conflict", flags: runFlags{hex: "#000000", style: "S:1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := tt.flags.message()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("message() error = %v", err)
			}
			if msg.Type != plugin.TypeStandardiseSelection {
				t.Errorf("Type = %q", msg.Type)
			}
			tt.check(t, msg)
		})
	}
}

func TestStandardiseCommand(t *testing.T) {
	path := writeDocument(t)
	outPath := filepath.Join(t.TempDir(), "out.json.xz")

	out, err := run(t, "standardise", path, "-s", "Icons/*", "--style", "S:1", "--size-variable", "V:size", "-o", outPath)
	if err != nil {
		t.Fatalf("standardise error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "Standardised 1 icon") {
		t.Errorf("output missing notification:\n%s", out)
	}
	if !strings.Contains(out, "normalised") || !strings.Contains(out, "skipped") {
		t.Errorf("output missing outcome states:\n%s", out)
	}

	doc, err := memdoc.Load(outPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	frame := doc.CurrentPage().Children[0].Children[0]
	if frame.Name != "home" || frame.Width != 32 {
		t.Errorf("frame = %s %vx%v, want home 32x32", frame.Name, frame.Width, frame.Height)
	}
	if frame.BoundVariables["width"] != "V:size" {
		t.Errorf("width not bound: %v", frame.BoundVariables)
	}
	if got := frame.Children[0].FillStyleID; got != "S:1" {
		t.Errorf("FillStyleID = %q", got)
	}

	orig, err := memdoc.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := orig.NodeByID("1:2"); !ok {
		t.Error("input document was modified without --write-back")
	}
}

func TestStandardiseCommandJSONAndErrors(t *testing.T) {
	path := writeDocument(t)

	out, err := run(t, "standardise", path, "-s", "1:5", "--format", "json")
	if err == nil {
		t.Fatal("expected error when nothing is standardised")
	}
	var result plugin.StandardiseResult
	if jerr := json.Unmarshal([]byte(out), &result); jerr != nil {
		t.Fatalf("json output: %v\n%s", jerr, out)
	}
	if result.Count != 0 || len(result.Outcomes) != 1 || result.Outcomes[0].State != "skipped" {
		t.Errorf("result = %+v", result)
	}

	if _, err := run(t, "standardise", path, "--hex", "#fff000", "--style", "S:1"); err == nil {
		t.Error("expected error for conflicting colour flags")
	}
	if _, err := run(t, "standardise", path, "--format", "yaml"); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, err := run(t, "standardise", filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing document")
	}
}

func TestTokensCommand(t *testing.T) {
	path := writeDocument(t)

	out, err := run(t, "tokens", path, "--format", "json")
	if err != nil {
		t.Fatalf("tokens error = %v", err)
	}
	var listing tokenListing
	if err := json.Unmarshal([]byte(out), &listing); err != nil {
		t.Fatalf("json output: %v\n%s", err, out)
	}
	if len(listing.Colours) != 1 || listing.Colours[0].Hex != "#0000FF" {
		t.Errorf("colours = %+v", listing.Colours)
	}
	if len(listing.Dimensions) != 1 || listing.Dimensions[0].Value.String() != "32" {
		t.Errorf("dimensions = %+v", listing.Dimensions)
	}

	out, err = run(t, "tokens", path, "--kind", "colour", "--swatches", "never")
	if err != nil {
		t.Fatalf("tokens error = %v", err)
	}
	if !strings.Contains(out, "Brand") || !strings.Contains(out, "#0000FF") || strings.Contains(out, "Icon") {
		t.Errorf("colour table:\n%s", out)
	}

	if _, err := run(t, "tokens", path, "--kind", "shapes"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestPluginInfoCommand(t *testing.T) {
	out, err := run(t, "plugin", "info")
	if err != nil {
		t.Fatalf("plugin info error = %v", err)
	}
	var info plugin.PluginInfo
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("plugin info output: %v\n%s", err, out)
	}
	if info.PluginProtocol != string(plugin.PluginTypeGoPlugin) || info.ProtocolVersion != plugin.ProtocolVersion {
		t.Errorf("info = %+v", info)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "iconform version ") {
		t.Errorf("version output = %q", out)
	}
}

func TestDocumentPath(t *testing.T) {
	a := &app{}
	if _, err := a.documentPath(nil); err == nil {
		t.Error("expected error without a document")
	}
	a.cfg.Document = "from-env.json"
	if got, _ := a.documentPath(nil); got != "from-env.json" {
		t.Errorf("documentPath() = %q", got)
	}
	if got, _ := a.documentPath([]string{"arg.json"}); got != "arg.json" {
		t.Errorf("documentPath() = %q", got)
	}
}
