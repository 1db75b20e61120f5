package memdoc

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/iconform/internal/colour"
	"github.com/jmylchreest/iconform/internal/scene"
)

const fixture = `{
  "page": {
    "id": "0:1", "type": "PAGE", "name": "Page 1",
    "children": [
      {"id": "1:1", "type": "FRAME", "name": "Icons", "x": 0, "y": 0, "width": 200, "height": 100,
       "explicitVariableModes": {"C:sizes": "M:large"},
       "children": [
         {"id": "1:2", "type": "GROUP", "name": "arrow-left", "x": 10, "y": 10, "width": 20, "height": 20,
          "children": [
            {"id": "1:3", "type": "VECTOR", "name": "shaft", "x": 0, "y": 8, "width": 20, "height": 4,
             "strokes": [{"type": "SOLID", "color": {"r": 1, "g": 0, "b": 0}}], "strokeWeight": 2},
            {"id": "1:4", "type": "VECTOR", "name": "head", "x": 0, "y": 0, "width": 10, "height": 20,
             "strokeWeight": "mixed"}
          ]}
       ]},
      {"id": "2:1", "type": "TEXT", "name": "label", "x": 0, "y": 200, "width": 50, "height": 12,
       "strokes": [{"type": "SOLID", "color": {"r": 0, "g": 0, "b": 0}}], "strokeWeight": 1,
       "outlineUnsupported": true}
    ]
  },
  "selection": ["1:2"],
  "styles": [{"id": "S:1", "name": "Brand/Primary", "paints": [{"type": "SOLID", "color": {"r": 0, "g": 0, "b": 1}}]}],
  "collections": [{"id": "C:sizes", "name": "Sizes", "modes": [{"id": "M:small", "name": "Small"}, {"id": "M:large", "name": "Large"}], "defaultModeId": "M:small"}],
  "variables": [
    {"id": "V:size", "name": "Icon/Size", "collectionId": "C:sizes", "type": "FLOAT", "scopes": ["WIDTH_HEIGHT"],
     "valuesByMode": {"M:small": {"type": "FLOAT", "float": 16}, "M:large": {"type": "FLOAT", "float": 32}}},
    {"id": "V:red", "name": "Red", "type": "COLOR",
     "valuesByMode": {"M:only": {"type": "COLOR", "color": {"r": 1, "g": 0, "b": 0}}}}
  ]
}`

func load(t *testing.T) *Document {
	t.Helper()
	d, err := Decode(strings.NewReader(fixture))
	require.NoError(t, err)
	return d
}

func mustNode(t *testing.T, d *Document, id string) *scene.Node {
	t.Helper()
	n, ok := d.NodeByID(id)
	require.True(t, ok, "node %s", id)
	return n
}

func TestDecode(t *testing.T) {
	d := load(t)

	sel := d.Selection()
	require.Len(t, sel, 1)
	assert.Equal(t, "arrow-left", sel[0].Name)
	assert.Equal(t, "Icons", sel[0].Parent().Name)
	assert.True(t, mustNode(t, d, "1:4").StrokeWeight.Mixed)

	_, err := Decode(strings.NewReader(`{"page": {"id": "1", "type": "FRAME"}}`))
	assert.Error(t, err)

	_, err = Decode(strings.NewReader(`{"page": {"id": "1", "type": "PAGE"}, "selection": ["nope"]}`))
	assert.ErrorIs(t, err, scene.ErrNotFound)
}

func TestCreateAndInsert(t *testing.T) {
	d := load(t)
	icons := mustNode(t, d, "1:1")
	group := mustNode(t, d, "1:2")

	frame := d.CreateFrame()
	assert.Equal(t, d.CurrentPage(), frame.Parent())
	assert.NotEqual(t, frame.ID, d.CreateFrame().ID)

	require.NoError(t, d.InsertChild(icons, 0, frame))
	assert.Equal(t, 0, icons.IndexOf(frame))
	assert.Equal(t, 1, icons.IndexOf(group))

	require.NoError(t, d.AppendChild(frame, group))
	assert.Equal(t, frame, group.Parent())

	assert.Error(t, d.InsertChild(group, 0, frame), "cycle")
	assert.ErrorIs(t, d.InsertChild(mustNode(t, d, "1:3"), 0, d.CreateFrame()), scene.ErrUnsupported)
}

func TestRemove(t *testing.T) {
	d := load(t)
	group := mustNode(t, d, "1:2")

	require.NoError(t, d.Remove(mustNode(t, d, "1:3")))
	assert.False(t, group.Removed())

	require.NoError(t, d.Remove(mustNode(t, d, "1:4")))
	assert.True(t, group.Removed(), "emptied group is pruned")
	assert.Empty(t, d.Selection())

	assert.ErrorIs(t, d.Remove(group), scene.ErrRemoved)
	assert.ErrorIs(t, d.Remove(d.CurrentPage()), scene.ErrUnsupported)
}

func TestResizeAppliesConstraints(t *testing.T) {
	d := load(t)
	frame := d.CreateFrame()
	require.NoError(t, d.Resize(frame, 20, 20))

	scaled := &scene.Node{ID: "a", Type: scene.NodeVector, X: 2, Y: 4, Width: 10, Height: 10, Constraints: scene.ScaleConstraints}
	pinned := &scene.Node{ID: "b", Type: scene.NodeVector, X: 15, Y: 15, Width: 5, Height: 5,
		Constraints: scene.Constraints{Horizontal: scene.ConstraintMax, Vertical: scene.ConstraintCenter}}
	frame.Attach(-1, scaled)
	frame.Attach(-1, pinned)

	require.NoError(t, d.Resize(frame, 40, 40))
	assert.Equal(t, scene.Rect{X: 4, Y: 8, Width: 20, Height: 20}, scaled.Bounds())
	assert.Equal(t, scene.Rect{X: 35, Y: 25, Width: 5, Height: 5}, pinned.Bounds())
	assert.Error(t, d.Resize(frame, 0, 10))
}

func TestFlatten(t *testing.T) {
	d := load(t)
	icons := mustNode(t, d, "1:1")
	group := mustNode(t, d, "1:2")
	shaft, head := mustNode(t, d, "1:3"), mustNode(t, d, "1:4")

	flat, err := d.Flatten([]*scene.Node{shaft, head}, icons)
	require.NoError(t, err)

	assert.Equal(t, scene.NodeVector, flat.Type)
	assert.Equal(t, icons, flat.Parent())
	assert.Equal(t, scene.Rect{X: 10, Y: 10, Width: 20, Height: 20}, flat.Bounds())
	assert.True(t, shaft.Removed())
	assert.True(t, head.Removed())
	assert.True(t, group.Removed())
	assert.Equal(t, []*scene.Node{flat}, icons.Children)

	_, err = d.Flatten([]*scene.Node{shaft}, icons)
	assert.ErrorIs(t, err, scene.ErrRemoved)
	_, err = d.Flatten([]*scene.Node{flat}, flat)
	assert.Error(t, err)
}

func TestNewIDsContinueAfterReload(t *testing.T) {
	d := load(t)
	flat, err := d.Flatten([]*scene.Node{mustNode(t, d, "1:3"), mustNode(t, d, "1:4")}, mustNode(t, d, "1:1"))
	require.NoError(t, err)
	frame := d.CreateFrame()
	assert.NotEqual(t, flat.ID, frame.ID)

	var buf bytes.Buffer
	require.NoError(t, d.Encode(&buf))
	reloaded, err := Decode(&buf)
	require.NoError(t, err)

	created := reloaded.CreateFrame()
	assert.Equal(t, "I:3", created.ID)

	seen := map[string]int{reloaded.CurrentPage().ID: 1}
	for _, n := range reloaded.CurrentPage().FindAll(func(*scene.Node) bool { return true }) {
		seen[n.ID]++
	}
	for id, count := range seen {
		assert.Equal(t, 1, count, "node id %s", id)
	}

	other, err := New(&Snapshot{Page: &scene.Node{ID: "0:1", Type: scene.NodePage, Children: []*scene.Node{
		{ID: "I:7", Type: scene.NodeFrame},
		{ID: "I:x", Type: scene.NodeFrame},
		{ID: "12:40", Type: scene.NodeFrame},
	}}})
	require.NoError(t, err)
	assert.Equal(t, "I:8", other.CreateFrame().ID)
}

func TestOutlineStroke(t *testing.T) {
	d := load(t)
	shaft := mustNode(t, d, "1:3")

	out, err := d.OutlineStroke(shaft)
	require.NoError(t, err)
	assert.Equal(t, scene.Rect{X: -1, Y: 7, Width: 22, Height: 6}, out.Bounds())
	assert.Equal(t, shaft.Strokes, out.Fills)
	assert.Empty(t, out.Strokes)
	assert.Equal(t, shaft.Parent().IndexOf(shaft)+1, shaft.Parent().IndexOf(out))
	assert.False(t, shaft.Removed())

	_, err = d.OutlineStroke(mustNode(t, d, "1:4"))
	assert.ErrorIs(t, err, scene.ErrUnsupported, "mixed weight")
	_, err = d.OutlineStroke(mustNode(t, d, "2:1"))
	assert.ErrorIs(t, err, scene.ErrUnsupported, "text")
}

func TestResolveForConsumer(t *testing.T) {
	d := load(t)
	ctx := context.Background()
	size, err := d.VariableByID(ctx, "V:size")
	require.NoError(t, err)

	v, err := d.ResolveForConsumer(size, mustNode(t, d, "1:3"))
	require.NoError(t, err)
	assert.Equal(t, 32.0, *v.Float, "explicit mode inherited from Icons frame")

	v, err = d.ResolveForConsumer(size, d.CurrentPage())
	require.NoError(t, err)
	assert.Equal(t, 16.0, *v.Float, "collection default")

	red, err := d.VariableByID(ctx, "V:red")
	require.NoError(t, err)
	v, err = d.ResolveForConsumer(red, d.CurrentPage())
	require.NoError(t, err)
	assert.Equal(t, "#FF0000", v.Color.Hex())

	_, err = d.VariableByID(ctx, "V:none")
	assert.ErrorIs(t, err, scene.ErrNotFound)
	_, err = d.StyleByID(ctx, "S:none")
	assert.ErrorIs(t, err, scene.ErrNotFound)
}

func TestLocalLookups(t *testing.T) {
	d := load(t)
	ctx := context.Background()

	styles, err := d.LocalPaintStyles(ctx)
	require.NoError(t, err)
	require.Len(t, styles, 1)

	floats, err := d.LocalVariables(ctx, scene.VariableFloat)
	require.NoError(t, err)
	require.Len(t, floats, 1)
	assert.Equal(t, "V:size", floats[0].ID)

	colours, err := d.LocalVariables(ctx, scene.VariableColor)
	require.NoError(t, err)
	require.Len(t, colours, 1)
}

func TestBindings(t *testing.T) {
	d := load(t)
	ctx := context.Background()
	size, _ := d.VariableByID(ctx, "V:size")
	red, _ := d.VariableByID(ctx, "V:red")
	icons := mustNode(t, d, "1:1")

	require.NoError(t, d.SetBoundVariable(icons, scene.FieldWidth, size))
	assert.Equal(t, "V:size", icons.BoundVariables[scene.FieldWidth])
	assert.ErrorIs(t, d.SetBoundVariable(icons, scene.FieldHeight, red), scene.ErrUnsupported)

	p, err := d.BindPaintColor(scene.SolidPaint(colour.Black), red)
	require.NoError(t, err)
	assert.Equal(t, "V:red", p.ColorVariable)

	_, err = d.BindPaintColor(scene.Paint{Type: scene.PaintImage}, red)
	assert.ErrorIs(t, err, scene.ErrUnsupported)
	_, err = d.BindPaintColor(scene.SolidPaint(colour.Black), size)
	assert.ErrorIs(t, err, scene.ErrUnsupported)
}

func TestSelectGlob(t *testing.T) {
	d := load(t)

	n, err := d.SelectGlob("Icons/arrow-*")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "1:2", d.Selection()[0].ID)

	n, err = d.SelectGlob("**/shaft")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = d.SelectGlob("*")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "top level only")

	_, err = d.SelectGlob("[")
	assert.Error(t, err)
}

func TestSelectSpecs(t *testing.T) {
	d := load(t)

	n, err := d.SelectSpecs([]string{"2:1", "Icons/*", "1:2"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	sel := d.Selection()
	assert.Equal(t, "2:1", sel[0].ID)
	assert.Equal(t, "1:2", sel[1].ID)

	_, err = d.SelectSpecs([]string{"9:9"})
	assert.ErrorIs(t, err, scene.ErrNotFound)
	assert.Len(t, d.Selection(), 2, "failed selection leaves the previous one")
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"doc.json", "doc.json.gz", "doc.json.xz"} {
		t.Run(name, func(t *testing.T) {
			d := load(t)
			require.NoError(t, d.Remove(mustNode(t, d, "2:1")))

			path := filepath.Join(dir, name)
			require.NoError(t, d.Save(path))

			got, err := Load(path)
			require.NoError(t, err)
			_, ok := got.NodeByID("2:1")
			assert.False(t, ok)
			assert.Equal(t, "1:2", got.Selection()[0].ID)
			assert.Len(t, got.Snapshot().Collections, 1)
		})
	}

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	_, err := Load(empty)
	assert.Error(t, err)
}

func TestEncodeIsStable(t *testing.T) {
	d := load(t)
	var a, b bytes.Buffer
	require.NoError(t, d.Encode(&a))
	require.NoError(t, d.Encode(&b))
	assert.Equal(t, a.String(), b.String())
}
