package token

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/iconform/internal/colour"
	"github.com/jmylchreest/iconform/internal/scene"
	"github.com/jmylchreest/iconform/internal/scene/memdoc"
)

const mode = "M:1"

func colourVar(id, name string, val scene.Value) *scene.Variable {
	return &scene.Variable{
		ID: id, Name: name, CollectionID: "C:1", Type: scene.VariableColor,
		ValuesByMode: map[string]scene.Value{mode: val},
	}
}

func floatVar(id, name string, val scene.Value, scopes ...scene.VariableScope) *scene.Variable {
	return &scene.Variable{
		ID: id, Name: name, CollectionID: "C:1", Type: scene.VariableFloat, Scopes: scopes,
		ValuesByMode: map[string]scene.Value{mode: val},
	}
}

func newResolver(t *testing.T, styles []*scene.Style, vars ...*scene.Variable) (*Resolver, *memdoc.Document) {
	t.Helper()
	doc, err := memdoc.New(&memdoc.Snapshot{
		Page:        &scene.Node{ID: "0:1", Type: scene.NodePage, Name: "Page"},
		Styles:      styles,
		Collections: []*scene.Collection{{ID: "C:1", Name: "Tokens", Modes: []scene.Mode{{ID: mode, Name: "Default"}}, DefaultModeID: mode}},
		Variables:   vars,
	})
	require.NoError(t, err)
	r, err := New(doc, WithMaxDepth(4))
	require.NoError(t, err)
	return r, doc
}

func TestNewRejectsBadOptions(t *testing.T) {
	doc, err := memdoc.New(&memdoc.Snapshot{Page: &scene.Node{ID: "0:1", Type: scene.NodePage}})
	require.NoError(t, err)

	_, err = New(doc, WithMaxDepth(0))
	assert.Error(t, err)
	_, err = New(doc, WithCacheSize(0))
	assert.Error(t, err)
}

func TestResolveColour(t *testing.T) {
	red := colour.RGB{R: 1}
	r, doc := newResolver(t, nil,
		colourVar("V:red", "Palette/Red", scene.ColorValue(red)),
		colourVar("V:primary", "Brand/Primary", scene.AliasValue("V:red")),
		colourVar("V:accent", "Brand/Accent", scene.AliasValue("V:primary")),
		colourVar("V:self", "Broken/Self", scene.AliasValue("V:self")),
		colourVar("V:ping", "Broken/Ping", scene.AliasValue("V:pong")),
		colourVar("V:pong", "Broken/Pong", scene.AliasValue("V:ping")),
		colourVar("V:dangling", "Broken/Dangling", scene.AliasValue("V:gone")),
		colourVar("V:number", "Broken/Number", scene.FloatValue(3)),
	)
	ctx := context.Background()
	page := doc.CurrentPage()

	tests := []struct {
		id      string
		want    string
		wantOK  bool
		wantErr error
	}{
		{id: "V:red", want: "#FF0000", wantOK: true},
		{id: "V:primary", want: "#FF0000", wantOK: true},
		{id: "V:accent", want: "#FF0000", wantOK: true},
		{id: "V:self", wantErr: ErrAliasCycle},
		{id: "V:ping", wantErr: ErrAliasCycle},
		{id: "V:dangling", wantErr: scene.ErrNotFound},
		{id: "V:number", wantErr: nil},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			v, err := doc.VariableByID(ctx, tt.id)
			require.NoError(t, err)

			got, ok := r.ResolveColour(ctx, v, page)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)

			if tt.wantErr != nil {
				_, err := r.Resolve(ctx, v, page)
				assert.ErrorIs(t, err, tt.wantErr)
			}

			again, againOK := r.ResolveColour(ctx, v, page)
			assert.Equal(t, got, again)
			assert.Equal(t, ok, againOK)
		})
	}
}

func TestResolveDepthLimit(t *testing.T) {
	r, doc := newResolver(t, nil,
		floatVar("V:0", "a", scene.AliasValue("V:1")),
		floatVar("V:1", "b", scene.AliasValue("V:2")),
		floatVar("V:2", "c", scene.AliasValue("V:3")),
		floatVar("V:3", "d", scene.AliasValue("V:4")),
		floatVar("V:4", "e", scene.AliasValue("V:5")),
		floatVar("V:5", "f", scene.FloatValue(24)),
	)
	ctx := context.Background()

	v, err := doc.VariableByID(ctx, "V:0")
	require.NoError(t, err)
	_, err = r.ResolveNumber(ctx, v, doc.CurrentPage())
	assert.ErrorIs(t, err, ErrAliasDepth)

	v, err = doc.VariableByID(ctx, "V:2")
	require.NoError(t, err)
	got, err := r.ResolveNumber(ctx, v, doc.CurrentPage())
	require.NoError(t, err)
	assert.Equal(t, 24.0, got)
}

func TestResolveNumberRejectsColour(t *testing.T) {
	r, doc := newResolver(t, nil, colourVar("V:red", "Red", scene.ColorValue(colour.RGB{R: 1})))
	v, err := doc.VariableByID(context.Background(), "V:red")
	require.NoError(t, err)

	_, err = r.ResolveNumber(context.Background(), v, nil)
	assert.ErrorIs(t, err, ErrNotNumeric)
}

func TestInvalidate(t *testing.T) {
	r, doc := newResolver(t, nil, floatVar("V:size", "Size", scene.FloatValue(16), scene.ScopeAllScopes))
	ctx := context.Background()
	v, err := doc.VariableByID(ctx, "V:size")
	require.NoError(t, err)

	got, err := r.ResolveNumber(ctx, v, nil)
	require.NoError(t, err)
	assert.Equal(t, 16.0, got)

	v.ValuesByMode[mode] = scene.FloatValue(24)
	got, err = r.ResolveNumber(ctx, v, nil)
	require.NoError(t, err)
	assert.Equal(t, 16.0, got, "cached")

	r.Invalidate()
	got, err = r.ResolveNumber(ctx, v, nil)
	require.NoError(t, err)
	assert.Equal(t, 24.0, got)
}

func TestResolveCachesPerNode(t *testing.T) {
	large := &scene.Node{ID: "I:1", Type: scene.NodeFrame, ExplicitModes: map[string]string{"C:1": "M:2"}}
	small := &scene.Node{ID: "I:1", Type: scene.NodeFrame}
	size := &scene.Variable{
		ID: "V:size", Name: "Size", CollectionID: "C:1", Type: scene.VariableFloat,
		ValuesByMode: map[string]scene.Value{mode: scene.FloatValue(32), "M:2": scene.FloatValue(48)},
	}
	doc, err := memdoc.New(&memdoc.Snapshot{
		Page: &scene.Node{ID: "0:1", Type: scene.NodePage, Children: []*scene.Node{large, small}},
		Collections: []*scene.Collection{{ID: "C:1", Modes: []scene.Mode{{ID: mode}, {ID: "M:2"}}, DefaultModeID: mode}},
		Variables:   []*scene.Variable{size},
	})
	require.NoError(t, err)
	r, err := New(doc)
	require.NoError(t, err)
	ctx := context.Background()

	got, err := r.ResolveNumber(ctx, size, large)
	require.NoError(t, err)
	assert.Equal(t, 48.0, got)

	got, err = r.ResolveNumber(ctx, size, small)
	require.NoError(t, err)
	assert.Equal(t, 32.0, got, "same id, different node")
}

func TestResolveNilVariable(t *testing.T) {
	r, _ := newResolver(t, nil)
	ctx := context.Background()

	hex, ok := r.ResolveColour(ctx, nil, nil)
	assert.False(t, ok)
	assert.Empty(t, hex)

	_, err := r.ResolveNumber(ctx, nil, nil)
	assert.ErrorIs(t, err, scene.ErrNotFound)
}

func TestListColourTokensSorted(t *testing.T) {
	styles := []*scene.Style{
		{ID: "S:1", Name: "B/a", Paints: []scene.Paint{scene.SolidPaint(colour.RGB{B: 1})}},
		{ID: "S:2", Name: "A/z", Paints: []scene.Paint{{Type: scene.PaintGradientLinear}}},
		{ID: "S:3", Name: "loose"},
	}
	r, doc := newResolver(t, styles,
		colourVar("V:1", " A / a ", scene.ColorValue(colour.RGB{G: 1})),
		colourVar("V:2", "Broken/Self", scene.AliasValue("V:2")),
	)

	tokens, err := r.ListColourTokens(context.Background(), doc.CurrentPage())
	require.NoError(t, err)

	var order []string
	for _, tok := range tokens {
		order = append(order, tok.Group+"/"+tok.Name)
	}
	assert.Equal(t, []string{"A/a", "A/z", "B/a", "Broken/Self", "Other/loose"}, order)

	assert.Equal(t, ColourToken{ID: "V:1", Name: "a", Group: "A", Kind: KindVariable, Hex: "#00FF00"}, tokens[0])
	assert.Equal(t, FallbackSwatch, tokens[1].Hex, "gradient style")
	assert.Equal(t, "#0000FF", tokens[2].Hex)
	assert.Empty(t, tokens[3].Hex, "cyclic variable")
	assert.Equal(t, FallbackSwatch, tokens[4].Hex, "style without paints")
}

func TestListDimensionTokens(t *testing.T) {
	r, doc := newResolver(t, nil,
		floatVar("V:wh", "Sizes/Icon/Small", scene.FloatValue(16), scene.ScopeWidthHeight),
		floatVar("V:all", "Large", scene.FloatValue(32), scene.ScopeAllScopes),
		floatVar("V:alias", "Sizes/Default", scene.AliasValue("V:wh"), scene.ScopeWidthHeight),
		floatVar("V:none", "Unscoped", scene.FloatValue(8)),
		floatVar("V:gap", "Spacing/Gap", scene.FloatValue(4), "GAP"),
	)

	tokens, err := r.ListDimensionTokens(context.Background(), doc.CurrentPage())
	require.NoError(t, err)
	assert.Equal(t, []DimensionToken{
		{ID: "V:wh", Group: "Sizes", Name: "Icon/Small", Value: Dimension{Number: 16}},
		{ID: "V:all", Group: "General", Name: "Large", Value: Dimension{Number: 32}},
		{ID: "V:alias", Group: "Sizes", Name: "Default", Value: Dimension{Alias: true}},
	}, tokens)
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		name      string
		fallback  string
		trim      bool
		wantGroup string
		wantLeaf  string
	}{
		{name: "Brand/Primary", fallback: "Other", trim: true, wantGroup: "Brand", wantLeaf: "Primary"},
		{name: "Brand / Primary / Dark", fallback: "Other", trim: true, wantGroup: "Brand", wantLeaf: "Primary / Dark"},
		{name: " Solo ", fallback: "Other", trim: true, wantGroup: "Other", wantLeaf: " Solo "},
		{name: "Sizes /Icon", fallback: "General", trim: false, wantGroup: "Sizes ", wantLeaf: "Icon"},
		{name: "", fallback: "General", wantGroup: "General", wantLeaf: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			group, leaf := SplitName(tt.name, tt.fallback, tt.trim)
			assert.Equal(t, tt.wantGroup, group)
			assert.Equal(t, tt.wantLeaf, leaf)
		})
	}
}

func TestDimensionJSON(t *testing.T) {
	b, err := json.Marshal([]Dimension{{Number: 24}, {Alias: true}})
	require.NoError(t, err)
	assert.JSONEq(t, `[24, "Alias"]`, string(b))

	var got []Dimension
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, []Dimension{{Number: 24}, {Alias: true}}, got)

	assert.Error(t, json.Unmarshal([]byte(`"big"`), &got[0]))
	assert.Equal(t, "Alias", Dimension{Alias: true}.String())
	assert.Equal(t, "1.5", Dimension{Number: 1.5}.String())
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" variable")
	require.NoError(t, err)
	assert.Equal(t, KindVariable, k)

	_, err = ParseKind("GRADIENT")
	assert.Error(t, err)
}
