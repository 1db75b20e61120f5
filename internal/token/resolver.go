package token

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/hashicorp/go-hclog"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jmylchreest/iconform/internal/colour"
	"github.com/jmylchreest/iconform/internal/scene"
)

var (
	// ErrAliasCycle is returned when an alias chain revisits a variable.
	ErrAliasCycle = errors.New("alias cycle")

	// ErrAliasDepth is returned when an alias chain exceeds the depth limit.
	ErrAliasDepth = errors.New("alias chain too deep")

	// ErrNotNumeric is returned when a dimension resolves to something
	// other than a number.
	ErrNotNumeric = errors.New("value is not numeric")

	// ErrNotColour is returned when a colour variable resolves to
	// something other than a colour.
	ErrNotColour = errors.New("value is not a colour")
)

const (
	DefaultMaxDepth  = 16
	DefaultCacheSize = 256
)

// cacheKey holds the consumer node itself; ids may repeat in documents
// edited elsewhere.
type cacheKey struct {
	variable string
	consumer *scene.Node
}

// Resolver resolves variables and styles against a document. Resolved
// values are cached per (variable, consumer) until Invalidate is called.
type Resolver struct {
	doc      scene.Document
	maxDepth int
	cache    *lru.Cache[cacheKey, scene.Value]
	logger   hclog.Logger
}

// Option configures a Resolver.
type Option func(*resolverConfig)

type resolverConfig struct {
	maxDepth  int
	cacheSize int
	logger    hclog.Logger
}

// WithMaxDepth limits how many aliases are followed.
func WithMaxDepth(n int) Option {
	return func(c *resolverConfig) { c.maxDepth = n }
}

// WithCacheSize sets the number of resolved values kept.
func WithCacheSize(n int) Option {
	return func(c *resolverConfig) { c.cacheSize = n }
}

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) Option {
	return func(c *resolverConfig) { c.logger = l }
}

// New creates a resolver for doc.
func New(doc scene.Document, opts ...Option) (*Resolver, error) {
	cfg := resolverConfig{
		maxDepth:  DefaultMaxDepth,
		cacheSize: DefaultCacheSize,
		logger:    hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxDepth <= 0 {
		return nil, fmt.Errorf("alias depth must be positive, got %d", cfg.maxDepth)
	}

	cache, err := lru.New[cacheKey, scene.Value](cfg.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolver cache: %w", err)
	}

	return &Resolver{
		doc:      doc,
		maxDepth: cfg.maxDepth,
		cache:    cache,
		logger:   cfg.logger,
	}, nil
}

// Invalidate drops all cached values. Call it whenever the document's
// variables or modes may have changed.
func (r *Resolver) Invalidate() {
	r.cache.Purge()
}

// Resolve returns v's concrete value for consumer, following aliases.
func (r *Resolver) Resolve(ctx context.Context, v *scene.Variable, consumer *scene.Node) (scene.Value, error) {
	if v == nil {
		return scene.Value{}, fmt.Errorf("resolve: nil variable: %w", scene.ErrNotFound)
	}
	visited := make(map[string]bool)
	for depth := 0; ; depth++ {
		if depth > r.maxDepth {
			return scene.Value{}, fmt.Errorf("resolve %s: %w", v.ID, ErrAliasDepth)
		}
		if visited[v.ID] {
			return scene.Value{}, fmt.Errorf("resolve %s: %w", v.ID, ErrAliasCycle)
		}
		visited[v.ID] = true

		val, err := r.resolveOne(v, consumer)
		if err != nil {
			return scene.Value{}, err
		}
		if !val.IsAlias() {
			return val, nil
		}

		next, err := r.doc.VariableByID(ctx, val.AliasID)
		if err != nil {
			return scene.Value{}, fmt.Errorf("resolve alias of %s: %w", v.ID, err)
		}
		v = next
	}
}

func (r *Resolver) resolveOne(v *scene.Variable, consumer *scene.Node) (scene.Value, error) {
	key := cacheKey{variable: v.ID, consumer: consumer}
	if val, ok := r.cache.Get(key); ok {
		return val, nil
	}

	val, err := r.doc.ResolveForConsumer(v, consumer)
	if err != nil {
		return scene.Value{}, err
	}
	r.cache.Add(key, val)
	return val, nil
}

// ResolveColour returns v's colour for consumer as "#RRGGBB". The boolean
// is false for any failure: a missing or cyclic alias, or a non-colour
// value.
func (r *Resolver) ResolveColour(ctx context.Context, v *scene.Variable, consumer *scene.Node) (string, bool) {
	if v == nil {
		r.logger.Debug("colour unresolved", "error", "nil variable")
		return "", false
	}
	val, err := r.Resolve(ctx, v, consumer)
	if err == nil && (val.Kind != scene.ValueColor || val.Color == nil) {
		err = fmt.Errorf("resolve %s: %w", v.ID, ErrNotColour)
	}
	if err != nil {
		r.logger.Debug("colour unresolved", "variable", v.Name, "error", err)
		return "", false
	}
	return val.Color.Hex(), true
}

// ResolveNumber returns v's numeric value for consumer, following aliases.
func (r *Resolver) ResolveNumber(ctx context.Context, v *scene.Variable, consumer *scene.Node) (float64, error) {
	val, err := r.Resolve(ctx, v, consumer)
	if err != nil {
		return 0, err
	}
	if val.Kind != scene.ValueFloat || val.Float == nil {
		return 0, fmt.Errorf("resolve %s: %w", v.ID, ErrNotNumeric)
	}
	return *val.Float, nil
}

// ListColourTokens merges local paint styles and COLOR variables, sorted by
// group then name.
func (r *Resolver) ListColourTokens(ctx context.Context, consumer *scene.Node) ([]ColourToken, error) {
	styles, err := r.doc.LocalPaintStyles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list paint styles: %w", err)
	}
	variables, err := r.doc.LocalVariables(ctx, scene.VariableColor)
	if err != nil {
		return nil, fmt.Errorf("failed to list colour variables: %w", err)
	}

	tokens := make([]ColourToken, 0, len(styles)+len(variables))
	for _, s := range styles {
		group, name := SplitName(s.Name, colourFallbackGroup, true)
		tokens = append(tokens, ColourToken{
			ID:    s.ID,
			Name:  name,
			Group: group,
			Kind:  KindStyle,
			Hex:   StyleSwatch(s),
		})
	}
	for _, v := range variables {
		group, name := SplitName(v.Name, colourFallbackGroup, true)
		hex, _ := r.ResolveColour(ctx, v, consumer)
		tokens = append(tokens, ColourToken{
			ID:    v.ID,
			Name:  name,
			Group: group,
			Kind:  KindVariable,
			Hex:   hex,
		})
	}

	slices.SortStableFunc(tokens, func(a, b ColourToken) int {
		return cmp.Or(cmp.Compare(a.Group, b.Group), cmp.Compare(a.Name, b.Name))
	})
	return tokens, nil
}

// StyleSwatch returns the colour of the style's first paint, or
// FallbackSwatch when that paint is missing or not solid.
func StyleSwatch(s *scene.Style) string {
	if len(s.Paints) == 0 || !s.Paints[0].IsSolid() {
		return FallbackSwatch
	}
	return s.Paints[0].Color.Hex()
}

// ListDimensionTokens lists FLOAT variables scoped to width and height.
// Values are resolved for consumer without following aliases.
func (r *Resolver) ListDimensionTokens(ctx context.Context, consumer *scene.Node) ([]DimensionToken, error) {
	variables, err := r.doc.LocalVariables(ctx, scene.VariableFloat)
	if err != nil {
		return nil, fmt.Errorf("failed to list float variables: %w", err)
	}

	var tokens []DimensionToken
	for _, v := range variables {
		if !IsDimension(v) {
			continue
		}

		val, err := r.resolveOne(v, consumer)
		if err != nil {
			r.logger.Warn("skipping dimension variable", "variable", v.Name, "error", err)
			continue
		}

		dim := Dimension{Alias: true}
		if val.Kind == scene.ValueFloat && val.Float != nil {
			dim = Dimension{Number: *val.Float}
		}

		group, name := SplitName(v.Name, dimensionFallbackGroup, false)
		tokens = append(tokens, DimensionToken{ID: v.ID, Name: name, Group: group, Value: dim})
	}

	r.logger.Debug("listed dimension variables", "count", len(tokens))
	return tokens, nil
}

// IsDimension reports whether v is explicitly scoped to width and height.
// An empty scope list does not qualify.
func IsDimension(v *scene.Variable) bool {
	return v.HasScope(scene.ScopeWidthHeight) || v.HasScope(scene.ScopeAllScopes)
}

// SwatchColour parses a token's hex for display, using FallbackSwatch when
// the token is unresolved.
func SwatchColour(t ColourToken) colour.RGB {
	if c, ok := colour.ParseHex(t.Hex); ok {
		return c
	}
	c, _ := colour.ParseHex(FallbackSwatch)
	return c
}
