// Package session connects a document to the panel: it pushes selection
// counts and token lists, and runs standardise commands one at a time.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/iconform/internal/normalise"
	"github.com/jmylchreest/iconform/internal/scene"
	"github.com/jmylchreest/iconform/internal/token"
	"github.com/jmylchreest/iconform/pkg/plugin"
)

// Notification texts shown to the user.
const (
	MsgEmptySelection = "Select some icons to get started"
	MsgNothingFound   = "No icons found in selection."

	// SuccessTimeout is how long the success toast stays up, in ms.
	SuccessTimeout = 2000
)

// Sender delivers one outbound message to the panel.
type Sender interface {
	Send(msg any) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(msg any) error

// Send calls f.
func (f SenderFunc) Send(msg any) error { return f(msg) }

// Controller owns the document for the lifetime of a panel session. All
// methods are serialised; a command's result is sent before the next
// event is handled.
type Controller struct {
	mu sync.Mutex

	doc        scene.Document
	resolver   *token.Resolver
	normaliser *normalise.Normaliser
	out        Sender
	logger     hclog.Logger

	resolverOpts   []token.Option
	defaultOutline bool
	count          int
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithResolverOptions passes options to every token resolver the
// controller creates.
func WithResolverOptions(opts ...token.Option) Option {
	return func(c *Controller) { c.resolverOpts = append(c.resolverOpts, opts...) }
}

// WithDefaultOutline sets the outline behaviour for commands that omit
// shouldOutline.
func WithDefaultOutline(outline bool) Option {
	return func(c *Controller) { c.defaultOutline = outline }
}

// New creates a controller for doc sending to out.
func New(doc scene.Document, out Sender, opts ...Option) (*Controller, error) {
	c := &Controller{
		out:            out,
		logger:         hclog.NewNullLogger(),
		defaultOutline: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("session")

	if err := c.setDocument(doc); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Controller) setDocument(doc scene.Document) error {
	opts := append([]token.Option{token.WithLogger(c.logger.Named("token"))}, c.resolverOpts...)
	resolver, err := token.New(doc, opts...)
	if err != nil {
		return err
	}
	c.doc = doc
	c.resolver = resolver
	c.normaliser = normalise.New(doc, resolver, c.logger)
	return nil
}

// Document returns the current document.
func (c *Controller) Document() scene.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc
}

// SelectionCount returns the last selection count sent to the panel.
func (c *Controller) SelectionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Start pushes the selection count and both token lists.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.sendSelectionCount(); err != nil {
		return err
	}
	return c.sendAssets(ctx)
}

// SelectionChanged re-sends the selection count.
func (c *Controller) SelectionChanged(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendSelectionCount()
}

// ReplaceDocument swaps in a reloaded document and re-sends the selection
// count and token lists.
func (c *Controller) ReplaceDocument(ctx context.Context, doc scene.Document) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.setDocument(doc); err != nil {
		return fmt.Errorf("failed to replace document: %w", err)
	}
	c.logger.Info("document replaced")
	if err := c.sendSelectionCount(); err != nil {
		return err
	}
	return c.sendAssets(ctx)
}

// Handle dispatches one raw panel message.
func (c *Controller) Handle(ctx context.Context, raw []byte) error {
	typ, err := plugin.PeekType(raw)
	if err != nil {
		return err
	}

	switch typ {
	case plugin.TypeStandardiseSelection:
		var msg plugin.StandardiseSelection
		if err := json.Unmarshal(raw, &msg); err != nil {
			return fmt.Errorf("failed to parse %s: %w", typ, err)
		}
		_, err := c.Standardise(ctx, msg)
		return err

	case plugin.TypeRefreshAssets:
		return c.RefreshAssets(ctx)

	default:
		c.logger.Warn("ignoring unknown message", "type", typ)
		return fmt.Errorf("unknown message type: %q", typ)
	}
}

// RefreshAssets re-sends both token lists.
func (c *Controller) RefreshAssets(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendAssets(ctx)
}

// ColourTokens lists colour tokens resolved for the current context.
func (c *Controller) ColourTokens(ctx context.Context) ([]token.ColourToken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolver.Invalidate()
	return c.resolver.ListColourTokens(ctx, scene.ResolutionContext(c.doc))
}

// DimensionTokens lists dimension tokens resolved for the current context.
func (c *Controller) DimensionTokens(ctx context.Context) ([]token.DimensionToken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolver.Invalidate()
	return c.resolver.ListDimensionTokens(ctx, scene.ResolutionContext(c.doc))
}

// Standardise runs the pipeline over the current selection and reports
// the result. An empty selection only produces a notification.
func (c *Controller) Standardise(ctx context.Context, msg plugin.StandardiseSelection) (normalise.Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	selection := c.doc.Selection()
	if len(selection) == 0 {
		c.logger.Debug("standardise with empty selection")
		return normalise.Report{}, c.notify(MsgEmptySelection, true, 0)
	}

	opts, err := c.options(msg)
	if err != nil {
		c.logger.Warn("rejected standardise options", "error", err)
		return normalise.Report{}, c.notify(fmt.Sprintf("Invalid options: %v", err), true, 0)
	}

	c.resolver.Invalidate()
	report := c.normaliser.Run(ctx, selection, opts)
	c.resolver.Invalidate()

	if err := c.out.Send(resultMessage(report)); err != nil {
		return report, fmt.Errorf("failed to send result: %w", err)
	}

	n := report.Normalised()
	if n == 0 {
		return report, c.notify(MsgNothingFound, true, 0)
	}
	if err := c.notify(SuccessMessage(n), false, SuccessTimeout); err != nil {
		return report, err
	}
	return report, c.sendSelectionCount()
}

// SuccessMessage is the notification text for n normalised icons.
func SuccessMessage(n int) string {
	if n == 1 {
		return "Standardised 1 icon"
	}
	return fmt.Sprintf("Standardised %d icons", n)
}

func (c *Controller) options(msg plugin.StandardiseSelection) (normalise.Options, error) {
	opts := normalise.Options{
		Colour:  normalise.ColourOptions{Mode: normalise.ColourOriginal},
		Outline: c.defaultOutline,
		Size: normalise.SizeOptions{
			Resize:     msg.ShouldResize,
			VariableID: msg.TargetSizeVariableID,
		},
	}
	if msg.ShouldOutline != nil {
		opts.Outline = *msg.ShouldOutline
	}
	if msg.TargetSize != nil {
		opts.Size.Target = *msg.TargetSize
	}

	if co := msg.ColorOptions; co != nil {
		mode, err := normalise.ParseColourMode(co.Mode)
		if err != nil {
			return opts, err
		}
		opts.Colour = normalise.ColourOptions{Mode: mode, Value: co.Value}
		if co.Type != "" {
			kind, err := token.ParseKind(co.Type)
			if err != nil {
				return opts, err
			}
			opts.Colour.Kind = kind
		}
	}
	return opts, opts.Validate()
}

func (c *Controller) sendSelectionCount() error {
	c.count = len(c.doc.Selection())
	if err := c.out.Send(plugin.SelectionUpdated{Type: plugin.TypeSelectionUpdated, Count: c.count}); err != nil {
		return fmt.Errorf("failed to send selection count: %w", err)
	}
	return nil
}

// sendAssets sends dimension variables then colour assets. A failure to
// list one kind is logged and does not stop the other.
func (c *Controller) sendAssets(ctx context.Context) error {
	c.resolver.Invalidate()
	consumer := scene.ResolutionContext(c.doc)

	dims, err := c.resolver.ListDimensionTokens(ctx, consumer)
	if err != nil {
		c.logger.Error("failed to list dimension variables", "error", err)
	} else if err := c.out.Send(dimensionMessage(dims)); err != nil {
		return fmt.Errorf("failed to send dimension variables: %w", err)
	}

	colours, err := c.resolver.ListColourTokens(ctx, consumer)
	if err != nil {
		c.logger.Error("failed to list colour assets", "error", err)
		return nil
	}
	if err := c.out.Send(colourMessage(colours)); err != nil {
		return fmt.Errorf("failed to send colour assets: %w", err)
	}
	return nil
}

func (c *Controller) notify(message string, isError bool, timeout int) error {
	if err := c.out.Send(plugin.Notify{Type: plugin.TypeNotify, Message: message, Error: isError, Timeout: timeout}); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}
