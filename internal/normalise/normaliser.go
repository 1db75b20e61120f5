package normalise

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/iconform/internal/scene"
	"github.com/jmylchreest/iconform/internal/token"
)

// FlattenedName is the name given to the single vector left in each
// normalised container.
const FlattenedName = "Vector"

// minFrameSize is the smallest dimension a host accepts for a frame.
const minFrameSize = 0.01

// item is one container queued for processing.
type item struct {
	container     *scene.Node
	originalGroup *scene.Node
	outcome       Outcome
}

// Normaliser runs the pipeline against a document.
type Normaliser struct {
	doc      scene.Document
	resolver *token.Resolver
	logger   hclog.Logger
}

// New creates a normaliser. A nil logger discards output.
func New(doc scene.Document, resolver *token.Resolver, logger hclog.Logger) *Normaliser {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Normaliser{
		doc:      doc,
		resolver: resolver,
		logger:   logger.Named("normalise"),
	}
}

// Run normalises every item derived from selection. Failures are confined
// to the item they occur in and reported in its outcome; Run itself never
// fails.
func (n *Normaliser) Run(ctx context.Context, selection []*scene.Node, opts Options) Report {
	var report Report

	var items []*item
	for _, node := range selection {
		queued, skipped := n.classify(node)
		items = append(items, queued...)
		if skipped != nil {
			report.Outcomes = append(report.Outcomes, *skipped)
		}
	}

	for _, it := range items {
		n.process(ctx, it, opts)
		report.Outcomes = append(report.Outcomes, it.outcome)
	}

	n.logger.Info("run complete",
		"selected", len(selection),
		"normalised", report.Normalised(),
		"skipped", report.Count(StateSkipped),
		"failed", report.Count(StateFailed))
	return report
}

// classify turns one selected node into processing items. Groups are
// wrapped in a frame, component sets expand to one item per variant and
// other types are skipped.
func (n *Normaliser) classify(node *scene.Node) (items []*item, skipped *Outcome) {
	out := Outcome{ID: node.ID, Name: node.Name}
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("classify panicked", "node", node.ID, "panic", r, "stack", string(debug.Stack()))
			items = nil
			out.State = StateFailed
			out.Reason = fmt.Sprintf("internal error: %v", r)
			skipped = &out
		}
	}()

	if node.Removed() {
		out.State = StateSkipped
		out.record(StepClassify, StatusSkipped, "node was removed")
		return nil, &out
	}

	switch node.Type {
	case scene.NodeGroup:
		if len(discover(node)) == 0 {
			out.State = StateSkipped
			out.record(StepClassify, StatusSkipped, "group has no vector content")
			return nil, &out
		}
		frame, err := n.wrapGroup(node)
		if err != nil {
			n.logger.Error("failed to wrap group", "node", node.ID, "error", err)
			out.State = StateFailed
			out.Reason = err.Error()
			out.record(StepClassify, StatusDegraded, "%v", err)
			return nil, &out
		}
		it := &item{container: frame, originalGroup: node}
		it.outcome = Outcome{ID: frame.ID, Name: frame.Name}
		it.outcome.record(StepClassify, StatusApplied, "wrapped group %s in frame", node.ID)
		return []*item{it}, nil

	case scene.NodeFrame, scene.NodeComponent:
		it := &item{container: node, outcome: out}
		it.outcome.record(StepClassify, StatusApplied, "%s", node.Type)
		return []*item{it}, nil

	case scene.NodeComponentSet:
		for _, c := range node.Children {
			if c.Type != scene.NodeComponent {
				continue
			}
			it := &item{container: c, outcome: Outcome{ID: c.ID, Name: c.Name}}
			it.outcome.record(StepClassify, StatusApplied, "variant of %s", node.Name)
			items = append(items, it)
		}
		if len(items) == 0 {
			out.State = StateSkipped
			out.record(StepClassify, StatusSkipped, "component set has no variants")
			return nil, &out
		}
		return items, nil

	default:
		out.State = StateSkipped
		out.record(StepClassify, StatusSkipped, "unsupported type %s", node.Type)
		return nil, &out
	}
}

// wrapGroup places group inside a new transparent frame occupying the
// group's slot in its parent.
func (n *Normaliser) wrapGroup(group *scene.Node) (*scene.Node, error) {
	frame := n.doc.CreateFrame()
	frame.Name = group.Name
	frame.X, frame.Y = group.X, group.Y
	frame.Fills = nil
	if err := n.doc.Resize(frame, max(group.Width, minFrameSize), max(group.Height, minFrameSize)); err != nil {
		_ = n.doc.Remove(frame)
		return nil, fmt.Errorf("failed to size frame: %w", err)
	}

	if parent := group.Parent(); parent != nil {
		if err := n.doc.InsertChild(parent, parent.IndexOf(group), frame); err != nil {
			_ = n.doc.Remove(frame)
			return nil, fmt.Errorf("failed to insert frame: %w", err)
		}
	}
	if err := n.doc.AppendChild(frame, group); err != nil {
		_ = n.doc.Remove(frame)
		return nil, fmt.Errorf("failed to move group into frame: %w", err)
	}
	group.X, group.Y = 0, 0

	n.logger.Debug("wrapped group", "group", group.ID, "frame", frame.ID)
	return frame, nil
}

// process runs the per-item pipeline, converting a panic into a failed
// outcome for this item only.
func (n *Normaliser) process(ctx context.Context, it *item, opts Options) {
	log := n.logger.With("container", it.container.ID, "name", it.container.Name)
	defer func() {
		if r := recover(); r != nil {
			log.Error("item panicked", "panic", r, "stack", string(debug.Stack()))
			it.outcome.State = StateFailed
			it.outcome.Reason = fmt.Sprintf("internal error: %v", r)
		}
	}()

	c := it.container
	if c.Removed() {
		it.outcome.State = StateSkipped
		it.outcome.record(StepDiscover, StatusSkipped, "container was removed")
		return
	}
	if c.Type != scene.NodeFrame && c.Type != scene.NodeComponent {
		it.outcome.State = StateFailed
		it.outcome.Reason = fmt.Sprintf("unexpected container type %s", c.Type)
		log.Error("unexpected container type", "type", c.Type)
		return
	}

	nodes := discover(c)
	if len(nodes) == 0 {
		it.outcome.State = StateSkipped
		it.outcome.record(StepDiscover, StatusSkipped, "no vector content")
		log.Debug("nothing to flatten")
		return
	}
	it.outcome.record(StepDiscover, StatusApplied, "%d node(s)", len(nodes))

	nodes = n.outline(it, nodes, opts.Outline, log)

	box := unionWithin(nodes, c)
	flat, err := n.doc.Flatten(nodes, c)
	if err != nil {
		it.outcome.State = StateFailed
		it.outcome.Reason = fmt.Sprintf("failed to flatten: %v", err)
		it.outcome.record(StepFlatten, StatusDegraded, "%v", err)
		log.Error("failed to flatten", "error", err)
		return
	}
	flat.Name = FlattenedName
	it.outcome.record(StepFlatten, StatusApplied, "%d node(s) into %s", len(nodes), flat.ID)

	flat.X, flat.Y = box.X, box.Y
	it.outcome.record(StepReposition, StatusApplied, "origin %v,%v", box.X, box.Y)

	flat.Constraints = scene.ScaleConstraints
	it.outcome.record(StepConstrain, StatusApplied, "scale")

	n.resize(ctx, it, opts.Size, log)
	n.recolour(ctx, it, flat, opts.Colour, log)
	n.cleanup(it, flat, log)

	it.outcome.State = StateNormalised
	for _, s := range it.outcome.Degraded() {
		log.Warn("step degraded", "step", s.Step, "reason", s.Reason)
	}
	log.Debug("normalised", "vector", flat.ID)
}

// discover returns the outermost flattenable descendants of root in
// document order. Descendants of a flattenable node travel with it.
func discover(root *scene.Node) []*scene.Node {
	var found []*scene.Node
	var walk func(*scene.Node)
	walk = func(parent *scene.Node) {
		for _, c := range parent.Children {
			if c.Removed() {
				continue
			}
			if c.Type.IsFlattenable() {
				found = append(found, c)
				continue
			}
			walk(c)
		}
	}
	walk(root)
	return found
}

func unionWithin(nodes []*scene.Node, container *scene.Node) scene.Rect {
	box := nodes[0].BoundsWithin(container)
	for _, nd := range nodes[1:] {
		box = box.Union(nd.BoundsWithin(container))
	}
	return box
}
