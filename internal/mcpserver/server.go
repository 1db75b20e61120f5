// Package mcpserver exposes a document session as MCP tools so agents can
// inspect tokens and standardise icons.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jmylchreest/iconform/internal/channel"
	"github.com/jmylchreest/iconform/internal/scene"
	"github.com/jmylchreest/iconform/internal/session"
	"github.com/jmylchreest/iconform/internal/version"
	"github.com/jmylchreest/iconform/pkg/plugin"
)

// Selector is implemented by documents that can change their selection.
type Selector interface {
	SelectSpecs(specs []string) (int, error)
}

// Server is the MCP tool server.
type Server struct {
	mcpServer *server.MCPServer
	ctrl      *session.Controller
	rec       *channel.Recorder
	logger    hclog.Logger

	// onChange runs after a standardise call mutated the document.
	onChange func(doc scene.Document) error

	mu sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithOnChange registers fn to run after each standardise call that
// normalised at least one item, e.g. to write the document back.
func WithOnChange(fn func(doc scene.Document) error) Option {
	return func(s *Server) { s.onChange = fn }
}

// New creates a server over a fresh session for doc.
func New(doc scene.Document, opts []Option, sessionOpts ...session.Option) (*Server, error) {
	s := &Server{rec: &channel.Recorder{}, logger: hclog.NewNullLogger()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("mcp")

	ctrl, err := session.New(doc, s.rec, append([]session.Option{session.WithLogger(s.logger)}, sessionOpts...)...)
	if err != nil {
		return nil, err
	}
	s.ctrl = ctrl

	s.mcpServer = server.NewMCPServer(
		"iconform",
		version.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithToolHandlerMiddleware(s.loggingMiddleware()),
	)
	s.mcpServer.AddTools(
		server.ServerTool{Tool: selectionCountTool(), Handler: s.handleSelectionCount},
		server.ServerTool{Tool: listColourTokensTool(), Handler: s.handleListColourTokens},
		server.ServerTool{Tool: listDimensionTokensTool(), Handler: s.handleListDimensionTokens},
		server.ServerTool{Tool: standardiseSelectionTool(), Handler: s.handleStandardiseSelection},
	)
	return s, nil
}

// ServeStdio serves MCP on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) loggingMiddleware() server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			start := time.Now()
			result, err := next(ctx, req)
			s.logger.Debug("tool call", "tool", req.Params.Name,
				"duration", time.Since(start), "is_error", result != nil && result.IsError, "error", err)
			return result, err
		}
	}
}

func selectionCountTool() mcp.Tool {
	return mcp.NewTool("selection_count",
		mcp.WithDescription("Number of nodes currently selected in the document"),
		mcp.WithArray("select",
			mcp.Description("Optional node ids or name-path globs (e.g. Icons/**/arrow-*) to select first"),
			mcp.WithStringItems(),
		),
	)
}

func listColourTokensTool() mcp.Tool {
	return mcp.NewTool("list_colour_tokens",
		mcp.WithDescription("Paint styles and colour variables with resolved hex swatches, sorted by group and name"),
	)
}

func listDimensionTokensTool() mcp.Tool {
	return mcp.NewTool("list_dimension_tokens",
		mcp.WithDescription("Number variables scoped to width and height; aliased values are reported as \"Alias\""),
	)
}

func standardiseSelectionTool() mcp.Tool {
	return mcp.NewTool("standardise_selection",
		mcp.WithDescription("Flatten, recolour and resize every selected icon into a single vector layer"),
		mcp.WithArray("select",
			mcp.Description("Optional node ids or name-path globs to select first"),
			mcp.WithStringItems(),
		),
		mcp.WithString("colour_mode",
			mcp.Description("Recolour mode"),
			mcp.Enum("ORIGINAL", "HEX", "STYLE"),
		),
		mcp.WithString("colour_value",
			mcp.Description("Hex colour for HEX, style or variable id for STYLE"),
		),
		mcp.WithString("colour_type",
			mcp.Description("Restrict STYLE lookups to one token kind"),
			mcp.Enum("STYLE", "VARIABLE"),
		),
		mcp.WithNumber("size",
			mcp.Description("Target width and height"),
		),
		mcp.WithString("size_variable_id",
			mcp.Description("Bind width and height to this number variable"),
		),
		mcp.WithBoolean("outline",
			mcp.Description("Outline stroked shapes before flattening (default true)"),
		),
	)
}

func (s *Server) handleSelectionCount(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res := s.applySelection(ctx, req); res != nil {
		return res, nil
	}
	if err := s.ctrl.SelectionChanged(ctx); err != nil {
		return mcp.NewToolResultErrorFromErr("failed to count selection", err), nil
	}
	return jsonResult(map[string]int{"count": s.ctrl.SelectionCount()})
}

func (s *Server) handleListColourTokens(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tokens, err := s.ctrl.ColourTokens(ctx)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("failed to list colour tokens", err), nil
	}
	return jsonResult(tokens)
}

func (s *Server) handleListDimensionTokens(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tokens, err := s.ctrl.DimensionTokens(ctx)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("failed to list dimension tokens", err), nil
	}
	return jsonResult(tokens)
}

// standardiseResponse is what the standardise tool returns.
type standardiseResponse struct {
	Message  string           `json:"message"`
	Error    bool             `json:"error"`
	Count    int              `json:"count"`
	Outcomes []plugin.Outcome `json:"outcomes"`
}

func (s *Server) handleStandardiseSelection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res := s.applySelection(ctx, req); res != nil {
		return res, nil
	}

	msg := plugin.StandardiseSelection{
		Type:                 plugin.TypeStandardiseSelection,
		TargetSizeVariableID: req.GetString("size_variable_id", ""),
	}
	if mode := req.GetString("colour_mode", ""); mode != "" {
		msg.ColorOptions = &plugin.ColorOptions{
			Mode:  mode,
			Value: req.GetString("colour_value", ""),
			Type:  req.GetString("colour_type", ""),
		}
	}
	if size := req.GetFloat("size", 0); size > 0 {
		msg.ShouldResize = true
		msg.TargetSize = &size
	}
	if msg.TargetSizeVariableID != "" {
		msg.ShouldResize = true
	}
	if args := req.GetArguments(); args != nil {
		if _, ok := args["outline"]; ok {
			outline := req.GetBool("outline", true)
			msg.ShouldOutline = &outline
		}
	}

	s.rec.Reset()
	report, err := s.ctrl.Standardise(ctx, msg)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("standardise failed", err), nil
	}

	var resp standardiseResponse
	var note plugin.Notify
	if ok, err := s.rec.Last(plugin.TypeNotify, &note); err == nil && ok {
		resp.Message, resp.Error = note.Message, note.Error
	}
	var result plugin.StandardiseResult
	if ok, err := s.rec.Last(plugin.TypeStandardiseResult, &result); err == nil && ok {
		resp.Count, resp.Outcomes = result.Count, result.Outcomes
	}

	if report.Normalised() > 0 && s.onChange != nil {
		if err := s.onChange(s.ctrl.Document()); err != nil {
			return mcp.NewToolResultErrorFromErr("failed to save document", err), nil
		}
	}
	return jsonResult(resp)
}

// applySelection returns a tool error result when the select argument is
// present and cannot be applied.
func (s *Server) applySelection(ctx context.Context, req mcp.CallToolRequest) *mcp.CallToolResult {
	specs := req.GetStringSlice("select", nil)
	if len(specs) == 0 {
		return nil
	}
	sel, ok := s.ctrl.Document().(Selector)
	if !ok {
		return mcp.NewToolResultError("this document does not support changing the selection")
	}
	n, err := sel.SelectSpecs(specs)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("failed to apply selection", err)
	}
	s.logger.Debug("selection applied", "specs", specs, "count", n)
	if err := s.ctrl.SelectionChanged(ctx); err != nil {
		return mcp.NewToolResultErrorFromErr("failed to update selection", err)
	}
	return nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}
