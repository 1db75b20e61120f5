package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/iconform/internal/mcpserver"
	"github.com/jmylchreest/iconform/internal/scene"
	"github.com/jmylchreest/iconform/internal/scene/memdoc"
)

func newMCPCmd(a *app) *cobra.Command {
	var (
		selection []string
		writeBack bool
	)
	cmd := &cobra.Command{
		Use:   "mcp [document]",
		Short: "Serve MCP tools for a document on stdio",
		Long: `Expose a document to MCP clients with the tools selection_count,
list_colour_tokens, list_dimension_tokens and standardise_selection.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.documentPath(args)
			if err != nil {
				return err
			}
			doc, err := memdoc.Load(path)
			if err != nil {
				return fmt.Errorf("failed to load document: %w", err)
			}
			if len(selection) > 0 {
				if _, err := doc.SelectSpecs(selection); err != nil {
					return err
				}
			}

			opts := []mcpserver.Option{mcpserver.WithLogger(a.logger)}
			if writeBack || a.cfg.WriteBack {
				opts = append(opts, mcpserver.WithOnChange(func(d scene.Document) error {
					return saveDocument(d, path, a.logger)
				}))
			}
			srv, err := mcpserver.New(doc, opts, a.sessionOptions()...)
			if err != nil {
				return err
			}
			return srv.ServeStdio()
		},
	}
	cmd.Flags().StringArrayVarP(&selection, "select", "s", nil, "initial selection: node id or name-path glob (repeatable)")
	cmd.Flags().BoolVarP(&writeBack, "write-back", "w", false, "save the document after each standardise call")
	return cmd
}
