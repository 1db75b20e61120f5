package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/iconform/internal/colour"
	"github.com/jmylchreest/iconform/internal/logging"
	"github.com/jmylchreest/iconform/internal/scene/memdoc"
	"github.com/jmylchreest/iconform/internal/session"
	"github.com/jmylchreest/iconform/internal/token"
)

type tokensFlags struct {
	selection []string
	kind      string
	format    string
	swatches  string
}

func newTokensCmd(a *app) *cobra.Command {
	f := &tokensFlags{}
	cmd := &cobra.Command{
		Use:   "tokens [document]",
		Short: "List the colour and dimension tokens of a document",
		Long: `List paint styles, colour variables and size variables the way the panel
shows them. Variable values resolve in the mode of the first selected node,
or the page when nothing is selected.

Examples:
  iconform tokens icons.json
  iconform tokens icons.json --kind dimension --format json
  iconform tokens icons.json --select 'Dark/**' --swatches always`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTokens(cmd, args, f)
		},
	}
	cmd.Flags().StringArrayVarP(&f.selection, "select", "s", nil, "node id or name-path glob that sets the resolving mode")
	cmd.Flags().StringVarP(&f.kind, "kind", "k", "all", "token kind (colour, dimension, all)")
	cmd.Flags().StringVarP(&f.format, "format", "f", "table", "output format (table, json)")
	cmd.Flags().StringVar(&f.swatches, "swatches", "auto", "colour swatches in table output (auto, always, never)")
	return cmd
}

// tokenListing is the JSON output of the tokens command.
type tokenListing struct {
	Colours    []token.ColourToken    `json:"colours,omitempty"`
	Dimensions []token.DimensionToken `json:"dimensions,omitempty"`
}

func (a *app) runTokens(cmd *cobra.Command, args []string, f *tokensFlags) error {
	var wantColours, wantDims bool
	switch f.kind {
	case "colour", "color":
		wantColours = true
	case "dimension":
		wantDims = true
	case "all":
		wantColours, wantDims = true, true
	default:
		return fmt.Errorf("unknown token kind %q", f.kind)
	}
	if f.format != "table" && f.format != "json" {
		return fmt.Errorf("unknown format %q", f.format)
	}

	path, err := a.documentPath(args)
	if err != nil {
		return err
	}
	doc, err := memdoc.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}
	if len(f.selection) > 0 {
		if _, err := doc.SelectSpecs(f.selection); err != nil {
			return err
		}
	}

	discard := session.SenderFunc(func(any) error { return nil })
	ctrl, err := session.New(doc, discard, a.sessionOptions()...)
	if err != nil {
		return err
	}

	var listing tokenListing
	if wantColours {
		if listing.Colours, err = ctrl.ColourTokens(cmd.Context()); err != nil {
			return fmt.Errorf("failed to list colour tokens: %w", err)
		}
	}
	if wantDims {
		if listing.Dimensions, err = ctrl.DimensionTokens(cmd.Context()); err != nil {
			return fmt.Errorf("failed to list dimension tokens: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if f.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(listing)
	}

	swatches := f.swatches == "always" || (f.swatches == "auto" && out == os.Stdout && logging.IsTerminal(os.Stdout))
	if wantColours {
		printColourTable(out, listing.Colours, swatches)
	}
	if wantDims {
		if wantColours {
			fmt.Fprintln(out)
		}
		printDimensionTable(out, listing.Dimensions)
	}
	return nil
}

func printColourTable(w io.Writer, tokens []token.ColourToken, swatches bool) {
	headers := []string{"Group", "Name", "Type", "Hex", "ID"}
	if swatches {
		headers = append([]string{""}, headers...)
	}
	table := NewTable(headers)
	for _, t := range tokens {
		hex := t.Hex
		if hex == "" {
			hex = "-"
		}
		row := []string{t.Group, t.Name, string(t.Kind), hex, t.ID}
		if swatches {
			row = append([]string{swatch(t)}, row...)
		}
		table.AddRow(row)
	}
	fmt.Fprint(w, table.Render())
}

func printDimensionTable(w io.Writer, tokens []token.DimensionToken) {
	table := NewTable([]string{"Group", "Name", "Value", "ID"})
	for _, t := range tokens {
		table.AddRow([]string{t.Group, t.Name, t.Value.String(), t.ID})
	}
	fmt.Fprint(w, table.Render())
}

// swatch renders a sample of the token colour with readable text on it.
func swatch(t token.ColourToken) string {
	c := token.SwatchColour(t)
	return lipgloss.NewStyle().
		Background(lipgloss.Color(c.Hex())).
		Foreground(lipgloss.Color(colour.Foreground(c).Hex())).
		Render(" Aa ")
}
