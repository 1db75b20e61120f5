package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/iconform/internal/channel"
	"github.com/jmylchreest/iconform/internal/plugin/backend"
	"github.com/jmylchreest/iconform/internal/plugin/executor"
	"github.com/jmylchreest/iconform/internal/scene/memdoc"
	"github.com/jmylchreest/iconform/pkg/plugin"
)

type standardiseFlags struct {
	run         runFlags
	backendPath string
	output      string
	writeBack   bool
	format      string
}

func newStandardiseCmd(a *app) *cobra.Command {
	f := &standardiseFlags{}
	cmd := &cobra.Command{
		Use:     "standardise [document]",
		Aliases: []string{"standardize"},
		Short:   "Normalise the selected icons in a document snapshot",
		Long: `Normalise every selected group, frame, component or component set into a
single flattened vector layer.

The document is a JSON snapshot, optionally compressed (.gz, .xz, .bz2).
Without --output or --write-back the document is left untouched and only the
report is printed.

Examples:
  # Flatten every top-level icon under the Icons frame and resize to 24
  iconform standardise icons.json --select 'Icons/*' --size 24 --write-back

  # Recolour with a paint style and bind the size to a variable
  iconform standardise icons.json -s 1:2 --style S:brand --size-variable V:size -o out.json

  # Run the pipeline in an external backend
  iconform standardise icons.json -s 1:2 --backend ./iconform-backend`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStandardise(cmd, args, f)
		},
	}

	registerRunFlags(cmd.Flags(), &f.run)
	cmd.Flags().StringVar(&f.backendPath, "backend", "", "path to an external backend executable")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "write the updated document to this path")
	cmd.Flags().BoolVarP(&f.writeBack, "write-back", "w", false, "overwrite the input document (env ICONFORM_WRITE_BACK)")
	cmd.Flags().StringVarP(&f.format, "format", "f", "table", "report format (table, json)")
	return cmd
}

func (a *app) runStandardise(cmd *cobra.Command, args []string, f *standardiseFlags) error {
	if f.format != "table" && f.format != "json" {
		return fmt.Errorf("unknown format %q", f.format)
	}
	path, err := a.documentPath(args)
	if err != nil {
		return err
	}
	msg, err := f.run.message()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode command: %w", err)
	}

	a.infof(cmd, "Loading document: %s\n", path)
	doc, err := memdoc.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}
	var snapshot bytes.Buffer
	if err := doc.Encode(&snapshot); err != nil {
		return err
	}

	var b plugin.Backend
	if f.backendPath != "" {
		ex, err := executor.New(cmd.Context(), f.backendPath, executor.WithLogger(a.logger))
		if err != nil {
			return err
		}
		defer ex.Close()
		info := ex.GetMetadata()
		a.infof(cmd, "Using backend %s %s (%s)\n", info.Name, info.Version, info.PluginProtocol)
		b = ex
	} else {
		b = backend.New(a.logger, plugin.PluginTypeJSON, a.sessionOptions()...)
	}

	resp, err := b.Exchange(cmd.Context(), plugin.ExchangeRequest{
		Document:  snapshot.Bytes(),
		Selection: f.run.selection,
		Messages:  []json.RawMessage{raw},
	})
	if err != nil {
		return err
	}

	rec := &channel.Recorder{}
	for _, m := range resp.Messages {
		if err := rec.Send(m); err != nil {
			return err
		}
	}
	var result plugin.StandardiseResult
	if _, err := rec.Last(plugin.TypeStandardiseResult, &result); err != nil {
		return err
	}
	var note plugin.Notify
	if _, err := rec.Last(plugin.TypeNotify, &note); err != nil {
		return err
	}

	if err := a.printResult(cmd.OutOrStdout(), f.format, result, note); err != nil {
		return err
	}

	target := f.output
	if target == "" && (f.writeBack || a.cfg.WriteBack) {
		target = path
	}
	if target != "" && result.Count > 0 {
		updated, err := memdoc.Decode(bytes.NewReader(resp.Document))
		if err != nil {
			return fmt.Errorf("backend returned an invalid document: %w", err)
		}
		if err := updated.Save(target); err != nil {
			return fmt.Errorf("failed to save document: %w", err)
		}
		a.infof(cmd, "Wrote %s\n", target)
	}

	if note.Error {
		return errors.New(note.Message)
	}
	return nil
}

func (a *app) printResult(w io.Writer, format string, result plugin.StandardiseResult, note plugin.Notify) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	if a.quiet {
		return nil
	}

	if len(result.Outcomes) > 0 {
		table := NewTable([]string{"ID", "Name", "State", "Notes"})
		table.SetColumnMaxWidth(3, 60)
		for _, o := range result.Outcomes {
			table.AddRow([]string{o.ID, o.Name, o.State, outcomeNotes(o, a.verbose)})
		}
		fmt.Fprint(w, table.Render())
		fmt.Fprintln(w)
	}
	if note.Message != "" {
		fmt.Fprintln(w, note.Message)
	}
	return nil
}

// outcomeNotes lists the reason and degraded steps of an outcome; verbose
// adds every step that did something.
func outcomeNotes(o plugin.Outcome, verbose bool) string {
	var notes []string
	if o.Reason != "" {
		notes = append(notes, o.Reason)
	}
	for _, s := range o.Steps {
		switch {
		case s.Status == "degraded":
			notes = append(notes, fmt.Sprintf("%s degraded: %s", s.Step, s.Reason))
		case verbose && s.Status == "applied":
			if s.Reason != "" {
				notes = append(notes, fmt.Sprintf("%s: %s", s.Step, s.Reason))
			} else {
				notes = append(notes, s.Step)
			}
		}
	}
	return strings.Join(notes, "; ")
}
