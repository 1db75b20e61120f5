package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/iconform/internal/plugin/backend"
	"github.com/jmylchreest/iconform/pkg/plugin"
)

func newPluginCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugin",
		Short: "Run iconform as an out-of-process backend",
		Long: `Commands a host uses to drive iconform as a backend. A host first runs
'plugin info', then either 'plugin serve' (go-plugin RPC) or 'plugin exchange'
(one JSON request on stdin, one JSON response on stdout).`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "info",
			Short: "Print backend metadata as JSON",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				info := backend.New(a.logger, plugin.PluginTypeGoPlugin).GetMetadata()
				enc := json.NewEncoder(cmd.OutOrStdout())
				return enc.Encode(info)
			},
		},
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the backend over go-plugin RPC",
			Args:  cobra.NoArgs,
			Run: func(_ *cobra.Command, _ []string) {
				backend.Serve(backend.New(a.logger, plugin.PluginTypeGoPlugin, a.sessionOptions()...), a.logger)
			},
		},
		&cobra.Command{
			Use:   "exchange",
			Short: "Handle one JSON exchange on stdin and stdout",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				b := backend.New(a.logger, plugin.PluginTypeJSON, a.sessionOptions()...)
				return backend.ServeJSON(cmd.Context(), b, cmd.InOrStdin(), cmd.OutOrStdout())
			},
		},
	)
	return cmd
}
