// Package cli provides the command-line interface for iconform.
package cli

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/iconform/internal/config"
	"github.com/jmylchreest/iconform/internal/logging"
	"github.com/jmylchreest/iconform/internal/session"
	"github.com/jmylchreest/iconform/internal/token"
	"github.com/jmylchreest/iconform/internal/version"
)

// app carries settings shared by every command.
type app struct {
	cfg    config.Config
	logger hclog.Logger

	envFiles []string
	logLevel string
	verbose  bool
	quiet    bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{logger: hclog.NewNullLogger()}

	rootCmd := &cobra.Command{
		Use:   "iconform",
		Short: "Standardise icon artwork in design documents",
		Long: `iconform turns groups, frames, components and component sets of icon
artwork into single flattened vector layers, optionally outlining strokes,
recolouring from design tokens and resizing to a fixed or variable-bound size.

It works on JSON document snapshots directly, serves a panel over stdio or
websocket, exposes MCP tools, and can run as an out-of-process backend.`,
		Version:           version.Version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "suppress non-error output")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (trace, debug, info, warn, error, off)")
	flags.StringSliceVar(&a.envFiles, "env-file", []string{".env"}, "dotenv files to read settings from")

	rootCmd.SetVersionTemplate(version.String() + "\n")

	rootCmd.AddCommand(
		newStandardiseCmd(a),
		newTokensCmd(a),
		newServeCmd(a),
		newMCPCmd(a),
		newPluginCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.NewBuilder().WithDotEnv(a.envFiles...).WithEnvConfig().Build()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	} else if a.verbose {
		cfg.LogLevel = "debug"
	}
	a.cfg = cfg
	a.logger = logging.New("iconform", logging.Options{Level: cfg.LogLevel, Output: cmd.ErrOrStderr()})
	return nil
}

func (a *app) sessionOptions() []session.Option {
	return []session.Option{
		session.WithLogger(a.logger),
		session.WithDefaultOutline(a.cfg.Outline),
		session.WithResolverOptions(
			token.WithCacheSize(a.cfg.CacheSize),
			token.WithMaxDepth(a.cfg.AliasDepth),
		),
	}
}

// documentPath returns the document argument, falling back to
// ICONFORM_DOCUMENT.
func (a *app) documentPath(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if a.cfg.Document != "" {
		return a.cfg.Document, nil
	}
	return "", errors.New("no document given: pass a path or set " + config.EnvDocument)
}

func (a *app) infof(cmd *cobra.Command, format string, args ...any) {
	if a.verbose && !a.quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), format, args...)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, protocol version and Go version.`,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
