// iconform standardises icon artwork in design documents.
//
// It flattens groups, frames and components of icon artwork into single
// vector layers, recolours them from design tokens and resizes them, either
// directly on document snapshots or as a backend for a design-tool panel.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmylchreest/iconform/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
