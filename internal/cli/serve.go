package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/iconform/internal/channel"
	"github.com/jmylchreest/iconform/internal/scene"
	"github.com/jmylchreest/iconform/internal/scene/memdoc"
	"github.com/jmylchreest/iconform/internal/session"
	"github.com/jmylchreest/iconform/internal/watch"
	"github.com/jmylchreest/iconform/pkg/plugin"
)

// parentPoll is how often the stdio transport checks its parent process.
const parentPoll = 2 * time.Second

type serveFlags struct {
	transport string
	listen    string
	selection []string
	watch     bool
	writeBack bool
}

func newServeCmd(a *app) *cobra.Command {
	f := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve [document]",
		Short: "Serve a panel session over stdio or websocket",
		Long: `Hold a document open and exchange JSON messages with a panel.

With --transport stdio (the default) messages are newline-delimited JSON on
stdin and stdout, and the session ends when the parent process exits. With
--transport ws a panel connects to ws://<listen>/ from a local origin.

--watch reloads the document when the file changes and pushes the new
selection and tokens to the panel.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd, args, f)
		},
	}
	cmd.Flags().StringVarP(&f.transport, "transport", "t", "stdio", "panel transport (stdio, ws)")
	cmd.Flags().StringVarP(&f.listen, "listen", "l", "", "websocket listen address (env ICONFORM_LISTEN)")
	cmd.Flags().StringArrayVarP(&f.selection, "select", "s", nil, "node id or name-path glob to select (repeatable)")
	cmd.Flags().BoolVar(&f.watch, "watch", false, "reload the document when it changes on disk")
	cmd.Flags().BoolVarP(&f.writeBack, "write-back", "w", false, "save the document after each standardise command")
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, args []string, f *serveFlags) error {
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

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var (
		sender session.Sender
		serve  func(channel.Handler) error
	)
	switch f.transport {
	case "stdio":
		stdio := channel.NewStdio(cmd.InOrStdin(), cmd.OutOrStdout(), a.logger)
		stdio.ParentPoll = parentPoll
		sender = stdio
		serve = func(h channel.Handler) error { return stdio.Serve(ctx, h) }
	case "ws":
		listen := f.listen
		if listen == "" {
			listen = a.cfg.Listen
		}
		ws := channel.NewWebSocket(a.logger)
		sender = ws
		serve = func(h channel.Handler) error {
			ws.SetHandler(h)
			return listenAndServe(ctx, listen, ws, a.logger)
		}
	default:
		return fmt.Errorf("unknown transport %q", f.transport)
	}

	ctrl, err := session.New(doc, sender, a.sessionOptions()...)
	if err != nil {
		return err
	}

	var handler channel.Handler = ctrl
	if f.writeBack || a.cfg.WriteBack {
		handler = &savingHandler{Controller: ctrl, path: path, logger: a.logger}
	}

	if f.watch {
		w, err := watch.New(path, ctrl, watch.Options{
			Debounce:  a.cfg.WatchDebounce,
			Selection: f.selection,
			Logger:    a.logger,
		})
		if err != nil {
			return err
		}
		defer w.Stop()
		go func() {
			if err := w.Run(ctx); err != nil {
				a.logger.Error("watcher stopped", "error", err)
			}
		}()
	}

	return serve(handler)
}

func listenAndServe(ctx context.Context, addr string, h http.Handler, logger hclog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening for panels", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// savingHandler writes the document back after each standardise command.
type savingHandler struct {
	*session.Controller
	path   string
	logger hclog.Logger
}

func (h *savingHandler) Handle(ctx context.Context, raw []byte) error {
	if err := h.Controller.Handle(ctx, raw); err != nil {
		return err
	}
	if typ, _ := plugin.PeekType(raw); typ != plugin.TypeStandardiseSelection {
		return nil
	}
	return saveDocument(h.Document(), h.path, h.logger)
}

func saveDocument(doc scene.Document, path string, logger hclog.Logger) error {
	md, ok := doc.(*memdoc.Document)
	if !ok {
		return fmt.Errorf("cannot save a %T", doc)
	}
	if err := md.Save(path); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	logger.Debug("document saved", "path", path)
	return nil
}
