package channel

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	ps "github.com/mitchellh/go-ps"
)

// maxLineBytes bounds one inbound message.
const maxLineBytes = 4 * 1024 * 1024

// Stdio exchanges newline delimited JSON over a reader and writer,
// normally stdin and stdout. Logging must go elsewhere.
type Stdio struct {
	in     io.Reader
	mu     sync.Mutex
	out    io.Writer
	logger hclog.Logger

	// ParentPoll, when positive, ends Serve once the parent process has
	// gone, checked at this interval.
	ParentPoll time.Duration
}

// NewStdio creates a transport over in and out.
func NewStdio(in io.Reader, out io.Writer, logger hclog.Logger) *Stdio {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Stdio{in: in, out: out, logger: logger.Named("stdio")}
}

// Send writes msg as one JSON line.
func (s *Stdio) Send(msg any) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	b = append(b, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.out.Write(b); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

// Serve starts h and feeds it one line at a time until the input ends,
// ctx is cancelled or the parent process exits. A failing message is
// logged and does not end the session.
func (s *Stdio) Serve(ctx context.Context, h Handler) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.ParentPoll > 0 {
		go s.watchParent(ctx, cancel, os.Getppid())
	}

	if err := h.Start(ctx); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(s.in)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for sc.Scan() {
			line := append([]byte(nil), sc.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ignoreCancel(ctx.Err())
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("failed to read input: %w", err)
					}
				default:
				}
				return nil
			}
			if len(line) == 0 {
				continue
			}
			if err := h.Handle(ctx, line); err != nil {
				s.logger.Warn("message failed", "error", err)
			}
		}
	}
}

// watchParent cancels the session when the process that launched us is
// no longer running, so an orphaned backend does not linger.
func (s *Stdio) watchParent(ctx context.Context, cancel context.CancelFunc, ppid int) {
	ticker := time.NewTicker(s.ParentPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p, err := ps.FindProcess(ppid)
			if err != nil {
				s.logger.Debug("parent lookup failed", "ppid", ppid, "error", err)
				continue
			}
			if p == nil {
				s.logger.Info("parent process exited, stopping", "ppid", ppid)
				cancel()
				return
			}
		}
	}
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
