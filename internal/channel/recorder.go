package channel

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jmylchreest/iconform/pkg/plugin"
)

// Recorder keeps every outbound message in memory. It backs the RPC
// backend and the MCP tools, where replies are collected rather than
// streamed.
type Recorder struct {
	mu   sync.Mutex
	msgs []json.RawMessage
}

// Send records msg as JSON.
func (r *Recorder) Send(msg any) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	r.mu.Lock()
	r.msgs = append(r.msgs, b)
	r.mu.Unlock()
	return nil
}

// Messages returns the recorded messages in send order.
func (r *Recorder) Messages() []json.RawMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]json.RawMessage(nil), r.msgs...)
}

// Types returns the type of each recorded message.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.msgs))
	for _, m := range r.msgs {
		t, _ := plugin.PeekType(m)
		types = append(types, t)
	}
	return types
}

// Last decodes the most recent message of type typ into v. It reports
// false when no such message was recorded.
func (r *Recorder) Last(typ string, v any) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.msgs) - 1; i >= 0; i-- {
		if t, _ := plugin.PeekType(r.msgs[i]); t != typ {
			continue
		}
		if err := json.Unmarshal(r.msgs[i], v); err != nil {
			return true, fmt.Errorf("failed to decode %s: %w", typ, err)
		}
		return true, nil
	}
	return false, nil
}

// Reset discards recorded messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.msgs = nil
	r.mu.Unlock()
}
