// Package channel carries JSON messages between the panel and a session:
// newline delimited over stdio, over a websocket, or into memory.
package channel

import (
	"context"
)

// Handler consumes inbound panel messages. It is implemented by
// session.Controller.
type Handler interface {
	// Start sends the initial state to a newly connected panel.
	Start(ctx context.Context) error

	// Handle processes one raw inbound message.
	Handle(ctx context.Context, raw []byte) error
}
