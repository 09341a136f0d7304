package jsonrpc2

import (
	"context"
	"encoding/json"
	"io"
	"sync"
)

// Conn reads and writes JSON-RPC messages over a Stream. Writes are
// serialized; reads must come from a single goroutine.
type Conn struct {
	stream *Stream
	mu     sync.Mutex
	closed bool
}

// NewConn creates a new connection.
func NewConn(stream *Stream) *Conn {
	return &Conn{stream: stream}
}

// Read decodes the next message: a *RequestMessage, *NotificationMessage or
// *ResponseMessage. It blocks until a message arrives; ctx is only checked
// before the read starts, closing the Conn unblocks it.
func (c *Conn) Read(ctx context.Context) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := c.stream.ReadMessage()
	if err != nil {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		return nil, err
	}
	return decode(data)
}

// decode inspects "method" and "id" to pick the message type.
func decode(data []byte) (any, error) {
	var base struct {
		ID     json.RawMessage `json:"id"`
		Method string          `json:"method"`
	}
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, Errorf(ParseError, "failed to parse base message: %v", err)
	}
	hasID := len(base.ID) > 0 && string(base.ID) != "null"

	var msg any
	switch {
	case base.Method != "" && hasID:
		msg = &RequestMessage{}
	case base.Method != "":
		msg = &NotificationMessage{}
	case hasID:
		msg = &ResponseMessage{}
	default:
		return nil, NewError(InvalidRequest, "message is not a valid request, notification, or response")
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, Errorf(ParseError, "failed to parse %T: %v", msg, err)
	}
	return msg, nil
}

// Write sends a message. It is safe for concurrent use.
func (c *Conn) Write(ctx context.Context, msg any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return io.ErrClosedPipe
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.stream.WriteMessage(msg)
}

// Close closes the underlying stream. Closing twice is a no-op.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.stream.Close()
}
