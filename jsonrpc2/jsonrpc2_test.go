package jsonrpc2

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rw struct {
	io.Reader
	io.Writer
}

func TestStreamRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	s := NewStream(rw{&buf, &buf})

	msg := &NotificationMessage{JSONRPC: Version, Method: "initialized", Params: json.RawMessage(`{}`)}
	require.NoError(t, s.WriteMessage(msg))
	assert.True(t, strings.HasPrefix(buf.String(), "Content-Length: 52\r\n\r\n"), buf.String())

	body, err := s.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","method":"initialized","params":{}}`, string(body))
}

func TestStreamHeaders(t *testing.T) {
	input := "\r\nContent-Type: application/vscode-jsonrpc; charset=utf-8\r\ncontent-length: 2\r\n\r\n{}"
	s := NewStream(rw{strings.NewReader(input), io.Discard})
	body, err := s.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "{}", string(body))

	_, err = s.ReadMessage()
	assert.ErrorIs(t, err, io.EOF)
}

func TestStreamRejectsBadLength(t *testing.T) {
	for _, input := range []string{
		"Content-Length: abc\r\n\r\n",
		"Content-Length: 0\r\n\r\n",
		"Content-Length: -4\r\n\r\n",
	} {
		s := NewStream(rw{strings.NewReader(input), io.Discard})
		_, err := s.ReadMessage()
		assert.Error(t, err, input)
	}

	s := NewStream(rw{strings.NewReader("Content-Length: 10\r\n\r\n{}"), io.Discard})
	_, err := s.ReadMessage()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestDecode(t *testing.T) {
	cases := []struct {
		body string
		want any
	}{
		{`{"jsonrpc":"2.0","id":1,"method":"textDocument/hover","params":{}}`, &RequestMessage{}},
		{`{"jsonrpc":"2.0","id":"abc","method":"shutdown"}`, &RequestMessage{}},
		{`{"jsonrpc":"2.0","method":"exit"}`, &NotificationMessage{}},
		{`{"jsonrpc":"2.0","id":null,"method":"exit"}`, &NotificationMessage{}},
		{`{"jsonrpc":"2.0","id":7,"result":null}`, &ResponseMessage{}},
	}
	for _, tc := range cases {
		msg, err := decode([]byte(tc.body))
		require.NoError(t, err, tc.body)
		assert.IsType(t, tc.want, msg, tc.body)
	}

	req, err := decode([]byte(`{"jsonrpc":"2.0","id":"abc","method":"shutdown"}`))
	require.NoError(t, err)
	assert.Equal(t, `"abc"`, string(req.(*RequestMessage).ID))

	_, err = decode([]byte(`{"jsonrpc":"2.0"}`))
	var rpcErr *ErrorObject
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, InvalidRequest, rpcErr.Code)

	_, err = decode([]byte(`not json`))
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, ParseError, rpcErr.Code)
}

type closeRecorder struct {
	bytes.Buffer
	closed int
}

func (c *closeRecorder) Close() error {
	c.closed++
	return nil
}

func TestConnCloseAndWrite(t *testing.T) {
	rec := &closeRecorder{}
	conn := NewConn(NewStream(rec))
	ctx := context.Background()

	require.NoError(t, conn.Write(ctx, &NotificationMessage{JSONRPC: Version, Method: "x"}))

	msg, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "x", msg.(*NotificationMessage).Method)

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())
	assert.Equal(t, 1, rec.closed)
	assert.ErrorIs(t, conn.Write(ctx, &NotificationMessage{}), io.ErrClosedPipe)
}

func TestConnHonoursCancelledContext(t *testing.T) {
	conn := NewConn(NewStream(&closeRecorder{}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := conn.Read(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, conn.Write(ctx, &NotificationMessage{}), context.Canceled)
}

func TestErrorObject(t *testing.T) {
	err := Errorf(MethodNotFound, "method not found: %s", "foo")
	assert.Equal(t, "jsonrpc2 error -32601: method not found: foo", err.Error())
}
