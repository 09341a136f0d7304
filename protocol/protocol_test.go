package protocol

import (
	"context"
	"encoding/json"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akhenakh/jsondate-lsp/jsonrpc2"
)

func TestPreferredMarkup(t *testing.T) {
	hover := func(kinds ...MarkupKind) ClientCapabilities {
		return ClientCapabilities{TextDocument: &TextDocumentClientCapabilities{
			Hover: &HoverClientCapabilities{ContentFormat: kinds},
		}}
	}

	assert.Equal(t, PlainText, ClientCapabilities{}.PreferredMarkup())
	assert.Equal(t, PlainText, ClientCapabilities{TextDocument: &TextDocumentClientCapabilities{}}.PreferredMarkup())
	assert.Equal(t, Markdown, hover(Markdown, PlainText).PreferredMarkup())
	assert.Equal(t, PlainText, hover(PlainText, Markdown).PreferredMarkup())
	assert.Equal(t, Markdown, hover("asciidoc", Markdown).PreferredMarkup())
	assert.Equal(t, PlainText, hover("asciidoc").PreferredMarkup())
}

func TestCodeActionKindIncludes(t *testing.T) {
	tests := []struct {
		kind CodeActionKind
		only []CodeActionKind
		want bool
	}{
		{RefactorRewrite, nil, true},
		{RefactorRewrite, []CodeActionKind{RefactorRewrite}, true},
		{RefactorRewrite, []CodeActionKind{Refactor}, true},
		{RefactorRewrite, []CodeActionKind{QuickFix, Source}, false},
		{Refactor, []CodeActionKind{RefactorRewrite}, false},
		{"refactorx", []CodeActionKind{Refactor}, false},
		{Source, []CodeActionKind{Source}, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.Includes(tt.only), "%s in %v", tt.kind, tt.only)
	}
}

func readNotification(t *testing.T, conn *jsonrpc2.Conn) *jsonrpc2.NotificationMessage {
	t.Helper()
	msg, err := conn.Read(context.Background())
	require.NoError(t, err)
	n, ok := msg.(*jsonrpc2.NotificationMessage)
	require.True(t, ok, "got %T", msg)
	return n
}

func TestNotifications(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()
	sender := jsonrpc2.NewConn(jsonrpc2.NewStream(a))
	receiver := jsonrpc2.NewConn(jsonrpc2.NewStream(b))

	errCh := make(chan error, 1)
	go func() {
		version := 4
		if err := PublishDiagnostics(context.Background(), sender, "file:///x", &version, nil); err != nil {
			errCh <- err
			return
		}
		if err := ShowMessage(context.Background(), sender, Warning, "careful"); err != nil {
			errCh <- err
			return
		}
		errCh <- LogMessage(context.Background(), sender, Error, "details")
	}()

	n := readNotification(t, receiver)
	assert.Equal(t, MethodTextDocumentPublishDiagnostics, n.Method)
	assert.JSONEq(t, `{"uri":"file:///x","version":4,"diagnostics":[]}`, string(n.Params))

	n = readNotification(t, receiver)
	assert.Equal(t, MethodWindowShowMessage, n.Method)
	var show ShowMessageParams
	require.NoError(t, json.Unmarshal(n.Params, &show))
	assert.Equal(t, ShowMessageParams{Type: Warning, Message: "careful"}, show)

	n = readNotification(t, receiver)
	assert.Equal(t, MethodWindowLogMessage, n.Method)
	assert.JSONEq(t, `{"type":1,"message":"details"}`, string(n.Params))

	require.NoError(t, <-errCh)
}

func TestNotifyErrors(t *testing.T) {
	err := Notify(context.Background(), nil, MethodWindowLogMessage, LogMessageParams{})
	assert.ErrorIs(t, err, ErrNoConn)

	a, b := net.Pipe()
	b.Close()
	conn := jsonrpc2.NewConn(jsonrpc2.NewStream(a))
	require.NoError(t, conn.Close())
	err = Notify(context.Background(), conn, MethodWindowLogMessage, LogMessageParams{})
	assert.Error(t, err)

	err = Notify(context.Background(), conn, MethodWindowLogMessage, make(chan int))
	assert.ErrorContains(t, err, "marshal")
}
