package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akhenakh/jsondate-lsp/config"
	"github.com/akhenakh/jsondate-lsp/jsondate"
	"github.com/akhenakh/jsondate-lsp/jsonrpc2"
	"github.com/akhenakh/jsondate-lsp/protocol"
	"github.com/akhenakh/jsondate-lsp/server"
)

func TestResolveFlags(t *testing.T) {
	cli := CLI{
		Layout:        "DotNet",
		LogFormat:     "JSON",
		Verbose:       true,
		MetricsAddr:   "127.0.0.1:9464",
		NoDiagnostics: true,
	}
	cfg, err := cli.resolve()
	require.NoError(t, err)
	assert.Equal(t, "dotnet", cfg.Layout)
	assert.Equal(t, config.LogFormatJSON, cfg.Logging.Format)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "127.0.0.1:9464", cfg.Metrics.Addr)

	session := cfg.Session()
	assert.False(t, session.Diagnostics)
	assert.True(t, session.CodeActions)
}

func TestResolveConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jsondate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("layout: rfc1123\ncode_actions: false\n"), 0o600))

	cfg, err := (&CLI{Config: path}).resolve()
	require.NoError(t, err)
	assert.Equal(t, jsondate.LayoutRFC1123, cfg.Session().Layout)
	assert.False(t, cfg.Session().CodeActions)

	// Flags win over the file.
	cfg, err = (&CLI{Config: path, Layout: "iso"}).resolve()
	require.NoError(t, err)
	assert.Equal(t, "iso", cfg.Layout)

	_, err = (&CLI{Layout: "lunar"}).resolve()
	assert.Error(t, err)
	_, err = (&CLI{Config: filepath.Join(t.TempDir(), "missing.yaml")}).resolve()
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(config.LoggingConfig{Level: "warn", Format: config.LogFormatJSON}, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	_, err = newLogger(config.LoggingConfig{Format: "xml"}, &buf)
	assert.Error(t, err)
	_, err = newLogger(config.LoggingConfig{Level: "chatty"}, &buf)
	assert.Error(t, err)
}

// lspClient drives a server over an in-memory pipe.
type lspClient struct {
	t      *testing.T
	conn   *jsonrpc2.Conn
	nextID int
	resps  chan *jsonrpc2.ResponseMessage
	notes  chan *jsonrpc2.NotificationMessage
}

func newLSPClient(t *testing.T, rw io.ReadWriter) *lspClient {
	c := &lspClient{
		t:     t,
		conn:  jsonrpc2.NewConn(jsonrpc2.NewStream(rw)),
		resps: make(chan *jsonrpc2.ResponseMessage, 8),
		notes: make(chan *jsonrpc2.NotificationMessage, 8),
	}
	go func() {
		for {
			msg, err := c.conn.Read(context.Background())
			if err != nil {
				return
			}
			switch m := msg.(type) {
			case *jsonrpc2.ResponseMessage:
				c.resps <- m
			case *jsonrpc2.NotificationMessage:
				c.notes <- m
			}
		}
	}()
	return c
}

// call sends a request and decodes the result into out. Requests are
// issued one at a time, so the next response is ours.
func (c *lspClient) call(method string, params, out any) {
	c.t.Helper()
	c.nextID++
	raw, err := json.Marshal(params)
	require.NoError(c.t, err)
	id := json.RawMessage(strconv.Itoa(c.nextID))
	require.NoError(c.t, c.conn.Write(context.Background(), &jsonrpc2.RequestMessage{
		JSONRPC: jsonrpc2.Version, ID: id, Method: method, Params: raw,
	}))

	select {
	case resp := <-c.resps:
		require.Equal(c.t, string(id), string(resp.ID))
		require.Nil(c.t, resp.Error)
		if out != nil {
			require.NoError(c.t, json.Unmarshal(resp.Result, out))
		}
	case <-time.After(5 * time.Second):
		c.t.Fatalf("timed out waiting for %s", method)
	}
}

func (c *lspClient) notify(method string, params any) {
	c.t.Helper()
	require.NoError(c.t, protocol.Notify(context.Background(), c.conn, method, params))
}

func (c *lspClient) diagnostics() protocol.PublishDiagnosticsParams {
	c.t.Helper()
	select {
	case n := <-c.notes:
		require.Equal(c.t, protocol.MethodTextDocumentPublishDiagnostics, n.Method)
		var params protocol.PublishDiagnosticsParams
		require.NoError(c.t, json.Unmarshal(n.Params, &params))
		return params
	case <-time.After(5 * time.Second):
		c.t.Fatal("timed out waiting for diagnostics")
		return protocol.PublishDiagnosticsParams{}
	}
}

func TestSession(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	exits := make(chan int, 1)
	runErr := make(chan error, 1)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	go func() {
		runErr <- run(context.Background(), config.Default(), logger, serverSide,
			server.WithExitFunc(func(code int) { exits <- code }))
	}()
	c := newLSPClient(t, clientSide)
	defer clientSide.Close()

	var initResult protocol.InitializeResult
	c.call(protocol.MethodInitialize, &protocol.InitializeParams{
		InitializationOptions: json.RawMessage(`{"layout":"iso"}`),
		Capabilities: protocol.ClientCapabilities{TextDocument: &protocol.TextDocumentClientCapabilities{
			Hover: &protocol.HoverClientCapabilities{ContentFormat: []protocol.MarkupKind{protocol.Markdown, protocol.PlainText}},
		}},
	}, &initResult)
	require.NotNil(t, initResult.ServerInfo)
	assert.Equal(t, "jsondate-lsp", initResult.ServerInfo.Name)
	require.NotNil(t, initResult.Capabilities.TextDocumentSync)
	assert.Equal(t, protocol.SyncIncremental, initResult.Capabilities.TextDocumentSync.Change)
	assert.NotNil(t, initResult.Capabilities.HoverProvider)
	require.NotNil(t, initResult.Capabilities.CodeActionProvider)
	assert.ElementsMatch(t, []protocol.CodeActionKind{protocol.RefactorRewrite, protocol.Source}, initResult.Capabilities.CodeActionProvider.CodeActionKinds)
	c.notify(protocol.MethodInitialized, &protocol.InitializedParams{})

	uri := protocol.DocumentURI("file:///sample.json")
	c.notify(protocol.MethodTextDocumentDidOpen, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, LanguageID: "json", Version: 1, Text: sampleJSON},
	})
	diags := c.diagnostics()
	assert.Equal(t, uri, diags.URI)
	require.NotNil(t, diags.Version)
	assert.Equal(t, 1, *diags.Version)
	assert.Len(t, diags.Diagnostics, 2)

	var hover *protocol.Hover
	c.call(protocol.MethodTextDocumentHover, &protocol.HoverParams{TextDocumentPositionParams: protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Position:     at(sampleJSON, "1318"),
	}}, &hover)
	require.NotNil(t, hover)
	assert.Equal(t, protocol.Markdown, hover.Contents.Kind)
	assert.Equal(t, "`(1318996912288-0500)`  \n2011-10-18T23:01:52.288-05:00", hover.Contents.Value)

	// Replace the broken tokens with one incremental edit covering the tail.
	tail := at(sampleJSON, `,"b"`)
	c.notify(protocol.MethodTextDocumentDidChange, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri}, Version: 2},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{{
			Range: &protocol.Range{Start: tail, End: protocol.Position{Line: 0, Character: uint(len(sampleJSON))}},
			Text:  "}",
		}},
	})
	diags = c.diagnostics()
	assert.Equal(t, 2, *diags.Version)
	assert.Empty(t, diags.Diagnostics)

	var actions []protocol.CodeAction
	cursor := at(sampleJSON, "1318")
	c.call(protocol.MethodTextDocumentCodeAction, &protocol.CodeActionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Range:        protocol.Range{Start: cursor, End: cursor},
	}, &actions)
	require.Len(t, actions, 1)
	assert.Equal(t, 2, actions[0].Edit.DocumentChanges[0].TextDocument.Version)

	var none *protocol.Hover
	c.call(protocol.MethodTextDocumentHover, &protocol.HoverParams{TextDocumentPositionParams: protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Position:     protocol.Position{},
	}}, &none)
	assert.Nil(t, none)

	c.notify(protocol.MethodTextDocumentDidClose, &protocol.DidCloseTextDocumentParams{TextDocument: protocol.TextDocumentIdentifier{URI: uri}})
	diags = c.diagnostics()
	assert.Nil(t, diags.Version)
	assert.Empty(t, diags.Diagnostics)

	c.call(protocol.MethodShutdown, nil, nil)
	c.notify(protocol.MethodExit, nil)

	select {
	case code := <-exits:
		assert.Equal(t, 0, code)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not exit")
	}
	select {
	case err := <-runErr:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return")
	}
}
