package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/akhenakh/jsondate-lsp/config"
	"github.com/akhenakh/jsondate-lsp/documents"
	"github.com/akhenakh/jsondate-lsp/jsonrpc2"
	"github.com/akhenakh/jsondate-lsp/logfields"
	"github.com/akhenakh/jsondate-lsp/metrics"
	"github.com/akhenakh/jsondate-lsp/protocol"
	"github.com/akhenakh/jsondate-lsp/quickinfo"
	"github.com/akhenakh/jsondate-lsp/server"
)

// langServer holds the state shared by the LSP handlers of one session.
type langServer struct {
	docs     *documents.Store
	recorder metrics.Recorder
	logger   *slog.Logger

	mu      sync.RWMutex
	session config.Session
	source  *quickinfo.Source
	markup  protocol.MarkupKind
}

func newLangServer(session config.Session, recorder metrics.Recorder, logger *slog.Logger) *langServer {
	return &langServer{
		docs:     documents.NewStore(),
		recorder: recorder,
		logger:   logger,
		session:  session,
		source:   quickinfo.NewSource(session.Layout),
		markup:   protocol.PlainText,
	}
}

func (ls *langServer) register(srv *server.Server) error {
	for method, h := range map[string]any{
		protocol.MethodTextDocumentDidOpen:    ls.didOpen,
		protocol.MethodTextDocumentDidChange:  ls.didChange,
		protocol.MethodTextDocumentDidClose:   ls.didClose,
		protocol.MethodTextDocumentHover:      ls.hover,
		protocol.MethodTextDocumentCodeAction: ls.codeAction,
	} {
		if err := srv.Register(method, h); err != nil {
			return err
		}
	}
	return nil
}

// initialize applies the client's initializationOptions and capabilities.
func (ls *langServer) initialize(ctx context.Context, params *protocol.InitializeParams) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	session, err := ls.session.Apply(params.InitializationOptions)
	if err != nil {
		return err
	}
	ls.session = session
	ls.source = quickinfo.NewSource(session.Layout)
	ls.markup = params.Capabilities.PreferredMarkup()
	ls.logger.Info("Session configured",
		logfields.Layout(string(session.Layout)),
		"diagnostics", session.Diagnostics,
		"code_actions", session.CodeActions,
		"markup", string(ls.markup),
	)
	return nil
}

func (ls *langServer) settings() (config.Session, *quickinfo.Source, protocol.MarkupKind) {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	return ls.session, ls.source, ls.markup
}

func (ls *langServer) didOpen(ctx context.Context, conn *jsonrpc2.Conn, params *protocol.DidOpenTextDocumentParams) error {
	doc := ls.docs.Open(params.TextDocument)
	ls.recorder.SetOpenDocuments(ls.docs.Len())
	ls.logger.Debug("Document opened", logfields.URI(string(doc.URI)), logfields.Version(doc.Version))
	return ls.publish(ctx, conn, doc)
}

func (ls *langServer) didChange(ctx context.Context, conn *jsonrpc2.Conn, params *protocol.DidChangeTextDocumentParams) error {
	doc, err := ls.docs.Change(params.TextDocument, params.ContentChanges)
	if err != nil {
		if errors.Is(err, documents.ErrUnknownDocument) {
			msg := fmt.Sprintf("jsondate-lsp lost track of %s, reopen it to get date hovers back", params.TextDocument.URI)
			if showErr := protocol.ShowMessage(ctx, conn, protocol.Warning, msg); showErr != nil {
				ls.logger.Warn("Cannot show message", logfields.Error(showErr))
			}
			if logErr := protocol.LogMessage(ctx, conn, protocol.Error, err.Error()); logErr != nil {
				ls.logger.Warn("Cannot log message to client", logfields.Error(logErr))
			}
		}
		return err
	}
	ls.recorder.SetOpenDocuments(ls.docs.Len())
	ls.logger.Debug("Document changed", logfields.URI(string(doc.URI)), logfields.Version(doc.Version))
	return ls.publish(ctx, conn, doc)
}

func (ls *langServer) didClose(ctx context.Context, conn *jsonrpc2.Conn, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	if !ls.docs.Close(uri) {
		return nil
	}
	ls.recorder.SetOpenDocuments(ls.docs.Len())
	ls.logger.Debug("Document closed", logfields.URI(string(uri)))

	if session, _, _ := ls.settings(); !session.Diagnostics {
		return nil
	}
	// Clear what was published for the document.
	return protocol.PublishDiagnostics(ctx, conn, uri, nil, nil)
}

// publish sends the diagnostics of doc, when enabled.
func (ls *langServer) publish(ctx context.Context, conn *jsonrpc2.Conn, doc documents.Document) error {
	if session, _, _ := ls.settings(); !session.Diagnostics {
		return nil
	}
	diags := diagnose(doc)
	ls.recorder.AddDiagnostics(len(diags))
	ls.logger.Debug("Publishing diagnostics", logfields.URI(string(doc.URI)), logfields.Count(len(diags)))
	version := doc.Version
	return protocol.PublishDiagnostics(ctx, conn, doc.URI, &version, diags)
}

func (ls *langServer) hover(ctx context.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc, ok := ls.docs.Get(params.TextDocument.URI)
	if !ok {
		ls.recorder.IncHover(metrics.HoverUnknownDocument)
		return nil, nil
	}
	_, source, markup := ls.settings()

	content, result := source.Lookup(doc.Snapshot(), doc.OffsetAt(params.Position))
	ls.recorder.IncHover(hoverResult(result))
	if result != quickinfo.Shown {
		return nil, nil
	}

	rng := doc.RangeOf(content.ApplicableTo)
	return &protocol.Hover{
		Contents: render(content, markup),
		Range:    &rng,
	}, nil
}

// render lays the tooltip lines out for the client's preferred markup.
func render(content quickinfo.Content, kind protocol.MarkupKind) protocol.MarkupContent {
	if kind != protocol.Markdown || len(content.Lines) == 0 {
		return protocol.MarkupContent{Kind: protocol.PlainText, Value: strings.Join(content.Lines, "\n")}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "`%s`", content.Lines[0])
	for _, line := range content.Lines[1:] {
		// Two trailing spaces force a line break in markdown.
		b.WriteString("  \n")
		b.WriteString(line)
	}
	return protocol.MarkupContent{Kind: protocol.Markdown, Value: b.String()}
}

func hoverResult(r quickinfo.Result) metrics.HoverResult {
	switch r {
	case quickinfo.Shown:
		return metrics.HoverShown
	case quickinfo.GateFailed:
		return metrics.HoverGateFailed
	case quickinfo.NoMatch:
		return metrics.HoverNoMatch
	default:
		return metrics.HoverNoGroup
	}
}
