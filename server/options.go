package server

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/akhenakh/jsondate-lsp/metrics"
	"github.com/akhenakh/jsondate-lsp/protocol"
)

// Option configures a Server.
type Option func(*options)

// InitializeHook runs while the initialize request is handled, before the
// server answers. Returning an error fails the initialize request.
type InitializeHook func(ctx context.Context, params *protocol.InitializeParams) error

type options struct {
	stream          io.ReadWriter
	logger          *slog.Logger
	info            protocol.ServerInfo
	syncKind        protocol.TextDocumentSyncKind
	codeActionKinds []protocol.CodeActionKind
	onInitialize    InitializeHook
	recorder        metrics.Recorder
	exit            func(code int)
	exitWait        time.Duration
}

func defaultOptions() *options {
	return &options{
		stream:   ReadWriter{os.Stdin, os.Stdout},
		logger:   slog.New(slog.NewTextHandler(os.Stderr, nil)),
		info:     protocol.ServerInfo{Name: "lsp"},
		syncKind: protocol.SyncFull,
		recorder: metrics.NoopRecorder{},
		exit:     os.Exit,
		exitWait: 2 * time.Second,
	}
}

// WithStream sets the input/output stream for the server connection.
func WithStream(rw io.ReadWriter) Option {
	return func(o *options) {
		o.stream = rw
	}
}

// WithLogger sets the logger used by the server.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithServerInfo sets the name and version reported in the initialize result.
func WithServerInfo(name, version string) Option {
	return func(o *options) {
		o.info = protocol.ServerInfo{Name: name, Version: version}
	}
}

// WithSyncKind sets the text document sync kind advertised when
// synchronization handlers are registered. Default is SyncFull.
func WithSyncKind(kind protocol.TextDocumentSyncKind) Option {
	return func(o *options) {
		o.syncKind = kind
	}
}

// WithCodeActionKinds lists the code action kinds advertised when a
// textDocument/codeAction handler is registered.
func WithCodeActionKinds(kinds ...protocol.CodeActionKind) Option {
	return func(o *options) {
		o.codeActionKinds = kinds
	}
}

// WithInitializeHook registers a hook run during initialize.
func WithInitializeHook(hook InitializeHook) Option {
	return func(o *options) {
		o.onInitialize = hook
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithExitFunc replaces os.Exit for the exit notification.
func WithExitFunc(exit func(code int)) Option {
	return func(o *options) {
		o.exit = exit
	}
}

// ReadWriter combines an io.Reader and io.Writer into an io.ReadWriter.
// Useful for using os.Stdin and os.Stdout together.
type ReadWriter struct {
	io.Reader
	io.Writer
}

// Close closes the reader and the writer when they are closers. A closer
// shared by both is closed once.
func (rw ReadWriter) Close() error {
	var errR, errW error
	cR, okR := rw.Reader.(io.Closer)
	cW, okW := rw.Writer.(io.Closer)

	if okR {
		errR = cR.Close()
	}
	if okW && (!okR || cR != cW) {
		errW = cW.Close()
	}

	if errR != nil {
		return errR
	}
	return errW
}
