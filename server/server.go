// Package server runs a Language Server Protocol endpoint: it owns the
// connection, the initialize/shutdown/exit lifecycle and dispatches
// requests and notifications to registered handlers.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akhenakh/jsondate-lsp/jsonrpc2"
	"github.com/akhenakh/jsondate-lsp/logfields"
	"github.com/akhenakh/jsondate-lsp/metrics"
	"github.com/akhenakh/jsondate-lsp/protocol"
)

// Server represents an LSP server.
type Server struct {
	conn         *jsonrpc2.Conn
	opts         *options
	logger       *slog.Logger
	recorder     metrics.Recorder
	handlers     map[string]*typedHandler
	mu           sync.RWMutex
	state        atomic.Value // serverState
	shutdownOnce sync.Once
	pendingReqs  sync.WaitGroup

	inflightMu sync.Mutex
	inflight   map[string]context.CancelFunc
}

type serverState int

const (
	stateUninitialized serverState = iota
	stateInitializing
	stateRunning
	stateShutdown
)

func (s serverState) String() string {
	switch s {
	case stateUninitialized:
		return "uninitialized"
	case stateInitializing:
		return "initializing"
	case stateRunning:
		return "running"
	case stateShutdown:
		return "shutdown"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// NewServer creates a new LSP server. Without WithStream it talks over
// stdin/stdout.
func NewServer(opts ...Option) *Server {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	s := &Server{
		conn:     jsonrpc2.NewConn(jsonrpc2.NewStream(o.stream)),
		opts:     o,
		logger:   o.logger,
		recorder: o.recorder,
		handlers: make(map[string]*typedHandler),
		inflight: make(map[string]context.CancelFunc),
	}
	s.state.Store(stateUninitialized)
	s.registerDefaultHandlers()
	return s
}

func (s *Server) registerDefaultHandlers() {
	for method, h := range map[string]any{
		protocol.MethodInitialize:    s.handleInitialize,
		protocol.MethodInitialized:   s.handleInitialized,
		protocol.MethodShutdown:      s.handleShutdown,
		protocol.MethodExit:          s.handleExit,
		protocol.MethodCancelRequest: s.handleCancel,
		protocol.MethodProgress:      s.handleProgress,
	} {
		if err := s.Register(method, h); err != nil {
			panic(err) // built-in handler signatures are fixed
		}
	}
}

// Register associates a handler function with an LSP method name.
// See typedHandler for the accepted signatures.
func (s *Server) Register(method string, handlerFunc any) error {
	th, err := newTypedHandler(handlerFunc)
	if err != nil {
		return fmt.Errorf("invalid handler for method %s: %w", method, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.handlers[method]; exists {
		return fmt.Errorf("handler already registered for method: %s", method)
	}
	s.handlers[method] = th
	s.logger.Debug("Registered handler", logfields.Method(method))
	return nil
}

// Conn returns the client connection, for sending notifications outside a handler.
func (s *Server) Conn() *jsonrpc2.Conn {
	return s.conn
}

// Run reads messages until the connection closes or ctx is cancelled.
// Notifications are handled in arrival order on the read loop, requests
// concurrently. Run returns nil once the client has shut the server down.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Server starting listener loop")
	defer s.logger.Info("Server listener loop stopped")

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.logger.Info("Context cancelled, closing connection", logfields.Error(ctx.Err()))
			s.conn.Close() //nolint:errcheck
		case <-done:
		}
	}()

	for {
		msg, err := s.conn.Read(ctx)
		if err != nil {
			var rpcErr *jsonrpc2.ErrorObject
			if errors.As(err, &rpcErr) {
				// The frame was consumed; only its body was bad.
				s.logger.Warn("Discarding malformed message", logfields.Error(err))
				continue
			}
			if s.currentState() == stateShutdown {
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if errors.Is(err, io.EOF) {
				s.logger.Warn("Client closed connection before shutdown")
				return io.ErrUnexpectedEOF
			}
			return fmt.Errorf("fatal error reading message: %w", err)
		}

		switch m := msg.(type) {
		case *jsonrpc2.RequestMessage:
			s.pendingReqs.Add(1)
			go func() {
				defer s.pendingReqs.Done()
				s.handleRequest(ctx, m)
			}()
		case *jsonrpc2.NotificationMessage:
			s.handleNotification(ctx, m)
		case *jsonrpc2.ResponseMessage:
			s.logger.Debug("Ignoring response from client", logfields.RequestID(m.ID))
		}
	}
}

func (s *Server) currentState() serverState {
	state, _ := s.state.Load().(serverState)
	return state
}

func (s *Server) handler(method string) (*typedHandler, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.handlers[method]
	return h, ok
}

func (s *Server) handleRequest(ctx context.Context, req *jsonrpc2.RequestMessage) {
	log := s.logger.With(logfields.Method(req.Method), logfields.RequestID(req.ID))
	log.Debug("--> Request")

	switch state := s.currentState(); {
	case state == stateShutdown:
		s.sendResponse(ctx, req.ID, nil, jsonrpc2.NewError(jsonrpc2.InvalidRequest, "server is shutting down"))
		return
	case state != stateRunning && req.Method != protocol.MethodInitialize && req.Method != protocol.MethodShutdown:
		s.sendResponse(ctx, req.ID, nil, jsonrpc2.NewError(jsonrpc2.ServerNotInitialized, "server not initialized"))
		return
	}

	handler, found := s.handler(req.Method)
	if !found {
		s.sendResponse(ctx, req.ID, nil, jsonrpc2.Errorf(jsonrpc2.MethodNotFound, "method not found: %s", req.Method))
		return
	}

	reqCtx, cancel := context.WithCancel(ctx)
	key := string(req.ID)
	s.inflightMu.Lock()
	s.inflight[key] = cancel
	s.inflightMu.Unlock()
	defer func() {
		s.inflightMu.Lock()
		delete(s.inflight, key)
		s.inflightMu.Unlock()
		cancel()
	}()

	start := time.Now()
	result, err := handler.invoke(reqCtx, s.conn, req.Params)
	outcome := metrics.OutcomeOK

	var errResp *jsonrpc2.ErrorObject
	switch {
	case reqCtx.Err() != nil && ctx.Err() == nil:
		outcome = metrics.OutcomeCancelled
		errResp = jsonrpc2.NewError(jsonrpc2.RequestCancelled, "request cancelled")
	case err != nil:
		outcome = metrics.OutcomeError
		if !errors.As(err, &errResp) {
			log.Error("Handler failed", logfields.Error(err))
			errResp = jsonrpc2.NewError(jsonrpc2.InternalError, err.Error())
		}
	}
	elapsed := time.Since(start)
	s.recorder.ObserveRequest(req.Method, elapsed, outcome)
	log.Debug("Request handled", logfields.Result(string(outcome)), logfields.Duration(elapsed))

	s.sendResponse(ctx, req.ID, result, errResp)
}

func (s *Server) handleNotification(ctx context.Context, n *jsonrpc2.NotificationMessage) {
	log := s.logger.With(logfields.Method(n.Method))
	log.Debug("--> Notification")

	state := s.currentState()
	if state == stateShutdown && n.Method != protocol.MethodExit {
		log.Debug("Ignoring notification during shutdown")
		return
	}
	early := n.Method == protocol.MethodExit || n.Method == protocol.MethodCancelRequest || n.Method == protocol.MethodProgress
	if state == stateUninitialized && !early {
		log.Debug("Ignoring notification before initialization")
		return
	}

	handler, found := s.handler(n.Method)
	if !found {
		// Unknown notifications are ignored per the protocol.
		log.Debug("No handler for notification")
		return
	}
	if _, err := handler.invoke(ctx, s.conn, n.Params); err != nil {
		log.Warn("Notification handler failed", logfields.Error(err))
	}
}

func (s *Server) sendResponse(ctx context.Context, id json.RawMessage, result any, respErr *jsonrpc2.ErrorObject) {
	response := &jsonrpc2.ResponseMessage{
		JSONRPC: jsonrpc2.Version,
		ID:      id,
	}

	switch {
	case respErr != nil:
		response.Error = respErr
	case result != nil:
		raw, err := json.Marshal(result)
		if err != nil {
			s.logger.Error("Cannot marshal result", logfields.RequestID(id), logfields.Error(err))
			response.Error = jsonrpc2.Errorf(jsonrpc2.InternalError, "failed to marshal result: %v", err)
		} else {
			response.Result = raw
		}
	default:
		response.Result = json.RawMessage("null")
	}

	if err := s.conn.Write(ctx, response); err != nil {
		s.logger.Error("Cannot write response", logfields.RequestID(id), logfields.Error(err))
	}
}

func (s *Server) handleInitialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	if !s.state.CompareAndSwap(stateUninitialized, stateInitializing) {
		return nil, jsonrpc2.NewError(jsonrpc2.InvalidRequest, "server already initialized or is shutting down")
	}
	if params.ClientInfo != nil {
		s.logger.Info("Client connected", "client", params.ClientInfo.Name, "client_version", params.ClientInfo.Version)
	}

	if hook := s.opts.onInitialize; hook != nil {
		if err := hook(ctx, params); err != nil {
			s.state.Store(stateUninitialized)
			return nil, jsonrpc2.Errorf(jsonrpc2.InvalidParams, "initialize: %v", err)
		}
	}

	info := s.opts.info
	return &protocol.InitializeResult{
		Capabilities: s.determineServerCapabilities(),
		ServerInfo:   &info,
	}, nil
}

// determineServerCapabilities advertises what the registered handlers support.
func (s *Server) determineServerCapabilities() protocol.ServerCapabilities {
	s.mu.RLock()
	defer s.mu.RUnlock()

	caps := protocol.ServerCapabilities{}

	_, hasOpen := s.handlers[protocol.MethodTextDocumentDidOpen]
	_, hasChange := s.handlers[protocol.MethodTextDocumentDidChange]
	_, hasClose := s.handlers[protocol.MethodTextDocumentDidClose]
	_, hasSave := s.handlers[protocol.MethodTextDocumentDidSave]
	if hasOpen || hasChange || hasClose || hasSave {
		caps.TextDocumentSync = &protocol.TextDocumentSyncOptions{
			OpenClose: hasOpen || hasClose,
		}
		if hasChange {
			caps.TextDocumentSync.Change = s.opts.syncKind
		}
		if hasSave {
			caps.TextDocumentSync.Save = &protocol.SaveOptions{}
		}
	}

	if _, ok := s.handlers[protocol.MethodTextDocumentHover]; ok {
		caps.HoverProvider = &protocol.HoverOptions{}
	}

	if _, ok := s.handlers[protocol.MethodTextDocumentCodeAction]; ok {
		caps.CodeActionProvider = &protocol.CodeActionOptions{CodeActionKinds: s.opts.codeActionKinds}
		if _, ok := s.handlers[protocol.MethodCodeActionResolve]; ok {
			caps.CodeActionProvider.ResolveProvider = true
		}
	}
	return caps
}

func (s *Server) handleInitialized(ctx context.Context, params *protocol.InitializedParams) error {
	if s.state.CompareAndSwap(stateInitializing, stateRunning) {
		s.logger.Info("Server running")
	} else {
		s.logger.Warn("Unexpected initialized notification", logfields.State(s.currentState().String()))
	}
	return nil
}

func (s *Server) handleShutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		prev := s.currentState()
		s.state.Store(stateShutdown)
		s.logger.Info("Server shutting down", logfields.State(prev.String()))
	})
	return nil
}

// handleExit waits briefly for in-flight requests, closes the connection and
// exits with 0 after a shutdown request, 1 otherwise.
func (s *Server) handleExit(ctx context.Context) {
	exitCode := 1
	if s.currentState() == stateShutdown {
		exitCode = 0
	} else {
		s.logger.Warn("Exit without prior shutdown")
	}

	waitCh := make(chan struct{})
	go func() {
		s.pendingReqs.Wait()
		close(waitCh)
	}()
	select {
	case <-waitCh:
	case <-time.After(s.opts.exitWait):
		s.logger.Warn("Timed out waiting for pending requests during exit")
	}

	// Later reads fail on the closed connection; Run reports them by state.
	s.state.Store(stateShutdown)
	if err := s.conn.Close(); err != nil {
		s.logger.Warn("Error closing connection during exit", logfields.Error(err))
	}
	s.logger.Info("Exiting", "code", exitCode)
	s.opts.exit(exitCode)
}

// handleCancel cancels the context of an in-flight request.
func (s *Server) handleCancel(ctx context.Context, params *protocol.CancelParams) {
	key := string(params.ID)
	s.inflightMu.Lock()
	cancel, ok := s.inflight[key]
	s.inflightMu.Unlock()
	if !ok {
		s.logger.Debug("Cancel for unknown or finished request", logfields.RequestID(params.ID))
		return
	}
	cancel()
}

func (s *Server) handleProgress(ctx context.Context, params *protocol.ProgressParams) {
	s.logger.Debug("Progress notification", "token", string(params.Token))
}

// Notify sends a notification to the client. It fails unless the server is running.
func (s *Server) Notify(ctx context.Context, method string, params any) error {
	if state := s.currentState(); state != stateRunning {
		return fmt.Errorf("cannot send notification %s while server is %s", method, state)
	}
	return protocol.Notify(ctx, s.conn, method, params)
}
