package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/akhenakh/jsondate-lsp/jsonrpc2"
)

// ErrNoConn is returned when a notification is sent without a connection.
var ErrNoConn = errors.New("protocol: nil connection")

// Notify marshals params and writes a notification on conn.
func Notify(ctx context.Context, conn *jsonrpc2.Conn, method string, params any) error {
	if conn == nil {
		return fmt.Errorf("%s: %w", method, ErrNoConn)
	}
	rawParams, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal %s params: %w", method, err)
	}
	notification := &jsonrpc2.NotificationMessage{
		JSONRPC: jsonrpc2.Version,
		Method:  method,
		Params:  rawParams,
	}
	if err := conn.Write(ctx, notification); err != nil {
		return fmt.Errorf("send %s: %w", method, err)
	}
	return nil
}

// ShowMessage asks the client to display a message.
func ShowMessage(ctx context.Context, conn *jsonrpc2.Conn, msgType MessageType, message string) error {
	return Notify(ctx, conn, MethodWindowShowMessage, ShowMessageParams{Type: msgType, Message: message})
}

// LogMessage writes a message to the client's log output.
func LogMessage(ctx context.Context, conn *jsonrpc2.Conn, msgType MessageType, message string) error {
	return Notify(ctx, conn, MethodWindowLogMessage, LogMessageParams{Type: msgType, Message: message})
}

// PublishDiagnostics replaces the client's diagnostics for a document. An
// empty slice clears them.
func PublishDiagnostics(ctx context.Context, conn *jsonrpc2.Conn, uri DocumentURI, version *int, diagnostics []Diagnostic) error {
	if diagnostics == nil {
		diagnostics = []Diagnostic{}
	}
	return Notify(ctx, conn, MethodTextDocumentPublishDiagnostics, PublishDiagnosticsParams{
		URI:         uri,
		Version:     version,
		Diagnostics: diagnostics,
	})
}
