// Package jsonrpc2 implements the JSON-RPC 2.0 message layer used by the
// Language Server Protocol, framed with Content-Length headers.
package jsonrpc2

import (
	"encoding/json"
	"fmt"
)

const Version = "2.0"

// RequestMessage represents a JSON-RPC request.
type RequestMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"` // string or number, kept raw so it echoes back unchanged
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// ResponseMessage represents a JSON-RPC response.
type ResponseMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

// NotificationMessage represents a JSON-RPC notification.
type NotificationMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// ErrorObject represents a JSON-RPC error object.
type ErrorObject struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *ErrorObject) Error() string {
	return fmt.Sprintf("jsonrpc2 error %d: %s", e.Code, e.Message)
}

// Error codes defined by JSON-RPC 2.0.
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

// Error codes defined by LSP.
const (
	ServerNotInitialized = -32002
	RequestCancelled     = -32800
	ContentModified      = -32801
)

// NewError creates a new ErrorObject.
func NewError(code int, message string) *ErrorObject {
	return &ErrorObject{Code: code, Message: message}
}

// Errorf creates a new ErrorObject with a formatted message.
func Errorf(code int, format string, args ...any) *ErrorObject {
	return &ErrorObject{Code: code, Message: fmt.Sprintf(format, args...)}
}
