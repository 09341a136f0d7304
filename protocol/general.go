package protocol

import "encoding/json"

// ClientInfo information about the client.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// InitializeParams parameters for the initialize request.
type InitializeParams struct {
	ProcessID             *int               `json:"processId,omitempty"`
	ClientInfo            *ClientInfo        `json:"clientInfo,omitempty"`
	RootURI               *DocumentURI       `json:"rootUri,omitempty"`
	InitializationOptions json.RawMessage    `json:"initializationOptions,omitempty"`
	Capabilities          ClientCapabilities `json:"capabilities"`
	Trace                 string             `json:"trace,omitempty"` // off, messages, verbose
	WorkspaceFolders      []WorkspaceFolder  `json:"workspaceFolders,omitempty"`
}

// WorkspaceFolder information.
type WorkspaceFolder struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
}

// ClientCapabilities defines the capabilities provided by the client.
// Only the parts this server reads are modelled.
type ClientCapabilities struct {
	TextDocument *TextDocumentClientCapabilities `json:"textDocument,omitempty"`
}

// TextDocumentClientCapabilities text document specific client capabilities.
type TextDocumentClientCapabilities struct {
	Synchronization    *TextDocumentSyncClientCapabilities   `json:"synchronization,omitempty"`
	Hover              *HoverClientCapabilities              `json:"hover,omitempty"`
	CodeAction         *CodeActionClientCapabilities         `json:"codeAction,omitempty"`
	PublishDiagnostics *PublishDiagnosticsClientCapabilities `json:"publishDiagnostics,omitempty"`
}

// TextDocumentSyncClientCapabilities capabilities for text document synchronization.
type TextDocumentSyncClientCapabilities struct {
	DidSave bool `json:"didSave,omitempty"`
}

// HoverClientCapabilities capabilities specific to hover requests.
type HoverClientCapabilities struct {
	DynamicRegistration bool         `json:"dynamicRegistration,omitempty"`
	ContentFormat       []MarkupKind `json:"contentFormat,omitempty"`
}

// CodeActionClientCapabilities capabilities specific to the `textDocument/codeAction` request.
type CodeActionClientCapabilities struct {
	DynamicRegistration bool `json:"dynamicRegistration,omitempty"`
	// Whether the client accepts CodeAction literals (LSP 3.8).
	CodeActionLiteralSupport *CodeActionLiteralSupport `json:"codeActionLiteralSupport,omitempty"`
	IsPreferredSupport       bool                      `json:"isPreferredSupport,omitempty"`
}

// CodeActionLiteralSupport defines the code action kinds that the client supports for literals.
type CodeActionLiteralSupport struct {
	CodeActionKind CodeActionKindCapability `json:"codeActionKind"`
}

// CodeActionKindCapability defines the supported CodeActionKinds.
type CodeActionKindCapability struct {
	ValueSet []CodeActionKind `json:"valueSet"`
}

// PublishDiagnosticsClientCapabilities capabilities for textDocument/publishDiagnostics.
type PublishDiagnosticsClientCapabilities struct {
	VersionSupport bool `json:"versionSupport,omitempty"`
}

// MarkupKind describes the content type that a client supports in various
// result literals like `Hover`.
type MarkupKind string

const (
	PlainText MarkupKind = "plaintext"
	Markdown  MarkupKind = "markdown"
)

// PreferredMarkup returns the first hover content format the server can
// produce, falling back to plain text.
func (c ClientCapabilities) PreferredMarkup() MarkupKind {
	if c.TextDocument == nil || c.TextDocument.Hover == nil || len(c.TextDocument.Hover.ContentFormat) == 0 {
		return PlainText
	}
	for _, kind := range c.TextDocument.Hover.ContentFormat {
		if kind == Markdown || kind == PlainText {
			return kind
		}
	}
	return PlainText
}

// InitializeResult result of the initialize request.
type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
	ServerInfo   *ServerInfo        `json:"serverInfo,omitempty"`
}

// ServerInfo information about the server.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// ServerCapabilities defines the capabilities provided by the server.
type ServerCapabilities struct {
	TextDocumentSync   *TextDocumentSyncOptions `json:"textDocumentSync,omitempty"`
	HoverProvider      *HoverOptions            `json:"hoverProvider,omitempty"`
	CodeActionProvider *CodeActionOptions       `json:"codeActionProvider,omitempty"`
}

// TextDocumentSyncOptions defines how text documents are synced.
type TextDocumentSyncOptions struct {
	OpenClose bool                 `json:"openClose,omitempty"`
	Change    TextDocumentSyncKind `json:"change,omitempty"`
	Save      *SaveOptions         `json:"save,omitempty"`
}

// TextDocumentSyncKind defines the type of sync notifications.
type TextDocumentSyncKind int

const (
	// SyncNone documents should not be synced at all.
	SyncNone TextDocumentSyncKind = 0
	// SyncFull documents are synced by sending the full content on change.
	SyncFull TextDocumentSyncKind = 1
	// SyncIncremental documents are synced by sending incremental changes.
	SyncIncremental TextDocumentSyncKind = 2
)

// WorkDoneProgressOptions options for work done progress reporting.
type WorkDoneProgressOptions struct {
	WorkDoneProgress bool `json:"workDoneProgress,omitempty"`
}

// SaveOptions controls didSave notifications.
type SaveOptions struct {
	IncludeText bool `json:"includeText,omitempty"`
}

// InitializedParams parameters for the initialized notification. Empty struct.
type InitializedParams struct{}

// ShutdownParams parameters for the shutdown request. Empty struct.
type ShutdownParams struct{}

// ExitParams parameters for the exit notification. Empty struct.
type ExitParams struct{}

// MessageType for log and show messages.
type MessageType int

const (
	Error   MessageType = 1
	Warning MessageType = 2
	Info    MessageType = 3
	Log     MessageType = 4
)

// ShowMessageParams parameters for window/showMessage notification.
type ShowMessageParams struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

// LogMessageParams parameters for window/logMessage notification.
type LogMessageParams struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

// CancelParams parameters for the $/cancelRequest notification.
type CancelParams struct {
	ID json.RawMessage `json:"id"` // number | string
}

// ProgressParams parameters for the $/progress notification.
type ProgressParams struct {
	Token json.RawMessage `json:"token"` // number | string
	Value json.RawMessage `json:"value"`
}
