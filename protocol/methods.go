package protocol

// Method names handled or sent by the server.
const (
	// Text Document Synchronization
	MethodTextDocumentDidOpen   = "textDocument/didOpen"
	MethodTextDocumentDidChange = "textDocument/didChange"
	MethodTextDocumentDidSave   = "textDocument/didSave"
	MethodTextDocumentDidClose  = "textDocument/didClose"

	// Language Features
	MethodTextDocumentHover      = "textDocument/hover"
	MethodTextDocumentCodeAction = "textDocument/codeAction"
	MethodCodeActionResolve      = "codeAction/resolve"

	// Window Features
	MethodWindowShowMessage = "window/showMessage"
	MethodWindowLogMessage  = "window/logMessage"

	// Diagnostics
	MethodTextDocumentPublishDiagnostics = "textDocument/publishDiagnostics"

	// General Lifecycle
	MethodInitialize    = "initialize"
	MethodInitialized   = "initialized"
	MethodShutdown      = "shutdown"
	MethodExit          = "exit"
	MethodCancelRequest = "$/cancelRequest"
	MethodProgress      = "$/progress"
)
