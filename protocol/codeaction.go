package protocol

import "encoding/json"

// CodeActionParams parameters for textDocument/codeAction request.
type CodeActionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Range        Range                  `json:"range"`
	Context      CodeActionContext      `json:"context"`
}

// CodeActionContext carries the diagnostics and kinds the client is asking about.
type CodeActionContext struct {
	Diagnostics []Diagnostic `json:"diagnostics"`
	// Requested kinds. Empty means all kinds.
	Only []CodeActionKind `json:"only,omitempty"`
}

// CodeActionKind defines kinds of code actions.
type CodeActionKind string

const (
	QuickFix        CodeActionKind = "quickfix"
	Refactor        CodeActionKind = "refactor"
	RefactorRewrite CodeActionKind = "refactor.rewrite"
	Source          CodeActionKind = "source"
)

// Includes reports whether kind k is requested by a filter list using the
// protocol's hierarchical matching ("refactor" includes "refactor.rewrite").
func (k CodeActionKind) Includes(only []CodeActionKind) bool {
	if len(only) == 0 {
		return true
	}
	for _, o := range only {
		if k == o || len(k) > len(o) && k[:len(o)] == o && k[len(o)] == '.' {
			return true
		}
	}
	return false
}

// CodeAction represents a change that can be applied to a document.
type CodeAction struct {
	Title       string          `json:"title"`
	Kind        CodeActionKind  `json:"kind,omitempty"`
	Diagnostics []Diagnostic    `json:"diagnostics,omitempty"`
	IsPreferred bool            `json:"isPreferred,omitempty"`
	Edit        *WorkspaceEdit  `json:"edit,omitempty"`
	Command     *Command        `json:"command,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// Command represents a reference to a command.
type Command struct {
	Title     string            `json:"title"`
	Command   string            `json:"command"`
	Arguments []json.RawMessage `json:"arguments,omitempty"`
}

// CodeActionOptions defines server capabilities for CodeAction.
type CodeActionOptions struct {
	WorkDoneProgressOptions
	CodeActionKinds []CodeActionKind `json:"codeActionKinds,omitempty"`
	ResolveProvider bool             `json:"resolveProvider,omitempty"`
}
