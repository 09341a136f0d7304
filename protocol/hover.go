package protocol

// HoverParams parameters for textDocument/hover request.
type HoverParams struct {
	TextDocumentPositionParams
}

// TextDocumentPositionParams parameters for requests identifying a text document and position.
type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

// Hover result for textDocument/hover request.
type Hover struct {
	Contents MarkupContent `json:"contents"`
	Range    *Range        `json:"range,omitempty"` // Range the hover applies to
}

// MarkupContent represents structured content for display (like hover).
type MarkupContent struct {
	Kind  MarkupKind `json:"kind"`
	Value string     `json:"value"`
}

// HoverOptions defines server capabilities for Hover.
type HoverOptions struct {
	WorkDoneProgressOptions
}
