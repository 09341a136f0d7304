package documents

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/akhenakh/jsondate-lsp/navigator"
	"github.com/akhenakh/jsondate-lsp/protocol"
)

// Document is a snapshot of an open text document.
type Document struct {
	URI        protocol.DocumentURI
	LanguageID string
	Version    int
	Text       string
}

// Snapshot returns the document text for navigation.
func (d Document) Snapshot() navigator.Text {
	return navigator.Text(d.Text)
}

// OffsetAt converts an LSP position (zero-based line, UTF-16 character) to a
// byte offset. Positions past the end of a line clamp to the line end, lines
// past the end of the document clamp to the document end.
func (d Document) OffsetAt(pos protocol.Position) int {
	text := d.Text
	lineStart := 0
	for line := uint(0); line < pos.Line; line++ {
		i := strings.IndexByte(text[lineStart:], '\n')
		if i < 0 {
			return len(text)
		}
		lineStart += i + 1
	}

	units := uint(0)
	for i, r := range text[lineStart:] {
		if r == '\n' || units >= pos.Character {
			return lineStart + i
		}
		units += uint(utf16Len(r))
	}
	return len(text)
}

// PositionAt converts a byte offset to an LSP position.
func (d Document) PositionAt(offset int) protocol.Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(d.Text) {
		offset = len(d.Text)
	}
	before := d.Text[:offset]
	lineStart := strings.LastIndexByte(before, '\n') + 1

	units := 0
	for _, r := range before[lineStart:] {
		units += utf16Len(r)
	}
	return protocol.Position{
		Line:      uint(strings.Count(before, "\n")),
		Character: uint(units),
	}
}

// RangeOf converts a byte span to an LSP range.
func (d Document) RangeOf(span navigator.Span) protocol.Range {
	return protocol.Range{Start: d.PositionAt(span.Start), End: d.PositionAt(span.End)}
}

// SpanOf converts an LSP range to a byte span.
func (d Document) SpanOf(rng protocol.Range) navigator.Span {
	return navigator.Span{Start: d.OffsetAt(rng.Start), End: d.OffsetAt(rng.End)}
}

func utf16Len(r rune) int {
	if r == utf8.RuneError {
		return 1
	}
	return utf16.RuneLen(r)
}
