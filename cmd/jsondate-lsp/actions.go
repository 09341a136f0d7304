package main

import (
	"context"
	"fmt"

	"github.com/akhenakh/jsondate-lsp/documents"
	"github.com/akhenakh/jsondate-lsp/jsondate"
	"github.com/akhenakh/jsondate-lsp/logfields"
	"github.com/akhenakh/jsondate-lsp/navigator"
	"github.com/akhenakh/jsondate-lsp/protocol"
)

const convertTitle = "Convert to ISO-8601"

// conversion replaces one wire-form token with its ISO rendering.
type conversion struct {
	wire navigator.Span
	iso  string
}

// conversions lists every wrapped token in doc that parses strictly.
func conversions(doc documents.Document) []conversion {
	text := doc.Snapshot()
	var out []conversion
	for _, occ := range text.Scan() {
		if !occ.Wrapped {
			continue
		}
		tok, err := jsondate.Parse(text.Slice(occ.Group))
		if err != nil {
			continue
		}
		out = append(out, conversion{wire: occ.Wire, iso: jsondate.FormatInstant(tok, jsondate.LayoutISO)})
	}
	return out
}

func (ls *langServer) codeAction(ctx context.Context, params *protocol.CodeActionParams) ([]protocol.CodeAction, error) {
	if session, _, _ := ls.settings(); !session.CodeActions {
		return nil, nil
	}
	doc, ok := ls.docs.Get(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	all := conversions(doc)
	if len(all) == 0 {
		return nil, nil
	}

	var actions []protocol.CodeAction
	if protocol.RefactorRewrite.Includes(params.Context.Only) {
		selection := doc.SpanOf(params.Range)
		for _, c := range all {
			if !c.wire.Overlaps(selection) {
				continue
			}
			actions = append(actions, protocol.CodeAction{
				Title: fmt.Sprintf("%s: %s", convertTitle, c.iso),
				Kind:  protocol.RefactorRewrite,
				Edit:  workspaceEdit(doc, c),
			})
		}
	}
	if protocol.Source.Includes(params.Context.Only) && len(all) > 1 {
		actions = append(actions, protocol.CodeAction{
			Title: fmt.Sprintf("%s: all %d date tokens", convertTitle, len(all)),
			Kind:  protocol.Source,
			Edit:  workspaceEdit(doc, all...),
		})
	}

	ls.logger.Debug("Offering code actions", logfields.URI(string(doc.URI)), logfields.Count(len(actions)))
	return actions, nil
}

// workspaceEdit builds a versioned edit so a stale action is rejected by the client.
func workspaceEdit(doc documents.Document, convs ...conversion) *protocol.WorkspaceEdit {
	edits := make([]protocol.TextEdit, 0, len(convs))
	for _, c := range convs {
		edits = append(edits, protocol.TextEdit{Range: doc.RangeOf(c.wire), NewText: c.iso})
	}
	return &protocol.WorkspaceEdit{
		DocumentChanges: []protocol.TextDocumentEdit{{
			TextDocument: protocol.VersionedTextDocumentIdentifier{
				TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: doc.URI},
				Version:                doc.Version,
			},
			Edits: edits,
		}},
	}
}
