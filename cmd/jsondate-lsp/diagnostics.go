package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/akhenakh/jsondate-lsp/documents"
	"github.com/akhenakh/jsondate-lsp/jsondate"
	"github.com/akhenakh/jsondate-lsp/protocol"
)

const diagnosticSource = "jsondate"

// Diagnostic codes.
const (
	codeNoPayload  = "date-no-payload"
	codeOutOfRange = "date-out-of-range"
)

// diagnose reports wrapped date tokens that a strict parse rejects. Bare
// Date(...) calls are left alone; they are usually code, not data.
func diagnose(doc documents.Document) []protocol.Diagnostic {
	text := doc.Snapshot()
	var diags []protocol.Diagnostic
	for _, occ := range text.Scan() {
		if !occ.Wrapped {
			continue
		}
		payload := text.Slice(occ.Group)
		_, err := jsondate.Parse(payload)
		if err == nil {
			continue
		}

		d := protocol.Diagnostic{
			Range:    doc.RangeOf(occ.Wire),
			Severity: protocol.SeverityWarning,
			Source:   diagnosticSource,
		}
		var rangeErr *jsondate.RangeError
		switch {
		case errors.As(err, &rangeErr):
			d.Code = diagnosticCode(codeOutOfRange)
			d.Message = fmt.Sprintf("Date token %s: %s %s is out of range", payload, rangeErr.Field, rangeErr.Value)
		default:
			d.Code = diagnosticCode(codeNoPayload)
			d.Message = fmt.Sprintf("Date token %s has no millisecond tick count", payload)
		}
		diags = append(diags, d)
	}
	return diags
}

func diagnosticCode(code string) json.RawMessage {
	raw, _ := json.Marshal(code)
	return raw
}
