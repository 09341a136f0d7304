// Package quickinfo produces the hover tooltip for a legacy JSON date
// token. It only depends on a Navigator, so any editor integration that can
// answer the two text-structure questions can host it.
package quickinfo

import (
	"github.com/akhenakh/jsondate-lsp/jsondate"
	"github.com/akhenakh/jsondate-lsp/navigator"
)

// Navigator resolves text structure around an offset.
type Navigator interface {
	// EnclosingSpan returns the bracket group containing offset.
	EnclosingSpan(offset int) (navigator.Span, bool)
	// PrecedingLabel returns the identifier directly before that group.
	PrecedingLabel(offset int) string
	// Slice returns the text covered by span.
	Slice(span navigator.Span) string
}

// Content is what the host shows for one hover.
type Content struct {
	// Lines holds the bracket text and the formatted instant.
	Lines []string
	// ApplicableTo is the bracket span the tooltip anchors to.
	ApplicableTo navigator.Span
	Token        jsondate.Token
}

// Result says how a lookup ended.
type Result int

const (
	Shown Result = iota
	NoGroup
	GateFailed
	NoMatch
)

func (r Result) String() string {
	switch r {
	case Shown:
		return "shown"
	case NoGroup:
		return "no_group"
	case GateFailed:
		return "gate_failed"
	case NoMatch:
		return "no_match"
	}
	return "unknown"
}

// Source builds tooltips in one display layout. The zero value renders ISO.
type Source struct {
	layout jsondate.Layout
}

// NewSource returns a Source rendering instants with layout.
func NewSource(layout jsondate.Layout) *Source {
	return &Source{layout: layout}
}

// Layout returns the display layout.
func (s *Source) Layout() jsondate.Layout {
	if s.layout == "" {
		return jsondate.LayoutISO
	}
	return s.layout
}

// Augment returns the tooltip for offset, or false when nothing applies.
func (s *Source) Augment(nav Navigator, offset int) (Content, bool) {
	c, r := s.Lookup(nav, offset)
	return c, r == Shown
}

// Lookup is Augment with the reason a tooltip was not produced.
func (s *Source) Lookup(nav Navigator, offset int) (Content, Result) {
	span, ok := nav.EnclosingSpan(offset)
	if !ok {
		return Content{}, NoGroup
	}
	if nav.PrecedingLabel(offset) != navigator.DateLabel {
		return Content{}, GateFailed
	}

	// Out-of-range values have no well-formed rendering.
	tok, ok := jsondate.TryParse(nav.Slice(span))
	if !ok || !tok.Representable() {
		return Content{}, NoMatch
	}

	tip := jsondate.Format(tok, s.Layout())
	return Content{
		Lines:        tip.Lines(),
		ApplicableTo: span,
		Token:        tok,
	}, Shown
}
