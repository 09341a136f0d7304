package jsondate

import (
	"fmt"
	"strings"
	"time"
)

// Layout selects how the resolved instant is displayed.
type Layout string

const (
	// LayoutISO renders RFC 3339 with millisecond precision and an explicit
	// offset, "Z" for UTC. It is the default.
	LayoutISO Layout = "iso"
	// LayoutDotNet renders the en-US general date/time pattern with offset,
	// e.g. "10/18/2011 11:01:52 PM -05:00".
	LayoutDotNet Layout = "dotnet"
	// LayoutRFC1123 renders e.g. "Tue, 18 Oct 2011 23:01:52 -0500".
	LayoutRFC1123 Layout = "rfc1123"
)

var layouts = map[Layout]string{
	LayoutISO:     "2006-01-02T15:04:05.999Z07:00",
	LayoutDotNet:  "1/2/2006 3:04:05 PM -07:00",
	LayoutRFC1123: time.RFC1123Z,
}

// ParseLayout resolves a layout name, case-insensitively. The empty name is LayoutISO.
func ParseLayout(name string) (Layout, error) {
	if name == "" {
		return LayoutISO, nil
	}
	l := Layout(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := layouts[l]; !ok {
		return "", fmt.Errorf("unknown date layout %q (want iso, dotnet or rfc1123)", name)
	}
	return l, nil
}

// Tooltip is the two-line rendering of a token.
type Tooltip struct {
	// Source is the bracketed text, echoed verbatim.
	Source string
	// Display is the instant rendered in the token's offset.
	Display string
}

// Lines returns the tooltip as display lines.
func (t Tooltip) Lines() []string {
	return []string{t.Source, t.Display}
}

// Format renders a token with the given layout. Unknown layouts fall back to LayoutISO.
func Format(tok Token, layout Layout) Tooltip {
	return Tooltip{
		Source:  tok.Source,
		Display: FormatInstant(tok, layout),
	}
}

// FormatInstant renders only the instant of a token.
func FormatInstant(tok Token, layout Layout) string {
	goLayout, ok := layouts[layout]
	if !ok {
		goLayout = layouts[LayoutISO]
	}
	return tok.Instant().Format(goLayout)
}
