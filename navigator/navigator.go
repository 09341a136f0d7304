// Package navigator answers text-structure questions about a document
// snapshot: which bracket group encloses an offset, and which label
// immediately precedes that group.
//
// Offsets are byte offsets into the snapshot. Groups never span lines.
package navigator

import "strings"

// DateLabel is the identifier that introduces a legacy JSON date group.
const DateLabel = "Date"

// Span is a half-open byte range [Start, End).
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// IsEmpty reports whether the span covers no bytes.
func (s Span) IsEmpty() bool { return s.End <= s.Start }

// Contains reports whether offset falls inside the span.
func (s Span) Contains(offset int) bool { return offset >= s.Start && offset < s.End }

// Overlaps reports whether the two spans share at least one byte, or whether
// an empty o sits inside s.
func (s Span) Overlaps(o Span) bool {
	if o.IsEmpty() {
		return o.Start >= s.Start && o.Start <= s.End
	}
	return s.Start < o.End && o.Start < s.End
}

// Text is an immutable document snapshot.
type Text string

// Slice returns the text covered by span. Out of range spans yield "".
func (t Text) Slice(span Span) string {
	if span.Start < 0 || span.End > len(t) || span.Start > span.End {
		return ""
	}
	return string(t[span.Start:span.End])
}

// EnclosingSpan returns the innermost balanced "(...)" group on the line of
// offset that contains it, brackets included. A cursor on either bracket is
// inside the group. A cursor on a label directly followed by "(" resolves
// to that label's group.
func (t Text) EnclosingSpan(offset int) (Span, bool) {
	s := string(t)
	if offset < 0 || offset >= len(s) {
		return Span{}, false
	}

	if isWordByte(s[offset]) {
		end := offset
		for end < len(s) && isWordByte(s[end]) {
			end++
		}
		if end < len(s) && s[end] == '(' {
			offset = end
		}
	}

	open := -1
	depth := 0
scan:
	for j := offset; j >= 0; j-- {
		switch s[j] {
		case '\n':
			return Span{}, false
		case ')':
			if j < offset {
				depth++
			}
		case '(':
			if depth == 0 {
				open = j
				break scan
			}
			depth--
		}
	}
	if open < 0 {
		return Span{}, false
	}

	end, ok := matchClose(s, open)
	if !ok || end < offset {
		return Span{}, false
	}
	return Span{Start: open, End: end + 1}, true
}

// PrecedingLabel returns the identifier immediately before the group
// enclosing offset, or "" when there is none.
func (t Text) PrecedingLabel(offset int) string {
	group, ok := t.EnclosingSpan(offset)
	if !ok {
		return ""
	}
	return t.Slice(t.LabelSpan(group))
}

// LabelSpan returns the span of the identifier run that ends at the group's
// opening bracket. The span is empty when the bracket follows a non-word byte.
func (t Text) LabelSpan(group Span) Span {
	start := group.Start
	for start > 0 && isWordByte(t[start-1]) {
		start--
	}
	return Span{Start: start, End: group.Start}
}

// WireSpan extends a labelled group to the full wire form, \/Date(...)\/ or
// /Date(...)/. It reports false when the group is not wrapped that way.
func (t Text) WireSpan(group Span) (Span, bool) {
	label := t.LabelSpan(group)
	if t.Slice(label) != DateLabel {
		return Span{}, false
	}
	s := string(t)
	for _, delim := range []string{`\/`, `/`} {
		if strings.HasSuffix(s[:label.Start], delim) && strings.HasPrefix(s[group.End:], delim) {
			return Span{Start: label.Start - len(delim), End: group.End + len(delim)}, true
		}
	}
	return Span{}, false
}

// Occurrence is one "Date(...)" group found by Scan.
type Occurrence struct {
	Label Span
	Group Span
	// Wire covers the full \/Date(...)\/ token when Wrapped is set.
	Wire    Span
	Wrapped bool
}

// Scan returns every Date(...) group in the text, in order.
func (t Text) Scan() []Occurrence {
	s := string(t)
	var found []Occurrence
	for from := 0; from < len(s); {
		i := strings.Index(s[from:], DateLabel+"(")
		if i < 0 {
			break
		}
		at := from + i
		open := at + len(DateLabel)
		if at > 0 && isWordByte(s[at-1]) {
			from = open
			continue
		}
		end, ok := matchClose(s, open)
		if !ok {
			from = open + 1
			continue
		}

		occ := Occurrence{
			Label: Span{Start: at, End: open},
			Group: Span{Start: open, End: end + 1},
		}
		occ.Wire, occ.Wrapped = t.WireSpan(occ.Group)
		found = append(found, occ)
		from = end + 1
	}
	return found
}

// matchClose finds the bracket closing the one at open, on the same line.
func matchClose(s string, open int) (int, bool) {
	depth := 0
	for k := open + 1; k < len(s); k++ {
		switch s[k] {
		case '\n':
			return 0, false
		case '(':
			depth++
		case ')':
			if depth == 0 {
				return k, true
			}
			depth--
		}
	}
	return 0, false
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
