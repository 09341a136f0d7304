// Package jsondate decodes the legacy ".NET JSON" date wire format,
// \/Date(<ticks>)\/ or \/Date(<ticks><sign><HHmm>)\/, where ticks are
// milliseconds since the Unix epoch and the optional suffix is a UTC offset.
//
// Parsing is a pure function of its input; every function in this package is
// safe for concurrent use.
package jsondate

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// tokenPattern mirrors the payload grammar: a signed tick count optionally
// followed by a sign, two hour digits and two minute digits. It is searched,
// not anchored, so surrounding brackets are ignored.
var tokenPattern = regexp.MustCompile(`(-?\d+)(?:([+-])(\d\d)(\d\d))?`)

// Bounds applied by the strict Parse.
const (
	// MinEpochMilliseconds is 0001-01-01T00:00:00Z.
	MinEpochMilliseconds int64 = -62135596800000
	// MaxEpochMilliseconds is 9999-12-31T23:59:59.999Z.
	MaxEpochMilliseconds int64 = 253402300799999
	// MaxOffsetMinutes is the largest UTC offset a date-with-offset value accepts (14:00).
	MaxOffsetMinutes = 14 * 60
)

var (
	// ErrNoMatch is returned when the text does not contain a date payload.
	ErrNoMatch = errors.New("jsondate: no date payload")
	// ErrOutOfRange is wrapped by every *RangeError.
	ErrOutOfRange = errors.New("jsondate: value out of range")
)

// RangeError reports a payload that matches the grammar but cannot be
// represented as a date-with-offset value.
type RangeError struct {
	Field string // "ticks" or "offset"
	Value string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("jsondate: %s %s out of range", e.Field, e.Value)
}

func (e *RangeError) Unwrap() error { return ErrOutOfRange }

// Token is a decoded date payload.
type Token struct {
	// Source is the text the token was parsed from, kept verbatim.
	Source string
	// EpochMilliseconds is the signed count of milliseconds since 1970-01-01T00:00:00Z.
	EpochMilliseconds int64
	// OffsetMinutes is the display offset; positive is ahead of UTC.
	OffsetMinutes int
	// Overflow is set when the tick count did not fit in an int64 and
	// EpochMilliseconds was defaulted to 0.
	Overflow bool
}

// Instant returns the UTC instant of the token carried in a fixed zone of
// the token's offset. Only the zone, never the instant, depends on the offset.
func (t Token) Instant() time.Time {
	return time.UnixMilli(t.EpochMilliseconds).In(Zone(t.OffsetMinutes))
}

// Representable reports whether the instant and offset fit the
// date-with-offset range. An overflowed tick count defaulted to 0 counts as
// representable.
func (t Token) Representable() bool {
	return t.EpochMilliseconds >= MinEpochMilliseconds && t.EpochMilliseconds <= MaxEpochMilliseconds &&
		t.OffsetMinutes >= -MaxOffsetMinutes && t.OffsetMinutes <= MaxOffsetMinutes
}

// Zone returns a fixed zone for an offset in minutes.
func Zone(offsetMinutes int) *time.Location {
	if offsetMinutes == 0 {
		return time.UTC
	}
	return time.FixedZone("", offsetMinutes*60)
}

// TryParse looks for a date payload in text, typically the content of a
// bracketed span such as "(1318996912288-0500)". It never fails on a
// structural match: a tick count that overflows int64 becomes 0 and the
// Overflow flag is set.
func TryParse(text string) (Token, bool) {
	m := tokenPattern.FindStringSubmatch(text)
	if m == nil {
		return Token{}, false
	}

	tok := Token{Source: text}
	ms, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		tok.Overflow = true
		ms = 0
	}
	tok.EpochMilliseconds = ms

	if m[2] != "" {
		// Two ASCII digits each, cannot fail.
		hours, _ := strconv.Atoi(m[3])
		minutes, _ := strconv.Atoi(m[4])
		tok.OffsetMinutes = hours*60 + minutes
		if m[2] == "-" {
			tok.OffsetMinutes = -tok.OffsetMinutes
		}
	}
	return tok, true
}

// Parse is the strict counterpart of TryParse. It returns ErrNoMatch when
// there is no payload and a *RangeError when the tick count or the offset
// cannot be represented.
func Parse(text string) (Token, error) {
	tok, ok := TryParse(text)
	if !ok {
		return Token{}, ErrNoMatch
	}
	if tok.Overflow || tok.EpochMilliseconds < MinEpochMilliseconds || tok.EpochMilliseconds > MaxEpochMilliseconds {
		return tok, &RangeError{Field: "ticks", Value: tokenPattern.FindStringSubmatch(text)[1]}
	}
	if tok.OffsetMinutes > MaxOffsetMinutes || tok.OffsetMinutes < -MaxOffsetMinutes {
		return tok, &RangeError{Field: "offset", Value: FormatOffset(tok.OffsetMinutes)}
	}
	return tok, nil
}

// FormatOffset renders an offset in minutes as ±HHmm, the wire suffix form.
func FormatOffset(offsetMinutes int) string {
	sign := '+'
	if offsetMinutes < 0 {
		sign = '-'
		offsetMinutes = -offsetMinutes
	}
	return fmt.Sprintf("%c%02d%02d", sign, offsetMinutes/60, offsetMinutes%60)
}
