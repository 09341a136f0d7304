package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field names shared by the server and its handlers.
const (
	KeyMethod     = "method"
	KeyRequestID  = "request_id"
	KeyURI        = "uri"
	KeyVersion    = "version"
	KeyState      = "state"
	KeyDurationMS = "duration_ms"
	KeyResult     = "result"
	KeyCount      = "count"
	KeyLayout     = "layout"
	KeyError      = "error"
)

func Method(m string) slog.Attr      { return slog.String(KeyMethod, m) }
func RequestID(raw []byte) slog.Attr { return slog.String(KeyRequestID, string(raw)) }
func URI(u string) slog.Attr         { return slog.String(KeyURI, u) }
func Version(v int) slog.Attr        { return slog.Int(KeyVersion, v) }
func State(s string) slog.Attr       { return slog.String(KeyState, s) }
func Result(r string) slog.Attr      { return slog.String(KeyResult, r) }
func Count(n int) slog.Attr          { return slog.Int(KeyCount, n) }
func Layout(l string) slog.Attr      { return slog.String(KeyLayout, l) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
