package logfields

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

// TestHelperKeyNames verifies helper keys stay stable for log consumers.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"Method", KeyMethod, "textDocument/hover", Method("textDocument/hover")},
		{"RequestID", KeyRequestID, `"7"`, RequestID([]byte(`"7"`))},
		{"URI", KeyURI, "file:///a.json", URI("file:///a.json")},
		{"Version", KeyVersion, "3", Version(3)},
		{"State", KeyState, "running", State("running")},
		{"Result", KeyResult, "shown", Result("shown")},
		{"Count", KeyCount, "2", Count(2)},
		{"Layout", KeyLayout, "iso", Layout("iso")},
		{"Duration", KeyDurationMS, "1.5", Duration(1500 * time.Microsecond)},
		{"Error", KeyError, "boom", Error(errors.New("boom"))},
		{"NilError", KeyError, "", Error(nil)},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}
