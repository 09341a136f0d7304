package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akhenakh/jsondate-lsp/jsondate"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	s := cfg.Session()
	assert.Equal(t, Session{Layout: jsondate.LayoutISO, Diagnostics: true, CodeActions: true}, s)
}

func TestParse(t *testing.T) {
	raw := `
layout: DotNet
diagnostics: false
logging:
  level: debug
  format: JSON
metrics:
  addr: 127.0.0.1:9464
`
	cfg, err := Parse(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "dotnet", cfg.Layout)
	assert.Equal(t, LogFormatJSON, cfg.Logging.Format)
	assert.Equal(t, "127.0.0.1:9464", cfg.Metrics.Addr)

	level, err := cfg.Logging.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	s := cfg.Session()
	assert.Equal(t, jsondate.LayoutDotNet, s.Layout)
	assert.False(t, s.Diagnostics)
	assert.True(t, s.CodeActions)
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"unknown key":    "colour: blue\n",
		"unknown layout": "layout: julian\n",
		"bad level":      "logging:\n  level: loud\n",
		"bad format":     "logging:\n  format: xml\n",
		"not yaml":       "layout: [\n",
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(raw))
			assert.Error(t, err)
		})
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("JSONDATE_TEST_LAYOUT", "rfc1123")
	path := filepath.Join(t.TempDir(), "jsondate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("layout: ${JSONDATE_TEST_LAYOUT}\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, string(jsondate.LayoutRFC1123), cfg.Layout)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSessionApply(t *testing.T) {
	base := Session{Layout: jsondate.LayoutISO, Diagnostics: true, CodeActions: true}

	tests := []struct {
		name    string
		raw     string
		want    Session
		wantErr bool
	}{
		{name: "empty", raw: "", want: base},
		{name: "null", raw: "null", want: base},
		{name: "empty object", raw: "{}", want: base},
		{
			name: "overrides",
			raw:  `{"layout":"dotnet","diagnostics":false,"codeActions":false}`,
			want: Session{Layout: jsondate.LayoutDotNet},
		},
		{
			name: "partial",
			raw:  `{"codeActions":false}`,
			want: Session{Layout: jsondate.LayoutISO, Diagnostics: true},
		},
		{name: "bad layout", raw: `{"layout":"mayan"}`, wantErr: true},
		{name: "bad json", raw: `{"layout":1}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := base.Apply(json.RawMessage(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, base, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
