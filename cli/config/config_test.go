package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{".oracle.yaml", FormatYAML},
		{"conf/ORACLE.YML", FormatYAML},
		{".oracle.toml", FormatTOML},
		{"oracle.conf", FormatTOML},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectFormat(tt.path), tt.path)
	}
}

func TestLoadFromBytes(t *testing.T) {
	yamlDoc := `
format: markdown
word_wrap: 60
cards: cards.json
symbol_fallback: true
debounce: 1s
`
	tomlDoc := `
format = "markdown"
word_wrap = 60
cards = "cards.json"
symbol_fallback = true
debounce = "1s"
`
	for name, tc := range map[string]struct {
		content string
		format  Format
	}{
		"yaml": {yamlDoc, FormatYAML},
		"toml": {tomlDoc, FormatTOML},
	} {
		t.Run(name, func(t *testing.T) {
			cfg, err := LoadFromBytes([]byte(tc.content), tc.format)
			require.NoError(t, err)

			assert.Equal(t, "markdown", cfg.Format)
			assert.Equal(t, 60, cfg.WordWrap)
			assert.Equal(t, "cards.json", cfg.Cards)
			assert.True(t, cfg.SymbolFallback)
			assert.Equal(t, time.Second, cfg.DebounceDuration())
			assert.False(t, cfg.NoColor)
		})
	}
}

func TestLoadFromBytesKeepsDefaults(t *testing.T) {
	cfg, err := LoadFromBytes([]byte("no_color: true\n"), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, 80, cfg.WordWrap)
	assert.Equal(t, 200*time.Millisecond, cfg.DebounceDuration())
	assert.True(t, cfg.NoColor)
}

func TestLoadFromBytesEmpty(t *testing.T) {
	for _, f := range []Format{FormatYAML, FormatTOML} {
		cfg, err := LoadFromBytes(nil, f)
		require.NoError(t, err, f.String())
		assert.Equal(t, Default(), cfg)
	}
}

func TestLoadFromBytesRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
		format  Format
		invalid bool
	}{
		{"unknown yaml key", "colour: true\n", FormatYAML, false},
		{"unknown toml key", "colour = true\n", FormatTOML, true},
		{"bad yaml", "format: [\n", FormatYAML, false},
		{"bad toml", "format = \n", FormatTOML, false},
		{"unknown format", "format: pdf\n", FormatYAML, true},
		{"negative wrap", "word_wrap = -1\n", FormatTOML, true},
		{"bad debounce", "debounce: soon\n", FormatYAML, true},
		{"zero debounce", "debounce = \"0s\"\n", FormatTOML, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.content), tt.format)
			require.Error(t, err)
			if tt.invalid {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}

func TestDiscover(t *testing.T) {
	t.Run("defaults when nothing is found", func(t *testing.T) {
		t.Setenv(EnvVar, "")
		cfg, err := Discover(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, "", cfg.Path())
		assert.Equal(t, "text", cfg.Format)
	})

	t.Run("finds dotfile in dir", func(t *testing.T) {
		t.Setenv(EnvVar, "")
		dir := t.TempDir()
		path := filepath.Join(dir, ".oracle.toml")
		require.NoError(t, os.WriteFile(path, []byte(`format = "html"`), 0o644))

		cfg, err := Discover(dir)
		require.NoError(t, err)
		assert.Equal(t, path, cfg.Path())
		assert.Equal(t, "html", cfg.Format)
	})

	t.Run("yaml wins over toml", func(t *testing.T) {
		t.Setenv(EnvVar, "")
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".oracle.toml"), []byte(`format = "html"`), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".oracle.yaml"), []byte("format: markdown\n"), 0o644))

		cfg, err := Discover(dir)
		require.NoError(t, err)
		assert.Equal(t, "markdown", cfg.Format)
	})

	t.Run("env var overrides search", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "custom.yml")
		require.NoError(t, os.WriteFile(path, []byte("format: terminal\n"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".oracle.yaml"), []byte("format: markdown\n"), 0o644))
		t.Setenv(EnvVar, path)

		cfg, err := Discover(dir)
		require.NoError(t, err)
		assert.Equal(t, "terminal", cfg.Format)
	})

	t.Run("env var pointing nowhere fails", func(t *testing.T) {
		t.Setenv(EnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
		_, err := Discover(t.TempDir())
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
