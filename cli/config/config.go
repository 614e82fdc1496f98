// Package config loads the oracle CLI configuration file.
//
// The file is YAML or TOML, chosen by extension. Its location comes from the
// ORACLE_CONFIG environment variable, or the first of .oracle.yaml,
// .oracle.yml and .oracle.toml found in the working directory. Command-line
// flags override anything set here.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable holding an explicit config path.
const EnvVar = "ORACLE_CONFIG"

// DefaultNames are the file names searched for when EnvVar is unset.
var DefaultNames = []string{".oracle.yaml", ".oracle.yml", ".oracle.toml"}

// ErrInvalidConfig is matched by errors for files that parse but hold
// unusable values.
var ErrInvalidConfig = errors.New("invalid config")

// Format is a configuration file format.
type Format int

const (
	FormatAuto Format = iota // detect from extension
	FormatYAML
	FormatTOML
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatTOML:
		return "toml"
	case FormatAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// RenderFormats lists the values accepted for Config.Format.
var RenderFormats = []string{"text", "markdown", "html", "terminal"}

// Config holds CLI settings.
type Config struct {
	Format         string `yaml:"format" toml:"format"`
	WordWrap       int    `yaml:"word_wrap" toml:"word_wrap"`
	NoColor        bool   `yaml:"no_color" toml:"no_color"`
	Markdown       bool   `yaml:"markdown" toml:"markdown"`
	Cards          string `yaml:"cards" toml:"cards"`
	Symbology      string `yaml:"symbology" toml:"symbology"`
	SymbolFallback bool   `yaml:"symbol_fallback" toml:"symbol_fallback"`
	Debounce       string `yaml:"debounce" toml:"debounce"`
	Debug          bool   `yaml:"debug" toml:"debug"`

	path string
}

// Default returns the settings used when no file is found.
func Default() *Config {
	return &Config{
		Format:   "text",
		WordWrap: 80,
		Debounce: "200ms",
	}
}

// Path returns the file the config was loaded from, or "" for defaults.
func (c *Config) Path() string { return c.path }

// DebounceDuration returns the parsed watch debounce.
func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Debounce)
	if err != nil {
		return 0
	}
	return d
}

// Validate reports the first unusable value.
func (c *Config) Validate() error {
	if !slices.Contains(RenderFormats, c.Format) {
		return fmt.Errorf("%w: format %q (want one of %s)", ErrInvalidConfig, c.Format, strings.Join(RenderFormats, ", "))
	}
	if c.WordWrap < 0 {
		return fmt.Errorf("%w: word_wrap must not be negative, got %d", ErrInvalidConfig, c.WordWrap)
	}
	if d, err := time.ParseDuration(c.Debounce); err != nil || d <= 0 {
		return fmt.Errorf("%w: debounce %q is not a positive duration", ErrInvalidConfig, c.Debounce)
	}
	return nil
}

// Discover finds and loads the config file. With nothing to load it returns
// the defaults.
func Discover(dir string) (*Config, error) {
	if path := os.Getenv(EnvVar); path != "" {
		return Load(path)
	}
	for _, name := range DefaultNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return Default(), nil
}

// Load reads a config file, choosing the format from its extension.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := LoadFromBytes(content, DetectFormat(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.path = path
	return cfg, nil
}

// LoadFromBytes parses content over the defaults and validates the result.
// Unknown keys are rejected.
func LoadFromBytes(content []byte, format Format) (*Config, error) {
	cfg := Default()

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(content))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("YAML parse error: %w", err)
		}
	case FormatTOML, FormatAuto:
		md, err := toml.Decode(string(content), cfg)
		if err != nil {
			return nil, fmt.Errorf("TOML parse error: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%w: unknown key %q", ErrInvalidConfig, undecoded[0].String())
		}
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DetectFormat maps a file extension to a format. Unknown extensions are
// read as TOML.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}
