package cardsource

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/mod/semver"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

var (
	// ErrInvalidData is matched by errors for input that fails its schema.
	ErrInvalidData = errors.New("invalid card data")

	// ErrUnsupportedVersion is matched by errors for data files whose
	// version is not a v1 semantic version.
	ErrUnsupportedVersion = errors.New("unsupported data version")
)

var (
	cardsSchema     = sync.OnceValues(func() (*jsonschema.Schema, error) { return compileSchema("cards.schema.json") })
	symbologySchema = sync.OnceValues(func() (*jsonschema.Schema, error) { return compileSchema("symbology.schema.json") })
)

// compileSchema compiles an embedded schema. Remote $ref resolution is
// refused; every schema is self-contained.
func compileSchema(name string) (*jsonschema.Schema, error) {
	data, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true
	if compiler.Formats == nil {
		compiler.Formats = make(map[string]func(interface{}) bool)
	}
	compiler.Formats["semver"] = isSemver
	compiler.LoadURL = func(url string) (io.ReadCloser, error) {
		return nil, fmt.Errorf("remote $ref not allowed: %s", url)
	}

	url := "schema://" + name
	if err := compiler.AddResource(url, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	return compiler.Compile(url)
}

// validate checks raw JSON against a compiled schema.
func validate(schemaFn func() (*jsonschema.Schema, error), data []byte) error {
	schema, err := schemaFn()
	if err != nil {
		return fmt.Errorf("schema compilation failed: %w", err)
	}

	// Numbers stay json.Number so integer checks see the literal.
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidData, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: unexpected data after top-level value", ErrInvalidData)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidData, err)
	}
	return nil
}

func isSemver(v interface{}) bool {
	s, ok := v.(string)
	if !ok {
		return true // Type validation happens separately
	}
	return semver.IsValid(canonicalVersion(s))
}

// canonicalVersion adds the "v" prefix semver requires.
func canonicalVersion(s string) string {
	if !strings.HasPrefix(s, "v") {
		return "v" + s
	}
	return s
}

// checkVersion accepts any v1.x.y data version.
func checkVersion(version string) error {
	v := canonicalVersion(version)
	if !semver.IsValid(v) || semver.Major(v) != "v1" {
		return fmt.Errorf("%w: %q (want v1.x.y)", ErrUnsupportedVersion, version)
	}
	return nil
}
