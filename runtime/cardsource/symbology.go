package cardsource

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/opal-lang/oracle/runtime/render"
)

// fallbackCode is shown for codes the catalog does not know when fallback is
// enabled.
const fallbackCode = "{0}"

// CardSymbol is a Scryfall symbology entry.
type CardSymbol struct {
	Symbol             string   `json:"symbol"`
	LooseVariant       string   `json:"loose_variant,omitempty"`
	English            string   `json:"english"`
	SVGURI             string   `json:"svg_uri,omitempty"`
	RepresentsMana     bool     `json:"represents_mana"`
	AppearsInManaCosts bool     `json:"appears_in_mana_costs"`
	CMC                float64  `json:"cmc,omitempty"`
	Funny              bool     `json:"funny"`
	Colors             []string `json:"colors,omitempty"`
}

type symbolList struct {
	Object  string       `json:"object,omitempty"`
	Version string       `json:"version"`
	Data    []CardSymbol `json:"data"`
}

// CatalogOpt represents a catalog configuration option
type CatalogOpt func(*Catalog)

// WithFallback makes ResolveSymbol answer unknown codes with the {0} entry,
// so every symbol in rendered output has an icon.
func WithFallback() CatalogOpt {
	return func(c *Catalog) {
		c.fallback = true
	}
}

// Catalog is a symbology table. It implements render.SymbolResolver.
type Catalog struct {
	version  string
	symbols  []CardSymbol
	byCode   map[string]int
	byLoose  map[string]int
	fallback bool
}

var _ render.SymbolResolver = (*Catalog)(nil)

// LoadSymbology reads and validates a symbology list.
func LoadSymbology(r io.Reader, opts ...CatalogOpt) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read symbology: %w", err)
	}
	if err := validate(symbologySchema, data); err != nil {
		return nil, err
	}

	var list symbolList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidData, err)
	}
	if err := checkVersion(list.Version); err != nil {
		return nil, err
	}

	c := &Catalog{
		version: list.Version,
		symbols: list.Data,
		byCode:  make(map[string]int, len(list.Data)),
		byLoose: make(map[string]int),
	}
	for i, s := range c.symbols {
		c.byCode[s.Symbol] = i
		if s.LooseVariant != "" {
			c.byLoose[s.LooseVariant] = i
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// LoadSymbologyFile reads a symbology list from path.
func LoadSymbologyFile(path string, opts ...CatalogOpt) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := LoadSymbology(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Version returns the data version declared by the file.
func (c *Catalog) Version() string { return c.version }

// Symbols returns every entry in file order.
func (c *Catalog) Symbols() []CardSymbol { return c.symbols }

// Symbol looks up a code such as "{T}", or its loose variant "T".
func (c *Catalog) Symbol(code string) (CardSymbol, bool) {
	if i, ok := c.byCode[code]; ok {
		return c.symbols[i], true
	}
	if i, ok := c.byLoose[code]; ok {
		return c.symbols[i], true
	}
	return CardSymbol{}, false
}

// ResolveSymbol implements render.SymbolResolver.
func (c *Catalog) ResolveSymbol(code string) (render.Symbol, bool) {
	s, ok := c.Symbol(code)
	if !ok && c.fallback {
		s, ok = c.Symbol(fallbackCode)
	}
	if !ok {
		return render.Symbol{}, false
	}
	return render.Symbol{Code: s.Symbol, Description: s.English, ImageURL: s.SVGURI}, true
}
