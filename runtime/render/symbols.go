package render

// Symbol is the displayable form of a symbol code such as "{T}".
type Symbol struct {
	Code        string // Verbatim code, braces included
	Description string // English description, e.g. "tap this permanent"
	ImageURL    string // Icon location, empty when there is none
}

// SymbolResolver maps symbol codes to displayable symbols. Card data sources
// implement it; the renderers treat codes as opaque otherwise.
type SymbolResolver interface {
	ResolveSymbol(code string) (Symbol, bool)
}

// SymbolMap is a fixed SymbolResolver keyed by code.
type SymbolMap map[string]Symbol

func (m SymbolMap) ResolveSymbol(code string) (Symbol, bool) {
	s, ok := m[code]
	return s, ok
}
