package cardsource

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opal-lang/oracle/runtime/parser"
	"github.com/opal-lang/oracle/runtime/render"
)

func loadTestCards(t *testing.T) *CardIndex {
	t.Helper()
	idx, err := LoadCardsFile("testdata/cards.json")
	require.NoError(t, err)
	return idx
}

func loadTestSymbols(t *testing.T, opts ...CatalogOpt) *Catalog {
	t.Helper()
	c, err := LoadSymbologyFile("testdata/symbology.json", opts...)
	require.NoError(t, err)
	return c
}

func TestLoadCards(t *testing.T) {
	idx := loadTestCards(t)

	assert.Equal(t, 4, idx.Len())
	assert.Equal(t, "v1.0.0", idx.Version())
	assert.Equal(t, "Lightning Bolt", idx.Cards()[0].Name)
}

func TestLoadCardsRejects(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr error
	}{
		{"not json", `{`, ErrInvalidData},
		{"missing data", `{"version": "v1.0.0"}`, ErrInvalidData},
		{"missing version", `{"data": []}`, ErrInvalidData},
		{"bad version format", `{"version": "one", "data": []}`, ErrInvalidData},
		{"unsupported major", `{"version": "v2.0.0", "data": []}`, ErrUnsupportedVersion},
		{"card without name", `{"version": "v1.0.0", "data": [{"oracle_text": "x"}]}`, ErrInvalidData},
		{"wrong field type", `{"version": "v1.0.0", "data": [{"name": "A", "oracle_text": 3}]}`, ErrInvalidData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCards(strings.NewReader(tt.json))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadCardsAcceptsVersionWithoutPrefix(t *testing.T) {
	idx, err := LoadCards(strings.NewReader(`{"version": "1.2.3", "data": [{"name": "A"}]}`))
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Len())
}

func TestLoadCardsFileMissing(t *testing.T) {
	_, err := LoadCardsFile("testdata/does-not-exist.json")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLookup(t *testing.T) {
	idx := loadTestCards(t)

	tests := []struct {
		query string
		want  string
	}{
		{"Lightning Bolt", "Lightning Bolt"},
		{"lightning bolt", "Lightning Bolt"},
		{"  Owlbear ", "Owlbear"},
		{"Ice", "Fire // Ice"},
		{"fire", "Fire // Ice"},
		{"bolt", "Lightning Bolt"},
		{"Lightnig Bolt", "Lightning Bolt"},
		{"pyre", "Cathartic Pyre"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			card, err := idx.Lookup(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, card.Name)
		})
	}
}

func TestLookupMiss(t *testing.T) {
	idx := loadTestCards(t)

	_, err := idx.Lookup("Owlbaer")
	require.ErrorIs(t, err, ErrCardNotFound)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, []string{"Owlbear"}, nf.Suggestions)
	assert.Contains(t, err.Error(), `did you mean Owlbear?`)

	_, err = idx.Lookup("Zzyzx")
	require.ErrorAs(t, err, &nf)
	assert.Empty(t, nf.Suggestions)
	assert.Equal(t, `card "Zzyzx" not found`, err.Error())
}

func TestLookupBlankName(t *testing.T) {
	idx := loadTestCards(t)

	for _, query := range []string{"", " ", "\t\n"} {
		card, err := idx.Lookup(query)
		assert.Nil(t, card, "query %q", query)
		require.ErrorIs(t, err, ErrCardNotFound, "query %q", query)

		var nf *NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, query, nf.Name)
		assert.Empty(t, nf.Suggestions)
	}
}

func TestOracleTexts(t *testing.T) {
	idx := loadTestCards(t)

	bolt, err := idx.Lookup("Lightning Bolt")
	require.NoError(t, err)
	assert.Equal(t, []FaceText{{Name: "Lightning Bolt", OracleText: "Lightning Bolt deals 3 damage to any target."}}, bolt.OracleTexts())

	split, err := idx.Lookup("Fire // Ice")
	require.NoError(t, err)
	faces := split.OracleTexts()
	require.Len(t, faces, 2)
	assert.Equal(t, "Ice", faces[1].Name)
	assert.Equal(t, "Tap target permanent.\nDraw a card.", faces[1].OracleText)
}

func TestCardTextParses(t *testing.T) {
	idx := loadTestCards(t)

	for _, card := range idx.Cards() {
		for _, face := range card.OracleTexts() {
			doc, err := parser.ParseStringStrict(face.OracleText)
			require.NoError(t, err, "face %s", face.Name)
			assert.Equal(t, face.OracleText, render.PlainText(doc))
		}
	}
}

func TestCatalog(t *testing.T) {
	c := loadTestSymbols(t)

	assert.Equal(t, "v1.3.0", c.Version())
	assert.Len(t, c.Symbols(), 4)

	tap, ok := c.Symbol("{T}")
	require.True(t, ok)
	assert.Equal(t, "tap this permanent", tap.English)

	loose, ok := c.Symbol("R")
	require.True(t, ok)
	assert.Equal(t, "{R}", loose.Symbol)
	assert.Equal(t, []string{"R"}, loose.Colors)

	_, ok = c.Symbol("{Q}")
	assert.False(t, ok)
}

func TestCatalogResolveSymbol(t *testing.T) {
	t.Run("known code", func(t *testing.T) {
		s, ok := loadTestSymbols(t).ResolveSymbol("{W/B}")
		require.True(t, ok)
		assert.Equal(t, render.Symbol{
			Code:        "{W/B}",
			Description: "one white or black mana",
			ImageURL:    "https://svgs.scryfall.io/card-symbols/WB.svg",
		}, s)
	})

	t.Run("unknown code without fallback", func(t *testing.T) {
		_, ok := loadTestSymbols(t).ResolveSymbol("{Q}")
		assert.False(t, ok)
	})

	t.Run("unknown code with fallback", func(t *testing.T) {
		s, ok := loadTestSymbols(t, WithFallback()).ResolveSymbol("{Q}")
		require.True(t, ok)
		assert.Equal(t, "{0}", s.Code)
		assert.Equal(t, "https://svgs.scryfall.io/card-symbols/0.svg", s.ImageURL)
	})

	t.Run("renders through the catalog", func(t *testing.T) {
		doc := parser.ParseString("{T}: Add {R}.")
		got, err := render.RenderHTML(doc, render.WithSymbols(loadTestSymbols(t)))
		require.NoError(t, err)
		assert.Contains(t, got, `src="https://svgs.scryfall.io/card-symbols/T.svg"`)
		assert.Contains(t, got, `src="https://svgs.scryfall.io/card-symbols/R.svg"`)
	})
}

func TestLoadSymbologyNumbers(t *testing.T) {
	c, err := LoadSymbology(strings.NewReader(`{"version": "v1.0.0", "data": [
		{"symbol": "{HR}", "english": "one-half red mana", "cmc": 0.5},
		{"symbol": "{1000000}", "english": "one million generic mana", "cmc": 1000000}
	]}`))
	require.NoError(t, err)

	half, ok := c.Symbol("{HR}")
	require.True(t, ok)
	assert.InDelta(t, 0.5, half.CMC, 1e-9)

	million, ok := c.Symbol("{1000000}")
	require.True(t, ok)
	assert.InDelta(t, 1000000, million.CMC, 1e-9)
}

func TestLoadSymbologyRejects(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr error
	}{
		{"symbol without braces", `{"version": "v1.0.0", "data": [{"symbol": "T", "english": "tap"}]}`, ErrInvalidData},
		{"missing english", `{"version": "v1.0.0", "data": [{"symbol": "{T}"}]}`, ErrInvalidData},
		{"unsupported major", `{"version": "v0.9.0", "data": []}`, ErrUnsupportedVersion},
		{"cmc as string", `{"version": "v1.0.0", "data": [{"symbol": "{R}", "english": "red", "cmc": "1"}]}`, ErrInvalidData},
		{"trailing garbage", `{"version": "v1.0.0", "data": [] ]`, ErrInvalidData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSymbology(strings.NewReader(tt.json))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
