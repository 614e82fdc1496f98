package cardsource

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// ErrCardNotFound is matched by Lookup errors.
var ErrCardNotFound = errors.New("card not found")

// NotFoundError reports a failed lookup with close names, if any.
type NotFoundError struct {
	Name        string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("card %q not found", e.Name)
	}
	return fmt.Sprintf("card %q not found (did you mean %s?)", e.Name, strings.Join(e.Suggestions, ", "))
}

func (e *NotFoundError) Unwrap() error { return ErrCardNotFound }

// cardList is the on-disk shape of a card file
type cardList struct {
	Object  string `json:"object,omitempty"`
	Version string `json:"version"`
	Data    []Card `json:"data"`
}

// CardIndex is an in-memory card collection searchable by card or face name.
type CardIndex struct {
	version string
	cards   []Card
	byName  map[string]int // lower-cased card and face names to card index
	names   []string       // card and face names in file order
}

// LoadCards reads and validates a card list.
func LoadCards(r io.Reader) (*CardIndex, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read cards: %w", err)
	}
	if err := validate(cardsSchema, data); err != nil {
		return nil, err
	}

	var list cardList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidData, err)
	}
	if err := checkVersion(list.Version); err != nil {
		return nil, err
	}

	idx := &CardIndex{
		version: list.Version,
		cards:   list.Data,
		byName:  make(map[string]int, len(list.Data)),
	}
	for i, c := range idx.cards {
		idx.add(c.Name, i)
		for _, f := range c.CardFaces {
			idx.add(f.Name, i)
		}
	}
	return idx, nil
}

// LoadCardsFile reads a card list from path.
func LoadCardsFile(path string) (*CardIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	idx, err := LoadCards(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return idx, nil
}

func (idx *CardIndex) add(name string, i int) {
	key := strings.ToLower(name)
	if _, dup := idx.byName[key]; dup {
		return
	}
	idx.byName[key] = i
	idx.names = append(idx.names, name)
}

// Version returns the data version declared by the file.
func (idx *CardIndex) Version() string { return idx.version }

// Len returns the number of cards.
func (idx *CardIndex) Len() int { return len(idx.cards) }

// Cards returns every card in file order.
func (idx *CardIndex) Cards() []Card { return idx.cards }

// Lookup finds a card by name. An exact case-insensitive match on a card or
// face name wins; otherwise the closest name containing the query's letters
// in order is used. A miss returns a *NotFoundError.
func (idx *CardIndex) Lookup(name string) (*Card, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		// An empty query matches every name under fuzzy ranking.
		return nil, &NotFoundError{Name: name}
	}
	if i, ok := idx.byName[key]; ok {
		return &idx.cards[i], nil
	}

	ranks := fuzzy.RankFindFold(key, idx.names)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return &idx.cards[idx.byName[strings.ToLower(ranks[0].Target)]], nil
	}

	return nil, &NotFoundError{Name: name, Suggestions: idx.Suggest(name)}
}

// Suggest returns up to three names within a small edit distance of name,
// closest first.
func (idx *CardIndex) Suggest(name string) []string {
	type scored struct {
		name string
		dist int
	}

	query := strings.ToLower(strings.TrimSpace(name))
	limit := max(2, len(query)/3)

	var matches []scored
	for _, n := range idx.names {
		if d := fuzzy.LevenshteinDistance(query, strings.ToLower(n)); d <= limit {
			matches = append(matches, scored{n, d})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].dist < matches[j].dist })

	var out []string
	for i := 0; i < len(matches) && i < 3; i++ {
		out = append(out, matches[i].name)
	}
	return out
}
