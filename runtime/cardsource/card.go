// Package cardsource loads card records and symbology from local JSON files
// in the Scryfall list shape, and supplies oracle text and symbol lookups to
// the rest of the pipeline.
package cardsource

// Card is the subset of a Scryfall card record the pipeline reads.
type Card struct {
	Name       string     `json:"name"`
	ManaCost   string     `json:"mana_cost,omitempty"`
	TypeLine   string     `json:"type_line,omitempty"`
	OracleText string     `json:"oracle_text,omitempty"`
	CardFaces  []CardFace `json:"card_faces,omitempty"`
}

// CardFace is one face of a multi-faced card.
type CardFace struct {
	Name       string `json:"name"`
	ManaCost   string `json:"mana_cost,omitempty"`
	TypeLine   string `json:"type_line,omitempty"`
	OracleText string `json:"oracle_text,omitempty"`
}

// FaceText pairs a face name with its oracle text.
type FaceText struct {
	Name       string
	OracleText string
}

// OracleTexts returns the card's oracle text, one entry per face. Single-faced
// cards return one entry named after the card.
func (c *Card) OracleTexts() []FaceText {
	if len(c.CardFaces) == 0 {
		return []FaceText{{Name: c.Name, OracleText: c.OracleText}}
	}
	out := make([]FaceText, len(c.CardFaces))
	for i, f := range c.CardFaces {
		out[i] = FaceText{Name: f.Name, OracleText: f.OracleText}
	}
	return out
}
