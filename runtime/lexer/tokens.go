package lexer

import "fmt"

// TokenType identifies the kind of an oracle text token
type TokenType int

const (
	START TokenType = iota // zero-width, always first
	END                    // zero-width, always last

	TEXT          // run of plain rules text
	SYMBOL        // {T}, {2}, {W/U} - carried verbatim, never decoded
	OPEN_BRACKET  // ( - opens reminder text
	CLOSE_BRACKET // ) - closes reminder text
	NEWLINE       // \n - paragraph break
	BULLET        // "• " at the start of a line
	ABILITY_WORD  // header before " — " at the start of a line
)

func (t TokenType) String() string {
	switch t {
	case START:
		return "START"
	case END:
		return "END"
	case TEXT:
		return "TEXT"
	case SYMBOL:
		return "SYMBOL"
	case OPEN_BRACKET:
		return "OPEN_BRACKET"
	case CLOSE_BRACKET:
		return "CLOSE_BRACKET"
	case NEWLINE:
		return "NEWLINE"
	case BULLET:
		return "BULLET"
	case ABILITY_WORD:
		return "ABILITY_WORD"
	default:
		return fmt.Sprintf("TokenType(%d)", int(t))
	}
}

// Span is a half-open [Start, End) byte range into the source text.
// Spans are informational: the parser never reads them, diagnostics and
// highlighting tools do.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes the span covers.
func (s Span) Len() int { return s.End - s.Start }

func (s Span) String() string { return fmt.Sprintf("[%d,%d)", s.Start, s.End) }

// Token is a lexical token of oracle text.
type Token struct {
	Type TokenType
	// Value holds the payload: the text of TEXT, the verbatim code of SYMBOL
	// (braces included) and the name of ABILITY_WORD. Empty otherwise.
	Value string
	Span  Span
}

// String returns a compact representation for tests and debugging
func (t Token) String() string {
	switch t.Type {
	case TEXT, SYMBOL, ABILITY_WORD:
		return fmt.Sprintf("%s(%q)%s", t.Type, t.Value, t.Span)
	default:
		return t.Type.String() + t.Span.String()
	}
}
