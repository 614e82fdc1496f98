package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/opal-lang/oracle/runtime/lexer"
)

// ErrMalformedInput is matched by every error ParseStrict returns.
var ErrMalformedInput = errors.New("malformed oracle text")

// PreconditionError reports a token stream that breaks an assumption Parse
// relies on.
type PreconditionError struct {
	Index   int         // Position of the offending token in the stream
	Token   lexer.Token // The offending token
	Message string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("malformed oracle text: %s at token %d %s", e.Message, e.Index, e.Token.Span)
}

func (e *PreconditionError) Unwrap() error { return ErrMalformedInput }

// Snippet renders the offending line of source with a caret under the token.
// It returns "" when the span does not fit source.
func (e *PreconditionError) Snippet(source string) string {
	start := e.Token.Span.Start
	if start < 0 || start > len(source) {
		return ""
	}

	lineStart := strings.LastIndexByte(source[:start], '\n') + 1
	lineEnd := strings.IndexByte(source[start:], '\n')
	if lineEnd < 0 {
		lineEnd = len(source)
	} else {
		lineEnd += start
	}
	line := 1 + strings.Count(source[:lineStart], "\n")
	column := 1 + len([]rune(source[lineStart:start]))

	var snippet strings.Builder
	fmt.Fprintf(&snippet, "  --> %d:%d\n", line, column)
	snippet.WriteString("   |\n")
	fmt.Fprintf(&snippet, "%2d | %s\n", line, source[lineStart:lineEnd])
	snippet.WriteString("   | ")
	snippet.WriteString(strings.Repeat(" ", column-1) + "^")
	return snippet.String()
}

// CheckTokens verifies the assumptions Parse makes about its input:
//
//   - the stream starts with START, ends with END and has neither elsewhere;
//   - brackets are balanced and never nested;
//   - no line break occurs inside reminder text;
//   - every bullet immediately follows a line break.
//
// It returns the first violation as a *PreconditionError.
func CheckTokens(tokens []lexer.Token) error {
	fail := func(i int, format string, args ...any) error {
		return &PreconditionError{Index: i, Token: tokens[i], Message: fmt.Sprintf(format, args...)}
	}

	if len(tokens) == 0 {
		return &PreconditionError{Index: 0, Message: "empty token stream"}
	}
	if tokens[0].Type != lexer.START {
		return fail(0, "stream must start with START, got %s", tokens[0].Type)
	}
	last := len(tokens) - 1
	if last == 0 || tokens[last].Type != lexer.END {
		return fail(last, "stream must end with END, got %s", tokens[last].Type)
	}

	open := -1 // index of the unclosed "(" or -1
	for i := 1; i < last; i++ {
		switch tokens[i].Type {
		case lexer.START, lexer.END:
			return fail(i, "%s inside the stream", tokens[i].Type)
		case lexer.OPEN_BRACKET:
			if open >= 0 {
				return fail(i, "nested reminder text (opened at token %d)", open)
			}
			open = i
		case lexer.CLOSE_BRACKET:
			if open < 0 {
				return fail(i, "unmatched ')'")
			}
			open = -1
		case lexer.NEWLINE:
			if open >= 0 {
				return fail(i, "line break inside reminder text (opened at token %d)", open)
			}
		case lexer.BULLET:
			if tokens[i-1].Type != lexer.NEWLINE {
				return fail(i, "bullet must follow a line break")
			}
		case lexer.TEXT, lexer.SYMBOL, lexer.ABILITY_WORD:
		default:
			return fail(i, "unknown token type %s", tokens[i].Type)
		}
	}
	if open >= 0 {
		return fail(open, "unclosed reminder text")
	}
	return nil
}

// ParseStrict checks tokens with CheckTokens, parses them and validates the
// resulting tree. Use it for token streams that did not come straight from
// the lexer or for text that may carry stray brackets.
func ParseStrict(tokens []lexer.Token, opts ...ParserOpt) (*Document, error) {
	if err := CheckTokens(tokens); err != nil {
		return nil, err
	}

	doc := Parse(tokens, opts...)
	if !doc.Complete() {
		return doc, fmt.Errorf("parse stopped at token %d of %d: %w", doc.Consumed, len(tokens), ErrMalformedInput)
	}
	if err := doc.Tree.Validate(doc.Root); err != nil {
		return doc, fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}
	return doc, nil
}

// ParseStringStrict lexes text and parses it with ParseStrict.
func ParseStringStrict(text string, opts ...ParserOpt) (*Document, error) {
	doc, err := ParseStrict(lexer.Tokenize(text), opts...)
	if doc != nil {
		doc.Source = text
	}
	return doc, err
}
