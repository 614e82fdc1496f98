package render

import (
	"strings"

	"github.com/opal-lang/oracle/core/invariant"
	"github.com/opal-lang/oracle/runtime/parser"
)

// Text renders a document back to plain oracle text. For token streams that
// pass parser.CheckTokens the output equals the original source.
type Text struct{}

func (Text) RenderNode(n parser.Node, children []string) string {
	switch n.Kind {
	case parser.NodeRoot:
		return strings.Join(children, "\n")
	case parser.NodeList:
		return strings.Join(children, "\n")
	case parser.NodeParagraph:
		return strings.Join(children, "")
	case parser.NodeListItem:
		return "• " + strings.Join(children, "")
	case parser.NodeReminderText:
		return "(" + strings.Join(children, "") + ")"
	case parser.NodeSymbol, parser.NodeText, parser.NodeAbilityWord:
		return n.Value
	}
	invariant.Unreachable("unknown node kind %s", n.Kind)
	return ""
}

// PlainText renders doc as plain oracle text.
func PlainText(doc *parser.Document) string {
	return Value[string](doc, Text{})
}
