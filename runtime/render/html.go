package render

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/opal-lang/oracle/core/invariant"
	"github.com/opal-lang/oracle/runtime/parser"
)

// HTML renders each node to an x/net/html node tree.
type HTML struct {
	config RenderConfig
}

// NewHTML creates an HTML renderer
func NewHTML(opts ...RenderOpt) *HTML {
	return &HTML{config: newConfig(opts)}
}

func (h *HTML) RenderNode(n parser.Node, children []*html.Node) *html.Node {
	switch n.Kind {
	case parser.NodeRoot:
		return element(atom.Div, "oracle-text", children...)
	case parser.NodeParagraph:
		return element(atom.P, "", children...)
	case parser.NodeList:
		return element(atom.Ul, "", children...)
	case parser.NodeListItem:
		return element(atom.Li, "", children...)
	case parser.NodeReminderText:
		parts := make([]*html.Node, 0, len(children)+2)
		parts = append(parts, textNode("("))
		parts = append(parts, children...)
		parts = append(parts, textNode(")"))
		return element(atom.I, "reminder-text", parts...)
	case parser.NodeAbilityWord:
		return element(atom.I, "ability-word", textNode(n.Value))
	case parser.NodeText:
		return textNode(n.Value)
	case parser.NodeSymbol:
		s, ok := h.config.resolve(n.Value)
		if !ok || s.ImageURL == "" {
			return element(atom.Span, "card-symbol", textNode(n.Value))
		}
		img := element(atom.Img, "card-symbol")
		img.Attr = append(img.Attr,
			html.Attribute{Key: "src", Val: s.ImageURL},
			html.Attribute{Key: "alt", Val: n.Value},
		)
		if s.Description != "" {
			img.Attr = append(img.Attr, html.Attribute{Key: "title", Val: s.Description})
		}
		return img
	}
	invariant.Unreachable("unknown node kind %s", n.Kind)
	return nil
}

func element(a atom.Atom, class string, children ...*html.Node) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a}
	if class != "" {
		n.Attr = []html.Attribute{{Key: "class", Val: class}}
	}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// RenderHTML renders doc as an HTML fragment.
func RenderHTML(doc *parser.Document, opts ...RenderOpt) (string, error) {
	var sb strings.Builder
	if err := html.Render(&sb, Value[*html.Node](doc, NewHTML(opts...))); err != nil {
		return "", fmt.Errorf("failed to render HTML: %w", err)
	}
	return sb.String(), nil
}
