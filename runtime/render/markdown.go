package render

import (
	"fmt"
	"strings"

	"github.com/opal-lang/oracle/core/invariant"
	"github.com/opal-lang/oracle/runtime/parser"
)

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`_`, `\_`,
	"`", "\\`",
	`[`, `\[`,
	`]`, `\]`,
	`<`, `\<`,
)

// escapeBlockStart escapes a leading character that would open a heading,
// quote, bullet or ordered list when it starts a block.
func escapeBlockStart(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '#', '>', '-', '+':
		return `\` + s
	}
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 && i < len(s) && (s[i] == '.' || s[i] == ')') {
		return s[:i] + `\` + s[i:]
	}
	return s
}

// Markdown renders CommonMark. Paragraphs and lists become blocks separated by
// blank lines, reminder text and ability words are emphasised, and resolved
// symbols with an icon become inline images.
type Markdown struct {
	config RenderConfig
}

// NewMarkdown creates a markdown renderer
func NewMarkdown(opts ...RenderOpt) *Markdown {
	return &Markdown{config: newConfig(opts)}
}

func (m *Markdown) RenderNode(n parser.Node, children []string) string {
	switch n.Kind {
	case parser.NodeRoot:
		blocks := children[:0:0]
		for _, c := range children {
			if c != "" {
				blocks = append(blocks, c)
			}
		}
		return strings.Join(blocks, "\n\n")
	case parser.NodeParagraph:
		return escapeBlockStart(strings.Join(children, ""))
	case parser.NodeList:
		return strings.Join(children, "\n")
	case parser.NodeListItem:
		return "- " + escapeBlockStart(strings.Join(children, ""))
	case parser.NodeReminderText:
		return "*(" + strings.Join(children, "") + ")*"
	case parser.NodeAbilityWord:
		return "*" + markdownEscaper.Replace(n.Value) + "*"
	case parser.NodeText:
		return markdownEscaper.Replace(n.Value)
	case parser.NodeSymbol:
		if s, ok := m.config.resolve(n.Value); ok && s.ImageURL != "" {
			return fmt.Sprintf("![%s](%s)", n.Value, s.ImageURL)
		}
		return n.Value
	}
	invariant.Unreachable("unknown node kind %s", n.Kind)
	return ""
}

// RenderMarkdown renders doc as markdown.
func RenderMarkdown(doc *parser.Document, opts ...RenderOpt) string {
	return Value[string](doc, NewMarkdown(opts...))
}
