package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/opal-lang/oracle/core/invariant"
	"github.com/opal-lang/oracle/runtime/parser"
)

// terminalStyles holds the lipgloss styles for each styled node kind
type terminalStyles struct {
	Bullet       lipgloss.Style
	AbilityWord  lipgloss.Style
	ReminderText lipgloss.Style
	Symbol       lipgloss.Style
}

func defaultTerminalStyles() terminalStyles {
	return terminalStyles{
		Bullet: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		AbilityWord: lipgloss.NewStyle().
			Italic(true).
			Bold(true),
		ReminderText: lipgloss.NewStyle().
			Italic(true).
			Faint(true),
		Symbol: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true),
	}
}

// Terminal renders oracle text for a terminal with lipgloss styles. Without
// WithColor the output is plain text with list items indented.
type Terminal struct {
	config RenderConfig
	styles terminalStyles
}

// NewTerminal creates a terminal renderer
func NewTerminal(opts ...RenderOpt) *Terminal {
	return &Terminal{config: newConfig(opts), styles: defaultTerminalStyles()}
}

func (t *Terminal) paint(style lipgloss.Style, s string) string {
	if !t.config.color {
		return s
	}
	return style.Render(s)
}

func (t *Terminal) RenderNode(n parser.Node, children []string) string {
	switch n.Kind {
	case parser.NodeRoot, parser.NodeList:
		return strings.Join(children, "\n")
	case parser.NodeParagraph:
		return strings.Join(children, "")
	case parser.NodeListItem:
		return "  " + t.paint(t.styles.Bullet, "•") + " " + strings.Join(children, "")
	case parser.NodeReminderText:
		return t.paint(t.styles.ReminderText, "("+strings.Join(children, "")+")")
	case parser.NodeAbilityWord:
		return t.paint(t.styles.AbilityWord, n.Value)
	case parser.NodeText:
		return n.Value
	case parser.NodeSymbol:
		return t.paint(t.styles.Symbol, n.Value)
	}
	invariant.Unreachable("unknown node kind %s", n.Kind)
	return ""
}

// RenderTerminal renders doc for a terminal. With WithMarkdown the document
// is rendered to markdown and passed through glamour, which also applies
// WithWordWrap.
func RenderTerminal(doc *parser.Document, opts ...RenderOpt) (string, error) {
	config := newConfig(opts)
	if !config.markdown {
		return Value[string](doc, &Terminal{config: config, styles: defaultTerminalStyles()}), nil
	}

	style := glamour.WithStandardStyle("notty")
	if config.color {
		style = glamour.WithAutoStyle()
	}
	renderer, err := glamour.NewTermRenderer(
		style,
		glamour.WithWordWrap(config.wordWrap),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	out, err := renderer.Render(Value[string](doc, &Markdown{config: config}))
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}
