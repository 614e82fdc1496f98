package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/opal-lang/oracle/runtime/parser"
)

// ANSI color codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorCyan   = "\033[36m"
	ColorGray   = "\033[90m"
)

// Colorize wraps text in ANSI color codes if color is enabled
func Colorize(text, color string, useColor bool) string {
	if !useColor {
		return text
	}
	return color + text + ColorReset
}

// TreeView renders each node as the lines of a tree diagram, children drawn
// under their parent with box-drawing connectors.
type TreeView struct {
	config RenderConfig
}

// NewTreeView creates a tree diagram renderer
func NewTreeView(opts ...RenderOpt) *TreeView {
	return &TreeView{config: newConfig(opts)}
}

func (v *TreeView) RenderNode(n parser.Node, children [][]string) []string {
	lines := []string{v.label(n)}
	for i, child := range children {
		first, rest := "├─ ", "│  "
		if i == len(children)-1 {
			first, rest = "└─ ", "   "
		}
		for j, line := range child {
			if j == 0 {
				lines = append(lines, first+line)
			} else {
				lines = append(lines, rest+line)
			}
		}
	}
	return lines
}

func (v *TreeView) label(n parser.Node) string {
	useColor := v.config.color
	kind := Colorize(n.Kind.String(), ColorBlue, useColor)

	switch n.Kind {
	case parser.NodeText:
		return kind + " " + Colorize(strconv.Quote(n.Value), ColorGreen, useColor)
	case parser.NodeAbilityWord:
		return kind + " " + Colorize(strconv.Quote(n.Value), ColorCyan, useColor)
	case parser.NodeSymbol:
		label := kind + " " + Colorize(n.Value, ColorYellow, useColor)
		if s, ok := v.config.resolve(n.Value); ok && s.Description != "" {
			label += " " + Colorize(s.Description, ColorGray, useColor)
		}
		return label
	default:
		return kind
	}
}

// FormatTree writes doc as a tree diagram. Documents whose parse stopped early
// are flagged after the diagram.
func FormatTree(w io.Writer, doc *parser.Document, opts ...RenderOpt) {
	v := NewTreeView(opts...)
	for _, line := range Value[[]string](doc, v) {
		_, _ = fmt.Fprintln(w, line)
	}
	if !doc.Complete() {
		msg := fmt.Sprintf("(incomplete: parse stopped at token %d of %d)", doc.Consumed, len(doc.Tokens))
		_, _ = fmt.Fprintln(w, Colorize(msg, ColorRed, v.config.color))
	}
}
