// Package render turns parsed oracle text into presentation values.
//
// Every renderer is a fold over the document walk: Render keeps a stack of
// frames, pushes an empty frame when a node is entered, and when the node is
// exited pops its frame, asks the Renderer for the node's value given its
// children's values, and appends that value to the frame below. The walk
// ends with one frame holding the root's value.
package render

import (
	"github.com/opal-lang/oracle/core/invariant"
	"github.com/opal-lang/oracle/runtime/parser"
)

// Renderer synthesizes a presentation value for one node from the values
// already rendered for its children, in document order.
type Renderer[V any] interface {
	RenderNode(n parser.Node, children []V) V
}

// RendererFunc adapts a function to Renderer.
type RendererFunc[V any] func(n parser.Node, children []V) V

func (f RendererFunc[V]) RenderNode(n parser.Node, children []V) V {
	return f(n, children)
}

// Render drives r over doc and returns the final frame. For a document built
// by the parser that frame holds exactly one value, the root's.
func Render[V any](doc *parser.Document, r Renderer[V]) []V {
	frames := [][]V{nil}

	for ev := range doc.Walk().Events() {
		if ev.Entering {
			frames = append(frames, nil)
			continue
		}

		children := frames[len(frames)-1]
		frames = frames[:len(frames)-1]
		invariant.Invariant(len(frames) > 0, "exit of node %d without a matching enter", ev.Node)

		top := len(frames) - 1
		frames[top] = append(frames[top], r.RenderNode(doc.Node(ev.Node), children))
	}

	invariant.Postcondition(len(frames) == 1, "walk left %d open frames", len(frames)-1)
	return frames[0]
}

// Value renders doc with r and returns the root's value.
func Value[V any](doc *parser.Document, r Renderer[V]) V {
	out := Render(doc, r)
	invariant.Postcondition(len(out) == 1, "render produced %d root values, want 1", len(out))
	return out[0]
}

// RenderOpt represents a render configuration option
type RenderOpt func(*RenderConfig)

// RenderConfig holds renderer configuration
type RenderConfig struct {
	symbols  SymbolResolver
	color    bool
	wordWrap int
	markdown bool
}

// WithSymbols resolves symbol codes through resolver. Unresolved codes are
// shown verbatim.
func WithSymbols(resolver SymbolResolver) RenderOpt {
	return func(c *RenderConfig) {
		c.symbols = resolver
	}
}

// WithColor enables ANSI styling for terminal output
func WithColor(enabled bool) RenderOpt {
	return func(c *RenderConfig) {
		c.color = enabled
	}
}

// WithWordWrap wraps terminal markdown output at width columns
func WithWordWrap(width int) RenderOpt {
	return func(c *RenderConfig) {
		c.wordWrap = width
	}
}

// WithMarkdown makes RenderTerminal go through the markdown renderer and a
// glamour pass instead of the direct terminal styles.
func WithMarkdown() RenderOpt {
	return func(c *RenderConfig) {
		c.markdown = true
	}
}

func newConfig(opts []RenderOpt) RenderConfig {
	config := RenderConfig{wordWrap: 80}
	for _, opt := range opts {
		opt(&config)
	}
	return config
}

// resolve looks code up in the configured resolver.
func (c *RenderConfig) resolve(code string) (Symbol, bool) {
	if c.symbols == nil {
		return Symbol{}, false
	}
	return c.symbols.ResolveSymbol(code)
}
