package parser

import (
	"fmt"

	"github.com/opal-lang/oracle/core/tree"
	"github.com/opal-lang/oracle/runtime/lexer"
)

// NodeKind represents oracle text node types
//
// IMPORTANT: Add new kinds at the END of the enum. Canonical encodings store
// the numeric kind, and reordering would change every fingerprint.
type NodeKind uint8

const (
	NodeRoot         NodeKind = iota // Document root, exactly one per tree
	NodeParagraph                    // A line of prose
	NodeList                         // Run of consecutive bulleted lines
	NodeListItem                     // One bulleted choice
	NodeReminderText                 // Parenthesised explanation
	NodeSymbol                       // Opaque symbol code such as {T}
	NodeText                         // Plain text run
	NodeAbilityWord                  // Flavour header before " — "
)

func (k NodeKind) String() string {
	switch k {
	case NodeRoot:
		return "Root"
	case NodeParagraph:
		return "Paragraph"
	case NodeList:
		return "List"
	case NodeListItem:
		return "ListItem"
	case NodeReminderText:
		return "ReminderText"
	case NodeSymbol:
		return "Symbol"
	case NodeText:
		return "Text"
	case NodeAbilityWord:
		return "AbilityWord"
	default:
		return fmt.Sprintf("NodeKind(%d)", uint8(k))
	}
}

// IsLeaf reports whether nodes of this kind carry a value and never have
// children.
func (k NodeKind) IsLeaf() bool {
	return k == NodeSymbol || k == NodeText || k == NodeAbilityWord
}

// Node is the payload stored in each tree node. Value holds the text of a
// Text node, the verbatim code of a Symbol node and the name of an
// AbilityWord node; it is empty for container kinds.
type Node struct {
	Kind  NodeKind
	Value string
}

func (n Node) String() string {
	if n.Kind.IsLeaf() {
		return fmt.Sprintf("%s(%q)", n.Kind, n.Value)
	}
	return n.Kind.String()
}

// Document is the result of parsing oracle text
type Document struct {
	Source      string           // Original text (empty when parsed from bare tokens)
	Tokens      []lexer.Token    // Tokens the tree was built from
	Tree        *tree.Tree[Node] // Arena holding every node
	Root        tree.NodeID      // The Root node
	Consumed    int              // Tokens processed before the loop ended
	Telemetry   *ParseTelemetry  // Performance metrics (nil if disabled)
	DebugEvents []DebugEvent     // Debug events (nil if disabled)
}

// Complete reports whether every token was processed. A false result means the
// cursor climbed out of the root (an unmatched ")"), so the tree is a partial
// rendition of the input.
func (d *Document) Complete() bool {
	return d.Consumed == len(d.Tokens)
}

// Walk starts a depth-first traversal at the root.
func (d *Document) Walk() *tree.Walker[Node] {
	return d.Tree.Walk(d.Root)
}

// Node returns the payload of id.
func (d *Document) Node(id tree.NodeID) Node {
	return d.Tree.Payload(id)
}
