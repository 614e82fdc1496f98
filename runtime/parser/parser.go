package parser

import (
	"time"

	"github.com/opal-lang/oracle/core/invariant"
	"github.com/opal-lang/oracle/core/tree"
	"github.com/opal-lang/oracle/runtime/lexer"
)

// Parse builds a document tree from a lexer token stream in a single pass.
//
// The only parse state is the tip: the node new content is appended to. The
// tree starts as Root with one Paragraph child and the tip on that Paragraph.
//
// Parse does not re-validate its input. It assumes brackets are balanced and
// never nested, line breaks never occur inside reminder text and bullets only
// follow line breaks. Input breaking those rules yields an oddly shaped tree,
// not an error. If the tip ever climbs out of the root the loop stops early;
// check Document.Complete, or use ParseStrict for untrusted token streams.
func Parse(tokens []lexer.Token, opts ...ParserOpt) *Document {
	config := newParseConfig(opts)

	var telemetry *ParseTelemetry
	var debugEvents []DebugEvent
	var startParse time.Time

	if config.telemetry >= TelemetryBasic {
		telemetry = &ParseTelemetry{TokenCount: len(tokens)}
		if config.telemetry >= TelemetryTiming {
			startParse = time.Now()
		}
	}
	if config.debug > DebugOff {
		debugEvents = make([]DebugEvent, 0, 32)
	}

	// A tree needs roughly one node per token plus the root
	t := tree.NewWithCapacity[Node](len(tokens) + 2)
	root := t.NewNode(Node{Kind: NodeRoot})
	paragraph := t.NewNode(Node{Kind: NodeParagraph})
	t.AppendChild(root, paragraph)

	p := &parser{
		tokens:      tokens,
		tree:        t,
		tip:         paragraph,
		config:      config,
		debugEvents: debugEvents,
	}
	p.run()

	if telemetry != nil {
		telemetry.Consumed = p.pos
		telemetry.NodeCount = t.Len()
		telemetry.count(t)
		if config.telemetry >= TelemetryTiming {
			telemetry.ParseTime = time.Since(startParse)
		}
	}

	return &Document{
		Tokens:      tokens,
		Tree:        t,
		Root:        root,
		Consumed:    p.pos,
		Telemetry:   telemetry,
		DebugEvents: p.debugEvents,
	}
}

// ParseString lexes and parses text
func ParseString(text string, opts ...ParserOpt) *Document {
	doc := Parse(lexer.Tokenize(text), opts...)
	doc.Source = text
	return doc
}

// parser is the internal parser state
type parser struct {
	tokens      []lexer.Token
	pos         int
	tree        *tree.Tree[Node]
	tip         tree.NodeID
	config      *parseConfig
	debugEvents []DebugEvent
}

// recordDebugEvent records debug events when debug tracing is enabled
func (p *parser) recordDebugEvent(event string) {
	if p.config.debug == DebugOff || p.debugEvents == nil {
		return
	}

	ev := DebugEvent{
		Timestamp: time.Now(),
		Event:     event,
		TokenPos:  p.pos,
		Tip:       p.tipKind(),
	}
	p.debugEvents = append(p.debugEvents, ev)
	if p.config.trace != nil {
		p.config.trace(ev)
	}
}

func (p *parser) run() {
	for p.pos < len(p.tokens) {
		if p.tree.Parent(p.tip) == tree.None {
			// The tip reached the root: more ")" than "(" so far
			p.recordDebugEvent("early_exit")
			return
		}

		tok := p.tokens[p.pos]
		if p.config.debug >= DebugDetailed {
			p.recordDebugEvent("token_" + tok.Type.String())
		}

		switch tok.Type {
		case lexer.START, lexer.END:
			// framing only

		case lexer.TEXT:
			p.appendLeaf(NodeText, tok.Value)
		case lexer.SYMBOL:
			p.appendLeaf(NodeSymbol, tok.Value)
		case lexer.ABILITY_WORD:
			p.appendLeaf(NodeAbilityWord, tok.Value)

		case lexer.OPEN_BRACKET:
			p.descend(NodeReminderText)
			p.recordDebugEvent("descend_reminder")
		case lexer.CLOSE_BRACKET:
			p.tip = p.tree.Parent(p.tip)
			p.recordDebugEvent("ascend")

		case lexer.BULLET:
			// The tip is the List opened by the preceding line break
			p.descend(NodeListItem)
			p.recordDebugEvent("list_item")

		case lexer.NEWLINE:
			p.newline()

		default:
			invariant.Unreachable("unrecognized token %s at index %d", tok, p.pos)
		}

		p.pos++
	}
}

// newline decides the structural transition for a line break by looking at
// the token after it.
func (p *parser) newline() {
	nextIsBullet := p.pos+1 < len(p.tokens) && p.tokens[p.pos+1].Type == lexer.BULLET

	if nextIsBullet {
		if p.tipKind() == NodeListItem {
			// Back to the List; the bullet opens the next item
			p.tip = p.tree.Parent(p.tip)
			p.recordDebugEvent("continue_list")
			return
		}
		// Any other tip is treated as a Paragraph and the list follows it
		p.insertAfterTip(NodeList)
		p.recordDebugEvent("open_list")
		return
	}

	if p.tipKind() == NodeListItem {
		// Close both the item and its List, then resume prose
		p.tip = p.tree.Parent(p.tip)
		p.insertAfterTip(NodeParagraph)
		p.recordDebugEvent("close_list")
		return
	}
	p.insertAfterTip(NodeParagraph)
	p.recordDebugEvent("new_paragraph")
}

func (p *parser) tipKind() NodeKind {
	return p.tree.Payload(p.tip).Kind
}

func (p *parser) appendLeaf(kind NodeKind, value string) {
	p.tree.AppendChild(p.tip, p.tree.NewNode(Node{Kind: kind, Value: value}))
}

// descend appends a container of kind to the tip and moves the tip into it.
func (p *parser) descend(kind NodeKind) {
	n := p.tree.NewNode(Node{Kind: kind})
	p.tree.AppendChild(p.tip, n)
	p.tip = n
}

// insertAfterTip adds a container of kind as the tip's next sibling and moves
// the tip onto it.
func (p *parser) insertAfterTip(kind NodeKind) {
	n := p.tree.NewNode(Node{Kind: kind})
	err := p.tree.InsertSiblingAfter(p.tip, n)
	// The loop guard keeps the tip below the root, and a ListItem's parent is
	// never the root, so the tip always has a parent here.
	invariant.Invariant(err == nil, "insert after tip %d: %v", p.tip, err)
	p.tip = n
}
