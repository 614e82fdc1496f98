package parser

import (
	"fmt"
	"time"

	"github.com/opal-lang/oracle/core/tree"
)

// ParserOpt configures a single Parse call.
type ParserOpt func(*parseConfig)

// TelemetryMode selects what Parse reports in Document.Telemetry.
type TelemetryMode int

const (
	TelemetryOff    TelemetryMode = iota // Document.Telemetry stays nil
	TelemetryBasic                       // token and node counts
	TelemetryTiming                      // counts plus wall time
)

// DebugLevel selects which tip movements Parse records.
type DebugLevel int

const (
	DebugOff      DebugLevel = iota
	DebugPaths                      // structural transitions
	DebugDetailed                   // transitions plus every token visited
)

type parseConfig struct {
	telemetry TelemetryMode
	debug     DebugLevel
	trace     func(DebugEvent)
}

func newParseConfig(opts []ParserOpt) *parseConfig {
	c := &parseConfig{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithTelemetry sets the telemetry mode.
func WithTelemetry(mode TelemetryMode) ParserOpt {
	return func(c *parseConfig) {
		c.telemetry = mode
	}
}

// WithDebug sets the debug level. Events are collected in
// Document.DebugEvents.
func WithDebug(level DebugLevel) ParserOpt {
	return func(c *parseConfig) {
		c.debug = level
	}
}

// WithTrace hands every debug event to fn as it is recorded, in addition to
// collecting it. It raises the debug level to DebugPaths if it is lower.
func WithTrace(fn func(DebugEvent)) ParserOpt {
	return func(c *parseConfig) {
		c.trace = fn
		c.debug = max(c.debug, DebugPaths)
	}
}

// ParseTelemetry describes one parse.
type ParseTelemetry struct {
	TokenCount int // tokens handed to Parse
	Consumed   int // tokens visited before the loop ended
	NodeCount  int // arena size, root included

	// Container counts by kind
	Paragraphs int
	Lists      int
	ListItems  int
	Reminders  int

	ParseTime time.Duration // zero unless TelemetryTiming
}

// count tallies the containers in t's arena.
func (pt *ParseTelemetry) count(t *tree.Tree[Node]) {
	for i := range t.Len() {
		switch t.Payload(tree.NodeID(i)).Kind {
		case NodeParagraph:
			pt.Paragraphs++
		case NodeList:
			pt.Lists++
		case NodeListItem:
			pt.ListItems++
		case NodeReminderText:
			pt.Reminders++
		}
	}
}

// DebugEvent is one recorded tip movement.
type DebugEvent struct {
	Timestamp time.Time
	Event     string   // "open_list", "new_paragraph", "descend_reminder", ...
	TokenPos  int      // index of the token being handled
	Tip       NodeKind // tip kind after the transition
}

func (e DebugEvent) String() string {
	return fmt.Sprintf("%s@%d (%s)", e.Event, e.TokenPos, e.Tip)
}
