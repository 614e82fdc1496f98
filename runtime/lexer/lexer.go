package lexer

import (
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/opal-lang/oracle/core/invariant"
)

const (
	bulletMarker  = "\u2022 " // "• "
	abilityDash   = " \u2014 " // " — "
	abilityBreaks = "\u2014\n" // an ability word never spans an em-dash or a line break
	textBreaks    = "{()\n"   // text runs stop before anything another recognizer owns
)

// LexerOpt represents a lexer configuration option
type LexerOpt func(*LexerConfig)

// TelemetryMode controls telemetry collection (production-safe)
type TelemetryMode int

const (
	TelemetryOff    TelemetryMode = iota // Zero overhead (default)
	TelemetryBasic                       // Token counts only
	TelemetryTiming                      // Token counts + total lex time
)

// DebugLevel controls debug tracing (development only)
type DebugLevel int

const (
	DebugOff      DebugLevel = iota // No debug info (default)
	DebugPaths                      // Recognizer hits
	DebugDetailed                   // Recognizer hits + remaining input
)

// LexerConfig holds lexer configuration
type LexerConfig struct {
	telemetry TelemetryMode
	debug     DebugLevel
	logger    *slog.Logger
}

// WithTelemetryBasic enables basic telemetry (token counts only)
func WithTelemetryBasic() LexerOpt {
	return func(c *LexerConfig) {
		c.telemetry = TelemetryBasic
	}
}

// WithTelemetryTiming enables timing telemetry (counts + lex time)
func WithTelemetryTiming() LexerOpt {
	return func(c *LexerConfig) {
		c.telemetry = TelemetryTiming
	}
}

// WithDebugPaths records a debug event for every recognizer hit
func WithDebugPaths() LexerOpt {
	return func(c *LexerConfig) {
		c.debug = DebugPaths
	}
}

// WithDebugDetailed records recognizer hits along with the unconsumed input
func WithDebugDetailed() LexerOpt {
	return func(c *LexerConfig) {
		c.debug = DebugDetailed
	}
}

// WithLogger routes debug logging to logger instead of the default stderr handler
func WithLogger(logger *slog.Logger) LexerOpt {
	return func(c *LexerConfig) {
		c.logger = logger
	}
}

// Telemetry holds lexer metrics (production-safe)
type Telemetry struct {
	TokenCount int
	Counts     map[TokenType]int
	LexTime    time.Duration
}

// DebugEvent holds debug tracing information (development only)
type DebugEvent struct {
	Timestamp time.Time
	Event     string // "bullet", "ability_word", "symbol", ...
	Offset    int    // Byte offset where the token starts
	Context   string // Remaining input for DebugDetailed
}

// Lexer tokenizes oracle text in a single left-to-right pass.
//
// Its only grammar state is whether the next token starts a line. Bullets and
// ability words are recognised only there; a bullet leaves the same line
// eligible for an ability word immediately after it.
type Lexer struct {
	input       string
	pos         int
	startOfLine bool
	started     bool
	finished    bool

	// A single recognition step can yield a bullet followed by an ability
	// word, so tokens are queued.
	queue []Token

	logger *slog.Logger

	telemetryMode TelemetryMode
	telemetry     *Telemetry
	lexTime       time.Duration

	debugLevel  DebugLevel
	debugEvents []DebugEvent
}

// NewLexer creates a lexer. Call Init before reading tokens.
func NewLexer(opts ...LexerOpt) *Lexer {
	config := &LexerConfig{}
	for _, opt := range opts {
		opt(config)
	}

	logger := config.logger
	if logger == nil {
		logger = defaultLogger()
	}

	l := &Lexer{
		logger:        logger,
		telemetryMode: config.telemetry,
		debugLevel:    config.debug,
	}
	if config.telemetry > TelemetryOff {
		l.telemetry = &Telemetry{Counts: make(map[TokenType]int)}
	}
	if config.debug > DebugOff {
		l.debugEvents = make([]DebugEvent, 0, 64)
	}
	return l
}

// defaultLogger writes to stderr at info level, or debug level when
// ORACLE_DEBUG_LEXER is set.
func defaultLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if os.Getenv("ORACLE_DEBUG_LEXER") != "" {
		logLevel = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Timestamps and levels are noise in token traces
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// Init resets the lexer with new input
func (l *Lexer) Init(input string) {
	l.input = input
	l.pos = 0
	l.startOfLine = true
	l.started = false
	l.finished = false
	l.queue = l.queue[:0]
	l.lexTime = 0

	if l.telemetry != nil {
		l.telemetry.TokenCount = 0
		clear(l.telemetry.Counts)
		l.telemetry.LexTime = 0
	}
	if l.debugEvents != nil {
		l.debugEvents = l.debugEvents[:0]
	}
}

// NextToken returns the next token. After END has been returned, every
// further call returns END again.
func (l *Lexer) NextToken() Token {
	var start time.Time
	if l.telemetryMode >= TelemetryTiming {
		start = time.Now()
	}

	tok := l.nextToken()

	if l.telemetryMode >= TelemetryTiming {
		l.lexTime += time.Since(start)
	}
	return tok
}

func (l *Lexer) nextToken() Token {
	if !l.started {
		l.started = true
		return l.emit(Token{Type: START, Span: Span{0, 0}})
	}

	if len(l.queue) == 0 && l.pos < len(l.input) {
		prev := l.pos
		l.step()
		invariant.Invariant(l.pos > prev, "lexer must advance at offset %d", prev)
	}

	if len(l.queue) > 0 {
		tok := l.queue[0]
		l.queue = l.queue[1:]
		return l.emit(tok)
	}

	end := Token{Type: END, Span: Span{len(l.input), len(l.input)}}
	if l.finished {
		return end
	}
	l.finished = true
	return l.emit(end)
}

// GetTokens returns every remaining token through END.
func (l *Lexer) GetTokens() []Token {
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == END {
			return tokens
		}
	}
}

// Telemetry returns lexer metrics, or nil when telemetry is off.
func (l *Lexer) Telemetry() *Telemetry {
	if l.telemetry == nil {
		return nil
	}
	out := &Telemetry{
		TokenCount: l.telemetry.TokenCount,
		Counts:     make(map[TokenType]int, len(l.telemetry.Counts)),
		LexTime:    l.lexTime,
	}
	for k, v := range l.telemetry.Counts {
		out.Counts[k] = v
	}
	return out
}

// DebugEvents returns a copy of the recorded debug events (development only)
func (l *Lexer) DebugEvents() []DebugEvent {
	if l.debugLevel == DebugOff || l.debugEvents == nil {
		return nil
	}
	out := make([]DebugEvent, len(l.debugEvents))
	copy(out, l.debugEvents)
	return out
}

// step runs one pass of the recognizers against the unconsumed input and
// queues what they produce.
func (l *Lexer) step() {
	if l.startOfLine {
		if strings.HasPrefix(l.rest(), bulletMarker) {
			l.push(BULLET, "", len(bulletMarker))
			l.startOfLine = false
			// No return: an ability word may follow the bullet directly.
			if l.pos == len(l.input) {
				return
			}
		}

		if n := matchAbilityWord(l.rest()); n > 0 {
			l.push(ABILITY_WORD, l.rest()[:n], n)
			l.startOfLine = false
			return
		}
	}

	rest := l.rest()

	if n := matchSymbol(rest); n > 0 {
		l.push(SYMBOL, rest[:n], n)
		l.startOfLine = false
		return
	}

	switch rest[0] {
	case '(':
		l.push(OPEN_BRACKET, "", 1)
		l.startOfLine = false
		return
	case ')':
		l.push(CLOSE_BRACKET, "", 1)
		l.startOfLine = false
		return
	case '\n':
		l.push(NEWLINE, "", 1)
		l.startOfLine = true
		return
	}

	if n := matchText(rest); n > 0 {
		l.push(TEXT, rest[:n], n)
		l.startOfLine = false
		return
	}

	invariant.Unreachable("no recognizer matched oracle text at offset %d: %q", l.pos, rest)
}

func (l *Lexer) rest() string {
	return l.input[l.pos:]
}

// push queues a token covering the next n bytes and consumes them.
func (l *Lexer) push(typ TokenType, value string, n int) {
	tok := Token{Type: typ, Value: value, Span: Span{l.pos, l.pos + n}}
	l.queue = append(l.queue, tok)

	if l.debugLevel > DebugOff {
		ev := DebugEvent{Timestamp: time.Now(), Event: strings.ToLower(typ.String()), Offset: l.pos}
		if l.debugLevel >= DebugDetailed {
			ev.Context = l.rest()
		}
		l.debugEvents = append(l.debugEvents, ev)
	}
	l.logger.Debug("token", "type", typ.String(), "value", value, "start", tok.Span.Start, "end", tok.Span.End)

	l.pos += n
}

func (l *Lexer) emit(tok Token) Token {
	if l.telemetry != nil {
		l.telemetry.TokenCount++
		l.telemetry.Counts[tok.Type]++
	}
	return tok
}

// matchAbilityWord returns the length of the ability word at the start of
// rest, or 0. The word is the run before the line's first em-dash, and that
// em-dash must be spaced on both sides (" — "). "Ward—Pay 3 life." has an
// unspaced dash and is not an ability word.
func matchAbilityWord(rest string) int {
	i := strings.IndexAny(rest, abilityBreaks)
	if i <= 1 {
		return 0
	}
	if !strings.HasPrefix(rest[i-1:], abilityDash) {
		return 0
	}
	return i - 1
}

// matchSymbol returns the length of a brace-delimited symbol at the start of
// rest, or 0 when rest does not open one or it is never closed.
func matchSymbol(rest string) int {
	if rest == "" || rest[0] != '{' {
		return 0
	}
	end := strings.IndexByte(rest, '}')
	if end < 0 {
		return 0
	}
	return end + 1
}

// matchText returns the length of a text run: one rune, then everything up to
// the next brace, parenthesis or line break.
func matchText(rest string) int {
	if rest == "" {
		return 0
	}
	_, first := utf8.DecodeRuneInString(rest)
	n := strings.IndexAny(rest[first:], textBreaks)
	if n < 0 {
		return len(rest)
	}
	return first + n
}

// Tokenize lexes text into a token slice that always begins with START and
// ends with END.
func Tokenize(text string, opts ...LexerOpt) []Token {
	l := NewLexer(opts...)
	l.Init(text)
	tokens := l.GetTokens()

	invariant.Postcondition(len(tokens) >= 2 && tokens[0].Type == START && tokens[len(tokens)-1].Type == END,
		"token stream must be framed by START and END")
	return tokens
}
