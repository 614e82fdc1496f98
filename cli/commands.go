package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/cobra"

	"github.com/opal-lang/oracle/cli/config"
	"github.com/opal-lang/oracle/runtime/cardsource"
	"github.com/opal-lang/oracle/runtime/docfmt"
	"github.com/opal-lang/oracle/runtime/lexer"
	"github.com/opal-lang/oracle/runtime/parser"
	"github.com/opal-lang/oracle/runtime/render"
	"github.com/opal-lang/oracle/runtime/watch"
)

// renderFlags are shared by the commands that produce rendered output.
type renderFlags struct {
	format   string
	width    int
	markdown bool
}

func addRenderFlags(cmd *cobra.Command, rf *renderFlags) {
	cmd.Flags().StringVarP(&rf.format, "format", "o", "", "Output format: "+strings.Join(config.RenderFormats, ", "))
	cmd.Flags().IntVar(&rf.width, "width", 0, "Word wrap width for terminal markdown output")
	cmd.Flags().BoolVar(&rf.markdown, "markdown", false, "Render terminal output through the markdown renderer")
}

// resolve fills unset render flags from the config file.
func (rf *renderFlags) resolve(cmd *cobra.Command, cfg *config.Config) error {
	if !cmd.Flags().Changed("format") {
		rf.format = cfg.Format
	}
	if !cmd.Flags().Changed("width") {
		rf.width = cfg.WordWrap
	}
	if !cmd.Flags().Changed("markdown") {
		rf.markdown = cfg.Markdown
	}

	if slices.Contains(config.RenderFormats, rf.format) {
		return nil
	}
	err := &CLIError{
		Message: fmt.Sprintf("unknown format %q", rf.format),
		Hint:    "valid formats: " + strings.Join(config.RenderFormats, ", "),
	}
	if s := closest(rf.format, config.RenderFormats); s != "" {
		err.Hint = fmt.Sprintf("did you mean %q?", s)
	}
	return err
}

// closest returns the candidate within edit distance 3 of s, if any.
func closest(s string, candidates []string) string {
	best, bestDist := "", 4
	for _, c := range candidates {
		if d := fuzzy.LevenshteinDistance(s, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// catalog loads the configured symbology, or returns nil when none is set.
func (a *app) catalog() (*cardsource.Catalog, error) {
	if a.cfg.Symbology == "" {
		return nil, nil
	}
	var opts []cardsource.CatalogOpt
	if a.cfg.SymbolFallback {
		opts = append(opts, cardsource.WithFallback())
	}
	c, err := cardsource.LoadSymbologyFile(a.cfg.Symbology, opts...)
	if err != nil {
		return nil, fmt.Errorf("load symbology: %w", err)
	}
	a.logger.Debug("loaded symbology", "path", a.cfg.Symbology, "version", c.Version(), "symbols", len(c.Symbols()))
	return c, nil
}

func (a *app) renderOpts(cmd *cobra.Command, rf *renderFlags) ([]render.RenderOpt, error) {
	opts := []render.RenderOpt{render.WithColor(a.useColor(cmd))}
	if rf != nil {
		opts = append(opts, render.WithWordWrap(rf.width))
		if rf.markdown {
			opts = append(opts, render.WithMarkdown())
		}
	}
	c, err := a.catalog()
	if err != nil {
		return nil, err
	}
	if c != nil {
		opts = append(opts, render.WithSymbols(c))
	}
	return opts, nil
}

// renderDocument renders doc in format. The result always ends in a newline.
func renderDocument(doc *parser.Document, format string, opts []render.RenderOpt) (string, error) {
	var (
		out string
		err error
	)
	switch format {
	case "text":
		out = render.PlainText(doc)
	case "markdown":
		out = render.RenderMarkdown(doc, opts...)
	case "html":
		out, err = render.RenderHTML(doc, opts...)
	case "terminal":
		out, err = render.RenderTerminal(doc, opts...)
	default:
		return "", fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return "", err
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out, nil
}

func (a *app) parse(text string) *parser.Document {
	var lexOpts []lexer.LexerOpt
	var parseOpts []parser.ParserOpt
	if a.cfg.Debug {
		lexOpts = append(lexOpts, lexer.WithLogger(a.logger), lexer.WithDebugPaths(), lexer.WithTelemetryTiming())
		parseOpts = append(parseOpts,
			parser.WithTelemetry(parser.TelemetryTiming),
			parser.WithTrace(func(ev parser.DebugEvent) {
				a.logger.Debug("parser", "event", ev.Event, "token", ev.TokenPos, "tip", ev.Tip.String())
			}))
	}

	l := lexer.NewLexer(lexOpts...)
	l.Init(text)
	tokens := l.GetTokens()
	if t := l.Telemetry(); t != nil {
		a.logger.Debug("lexed", "tokens", t.TokenCount, "lex_time", t.LexTime)
	}

	doc := parser.Parse(tokens, parseOpts...)
	doc.Source = text

	if t := doc.Telemetry; t != nil {
		a.logger.Debug("parsed",
			"tokens", t.TokenCount,
			"consumed", t.Consumed,
			"nodes", t.NodeCount,
			"paragraphs", t.Paragraphs,
			"lists", t.Lists,
			"reminders", t.Reminders,
			"parse_time", t.ParseTime)
	}
	if !doc.Complete() {
		a.logger.Warn("parse stopped early", "consumed", doc.Consumed, "tokens", len(doc.Tokens))
	}
	return doc
}

func newTokensCmd(a *app) *cobra.Command {
	var text string
	cmd := &cobra.Command{
		Use:   "tokens [file]",
		Short: "Print the token stream of oracle text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readOracleText(args, text)
			if err != nil {
				return err
			}
			for _, tok := range lexer.Tokenize(src) {
				printf(cmd, "%s\n", tok)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&text, "text", "t", "", "Oracle text to read instead of a file")
	return cmd
}

func newTreeCmd(a *app) *cobra.Command {
	var text string
	cmd := &cobra.Command{
		Use:   "tree [file]",
		Short: "Print the document tree of oracle text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readOracleText(args, text)
			if err != nil {
				return err
			}
			opts, err := a.renderOpts(cmd, nil)
			if err != nil {
				return err
			}
			render.FormatTree(cmd.OutOrStdout(), a.parse(src), opts...)
			return nil
		},
	}
	cmd.Flags().StringVarP(&text, "text", "t", "", "Oracle text to read instead of a file")
	return cmd
}

func newRenderCmd(a *app) *cobra.Command {
	var (
		text string
		rf   renderFlags
	)
	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render oracle text as text, markdown, HTML or terminal output",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rf.resolve(cmd, a.cfg); err != nil {
				return err
			}
			src, err := readOracleText(args, text)
			if err != nil {
				return err
			}
			opts, err := a.renderOpts(cmd, &rf)
			if err != nil {
				return err
			}
			out, err := renderDocument(a.parse(src), rf.format, opts)
			if err != nil {
				return err
			}
			printf(cmd, "%s", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&text, "text", "t", "", "Oracle text to read instead of a file")
	addRenderFlags(cmd, &rf)
	return cmd
}

func newCardCmd(a *app) *cobra.Command {
	var rf renderFlags
	cmd := &cobra.Command{
		Use:   "card <name>",
		Short: "Look up a card by name and render its oracle text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rf.resolve(cmd, a.cfg); err != nil {
				return err
			}
			if a.cfg.Cards == "" {
				return &CLIError{
					Message: "no card data",
					Hint:    "pass --cards or set cards in the config file",
				}
			}
			idx, err := cardsource.LoadCardsFile(a.cfg.Cards)
			if err != nil {
				return fmt.Errorf("load cards: %w", err)
			}
			a.logger.Debug("loaded cards", "path", a.cfg.Cards, "version", idx.Version(), "cards", idx.Len())

			card, err := idx.Lookup(strings.Join(args, " "))
			if err != nil {
				return err
			}
			opts, err := a.renderOpts(cmd, &rf)
			if err != nil {
				return err
			}

			useColor := a.useColor(cmd)
			faces := card.OracleTexts()
			for i, face := range faces {
				if len(faces) > 1 {
					if i > 0 {
						printf(cmd, "\n")
					}
					printf(cmd, "%s\n", Colorize(face.Name, ColorCyan, useColor))
				}
				out, err := renderDocument(a.parse(face.OracleText), rf.format, opts)
				if err != nil {
					return err
				}
				printf(cmd, "%s", out)
			}
			return nil
		},
	}
	addRenderFlags(cmd, &rf)
	return cmd
}

func newSymbolsCmd(a *app) *cobra.Command {
	var text string
	cmd := &cobra.Command{
		Use:   "symbols [code...]",
		Short: "List or look up card symbols",
		Long: "With no arguments, list every symbol in the symbology file. With codes, " +
			"look each one up. With --text, look up the symbols used in oracle text.",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.catalog()
			if err != nil {
				return err
			}
			if c == nil {
				return &CLIError{
					Message: "no symbology data",
					Hint:    "pass --symbology or set symbology in the config file",
				}
			}

			codes := args
			if text != "" {
				codes = symbolCodes(text)
			}
			useColor := a.useColor(cmd)

			if len(codes) == 0 {
				for _, s := range c.Symbols() {
					printf(cmd, "%-8s %s\n", Colorize(s.Symbol, ColorYellow, useColor), s.English)
				}
				return nil
			}

			var unknown []string
			for _, code := range codes {
				s, ok := c.ResolveSymbol(code)
				if !ok {
					unknown = append(unknown, code)
					printf(cmd, "%-8s %s\n", code, Colorize("unknown", ColorRed, useColor))
					continue
				}
				printf(cmd, "%-8s %s\n", Colorize(code, ColorYellow, useColor), s.Description)
			}
			if len(unknown) > 0 {
				return fmt.Errorf("unknown symbols: %s", strings.Join(unknown, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&text, "text", "t", "", "Oracle text whose symbols to look up")
	return cmd
}

// symbolCodes returns the distinct symbol codes in text, in order of first use.
func symbolCodes(text string) []string {
	var codes []string
	for _, tok := range lexer.Tokenize(text) {
		if tok.Type == lexer.SYMBOL && !slices.Contains(codes, tok.Value) {
			codes = append(codes, tok.Value)
		}
	}
	return codes
}

func newHashCmd(a *app) *cobra.Command {
	var (
		text string
		raw  bool
	)
	cmd := &cobra.Command{
		Use:   "hash [file]",
		Short: "Print the structural fingerprint of oracle text",
		Long: "Texts that parse to the same document tree have the same fingerprint. " +
			"With --raw the canonical CBOR encoding is written instead.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readOracleText(args, text)
			if err != nil {
				return err
			}
			doc := a.parse(src)
			if raw {
				data, err := docfmt.Encode(doc)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			fp, err := docfmt.Fingerprint(doc)
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", fp)
			return nil
		},
	}
	cmd.Flags().StringVarP(&text, "text", "t", "", "Oracle text to read instead of a file")
	cmd.Flags().BoolVar(&raw, "raw", false, "Write the canonical CBOR encoding")
	return cmd
}

func newCheckCmd(a *app) *cobra.Command {
	var text string
	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Check that oracle text is well formed",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readOracleText(args, text)
			if err != nil {
				return err
			}
			doc, err := parser.ParseStringStrict(src)
			if err != nil {
				return malformedError(err, src)
			}
			printf(cmd, "%s %d tokens, %d nodes\n",
				Colorize("ok:", ColorGreen, a.useColor(cmd)), len(doc.Tokens), doc.Tree.Len())
			return nil
		},
	}
	cmd.Flags().StringVarP(&text, "text", "t", "", "Oracle text to read instead of a file")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	var (
		rf       renderFlags
		debounce time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-render a file whenever it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rf.resolve(cmd, a.cfg); err != nil {
				return err
			}
			if !cmd.Flags().Changed("debounce") {
				debounce = a.cfg.DebounceDuration()
			}
			opts, err := a.renderOpts(cmd, &rf)
			if err != nil {
				return err
			}

			renderFn := func(doc *parser.Document) (string, error) {
				return renderDocument(doc, rf.format, opts)
			}
			w, err := watch.New(args[0], cmd.OutOrStdout(), renderFn,
				watch.WithDebounce(debounce),
				watch.WithLogger(a.logger))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt)
			defer stop()

			if err := w.Start(ctx); err != nil {
				return err
			}
			defer w.Stop()

			<-w.Done()
			stats := w.Stats()
			a.logger.Debug("watch stopped", "renders", stats.Renders, "skipped", stats.Skipped, "errors", stats.Errors)
			return nil
		},
	}
	addRenderFlags(cmd, &rf)
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before re-rendering")
	return cmd
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
