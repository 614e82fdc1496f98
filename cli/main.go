package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/opal-lang/oracle/cli/config"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	debug      bool
	noColor    bool
	cards      string
	symbology  string
	fallback   bool
}

// app is the state handed to each command once flags and config are resolved.
type app struct {
	flags  globalFlags
	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		noColor, _ := rootCmd.PersistentFlags().GetBool("no-color")
		FormatError(os.Stderr, err, ShouldUseColor(os.Stderr, noColor))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "oracle",
		Short:         "Tokenize, parse and render Magic: The Gathering oracle text",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	// Add flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", "", "Path to config file (default: $"+config.EnvVar+" or .oracle.yaml/.oracle.toml)")
	pf.BoolVar(&a.flags.debug, "debug", false, "Enable debug output")
	pf.BoolVar(&a.flags.noColor, "no-color", false, "Disable colored output")
	pf.StringVar(&a.flags.cards, "cards", "", "Path to a card list JSON file")
	pf.StringVar(&a.flags.symbology, "symbology", "", "Path to a symbology JSON file")
	pf.BoolVar(&a.flags.fallback, "symbol-fallback", false, "Show unknown symbols with the {0} icon")

	rootCmd.AddCommand(
		newTokensCmd(a),
		newTreeCmd(a),
		newRenderCmd(a),
		newCardCmd(a),
		newSymbolsCmd(a),
		newHashCmd(a),
		newCheckCmd(a),
		newWatchCmd(a),
	)
	return rootCmd
}

// setup loads the config file and lets explicitly set flags override it.
func (a *app) setup(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if a.flags.configPath != "" {
		cfg, err = config.Load(a.flags.configPath)
	} else {
		cfg, err = config.Discover(".")
	}
	if err != nil {
		return &CLIError{
			Message: "failed to load config",
			Details: err.Error(),
			Hint:    "check the file named by --config or $" + config.EnvVar,
		}
	}

	flags := cmd.Flags()
	if flags.Changed("debug") {
		cfg.Debug = a.flags.debug
	}
	if flags.Changed("no-color") {
		cfg.NoColor = a.flags.noColor
	}
	if flags.Changed("cards") {
		cfg.Cards = a.flags.cards
	}
	if flags.Changed("symbology") {
		cfg.Symbology = a.flags.symbology
	}
	if flags.Changed("symbol-fallback") {
		cfg.SymbolFallback = a.flags.fallback
	}

	a.cfg = cfg
	a.logger = newLogger(cmd.ErrOrStderr(), cfg.Debug)
	if cfg.Path() != "" {
		a.logger.Debug("loaded config", "path", cfg.Path())
	}
	return nil
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// useColor reports whether cmd's output should carry ANSI styling.
func (a *app) useColor(cmd *cobra.Command) bool {
	if cmd.OutOrStdout() != os.Stdout {
		return false
	}
	return ShouldUseColor(os.Stdout, a.cfg.NoColor)
}

func printf(cmd *cobra.Command, format string, args ...any) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
