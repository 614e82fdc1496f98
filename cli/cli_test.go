package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opal-lang/oracle/cli/config"
	"github.com/opal-lang/oracle/runtime/cardsource"
	"github.com/opal-lang/oracle/runtime/parser"
)

const (
	testCards     = "../runtime/cardsource/testdata/cards.json"
	testSymbology = "../runtime/cardsource/testdata/symbology.json"
)

// runCLI executes the root command with args and returns its stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runCLIContext(t, context.Background(), args...)
}

func runCLIContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvVar, "")

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	return stdout.String(), err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTokensCommand(t *testing.T) {
	out, err := runCLI(t, "tokens", "--text", "Flying")
	require.NoError(t, err)
	assert.Equal(t, "START[0,0)\nTEXT(\"Flying\")[0,6)\nEND[6,6)\n", out)
}

func TestTreeCommand(t *testing.T) {
	out, err := runCLI(t, "tree", "--text", "Flying")
	require.NoError(t, err)
	assert.Equal(t, "Root\n└─ Paragraph\n   └─ Text \"Flying\"\n", out)
}

func TestTreeCommandFlagsIncompleteParse(t *testing.T) {
	out, err := runCLI(t, "tree", "--text", "a) b")
	require.NoError(t, err)
	assert.Contains(t, out, "(incomplete: parse stopped at token 3 of 5)")
}

func TestRenderCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "text is the default format",
			args: []string{"render", "--text", "Choose one —\n• A\n• B"},
			want: "Choose one —\n• A\n• B\n",
		},
		{
			name: "markdown",
			args: []string{"render", "-o", "markdown", "--text", "Choose one —\n• A\n• B"},
			want: "Choose one —\n\n- A\n- B\n",
		},
		{
			name: "html",
			args: []string{"render", "--format", "html", "--text", "Flying"},
			want: "<div class=\"oracle-text\"><p>Flying</p></div>\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestRenderCommandReadsFile(t *testing.T) {
	path := writeTemp(t, "card.txt", "Flying\nVigilance\n")

	out, err := runCLI(t, "render", path)
	require.NoError(t, err)
	assert.Equal(t, "Flying\nVigilance\n", out)
}

func TestRenderCommandUsesConfigFile(t *testing.T) {
	cfgPath := writeTemp(t, "oracle.yaml", "format: markdown\n")

	out, err := runCLI(t, "--config", cfgPath, "render", "--text", "Landfall — Draw.")
	require.NoError(t, err)
	assert.Equal(t, "*Landfall* — Draw.\n", out)

	// Flags win over the file
	out, err = runCLI(t, "--config", cfgPath, "render", "-o", "text", "--text", "Landfall — Draw.")
	require.NoError(t, err)
	assert.Equal(t, "Landfall — Draw.\n", out)
}

func TestRenderCommandResolvesSymbols(t *testing.T) {
	out, err := runCLI(t, "--symbology", testSymbology, "render", "-o", "html", "--text", "{T}: Add {R}.")
	require.NoError(t, err)
	assert.Contains(t, out, `src="https://svgs.scryfall.io/card-symbols/T.svg"`)
	assert.Contains(t, out, `title="one red mana"`)
}

func TestRenderCommandRejectsUnknownFormat(t *testing.T) {
	_, err := runCLI(t, "render", "-o", "mardown", "--text", "Flying")

	var cliErr *CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, `unknown format "mardown"`, cliErr.Message)
	assert.Equal(t, `did you mean "markdown"?`, cliErr.Hint)
}

func TestRenderCommandBadConfig(t *testing.T) {
	cfgPath := writeTemp(t, "oracle.toml", `format = "pdf"`)

	_, err := runCLI(t, "--config", cfgPath, "render", "--text", "Flying")

	var cliErr *CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, "failed to load config", cliErr.Message)
	assert.Contains(t, cliErr.Details, "invalid config")
}

func TestCardCommand(t *testing.T) {
	t.Run("single face", func(t *testing.T) {
		out, err := runCLI(t, "--cards", testCards, "card", "lightning", "bolt")
		require.NoError(t, err)
		assert.Equal(t, "Lightning Bolt deals 3 damage to any target.\n", out)
	})

	t.Run("split card prints each face", func(t *testing.T) {
		out, err := runCLI(t, "--cards", testCards, "card", "Fire // Ice")
		require.NoError(t, err)
		want := "Fire\n" +
			"Fire deals 2 damage divided as you choose among one or two targets.\n" +
			"\n" +
			"Ice\n" +
			"Tap target permanent.\nDraw a card.\n"
		assert.Equal(t, want, out)
	})

	t.Run("miss suggests names", func(t *testing.T) {
		_, err := runCLI(t, "--cards", testCards, "card", "Owlbaer")

		var nf *cardsource.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, []string{"Owlbear"}, nf.Suggestions)
	})

	t.Run("blank name is a miss", func(t *testing.T) {
		out, err := runCLI(t, "--cards", testCards, "card", " ")
		assert.Empty(t, out)

		var nf *cardsource.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Empty(t, nf.Suggestions)
	})

	t.Run("needs card data", func(t *testing.T) {
		_, err := runCLI(t, "card", "Owlbear")

		var cliErr *CLIError
		require.ErrorAs(t, err, &cliErr)
		assert.Equal(t, "no card data", cliErr.Message)
	})
}

func TestSymbolsCommand(t *testing.T) {
	t.Run("lists the catalog", func(t *testing.T) {
		out, err := runCLI(t, "--symbology", testSymbology, "symbols")
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
		require.Len(t, lines, 4)
		assert.Equal(t, "{T}      tap this permanent", lines[0])
	})

	t.Run("symbols in oracle text", func(t *testing.T) {
		out, err := runCLI(t, "--symbology", testSymbology, "symbols", "--text", "{T}: Add {R}{R}.")
		require.NoError(t, err)
		assert.Equal(t, "{T}      tap this permanent\n{R}      one red mana\n", out)
	})

	t.Run("unknown code", func(t *testing.T) {
		out, err := runCLI(t, "--symbology", testSymbology, "symbols", "{Q}")
		assert.EqualError(t, err, "unknown symbols: {Q}")
		assert.Equal(t, "{Q}      unknown\n", out)
	})

	t.Run("fallback", func(t *testing.T) {
		out, err := runCLI(t, "--symbology", testSymbology, "--symbol-fallback", "symbols", "{Q}")
		require.NoError(t, err)
		assert.Equal(t, "{Q}      zero mana\n", out)
	})

	t.Run("needs symbology", func(t *testing.T) {
		_, err := runCLI(t, "symbols")

		var cliErr *CLIError
		require.ErrorAs(t, err, &cliErr)
		assert.Equal(t, "no symbology data", cliErr.Message)
	})
}

func TestHashCommand(t *testing.T) {
	a, err := runCLI(t, "hash", "--text", "Flying\nVigilance")
	require.NoError(t, err)
	b, err := runCLI(t, "hash", "--text", "Flying\nVigilance")
	require.NoError(t, err)
	c, err := runCLI(t, "hash", "--text", "Flying\nReach")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a, "blake2b:"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	raw, err := runCLI(t, "hash", "--raw", "--text", "Flying")
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
}

func TestCheckCommand(t *testing.T) {
	t.Run("well formed", func(t *testing.T) {
		out, err := runCLI(t, "check", "--text", "Flying (This creature can fly.)")
		require.NoError(t, err)
		assert.Equal(t, "ok: 6 tokens, 5 nodes\n", out)
	})

	t.Run("stray bracket", func(t *testing.T) {
		_, err := runCLI(t, "check", "--text", "Pay 3 life.)")

		var cliErr *CLIError
		require.ErrorAs(t, err, &cliErr)
		assert.Contains(t, cliErr.Details, "--> 1:12")
	})
}

func TestWatchCommandRendersAndExits(t *testing.T) {
	path := writeTemp(t, "card.txt", "Flying")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := runCLIContext(t, ctx, "watch", path)
	require.NoError(t, err)
	assert.Equal(t, "Flying\n", out)
}

func TestGetInputReader(t *testing.T) {
	content := "Flying"

	t.Run("ExplicitStdin", func(t *testing.T) {
		restore := pipeStdin(t, content)
		defer restore()

		reader, closeFunc, err := getInputReader("-")
		require.NoError(t, err)
		defer func() { _ = closeFunc() }()

		data, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, content, string(data))
	})

	t.Run("PipedInputWithoutFile", func(t *testing.T) {
		restore := pipeStdin(t, content)
		defer restore()

		got, err := readOracleText(nil, "")
		require.NoError(t, err)
		assert.Equal(t, content, got)
	})

	t.Run("FileArgument", func(t *testing.T) {
		path := writeTemp(t, "card.txt", "Flying\r\n")

		got, err := readOracleText([]string{path}, "")
		require.NoError(t, err)
		assert.Equal(t, "Flying", got)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, _, err := getInputReader(filepath.Join(t.TempDir(), "missing.txt"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("TextAndFileConflict", func(t *testing.T) {
		_, err := readOracleText([]string{"card.txt"}, "Flying")
		assert.Error(t, err)
	})
}

// pipeStdin replaces os.Stdin with a pipe carrying content.
func pipeStdin(t *testing.T, content string) func() {
	t.Helper()
	oldStdin := os.Stdin
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdin = r

	go func() {
		defer func() { _ = w.Close() }()
		_, err := w.Write([]byte(content))
		assert.NoError(t, err)
	}()

	return func() {
		os.Stdin = oldStdin
		_ = r.Close()
	}
}

func TestDebugLogsParserTrace(t *testing.T) {
	t.Setenv(config.EnvVar, "")

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--debug", "tree", "--text", "A (B)"})
	require.NoError(t, cmd.Execute())

	logs := stderr.String()
	assert.Contains(t, logs, "event=descend_reminder")
	assert.Contains(t, logs, "tip=ReminderText")
	assert.Contains(t, logs, "reminders=1")
}

func TestShouldUseColor(t *testing.T) {
	t.Setenv("NO_COLOR", "")

	t.Run("PipeIsNotTerminal", func(t *testing.T) {
		r, w, err := os.Pipe()
		require.NoError(t, err)
		defer func() { _ = r.Close(); _ = w.Close() }()

		assert.False(t, ShouldUseColor(w, false))
	})

	t.Run("RegularFileIsNotTerminal", func(t *testing.T) {
		f, err := os.Create(filepath.Join(t.TempDir(), "stderr.log"))
		require.NoError(t, err)
		defer func() { _ = f.Close() }()

		assert.False(t, ShouldUseColor(f, false))
	})

	t.Run("ClosedFile", func(t *testing.T) {
		f, err := os.Create(filepath.Join(t.TempDir(), "closed.log"))
		require.NoError(t, err)
		require.NoError(t, f.Close())

		assert.False(t, ShouldUseColor(f, false))
	})

	t.Run("NoColorFlag", func(t *testing.T) {
		assert.False(t, ShouldUseColor(os.Stderr, true))
	})

	t.Run("NoColorEnv", func(t *testing.T) {
		t.Setenv("NO_COLOR", "1")
		assert.False(t, ShouldUseColor(os.Stderr, false))
	})
}

func TestFormatError(t *testing.T) {
	t.Run("precondition error shows snippet", func(t *testing.T) {
		_, err := parser.ParseStringStrict("Pay 3 life.)")
		require.Error(t, err)

		var buf bytes.Buffer
		FormatError(&buf, malformedError(err, "Pay 3 life.)"), false)

		want := "Error: malformed oracle text: unmatched ')' at token 2 [11,12)\n" +
			"\n" +
			"  --> 1:12\n" +
			"   |\n" +
			" 1 | Pay 3 life.)\n" +
			"   |            ^\n" +
			"Hint: reminder text must be balanced and bullets must start a line\n"
		assert.Equal(t, want, buf.String())
	})

	t.Run("not found lists suggestions", func(t *testing.T) {
		var buf bytes.Buffer
		FormatError(&buf, &cardsource.NotFoundError{Name: "Owlbaer", Suggestions: []string{"Owlbear"}}, false)
		assert.Equal(t, "Error: card \"Owlbaer\" not found\nDid you mean: Owlbear\n", buf.String())
	})

	t.Run("generic", func(t *testing.T) {
		var buf bytes.Buffer
		FormatError(&buf, errors.New("boom"), true)
		assert.Equal(t, ColorRed+"Error: "+ColorReset+"boom\n", buf.String())
	})
}
