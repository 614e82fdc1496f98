package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// errNoInput is returned when a command has neither a file, piped stdin nor
// --text to read from.
var errNoInput = &CLIError{
	Message: "no input",
	Hint:    "pass a file, '-' for stdin, pipe text in, or use --text",
}

// getInputReader handles the 3 modes of input:
// 1. Explicit stdin with "-"
// 2. Piped input (auto-detected when no file is given)
// 3. File input
func getInputReader(file string) (io.Reader, func() error, error) {
	// Mode 1: Explicit stdin
	if file == "-" {
		return os.Stdin, func() error { return nil }, nil
	}

	// Mode 2: Piped input when no file was named
	if file == "" {
		if hasPipedInput() {
			return os.Stdin, func() error { return nil }, nil
		}
		return nil, nil, errNoInput
	}

	// Mode 3: File input
	f, err := os.Open(file)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening file %s: %w", file, err)
	}

	closeFunc := func() error {
		return f.Close()
	}

	return f, closeFunc, nil
}

// hasPipedInput detects if there's data piped to stdin
func hasPipedInput() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}

	// Check if stdin is not a character device (i.e., it's piped)
	// Note: We don't check Size() > 0 because pipes may not report size correctly
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readOracleText returns the text a command operates on: --text when given,
// otherwise the named file or stdin. The final line ending of a file is not
// part of the oracle text.
func readOracleText(args []string, text string) (string, error) {
	if text != "" {
		if len(args) > 0 {
			return "", errors.New("--text cannot be combined with a file argument")
		}
		return text, nil
	}

	var file string
	if len(args) > 0 {
		file = args[0]
	}

	reader, closeFunc, err := getInputReader(file)
	if err != nil {
		return "", err
	}
	defer func() { _ = closeFunc() }()

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}

	s := string(data)
	if rest, ok := strings.CutSuffix(s, "\r\n"); ok {
		return rest, nil
	}
	return strings.TrimSuffix(s, "\n"), nil
}
