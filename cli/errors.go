package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/opal-lang/oracle/runtime/cardsource"
	"github.com/opal-lang/oracle/runtime/parser"
)

// CLIError represents a formatted CLI error with context
type CLIError struct {
	Message string
	Details string // Additional context
	Hint    string // How to fix it
}

// Error implements the error interface
func (e *CLIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Details != "" {
		b.WriteString("\n")
		b.WriteString(e.Details)
	}
	if e.Hint != "" {
		b.WriteString("\n")
		b.WriteString(e.Hint)
	}
	return b.String()
}

// malformedError describes a precondition failure with a source snippet.
func malformedError(err error, source string) error {
	var pe *parser.PreconditionError
	if !errors.As(err, &pe) {
		return err
	}
	return &CLIError{
		Message: pe.Error(),
		Details: pe.Snippet(source),
		Hint:    "reminder text must be balanced and bullets must start a line",
	}
}

// FormatError formats an error for CLI output with colors
func FormatError(w io.Writer, err error, useColor bool) {
	if err == nil {
		return
	}

	var (
		cliErr *CLIError
		nf     *cardsource.NotFoundError
	)
	switch {
	case errors.As(err, &cliErr):
		formatCLIError(w, cliErr, useColor)
	case errors.As(err, &nf):
		formatNotFoundError(w, nf, useColor)
	default:
		// Generic error
		_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Error: ", ColorRed, useColor), err.Error())
	}
}

// formatCLIError formats CLI errors
func formatCLIError(w io.Writer, err *CLIError, useColor bool) {
	_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Error: ", ColorRed, useColor), err.Message)

	if err.Details != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", err.Details)
	}

	if err.Hint != "" {
		_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Hint: ", ColorYellow, useColor), err.Hint)
	}
}

// formatNotFoundError formats card lookup misses with suggestions
func formatNotFoundError(w io.Writer, err *cardsource.NotFoundError, useColor bool) {
	_, _ = fmt.Fprintf(w, "%scard %q not found\n", Colorize("Error: ", ColorRed, useColor), err.Name)

	if len(err.Suggestions) > 0 {
		_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Did you mean: ", ColorYellow, useColor), strings.Join(err.Suggestions, ", "))
	}
}
