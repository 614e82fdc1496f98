package main

import (
	"os"

	"github.com/opal-lang/oracle/runtime/render"
)

// Re-export color constants from render package for convenience
const (
	ColorReset  = render.ColorReset
	ColorRed    = render.ColorRed
	ColorGreen  = render.ColorGreen
	ColorYellow = render.ColorYellow
	ColorCyan   = render.ColorCyan
	ColorGray   = render.ColorGray
)

// Colorize wraps text in ANSI color codes if color is enabled
func Colorize(text, color string, useColor bool) string {
	return render.Colorize(text, color, useColor)
}

// ShouldUseColor determines if color output should be used for f
// Respects --no-color flag and NO_COLOR environment variable
func ShouldUseColor(f *os.File, noColorFlag bool) bool {
	if noColorFlag {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	// Check if f is a terminal
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
