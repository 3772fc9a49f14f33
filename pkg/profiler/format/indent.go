package format

import (
	"os"
	"strings"
)

// PadChar is the glyph used to draw indentation when colors are enabled.
const PadChar = "·"

// ColorDisabled reports whether CLICOLOR=0 is set in the environment.
func ColorDisabled() bool {
	return os.Getenv("CLICOLOR") == "0"
}

// PadGlyph returns a plain space when CLICOLOR=0, PadChar otherwise.
func PadGlyph() string {
	if ColorDisabled() {
		return " "
	}
	return PadChar
}

// Indent returns n copies of the pad glyph.
func Indent(n int) string {
	return repeat(PadGlyph(), n)
}

// Whitespace returns n spaces.
func Whitespace(n int) string {
	return repeat(" ", n)
}

func repeat(s string, n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(s, n)
}
