package core

import (
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// RuneWidth returns the display width of a rune.
// Returns 0 for control characters, 1 for normal characters,
// and 2 for wide (East Asian) characters.
func RuneWidth(r rune) int {
	if r < 32 || r == 0x7F {
		return 0
	}
	return runewidth.RuneWidth(r)
}

// StringWidth returns the number of columns s occupies on a terminal.
// Width is measured per grapheme cluster, so combining marks and
// emoji sequences count once.
func StringWidth(s string) int {
	return uniseg.StringWidth(s)
}

// Grapheme is one user-perceived character and its display width.
type Grapheme struct {
	Runes []rune
	Width int
}

// Graphemes splits s into grapheme clusters.
func Graphemes(s string) []Grapheme {
	var out []Grapheme
	state := -1
	for len(s) > 0 {
		var cluster string
		var width int
		cluster, s, width, state = uniseg.FirstGraphemeClusterInString(s, state)
		out = append(out, Grapheme{Runes: []rune(cluster), Width: width})
	}
	return out
}
