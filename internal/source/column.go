package source

import (
	"fmt"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// ColumnMode selects the unit columns are counted in.
type ColumnMode int

const (
	// Runes counts Unicode code points. A tab is one column.
	Runes ColumnMode = iota
	// Graphemes counts user-perceived characters, so a base letter followed
	// by combining marks is one column.
	Graphemes
	// Display counts terminal cells: wide characters take two columns and
	// tabs advance to the next tab stop.
	Display
)

// DefaultTabWidth is used in Display mode when no tab width is configured.
const DefaultTabWidth = 4

// ParseColumnMode parses a configuration value. The empty string selects Runes.
func ParseColumnMode(s string) (ColumnMode, error) {
	switch s {
	case "", "runes":
		return Runes, nil
	case "graphemes":
		return Graphemes, nil
	case "display":
		return Display, nil
	}
	return Runes, fmt.Errorf("source: unknown column mode %q (want runes, graphemes or display)", s)
}

func (m ColumnMode) String() string {
	switch m {
	case Graphemes:
		return "graphemes"
	case Display:
		return "display"
	default:
		return "runes"
	}
}

// width returns the column reached after text, starting at column zero.
func (m ColumnMode) width(text []byte, tabWidth int) int {
	switch m {
	case Graphemes:
		return uniseg.GraphemeClusterCount(string(text))
	case Display:
		if tabWidth <= 0 {
			tabWidth = DefaultTabWidth
		}
		col := 0
		for len(text) > 0 {
			r, size := utf8.DecodeRune(text)
			text = text[size:]
			if r == '\t' {
				col += tabWidth - col%tabWidth
				continue
			}
			col += runewidth.RuneWidth(r)
		}
		return col
	default:
		return utf8.RuneCount(text)
	}
}
