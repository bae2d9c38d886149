package sheet

import (
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/steveyegge/tasksheet/internal/types"
)

// cellText returns s as a workbook cell can store it, so a saved row reads
// back identical to the row that was merged. Runes outside the XML 1.0
// character range become U+FFFD, and text is cut at the cell length limit.
func cellText(s string) string {
	clean := true
	for _, r := range s {
		if r == utf8.RuneError || !isXMLChar(r) {
			clean = false
			break
		}
	}
	if clean && len(s) <= excelize.TotalCellChars {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	n := 0
	for _, r := range s {
		if n == excelize.TotalCellChars {
			break
		}
		if !isXMLChar(r) {
			r = utf8.RuneError
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}

// isXMLChar mirrors the Char production of XML 1.0
func isXMLChar(r rune) bool {
	return r == 0x09 ||
		r == 0x0A ||
		r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}

// storableRow applies cellText to every cell, copying only when a cell changes
func storableRow(r types.Row) types.Row {
	var out types.Row
	for i, c := range r {
		clean := cellText(c)
		if clean == c {
			continue
		}
		if out == nil {
			out = r.Clone()
		}
		out[i] = clean
	}
	if out == nil {
		return r
	}
	return out
}
