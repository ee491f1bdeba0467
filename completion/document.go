package completion

import (
	"unicode/utf16"
	"unicode/utf8"
)

// Position is a zero-based line and character. Characters count UTF-16 code
// units, as editors speaking the language server protocol do.
type Position struct {
	Line      int
	Character int
}

// Document is an immutable text with line-aware offset conversion.
type Document struct {
	text       string
	lineStarts []int
}

// NewDocument indexes text.
func NewDocument(text string) *Document {
	starts := []int{0}

	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}

	return &Document{text: text, lineStarts: starts}
}

// Text returns the document content.
func (d *Document) Text() string { return d.text }

// OffsetAt converts a position to a byte offset, clamping positions past the end
// of a line or of the document.
func (d *Document) OffsetAt(pos Position) int {
	if pos.Line < 0 {
		return 0
	}

	if pos.Line >= len(d.lineStarts) {
		return len(d.text)
	}

	start := d.lineStarts[pos.Line]

	end := len(d.text)
	if pos.Line+1 < len(d.lineStarts) {
		end = d.lineStarts[pos.Line+1] - 1 // before '\n'
	}

	off := start
	for units := 0; off < end && units < pos.Character; {
		r, size := utf8.DecodeRuneInString(d.text[off:end])
		units += utf16.RuneLen(r)
		off += size
	}

	return off
}

// PositionAt converts a byte offset to a position.
func (d *Document) PositionAt(offset int) Position {
	offset = max(0, min(offset, len(d.text)))

	line := 0
	for line+1 < len(d.lineStarts) && d.lineStarts[line+1] <= offset {
		line++
	}

	units := 0
	for off := d.lineStarts[line]; off < offset; {
		r, size := utf8.DecodeRuneInString(d.text[off:])
		units += utf16.RuneLen(r)
		off += size
	}

	return Position{Line: line, Character: units}
}
