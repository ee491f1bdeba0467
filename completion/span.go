package completion

import (
	"strings"

	"github.com/rlch/hiveql"
)

// wordDelimiters end the partial word scanned backwards from the cursor.
const wordDelimiters = " \t\n\r\":{[()]},*>+"

// currentWord returns the partial word immediately before offset.
func currentWord(text string, offset int) string {
	i := offset - 1
	for i >= 0 && !strings.ContainsRune(wordDelimiters, rune(text[i])) {
		i--
	}

	return text[i+1 : offset]
}

// replaceSpan decides which text a candidate replaces. Without an anchor node,
// or with one starting after the cursor, the partial word is replaced. A dotted
// anchor keeps everything up to its first dot. An anchor still being typed
// (unresolved end) is replaced up to the cursor.
func (r *request) replaceSpan(anchor hiveql.NodeID) Span {
	if anchor == hiveql.NoNode || r.prog.Offset(anchor) > r.offset {
		return r.wordSpan
	}

	start := r.prog.Offset(anchor)

	end := r.prog.End(anchor)
	if end == hiveql.Unresolved {
		end = r.offset
	}

	if dot := strings.IndexByte(r.prog.Text(anchor), '.'); dot >= 0 {
		start += dot + 1
	}

	if end < start {
		end = start
	}

	return Span{Start: start, End: end}
}
