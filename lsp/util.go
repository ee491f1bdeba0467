package lsp

import (
	"go.lsp.dev/protocol"

	"github.com/rlch/hiveql/completion"
)

func toPosition(pos protocol.Position) completion.Position {
	return completion.Position{Line: int(pos.Line), Character: int(pos.Character)}
}

// spanToRange converts a byte span of doc to an LSP protocol.Range.
func spanToRange(doc *completion.Document, span completion.Span) protocol.Range {
	start := doc.PositionAt(span.Start)
	end := doc.PositionAt(span.End)

	return protocol.Range{
		Start: protocol.Position{
			Line:      uint32(start.Line),      //nolint:gosec // G115: values are small line numbers
			Character: uint32(start.Character), //nolint:gosec // G115: values are small column numbers
		},
		End: protocol.Position{
			Line:      uint32(end.Line),      //nolint:gosec // G115: values are small line numbers
			Character: uint32(end.Character), //nolint:gosec // G115: values are small column numbers
		},
	}
}

func rangePtr(r protocol.Range) *protocol.Range {
	return &r
}
