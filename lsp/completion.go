package lsp

import (
	"context"
	"time"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/rlch/hiveql/completion"
)

// Completion handles textDocument/completion requests.
func (s *Server) Completion(_ context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	s.logger.Debug("Completion",
		zap.String("uri", string(params.TextDocument.URI)),
		zap.Uint32("line", params.Position.Line),
		zap.Uint32("character", params.Position.Character))

	start := time.Now()

	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok {
		return nil, nil //nolint:nilnil
	}

	list := s.engine.DoComplete(doc.Text, toPosition(params.Position), doc.Program, nil)

	items := make([]protocol.CompletionItem, 0, len(list.Items))
	for _, c := range list.Items {
		items = append(items, completionItem(doc.Text, c))
	}

	s.metrics.observeCompletion(len(items), time.Since(start))

	return &protocol.CompletionList{
		IsIncomplete: list.IsIncomplete,
		Items:        items,
	}, nil
}

// completionItem converts a candidate to an LSP item whose text edit replaces
// the candidate's span.
func completionItem(doc *completion.Document, c completion.Candidate) protocol.CompletionItem {
	item := protocol.CompletionItem{
		Label:            c.Label,
		Kind:             itemKind(c.Detail),
		Detail:           string(c.Detail),
		InsertText:       c.InsertText,
		InsertTextFormat: protocol.InsertTextFormatPlainText,
		SortText:         c.SortKey,
		TextEdit: &protocol.TextEdit{
			Range:   spanToRange(doc, c.Span),
			NewText: c.InsertText,
		},
	}

	if c.Format == completion.FormatSnippet {
		item.InsertTextFormat = protocol.InsertTextFormatSnippet
	}

	if c.Documentation != nil {
		item.Documentation = protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: *c.Documentation,
		}
	}

	return item
}

func itemKind(c completion.Category) protocol.CompletionItemKind {
	switch c {
	case completion.CategoryDatabase:
		return protocol.CompletionItemKindModule
	case completion.CategoryTable:
		return protocol.CompletionItemKindStruct
	case completion.CategoryColumn:
		return protocol.CompletionItemKindField
	case completion.CategoryKeyword:
		return protocol.CompletionItemKindKeyword
	case completion.CategoryFunction:
		return protocol.CompletionItemKindFunction
	case completion.CategoryVariable:
		return protocol.CompletionItemKindVariable
	default:
		return protocol.CompletionItemKindText
	}
}
