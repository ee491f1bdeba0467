package lsp

import (
	"context"
	"fmt"
	"strings"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/rlch/hiveql"
	"github.com/rlch/hiveql/catalog"
	"github.com/rlch/hiveql/completion"
	"github.com/rlch/hiveql/facts"
)

// Hover handles textDocument/hover requests.
func (s *Server) Hover(_ context.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	s.logger.Debug("Hover",
		zap.String("uri", string(params.TextDocument.URI)),
		zap.Uint32("line", params.Position.Line),
		zap.Uint32("character", params.Position.Character))

	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok {
		return nil, nil //nolint:nilnil
	}

	offset := doc.Text.OffsetAt(toPosition(params.Position))

	word, span := wordAt(doc.Text.Text(), offset)
	if word == "" {
		return nil, nil //nolint:nilnil
	}

	kind, content := s.hoverContent(word)
	s.metrics.observeHover(kind)

	if content == "" {
		return nil, nil //nolint:nilnil
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: content,
		},
		Range: rangePtr(spanToRange(doc.Text, span)),
	}, nil
}

// hoverContent describes a possibly dotted name: a keyword or function, a
// database, `db.table` or `db.table.column`.
func (s *Server) hoverContent(word string) (string, string) {
	parts := strings.Split(word, ".")
	for i, p := range parts {
		parts[i] = hiveql.Unquote(p)
	}

	provider := s.engine.Provider()

	switch len(parts) {
	case 1:
		if e, ok := s.engine.Facts().Lookup(parts[0]); ok && e.Kind != facts.KindUseValue {
			return e.Category(), hoverFact(e)
		}

		if db := provider.FindDatabase(parts[0]); db != nil {
			return "database", hoverDatabase(db)
		}

	case 2:
		if t := provider.FindTable(parts[0], parts[1]); t != nil {
			return "table", hoverTable(parts[0], t)
		}

	case 3:
		if c := provider.FindColumn(parts[0], parts[1], parts[2]); c != nil {
			return "column", hoverColumn(parts[0], parts[1], c)
		}
	}

	return "none", ""
}

func hoverFact(e facts.Entry) string {
	var b strings.Builder

	fmt.Fprintf(&b, "**%s** `%s`", e.Category(), e.Literal())

	if doc := e.Documentation(); doc != "" {
		b.WriteString("\n\n")
		b.WriteString(doc)
	}

	return b.String()
}

func hoverDatabase(db *catalog.Database) string {
	var b strings.Builder

	fmt.Fprintf(&b, "**database** `%s`", db.Name)

	if db.Description != "" {
		b.WriteString("\n\n")
		b.WriteString(db.Description)
	}

	fmt.Fprintf(&b, "\n\n%d tables", len(db.Tables))

	return b.String()
}

func hoverTable(database string, t *catalog.Table) string {
	var b strings.Builder

	fmt.Fprintf(&b, "**table** `%s.%s`", database, t.Name)

	if t.Description != "" {
		b.WriteString("\n\n")
		b.WriteString(t.Description)
	}

	if len(t.Columns) > 0 {
		b.WriteString("\n\n| column | type |\n|---|---|\n")

		for _, c := range t.Columns {
			fmt.Fprintf(&b, "| %s | %s |\n", c.Name, c.Type)
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

func hoverColumn(database, table string, c *catalog.Column) string {
	var b strings.Builder

	fmt.Fprintf(&b, "**column** `%s.%s.%s`", database, table, c.Name)

	if c.Type != "" {
		fmt.Fprintf(&b, " %s", c.Type)
	}

	if c.Description != "" {
		b.WriteString("\n\n")
		b.WriteString(c.Description)
	}

	return b.String()
}

// wordAt returns the dotted name around offset and its span.
func wordAt(text string, offset int) (string, completion.Span) {
	offset = max(0, min(offset, len(text)))

	start := offset
	for start > 0 && isNameByte(text[start-1]) {
		start--
	}

	end := offset
	for end < len(text) && isNameByte(text[end]) {
		end++
	}

	word := strings.Trim(text[start:end], ".")

	return word, completion.Span{Start: start, End: end}
}

func isNameByte(c byte) bool {
	return c == '_' || c == '.' || c == '`' ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}
