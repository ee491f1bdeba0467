package completion

import (
	"strings"

	"github.com/rlch/hiveql/catalog"
	"github.com/rlch/hiveql/facts"
)

// Sort keys. Candidates without a key sort after every keyed tier but before
// USE values.
const (
	sortFirst   = "a"
	sortSecond  = "b"
	sortThird   = "c"
	sortDefault = "d"
	sortLast    = "z"
)

// newCandidate formats one proposal. A label ending in an empty or filled
// argument list becomes a snippet placing the cursor inside the parentheses.
func newCandidate(label string, category Category, doc string, span Span, sortKey string) Candidate {
	if category == "" {
		category = CategoryText
	}

	c := Candidate{
		Label:      label,
		Detail:     category,
		InsertText: label,
		Format:     FormatPlain,
		Span:       span,
		SortKey:    sortKey,
	}

	if doc != "" {
		c.Documentation = &doc
	}

	if open := strings.IndexByte(label, '('); open > 0 && strings.HasSuffix(label, ")") {
		c.InsertText = label[:open] + "($1)"
		c.Format = FormatSnippet
	}

	return c
}

func factCandidate(e facts.Entry, span Span, sortKey string) Candidate {
	return newCandidate(e.Literal(), Category(e.Category()), e.Documentation(), span, sortKey)
}

func databaseCandidate(db catalog.Database, span Span, sortKey string) Candidate {
	return newCandidate(db.Name, CategoryDatabase, db.Description, span, sortKey)
}

func tableCandidate(t catalog.Table, span Span, sortKey string) Candidate {
	return newCandidate(t.Name, CategoryTable, t.Description, span, sortKey)
}

func columnCandidate(c catalog.Column, span Span) Candidate {
	doc := c.Description
	if c.Type != "" {
		if doc != "" {
			doc += "\n\n"
		}

		doc += "Type: " + c.Type
	}

	return newCandidate(c.Name, CategoryColumn, doc, span, "")
}

func wildcardCandidate(span Span) Candidate {
	return newCandidate("*", CategoryKeyword, "", span, "")
}

func cteCandidate(name string, span Span) Candidate {
	return newCandidate(name, CategoryVariable, "", span, sortFirst)
}
