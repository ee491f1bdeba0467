package completion

import (
	"strings"

	"github.com/rlch/hiveql"
	"go.uber.org/zap"
)

// classify maps one node of the cursor path to candidates. handled is false
// for node kinds that say nothing about the context; the walk moves on to the
// parent without applying the termination check.
func (e *Engine) classify(r *request, id hiveql.NodeID) (items []Candidate, handled bool) {
	p := r.prog

	switch p.Kind(id) {
	case hiveql.KindProgram:
		return e.programLevel(r), true

	case hiveql.KindUse:
		return nil, true

	case hiveql.KindSubSelect:
		return e.selectList(r, id), true

	case hiveql.KindSelectList:
		return e.selectList(r, p.FindParent(id, hiveql.KindSubSelect)), true

	case hiveql.KindTableName:
		return e.fromTarget(r, id), true

	case hiveql.KindExpr:
		return e.expr(r, id), true

	case hiveql.KindKeyword:
		if e.pastKeyword(r, id, "select") {
			return e.selectList(r, p.FindParent(id, hiveql.KindSubSelect)), true
		}

		return nil, true

	case hiveql.KindSemicolon:
		return e.semicolon(r, id), true

	case hiveql.KindIdentifier:
		if p.Kind(p.Parent(id)) == hiveql.KindUse {
			return e.useTargets(r, id), true
		}

		return nil, false

	default:
		return nil, false
	}
}

// pastKeyword reports whether id reads word and the cursor is beyond it.
func (e *Engine) pastKeyword(r *request, id hiveql.NodeID, word string) bool {
	end := r.prog.End(id)

	return end != hiveql.Unresolved && r.offset > end && strings.EqualFold(r.prog.Text(id), word)
}

func (e *Engine) expr(r *request, id hiveql.NodeID) []Candidate {
	p := r.prog
	text := p.Text(id)

	if dot := strings.IndexByte(text, '.'); dot >= 0 {
		return e.dotted(r, id, text[:dot])
	}

	switch {
	case e.pastKeyword(r, id, "use"):
		return e.useTargets(r, hiveql.NoNode)
	case e.pastKeyword(r, id, "from"), e.pastKeyword(r, id, "join"):
		return e.joinTarget(r, id)
	case e.pastKeyword(r, id, "select"):
		return e.selectList(r, p.FindParent(id, hiveql.KindSubSelect))
	}

	return e.topLevel(r)
}

// dotted handles `left.` expressions. In a select list the left side is a
// table alias. Elsewhere it is an alias when the enclosing query binds one by
// that name, otherwise a database.
func (e *Engine) dotted(r *request, id hiveql.NodeID, left string) []Candidate {
	p := r.prog
	left = hiveql.Unquote(left)

	if p.Kind(p.Parent(id)) == hiveql.KindSelectListItem {
		return e.qualifiedColumns(r, id, left)
	}

	if p.FindParent(id, hiveql.KindFromClause) == hiveql.NoNode {
		if _, ok := e.aliases(r, p.FindParent(id, hiveql.KindSubSelect))[left]; ok {
			return e.qualifiedColumns(r, id, left)
		}
	}

	return e.tablesOf(r, left, r.replaceSpan(id), "")
}

// fromTarget completes a table name typed after FROM or JOIN.
func (e *Engine) fromTarget(r *request, id hiveql.NodeID) []Candidate {
	p := r.prog
	span := r.replaceSpan(id)

	text := p.Text(id)
	if dot := strings.IndexByte(text, '.'); dot >= 0 {
		items := e.tablesOf(r, hiveql.Unquote(text[:dot]), span, sortSecond)
		if e.policy == TablesAndDatabases {
			items = append(items, e.databases(r, span, sortThird)...)
		}

		return items
	}

	return e.fromListing(r, p.FindParent(id, hiveql.KindSelect), span)
}

// joinTarget completes the table after a dangling FROM or JOIN, or after a
// finished table reference. The query owning it is found from the nearest node
// before the anchor that is not itself an expression.
func (e *Engine) joinTarget(r *request, id hiveql.NodeID) []Candidate {
	p := r.prog

	anchor := id
	if p.Kind(id) == hiveql.KindExpr {
		anchor = e.beforeExpr(r, id)
	}

	sel := p.FindParent(anchor, hiveql.KindSelect)
	if sel == hiveql.NoNode {
		e.logger.Debug("no select for join target", zap.Stringer("anchor", p.Kind(anchor)))
		return nil
	}

	return e.fromListing(r, sel, r.wordSpan)
}

func (e *Engine) beforeExpr(r *request, id hiveql.NodeID) hiveql.NodeID {
	p := r.prog
	root := p.Root()

	off := p.Offset(id) - 1
	prev := p.FindChildAtOffset(root, off, true)

	for prev != hiveql.NoNode && p.Kind(prev) == hiveql.KindExpr {
		off = p.Offset(prev) - 1
		prev = p.FindChildAtOffset(root, off, true)
	}

	if prev == hiveql.NoNode {
		return root
	}

	return prev
}

// semicolon re-dispatches on what immediately precedes the semicolon, so
// `use ;` still completes databases. A cursor right after the semicolon
// starts a new statement.
func (e *Engine) semicolon(r *request, id hiveql.NodeID) []Candidate {
	p := r.prog

	if end := p.End(id); end != hiveql.Unresolved && r.offset >= end {
		next := *r
		next.word = ""
		next.wordSpan = Span{Start: r.offset, End: r.offset}

		return e.topLevel(&next)
	}

	siblings := p.Children(p.Parent(id))

	for i, sib := range siblings {
		if sib != id || i == 0 {
			continue
		}

		last := trailing(p, siblings[i-1], p.Offset(id))
		if last != hiveql.NoNode && p.Kind(last) == hiveql.KindExpr {
			return e.expr(r, last)
		}
	}

	return nil
}

// trailing descends from id through the last children ending at or before offset.
func trailing(p *hiveql.Program, id hiveql.NodeID, offset int) hiveql.NodeID {
	for {
		next := p.FindFirstChildBeforeOffset(id, offset)
		if next == hiveql.NoNode {
			return id
		}

		id = next
	}
}

// programLevel handles a cursor that sits between statements or after the
// last one: the trailing node of the previous statement decides, falling back
// to top-level proposals.
func (e *Engine) programLevel(r *request) []Candidate {
	p := r.prog
	root := p.Root()

	var items []Candidate

	if prev := p.FindFirstChildBeforeOffset(root, r.offset); prev != hiveql.NoNode {
		last := trailing(p, prev, r.offset)

		switch p.Kind(last) {
		case hiveql.KindExpr:
			items = e.expr(r, last)
		case hiveql.KindIdentifier:
			if p.FindParent(last, hiveql.KindFromClause) != hiveql.NoNode {
				items = e.joinTarget(r, last)
			}
		}
	}

	if len(items) == 0 {
		items = e.topLevel(r)
	}

	return items
}

// topLevel proposes keywords, functions and databases, or the tables of a
// database when the partial word ends in a dot.
func (e *Engine) topLevel(r *request) []Candidate {
	if db, ok := strings.CutSuffix(r.word, "."); ok {
		return e.tablesOf(r, hiveql.Unquote(db), r.wordSpan, "")
	}

	items := make([]Candidate, 0, len(e.facts.Keywords)+len(e.facts.Functions))

	for _, kw := range e.facts.Keywords {
		items = append(items, factCandidate(kw, r.wordSpan, sortFirst))
	}

	items = append(items, e.functions(r, sortSecond)...)
	items = append(items, e.databases(r, r.wordSpan, sortThird)...)

	return items
}

// useTargets proposes databases and the USE values. anchor is the database
// name typed so far, if any.
func (e *Engine) useTargets(r *request, anchor hiveql.NodeID) []Candidate {
	span := r.replaceSpan(anchor)

	items := e.databases(r, span, "")
	for _, v := range e.facts.UseValues {
		items = append(items, factCandidate(v, span, sortLast))
	}

	return items
}

func (e *Engine) functions(r *request, sortKey string) []Candidate {
	items := make([]Candidate, 0, len(e.facts.Functions))
	for _, fn := range e.facts.Functions {
		items = append(items, factCandidate(fn, r.wordSpan, sortKey))
	}

	return items
}

func (e *Engine) databases(r *request, span Span, sortKey string) []Candidate {
	dbs := r.catalog.ListDatabases()

	items := make([]Candidate, 0, len(dbs))
	for _, db := range dbs {
		items = append(items, databaseCandidate(db, span, sortKey))
	}

	return items
}

func (e *Engine) tablesOf(r *request, database string, span Span, sortKey string) []Candidate {
	tables := r.catalog.ListTables(database)

	items := make([]Candidate, 0, len(tables))
	for _, t := range tables {
		items = append(items, tableCandidate(t, span, sortKey))
	}

	return items
}

// fromListing proposes, in order, the CTE names of sel, the tables of the
// current database and all databases.
func (e *Engine) fromListing(r *request, sel hiveql.NodeID, span Span) []Candidate {
	var items []Candidate

	if sel != hiveql.NoNode {
		for _, cte := range r.prog.CteTables(sel) {
			items = append(items, cteCandidate(cte.Name, span))
		}

		if db := e.currentDatabase(r, sel); db != "" {
			items = append(items, e.tablesOf(r, db, span, sortSecond)...)
		}
	}

	return append(items, e.databases(r, span, sortThird)...)
}
