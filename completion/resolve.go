package completion

import (
	"strings"

	"github.com/rlch/hiveql"
	"go.uber.org/zap"
)

// maxCteDepth bounds how many CTEs are followed to reach a physical table.
const maxCteDepth = 8

// target is a physical table a reference resolved to. A nil projection means
// every column is visible.
type target struct {
	database   string
	table      string
	projection map[string]bool
}

// selectList proposes the columns of every table bound in sub's FROM clause,
// or the built-in functions when nothing is bound yet.
func (e *Engine) selectList(r *request, sub hiveql.NodeID) []Candidate {
	if sub == hiveql.NoNode {
		return e.functions(r, "")
	}

	if e.inFromClause(r, sub) {
		return nil
	}

	refs := r.prog.FromTables(sub)
	if len(refs) == 0 {
		return e.functions(r, "")
	}

	sel := r.prog.FindParent(sub, hiveql.KindSelect)

	var items []Candidate

	for _, ref := range refs {
		t, ok := e.resolve(r, sel, ref.Ref)
		if ok {
			items = append(items, e.columns(r, t, r.wordSpan)...)
		}
	}

	return items
}

func (e *Engine) inFromClause(r *request, sub hiveql.NodeID) bool {
	for _, child := range r.prog.Children(sub) {
		if r.prog.Kind(child) == hiveql.KindFromClause && r.prog.Contains(child, r.offset) {
			return true
		}
	}

	return false
}

// qualifiedColumns proposes the columns of the table bound to alias in the
// query enclosing anchor.
func (e *Engine) qualifiedColumns(r *request, anchor hiveql.NodeID, alias string) []Candidate {
	sub := r.prog.FindParent(anchor, hiveql.KindSubSelect)

	ref, ok := e.aliases(r, sub)[alias]
	if !ok {
		e.logger.Debug("unbound alias", zap.String("alias", alias))
		return nil
	}

	t, ok := e.resolve(r, r.prog.FindParent(sub, hiveql.KindSelect), ref)
	if !ok {
		return nil
	}

	return e.columns(r, t, r.replaceSpan(anchor))
}

// aliases maps every name a FROM clause binds to the raw table reference:
// explicit aliases, and for unaliased tables the reference itself and its last
// segment.
func (e *Engine) aliases(r *request, sub hiveql.NodeID) map[string]string {
	bound := make(map[string]string)

	for _, ref := range r.prog.FromTables(sub) {
		if ref.Alias != "" {
			bound[ref.Alias] = ref.Ref
			continue
		}

		bound[ref.Ref] = ref.Ref

		if i := strings.LastIndexByte(ref.Ref, '.'); i >= 0 && i < len(ref.Ref)-1 {
			if _, taken := bound[ref.Ref[i+1:]]; !taken {
				bound[ref.Ref[i+1:]] = ref.Ref
			}
		}
	}

	return bound
}

// resolve maps a raw table reference to a physical table, following CTEs of
// sel. A single-part name that is not a CTE lives in the current database.
func (e *Engine) resolve(r *request, sel hiveql.NodeID, ref string) (target, bool) {
	return e.resolveDepth(r, sel, ref, 0)
}

func (e *Engine) resolveDepth(r *request, sel hiveql.NodeID, ref string, depth int) (target, bool) {
	if depth > maxCteDepth {
		e.logger.Debug("cte chain too deep", zap.String("ref", ref))
		return target{}, false
	}

	parts := strings.Split(strings.TrimSuffix(ref, "."), ".")

	if len(parts) >= 2 {
		n := len(parts)
		return target{database: parts[n-2], table: parts[n-1]}, true
	}

	for _, cte := range r.prog.CteTables(sel) {
		if cte.Name != ref || cte.Origin == hiveql.NoNode {
			continue
		}

		from := r.prog.FromTables(cte.Origin)
		if len(from) != 1 {
			return target{}, false
		}

		inner, ok := e.resolveDepth(r, sel, from[0].Ref, depth+1)
		if !ok {
			return target{}, false
		}

		if projection, ok := projectionOf(r.prog, cte.Origin); ok {
			inner.projection = projection
		}

		return inner, true
	}

	db := e.currentDatabase(r, sel)
	if db == "" {
		return target{}, false
	}

	return target{database: db, table: ref}, true
}

// projectionOf returns the column names a sub-select exposes, or false when it
// selects a wildcard.
func projectionOf(p *hiveql.Program, sub hiveql.NodeID) (map[string]bool, bool) {
	cols := p.SelectCols(sub)
	projection := make(map[string]bool, len(cols))

	for _, col := range cols {
		if col.Wildcard {
			return nil, false
		}

		projection[col.Name] = true
	}

	return projection, true
}

// currentDatabase is the database named by the last USE statement ending
// before sel starts.
func (e *Engine) currentDatabase(r *request, sel hiveql.NodeID) string {
	p := r.prog

	stmt := sel
	for parent := p.Parent(stmt); parent != hiveql.NoNode && parent != p.Root(); parent = p.Parent(stmt) {
		stmt = parent
	}

	start := p.Offset(stmt)
	statements := p.Children(p.Root())

	for i := len(statements) - 1; i >= 0; i-- {
		use := statements[i]
		if p.Kind(use) != hiveql.KindUse {
			continue
		}

		if end := p.End(use); end != hiveql.Unresolved && end < start {
			return p.UseDBName(use)
		}
	}

	return ""
}

// columns proposes the visible columns of t followed by the wildcard. An
// unknown table contributes nothing.
func (e *Engine) columns(r *request, t target, span Span) []Candidate {
	if r.catalog.FindTable(t.database, t.table) == nil {
		return nil
	}

	cols := r.catalog.ListColumns(t.database, t.table)
	items := make([]Candidate, 0, len(cols)+1)

	for _, c := range cols {
		if t.projection != nil && !t.projection[c.Name] {
			continue
		}

		items = append(items, columnCandidate(c, span))
	}

	return append(items, wildcardCandidate(span))
}
