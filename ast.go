// Package hiveql provides a tolerant HiveQL lexer and parser that produces an
// arena-indexed syntax tree suited to editor features such as completion.
package hiveql

import (
	"fmt"
	"strings"
)

// NodeKind identifies the syntactic role of a node.
type NodeKind uint8

// Node kinds.
const (
	KindProgram NodeKind = iota
	KindUse
	KindSelect
	KindSubSelect
	KindWith
	KindCte
	KindSelectList
	KindSelectListItem
	KindFromClause
	KindJoinClause
	KindTableName
	KindExpr
	KindKeyword
	KindIdentifier
	KindSemicolon
)

var kindNames = [...]string{
	KindProgram:        "Program",
	KindUse:            "Use",
	KindSelect:         "Select",
	KindSubSelect:      "SubSelect",
	KindWith:           "With",
	KindCte:            "Cte",
	KindSelectList:     "SelectList",
	KindSelectListItem: "SelectListItem",
	KindFromClause:     "FromClause",
	KindJoinClause:     "JoinClause",
	KindTableName:      "TableName",
	KindExpr:           "Expr",
	KindKeyword:        "Keyword",
	KindIdentifier:     "Identifier",
	KindSemicolon:      "Semicolon",
}

func (k NodeKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return fmt.Sprintf("NodeKind(%d)", k)
}

// NodeID addresses a node inside a Program's arena.
type NodeID int32

// NoNode is the absent node.
const NoNode NodeID = -1

// Unresolved is the End of a node whose text runs to EOF without its closing
// delimiter. Containment treats it as open-ended.
const Unresolved = -1

type node struct {
	kind     NodeKind
	offset   int
	end      int
	parent   NodeID
	children []NodeID
}

// Program is a parsed HiveQL source. Node 0 is the root and spans the whole text.
// A Program is immutable once Parse returns and is safe for concurrent reads.
type Program struct {
	src   string
	nodes []node
}

// NodePath lists the nodes containing one offset, from the root to the deepest node.
type NodePath []NodeID

// Innermost returns the deepest node of the path, or NoNode if the path is empty.
func (p NodePath) Innermost() NodeID {
	if len(p) == 0 {
		return NoNode
	}

	return p[len(p)-1]
}

// TableRef is one table binding of a FROM clause or JOIN.
type TableRef struct {
	Ref   string // raw reference, e.g. "school.student"
	Alias string // empty when not aliased
	Node  NodeID // the TableName node
}

// SelectCol is one projected column of a select list.
type SelectCol struct {
	Name     string // alias if present, otherwise the last dotted segment
	Expr     NodeID
	Wildcard bool
}

// CteRef binds a WITH name to the sub-select that defines it.
type CteRef struct {
	Name   string
	Origin NodeID // KindSubSelect
}

// Source returns the text the program was parsed from.
func (p *Program) Source() string { return p.src }

// Root returns the program node.
func (p *Program) Root() NodeID { return 0 }

// Len returns the number of nodes in the tree.
func (p *Program) Len() int { return len(p.nodes) }

// Kind returns the kind of id.
func (p *Program) Kind(id NodeID) NodeKind { return p.nodes[id].kind }

// Offset returns the start offset of id.
func (p *Program) Offset(id NodeID) int { return p.nodes[id].offset }

// End returns the end offset of id, or Unresolved.
func (p *Program) End(id NodeID) int { return p.nodes[id].end }

// Parent returns the parent of id, or NoNode for the root.
func (p *Program) Parent(id NodeID) NodeID { return p.nodes[id].parent }

// Children returns the children of id in source order. The slice must not be modified.
func (p *Program) Children(id NodeID) []NodeID { return p.nodes[id].children }

// Text returns the source text of id. Unresolved nodes run to the end of the source.
func (p *Program) Text(id NodeID) string {
	n := p.nodes[id]
	if n.end == Unresolved {
		return p.src[n.offset:]
	}

	return p.src[n.offset:n.end]
}

// Contains reports whether offset lies inside id. Both ends are inclusive, so a
// cursor placed right after the last character still belongs to the node.
func (p *Program) Contains(id NodeID, offset int) bool {
	n := p.nodes[id]

	return n.offset <= offset && (n.end == Unresolved || offset <= n.end)
}

// FindParent returns the nearest ancestor-or-self of id with the given kind.
func (p *Program) FindParent(id NodeID, kind NodeKind) NodeID {
	for id != NoNode {
		if p.nodes[id].kind == kind {
			return id
		}

		id = p.nodes[id].parent
	}

	return NoNode
}

// FindChildAtOffset returns the deepest descendant of id that contains offset.
// When no child of id contains offset the result is id itself if preferEnclosing
// is set, NoNode otherwise.
func (p *Program) FindChildAtOffset(id NodeID, offset int, preferEnclosing bool) NodeID {
	if id == NoNode || !p.Contains(id, offset) {
		return NoNode
	}

	found := NoNode

	for cur := id; ; {
		next := p.childAt(cur, offset)
		if next == NoNode {
			break
		}

		found = next
		cur = next
	}

	if found == NoNode && preferEnclosing {
		return id
	}

	return found
}

// childAt returns the last child of id containing offset. Adjacent children such
// as `a.b` tokens share no offsets, so picking the last one only matters at a
// zero-width boundary.
func (p *Program) childAt(id NodeID, offset int) NodeID {
	children := p.nodes[id].children
	for i := len(children) - 1; i >= 0; i-- {
		if p.Contains(children[i], offset) {
			return children[i]
		}
	}

	return NoNode
}

// FindFirstChildBeforeOffset returns the last child of id that ends at or before
// offset, scanning backwards from the end.
func (p *Program) FindFirstChildBeforeOffset(id NodeID, offset int) NodeID {
	children := p.nodes[id].children
	for i := len(children) - 1; i >= 0; i-- {
		end := p.nodes[children[i]].end
		if end != Unresolved && end <= offset {
			return children[i]
		}
	}

	return NoNode
}

// Path returns every node containing offset from the root down. An offset
// outside the source yields an empty path.
func (p *Program) Path(offset int) NodePath {
	if len(p.nodes) == 0 || !p.Contains(0, offset) {
		return nil
	}

	path := NodePath{0}
	for cur := NodeID(0); ; {
		next := p.childAt(cur, offset)
		if next == NoNode {
			return path
		}

		path = append(path, next)
		cur = next
	}
}

// FromTables lists the table bindings of a sub-select's FROM clause, including joins.
func (p *Program) FromTables(subSelect NodeID) []TableRef {
	if subSelect == NoNode || p.Kind(subSelect) != KindSubSelect {
		return nil
	}

	var refs []TableRef

	for _, child := range p.Children(subSelect) {
		if p.Kind(child) == KindFromClause {
			refs = p.collectTables(child, refs)
		}
	}

	return refs
}

func (p *Program) collectTables(clause NodeID, refs []TableRef) []TableRef {
	// pending is the binding an identifier would alias, or -1.
	pending := -1

	for _, child := range p.Children(clause) {
		switch p.Kind(child) {
		case KindTableName:
			refs = append(refs, TableRef{Ref: p.TableNameRef(child), Node: child})
			pending = len(refs) - 1
		case KindIdentifier:
			if pending >= 0 {
				refs[pending].Alias = Unquote(p.Text(child))
			}

			pending = -1
		case KindKeyword:
			if !strings.EqualFold(p.Text(child), "as") {
				pending = -1
			}
		case KindJoinClause:
			refs = p.collectTables(child, refs)
			pending = -1
		default:
			pending = -1
		}
	}

	return refs
}

// TableNameRef joins the name parts of a TableName node with dots, dropping back
// quotes. A trailing dot typed so far is preserved.
func (p *Program) TableNameRef(table NodeID) string {
	parts := make([]string, 0, len(p.Children(table)))
	for _, child := range p.Children(table) {
		if p.Kind(child) == KindIdentifier {
			parts = append(parts, Unquote(p.Text(child)))
		}
	}

	ref := strings.Join(parts, ".")
	if strings.HasSuffix(p.Text(table), ".") {
		ref += "."
	}

	return ref
}

// SelectCols lists the projected columns of a sub-select.
func (p *Program) SelectCols(subSelect NodeID) []SelectCol {
	if subSelect == NoNode || p.Kind(subSelect) != KindSubSelect {
		return nil
	}

	var cols []SelectCol

	for _, child := range p.Children(subSelect) {
		if p.Kind(child) != KindSelectList {
			continue
		}

		for _, item := range p.Children(child) {
			if col, ok := p.selectCol(item); ok {
				cols = append(cols, col)
			}
		}
	}

	return cols
}

func (p *Program) selectCol(item NodeID) (SelectCol, bool) {
	col := SelectCol{Expr: NoNode}

	for _, child := range p.Children(item) {
		switch p.Kind(child) {
		case KindExpr:
			if col.Expr == NoNode {
				col.Expr = child
			}
		case KindIdentifier:
			col.Name = Unquote(p.Text(child))
		}
	}

	if col.Expr == NoNode {
		return col, false
	}

	text := strings.TrimSpace(p.Text(col.Expr))
	if text == "*" || strings.HasSuffix(text, ".*") {
		col.Wildcard = true
		return col, true
	}

	if col.Name == "" {
		name := text
		if i := strings.LastIndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}

		col.Name = Unquote(name)
	}

	return col, true
}

// CteTables lists the common table expressions declared by a Select's WITH clause.
func (p *Program) CteTables(selectID NodeID) []CteRef {
	if selectID == NoNode || p.Kind(selectID) != KindSelect {
		return nil
	}

	var ctes []CteRef

	for _, child := range p.Children(selectID) {
		if p.Kind(child) != KindWith {
			continue
		}

		for _, cte := range p.Children(child) {
			if p.Kind(cte) != KindCte {
				continue
			}

			ref := CteRef{Origin: NoNode}

			for _, part := range p.Children(cte) {
				switch p.Kind(part) {
				case KindIdentifier:
					if ref.Name == "" {
						ref.Name = Unquote(p.Text(part))
					}
				case KindSubSelect:
					ref.Origin = part
				}
			}

			if ref.Name != "" {
				ctes = append(ctes, ref)
			}
		}
	}

	return ctes
}

// UseDBName returns the database named by a USE statement, or "" when none was typed.
func (p *Program) UseDBName(use NodeID) string {
	if use == NoNode || p.Kind(use) != KindUse {
		return ""
	}

	for _, child := range p.Children(use) {
		if p.Kind(child) == KindIdentifier {
			return Unquote(p.Text(child))
		}
	}

	return ""
}

// Unquote strips back quotes from an identifier. An unterminated identifier
// loses its opening quote only.
func Unquote(ident string) string {
	if !strings.HasPrefix(ident, "`") {
		return ident
	}

	ident = ident[1:]
	if strings.HasSuffix(ident, "`") {
		ident = ident[:len(ident)-1]
	}

	return strings.ReplaceAll(ident, "``", "`")
}

// Dump renders the tree one node per line, indented by depth. Used by tests and
// the CLI's debug output.
func (p *Program) Dump() string {
	var b strings.Builder

	var walk func(id NodeID, depth int)
	walk = func(id NodeID, depth int) {
		n := p.nodes[id]
		end := fmt.Sprint(n.end)
		if n.end == Unresolved {
			end = "?"
		}

		fmt.Fprintf(&b, "%s%s [%d,%s]", strings.Repeat("  ", depth), n.kind, n.offset, end)

		if len(n.children) == 0 {
			fmt.Fprintf(&b, " %q", p.Text(id))
		}

		b.WriteByte('\n')

		for _, c := range n.children {
			walk(c, depth+1)
		}
	}

	if len(p.nodes) > 0 {
		walk(0, 0)
	}

	return b.String()
}
