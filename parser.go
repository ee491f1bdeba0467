package hiveql

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// hiveLexer is the HiveQL lexer definition shared by all parses. It holds no
// per-parse state.
var hiveLexer = newHiveLexer()

// Parse parses HiveQL source into a Program. Parsing never fails: incomplete
// statements produce partial nodes so completion can inspect them.
// This function is thread-safe.
//
// Statement keywords that end their statement (followed by `;` or EOF) become
// KindExpr nodes rather than KindKeyword, so `select * from` ends in Expr("from").
func Parse(src string) *Program {
	p := &parser{
		prog: &Program{src: src},
	}

	for _, tok := range Tokenize(src) {
		switch tok.Type {
		case TokenWhitespace, TokenComment, TokenEOF:
			continue
		}

		p.toks = append(p.toks, tok)
	}

	root := p.open(KindProgram, NoNode, 0)
	p.prog.nodes[root].end = len(src)

	for !p.atEOF() {
		before := p.pos

		if p.peek().Type == TokenSemi {
			p.leaf(KindSemicolon, root, p.next())
			continue
		}

		p.parseStatement(root)

		if p.pos == before {
			p.leaf(KindExpr, root, p.next())
		}
	}

	return p.prog
}

type parser struct {
	prog  *Program
	toks  []lexer.Token
	pos   int
	depth int // open parentheses around the current sub-select
}

// Token helpers.

func (p *parser) peek() lexer.Token {
	return p.peekAt(0)
}

func (p *parser) peekAt(n int) lexer.Token {
	if p.pos+n >= len(p.toks) {
		return lexer.EOFToken(lexer.Position{Offset: len(p.prog.src)})
	}

	return p.toks[p.pos+n]
}

func (p *parser) next() lexer.Token {
	tok := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}

	return tok
}

func (p *parser) atEOF() bool {
	return p.pos >= len(p.toks)
}

// atBoundary reports whether the current statement or parenthesised sub-select ends here.
func (p *parser) atBoundary() bool {
	switch p.peek().Type {
	case TokenEOF, TokenSemi:
		return true
	case TokenRParen:
		return p.depth > 0
	}

	return false
}

func (p *parser) isKeyword(tok lexer.Token, words ...string) bool {
	if tok.Type != TokenKeyword {
		return false
	}

	for _, w := range words {
		if strings.EqualFold(tok.Value, w) {
			return true
		}
	}

	return false
}

func (p *parser) atKeyword(words ...string) bool {
	return p.isKeyword(p.peek(), words...)
}

func isWord(tok lexer.Token) bool {
	switch tok.Type {
	case TokenIdent, TokenQuotedIdent, TokenUnterminatedIdent:
		return true
	}

	return false
}

// Node helpers.

func (p *parser) open(kind NodeKind, parent NodeID, offset int) NodeID {
	id := NodeID(len(p.prog.nodes))
	p.prog.nodes = append(p.prog.nodes, node{
		kind:   kind,
		offset: offset,
		end:    offset,
		parent: parent,
	})

	if parent != NoNode {
		p.prog.nodes[parent].children = append(p.prog.nodes[parent].children, id)
	}

	return id
}

func (p *parser) leaf(kind NodeKind, parent NodeID, tok lexer.Token) NodeID {
	id := p.open(kind, parent, tok.Pos.Offset)
	p.prog.nodes[id].end = tokenEnd(tok)

	return id
}

func tokenEnd(tok lexer.Token) int {
	switch tok.Type {
	case TokenUnterminatedIdent, TokenUnterminatedString:
		return Unresolved
	}

	return tok.Pos.Offset + len(tok.Value)
}

// extend moves the end of id to end unless id is already unresolved.
func (p *parser) extend(id NodeID, end int) {
	n := &p.prog.nodes[id]
	if n.end == Unresolved {
		return
	}

	if end == Unresolved || end > n.end {
		n.end = end
	}
}

// finish closes a composite node over its last child.
func (p *parser) finish(id NodeID) {
	children := p.prog.nodes[id].children
	if len(children) == 0 {
		return
	}

	p.extend(id, p.prog.nodes[children[len(children)-1]].end)
}

// keyword consumes a keyword token. A keyword that ends its statement is a
// dangling keyword and becomes KindExpr.
func (p *parser) keyword(parent NodeID) NodeID {
	tok := p.next()
	if p.atBoundary() {
		return p.leaf(KindExpr, parent, tok)
	}

	return p.leaf(KindKeyword, parent, tok)
}

// Grammar.

func (p *parser) parseStatement(parent NodeID) {
	switch {
	case p.atKeyword("use"):
		p.parseUse(parent)
	case p.atKeyword("select", "with"):
		p.parseSelect(parent)
	default:
		// Statements the completion engine does not model (insert, show, set, ...)
		// are kept as flat keywords and expressions. A select inside one, as in
		// `insert into t select ...`, is still parsed as a Select.
		for !p.atBoundary() {
			if p.atKeyword("select", "with") {
				p.parseSelect(parent)
				continue
			}

			p.parseLoose(parent)
		}
	}
}

func (p *parser) parseUse(parent NodeID) {
	use := p.open(KindUse, parent, p.peek().Pos.Offset)
	p.keyword(use)

	if isWord(p.peek()) {
		p.leaf(KindIdentifier, use, p.next())
	}

	for !p.atBoundary() {
		p.parseLoose(use)
	}

	p.finish(use)
}

func (p *parser) parseSelect(parent NodeID) {
	sel := p.open(KindSelect, parent, p.peek().Pos.Offset)

	if p.atKeyword("with") {
		p.parseWith(sel)
	}

	for !p.atBoundary() {
		switch {
		case p.atKeyword("select"):
			p.parseSubSelect(sel)
		case p.atKeyword("union"):
			p.keyword(sel)

			if p.atKeyword("all", "distinct") {
				p.keyword(sel)
			}
		default:
			p.parseLoose(sel)
		}
	}

	p.finish(sel)
}

func (p *parser) parseWith(sel NodeID) {
	with := p.open(KindWith, sel, p.peek().Pos.Offset)
	p.keyword(with)

	for isWord(p.peek()) {
		cte := p.open(KindCte, with, p.peek().Pos.Offset)
		p.leaf(KindIdentifier, cte, p.next())

		if p.atKeyword("as") {
			p.keyword(cte)
		}

		if p.peek().Type == TokenLParen {
			p.parseParenSubSelect(cte)
		}

		p.finish(cte)

		if p.peek().Type != TokenComma {
			break
		}

		p.next()
	}

	p.finish(with)
}

// parseParenSubSelect parses `( select ... )` under parent. The parentheses
// are not nodes, but parent's span covers the closing one.
func (p *parser) parseParenSubSelect(parent NodeID) {
	p.next() // (
	p.depth++

	for !p.atBoundary() {
		if p.atKeyword("select") {
			p.parseSubSelect(parent)
			continue
		}

		p.parseLoose(parent)
	}

	p.depth--

	if p.peek().Type == TokenRParen {
		p.extend(parent, tokenEnd(p.next()))
	}
}

func (p *parser) parseSubSelect(parent NodeID) {
	sub := p.open(KindSubSelect, parent, p.peek().Pos.Offset)
	p.keyword(sub)

	if p.atKeyword("distinct", "all") {
		p.keyword(sub)
	}

	if !p.atBoundary() && !p.atKeyword("from") {
		p.parseSelectList(sub)
	}

	if p.atKeyword("from") {
		p.parseFrom(sub)
	}

	for !p.atBoundary() && !p.atKeyword("union") {
		p.parseLoose(sub)
	}

	p.finish(sub)
}

func (p *parser) parseSelectList(sub NodeID) {
	list := NoNode

	for !p.atBoundary() && !p.atKeyword("from", "union") {
		if p.peek().Type == TokenComma {
			p.next()
			continue
		}

		if list == NoNode {
			list = p.open(KindSelectList, sub, p.peek().Pos.Offset)
		}

		p.parseSelectItem(list)
	}

	if list != NoNode {
		p.finish(list)
	}
}

func (p *parser) parseSelectItem(list NodeID) {
	item := p.open(KindSelectListItem, list, p.peek().Pos.Offset)
	p.parseOperand(item, func() bool {
		return p.atKeyword("from", "as", "union")
	})

	switch {
	case p.atKeyword("as"):
		p.keyword(item)

		if isWord(p.peek()) {
			p.leaf(KindIdentifier, item, p.next())
		}
	case isWord(p.peek()):
		p.leaf(KindIdentifier, item, p.next())
	}

	p.finish(item)
}

// parseOperand gathers tokens up to a top-level comma, a boundary, or a stop
// keyword into one Expr node. An identifier directly following a complete
// operand ends it, since that identifier is an implicit alias.
func (p *parser) parseOperand(parent NodeID, stop func() bool) {
	expr := NoNode
	nesting := 0

	var prev lexer.Token

	for !p.atEOF() && p.peek().Type != TokenSemi {
		tok := p.peek()

		if nesting == 0 {
			if tok.Type == TokenComma || p.atBoundary() || stop() {
				break
			}

			if expr != NoNode && isWord(tok) && endsOperand(prev) {
				break
			}
		}

		switch tok.Type {
		case TokenLParen:
			nesting++
		case TokenRParen:
			if nesting > 0 {
				nesting--
			}
		}

		if expr == NoNode {
			expr = p.open(KindExpr, parent, tok.Pos.Offset)
		}

		p.extend(expr, tokenEnd(p.next()))
		prev = tok
	}
}

func endsOperand(tok lexer.Token) bool {
	switch tok.Type {
	case TokenIdent, TokenQuotedIdent, TokenNumber, TokenString, TokenRParen:
		return true
	case TokenOp:
		return tok.Value == "*"
	}

	return false
}

func (p *parser) parseFrom(sub NodeID) {
	tok := p.peek()
	p.next()

	if p.atBoundary() {
		p.leaf(KindExpr, sub, tok)
		return
	}

	from := p.open(KindFromClause, sub, tok.Pos.Offset)
	p.leaf(KindKeyword, from, tok)
	p.parseTableRef(from)

	for !p.atBoundary() {
		switch {
		case p.peek().Type == TokenComma:
			p.next()
			p.parseTableRef(from)
		case p.atKeyword("join", "left", "right", "full", "inner", "outer", "cross", "semi", "anti"):
			p.parseJoin(from)
		default:
			p.finish(from)
			return
		}
	}

	p.finish(from)
}

func (p *parser) parseTableRef(parent NodeID) {
	switch {
	case p.peek().Type == TokenLParen:
		p.parseParenSubSelect(parent)
	case isWord(p.peek()):
		p.parseTableName(parent)
	default:
		return
	}

	if p.atKeyword("as") {
		p.keyword(parent)
	}

	if isWord(p.peek()) {
		p.leaf(KindIdentifier, parent, p.next())
	}
}

func (p *parser) parseTableName(parent NodeID) {
	table := p.open(KindTableName, parent, p.peek().Pos.Offset)
	p.leaf(KindIdentifier, table, p.next())

	for p.peek().Type == TokenDot {
		p.extend(table, tokenEnd(p.next()))

		// Any word may follow a dot, including keywords such as `order`.
		tok := p.peek()
		if !isWord(tok) && tok.Type != TokenKeyword {
			break
		}

		p.leaf(KindIdentifier, table, p.next())
	}

	p.finish(table)
}

func (p *parser) parseJoin(from NodeID) {
	join := p.open(KindJoinClause, from, p.peek().Pos.Offset)

	for p.atKeyword("left", "right", "full", "inner", "outer", "cross", "semi", "anti") {
		p.keyword(join)
	}

	if p.atKeyword("join") {
		p.keyword(join)
	}

	if !p.atBoundary() {
		p.parseTableRef(join)
	}

	if p.atKeyword("on", "using") {
		p.keyword(join)

		for !p.atBoundary() && p.peek().Type != TokenComma && !p.atKeyword(clauseKeywords...) {
			p.parseLoose(join)
		}
	}

	p.finish(join)
}

// clauseKeywords end a join condition.
var clauseKeywords = []string{
	"join", "left", "right", "full", "inner", "outer", "cross", "semi", "anti",
	"where", "group", "order", "sort", "cluster", "distribute", "having", "limit", "union",
}

// parseLoose consumes one loose element: a dotted word run, a parenthesised
// group, a keyword, or a single other token.
func (p *parser) parseLoose(parent NodeID) {
	tok := p.peek()

	switch {
	case isWord(tok):
		expr := p.leaf(KindExpr, parent, p.next())

		for p.peek().Type == TokenDot {
			p.extend(expr, tokenEnd(p.next()))

			if next := p.peek(); isWord(next) || next.Type == TokenKeyword || (next.Type == TokenOp && next.Value == "*") {
				p.extend(expr, tokenEnd(p.next()))
			} else {
				break
			}
		}
	case tok.Type == TokenLParen:
		if p.isKeyword(p.peekAt(1), "select") {
			p.parseParenSubSelect(parent)
			return
		}

		expr := p.leaf(KindExpr, parent, p.next())
		nesting := 1

		for nesting > 0 && !p.atEOF() && p.peek().Type != TokenSemi {
			switch p.peek().Type {
			case TokenLParen:
				nesting++
			case TokenRParen:
				nesting--
			}

			p.extend(expr, tokenEnd(p.next()))
		}
	case tok.Type == TokenKeyword:
		p.keyword(parent)
	default:
		p.leaf(KindExpr, parent, p.next())
	}
}
