package hiveql

import (
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2/lexer"
)

// Token type constants - negative values as per participle convention.
// Exported for use by the parser and by completion logic that inspects tokens.
const (
	TokenEOF        lexer.TokenType = lexer.EOF
	TokenComment    lexer.TokenType = -(iota + 2) //nolint:mnd // participle convention
	TokenString                                   // '...' or "..."
	TokenNumber                                   // 1, 1.5, 1e3, 10L, 2.0BD
	TokenIdent                                    // bare identifiers
	TokenQuotedIdent                              // `back quoted`
	TokenKeyword                                  // structural keywords (select, from, ...)
	TokenOp                                       // operators and stray punctuation
	TokenDot                                      // .
	TokenComma                                    // ,
	TokenSemi                                     // ;
	TokenLParen                                   // (
	TokenRParen                                   // )
	TokenWhitespace                               // spaces, tabs, newlines
	// Tokens that ran into EOF before their closing quote. The lexer never fails
	// on partial input; the parser turns these into nodes with an unresolved end.
	TokenUnterminatedIdent
	TokenUnterminatedString
	TokenIllegal
)

// keywords are the structural words the parser keys on. Anything else lexes as
// an identifier, so catalog names such as `user` or `date` stay usable.
var keywords = map[string]bool{
	"use": true, "select": true, "from": true, "with": true, "as": true,
	"join": true, "left": true, "right": true, "full": true, "inner": true,
	"outer": true, "cross": true, "semi": true, "anti": true, "on": true,
	"using": true, "where": true, "group": true, "by": true, "order": true,
	"sort": true, "cluster": true, "distribute": true, "having": true,
	"limit": true, "union": true, "all": true, "distinct": true, "and": true,
	"or": true, "not": true, "in": true, "is": true, "null": true, "like": true,
	"rlike": true, "between": true, "case": true, "when": true, "then": true,
	"else": true, "end": true, "asc": true, "desc": true, "lateral": true,
	"view": true, "insert": true, "into": true, "overwrite": true, "table": true,
	"exists": true,
}

// IsKeyword reports whether word (case-insensitive) lexes as TokenKeyword.
func IsKeyword(word string) bool {
	return keywords[strings.ToLower(word)]
}

// hiveDefinition implements lexer.Definition for HiveQL.
type hiveDefinition struct {
	symbols map[string]lexer.TokenType
}

// newHiveLexer creates a new lexer Definition for HiveQL.
func newHiveLexer() *hiveDefinition {
	return &hiveDefinition{
		symbols: map[string]lexer.TokenType{
			"EOF":                TokenEOF,
			"Comment":            TokenComment,
			"String":             TokenString,
			"Number":             TokenNumber,
			"Ident":              TokenIdent,
			"QuotedIdent":        TokenQuotedIdent,
			"Keyword":            TokenKeyword,
			"Op":                 TokenOp,
			"Dot":                TokenDot,
			"Comma":              TokenComma,
			"Semi":               TokenSemi,
			"(":                  TokenLParen,
			")":                  TokenRParen,
			"Whitespace":         TokenWhitespace,
			"UnterminatedIdent":  TokenUnterminatedIdent,
			"UnterminatedString": TokenUnterminatedString,
			"Illegal":            TokenIllegal,
		},
	}
}

// Symbols returns the mapping of symbol names to token types.
func (d *hiveDefinition) Symbols() map[string]lexer.TokenType {
	return d.symbols
}

// Lex creates a new Lexer for the given reader.
//
//nolint:ireturn // Required by participle's lexer.Definition interface.
func (d *hiveDefinition) Lex(filename string, r io.Reader) (lexer.Lexer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	return newLexerState(filename, string(data)), nil
}

// LexString implements lexer.StringDefinition for efficiency.
//
//nolint:ireturn // Required by participle's lexer.StringDefinition interface.
func (d *hiveDefinition) LexString(filename string, input string) (lexer.Lexer, error) {
	return newLexerState(filename, input), nil
}

// Tokenize lexes input into tokens, including whitespace and comments.
// Lexing never fails: malformed input produces TokenIllegal or unterminated tokens.
func Tokenize(input string) []lexer.Token {
	lex, _ := hiveLexer.LexString("", input)

	toks, err := lexer.ConsumeAll(lex)
	if err != nil {
		// lexerState.Next never returns an error.
		return nil
	}

	return toks
}

// lexerState holds the state for lexing.
type lexerState struct {
	filename string
	input    string
	offset   int
	line     int
	col      int
}

func newLexerState(filename, input string) *lexerState {
	return &lexerState{
		filename: filename,
		input:    input,
		offset:   0,
		line:     1,
		col:      1,
	}
}

// Next returns the next token.
func (l *lexerState) Next() (lexer.Token, error) {
	if l.eof() {
		return lexer.EOFToken(l.pos()), nil
	}

	start := l.pos()
	r := l.peek()

	if isSpace(r) {
		for !l.eof() && isSpace(l.peek()) {
			l.advance()
		}

		return l.token(TokenWhitespace, start), nil
	}

	// Line comment
	if r == '-' && l.peekAt(1) == '-' {
		for !l.eof() && l.peek() != '\n' {
			l.advance()
		}

		return l.token(TokenComment, start), nil
	}

	// Block comment; an unclosed one swallows the rest of the input.
	if r == '/' && l.peekAt(1) == '*' {
		l.advance()
		l.advance()

		for !l.eof() && !l.match("*/") {
			l.advance()
		}

		if !l.eof() {
			l.advance()
			l.advance()
		}

		return l.token(TokenComment, start), nil
	}

	if r == '`' {
		return l.scanQuotedIdent(start), nil
	}

	if r == '"' || r == '\'' {
		return l.scanString(start, r), nil
	}

	if isDigit(r) {
		return l.scanNumber(start), nil
	}

	if isIdentStart(r) {
		l.advance()

		for !l.eof() && isIdentContinue(l.peek()) {
			l.advance()
		}

		tok := l.token(TokenIdent, start)
		if keywords[strings.ToLower(tok.Value)] {
			tok.Type = TokenKeyword
		}

		return tok, nil
	}

	if tok, ok := l.scanMultiCharOp(start); ok {
		return tok, nil
	}

	l.advance()

	switch r {
	case '.':
		return l.token(TokenDot, start), nil
	case ',':
		return l.token(TokenComma, start), nil
	case ';':
		return l.token(TokenSemi, start), nil
	case '(':
		return l.token(TokenLParen, start), nil
	case ')':
		return l.token(TokenRParen, start), nil
	}

	if strings.ContainsRune("+-*/%^&|!<>=?#~:{}[]@$", r) {
		return l.token(TokenOp, start), nil
	}

	return l.token(TokenIllegal, start), nil
}

func (l *lexerState) pos() lexer.Position {
	return lexer.Position{
		Filename: l.filename,
		Offset:   l.offset,
		Line:     l.line,
		Column:   l.col,
	}
}

func (l *lexerState) eof() bool {
	return l.offset >= len(l.input)
}

func (l *lexerState) peek() rune {
	if l.eof() {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(l.input[l.offset:])

	return r
}

func (l *lexerState) peekAt(n int) rune {
	off := l.offset + n
	if off >= len(l.input) {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(l.input[off:])

	return r
}

func (l *lexerState) advance() {
	if l.eof() {
		return
	}

	r, size := utf8.DecodeRuneInString(l.input[l.offset:])
	l.offset += size

	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
}

func (l *lexerState) match(s string) bool {
	return strings.HasPrefix(l.input[l.offset:], s)
}

func (l *lexerState) token(typ lexer.TokenType, start lexer.Position) lexer.Token {
	return lexer.Token{
		Type:  typ,
		Value: l.input[start.Offset:l.offset],
		Pos:   start,
	}
}

func (l *lexerState) scanQuotedIdent(start lexer.Position) lexer.Token {
	l.advance() // opening `

	for !l.eof() {
		if l.peek() == '`' {
			// `` inside a quoted identifier is an escaped back quote
			if l.peekAt(1) == '`' {
				l.advance()
				l.advance()

				continue
			}

			l.advance()

			return l.token(TokenQuotedIdent, start)
		}

		l.advance()
	}

	return l.token(TokenUnterminatedIdent, start)
}

func (l *lexerState) scanString(start lexer.Position, quote rune) lexer.Token {
	l.advance() // opening quote

	for !l.eof() {
		ch := l.peek()
		if ch == '\\' && l.peekAt(1) != 0 {
			l.advance()
			l.advance()

			continue
		}

		if ch == quote {
			l.advance()

			return l.token(TokenString, start)
		}

		l.advance()
	}

	return l.token(TokenUnterminatedString, start)
}

func (l *lexerState) scanMultiCharOp(start lexer.Position) (lexer.Token, bool) {
	multiOps := []string{"<=>", "<=", ">=", "<>", "!=", "==", "||", "&&"}

	for _, op := range multiOps {
		if l.match(op) {
			for range len(op) {
				l.advance()
			}

			return l.token(TokenOp, start), true
		}
	}

	return lexer.Token{}, false
}

func (l *lexerState) scanNumber(start lexer.Position) lexer.Token {
	for !l.eof() && isDigit(l.peek()) {
		l.advance()
	}

	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		l.advance()

		for !l.eof() && isDigit(l.peek()) {
			l.advance()
		}
	}

	if (l.peek() == 'e' || l.peek() == 'E') && (isDigit(l.peekAt(1)) || l.peekAt(1) == '-' || l.peekAt(1) == '+') {
		l.advance()

		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}

		for !l.eof() && isDigit(l.peek()) {
			l.advance()
		}
	}

	// Hive literal suffixes: 10Y, 10S, 10L, 1.0BD
	switch {
	case l.match("BD") || l.match("bd"):
		l.advance()
		l.advance()
	case strings.ContainsRune("YSLysl", l.peek()) && !isIdentContinue(l.peekAt(1)):
		l.advance()
	}

	return l.token(TokenNumber, start)
}

// Character helpers.

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentContinue(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
