package hiveql_test

import (
	"strings"
	"testing"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/google/go-cmp/cmp"
	"github.com/rlch/hiveql"
)

func TestLexer_Symbols(t *testing.T) {
	t.Parallel()

	symbols := hiveql.ExportedLexer().Symbols()

	expected := []string{
		"EOF", "Comment", "String", "Number", "Ident", "QuotedIdent", "Keyword",
		"Op", "Dot", "Comma", "Semi", "(", ")", "Whitespace",
		"UnterminatedIdent", "UnterminatedString", "Illegal",
	}

	for _, name := range expected {
		if _, ok := symbols[name]; !ok {
			t.Errorf("missing symbol: %s", name)
		}
	}
}

type tokenExpect struct {
	typ string
	val string
}

func lexTokens(t *testing.T, input string) []tokenExpect {
	t.Helper()

	def := hiveql.ExportedLexer()

	symbolNames := make(map[lexer.TokenType]string)
	for name, typ := range def.Symbols() {
		symbolNames[typ] = name
	}

	lex, err := def.Lex("", strings.NewReader(input))
	if err != nil {
		t.Fatalf("Lex() error: %v", err)
	}

	var tokens []tokenExpect

	for {
		tok, err := lex.Next()
		if err != nil {
			t.Fatalf("Next() error: %v", err)
		}

		if tok.EOF() {
			break
		}

		if symbolNames[tok.Type] == "Whitespace" {
			continue
		}

		tokens = append(tokens, tokenExpect{
			typ: symbolNames[tok.Type],
			val: tok.Value,
		})
	}

	return tokens
}

func TestLexer_Tokens(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected []tokenExpect
	}{
		{
			name:  "keywords are case insensitive",
			input: "SELECT id From t",
			expected: []tokenExpect{
				{"Keyword", "SELECT"}, {"Ident", "id"}, {"Keyword", "From"}, {"Ident", "t"},
			},
		},
		{
			name:  "catalog words stay identifiers",
			input: "library.user",
			expected: []tokenExpect{
				{"Ident", "library"}, {"Dot", "."}, {"Ident", "user"},
			},
		},
		{
			name:  "quoted identifier with escaped quote",
			input: "`we``ird`",
			expected: []tokenExpect{
				{"QuotedIdent", "`we``ird`"},
			},
		},
		{
			name:  "unterminated quoted identifier",
			input: "select `stud",
			expected: []tokenExpect{
				{"Keyword", "select"}, {"UnterminatedIdent", "`stud"},
			},
		},
		{
			name:  "strings",
			input: `'it\'s' "x"`,
			expected: []tokenExpect{
				{"String", `'it\'s'`}, {"String", `"x"`},
			},
		},
		{
			name:  "unterminated string",
			input: "where name = 'bo",
			expected: []tokenExpect{
				{"Keyword", "where"}, {"Ident", "name"}, {"Op", "="}, {"UnterminatedString", "'bo"},
			},
		},
		{
			name:  "numbers with hive suffixes",
			input: "1 2.5 1e3 10L 7Y 3.0BD",
			expected: []tokenExpect{
				{"Number", "1"}, {"Number", "2.5"}, {"Number", "1e3"},
				{"Number", "10L"}, {"Number", "7Y"}, {"Number", "3.0BD"},
			},
		},
		{
			name:  "punctuation and operators",
			input: "count(*), a<>b; x>=1",
			expected: []tokenExpect{
				{"Ident", "count"}, {"(", "("}, {"Op", "*"}, {")", ")"}, {"Comma", ","},
				{"Ident", "a"}, {"Op", "<>"}, {"Ident", "b"}, {"Semi", ";"},
				{"Ident", "x"}, {"Op", ">="}, {"Number", "1"},
			},
		},
		{
			name:  "comments",
			input: "-- note\nuse /* db */ school",
			expected: []tokenExpect{
				{"Comment", "-- note"}, {"Keyword", "use"}, {"Comment", "/* db */"}, {"Ident", "school"},
			},
		},
		{
			name:  "illegal characters do not stop lexing",
			input: "a \x01 b",
			expected: []tokenExpect{
				{"Ident", "a"}, {"Illegal", "\x01"}, {"Ident", "b"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := lexTokens(t, tt.input)
			if diff := cmp.Diff(tt.expected, got, cmp.AllowUnexported(tokenExpect{})); diff != "" {
				t.Errorf("tokens mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLexer_Positions(t *testing.T) {
	t.Parallel()

	toks := hiveql.Tokenize("use school;\nselect")

	var got []lexer.Position

	for _, tok := range toks {
		if tok.Type == hiveql.TokenKeyword {
			got = append(got, tok.Pos)
		}
	}

	want := []lexer.Position{
		{Offset: 0, Line: 1, Column: 1},
		{Offset: 12, Line: 2, Column: 1},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}
}

func TestIsKeyword(t *testing.T) {
	t.Parallel()

	for _, word := range []string{"select", "FROM", "Join"} {
		if !hiveql.IsKeyword(word) {
			t.Errorf("IsKeyword(%q) = false", word)
		}
	}

	for _, word := range []string{"student", "user", "count"} {
		if hiveql.IsKeyword(word) {
			t.Errorf("IsKeyword(%q) = true", word)
		}
	}
}
